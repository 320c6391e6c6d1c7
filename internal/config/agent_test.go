package config

import (
	"os"
	"reflect"
	"strings"
	"testing"
	"time"
)

func d(sec int) time.Duration { return time.Duration(sec) * time.Second }

var agentEnv = []string{
	"ADDRESS", "SFX_TOKEN", "KEY", "SFX_HOST", "APPLICATION", "DIMENSIONS",
	"REPORT_INTERVAL", "POLL_INTERVAL", "RATE_LIMIT", "BUFFER_LIMIT",
	"LOG_HOST", "LOG_APPLICATION", "BATCH", "FLUSH_TIMEOUT",
}

func TestLoadAgentConfig(t *testing.T) {
	tests := []struct {
		env       map[string]string
		name      string
		wantError string
		args      []string
		want      AgentConfig
	}{
		{
			name: "defaults",
			args: []string{"-t", "tok"},
			env:  map[string]string{},
			want: AgentConfig{
				Address:        defaultIngestAddr,
				Token:          "tok",
				ReportInterval: d(defaultReportInterval),
				PollInterval:   d(defaultPollInterval),
				RateLimit:      defaultRateLimit,
				BufferLimit:    defaultBufferLimit,
				FlushTimeout:   defaultFlushTimeout,
				LogHost:        true,
				LogApplication: true,
				Batch:          true,
			},
		},
		{
			name: "env override flags",
			args: []string{"-a", "https://ingest.example.com", "-t", "flag-tok", "-r", "7", "-p", "4", "-k", "hello", "-l", "5", "-d", "queue", "-single", "-flush-timeout", "2s"},
			env: map[string]string{
				"ADDRESS":         "https://env.example.com:1234",
				"SFX_TOKEN":       "env-tok",
				"REPORT_INTERVAL": "99s",
				"POLL_INTERVAL":   "77s",
				"KEY":             "world",
				"RATE_LIMIT":      "3",
				"DIMENSIONS":      "region, user",
				"BATCH":           "true",
				"FLUSH_TIMEOUT":   "30",
			},
			want: AgentConfig{
				Address:        "https://env.example.com:1234",
				Token:          "env-tok",
				Key:            "world",
				Dimensions:     []string{"region", "user"},
				ReportInterval: 99 * time.Second,
				PollInterval:   77 * time.Second,
				RateLimit:      3,
				BufferLimit:    defaultBufferLimit,
				FlushTimeout:   30 * time.Second,
				LogHost:        true,
				LogApplication: true,
				Batch:          true,
			},
		},
		{
			name: "only flags",
			args: []string{"-a", "ingest.local:9090", "-t", "tok", "-r", "7", "-p", "4", "-l", "5", "-H", "web-1", "-n", "shop", "-no-host", "-no-application", "-single", "-buffer", "50", "-flush-timeout", "1500ms"},
			env:  map[string]string{},
			want: AgentConfig{
				Address:        "http://ingest.local:9090",
				Token:          "tok",
				Host:           "web-1",
				Application:    "shop",
				ReportInterval: 7 * time.Second,
				PollInterval:   4 * time.Second,
				RateLimit:      5,
				BufferLimit:    50,
				FlushTimeout:   1500 * time.Millisecond,
			},
		},
		{
			name: "env booleans",
			args: []string{"-t", "tok"},
			env: map[string]string{
				"LOG_HOST":        "false",
				"LOG_APPLICATION": "no",
				"BATCH":           "0",
				"FLUSH_TIMEOUT":   "-3s",
			},
			want: AgentConfig{
				Address:        defaultIngestAddr,
				Token:          "tok",
				ReportInterval: d(defaultReportInterval),
				PollInterval:   d(defaultPollInterval),
				RateLimit:      defaultRateLimit,
				BufferLimit:    defaultBufferLimit,
				FlushTimeout:   defaultFlushTimeout,
			},
		},
		{
			name:      "missing token",
			args:      []string{},
			env:       map[string]string{},
			wantError: "token is required",
		},
		{
			name:      "invalid report interval from env",
			args:      []string{"-t", "tok"},
			env:       map[string]string{"REPORT_INTERVAL": "-1s", "POLL_INTERVAL": "2s"},
			wantError: "report interval must be > 0",
		},
		{
			name:      "invalid poll interval from env",
			args:      []string{"-t", "tok"},
			env:       map[string]string{"REPORT_INTERVAL": "1s", "POLL_INTERVAL": "0s"},
			wantError: "poll interval must be > 0",
		},
		{
			name:      "flag parse error",
			args:      []string{"-r", "oops"},
			env:       map[string]string{},
			wantError: "invalid value",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, k := range agentEnv {
				t.Setenv(k, "")
			}
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			got, err := LoadAgentConfig(tt.args, os.Stderr)
			if tt.wantError != "" {
				if err == nil {
					t.Fatalf("expected error %q, got nil", tt.wantError)
				}
				if !strings.Contains(err.Error(), tt.wantError) {
					t.Fatalf("expected error %q, got %v", tt.wantError, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("LoadAgentConfig:\n got  %+v\n want %+v", got, tt.want)
			}
		})
	}
}

func TestNormalizeAddressURL(t *testing.T) {
	cases := map[string]string{
		"":                   "http://localhost:8080",
		"   ":                "http://localhost:8080",
		"example.com:9999":   "http://example.com:9999",
		":8081":              "http://localhost:8081",
		"  :8081  ":          "http://localhost:8081",
		"http://ex.com:80":   "http://ex.com:80",
		"https://ex.com:443": "https://ex.com:443",
	}
	for in, want := range cases {
		if got := normalizeAddressURL(in); got != want {
			t.Errorf("normalizeAddressURL(%q): want %q, got %q", in, want, got)
		}
	}
}
