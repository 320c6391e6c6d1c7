package config

import (
	"flag"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/vshulcz/sfxbridge/internal/misc"
)

const (
	defaultIngestAddr     = "http://localhost:8080"
	defaultReportInterval = 10
	defaultPollInterval   = 2
	defaultRateLimit      = 1
	defaultBufferLimit    = 10000
	defaultFlushTimeout   = 5 * time.Second
)

type AgentConfig struct {
	Address     string
	Token       string
	Key         string
	Host        string
	Application string
	// Dimensions is nil when no tag may become a dimension.
	Dimensions     []string
	PollInterval   time.Duration
	ReportInterval time.Duration
	RateLimit      int
	BufferLimit    int
	// FlushTimeout bounds the shutdown flush of queued records.
	FlushTimeout   time.Duration
	LogHost        bool
	LogApplication bool
	Batch          bool
}

// ENV > CLI > defaults
func LoadAgentConfig(args []string, out io.Writer) (AgentConfig, error) {
	if out == nil {
		out = io.Discard
	}

	fs := flag.NewFlagSet("agent", flag.ContinueOnError)
	fs.SetOutput(out)

	var addrOpt, tokenOpt, keyOpt, hostOpt, appOpt, dimsOpt string
	var reportOpt, pollOpt, limitOpt, bufOpt int
	var noHostOpt, noAppOpt, singleOpt bool
	var flushOpt time.Duration

	fs.StringVar(&addrOpt, "a", "", fmt.Sprintf("ingest address (host:port or URL), default: %s", defaultIngestAddr))
	fs.StringVar(&tokenOpt, "t", "", "SignalFx ingest token (X-SF-Token)")
	fs.StringVar(&keyOpt, "k", "", "secret key for HashSHA256 header")
	fs.StringVar(&hostOpt, "H", "", "host dimension, default: resolved hostname")
	fs.StringVar(&appOpt, "n", "", "application dimension")
	fs.StringVar(&dimsOpt, "d", "", "comma separated tag names exported as dimensions")
	fs.IntVar(&reportOpt, "r", 0, fmt.Sprintf("report interval in seconds, default: %d", defaultReportInterval))
	fs.IntVar(&pollOpt, "p", 0, fmt.Sprintf("poll interval in seconds, default: %d", defaultPollInterval))
	fs.IntVar(&limitOpt, "l", 0, "rate limit (max concurrent outgoing requests), default: 1")
	fs.IntVar(&bufOpt, "buffer", 0, fmt.Sprintf("max records queued between reports, default: %d", defaultBufferLimit))
	fs.DurationVar(&flushOpt, "flush-timeout", defaultFlushTimeout, "upper bound for the final flush on shutdown")
	fs.BoolVar(&noHostOpt, "no-host", false, "do not add the host dimension")
	fs.BoolVar(&noAppOpt, "no-application", false, "do not add the application dimension")
	fs.BoolVar(&singleOpt, "single", false, "send one request per record instead of aggregated batches")

	if err := fs.Parse(args); err != nil {
		return AgentConfig{}, err
	}

	addr := normalizeAddressURL(FromEnvOrFlag("ADDRESS", addrOpt, defaultIngestAddr))
	if _, err := url.ParseRequestURI(addr); err != nil {
		return AgentConfig{}, fmt.Errorf("invalid ingest address: %q", addr)
	}

	token := FromEnvOrFlag("SFX_TOKEN", tokenOpt, "")
	if token == "" {
		return AgentConfig{}, fmt.Errorf("ingest token is required (SFX_TOKEN or -t)")
	}

	report := FromEnvOrFlagDuration("REPORT_INTERVAL", reportOpt, 0, defaultReportInterval)
	if report <= 0 {
		return AgentConfig{}, fmt.Errorf("report interval must be > 0, got %v", report)
	}

	poll := FromEnvOrFlagDuration("POLL_INTERVAL", pollOpt, 0, defaultPollInterval)
	if poll <= 0 {
		return AgentConfig{}, fmt.Errorf("poll interval must be > 0, got %v", poll)
	}

	limit := misc.GetInt("RATE_LIMIT", 0, 1)
	if limit == 0 {
		limit = max(limitOpt, defaultRateLimit)
	}

	flush := misc.GetDuration("FLUSH_TIMEOUT", flushOpt)
	if flush <= 0 {
		flush = defaultFlushTimeout
	}

	return AgentConfig{
		Address:        addr,
		Token:          token,
		Key:            FromEnvOrFlag("KEY", keyOpt, ""),
		Host:           FromEnvOrFlag("SFX_HOST", hostOpt, ""),
		Application:    FromEnvOrFlag("APPLICATION", appOpt, ""),
		Dimensions:     misc.SplitList(FromEnvOrFlag("DIMENSIONS", dimsOpt, "")),
		PollInterval:   poll,
		ReportInterval: report,
		RateLimit:      limit,
		BufferLimit:    FromEnvOrFlagInt("BUFFER_LIMIT", bufOpt, defaultBufferLimit, 1),
		FlushTimeout:   flush,
		LogHost:        misc.GetBool("LOG_HOST", !noHostOpt),
		LogApplication: misc.GetBool("LOG_APPLICATION", !noAppOpt),
		Batch:          misc.GetBool("BATCH", !singleOpt),
	}, nil
}

func normalizeAddressURL(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return defaultIngestAddr
	}
	if strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://") {
		return s
	}
	if strings.HasPrefix(s, ":") {
		return "http://localhost" + s
	}
	return "http://" + s
}
