package config

import (
	"flag"
	"fmt"
	"io"
	"net"
	"net/url"
	"strings"
	"time"

	"github.com/vshulcz/sfxbridge/internal/misc"
)

const (
	defaultListenAndServeAddr = ":8080"
	defaultFilePath           = "datapoints.json"
	defaultDSN                = ""
	defaultStoreInterval      = 300
	defaultRestore            = false
)

type IngestConfig struct {
	Address string
	File    string
	DSN     string
	// Token is the expected X-SF-Token; empty accepts every request.
	Token string
	Key   string
	// AuditFile and AuditURL enable the ingest audit trail when set.
	AuditFile string
	AuditURL  string
	Interval  time.Duration
	Restore   bool
}

// ENV > CLI > defaults
func LoadIngestConfig(args []string, out io.Writer) (IngestConfig, error) {
	if out == nil {
		out = io.Discard
	}

	fs := flag.NewFlagSet("ingest", flag.ContinueOnError)
	fs.SetOutput(out)

	var addrOpt, fileOpt, dsnOpt, tokenOpt, keyOpt, auditFileOpt, auditURLOpt string
	var ivalOpt int
	var restoreOpt bool

	fs.StringVar(&addrOpt, "a", "", fmt.Sprintf("HTTP listen address, default: %s", defaultListenAndServeAddr))
	fs.StringVar(&fileOpt, "f", "", fmt.Sprintf("FILE_STORAGE_PATH, default: %s", defaultFilePath))
	fs.StringVar(&dsnOpt, "d", "", "DATABASE_DSN for Postgres, default: in-memory")
	fs.StringVar(&tokenOpt, "t", "", "expected X-SF-Token, default: accept any")
	fs.StringVar(&keyOpt, "k", "", "secret key for HashSHA256 header")
	fs.StringVar(&auditFileOpt, "audit-file", "", "AUDIT_FILE path for the JSON-lines audit log")
	fs.StringVar(&auditURLOpt, "audit-url", "", "AUDIT_URL endpoint receiving audit events")
	fs.IntVar(&ivalOpt, "i", -1, fmt.Sprintf("STORE_INTERVAL seconds (0 - sync), default: %d", defaultStoreInterval))
	fs.BoolVar(&restoreOpt, "r", false, fmt.Sprintf("RESTORE on start (true/false), default: %t", defaultRestore))

	if err := fs.Parse(args); err != nil {
		return IngestConfig{}, err
	}

	addr := normalizeListenAndServeURL(FromEnvOrFlag("ADDRESS", addrOpt, defaultListenAndServeAddr))
	_, port, err := net.SplitHostPort(addr)
	if err != nil || port == "" {
		return IngestConfig{}, fmt.Errorf("invalid listen address: %q", addr)
	}

	interval := FromEnvOrFlagDuration("STORE_INTERVAL", ivalOpt, -1, defaultStoreInterval)
	if interval < 0 {
		return IngestConfig{}, fmt.Errorf("store interval must be >= 0, got %v", interval)
	}

	return IngestConfig{
		Address:   addr,
		File:      FromEnvOrFlag("FILE_STORAGE_PATH", fileOpt, defaultFilePath),
		DSN:       FromEnvOrFlag("DATABASE_DSN", dsnOpt, defaultDSN),
		Token:     FromEnvOrFlag("SFX_TOKEN", tokenOpt, ""),
		Key:       FromEnvOrFlag("KEY", keyOpt, ""),
		AuditFile: FromEnvOrFlag("AUDIT_FILE", auditFileOpt, ""),
		AuditURL:  FromEnvOrFlag("AUDIT_URL", auditURLOpt, ""),
		Interval:  interval,
		Restore:   FromEnvOrFlagBool("RESTORE", restoreOpt, defaultRestore),
	}, nil
}

func normalizeListenAndServeURL(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return defaultListenAndServeAddr
	}
	if strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://") {
		if u, err := url.Parse(s); err == nil && u.Host != "" {
			return u.Host
		}
	}
	if !strings.Contains(s, ":") {
		return ":" + s
	}
	return s
}
