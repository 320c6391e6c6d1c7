package main

import (
	"context"
	"fmt"
	"io"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/vshulcz/sfxbridge/internal/adapters/collector/runtime"
	"github.com/vshulcz/sfxbridge/internal/adapters/hostinfo"
	"github.com/vshulcz/sfxbridge/internal/adapters/logsink/zapsink"
	"github.com/vshulcz/sfxbridge/internal/adapters/publisher/httpjson"
	"github.com/vshulcz/sfxbridge/internal/config"
	"github.com/vshulcz/sfxbridge/internal/domain"
	agentsvc "github.com/vshulcz/sfxbridge/internal/services/agent"
	"github.com/vshulcz/sfxbridge/internal/services/signalfx"
)

var newBaseLogger = func() (*zap.Logger, error) { return zap.NewProduction() }

func run(ctx context.Context, args []string, out io.Writer) error {
	cfg, err := config.LoadAgentConfig(args, out)
	if err != nil {
		return fmt.Errorf("parse flags: %w", err)
	}

	base, err := newBaseLogger()
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	buffer := agentsvc.NewBuffer(cfg.BufferLimit)
	logger := zap.New(zapcore.NewTee(base.Core(), zapsink.New(buffer, zapcore.InfoLevel)))
	defer func() { _ = logger.Sync() }()

	host, err := hostinfo.Resolve(cfg.Host)
	if err != nil {
		logger.Warn("host name unavailable", zap.Error(err))
	}

	f, err := signalfx.New(signalfx.Config{
		Token:          cfg.Token,
		Dimensions:     cfg.Dimensions,
		LogHost:        cfg.LogHost,
		LogApplication: cfg.LogApplication,
	})
	if err != nil {
		return fmt.Errorf("formatter: %w", err)
	}

	pub, err := httpjson.New(cfg.Address, nil, cfg.Key, logger)
	if err != nil {
		return fmt.Errorf("publisher: %w", err)
	}

	src := domain.Source{Host: host, Application: cfg.Application}
	svc := agentsvc.New(cfg, f, pub, src, logger, buffer, runtime.New())

	logger.Info("agent started",
		zap.String(zapsink.FieldMetric, "/agent/start"),
		zap.String("ingest", cfg.Address),
		zap.Duration("poll", cfg.PollInterval),
		zap.Duration("report", cfg.ReportInterval),
		zap.Int("workers", cfg.RateLimit),
		zap.Bool("batch", cfg.Batch),
	)
	return svc.Run(ctx)
}
