package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/vshulcz/sfxbridge/internal/adapters/http/ginserver"
	"github.com/vshulcz/sfxbridge/internal/adapters/http/ginserver/middlewares"
	"github.com/vshulcz/sfxbridge/internal/config"
	"github.com/vshulcz/sfxbridge/internal/domain"
	"github.com/vshulcz/sfxbridge/internal/ports"
	"github.com/vshulcz/sfxbridge/internal/services/audit"
	"github.com/vshulcz/sfxbridge/internal/services/ingest"
)

var newLogger = func() (*zap.Logger, error) { return zap.NewProduction() }

const shutdownTimeout = 5 * time.Second

func run(ctx context.Context, args []string, out io.Writer) error {
	cfg, err := config.LoadIngestConfig(args, out)
	if err != nil {
		return fmt.Errorf("parse flags: %w", err)
	}

	logger, err := newLogger()
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	repo, persister := buildRepoAndPersister(ctx, cfg, logger)
	subject := buildAudit(cfg, logger)
	defer func() {
		if err := subject.Close(); err != nil {
			logger.Warn("close audit sinks", zap.Error(err))
		}
	}()

	save := func(ctx context.Context, s domain.Snapshot) {
		if err := persister.Save(ctx, s); err != nil {
			logger.Warn("save failed", zap.Error(err))
		}
	}

	var onChanged func(context.Context, domain.Snapshot)
	if persister != nil && cfg.Interval == 0 {
		onChanged = save
	}

	var pub audit.Publisher
	if subject != nil {
		pub = subject
	}
	svc := ingest.New(repo, onChanged, pub)
	h := ginserver.NewHandler(svc, ginserver.NewMetrics())
	r := ginserver.NewRouter(h,
		middlewares.SFXToken(cfg.Token),
		middlewares.ZapLogger(logger),
		middlewares.GzipRequest(),
		middlewares.GzipResponse(),
		middlewares.HashSHA256(cfg.Key),
	)

	if persister != nil && cfg.Interval > 0 {
		go savePeriodically(ctx, cfg.Interval, repo, save)
	}

	srv := &http.Server{Addr: cfg.Address, Handler: r, ReadHeaderTimeout: 5 * time.Second}
	errCh := make(chan error, 1)
	go func() {
		logger.Info("ingest listening",
			zap.String("addr", cfg.Address),
			zap.String("file", cfg.File),
			zap.Duration("store_interval", cfg.Interval),
			zap.Bool("restore", cfg.Restore),
			zap.Bool("db", cfg.DSN != ""),
		)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("shutdown", zap.Error(err))
	}
	if persister != nil {
		if s, err := repo.Snapshot(shutdownCtx); err == nil {
			save(shutdownCtx, s)
		}
	}
	return nil
}

func savePeriodically(ctx context.Context, every time.Duration, repo ports.DatapointRepo, save func(context.Context, domain.Snapshot)) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if s, err := repo.Snapshot(ctx); err == nil {
				save(ctx, s)
			}
		}
	}
}
