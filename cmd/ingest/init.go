package main

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	_ "github.com/lib/pq"
	"go.uber.org/zap"

	fileaudit "github.com/vshulcz/sfxbridge/internal/adapters/audit/file"
	remoteaudit "github.com/vshulcz/sfxbridge/internal/adapters/audit/remote"
	"github.com/vshulcz/sfxbridge/internal/adapters/persistence/file"
	memrepo "github.com/vshulcz/sfxbridge/internal/adapters/repository/memory"
	pgrepo "github.com/vshulcz/sfxbridge/internal/adapters/repository/postgres"
	"github.com/vshulcz/sfxbridge/internal/config"
	"github.com/vshulcz/sfxbridge/internal/misc"
	"github.com/vshulcz/sfxbridge/internal/ports"
	"github.com/vshulcz/sfxbridge/internal/services/audit"
)

// buildRepoAndPersister prefers Postgres and falls back to memory with an
// optional file persister when the database is unset or unreachable.
func buildRepoAndPersister(ctx context.Context, cfg config.IngestConfig, logger *zap.Logger) (ports.DatapointRepo, ports.Persister) {
	if cfg.DSN != "" {
		db, err := sql.Open("postgres", cfg.DSN)
		if err == nil {
			op := func() error {
				if err := db.PingContext(ctx); err != nil {
					return err
				}
				return pgrepo.Migrate(db)
			}
			if err = misc.Retry(ctx, misc.DefaultBackoff, pgrepo.IsRetryable, op); err == nil {
				logger.Info("db connected & migrated")
				return pgrepo.New(db), nil
			}
			_ = db.Close()
		}
		logger.Warn("postgres init failed, falling back to memory", zap.Error(err))
	}

	repo := memrepo.New()
	if cfg.File == "" {
		return repo, nil
	}
	p := file.New(cfg.File)
	if cfg.Restore {
		if err := p.Restore(ctx, repo); err != nil {
			logger.Warn("restore failed", zap.Error(err))
		} else {
			logger.Info("restore ok", zap.String("file", cfg.File))
		}
	}
	return repo, p
}

// buildAudit returns nil when no audit sink is configured.
func buildAudit(cfg config.IngestConfig, logger *zap.Logger) *audit.Subject {
	var observers []audit.Observer
	if cfg.AuditFile != "" {
		observers = append(observers, fileaudit.New(cfg.AuditFile))
	}
	if cfg.AuditURL != "" {
		c, err := remoteaudit.New(cfg.AuditURL, &http.Client{Timeout: 5 * time.Second})
		if err != nil {
			logger.Warn("audit url ignored", zap.Error(err))
		} else {
			observers = append(observers, c)
		}
	}
	if len(observers) == 0 {
		return nil
	}
	s := audit.NewSubject(observers...)
	s.SetErrorHandler(func(err error) {
		logger.Warn("audit notify failed", zap.Error(err))
	})
	return s
}
