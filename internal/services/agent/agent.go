// Package agent drains logger records and ships them as SignalFx datapoints.
package agent

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/vshulcz/sfxbridge/internal/config"
	"github.com/vshulcz/sfxbridge/internal/domain"
	"github.com/vshulcz/sfxbridge/internal/ports"
)

// Service periodically drains its record sources and ships them to the ingest endpoint.
type Service struct {
	pub     ports.Publisher
	fmt     ports.Formatter
	log     *zap.Logger
	sender  *BatchPublisher
	src     domain.Source
	sources []ports.RecordSource
	cfg     config.AgentConfig
}

// New wires together the agent configuration, formatter, publisher and record sources.
func New(cfg config.AgentConfig, f ports.Formatter, p ports.Publisher, src domain.Source, log *zap.Logger, sources ...ports.RecordSource) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{cfg: cfg, fmt: f, pub: p, src: src, log: log, sources: sources}
}

const defaultFlushTimeout = 5 * time.Second

// Run starts every source, reports on each tick, and blocks until ctx is done.
// Records still queued at shutdown are flushed once before Run returns; the
// flush, including requests already in flight, is cut off after FlushTimeout.
func (s *Service) Run(ctx context.Context) error {
	for _, rs := range s.sources {
		if err := rs.Start(ctx, s.cfg.PollInterval); err != nil {
			return err
		}
		defer rs.Stop()
	}

	sendCtx, cancelSend := context.WithCancel(context.WithoutCancel(ctx))
	defer cancelSend()

	s.sender = NewBatchPublisher(s.pub, s.fmt, s.src, s.cfg.RateLimit, s.cfg.Batch, s.log)
	s.sender.Start(sendCtx)

	ticker := time.NewTicker(s.cfg.ReportInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			flush := s.cfg.FlushTimeout
			if flush <= 0 {
				flush = defaultFlushTimeout
			}
			deadline := time.AfterFunc(flush, func() {
				s.log.Warn("flush timeout reached, abandoning pending sends", zap.Duration("timeout", flush))
				cancelSend()
			})
			s.enqueue()
			s.sender.Stop()
			deadline.Stop()
			return nil
		case <-ticker.C:
			s.enqueue()
		}
	}
}

type dropCounter interface {
	Dropped() int
}

func (s *Service) drain() []domain.Record {
	var records []domain.Record
	for _, rs := range s.sources {
		records = append(records, rs.Drain()...)
		if dc, ok := rs.(dropCounter); ok {
			if n := dc.Dropped(); n > 0 {
				s.log.Warn("records dropped, buffer full", zap.Int("dropped", n))
			}
		}
	}
	return records
}

func (s *Service) enqueue() {
	records := s.drain()
	if len(records) == 0 {
		return
	}
	s.log.Debug("reporting records", zap.Int("records", len(records)))
	s.sender.Submit(records)
}
