// Package ingest stores datapoint payloads received by the local receiver.
package ingest

import (
	"context"
	"strings"
	"time"

	"github.com/vshulcz/sfxbridge/internal/domain"
	"github.com/vshulcz/sfxbridge/internal/ports"
	"github.com/vshulcz/sfxbridge/internal/services/audit"
)

type Service struct {
	repo      ports.DatapointRepo
	onChanged func(context.Context, domain.Snapshot)
	audit     audit.Publisher
	now       func() time.Time
}

// New builds a Service. onChanged and pub may be nil.
func New(repo ports.DatapointRepo, onChanged func(context.Context, domain.Snapshot), pub audit.Publisher) *Service {
	return &Service{repo: repo, onChanged: onChanged, audit: pub, now: time.Now}
}

func (s *Service) Ping(ctx context.Context) error {
	return s.repo.Ping(ctx)
}

// Get returns the stored value for a gauge or the running total of a counter.
func (s *Service) Get(ctx context.Context, kind, metric string) (float64, error) {
	metric = strings.TrimSpace(metric)
	if metric == "" {
		return 0, domain.ErrNotFound
	}
	k := domain.Kind(kind)
	if !k.Valid() {
		return 0, domain.ErrInvalidKind
	}
	if k == domain.Gauge {
		return s.repo.GetGauge(ctx, metric)
	}
	return s.repo.GetCounter(ctx, metric)
}

// Ingest stores a payload and returns the number of stored entries. Gauges
// overwrite, counters add. Entries with an empty metric name cannot be read
// back and are skipped without failing the rest of the payload.
func (s *Service) Ingest(ctx context.Context, p domain.Payload) (int, error) {
	p = named(p)
	if p.Len() == 0 {
		return 0, nil
	}
	if err := s.repo.Apply(ctx, p); err != nil {
		return 0, err
	}

	if s.onChanged != nil {
		if snap, err := s.repo.Snapshot(ctx); err == nil {
			s.onChanged(ctx, snap)
		}
	}
	if s.audit != nil {
		s.audit.Publish(ctx, s.event(ctx, p))
	}
	return p.Len(), nil
}

func named(p domain.Payload) domain.Payload {
	keep := func(in []domain.Entry) []domain.Entry {
		var out []domain.Entry
		for _, e := range in {
			if strings.TrimSpace(e.Metric) != "" {
				out = append(out, e)
			}
		}
		return out
	}
	return domain.Payload{Gauge: keep(p.Gauge), Counter: keep(p.Counter)}
}

func (s *Service) event(ctx context.Context, p domain.Payload) audit.Event {
	seen := make(map[string]struct{}, p.Len())
	names := make([]string, 0, p.Len())
	for _, list := range [][]domain.Entry{p.Gauge, p.Counter} {
		for _, e := range list {
			if _, ok := seen[e.Metric]; ok {
				continue
			}
			seen[e.Metric] = struct{}{}
			names = append(names, e.Metric)
		}
	}
	return audit.Event{
		Timestamp: s.now().Unix(),
		Metrics:   names,
		Gauges:    len(p.Gauge),
		Counters:  len(p.Counter),
		IPAddress: audit.ClientIPFromContext(ctx),
	}
}

func (s *Service) Snapshot(ctx context.Context) (domain.Snapshot, error) {
	return s.repo.Snapshot(ctx)
}
