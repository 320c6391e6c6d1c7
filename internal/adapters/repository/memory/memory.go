// Package memory implements an in-memory datapoint repository.
package memory

import (
	"context"
	"errors"
	"maps"
	"sync"

	"github.com/vshulcz/sfxbridge/internal/domain"
	"github.com/vshulcz/sfxbridge/internal/ports"
)

// Repo keeps the latest gauges and running counter totals keyed by metric
// name. Dimensions are not part of the key.
type Repo struct {
	gauges   map[string]float64
	counters map[string]float64
	mu       sync.RWMutex
}

var _ ports.DatapointRepo = (*Repo)(nil)

// New returns an empty in-memory repository.
func New() *Repo {
	return &Repo{
		gauges:   make(map[string]float64),
		counters: make(map[string]float64),
	}
}

// GetGauge returns the last gauge value or domain.ErrNotFound.
func (r *Repo) GetGauge(_ context.Context, metric string) (float64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.gauges[metric]
	if !ok {
		return 0, domain.ErrNotFound
	}
	return v, nil
}

// GetCounter returns the counter total or domain.ErrNotFound.
func (r *Repo) GetCounter(_ context.Context, metric string) (float64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.counters[metric]
	if !ok {
		return 0, domain.ErrNotFound
	}
	return v, nil
}

func (r *Repo) SetGauge(_ context.Context, metric string, value float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.gauges[metric] = value
	return nil
}

func (r *Repo) AddCounter(_ context.Context, metric string, delta float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.counters[metric] += delta
	return nil
}

// Apply stores a whole payload under one lock. Gauges are applied in order,
// so the last entry for a metric wins.
func (r *Repo) Apply(_ context.Context, p domain.Payload) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range p.Gauge {
		r.gauges[e.Metric] = e.Value
	}
	for _, e := range p.Counter {
		r.counters[e.Metric] += e.Value
	}
	return nil
}

// Snapshot copies the current maps to avoid exposing internal state.
func (r *Repo) Snapshot(_ context.Context) (domain.Snapshot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	g := make(map[string]float64, len(r.gauges))
	maps.Copy(g, r.gauges)
	c := make(map[string]float64, len(r.counters))
	maps.Copy(c, r.counters)
	return domain.Snapshot{Gauges: g, Counters: c}, nil
}

// Ping reports that the in-memory store is not backed by a real database.
func (*Repo) Ping(context.Context) error {
	return errors.New("db not configured")
}
