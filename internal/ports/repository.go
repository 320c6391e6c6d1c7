package ports

import (
	"context"

	"github.com/vshulcz/sfxbridge/internal/domain"
)

type DatapointRepo interface {
	GetGauge(ctx context.Context, metric string) (float64, error)
	GetCounter(ctx context.Context, metric string) (float64, error)
	SetGauge(ctx context.Context, metric string, value float64) error
	AddCounter(ctx context.Context, metric string, delta float64) error
	Apply(ctx context.Context, p domain.Payload) error

	Snapshot(ctx context.Context) (domain.Snapshot, error)
	Ping(ctx context.Context) error
}

type Persister interface {
	Save(ctx context.Context, s domain.Snapshot) error
	Restore(ctx context.Context, repo DatapointRepo) error
}
