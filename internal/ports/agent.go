package ports

import (
	"context"
	"time"

	"github.com/vshulcz/sfxbridge/internal/domain"
)

// RecordSink accepts records produced by the application logger.
type RecordSink interface {
	Add(r domain.Record)
}

// RecordSource yields the records gathered since the previous Drain.
type RecordSource interface {
	Start(ctx context.Context, interval time.Duration) error
	Stop()
	Drain() []domain.Record
}

// Publisher delivers an already rendered datapoint payload.
type Publisher interface {
	Send(ctx context.Context, token string, body []byte) error
}

// Formatter renders records into datapoint payloads.
type Formatter interface {
	Token() string
	Call(r domain.Record, src domain.Source) ([]byte, error)
	Batch(records []domain.Record, src domain.Source) ([]byte, error)
}
