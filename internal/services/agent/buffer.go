package agent

import (
	"context"
	"sync"
	"time"

	"github.com/vshulcz/sfxbridge/internal/domain"
	"github.com/vshulcz/sfxbridge/internal/ports"
)

// Buffer queues records between two report ticks.
type Buffer struct {
	records []domain.Record
	limit   int
	dropped int
	mu      sync.Mutex
}

var (
	_ ports.RecordSink   = (*Buffer)(nil)
	_ ports.RecordSource = (*Buffer)(nil)
)

// NewBuffer returns a Buffer holding at most limit records; limit <= 0 means unbounded.
func NewBuffer(limit int) *Buffer {
	return &Buffer{limit: limit}
}

// Add appends a record, dropping it when the buffer is full.
func (b *Buffer) Add(r domain.Record) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.limit > 0 && len(b.records) >= b.limit {
		b.dropped++
		return
	}
	b.records = append(b.records, r)
}

// Drain hands over every queued record and empties the buffer.
func (b *Buffer) Drain() []domain.Record {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := b.records
	b.records = nil
	return out
}

// Dropped returns and resets the number of records rejected since the last call.
func (b *Buffer) Dropped() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := b.dropped
	b.dropped = 0
	return n
}

func (*Buffer) Start(context.Context, time.Duration) error { return nil }

func (*Buffer) Stop() {}
