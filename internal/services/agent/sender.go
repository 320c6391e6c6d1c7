package agent

import (
	"context"
	"errors"
	"net"
	"sync"

	"go.uber.org/zap"

	"github.com/vshulcz/sfxbridge/internal/domain"
	"github.com/vshulcz/sfxbridge/internal/ports"
)

// BatchPublisher renders and ships record batches from a fixed worker pool.
type BatchPublisher struct {
	pub     ports.Publisher
	fmt     ports.Formatter
	log     *zap.Logger
	jobs    chan []domain.Record
	src     domain.Source
	workers int
	batch   bool
	wg      sync.WaitGroup
}

// NewBatchPublisher sizes the pool; in single mode every record becomes its own request.
func NewBatchPublisher(pub ports.Publisher, f ports.Formatter, src domain.Source, workers int, batch bool, log *zap.Logger) *BatchPublisher {
	if workers < 1 {
		workers = 1
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &BatchPublisher{
		pub:     pub,
		fmt:     f,
		log:     log,
		src:     src,
		workers: workers,
		batch:   batch,
		jobs:    make(chan []domain.Record, workers*2),
	}
}

// Start launches the workers; ctx bounds every send they make.
func (bp *BatchPublisher) Start(ctx context.Context) {
	for i := 0; i < bp.workers; i++ {
		bp.wg.Add(1)
		go func(id int) {
			defer bp.wg.Done()
			for records := range bp.jobs {
				if len(records) == 0 {
					continue
				}
				bp.publish(ctx, id, records)
			}
		}(i + 1)
	}
}

// Stop waits for queued batches to drain. Submit must not be called afterwards.
func (bp *BatchPublisher) Stop() {
	close(bp.jobs)
	bp.wg.Wait()
}

func (bp *BatchPublisher) Submit(records []domain.Record) {
	bp.jobs <- records
}

func (bp *BatchPublisher) publish(ctx context.Context, id int, records []domain.Record) {
	if !bp.batch {
		bp.sendEach(ctx, id, records)
		return
	}
	body, err := bp.fmt.Batch(records, bp.src)
	if err == nil {
		err = bp.pub.Send(ctx, bp.fmt.Token(), body)
	}
	if err == nil {
		return
	}
	if !splittable(err) {
		bp.log.Warn("batch send failed, records dropped",
			zap.Int("worker", id), zap.Int("records", len(records)), zap.Error(err))
		return
	}
	bp.log.Warn("batch send failed, fallback to single requests",
		zap.Int("worker", id), zap.Int("records", len(records)), zap.Error(err))
	bp.sendEach(ctx, id, records)
}

// splittable reports whether resending records one by one may succeed.
// Rejected tokens, unreachable endpoints and expired contexts fail every
// single request the same way.
func splittable(err error) bool {
	if errors.Is(err, domain.ErrUnauthorized) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var netErr net.Error
	return !errors.As(err, &netErr)
}

func (bp *BatchPublisher) sendEach(ctx context.Context, id int, records []domain.Record) {
	for i, r := range records {
		if ctx.Err() != nil {
			bp.log.Warn("records dropped, send cancelled",
				zap.Int("worker", id), zap.Int("records", len(records)-i), zap.Error(ctx.Err()))
			return
		}
		body, err := bp.fmt.Call(r, bp.src)
		if err != nil {
			bp.log.Warn("record dropped", zap.Int("worker", id), zap.String("metric", r.Metric), zap.Error(err))
			continue
		}
		if err := bp.pub.Send(ctx, bp.fmt.Token(), body); err != nil {
			bp.log.Warn("send single failed", zap.Int("worker", id), zap.String("metric", r.Metric), zap.Error(err))
		}
	}
}
