// Package postgres implements a Postgres-backed datapoint repository.
package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"net"
	"strings"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/lib/pq"

	"github.com/vshulcz/sfxbridge/internal/domain"
	"github.com/vshulcz/sfxbridge/internal/misc"
	"github.com/vshulcz/sfxbridge/internal/ports"
)

// Repo persists datapoints in Postgres with retryable operations.
// Gauges and counters live in separate rows keyed by (metric, kind).
type Repo struct {
	db *sql.DB
}

var _ ports.DatapointRepo = (*Repo)(nil)

var retryablePGCodes = map[string]struct{}{
	pgerrcode.ConnectionException:                           {},
	pgerrcode.ConnectionDoesNotExist:                        {},
	pgerrcode.ConnectionFailure:                             {},
	pgerrcode.SQLClientUnableToEstablishSQLConnection:       {},
	pgerrcode.SQLServerRejectedEstablishmentOfSQLConnection: {},
	pgerrcode.TransactionResolutionUnknown:                  {},
	pgerrcode.ProtocolViolation:                             {},
	pgerrcode.SerializationFailure:                          {},
	pgerrcode.DeadlockDetected:                              {},
	pgerrcode.LockNotAvailable:                              {},
	pgerrcode.TooManyConnections:                            {},
	pgerrcode.AdminShutdown:                                 {},
	pgerrcode.CrashShutdown:                                 {},
	pgerrcode.CannotConnectNow:                              {},
	pgerrcode.QueryCanceled:                                 {},
}

const (
	qGet = `SELECT value FROM datapoints WHERE metric=$1 AND kind=$2`

	qSetGauge = `
INSERT INTO datapoints (metric, kind, value, updated_at)
VALUES ($1, 'gauge', $2, now())
ON CONFLICT (metric, kind)
DO UPDATE SET value=EXCLUDED.value, updated_at=now();`

	qAddCounter = `
INSERT INTO datapoints (metric, kind, value, updated_at)
VALUES ($1, 'counter', $2, now())
ON CONFLICT (metric, kind)
DO UPDATE SET value=datapoints.value+EXCLUDED.value, updated_at=now();`

	qSnapshot = `SELECT metric, kind, value FROM datapoints`
)

// New returns a Postgres-backed repository.
func New(db *sql.DB) *Repo {
	return &Repo{db: db}
}

func (r *Repo) GetGauge(ctx context.Context, metric string) (float64, error) {
	return r.get(ctx, metric, domain.Gauge)
}

func (r *Repo) GetCounter(ctx context.Context, metric string) (float64, error) {
	return r.get(ctx, metric, domain.Counter)
}

func (r *Repo) get(ctx context.Context, metric string, kind domain.Kind) (float64, error) {
	var v sql.NullFloat64
	op := func() error {
		v = sql.NullFloat64{}
		return r.db.QueryRowContext(ctx, qGet, metric, string(kind)).Scan(&v)
	}
	if err := misc.Retry(ctx, misc.DefaultBackoff, isRetryablePG, op); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, domain.ErrNotFound
		}
		return 0, err
	}
	if !v.Valid {
		return 0, domain.ErrNotFound
	}
	return v.Float64, nil
}

// SetGauge upserts a gauge value.
func (r *Repo) SetGauge(ctx context.Context, metric string, v float64) error {
	op := func() error {
		_, err := r.db.ExecContext(ctx, qSetGauge, metric, v)
		return err
	}
	return misc.Retry(ctx, misc.DefaultBackoff, isRetryablePG, op)
}

// AddCounter increments (or creates) the named counter.
func (r *Repo) AddCounter(ctx context.Context, metric string, delta float64) error {
	op := func() error {
		_, err := r.db.ExecContext(ctx, qAddCounter, metric, delta)
		return err
	}
	return misc.Retry(ctx, misc.DefaultBackoff, isRetryablePG, op)
}

// Apply stores a whole payload inside one transaction.
func (r *Repo) Apply(ctx context.Context, p domain.Payload) error {
	if p.Len() == 0 {
		return nil
	}

	attempt := func() error {
		tx, err := r.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
		if err != nil {
			return err
		}
		defer func() {
			_ = tx.Rollback()
		}()

		for _, e := range p.Gauge {
			if _, err := tx.ExecContext(ctx, qSetGauge, e.Metric, e.Value); err != nil {
				return err
			}
		}
		for _, e := range p.Counter {
			if _, err := tx.ExecContext(ctx, qAddCounter, e.Metric, e.Value); err != nil {
				return err
			}
		}
		return tx.Commit()
	}
	return misc.Retry(ctx, misc.DefaultBackoff, isRetryablePG, attempt)
}

// Snapshot loads all stored datapoints grouped by kind.
func (r *Repo) Snapshot(ctx context.Context) (domain.Snapshot, error) {
	resultG := map[string]float64{}
	resultC := map[string]float64{}

	op := func() error {
		rows, err := r.db.QueryContext(ctx, qSnapshot)
		if err != nil {
			return err
		}
		defer func() {
			_ = rows.Close()
		}()

		g := map[string]float64{}
		c := map[string]float64{}

		var metric, kind string
		var v float64
		for rows.Next() {
			if err := rows.Scan(&metric, &kind, &v); err != nil {
				continue
			}
			switch domain.Kind(kind) {
			case domain.Gauge:
				g[metric] = v
			case domain.Counter:
				c[metric] = v
			default:
			}
		}
		if err := rows.Err(); err != nil {
			return err
		}
		resultG = g
		resultC = c
		return nil
	}
	if err := misc.Retry(ctx, misc.DefaultBackoff, isRetryablePG, op); err != nil {
		return domain.Snapshot{Gauges: resultG, Counters: resultC}, err
	}
	return domain.Snapshot{Gauges: resultG, Counters: resultC}, nil
}

// Ping verifies the database connection using a short-lived context.
func (r *Repo) Ping(ctx context.Context) error {
	if r.db == nil {
		return errors.New("db not configured")
	}
	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	op := func() error {
		return r.db.PingContext(ctx)
	}
	return misc.Retry(ctx, misc.DefaultBackoff, isRetryablePG, op)
}

// IsRetryable reports whether the error should trigger a retry according to Postgres semantics.
func IsRetryable(err error) bool {
	return isRetryablePG(err)
}

func isRetryablePG(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, driver.ErrBadConn) {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}
	var pqe *pq.Error
	if errors.As(err, &pqe) {
		return isRetryablePGCode(string(pqe.Code))
	}
	return false
}

func isRetryablePGCode(code string) bool {
	if _, ok := retryablePGCodes[code]; ok {
		return true
	}
	return strings.HasPrefix(code, "08") || strings.HasPrefix(code, "40")
}
