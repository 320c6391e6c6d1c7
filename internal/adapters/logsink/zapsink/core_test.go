package zapsink

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/vshulcz/sfxbridge/internal/domain"
)

type sink struct {
	mu   sync.Mutex
	recs []domain.Record
}

func (s *sink) Add(r domain.Record) {
	s.mu.Lock()
	s.recs = append(s.recs, r)
	s.mu.Unlock()
}

func newLogger(lvl zapcore.Level) (*zap.Logger, *sink) {
	s := &sink{}
	return zap.New(New(s, lvl)), s
}

func TestCore_TimedRecord(t *testing.T) {
	log, s := newLogger(zapcore.InfoLevel)
	log.Info("query",
		zap.String(FieldMetric, "/db/query"),
		zap.Duration(FieldDuration, 20*time.Millisecond),
		zap.String("table", "users"),
	)

	require.Len(t, s.recs, 1)
	r := s.recs[0]
	assert.Equal(t, "/db/query", r.Metric)
	require.NotNil(t, r.Duration)
	assert.Equal(t, 20*time.Millisecond, *r.Duration)
	assert.Nil(t, r.Amount)
	assert.Equal(t, map[string]string{"table": "users"}, r.Tags)
	assert.False(t, r.Time.IsZero())
}

func TestCore_AmountAndContextFields(t *testing.T) {
	log, s := newLogger(zapcore.InfoLevel)
	log = log.With(zap.String("queue", "default"))
	log.Info("done", zap.String(FieldMetric, "/jobs/done"), zap.Int(FieldAmount, 3), zap.Int("attempt", 2))

	require.Len(t, s.recs, 1)
	r := s.recs[0]
	require.NotNil(t, r.Amount)
	assert.InDelta(t, 3, *r.Amount, 1e-9)
	assert.False(t, r.Timed())
	assert.Equal(t, map[string]string{"queue": "default", "attempt": "2"}, r.Tags)
}

func TestCore_SkipsEntriesWithoutMetric(t *testing.T) {
	log, s := newLogger(zapcore.InfoLevel)
	log.Info("plain message", zap.String("user", "42"))
	assert.Empty(t, s.recs)
}

func TestCore_RespectsLevel(t *testing.T) {
	log, s := newLogger(zapcore.WarnLevel)
	log.Info("ignored", zap.String(FieldMetric, "/a"))
	log.Warn("kept", zap.String(FieldMetric, "/b"))
	require.Len(t, s.recs, 1)
	assert.Equal(t, "/b", s.recs[0].Metric)
}

func TestCore_WithDoesNotLeak(t *testing.T) {
	log, s := newLogger(zapcore.InfoLevel)
	child := log.With(zap.String("scope", "child"))
	child.Info("x", zap.String(FieldMetric, "/a"))
	log.Info("y", zap.String(FieldMetric, "/b"))

	require.Len(t, s.recs, 2)
	assert.Equal(t, map[string]string{"scope": "child"}, s.recs[0].Tags)
	assert.Nil(t, s.recs[1].Tags)
}

func TestToRecord_Errors(t *testing.T) {
	at := time.Unix(0, 0)
	tests := []struct {
		name   string
		fields map[string]any
	}{
		{"metric not string", map[string]any{FieldMetric: 5}},
		{"amount not number", map[string]any{FieldMetric: "/a", FieldAmount: "many"}},
		{"duration wrong type", map[string]any{FieldMetric: "/a", FieldDuration: "1s"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := toRecord(at, tc.fields)
			require.Error(t, err)
		})
	}
}
