// Package zapsink adapts zap log entries carrying metric fields into records.
//
// An entry becomes a record when it has a "metric" field:
//
//	log.Info("job finished",
//		zap.String("metric", "/jobs/done"),
//		zap.Duration("duration", took),
//		zap.String("queue", "default"),
//	)
//
// "metric_amount" sets the amount and "duration" marks the record as timed.
// Every other field is stringified into a tag.
package zapsink

import (
	"fmt"
	"time"

	"go.uber.org/zap/zapcore"

	"github.com/vshulcz/sfxbridge/internal/domain"
	"github.com/vshulcz/sfxbridge/internal/ports"
)

// Field keys with special meaning; any other field becomes a tag.
const (
	// FieldMetric holds the record's metric path. Entries without it are ignored.
	FieldMetric = "metric"
	// FieldAmount holds a numeric amount and must be a number.
	FieldAmount = "metric_amount"
	// FieldDuration marks the record as timed and must be a time.Duration.
	FieldDuration = "duration"
)

// Core is a zapcore.Core that writes records to a sink instead of an encoder.
type Core struct {
	zapcore.LevelEnabler
	sink   ports.RecordSink
	fields []zapcore.Field
}

var _ zapcore.Core = (*Core)(nil)

// New returns a Core forwarding entries at or above lvl to sink.
func New(sink ports.RecordSink, lvl zapcore.LevelEnabler) *Core {
	return &Core{LevelEnabler: lvl, sink: sink}
}

// With returns a copy of the Core whose records also carry fields. The
// receiver is left untouched.
func (c *Core) With(fields []zapcore.Field) zapcore.Core {
	clone := &Core{LevelEnabler: c.LevelEnabler, sink: c.sink}
	clone.fields = make([]zapcore.Field, 0, len(c.fields)+len(fields))
	clone.fields = append(clone.fields, c.fields...)
	clone.fields = append(clone.fields, fields...)
	return clone
}

// Check adds the Core to ce when the entry's level is enabled.
func (c *Core) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(ent.Level) {
		return ce.AddCore(ent, c)
	}
	return ce
}

// Write converts the entry and its fields into a record and hands it to the
// sink. Entries without FieldMetric are dropped silently; a malformed
// FieldMetric, FieldAmount or FieldDuration is returned as an error.
func (c *Core) Write(ent zapcore.Entry, fields []zapcore.Field) error {
	enc := zapcore.NewMapObjectEncoder()
	for _, f := range c.fields {
		f.AddTo(enc)
	}
	for _, f := range fields {
		f.AddTo(enc)
	}
	rec, ok, err := toRecord(ent.Time, enc.Fields)
	if err != nil || !ok {
		return err
	}
	c.sink.Add(rec)
	return nil
}

// Sync is a no-op; records are handed to the sink as they are written.
func (c *Core) Sync() error { return nil }

func toRecord(at time.Time, fields map[string]any) (domain.Record, bool, error) {
	raw, ok := fields[FieldMetric]
	if !ok {
		return domain.Record{}, false, nil
	}
	metric, ok := raw.(string)
	if !ok {
		return domain.Record{}, false, fmt.Errorf("field %q: want string, got %T", FieldMetric, raw)
	}
	rec := domain.Record{Metric: metric, Time: at}

	for k, v := range fields {
		switch k {
		case FieldMetric:
		case FieldAmount:
			amt, err := toFloat(v)
			if err != nil {
				return domain.Record{}, false, fmt.Errorf("field %q: %w", FieldAmount, err)
			}
			rec.Amount = &amt
		case FieldDuration:
			d, ok := v.(time.Duration)
			if !ok {
				return domain.Record{}, false, fmt.Errorf("field %q: want duration, got %T", FieldDuration, v)
			}
			rec.Duration = &d
		default:
			if rec.Tags == nil {
				rec.Tags = make(map[string]string)
			}
			rec.Tags[k] = fmt.Sprint(v)
		}
	}
	return rec, true, nil
}

func toFloat(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case float32:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case int32:
		return float64(n), nil
	case int:
		return float64(n), nil
	case uint64:
		return float64(n), nil
	case uint32:
		return float64(n), nil
	default:
		return 0, fmt.Errorf("want number, got %T", v)
	}
}
