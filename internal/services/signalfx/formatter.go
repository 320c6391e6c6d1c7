// Package signalfx translates logger records into SignalFx datapoint payloads.
package signalfx

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/vshulcz/sfxbridge/internal/domain"
)

// Config is fixed when the Formatter is built.
type Config struct {
	Token string
	// Dimensions lists the tag names copied into datapoint dimensions.
	// Nil means no tags are copied.
	Dimensions     []string
	LogHost        bool
	LogApplication bool
}

// DefaultConfig returns a Config with host and application dimensions enabled.
func DefaultConfig(token string) Config {
	return Config{Token: token, LogHost: true, LogApplication: true}
}

// Formatter is immutable after New and safe for concurrent use.
type Formatter struct {
	token          string
	dimensions     map[string]struct{}
	logHost        bool
	logApplication bool
}

// New validates the token and freezes the dimension allow-list.
func New(cfg Config) (*Formatter, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, domain.ErrMissingToken
	}
	f := &Formatter{
		token:          cfg.Token,
		logHost:        cfg.LogHost,
		logApplication: cfg.LogApplication,
	}
	if cfg.Dimensions != nil {
		f.dimensions = make(map[string]struct{}, len(cfg.Dimensions))
		for _, name := range cfg.Dimensions {
			f.dimensions[name] = struct{}{}
		}
	}
	return f, nil
}

// Token returns the ingest credential for the transport.
func (f *Formatter) Token() string {
	return f.token
}

// MetricName strips leading slashes and turns the rest into dots.
func (f *Formatter) MetricName(r domain.Record) string {
	return strings.ReplaceAll(strings.TrimLeft(r.Metric, "/"), "/", ".")
}

// Timestamp returns the record time in milliseconds since the Unix epoch.
func (f *Formatter) Timestamp(r domain.Record) int64 {
	return r.Time.UnixMilli()
}

// Value picks the amount, then the duration in milliseconds, then 1.
func (f *Formatter) Value(r domain.Record) float64 {
	switch {
	case r.Amount != nil:
		return *r.Amount
	case r.Duration != nil:
		return float64(*r.Duration) / float64(time.Millisecond)
	default:
		return 1
	}
}

// Dimensions returns nil when neither host, application nor an allowed tag survives.
func (f *Formatter) Dimensions(r domain.Record, src domain.Source) map[string]string {
	dims := make(map[string]string)
	if f.logHost && src.Host != "" {
		dims["host"] = src.Host
	}
	if f.logApplication && src.Application != "" {
		dims["application"] = src.Application
	}
	for name, value := range r.Tags {
		if value == "" {
			continue
		}
		if _, ok := f.dimensions[name]; !ok {
			continue
		}
		dims[name] = value
	}
	if len(dims) == 0 {
		return nil
	}
	return dims
}

// Classify reports gauge for timed records and counter for everything else.
func (f *Formatter) Classify(r domain.Record) domain.Kind {
	if r.Timed() {
		return domain.Gauge
	}
	return domain.Counter
}

// Translate builds one datapoint from a record.
func (f *Formatter) Translate(r domain.Record, src domain.Source) (domain.Entry, error) {
	if r.Metric == "" {
		return domain.Entry{}, domain.ErrMissingMetric
	}
	return domain.Entry{
		Metric:     f.MetricName(r),
		Timestamp:  f.Timestamp(r),
		Value:      f.Value(r),
		Dimensions: f.Dimensions(r, src),
	}, nil
}

// Call renders a single record without any aggregation.
func (f *Formatter) Call(r domain.Record, src domain.Source) ([]byte, error) {
	e, err := f.Translate(r, src)
	if err != nil {
		return nil, err
	}
	var p domain.Payload
	if f.Classify(r) == domain.Gauge {
		p.Gauge = []domain.Entry{e}
	} else {
		p.Counter = []domain.Entry{e}
	}
	return marshal(p)
}

// Batch renders records flushed together. Gauges are kept as is; counters
// sharing a metric name are summed into the first occurrence, which keeps
// its timestamp and dimensions.
func (f *Formatter) Batch(records []domain.Record, src domain.Source) ([]byte, error) {
	p, err := f.Aggregate(records, src)
	if err != nil {
		return nil, err
	}
	return marshal(p)
}

// Aggregate is Batch without serialization.
func (f *Formatter) Aggregate(records []domain.Record, src domain.Source) (domain.Payload, error) {
	var p domain.Payload
	counters := make(map[string]int)
	for i, r := range records {
		e, err := f.Translate(r, src)
		if err != nil {
			return domain.Payload{}, fmt.Errorf("record %d: %w", i, err)
		}
		if f.Classify(r) == domain.Gauge {
			p.Gauge = append(p.Gauge, e)
			continue
		}
		if idx, ok := counters[e.Metric]; ok {
			p.Counter[idx].Value += e.Value
			continue
		}
		counters[e.Metric] = len(p.Counter)
		p.Counter = append(p.Counter, e)
	}
	return p, nil
}

func marshal(p domain.Payload) ([]byte, error) {
	b, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("marshal: %w", err)
	}
	return b, nil
}
