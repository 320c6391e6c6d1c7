package domain

import "time"

// Record is a single observation emitted by the application logger.
type Record struct {
	Time     time.Time
	Amount   *float64
	Duration *time.Duration
	Tags     map[string]string
	// Metric is a slash-delimited path such as "/jobs/done".
	Metric string
}

// Timed reports whether the record measured an operation.
func (r Record) Timed() bool {
	return r.Duration != nil
}

// Source is the host/application context resolved once per call or batch.
type Source struct {
	Host        string
	Application string
}
