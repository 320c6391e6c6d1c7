package domain

// Kind enumerates the SignalFx datapoint classes this module produces.
type Kind string

const (
	// Gauge is a point-in-time measurement; every timed record is a gauge.
	Gauge Kind = "gauge"
	// Counter is an incrementable count, summed per metric within one batch.
	Counter Kind = "counter"

	// SignalFx also accepts "cumulative_counter". It is not produced yet: a
	// third Kind would need its own Payload list and classification rule.
)

// Valid reports whether k is one of the supported kinds.
func (k Kind) Valid() bool {
	return k == Gauge || k == Counter
}

// Entry is one datapoint in the ingest payload.
type Entry struct {
	Metric     string            `json:"metric"`
	Timestamp  int64             `json:"timestamp"`
	Value      float64           `json:"value"`
	Dimensions map[string]string `json:"dimensions,omitempty"`
}

// Payload is the body accepted by the SignalFx /v2/datapoint endpoint.
type Payload struct {
	Gauge   []Entry `json:"gauge,omitempty"`
	Counter []Entry `json:"counter,omitempty"`
}

// Len returns the number of datapoints across both kinds.
func (p Payload) Len() int {
	return len(p.Gauge) + len(p.Counter)
}

// Snapshot groups the latest gauge values and accumulated counters.
type Snapshot struct {
	Gauges   map[string]float64
	Counters map[string]float64
}
