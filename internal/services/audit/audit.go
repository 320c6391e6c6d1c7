// Package audit describes the trail of accepted datapoint payloads and fans
// each record out to the configured sinks.
package audit

import "github.com/vshulcz/sfxbridge/pkg/observer"

// Event describes one accepted datapoint payload: which metrics it touched,
// how many datapoints of each kind it carried, and the sender address.
type Event struct {
	Timestamp int64    `json:"ts"`
	Metrics   []string `json:"metrics"`
	Gauges    int      `json:"gauges"`
	Counters  int      `json:"counters"`
	IPAddress string   `json:"ip_address"`
}

type (
	Observer     = observer.Observer[Event]
	ObserverFunc = observer.ObserverFunc[Event]
	Publisher    = observer.Publisher[Event]
	Subject      = observer.Subject[Event]
)

// NewSubject returns a Subject delivering to observers in order.
func NewSubject(observers ...Observer) *Subject {
	return observer.NewSubject(observers...)
}
