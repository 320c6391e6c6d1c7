package ginserver

import (
	"encoding/json"
	"errors"
	"html/template"
	"net/http"
	"sort"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/vshulcz/sfxbridge/internal/domain"
	"github.com/vshulcz/sfxbridge/internal/services/audit"
	"github.com/vshulcz/sfxbridge/internal/services/ingest"
)

// Handler exposes the datapoint ingest endpoint and read-only inspection routes.
type Handler struct {
	svc     *ingest.Service
	metrics *Metrics
}

// NewHandler wires an ingest service into gin handlers. m may be nil.
func NewHandler(svc *ingest.Service, m *Metrics) *Handler {
	return &Handler{svc: svc, metrics: m}
}

// Datapoint handles `POST /v2/datapoint` with a SignalFx JSON payload.
func (h *Handler) Datapoint(c *gin.Context) {
	var p domain.Payload
	dec := json.NewDecoder(c.Request.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&p); err != nil {
		c.String(http.StatusBadRequest, "bad request")
		return
	}

	ctx := audit.WithClientIP(c.Request.Context(), c.ClientIP())
	if _, err := h.svc.Ingest(ctx, p); err != nil {
		httpError(c, err)
		return
	}
	if h.metrics != nil {
		h.metrics.observePayload(p)
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", []byte(`"OK"`))
}

// Value handles `GET /value/:kind/:metric` returning the stored value as plain text.
func (h *Handler) Value(c *gin.Context) {
	v, err := h.svc.Get(c.Request.Context(), c.Param("kind"), c.Param("metric"))
	if err != nil {
		httpError(c, err)
		return
	}
	c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(strconv.FormatFloat(v, 'f', -1, 64)))
}

type indexRow struct {
	Name  string
	Value string
}

var indexTmpl = template.Must(template.New("index").Parse(`<!doctype html><html><head><meta charset="utf-8"><title>datapoints</title>
<style>body{font-family:system-ui,Arial,sans-serif}table{border-collapse:collapse}td,th{border:1px solid #ddd;padding:6px 10px}</style>
</head><body><h1>Datapoints</h1>
<h2>Gauge</h2><table><tr><th>Metric</th><th>Value</th></tr>{{range .Gauges}}<tr><td>{{.Name}}</td><td>{{.Value}}</td></tr>{{end}}</table>
<h2>Counter</h2><table><tr><th>Metric</th><th>Value</th></tr>{{range .Counters}}<tr><td>{{.Name}}</td><td>{{.Value}}</td></tr>{{end}}</table>
</body></html>`))

func rows(m map[string]float64) []indexRow {
	out := make([]indexRow, 0, len(m))
	for k, v := range m {
		out = append(out, indexRow{Name: k, Value: strconv.FormatFloat(v, 'f', -1, 64)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Index renders an HTML table of every stored gauge and counter.
func (h *Handler) Index(c *gin.Context) {
	snap, err := h.svc.Snapshot(c.Request.Context())
	if err != nil {
		httpError(c, err)
		return
	}
	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Status(http.StatusOK)
	if err := indexTmpl.Execute(c.Writer, struct {
		Gauges, Counters []indexRow
	}{rows(snap.Gauges), rows(snap.Counters)}); err != nil {
		_ = c.Error(err)
	}
}

// Ping proxies `GET /ping` to the storage health check.
func (h *Handler) Ping(c *gin.Context) {
	if err := h.svc.Ping(c.Request.Context()); err != nil {
		c.String(http.StatusInternalServerError, "db ping error: %v", err)
		return
	}
	c.String(http.StatusOK, "ok")
}

func httpError(c *gin.Context, err error) {
	switch {
	case err == nil:
		return
	case errors.Is(err, domain.ErrNotFound):
		c.String(http.StatusNotFound, "not found")
	case errors.Is(err, domain.ErrInvalidKind):
		c.String(http.StatusBadRequest, "bad request")
	default:
		c.String(http.StatusInternalServerError, "internal error")
	}
}
