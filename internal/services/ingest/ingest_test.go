package ingest

import (
	"context"
	"errors"
	"maps"
	"sync"
	"testing"
	"time"

	"github.com/vshulcz/sfxbridge/internal/domain"
	"github.com/vshulcz/sfxbridge/internal/services/audit"
)

type fakeRepo struct {
	mu       sync.Mutex
	gauges   map[string]float64
	counters map[string]float64

	applyCalls    []domain.Payload
	pingErr       error
	applyErr      error
	snapshotErr   error
	getErr        error
	snapshotCalls int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{gauges: map[string]float64{}, counters: map[string]float64{}}
}

func (r *fakeRepo) GetGauge(_ context.Context, metric string) (float64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.getErr != nil {
		return 0, r.getErr
	}
	v, ok := r.gauges[metric]
	if !ok {
		return 0, domain.ErrNotFound
	}
	return v, nil
}

func (r *fakeRepo) GetCounter(_ context.Context, metric string) (float64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.getErr != nil {
		return 0, r.getErr
	}
	v, ok := r.counters[metric]
	if !ok {
		return 0, domain.ErrNotFound
	}
	return v, nil
}

func (r *fakeRepo) SetGauge(_ context.Context, metric string, v float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.gauges[metric] = v
	return nil
}

func (r *fakeRepo) AddCounter(_ context.Context, metric string, d float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.counters[metric] += d
	return nil
}

func (r *fakeRepo) Apply(_ context.Context, p domain.Payload) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.applyErr != nil {
		return r.applyErr
	}
	r.applyCalls = append(r.applyCalls, p)
	for _, e := range p.Gauge {
		r.gauges[e.Metric] = e.Value
	}
	for _, e := range p.Counter {
		r.counters[e.Metric] += e.Value
	}
	return nil
}

func (r *fakeRepo) Snapshot(_ context.Context) (domain.Snapshot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snapshotCalls++
	if r.snapshotErr != nil {
		return domain.Snapshot{}, r.snapshotErr
	}
	g := make(map[string]float64, len(r.gauges))
	maps.Copy(g, r.gauges)
	c := make(map[string]float64, len(r.counters))
	maps.Copy(c, r.counters)
	return domain.Snapshot{Gauges: g, Counters: c}, nil
}

func (r *fakeRepo) Ping(context.Context) error {
	return r.pingErr
}

func TestService_Ping(t *testing.T) {
	repo := newFakeRepo()
	s := New(repo, nil, nil)
	if err := s.Ping(context.Background()); err != nil {
		t.Fatalf("Ping unexpected err: %v", err)
	}
	repo.pingErr = errors.New("down")
	if err := s.Ping(context.Background()); err == nil {
		t.Fatal("expected error from Ping")
	}
}

func TestService_Get(t *testing.T) {
	repo := newFakeRepo()
	repo.gauges["db.query"] = 1.25
	repo.counters["jobs.done"] = 9
	svc := New(repo, nil, nil)

	tests := []struct {
		wantErr error
		name    string
		kind    string
		metric  string
		want    float64
	}{
		{name: "empty metric trimmed", kind: "gauge", metric: "   ", wantErr: domain.ErrNotFound},
		{name: "invalid kind", kind: "cumulative_counter", metric: "x", wantErr: domain.ErrInvalidKind},
		{name: "gauge ok", kind: "gauge", metric: "db.query", want: 1.25},
		{name: "gauge trimmed", kind: "gauge", metric: " db.query ", want: 1.25},
		{name: "gauge not found", kind: "gauge", metric: "missing", wantErr: domain.ErrNotFound},
		{name: "counter ok", kind: "counter", metric: "jobs.done", want: 9},
		{name: "counter not found", kind: "counter", metric: "nope", wantErr: domain.ErrNotFound},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := svc.Get(context.Background(), tc.kind, tc.metric)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("err=%v want %v", err, tc.wantErr)
			}
			if err == nil && got != tc.want {
				t.Fatalf("got %v want %v", got, tc.want)
			}
		})
	}

	t.Run("repo error passes through", func(t *testing.T) {
		boom := errors.New("boom")
		repo.getErr = boom
		defer func() { repo.getErr = nil }()
		if _, err := svc.Get(context.Background(), "counter", "jobs.done"); !errors.Is(err, boom) {
			t.Fatalf("err=%v want boom", err)
		}
	})
}

func TestService_Ingest(t *testing.T) {
	payload := domain.Payload{
		Gauge: []domain.Entry{
			{Metric: "db.query", Value: 10},
			{Metric: "db.query", Value: 30},
		},
		Counter: []domain.Entry{
			{Metric: "jobs.done", Value: 2},
			{Metric: "runtime.poll", Value: 1},
		},
	}

	t.Run("stores and counts", func(t *testing.T) {
		repo := newFakeRepo()
		repo.counters["jobs.done"] = 5
		var snaps []domain.Snapshot
		svc := New(repo, func(_ context.Context, s domain.Snapshot) { snaps = append(snaps, s) }, nil)

		n, err := svc.Ingest(context.Background(), payload)
		if err != nil {
			t.Fatalf("Ingest err: %v", err)
		}
		if n != 4 {
			t.Fatalf("n=%d want 4", n)
		}
		if repo.gauges["db.query"] != 30 {
			t.Fatalf("gauge=%v want last value 30", repo.gauges["db.query"])
		}
		if repo.counters["jobs.done"] != 7 {
			t.Fatalf("counter=%v want 7", repo.counters["jobs.done"])
		}
		if len(snaps) != 1 || snaps[0].Counters["runtime.poll"] != 1 {
			t.Fatalf("onChanged snapshots=%+v", snaps)
		}
	})

	t.Run("empty payload is noop", func(t *testing.T) {
		repo := newFakeRepo()
		svc := New(repo, func(context.Context, domain.Snapshot) { t.Fatal("onChanged called") }, nil)
		n, err := svc.Ingest(context.Background(), domain.Payload{})
		if err != nil || n != 0 {
			t.Fatalf("got (%d,%v)", n, err)
		}
		if len(repo.applyCalls) != 0 {
			t.Fatal("Apply must not be called")
		}
	})

	t.Run("nameless entries are skipped", func(t *testing.T) {
		repo := newFakeRepo()
		svc := New(repo, nil, nil)
		mixed := domain.Payload{
			Gauge:   []domain.Entry{{Metric: "ok", Value: 1}},
			Counter: []domain.Entry{{Metric: "", Value: 1}, {Metric: " ", Value: 2}},
		}
		n, err := svc.Ingest(context.Background(), mixed)
		if err != nil || n != 1 {
			t.Fatalf("got (%d,%v) want (1,nil)", n, err)
		}
		if len(repo.applyCalls) != 1 || len(repo.applyCalls[0].Counter) != 0 || repo.gauges["ok"] != 1 {
			t.Fatalf("applied=%+v", repo.applyCalls)
		}
	})

	t.Run("only nameless entries is noop", func(t *testing.T) {
		repo := newFakeRepo()
		svc := New(repo, func(context.Context, domain.Snapshot) { t.Fatal("onChanged called") }, nil)
		n, err := svc.Ingest(context.Background(), domain.Payload{Counter: []domain.Entry{{Value: 1}}})
		if err != nil || n != 0 {
			t.Fatalf("got (%d,%v)", n, err)
		}
		if len(repo.applyCalls) != 0 {
			t.Fatal("Apply must not be called")
		}
	})

	t.Run("repo error", func(t *testing.T) {
		repo := newFakeRepo()
		repo.applyErr = errors.New("db")
		svc := New(repo, func(context.Context, domain.Snapshot) { t.Fatal("onChanged called") }, nil)
		if _, err := svc.Ingest(context.Background(), payload); err == nil {
			t.Fatal("expected error")
		}
	})

	t.Run("snapshot error skips onChanged", func(t *testing.T) {
		repo := newFakeRepo()
		repo.snapshotErr = errors.New("snap")
		svc := New(repo, func(context.Context, domain.Snapshot) { t.Fatal("onChanged called") }, nil)
		if _, err := svc.Ingest(context.Background(), payload); err != nil {
			t.Fatalf("Ingest err: %v", err)
		}
	})
}

func TestService_Ingest_Audit(t *testing.T) {
	var got []audit.Event
	subject := audit.NewSubject(audit.ObserverFunc(func(_ context.Context, evt audit.Event) error {
		got = append(got, evt)
		return nil
	}))

	svc := New(newFakeRepo(), nil, subject)
	svc.now = func() time.Time { return time.Unix(1700000000, 0) }

	ctx := audit.WithClientIP(context.Background(), "10.0.0.7")
	p := domain.Payload{
		Gauge:   []domain.Entry{{Metric: "a", Value: 1}, {Metric: "a", Value: 2}},
		Counter: []domain.Entry{{Metric: "b", Value: 1}},
	}
	if _, err := svc.Ingest(ctx, p); err != nil {
		t.Fatalf("Ingest err: %v", err)
	}

	if len(got) != 1 {
		t.Fatalf("events=%d want 1", len(got))
	}
	evt := got[0]
	if evt.Timestamp != 1700000000 || evt.IPAddress != "10.0.0.7" {
		t.Fatalf("event=%+v", evt)
	}
	if len(evt.Metrics) != 2 || evt.Metrics[0] != "a" || evt.Metrics[1] != "b" {
		t.Fatalf("metrics=%v want [a b]", evt.Metrics)
	}
	if evt.Gauges != 2 || evt.Counters != 1 {
		t.Fatalf("counts=%d/%d want 2/1", evt.Gauges, evt.Counters)
	}
}

func TestService_Snapshot(t *testing.T) {
	repo := newFakeRepo()
	repo.gauges["g"] = 1
	svc := New(repo, nil, nil)
	s, err := svc.Snapshot(context.Background())
	if err != nil || s.Gauges["g"] != 1 {
		t.Fatalf("Snapshot=(%+v,%v)", s, err)
	}
}
