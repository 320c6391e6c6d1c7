package agent

import (
	"sync"
	"testing"
	"time"

	"github.com/vshulcz/sfxbridge/internal/domain"
)

func TestBuffer_AddDrain(t *testing.T) {
	b := NewBuffer(0)
	b.Add(domain.Record{Metric: "/a"})
	b.Add(domain.Record{Metric: "/b"})

	got := b.Drain()
	if len(got) != 2 || got[0].Metric != "/a" || got[1].Metric != "/b" {
		t.Fatalf("Drain=%+v", got)
	}
	if again := b.Drain(); len(again) != 0 {
		t.Fatalf("second Drain=%+v want empty", again)
	}
}

func TestBuffer_Limit(t *testing.T) {
	b := NewBuffer(2)
	for range 5 {
		b.Add(domain.Record{Metric: "/x", Time: time.Now()})
	}
	if n := len(b.Drain()); n != 2 {
		t.Fatalf("kept=%d want 2", n)
	}
	if d := b.Dropped(); d != 3 {
		t.Fatalf("dropped=%d want 3", d)
	}
	if d := b.Dropped(); d != 0 {
		t.Fatalf("dropped after reset=%d want 0", d)
	}
}

func TestBuffer_Concurrent(t *testing.T) {
	b := NewBuffer(0)
	var wg sync.WaitGroup
	const workers, each = 8, 100
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range each {
				b.Add(domain.Record{Metric: "/c"})
			}
		}()
	}
	wg.Wait()
	if n := len(b.Drain()); n != workers*each {
		t.Fatalf("records=%d want %d", n, workers*each)
	}
}
