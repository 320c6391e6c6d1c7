// Package runtime implements a record source that samples Go runtime stats and host CPU/RAM usage.
package runtime

import (
	"context"
	"runtime"
	"strconv"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/vshulcz/sfxbridge/internal/domain"
	"github.com/vshulcz/sfxbridge/internal/ports"
)

// Collector periodically samples runtime and host metrics as logger records.
// Samples are emitted as timed records carrying the sampling time, so they
// are reported as gauges; every poll also emits one untimed MPollCount record.
type Collector struct {
	now     func() time.Time
	stop    chan struct{}
	records []domain.Record
	wg      sync.WaitGroup
	mu      sync.Mutex
}

var _ ports.RecordSource = (*Collector)(nil)

var (
	virtualMemory = mem.VirtualMemory
	cpuPercent    = cpu.Percent
)

// New creates a Collector with an empty record queue.
func New() *Collector {
	return &Collector{
		now:  time.Now,
		stop: make(chan struct{}),
	}
}

// Start launches background goroutines that sample runtime and host metrics at the given interval.
func (c *Collector) Start(ctx context.Context, interval time.Duration) error {
	t := time.NewTicker(interval)
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-c.stop:
				return
			case <-t.C:
				c.sampleRuntime()
			}
		}
	}()

	tSys := time.NewTicker(interval)
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer tSys.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-c.stop:
				return
			case <-tSys.C:
				c.sampleHost()
			}
		}
	}()

	return nil
}

func (c *Collector) sampleRuntime() {
	var ms runtime.MemStats
	start := c.now()
	runtime.ReadMemStats(&ms)
	took := c.now().Sub(start)

	c.gauge(start, took, MAlloc, float64(ms.Alloc), nil)
	c.gauge(start, took, MTotalAlloc, float64(ms.TotalAlloc), nil)
	c.gauge(start, took, MSys, float64(ms.Sys), nil)
	c.gauge(start, took, MHeapAlloc, float64(ms.HeapAlloc), nil)
	c.gauge(start, took, MHeapInuse, float64(ms.HeapInuse), nil)
	c.gauge(start, took, MHeapObjects, float64(ms.HeapObjects), nil)
	c.gauge(start, took, MStackInuse, float64(ms.StackInuse), nil)
	c.gauge(start, took, MNumGC, float64(ms.NumGC), nil)
	c.gauge(start, took, MPauseTotalNs, float64(ms.PauseTotalNs), nil)
	c.gauge(start, took, MGCCPUFraction, ms.GCCPUFraction, nil)
	c.gauge(start, took, MGoroutines, float64(runtime.NumGoroutine()), nil)

	c.add(domain.Record{Metric: MPollCount, Time: start})
}

func (c *Collector) sampleHost() {
	start := c.now()
	if vm, err := virtualMemory(); err == nil && vm != nil {
		took := c.now().Sub(start)
		c.gauge(start, took, TotalMemory, float64(vm.Total), nil)
		c.gauge(start, took, FreeMemory, float64(vm.Free), nil)
	}
	start = c.now()
	if pct, err := cpuPercent(0, true); err == nil {
		took := c.now().Sub(start)
		for i, p := range pct {
			c.gauge(start, took, CPUUtilization(i+1), p, map[string]string{TagCPU: strconv.Itoa(i + 1)})
		}
	}
}

func (c *Collector) gauge(at time.Time, took time.Duration, metric string, v float64, tags map[string]string) {
	c.add(domain.Record{Metric: metric, Time: at, Amount: &v, Duration: &took, Tags: tags})
}

func (c *Collector) add(r domain.Record) {
	c.mu.Lock()
	c.records = append(c.records, r)
	c.mu.Unlock()
}

// Stop signals every collector goroutine to halt and waits for them to finish.
func (c *Collector) Stop() {
	select {
	case <-c.stop:
	default:
		close(c.stop)
	}
	c.wg.Wait()
}

// Drain returns the records sampled since the previous call.
func (c *Collector) Drain() []domain.Record {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := c.records
	c.records = nil
	return out
}
