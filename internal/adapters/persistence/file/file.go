// Package file persists datapoint snapshots as a JSON file.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/vshulcz/sfxbridge/internal/domain"
	"github.com/vshulcz/sfxbridge/internal/ports"
)

// Persister writes snapshots atomically and restores them into a repository.
type Persister struct {
	path string
}

var _ ports.Persister = (*Persister)(nil)

type stored struct {
	Gauges   map[string]float64 `json:"gauge"`
	Counters map[string]float64 `json:"counter"`
}

func New(path string) *Persister {
	return &Persister{path: path}
}

func (p *Persister) Save(_ context.Context, s domain.Snapshot) error {
	return writeJSONAtomic(p.path, stored{Gauges: s.Gauges, Counters: s.Counters})
}

// Restore loads the file into repo. A missing file is not an error.
// Counters are added to whatever repo already holds.
func (p *Persister) Restore(ctx context.Context, repo ports.DatapointRepo) (retErr error) {
	f, err := os.Open(p.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("open: %w", err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && retErr == nil {
			retErr = fmt.Errorf("close: %w", cerr)
		}
	}()

	var st stored
	if err := json.NewDecoder(f).Decode(&st); err != nil {
		return fmt.Errorf("decode: %w", err)
	}
	return repo.Apply(ctx, toPayload(st))
}

func toPayload(st stored) domain.Payload {
	var p domain.Payload
	for _, k := range sortedKeys(st.Gauges) {
		p.Gauge = append(p.Gauge, domain.Entry{Metric: k, Value: st.Gauges[k]})
	}
	for _, k := range sortedKeys(st.Counters) {
		p.Counter = append(p.Counter, domain.Entry{Metric: k, Value: st.Counters[k]})
	}
	return p
}

func sortedKeys(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func writeJSONAtomic(path string, v stored) (retErr error) {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("mkdir: %w", err)
		}
	}
	tmp, err := os.CreateTemp(dir, ".datapoints-*")
	if err != nil {
		return fmt.Errorf("create tmp: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := true
	closed := false
	defer func() {
		if !closed {
			if cerr := tmp.Close(); cerr != nil && retErr == nil {
				retErr = fmt.Errorf("close tmp: %w", cerr)
			}
		}
		if cleanup {
			if err := os.Remove(tmpName); err != nil && retErr == nil {
				retErr = fmt.Errorf("remove tmp: %w", err)
			}
		}
	}()
	enc := json.NewEncoder(tmp)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close tmp: %w", err)
	}
	closed = true
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("rename: %w", err)
	}
	cleanup = false
	return nil
}
