// Package file appends ingest audit events to a newline-delimited JSON log.
package file

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/vshulcz/sfxbridge/internal/services/audit"
)

// Writer keeps the audit log open between events. An empty path disables it.
type Writer struct {
	f    *os.File
	path string
	mu   sync.Mutex
}

func New(path string) *Writer {
	return &Writer{path: path}
}

// Notify appends one JSON line per event, opening the file on first use.
func (w *Writer) Notify(_ context.Context, evt audit.Event) error {
	if w == nil || w.path == "" {
		return nil
	}
	line, err := json.Marshal(evt)
	if err != nil {
		return fmt.Errorf("marshal audit event: %w", err)
	}
	line = append(line, '\n')

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.f == nil {
		f, err := os.OpenFile(w.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
		if err != nil {
			return fmt.Errorf("open audit file: %w", err)
		}
		w.f = f
	}
	if _, err := w.f.Write(line); err != nil {
		return fmt.Errorf("write audit file: %w", err)
	}
	return nil
}

// Close releases the file handle. Later events reopen it.
func (w *Writer) Close() error {
	if w == nil {
		return nil
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.f == nil {
		return nil
	}
	err := w.f.Close()
	w.f = nil
	return err
}
