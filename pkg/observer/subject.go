// Package observer implements a typed fan-out of events to registered observers.
package observer

import (
	"context"
	"errors"
	"io"
	"sync"
)

// Observer receives published events of type T.
type Observer[T any] interface {
	Notify(context.Context, T) error
}

// ObserverFunc adapts a plain function into an Observer.
//
//revive:disable-next-line:exported
type ObserverFunc[T any] func(context.Context, T) error

// Notify calls f; a nil func is a no-op.
func (f ObserverFunc[T]) Notify(ctx context.Context, evt T) error {
	if f == nil {
		return nil
	}
	return f(ctx, evt)
}

// Publisher is the producer side of a Subject.
type Publisher[T any] interface {
	Publish(context.Context, T)
}

// Subject delivers every published event to each observer in registration order.
// A nil *Subject is valid and drops everything.
type Subject[T any] struct {
	onError   func(error)
	observers []Observer[T]
	mu        sync.RWMutex
}

var _ Publisher[struct{}] = (*Subject[struct{}])(nil)

func NewSubject[T any](observers ...Observer[T]) *Subject[T] {
	s := &Subject[T]{}
	s.Attach(observers...)
	return s
}

// Publish notifies observers synchronously; failures go to the error handler.
func (s *Subject[T]) Publish(ctx context.Context, evt T) {
	if s == nil {
		return
	}

	s.mu.RLock()
	observers := s.observers
	onError := s.onError
	s.mu.RUnlock()

	for _, obs := range observers {
		if err := obs.Notify(ctx, evt); err != nil && onError != nil {
			onError(err)
		}
	}
}

// Attach registers observers; nil entries are skipped.
func (s *Subject[T]) Attach(observers ...Observer[T]) {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	next := make([]Observer[T], 0, len(s.observers)+len(observers))
	next = append(next, s.observers...)
	for _, obs := range observers {
		if obs != nil {
			next = append(next, obs)
		}
	}
	s.observers = next
}

// Len returns the number of registered observers.
func (s *Subject[T]) Len() int {
	if s == nil {
		return 0
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.observers)
}

func (s *Subject[T]) SetErrorHandler(fn func(error)) {
	if s == nil {
		return
	}
	s.mu.Lock()
	s.onError = fn
	s.mu.Unlock()
}

// Close closes every observer that implements io.Closer and joins their errors.
func (s *Subject[T]) Close() error {
	if s == nil {
		return nil
	}
	s.mu.RLock()
	observers := s.observers
	s.mu.RUnlock()

	var errs []error
	for _, obs := range observers {
		if c, ok := obs.(io.Closer); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}
