package misc

import "sync"

// Pool is a typed wrapper over sync.Pool. The reset hook runs on every Put
// so pooled values never keep references to the previous user's data.
type Pool[T any] struct {
	p     sync.Pool
	newFn func() T
	reset func(T)
}

// NewPool returns a Pool built by newFn; reset may be nil.
func NewPool[T any](newFn func() T, reset func(T)) *Pool[T] {
	pl := &Pool[T]{newFn: newFn, reset: reset}
	pl.p.New = func() any {
		return pl.fresh()
	}
	return pl
}

func (pl *Pool[T]) fresh() T {
	if pl.newFn != nil {
		return pl.newFn()
	}
	var zero T
	return zero
}

// Get returns a pooled value or a new one.
func (pl *Pool[T]) Get() T {
	if v, ok := pl.p.Get().(T); ok {
		return v
	}
	return pl.fresh()
}

// Put resets v and hands it back to the pool.
func (pl *Pool[T]) Put(v T) {
	if pl.reset != nil {
		pl.reset(v)
	}
	pl.p.Put(v)
}
