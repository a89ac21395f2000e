package resilience

import "sync"

// Flight collapses concurrent calls sharing a key into one execution.
// The zero value is ready to use.
type Flight[T any] struct {
	mu    sync.Mutex
	calls map[string]*flightCall[T]
}

type flightCall[T any] struct {
	done chan struct{}
	val  T
	err  error
	dups int
}

// Do runs fn once per in-flight key. shared is true when the result was
// produced by (or handed to) more than one caller.
func (f *Flight[T]) Do(key string, fn func() (T, error)) (val T, err error, shared bool) {
	f.mu.Lock()
	if f.calls == nil {
		f.calls = make(map[string]*flightCall[T])
	}
	if c, ok := f.calls[key]; ok {
		c.dups++
		f.mu.Unlock()
		<-c.done
		return c.val, c.err, true
	}

	c := &flightCall[T]{done: make(chan struct{})}
	f.calls[key] = c
	f.mu.Unlock()

	defer func() {
		f.mu.Lock()
		delete(f.calls, key)
		shared = c.dups > 0
		f.mu.Unlock()
		close(c.done)
	}()

	c.val, c.err = fn()
	return c.val, c.err, false
}

// FlightResult carries the outcome of a DoChan call.
type FlightResult[T any] struct {
	Val    T
	Err    error
	Shared bool
}

// DoChan is Do without blocking the caller. The returned channel receives
// exactly one result, so a caller may stop waiting without stopping fn.
func (f *Flight[T]) DoChan(key string, fn func() (T, error)) <-chan FlightResult[T] {
	ch := make(chan FlightResult[T], 1)
	go func() {
		val, err, shared := f.Do(key, fn)
		ch <- FlightResult[T]{Val: val, Err: err, Shared: shared}
	}()
	return ch
}
