// Package feed keeps the loading/data/error state of one asynchronous
// producer and re-runs it on demand or when its dependencies change.
package feed

import (
	"context"
	"reflect"
	"strings"
	"sync"

	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/football-dashboard/internal/platform/logging"
	"github.com/sourcegraph/conc/panics"
)

var ErrClosed = crerr.New("feed is closed")

const fallbackErrorMessage = "An error occurred"

// Producer computes a fresh value. It must honour ctx cancellation.
type Producer[T any] func(ctx context.Context) (T, error)

// State is the consumer-facing snapshot. An empty Error means no error.
type State[T any] struct {
	Data    *T     `json:"data"`
	Loading bool   `json:"loading"`
	Error   string `json:"error,omitempty"`
}

// Runner executes fetch cycles. *ants.Pool satisfies it.
type Runner interface {
	Submit(task func()) error
}

type goRunner struct{}

func (goRunner) Submit(task func()) error {
	go task()
	return nil
}

type config struct {
	name   string
	runner Runner
	logger *logging.Logger
	parent context.Context
}

type Option func(*config)

func WithName(name string) Option {
	return func(c *config) { c.name = strings.TrimSpace(name) }
}

func WithRunner(r Runner) Option {
	return func(c *config) {
		if r != nil {
			c.runner = r
		}
	}
}

func WithLogger(l *logging.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithContext sets the parent of the context handed to producers.
func WithContext(ctx context.Context) Option {
	return func(c *config) {
		if ctx != nil {
			c.parent = ctx
		}
	}
}

// Feed owns one State. Only the most recently started cycle may resolve it;
// nothing resolves it after Close.
type Feed[T any] struct {
	name   string
	runner Runner
	logger *logging.Logger
	ctx    context.Context
	cancel context.CancelFunc

	mu         sync.Mutex
	state      State[T]
	producer   Producer[T]
	deps       []any
	started    bool
	closed     bool
	generation uint64
	listeners  map[int]func(State[T])
	nextID     int

	// notifyMu keeps listener calls in mutation order.
	notifyMu sync.Mutex
	inflight sync.WaitGroup
}

func New[T any](producer Producer[T], opts ...Option) *Feed[T] {
	cfg := config{
		runner: goRunner{},
		logger: logging.Default(),
		parent: context.Background(),
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	ctx, cancel := context.WithCancel(cfg.parent)

	logger := cfg.logger.Named("feed")
	if cfg.name != "" {
		logger = logger.With("feed", cfg.name)
	}

	return &Feed[T]{
		name:      cfg.name,
		runner:    cfg.runner,
		logger:    logger,
		ctx:       ctx,
		cancel:    cancel,
		state:     State[T]{Loading: true},
		producer:  producer,
		listeners: make(map[int]func(State[T])),
	}
}

func (f *Feed[T]) Name() string {
	return f.name
}

// Start runs the first cycle. Later calls are no-ops.
func (f *Feed[T]) Start() error {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return ErrClosed
	}
	if f.started {
		f.mu.Unlock()
		return nil
	}
	f.started = true
	f.mu.Unlock()

	return f.begin()
}

// Update rebinds the producer and starts a cycle when deps differ from the
// previous call, or when the feed has not started yet. It reports whether a
// cycle was started.
func (f *Feed[T]) Update(producer Producer[T], deps ...any) (bool, error) {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return false, ErrClosed
	}
	if producer != nil {
		f.producer = producer
	}
	changed := !f.started || !reflect.DeepEqual(f.deps, deps)
	f.deps = append([]any(nil), deps...)
	f.started = true
	f.mu.Unlock()

	if !changed {
		return false, nil
	}
	return true, f.begin()
}

// Refetch starts a cycle without cancelling one already in flight.
func (f *Feed[T]) Refetch() error {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return ErrClosed
	}
	f.started = true
	f.mu.Unlock()

	return f.begin()
}

func (f *Feed[T]) State() State[T] {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snapshot()
}

// Subscribe registers fn for every state transition until the returned
// function is called or the feed is closed. fn runs synchronously and must not
// call Start, Update, Refetch or Close on the same feed.
func (f *Feed[T]) Subscribe(fn func(State[T])) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed || fn == nil {
		return func() {}
	}

	id := f.nextID
	f.nextID++
	f.listeners[id] = fn
	return func() {
		f.mu.Lock()
		delete(f.listeners, id)
		f.mu.Unlock()
	}
}

// Close tears the feed down. Once it returns no listener is called again and
// in-flight resolutions are discarded.
func (f *Feed[T]) Close() {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return
	}
	f.closed = true
	f.listeners = nil
	f.mu.Unlock()

	f.cancel()

	// Wait out a notification that was already dispatched.
	f.notifyMu.Lock()
	defer f.notifyMu.Unlock()
}

// Wait blocks until every submitted cycle has returned.
func (f *Feed[T]) Wait() {
	f.inflight.Wait()
}

func (f *Feed[T]) begin() error {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return ErrClosed
	}
	f.generation++
	gen := f.generation
	producer := f.producer
	f.state.Loading = true
	f.state.Error = ""
	f.inflight.Add(1)
	f.publishLocked()

	task := func() {
		defer f.inflight.Done()
		f.run(gen, producer)
	}
	if err := f.runner.Submit(task); err != nil {
		f.inflight.Done()
		f.logger.Warn("feed cycle rejected by runner", "error", err)
		var zero T
		f.resolve(gen, zero, crerr.Wrap(err, "schedule fetch"))
		return err
	}
	return nil
}

func (f *Feed[T]) run(gen uint64, producer Producer[T]) {
	var (
		value T
		err   error
	)
	if producer == nil {
		err = crerr.New("feed has no producer")
	} else {
		var pc panics.Catcher
		pc.Try(func() { value, err = producer(f.ctx) })
		if recovered := pc.Recovered(); recovered != nil {
			err = recovered.AsError()
		}
	}
	f.resolve(gen, value, err)
}

func (f *Feed[T]) resolve(gen uint64, value T, err error) {
	f.mu.Lock()
	if f.closed || gen != f.generation {
		closed, latest := f.closed, f.generation
		f.mu.Unlock()
		f.logger.Debug("discarded feed resolution", "generation", gen, "latest", latest, "closed", closed)
		return
	}

	if err != nil {
		f.state.Error = errorMessage(err)
		f.logger.Warn("feed cycle failed", "generation", gen, "error", err)
	} else {
		v := value
		f.state.Data = &v
		f.state.Error = ""
	}
	f.state.Loading = false
	f.publishLocked()
}

// publishLocked must be called with mu held and releases it.
func (f *Feed[T]) publishLocked() {
	snap := f.snapshot()
	listeners := make([]func(State[T]), 0, len(f.listeners))
	for _, fn := range f.listeners {
		listeners = append(listeners, fn)
	}
	f.notifyMu.Lock()
	f.mu.Unlock()
	defer f.notifyMu.Unlock()

	for _, fn := range listeners {
		fn(snap)
	}
}

func (f *Feed[T]) snapshot() State[T] {
	s := f.state
	if s.Data != nil {
		v := *s.Data
		s.Data = &v
	}
	return s
}

func errorMessage(err error) string {
	if msg := strings.TrimSpace(err.Error()); msg != "" {
		return msg
	}
	return fallbackErrorMessage
}
