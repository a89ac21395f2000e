package resilience

import (
	"errors"
	"sync"
	"time"
)

var ErrCircuitOpen = errors.New("circuit breaker is open")

type CircuitState string

const (
	CircuitStateClosed   CircuitState = "closed"
	CircuitStateOpen     CircuitState = "open"
	CircuitStateHalfOpen CircuitState = "half_open"
)

// BreakerSnapshot is a point-in-time view of a breaker, safe to serialize.
type BreakerSnapshot struct {
	State               CircuitState `json:"state"`
	ConsecutiveFailures int          `json:"consecutiveFailures"`
	OpenedAt            *time.Time   `json:"openedAt,omitempty"`
}

// Breaker trips after a run of consecutive failures and lets a bounded number
// of trial calls through once the cool-down has elapsed.
type Breaker struct {
	mu sync.Mutex

	threshold   int
	coolDown    time.Duration
	trialBudget int
	now         func() time.Time

	state     CircuitState
	failures  int
	openedAt  time.Time
	trials    int
	successes int
}

func NewBreaker(cfg BreakerConfig) *Breaker {
	cfg = cfg.normalized()
	return &Breaker{
		threshold:   cfg.FailureThreshold,
		coolDown:    cfg.OpenTimeout,
		trialBudget: cfg.HalfOpenMaxReq,
		now:         time.Now,
		state:       CircuitStateClosed,
	}
}

// Do runs fn when the breaker admits the call and records its outcome.
// Errors for which countable returns false pass through without tripping.
func (b *Breaker) Do(fn func() error, countable func(error) bool) error {
	if err := b.Allow(); err != nil {
		return err
	}
	err := fn()
	if err != nil && (countable == nil || countable(err)) {
		b.RecordFailure()
		return err
	}
	b.RecordSuccess()
	return err
}

func (b *Breaker) Allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == CircuitStateOpen {
		if b.now().Sub(b.openedAt) < b.coolDown {
			return ErrCircuitOpen
		}
		b.reset(CircuitStateHalfOpen)
	}
	if b.state == CircuitStateHalfOpen {
		if b.trials >= b.trialBudget {
			return ErrCircuitOpen
		}
		b.trials++
	}
	return nil
}

func (b *Breaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case CircuitStateClosed:
		b.failures = 0
	case CircuitStateHalfOpen:
		b.successes++
		if b.successes >= b.trialBudget {
			b.reset(CircuitStateClosed)
		}
	}
}

func (b *Breaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case CircuitStateClosed:
		b.failures++
		if b.failures >= b.threshold {
			b.trip()
		}
	case CircuitStateHalfOpen:
		b.trip()
	case CircuitStateOpen:
		b.openedAt = b.now()
	}
}

func (b *Breaker) State() CircuitState {
	return b.Snapshot().State
}

func (b *Breaker) Snapshot() BreakerSnapshot {
	b.mu.Lock()
	defer b.mu.Unlock()

	snap := BreakerSnapshot{State: b.state, ConsecutiveFailures: b.failures}
	if b.state == CircuitStateOpen {
		openedAt := b.openedAt
		snap.OpenedAt = &openedAt
		if b.now().Sub(b.openedAt) >= b.coolDown {
			snap.State = CircuitStateHalfOpen
		}
	}
	return snap
}

func (b *Breaker) trip() {
	b.reset(CircuitStateOpen)
	b.openedAt = b.now()
}

func (b *Breaker) reset(state CircuitState) {
	b.state = state
	b.trials = 0
	b.successes = 0
	if state != CircuitStateOpen {
		b.openedAt = time.Time{}
	}
	if state == CircuitStateClosed {
		b.failures = 0
	}
}
