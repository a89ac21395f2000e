package feed

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/stretchr/testify/require"
)

type inlineRunner struct{}

func (inlineRunner) Submit(task func()) error {
	task()
	return nil
}

type scripted[T any] struct {
	mu    sync.Mutex
	steps []func(context.Context) (T, error)
	calls int
}

func (s *scripted[T]) producer() Producer[T] {
	return func(ctx context.Context) (T, error) {
		s.mu.Lock()
		step := s.steps[s.calls%len(s.steps)]
		s.calls++
		s.mu.Unlock()
		return step(ctx)
	}
}

func (s *scripted[T]) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func value[T any](v T) func(context.Context) (T, error) {
	return func(context.Context) (T, error) { return v, nil }
}

func failure[T any](msg string) func(context.Context) (T, error) {
	return func(context.Context) (T, error) {
		var zero T
		return zero, errors.New(msg)
	}
}

func TestFeed_NewStartsLoading(t *testing.T) {
	t.Parallel()

	f := New(func(context.Context) (int, error) { return 1, nil })
	defer f.Close()

	st := f.State()
	if !st.Loading || st.Data != nil || st.Error != "" {
		t.Fatalf("unexpected initial state: %+v", st)
	}
}

func TestFeed_ErrorThenSuccessClearsError(t *testing.T) {
	t.Parallel()

	script := &scripted[int]{steps: []func(context.Context) (int, error){
		failure[int]("API rate limit exceeded. Please try again in a minute."),
		value(42),
	}}
	f := New(script.producer(), WithRunner(inlineRunner{}))
	defer f.Close()

	require.NoError(t, f.Start())
	st := f.State()
	if st.Loading || st.Data != nil || st.Error != "API rate limit exceeded. Please try again in a minute." {
		t.Fatalf("unexpected state after failure: %+v", st)
	}

	require.NoError(t, f.Refetch())
	st = f.State()
	if st.Loading || st.Error != "" || st.Data == nil || *st.Data != 42 {
		t.Fatalf("unexpected state after success: %+v", st)
	}
}

func TestFeed_FailureKeepsPreviousData(t *testing.T) {
	t.Parallel()

	script := &scripted[string]{steps: []func(context.Context) (string, error){
		value("standings"),
		failure[string]("Network error: Unable to connect to the API. Please check your internet connection."),
	}}
	f := New(script.producer(), WithRunner(inlineRunner{}))
	defer f.Close()

	require.NoError(t, f.Start())
	require.NoError(t, f.Refetch())

	st := f.State()
	if st.Data == nil || *st.Data != "standings" {
		t.Fatalf("expected previous data to survive, got %+v", st)
	}
	if st.Error == "" || st.Loading {
		t.Fatalf("expected error and loading=false, got %+v", st)
	}
}

func TestFeed_EmptyErrorMessageFallsBack(t *testing.T) {
	t.Parallel()

	f := New(func(context.Context) (int, error) { return 0, errors.New("") }, WithRunner(inlineRunner{}))
	defer f.Close()

	require.NoError(t, f.Start())
	if got := f.State().Error; got != fallbackErrorMessage {
		t.Fatalf("unexpected error message: %q", got)
	}
}

func TestFeed_PanickingProducerBecomesError(t *testing.T) {
	t.Parallel()

	f := New(func(context.Context) (int, error) { panic("decoder exploded") }, WithRunner(inlineRunner{}))
	defer f.Close()

	require.NoError(t, f.Start())
	st := f.State()
	if st.Loading || st.Error == "" {
		t.Fatalf("expected panic to surface as error, got %+v", st)
	}
}

func TestFeed_ResolutionAfterCloseIsDiscarded(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	f := New(func(context.Context) (int, error) {
		<-release
		return 7, nil
	})

	var afterClose atomic.Bool
	var closed atomic.Bool
	f.Subscribe(func(State[int]) {
		if closed.Load() {
			afterClose.Store(true)
		}
	})

	require.NoError(t, f.Start())
	f.Close()
	closed.Store(true)
	close(release)
	f.Wait()

	st := f.State()
	if st.Data != nil || !st.Loading {
		t.Fatalf("state mutated after teardown: %+v", st)
	}
	if afterClose.Load() {
		t.Fatalf("listener notified after teardown")
	}
	require.ErrorIs(t, f.Refetch(), ErrClosed)
}

func TestFeed_CloseCancelsProducerContext(t *testing.T) {
	t.Parallel()

	canceled := make(chan struct{})
	f := New(func(ctx context.Context) (int, error) {
		<-ctx.Done()
		close(canceled)
		return 0, ctx.Err()
	})

	require.NoError(t, f.Start())
	f.Close()

	select {
	case <-canceled:
	case <-time.After(time.Second):
		t.Fatalf("producer context was not canceled")
	}
	f.Wait()
}

func TestFeed_SlowEarlyCycleCannotOverwriteLaterResult(t *testing.T) {
	t.Parallel()

	slowGate := make(chan struct{})
	script := &scripted[string]{steps: []func(context.Context) (string, error){
		func(context.Context) (string, error) {
			<-slowGate
			return "early", nil
		},
		value("late"),
	}}
	f := New(script.producer())
	defer f.Close()

	require.NoError(t, f.Start())
	require.Eventually(t, func() bool { return script.count() == 1 }, time.Second, 5*time.Millisecond)
	require.NoError(t, f.Refetch())

	require.Eventually(t, func() bool {
		st := f.State()
		return st.Data != nil && *st.Data == "late"
	}, time.Second, 5*time.Millisecond)

	close(slowGate)
	f.Wait()

	st := f.State()
	if st.Data == nil || *st.Data != "late" || st.Loading {
		t.Fatalf("stale cycle overwrote newer state: %+v", st)
	}
}

func TestFeed_LoadingStaysTrueUntilLatestCycleResolves(t *testing.T) {
	t.Parallel()

	lateGate := make(chan struct{})
	script := &scripted[int]{steps: []func(context.Context) (int, error){
		value(1),
		func(context.Context) (int, error) {
			<-lateGate
			return 2, nil
		},
	}}
	f := New(script.producer())
	defer f.Close()

	require.NoError(t, f.Start())
	require.Eventually(t, func() bool { return !f.State().Loading }, time.Second, 5*time.Millisecond)

	require.NoError(t, f.Refetch())
	if !f.State().Loading {
		t.Fatalf("expected loading while refetch is in flight")
	}

	close(lateGate)
	require.Eventually(t, func() bool {
		st := f.State()
		return !st.Loading && st.Data != nil && *st.Data == 2
	}, time.Second, 5*time.Millisecond)
}

func TestFeed_UpdateOnlyRefetchesWhenDepsChange(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	producerFor := func(days int) Producer[int] {
		return func(context.Context) (int, error) {
			calls.Add(1)
			return days, nil
		}
	}
	f := New[int](nil, WithRunner(inlineRunner{}))
	defer f.Close()

	started, err := f.Update(producerFor(7), 7)
	require.NoError(t, err)
	require.True(t, started)

	started, err = f.Update(producerFor(7), 7)
	require.NoError(t, err)
	require.False(t, started)

	started, err = f.Update(producerFor(14), 14)
	require.NoError(t, err)
	require.True(t, started)

	if got := calls.Load(); got != 2 {
		t.Fatalf("expected two producer calls, got %d", got)
	}
	if st := f.State(); st.Data == nil || *st.Data != 14 {
		t.Fatalf("unexpected data: %+v", st)
	}
}

func TestFeed_ListenersSeeLoadingThenResult(t *testing.T) {
	t.Parallel()

	f := New(func(context.Context) (int, error) { return 3, nil }, WithRunner(inlineRunner{}))
	defer f.Close()

	var seen []State[int]
	unsubscribe := f.Subscribe(func(st State[int]) { seen = append(seen, st) })

	require.NoError(t, f.Start())
	unsubscribe()
	require.NoError(t, f.Refetch())

	require.Len(t, seen, 2)
	require.True(t, seen[0].Loading)
	require.False(t, seen[1].Loading)
	require.Equal(t, 3, *seen[1].Data)
}

func TestFeed_RejectedSubmissionSurfacesError(t *testing.T) {
	t.Parallel()

	pool, err := ants.NewPool(1)
	require.NoError(t, err)
	pool.Release()

	f := New(func(context.Context) (int, error) { return 1, nil }, WithRunner(pool))
	defer f.Close()

	require.Error(t, f.Start())
	st := f.State()
	if st.Loading || st.Error == "" {
		t.Fatalf("expected rejected cycle to resolve with an error, got %+v", st)
	}
	f.Wait()
}
