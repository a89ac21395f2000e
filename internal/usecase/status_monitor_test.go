package usecase

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/riskibarqy/football-dashboard/external/footballdata"
	"github.com/riskibarqy/football-dashboard/internal/domain/apistatus"
	usecasemock "github.com/riskibarqy/football-dashboard/internal/mocks/usecase"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func newMonitor(tester ConnectionTester, credential bool) *StatusMonitor {
	return NewStatusMonitor(tester, StatusMonitorConfig{
		CredentialPresent: credential,
		Now:               func() time.Time { return fixedNow },
	})
}

func TestStatusMonitor_InitialStatusIsUnknown(t *testing.T) {
	t.Parallel()

	m := newMonitor(usecasemock.NewConnectionTester(t), true)
	st := m.Status()
	if st.Tier != apistatus.TierUnknown || st.Connected || st.LastChecked != nil {
		t.Fatalf("unexpected initial status: %+v", st)
	}
	if m.Interval() != DefaultStatusPollInterval {
		t.Fatalf("unexpected default interval: %s", m.Interval())
	}
}

func TestStatusMonitor_SuccessWithCredentialIsPremium(t *testing.T) {
	t.Parallel()

	tester := usecasemock.NewConnectionTester(t)
	tester.On("TestConnection", mock.Anything).
		Return(footballdata.ConnectionResult{Success: true, Data: map[string]any{"code": "PL"}}, nil).
		Once()

	st := newMonitor(tester, true).CheckConnection(context.Background())
	if !st.Connected || st.Tier != apistatus.TierPremium || st.Error != "" {
		t.Fatalf("unexpected status: %+v", st)
	}
	if st.LastChecked == nil || !st.LastChecked.Equal(fixedNow) {
		t.Fatalf("unexpected lastChecked: %v", st.LastChecked)
	}
}

func TestStatusMonitor_NoCredentialIsFreeRegardlessOfOutcome(t *testing.T) {
	t.Parallel()

	tester := usecasemock.NewConnectionTester(t)
	tester.On("TestConnection", mock.Anything).
		Return(footballdata.ConnectionResult{Success: true}, nil).
		Once()
	tester.On("TestConnection", mock.Anything).
		Return(footballdata.ConnectionResult{Success: false, Error: "Invalid API key or access denied. Please check your API key."}, nil).
		Once()

	m := newMonitor(tester, false)
	if st := m.CheckConnection(context.Background()); st.Tier != apistatus.TierFree || !st.Connected {
		t.Fatalf("unexpected status after success: %+v", st)
	}
	st := m.CheckConnection(context.Background())
	if st.Tier != apistatus.TierFree || st.Connected {
		t.Fatalf("unexpected status after failure: %+v", st)
	}
	if st.Error != "Invalid API key or access denied. Please check your API key." {
		t.Fatalf("unexpected error: %q", st.Error)
	}
}

func TestStatusMonitor_FailedResultWithoutMessageUsesFallback(t *testing.T) {
	t.Parallel()

	tester := usecasemock.NewConnectionTester(t)
	tester.On("TestConnection", mock.Anything).Return(footballdata.ConnectionResult{}, nil).Once()

	st := newMonitor(tester, true).CheckConnection(context.Background())
	if st.Error != msgConnectionFailed || st.Tier != apistatus.TierPremium {
		t.Fatalf("unexpected status: %+v", st)
	}
}

func TestStatusMonitor_CheckPanicKeepsTier(t *testing.T) {
	t.Parallel()

	tester := usecasemock.NewConnectionTester(t)
	tester.On("TestConnection", mock.Anything).
		Return(footballdata.ConnectionResult{Success: true}, nil).
		Once()
	tester.On("TestConnection", mock.Anything).
		Run(func(mock.Arguments) { panic("tester blew up") }).
		Once()

	m := newMonitor(tester, true)
	m.CheckConnection(context.Background())

	st := m.CheckConnection(context.Background())
	if st.Connected {
		t.Fatalf("expected disconnected after panic")
	}
	if st.Tier != apistatus.TierPremium {
		t.Fatalf("expected tier to be preserved, got %s", st.Tier)
	}
	if st.Error == "" || st.LastChecked == nil {
		t.Fatalf("expected error and lastChecked, got %+v", st)
	}
}

func TestStatusMonitor_CheckErrorKeepsUnknownTier(t *testing.T) {
	t.Parallel()

	tester := usecasemock.NewConnectionTester(t)
	tester.On("TestConnection", mock.Anything).
		Return(footballdata.ConnectionResult{}, errors.New("context canceled")).
		Once()

	st := newMonitor(tester, true).CheckConnection(context.Background())
	if st.Tier != apistatus.TierUnknown || st.Connected || st.Error != "context canceled" {
		t.Fatalf("unexpected status: %+v", st)
	}
}

func TestStatusMonitor_StartChecksImmediatelyAndOnInterval(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	tester := usecasemock.NewConnectionTester(t)
	tester.On("TestConnection", mock.Anything).
		Run(func(mock.Arguments) { calls.Add(1) }).
		Return(footballdata.ConnectionResult{Success: true}, nil)

	m := NewStatusMonitor(tester, StatusMonitorConfig{Interval: 10 * time.Millisecond, CredentialPresent: true})
	m.Start(context.Background())
	m.Start(context.Background())

	require.Eventually(t, func() bool { return calls.Load() >= 3 }, 2*time.Second, 5*time.Millisecond)
	m.Stop()

	settled := calls.Load()
	time.Sleep(40 * time.Millisecond)
	if calls.Load() != settled {
		t.Fatalf("checks continued after Stop")
	}
	if !m.Status().Connected {
		t.Fatalf("expected connected status")
	}
	m.Stop()
}

func TestStatusMonitor_StopDropsInFlightScheduledCheck(t *testing.T) {
	t.Parallel()

	entered := make(chan struct{})
	tester := usecasemock.NewConnectionTester(t)
	tester.On("TestConnection", mock.Anything).
		Return(func(ctx context.Context) (footballdata.ConnectionResult, error) {
			close(entered)
			<-ctx.Done()
			return footballdata.ConnectionResult{}, ctx.Err()
		}).
		Once()

	m := newMonitor(tester, true)
	m.Start(context.Background())
	<-entered
	m.Stop()

	if st := m.Status(); st.LastChecked != nil {
		t.Fatalf("teardown check must not update status, got %+v", st)
	}
}

func TestStatusMonitor_CanceledManualCheckKeepsConnectedStatus(t *testing.T) {
	t.Parallel()

	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":2021,"code":"PL","name":"Premier League"}`))
	}))
	defer upstream.Close()

	client := footballdata.NewClient(footballdata.ClientConfig{
		BaseURL:  upstream.URL + "/v4",
		APIKey:   "secret-key",
		Mode:     footballdata.ModeDirect,
		Location: time.UTC,
	})
	m := newMonitor(client, true)

	before := m.CheckConnection(context.Background())
	require.True(t, before.Connected)
	require.Equal(t, apistatus.TierPremium, before.Tier)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	after := m.CheckConnection(ctx)
	require.True(t, after.Connected)
	require.Empty(t, after.Error)
	require.Equal(t, before.LastChecked, after.LastChecked)
	require.True(t, m.Status().Connected)
}

func TestStatusMonitor_ManualCheckCanceledMidFlightIsDropped(t *testing.T) {
	t.Parallel()

	tester := usecasemock.NewConnectionTester(t)
	tester.On("TestConnection", mock.Anything).
		Return(footballdata.ConnectionResult{Success: true}, nil).
		Once()
	tester.On("TestConnection", mock.Anything).
		Return(func(ctx context.Context) (footballdata.ConnectionResult, error) {
			<-ctx.Done()
			return footballdata.ConnectionResult{Success: false, Error: "Network error. Please check your connection."}, nil
		}).
		Once()

	m := newMonitor(tester, true)
	require.True(t, m.CheckConnection(context.Background()).Connected)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	st := m.CheckConnection(ctx)
	require.True(t, st.Connected)
	require.Empty(t, st.Error)
}

func TestStatusMonitor_ManualCheckKeepsIntervalSchedule(t *testing.T) {
	t.Parallel()

	const interval = 300 * time.Millisecond

	var (
		mu      sync.Mutex
		offsets []time.Duration
	)
	started := time.Now()
	tester := usecasemock.NewConnectionTester(t)
	tester.On("TestConnection", mock.Anything).
		Run(func(mock.Arguments) {
			mu.Lock()
			offsets = append(offsets, time.Since(started))
			mu.Unlock()
		}).
		Return(footballdata.ConnectionResult{Success: true}, nil)
	count := func() int {
		mu.Lock()
		defer mu.Unlock()
		return len(offsets)
	}

	m := NewStatusMonitor(tester, StatusMonitorConfig{Interval: interval, CredentialPresent: true})
	m.Start(context.Background())
	defer m.Stop()

	require.Eventually(t, func() bool { return count() >= 1 }, time.Second, 5*time.Millisecond)
	time.Sleep(interval/2 - time.Since(started))
	m.CheckConnection(context.Background())
	require.Equal(t, 2, count())

	require.Eventually(t, func() bool { return count() >= 3 }, 2*time.Second, 5*time.Millisecond)

	mu.Lock()
	next := offsets[2]
	mu.Unlock()
	// A reset timer would push the next tick to about 1.5 intervals.
	require.GreaterOrEqual(t, next, interval-50*time.Millisecond)
	require.Less(t, next, interval+interval/3)
}
