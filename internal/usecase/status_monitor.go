package usecase

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/riskibarqy/football-dashboard/external/footballdata"
	"github.com/riskibarqy/football-dashboard/internal/domain/apistatus"
	"github.com/riskibarqy/football-dashboard/internal/platform/logging"
	"github.com/sourcegraph/conc"
	"github.com/sourcegraph/conc/panics"
	"go.opentelemetry.io/otel/attribute"
)

const (
	DefaultStatusPollInterval = 5 * time.Minute

	msgConnectionFailed      = "Connection failed"
	msgConnectionCheckFailed = "Connection check failed"
)

// ConnectionTester runs the cheapest upstream probe. A returned error means
// the probe itself broke, as opposed to reporting a failed connection.
type ConnectionTester interface {
	TestConnection(ctx context.Context) (footballdata.ConnectionResult, error)
}

type StatusMonitorConfig struct {
	Interval          time.Duration
	CredentialPresent bool
	Now               func() time.Time
	Logger            *logging.Logger
}

// StatusMonitor keeps the last known API status and re-probes on an interval.
type StatusMonitor struct {
	tester            ConnectionTester
	interval          time.Duration
	credentialPresent bool
	now               func() time.Time
	logger            *logging.Logger

	mu     sync.RWMutex
	status apistatus.Status

	probeMu sync.Mutex

	lifecycleMu sync.Mutex
	cancel      context.CancelFunc
	loop        *conc.WaitGroup
}

func NewStatusMonitor(tester ConnectionTester, cfg StatusMonitorConfig) *StatusMonitor {
	interval := cfg.Interval
	if interval <= 0 {
		interval = DefaultStatusPollInterval
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	return &StatusMonitor{
		tester:            tester,
		interval:          interval,
		credentialPresent: cfg.CredentialPresent,
		now:               now,
		logger:            logger.Named("status_monitor"),
		status:            apistatus.Initial(),
	}
}

func (m *StatusMonitor) Interval() time.Duration {
	return m.interval
}

func (m *StatusMonitor) Status() apistatus.Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return copyStatus(m.status)
}

// Start probes immediately and then once per interval until ctx is done or
// Stop is called. Calling Start on a running monitor is a no-op.
func (m *StatusMonitor) Start(ctx context.Context) {
	m.lifecycleMu.Lock()
	defer m.lifecycleMu.Unlock()
	if m.cancel != nil {
		return
	}

	loopCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.loop = conc.NewWaitGroup()
	m.loop.Go(func() { m.run(loopCtx) })

	m.logger.Info("status monitor started", "interval", m.interval.String(), "credential_present", m.credentialPresent)
}

// Stop cancels the interval timer and waits for the loop to exit.
func (m *StatusMonitor) Stop() {
	m.lifecycleMu.Lock()
	cancel, loop := m.cancel, m.loop
	m.cancel, m.loop = nil, nil
	m.lifecycleMu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	loop.Wait()
	m.logger.Info("status monitor stopped")
}

// CheckConnection runs one probe out of band. It does not touch the interval timer.
func (m *StatusMonitor) CheckConnection(ctx context.Context) apistatus.Status {
	status, _ := m.probe(ctx, false)
	return status
}

func (m *StatusMonitor) run(ctx context.Context) {
	m.probe(ctx, true)

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.probe(ctx, true)
		}
	}
}

func (m *StatusMonitor) probe(ctx context.Context, scheduled bool) (apistatus.Status, bool) {
	m.probeMu.Lock()
	defer m.probeMu.Unlock()

	ctx, span := startSpan(ctx, "usecase.StatusMonitor.CheckConnection", attribute.Bool("scheduled", scheduled))
	defer span.End()

	var (
		result footballdata.ConnectionResult
		err    error
	)
	var pc panics.Catcher
	pc.Try(func() { result, err = m.tester.TestConnection(ctx) })
	if recovered := pc.Recovered(); recovered != nil {
		err = recovered.AsError()
	}

	// A canceled probe drops its outcome, whether it came from teardown or
	// from an abandoned manual check.
	if ctx.Err() != nil {
		m.logger.DebugContext(ctx, "status probe canceled", "scheduled", scheduled, "error", ctx.Err())
		return m.Status(), false
	}

	checkedAt := m.now()

	m.mu.Lock()
	if err != nil {
		m.status.Connected = false
		m.status.LastChecked = &checkedAt
		m.status.Error = messageOr(err.Error(), msgConnectionCheckFailed)
	} else {
		next := apistatus.Status{
			Connected:   result.Success,
			Tier:        apistatus.TierForCredential(m.credentialPresent),
			LastChecked: &checkedAt,
		}
		if !result.Success {
			next.Error = messageOr(result.Error, msgConnectionFailed)
		}
		m.status = next
	}
	status := copyStatus(m.status)
	m.mu.Unlock()

	switch {
	case err != nil:
		span.RecordError(err)
		m.logger.WarnContext(ctx, "status probe errored", "error", err, "tier", string(status.Tier))
	case !status.Connected:
		m.logger.WarnContext(ctx, "status probe reported failure", "reason", status.Error, "tier", string(status.Tier))
	default:
		m.logger.DebugContext(ctx, "status probe succeeded", "tier", string(status.Tier))
	}
	return status, true
}

func copyStatus(s apistatus.Status) apistatus.Status {
	if s.LastChecked != nil {
		checked := *s.LastChecked
		s.LastChecked = &checked
	}
	return s
}

func messageOr(msg, fallback string) string {
	if msg = strings.TrimSpace(msg); msg != "" {
		return msg
	}
	return fallback
}
