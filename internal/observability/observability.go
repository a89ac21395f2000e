package observability

import (
	"context"
	"net/http"

	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/football-dashboard/internal/config"
	"github.com/riskibarqy/football-dashboard/internal/platform/logging"
)

// Stack is the set of optional telemetry sinks running for one process.
type Stack struct {
	logger       *logging.Logger
	flushTraces  func(context.Context) error
	stopProfiler func() error
	pprof        *http.Server
}

// Start brings up tracing, profiling and the pprof listener as configured.
// A failure stops whatever already started.
func Start(cfg config.Config, logger *logging.Logger) (*Stack, error) {
	if logger == nil {
		logger = logging.Default()
	}
	s := &Stack{logger: logger.Named("observability")}

	var err error
	if s.flushTraces, err = initUptrace(cfg, s.logger); err != nil {
		return nil, crerr.Wrap(err, "init uptrace")
	}
	if s.stopProfiler, err = initPyroscope(cfg, s.logger); err != nil {
		_ = s.flushTraces(context.Background())
		return nil, crerr.Wrap(err, "init pyroscope")
	}
	s.pprof = startPprofServer(cfg, s.logger)
	return s, nil
}

// Shutdown stops the pprof listener and profiler, then flushes traces.
func (s *Stack) Shutdown(ctx context.Context) error {
	if s == nil {
		return nil
	}
	var err error
	if s.pprof != nil {
		if shutdownErr := s.pprof.Shutdown(ctx); shutdownErr != nil {
			err = crerr.CombineErrors(err, crerr.Wrap(shutdownErr, "stop pprof"))
		} else {
			s.logger.Info("pprof server stopped")
		}
	}
	if stopErr := s.stopProfiler(); stopErr != nil {
		err = crerr.CombineErrors(err, crerr.Wrap(stopErr, "stop pyroscope"))
	}
	if flushErr := s.flushTraces(ctx); flushErr != nil {
		err = crerr.CombineErrors(err, crerr.Wrap(flushErr, "shutdown uptrace"))
	}
	return err
}
