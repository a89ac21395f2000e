package observability

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/riskibarqy/football-dashboard/internal/config"
	"github.com/riskibarqy/football-dashboard/internal/platform/logging"
	"github.com/stretchr/testify/require"
)

func TestStart_AllDisabledIsNoop(t *testing.T) {
	stack, err := Start(config.Config{ServiceName: "football-dashboard-api", AppEnv: config.EnvDev}, logging.NewNop())
	require.NoError(t, err)
	require.Nil(t, stack.pprof)
	require.NoError(t, stack.Shutdown(context.Background()))
}

func TestStart_UptraceEnabledWithoutDSNIsNoop(t *testing.T) {
	cfg := config.Config{UptraceEnabled: true, ServiceName: "football-dashboard-api", ServiceVersion: "dev", AppEnv: config.EnvDev}

	stack, err := Start(cfg, logging.NewNop())
	require.NoError(t, err)
	require.NoError(t, stack.Shutdown(context.Background()))
}

func TestShutdown_NilStack(t *testing.T) {
	var stack *Stack
	require.NoError(t, stack.Shutdown(context.Background()))
}

func TestPprofMux_ServesIndexForGetOnly(t *testing.T) {
	mux := pprofMux()

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/debug/pprof/", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/debug/pprof/", nil))
	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
