package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	crerr "github.com/cockroachdb/errors"
	"github.com/panjf2000/ants/v2"
	"github.com/riskibarqy/football-dashboard/external/footballdata"
	"github.com/riskibarqy/football-dashboard/internal/config"
	"github.com/riskibarqy/football-dashboard/internal/interfaces/httpapi"
	"github.com/riskibarqy/football-dashboard/internal/interfaces/relay"
	"github.com/riskibarqy/football-dashboard/internal/platform/logging"
	"github.com/riskibarqy/football-dashboard/internal/usecase"
	"github.com/sourcegraph/conc"
)

const shutdownTimeout = 10 * time.Second

// App owns the HTTP server and the dashboard session behind it.
type App struct {
	cfg     config.Config
	logger  *logging.Logger
	server  *http.Server
	session *usecase.DashboardSession
	pool    *ants.Pool
}

func New(ctx context.Context, cfg config.Config, logger *logging.Logger) (*App, error) {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.HTTPAddr == "" {
		return nil, fmt.Errorf("http server addr cannot be empty")
	}

	pool, err := ants.NewPool(cfg.FeedWorkers, ants.WithPanicHandler(func(rec any) {
		logger.Error("feed worker panic", "panic", rec)
	}))
	if err != nil {
		return nil, crerr.Wrap(err, "create feed worker pool")
	}

	client := footballdata.NewClient(footballdata.ClientConfig{
		BaseURL:  cfg.FootballAPI.EffectiveBaseURL(),
		APIKey:   cfg.FootballAPI.APIKey,
		Mode:     cfg.FootballAPI.Mode,
		Timeout:  cfg.FootballAPI.Timeout,
		Location: cfg.FootballAPI.Location,
		Logger:   logger,
	})

	monitor := usecase.NewStatusMonitor(client, usecase.StatusMonitorConfig{
		Interval:          cfg.StatusPollInterval,
		CredentialPresent: cfg.FootballAPI.HasCredential(),
		Logger:            logger,
	})
	session := usecase.NewDashboardSession(ctx, client, monitor, usecase.DashboardSessionConfig{
		UpcomingDays: cfg.UpcomingMatchDays,
		Runner:       pool,
		Logger:       logger,
	})

	var relayHandler httpapi.RelayHandler
	if cfg.Relay.Enabled {
		h, err := relay.New(relay.Config{
			Prefix:      cfg.Relay.Prefix,
			UpstreamURL: cfg.Relay.UpstreamURL,
			APIKey:      cfg.FootballAPI.APIKey,
			CacheTTL:    cfg.Relay.CacheTTL,
			Timeout:     cfg.FootballAPI.Timeout,
			Circuit:     cfg.Relay.Circuit,
		}, logger)
		if err != nil {
			session.Close()
			pool.Release()
			return nil, err
		}
		relayHandler = h
		logger.Info("relay enabled",
			"prefix", h.Prefix(),
			"upstream", cfg.Relay.UpstreamURL,
			"cache_ttl", cfg.Relay.CacheTTL.String(),
			"credential", cfg.FootballAPI.HasCredential(),
		)
	}

	handler := httpapi.NewHandler(session, client, httpapi.HandlerConfig{
		Location: cfg.FootballAPI.Location,
		Logger:   logger,
	})
	router := httpapi.NewRouter(handler, relayHandler, logger, cfg.CORSAllowedOrigins)

	logger.Info("football api client configured",
		"mode", string(client.Mode()),
		"base_url", cfg.FootballAPI.EffectiveBaseURL(),
		"credential", client.HasCredential(),
		"tier", string(monitor.Status().Tier),
		"status_interval", monitor.Interval().String(),
	)

	return &App{
		cfg:    cfg,
		logger: logger,
		server: &http.Server{
			Addr:         cfg.HTTPAddr,
			Handler:      router,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
		},
		session: session,
		pool:    pool,
	}, nil
}

// Run serves HTTP and the dashboard feeds until ctx is canceled, then shuts
// both down.
func (a *App) Run(ctx context.Context) error {
	serveErr := make(chan error, 1)
	var wg conc.WaitGroup
	wg.Go(func() {
		a.logger.Info("http server starting", "addr", a.cfg.HTTPAddr)
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	})

	if err := a.session.Start(ctx); err != nil {
		a.logger.WarnContext(ctx, "initial feed load incomplete", "error", err)
	}

	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-serveErr:
		a.logger.Error("http server failed", "error", runErr)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := a.server.Shutdown(shutdownCtx); err != nil {
		runErr = crerr.CombineErrors(runErr, crerr.Wrap(err, "graceful shutdown"))
	}
	wg.Wait()
	a.Close()

	a.logger.Info("http server stopped")
	return runErr
}

// Close tears down the session and releases the worker pool.
func (a *App) Close() {
	a.session.Close()
	a.pool.Release()
}

func (a *App) Handler() http.Handler {
	return a.server.Handler
}
