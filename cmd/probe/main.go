// Command probe runs one connectivity check against football-data.org and
// prints the resulting status as JSON. It exits non-zero when the API is
// unreachable.
package main

import (
	"context"
	"os"

	sonic "github.com/bytedance/sonic"
	"github.com/riskibarqy/football-dashboard/external/footballdata"
	"github.com/riskibarqy/football-dashboard/internal/config"
	"github.com/riskibarqy/football-dashboard/internal/platform/logging"
	"github.com/riskibarqy/football-dashboard/internal/usecase"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := logging.NewJSONWriter(cfg.LogLevel, os.Stderr)
	logging.SetDefault(logger)
	defer func() { _ = logger.Sync() }()

	client := footballdata.NewClient(footballdata.ClientConfig{
		BaseURL:  cfg.FootballAPI.EffectiveBaseURL(),
		APIKey:   cfg.FootballAPI.APIKey,
		Mode:     cfg.FootballAPI.Mode,
		Timeout:  cfg.FootballAPI.Timeout,
		Location: cfg.FootballAPI.Location,
		Logger:   logger,
	})
	monitor := usecase.NewStatusMonitor(client, usecase.StatusMonitorConfig{
		CredentialPresent: cfg.FootballAPI.HasCredential(),
		Logger:            logger,
	})

	status := monitor.CheckConnection(context.Background())
	if err := sonic.ConfigDefault.NewEncoder(os.Stdout).Encode(status); err != nil {
		logger.Error("encode status", "error", err)
		os.Exit(1)
	}
	if !status.Connected {
		os.Exit(1)
	}
}
