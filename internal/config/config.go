package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/riskibarqy/football-dashboard/external/footballdata"
	"github.com/riskibarqy/football-dashboard/internal/platform/logging"
	"github.com/riskibarqy/football-dashboard/internal/platform/resilience"
)

const (
	EnvDev   = "dev"
	EnvStage = "stage"
	EnvProd  = "prod"
)

// Config stores runtime configuration for the service.
type Config struct {
	AppEnv             string         `validate:"oneof=dev stage prod"`
	ServiceName        string         `validate:"required"`
	ServiceVersion     string         `validate:"required"`
	HTTPAddr           string         `validate:"required"`
	ReadTimeout        time.Duration  `validate:"gt=0"`
	WriteTimeout       time.Duration  `validate:"gt=0"`
	CORSAllowedOrigins []string       `validate:"min=1,dive,required"`
	LogLevel           logging.Level
	LogFormat          logging.Format `validate:"oneof=json console"`

	FootballAPI FootballAPIConfig
	Relay       RelayConfig

	StatusPollInterval time.Duration `validate:"gt=0"`
	FeedWorkers        int           `validate:"gte=1,lte=64"`
	UpcomingMatchDays  int           `validate:"gte=1,lte=30"`

	UptraceEnabled         bool
	UptraceDSN             string `validate:"required_if=UptraceEnabled true"`
	PyroscopeEnabled       bool
	PyroscopeServerAddress string `validate:"required_if=PyroscopeEnabled true"`
	PyroscopeAppName       string `validate:"required_if=PyroscopeEnabled true"`
	PyroscopeAuthToken     string
	PprofEnabled           bool
	PprofAddr              string `validate:"required_if=PprofEnabled true"`
}

// FootballAPIConfig controls how the client reaches football-data.org.
type FootballAPIConfig struct {
	// APIKey is optional. Without it the service runs on the free tier.
	APIKey       string
	BaseURL      string            `validate:"required,url"`
	RelayBaseURL string            `validate:"required,url"`
	Mode         footballdata.Mode `validate:"oneof=direct relay"`
	Timeout      time.Duration     `validate:"gt=0"`
	Location     *time.Location    `validate:"required"`
}

// EffectiveBaseURL is the base the client should call for the configured mode.
func (c FootballAPIConfig) EffectiveBaseURL() string {
	if c.Mode == footballdata.ModeRelay {
		return c.RelayBaseURL
	}
	return c.BaseURL
}

func (c FootballAPIConfig) HasCredential() bool {
	return strings.TrimSpace(c.APIKey) != ""
}

// RelayConfig controls the same-origin development relay.
type RelayConfig struct {
	Enabled     bool
	Prefix      string        `validate:"required,startswith=/"`
	UpstreamURL string        `validate:"required,url"`
	CacheTTL    time.Duration `validate:"gte=0"`
	Circuit     resilience.BreakerConfig
}

func Load() (Config, error) {
	appEnv, err := parseAppEnv(getEnv("APP_ENV", EnvDev))
	if err != nil {
		return Config{}, err
	}

	readTimeout, err := getEnvAsDuration("APP_READ_TIMEOUT", "10s")
	if err != nil {
		return Config{}, err
	}
	writeTimeout, err := getEnvAsDuration("APP_WRITE_TIMEOUT", "30s")
	if err != nil {
		return Config{}, err
	}

	footballAPI, err := loadFootballAPI(appEnv)
	if err != nil {
		return Config{}, err
	}
	relay, err := loadRelay(appEnv)
	if err != nil {
		return Config{}, err
	}
	if footballAPI.Mode == footballdata.ModeRelay && !relay.Enabled && appEnv == EnvDev {
		return Config{}, fmt.Errorf("FOOTBALL_API_MODE=relay requires RELAY_ENABLED=true in %s", EnvDev)
	}

	statusPollInterval, err := getEnvAsDuration("STATUS_POLL_INTERVAL", "5m")
	if err != nil {
		return Config{}, err
	}
	feedWorkers, err := getEnvAsInt("FEED_WORKERS", 4)
	if err != nil {
		return Config{}, fmt.Errorf("parse FEED_WORKERS: %w", err)
	}
	upcomingMatchDays, err := getEnvAsInt("UPCOMING_MATCH_DAYS", 7)
	if err != nil {
		return Config{}, fmt.Errorf("parse UPCOMING_MATCH_DAYS: %w", err)
	}

	uptraceEnabled, err := strconv.ParseBool(getEnv("UPTRACE_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse UPTRACE_ENABLED: %w", err)
	}
	uptraceDSN := strings.TrimSpace(getEnv("UPTRACE_DSN", ""))
	if uptraceDSN == "" {
		uptraceDSN = parseUptraceDSNFromOTLPHeaders(getEnv("OTEL_EXPORTER_OTLP_HEADERS", ""))
	}

	pyroscopeEnabled, err := strconv.ParseBool(getEnv("PYROSCOPE_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PYROSCOPE_ENABLED: %w", err)
	}
	logFormat, err := logging.ParseFormat(getEnv("APP_LOG_FORMAT", string(logging.FormatJSON)))
	if err != nil {
		return Config{}, fmt.Errorf("parse APP_LOG_FORMAT: %w", err)
	}
	pprofEnabled, err := strconv.ParseBool(getEnv("PPROF_ENABLED", "false"))
	if err != nil {
		return Config{}, fmt.Errorf("parse PPROF_ENABLED: %w", err)
	}

	cfg := Config{
		AppEnv:                 appEnv,
		ServiceName:            strings.TrimSpace(getEnv("APP_SERVICE_NAME", "football-dashboard-api")),
		ServiceVersion:         strings.TrimSpace(getEnv("APP_SERVICE_VERSION", "dev")),
		HTTPAddr:               strings.TrimSpace(getEnv("APP_HTTP_ADDR", ":8080")),
		ReadTimeout:            readTimeout,
		WriteTimeout:           writeTimeout,
		CORSAllowedOrigins:     splitCSV(getEnv("CORS_ALLOWED_ORIGINS", "*")),
		LogLevel:               logging.ParseLevel(getEnv("APP_LOG_LEVEL", "info")),
		LogFormat:              logFormat,
		FootballAPI:            footballAPI,
		Relay:                  relay,
		StatusPollInterval:     statusPollInterval,
		FeedWorkers:            feedWorkers,
		UpcomingMatchDays:      upcomingMatchDays,
		UptraceEnabled:         uptraceEnabled,
		UptraceDSN:             uptraceDSN,
		PyroscopeEnabled:       pyroscopeEnabled,
		PyroscopeServerAddress: strings.TrimSpace(getEnv("PYROSCOPE_SERVER_ADDRESS", "")),
		PyroscopeAuthToken:     strings.TrimSpace(getEnv("PYROSCOPE_AUTH_TOKEN", "")),
		PprofEnabled:           pprofEnabled,
		PprofAddr:              strings.TrimSpace(getEnv("PPROF_ADDR", "127.0.0.1:6060")),
	}
	cfg.PyroscopeAppName = strings.TrimSpace(getEnv("PYROSCOPE_APP_NAME", cfg.ServiceName))

	if err := validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func loadFootballAPI(appEnv string) (FootballAPIConfig, error) {
	defaultMode := string(footballdata.ModeDirect)
	if appEnv == EnvDev {
		defaultMode = string(footballdata.ModeRelay)
	}
	mode, err := footballdata.ParseMode(getEnv("FOOTBALL_API_MODE", defaultMode))
	if err != nil {
		return FootballAPIConfig{}, fmt.Errorf("parse FOOTBALL_API_MODE: %w", err)
	}

	timeout, err := getEnvAsDuration("FOOTBALL_API_TIMEOUT", "20s")
	if err != nil {
		return FootballAPIConfig{}, err
	}

	locationName := strings.TrimSpace(getEnv("FOOTBALL_API_LOCATION", "Local"))
	location, err := time.LoadLocation(locationName)
	if err != nil {
		return FootballAPIConfig{}, fmt.Errorf("parse FOOTBALL_API_LOCATION: %w", err)
	}

	return FootballAPIConfig{
		APIKey:       strings.TrimSpace(os.Getenv("FOOTBALL_API_KEY")),
		BaseURL:      strings.TrimSpace(getEnv("FOOTBALL_API_BASE_URL", footballdata.DefaultBaseURL)),
		RelayBaseURL: strings.TrimSpace(getEnv("FOOTBALL_API_RELAY_BASE_URL", "http://localhost:8080/api/football/v4")),
		Mode:         mode,
		Timeout:      timeout,
		Location:     location,
	}, nil
}

func loadRelay(appEnv string) (RelayConfig, error) {
	enabled, err := strconv.ParseBool(getEnv("RELAY_ENABLED", strconv.FormatBool(appEnv == EnvDev)))
	if err != nil {
		return RelayConfig{}, fmt.Errorf("parse RELAY_ENABLED: %w", err)
	}
	// Zero disables the relay cache.
	cacheTTL, err := time.ParseDuration(strings.TrimSpace(getEnv("RELAY_CACHE_TTL", "30s")))
	if err != nil {
		return RelayConfig{}, fmt.Errorf("parse RELAY_CACHE_TTL: %w", err)
	}
	if cacheTTL < 0 {
		return RelayConfig{}, fmt.Errorf("RELAY_CACHE_TTL must be >= 0")
	}

	circuit := resilience.DefaultBreakerConfig()
	if circuit.Enabled, err = strconv.ParseBool(getEnv("RELAY_CIRCUIT_ENABLED", "true")); err != nil {
		return RelayConfig{}, fmt.Errorf("parse RELAY_CIRCUIT_ENABLED: %w", err)
	}
	if circuit.FailureThreshold, err = getEnvAsInt("RELAY_CIRCUIT_FAILURE_COUNT", circuit.FailureThreshold); err != nil {
		return RelayConfig{}, fmt.Errorf("parse RELAY_CIRCUIT_FAILURE_COUNT: %w", err)
	}
	if circuit.FailureThreshold < 1 {
		return RelayConfig{}, fmt.Errorf("RELAY_CIRCUIT_FAILURE_COUNT must be >= 1")
	}
	if circuit.OpenTimeout, err = getEnvAsDuration("RELAY_CIRCUIT_OPEN_TIMEOUT", circuit.OpenTimeout.String()); err != nil {
		return RelayConfig{}, err
	}
	if circuit.HalfOpenMaxReq, err = getEnvAsInt("RELAY_CIRCUIT_HALF_OPEN_MAX_REQ", circuit.HalfOpenMaxReq); err != nil {
		return RelayConfig{}, fmt.Errorf("parse RELAY_CIRCUIT_HALF_OPEN_MAX_REQ: %w", err)
	}
	if circuit.HalfOpenMaxReq < 1 {
		return RelayConfig{}, fmt.Errorf("RELAY_CIRCUIT_HALF_OPEN_MAX_REQ must be >= 1")
	}

	return RelayConfig{
		Enabled:     enabled,
		Prefix:      "/" + strings.Trim(strings.TrimSpace(getEnv("RELAY_PREFIX", "/api/football")), "/"),
		UpstreamURL: strings.TrimRight(strings.TrimSpace(getEnv("RELAY_UPSTREAM_URL", "https://api.football-data.org")), "/"),
		CacheTTL:    cacheTTL,
		Circuit:     circuit,
	}, nil
}

var structValidator = validator.New(validator.WithRequiredStructEnabled())

func validate(cfg Config) error {
	if err := structValidator.Struct(cfg); err != nil {
		if fieldErrs, ok := err.(validator.ValidationErrors); ok && len(fieldErrs) > 0 {
			first := fieldErrs[0]
			return fmt.Errorf("invalid config %s: failed %q rule", first.Namespace(), first.Tag())
		}
		return fmt.Errorf("validate config: %w", err)
	}
	return nil
}

func parseAppEnv(v string) (string, error) {
	value := strings.ToLower(strings.TrimSpace(v))
	switch value {
	case EnvDev, EnvStage, EnvProd:
		return value, nil
	default:
		return "", fmt.Errorf("invalid APP_ENV %q: valid values are %s, %s, %s", v, EnvDev, EnvStage, EnvProd)
	}
}

func getEnv(key, fallback string) string {
	value := os.Getenv(key)
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}

func getEnvAsInt(key string, fallback int) (int, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback, nil
	}
	return strconv.Atoi(value)
}

func getEnvAsDuration(key, fallback string) (time.Duration, error) {
	out, err := time.ParseDuration(strings.TrimSpace(getEnv(key, fallback)))
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	if out <= 0 {
		return 0, fmt.Errorf("%s must be > 0", key)
	}
	return out, nil
}

func splitCSV(v string) []string {
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if item := strings.TrimSpace(part); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func parseUptraceDSNFromOTLPHeaders(raw string) string {
	for _, item := range strings.Split(raw, ",") {
		parts := strings.SplitN(strings.TrimSpace(item), "=", 2)
		if len(parts) != 2 {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(parts[0]), "uptrace-dsn") {
			return strings.Trim(strings.TrimSpace(parts[1]), "\"'")
		}
	}
	return ""
}
