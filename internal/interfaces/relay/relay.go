// Package relay is the same-origin development proxy in front of
// football-data.org. It strips its mount prefix, injects the API key and
// forwards GET requests upstream.
package relay

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/football-dashboard/external/footballdata"
	"github.com/riskibarqy/football-dashboard/internal/platform/cache"
	"github.com/riskibarqy/football-dashboard/internal/platform/logging"
	"github.com/riskibarqy/football-dashboard/internal/platform/resilience"
	"github.com/valyala/bytebufferpool"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	maxUpstreamBodyBytes = 6 << 20
	defaultTimeout       = 20 * time.Second

	proxyErrorMessage       = "Proxy error occurred"
	unavailableErrorMessage = "Upstream temporarily unavailable"

	cacheHeader = "X-Relay-Cache"
)

// forwardedHeaders are upstream response headers passed back to the caller.
var forwardedHeaders = []string{
	"Content-Type",
	"X-Requests-Available-Minute",
	"X-RequestCounter-Reset",
	"X-API-Version",
}

var errUpstreamStatus = crerr.New("upstream answered with a server error")

type Config struct {
	Prefix      string
	UpstreamURL string
	APIKey      string
	CacheTTL    time.Duration
	Timeout     time.Duration
	Circuit     resilience.BreakerConfig
	HTTPClient  *http.Client
}

type upstreamResponse struct {
	status int
	header http.Header
	body   []byte
}

type Handler struct {
	prefix   string
	upstream string
	apiKey   string
	client   *http.Client
	cache    *cache.Store[upstreamResponse]
	flight   resilience.Flight[upstreamResponse]
	breaker  *resilience.Breaker
	logger   *logging.Logger
}

func New(cfg Config, logger *logging.Logger) (*Handler, error) {
	upstream, err := validateHTTPBaseURL(cfg.UpstreamURL)
	if err != nil {
		return nil, crerr.Wrap(err, "invalid RELAY_UPSTREAM_URL")
	}
	prefix := "/" + strings.Trim(strings.TrimSpace(cfg.Prefix), "/")
	if prefix == "/" {
		return nil, crerr.New("relay prefix is required")
	}
	if logger == nil {
		logger = logging.Default()
	}

	client := cfg.HTTPClient
	if client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		client = &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}

	h := &Handler{
		prefix:   prefix,
		upstream: upstream,
		apiKey:   strings.TrimSpace(cfg.APIKey),
		client:   client,
		logger:   logger.Named("relay"),
	}
	if cfg.CacheTTL > 0 {
		h.cache = cache.NewStore[upstreamResponse](cfg.CacheTTL)
	}
	if cfg.Circuit.Enabled {
		h.breaker = resilience.NewBreaker(cfg.Circuit)
	}
	return h, nil
}

func (h *Handler) Prefix() string {
	return h.prefix
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	ctx := r.Context()
	target := h.targetURL(r.URL)

	span := trace.SpanFromContext(ctx)
	if span.IsRecording() {
		span.SetAttributes(
			attribute.String("relay.target_url", target),
			attribute.Bool("relay.key_injected", h.apiKey != ""),
		)
	}
	h.logger.DebugContext(ctx, "relay request", "target_url", target, "curl_preview", buildCurlPreview(target, h.apiKey != ""))

	resp, hit, err := h.fetch(ctx, target)
	if err != nil {
		if crerr.Is(err, resilience.ErrCircuitOpen) {
			snap := h.breaker.Snapshot()
			h.logger.WarnContext(ctx, "relay circuit breaker rejected request",
				"target_url", target,
				"state", string(snap.State),
				"consecutive_failures", snap.ConsecutiveFailures,
				"opened_at", snap.OpenedAt,
			)
			writeError(w, http.StatusServiceUnavailable, unavailableErrorMessage)
			return
		}
		h.logger.ErrorContext(ctx, "relay upstream failed", "target_url", target, "error", err)
		writeError(w, http.StatusInternalServerError, proxyErrorMessage)
		return
	}

	for key, values := range resp.header {
		for _, value := range values {
			w.Header().Add(key, value)
		}
	}
	if hit {
		w.Header().Set(cacheHeader, "HIT")
	} else {
		w.Header().Set(cacheHeader, "MISS")
		if h.cache != nil {
			h.logger.DebugContext(ctx, "relay cache miss", "target_url", target, "cache_entries", h.cache.Len())
		}
	}
	w.WriteHeader(resp.status)
	if r.Method != http.MethodHead {
		_, _ = w.Write(resp.body)
	}
}

func (h *Handler) targetURL(u *url.URL) string {
	path := strings.TrimPrefix(u.Path, h.prefix)
	if path == "" {
		path = "/"
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	target := h.upstream + path
	if u.RawQuery != "" {
		target += "?" + u.RawQuery
	}
	return target
}

// fetch reports hit=true when the response came from the cache.
func (h *Handler) fetch(ctx context.Context, target string) (upstreamResponse, bool, error) {
	// Shared loads outlive the request that started them.
	loadCtx := context.WithoutCancel(ctx)

	if h.cache == nil {
		resp, err, _ := h.flight.Do(target, func() (upstreamResponse, error) {
			return h.load(loadCtx, target)
		})
		return resp, false, err
	}

	if cached, ok := h.cache.Get(ctx, target); ok {
		return cached, true, nil
	}
	resp, err := h.cache.GetOrLoad(ctx, target, func(context.Context) (upstreamResponse, error) {
		return h.load(loadCtx, target)
	}, func(resp upstreamResponse) bool {
		return resp.status >= 200 && resp.status < 300
	})
	return resp, false, err
}

func (h *Handler) load(ctx context.Context, target string) (upstreamResponse, error) {
	var resp upstreamResponse
	call := func() error {
		var err error
		resp, err = h.roundTrip(ctx, target)
		if err != nil {
			return err
		}
		if resp.status >= http.StatusInternalServerError {
			return errUpstreamStatus
		}
		return nil
	}

	var err error
	if h.breaker != nil {
		err = h.breaker.Do(call, nil)
	} else {
		err = call()
	}
	if crerr.Is(err, errUpstreamStatus) {
		return resp, nil
	}
	return resp, err
}

func (h *Handler) roundTrip(ctx context.Context, target string) (upstreamResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return upstreamResponse{}, crerr.Wrap(err, "create relay request")
	}
	req.Header.Set("Accept", "application/json")
	if h.apiKey != "" {
		req.Header.Set(footballdata.AuthHeader, h.apiKey)
	}

	started := time.Now()
	res, err := h.client.Do(req)
	if err != nil {
		return upstreamResponse{}, crerr.Newf("relay upstream call: %s", redact(err.Error(), h.apiKey))
	}
	defer func() {
		_ = res.Body.Close()
	}()

	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)
	if _, err := buf.ReadFrom(io.LimitReader(res.Body, maxUpstreamBodyBytes)); err != nil {
		return upstreamResponse{}, crerr.Wrap(err, "read relay upstream body")
	}

	header := http.Header{}
	for _, key := range forwardedHeaders {
		if value := res.Header.Get(key); value != "" {
			header.Set(key, value)
		}
	}

	h.logger.DebugContext(ctx, "relay upstream response",
		"target_url", target,
		"status", res.StatusCode,
		"bytes", buf.Len(),
		"duration_ms", time.Since(started).Milliseconds(),
	)

	return upstreamResponse{
		status: res.StatusCode,
		header: header,
		body:   append([]byte(nil), buf.B...),
	}, nil
}

func writeError(w http.ResponseWriter, status int, message string) {
	body, err := sonic.Marshal(map[string]string{"error": message})
	if err != nil {
		body = []byte(`{"error":"` + proxyErrorMessage + `"}`)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

func validateHTTPBaseURL(raw string) (string, error) {
	candidate := strings.TrimSpace(raw)
	if candidate == "" {
		return "", crerr.New("value is empty")
	}
	parsed, err := url.Parse(candidate)
	if err != nil {
		return "", crerr.Wrapf(err, "parse %q", candidate)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", crerr.Newf("%q uses unsupported scheme=%q; expected http or https", candidate, parsed.Scheme)
	}
	if strings.TrimSpace(parsed.Host) == "" {
		return "", crerr.Newf("%q has empty host", candidate)
	}
	return strings.TrimRight(candidate, "/"), nil
}

func buildCurlPreview(target string, withKey bool) string {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	_, _ = buf.WriteString("curl -X GET ")
	_, _ = buf.WriteString(shellQuote(target))
	_, _ = buf.WriteString(" -H 'Accept: application/json'")
	if withKey {
		_, _ = buf.WriteString(" -H '" + footballdata.AuthHeader + ": ***'")
	}
	return buf.String()
}

func redact(value, secret string) string {
	if secret == "" {
		return value
	}
	return strings.ReplaceAll(value, secret, "REDACTED")
}

func shellQuote(value string) string {
	return "'" + strings.ReplaceAll(value, "'", "'\"'\"'") + "'"
}
