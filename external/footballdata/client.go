package footballdata

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/football-dashboard/internal/platform/logging"
	"github.com/riskibarqy/football-dashboard/internal/platform/resilience"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	DefaultBaseURL   = "https://api.football-data.org/v4"
	defaultVersion   = "/v4"
	defaultTimeout   = 20 * time.Second
	AuthHeader       = "X-Auth-Token"
	maxResponseBytes = 6 << 20
)

var versionSuffixRegex = regexp.MustCompile(`/v\d+$`)
var duplicateSlashRegex = regexp.MustCompile(`/{2,}`)

// Mode selects how the client reaches the upstream API.
type Mode string

const (
	// ModeDirect calls the upstream host and sends the API key itself.
	ModeDirect Mode = "direct"
	// ModeRelay calls a same-origin relay that injects the key server-side.
	ModeRelay Mode = "relay"
)

func ParseMode(raw string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(raw))) {
	case ModeDirect:
		return ModeDirect, nil
	case ModeRelay:
		return ModeRelay, nil
	default:
		return "", crerr.Newf("invalid football api mode %q: valid values are %s, %s", raw, ModeDirect, ModeRelay)
	}
}

type ClientConfig struct {
	HTTPClient *http.Client
	BaseURL    string
	APIKey     string
	Mode       Mode
	Timeout    time.Duration
	// Location is the zone used to compute "today" for date-range endpoints.
	Location *time.Location
	Now      func() time.Time
	Logger   *logging.Logger
}

// Client is a single-attempt football-data.org v4 client.
type Client struct {
	httpClient *http.Client
	baseURL    string
	version    string
	apiKey     string
	mode       Mode
	timeout    time.Duration
	location   *time.Location
	now        func() time.Time
	logger     *logging.Logger
	flight     resilience.Flight[rawResponse]
}

// Result is the outcome of one request attempt. Err is nil on success.
type Result struct {
	Status  int
	Payload any
	Raw     []byte
	Err     *RequestError
}

func (r Result) OK() bool {
	return r.Err == nil
}

// Error returns Err as an error interface, nil on success.
func (r Result) Error() error {
	if r.Err == nil {
		return nil
	}
	return r.Err
}

type rawResponse struct {
	status     int
	statusText string
	body       []byte
}

func NewClient(cfg ClientConfig) *Client {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}
	if httpClient.Timeout <= 0 {
		httpClient.Timeout = timeout
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	version := versionSuffixRegex.FindString(baseURL)
	if version == "" {
		version = defaultVersion
		baseURL += version
	}

	mode := cfg.Mode
	if mode == "" {
		mode = ModeDirect
	}

	location := cfg.Location
	if location == nil {
		location = time.Local
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &Client{
		httpClient: httpClient,
		baseURL:    baseURL,
		version:    version,
		apiKey:     strings.TrimSpace(cfg.APIKey),
		mode:       mode,
		timeout:    httpClient.Timeout,
		location:   location,
		now:        now,
		logger:     logger.Named("footballdata"),
	}
}

func (c *Client) Mode() Mode {
	return c.mode
}

// HasCredential reports whether an API key was configured, regardless of mode.
func (c *Client) HasCredential() bool {
	return c.apiKey != ""
}

// URL joins the versioned base URL with an endpoint path.
func (c *Client) URL(path string) string {
	path = strings.TrimSpace(path)
	if path == "" {
		return c.baseURL
	}

	rawQuery := ""
	if idx := strings.IndexByte(path, '?'); idx >= 0 {
		path, rawQuery = path[:idx], path[idx:]
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	path = duplicateSlashRegex.ReplaceAllString(path, "/")
	if path == c.version || strings.HasPrefix(path, c.version+"/") {
		path = strings.TrimPrefix(path, c.version)
	}

	return c.baseURL + path + rawQuery
}

// Headers returns the header set sent with every request.
func (c *Client) Headers() http.Header {
	headers := http.Header{}
	headers.Set("Content-Type", "application/json")
	if c.mode == ModeDirect && c.apiKey != "" {
		headers.Set(AuthHeader, c.apiKey)
	}
	return headers
}

// Request issues one GET and classifies the outcome. It never retries.
// Concurrent requests for the same URL share one upstream call, which runs
// detached from any single caller; each caller still stops waiting when its
// own ctx ends.
func (c *Client) Request(ctx context.Context, path string) Result {
	fullURL := c.URL(path)

	ch := c.flight.DoChan(fullURL, func() (rawResponse, error) {
		loadCtx := context.WithoutCancel(ctx)
		if c.timeout > 0 {
			var cancel context.CancelFunc
			loadCtx, cancel = context.WithTimeout(loadCtx, c.timeout)
			defer cancel()
		}
		resp, reqErr := c.execute(loadCtx, fullURL)
		if reqErr != nil {
			return rawResponse{}, reqErr
		}
		return resp, nil
	})

	select {
	case <-ctx.Done():
		reqErr := networkError(ctx.Err())
		if crerr.Is(ctx.Err(), context.DeadlineExceeded) {
			reqErr = timeoutError(c.timeout, ctx.Err())
		}
		c.logger.WarnContext(ctx, "football-data request abandoned",
			"url", fullURL,
			"kind", string(reqErr.Kind),
			"error", ctx.Err(),
		)
		return Result{Err: reqErr}
	case out := <-ch:
		if out.Err != nil {
			var reqErr *RequestError
			if !crerr.As(out.Err, &reqErr) {
				reqErr = networkError(out.Err)
			}
			c.logger.WarnContext(ctx, "football-data request failed",
				"url", fullURL,
				"kind", string(reqErr.Kind),
				"shared", out.Shared,
				"error", reqErr.Cause(),
			)
			return Result{Err: reqErr}
		}
		return c.classify(ctx, fullURL, out.Val)
	}
}

func (c *Client) execute(ctx context.Context, fullURL string) (rawResponse, *RequestError) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return rawResponse{}, networkError(crerr.Wrap(err, "build request"))
	}
	req.Header = c.Headers()

	c.logger.DebugContext(ctx, "football-data request",
		"url", fullURL,
		"mode", string(c.mode),
		"auth_header", req.Header.Get(AuthHeader) != "",
	)

	started := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if isTimeout(err) {
			return rawResponse{}, timeoutError(c.timeout, err)
		}
		return rawResponse{}, networkError(crerr.Newf("%s", sanitizeSensitiveText(err.Error(), c.apiKey)))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		if isTimeout(err) {
			return rawResponse{}, timeoutError(c.timeout, err)
		}
		return rawResponse{}, networkError(crerr.Wrap(err, "read response body"))
	}

	c.logger.DebugContext(ctx, "football-data response",
		"url", fullURL,
		"status", resp.StatusCode,
		"duration_ms", time.Since(started).Milliseconds(),
	)

	return rawResponse{
		status:     resp.StatusCode,
		statusText: statusText(resp),
		body:       body,
	}, nil
}

func (c *Client) classify(ctx context.Context, fullURL string, resp rawResponse) Result {
	if resp.status < 200 || resp.status >= 300 {
		reqErr := statusError(resp.status, resp.statusText)
		c.logger.WarnContext(ctx, "football-data non-2xx response",
			"url", fullURL,
			"status", resp.status,
			"kind", string(reqErr.Kind),
			"body", abbreviateBody(resp.body),
		)
		return Result{Status: resp.status, Raw: resp.body, Err: reqErr}
	}

	var payload any
	if err := sonic.Unmarshal(resp.body, &payload); err != nil {
		return Result{Status: resp.status, Raw: resp.body, Err: malformedError(resp.status, err)}
	}

	return Result{Status: resp.status, Payload: payload, Raw: resp.body}
}

func isTimeout(err error) bool {
	if err == nil {
		return false
	}
	if crerr.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return crerr.As(err, &netErr) && netErr.Timeout()
}

func statusText(resp *http.Response) string {
	text := strings.TrimSpace(strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode)))
	if text == "" {
		text = http.StatusText(resp.StatusCode)
	}
	return text
}

func sanitizeSensitiveText(value, token string) string {
	value = strings.TrimSpace(value)
	if value == "" || token == "" {
		return value
	}
	return strings.ReplaceAll(value, token, "REDACTED")
}

func abbreviateBody(body []byte) string {
	text := strings.TrimSpace(string(body))
	if len(text) <= 240 {
		return text
	}
	return text[:240] + "..."
}

func pathSegment(value string) string {
	return url.PathEscape(strings.TrimSpace(value))
}
