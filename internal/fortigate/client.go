package fortigate

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/martinsuchenak/fortimcp/internal/log"
)

const retryBackoffBase = 500 * time.Millisecond

// Client is the API client for a single FortiGate device. It owns the
// device's HTTP session, applies auth, rate limiting, timeout and retry
// policy, and classifies every failure into the APIError taxonomy.
//
// A Client is safe for concurrent use.
type Client struct {
	deviceID string
	cfg      DeviceConfig
	auth     authStrategy
	http     *http.Client
	limiter  *rateLimiter

	// sleep is a seam for tests; it must honor ctx cancellation.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewClient validates the device record, selects the auth strategy and
// builds the client. Validation failures are config-kind errors.
func NewClient(deviceID string, cfg DeviceConfig) (*Client, error) {
	cfg = cfg.withDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	auth, err := newAuthStrategy(cfg)
	if err != nil {
		return nil, err
	}

	transport := &http.Transport{
		TLSClientConfig: &tls.Config{InsecureSkipVerify: !cfg.VerifySSL},
	}

	return &Client{
		deviceID: deviceID,
		cfg:      cfg,
		auth:     auth,
		http: &http.Client{
			Timeout:   time.Duration(cfg.Timeout) * time.Second,
			Transport: transport,
		},
		limiter: newRateLimiter(cfg.RateLimit),
		sleep:   sleepCtx,
	}, nil
}

// DeviceID returns the registry identifier this client was built for.
func (c *Client) DeviceID() string { return c.deviceID }

// Config returns a copy of the device record the client was built from.
func (c *Client) Config() DeviceConfig { return c.cfg }

// AuthMethod reports the selected credential strategy, "token" or "basic".
func (c *Client) AuthMethod() string { return c.auth.method() }

// Close releases idle connections held by the device session.
func (c *Client) Close() {
	c.http.CloseIdleConnections()
}

// Request issues one API call against https://{host}:{port}/api/v2/{path}
// and returns the parsed JSON payload. vdom overrides the device default
// for this call only; pass "" to use the default. Rate-limited and
// server-side failures are retried internally with exponential backoff and
// jitter up to the configured retry budget; every other failure propagates
// on first occurrence as a classified APIError.
func (c *Client) Request(ctx context.Context, method, path string, query url.Values, body map[string]any, vdom string) (payload map[string]any, err error) {
	return c.request(ctx, method, path, query, body, vdom, true)
}

func (c *Client) request(ctx context.Context, method, path string, query url.Values, body map[string]any, vdom string, withVDOM bool) (payload map[string]any, err error) {
	// The client boundary never lets an unanticipated failure escape
	// unclassified; a call always resolves to a payload or an APIError.
	defer func() {
		if r := recover(); r != nil {
			err = newAPIError(KindUnknown, 0, fmt.Sprintf("unexpected failure: %v", r))
		}
		if err != nil {
			err = toAPIError(err)
		}
	}()

	reqURL, err := c.buildURL(path, query, vdom, withVDOM)
	if err != nil {
		return nil, newAPIError(KindClient, 0, "invalid request path: "+err.Error())
	}

	var bodyBytes []byte
	if body != nil {
		bodyBytes, err = json.Marshal(body)
		if err != nil {
			return nil, newAPIError(KindClient, 0, "invalid request body: "+err.Error())
		}
	}

	for attempt := 0; ; attempt++ {
		if err := c.limiter.Admit(ctx, c.deviceID); err != nil {
			// Local limiter rejections surface immediately so reject
			// mode keeps its latency guarantee; the error is still
			// marked retryable for the caller.
			c.logAttempt(method, path, 0, 0, toAPIError(err))
			return nil, err
		}

		payload, retryAfter, attemptErr := c.doAttempt(ctx, method, reqURL, bodyBytes)
		if attemptErr == nil {
			return payload, nil
		}

		apiErr := toAPIError(attemptErr)
		if !apiErr.Retryable || attempt >= c.cfg.MaxRetries {
			return nil, apiErr
		}

		delay := backoffDelay(attempt)
		if retryAfter > delay {
			delay = retryAfter
		}
		if err := c.sleep(ctx, delay); err != nil {
			return nil, classifyTransport(err)
		}
	}
}

// doAttempt executes a single HTTP attempt and classifies the outcome.
// The returned duration hint comes from a Retry-After header if present.
func (c *Client) doAttempt(ctx context.Context, method, reqURL string, body []byte) (map[string]any, time.Duration, error) {
	start := time.Now()

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, reader)
	if err != nil {
		return nil, 0, newAPIError(KindClient, 0, "building request: "+err.Error())
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.auth.apply(req)

	resp, err := c.http.Do(req)
	if err != nil {
		apiErr := classifyTransport(err)
		c.logAttempt(method, req.URL.Path, 0, time.Since(start), apiErr)
		return nil, 0, apiErr
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		apiErr := classifyTransport(err)
		c.logAttempt(method, req.URL.Path, resp.StatusCode, time.Since(start), apiErr)
		return nil, 0, apiErr
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := classifyStatus(resp.StatusCode, truncate(string(raw), 200))
		c.logAttempt(method, req.URL.Path, resp.StatusCode, time.Since(start), apiErr)
		return nil, parseRetryAfter(resp.Header.Get("Retry-After")), apiErr
	}

	payload := map[string]any{}
	if len(bytes.TrimSpace(raw)) > 0 {
		if err := json.Unmarshal(raw, &payload); err != nil {
			apiErr := newAPIError(KindParse, resp.StatusCode, "unexpected response body: "+err.Error())
			c.logAttempt(method, req.URL.Path, resp.StatusCode, time.Since(start), apiErr)
			return nil, 0, apiErr
		}
	}

	c.logAttempt(method, req.URL.Path, resp.StatusCode, time.Since(start), nil)
	return payload, 0, nil
}

func (c *Client) buildURL(path string, query url.Values, vdom string, withVDOM bool) (string, error) {
	u, err := url.Parse(fmt.Sprintf("https://%s:%d/api/v2/%s", c.cfg.Host, c.cfg.Port, path))
	if err != nil {
		return "", err
	}

	q := u.Query()
	for key, values := range query {
		for _, v := range values {
			q.Add(key, v)
		}
	}
	if withVDOM {
		if vdom == "" {
			vdom = c.cfg.VDOM
		}
		q.Set("vdom", vdom)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// logAttempt reports one attempt, success or failure, exactly once.
func (c *Client) logAttempt(method, path string, statusCode int, duration time.Duration, err *APIError) {
	args := []any{
		"device_id", c.deviceID,
		"method", method,
		"path", path,
		"status", statusCode,
		"duration_ms", duration.Milliseconds(),
	}
	if err != nil {
		args = append(args, "error_kind", string(err.Kind))
		log.Warn("API call failed", args...)
		return
	}
	log.Debug("API call", args...)
}

// backoffDelay returns the exponential delay for the given attempt with up
// to 25% random jitter added.
func backoffDelay(attempt int) time.Duration {
	delay := retryBackoffBase << uint(attempt)
	jitter := time.Duration(rand.Int64N(int64(delay)/4 + 1))
	return delay + jitter
}

// parseRetryAfter reads a Retry-After header given in seconds. HTTP-date
// values are not supported and yield zero.
func parseRetryAfter(header string) time.Duration {
	if header == "" {
		return 0
	}
	seconds, err := strconv.Atoi(header)
	if err != nil || seconds < 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
