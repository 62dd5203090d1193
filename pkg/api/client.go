package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/zabal/bonfires/pkg/logger"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/prometheus/client_golang/prometheus"
)

// errInvalidRequest marks a request that could not be built. Sending it again
// cannot succeed, so it is never retried.
var errInvalidRequest = errors.New("invalid request")

const (
	defaultCacheTTL = 5 * time.Minute
	defaultTimeout  = 60 * time.Second
)

// Client talks JSON over HTTP to the Bonfires backend.
//
// GET responses are cached per endpoint and concurrent identical GETs share a
// single network call. Mutating methods always go to the network. Failed
// attempts are retried according to the client's RetryPolicy.
//
// The cache and inflight registry belong to the Client value; create one
// Client at the composition root and share it. A Client should be created
// using NewClient.
type Client struct {
	baseURL    string
	httpClient *http.Client
	headers    map[string]string
	defaultTTL time.Duration
	timeout    time.Duration
	policy     RetryPolicy

	cache    *Cache
	inflight *Inflight
	metrics  *Metrics

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// NewClientParams defines the configuration for NewClient.
//
// BaseURL is the backend root, e.g. "https://api.bonfires.ai".
// APIKey, when set, is sent as a bearer token on every request.
// CacheTTL and Timeout default to 5 minutes and 60 seconds.
// RetryPolicy defaults to DefaultRetryPolicy.
// Registerer, when set, receives the client's Prometheus collectors.
type NewClientParams struct {
	BaseURL     string
	APIKey      string
	Headers     map[string]string
	HTTPClient  *http.Client
	CacheTTL    time.Duration
	Timeout     time.Duration
	RetryPolicy *RetryPolicy
	Registerer  prometheus.Registerer
}

// NewClient creates a Client from params.
//
// Example:
//
//	client := api.NewClient(api.NewClientParams{
//		BaseURL:  "https://api.bonfires.ai",
//		APIKey:   os.Getenv("BONFIRES_API_KEY"),
//		CacheTTL: 2 * time.Minute,
//	})
//	var bonfires []Bonfire
//	err := client.Get(ctx, "/bonfires", &bonfires)
func NewClient(params NewClientParams) *Client {
	httpClient := params.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	ttl := params.CacheTTL
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	timeout := params.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	policy := DefaultRetryPolicy()
	if params.RetryPolicy != nil {
		policy = *params.RetryPolicy
	}

	headers := map[string]string{
		"Content-Type": "application/json",
		"Accept":       "application/json",
	}
	if params.APIKey != "" {
		headers["Authorization"] = "Bearer " + params.APIKey
	}
	for k, v := range params.Headers {
		headers[k] = v
	}

	c := &Client{
		baseURL:    strings.TrimRight(params.BaseURL, "/"),
		httpClient: httpClient,
		headers:    headers,
		defaultTTL: ttl,
		timeout:    timeout,
		policy:     policy,
		cache:      NewCache(),
		inflight:   NewInflight(),
		now:        time.Now,
		sleep:      sleepContext,
	}
	c.metrics = newMetrics(params.Registerer, c)

	return c
}

// Get fetches endpoint and decodes the JSON response into out (which may be
// nil to discard it).
//
// Unless WithoutCache is given, a fresh cached body is used when present and
// a successful response is written back to the cache. Concurrent Gets for the
// same endpoint share one network call, see inflightKey for what counts as
// the same. Canceling ctx abandons this caller's wait without failing the
// others; the shared call runs detached from every caller's cancellation.
func (c *Client) Get(ctx context.Context, endpoint string, out any, opts ...RequestOption) error {
	o := c.buildOptions(opts)

	if !o.noCache {
		if data, ok := c.cache.Get(endpoint); ok {
			c.metrics.cacheHit()
			logger.Debug("Cache hit", "endpoint", endpoint)
			return decode(data, out)
		}
		c.metrics.cacheMiss()
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	// the shared call must outlive any single caller, so it only keeps ctx's
	// values; each attempt is still bounded by the request timeout
	shared := context.WithoutCancel(ctx)
	data, err, _ := c.inflight.Do(ctx, inflightKey(endpoint, o), func() ([]byte, error) {
		if !o.noCache {
			// another call may have filled the cache between our miss and now
			if data, ok := c.cache.peek(endpoint); ok {
				return data, nil
			}
		}
		data, err := c.execute(shared, http.MethodGet, endpoint, nil, o)
		if err != nil {
			return nil, err
		}
		if !o.noCache {
			c.cache.Set(endpoint, data, o.ttl)
		}
		return data, nil
	})
	if err != nil {
		return err
	}

	return decode(data, out)
}

// Post sends body as JSON and decodes the response into out.
func (c *Client) Post(ctx context.Context, endpoint string, body any, out any, opts ...RequestOption) error {
	return c.mutate(ctx, http.MethodPost, endpoint, body, out, opts)
}

// Put sends body as JSON and decodes the response into out.
func (c *Client) Put(ctx context.Context, endpoint string, body any, out any, opts ...RequestOption) error {
	return c.mutate(ctx, http.MethodPut, endpoint, body, out, opts)
}

// Patch sends body as JSON and decodes the response into out.
func (c *Client) Patch(ctx context.Context, endpoint string, body any, out any, opts ...RequestOption) error {
	return c.mutate(ctx, http.MethodPatch, endpoint, body, out, opts)
}

// Delete issues a DELETE and decodes the response into out.
func (c *Client) Delete(ctx context.Context, endpoint string, out any, opts ...RequestOption) error {
	return c.mutate(ctx, http.MethodDelete, endpoint, nil, out, opts)
}

// mutate never reads or writes the cache and never coalesces. Callers that
// know which cached reads a mutation affects invalidate them afterwards.
func (c *Client) mutate(ctx context.Context, method, endpoint string, body any, out any, opts []RequestOption) error {
	o := c.buildOptions(opts)

	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode %s %s body: %w", method, endpoint, err)
		}
	}

	data, err := c.execute(ctx, method, endpoint, payload, o)
	if err != nil {
		return err
	}
	return decode(data, out)
}

// GetJSON is Get for callers that prefer a typed return value.
func GetJSON[T any](ctx context.Context, c *Client, endpoint string, opts ...RequestOption) (T, error) {
	var out T
	err := c.Get(ctx, endpoint, &out, opts...)
	return out, err
}

// PostJSON is Post for callers that prefer a typed return value.
func PostJSON[T any](ctx context.Context, c *Client, endpoint string, body any, opts ...RequestOption) (T, error) {
	var out T
	err := c.Post(ctx, endpoint, body, &out, opts...)
	return out, err
}

// Invalidate drops the cached response for one endpoint and reports whether
// there was one.
func (c *Client) Invalidate(endpoint string) bool {
	removed := c.cache.Invalidate(endpoint)
	logger.Debug("Cache invalidated", "endpoint", endpoint, "removed", removed)
	return removed
}

// InvalidateByPrefix drops every cached response whose endpoint contains
// fragment, e.g. "bonfires/123".
func (c *Client) InvalidateByPrefix(fragment string) int {
	removed := c.cache.InvalidateByPrefix(fragment)
	logger.Debug("Cache invalidated by prefix", "fragment", fragment, "removed", removed)
	return removed
}

// ClearCache empties the cache and resets its statistics.
func (c *Client) ClearCache() {
	c.cache.Clear()
	logger.Debug("Cache cleared")
}

// CacheStats reports cache and inflight statistics.
func (c *Client) CacheStats() CacheStats {
	stats := c.cache.Stats()
	stats.Inflight = c.inflight.Len()
	return stats
}

// inflightKey decides which concurrent GETs may share a call. Cached GETs
// share by endpoint, since the cache is keyed the same way. Uncached GETs
// only share with uncached GETs carrying the same per-request headers, so a
// cached GET never waits on a result that will not be stored and differently
// authorized requests stay apart.
func inflightKey(endpoint string, o requestOptions) string {
	if !o.noCache {
		return endpoint
	}
	lines := make([]string, 0, len(o.headers))
	for k, v := range o.headers {
		lines = append(lines, http.CanonicalHeaderKey(k)+": "+v)
	}
	sort.Strings(lines)

	var b strings.Builder
	b.WriteString("nocache ")
	b.WriteString(endpoint)
	for _, line := range lines {
		b.WriteString("\n")
		b.WriteString(line)
	}
	return b.String()
}

func (c *Client) buildOptions(opts []RequestOption) requestOptions {
	o := requestOptions{
		ttl:     c.defaultTTL,
		timeout: c.timeout,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// execute runs one logical request, retrying transient failures. It returns
// the raw body of the first 2xx response.
func (c *Client) execute(ctx context.Context, method, endpoint string, body []byte, o requestOptions) ([]byte, error) {
	requestID, err := gonanoid.New()
	if err != nil {
		requestID = ""
	}

	for attempt := 0; ; attempt++ {
		status, header, data, err := c.attempt(ctx, method, endpoint, body, o, requestID)
		if errors.Is(err, errInvalidRequest) {
			c.metrics.request(method, "error")
			return nil, fmt.Errorf("%s %s: %w", method, endpoint, err)
		}
		if err != nil && ctx.Err() != nil {
			c.metrics.request(method, "canceled")
			return nil, ctx.Err()
		}

		var failure *Error
		var retryAfter string
		reason := "server"
		switch {
		case err != nil:
			failure = newNetworkError(err)
			reason = "network"
		case status >= 200 && status < 300:
			data = bytes.TrimSpace(data)
			if len(data) == 0 {
				data = []byte("null")
			}
			if !json.Valid(data) {
				c.metrics.request(method, "error")
				return nil, fmt.Errorf("%s %s: response is not valid JSON", method, endpoint)
			}
			c.metrics.request(method, "ok")
			return data, nil
		default:
			failure = newHTTPError(status, data)
			retryAfter = header.Get("Retry-After")
			if status == http.StatusTooManyRequests {
				reason = "rate_limit"
			}
		}

		delay, retry := c.policy.Delay(failure.Status, attempt, retryAfter)
		if !retry {
			if failure.Retryable() {
				logger.Error("Request failed after retries", "method", method, "endpoint", endpoint, "attempts", attempt+1, "err", failure)
			}
			c.metrics.request(method, "error")
			return nil, failure
		}

		logger.Warn(
			"Retrying request",
			"method", method,
			"endpoint", endpoint,
			"attempt", attempt+1,
			"delay", delay,
			"err", failure,
		)
		c.metrics.retry(reason)

		if err := c.sleep(ctx, delay); err != nil {
			c.metrics.request(method, "canceled")
			return nil, err
		}
	}
}

// attempt performs a single HTTP call bounded by the per-attempt timeout.
func (c *Client) attempt(
	ctx context.Context,
	method, endpoint string,
	body []byte,
	o requestOptions,
	requestID string,
) (int, http.Header, []byte, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(attemptCtx, method, c.url(endpoint), reader)
	if err != nil {
		return 0, nil, nil, fmt.Errorf("%w: %w", errInvalidRequest, err)
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	for k, v := range o.headers {
		req.Header.Set(k, v)
	}
	if requestID != "" {
		req.Header.Set("X-Request-ID", requestID)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return resp.StatusCode, resp.Header, data, nil
}

func (c *Client) url(endpoint string) string {
	if strings.HasPrefix(endpoint, "http://") || strings.HasPrefix(endpoint, "https://") {
		return endpoint
	}
	return c.baseURL + "/" + strings.TrimLeft(endpoint, "/")
}

func decode(data []byte, out any) error {
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
