package api

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/evilb/openmotics/internal/logging"
	"github.com/evilb/openmotics/internal/version"
)

// Client is a connected API session. It is safe for concurrent use.
type Client struct {
	baseURL   string
	auth      Authenticator
	timeout   time.Duration
	retry     *RetryPolicy
	userAgent string
	logger    *zap.Logger

	httpClient    *http.Client
	ownsTransport bool

	// lifetime is cancelled with ErrClientClosed by Close
	lifetime       context.Context
	cancelLifetime context.CancelCauseFunc

	mu        sync.Mutex
	closed    bool
	inflight  sync.WaitGroup
	closeOnce sync.Once
}

// Connect validates cfg and returns a ready client.
func Connect(cfg Config) (*Client, error) {
	base, err := parseBaseURL(cfg.BaseURL)
	if err != nil {
		return nil, err
	}
	if cfg.Timeout < 0 {
		return nil, NewConfigurationError("timeout must not be negative", nil)
	}

	c := &Client{
		baseURL:   base.String(),
		auth:      authenticatorFor(cfg),
		timeout:   cfg.Timeout,
		retry:     cfg.Retry,
		userAgent: cfg.UserAgent,
		logger:    cfg.Logger,
	}
	if c.timeout == 0 {
		c.timeout = DefaultTimeout
	}
	if c.retry == nil {
		c.retry = DefaultRetryPolicy()
	}
	if c.userAgent == "" {
		c.userAgent = version.UserAgent()
	}
	if c.logger == nil {
		c.logger = logging.GetLogger()
	}

	if cfg.HTTPClient != nil {
		c.httpClient = cfg.HTTPClient
	} else {
		c.httpClient = newOwnedHTTPClient(cfg.TLSConfig)
		c.ownsTransport = true
	}

	c.lifetime, c.cancelLifetime = context.WithCancelCause(context.Background())
	return c, nil
}

// BaseURL returns the normalized base URL.
func (c *Client) BaseURL() string { return c.baseURL }

// RetryPolicy returns the policy applied to every call.
func (c *Client) RetryPolicy() *RetryPolicy { return c.retry }

// Closed reports whether Close has been called.
func (c *Client) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// Close cancels in-flight calls, waits for them to return and releases the
// owned transport. An externally supplied HTTPClient is left untouched.
// Close is idempotent.
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.closed = true
		c.mu.Unlock()

		c.cancelLifetime(ErrClientClosed)
		c.inflight.Wait()

		if c.ownsTransport {
			c.httpClient.CloseIdleConnections()
		}
		c.logger.Debug("client closed", zap.String("base_url", c.baseURL))
	})
	return nil
}

// begin registers an in-flight call and derives its context from both the
// caller and the client lifetime.
func (c *Client) begin(ctx context.Context) (context.Context, func(), error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, nil, NewConfigurationError("client is closed", ErrClientClosed)
	}
	c.inflight.Add(1)
	c.mu.Unlock()

	callCtx, cancel := context.WithCancelCause(ctx)
	stop := context.AfterFunc(c.lifetime, func() { cancel(ErrClientClosed) })

	release := func() {
		stop()
		cancel(nil)
		c.inflight.Done()
	}
	return callCtx, release, nil
}

// Request is a shorthand for Do with a JSON body.
func (c *Client) Request(ctx context.Context, method, path string, params Params, body any) (*Response, error) {
	return c.Do(ctx, &Request{Method: method, Path: path, Query: params, Body: body})
}

// Get issues a GET request.
func (c *Client) Get(ctx context.Context, path string, params Params) (*Response, error) {
	return c.Request(ctx, http.MethodGet, path, params, nil)
}

// Post issues a POST request with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body any) (*Response, error) {
	return c.Request(ctx, http.MethodPost, path, nil, body)
}

// Delete issues a DELETE request.
func (c *Client) Delete(ctx context.Context, path string) (*Response, error) {
	return c.Request(ctx, http.MethodDelete, path, nil, nil)
}

// Do sends req, retrying transient failures, and returns the 2xx response.
func (c *Client) Do(ctx context.Context, req *Request) (*Response, error) {
	if req == nil {
		return nil, NewConfigurationError("nil request", nil)
	}
	if ctx == nil {
		ctx = context.Background()
	}

	ctx, release, err := c.begin(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	r := req.clone()
	if err := c.auth.Authorize(ctx, r); err != nil {
		if _, ok := asError(err); ok {
			return nil, err
		}
		return nil, NewAuthError(0, "failed to authorize request", err)
	}

	body, contentType, err := r.encodeBody()
	if err != nil {
		return nil, err
	}

	target := c.resolve(r)
	requestID := uuid.NewString()

	var (
		resp     *Response
		attempts int
	)
	operation := func() error {
		attempts++
		res, err := c.attempt(ctx, r, target, body, contentType, requestID, attempts)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(cancelled(ctx))
			}
			if !IsRetryable(err) {
				return backoff.Permanent(err)
			}
			return err
		}
		resp = res
		return nil
	}
	notify := func(err error, wait time.Duration) {
		logging.LogRetry(c.logger, requestID, err, wait)
	}

	if err := backoff.RetryNotify(operation, c.retry.newBackOff(ctx), notify); err != nil {
		if InvalidateOnReject(c.auth, err) {
			c.logger.Debug("cached token invalidated", zap.String("request_id", requestID))
		}
		return nil, c.finalize(ctx, err, attempts)
	}

	resp.Attempts = attempts
	return resp, nil
}

// finalize turns the last attempt error into the error returned to the caller.
func (c *Client) finalize(ctx context.Context, err error, attempts int) error {
	apiErr, ok := asError(err)
	if !ok {
		// backoff returns the bare context error when cancelled while waiting
		if ctx.Err() != nil {
			return cancelled(ctx)
		}
		return NewNetworkError("request failed", err)
	}
	if apiErr.Type == ErrTypeTransport {
		apiErr.Attempts = attempts
		apiErr.Retryable = false
		if apiErr.NetworkSubtype != NetworkErrorCancelled && attempts > 1 {
			apiErr.Message = "giving up: " + apiErr.Message
		}
	}
	return apiErr
}

func cancelled(ctx context.Context) *Error {
	cause := context.Cause(ctx)
	if cause == nil {
		cause = context.Canceled
	}
	return &Error{
		Type:           ErrTypeTransport,
		Message:        "request cancelled",
		NetworkSubtype: NetworkErrorCancelled,
		Err:            cause,
	}
}

func (c *Client) resolve(r *Request) string {
	target := c.baseURL + "/" + strings.TrimLeft(r.Path, "/")
	if len(r.Query) > 0 {
		target += "?" + r.Query.Encode()
	}
	return target
}

// attempt performs a single round trip bounded by the per-attempt timeout.
func (c *Client) attempt(ctx context.Context, r *Request, target string, body []byte, contentType, requestID string, n int) (*Response, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	httpReq, err := http.NewRequestWithContext(attemptCtx, r.Method, target, reader)
	if err != nil {
		return nil, NewConfigurationError("failed to build request", err)
	}
	httpReq.Header = r.Header.Clone()
	if httpReq.Header.Get("Accept") == "" {
		httpReq.Header.Set("Accept", "application/json")
	}
	if contentType != "" && httpReq.Header.Get("Content-Type") == "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	httpReq.Header.Set("User-Agent", c.userAgent)
	httpReq.Header.Set("X-Request-ID", requestID)

	logging.LogRequest(c.logger, requestID, r.Method, redact(target), n)
	start := time.Now()

	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, NewNetworkError("request failed", err)
	}
	defer func() { _ = httpResp.Body.Close() }()

	data, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, NewNetworkError("failed to read response body", err)
	}
	logging.LogResponse(c.logger, requestID, httpResp.StatusCode, time.Since(start), data)

	return c.checkStatus(httpResp, data, requestID)
}

func (c *Client) checkStatus(httpResp *http.Response, data []byte, requestID string) (*Response, error) {
	code := httpResp.StatusCode
	switch {
	case code >= 200 && code < 300:
		return &Response{
			StatusCode: code,
			Header:     httpResp.Header,
			Body:       data,
			RequestID:  requestID,
		}, nil
	case code == http.StatusUnauthorized || code == http.StatusForbidden:
		authErr := NewAuthError(code, "credentials rejected", nil)
		authErr.Body = data
		return nil, authErr
	case c.retry.IsRetryableStatus(code):
		return nil, NewServerStatusError(code, data)
	default:
		return nil, NewAPIError(code, data)
	}
}

// redact drops credentials that may travel in the query string.
func redact(target string) string {
	if i := strings.IndexByte(target, '?'); i >= 0 {
		return target[:i] + "?…"
	}
	return target
}

// IsCancelled reports whether err was caused by context cancellation or Close.
func IsCancelled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, ErrClientClosed)
}
