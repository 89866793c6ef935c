package api

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastRetry(maxRetries int) *RetryPolicy {
	p := DefaultRetryPolicy()
	p.MaxRetries = maxRetries
	p.BaseDelay = time.Millisecond
	p.MaxDelay = 2 * time.Millisecond
	p.Jitter = 0
	return p
}

func newTestClient(t *testing.T, srv *httptest.Server, mutate ...func(*Config)) *Client {
	t.Helper()
	cfg := Config{
		BaseURL: srv.URL,
		Token:   "secret-token",
		Retry:   fastRetry(3),
		Timeout: 2 * time.Second,
	}
	for _, m := range mutate {
		m(&cfg)
	}
	c, err := Connect(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestConnect(t *testing.T) {
	c, err := Connect(Config{BaseURL: "https://cloud.openmotics.com/api/v1.1/", Token: "t"})
	require.NoError(t, err)
	defer c.Close()

	assert.Equal(t, "https://cloud.openmotics.com/api/v1.1", c.BaseURL())
	assert.Equal(t, DefaultMaxRetries+1, c.RetryPolicy().Attempts())
	assert.False(t, c.Closed())
}

func TestConnectInvalidBaseURL(t *testing.T) {
	tests := []struct {
		name    string
		baseURL string
	}{
		{"missing", ""},
		{"blank", "   "},
		{"no scheme", "cloud.openmotics.com"},
		{"unsupported scheme", "ftp://cloud.openmotics.com"},
		{"no host", "https://"},
		{"query", "https://cloud.openmotics.com/api?x=1"},
		{"unparsable", "http://[::1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := Connect(Config{BaseURL: tt.baseURL, Token: "t"})
			require.Error(t, err)
			assert.Nil(t, c)
			assert.True(t, IsConfigurationError(err), "got %v", err)
		})
	}
}

func TestListResources(t *testing.T) {
	headers := make(chan http.Header, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		headers <- r.Header.Clone()
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/resources", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"resources":[{"id":1,"name":"light1"}]}`)
	}))
	defer srv.Close()

	c := newTestClient(t, srv, func(cfg *Config) { cfg.BaseURL = srv.URL + "/api" })

	resources, err := c.ListResources(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []Resource{{ID: 1, Name: "light1"}}, resources)

	gotHeader := <-headers
	assert.Equal(t, "Bearer secret-token", gotHeader.Get("Authorization"))
	assert.NotEmpty(t, gotHeader.Get("X-Request-ID"))
	assert.True(t, strings.HasPrefix(gotHeader.Get("User-Agent"), "openmotics-go/"))
	assert.Equal(t, "application/json", gotHeader.Get("Accept"))
}

func TestGetResource(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/resources/7", r.URL.Path)
		_, _ = io.WriteString(w, `{"id":7,"name":"kitchen","type":"OUTLET","state":"on"}`)
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	res, err := c.GetResource(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, Resource{ID: 7, Name: "kitchen", Type: "OUTLET", State: "on"}, res)

	_, err = c.GetResource(context.Background(), -1)
	assert.ErrorIs(t, err, ErrInvalidID)
}

func TestSetResourceStateRetriesThenSucceeds(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := hits.Add(1)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/resources/3/state", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "on", body["state"])

		if n <= 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = io.WriteString(w, `{"status":"ok"}`)
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	result, err := c.SetResourceState(context.Background(), 3, "on")
	require.NoError(t, err)
	assert.True(t, result.OK())
	assert.Equal(t, int32(4), hits.Load())
}

func TestSetResourceStateRejectsEmptyState(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	_, err := c.SetResourceState(context.Background(), 3, " ")
	assert.ErrorIs(t, err, ErrEmptyState)
	assert.Zero(t, hits.Load())
}

func TestRetryExhaustedReturnsTransportError(t *testing.T) {
	for _, status := range []int{500, 502, 503, 504} {
		t.Run(http.StatusText(status), func(t *testing.T) {
			var hits atomic.Int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				hits.Add(1)
				w.WriteHeader(status)
				_, _ = io.WriteString(w, "unavailable")
			}))
			defer srv.Close()

			c := newTestClient(t, srv)
			_, err := c.ListResources(context.Background())
			require.Error(t, err)
			assert.True(t, IsTransportError(err), "got %v", err)
			assert.False(t, IsRetryable(err))

			var apiErr *Error
			require.ErrorAs(t, err, &apiErr)
			assert.Equal(t, 4, apiErr.Attempts)
			assert.Equal(t, status, apiErr.StatusCode)
			assert.Equal(t, "unavailable", string(apiErr.Body))
			assert.Equal(t, int32(4), hits.Load())
		})
	}
}

func TestClientErrorsAreNotRetried(t *testing.T) {
	tests := []struct {
		status int
		check  func(error) bool
	}{
		{http.StatusBadRequest, IsAPIError},
		{http.StatusNotFound, IsAPIError},
		{http.StatusUnprocessableEntity, IsAPIError},
		{http.StatusTooManyRequests, IsAPIError},
		{http.StatusUnauthorized, IsAuthError},
		{http.StatusForbidden, IsAuthError},
	}
	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			var hits atomic.Int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				hits.Add(1)
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, `{"error":"nope"}`)
			}))
			defer srv.Close()

			c := newTestClient(t, srv)
			_, err := c.GetResource(context.Background(), 1)
			require.Error(t, err)
			assert.True(t, tt.check(err), "got %v", err)
			assert.Equal(t, tt.status, StatusCode(err))
			assert.Equal(t, int32(1), hits.Load())

			var apiErr *Error
			require.ErrorAs(t, err, &apiErr)
			assert.JSONEq(t, `{"error":"nope"}`, string(apiErr.Body))
		})
	}
}

func TestUntrustedCertificateIsNotRetried(t *testing.T) {
	var conns atomic.Int32
	srv := httptest.NewUnstartedServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"resources":[]}`)
	}))
	srv.Config.ErrorLog = log.New(io.Discard, "", 0)
	srv.Config.ConnState = func(_ net.Conn, state http.ConnState) {
		if state == http.StateNew {
			conns.Add(1)
		}
	}
	srv.StartTLS()
	defer srv.Close()

	c := newTestClient(t, srv)
	_, err := c.ListResources(context.Background())
	require.Error(t, err)
	assert.True(t, IsTransportError(err), "got %v", err)

	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, NetworkErrorTLS, apiErr.NetworkSubtype)
	assert.Equal(t, 1, apiErr.Attempts)
	assert.Equal(t, int32(1), conns.Load())
	assert.Equal(t, "Certificate not trusted", ShortErrorMessage(err))

	trusted := newTestClient(t, srv, func(cfg *Config) {
		cfg.TLSConfig = &tls.Config{RootCAs: srv.Client().Transport.(*http.Transport).TLSClientConfig.RootCAs}
	})
	_, err = trusted.ListResources(context.Background())
	assert.NoError(t, err)
}

func TestMissingTokenFailsBeforeIO(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer srv.Close()

	c := newTestClient(t, srv, func(cfg *Config) { cfg.Token = "" })
	_, err := c.ListResources(context.Background())
	require.Error(t, err)
	assert.True(t, IsAuthError(err))
	assert.Zero(t, StatusCode(err))
	assert.Zero(t, hits.Load())
}

func TestTokenSourceIsConsultedPerCall(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer refreshed", r.Header.Get("Authorization"))
		_, _ = io.WriteString(w, `{"resources":[]}`)
	}))
	defer srv.Close()

	c := newTestClient(t, srv, func(cfg *Config) {
		cfg.Token = "stale"
		cfg.TokenSource = TokenSourceFunc(func(context.Context) (string, error) {
			calls.Add(1)
			return "refreshed", nil
		})
	})

	for range 2 {
		resources, err := c.ListResources(context.Background())
		require.NoError(t, err)
		assert.Empty(t, resources)
	}
	assert.Equal(t, int32(2), calls.Load())
}

type countingTokenSource struct {
	token       string
	invalidated atomic.Int32
}

func (s *countingTokenSource) Token(context.Context) (string, error) { return s.token, nil }

func (s *countingTokenSource) Invalidate() { s.invalidated.Add(1) }

func TestRejectedTokenInvalidatesSource(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		invalidated int32
	}{
		{"unauthorized", http.StatusUnauthorized, 1},
		{"forbidden", http.StatusForbidden, 1},
		{"not found", http.StatusNotFound, 0},
		{"server error", http.StatusBadGateway, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			src := &countingTokenSource{token: "t"}
			c := newTestClient(t, srv, func(cfg *Config) { cfg.TokenSource = src })
			_, err := c.ListResources(context.Background())
			require.Error(t, err)
			assert.Equal(t, tt.invalidated, src.invalidated.Load())
		})
	}
}

func TestInvalidateOnReject(t *testing.T) {
	src := &countingTokenSource{}
	assert.False(t, InvalidateOnReject(src, NewAuthError(0, "no token", nil)))
	assert.False(t, InvalidateOnReject(src, NewAPIError(404, nil)))
	assert.False(t, InvalidateOnReject(src, errors.New("plain")))
	assert.False(t, InvalidateOnReject(StaticToken("t"), NewAuthError(401, "rejected", nil)))
	assert.True(t, InvalidateOnReject(src, fmt.Errorf("wrap: %w", NewAuthError(401, "rejected", nil))))
	assert.Equal(t, int32(1), src.invalidated.Load())
}

func TestTokenSourceFailureIsAuthError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	boom := errors.New("token endpoint down")
	c := newTestClient(t, srv, func(cfg *Config) {
		cfg.TokenSource = TokenSourceFunc(func(context.Context) (string, error) { return "", boom })
	})
	_, err := c.ListResources(context.Background())
	assert.True(t, IsAuthError(err))
	assert.ErrorIs(t, err, boom)
}

func TestSchemaMismatchIsValidationError(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = io.WriteString(w, `{"resources":[{"id":"one","name":"light1"}]}`)
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	_, err := c.ListResources(context.Background())
	require.Error(t, err)
	assert.True(t, IsValidationError(err))
	assert.Contains(t, err.Error(), "Resource")

	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "[0].id", apiErr.Field)
	assert.Equal(t, int32(1), hits.Load())
}

func TestPerAttemptTimeoutIsRetried(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) == 1 {
			select {
			case <-r.Context().Done():
			case <-time.After(time.Second):
			}
			return
		}
		_, _ = io.WriteString(w, `{"resources":[]}`)
	}))
	defer srv.Close()

	c := newTestClient(t, srv, func(cfg *Config) { cfg.Timeout = 50 * time.Millisecond })
	_, err := c.ListResources(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(2), hits.Load())
}

func TestCallerCancellationStopsRetries(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		cancel()
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := newTestClient(t, srv, func(cfg *Config) {
		p := fastRetry(10)
		p.BaseDelay = time.Second
		p.MaxDelay = time.Second
		cfg.Retry = p
	})
	_, err := c.ListResources(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.True(t, IsCancelled(err))
	assert.Equal(t, int32(1), hits.Load())
}

func TestCloseCancelsInFlightRequests(t *testing.T) {
	started := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(started)
		<-r.Context().Done()
	}))
	defer srv.Close()

	c, err := Connect(Config{BaseURL: srv.URL, Token: "t", Retry: fastRetry(3), Timeout: 10 * time.Second})
	require.NoError(t, err)

	errCh := make(chan error, 1)
	go func() {
		_, err := c.ListResources(context.Background())
		errCh <- err
	}()

	<-started
	require.NoError(t, c.Close())

	select {
	case err := <-errCh:
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrClientClosed)
	case <-time.After(5 * time.Second):
		t.Fatal("in-flight request was not cancelled by Close")
	}

	assert.True(t, c.Closed())
	_, err = c.ListResources(context.Background())
	assert.True(t, IsConfigurationError(err))
	assert.ErrorIs(t, err, ErrClientClosed)

	// second Close is a no-op
	assert.NoError(t, c.Close())
}

func TestCloseLeavesExternalHTTPClientUsable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"resources":[]}`)
	}))
	defer srv.Close()

	external := srv.Client()
	c := newTestClient(t, srv, func(cfg *Config) { cfg.HTTPClient = external })
	_, err := c.ListResources(context.Background())
	require.NoError(t, err)
	require.NoError(t, c.Close())

	resp, err := external.Get(srv.URL)
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRequestEncodesQueryInOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "usage=SCENE&include_hidden=false&page=2", r.URL.RawQuery)
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		_, _ = io.WriteString(w, `{"ok":true}`)
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	params := Params{}.Add("usage", "SCENE").Add("include_hidden", false).Add("page", 2).Add("skip", nil)
	resp, err := c.Request(context.Background(), http.MethodGet, "/groupactions", params, nil)
	require.NoError(t, err)
	assert.True(t, resp.IsJSON())
	assert.Equal(t, 1, resp.Attempts)
	assert.NotEmpty(t, resp.RequestID)

	var out struct{ OK bool }
	require.NoError(t, resp.Decode(&out))
	assert.True(t, out.OK)
}

func TestRequestSendsForm(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "4", r.PostForm.Get("id"))
		assert.Equal(t, "true", r.PostForm.Get("is_on"))
		w.Header().Set("Content-Type", "text/plain")
		_, _ = io.WriteString(w, " done \n")
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	resp, err := c.Do(context.Background(), &Request{
		Method: http.MethodPost,
		Path:   "set_output",
		Form:   map[string][]string{"id": {"4"}, "is_on": {"true"}},
	})
	require.NoError(t, err)
	assert.False(t, resp.IsJSON())
	assert.Equal(t, "done", resp.Text())
}

func TestRequestDoesNotMutateDescriptor(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	c := newTestClient(t, srv)
	req := &Request{Path: "/resources"}
	_, err := c.Do(context.Background(), req)
	require.NoError(t, err)
	assert.Nil(t, req.Header)
	assert.Empty(t, req.Method)
}
