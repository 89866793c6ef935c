package api

import (
	"crypto/tls"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	// DefaultTimeout is the per-attempt request deadline
	DefaultTimeout = 8 * time.Second

	// DefaultMaxIdleConnsPerHost bounds the pooled connections of an owned transport
	DefaultMaxIdleConnsPerHost = 10
)

// Config describes a client session.
type Config struct {
	// BaseURL is the API root, e.g. "https://cloud.openmotics.com/api/v1.1"
	BaseURL string

	// Token is a static bearer token
	Token string

	// TokenSource, when set, is asked for a token before every call and takes
	// precedence over Token
	TokenSource TokenSource

	// Authenticator replaces bearer authentication entirely
	Authenticator Authenticator

	// Timeout is the deadline of a single attempt (default: 8s)
	Timeout time.Duration

	// HTTPClient is an externally owned session. It is never closed by the client.
	HTTPClient *http.Client

	// TLSConfig is used by the owned transport only
	TLSConfig *tls.Config

	// Retry controls retries of transient failures (default: DefaultRetryPolicy)
	Retry *RetryPolicy

	// UserAgent overrides the User-Agent header
	UserAgent string

	// Logger receives request tracing (default: no-op)
	Logger *zap.Logger
}

// parseBaseURL validates the base URL and strips any trailing slash.
func parseBaseURL(raw string) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, NewConfigurationError("base URL is required", nil)
	}

	u, err := url.Parse(raw)
	if err != nil {
		return nil, NewConfigurationError("invalid base URL", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, NewConfigurationError("base URL must use http or https, got "+strings.TrimSpace(u.Scheme), nil)
	}
	if u.Host == "" {
		return nil, NewConfigurationError("base URL has no host", nil)
	}
	if u.RawQuery != "" || u.Fragment != "" {
		return nil, NewConfigurationError("base URL must not carry a query or fragment", nil)
	}

	u.Path = strings.TrimRight(u.Path, "/")
	u.RawPath = ""
	return u, nil
}

func newOwnedHTTPClient(tlsConfig *tls.Config) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.MaxIdleConnsPerHost = DefaultMaxIdleConnsPerHost
	if tlsConfig != nil {
		transport.TLSClientConfig = tlsConfig
	}
	return &http.Client{Transport: transport}
}
