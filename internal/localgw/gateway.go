package localgw

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/evilb/openmotics/internal/api"
	"github.com/evilb/openmotics/internal/logging"
)

const (
	// DefaultPort is the HTTPS port of the gateway API
	DefaultPort = 443

	// DefaultCacheDuration is how long configuration lists are reused
	DefaultCacheDuration = 30 * time.Second

	loginAction = "login"
)

var (
	// ErrNoCredentials is returned when login is attempted without a username or password
	ErrNoCredentials = errors.New("gateway username and password are required")
	// ErrNotFound is returned when an id is not configured on the gateway
	ErrNotFound = errors.New("not found")
)

// Config describes how to reach a gateway.
type Config struct {
	Host string
	// Port defaults to 443
	Port int
	// PlainHTTP disables TLS. Gateways only speak HTTPS; this is for test rigs.
	PlainHTTP bool
	// InsecureSkipVerify accepts the gateway's self-signed certificate
	InsecureSkipVerify bool

	Username string
	Password string

	Timeout    time.Duration
	Retry      *api.RetryPolicy
	HTTPClient *http.Client
	UserAgent  string
	Logger     *zap.Logger

	// CacheDuration controls reuse of configuration lists (0 = DefaultCacheDuration, <0 = no cache)
	CacheDuration time.Duration
}

// BaseURL returns scheme://host:port for cfg.
func (c Config) BaseURL() string {
	scheme := "https"
	if c.PlainHTTP {
		scheme = "http"
	}
	port := c.Port
	if port == 0 {
		port = DefaultPort
	}
	return (&url.URL{Scheme: scheme, Host: net.JoinHostPort(strings.TrimSpace(c.Host), strconv.Itoa(port))}).String()
}

// Gateway is a client for one local gateway. It is safe for concurrent use.
type Gateway struct {
	api      *api.Client
	username string
	password string
	logger   *zap.Logger
	cacheTTL time.Duration

	tokenMu sync.RWMutex
	token   string

	// loginMu serializes logins so concurrent callers share one token
	loginMu sync.Mutex

	cacheMu       sync.RWMutex
	outputConfigs cached
	sensorConfigs cached
}

// cached is a configuration payload and the time it was fetched.
type cached struct {
	data      json.RawMessage
	fetchedAt time.Time
}

// New validates cfg and returns a gateway client. No I/O is performed.
func New(cfg Config) (*Gateway, error) {
	if strings.TrimSpace(cfg.Host) == "" {
		return nil, api.NewConfigurationError("gateway host is required", nil)
	}

	g := &Gateway{
		username: cfg.Username,
		password: cfg.Password,
		logger:   cfg.Logger,
		cacheTTL: cfg.CacheDuration,
	}
	if g.logger == nil {
		g.logger = logging.GetLogger()
	}
	if g.cacheTTL == 0 {
		g.cacheTTL = DefaultCacheDuration
	}

	var tlsConfig *tls.Config
	if cfg.InsecureSkipVerify {
		tlsConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // gateways ship self-signed certificates
	}

	client, err := api.Connect(api.Config{
		BaseURL:       cfg.BaseURL(),
		Authenticator: g,
		Timeout:       cfg.Timeout,
		HTTPClient:    cfg.HTTPClient,
		TLSConfig:     tlsConfig,
		Retry:         cfg.Retry,
		UserAgent:     cfg.UserAgent,
		Logger:        g.logger,
	})
	if err != nil {
		return nil, err
	}
	g.api = client
	return g, nil
}

// BaseURL returns the gateway root URL.
func (g *Gateway) BaseURL() string { return g.api.BaseURL() }

// Close releases the underlying transport.
func (g *Gateway) Close() error { return g.api.Close() }

// Token returns the current session token, or "".
func (g *Gateway) Token() string {
	g.tokenMu.RLock()
	defer g.tokenMu.RUnlock()
	return g.token
}

func (g *Gateway) setToken(token string) {
	g.tokenMu.Lock()
	g.token = token
	g.tokenMu.Unlock()
}

// Authorize implements api.Authenticator by adding the session token to the form.
func (g *Gateway) Authorize(_ context.Context, req *api.Request) error {
	if strings.Trim(req.Path, "/") == loginAction {
		return nil
	}
	token := g.Token()
	if token == "" {
		return api.NewAuthError(0, "not logged in to the gateway", nil)
	}
	if req.Form == nil {
		req.Form = url.Values{}
	}
	req.Form.Set("token", token)
	return nil
}

type loginResponse struct {
	Success bool   `json:"success"`
	Token   string `json:"token"`
	Msg     string `json:"msg"`
}

// Login exchanges the configured credentials for a session token.
func (g *Gateway) Login(ctx context.Context) error {
	return g.login(ctx, "")
}

// login obtains a new token unless another caller already replaced stale.
func (g *Gateway) login(ctx context.Context, stale string) error {
	g.loginMu.Lock()
	defer g.loginMu.Unlock()

	if current := g.Token(); current != "" && current != stale {
		return nil
	}
	if g.username == "" || g.password == "" {
		return api.NewAuthError(0, "cannot log in to the gateway", ErrNoCredentials)
	}

	resp, err := g.api.Do(ctx, &api.Request{
		Method: http.MethodPost,
		Path:   loginAction,
		Form:   url.Values{"username": {g.username}, "password": {g.password}},
	})
	if err != nil {
		return fmt.Errorf("gateway login: %w", err)
	}

	var lr loginResponse
	if err := resp.Decode(&lr); err != nil {
		return fmt.Errorf("gateway login: %w", err)
	}
	if lr.Token == "" {
		msg := lr.Msg
		if msg == "" {
			msg = "no token in login response"
		}
		return api.NewAuthError(resp.StatusCode, msg, nil)
	}

	g.setToken(lr.Token)
	g.logger.Debug("logged in to gateway", zap.String("gateway", g.api.BaseURL()))
	return nil
}

// Logout forgets the session token.
func (g *Gateway) Logout() { g.setToken("") }

type actionResult struct {
	Success *bool  `json:"success"`
	Msg     string `json:"msg"`
}

// ExecAction runs a gateway action and returns its JSON reply. The client
// logs in first when needed and retries once with a fresh token when the
// gateway rejects the current one.
func (g *Gateway) ExecAction(ctx context.Context, action string, form url.Values) (json.RawMessage, error) {
	token := g.Token()
	if token == "" {
		if err := g.login(ctx, ""); err != nil {
			return nil, err
		}
		token = g.Token()
	}

	body, err := g.exec(ctx, action, form)
	if api.IsAuthError(err) && api.StatusCode(err) != 0 {
		g.logger.Debug("gateway token rejected, logging in again", zap.String("action", action))
		if err := g.login(ctx, token); err != nil {
			return nil, err
		}
		body, err = g.exec(ctx, action, form)
	}
	if err != nil {
		return nil, fmt.Errorf("gateway action %s: %w", action, err)
	}
	return body, nil
}

func (g *Gateway) exec(ctx context.Context, action string, form url.Values) (json.RawMessage, error) {
	resp, err := g.api.Do(ctx, &api.Request{Method: http.MethodPost, Path: action, Form: form})
	if err != nil {
		return nil, err
	}

	var result actionResult
	if err := resp.Decode(&result); err != nil {
		return nil, err
	}
	if result.Success != nil && !*result.Success {
		msg := result.Msg
		if msg == "" {
			msg = "action failed"
		}
		if strings.Contains(msg, "invalid_token") {
			return nil, api.NewAuthError(http.StatusUnauthorized, msg, nil)
		}
		return nil, &api.Error{
			Type:       api.ErrTypeAPI,
			Message:    msg,
			StatusCode: resp.StatusCode,
			Body:       resp.Body,
		}
	}
	return resp.Body, nil
}

// cachedAction returns the reply of a configuration action, reusing it for
// the cache duration.
func (g *Gateway) cachedAction(ctx context.Context, action string, slot *cached) (json.RawMessage, error) {
	if g.cacheTTL > 0 {
		g.cacheMu.RLock()
		if slot.data != nil && time.Since(slot.fetchedAt) < g.cacheTTL {
			data := slot.data
			g.cacheMu.RUnlock()
			return data, nil
		}
		g.cacheMu.RUnlock()
	}

	data, err := g.ExecAction(ctx, action, nil)
	if err != nil {
		return nil, err
	}

	if g.cacheTTL > 0 {
		g.cacheMu.Lock()
		*slot = cached{data: data, fetchedAt: time.Now()}
		g.cacheMu.Unlock()
	}
	return data, nil
}

// InvalidateCache drops cached configuration lists.
func (g *Gateway) InvalidateCache() {
	g.cacheMu.Lock()
	g.outputConfigs = cached{}
	g.sensorConfigs = cached{}
	g.cacheMu.Unlock()
}

// FirmwareVersion describes the gateway firmware.
type FirmwareVersion struct {
	Version string `json:"version"`
	Gateway string `json:"gateway,omitempty"`
}

// Version returns the firmware version reported by get_version.
func (g *Gateway) Version(ctx context.Context) (FirmwareVersion, error) {
	data, err := g.ExecAction(ctx, "get_version", nil)
	if err != nil {
		return FirmwareVersion{}, err
	}
	return api.DecodeObject[FirmwareVersion](versionSchema, data)
}

var versionSchema = &api.Schema{
	Name: "Version",
	Fields: []api.Field{
		{Name: "version", Kind: api.KindString, Required: true},
		{Name: "gateway", Kind: api.KindString, Nullable: true},
	},
}
