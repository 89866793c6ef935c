package events

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/evilb/openmotics/internal/api"
	"github.com/evilb/openmotics/internal/cloud"
	"github.com/evilb/openmotics/internal/logging"
	"github.com/evilb/openmotics/internal/urls"
	"github.com/evilb/openmotics/internal/version"
)

const (
	// DefaultPingInterval is how often a keepalive ping is written.
	DefaultPingInterval = 30 * time.Second
	// DefaultPongWait is how long a silent connection is kept before it is dropped.
	DefaultPongWait = 60 * time.Second
	// DefaultBufferSize is the capacity of the events channel.
	DefaultBufferSize = 64
	// DefaultReconnectDelay is the first reconnect backoff step.
	DefaultReconnectDelay = time.Second
	// DefaultMaxReconnect caps the reconnect backoff.
	DefaultMaxReconnect = time.Minute

	writeWait = 10 * time.Second
)

// ErrStreamClosed is reported by Err after Close.
var ErrStreamClosed = errors.New("event stream closed")

// Config describes an event subscription.
type Config struct {
	// URL defaults to the public cloud websocket
	URL string

	Token       string
	TokenSource api.TokenSource

	// Types defaults to every change type
	Types           []string
	InstallationIDs []int

	PingInterval time.Duration
	PongWait     time.Duration
	BufferSize   int

	// ReconnectDelay is the first wait after a dropped connection; it doubles up to MaxReconnectDelay
	ReconnectDelay    time.Duration
	MaxReconnectDelay time.Duration

	Dialer *websocket.Dialer
	Logger *zap.Logger
}

func (c *Config) setDefaults() {
	if c.URL == "" {
		c.URL = urls.CloudEvents
	}
	if len(c.Types) == 0 {
		c.Types = cloud.DefaultEventTypes
	}
	if c.PingInterval <= 0 {
		c.PingInterval = DefaultPingInterval
	}
	if c.PongWait <= 0 {
		c.PongWait = DefaultPongWait
	}
	if c.BufferSize <= 0 {
		c.BufferSize = DefaultBufferSize
	}
	if c.ReconnectDelay <= 0 {
		c.ReconnectDelay = DefaultReconnectDelay
	}
	if c.MaxReconnectDelay < c.ReconnectDelay {
		c.MaxReconnectDelay = max(DefaultMaxReconnect, c.ReconnectDelay)
	}
	if c.Dialer == nil {
		c.Dialer = websocket.DefaultDialer
	}
	if c.Logger == nil {
		c.Logger = logging.GetLogger()
	}
	if c.TokenSource == nil && c.Token != "" {
		c.TokenSource = api.StaticToken(c.Token)
	}
}

// Stream is a live subscription.
type Stream struct {
	cfg    Config
	events chan Event

	cancel context.CancelFunc
	done   chan struct{}

	mu          sync.Mutex
	err         error
	connections int
}

// Dial connects and subscribes. The first connection is made synchronously so
// configuration and credential problems surface here.
func Dial(ctx context.Context, cfg Config) (*Stream, error) {
	cfg.setDefaults()
	if len(cfg.InstallationIDs) == 0 {
		return nil, api.NewConfigurationError("at least one installation id is required", cloud.ErrNoInstallation)
	}

	s := &Stream{
		cfg:    cfg,
		events: make(chan Event, cfg.BufferSize),
		done:   make(chan struct{}),
	}

	conn, err := s.connect(ctx)
	if err != nil {
		return nil, err
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.cancel = cancel
	stop := context.AfterFunc(ctx, cancel)
	go func() {
		defer stop()
		s.run(runCtx, conn)
	}()
	return s, nil
}

// Events delivers change events. The channel is closed when the stream ends.
func (s *Stream) Events() <-chan Event { return s.events }

// Done is closed when the stream has ended.
func (s *Stream) Done() <-chan struct{} { return s.done }

// Err returns the reason the stream ended, or nil while it is running.
func (s *Stream) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Connections returns how many times the stream has connected.
func (s *Stream) Connections() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.connections
}

// Close ends the stream and waits for it to shut down. It is idempotent.
func (s *Stream) Close() error {
	s.cancel()
	<-s.done
	return nil
}

func (s *Stream) setErr(err error) {
	s.mu.Lock()
	if s.err == nil {
		s.err = err
	}
	s.mu.Unlock()
}

// connect dials the websocket and sends the subscription.
func (s *Stream) connect(ctx context.Context) (*websocket.Conn, error) {
	header := http.Header{}
	header.Set("User-Agent", version.UserAgent())
	if s.cfg.TokenSource != nil {
		token, err := s.cfg.TokenSource.Token(ctx)
		if err != nil {
			if api.IsAuthError(err) {
				return nil, err
			}
			return nil, api.NewAuthError(0, "failed to obtain access token", err)
		}
		if token == "" {
			return nil, api.NewAuthError(0, "no access token configured", nil)
		}
		header.Set("Authorization", "Bearer "+token)
	} else {
		return nil, api.NewAuthError(0, "no access token configured", nil)
	}

	conn, resp, err := s.cfg.Dialer.DialContext(ctx, s.cfg.URL, header)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		if resp != nil && (resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden) {
			authErr := api.NewAuthError(resp.StatusCode, "event stream rejected the credentials", err)
			api.InvalidateOnReject(s.cfg.TokenSource, authErr)
			return nil, authErr
		}
		if ctx.Err() != nil {
			return nil, api.NewNetworkError("event stream dial cancelled", ctx.Err())
		}
		return nil, api.NewNetworkError("failed to connect to the event stream", err)
	}

	sub := cloud.NewSubscriptionAction(cloud.Subscription{
		Types:           s.cfg.Types,
		InstallationIDs: s.cfg.InstallationIDs,
	})
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteJSON(sub); err != nil {
		_ = conn.Close()
		return nil, api.NewNetworkError("failed to send subscription", err)
	}
	_ = conn.SetWriteDeadline(time.Time{})

	s.mu.Lock()
	s.connections++
	s.mu.Unlock()
	s.cfg.Logger.Info("event stream connected",
		zap.String("url", s.cfg.URL),
		zap.Ints("installations", s.cfg.InstallationIDs))
	return conn, nil
}

func (s *Stream) run(ctx context.Context, conn *websocket.Conn) {
	defer close(s.done)
	defer close(s.events)

	for {
		err := s.readLoop(ctx, conn)
		_ = conn.Close()

		if ctx.Err() != nil {
			s.setErr(ErrStreamClosed)
			return
		}
		s.cfg.Logger.Warn("event stream dropped, reconnecting", zap.Error(err))

		conn, err = s.reconnect(ctx)
		if err != nil {
			if ctx.Err() != nil {
				err = ErrStreamClosed
			}
			s.setErr(err)
			return
		}
	}
}

// reconnect dials until it succeeds, the context ends or credentials are rejected.
func (s *Stream) reconnect(ctx context.Context) (*websocket.Conn, error) {
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = s.cfg.ReconnectDelay
	eb.MaxInterval = s.cfg.MaxReconnectDelay
	eb.MaxElapsedTime = 0
	eb.Reset()

	var conn *websocket.Conn
	operation := func() error {
		c, err := s.connect(ctx)
		if err != nil {
			if api.IsAuthError(err) {
				return backoff.Permanent(err)
			}
			return err
		}
		conn = c
		return nil
	}
	notify := func(err error, wait time.Duration) {
		s.cfg.Logger.Debug("event stream reconnect failed", zap.Error(err), zap.Duration("retry_in", wait))
	}
	if err := backoff.RetryNotify(operation, backoff.WithContext(eb, ctx), notify); err != nil {
		return nil, err
	}
	return conn, nil
}

// readLoop delivers messages until the connection fails or ctx ends.
func (s *Stream) readLoop(ctx context.Context, conn *websocket.Conn) error {
	stopClose := context.AfterFunc(ctx, func() {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
		_ = conn.Close()
	})
	defer stopClose()

	_ = conn.SetReadDeadline(time.Now().Add(s.cfg.PongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(s.cfg.PongWait))
	})

	pingDone := make(chan struct{})
	defer close(pingDone)
	go func() {
		ticker := time.NewTicker(s.cfg.PingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-pingDone:
				return
			case <-ticker.C:
				if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
					return
				}
			}
		}
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		_ = conn.SetReadDeadline(time.Now().Add(s.cfg.PongWait))

		ev, err := ParseEvent(data)
		if err != nil {
			s.cfg.Logger.Debug("ignoring malformed event", zap.Error(err))
			continue
		}
		logging.LogEvent(s.cfg.Logger, ev.Type, ev.ID, ev.InstallationID)

		select {
		case s.events <- ev:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
