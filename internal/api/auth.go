package api

import (
	"context"
	"net/http"
	"strings"
)

// TokenSource yields a bearer token, refreshing it when needed.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// Invalidator is implemented by token sources that cache tokens. The client
// calls Invalidate when the server rejects a token with 401 or 403.
type Invalidator interface {
	Invalidate()
}

// InvalidateOnReject drops the token cached by src when err is a credential
// rejection from the server. It reports whether src was invalidated.
func InvalidateOnReject(src any, err error) bool {
	apiErr, ok := asError(err)
	if !ok || apiErr.Type != ErrTypeAuth || apiErr.StatusCode == 0 {
		return false
	}
	inv, ok := src.(Invalidator)
	if !ok {
		return false
	}
	inv.Invalidate()
	return true
}

// TokenSourceFunc adapts a function to TokenSource.
type TokenSourceFunc func(ctx context.Context) (string, error)

// Token implements TokenSource.
func (f TokenSourceFunc) Token(ctx context.Context) (string, error) {
	return f(ctx)
}

// StaticToken returns a TokenSource that always yields token.
func StaticToken(token string) TokenSource {
	return TokenSourceFunc(func(context.Context) (string, error) {
		return token, nil
	})
}

// Authenticator decorates a request with credentials before it is sent.
// Implementations must not keep references to req.
type Authenticator interface {
	Authorize(ctx context.Context, req *Request) error
}

// BearerAuth sets an "Authorization: Bearer" header from a token source.
type BearerAuth struct {
	Source TokenSource
}

// Authorize implements Authenticator.
func (b BearerAuth) Authorize(ctx context.Context, req *Request) error {
	if b.Source == nil {
		return NewAuthError(0, "no access token configured", nil)
	}

	token, err := b.Source.Token(ctx)
	if err != nil {
		if IsAuthError(err) {
			return err
		}
		return NewAuthError(0, "failed to obtain access token", err)
	}

	token = strings.TrimSpace(token)
	if token == "" {
		return NewAuthError(0, "no access token configured", nil)
	}

	if req.Header == nil {
		req.Header = make(http.Header)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	return nil
}

// Invalidate implements Invalidator by forwarding to the token source.
func (b BearerAuth) Invalidate() {
	if inv, ok := b.Source.(Invalidator); ok {
		inv.Invalidate()
	}
}

// NoAuth sends requests without credentials. Used for endpoints such as the
// local gateway login action.
type NoAuth struct{}

// Authorize implements Authenticator.
func (NoAuth) Authorize(context.Context, *Request) error { return nil }

func authenticatorFor(cfg Config) Authenticator {
	switch {
	case cfg.Authenticator != nil:
		return cfg.Authenticator
	case cfg.TokenSource != nil:
		return BearerAuth{Source: cfg.TokenSource}
	case strings.TrimSpace(cfg.Token) != "":
		return BearerAuth{Source: StaticToken(cfg.Token)}
	default:
		return BearerAuth{}
	}
}
