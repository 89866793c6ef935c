// Package auth obtains cloud access tokens with the OAuth2 client
// credentials grant and exposes them as an api.TokenSource.
package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/evilb/openmotics/internal/api"
	"github.com/evilb/openmotics/internal/urls"
)

// ErrMissingClientCredentials is returned when the client id or secret is empty.
var ErrMissingClientCredentials = errors.New("client id and client secret are required")

// DefaultScopes returns the scopes requested by default.
func DefaultScopes() []string {
	return []string{"control", "view", "configure"}
}

// TokenURL returns the token endpoint below an API base URL.
func TokenURL(baseURL string) string {
	if baseURL == "" {
		baseURL = urls.CloudAPI
	}
	return strings.TrimRight(baseURL, "/") + urls.CloudTokenPath
}

// ClientCredentials configures the client credentials grant.
type ClientCredentials struct {
	ClientID     string
	ClientSecret string

	// TokenURL defaults to the public cloud endpoint
	TokenURL string

	// Scopes default to DefaultScopes
	Scopes []string

	// HTTPClient is used for token requests (default: http.DefaultClient)
	HTTPClient *http.Client

	// Timeout bounds a single token request (default: api.DefaultTimeout)
	Timeout time.Duration
}

// TokenSource fetches and caches access tokens. It is safe for concurrent use.
type TokenSource struct {
	config  clientcredentials.Config
	client  *http.Client
	timeout time.Duration

	mu    sync.Mutex
	token *oauth2.Token
}

var _ api.TokenSource = (*TokenSource)(nil)

// NewTokenSource validates cc and returns a token source. No request is made
// until the first call to Token.
func NewTokenSource(cc ClientCredentials) (*TokenSource, error) {
	if strings.TrimSpace(cc.ClientID) == "" || strings.TrimSpace(cc.ClientSecret) == "" {
		return nil, api.NewConfigurationError("incomplete OAuth2 client credentials", ErrMissingClientCredentials)
	}
	scopes := cc.Scopes
	if len(scopes) == 0 {
		scopes = DefaultScopes()
	}
	tokenURL := cc.TokenURL
	if tokenURL == "" {
		tokenURL = TokenURL("")
	}
	timeout := cc.Timeout
	if timeout <= 0 {
		timeout = api.DefaultTimeout
	}

	return &TokenSource{
		config: clientcredentials.Config{
			ClientID:     cc.ClientID,
			ClientSecret: cc.ClientSecret,
			TokenURL:     tokenURL,
			Scopes:       scopes,
			AuthStyle:    oauth2.AuthStyleInParams,
		},
		client:  cc.HTTPClient,
		timeout: timeout,
	}, nil
}

// Token returns a valid access token, requesting a new one when the cached
// token is missing or about to expire.
func (s *TokenSource) Token(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.token.Valid() {
		return s.token.AccessToken, nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	if s.client != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, s.client)
	}

	tok, err := s.config.Token(ctx)
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) && retrieveErr.Response != nil {
			authErr := api.NewAuthError(retrieveErr.Response.StatusCode, "token request rejected", err)
			authErr.Body = retrieveErr.Body
			return "", authErr
		}
		return "", api.NewAuthError(0, "token request failed", err)
	}

	s.token = tok
	return tok.AccessToken, nil
}

// Invalidate drops the cached token so the next call fetches a new one.
func (s *TokenSource) Invalidate() {
	s.mu.Lock()
	s.token = nil
	s.mu.Unlock()
}

// Expiry returns when the cached token expires, or the zero time.
func (s *TokenSource) Expiry() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.token == nil {
		return time.Time{}
	}
	return s.token.Expiry
}
