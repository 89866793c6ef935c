package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evilb/openmotics/internal/api"
)

func tokenServer(t *testing.T, hits *atomic.Int32, status int, expiresIn int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := hits.Add(1)
		assert.Equal(t, "/api/v1.1/authentication/oauth2/token", r.URL.Path)
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "client_credentials", r.PostForm.Get("grant_type"))
		assert.Equal(t, "my-id", r.PostForm.Get("client_id"))
		assert.Equal(t, "my-secret", r.PostForm.Get("client_secret"))
		assert.Equal(t, "control view configure", r.PostForm.Get("scope"))

		w.Header().Set("Content-Type", "application/json")
		if status != http.StatusOK {
			w.WriteHeader(status)
			_, _ = w.Write([]byte(`{"error":"invalid_client"}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token": fmt.Sprintf("access-%d", n),
			"token_type":   "Bearer",
			"expires_in":   expiresIn,
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestTokenURL(t *testing.T) {
	assert.Equal(t, "https://cloud.openmotics.com/api/v1.1/authentication/oauth2/token", TokenURL(""))
	assert.Equal(t, "http://x/api/authentication/oauth2/token", TokenURL("http://x/api/"))
}

func TestNewTokenSourceRequiresCredentials(t *testing.T) {
	_, err := NewTokenSource(ClientCredentials{ClientID: "id"})
	require.Error(t, err)
	assert.True(t, api.IsConfigurationError(err))
	assert.ErrorIs(t, err, ErrMissingClientCredentials)
}

func TestTokenIsCachedUntilExpiry(t *testing.T) {
	var hits atomic.Int32
	srv := tokenServer(t, &hits, http.StatusOK, 3600)

	ts, err := NewTokenSource(ClientCredentials{
		ClientID:     "my-id",
		ClientSecret: "my-secret",
		TokenURL:     TokenURL(srv.URL + "/api/v1.1"),
		HTTPClient:   srv.Client(),
	})
	require.NoError(t, err)

	for range 3 {
		tok, err := ts.Token(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "access-1", tok)
	}
	assert.Equal(t, int32(1), hits.Load())
	assert.False(t, ts.Expiry().IsZero())

	ts.Invalidate()
	tok, err := ts.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "access-2", tok)
}

func TestRejectedCredentialsAreAuthErrors(t *testing.T) {
	var hits atomic.Int32
	srv := tokenServer(t, &hits, http.StatusUnauthorized, 0)

	ts, err := NewTokenSource(ClientCredentials{
		ClientID:     "my-id",
		ClientSecret: "my-secret",
		TokenURL:     TokenURL(srv.URL + "/api/v1.1"),
	})
	require.NoError(t, err)

	_, err = ts.Token(context.Background())
	require.Error(t, err)
	assert.True(t, api.IsAuthError(err))
	assert.Equal(t, http.StatusUnauthorized, api.StatusCode(err))
}

func TestTokenSourceDrivesAPIClient(t *testing.T) {
	var hits atomic.Int32
	tokenSrv := tokenServer(t, &hits, http.StatusOK, 3600)

	apiSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer access-1", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"resources":[]}`))
	}))
	defer apiSrv.Close()

	ts, err := NewTokenSource(ClientCredentials{
		ClientID:     "my-id",
		ClientSecret: "my-secret",
		TokenURL:     TokenURL(tokenSrv.URL + "/api/v1.1"),
	})
	require.NoError(t, err)

	client, err := api.Connect(api.Config{BaseURL: apiSrv.URL, TokenSource: ts})
	require.NoError(t, err)
	defer client.Close()

	_, err = client.ListResources(context.Background())
	require.NoError(t, err)
	_, err = client.ListResources(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(1), hits.Load())
}

func TestRejectedTokenIsRefetchedOnNextCall(t *testing.T) {
	var hits atomic.Int32
	tokenSrv := tokenServer(t, &hits, http.StatusOK, 3600)

	apiSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// the first token was revoked server side
		if r.Header.Get("Authorization") == "Bearer access-1" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		assert.Equal(t, "Bearer access-2", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"resources":[]}`))
	}))
	defer apiSrv.Close()

	ts, err := NewTokenSource(ClientCredentials{
		ClientID:     "my-id",
		ClientSecret: "my-secret",
		TokenURL:     TokenURL(tokenSrv.URL + "/api/v1.1"),
	})
	require.NoError(t, err)

	client, err := api.Connect(api.Config{BaseURL: apiSrv.URL, TokenSource: ts})
	require.NoError(t, err)
	defer client.Close()

	_, err = client.ListResources(context.Background())
	require.Error(t, err)
	assert.True(t, api.IsAuthError(err))
	assert.True(t, ts.Expiry().IsZero(), "rejected token must be dropped")

	_, err = client.ListResources(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(2), hits.Load())
}
