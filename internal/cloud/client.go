package cloud

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/evilb/openmotics/internal/api"
	"github.com/evilb/openmotics/internal/urls"
)

// ErrNoInstallation is returned by installation-scoped calls when no
// installation has been selected.
var ErrNoInstallation = errors.New("no installation selected")

// ErrNotFound is returned by lookups by name that match nothing.
var ErrNotFound = errors.New("not found")

// dataKey is the envelope member holding every cloud payload.
const dataKey = "data"

// Client talks to the OpenMotics cloud.
type Client struct {
	api *api.Client

	mu             sync.RWMutex
	installationID int
}

// New wraps an existing API client. installationID may be 0.
func New(apiClient *api.Client, installationID int) *Client {
	return &Client{api: apiClient, installationID: installationID}
}

// Connect builds an API client for the cloud. An empty BaseURL selects the
// public endpoint.
func Connect(cfg api.Config, installationID int) (*Client, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = urls.CloudAPI
	}
	apiClient, err := api.Connect(cfg)
	if err != nil {
		return nil, err
	}
	return New(apiClient, installationID), nil
}

// API exposes the underlying transport.
func (c *Client) API() *api.Client { return c.api }

// Close releases the underlying transport.
func (c *Client) Close() error { return c.api.Close() }

// InstallationID returns the selected installation, or 0.
func (c *Client) InstallationID() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.installationID
}

// SetInstallationID selects the installation used by scoped calls.
func (c *Client) SetInstallationID(id int) {
	c.mu.Lock()
	c.installationID = id
	c.mu.Unlock()
}

// scoped builds "/base/installations/{iid}" + suffix.
func (c *Client) scoped(format string, args ...any) (string, error) {
	iid := c.InstallationID()
	if iid <= 0 {
		return "", ErrNoInstallation
	}
	return fmt.Sprintf("/base/installations/%d", iid) + fmt.Sprintf(format, args...), nil
}

func checkID(kind string, id int) error {
	if id < 0 {
		return fmt.Errorf("%s: %w: %d", kind, api.ErrInvalidID, id)
	}
	return nil
}

func filterParams(filter string) api.Params {
	if filter == "" {
		return nil
	}
	return api.Params{}.Add("filter", filter)
}

// list fetches an envelope holding an array.
func list[T any](ctx context.Context, c *Client, schema *api.Schema, path string, params api.Params) ([]T, error) {
	resp, err := c.api.Get(ctx, path, params)
	if err != nil {
		return nil, err
	}
	return api.DecodeEnvelope[T](schema, resp.Body, dataKey)
}

// one fetches an envelope holding a single object.
func one[T any](ctx context.Context, c *Client, schema *api.Schema, path string) (T, error) {
	resp, err := c.api.Get(ctx, path, nil)
	if err != nil {
		var zero T
		return zero, err
	}
	return api.DecodeEnvelopeObject[T](schema, resp.Body, dataKey)
}

// action posts a command and discards the reply.
func (c *Client) action(ctx context.Context, path string, body any) error {
	_, err := c.api.Post(ctx, path, body)
	return err
}
