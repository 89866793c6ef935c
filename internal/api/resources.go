package api

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidID is returned for negative resource identifiers
	ErrInvalidID = errors.New("invalid resource id")
	// ErrEmptyState is returned when SetResourceState is called without a state
	ErrEmptyState = errors.New("state must not be empty")
	// ErrInvalidArgument marks a malformed command-line argument
	ErrInvalidArgument = errors.New("invalid argument")
)

// Resource is a generic controllable item exposed under /resources.
type Resource struct {
	ID    int    `json:"id"`
	Name  string `json:"name"`
	Type  string `json:"type,omitempty"`
	State string `json:"state,omitempty"`
}

// StateResult is the acknowledgement of a state change.
type StateResult struct {
	Status string `json:"status"`
}

// OK reports whether the server accepted the change.
func (r StateResult) OK() bool { return strings.EqualFold(r.Status, "ok") }

var (
	// ResourceSchema validates a single resource object.
	ResourceSchema = &Schema{
		Name: "Resource",
		Fields: []Field{
			{Name: "id", Kind: KindInteger, Required: true},
			{Name: "name", Kind: KindString, Required: true},
			{Name: "type", Kind: KindString, Nullable: true},
			{Name: "state", Kind: KindString, Nullable: true},
		},
	}

	// StateResultSchema validates the reply to a state change.
	StateResultSchema = &Schema{
		Name: "StateResult",
		Fields: []Field{
			{Name: "status", Kind: KindString, Required: true},
		},
	}
)

// ListResources fetches every resource.
func (c *Client) ListResources(ctx context.Context) ([]Resource, error) {
	resp, err := c.Get(ctx, "/resources", nil)
	if err != nil {
		return nil, err
	}
	return DecodeEnvelope[Resource](ResourceSchema, resp.Body, "resources")
}

// GetResource fetches a single resource.
func (c *Client) GetResource(ctx context.Context, id int) (Resource, error) {
	if id < 0 {
		return Resource{}, fmt.Errorf("%w: %d", ErrInvalidID, id)
	}
	resp, err := c.Get(ctx, fmt.Sprintf("/resources/%d", id), nil)
	if err != nil {
		return Resource{}, err
	}
	return DecodeObject[Resource](ResourceSchema, resp.Body)
}

// SetResourceState asks the server to move a resource into state.
func (c *Client) SetResourceState(ctx context.Context, id int, state string) (StateResult, error) {
	if id < 0 {
		return StateResult{}, fmt.Errorf("%w: %d", ErrInvalidID, id)
	}
	if strings.TrimSpace(state) == "" {
		return StateResult{}, ErrEmptyState
	}
	resp, err := c.Post(ctx, fmt.Sprintf("/resources/%d/state", id), map[string]string{"state": state})
	if err != nil {
		return StateResult{}, err
	}
	return DecodeObject[StateResult](StateResultSchema, resp.Body)
}
