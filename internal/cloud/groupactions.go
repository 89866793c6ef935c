package cloud

import (
	"context"
	"fmt"
	"strings"

	"github.com/evilb/openmotics/internal/api"
	"github.com/evilb/openmotics/internal/models"
)

// ListGroupActions returns the group actions of the selected installation.
// usage, when set, is passed to the server filter (e.g. "SCENE").
func (c *Client) ListGroupActions(ctx context.Context, usage string) ([]models.GroupAction, error) {
	path, err := c.scoped("/groupactions")
	if err != nil {
		return nil, err
	}
	var params api.Params
	if usage != "" {
		params = params.Add("usage", strings.ToUpper(usage))
	}
	actions, err := list[models.GroupAction](ctx, c, models.GroupActionSchema, path, params)
	if err != nil {
		return nil, fmt.Errorf("list group actions: %w", err)
	}
	return actions, nil
}

// GetGroupAction returns a single group action.
func (c *Client) GetGroupAction(ctx context.Context, id int) (models.GroupAction, error) {
	if err := checkID("group action", id); err != nil {
		return models.GroupAction{}, err
	}
	path, err := c.scoped("/groupactions/%d", id)
	if err != nil {
		return models.GroupAction{}, err
	}
	ga, err := one[models.GroupAction](ctx, c, models.GroupActionSchema, path)
	if err != nil {
		return models.GroupAction{}, fmt.Errorf("get group action %d: %w", id, err)
	}
	return ga, nil
}

// TriggerGroupAction runs a group action.
func (c *Client) TriggerGroupAction(ctx context.Context, id int) error {
	if err := checkID("group action", id); err != nil {
		return err
	}
	path, err := c.scoped("/groupactions/%d/trigger", id)
	if err != nil {
		return err
	}
	if err := c.action(ctx, path, nil); err != nil {
		return fmt.Errorf("trigger group action %d: %w", id, err)
	}
	return nil
}

// GroupActionsByUsage is ListGroupActions with a mandatory usage.
func (c *Client) GroupActionsByUsage(ctx context.Context, usage string) ([]models.GroupAction, error) {
	if strings.TrimSpace(usage) == "" {
		return nil, fmt.Errorf("group actions by usage: %w: empty usage", models.ErrInvalidValue)
	}
	return c.ListGroupActions(ctx, usage)
}

// Scenes returns the group actions intended as scenes.
func (c *Client) Scenes(ctx context.Context) ([]models.GroupAction, error) {
	return c.ListGroupActions(ctx, models.UsageScene)
}
