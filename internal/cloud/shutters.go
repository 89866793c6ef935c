package cloud

import (
	"context"
	"fmt"

	"github.com/evilb/openmotics/internal/models"
)

// ListShutters returns the shutters of the selected installation.
func (c *Client) ListShutters(ctx context.Context, filter string) ([]models.Shutter, error) {
	path, err := c.scoped("/shutters")
	if err != nil {
		return nil, err
	}
	shutters, err := list[models.Shutter](ctx, c, models.ShutterSchema, path, filterParams(filter))
	if err != nil {
		return nil, fmt.Errorf("list shutters: %w", err)
	}
	return shutters, nil
}

// GetShutter returns a single shutter.
func (c *Client) GetShutter(ctx context.Context, id int) (models.Shutter, error) {
	if err := checkID("shutter", id); err != nil {
		return models.Shutter{}, err
	}
	path, err := c.scoped("/shutters/%d", id)
	if err != nil {
		return models.Shutter{}, err
	}
	shutter, err := one[models.Shutter](ctx, c, models.ShutterSchema, path)
	if err != nil {
		return models.Shutter{}, fmt.Errorf("get shutter %d: %w", id, err)
	}
	return shutter, nil
}

// ShutterUp opens a shutter.
func (c *Client) ShutterUp(ctx context.Context, id int) error {
	return c.shutterAction(ctx, id, "up", nil)
}

// ShutterDown closes a shutter.
func (c *Client) ShutterDown(ctx context.Context, id int) error {
	return c.shutterAction(ctx, id, "down", nil)
}

// ShutterStop halts a moving shutter.
func (c *Client) ShutterStop(ctx context.Context, id int) error {
	return c.shutterAction(ctx, id, "stop", nil)
}

// ShutterPosition moves a shutter to position (0 = fully up).
func (c *Client) ShutterPosition(ctx context.Context, id, position int) error {
	if position < 0 {
		return fmt.Errorf("shutter %d: %w: position %d", id, models.ErrInvalidValue, position)
	}
	return c.shutterAction(ctx, id, "change_position", map[string]int{"position": position})
}

// LockShutter locks or unlocks a shutter against manual control.
func (c *Client) LockShutter(ctx context.Context, id int, locked bool) error {
	return c.shutterAction(ctx, id, "lock_change", map[string]bool{"locked": locked})
}

func (c *Client) shutterAction(ctx context.Context, id int, verb string, body any) error {
	if err := checkID("shutter", id); err != nil {
		return err
	}
	path, err := c.scoped("/shutters/%d/%s", id, verb)
	if err != nil {
		return err
	}
	if err := c.action(ctx, path, body); err != nil {
		return fmt.Errorf("shutter %d %s: %w", id, verb, err)
	}
	return nil
}
