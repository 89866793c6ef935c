package cloud

import (
	"context"
	"fmt"

	"github.com/evilb/openmotics/internal/models"
)

// ListLights returns the lights of the selected installation.
func (c *Client) ListLights(ctx context.Context, filter string) ([]models.Light, error) {
	path, err := c.scoped("/lights")
	if err != nil {
		return nil, err
	}
	lights, err := list[models.Light](ctx, c, models.LightSchema, path, filterParams(filter))
	if err != nil {
		return nil, fmt.Errorf("list lights: %w", err)
	}
	return lights, nil
}

// GetLight returns a single light.
func (c *Client) GetLight(ctx context.Context, id int) (models.Light, error) {
	if err := checkID("light", id); err != nil {
		return models.Light{}, err
	}
	path, err := c.scoped("/lights/%d", id)
	if err != nil {
		return models.Light{}, err
	}
	light, err := one[models.Light](ctx, c, models.LightSchema, path)
	if err != nil {
		return models.Light{}, fmt.Errorf("get light %d: %w", id, err)
	}
	return light, nil
}

// TurnOnLight switches a light on, optionally at a brightness of 0..100.
func (c *Client) TurnOnLight(ctx context.Context, id int, value *int) error {
	return c.switchItem(ctx, "lights", id, "turn_on", value)
}

// TurnOffLight switches a light off.
func (c *Client) TurnOffLight(ctx context.Context, id int) error {
	return c.switchItem(ctx, "lights", id, "turn_off", nil)
}

// ToggleLight inverts a light.
func (c *Client) ToggleLight(ctx context.Context, id int) error {
	return c.switchItem(ctx, "lights", id, "toggle", nil)
}
