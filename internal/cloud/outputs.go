package cloud

import (
	"context"
	"fmt"

	"github.com/evilb/openmotics/internal/models"
)

// ListOutputs returns the outputs of the selected installation.
func (c *Client) ListOutputs(ctx context.Context, filter string) ([]models.Output, error) {
	path, err := c.scoped("/outputs")
	if err != nil {
		return nil, err
	}
	outputs, err := list[models.Output](ctx, c, models.OutputSchema, path, filterParams(filter))
	if err != nil {
		return nil, fmt.Errorf("list outputs: %w", err)
	}
	return outputs, nil
}

// GetOutput returns a single output.
func (c *Client) GetOutput(ctx context.Context, id int) (models.Output, error) {
	if err := checkID("output", id); err != nil {
		return models.Output{}, err
	}
	path, err := c.scoped("/outputs/%d", id)
	if err != nil {
		return models.Output{}, err
	}
	out, err := one[models.Output](ctx, c, models.OutputSchema, path)
	if err != nil {
		return models.Output{}, fmt.Errorf("get output %d: %w", id, err)
	}
	return out, nil
}

// TurnOnOutput switches an output on. value, when not nil, sets the dimmer
// level and is clamped to 0..100.
func (c *Client) TurnOnOutput(ctx context.Context, id int, value *int) error {
	return c.switchItem(ctx, "outputs", id, "turn_on", value)
}

// TurnOffOutput switches an output off.
func (c *Client) TurnOffOutput(ctx context.Context, id int) error {
	return c.switchItem(ctx, "outputs", id, "turn_off", nil)
}

// ToggleOutput inverts an output.
func (c *Client) ToggleOutput(ctx context.Context, id int) error {
	return c.switchItem(ctx, "outputs", id, "toggle", nil)
}

// switchItem posts turn_on/turn_off/toggle for outputs and lights.
func (c *Client) switchItem(ctx context.Context, kind string, id int, verb string, value *int) error {
	if err := checkID(kind, id); err != nil {
		return err
	}
	path, err := c.scoped("/%s/%d/%s", kind, id, verb)
	if err != nil {
		return err
	}
	var body any
	if value != nil {
		body = map[string]int{"value": models.ClampDimmer(*value)}
	}
	if err := c.action(ctx, path, body); err != nil {
		return fmt.Errorf("%s %d %s: %w", kind, id, verb, err)
	}
	return nil
}
