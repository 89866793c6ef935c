package cloud

import (
	"context"
	"fmt"

	"github.com/evilb/openmotics/internal/models"
)

// ListSensors returns the sensors of the selected installation.
func (c *Client) ListSensors(ctx context.Context, filter string) ([]models.Sensor, error) {
	path, err := c.scoped("/sensors")
	if err != nil {
		return nil, err
	}
	sensors, err := list[models.Sensor](ctx, c, models.SensorSchema, path, filterParams(filter))
	if err != nil {
		return nil, fmt.Errorf("list sensors: %w", err)
	}
	return sensors, nil
}

// GetSensor returns a single sensor.
func (c *Client) GetSensor(ctx context.Context, id int) (models.Sensor, error) {
	if err := checkID("sensor", id); err != nil {
		return models.Sensor{}, err
	}
	path, err := c.scoped("/sensors/%d", id)
	if err != nil {
		return models.Sensor{}, err
	}
	sensor, err := one[models.Sensor](ctx, c, models.SensorSchema, path)
	if err != nil {
		return models.Sensor{}, fmt.Errorf("get sensor %d: %w", id, err)
	}
	return sensor, nil
}
