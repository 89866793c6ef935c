package localgw

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/evilb/openmotics/internal/api"
	"github.com/evilb/openmotics/internal/models"
)

var localSensorConfigSchema = &api.Schema{
	Name: "SensorConfiguration",
	Fields: []api.Field{
		{Name: "id", Kind: api.KindInteger, Required: true},
		{Name: "name", Kind: api.KindString, Nullable: true},
		{Name: "room", Kind: api.KindInteger, Nullable: true},
		{Name: "offset", Kind: api.KindNumber, Nullable: true},
	},
}

// readings fetches one of the sensor status lists.
func (g *Gateway) readings(ctx context.Context, action string) ([]*float64, error) {
	data, err := g.ExecAction(ctx, action, nil)
	if err != nil {
		return nil, err
	}
	inner, err := api.Envelope(data, "status")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", action, err)
	}
	var values []*float64
	if err := json.Unmarshal(inner, &values); err != nil {
		return nil, api.NewValidationError("status", action+": expected a list of numbers", err)
	}
	return values, nil
}

// ListSensors returns every configured sensor with its latest readings.
func (g *Gateway) ListSensors(ctx context.Context) ([]models.Sensor, error) {
	cfgData, err := g.cachedAction(ctx, "get_sensor_configurations", &g.sensorConfigs)
	if err != nil {
		return nil, err
	}
	configs, err := api.DecodeEnvelope[models.LocalSensorConfig](localSensorConfigSchema, cfgData, "config")
	if err != nil {
		return nil, fmt.Errorf("sensor configurations: %w", err)
	}

	var r models.LocalSensorReadings
	if r.Temperature, err = g.readings(ctx, "get_sensor_temperature_status"); err != nil {
		return nil, err
	}
	if r.Humidity, err = g.readings(ctx, "get_sensor_humidity_status"); err != nil {
		return nil, err
	}
	if r.Brightness, err = g.readings(ctx, "get_sensor_brightness_status"); err != nil {
		return nil, err
	}

	sensors := make([]models.Sensor, 0, len(configs))
	for _, cfg := range configs {
		sensors = append(sensors, models.SensorFromLocal(cfg, r))
	}
	return sensors, nil
}

// GetSensor returns one sensor.
func (g *Gateway) GetSensor(ctx context.Context, id int) (models.Sensor, error) {
	sensors, err := g.ListSensors(ctx)
	if err != nil {
		return models.Sensor{}, err
	}
	for _, s := range sensors {
		if s.ID == id {
			return s, nil
		}
	}
	return models.Sensor{}, fmt.Errorf("sensor %d: %w", id, ErrNotFound)
}
