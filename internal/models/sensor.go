package models

import "github.com/evilb/openmotics/internal/api"

// Physical quantities measured by sensors
const (
	QuantityTemperature = "temperature"
	QuantityHumidity    = "humidity"
	QuantityBrightness  = "brightness"
)

// Sensor reports temperature, humidity or brightness.
type Sensor struct {
	ID               int            `json:"id"`
	LocalID          int            `json:"local_id"`
	Name             string         `json:"name"`
	PhysicalQuantity string         `json:"physical_quantity,omitempty"`
	Location         *Location      `json:"location,omitempty"`
	Metadata         map[string]any `json:"metadata,omitempty"`
	Status           *SensorStatus  `json:"status,omitempty"`
	LastStateChange  *float64       `json:"last_state_change,omitempty"`
	Version          float64        `json:"_version,omitempty"`
}

// SensorStatus holds the latest readings. Nil means "no reading".
type SensorStatus struct {
	Temperature *float64 `json:"temperature,omitempty"`
	Humidity    *float64 `json:"humidity,omitempty"`
	Brightness  *float64 `json:"brightness,omitempty"`
	Value       *float64 `json:"value,omitempty"`
}

var sensorStatusSchema = &api.Schema{
	Name: "SensorStatus",
	Fields: []api.Field{
		{Name: "temperature", Kind: api.KindNumber, Nullable: true},
		{Name: "humidity", Kind: api.KindNumber, Nullable: true},
		{Name: "brightness", Kind: api.KindNumber, Nullable: true},
		{Name: "value", Kind: api.KindNumber, Nullable: true},
	},
}

// SensorSchema validates a sensor object.
var SensorSchema = &api.Schema{
	Name: "Sensor",
	Fields: []api.Field{
		{Name: "id", Kind: api.KindInteger, Required: true},
		{Name: "local_id", Kind: api.KindInteger, Nullable: true},
		{Name: "name", Kind: api.KindString, Required: true, Nullable: true},
		{Name: "physical_quantity", Kind: api.KindString, Nullable: true},
		{Name: "location", Kind: api.KindObject, Nullable: true, Schema: locationSchema},
		{Name: "status", Kind: api.KindObject, Nullable: true, Schema: sensorStatusSchema},
	},
}

// LocalSensorConfig is one entry of the gateway's get_sensor_configurations.
type LocalSensorConfig struct {
	ID      int     `json:"id"`
	Name    string  `json:"name"`
	Room    int     `json:"room"`
	Offset  float64 `json:"offset,omitempty"`
	Virtual bool    `json:"virtual,omitempty"`
}

// LocalSensorReadings are the three status lists of the gateway, indexed by
// sensor id. Missing entries and nulls mean "no reading".
type LocalSensorReadings struct {
	Temperature []*float64
	Humidity    []*float64
	Brightness  []*float64
}

func reading(values []*float64, id int) *float64 {
	if id < 0 || id >= len(values) {
		return nil
	}
	return values[id]
}

// SensorFromLocal builds a Sensor from its configuration and the readings
// reported for its id.
func SensorFromLocal(cfg LocalSensorConfig, r LocalSensorReadings) Sensor {
	s := Sensor{
		ID:       cfg.ID,
		LocalID:  cfg.ID,
		Name:     cfg.Name,
		Location: roomLocation(cfg.Room),
		Metadata: map[string]any{},
		Status: &SensorStatus{
			Temperature: reading(r.Temperature, cfg.ID),
			Humidity:    reading(r.Humidity, cfg.ID),
			Brightness:  reading(r.Brightness, cfg.ID),
		},
		Version: 1.0,
	}
	switch {
	case s.Status.Temperature != nil:
		s.PhysicalQuantity = QuantityTemperature
		s.Status.Value = s.Status.Temperature
	case s.Status.Humidity != nil:
		s.PhysicalQuantity = QuantityHumidity
		s.Status.Value = s.Status.Humidity
	case s.Status.Brightness != nil:
		s.PhysicalQuantity = QuantityBrightness
		s.Status.Value = s.Status.Brightness
	}
	return s
}
