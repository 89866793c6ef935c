package models

import (
	"fmt"

	"github.com/evilb/openmotics/internal/api"
)

// Output capabilities
const (
	CapabilityOnOff = "ON_OFF"
	CapabilityRange = "RANGE"
)

// Output types reported by the cloud
const (
	OutputTypeOutlet      = "OUTLET"
	OutputTypeValve       = "VALVE"
	OutputTypeAlarm       = "ALARM"
	OutputTypeAppliance   = "APPLIANCE"
	OutputTypePump        = "PUMP"
	OutputTypeHVAC        = "HVAC"
	OutputTypeGeneric     = "GENERIC"
	OutputTypeMotor       = "MOTOR"
	OutputTypeVentilation = "VENTILATION"
	OutputTypeHeater      = "HEATER"
	OutputTypeLight       = "LIGHT"
	OutputTypeUnknown     = "UNKNOWN"
)

// dimmerModuleType marks outputs on a dimmer module in the local configuration.
const dimmerModuleType = "D"

var outputTypeNames = map[int]string{
	0:   OutputTypeOutlet,
	1:   OutputTypeValve,
	2:   OutputTypeAlarm,
	3:   OutputTypeAppliance,
	4:   OutputTypePump,
	5:   OutputTypeHVAC,
	6:   OutputTypeGeneric,
	7:   OutputTypeMotor,
	8:   OutputTypeVentilation,
	9:   OutputTypeHeater,
	255: OutputTypeLight,
}

// OutputTypeName maps a local gateway output type code onto its name.
func OutputTypeName(code int) string {
	if name, ok := outputTypeNames[code]; ok {
		return name
	}
	return OutputTypeUnknown
}

// Output is a relay or dimmer channel.
type Output struct {
	ID              int            `json:"id"`
	LocalID         int            `json:"local_id"`
	Name            string         `json:"name"`
	Type            string         `json:"type"`
	Location        *Location      `json:"location,omitempty"`
	Capabilities    []string       `json:"capabilities,omitempty"`
	Metadata        map[string]any `json:"metadata,omitempty"`
	Status          *OutputStatus  `json:"status,omitempty"`
	LastStateChange *float64       `json:"last_state_change,omitempty"`
	Version         float64        `json:"_version,omitempty"`
}

// OutputStatus is the live state of an output.
type OutputStatus struct {
	On             bool  `json:"on"`
	Locked         *bool `json:"locked,omitempty"`
	ManualOverride *bool `json:"manual_override,omitempty"`
	Value          *int  `json:"value,omitempty"`
}

// String returns "<id>_<name>_<type>".
func (o Output) String() string {
	return fmt.Sprintf("%d_%s_%s", o.ID, o.Name, o.Type)
}

// IsOn reports the last known on/off state.
func (o Output) IsOn() bool {
	return o.Status != nil && o.Status.On
}

// HasCapability reports whether the output advertises capability c.
func (o Output) HasCapability(c string) bool {
	for _, have := range o.Capabilities {
		if have == c {
			return true
		}
	}
	return false
}

// IsDimmable reports whether the output accepts a value.
func (o Output) IsDimmable() bool { return o.HasCapability(CapabilityRange) }

var outputStatusSchema = &api.Schema{
	Name: "OutputStatus",
	Fields: []api.Field{
		{Name: "on", Kind: api.KindBool, Required: true},
		{Name: "locked", Kind: api.KindBool, Nullable: true},
		{Name: "manual_override", Kind: api.KindBool, Nullable: true},
		{Name: "value", Kind: api.KindInteger, Nullable: true},
	},
}

// OutputSchema validates an output object.
var OutputSchema = &api.Schema{
	Name: "Output",
	Fields: []api.Field{
		{Name: "id", Kind: api.KindInteger, Required: true},
		{Name: "local_id", Kind: api.KindInteger, Nullable: true},
		{Name: "name", Kind: api.KindString, Required: true, Nullable: true},
		{Name: "type", Kind: api.KindString, Nullable: true},
		{Name: "location", Kind: api.KindObject, Nullable: true, Schema: locationSchema},
		{Name: "capabilities", Kind: api.KindArray, Nullable: true},
		{Name: "metadata", Kind: api.KindObject, Nullable: true},
		{Name: "status", Kind: api.KindObject, Nullable: true, Schema: outputStatusSchema},
		{Name: "last_state_change", Kind: api.KindNumber, Nullable: true},
	},
}

// LocalOutputConfig is one entry of the gateway's get_output_configurations.
type LocalOutputConfig struct {
	ID         int    `json:"id"`
	Name       string `json:"name"`
	Type       int    `json:"type"`
	ModuleType string `json:"module_type"`
	Room       int    `json:"room"`
	Timer      int    `json:"timer,omitempty"`
	FloorID    int    `json:"floor,omitempty"`
}

// LocalOutputStatus is one entry of the gateway's get_output_status.
type LocalOutputStatus struct {
	ID     int  `json:"id"`
	Status int  `json:"status"`
	Dimmer int  `json:"dimmer"`
	Ctimer int  `json:"ctimer"`
	Locked bool `json:"locked"`
}

// OutputFromLocal merges a configuration entry with its (optional) status.
func OutputFromLocal(cfg LocalOutputConfig, status *LocalOutputStatus) Output {
	out := Output{
		ID:           cfg.ID,
		LocalID:      cfg.ID,
		Name:         cfg.Name,
		Type:         OutputTypeName(cfg.Type),
		Location:     roomLocation(cfg.Room),
		Capabilities: []string{CapabilityOnOff},
		Metadata:     map[string]any{},
		Version:      1.0,
	}
	if cfg.ModuleType == dimmerModuleType {
		out.Capabilities = append(out.Capabilities, CapabilityRange)
	}
	if status != nil {
		locked := status.Locked
		out.Status = &OutputStatus{
			On:     status.Status == 1,
			Locked: &locked,
			Value:  intPtr(status.Dimmer),
		}
	}
	return out
}

// ClampDimmer bounds a dimmer value to 0..100.
func ClampDimmer(v int) int {
	return min(max(v, 0), 100)
}
