package models

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/evilb/openmotics/internal/api"
)

// Thermostat modes, states and presets
const (
	ModeHeating = "HEATING"
	ModeCooling = "COOLING"

	StateOn  = "ON"
	StateOff = "OFF"

	PresetAuto     = "AUTO"
	PresetAway     = "AWAY"
	PresetParty    = "PARTY"
	PresetVacation = "VACATION"
)

// ErrInvalidValue is returned when a mode, state or preset is not recognised.
var ErrInvalidValue = errors.New("invalid value")

var (
	modes   = []string{ModeHeating, ModeCooling}
	states  = []string{StateOn, StateOff}
	presets = []string{PresetAuto, PresetAway, PresetParty, PresetVacation}
)

func normalize(kind, v string, allowed []string) (string, error) {
	up := strings.ToUpper(strings.TrimSpace(v))
	if !slices.Contains(allowed, up) {
		return "", fmt.Errorf("%w: %s %q (want one of %s)", ErrInvalidValue, kind, v, strings.Join(allowed, "|"))
	}
	return up, nil
}

// NormalizeMode upper-cases and validates a thermostat mode.
func NormalizeMode(v string) (string, error) { return normalize("mode", v, modes) }

// NormalizeState upper-cases and validates an ON/OFF state.
func NormalizeState(v string) (string, error) { return normalize("state", v, states) }

// NormalizePreset upper-cases and validates a preset.
func NormalizePreset(v string) (string, error) { return normalize("preset", v, presets) }

// ThermostatGroup bundles thermostat units sharing a mode.
type ThermostatGroup struct {
	ID           int                    `json:"id"`
	LocalID      int                    `json:"local_id"`
	Name         string                 `json:"name"`
	Capabilities []string               `json:"capabilities,omitempty"`
	Status       *ThermostatGroupStatus `json:"status,omitempty"`
	Version      float64                `json:"_version,omitempty"`
}

// ThermostatGroupStatus is the live state of a group.
type ThermostatGroupStatus struct {
	Mode  string `json:"mode"`
	State string `json:"state"`
}

// ThermostatUnit is a single heating/cooling zone.
type ThermostatUnit struct {
	ID           int                   `json:"id"`
	LocalID      int                   `json:"local_id"`
	Name         string                `json:"name"`
	Location     *Location             `json:"location,omitempty"`
	Capabilities []string              `json:"capabilities,omitempty"`
	Status       *ThermostatUnitStatus `json:"status,omitempty"`
	Version      float64               `json:"_version,omitempty"`
}

// ThermostatUnitStatus is the live state of a unit.
type ThermostatUnitStatus struct {
	Mode              string   `json:"mode,omitempty"`
	State             string   `json:"state,omitempty"`
	Preset            string   `json:"preset,omitempty"`
	CurrentSetpoint   *float64 `json:"current_setpoint,omitempty"`
	ActualTemperature *float64 `json:"actual_temperature,omitempty"`
	OutputValue       *float64 `json:"output_value,omitempty"`
}

// PresetConfig holds the AWAY/VACATION/PARTY setpoints for both modes.
type PresetConfig struct {
	Heating PresetTemperatures `json:"heating"`
	Cooling PresetTemperatures `json:"cooling"`
}

// PresetTemperatures maps preset names onto setpoints.
type PresetTemperatures struct {
	Away     float64 `json:"AWAY"`
	Vacation float64 `json:"VACATION"`
	Party    float64 `json:"PARTY"`
}

// ThermostatGroupSchema validates a thermostat group object.
var ThermostatGroupSchema = &api.Schema{
	Name: "ThermostatGroup",
	Fields: []api.Field{
		{Name: "id", Kind: api.KindInteger, Required: true},
		{Name: "local_id", Kind: api.KindInteger, Nullable: true},
		{Name: "name", Kind: api.KindString, Nullable: true},
		{Name: "capabilities", Kind: api.KindArray, Nullable: true},
		{Name: "status", Kind: api.KindObject, Nullable: true},
	},
}

var thermostatUnitStatusSchema = &api.Schema{
	Name: "ThermostatUnitStatus",
	Fields: []api.Field{
		{Name: "mode", Kind: api.KindString, Nullable: true},
		{Name: "state", Kind: api.KindString, Nullable: true},
		{Name: "preset", Kind: api.KindString, Nullable: true},
		{Name: "current_setpoint", Kind: api.KindNumber, Nullable: true},
		{Name: "actual_temperature", Kind: api.KindNumber, Nullable: true},
		{Name: "output_value", Kind: api.KindNumber, Nullable: true},
	},
}

// ThermostatUnitSchema validates a thermostat unit object.
var ThermostatUnitSchema = &api.Schema{
	Name: "ThermostatUnit",
	Fields: []api.Field{
		{Name: "id", Kind: api.KindInteger, Required: true},
		{Name: "local_id", Kind: api.KindInteger, Nullable: true},
		{Name: "name", Kind: api.KindString, Required: true, Nullable: true},
		{Name: "location", Kind: api.KindObject, Nullable: true, Schema: locationSchema},
		{Name: "capabilities", Kind: api.KindArray, Nullable: true},
		{Name: "status", Kind: api.KindObject, Nullable: true, Schema: thermostatUnitStatusSchema},
	},
}
