package models

import (
	"fmt"

	"github.com/evilb/openmotics/internal/api"
)

// Light is an output the installer marked as lighting.
type Light struct {
	ID              int            `json:"id"`
	LocalID         int            `json:"local_id"`
	Name            string         `json:"name"`
	Location        *Location      `json:"location,omitempty"`
	Capabilities    []string       `json:"capabilities,omitempty"`
	Metadata        map[string]any `json:"metadata,omitempty"`
	Status          *OutputStatus  `json:"status,omitempty"`
	LastStateChange *float64       `json:"last_state_change,omitempty"`
	Version         float64        `json:"_version,omitempty"`
}

func (l Light) String() string {
	return fmt.Sprintf("%d_%s_%s", l.ID, l.Name, OutputTypeLight)
}

// IsOn reports the last known on/off state.
func (l Light) IsOn() bool { return l.Status != nil && l.Status.On }

// IsDimmable reports whether the light accepts a brightness value.
func (l Light) IsDimmable() bool {
	for _, c := range l.Capabilities {
		if c == CapabilityRange {
			return true
		}
	}
	return false
}

// LightFromOutput narrows an output of type LIGHT.
func LightFromOutput(o Output) (Light, bool) {
	if o.Type != OutputTypeLight {
		return Light{}, false
	}
	return Light{
		ID:              o.ID,
		LocalID:         o.LocalID,
		Name:            o.Name,
		Location:        o.Location,
		Capabilities:    o.Capabilities,
		Metadata:        o.Metadata,
		Status:          o.Status,
		LastStateChange: o.LastStateChange,
		Version:         o.Version,
	}, true
}

// LightSchema validates a light object.
var LightSchema = &api.Schema{
	Name: "Light",
	Fields: []api.Field{
		{Name: "id", Kind: api.KindInteger, Required: true},
		{Name: "local_id", Kind: api.KindInteger, Nullable: true},
		{Name: "name", Kind: api.KindString, Required: true, Nullable: true},
		{Name: "location", Kind: api.KindObject, Nullable: true, Schema: locationSchema},
		{Name: "capabilities", Kind: api.KindArray, Nullable: true},
		{Name: "status", Kind: api.KindObject, Nullable: true, Schema: outputStatusSchema},
	},
}
