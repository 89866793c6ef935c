package models

import (
	"fmt"

	"github.com/evilb/openmotics/internal/api"
)

// Shutter states
const (
	ShutterStateUp        = "UP"
	ShutterStateDown      = "DOWN"
	ShutterStateStopped   = "STOPPED"
	ShutterStateGoingUp   = "GOING_UP"
	ShutterStateGoingDown = "GOING_DOWN"
)

// Shutter is a motorised blind or roller shutter.
type Shutter struct {
	ID              int            `json:"id"`
	LocalID         int            `json:"local_id"`
	Name            string         `json:"name"`
	Capabilities    []string       `json:"capabilities,omitempty"`
	Location        *Location      `json:"location,omitempty"`
	Attributes      map[string]any `json:"attributes,omitempty"`
	Metadata        map[string]any `json:"metadata,omitempty"`
	Status          *ShutterStatus `json:"status,omitempty"`
	LastStateChange *float64       `json:"last_state_change,omitempty"`
	Version         float64        `json:"_version,omitempty"`
}

// ShutterStatus is the live state of a shutter.
type ShutterStatus struct {
	State          string   `json:"state"`
	Position       *int     `json:"position,omitempty"`
	LastChange     *float64 `json:"last_change,omitempty"`
	Locked         *bool    `json:"locked,omitempty"`
	ManualOverride *bool    `json:"manual_override,omitempty"`
}

func (s Shutter) String() string {
	return fmt.Sprintf("%d_%s_SHUTTER", s.ID, s.Name)
}

// IsPositionable reports whether the shutter accepts a target position.
func (s Shutter) IsPositionable() bool {
	for _, c := range s.Capabilities {
		if c == "POSITION" {
			return true
		}
	}
	return false
}

var shutterStatusSchema = &api.Schema{
	Name: "ShutterStatus",
	Fields: []api.Field{
		{Name: "state", Kind: api.KindString, Nullable: true},
		{Name: "position", Kind: api.KindInteger, Nullable: true},
		{Name: "last_change", Kind: api.KindNumber, Nullable: true},
		{Name: "locked", Kind: api.KindBool, Nullable: true},
		{Name: "manual_override", Kind: api.KindBool, Nullable: true},
	},
}

// ShutterSchema validates a shutter object.
var ShutterSchema = &api.Schema{
	Name: "Shutter",
	Fields: []api.Field{
		{Name: "id", Kind: api.KindInteger, Required: true},
		{Name: "local_id", Kind: api.KindInteger, Nullable: true},
		{Name: "name", Kind: api.KindString, Required: true, Nullable: true},
		{Name: "capabilities", Kind: api.KindArray, Nullable: true},
		{Name: "location", Kind: api.KindObject, Nullable: true, Schema: locationSchema},
		{Name: "attributes", Kind: api.KindObject, Nullable: true},
		{Name: "status", Kind: api.KindObject, Nullable: true, Schema: shutterStatusSchema},
	},
}
