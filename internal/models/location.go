package models

import "github.com/evilb/openmotics/internal/api"

// NoRoom is the room id the gateway uses for "not assigned".
const NoRoom = 255

// FloorCoordinates is the position of an item on a floor plan.
type FloorCoordinates struct {
	X *int `json:"x"`
	Y *int `json:"y"`
}

// Location places an item inside an installation.
type Location struct {
	FloorCoordinates *FloorCoordinates `json:"floor_coordinates,omitempty"`
	InstallationID   *int              `json:"installation_id,omitempty"`
	GatewayID        *int              `json:"gateway_id,omitempty"`
	FloorID          *int              `json:"floor_id,omitempty"`
	RoomID           *int              `json:"room_id,omitempty"`
}

var locationSchema = &api.Schema{
	Name: "Location",
	Fields: []api.Field{
		{Name: "floor_coordinates", Kind: api.KindObject, Nullable: true},
		{Name: "installation_id", Kind: api.KindInteger, Nullable: true},
		{Name: "gateway_id", Kind: api.KindInteger, Nullable: true},
		{Name: "floor_id", Kind: api.KindInteger, Nullable: true},
		{Name: "room_id", Kind: api.KindInteger, Nullable: true},
	},
}

// roomLocation converts a local gateway room number into a Location.
func roomLocation(room int) *Location {
	if room == NoRoom || room < 0 {
		return &Location{}
	}
	r := room
	return &Location{RoomID: &r}
}

func intPtr(v int) *int { return &v }
