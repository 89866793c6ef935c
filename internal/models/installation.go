package models

import "github.com/evilb/openmotics/internal/api"

// Installation is a site (one or more gateways) reachable through the cloud.
type Installation struct {
	ID           int            `json:"id"`
	Name         string         `json:"name"`
	Description  string         `json:"description,omitempty"`
	GatewayModel string         `json:"gateway_model,omitempty"`
	UserRole     *UserRole      `json:"user_role,omitempty"`
	Network      *Network       `json:"network,omitempty"`
	Flags        map[string]any `json:"flags,omitempty"`
	Features     map[string]any `json:"features,omitempty"`
	Version      float64        `json:"_version,omitempty"`
}

// UserRole is the caller's role within an installation.
type UserRole struct {
	Role   string `json:"role"`
	UserID int    `json:"user_id"`
}

// Network describes how the installation's gateway is connected.
type Network struct {
	LocalIPAddress string `json:"local_ip_address,omitempty"`
}

// IsOnline reports whether the cloud considers the installation connected.
func (i Installation) IsOnline() bool {
	if v, ok := i.Flags["ONLINE"]; ok {
		if online, isBool := v.(bool); isBool {
			return online
		}
	}
	return false
}

// InstallationSchema validates an installation object.
var InstallationSchema = &api.Schema{
	Name: "Installation",
	Fields: []api.Field{
		{Name: "id", Kind: api.KindInteger, Required: true},
		{Name: "name", Kind: api.KindString, Required: true},
		{Name: "description", Kind: api.KindString, Nullable: true},
		{Name: "gateway_model", Kind: api.KindString, Nullable: true},
		{Name: "user_role", Kind: api.KindObject, Nullable: true},
		{Name: "network", Kind: api.KindObject, Nullable: true},
		{Name: "flags", Kind: api.KindObject, Nullable: true},
		{Name: "features", Kind: api.KindObject, Nullable: true},
	},
}
