package models

import (
	"strconv"
	"strings"

	"github.com/evilb/openmotics/internal/api"
)

// Group action usages understood by the cloud filter
const (
	UsageScene = "SCENE"
)

// GroupAction is a stored sequence of basic actions, such as a scene.
type GroupAction struct {
	ID       int            `json:"id"`
	LocalID  int            `json:"local_id"`
	Name     string         `json:"name"`
	Actions  []int          `json:"actions,omitempty"`
	Usage    string         `json:"usage,omitempty"`
	Location *Location      `json:"location,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
	Version  float64        `json:"_version,omitempty"`
}

// GroupActionSchema validates a group action object.
var GroupActionSchema = &api.Schema{
	Name: "GroupAction",
	Fields: []api.Field{
		{Name: "id", Kind: api.KindInteger, Required: true},
		{Name: "local_id", Kind: api.KindInteger, Nullable: true},
		{Name: "name", Kind: api.KindString, Required: true, Nullable: true},
		{Name: "actions", Kind: api.KindArray, Nullable: true},
		{Name: "usage", Kind: api.KindString, Nullable: true},
		{Name: "location", Kind: api.KindObject, Nullable: true, Schema: locationSchema},
	},
}

// LocalGroupActionConfig is one entry of get_group_action_configurations.
// Actions is a comma separated list of action codes.
type LocalGroupActionConfig struct {
	ID      int    `json:"id"`
	Name    string `json:"name"`
	Actions string `json:"actions"`
}

// GroupActionFromLocal converts a gateway group action configuration.
// Malformed action codes are skipped.
func GroupActionFromLocal(cfg LocalGroupActionConfig) GroupAction {
	ga := GroupAction{
		ID:       cfg.ID,
		LocalID:  cfg.ID,
		Name:     cfg.Name,
		Location: &Location{},
		Metadata: map[string]any{},
		Version:  1.0,
	}
	for _, part := range strings.Split(cfg.Actions, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if code, err := strconv.Atoi(part); err == nil {
			ga.Actions = append(ga.Actions, code)
		}
	}
	return ga
}
