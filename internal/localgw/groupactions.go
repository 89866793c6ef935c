package localgw

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/evilb/openmotics/internal/api"
	"github.com/evilb/openmotics/internal/models"
)

var localGroupActionSchema = &api.Schema{
	Name: "GroupActionConfiguration",
	Fields: []api.Field{
		{Name: "id", Kind: api.KindInteger, Required: true},
		{Name: "name", Kind: api.KindString, Nullable: true},
		{Name: "actions", Kind: api.KindString, Nullable: true},
	},
}

// ListGroupActions returns every configured group action. Unnamed slots are skipped.
func (g *Gateway) ListGroupActions(ctx context.Context) ([]models.GroupAction, error) {
	data, err := g.ExecAction(ctx, "get_group_action_configurations", nil)
	if err != nil {
		return nil, err
	}
	configs, err := api.DecodeEnvelope[models.LocalGroupActionConfig](localGroupActionSchema, data, "config")
	if err != nil {
		return nil, fmt.Errorf("group action configurations: %w", err)
	}

	actions := make([]models.GroupAction, 0, len(configs))
	for _, cfg := range configs {
		if strings.TrimSpace(cfg.Name) == "" {
			continue
		}
		actions = append(actions, models.GroupActionFromLocal(cfg))
	}
	return actions, nil
}

// GetGroupAction returns one group action.
func (g *Gateway) GetGroupAction(ctx context.Context, id int) (models.GroupAction, error) {
	actions, err := g.ListGroupActions(ctx)
	if err != nil {
		return models.GroupAction{}, err
	}
	for _, ga := range actions {
		if ga.ID == id {
			return ga, nil
		}
	}
	return models.GroupAction{}, fmt.Errorf("group action %d: %w", id, ErrNotFound)
}

// TriggerGroupAction runs a group action.
func (g *Gateway) TriggerGroupAction(ctx context.Context, id int) error {
	_, err := g.ExecAction(ctx, "do_group_action", url.Values{"group_action_id": {strconv.Itoa(id)}})
	return err
}

// GroupActionsByUsage returns the group actions whose name equals usage.
// The gateway has no usage attribute, so installers name scenes "SCENE".
func (g *Gateway) GroupActionsByUsage(ctx context.Context, usage string) ([]models.GroupAction, error) {
	actions, err := g.ListGroupActions(ctx)
	if err != nil {
		return nil, err
	}
	var matched []models.GroupAction
	for _, ga := range actions {
		if strings.EqualFold(ga.Name, usage) {
			matched = append(matched, ga)
		}
	}
	return matched, nil
}

// Scenes returns the group actions used as scenes.
func (g *Gateway) Scenes(ctx context.Context) ([]models.GroupAction, error) {
	return g.GroupActionsByUsage(ctx, models.UsageScene)
}
