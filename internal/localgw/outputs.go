package localgw

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/evilb/openmotics/internal/api"
	"github.com/evilb/openmotics/internal/models"
)

var localOutputConfigSchema = &api.Schema{
	Name: "OutputConfiguration",
	Fields: []api.Field{
		{Name: "id", Kind: api.KindInteger, Required: true},
		{Name: "name", Kind: api.KindString, Nullable: true},
		{Name: "type", Kind: api.KindInteger, Nullable: true},
		{Name: "module_type", Kind: api.KindString, Nullable: true},
		{Name: "room", Kind: api.KindInteger, Nullable: true},
	},
}

var localOutputStatusSchema = &api.Schema{
	Name: "OutputStatus",
	Fields: []api.Field{
		{Name: "id", Kind: api.KindInteger, Required: true},
		{Name: "status", Kind: api.KindInteger, Required: true},
		{Name: "dimmer", Kind: api.KindInteger, Nullable: true},
		{Name: "locked", Kind: api.KindBool, Nullable: true},
	},
}

// ListOutputs returns every configured output merged with its live status.
// Statuses are matched by id; an output without one has a nil Status.
func (g *Gateway) ListOutputs(ctx context.Context) ([]models.Output, error) {
	cfgData, err := g.cachedAction(ctx, "get_output_configurations", &g.outputConfigs)
	if err != nil {
		return nil, err
	}
	configs, err := api.DecodeEnvelope[models.LocalOutputConfig](localOutputConfigSchema, cfgData, "config")
	if err != nil {
		return nil, fmt.Errorf("output configurations: %w", err)
	}

	statusData, err := g.ExecAction(ctx, "get_output_status", nil)
	if err != nil {
		return nil, err
	}
	statuses, err := api.DecodeEnvelope[models.LocalOutputStatus](localOutputStatusSchema, statusData, "status")
	if err != nil {
		return nil, fmt.Errorf("output status: %w", err)
	}

	byID := make(map[int]models.LocalOutputStatus, len(statuses))
	for _, st := range statuses {
		byID[st.ID] = st
	}

	outputs := make([]models.Output, 0, len(configs))
	for _, cfg := range configs {
		var status *models.LocalOutputStatus
		if st, ok := byID[cfg.ID]; ok {
			status = &st
		}
		outputs = append(outputs, models.OutputFromLocal(cfg, status))
	}
	return outputs, nil
}

// GetOutput returns one output.
func (g *Gateway) GetOutput(ctx context.Context, id int) (models.Output, error) {
	outputs, err := g.ListOutputs(ctx)
	if err != nil {
		return models.Output{}, err
	}
	for _, out := range outputs {
		if out.ID == id {
			return out, nil
		}
	}
	return models.Output{}, fmt.Errorf("output %d: %w", id, ErrNotFound)
}

// TurnOnOutput switches an output on. value, when not nil, is clamped to
// 0..100 and sent as the dimmer level.
func (g *Gateway) TurnOnOutput(ctx context.Context, id int, value *int) error {
	form := url.Values{
		"id":    {strconv.Itoa(id)},
		"is_on": {"true"},
	}
	if value != nil {
		form.Set("dimmer", strconv.Itoa(models.ClampDimmer(*value)))
	}
	_, err := g.ExecAction(ctx, "set_output", form)
	return err
}

// TurnOffOutput switches an output off.
func (g *Gateway) TurnOffOutput(ctx context.Context, id int) error {
	form := url.Values{
		"id":    {strconv.Itoa(id)},
		"is_on": {"false"},
	}
	_, err := g.ExecAction(ctx, "set_output", form)
	return err
}

// ToggleOutput reads the current state and sends the opposite.
func (g *Gateway) ToggleOutput(ctx context.Context, id int) error {
	out, err := g.GetOutput(ctx, id)
	if err != nil {
		return err
	}
	if out.IsOn() {
		return g.TurnOffOutput(ctx, id)
	}
	return g.TurnOnOutput(ctx, id, nil)
}

// ListLights returns the outputs of type LIGHT.
func (g *Gateway) ListLights(ctx context.Context) ([]models.Light, error) {
	outputs, err := g.ListOutputs(ctx)
	if err != nil {
		return nil, err
	}
	lights := make([]models.Light, 0, len(outputs))
	for _, out := range outputs {
		if light, ok := models.LightFromOutput(out); ok {
			lights = append(lights, light)
		}
	}
	return lights, nil
}
