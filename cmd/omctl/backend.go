package main

import (
	"context"

	"github.com/evilb/openmotics/internal/cloud"
	"github.com/evilb/openmotics/internal/config"
	"github.com/evilb/openmotics/internal/localgw"
	"github.com/evilb/openmotics/internal/models"
)

// backend is the part of the API both the cloud and a local gateway offer.
type backend interface {
	ListOutputs(ctx context.Context) ([]models.Output, error)
	GetOutput(ctx context.Context, id int) (models.Output, error)
	TurnOnOutput(ctx context.Context, id int, value *int) error
	TurnOffOutput(ctx context.Context, id int) error
	ToggleOutput(ctx context.Context, id int) error

	ListLights(ctx context.Context) ([]models.Light, error)
	TurnOnLight(ctx context.Context, id int, value *int) error
	TurnOffLight(ctx context.Context, id int) error
	ToggleLight(ctx context.Context, id int) error

	ListSensors(ctx context.Context) ([]models.Sensor, error)
	GetSensor(ctx context.Context, id int) (models.Sensor, error)

	ListGroupActions(ctx context.Context) ([]models.GroupAction, error)
	Scenes(ctx context.Context) ([]models.GroupAction, error)
	TriggerGroupAction(ctx context.Context, id int) error

	Close() error
}

type cloudBackend struct {
	*cloud.Client
}

func (b cloudBackend) ListOutputs(ctx context.Context) ([]models.Output, error) {
	return b.Client.ListOutputs(ctx, "")
}

func (b cloudBackend) ListLights(ctx context.Context) ([]models.Light, error) {
	return b.Client.ListLights(ctx, "")
}

func (b cloudBackend) ListSensors(ctx context.Context) ([]models.Sensor, error) {
	return b.Client.ListSensors(ctx, "")
}

func (b cloudBackend) ListGroupActions(ctx context.Context) ([]models.GroupAction, error) {
	return b.Client.ListGroupActions(ctx, "")
}

// localBackend drives lights through the output actions; the gateway has no
// separate light endpoints.
type localBackend struct {
	*localgw.Gateway
}

func (b localBackend) TurnOnLight(ctx context.Context, id int, value *int) error {
	return b.TurnOnOutput(ctx, id, value)
}

func (b localBackend) TurnOffLight(ctx context.Context, id int) error {
	return b.TurnOffOutput(ctx, id)
}

func (b localBackend) ToggleLight(ctx context.Context, id int) error {
	return b.ToggleOutput(ctx, id)
}

var (
	_ backend = cloudBackend{}
	_ backend = localBackend{}
)

// backend opens the client selected by --mode.
func (s *session) backend() (backend, error) {
	if s.cfg.Mode == config.ModeLocal {
		gw, err := s.localGateway()
		if err != nil {
			return nil, err
		}
		return localBackend{gw}, nil
	}
	c, err := s.cloudClient()
	if err != nil {
		return nil, err
	}
	return cloudBackend{c}, nil
}
