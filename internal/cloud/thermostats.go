package cloud

import (
	"context"
	"fmt"

	"github.com/evilb/openmotics/internal/models"
)

// SetThermostatMode sets HEATING or COOLING on every group.
func (c *Client) SetThermostatMode(ctx context.Context, mode string) error {
	mode, err := models.NormalizeMode(mode)
	if err != nil {
		return err
	}
	path, err := c.scoped("/thermostats/mode")
	if err != nil {
		return err
	}
	return wrap("set thermostat mode", c.action(ctx, path, map[string]string{"mode": mode}))
}

// SetThermostatState turns every thermostat ON or OFF.
func (c *Client) SetThermostatState(ctx context.Context, state string) error {
	state, err := models.NormalizeState(state)
	if err != nil {
		return err
	}
	path, err := c.scoped("/thermostats/state")
	if err != nil {
		return err
	}
	return wrap("set thermostat state", c.action(ctx, path, map[string]string{"state": state}))
}

// ListThermostatGroups returns every thermostat group.
func (c *Client) ListThermostatGroups(ctx context.Context) ([]models.ThermostatGroup, error) {
	path, err := c.scoped("/thermostats/groups")
	if err != nil {
		return nil, err
	}
	groups, err := list[models.ThermostatGroup](ctx, c, models.ThermostatGroupSchema, path, nil)
	if err != nil {
		return nil, fmt.Errorf("list thermostat groups: %w", err)
	}
	return groups, nil
}

// GetThermostatGroup returns a single thermostat group.
func (c *Client) GetThermostatGroup(ctx context.Context, id int) (models.ThermostatGroup, error) {
	if err := checkID("thermostat group", id); err != nil {
		return models.ThermostatGroup{}, err
	}
	path, err := c.scoped("/thermostats/groups/%d", id)
	if err != nil {
		return models.ThermostatGroup{}, err
	}
	group, err := one[models.ThermostatGroup](ctx, c, models.ThermostatGroupSchema, path)
	if err != nil {
		return models.ThermostatGroup{}, fmt.Errorf("get thermostat group %d: %w", id, err)
	}
	return group, nil
}

// SetThermostatGroupMode sets the mode of one group.
func (c *Client) SetThermostatGroupMode(ctx context.Context, id int, mode string) error {
	if err := checkID("thermostat group", id); err != nil {
		return err
	}
	mode, err := models.NormalizeMode(mode)
	if err != nil {
		return err
	}
	path, err := c.scoped("/thermostats/groups/%d/mode", id)
	if err != nil {
		return err
	}
	return wrap(fmt.Sprintf("set thermostat group %d mode", id), c.action(ctx, path, map[string]string{"mode": mode}))
}

// ListThermostatUnits returns every thermostat unit.
func (c *Client) ListThermostatUnits(ctx context.Context) ([]models.ThermostatUnit, error) {
	path, err := c.scoped("/thermostats/units")
	if err != nil {
		return nil, err
	}
	units, err := list[models.ThermostatUnit](ctx, c, models.ThermostatUnitSchema, path, nil)
	if err != nil {
		return nil, fmt.Errorf("list thermostat units: %w", err)
	}
	return units, nil
}

// GetThermostatUnit returns a single thermostat unit.
func (c *Client) GetThermostatUnit(ctx context.Context, id int) (models.ThermostatUnit, error) {
	if err := checkID("thermostat unit", id); err != nil {
		return models.ThermostatUnit{}, err
	}
	path, err := c.scoped("/thermostats/units/%d", id)
	if err != nil {
		return models.ThermostatUnit{}, err
	}
	unit, err := one[models.ThermostatUnit](ctx, c, models.ThermostatUnitSchema, path)
	if err != nil {
		return models.ThermostatUnit{}, fmt.Errorf("get thermostat unit %d: %w", id, err)
	}
	return unit, nil
}

// SetThermostatUnitState turns one unit ON or OFF.
func (c *Client) SetThermostatUnitState(ctx context.Context, id int, state string) error {
	state, err := models.NormalizeState(state)
	if err != nil {
		return err
	}
	return c.unitAction(ctx, id, "state", map[string]string{"state": state})
}

// SetThermostatUnitTemperature changes the setpoint of one unit.
func (c *Client) SetThermostatUnitTemperature(ctx context.Context, id int, temperature float64) error {
	return c.unitAction(ctx, id, "setpoint", map[string]float64{"temperature": temperature})
}

// SetThermostatUnitPreset selects AUTO, AWAY, PARTY or VACATION.
func (c *Client) SetThermostatUnitPreset(ctx context.Context, id int, preset string) error {
	preset, err := models.NormalizePreset(preset)
	if err != nil {
		return err
	}
	return c.unitAction(ctx, id, "preset", map[string]string{"preset": preset})
}

// SetThermostatUnitPresetConfig stores the preset setpoints of one unit.
func (c *Client) SetThermostatUnitPresetConfig(ctx context.Context, id int, cfg models.PresetConfig) error {
	return c.unitAction(ctx, id, "preset/config", cfg)
}

func (c *Client) unitAction(ctx context.Context, id int, suffix string, body any) error {
	if err := checkID("thermostat unit", id); err != nil {
		return err
	}
	path, err := c.scoped("/thermostats/units/%d/%s", id, suffix)
	if err != nil {
		return err
	}
	return wrap(fmt.Sprintf("thermostat unit %d %s", id, suffix), c.action(ctx, path, body))
}

func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", op, err)
}
