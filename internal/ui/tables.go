package ui

import (
	"strconv"
	"strings"

	"github.com/evilb/openmotics/internal/api"
	"github.com/evilb/openmotics/internal/discovery"
	"github.com/evilb/openmotics/internal/models"
)

const dash = "-"

func onOff(on bool) string {
	if on {
		return OnStyle.Render("ON")
	}
	return OffStyle.Render("off")
}

func optInt(v *int) string {
	if v == nil {
		return dash
	}
	return strconv.Itoa(*v)
}

func optFloat(v *float64, unit string) string {
	if v == nil {
		return dash
	}
	return strconv.FormatFloat(*v, 'f', 1, 64) + unit
}

func room(l *models.Location) string {
	if l == nil || l.RoomID == nil {
		return dash
	}
	return strconv.Itoa(*l.RoomID)
}

func orDash(s string) string {
	if s == "" {
		return dash
	}
	return s
}

// InstallationRows lists installations.
func InstallationRows(items []models.Installation) ([]string, [][]string) {
	rows := make([][]string, 0, len(items))
	for _, i := range items {
		role := dash
		if i.UserRole != nil {
			role = i.UserRole.Role
		}
		rows = append(rows, []string{strconv.Itoa(i.ID), i.Name, orDash(i.GatewayModel), role, onOff(i.IsOnline())})
	}
	return []string{"ID", "Name", "Gateway", "Role", "Online"}, rows
}

// OutputRows lists outputs.
func OutputRows(items []models.Output) ([]string, [][]string) {
	rows := make([][]string, 0, len(items))
	for _, o := range items {
		state, value := OffStyle.Render(dash), dash
		if o.Status != nil {
			state = onOff(o.Status.On)
			value = optInt(o.Status.Value)
		}
		rows = append(rows, []string{strconv.Itoa(o.ID), o.Name, orDash(o.Type), room(o.Location), state, value})
	}
	return []string{"ID", "Name", "Type", "Room", "State", "Value"}, rows
}

// LightRows lists lights.
func LightRows(items []models.Light) ([]string, [][]string) {
	rows := make([][]string, 0, len(items))
	for _, l := range items {
		state, value := OffStyle.Render(dash), dash
		if l.Status != nil {
			state = onOff(l.Status.On)
			value = optInt(l.Status.Value)
		}
		rows = append(rows, []string{strconv.Itoa(l.ID), l.Name, room(l.Location), state, value})
	}
	return []string{"ID", "Name", "Room", "State", "Value"}, rows
}

// SensorRows lists sensors.
func SensorRows(items []models.Sensor) ([]string, [][]string) {
	rows := make([][]string, 0, len(items))
	for _, s := range items {
		temp, hum, bright, value := dash, dash, dash, dash
		if s.Status != nil {
			temp = optFloat(s.Status.Temperature, "°C")
			hum = optFloat(s.Status.Humidity, "%")
			bright = optFloat(s.Status.Brightness, "%")
			value = optFloat(s.Status.Value, "")
		}
		rows = append(rows, []string{strconv.Itoa(s.ID), s.Name, orDash(s.PhysicalQuantity), room(s.Location), temp, hum, bright, value})
	}
	return []string{"ID", "Name", "Quantity", "Room", "Temp", "Humidity", "Brightness", "Value"}, rows
}

// GroupActionRows lists group actions and scenes.
func GroupActionRows(items []models.GroupAction) ([]string, [][]string) {
	rows := make([][]string, 0, len(items))
	for _, g := range items {
		rows = append(rows, []string{strconv.Itoa(g.ID), g.Name, orDash(g.Usage), strconv.Itoa(len(g.Actions))})
	}
	return []string{"ID", "Name", "Usage", "Actions"}, rows
}

// ShutterRows lists shutters.
func ShutterRows(items []models.Shutter) ([]string, [][]string) {
	rows := make([][]string, 0, len(items))
	for _, s := range items {
		state, pos, locked := dash, dash, dash
		if s.Status != nil {
			state = orDash(s.Status.State)
			pos = optInt(s.Status.Position)
			if s.Status.Locked != nil {
				locked = strconv.FormatBool(*s.Status.Locked)
			}
		}
		rows = append(rows, []string{strconv.Itoa(s.ID), s.Name, room(s.Location), state, pos, locked})
	}
	return []string{"ID", "Name", "Room", "State", "Position", "Locked"}, rows
}

// ThermostatGroupRows lists thermostat groups.
func ThermostatGroupRows(items []models.ThermostatGroup) ([]string, [][]string) {
	rows := make([][]string, 0, len(items))
	for _, g := range items {
		mode, state := dash, dash
		if g.Status != nil {
			mode, state = orDash(g.Status.Mode), orDash(g.Status.State)
		}
		rows = append(rows, []string{strconv.Itoa(g.ID), g.Name, mode, state})
	}
	return []string{"ID", "Name", "Mode", "State"}, rows
}

// ThermostatUnitRows lists thermostat units.
func ThermostatUnitRows(items []models.ThermostatUnit) ([]string, [][]string) {
	rows := make([][]string, 0, len(items))
	for _, u := range items {
		preset, setpoint, actual, state := dash, dash, dash, dash
		if u.Status != nil {
			preset = orDash(u.Status.Preset)
			setpoint = optFloat(u.Status.CurrentSetpoint, "°C")
			actual = optFloat(u.Status.ActualTemperature, "°C")
			state = orDash(u.Status.State)
		}
		rows = append(rows, []string{strconv.Itoa(u.ID), u.Name, room(u.Location), state, preset, setpoint, actual})
	}
	return []string{"ID", "Name", "Room", "State", "Preset", "Setpoint", "Actual"}, rows
}

// ResourceRows lists generic resources.
func ResourceRows(items []api.Resource) ([]string, [][]string) {
	rows := make([][]string, 0, len(items))
	for _, r := range items {
		rows = append(rows, []string{strconv.Itoa(r.ID), r.Name, orDash(r.Type), orDash(r.State)})
	}
	return []string{"ID", "Name", "Type", "State"}, rows
}

// GatewayRows lists discovered gateways.
func GatewayRows(items []*discovery.Gateway) ([]string, [][]string) {
	rows := make([][]string, 0, len(items))
	for _, g := range items {
		rows = append(rows, []string{g.Name, strings.TrimSuffix(g.Hostname, "."), g.IP, strconv.Itoa(g.Port), g.BaseURL()})
	}
	return []string{"Name", "Hostname", "IP", "Port", "URL"}, rows
}
