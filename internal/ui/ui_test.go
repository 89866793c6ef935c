package ui

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evilb/openmotics/internal/api"
	"github.com/evilb/openmotics/internal/discovery"
	"github.com/evilb/openmotics/internal/events"
	"github.com/evilb/openmotics/internal/models"
)

func intp(v int) *int           { return &v }
func floatp(v float64) *float64 { return &v }

func TestPrinter_Table(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf).SetWidth(80)

	outputs := []models.Output{
		{ID: 1, Name: "Kitchen", Type: "LIGHT", Location: &models.Location{RoomID: intp(3)}, Status: &models.OutputStatus{On: true, Value: intp(60)}},
		{ID: 2, Name: "Pump", Type: "PUMP"},
	}
	headers, rows := OutputRows(outputs)
	require.NoError(t, p.PrintTable(outputs, headers, rows))

	out := buf.String()
	assert.Contains(t, out, "Kitchen")
	assert.Contains(t, out, "Pump")
	assert.Contains(t, out, "60")
	assert.Contains(t, out, "Room")
}

func TestPrinter_EmptyTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewPrinter(&buf).PrintTable([]models.Output{}, []string{"ID"}, nil))
	assert.Contains(t, buf.String(), "(none)")
}

func TestPrinter_JSON(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf).SetJSON(true)
	assert.True(t, p.JSON())

	sensors := []models.Sensor{{ID: 4, Name: "Living", Status: &models.SensorStatus{Temperature: floatp(21.5)}}}
	headers, rows := SensorRows(sensors)
	require.NoError(t, p.PrintTable(sensors, headers, rows))

	var decoded []models.Sensor
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	require.Len(t, decoded, 1)
	assert.Equal(t, 21.5, *decoded[0].Status.Temperature)

	buf.Reset()
	p.PrintHeader("ignored", "omctl", nil)
	assert.Empty(t, buf.String())

	p.PrintError("failed", api.NewAuthError(401, "rejected", nil))
	assert.Contains(t, buf.String(), `"result": "error"`)
}

func TestPrinter_SuccessAndHeader(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf).SetWidth(80)
	p.PrintHeader("Outputs", "omctl outputs list", map[string]string{"Installation": "21", "Mode": "cloud"})
	p.PrintSuccess("Output turned on", map[string]string{"Output": "18"})

	out := buf.String()
	assert.Contains(t, out, "OUTPUTS")
	assert.Contains(t, out, "omctl outputs list")
	assert.Less(t, strings.Index(out, "Installation"), strings.Index(out, "Mode"))
	assert.Contains(t, out, "Output turned on")
}

func TestPrinter_ErrorWithTroubleshooting(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf).SetWidth(100)
	p.PrintError("Could not list outputs", api.NewAuthError(0, "no access token configured", nil))

	out := buf.String()
	assert.Contains(t, out, "FAILED")
	assert.Contains(t, out, "Troubleshooting")
	assert.Contains(t, out, "OPENMOTICS_TOKEN")
}

func TestTroubleshooting(t *testing.T) {
	assert.Nil(t, Troubleshooting(nil))

	tips := Troubleshooting(api.NewAuthError(0, "missing", nil))
	require.NotEmpty(t, tips)
	for _, tip := range tips {
		assert.False(t, strings.HasPrefix(tip, "•"))
	}

	tips = Troubleshooting(errors.New("boom"))
	assert.Len(t, tips, 1)
}

func TestRows(t *testing.T) {
	h, rows := InstallationRows([]models.Installation{{ID: 21, Name: "Home", Flags: map[string]any{"ONLINE": true}}})
	assert.Len(t, h, len(rows[0]))

	h, rows = LightRows([]models.Light{{ID: 1, Name: "Hall"}})
	assert.Len(t, h, len(rows[0]))

	h, rows = GroupActionRows([]models.GroupAction{{ID: 2, Name: "Night", Usage: models.UsageScene, Actions: []int{0, 1}}})
	assert.Equal(t, "2", rows[0][3])
	assert.Len(t, h, len(rows[0]))

	h, rows = ShutterRows([]models.Shutter{{ID: 3, Name: "Blind", Status: &models.ShutterStatus{State: "UP", Position: intp(0)}}})
	assert.Equal(t, "UP", rows[0][3])
	assert.Len(t, h, len(rows[0]))

	h, rows = ThermostatGroupRows([]models.ThermostatGroup{{ID: 1, Name: "House"}})
	assert.Len(t, h, len(rows[0]))

	h, rows = ThermostatUnitRows([]models.ThermostatUnit{{ID: 5, Name: "Bath", Status: &models.ThermostatUnitStatus{CurrentSetpoint: floatp(22)}}})
	assert.Equal(t, "22.0°C", rows[0][5])
	assert.Len(t, h, len(rows[0]))

	h, rows = ResourceRows([]api.Resource{{ID: 9, Name: "Garage", State: "open"}})
	assert.Equal(t, "open", rows[0][3])
	assert.Len(t, h, len(rows[0]))

	h, rows = GatewayRows([]*discovery.Gateway{{Name: "Home", Hostname: "openmotics.local.", IP: "10.0.0.5", Port: 443}})
	assert.Equal(t, "openmotics.local", rows[0][1])
	assert.Equal(t, "https://10.0.0.5:443", rows[0][4])
	assert.Len(t, h, len(rows[0]))
}

func TestConfirm(t *testing.T) {
	var out bytes.Buffer
	assert.True(t, Confirm(strings.NewReader("y\n"), &out, "Overwrite?"))
	assert.True(t, Confirm(strings.NewReader("YES\n"), &out, "Overwrite?"))
	assert.False(t, Confirm(strings.NewReader("n\n"), &out, "Overwrite?"))
	assert.False(t, Confirm(strings.NewReader(""), &out, "Overwrite?"))
	assert.Contains(t, out.String(), "[y/N]")
}

func TestFormatEvent(t *testing.T) {
	ev, err := events.ParseEvent([]byte(`{"type":"OUTPUT_CHANGE","data":{"id":18,"installation_id":21,"status":{"on":true}}}`))
	require.NoError(t, err)

	line := FormatEvent(ev, 120)
	assert.Contains(t, line, "OUTPUT_CHANGE")
	assert.Contains(t, line, "id=18 installation=21")
	assert.Contains(t, line, `{"on":true}`)

	ev.Data = json.RawMessage(`{"payload":"` + strings.Repeat("x", 200) + `"}`)
	assert.Contains(t, FormatEvent(ev, 80), "...")
}

func TestWatchModel_Flow(t *testing.T) {
	ch := make(chan events.Event, 1)
	m := NewWatchModel("Events", func() (<-chan events.Event, error) { return ch, nil })
	assert.Contains(t, m.View(), "Connecting")

	next, cmd := m.Update(connectedMsg{events: ch})
	m = next.(WatchModel)
	require.NotNil(t, cmd)
	assert.Contains(t, m.View(), "Waiting for events")

	ch <- events.Event{Type: "OUTPUT_CHANGE", ID: 1, ReceivedAt: time.Now()}
	msg := cmd()
	next, _ = m.Update(msg)
	m = next.(WatchModel)
	assert.Equal(t, 1, m.Received())
	assert.Contains(t, m.View(), "OUTPUT_CHANGE")

	close(ch)
	next, cmd = m.Update(waitForEvent(ch)())
	require.NotNil(t, cmd)
	_, isQuit := cmd().(tea.QuitMsg)
	assert.True(t, isQuit)
	assert.NoError(t, next.(WatchModel).Err())
}

func TestWatchModel_HistoryIsBounded(t *testing.T) {
	m := NewWatchModel("Events", nil)
	m.connected = true
	for i := 0; i < DefaultWatchHistory+5; i++ {
		next, _ := m.Update(eventMsg(events.Event{Type: "SENSOR_CHANGE", ID: i}))
		m = next.(WatchModel)
	}
	assert.Len(t, m.history, DefaultWatchHistory)
	assert.Equal(t, 5, m.history[0].ID)
	assert.Equal(t, DefaultWatchHistory+5, m.Received())
}

func TestWatchModel_ConnectError(t *testing.T) {
	m := NewWatchModel("Events", nil)
	next, cmd := m.Update(connectedMsg{err: api.NewAuthError(401, "rejected", nil)})
	m = next.(WatchModel)
	require.Error(t, m.Err())
	require.NotNil(t, cmd)
	assert.Contains(t, m.View(), "Authentication failed")
}

func TestWatchModel_Quit(t *testing.T) {
	m := NewWatchModel("Events", nil)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	require.NotNil(t, cmd)
	_, isQuit := cmd().(tea.QuitMsg)
	assert.True(t, isQuit)
}

func pickerGateways() []*discovery.Gateway {
	return []*discovery.Gateway{
		{Name: "openmotics-hall", Hostname: "openmotics-hall.local.", IP: "10.0.0.5", Port: 443},
		{Name: "openmotics-barn", Hostname: "openmotics-barn.local.", IP: "10.0.0.6", Port: 80},
	}
}

func TestGatewayPicker_SelectAfterScan(t *testing.T) {
	m := NewGatewayPicker(func() ([]*discovery.Gateway, error) { return pickerGateways(), nil }, time.Second)
	require.NotNil(t, m.Init())

	var model tea.Model = m
	model, _ = model.Update(tea.WindowSizeMsg{Width: 80, Height: 30})
	model, _ = model.Update(scanStartMsg{})
	assert.Contains(t, model.View(), "SEARCHING FOR GATEWAYS")

	model, _ = model.Update(scanCompleteMsg{gateways: pickerGateways()})
	assert.Contains(t, model.View(), "openmotics-hall")

	model, _ = model.Update(tea.KeyMsg{Type: tea.KeyDown})
	model, cmd := model.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)

	gw := model.(GatewayPicker).Selected()
	require.NotNil(t, gw)
	assert.Equal(t, "10.0.0.6", gw.IP)
}

func TestGatewayPicker_ManualHost(t *testing.T) {
	var model tea.Model = NewGatewayPicker(nil, 0)
	model, _ = model.Update(scanCompleteMsg{})
	assert.Contains(t, model.View(), "No gateways found")

	model, _ = model.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("m")})
	assert.Contains(t, model.View(), "Gateway host or IP")
	for _, r := range "gw.lan" {
		model, _ = model.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	model, _ = model.Update(tea.KeyMsg{Type: tea.KeyEnter})

	gw := model.(GatewayPicker).Selected()
	require.NotNil(t, gw)
	assert.Equal(t, "gw.lan", gw.IP)
	assert.Equal(t, discovery.DefaultPort, gw.Port)
}

func TestGatewayPicker_ScanErrorAndQuit(t *testing.T) {
	var model tea.Model = NewGatewayPicker(nil, 0)
	model, _ = model.Update(scanCompleteMsg{err: errors.New("no multicast")})
	assert.Contains(t, model.View(), "no multicast")
	assert.Error(t, model.(GatewayPicker).Err())

	model, cmd := model.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	require.NotNil(t, cmd)
	assert.Nil(t, model.(GatewayPicker).Selected())
}
