package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evilb/openmotics/internal/events"
	"github.com/evilb/openmotics/internal/models"
)

type message struct {
	Topic    string
	QoS      byte
	Retained bool
	Payload  []byte
}

type fakePublisher struct {
	mu       sync.Mutex
	messages []message
	fail     error
}

func (f *fakePublisher) Publish(topic string, qos byte, retained bool, payload []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return f.fail
	}
	f.messages = append(f.messages, message{topic, qos, retained, payload})
	return nil
}

func (f *fakePublisher) IsConnected() bool { return true }
func (f *fakePublisher) Close() error      { return nil }

func (f *fakePublisher) sent() []message {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]message(nil), f.messages...)
}

func TestTopics(t *testing.T) {
	assert.Equal(t, "openmotics/21/output/18", Topics{}.State(21, "output", 18))
	assert.Equal(t, "home/21/sensor/3", Topics{Prefix: "/home/"}.State(21, "sensor", 3))
	assert.Equal(t, "home/bridge/status", Topics{Prefix: "home"}.Status())
	assert.Equal(t, "home/21", Topics{Prefix: "/home/"}.Installation(21))
}

func TestKind(t *testing.T) {
	tests := map[string]string{
		"OUTPUT_CHANGE":           "output",
		"SENSOR_CHANGE":           "sensor",
		"THERMOSTAT_GROUP_CHANGE": "thermostat-group",
		"SHUTTER_CHANGE":          "shutter",
		"INPUT_TRIGGER":           "input-trigger",
		"":                        "unknown",
	}
	for in, want := range tests {
		assert.Equal(t, want, Kind(in), in)
	}
}

func TestBridge_PublishEvent(t *testing.T) {
	pub := &fakePublisher{}
	b := New(pub, "om", 1)

	ev, err := events.ParseEvent([]byte(`{"type":"OUTPUT_CHANGE","data":{"id":18,"installation_id":21,"status":{"on":true,"value":40}}}`))
	require.NoError(t, err)
	require.NoError(t, b.PublishEvent(ev))

	sent := pub.sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "om/21/output/18", sent[0].Topic)
	assert.True(t, sent[0].Retained)
	assert.Equal(t, byte(1), sent[0].QoS)

	var st State
	require.NoError(t, json.Unmarshal(sent[0].Payload, &st))
	assert.Equal(t, 18, st.ID)
	assert.Equal(t, 21, st.InstallationID)
	assert.JSONEq(t, `{"on":true,"value":40}`, string(st.Status))
	assert.Nil(t, st.Data)
	assert.Equal(t, 1, b.Published())
}

func TestBridge_PublishEvent_DefaultInstallation(t *testing.T) {
	pub := &fakePublisher{}
	b := New(pub, "", 9)
	b.Installation = 7

	require.NoError(t, b.PublishEvent(events.Event{Type: "SENSOR_CHANGE", ID: 2, Data: json.RawMessage(`{"id":2,"value":21.5}`)}))

	sent := pub.sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "openmotics/7/sensor/2", sent[0].Topic)
	assert.Equal(t, byte(DefaultQoS), sent[0].QoS)

	var st State
	require.NoError(t, json.Unmarshal(sent[0].Payload, &st))
	assert.JSONEq(t, `{"id":2,"value":21.5}`, string(st.Data))
	assert.False(t, st.UpdatedAt.IsZero())
}

func TestBridge_PublishOutputs(t *testing.T) {
	pub := &fakePublisher{}
	b := New(pub, "om", 0)

	outputs := []models.Output{
		{ID: 1, Name: "Kitchen", Status: &models.OutputStatus{On: true}},
		{ID: 2, Name: "Hall"},
	}
	require.NoError(t, b.PublishOutputs(21, outputs))

	sent := pub.sent()
	require.Len(t, sent, 2)
	assert.Equal(t, "om/21/output/1", sent[0].Topic)
	assert.Contains(t, string(sent[0].Payload), `"on":true`)
	assert.NotContains(t, string(sent[1].Payload), `"status"`)
}

func TestBridge_RunForwardsUntilClosed(t *testing.T) {
	pub := &fakePublisher{}
	b := New(pub, "om", 1)

	in := make(chan events.Event, 2)
	in <- events.Event{Type: "OUTPUT_CHANGE", ID: 1, InstallationID: 3}
	in <- events.Event{Type: "OUTPUT_CHANGE", ID: 2, InstallationID: 3}
	close(in)

	require.NoError(t, b.Run(context.Background(), in))
	assert.Len(t, pub.sent(), 2)
}

func TestBridge_RunSurvivesPublishErrors(t *testing.T) {
	pub := &fakePublisher{fail: ErrNotConnected}
	b := New(pub, "om", 1)

	in := make(chan events.Event, 1)
	in <- events.Event{Type: "OUTPUT_CHANGE", ID: 1, InstallationID: 3}
	close(in)

	require.NoError(t, b.Run(context.Background(), in))
	assert.Zero(t, b.Published())

	err := b.PublishEvent(events.Event{Type: "OUTPUT_CHANGE", ID: 1})
	assert.True(t, errors.Is(err, ErrNotConnected))
}

func TestBridge_RunStopsOnCancel(t *testing.T) {
	b := New(&fakePublisher{}, "om", 1)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- b.Run(ctx, make(chan events.Event)) }()
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("Run did not return")
	}
}

func TestConfig(t *testing.T) {
	cfg := Config{Host: "broker"}
	cfg.setDefaults()
	assert.Equal(t, DefaultPort, cfg.Port)
	assert.Equal(t, DefaultPrefix, cfg.Prefix)
	assert.Contains(t, cfg.ClientID, "omctl-")
	assert.Equal(t, "tcp://broker:1883", cfg.BrokerURL())
	assert.NoError(t, cfg.validate())

	cfg.TLS = true
	cfg.Port = 8883
	assert.Equal(t, "ssl://broker:8883", cfg.BrokerURL())

	assert.ErrorIs(t, (&Config{}).validate(), ErrConnectionFailed)
	assert.ErrorIs(t, (&Config{Host: "b", QoS: 3}).validate(), ErrInvalidQoS)
}

func TestBuildClientOptions(t *testing.T) {
	cfg := Config{Host: "broker", Username: "u", Password: "p", TLS: true}
	cfg.setDefaults()
	opts := buildClientOptions(cfg)
	configureLWT(opts, Topics{Prefix: cfg.Prefix}, cfg.ClientID, 1)

	require.Len(t, opts.Servers, 1)
	assert.Equal(t, "ssl", opts.Servers[0].Scheme)
	assert.Equal(t, "u", opts.Username)
	assert.True(t, opts.AutoReconnect)
	assert.NotNil(t, opts.TLSConfig)
	assert.True(t, opts.WillEnabled)
	assert.True(t, opts.WillRetained)
	assert.Equal(t, "openmotics/bridge/status", opts.WillTopic)
	assert.Contains(t, string(opts.WillPayload), `"offline"`)
}

func TestStatusPayload(t *testing.T) {
	var s status
	require.NoError(t, json.Unmarshal(statusPayload(true, "id", ""), &s))
	assert.Equal(t, "online", s.Status)
	assert.Equal(t, "id", s.ClientID)
	assert.Empty(t, s.Reason)
}
