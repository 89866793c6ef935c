package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/evilb/openmotics/internal/events"
	"github.com/evilb/openmotics/internal/logging"
	"github.com/evilb/openmotics/internal/models"
)

// State is the retained payload for one item.
type State struct {
	Type           string          `json:"type"`
	ID             int             `json:"id"`
	InstallationID int             `json:"installation_id"`
	Status         json.RawMessage `json:"status,omitempty"`
	Data           json.RawMessage `json:"data,omitempty"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// Bridge forwards events to a Publisher.
type Bridge struct {
	pub    Publisher
	topics Topics
	qos    byte
	logger *zap.Logger

	// Installation is used for events that carry no installation id
	Installation int

	published atomic.Int64
}

// New returns a bridge publishing under prefix with the given QoS.
func New(pub Publisher, prefix string, qos int) *Bridge {
	if qos < 0 || qos > maxQoS {
		qos = DefaultQoS
	}
	return &Bridge{
		pub:    pub,
		topics: Topics{Prefix: prefix},
		qos:    byte(qos),
		logger: logging.GetLogger(),
	}
}

// SetLogger replaces the logger.
func (b *Bridge) SetLogger(l *zap.Logger) {
	if l != nil {
		b.logger = l
	}
}

// Published returns how many state messages have been sent.
func (b *Bridge) Published() int { return int(b.published.Load()) }

// Topics returns the topic builder in use.
func (b *Bridge) Topics() Topics { return b.topics }

// Run publishes every event from in until the channel closes or ctx ends.
// Publish failures are logged and do not stop the bridge.
func (b *Bridge) Run(ctx context.Context, in <-chan events.Event) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-in:
			if !ok {
				return nil
			}
			if err := b.PublishEvent(ev); err != nil {
				b.logger.Warn("failed to publish event",
					zap.String("type", ev.Type), zap.Int("id", ev.ID), zap.Error(err))
			}
		}
	}
}

// PublishEvent publishes one event as retained state.
func (b *Bridge) PublishEvent(ev events.Event) error {
	iid := ev.InstallationID
	if iid == 0 {
		iid = b.Installation
	}
	st := State{
		Type:           ev.Type,
		ID:             ev.ID,
		InstallationID: iid,
		Status:         ev.Status(),
		UpdatedAt:      ev.ReceivedAt,
	}
	if st.Status == nil {
		st.Data = ev.Data
	}
	if st.UpdatedAt.IsZero() {
		st.UpdatedAt = time.Now()
	}
	return b.publishState(b.topics.State(iid, Kind(ev.Type), ev.ID), st)
}

// PublishOutputs seeds the retained state of every output, so subscribers
// have a value before the first change arrives.
func (b *Bridge) PublishOutputs(installationID int, outputs []models.Output) error {
	for _, o := range outputs {
		st := State{
			Type:           "OUTPUT_CHANGE",
			ID:             o.ID,
			InstallationID: installationID,
			UpdatedAt:      time.Now(),
		}
		if o.Status != nil {
			status, err := json.Marshal(o.Status)
			if err != nil {
				return fmt.Errorf("encode output %d: %w", o.ID, err)
			}
			st.Status = status
		}
		if err := b.publishState(b.topics.State(installationID, "output", o.ID), st); err != nil {
			return err
		}
	}
	return nil
}

func (b *Bridge) publishState(topic string, st State) error {
	payload, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	if err := b.pub.Publish(topic, b.qos, true, payload); err != nil {
		return fmt.Errorf("publish %s: %w", topic, err)
	}
	b.published.Add(1)
	b.logger.Debug("state published", zap.String("topic", topic))
	return nil
}
