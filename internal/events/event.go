package events

import (
	"encoding/json"
	"errors"
	"time"
)

// Event is one change notification.
type Event struct {
	Type           string          `json:"type"`
	ID             int             `json:"id"`
	InstallationID int             `json:"installation_id"`
	Data           json.RawMessage `json:"data,omitempty"`
	ReceivedAt     time.Time       `json:"received_at"`
}

type wireEvent struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type wireData struct {
	ID             *int `json:"id"`
	InstallationID *int `json:"installation_id"`
}

var errNoType = errors.New("event without type")

// ParseEvent decodes a websocket message of the form
// {"type": "OUTPUT_CHANGE", "data": {"id": 18, "installation_id": 21, ...}}.
func ParseEvent(msg []byte) (Event, error) {
	var w wireEvent
	if err := json.Unmarshal(msg, &w); err != nil {
		return Event{}, err
	}
	if w.Type == "" {
		return Event{}, errNoType
	}

	ev := Event{Type: w.Type, Data: w.Data, ReceivedAt: time.Now()}
	if len(w.Data) > 0 {
		var d wireData
		if err := json.Unmarshal(w.Data, &d); err == nil {
			if d.ID != nil {
				ev.ID = *d.ID
			}
			if d.InstallationID != nil {
				ev.InstallationID = *d.InstallationID
			}
		}
	}
	return ev, nil
}

// Status extracts the "status" member of the event data, if any.
func (e Event) Status() json.RawMessage {
	var d struct {
		Status json.RawMessage `json:"status"`
	}
	if err := json.Unmarshal(e.Data, &d); err != nil {
		return nil
	}
	return d.Status
}
