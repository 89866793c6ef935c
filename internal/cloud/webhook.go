package cloud

import (
	"context"
	"fmt"
)

// Event types delivered by the cloud
const (
	EventOutputChange          = "OUTPUT_CHANGE"
	EventSensorChange          = "SENSOR_CHANGE"
	EventShutterChange         = "SHUTTER_CHANGE"
	EventThermostatChange      = "THERMOSTAT_CHANGE"
	EventThermostatGroupChange = "THERMOSTAT_GROUP_CHANGE"
	EventVentilationChange     = "VENTILATION_CHANGE"
)

// DefaultEventTypes is the subscription used when none is given.
var DefaultEventTypes = []string{
	EventOutputChange,
	EventSensorChange,
	EventShutterChange,
	EventThermostatChange,
	EventThermostatGroupChange,
	EventVentilationChange,
}

const eventsPath = "/ws/events"

// Subscription is the set_subscription action payload.
type Subscription struct {
	Types           []string `json:"types"`
	InstallationIDs []int    `json:"installation_ids"`
	URL             string   `json:"url,omitempty"`
}

type subscriptionAction struct {
	Type string             `json:"type"`
	Data subscriptionParams `json:"data"`
}

type subscriptionParams struct {
	Action string `json:"action"`
	Subscription
}

// NewSubscriptionAction builds the ACTION message shared by the webhook
// endpoint and the websocket stream.
func NewSubscriptionAction(sub Subscription) any {
	if len(sub.Types) == 0 {
		sub.Types = DefaultEventTypes
	}
	if sub.InstallationIDs == nil {
		sub.InstallationIDs = []int{}
	}
	return subscriptionAction{
		Type: "ACTION",
		Data: subscriptionParams{Action: "set_subscription", Subscription: sub},
	}
}

// SubscribeWebhook asks the cloud to POST change events for the selected
// installation to webhookURL.
func (c *Client) SubscribeWebhook(ctx context.Context, webhookURL string, types ...string) error {
	iid := c.InstallationID()
	if iid <= 0 {
		return ErrNoInstallation
	}
	action := NewSubscriptionAction(Subscription{
		Types:           types,
		InstallationIDs: []int{iid},
		URL:             webhookURL,
	})
	if err := c.action(ctx, eventsPath, action); err != nil {
		return fmt.Errorf("subscribe webhook: %w", err)
	}
	return nil
}

// UnsubscribeWebhook removes the webhook subscription.
func (c *Client) UnsubscribeWebhook(ctx context.Context) error {
	if _, err := c.api.Delete(ctx, eventsPath); err != nil {
		return fmt.Errorf("unsubscribe webhook: %w", err)
	}
	return nil
}
