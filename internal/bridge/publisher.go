package bridge

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"

	"github.com/evilb/openmotics/internal/logging"
)

// Publisher sends MQTT messages.
type Publisher interface {
	Publish(topic string, qos byte, retained bool, payload []byte) error
	IsConnected() bool
	Close() error
}

// Client is the paho-backed Publisher.
type Client struct {
	client pahomqtt.Client
	cfg    Config
	topics Topics
	logger *zap.Logger

	mu        sync.RWMutex
	connected bool
}

// Connect dials the broker, registers the Last Will and announces the bridge
// as online.
func Connect(cfg Config) (*Client, error) {
	cfg.setDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	c := &Client{
		cfg:    cfg,
		topics: Topics{Prefix: cfg.Prefix},
		logger: logging.GetLogger(),
	}

	opts := buildClientOptions(cfg)
	configureLWT(opts, c.topics, cfg.ClientID, byte(cfg.QoS))
	opts.SetOnConnectHandler(func(pahomqtt.Client) { c.handleConnect() })
	opts.SetConnectionLostHandler(func(_ pahomqtt.Client, err error) { c.handleDisconnect(err) })

	c.client = pahomqtt.NewClient(opts)
	token := c.client.Connect()
	if !token.WaitTimeout(defaultConnectTimeout) {
		return nil, fmt.Errorf("%w: timeout after %v", ErrConnectionFailed, defaultConnectTimeout)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}

	// the connect handler runs asynchronously
	c.setConnected(true)
	return c, nil
}

func (c *Client) setConnected(v bool) {
	c.mu.Lock()
	c.connected = v
	c.mu.Unlock()
}

func (c *Client) handleConnect() {
	c.setConnected(true)
	c.logger.Info("mqtt connected", zap.String("broker", c.cfg.BrokerURL()))
	c.client.Publish(c.topics.Status(), byte(c.cfg.QoS), true, statusPayload(true, c.cfg.ClientID, ""))
}

func (c *Client) handleDisconnect(err error) {
	c.setConnected(false)
	c.logger.Warn("mqtt connection lost", zap.Error(err))
}

// IsConnected reports the last known connection state.
func (c *Client) IsConnected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.connected && c.client.IsConnected()
}

// Publish sends payload and waits for the broker to acknowledge it.
func (c *Client) Publish(topic string, qos byte, retained bool, payload []byte) error {
	if topic == "" {
		return ErrInvalidTopic
	}
	if qos > maxQoS {
		return ErrInvalidQoS
	}
	if !c.IsConnected() {
		return ErrNotConnected
	}
	token := c.client.Publish(topic, qos, retained, payload)
	if !token.WaitTimeout(defaultPublishTimeout) {
		return fmt.Errorf("%w: publish to %s", ErrTimeout, topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %w", ErrPublishFailed, err)
	}
	return nil
}

// Close publishes a graceful offline status and disconnects.
func (c *Client) Close() error {
	if c.client == nil {
		return nil
	}
	if c.IsConnected() {
		token := c.client.Publish(c.topics.Status(), byte(c.cfg.QoS), true, statusPayload(false, c.cfg.ClientID, "shutdown"))
		token.WaitTimeout(defaultPublishTimeout)
	}
	c.client.Disconnect(defaultDisconnectQuiesce)
	c.setConnected(false)
	return nil
}

type status struct {
	Status   string `json:"status"`
	ClientID string `json:"client_id"`
	Reason   string `json:"reason,omitempty"`
	Time     int64  `json:"timestamp"`
}

func statusPayload(online bool, clientID, reason string) []byte {
	s := status{Status: "offline", ClientID: clientID, Reason: reason, Time: time.Now().Unix()}
	if online {
		s.Status = "online"
	}
	data, _ := json.Marshal(s)
	return data
}
