package bridge

import (
	"crypto/tls"
	"fmt"
	"os"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
)

const (
	defaultConnectTimeout = 10 * time.Second
	defaultPublishTimeout = 5 * time.Second

	// milliseconds
	defaultDisconnectQuiesce = 1000

	defaultKeepAlive = 60 * time.Second

	// DefaultPort is the plain MQTT broker port.
	DefaultPort = 1883
	// DefaultPrefix is the first topic segment of every published message.
	DefaultPrefix = "openmotics"
	// DefaultQoS is at-least-once delivery.
	DefaultQoS = 1

	maxQoS = 2
)

// Config describes the broker connection.
type Config struct {
	Host string
	// Port defaults to 1883
	Port int
	TLS  bool

	// ClientID defaults to "omctl-<hostname>"
	ClientID string
	Username string
	Password string

	// Prefix is the first topic segment
	Prefix string
	QoS    int

	ReconnectInitial time.Duration
	ReconnectMax     time.Duration
}

func (c *Config) setDefaults() {
	if c.Port == 0 {
		c.Port = DefaultPort
	}
	if c.ClientID == "" {
		host, _ := os.Hostname()
		if host == "" {
			host = "local"
		}
		c.ClientID = "omctl-" + host
	}
	if c.Prefix == "" {
		c.Prefix = DefaultPrefix
	}
	if c.ReconnectInitial <= 0 {
		c.ReconnectInitial = time.Second
	}
	if c.ReconnectMax < c.ReconnectInitial {
		c.ReconnectMax = max(time.Minute, c.ReconnectInitial)
	}
}

func (c *Config) validate() error {
	if c.Host == "" {
		return fmt.Errorf("%w: broker host is required", ErrConnectionFailed)
	}
	if c.QoS < 0 || c.QoS > maxQoS {
		return ErrInvalidQoS
	}
	return nil
}

// BrokerURL returns tcp:// or ssl:// followed by host and port.
func (c Config) BrokerURL() string {
	scheme := "tcp"
	if c.TLS {
		scheme = "ssl"
	}
	port := c.Port
	if port == 0 {
		port = DefaultPort
	}
	return fmt.Sprintf("%s://%s:%d", scheme, c.Host, port)
}

func buildClientOptions(cfg Config) *pahomqtt.ClientOptions {
	opts := pahomqtt.NewClientOptions()
	opts.AddBroker(cfg.BrokerURL())
	opts.SetClientID(cfg.ClientID)

	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}

	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(cfg.ReconnectInitial)
	opts.SetMaxReconnectInterval(cfg.ReconnectMax)
	opts.SetConnectTimeout(defaultConnectTimeout)
	opts.SetKeepAlive(defaultKeepAlive)

	if cfg.TLS {
		opts.SetTLSConfig(&tls.Config{MinVersion: tls.VersionTLS12})
	}
	return opts
}

// configureLWT registers the retained offline status the broker publishes
// when the bridge disappears without disconnecting.
func configureLWT(opts *pahomqtt.ClientOptions, topics Topics, clientID string, qos byte) {
	opts.SetWill(topics.Status(), string(statusPayload(false, clientID, "connection_lost")), qos, true)
}
