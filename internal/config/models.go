package config

import (
	"time"

	"github.com/evilb/openmotics/internal/api"
	"github.com/evilb/openmotics/internal/bridge"
	"github.com/evilb/openmotics/internal/localgw"
)

const (
	// CurrentVersion is the config file schema version written on save.
	CurrentVersion = 1

	// Connection modes.
	ModeCloud = "cloud"
	ModeLocal = "local"

	// Output formats.
	FormatTable = "table"
	FormatJSON  = "json"
)

// Config is the whole configuration file.
type Config struct {
	Version     int                      `yaml:"version"`
	Mode        string                   `yaml:"mode"`
	Cloud       *CloudSettings           `yaml:"cloud,omitempty"`
	Local       *LocalSettings           `yaml:"local,omitempty"`
	Retry       *RetrySettings           `yaml:"retry,omitempty"`
	MQTT        *MQTTSettings            `yaml:"mqtt,omitempty"`
	Preferences *Preferences             `yaml:"preferences,omitempty"`
	Gateways    map[string]*KnownGateway `yaml:"gateways,omitempty"` // keyed by mDNS name
}

// CloudSettings selects the cloud API and installation.
type CloudSettings struct {
	BaseURL        string `yaml:"base_url,omitempty"`
	ClientID       string `yaml:"client_id,omitempty"` // OAuth2 client credentials; the secret comes from the environment
	InstallationID int    `yaml:"installation_id,omitempty"`
}

// LocalSettings points at a gateway on the LAN.
type LocalSettings struct {
	Host               string `yaml:"host,omitempty"`
	Port               int    `yaml:"port,omitempty"`
	PlainHTTP          bool   `yaml:"plain_http,omitempty"`
	InsecureSkipVerify bool   `yaml:"insecure_skip_verify,omitempty"`
	Username           string `yaml:"username,omitempty"`
}

// RetrySettings overrides the API retry policy. Zero values keep the defaults.
type RetrySettings struct {
	MaxRetries *int          `yaml:"max_retries,omitempty"`
	BaseDelay  time.Duration `yaml:"base_delay,omitempty"`
	MaxDelay   time.Duration `yaml:"max_delay,omitempty"`
	MaxElapsed time.Duration `yaml:"max_elapsed,omitempty"`
}

// MQTTSettings configures `omctl bridge mqtt`.
type MQTTSettings struct {
	Host     string `yaml:"host,omitempty"`
	Port     int    `yaml:"port,omitempty"`
	TLS      bool   `yaml:"tls,omitempty"`
	ClientID string `yaml:"client_id,omitempty"`
	Username string `yaml:"username,omitempty"`
	Prefix   string `yaml:"prefix,omitempty"`
	QoS      int    `yaml:"qos"`
}

// Preferences holds display and discovery defaults.
type Preferences struct {
	Format          string        `yaml:"format"`
	Timeout         time.Duration `yaml:"timeout,omitempty"`
	DiscoverTimeout int           `yaml:"discover_timeout"` // seconds
}

// KnownGateway records where a gateway was last seen.
type KnownGateway struct {
	LastIP   string    `yaml:"last_ip,omitempty"`
	Port     int       `yaml:"port,omitempty"`
	LastSeen time.Time `yaml:"last_seen,omitempty"`
}

// Secrets are the credentials that never touch the file.
type Secrets struct {
	Token        string
	ClientSecret string
	Password     string
	MQTTPassword string
}

// NewConfig returns a configuration with default values.
func NewConfig() *Config {
	c := &Config{Version: CurrentVersion}
	c.fillDefaults()
	return c
}

func (c *Config) fillDefaults() {
	if c.Mode == "" {
		c.Mode = ModeCloud
	}
	if c.Cloud == nil {
		c.Cloud = &CloudSettings{}
	}
	if c.Local == nil {
		c.Local = &LocalSettings{Port: localgw.DefaultPort}
	}
	if c.Retry == nil {
		c.Retry = &RetrySettings{}
	}
	if c.MQTT == nil {
		c.MQTT = &MQTTSettings{Port: bridge.DefaultPort, Prefix: bridge.DefaultPrefix, QoS: bridge.DefaultQoS}
	}
	if c.Preferences == nil {
		c.Preferences = &Preferences{Format: FormatTable, DiscoverTimeout: 5}
	}
	if c.Gateways == nil {
		c.Gateways = make(map[string]*KnownGateway)
	}
}

// RememberGateway records a discovered gateway.
func (c *Config) RememberGateway(name, ip string, port int) {
	if c.Gateways == nil {
		c.Gateways = make(map[string]*KnownGateway)
	}
	c.Gateways[name] = &KnownGateway{LastIP: ip, Port: port, LastSeen: time.Now()}
}

// RetryPolicy merges the retry overrides into the API defaults.
func (c *Config) RetryPolicy() *api.RetryPolicy {
	p := api.DefaultRetryPolicy()
	if c.Retry == nil {
		return p
	}
	if c.Retry.MaxRetries != nil {
		p.MaxRetries = max(*c.Retry.MaxRetries, 0)
	}
	if c.Retry.BaseDelay > 0 {
		p.BaseDelay = c.Retry.BaseDelay
	}
	if c.Retry.MaxDelay > 0 {
		p.MaxDelay = c.Retry.MaxDelay
	}
	if c.Retry.MaxElapsed > 0 {
		p.MaxElapsed = c.Retry.MaxElapsed
	}
	return p
}

// LocalGateway builds a gateway client configuration.
func (c *Config) LocalGateway(s Secrets) localgw.Config {
	l := c.Local
	if l == nil {
		l = &LocalSettings{}
	}
	return localgw.Config{
		Host:               l.Host,
		Port:               l.Port,
		PlainHTTP:          l.PlainHTTP,
		InsecureSkipVerify: l.InsecureSkipVerify,
		Username:           l.Username,
		Password:           s.Password,
		Retry:              c.RetryPolicy(),
	}
}

// Bridge builds the MQTT broker configuration.
func (c *Config) Bridge(s Secrets) bridge.Config {
	m := c.MQTT
	if m == nil {
		m = &MQTTSettings{}
	}
	return bridge.Config{
		Host:     m.Host,
		Port:     m.Port,
		TLS:      m.TLS,
		ClientID: m.ClientID,
		Username: m.Username,
		Password: s.MQTTPassword,
		Prefix:   m.Prefix,
		QoS:      m.QoS,
	}
}
