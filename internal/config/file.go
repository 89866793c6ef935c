package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"gopkg.in/yaml.v3"
)

const (
	appName    = "openmotics"
	configFile = "config.yaml"

	// Environment variables that override the config file.
	EnvConfig       = "OPENMOTICS_CONFIG"
	EnvToken        = "OPENMOTICS_TOKEN"
	EnvClientSecret = "OPENMOTICS_CLIENT_SECRET"
	EnvPassword     = "OPENMOTICS_PASSWORD"
	EnvMQTTPassword = "OPENMOTICS_MQTT_PASSWORD"
)

var fileMutex sync.Mutex

// GetConfigDir returns the OS-appropriate configuration directory.
func GetConfigDir() (string, error) {
	var baseDir string

	switch runtime.GOOS {
	case "windows":
		localAppData := os.Getenv("LOCALAPPDATA")
		if localAppData == "" {
			userProfile := os.Getenv("USERPROFILE")
			if userProfile == "" {
				return "", fmt.Errorf("cannot determine user profile directory (LOCALAPPDATA and USERPROFILE not set)")
			}
			baseDir = filepath.Join(userProfile, "AppData", "Local", appName)
		} else {
			baseDir = filepath.Join(localAppData, appName)
		}

	case "darwin":
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("cannot determine home directory: %w", err)
		}
		baseDir = filepath.Join(homeDir, ".config", appName)

	default:
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			baseDir = filepath.Join(xdg, appName)
		} else {
			homeDir, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("cannot determine home directory: %w", err)
			}
			baseDir = filepath.Join(homeDir, ".config", appName)
		}
	}

	return baseDir, nil
}

// GetConfigPath returns the configuration file path, honouring OPENMOTICS_CONFIG.
func GetConfigPath() (string, error) {
	if p := os.Getenv(EnvConfig); p != "" {
		return p, nil
	}
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, configFile), nil
}

func resolvePath(path string) (string, error) {
	if path != "" {
		return path, nil
	}
	p, err := GetConfigPath()
	if err != nil {
		return "", fmt.Errorf("failed to get config path: %w", err)
	}
	return p, nil
}

// Load reads the configuration at path, or the default location when path
// is empty. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	path, err := resolvePath(path)
	if err != nil {
		return nil, err
	}
	return loadFromFile(path)
}

func loadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return NewConfig(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return parse(data)
}

func parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if cfg.Version == 0 {
		cfg.Version = CurrentVersion
	}
	if cfg.Version != CurrentVersion {
		return nil, fmt.Errorf("unsupported config version: %d (expected %d)", cfg.Version, CurrentVersion)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.fillDefaults()
	return &cfg, nil
}

// Validate checks enumerated values.
func (c *Config) Validate() error {
	switch c.Mode {
	case "", ModeCloud, ModeLocal:
	default:
		return fmt.Errorf("invalid mode %q (expected %q or %q)", c.Mode, ModeCloud, ModeLocal)
	}
	if c.Preferences != nil {
		switch c.Preferences.Format {
		case "", FormatTable, FormatJSON:
		default:
			return fmt.Errorf("invalid format %q (expected %q or %q)", c.Preferences.Format, FormatTable, FormatJSON)
		}
	}
	if c.MQTT != nil && (c.MQTT.QoS < 0 || c.MQTT.QoS > 2) {
		return fmt.Errorf("invalid mqtt qos %d", c.MQTT.QoS)
	}
	return nil
}

func marshal(c *Config, path string) ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	header := []byte(`# OpenMotics client configuration
#
# Tokens, client secrets and passwords are NEVER stored here. Provide them with
# ` + EnvToken + `, ` + EnvClientSecret + `, ` + EnvPassword + ` and
# ` + EnvMQTTPassword + `, or enter them when prompted.
#
# Location: ` + path + `

`)
	return append(header, data...), nil
}

// Save writes the configuration atomically with owner-only permissions.
func (c *Config) Save(path string) error {
	fileMutex.Lock()
	defer fileMutex.Unlock()

	path, err := resolvePath(path)
	if err != nil {
		return err
	}
	if err := c.Validate(); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := marshal(c, path)
	if err != nil {
		return err
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0600); err != nil {
		return fmt.Errorf("failed to write temporary config file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to save config file: %w", err)
	}
	return nil
}

// SecretsFromEnv reads credentials from the environment.
func SecretsFromEnv() Secrets {
	return Secrets{
		Token:        os.Getenv(EnvToken),
		ClientSecret: os.Getenv(EnvClientSecret),
		Password:     os.Getenv(EnvPassword),
		MQTTPassword: os.Getenv(EnvMQTTPassword),
	}
}
