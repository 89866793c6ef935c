package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/evilb/openmotics/internal/api"
	"github.com/evilb/openmotics/internal/config"
	"github.com/evilb/openmotics/internal/ui"
)

// updateConfig loads the file without flag overrides, applies fn and saves.
func updateConfig(fn func(cfg *config.Config) error) error {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return api.NewConfigurationError("failed to load configuration", err)
	}
	if err := fn(cfg); err != nil {
		return api.NewConfigurationError("invalid configuration", err)
	}
	if err := cfg.Save(opts.configPath); err != nil {
		return api.NewConfigurationError("failed to save configuration", err)
	}
	return nil
}

func configPath() string {
	if opts.configPath != "" {
		return opts.configPath
	}
	p, err := config.GetConfigPath()
	if err != nil {
		return "(unknown)"
	}
	return p
}

func saved(details map[string]string) {
	if details == nil {
		details = map[string]string{}
	}
	details["File"] = configPath()
	sess.printer.PrintSuccess("Configuration saved", details)
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the configuration file",
}

var configForce bool

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a configuration file with default values",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		path := configPath()
		if _, err := os.Stat(path); err == nil && !configForce {
			if !ui.Confirm(cmd.InOrStdin(), cmd.OutOrStdout(), fmt.Sprintf("%s exists. Overwrite?", path)) {
				sess.printer.Println(ui.MutedStyle.Render("Left unchanged."))
				return nil
			}
		}
		if err := config.NewConfig().Save(opts.configPath); err != nil {
			return api.NewConfigurationError("failed to save configuration", err)
		}
		saved(nil)
		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Long:  "Print the configuration after flag overrides. Secrets are only reported as set or unset.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		secrets := map[string]string{
			config.EnvToken:        setOrUnset(sess.secrets.Token),
			config.EnvClientSecret: setOrUnset(sess.secrets.ClientSecret),
			config.EnvPassword:     setOrUnset(sess.secrets.Password),
			config.EnvMQTTPassword: setOrUnset(sess.secrets.MQTTPassword),
		}
		if sess.printer.JSON() {
			return sess.printer.PrintJSON(struct {
				Path    string            `json:"path"`
				Config  *config.Config    `json:"config"`
				Secrets map[string]string `json:"secrets"`
			}{configPath(), sess.cfg, secrets})
		}
		data, err := yaml.Marshal(sess.cfg)
		if err != nil {
			return err
		}
		sess.printer.PrintHeader("Configuration", configPath(), secrets)
		sess.printer.Print(string(data))
		return nil
	},
}

func setOrUnset(v string) string {
	if v == "" {
		return "unset"
	}
	return "set"
}

var configSetModeCmd = &cobra.Command{
	Use:       "set-mode <cloud|local>",
	Short:     "Choose the default backend",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{config.ModeCloud, config.ModeLocal},
	RunE: func(cmd *cobra.Command, args []string) error {
		err := updateConfig(func(cfg *config.Config) error {
			cfg.Mode = args[0]
			return cfg.Validate()
		})
		if err != nil {
			return err
		}
		saved(map[string]string{"Mode": args[0]})
		return nil
	},
}

var configSetFormatCmd = &cobra.Command{
	Use:       "set-format <table|json>",
	Short:     "Choose the default output format",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{config.FormatTable, config.FormatJSON},
	RunE: func(cmd *cobra.Command, args []string) error {
		err := updateConfig(func(cfg *config.Config) error {
			cfg.Preferences.Format = args[0]
			return cfg.Validate()
		})
		if err != nil {
			return err
		}
		saved(map[string]string{"Format": args[0]})
		return nil
	},
}

var configSetInstallationCmd = &cobra.Command{
	Use:   "set-installation <id>",
	Short: "Select the cloud installation used by default",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		if err := updateConfig(func(cfg *config.Config) error {
			cfg.Cloud.InstallationID = id
			return nil
		}); err != nil {
			return err
		}
		saved(map[string]string{"Installation": strconv.Itoa(id)})
		return nil
	},
}

var localFlags struct {
	port      int
	username  string
	plainHTTP bool
	insecure  bool
}

var configSetLocalCmd = &cobra.Command{
	Use:   "set-local <host>",
	Short: "Configure the gateway used in local mode",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f := cmd.Flags()
		if err := updateConfig(func(cfg *config.Config) error {
			cfg.Local.Host = args[0]
			if f.Changed("port") {
				cfg.Local.Port = localFlags.port
			}
			if f.Changed("username") {
				cfg.Local.Username = localFlags.username
			}
			if f.Changed("plain-http") {
				cfg.Local.PlainHTTP = localFlags.plainHTTP
			}
			if f.Changed("insecure-skip-verify") {
				cfg.Local.InsecureSkipVerify = localFlags.insecure
			}
			return nil
		}); err != nil {
			return err
		}
		saved(map[string]string{"Host": args[0]})
		return nil
	},
}

var cloudFlags struct {
	baseURL  string
	clientID string
}

var configSetCloudCmd = &cobra.Command{
	Use:   "set-cloud",
	Short: "Configure the cloud endpoint and OAuth client",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		f := cmd.Flags()
		details := map[string]string{}
		if err := updateConfig(func(cfg *config.Config) error {
			if f.Changed("base-url") {
				cfg.Cloud.BaseURL = cloudFlags.baseURL
				details["Base URL"] = cloudFlags.baseURL
			}
			if f.Changed("client-id") {
				cfg.Cloud.ClientID = cloudFlags.clientID
				details["Client ID"] = cloudFlags.clientID
			}
			return nil
		}); err != nil {
			return err
		}
		saved(details)
		return nil
	},
}

var mqttFlags struct {
	port     int
	tls      bool
	clientID string
	username string
	prefix   string
	qos      int
}

var configSetMQTTCmd = &cobra.Command{
	Use:   "set-mqtt <host>",
	Short: "Configure the broker used by 'bridge mqtt'",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f := cmd.Flags()
		if err := updateConfig(func(cfg *config.Config) error {
			m := cfg.MQTT
			m.Host = args[0]
			if f.Changed("port") {
				m.Port = mqttFlags.port
			}
			if f.Changed("tls") {
				m.TLS = mqttFlags.tls
			}
			if f.Changed("client-id") {
				m.ClientID = mqttFlags.clientID
			}
			if f.Changed("username") {
				m.Username = mqttFlags.username
			}
			if f.Changed("prefix") {
				m.Prefix = mqttFlags.prefix
			}
			if f.Changed("qos") {
				m.QoS = mqttFlags.qos
			}
			return cfg.Validate()
		}); err != nil {
			return err
		}
		saved(map[string]string{"Broker": args[0]})
		return nil
	},
}

func init() {
	configInitCmd.Flags().BoolVar(&configForce, "force", false, "Overwrite without asking")

	lf := configSetLocalCmd.Flags()
	lf.IntVar(&localFlags.port, "port", 0, "Gateway port (0: 443, or 80 with --plain-http)")
	lf.StringVar(&localFlags.username, "username", "", "Gateway user")
	lf.BoolVar(&localFlags.plainHTTP, "plain-http", false, "Use http instead of https")
	lf.BoolVar(&localFlags.insecure, "insecure-skip-verify", false, "Accept self-signed certificates")

	cf := configSetCloudCmd.Flags()
	cf.StringVar(&cloudFlags.baseURL, "base-url", "", "Cloud API base URL")
	cf.StringVar(&cloudFlags.clientID, "client-id", "", "OAuth2 client id (secret via "+config.EnvClientSecret+")")

	mf := configSetMQTTCmd.Flags()
	mf.IntVar(&mqttFlags.port, "port", 1883, "Broker port")
	mf.BoolVar(&mqttFlags.tls, "tls", false, "Connect with TLS")
	mf.StringVar(&mqttFlags.clientID, "client-id", "", "MQTT client id")
	mf.StringVar(&mqttFlags.username, "username", "", "Broker user (password via "+config.EnvMQTTPassword+")")
	mf.StringVar(&mqttFlags.prefix, "prefix", "openmotics", "Topic prefix")
	mf.IntVar(&mqttFlags.qos, "qos", 1, "Publish QoS (0-2)")

	configCmd.AddCommand(configInitCmd, configShowCmd, configSetModeCmd, configSetFormatCmd,
		configSetInstallationCmd, configSetLocalCmd, configSetCloudCmd, configSetMQTTCmd)
	rootCmd.AddCommand(configCmd)
}
