// Package config manages the omctl configuration file.
//
// The file is YAML and lives in the platform configuration directory:
//   - Linux: $XDG_CONFIG_HOME/openmotics/config.yaml or $HOME/.config/openmotics/config.yaml
//   - macOS: $HOME/.config/openmotics/config.yaml
//   - Windows: %LOCALAPPDATA%\openmotics\config.yaml
//
// It holds cloud, local gateway, retry, MQTT and display settings plus the
// gateways seen by discovery.
//
// # Security
//
// Secrets are NEVER written to the file. Access tokens, client secrets and
// passwords come from flags, the environment (see SecretsFromEnv) or an
// interactive prompt.
//
// # Usage Example
//
//	cfg, err := config.Load("")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	cfg.Cloud.InstallationID = 21
//	if err := cfg.Save(""); err != nil {
//	    log.Fatal(err)
//	}
package config
