// Omctl is a command-line client for OpenMotics home automation.
//
// It talks to the OpenMotics cloud REST API or directly to a gateway on the
// local network, streams live events, and can bridge those events onto an
// MQTT broker.
//
// Usage:
//
//	omctl [command] [flags]
//
// See 'omctl --help' for available commands.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/evilb/openmotics/internal/logging"
	"github.com/evilb/openmotics/internal/ui"
	"github.com/evilb/openmotics/internal/version"
)

func main() {
	err := rootCmd.Execute()
	logging.Sync()
	if err != nil {
		p := ui.NewPrinter(os.Stderr).SetJSON(opts.format == "json")
		p.PrintError(commandTitle(), err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "omctl",
	Short: "OpenMotics command-line client",
	Long: `A command-line client for OpenMotics installations.

Controls outputs, lights, shutters, thermostats and scenes through the
OpenMotics cloud or a gateway on the local network, watches live events,
and bridges them to MQTT.

Credentials are read from the environment:
  OPENMOTICS_TOKEN          cloud access token
  OPENMOTICS_CLIENT_SECRET  cloud OAuth2 client secret (with cloud.client_id)
  OPENMOTICS_PASSWORD       local gateway password
  OPENMOTICS_MQTT_PASSWORD  MQTT broker password`,
	Version:       version.Version,
	SilenceErrors: true,
	SilenceUsage:  true,
}

func init() {
	rootCmd.PersistentPreRunE = setup
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), "omctl", version.Full())
	},
}

// failedCommand is the path of the running command, used in the error box title.
var failedCommand string

func commandTitle() string {
	if failedCommand == "" {
		return "omctl"
	}
	return "omctl " + failedCommand
}
