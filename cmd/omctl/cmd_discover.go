package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/evilb/openmotics/internal/config"
	"github.com/evilb/openmotics/internal/discovery"
	"github.com/evilb/openmotics/internal/ui"
)

var (
	discoverTimeout int
	discoverAll     bool
	discoverSave    bool
	discoverPick    bool
)

// saveGateway stores gw as the local host and remembers every gateway seen.
func saveGateway(gw *discovery.Gateway, seen []*discovery.Gateway) error {
	err := updateConfig(func(cfg *config.Config) error {
		for _, g := range seen {
			cfg.RememberGateway(g.Name, g.IP, g.Port)
		}
		cfg.Local.Host = gw.IP
		cfg.Local.Port = gw.Port
		cfg.Local.PlainHTTP = !gw.Secure()
		return nil
	})
	if err != nil {
		return err
	}
	sess.printer.PrintSuccess("Gateway saved", map[string]string{"Host": gw.IP, "URL": gw.BaseURL()})
	return nil
}

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Find OpenMotics gateways on the local network",
	Long: `Browse mDNS for gateways advertising their web interface.

Gateways are recognised by "openmotics" in their hostname or instance name,
or by a vendor=openmotics TXT record. Use --all to list every HTTP service.`,
	Example: `  # Scan with the configured timeout
  omctl discover

  # Scan longer and remember the first gateway as the local host
  omctl discover --wait 15 --save

  # Choose interactively and save the choice
  omctl discover --pick`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := sess.context(cmd)
		defer stop()

		timeout := discoverTimeout
		if timeout <= 0 {
			timeout = sess.cfg.Preferences.DiscoverTimeout
		}
		scanner := discovery.NewScanner()
		scanner.Timeout = time.Duration(timeout) * time.Second
		scanner.Logger = sess.logger
		if discoverAll {
			scanner.Match = discovery.MatchAll
		}

		if discoverPick {
			var seen []*discovery.Gateway
			picker := ui.NewGatewayPicker(func() ([]*discovery.Gateway, error) {
				gws, err := scanner.Scan(ctx)
				seen = gws
				return gws, err
			}, scanner.Timeout)
			gw, err := ui.RunGatewayPicker(picker)
			if err != nil || gw == nil {
				return err
			}
			return saveGateway(gw, seen)
		}

		if !sess.printer.JSON() {
			sess.printer.Println(ui.MutedStyle.Render(fmt.Sprintf("Scanning for gateways (%ds)...", timeout)))
		}
		gateways, err := scanner.Scan(ctx)
		if err != nil {
			return err
		}

		headers, rows := ui.GatewayRows(gateways)
		if err := sess.printer.PrintTable(gateways, headers, rows); err != nil {
			return err
		}
		if len(gateways) == 0 {
			if !sess.printer.JSON() {
				sess.printer.Println(ui.MutedStyle.Render("No gateways found. Check that multicast (UDP 5353) is allowed, or pass --host."))
			}
			return nil
		}

		if discoverSave {
			return saveGateway(gateways[0], gateways)
		}
		return nil
	},
}

func init() {
	discoverCmd.Flags().IntVar(&discoverTimeout, "wait", 0, "Scan duration in seconds (default from config)")
	discoverCmd.Flags().BoolVar(&discoverAll, "all", false, "List every HTTP service, not only gateways")
	discoverCmd.Flags().BoolVar(&discoverSave, "save", false, "Store the first gateway as the local host")
	discoverCmd.Flags().BoolVar(&discoverPick, "pick", false, "Choose a gateway interactively and save it")
	rootCmd.AddCommand(discoverCmd)
}
