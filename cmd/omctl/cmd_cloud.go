package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/evilb/openmotics/internal/cloud"
	"github.com/evilb/openmotics/internal/models"
	"github.com/evilb/openmotics/internal/ui"
)

// withCloud opens a cloud client for commands the local gateway lacks.
func withCloud(cmd *cobra.Command, what string, fn func(ctx context.Context, c *cloud.Client) error) error {
	if err := sess.requireCloud(what); err != nil {
		return err
	}
	ctx, stop := sess.context(cmd)
	defer stop()
	c, err := sess.cloudClient()
	if err != nil {
		return err
	}
	defer c.Close()
	return fn(ctx, c)
}

// idCommand builds a subcommand taking one id and reporting success.
func idCommand(use, short, what, done string, run func(ctx context.Context, c *cloud.Client, id int) error) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withCloud(cmd, what, func(ctx context.Context, c *cloud.Client) error {
				if err := run(ctx, c, id); err != nil {
					return err
				}
				sess.printer.PrintSuccess(done, map[string]string{"ID": strconv.Itoa(id)})
				return nil
			})
		},
	}
}

// Installations

var installationsFilter string

var installationsCmd = &cobra.Command{
	Use:     "installations",
	Aliases: []string{"installation", "inst"},
	Short:   "List cloud installations",
}

var installationsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the installations the credentials can access",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withCloud(cmd, "installations", func(ctx context.Context, c *cloud.Client) error {
			items, err := c.ListInstallations(ctx, installationsFilter)
			if err != nil {
				return err
			}
			headers, rows := ui.InstallationRows(items)
			return sess.printer.PrintTable(items, headers, rows)
		})
	},
}

var installationsShowCmd = &cobra.Command{
	Use:   "show <id|name>",
	Short: "Show one installation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCloud(cmd, "installations", func(ctx context.Context, c *cloud.Client) error {
			var (
				inst models.Installation
				err  error
			)
			if id, perr := strconv.Atoi(args[0]); perr == nil {
				inst, err = c.GetInstallation(ctx, id)
			} else {
				inst, err = c.FindInstallation(ctx, args[0])
			}
			if err != nil {
				return err
			}
			if sess.printer.JSON() {
				return sess.printer.PrintJSON(inst)
			}
			headers, rows := ui.InstallationRows([]models.Installation{inst})
			return sess.printer.PrintTable(inst, headers, rows)
		})
	},
}

// Shutters

var shuttersCmd = &cobra.Command{
	Use:     "shutters",
	Aliases: []string{"shutter"},
	Short:   "List and move shutters",
}

var shuttersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List shutters",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withCloud(cmd, "shutters", func(ctx context.Context, c *cloud.Client) error {
			items, err := c.ListShutters(ctx, "")
			if err != nil {
				return err
			}
			headers, rows := ui.ShutterRows(items)
			return sess.printer.PrintTable(items, headers, rows)
		})
	},
}

var shuttersPositionCmd = &cobra.Command{
	Use:   "position <id> <0-100>",
	Short: "Move a shutter to a position",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		pos, err := parseIntArg("position", args[1], 0, 100)
		if err != nil {
			return err
		}
		return withCloud(cmd, "shutters", func(ctx context.Context, c *cloud.Client) error {
			if err := c.ShutterPosition(ctx, id, pos); err != nil {
				return err
			}
			sess.printer.PrintSuccess("Shutter moving", map[string]string{"ID": strconv.Itoa(id), "Position": strconv.Itoa(pos)})
			return nil
		})
	},
}

// Thermostats

var thermostatsCmd = &cobra.Command{
	Use:     "thermostats",
	Aliases: []string{"thermostat"},
	Short:   "Inspect and control thermostats",
}

var thermostatsGroupsCmd = &cobra.Command{
	Use:   "groups",
	Short: "List thermostat groups",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withCloud(cmd, "thermostats", func(ctx context.Context, c *cloud.Client) error {
			items, err := c.ListThermostatGroups(ctx)
			if err != nil {
				return err
			}
			headers, rows := ui.ThermostatGroupRows(items)
			return sess.printer.PrintTable(items, headers, rows)
		})
	},
}

var thermostatsUnitsCmd = &cobra.Command{
	Use:   "units",
	Short: "List thermostat units",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withCloud(cmd, "thermostats", func(ctx context.Context, c *cloud.Client) error {
			items, err := c.ListThermostatUnits(ctx)
			if err != nil {
				return err
			}
			headers, rows := ui.ThermostatUnitRows(items)
			return sess.printer.PrintTable(items, headers, rows)
		})
	},
}

// installationCommand builds a subcommand taking a single word for the whole installation.
func installationCommand(use, short, done string, run func(ctx context.Context, c *cloud.Client, v string) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withCloud(cmd, "thermostats", func(ctx context.Context, c *cloud.Client) error {
				if err := run(ctx, c, args[0]); err != nil {
					return err
				}
				sess.printer.PrintSuccess(done, map[string]string{"Value": args[0]})
				return nil
			})
		},
	}
}

// unitCommand builds a subcommand taking a unit id and one value.
func unitCommand(use, short, done string, run func(ctx context.Context, c *cloud.Client, id int, v string) error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withCloud(cmd, "thermostats", func(ctx context.Context, c *cloud.Client) error {
				if err := run(ctx, c, id, args[1]); err != nil {
					return err
				}
				sess.printer.PrintSuccess(done, map[string]string{"Unit": strconv.Itoa(id), "Value": args[1]})
				return nil
			})
		},
	}
}

func init() {
	installationsListCmd.Flags().StringVar(&installationsFilter, "filter", "", "Server-side filter expression")
	installationsCmd.AddCommand(installationsListCmd, installationsShowCmd)

	shuttersCmd.AddCommand(shuttersListCmd, shuttersPositionCmd,
		idCommand("up", "Move a shutter up", "shutters", "Shutter moving up", func(ctx context.Context, c *cloud.Client, id int) error {
			return c.ShutterUp(ctx, id)
		}),
		idCommand("down", "Move a shutter down", "shutters", "Shutter moving down", func(ctx context.Context, c *cloud.Client, id int) error {
			return c.ShutterDown(ctx, id)
		}),
		idCommand("stop", "Stop a shutter", "shutters", "Shutter stopped", func(ctx context.Context, c *cloud.Client, id int) error {
			return c.ShutterStop(ctx, id)
		}),
	)

	thermostatsCmd.AddCommand(thermostatsGroupsCmd, thermostatsUnitsCmd,
		installationCommand("set-mode <heating|cooling>", "Switch the installation between heating and cooling", "Thermostat mode set",
			func(ctx context.Context, c *cloud.Client, v string) error { return c.SetThermostatMode(ctx, v) }),
		installationCommand("set-state <on|off>", "Turn all thermostats on or off", "Thermostat state set",
			func(ctx context.Context, c *cloud.Client, v string) error { return c.SetThermostatState(ctx, v) }),
		unitCommand("unit-setpoint <id> <temperature>", "Set a unit's temperature setpoint", "Setpoint changed",
			func(ctx context.Context, c *cloud.Client, id int, v string) error {
				t, err := strconv.ParseFloat(v, 64)
				if err != nil {
					return fmt.Errorf("invalid temperature %q: %w", v, models.ErrInvalidValue)
				}
				return c.SetThermostatUnitTemperature(ctx, id, t)
			}),
		unitCommand("unit-preset <id> <auto|away|party|vacation>", "Select a unit's preset", "Preset changed",
			func(ctx context.Context, c *cloud.Client, id int, v string) error {
				return c.SetThermostatUnitPreset(ctx, id, v)
			}),
		unitCommand("unit-state <id> <on|off>", "Turn a unit on or off", "Unit state changed",
			func(ctx context.Context, c *cloud.Client, id int, v string) error {
				return c.SetThermostatUnitState(ctx, id, v)
			}),
	)

	rootCmd.AddCommand(installationsCmd, shuttersCmd, thermostatsCmd)
}
