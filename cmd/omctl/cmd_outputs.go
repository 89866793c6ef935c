package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/evilb/openmotics/internal/api"
	"github.com/evilb/openmotics/internal/models"
	"github.com/evilb/openmotics/internal/ui"
)

// withBackend opens the selected backend, runs fn and closes it.
func withBackend(cmd *cobra.Command, fn func(ctx context.Context, b backend) error) error {
	ctx, stop := sess.context(cmd)
	defer stop()
	b, err := sess.backend()
	if err != nil {
		return err
	}
	defer b.Close()
	return fn(ctx, b)
}

var dimValue int

var outputsCmd = &cobra.Command{
	Use:     "outputs",
	Aliases: []string{"output"},
	Short:   "List and switch outputs",
}

var outputsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List outputs with their state",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withBackend(cmd, func(ctx context.Context, b backend) error {
			outputs, err := b.ListOutputs(ctx)
			if err != nil {
				return err
			}
			headers, rows := ui.OutputRows(outputs)
			return sess.printer.PrintTable(outputs, headers, rows)
		})
	},
}

var outputsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one output",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		return withBackend(cmd, func(ctx context.Context, b backend) error {
			o, err := b.GetOutput(ctx, id)
			if err != nil {
				return err
			}
			if sess.printer.JSON() {
				return sess.printer.PrintJSON(o)
			}
			headers, rows := ui.OutputRows([]models.Output{o})
			return sess.printer.PrintTable(o, headers, rows)
		})
	},
}

// switchCommand builds an on/off/toggle subcommand.
func switchCommand(use, short, noun string, run func(ctx context.Context, b backend, id int, value *int) error) *cobra.Command {
	cmd := &cobra.Command{
		Use:   use + " <id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			var value *int
			if cmd.Flags().Changed("value") {
				if dimValue < 0 || dimValue > 100 {
					return fmt.Errorf("--value must be between 0 and 100: %w", api.ErrInvalidArgument)
				}
				v := dimValue
				value = &v
			}
			return withBackend(cmd, func(ctx context.Context, b backend) error {
				if err := run(ctx, b, id, value); err != nil {
					return err
				}
				details := map[string]string{noun: strconv.Itoa(id)}
				if value != nil {
					details["Value"] = strconv.Itoa(*value)
				}
				sess.printer.PrintSuccess(noun+" "+use, details)
				return nil
			})
		},
	}
	if use == "on" {
		cmd.Flags().IntVar(&dimValue, "value", 0, "Dimmer value 0-100")
	}
	return cmd
}

var lightsCmd = &cobra.Command{
	Use:     "lights",
	Aliases: []string{"light"},
	Short:   "List and switch lights",
}

var lightsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List lights with their state",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withBackend(cmd, func(ctx context.Context, b backend) error {
			lights, err := b.ListLights(ctx)
			if err != nil {
				return err
			}
			headers, rows := ui.LightRows(lights)
			return sess.printer.PrintTable(lights, headers, rows)
		})
	},
}

func init() {
	outputsCmd.AddCommand(outputsListCmd, outputsShowCmd,
		switchCommand("on", "Turn an output on", "Output", func(ctx context.Context, b backend, id int, v *int) error {
			return b.TurnOnOutput(ctx, id, v)
		}),
		switchCommand("off", "Turn an output off", "Output", func(ctx context.Context, b backend, id int, _ *int) error {
			return b.TurnOffOutput(ctx, id)
		}),
		switchCommand("toggle", "Toggle an output", "Output", func(ctx context.Context, b backend, id int, _ *int) error {
			return b.ToggleOutput(ctx, id)
		}),
	)
	lightsCmd.AddCommand(lightsListCmd,
		switchCommand("on", "Turn a light on", "Light", func(ctx context.Context, b backend, id int, v *int) error {
			return b.TurnOnLight(ctx, id, v)
		}),
		switchCommand("off", "Turn a light off", "Light", func(ctx context.Context, b backend, id int, _ *int) error {
			return b.TurnOffLight(ctx, id)
		}),
		switchCommand("toggle", "Toggle a light", "Light", func(ctx context.Context, b backend, id int, _ *int) error {
			return b.ToggleLight(ctx, id)
		}),
	)
	rootCmd.AddCommand(outputsCmd, lightsCmd)
}
