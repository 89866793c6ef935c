package main

import (
	"context"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/evilb/openmotics/internal/models"
	"github.com/evilb/openmotics/internal/ui"
)

var sensorsCmd = &cobra.Command{
	Use:     "sensors",
	Aliases: []string{"sensor"},
	Short:   "Read sensors",
}

var sensorsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List sensors with their latest readings",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withBackend(cmd, func(ctx context.Context, b backend) error {
			sensors, err := b.ListSensors(ctx)
			if err != nil {
				return err
			}
			headers, rows := ui.SensorRows(sensors)
			return sess.printer.PrintTable(sensors, headers, rows)
		})
	},
}

var sensorsShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one sensor",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		return withBackend(cmd, func(ctx context.Context, b backend) error {
			s, err := b.GetSensor(ctx, id)
			if err != nil {
				return err
			}
			if sess.printer.JSON() {
				return sess.printer.PrintJSON(s)
			}
			headers, rows := ui.SensorRows([]models.Sensor{s})
			return sess.printer.PrintTable(s, headers, rows)
		})
	},
}

var groupActionsCmd = &cobra.Command{
	Use:     "groupactions",
	Aliases: []string{"groupaction", "ga"},
	Short:   "List and trigger group actions and scenes",
}

var groupActionsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List group actions",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withBackend(cmd, func(ctx context.Context, b backend) error {
			items, err := b.ListGroupActions(ctx)
			if err != nil {
				return err
			}
			headers, rows := ui.GroupActionRows(items)
			return sess.printer.PrintTable(items, headers, rows)
		})
	},
}

var groupActionsScenesCmd = &cobra.Command{
	Use:   "scenes",
	Short: "List group actions used as scenes",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withBackend(cmd, func(ctx context.Context, b backend) error {
			items, err := b.Scenes(ctx)
			if err != nil {
				return err
			}
			headers, rows := ui.GroupActionRows(items)
			return sess.printer.PrintTable(items, headers, rows)
		})
	},
}

var groupActionsTriggerCmd = &cobra.Command{
	Use:   "trigger <id>",
	Short: "Trigger a group action",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		return withBackend(cmd, func(ctx context.Context, b backend) error {
			if err := b.TriggerGroupAction(ctx, id); err != nil {
				return err
			}
			sess.printer.PrintSuccess("Group action triggered", map[string]string{"Group action": strconv.Itoa(id)})
			return nil
		})
	},
}

func init() {
	sensorsCmd.AddCommand(sensorsListCmd, sensorsShowCmd)
	groupActionsCmd.AddCommand(groupActionsListCmd, groupActionsScenesCmd, groupActionsTriggerCmd)
	rootCmd.AddCommand(sensorsCmd, groupActionsCmd)
}
