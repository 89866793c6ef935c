package main

import (
	"context"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/evilb/openmotics/internal/api"
	"github.com/evilb/openmotics/internal/cloud"
	"github.com/evilb/openmotics/internal/ui"
)

var resourcesCmd = &cobra.Command{
	Use:     "resources",
	Aliases: []string{"resource"},
	Short:   "Generic resource endpoints",
}

var resourcesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List resources",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withCloud(cmd, "resources", func(ctx context.Context, c *cloud.Client) error {
			items, err := c.API().ListResources(ctx)
			if err != nil {
				return err
			}
			headers, rows := ui.ResourceRows(items)
			return sess.printer.PrintTable(items, headers, rows)
		})
	},
}

var resourcesShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show one resource",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		return withCloud(cmd, "resources", func(ctx context.Context, c *cloud.Client) error {
			r, err := c.API().GetResource(ctx, id)
			if err != nil {
				return err
			}
			if sess.printer.JSON() {
				return sess.printer.PrintJSON(r)
			}
			headers, rows := ui.ResourceRows([]api.Resource{r})
			return sess.printer.PrintTable(r, headers, rows)
		})
	},
}

var resourcesSetStateCmd = &cobra.Command{
	Use:   "set-state <id> <state>",
	Short: "Change the state of a resource",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := parseID(args[0])
		if err != nil {
			return err
		}
		return withCloud(cmd, "resources", func(ctx context.Context, c *cloud.Client) error {
			res, err := c.API().SetResourceState(ctx, id, args[1])
			if err != nil {
				return err
			}
			sess.printer.PrintSuccess("Resource state changed", map[string]string{
				"ID":     strconv.Itoa(id),
				"State":  args[1],
				"Status": res.Status,
			})
			return nil
		})
	},
}

func init() {
	resourcesCmd.AddCommand(resourcesListCmd, resourcesShowCmd, resourcesSetStateCmd)
	rootCmd.AddCommand(resourcesCmd)
}
