package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/evilb/openmotics/internal/api"
	"github.com/evilb/openmotics/internal/bridge"
	"github.com/evilb/openmotics/internal/cloud"
	"github.com/evilb/openmotics/internal/events"
	"github.com/evilb/openmotics/internal/ui"
)

var (
	eventTypes  []string
	bridgeSeed  bool
	webhookURLs string
)

// dialEvents opens the cloud event stream for the selected installation.
func dialEvents(ctx context.Context) (*events.Stream, error) {
	if err := sess.requireCloud("live events"); err != nil {
		return nil, err
	}
	iid := sess.cfg.Cloud.InstallationID
	if iid <= 0 {
		return nil, api.NewConfigurationError("no installation selected (use --installation)", cloud.ErrNoInstallation)
	}
	ts, err := sess.tokenSource()
	if err != nil {
		return nil, err
	}
	return events.Dial(ctx, events.Config{
		URL:             sess.eventsURL(),
		TokenSource:     ts,
		Types:           eventTypes,
		InstallationIDs: []int{iid},
		Logger:          sess.logger,
	})
}

// streamHolder hands a stream dialed on another goroutine back to the
// command. A stream set after close is closed immediately.
type streamHolder struct {
	mu     sync.Mutex
	stream io.Closer
	closed bool
}

func (h *streamHolder) set(s io.Closer) bool {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		_ = s.Close()
		return false
	}
	h.stream = s
	h.mu.Unlock()
	return true
}

func (h *streamHolder) close() {
	h.mu.Lock()
	s := h.stream
	h.stream = nil
	h.closed = true
	h.mu.Unlock()
	if s != nil {
		_ = s.Close()
	}
}

var eventsCmd = &cobra.Command{
	Use:     "events",
	Aliases: []string{"event"},
	Short:   "Live installation events",
}

var eventsWatchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Stream events until interrupted",
	Long: `Open the cloud websocket and show change events as they arrive.

In table mode a live view is shown (press q to quit); with --format json
every event is printed as one JSON line, suitable for piping.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := sess.context(cmd)
		defer stop()

		if sess.printer.JSON() {
			stream, err := dialEvents(ctx)
			if err != nil {
				return err
			}
			defer stream.Close()
			for ev := range stream.Events() {
				if err := sess.printer.PrintJSON(ev); err != nil {
					return err
				}
			}
			if err := stream.Err(); err != nil && !errors.Is(err, events.ErrStreamClosed) {
				return err
			}
			return nil
		}

		// The view dials on its own goroutine and may still be dialing
		// when the user quits.
		var held streamHolder
		model := ui.NewWatchModel(fmt.Sprintf("Installation %d events", sess.cfg.Cloud.InstallationID),
			func() (<-chan events.Event, error) {
				s, err := dialEvents(ctx)
				if err != nil {
					return nil, err
				}
				if !held.set(s) {
					return nil, events.ErrStreamClosed
				}
				return s.Events(), nil
			})
		_, err := ui.RunWatch(model)
		stop()
		held.close()
		return err
	},
}

var eventsSubscribeCmd = &cobra.Command{
	Use:   "subscribe-webhook <url>",
	Short: "Have the cloud POST events to a webhook",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withCloud(cmd, "webhooks", func(ctx context.Context, c *cloud.Client) error {
			if err := c.SubscribeWebhook(ctx, args[0], eventTypes...); err != nil {
				return err
			}
			types := strings.Join(eventTypes, ", ")
			if types == "" {
				types = strings.Join(cloud.DefaultEventTypes, ", ")
			}
			sess.printer.PrintSuccess("Webhook subscribed", map[string]string{"URL": args[0], "Types": types})
			return nil
		})
	},
}

var eventsUnsubscribeCmd = &cobra.Command{
	Use:   "unsubscribe-webhook",
	Short: "Remove the webhook subscription",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return withCloud(cmd, "webhooks", func(ctx context.Context, c *cloud.Client) error {
			if err := c.UnsubscribeWebhook(ctx); err != nil {
				return err
			}
			sess.printer.PrintSuccess("Webhook removed", nil)
			return nil
		})
	},
}

var bridgeCmd = &cobra.Command{
	Use:   "bridge",
	Short: "Forward events to other systems",
}

var bridgeMQTTCmd = &cobra.Command{
	Use:   "mqtt",
	Short: "Publish live events as retained MQTT state",
	Long: `Subscribe to the installation's events and publish each change as a
retained JSON message on <prefix>/<installation>/<type>/<id>.

The broker is configured in the mqtt section of the config file; the
password comes from OPENMOTICS_MQTT_PASSWORD.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := sess.context(cmd)
		defer stop()

		bcfg := sess.cfg.Bridge(sess.secrets)
		if bcfg.Host == "" {
			return api.NewConfigurationError("no MQTT broker configured (set mqtt.host, see 'omctl config set-mqtt')", nil)
		}
		pub, err := bridge.Connect(bcfg)
		if err != nil {
			return err
		}
		defer pub.Close()

		iid := sess.cfg.Cloud.InstallationID
		b := bridge.New(pub, bcfg.Prefix, bcfg.QoS)
		b.Installation = iid
		b.SetLogger(sess.logger)

		if bridgeSeed {
			c, err := sess.cloudClient()
			if err != nil {
				return err
			}
			outputs, err := c.ListOutputs(ctx, "")
			_ = c.Close()
			if err != nil {
				return fmt.Errorf("seed outputs: %w", err)
			}
			if err := b.PublishOutputs(iid, outputs); err != nil {
				return err
			}
		}

		stream, err := dialEvents(ctx)
		if err != nil {
			return err
		}
		defer stream.Close()

		sess.printer.PrintHeader("MQTT bridge", "omctl bridge mqtt", map[string]string{
			"Broker":       bcfg.BrokerURL(),
			"Topics":       b.Topics().Installation(iid) + "/#",
			"Installation": fmt.Sprint(iid),
		})

		err = b.Run(ctx, stream.Events())
		sess.logger.Info("bridge stopped", zap.Int("published", b.Published()))
		if errors.Is(err, context.Canceled) {
			err = nil
		}
		if err == nil {
			if serr := stream.Err(); serr != nil && !errors.Is(serr, events.ErrStreamClosed) {
				err = serr
			}
		}
		return err
	},
}

func init() {
	for _, c := range []*cobra.Command{eventsWatchCmd, eventsSubscribeCmd, bridgeMQTTCmd} {
		c.Flags().StringSliceVar(&eventTypes, "type", nil, "Event types to subscribe to (default: all changes)")
	}
	bridgeMQTTCmd.Flags().BoolVar(&bridgeSeed, "seed", true, "Publish the current output states before streaming")
	eventsCmd.AddCommand(eventsWatchCmd, eventsSubscribeCmd, eventsUnsubscribeCmd)
	bridgeCmd.AddCommand(bridgeMQTTCmd)
	rootCmd.AddCommand(eventsCmd, bridgeCmd)
}
