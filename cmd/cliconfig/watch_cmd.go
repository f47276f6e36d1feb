package main

import (
	"context"
	"encoding/json"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"cliconfig-go/internal/config"
	"cliconfig-go/internal/events"
	"cliconfig-go/internal/shutdown"
)

func (c *cli) watchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Print the config, then an event each time the config file changes, until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			loader, err := c.newLoader()
			if err != nil {
				return err
			}

			bus := events.NewBus()
			sub := bus.Subscribe(events.ConfigReloaded)

			coordinator := shutdown.NewCoordinator(zap.NewNop())
			coordinator.RegisterCloser("config-watcher", shutdown.PhaseWatchers, loader.Stop)
			coordinator.RegisterFunc("event-bus", shutdown.PhaseEvents, func(context.Context) error {
				bus.Close()
				return nil
			})
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
				defer cancel()
				_ = coordinator.Shutdown(shutdownCtx)
			}()

			enc := json.NewEncoder(cmd.OutOrStdout())
			initial := events.Event{Type: events.ConfigReloaded, Action: "load", Timestamp: time.Now(), Data: loader.GetConfig()}
			if err := enc.Encode(initial); err != nil {
				return err
			}

			err = loader.StartWatching(func(cfg *config.Config) error {
				// A reload racing the teardown has nobody left to tell.
				if coordinator.IsShuttingDown() {
					return nil
				}
				bus.Publish(events.Event{
					Type:      events.ConfigReloaded,
					Action:    "reload",
					Timestamp: time.Now(),
					Data:      cfg,
				})
				return nil
			})
			if err != nil {
				return err
			}

			for {
				select {
				case <-ctx.Done():
					return nil
				case ev, ok := <-sub:
					if !ok {
						return nil
					}
					if err := enc.Encode(ev); err != nil {
						return err
					}
				}
			}
		},
	}
}
