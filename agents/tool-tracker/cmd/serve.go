package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"podtool/shared/api"
	"podtool/shared/monitoring"
	"podtool/shared/scheduler"

	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

func newServeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API and run scheduled watchlist imports",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			agent, err := ctx.newAgent()
			if err != nil {
				return err
			}

			runCtx := cmd.Context()
			monitor := monitoring.NewMonitor()
			app := api.New(api.Deps{
				Runner:      agent,
				Store:       agent.Store(),
				Monitor:     monitor,
				BaseContext: runCtx,
			})

			errCh := make(chan error, 2)

			if cfg.Schedule != "" {
				if cfg.Watchlist.Empty() {
					log.Warn().Msg("Schedule is set but the watchlist is empty")
				}
				s := scheduler.New(cfg.Schedule, agent, monitor)
				go func() {
					if err := s.Start(runCtx); err != nil && !errors.Is(err, context.Canceled) {
						errCh <- fmt.Errorf("scheduler failed: %w", err)
					}
				}()
			}

			go func() {
				log.Info().Str("port", cfg.Server.Port).Msg("HTTP API listening")
				if err := app.Listen(":"+cfg.Server.Port, fiber.ListenConfig{DisableStartupMessage: true}); err != nil {
					errCh <- fmt.Errorf("server failed: %w", err)
				}
			}()

			select {
			case <-runCtx.Done():
				log.Info().Msg("Shutting down")
			case err := <-errCh:
				_ = app.ShutdownWithTimeout(shutdownTimeout)
				return err
			}
			return app.ShutdownWithTimeout(shutdownTimeout)
		},
	}
}
