package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/Ramsey-B/fern/pkg/startup"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			app, err := startup.New(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer func() {
				closeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				if err := app.Close(closeCtx); err != nil {
					logger.WithError(err).Error("Failed to stop dependencies")
				}
			}()

			return app.Run(cmd.Context())
		},
	}
}
