package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	infralogger "github.com/jonesrussell/company-url-collector/infrastructure/logger"
	"github.com/jonesrussell/company-url-collector/internal/bootstrap"
)

func newServeCommand(root *rootOptions) *cobra.Command {
	var withScheduler bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := root.loadConfig(nil)
			if err != nil {
				return err
			}
			app, err := root.newApp(cmd.Context(), cfg, false)
			if err != nil {
				return err
			}
			defer app.Close()

			if withScheduler || cfg.Scheduler.Enabled {
				stop, schedErr := startScheduler(app)
				if schedErr != nil {
					return schedErr
				}
				defer stop()
			}

			server := bootstrap.SetupHTTPServer(app)
			if err = server.Run(cmd.Context()); err != nil {
				app.Logger.Error("Server error", infralogger.Error(err))
				return fmt.Errorf("server error: %w", err)
			}
			app.Logger.Info("Server exited")
			return nil
		},
	}

	cmd.Flags().BoolVar(&withScheduler, "scheduler", false, "also run the configured scheduled collections")
	return cmd
}

// startScheduler starts the cron scheduler and returns a function that stops
// it, waiting for running collections.
func startScheduler(app *bootstrap.App) (func(), error) {
	s, err := bootstrap.SetupScheduler(app)
	if err != nil {
		return nil, err
	}
	s.Start()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), app.Config.Server.WriteTimeout)
		defer cancel()
		if stopErr := s.Stop(ctx); stopErr != nil {
			app.Logger.Warn("Scheduler did not stop cleanly", infralogger.Error(stopErr))
		}
	}, nil
}
