package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	infralogger "github.com/jonesrussell/company-url-collector/infrastructure/logger"
	"github.com/jonesrussell/company-url-collector/internal/bootstrap"
	"github.com/jonesrussell/company-url-collector/internal/export"
)

func newScheduleCommand(root *rootOptions) *cobra.Command {
	var once bool

	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Run the configured scheduled collections until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := root.loadConfig(nil)
			if err != nil {
				return err
			}
			app, err := root.newApp(cmd.Context(), cfg, once)
			if err != nil {
				return err
			}
			defer app.Close()

			if once {
				s, setupErr := bootstrap.SetupScheduler(app)
				if setupErr != nil {
					return setupErr
				}
				for _, res := range s.RunAll(cmd.Context()) {
					export.RenderResult(cmd.OutOrStdout(), res)
				}
				return nil
			}

			stop, err := startScheduler(app)
			if err != nil {
				return err
			}
			defer stop()

			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()
			app.Logger.Info("Scheduler running", infralogger.Int("jobs", len(cfg.Scheduler.Jobs)))
			<-ctx.Done()
			app.Logger.Info("Shutdown signal received")
			return nil
		},
	}

	cmd.Flags().BoolVar(&once, "once", false, "run every job once, print the results and exit")
	return cmd
}
