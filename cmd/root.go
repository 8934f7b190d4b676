// Package cmd implements the urlcollector command-line interface.
package cmd

import (
	"context"
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/jonesrussell/company-url-collector/internal/bootstrap"
	"github.com/jonesrussell/company-url-collector/internal/config"
)

// Version is set at build time with -ldflags.
var Version = "dev"

type rootOptions struct {
	configPath string
	debug      bool
}

// NewRootCommand builds the command tree.
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "urlcollector",
		Short: "Collect and classify the URLs associated with a company",
		Long: `urlcollector asks an AI search provider for URLs about a company,
classifies each one as first- or third-party and relevant or not, and keeps
a deduplicated collection per company.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&opts.configPath, "config", "",
		"config file (default is $CONFIG_PATH or ./config.yml)")
	root.PersistentFlags().BoolVar(&opts.debug, "debug", false, "enable debug logging")

	root.AddCommand(
		newCollectCommand(opts),
		newServeCommand(opts),
		newURLsCommand(opts),
		newScheduleCommand(opts),
		&cobra.Command{
			Use:   "version",
			Short: "Print the version number",
			Run: func(cmd *cobra.Command, _ []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "urlcollector version %s\n", Version)
			},
		},
	)
	return root
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return NewRootCommand().ExecuteContext(ctx)
}

// loadConfig loads the configuration, applies mutate and revalidates.
func (o *rootOptions) loadConfig(mutate func(*config.Config)) (*config.Config, error) {
	cfg, err := bootstrap.LoadConfig(bootstrap.ConfigPath(o.configPath))
	if err != nil {
		return nil, err
	}
	if o.debug {
		cfg.Debug = true
	}
	if mutate != nil {
		mutate(cfg)
		if err = cfg.Validate(); err != nil {
			return nil, fmt.Errorf("invalid config: %w", err)
		}
	}
	return cfg, nil
}

// newApp wires an App. Unless logging was configured elsewhere, one-shot
// commands log to stderr so stdout stays clean for their output.
func (o *rootOptions) newApp(ctx context.Context, cfg *config.Config, oneShot bool) (*bootstrap.App, error) {
	if oneShot && slices.Equal(cfg.Logging.OutputPaths, []string{"stdout"}) {
		cfg.Logging.OutputPaths = []string{"stderr"}
	}

	log, err := bootstrap.CreateLogger(cfg, Version)
	if err != nil {
		return nil, err
	}
	app, err := bootstrap.New(ctx, cfg, log, Version)
	if err != nil {
		_ = log.Sync()
		return nil, err
	}
	return app, nil
}
