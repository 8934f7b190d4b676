package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jonesrussell/company-url-collector/internal/config"
	"github.com/jonesrussell/company-url-collector/internal/domain"
	"github.com/jonesrussell/company-url-collector/internal/export"
	"github.com/jonesrussell/company-url-collector/internal/search"
)

var errCollectionFailed = errors.New("collection failed")

type collectOptions struct {
	company  string
	url      string
	duration string
	output   string
	apiKey   string
	provider string
}

func newCollectCommand(root *rootOptions) *cobra.Command {
	opts := &collectOptions{}

	cmd := &cobra.Command{
		Use:   "collect",
		Short: "Run one collection for a company",
		Long: `Runs one collection: search, classify, merge into the stored collection,
then print a summary.

Example:
  urlcollector collect --company "Elastic" --url https://elastic.co --duration "7 days"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCollect(cmd, root, opts)
		},
	}

	cmd.Flags().StringVar(&opts.company, "company", "", "company name (required)")
	cmd.Flags().StringVar(&opts.url, "url", "", "company website URL (required)")
	cmd.Flags().StringVar(&opts.duration, "duration", string(domain.AllTime), "recency window, one of the accepted durations")
	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "also write the result as JSON to this file")
	cmd.Flags().StringVar(&opts.apiKey, "api-key", "", "search provider API key (overrides config and environment)")
	cmd.Flags().StringVar(&opts.provider, "provider", "", "search provider: perplexity or anthropic")
	_ = cmd.MarkFlagRequired("company")
	_ = cmd.MarkFlagRequired("url")

	return cmd
}

func runCollect(cmd *cobra.Command, root *rootOptions, opts *collectOptions) error {
	duration, err := domain.ParseDuration(opts.duration)
	if err != nil {
		return err
	}

	cfg, err := root.loadConfig(func(cfg *config.Config) {
		if opts.provider != "" {
			cfg.Search.Provider = opts.provider
		}
		if opts.apiKey == "" {
			return
		}
		if cfg.Search.Provider == search.ProviderAnthropic {
			cfg.Search.Anthropic.APIKey = opts.apiKey
		} else {
			cfg.Search.Perplexity.APIKey = opts.apiKey
		}
	})
	if err != nil {
		return err
	}

	app, err := root.newApp(cmd.Context(), cfg, true)
	if err != nil {
		return err
	}
	defer app.Close()

	res := app.Collector.Collect(cmd.Context(), domain.CollectionRequest{
		CompanyName: opts.company,
		CompanyURL:  opts.url,
		Duration:    duration,
	})

	export.RenderResult(cmd.OutOrStdout(), res)
	if opts.output != "" {
		if err = writeResultJSON(opts.output, res); err != nil {
			return err
		}
	}
	if !res.Success {
		return fmt.Errorf("%w: %s: %s", errCollectionFailed, res.ErrorKind, res.Error)
	}
	return nil
}

func writeResultJSON(path string, res domain.CollectionResult) error {
	data, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	if err = os.WriteFile(path, append(data, '\n'), 0o644); err != nil { //nolint:gosec // result files are meant to be shared
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
