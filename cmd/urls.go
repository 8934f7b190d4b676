package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonesrussell/company-url-collector/internal/bootstrap"
	"github.com/jonesrussell/company-url-collector/internal/export"
)

var errConflictingFilters = errors.New("conflicting filters")

func newURLsCommand(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "urls",
		Short: "Inspect stored collections",
	}
	cmd.AddCommand(
		newURLsListCommand(root),
		newURLsCompaniesCommand(root),
		newURLsExportCommand(root),
	)
	return cmd
}

type listOptions struct {
	firstParty bool
	thirdParty bool
	relevant   bool
	irrelevant bool
}

// flags turns the four switches into the tri-state filters.
func (o listOptions) flags() (firstParty, relevant *bool, err error) {
	firstParty, err = pick(o.firstParty, o.thirdParty, "--first-party", "--third-party")
	if err != nil {
		return nil, nil, err
	}
	relevant, err = pick(o.relevant, o.irrelevant, "--relevant", "--irrelevant")
	if err != nil {
		return nil, nil, err
	}
	return firstParty, relevant, nil
}

func pick(yes, no bool, yesFlag, noFlag string) (*bool, error) {
	switch {
	case yes && no:
		return nil, fmt.Errorf("%w: %s and %s", errConflictingFilters, yesFlag, noFlag)
	case yes:
		v := true
		return &v, nil
	case no:
		v := false
		return &v, nil
	default:
		return nil, nil
	}
}

func newURLsListCommand(root *rootOptions) *cobra.Command {
	opts := listOptions{}

	cmd := &cobra.Command{
		Use:   "list <company>",
		Short: "List a company's stored URLs",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			firstParty, relevant, err := opts.flags()
			if err != nil {
				return err
			}
			app, err := openStore(cmd, root)
			if err != nil {
				return err
			}
			defer app.Close()

			records, err := app.Collector.Filtered(cmd.Context(), args[0], firstParty, relevant)
			if err != nil {
				return err
			}
			export.RenderRecords(cmd.OutOrStdout(), records)
			return nil
		},
	}

	cmd.Flags().BoolVar(&opts.firstParty, "first-party", false, "only first-party URLs")
	cmd.Flags().BoolVar(&opts.thirdParty, "third-party", false, "only third-party URLs")
	cmd.Flags().BoolVar(&opts.relevant, "relevant", false, "only relevant URLs")
	cmd.Flags().BoolVar(&opts.irrelevant, "irrelevant", false, "only irrelevant URLs")
	return cmd
}

func newURLsCompaniesCommand(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "companies",
		Short: "List companies with stored collections",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := openStore(cmd, root)
			if err != nil {
				return err
			}
			defer app.Close()

			keys, err := app.Collector.Companies(cmd.Context())
			if err != nil {
				return err
			}
			export.RenderCompanies(cmd.OutOrStdout(), keys)
			return nil
		},
	}
}

func newURLsExportCommand(root *rootOptions) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "export <company>",
		Short: "Export a company's stored URLs to an Excel workbook",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := openStore(cmd, root)
			if err != nil {
				return err
			}
			defer app.Close()

			records, err := app.Collector.Stored(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if out == "" {
				out = args[0] + "_urls.xlsx"
			}
			if err = export.SaveWorkbook(out, args[0], records); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d URLs to %s\n", len(records), out)
			return nil
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", "workbook path (default <company>_urls.xlsx)")
	return cmd
}

// openStore wires an App for read-only commands. Hooks are not needed, so
// events and indexing are switched off.
func openStore(cmd *cobra.Command, root *rootOptions) (*bootstrap.App, error) {
	cfg, err := root.loadConfig(nil)
	if err != nil {
		return nil, err
	}
	cfg.Redis.EventsEnabled = false
	cfg.Elasticsearch.Enabled = false
	cfg.Classifier.Watch = false
	return root.newApp(cmd.Context(), cfg, true)
}
