// Package scrape implements the list collection command.
package scrape

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonesrussell/bidcrawl/cmd/common"
	"github.com/jonesrussell/bidcrawl/internal/workflow"
)

// Command returns the scrape command.
func Command() *cobra.Command {
	var (
		org    string
		limit  int
		dryRun bool
	)

	cmd := &cobra.Command{
		Use:   "scrape",
		Short: "Collect notice lists for configured organizations",
		Long: `Collect notice lists for all active organizations, or a single
organization with --org. New notices are deduplicated against the store and
persisted; every organization gets an audit log entry.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			deps, err := common.Build()
			if err != nil {
				return err
			}
			defer deps.Close()

			result := deps.Orchestrator.Run(cmd.Context(), workflow.Options{
				Org:    org,
				Limit:  limit,
				DryRun: dryRun,
			})

			common.PrintResult(cmd.OutOrStdout(), result)

			if !result.Success {
				return fmt.Errorf("run failed: %s", result.ErrorMessage)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&org, "org", "", "restrict the run to one organization")
	cmd.Flags().IntVar(&limit, "limit", 0, "cap the number of organizations (0 = all)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "collect and count without persisting")

	return cmd
}
