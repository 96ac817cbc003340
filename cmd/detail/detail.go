// Package detail implements the detail enrichment command.
package detail

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonesrussell/bidcrawl/cmd/common"
	"github.com/jonesrussell/bidcrawl/internal/workflow"
)

// Command returns the detail command.
func Command() *cobra.Command {
	var (
		org    string
		limit  int
		dryRun bool
	)

	cmd := &cobra.Command{
		Use:   "detail",
		Short: "Fetch detail pages for stored notices",
		Long: `Visit the detail page of stored notices that have not been
enriched yet and extract the organization's detail fields onto them.
Organizations without detail rules are skipped.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			deps, err := common.Build()
			if err != nil {
				return err
			}
			defer deps.Close()

			result := deps.Orchestrator.RunDetails(cmd.Context(), workflow.Options{
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
	cmd.Flags().IntVar(&limit, "limit", 0, "pending notices per organization (0 = default batch)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "fetch and extract without persisting")

	return cmd
}
