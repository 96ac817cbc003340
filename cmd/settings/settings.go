// Package settings implements the settings admin commands.
package settings

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/jonesrussell/bidcrawl/cmd/common"
	engsettings "github.com/jonesrussell/bidcrawl/internal/settings"
)

// Command returns the settings command group.
func Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Inspect and validate organization scraping settings",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}

	cmd.AddCommand(listCommand())
	cmd.AddCommand(validateCommand())

	return cmd
}

// listCommand renders the settings table.
func listCommand() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List organization scraping settings",
		RunE: func(cmd *cobra.Command, _ []string) error {
			deps, err := common.Build()
			if err != nil {
				return err
			}
			defer deps.Close()

			ctx := cmd.Context()
			rows, err := deps.Settings.ListAll(ctx)
			if err != nil {
				return err
			}

			t := table.NewWriter()
			t.SetOutputMirror(cmd.OutOrStdout())
			t.AppendHeader(table.Row{"OID", "Organization", "URL", "Pages", "Use", "Paging", "Detail"})

			for _, row := range rows {
				if !all && !row.IsActive() {
					continue
				}

				detail := ""
				if row.DetailElements != nil && *row.DetailElements != "" {
					detail = "yes"
				}

				t.AppendRow(table.Row{
					row.OID,
					row.OrgName,
					row.URL,
					fmt.Sprintf("%d-%d", row.StartPage, row.EndPage),
					row.Use,
					row.PagingStrategy(),
					detail,
				})
			}

			t.Render()
			return nil
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "include disabled organizations")

	return cmd
}

// validateCommand compiles every organization's extraction rules and reports
// problems without touching any site.
func validateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate every organization's extraction rules",
		RunE: func(cmd *cobra.Command, _ []string) error {
			deps, err := common.Build()
			if err != nil {
				return err
			}
			defer deps.Close()

			rows, err := deps.Settings.ListAll(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			problems := 0

			for _, row := range rows {
				if verr := validateRow(row.Elements, true); verr != nil {
					problems++
					fmt.Fprintf(out, "%s: elements: %v\n", row.OrgName, verr)
				}
				if row.DetailElements != nil && *row.DetailElements != "" {
					if verr := validateRow(*row.DetailElements, false); verr != nil {
						problems++
						fmt.Fprintf(out, "%s: detail_elements: %v\n", row.OrgName, verr)
					}
				}
			}

			if problems > 0 {
				return fmt.Errorf("%d invalid rule set(s) in %d settings row(s)", problems, len(rows))
			}

			fmt.Fprintf(out, "All %d settings rows valid\n", len(rows))
			return nil
		},
	}
}

func validateRow(raw string, list bool) error {
	mapping, err := engsettings.ParseElements(raw)
	if err != nil {
		return err
	}
	if list {
		return mapping.RequireListFields()
	}
	return nil
}
