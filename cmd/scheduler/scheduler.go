// Package scheduler implements the recurring-run command.
package scheduler

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/jonesrussell/bidcrawl/cmd/common"
	"github.com/jonesrussell/bidcrawl/internal/workflow"
)

// Command returns the scheduler command.
func Command() *cobra.Command {
	return &cobra.Command{
		Use:   "scheduler",
		Short: "Run list and detail collection on their cron schedules",
		Long: `Run until interrupted, triggering list collection and detail
enrichment on the configured cron schedules.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			deps, err := common.Build()
			if err != nil {
				return err
			}
			defer deps.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(),
				os.Interrupt, syscall.SIGTERM)
			defer stop()

			c := cron.New()

			_, err = c.AddFunc(deps.Cfg.Scheduler.ListSchedule, func() {
				runList(ctx, deps)
			})
			if err != nil {
				return err
			}

			_, err = c.AddFunc(deps.Cfg.Scheduler.DetailSchedule, func() {
				runDetails(ctx, deps)
			})
			if err != nil {
				return err
			}

			deps.Log.Info("scheduler started",
				"list_schedule", deps.Cfg.Scheduler.ListSchedule,
				"detail_schedule", deps.Cfg.Scheduler.DetailSchedule)

			c.Start()
			<-ctx.Done()

			deps.Log.Info("scheduler stopping")
			<-c.Stop().Done()

			return nil
		},
	}
}

func runList(ctx context.Context, deps *common.Deps) {
	result := deps.Orchestrator.Run(ctx, workflow.Options{})
	deps.Log.Info("scheduled list run finished",
		"success", result.Success,
		"organizations", result.Organizations,
		"scraped", result.ScrapedCount,
		"new", result.NewCount,
		"inserted", result.InsertedCount,
		"failed_orgs", len(result.Errors))
}

func runDetails(ctx context.Context, deps *common.Deps) {
	result := deps.Orchestrator.RunDetails(ctx, workflow.Options{})
	deps.Log.Info("scheduled detail run finished",
		"success", result.Success,
		"organizations", result.Organizations,
		"enriched", result.ScrapedCount,
		"stored", result.InsertedCount)
}
