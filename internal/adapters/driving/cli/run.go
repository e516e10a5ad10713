package cli

import (
	"context"
	"errors"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/tutorbot/internal/logger"
)

var (
	runOnce        bool
	runDryRun      bool
	runMetricsAddr string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Poll the forum and answer unread questions",
	Long: `Poll the course feed for unread questions and answer them.

Each cycle lists the unread posts, skips any already in the ledger,
drafts an answer for eligible questions and posts it as the instructor
answer, falling back to a follow-up when that is not permitted.

With --dry-run answers are drafted and logged but nothing is posted or
recorded. With --once a single cycle runs and the command exits.`,
	Example: `  tutorbot run
  tutorbot run --once --dry-run
  tutorbot run --metrics-addr :9090`,
	RunE: runRun,
}

func init() {
	runCmd.Flags().BoolVar(&runOnce, "once", false, "run a single poll cycle and exit")
	runCmd.Flags().BoolVar(&runDryRun, "dry-run", false, "draft answers without posting them")
	runCmd.Flags().StringVar(&runMetricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, _ []string) error {
	if err := requireRuntime(); err != nil {
		return err
	}
	ctx := cmd.Context()

	if runMetricsAddr != "" {
		go func() {
			if err := appRuntime.ServeMetrics(ctx, runMetricsAddr); err != nil {
				logger.Error("Metrics server: %v", err)
			}
		}()
		logger.Info("Metrics on %s/metrics", runMetricsAddr)
	}

	poller, err := appRuntime.Poller(ctx, settings, runDryRun)
	if err != nil {
		return err
	}
	if runDryRun {
		logger.Warn("Dry run: answers will not be posted")
	}

	if runOnce {
		stats, err := poller.RunCycle(ctx)
		if err != nil {
			return err
		}
		cmd.Printf("Cycle %d: %d listed, %d answered, %d drafted, %d ineligible, %d skipped, %d failed (%s)\n",
			stats.Cycle, stats.Listed, stats.Answered, stats.Drafted, stats.Ineligible,
			stats.Skipped, stats.Failed, stats.Duration.Round(time.Millisecond))
		return nil
	}

	logger.Info("Bot started, polling every %s", settings.Poll.Interval)
	err = poller.Run(ctx)
	if errors.Is(err, context.Canceled) {
		logger.Info("Bot stopped")
		return nil
	}
	return err
}
