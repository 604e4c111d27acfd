package cmd

import (
	"context"
	"errors"
	"log"
	"os"
	"time"

	"tradewise/internal/metrics"
	"tradewise/internal/scheduler"

	"github.com/spf13/cobra"
)

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run the batch jobs on the configured cron schedule",
	Long: `Run breakout signals, moving-average signals and an incremental LTH
refresh every day at schedule.daily_cron. Prometheus metrics are served on
metrics_addr. When Telegram is configured, run summaries are sent to the
chat and /run, /runs and /lth commands are answered.

Set RUN_ON_START=true to run the jobs once immediately.`,
	Args: cobra.NoArgs,
	RunE: runSchedule,
}

func init() {
	rootCmd.AddCommand(scheduleCmd)
}

func runSchedule(cmd *cobra.Command, args []string) error {
	log.Println("[INFO] tradewise scheduler starting...")
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	// Cancelled on SIGINT/SIGTERM by Execute.
	ctx := cmd.Context()

	var srv *metrics.Server
	if a.cfg.MetricsAddr != "" {
		srv = metrics.NewServer(a.cfg.MetricsAddr, a.registry)
		srv.Start()
	}

	sched := scheduler.NewScheduler(ctx, a.runner(), a.store, a.store, a.prices)
	if err := sched.Register(a.cfg.Schedule.DailyCron); err != nil {
		return err
	}
	sched.Start()

	if a.notifier != nil {
		go a.notifier.StartPolling(ctx, sched.HandleCommand)
		log.Println("[INFO] Telegram polling started")
	}

	if os.Getenv("RUN_ON_START") == "true" {
		log.Println("[INFO] RUN_ON_START enabled, running batch jobs now")
		go func() {
			if err := sched.RunNow(); err != nil && !errors.Is(err, context.Canceled) {
				log.Printf("[ERROR] startup run: %v", err)
			}
		}()
	}

	log.Println("[INFO] tradewise is running. Press Ctrl+C to stop.")

	<-ctx.Done()
	log.Println("[INFO] shutdown signal received, stopping...")
	sched.Stop()
	if srv != nil {
		shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
		defer done()
		if err := srv.Stop(shutdownCtx); err != nil {
			log.Printf("[WARN] metrics server shutdown: %v", err)
		}
	}
	log.Println("[INFO] tradewise stopped")
	return nil
}
