package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const janitorRunTimeout = 10 * time.Minute

func newJanitorCmd() *cobra.Command {
	var (
		schedule      string
		retentionDays int
	)

	cmd := &cobra.Command{
		Use:   "janitor",
		Short: "Run the stats retention job on a schedule",
		Long: "Runs in the foreground and purges resource-usage samples past the\n" +
			"retention window on the given cron schedule, until interrupted.",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := attachStore()
			if err != nil {
				return err
			}
			defer store.Detach()

			ctx := cmd.Context()
			scheduler := cron.New(cron.WithChain(cron.Recover(cron.DefaultLogger)))
			_, err = scheduler.AddFunc(schedule, func() {
				// keep each run bounded
				rctx, cancel := context.WithTimeout(ctx, janitorRunTimeout)
				defer cancel()

				cutoff := time.Now().UTC().Add(-time.Duration(retentionDays) * 24 * time.Hour)
				deleted, err := purgeStats(rctx, store, cutoff, 0)
				if err != nil {
					log.Error("stats purge failed", zap.Error(err))
					return
				}
				log.Info("stats purge complete",
					zap.Int64("deleted", deleted),
					zap.Time("cutoff", cutoff))
			})
			if err != nil {
				return fmt.Errorf("schedule janitor: %w", err)
			}

			scheduler.Start()
			log.Info("janitor started", zap.String("schedule", schedule))

			stop := make(chan os.Signal, 1)
			signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
			select {
			case <-stop:
			case <-ctx.Done():
			}

			<-scheduler.Stop().Done()
			log.Info("janitor stopped")
			return nil
		},
	}

	cmd.Flags().StringVar(&schedule, "schedule", "0 3 * * *", "cron schedule for the purge run")
	cmd.Flags().IntVar(&retentionDays, "retention-days", 31, "keep samples newer than N days")

	return cmd
}
