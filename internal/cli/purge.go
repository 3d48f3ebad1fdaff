package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/meshwatch/fleetstore/pkg/types"
)

func newPurgeStatsCmd() *cobra.Command {
	var (
		retentionDays int
		batchSize     int
	)

	cmd := &cobra.Command{
		Use:   "purge-stats",
		Short: "Delete resource-usage samples past the retention window",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := attachStore()
			if err != nil {
				return err
			}
			defer store.Detach()

			cutoff := time.Now().UTC().Add(-time.Duration(retentionDays) * 24 * time.Hour)
			deleted, err := purgeStats(cmd.Context(), store, cutoff, batchSize)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "deleted %d stats rows\n", deleted)
			return nil
		},
	}

	cmd.Flags().IntVar(&retentionDays, "retention-days", 31, "keep samples newer than N days")
	cmd.Flags().IntVar(&batchSize, "batch-size", types.DefaultBatchSize, "rows deleted per transaction")

	return cmd
}

// purgeStats drives a purge to completion and returns the total rows
// deleted.
func purgeStats(ctx context.Context, store types.ClientStore, cutoff time.Time, batchSize int) (int64, error) {
	purge := store.DeleteOldClientStats(ctx, cutoff, batchSize)
	var deleted int64
	for purge.Next() {
		deleted += purge.Count()
		log.Debug("purged stats chunk", zap.Int64("rows", purge.Count()))
	}
	if err := purge.Err(); err != nil {
		return deleted, fmt.Errorf("purge stats: %w", err)
	}
	return deleted, nil
}
