package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/meshwatch/fleetstore/pkg/types"
)

func newClientsCmd() *cobra.Command {
	var (
		activeDays int
		batchSize  int
	)

	cmd := &cobra.Command{
		Use:   "clients",
		Short: "List clients and their last-ping times",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := attachStore()
			if err != nil {
				return err
			}
			defer store.Detach()

			opts := types.LastPingScanOptions{BatchSize: batchSize}
			if activeDays > 0 {
				opts.MinLastPing = time.Now().UTC().Add(-time.Duration(activeDays) * 24 * time.Hour)
			}

			total := 0
			scanner := store.ScanClientLastPings(cmd.Context(), opts)
			for scanner.Next() {
				for id, lastPing := range scanner.Batch() {
					if lastPing.IsZero() {
						fmt.Fprintf(cmd.OutOrStdout(), "%s\tnever\n", id)
					} else {
						fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", id, lastPing.Format(time.RFC3339))
					}
					total++
				}
			}
			if err := scanner.Err(); err != nil {
				return fmt.Errorf("scan clients: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%d clients\n", total)
			return nil
		},
	}

	cmd.Flags().IntVar(&activeDays, "active-days", 0, "only clients that pinged within N days")
	cmd.Flags().IntVar(&batchSize, "batch-size", 1000, "rows fetched per transaction")

	return cmd
}

func newLabelsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "labels",
		Short: "List the distinct labels across the fleet",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := attachStore()
			if err != nil {
				return err
			}
			defer store.Detach()

			labels, err := store.ListAllClientLabels(cmd.Context())
			if err != nil {
				return fmt.Errorf("list labels: %w", err)
			}
			for _, label := range labels {
				fmt.Fprintln(cmd.OutOrStdout(), label)
			}
			return nil
		},
	}
}
