// This file implements fleet-wide activity aggregation: n-day-active
// client counts per statistic value, broken down by system label and as a
// fleet-wide total, computed from one consistent snapshot of last_ping.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/meshwatch/fleetstore/pkg/types"
)

// Denormalized statistic columns the aggregator may group by. The column
// name is always drawn from this table, never from caller input.
const (
	statisticVersionString   = "last_version_string"
	statisticPlatform        = "last_platform"
	statisticPlatformRelease = "last_platform_release"
)

// CountClientVersionStringsByLabel computes n-day-active counts per agent
// version string.
func (b *Backend) CountClientVersionStringsByLabel(ctx context.Context, dayBuckets []int) (*types.FleetStats, error) {
	return b.countClientStatisticByLabel(ctx, statisticVersionString, dayBuckets)
}

// CountClientPlatformsByLabel computes n-day-active counts per platform.
func (b *Backend) CountClientPlatformsByLabel(ctx context.Context, dayBuckets []int) (*types.FleetStats, error) {
	return b.countClientStatisticByLabel(ctx, statisticPlatform, dayBuckets)
}

// CountClientPlatformReleasesByLabel computes n-day-active counts per
// platform release string.
func (b *Backend) CountClientPlatformReleasesByLabel(ctx context.Context, dayBuckets []int) (*types.FleetStats, error) {
	return b.countClientStatisticByLabel(ctx, statisticPlatformRelease, dayBuckets)
}

func (b *Backend) countClientStatisticByLabel(ctx context.Context, statistic string, dayBuckets []int) (*types.FleetStats, error) {
	buckets := make([]int, len(dayBuckets))
	copy(buckets, dayBuckets)
	sort.Ints(buckets)

	// One "now" for every bucket and both queries, so the per-label and
	// total figures describe the same point in time.
	current := now()
	sumClauses := make([]string, len(buckets))
	cutoffs := make([]any, len(buckets))
	for i, days := range buckets {
		sumClauses[i] = "SUM(CASE WHEN c.last_ping >= ? THEN 1 ELSE 0 END)"
		cutoffs[i] = timeToMicros(current.Add(-time.Duration(days) * 24 * time.Hour))
	}

	labelQuery := fmt.Sprintf(`
		SELECT c.%s, l.label, %s
		  FROM clients AS c
		       JOIN client_labels AS l ON l.client_id = c.client_id
		 WHERE c.last_ping IS NOT NULL
		   AND l.owner = ?
		 GROUP BY c.%s, l.label`,
		statistic, strings.Join(sumClauses, ", "), statistic)

	totalQuery := fmt.Sprintf(`
		SELECT c.%s, %s
		  FROM clients AS c
		 WHERE c.last_ping IS NOT NULL
		 GROUP BY c.%s`,
		statistic, strings.Join(sumClauses, ", "), statistic)

	builder := types.NewFleetStatsBuilder(buckets)

	err := b.runTx(ctx, true, func(tx *sql.Tx) error {
		labelArgs := append(append([]any{}, cutoffs...), types.SystemLabelOwner)
		rows, err := tx.QueryContext(ctx, labelQuery, labelArgs...)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var (
				value sql.NullString
				label string
			)
			counts := make([]int64, len(buckets))
			dest := []any{&value, &label}
			for i := range counts {
				dest = append(dest, &counts[i])
			}
			if err := rows.Scan(dest...); err != nil {
				return err
			}
			for i, n := range counts {
				if n <= 0 {
					continue
				}
				if err := builder.IncrementLabel(label, value.String, buckets[i], n); err != nil {
					return err
				}
			}
		}
		if err := rows.Err(); err != nil {
			return err
		}

		totals, err := tx.QueryContext(ctx, totalQuery, cutoffs...)
		if err != nil {
			return err
		}
		defer totals.Close()

		for totals.Next() {
			var value sql.NullString
			counts := make([]int64, len(buckets))
			dest := []any{&value}
			for i := range counts {
				dest = append(dest, &counts[i])
			}
			if err := totals.Scan(dest...); err != nil {
				return err
			}
			for i, n := range counts {
				if n <= 0 {
					continue
				}
				if err := builder.IncrementTotal(value.String, buckets[i], n); err != nil {
					return err
				}
			}
		}
		return totals.Err()
	})
	if err != nil {
		return nil, err
	}
	return builder.Build(), nil
}
