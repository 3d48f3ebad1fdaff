// This file implements the resource-usage stats stream and its retention
// purge. The stream's timestamp doubles as a dedup key: a write for an
// existing (client, timestamp) overwrites the payload.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/meshwatch/fleetstore/pkg/types"
)

// WriteClientStats stores one sample. A sample carrying no timestamp is
// assigned the current time before writing.
func (b *Backend) WriteClientStats(ctx context.Context, id types.ClientID, stats *types.ClientStats) error {
	key, err := id.Key()
	if err != nil {
		return err
	}

	// The stored sample gets the assigned timestamp; the caller's copy
	// stays untouched.
	sample := *stats
	if sample.Timestamp.IsZero() {
		sample.Timestamp = now()
	}

	blob, err := sample.SerializeToBytes()
	if err != nil {
		return fmt.Errorf("serializing stats: %w", err)
	}

	err = b.runTx(ctx, false, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO client_stats (client_id, timestamp, payload)
			VALUES (?, ?, ?)
			ON CONFLICT (client_id, timestamp) DO UPDATE SET payload = excluded.payload`,
			int64(key), timeToMicros(sample.Timestamp), blob)
		return err
	})
	return asUnknownClient(err, id)
}

// ReadClientStats reads samples between min and max (inclusive) in
// ascending time order.
func (b *Backend) ReadClientStats(ctx context.Context, id types.ClientID, min, max time.Time) ([]*types.ClientStats, error) {
	key, err := id.Key()
	if err != nil {
		return nil, err
	}

	var samples []*types.ClientStats
	err = b.runTx(ctx, true, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, `
			SELECT payload
			  FROM client_stats
			 WHERE client_id = ?
			   AND timestamp BETWEEN ? AND ?
			 ORDER BY timestamp ASC`,
			int64(key), timeToMicros(min), timeToMicros(max))
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var blob []byte
			if err := rows.Scan(&blob); err != nil {
				return err
			}
			sample, err := types.ClientStatsFromBytes(blob)
			if err != nil {
				return fmt.Errorf("decoding stats: %w", err)
			}
			samples = append(samples, sample)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return samples, nil
}

// DeleteOldClientStats purges samples older than cutoff, batchSize rows
// per transaction. Each batch commits independently so no single
// transaction holds locks proportional to the table size.
func (b *Backend) DeleteOldClientStats(ctx context.Context, cutoff time.Time, batchSize int) types.StatsPurge {
	if batchSize <= 0 {
		batchSize = types.DefaultBatchSize
	}
	return &statsPurge{
		backend:   b,
		ctx:       ctx,
		cutoff:    timeToMicros(cutoff),
		batchSize: batchSize,
	}
}

// statsPurge implements types.StatsPurge.
type statsPurge struct {
	backend   *Backend
	ctx       context.Context
	cutoff    int64
	batchSize int

	count int64
	done  bool
	err   error
}

// Next deletes one batch. It stops as soon as a batch deletes zero rows,
// so a trailing zero count is never reported.
func (p *statsPurge) Next() bool {
	if p.done || p.err != nil {
		return false
	}

	var deleted int64
	p.err = p.backend.runTx(p.ctx, false, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(p.ctx, `
			DELETE FROM client_stats
			 WHERE rowid IN (SELECT rowid
			                   FROM client_stats
			                  WHERE timestamp < ?
			                  LIMIT ?)`, p.cutoff, p.batchSize)
		if err != nil {
			return err
		}
		deleted, err = res.RowsAffected()
		return err
	})
	if p.err != nil {
		return false
	}

	if deleted == 0 {
		p.done = true
		return false
	}

	p.count = deleted
	p.backend.log.Debug("purged stats batch", zap.Int64("deleted", deleted))
	return true
}

// Count returns the rows deleted by the last successful Next.
func (p *statsPurge) Count() int64 {
	return p.count
}

// Err returns the first error encountered.
func (p *statsPurge) Err() error {
	return p.err
}
