// This file implements the keyset-paginated last-ping scan used by
// fleet-wide retirement jobs.
package sqlite

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/meshwatch/fleetstore/pkg/types"
)

// ScanClientLastPings walks the pointer record table in stored key
// order, one read-only transaction per batch. The cursor is the last
// client id consumed, so an interrupted scan restarts with StartAfter
// instead of re-reading from the beginning.
func (b *Backend) ScanClientLastPings(ctx context.Context, opts types.LastPingScanOptions) types.LastPingScanner {
	scanner := &lastPingScanner{
		backend:   b,
		ctx:       ctx,
		opts:      opts,
		batchSize: opts.BatchSize,
	}
	if scanner.batchSize <= 0 {
		scanner.batchSize = types.DefaultBatchSize
	}
	if opts.StartAfter != "" {
		key, err := opts.StartAfter.Key()
		if err != nil {
			scanner.err = err
			scanner.done = true
		} else {
			scanner.cursor = int64(key)
			scanner.hasCursor = true
		}
	}
	return scanner
}

// lastPingScanner implements types.LastPingScanner.
type lastPingScanner struct {
	backend   *Backend
	ctx       context.Context
	opts      types.LastPingScanOptions
	batchSize int

	// cursor is the signed form of the last key consumed. Keys cover the
	// full uint64 range and are stored as int64, so a fresh scan must not
	// compare against a sentinel value; hasCursor gates the predicate.
	cursor    int64
	hasCursor bool

	batch map[types.ClientID]time.Time
	done  bool
	err   error
}

// Next fetches one batch. The scan is exhausted when a batch comes back
// shorter than the batch size; a final empty batch is not reported.
func (s *lastPingScanner) Next() bool {
	if s.done || s.err != nil {
		return false
	}

	query := `
		SELECT client_id, last_ping
		  FROM clients`
	var (
		conds []string
		args  []any
	)
	if s.hasCursor {
		conds = append(conds, "client_id > ?")
		args = append(args, s.cursor)
	}
	if !s.opts.MinLastPing.IsZero() {
		conds = append(conds, "last_ping >= ?")
		args = append(args, timeToMicros(s.opts.MinLastPing))
	}
	if !s.opts.MaxLastPing.IsZero() {
		conds = append(conds, "(last_ping IS NULL OR last_ping <= ?)")
		args = append(args, timeToMicros(s.opts.MaxLastPing))
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY client_id LIMIT ?"
	args = append(args, s.batchSize)

	batch := make(map[types.ClientID]time.Time, s.batchSize)
	rowCount := 0
	s.err = s.backend.runTx(s.ctx, true, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(s.ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var (
				key      int64
				lastPing sql.NullInt64
			)
			if err := rows.Scan(&key, &lastPing); err != nil {
				return err
			}
			batch[types.ClientIDFromKey(uint64(key))] = timeFromNull(lastPing)
			s.cursor = key
			s.hasCursor = true
			rowCount++
		}
		return rows.Err()
	})
	if s.err != nil {
		return false
	}

	if rowCount < s.batchSize {
		s.done = true
	}
	if rowCount == 0 {
		return false
	}

	s.batch = batch
	return true
}

// Batch returns the batch fetched by the last successful Next.
func (s *lastPingScanner) Batch() map[types.ClientID]time.Time {
	return s.batch
}

// Cursor returns the last client id consumed. Before the first row it
// echoes StartAfter, which is empty on a fresh scan.
func (s *lastPingScanner) Cursor() types.ClientID {
	if !s.hasCursor {
		return s.opts.StartAfter
	}
	return types.ClientIDFromKey(uint64(s.cursor))
}

// Err returns the first error encountered.
func (s *lastPingScanner) Err() error {
	return s.err
}
