// This file implements the crash history stream.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/meshwatch/fleetstore/pkg/types"
)

// WriteClientCrashInfo appends a crash record at the current time and
// advances the crash pointer unconditionally.
func (b *Backend) WriteClientCrashInfo(ctx context.Context, id types.ClientID, crash *types.CrashInfo) error {
	key, err := id.Key()
	if err != nil {
		return err
	}

	blob, err := crash.SerializeToBytes()
	if err != nil {
		return fmt.Errorf("serializing crash info: %w", err)
	}
	ts := timeToMicros(now())

	err = b.runTx(ctx, false, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO client_crash_history (client_id, timestamp, crash_info)
			VALUES (?, ?, ?)`, int64(key), ts, blob)
		if err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE clients
			   SET last_crash_timestamp = ?
			 WHERE client_id = ?`, ts, int64(key))
		return err
	})
	return asUnknownClient(err, id)
}

// ReadClientCrashInfo resolves the latest crash record through the
// pointer, or nil when the pointer is unset.
func (b *Backend) ReadClientCrashInfo(ctx context.Context, id types.ClientID) (*types.CrashInfo, error) {
	key, err := id.Key()
	if err != nil {
		return nil, err
	}

	var crash *types.CrashInfo
	err = b.runTx(ctx, true, func(tx *sql.Tx) error {
		var (
			blob []byte
			ts   int64
		)
		err := tx.QueryRowContext(ctx, `
			SELECT h.crash_info, h.timestamp
			  FROM clients AS c, client_crash_history AS h
			 WHERE c.client_id = h.client_id
			   AND c.last_crash_timestamp = h.timestamp
			   AND c.client_id = ?`, int64(key)).Scan(&blob, &ts)
		if err == sql.ErrNoRows {
			return nil
		}
		if err != nil {
			return err
		}

		decoded, err := types.CrashInfoFromBytes(blob)
		if err != nil {
			return fmt.Errorf("decoding crash info: %w", err)
		}
		decoded.Timestamp = microsToTime(ts)
		crash = decoded
		return nil
	})
	if err != nil {
		return nil, err
	}
	return crash, nil
}

// ReadClientCrashInfoHistory scans the crash stream in descending time
// order.
func (b *Backend) ReadClientCrashInfoHistory(ctx context.Context, id types.ClientID) ([]*types.CrashInfo, error) {
	key, err := id.Key()
	if err != nil {
		return nil, err
	}

	var history []*types.CrashInfo
	err = b.runTx(ctx, true, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, `
			SELECT crash_info, timestamp
			  FROM client_crash_history
			 WHERE client_id = ?
			 ORDER BY timestamp DESC`, int64(key))
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var (
				blob []byte
				ts   int64
			)
			if err := rows.Scan(&blob, &ts); err != nil {
				return err
			}
			crash, err := types.CrashInfoFromBytes(blob)
			if err != nil {
				return fmt.Errorf("decoding crash info: %w", err)
			}
			crash.Timestamp = microsToTime(ts)
			history = append(history, crash)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return history, nil
}
