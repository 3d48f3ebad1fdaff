// This file implements the clients pointer-record table: sparse metadata
// upserts, batched metadata reads, and client deletion.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/meshwatch/fleetstore/pkg/types"
)

// clientKeys converts external ids to internal keys, rejecting the whole
// batch on the first malformed id.
func clientKeys(ids []types.ClientID) ([]uint64, error) {
	keys := make([]uint64, len(ids))
	for i, id := range ids {
		key, err := id.Key()
		if err != nil {
			return nil, err
		}
		keys[i] = key
	}
	return keys, nil
}

// placeholders returns "?, ?, ..., ?" with n slots.
func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

// WriteClientMetadata upserts the pointer record for a client. Only the
// fields supplied in update are written, so concurrent calls with
// disjoint field sets do not clobber each other. The validation info is
// the one exception: absence is meaningful and clears the stored value.
func (b *Backend) WriteClientMetadata(ctx context.Context, id types.ClientID, update types.MetadataUpdate) error {
	key, err := id.Key()
	if err != nil {
		return err
	}

	columns := []string{"client_id"}
	args := []any{int64(key)}

	if update.Certificate != nil {
		columns = append(columns, "certificate")
		args = append(args, update.Certificate)
	}
	if update.LastIP != nil {
		columns = append(columns, "last_ip")
		args = append(args, update.LastIP)
	}
	if update.FirstSeen != nil {
		columns = append(columns, "first_seen")
		args = append(args, timeToMicros(*update.FirstSeen))
	}
	if update.LastPing != nil {
		columns = append(columns, "last_ping")
		args = append(args, timeToMicros(*update.LastPing))
	}
	if update.LastClock != nil {
		columns = append(columns, "last_clock")
		args = append(args, timeToMicros(*update.LastClock))
	}
	if update.LastForeman != nil {
		columns = append(columns, "last_foreman")
		args = append(args, timeToMicros(*update.LastForeman))
	}

	// Written unconditionally: nil clears the stored value.
	columns = append(columns, "last_validation_info")
	if update.ValidationInfo != nil {
		blob, err := update.ValidationInfo.SerializeToBytes()
		if err != nil {
			return fmt.Errorf("serializing validation info: %w", err)
		}
		args = append(args, blob)
	} else {
		args = append(args, nil)
	}

	assignments := make([]string, 0, len(columns)-1)
	for _, column := range columns[1:] {
		assignments = append(assignments, fmt.Sprintf("%s = excluded.%s", column, column))
	}

	query := fmt.Sprintf(
		"INSERT INTO clients (%s) VALUES (%s) ON CONFLICT (client_id) DO UPDATE SET %s",
		strings.Join(columns, ", "),
		placeholders(len(columns)),
		strings.Join(assignments, ", "),
	)

	return b.runTx(ctx, false, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, query, args...)
		return err
	})
}

// MultiReadClientMetadata reads pointer records for many clients in one
// round trip. Ids with no record are omitted from the result.
func (b *Backend) MultiReadClientMetadata(ctx context.Context, ids []types.ClientID) (map[types.ClientID]*types.ClientMetadata, error) {
	result := make(map[types.ClientID]*types.ClientMetadata, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	keys, err := clientKeys(ids)
	if err != nil {
		return nil, err
	}
	args := make([]any, len(keys))
	for i, key := range keys {
		args[i] = int64(key)
	}

	query := fmt.Sprintf(`
		SELECT client_id, certificate, last_ip,
		       first_seen, last_ping, last_clock, last_foreman,
		       last_snapshot_timestamp, last_startup_timestamp, last_crash_timestamp,
		       last_validation_info
		  FROM clients
		 WHERE client_id IN (%s)`, placeholders(len(keys)))

	err = b.runTx(ctx, true, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var (
				key                          int64
				certificate, lastIP, valInfo []byte
				firstSeen, lastPing          sql.NullInt64
				lastClock, lastForeman       sql.NullInt64
				snapTS, startTS, crashTS     sql.NullInt64
			)
			if err := rows.Scan(&key, &certificate, &lastIP,
				&firstSeen, &lastPing, &lastClock, &lastForeman,
				&snapTS, &startTS, &crashTS, &valInfo); err != nil {
				return err
			}

			md := &types.ClientMetadata{
				Certificate:           certificate,
				LastIP:                lastIP,
				FirstSeen:             timeFromNull(firstSeen),
				LastPing:              timeFromNull(lastPing),
				LastClock:             timeFromNull(lastClock),
				LastForeman:           timeFromNull(lastForeman),
				LastSnapshotTimestamp: timeFromNull(snapTS),
				LastStartupTimestamp:  timeFromNull(startTS),
				LastCrashTimestamp:    timeFromNull(crashTS),
			}
			if len(valInfo) > 0 {
				vi, err := types.ValidationInfoFromBytes(valInfo)
				if err != nil {
					return fmt.Errorf("decoding validation info: %w", err)
				}
				md.ValidationInfo = vi
			}

			result[types.ClientIDFromKey(uint64(key))] = md
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// DeleteClient removes the pointer record. Pointer fields are cleared
// first so the composite foreign keys into the history streams never
// dangle; the delete then cascades into history, index, and stats rows.
func (b *Backend) DeleteClient(ctx context.Context, id types.ClientID) error {
	key, err := id.Key()
	if err != nil {
		return err
	}

	return b.runTx(ctx, false, func(tx *sql.Tx) error {
		var count int
		err := tx.QueryRowContext(ctx,
			"SELECT COUNT(*) FROM clients WHERE client_id = ?", int64(key),
		).Scan(&count)
		if err != nil {
			return err
		}
		if count == 0 {
			return types.NewUnknownClientError(id, nil)
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE clients
			   SET last_snapshot_timestamp = NULL,
			       last_startup_timestamp = NULL,
			       last_crash_timestamp = NULL
			 WHERE client_id = ?`, int64(key))
		if err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx,
			"DELETE FROM clients WHERE client_id = ?", int64(key))
		return err
	})
}
