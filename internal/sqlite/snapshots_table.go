// This file implements the snapshot history stream and its pairing with
// the startup stream: a snapshot and its startup info are written as two
// rows in two streams sharing one transaction timestamp.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/meshwatch/fleetstore/pkg/types"
)

var errEmptySnapshotBatch = errors.New("empty snapshot batch")

// WriteClientSnapshot appends snapshot and startup info at one generated
// timestamp, advances both pointers unconditionally, and denormalizes the
// snapshot's identity fields onto the pointer record for cheap listing.
func (b *Backend) WriteClientSnapshot(ctx context.Context, snapshot *types.ClientSnapshot) error {
	key, err := snapshot.ClientID.Key()
	if err != nil {
		return err
	}

	snapshotBlob, err := snapshot.SerializeToBytes()
	if err != nil {
		return fmt.Errorf("serializing snapshot: %w", err)
	}

	startup := snapshot.StartupInfo
	if startup == nil {
		startup = &types.StartupInfo{AgentVersion: snapshot.AgentVersion}
	}
	startupBlob, err := startup.SerializeToBytes()
	if err != nil {
		return fmt.Errorf("serializing startup info: %w", err)
	}

	ts := timeToMicros(now())

	err = b.runTx(ctx, false, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO client_snapshot_history (client_id, timestamp, snapshot)
			VALUES (?, ?, ?)`, int64(key), ts, snapshotBlob)
		if err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO client_startup_history (client_id, timestamp, startup_info)
			VALUES (?, ?, ?)`, int64(key), ts, startupBlob)
		if err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE clients
			   SET last_snapshot_timestamp = ?,
			       last_startup_timestamp = ?,
			       last_version_string = ?,
			       last_platform = ?,
			       last_platform_release = ?
			 WHERE client_id = ?`,
			ts, ts, snapshot.AgentVersion, snapshot.Platform,
			snapshot.PlatformRelease, int64(key))
		return err
	})
	return asUnknownClient(err, snapshot.ClientID)
}

// WriteClientSnapshotHistory bulk-writes timestamped snapshot/startup
// pairs for one client, then advances each pointer to the maximum
// timestamp only if it exceeds what is already recorded. Out-of-order
// imports therefore never push a pointer backward.
func (b *Backend) WriteClientSnapshotHistory(ctx context.Context, snapshots []*types.ClientSnapshot) error {
	if len(snapshots) == 0 {
		return errEmptySnapshotBatch
	}

	clientID := snapshots[0].ClientID
	key, err := clientID.Key()
	if err != nil {
		return err
	}

	var latest int64
	for _, snapshot := range snapshots {
		if snapshot.ClientID != clientID {
			return fmt.Errorf("snapshot batch spans clients %s and %s", clientID, snapshot.ClientID)
		}
		if snapshot.Timestamp.IsZero() {
			return fmt.Errorf("snapshot for %s carries no timestamp", clientID)
		}
		if ts := timeToMicros(snapshot.Timestamp); ts > latest {
			latest = ts
		}
	}

	err = b.runTx(ctx, false, func(tx *sql.Tx) error {
		for _, snapshot := range snapshots {
			snapshotBlob, err := snapshot.SerializeToBytes()
			if err != nil {
				return fmt.Errorf("serializing snapshot: %w", err)
			}

			startup := snapshot.StartupInfo
			if startup == nil {
				startup = &types.StartupInfo{AgentVersion: snapshot.AgentVersion}
			}
			startupBlob, err := startup.SerializeToBytes()
			if err != nil {
				return fmt.Errorf("serializing startup info: %w", err)
			}

			ts := timeToMicros(snapshot.Timestamp)
			_, err = tx.ExecContext(ctx, `
				INSERT INTO client_snapshot_history (client_id, timestamp, snapshot)
				VALUES (?, ?, ?)`, int64(key), ts, snapshotBlob)
			if err != nil {
				return err
			}
			_, err = tx.ExecContext(ctx, `
				INSERT INTO client_startup_history (client_id, timestamp, startup_info)
				VALUES (?, ?, ?)`, int64(key), ts, startupBlob)
			if err != nil {
				return err
			}
		}

		// Monotonicity guard: a conditional update, not read-then-write.
		_, err := tx.ExecContext(ctx, `
			UPDATE clients
			   SET last_snapshot_timestamp = ?
			 WHERE client_id = ?
			   AND (last_snapshot_timestamp IS NULL OR last_snapshot_timestamp < ?)`,
			latest, int64(key), latest)
		if err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE clients
			   SET last_startup_timestamp = ?
			 WHERE client_id = ?
			   AND (last_startup_timestamp IS NULL OR last_startup_timestamp < ?)`,
			latest, int64(key), latest)
		return err
	})
	return asUnknownClient(err, clientID)
}

// MultiReadClientSnapshot reads the latest snapshot plus its paired
// startup info for many clients in one round trip, resolved through the
// pointer record rather than a history scan. The startup info is joined
// at the snapshot's own timestamp, so it is the row written in the same
// transaction as the snapshot rather than whatever the independent
// startup pointer names, which may have advanced past it. Every
// requested id is present in the result; clients with no snapshot yield
// an empty shell carrying just the identifier.
func (b *Backend) MultiReadClientSnapshot(ctx context.Context, ids []types.ClientID) (map[types.ClientID]*types.ClientSnapshot, error) {
	result := make(map[types.ClientID]*types.ClientSnapshot, len(ids))
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
		SELECT c.client_id, h.snapshot, h.timestamp, s.startup_info
		  FROM clients AS c,
		       client_snapshot_history AS h,
		       client_startup_history AS s
		 WHERE h.client_id = c.client_id
		   AND s.client_id = c.client_id
		   AND h.timestamp = c.last_snapshot_timestamp
		   AND s.timestamp = c.last_snapshot_timestamp
		   AND c.client_id IN (%s)`, placeholders(len(keys)))

	err = b.runTx(ctx, true, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var (
				key                       int64
				snapshotBlob, startupBlob []byte
				ts                        int64
			)
			if err := rows.Scan(&key, &snapshotBlob, &ts, &startupBlob); err != nil {
				return err
			}

			snapshot, err := types.ClientSnapshotFromBytes(snapshotBlob)
			if err != nil {
				return fmt.Errorf("decoding snapshot: %w", err)
			}
			startup, err := types.StartupInfoFromBytes(startupBlob)
			if err != nil {
				return fmt.Errorf("decoding startup info: %w", err)
			}

			snapshot.Timestamp = microsToTime(ts)
			startup.Timestamp = snapshot.Timestamp
			snapshot.StartupInfo = startup
			result[types.ClientIDFromKey(uint64(key))] = snapshot
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}

	for _, id := range ids {
		if _, ok := result[id]; !ok {
			result[id] = &types.ClientSnapshot{ClientID: id}
		}
	}
	return result, nil
}

// ReadClientSnapshotHistory scans the snapshot stream directly, pairing
// each row with its equal-timestamp startup row, in descending time
// order. Bounds are inclusive; a nil range scans everything.
func (b *Backend) ReadClientSnapshotHistory(ctx context.Context, id types.ClientID, tr *types.TimeRange) ([]*types.ClientSnapshot, error) {
	key, err := id.Key()
	if err != nil {
		return nil, err
	}

	query := `
		SELECT sn.snapshot, st.startup_info, sn.timestamp
		  FROM client_snapshot_history AS sn,
		       client_startup_history AS st
		 WHERE sn.client_id = st.client_id
		   AND sn.timestamp = st.timestamp
		   AND sn.client_id = ?`
	args := []any{int64(key)}

	if tr != nil {
		if !tr.From.IsZero() {
			query += " AND sn.timestamp >= ?"
			args = append(args, timeToMicros(tr.From))
		}
		if !tr.To.IsZero() {
			query += " AND sn.timestamp <= ?"
			args = append(args, timeToMicros(tr.To))
		}
	}
	query += " ORDER BY sn.timestamp DESC"

	var history []*types.ClientSnapshot
	err = b.runTx(ctx, true, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var (
				snapshotBlob, startupBlob []byte
				ts                        int64
			)
			if err := rows.Scan(&snapshotBlob, &startupBlob, &ts); err != nil {
				return err
			}

			snapshot, err := types.ClientSnapshotFromBytes(snapshotBlob)
			if err != nil {
				return fmt.Errorf("decoding snapshot: %w", err)
			}
			startup, err := types.StartupInfoFromBytes(startupBlob)
			if err != nil {
				return fmt.Errorf("decoding startup info: %w", err)
			}

			snapshot.Timestamp = microsToTime(ts)
			startup.Timestamp = snapshot.Timestamp
			snapshot.StartupInfo = startup
			history = append(history, snapshot)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return history, nil
}
