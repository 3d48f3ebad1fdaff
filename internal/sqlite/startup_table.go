// This file implements the startup history stream's independent write
// path and reads, plus the agent startup stream, which has no pointer on
// the clients row and resolves its latest record by timestamp order.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/meshwatch/fleetstore/pkg/types"
)

// WriteClientStartupInfo appends a startup record at the current time and
// advances the startup pointer unconditionally.
func (b *Backend) WriteClientStartupInfo(ctx context.Context, id types.ClientID, info *types.StartupInfo) error {
	key, err := id.Key()
	if err != nil {
		return err
	}

	blob, err := info.SerializeToBytes()
	if err != nil {
		return fmt.Errorf("serializing startup info: %w", err)
	}
	ts := timeToMicros(now())

	err = b.runTx(ctx, false, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO client_startup_history (client_id, timestamp, startup_info)
			VALUES (?, ?, ?)`, int64(key), ts, blob)
		if err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE clients
			   SET last_startup_timestamp = ?
			 WHERE client_id = ?`, ts, int64(key))
		return err
	})
	return asUnknownClient(err, id)
}

// ReadClientStartupInfo resolves the latest startup record through the
// pointer, or nil when the pointer is unset.
func (b *Backend) ReadClientStartupInfo(ctx context.Context, id types.ClientID) (*types.StartupInfo, error) {
	key, err := id.Key()
	if err != nil {
		return nil, err
	}

	var info *types.StartupInfo
	err = b.runTx(ctx, true, func(tx *sql.Tx) error {
		var (
			blob []byte
			ts   int64
		)
		err := tx.QueryRowContext(ctx, `
			SELECT s.startup_info, s.timestamp
			  FROM clients AS c, client_startup_history AS s
			 WHERE c.last_startup_timestamp = s.timestamp
			   AND c.client_id = s.client_id
			   AND c.client_id = ?`, int64(key)).Scan(&blob, &ts)
		if err == sql.ErrNoRows {
			return nil
		}
		if err != nil {
			return err
		}

		decoded, err := types.StartupInfoFromBytes(blob)
		if err != nil {
			return fmt.Errorf("decoding startup info: %w", err)
		}
		decoded.Timestamp = microsToTime(ts)
		info = decoded
		return nil
	})
	if err != nil {
		return nil, err
	}
	return info, nil
}

// ReadClientStartupInfoHistory scans the startup stream in descending
// time order. Bounds are inclusive; a nil range scans everything.
func (b *Backend) ReadClientStartupInfoHistory(ctx context.Context, id types.ClientID, tr *types.TimeRange) ([]*types.StartupInfo, error) {
	key, err := id.Key()
	if err != nil {
		return nil, err
	}

	query := `
		SELECT startup_info, timestamp
		  FROM client_startup_history
		 WHERE client_id = ?`
	args := []any{int64(key)}

	if tr != nil {
		if !tr.From.IsZero() {
			query += " AND timestamp >= ?"
			args = append(args, timeToMicros(tr.From))
		}
		if !tr.To.IsZero() {
			query += " AND timestamp <= ?"
			args = append(args, timeToMicros(tr.To))
		}
	}
	query += " ORDER BY timestamp DESC"

	var history []*types.StartupInfo
	err = b.runTx(ctx, true, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, query, args...)
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
			info, err := types.StartupInfoFromBytes(blob)
			if err != nil {
				return fmt.Errorf("decoding startup info: %w", err)
			}
			info.Timestamp = microsToTime(ts)
			history = append(history, info)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return history, nil
}

// WriteClientAgentStartup appends an agent startup record at the current
// time. The stream has no pointer to advance.
func (b *Backend) WriteClientAgentStartup(ctx context.Context, id types.ClientID, startup *types.AgentStartup) error {
	key, err := id.Key()
	if err != nil {
		return err
	}

	blob, err := startup.SerializeToBytes()
	if err != nil {
		return fmt.Errorf("serializing agent startup: %w", err)
	}
	ts := timeToMicros(now())

	err = b.runTx(ctx, false, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO client_agent_startup_history (client_id, timestamp, startup)
			VALUES (?, ?, ?)`, int64(key), ts, blob)
		return err
	})
	return asUnknownClient(err, id)
}

// ReadClientAgentStartup reads the latest agent startup record. A client
// with no records yields nil; a missing client fails with
// UnknownClientError.
func (b *Backend) ReadClientAgentStartup(ctx context.Context, id types.ClientID) (*types.AgentStartup, error) {
	key, err := id.Key()
	if err != nil {
		return nil, err
	}

	var startup *types.AgentStartup
	err = b.runTx(ctx, true, func(tx *sql.Tx) error {
		var count int
		if err := tx.QueryRowContext(ctx,
			"SELECT COUNT(*) FROM clients WHERE client_id = ?", int64(key),
		).Scan(&count); err != nil {
			return err
		}
		if count == 0 {
			return types.NewUnknownClientError(id, nil)
		}

		var (
			blob []byte
			ts   int64
		)
		err := tx.QueryRowContext(ctx, `
			SELECT startup, timestamp
			  FROM client_agent_startup_history
			 WHERE client_id = ?
			 ORDER BY timestamp DESC, id DESC
			 LIMIT 1`, int64(key)).Scan(&blob, &ts)
		if err == sql.ErrNoRows {
			return nil
		}
		if err != nil {
			return err
		}

		decoded, err := types.AgentStartupFromBytes(blob)
		if err != nil {
			return fmt.Errorf("decoding agent startup: %w", err)
		}
		decoded.Timestamp = microsToTime(ts)
		startup = decoded
		return nil
	})
	if err != nil {
		return nil, err
	}
	return startup, nil
}
