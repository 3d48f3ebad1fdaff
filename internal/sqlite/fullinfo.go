// This file implements the composite full-info reader: one query joining
// the pointer record to the latest snapshot/startup pair, the latest
// independent startup, the latest agent startup, and every label.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	"github.com/meshwatch/fleetstore/pkg/types"
)

// fullInfoRow carries one scanned row of the composite query. The label
// join fans out to one row per label; every other joined value repeats.
type fullInfoRow struct {
	key                          int64
	certificate, lastIP, valInfo []byte
	lastPing, lastClock          sql.NullInt64
	lastForeman, firstSeen       sql.NullInt64
	snapTS, crashTS, startTS     sql.NullInt64
	snapshotBlob                 []byte
	pairedStartupBlob            []byte
	lastStartupBlob              []byte
	agentStartupBlob             []byte
	agentStartupTS               sql.NullInt64
	labelOwner, labelName        sql.NullString
}

// MultiReadClientFullInfo reads the full composite view for many clients
// in one query. Rows arrive ordered by client id (enforced by the query
// itself), so a single accumulate-and-flush pass groups the label fan-out
// into one record per client. Requested ids without a pointer record, or
// filtered out by minLastPing, are omitted.
func (b *Backend) MultiReadClientFullInfo(ctx context.Context, ids []types.ClientID, minLastPing *time.Time) (map[types.ClientID]*types.ClientFullInfo, error) {
	result := make(map[types.ClientID]*types.ClientFullInfo, len(ids))
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
		SELECT c.client_id, c.certificate, c.last_ip,
		       c.last_ping, c.last_clock, c.last_foreman, c.first_seen,
		       c.last_snapshot_timestamp, c.last_crash_timestamp, c.last_startup_timestamp,
		       c.last_validation_info,
		       h.snapshot, s.startup_info, s_last.startup_info,
		       a.startup, a.timestamp,
		       l.owner, l.label
		  FROM clients AS c
		       LEFT JOIN client_snapshot_history AS h
		              ON c.client_id = h.client_id
		             AND c.last_snapshot_timestamp = h.timestamp
		       LEFT JOIN client_startup_history AS s
		              ON c.client_id = s.client_id
		             AND c.last_snapshot_timestamp = s.timestamp
		       LEFT JOIN client_startup_history AS s_last
		              ON c.client_id = s_last.client_id
		             AND c.last_startup_timestamp = s_last.timestamp
		       LEFT JOIN client_agent_startup_history AS a
		              ON a.id = (SELECT id
		                           FROM client_agent_startup_history
		                          WHERE client_id = c.client_id
		                          ORDER BY timestamp DESC, id DESC
		                          LIMIT 1)
		       LEFT JOIN client_labels AS l
		              ON c.client_id = l.client_id
		 WHERE c.client_id IN (%s)`, placeholders(len(keys)))

	if minLastPing != nil {
		query += " AND c.last_ping >= ?"
		args = append(args, timeToMicros(*minLastPing))
	}
	query += " ORDER BY c.client_id"

	err = b.runTx(ctx, true, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		var (
			current    *types.ClientFullInfo
			currentKey int64
		)
		flush := func() {
			if current == nil {
				return
			}
			sort.Slice(current.Labels, func(i, j int) bool {
				a, b := current.Labels[i], current.Labels[j]
				if a.Owner != b.Owner {
					return a.Owner < b.Owner
				}
				return a.Name < b.Name
			})
			result[types.ClientIDFromKey(uint64(currentKey))] = current
		}

		for rows.Next() {
			var r fullInfoRow
			if err := rows.Scan(&r.key, &r.certificate, &r.lastIP,
				&r.lastPing, &r.lastClock, &r.lastForeman, &r.firstSeen,
				&r.snapTS, &r.crashTS, &r.startTS, &r.valInfo,
				&r.snapshotBlob, &r.pairedStartupBlob, &r.lastStartupBlob,
				&r.agentStartupBlob, &r.agentStartupTS,
				&r.labelOwner, &r.labelName); err != nil {
				return err
			}

			if current == nil || r.key != currentKey {
				flush()
				info, err := newFullInfo(&r)
				if err != nil {
					return err
				}
				current = info
				currentKey = r.key
			}

			if r.labelOwner.Valid && r.labelName.Valid {
				current.Labels = append(current.Labels, types.ClientLabel{
					Owner: r.labelOwner.String,
					Name:  r.labelName.String,
				})
			}
		}
		flush()
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// newFullInfo builds the per-client record from the first row of its
// group, leaving Labels for the caller to accumulate.
func newFullInfo(r *fullInfoRow) (*types.ClientFullInfo, error) {
	md := &types.ClientMetadata{
		Certificate:           r.certificate,
		LastIP:                r.lastIP,
		FirstSeen:             timeFromNull(r.firstSeen),
		LastPing:              timeFromNull(r.lastPing),
		LastClock:             timeFromNull(r.lastClock),
		LastForeman:           timeFromNull(r.lastForeman),
		LastSnapshotTimestamp: timeFromNull(r.snapTS),
		LastStartupTimestamp:  timeFromNull(r.startTS),
		LastCrashTimestamp:    timeFromNull(r.crashTS),
	}
	if len(r.valInfo) > 0 {
		vi, err := types.ValidationInfoFromBytes(r.valInfo)
		if err != nil {
			return nil, fmt.Errorf("decoding validation info: %w", err)
		}
		md.ValidationInfo = vi
	}

	clientID := types.ClientIDFromKey(uint64(r.key))

	snapshot := &types.ClientSnapshot{ClientID: clientID}
	if r.snapshotBlob != nil {
		decoded, err := types.ClientSnapshotFromBytes(r.snapshotBlob)
		if err != nil {
			return nil, fmt.Errorf("decoding snapshot: %w", err)
		}
		decoded.Timestamp = timeFromNull(r.snapTS)
		if r.pairedStartupBlob != nil {
			paired, err := types.StartupInfoFromBytes(r.pairedStartupBlob)
			if err != nil {
				return nil, fmt.Errorf("decoding startup info: %w", err)
			}
			paired.Timestamp = decoded.Timestamp
			decoded.StartupInfo = paired
		}
		snapshot = decoded
	}

	var lastStartup *types.StartupInfo
	if r.lastStartupBlob != nil {
		decoded, err := types.StartupInfoFromBytes(r.lastStartupBlob)
		if err != nil {
			return nil, fmt.Errorf("decoding startup info: %w", err)
		}
		decoded.Timestamp = timeFromNull(r.startTS)
		lastStartup = decoded
	}

	var agentStartup *types.AgentStartup
	if r.agentStartupBlob != nil {
		decoded, err := types.AgentStartupFromBytes(r.agentStartupBlob)
		if err != nil {
			return nil, fmt.Errorf("decoding agent startup: %w", err)
		}
		decoded.Timestamp = timeFromNull(r.agentStartupTS)
		agentStartup = decoded
	}

	return &types.ClientFullInfo{
		Metadata:         md,
		LastSnapshot:     snapshot,
		LastStartupInfo:  lastStartup,
		LastAgentStartup: agentStartup,
		Labels:           []types.ClientLabel{},
	}, nil
}
