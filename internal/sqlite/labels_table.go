// This file implements the label index: owner-scoped categorical tags.
// Unlike the keyword index, adding an existing label tuple is ignored
// rather than refreshed; labels carry no timestamp to refresh.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/meshwatch/fleetstore/pkg/types"
)

// AddClientLabels attaches owner-scoped labels to the clients, one
// statement for the whole cross-product. When any client is unknown the
// whole batch fails together; nothing is applied.
func (b *Backend) AddClientLabels(ctx context.Context, ids []types.ClientID, owner string, labels []string) error {
	if len(ids) == 0 || len(labels) == 0 {
		return nil
	}

	keys, err := clientKeys(ids)
	if err != nil {
		return err
	}

	ownerHash := indexHash(owner)
	values := make([]string, 0, len(keys)*len(labels))
	args := make([]any, 0, len(keys)*len(labels)*4)
	for _, key := range keys {
		for _, label := range labels {
			values = append(values, "(?, ?, ?, ?)")
			args = append(args, int64(key), ownerHash, owner, label)
		}
	}

	query := fmt.Sprintf(`
		INSERT INTO client_labels (client_id, owner_hash, owner, label)
		VALUES %s
		ON CONFLICT (client_id, owner_hash, label) DO NOTHING`,
		strings.Join(values, ", "))

	err = b.runTx(ctx, false, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, query, args...)
		return err
	})
	return asAtLeastOneUnknownClient(err, ids)
}

// RemoveClientLabels removes the matching label tuples for one client and
// owner.
func (b *Backend) RemoveClientLabels(ctx context.Context, id types.ClientID, owner string, labels []string) error {
	if len(labels) == 0 {
		return nil
	}

	key, err := id.Key()
	if err != nil {
		return err
	}

	args := []any{int64(key), indexHash(owner)}
	for _, label := range labels {
		args = append(args, label)
	}

	query := fmt.Sprintf(`
		DELETE FROM client_labels
		 WHERE client_id = ? AND owner_hash = ? AND label IN (%s)`,
		placeholders(len(labels)))

	return b.runTx(ctx, false, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, query, args...)
		return err
	})
}

// ReadClientLabels returns labels for each requested client, sorted by
// owner then name for determinism. Every requested id is present in the
// result, clients without labels as empty lists.
func (b *Backend) ReadClientLabels(ctx context.Context, ids []types.ClientID) (map[types.ClientID][]types.ClientLabel, error) {
	result := make(map[types.ClientID][]types.ClientLabel, len(ids))
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
	for _, id := range ids {
		result[id] = []types.ClientLabel{}
	}

	query := fmt.Sprintf(`
		SELECT client_id, owner, label
		  FROM client_labels
		 WHERE client_id IN (%s)
		 ORDER BY owner, label`, placeholders(len(keys)))

	err = b.runTx(ctx, true, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var (
				key          int64
				owner, label string
			)
			if err := rows.Scan(&key, &owner, &label); err != nil {
				return err
			}
			id := types.ClientIDFromKey(uint64(key))
			result[id] = append(result[id], types.ClientLabel{Owner: owner, Name: label})
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ListAllClientLabels returns the distinct label names across the whole
// fleet.
func (b *Backend) ListAllClientLabels(ctx context.Context) ([]string, error) {
	var labels []string
	err := b.runTx(ctx, true, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx,
			"SELECT DISTINCT label FROM client_labels ORDER BY label")
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var label string
			if err := rows.Scan(&label); err != nil {
				return err
			}
			labels = append(labels, label)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return labels, nil
}
