// This file implements the keyword index: hash-bucketed free-text tags
// used for fleet-wide discovery.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/meshwatch/fleetstore/pkg/types"
)

// AddClientKeywords associates every keyword with every client in one
// statement, refreshing the association timestamp on conflict. When any
// client is unknown the whole batch fails together; nothing is applied.
func (b *Backend) AddClientKeywords(ctx context.Context, ids []types.ClientID, keywords []string) error {
	if len(ids) == 0 || len(keywords) == 0 {
		return nil
	}

	keys, err := clientKeys(ids)
	if err != nil {
		return err
	}

	ts := timeToMicros(now())
	values := make([]string, 0, len(keys)*len(keywords))
	args := make([]any, 0, len(keys)*len(keywords)*4)
	for _, key := range keys {
		for _, keyword := range keywords {
			values = append(values, "(?, ?, ?, ?)")
			args = append(args, int64(key), indexHash(keyword), keyword, ts)
		}
	}

	query := fmt.Sprintf(`
		INSERT INTO client_keywords (client_id, keyword_hash, keyword, last_seen)
		VALUES %s
		ON CONFLICT (client_id, keyword_hash) DO UPDATE SET last_seen = excluded.last_seen`,
		strings.Join(values, ", "))

	err = b.runTx(ctx, false, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, query, args...)
		return err
	})
	return asAtLeastOneUnknownClient(err, ids)
}

// RemoveClientKeyword removes one keyword association, addressed by hash.
func (b *Backend) RemoveClientKeyword(ctx context.Context, id types.ClientID, keyword string) error {
	key, err := id.Key()
	if err != nil {
		return err
	}

	return b.runTx(ctx, false, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			DELETE FROM client_keywords
			 WHERE client_id = ? AND keyword_hash = ?`,
			int64(key), indexHash(keyword))
		return err
	})
}

// ListClientsForKeywords returns, per requested keyword, every client
// whose association is at or after since. Every requested keyword is
// present in the result, keywords with no matches as empty lists.
func (b *Backend) ListClientsForKeywords(ctx context.Context, keywords []string, since time.Time) (map[string][]types.ClientID, error) {
	result := make(map[string][]types.ClientID, len(keywords))
	if len(keywords) == 0 {
		return result, nil
	}

	hashToKeyword := make(map[string]string, len(keywords))
	args := make([]any, 0, len(keywords)+1)
	for _, keyword := range keywords {
		result[keyword] = []types.ClientID{}
		hash := indexHash(keyword)
		if _, ok := hashToKeyword[string(hash)]; ok {
			continue
		}
		hashToKeyword[string(hash)] = keyword
		args = append(args, hash)
	}

	query := fmt.Sprintf(`
		SELECT keyword_hash, client_id
		  FROM client_keywords
		 WHERE keyword_hash IN (%s)`, placeholders(len(args)))
	if !since.IsZero() {
		query += " AND last_seen >= ?"
		args = append(args, timeToMicros(since))
	}
	query += " ORDER BY client_id"

	err := b.runTx(ctx, true, func(tx *sql.Tx) error {
		rows, err := tx.QueryContext(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var (
				hash []byte
				key  int64
			)
			if err := rows.Scan(&hash, &key); err != nil {
				return err
			}
			keyword := hashToKeyword[string(hash)]
			result[keyword] = append(result[keyword], types.ClientIDFromKey(uint64(key)))
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
