package sqlite

import (
	"context"

	"github.com/meshwatch/fleetstore/pkg/types"
)

// SearchClients is the structured-search entry point. This backend does
// not implement it; discovery goes through the keyword and label indexes
// instead.
func (b *Backend) SearchClients(ctx context.Context, query string, limit int) ([]types.ClientID, error) {
	return nil, types.ErrNotImplemented
}
