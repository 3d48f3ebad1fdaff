// Package sqlite provides the public API for the SQLite fleet datastore
// backend. It exposes the factory function while keeping implementation
// details internal.
package sqlite

import (
	"github.com/meshwatch/fleetstore/internal/sqlite"
	"github.com/meshwatch/fleetstore/pkg/types"
)

// NewBackend creates a new SQLite backend instance. The backend is not
// attached; call Attach with a Config to initialize.
//
// Example:
//
//	store := sqlite.NewBackend()
//	err := store.Attach(types.Config{
//	    Backend: types.BackendSQLite,
//	    DataDir: ".fleetstore-db",
//	})
//	defer store.Detach()
func NewBackend() types.ClientStore {
	return sqlite.NewBackend()
}
