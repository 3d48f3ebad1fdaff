// Package sqlite implements the SQLite backend of the fleet client
// datastore: the mutable clients pointer record, the append-only history
// streams keyed by (client, timestamp), the keyword and label indexes,
// fleet-wide activity aggregation, and the batch retirement jobs.
package sqlite

import (
	"database/sql"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/meshwatch/fleetstore/pkg/types"
)

// databaseFile is the SQLite file name inside the data directory.
const databaseFile = "fleet.db"

// Backend implements types.ClientStore on a single SQLite database.
type Backend struct {
	mu       sync.RWMutex
	attached bool
	config   types.Config
	db       *sql.DB
	log      *zap.Logger
}

// NewBackend creates a new SQLite backend instance. The backend is not
// attached; call Attach with a Config to initialize.
func NewBackend() *Backend {
	return &Backend{log: zap.NewNop()}
}

// SetLogger replaces the backend's logger. The default is a nop logger.
func (b *Backend) SetLogger(log *zap.Logger) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if log != nil {
		b.log = log
	}
}

// Attach opens (or creates) the database under config.DataDir, applies
// pragmas, and creates the schema. Returns ErrAlreadyAttached if already
// attached.
func (b *Backend) Attach(config types.Config) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.attached {
		return types.ErrAlreadyAttached
	}

	if err := config.Validate(); err != nil {
		return err
	}

	dataDir := config.DataDir
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return err
	}

	dbPath := filepath.Join(dataDir, databaseFile)
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return err
	}

	// Referential integrity is what turns a bad client id into a typed
	// UnknownClientError, so the pragma is not optional.
	pragmas := []string{
		"PRAGMA journal_mode = WAL;",
		"PRAGMA foreign_keys = ON;",
		"PRAGMA busy_timeout = 5000;",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return err
		}
	}

	for _, stmt := range schemaStatements {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return err
		}
	}

	b.db = db
	b.config = config
	b.attached = true
	b.log.Info("store attached", zap.String("path", dbPath))

	return nil
}

// Detach closes the database. Idempotent; after Detach all operations
// return ErrStoreDetached.
func (b *Backend) Detach() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return nil
	}

	if b.db != nil {
		if err := b.db.Close(); err != nil {
			return err
		}
		b.db = nil
	}

	b.attached = false
	b.log.Info("store detached")

	return nil
}

// handle returns the live database handle, or ErrStoreDetached.
func (b *Backend) handle() (*sql.DB, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return nil, types.ErrStoreDetached
	}
	return b.db, nil
}

// Compile-time interface check.
var _ types.ClientStore = (*Backend)(nil)
