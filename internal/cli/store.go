package cli

import (
	"fmt"

	internalsqlite "github.com/meshwatch/fleetstore/internal/sqlite"
	"github.com/meshwatch/fleetstore/pkg/types"
)

// attachStore loads the config and attaches a store backend wired to the
// CLI logger. The caller detaches it.
func attachStore() (types.ClientStore, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}

	backend := internalsqlite.NewBackend()
	backend.SetLogger(log)
	if err := backend.Attach(cfg); err != nil {
		return nil, fmt.Errorf("attach store: %w", err)
	}
	return backend, nil
}
