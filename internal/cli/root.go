// Package cli implements the fleetstore command-line interface.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/meshwatch/fleetstore/internal/logging"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// rootFlags holds global flag values accessible to all subcommands.
type rootFlags struct {
	configDir string
	dataDir   string
	logLevel  string
}

var flags rootFlags

// log is the process-wide logger, initialized before any subcommand runs.
var log = zap.NewNop()

// NewRootCmd creates the top-level "fleetstore" command with global flags
// and all subcommands registered.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "fleetstore",
		Short: "Persistence layer for a fleet-management backend",
		Long: "Fleetstore manages the client datastore of a fleet-management\n" +
			"backend: per-client pointer records, append-only history streams,\n" +
			"keyword and label indexes, and fleet-wide activity statistics.",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logger, err := logging.New(flags.logLevel)
			if err != nil {
				return fmt.Errorf("build logger: %w", err)
			}
			log = logger
			return nil
		},
	}

	root.PersistentFlags().StringVar(&flags.configDir, "config-dir", "", "configuration directory (default: .fleetstore)")
	root.PersistentFlags().StringVar(&flags.dataDir, "data-dir", "", "data directory (default: .fleetstore-db)")
	root.PersistentFlags().StringVar(&flags.logLevel, "log-level", "info", "log level (debug, info, warn)")

	root.AddCommand(newVersionCmd())
	root.AddCommand(newInitCmd())
	root.AddCommand(newClientsCmd())
	root.AddCommand(newLabelsCmd())
	root.AddCommand(newPurgeStatsCmd())
	root.AddCommand(newJanitorCmd())

	return root
}

// Execute runs the root command and exits with the appropriate code.
func Execute() {
	root := NewRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitUserError)
	}
}
