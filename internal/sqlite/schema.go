// Schema DDL for the fleet client datastore.
//
// The clients table is the mutable pointer record: one row per client,
// with per-stream pointer timestamps that always reference an existing
// history row (composite foreign keys). History tables are append-only
// and keyed by (client_id, timestamp); deleting a client cascades into
// them after the pointers are cleared.
package sqlite

const (
	createClients = `CREATE TABLE IF NOT EXISTS clients (
    client_id INTEGER PRIMARY KEY,
    certificate BLOB,
    last_ip BLOB,
    first_seen INTEGER,
    last_ping INTEGER,
    last_clock INTEGER,
    last_foreman INTEGER,
    last_snapshot_timestamp INTEGER,
    last_startup_timestamp INTEGER,
    last_crash_timestamp INTEGER,
    last_version_string TEXT,
    last_platform TEXT,
    last_platform_release TEXT,
    last_validation_info BLOB,
    FOREIGN KEY (client_id, last_snapshot_timestamp)
        REFERENCES client_snapshot_history (client_id, timestamp),
    FOREIGN KEY (client_id, last_startup_timestamp)
        REFERENCES client_startup_history (client_id, timestamp),
    FOREIGN KEY (client_id, last_crash_timestamp)
        REFERENCES client_crash_history (client_id, timestamp)
);`

	createClientIndex = `CREATE INDEX IF NOT EXISTS clients_by_last_ping
    ON clients (last_ping);`

	createSnapshotHistory = `CREATE TABLE IF NOT EXISTS client_snapshot_history (
    client_id INTEGER NOT NULL,
    timestamp INTEGER NOT NULL,
    snapshot BLOB NOT NULL,
    PRIMARY KEY (client_id, timestamp),
    FOREIGN KEY (client_id) REFERENCES clients (client_id) ON DELETE CASCADE
);`

	createStartupHistory = `CREATE TABLE IF NOT EXISTS client_startup_history (
    client_id INTEGER NOT NULL,
    timestamp INTEGER NOT NULL,
    startup_info BLOB NOT NULL,
    PRIMARY KEY (client_id, timestamp),
    FOREIGN KEY (client_id) REFERENCES clients (client_id) ON DELETE CASCADE
);`

	createCrashHistory = `CREATE TABLE IF NOT EXISTS client_crash_history (
    client_id INTEGER NOT NULL,
    timestamp INTEGER NOT NULL,
    crash_info BLOB NOT NULL,
    PRIMARY KEY (client_id, timestamp),
    FOREIGN KEY (client_id) REFERENCES clients (client_id) ON DELETE CASCADE
);`

	createAgentStartupHistory = `CREATE TABLE IF NOT EXISTS client_agent_startup_history (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    client_id INTEGER NOT NULL,
    timestamp INTEGER NOT NULL,
    startup BLOB NOT NULL,
    FOREIGN KEY (client_id) REFERENCES clients (client_id) ON DELETE CASCADE
);`

	createAgentStartupIndex = `CREATE INDEX IF NOT EXISTS client_agent_startup_by_client
    ON client_agent_startup_history (client_id, timestamp);`

	createClientStats = `CREATE TABLE IF NOT EXISTS client_stats (
    client_id INTEGER NOT NULL,
    timestamp INTEGER NOT NULL,
    payload BLOB NOT NULL,
    PRIMARY KEY (client_id, timestamp),
    FOREIGN KEY (client_id) REFERENCES clients (client_id) ON DELETE CASCADE
);`

	createClientStatsIndex = `CREATE INDEX IF NOT EXISTS client_stats_by_timestamp
    ON client_stats (timestamp);`

	createClientKeywords = `CREATE TABLE IF NOT EXISTS client_keywords (
    client_id INTEGER NOT NULL,
    keyword_hash BLOB NOT NULL,
    keyword TEXT NOT NULL,
    last_seen INTEGER NOT NULL,
    PRIMARY KEY (client_id, keyword_hash),
    FOREIGN KEY (client_id) REFERENCES clients (client_id) ON DELETE CASCADE
);`

	createClientKeywordsIndex = `CREATE INDEX IF NOT EXISTS client_keywords_by_hash
    ON client_keywords (keyword_hash, client_id);`

	createClientLabels = `CREATE TABLE IF NOT EXISTS client_labels (
    client_id INTEGER NOT NULL,
    owner_hash BLOB NOT NULL,
    owner TEXT NOT NULL,
    label TEXT NOT NULL,
    PRIMARY KEY (client_id, owner_hash, label),
    FOREIGN KEY (client_id) REFERENCES clients (client_id) ON DELETE CASCADE
);`

	createClientLabelsIndex = `CREATE INDEX IF NOT EXISTS client_labels_by_label
    ON client_labels (label);`
)

// schemaStatements lists every DDL statement in creation order. History
// tables are created before the index and stats tables that reference the
// same parent so foreign-key resolution never sees a missing table.
var schemaStatements = []string{
	createClients,
	createClientIndex,
	createSnapshotHistory,
	createStartupHistory,
	createCrashHistory,
	createAgentStartupHistory,
	createAgentStartupIndex,
	createClientStats,
	createClientStatsIndex,
	createClientKeywords,
	createClientKeywordsIndex,
	createClientLabels,
	createClientLabelsIndex,
}
