package types

import (
	"context"
	"errors"
	"time"
)

// TimeRange bounds a history scan. Zero-valued From or To leaves that end
// unbounded; both bounds are inclusive.
type TimeRange struct {
	From time.Time
	To   time.Time
}

// LastPingScanOptions configures a keyset-paginated scan over the pointer
// record table.
type LastPingScanOptions struct {
	// MinLastPing and MaxLastPing filter the scanned rows. Zero values
	// leave the bound open; clients that never pinged pass the max-bound
	// filter but not the min-bound one.
	MinLastPing time.Time
	MaxLastPing time.Time

	// StartAfter restarts an interrupted scan from a previous cursor.
	// Empty starts from the beginning.
	StartAfter ClientID

	// BatchSize is the number of rows fetched per transaction.
	// Non-positive values use DefaultBatchSize.
	BatchSize int
}

// DefaultBatchSize is the batch size used by scans and purges when the
// caller does not supply one.
const DefaultBatchSize = 10000

// LastPingScanner produces batches of client-id to last-ping mappings,
// one read-only transaction per batch, paginated by client id. The scan
// terminates when a batch comes back short.
type LastPingScanner interface {
	// Next fetches the next batch. It returns false when the scan is
	// exhausted or failed; check Err afterwards.
	Next() bool

	// Batch returns the batch fetched by the last successful Next.
	Batch() map[ClientID]time.Time

	// Cursor returns the id of the last row consumed, usable as
	// StartAfter when restarting the scan.
	Cursor() ClientID

	// Err returns the first error encountered, if any.
	Err() error
}

// StatsPurge deletes old resource-usage samples chunk by chunk, one
// transaction per chunk so no lock is held for the whole purge. It stops
// at the first chunk that deletes nothing and never reports a trailing
// zero count.
type StatsPurge interface {
	// Next deletes the next chunk. It returns false when nothing more
	// was deleted or an error occurred; check Err afterwards.
	Next() bool

	// Count returns the number of rows deleted by the last successful
	// Next.
	Count() int64

	// Err returns the first error encountered, if any.
	Err() error
}

// ClientStore is the persistence interface for fleet clients: the mutable
// pointer record, the append-only history streams hanging off it, the
// keyword and label indexes, and the fleet-wide aggregation and batch
// retirement jobs built on top.
//
// All writes run inside one transaction per call. Writes that reference a
// client with no pointer record fail with an UnknownClientError (or
// AtLeastOneUnknownClientError for batches) and leave no partial rows
// behind.
type ClientStore interface {
	// Attach connects the store to the backend described by config.
	// Returns ErrAlreadyAttached if called while already attached.
	Attach(config Config) error

	// Detach releases backend resources. Idempotent.
	Detach() error

	// WriteClientMetadata upserts the pointer record for a client. Only
	// fields supplied in update are assigned; this is the canonical way
	// to create a client.
	WriteClientMetadata(ctx context.Context, id ClientID, update MetadataUpdate) error

	// MultiReadClientMetadata reads pointer records for many clients in
	// one round trip. Unknown ids are omitted from the result.
	MultiReadClientMetadata(ctx context.Context, ids []ClientID) (map[ClientID]*ClientMetadata, error)

	// DeleteClient removes a client's pointer record together with its
	// history and index rows. Fails with UnknownClientError if the
	// client does not exist.
	DeleteClient(ctx context.Context, id ClientID) error

	// WriteClientSnapshot appends a snapshot and its startup info at one
	// generated timestamp and advances both pointers unconditionally.
	WriteClientSnapshot(ctx context.Context, snapshot *ClientSnapshot) error

	// WriteClientSnapshotHistory bulk-writes timestamped snapshots for
	// one client and advances the pointers to the maximum timestamp only
	// if it exceeds what is already recorded.
	WriteClientSnapshotHistory(ctx context.Context, snapshots []*ClientSnapshot) error

	// MultiReadClientSnapshot reads the latest snapshot for many clients
	// in one round trip. Every requested id is present in the result;
	// clients without a snapshot yield an empty shell carrying just the
	// identifier.
	MultiReadClientSnapshot(ctx context.Context, ids []ClientID) (map[ClientID]*ClientSnapshot, error)

	// ReadClientSnapshotHistory scans the snapshot stream in descending
	// time order, optionally bounded by tr (inclusive).
	ReadClientSnapshotHistory(ctx context.Context, id ClientID, tr *TimeRange) ([]*ClientSnapshot, error)

	// WriteClientStartupInfo appends a startup record at the current
	// time and advances the startup pointer.
	WriteClientStartupInfo(ctx context.Context, id ClientID, info *StartupInfo) error

	// ReadClientStartupInfo reads the latest startup record, or nil if
	// the pointer is unset.
	ReadClientStartupInfo(ctx context.Context, id ClientID) (*StartupInfo, error)

	// ReadClientStartupInfoHistory scans the startup stream in
	// descending time order, optionally bounded by tr (inclusive).
	ReadClientStartupInfoHistory(ctx context.Context, id ClientID, tr *TimeRange) ([]*StartupInfo, error)

	// WriteClientAgentStartup appends an agent startup record at the
	// current time.
	WriteClientAgentStartup(ctx context.Context, id ClientID, startup *AgentStartup) error

	// ReadClientAgentStartup reads the latest agent startup record, or
	// nil if none was ever written. Fails with UnknownClientError if the
	// client does not exist.
	ReadClientAgentStartup(ctx context.Context, id ClientID) (*AgentStartup, error)

	// WriteClientCrashInfo appends a crash record at the current time
	// and advances the crash pointer.
	WriteClientCrashInfo(ctx context.Context, id ClientID, crash *CrashInfo) error

	// ReadClientCrashInfo reads the latest crash record, or nil if the
	// pointer is unset.
	ReadClientCrashInfo(ctx context.Context, id ClientID) (*CrashInfo, error)

	// ReadClientCrashInfoHistory scans the crash stream in descending
	// time order.
	ReadClientCrashInfoHistory(ctx context.Context, id ClientID) ([]*CrashInfo, error)

	// WriteClientStats stores a resource-usage sample, assigning the
	// current time when the sample carries none. A sample for an
	// existing (client, timestamp) overwrites the payload.
	WriteClientStats(ctx context.Context, id ClientID, stats *ClientStats) error

	// ReadClientStats reads samples between min and max (inclusive) in
	// ascending time order.
	ReadClientStats(ctx context.Context, id ClientID, min, max time.Time) ([]*ClientStats, error)

	// DeleteOldClientStats purges samples older than cutoff, batchSize
	// rows per transaction.
	DeleteOldClientStats(ctx context.Context, cutoff time.Time, batchSize int) StatsPurge

	// MultiReadClientFullInfo reads the full composite view for many
	// clients in one query. Ids without a pointer record, or filtered
	// out by minLastPing, are omitted from the result.
	MultiReadClientFullInfo(ctx context.Context, ids []ClientID, minLastPing *time.Time) (map[ClientID]*ClientFullInfo, error)

	// AddClientKeywords associates every keyword with every client,
	// refreshing the association timestamp on conflict. The whole batch
	// fails together when any client is unknown.
	AddClientKeywords(ctx context.Context, ids []ClientID, keywords []string) error

	// RemoveClientKeyword removes one keyword association.
	RemoveClientKeyword(ctx context.Context, id ClientID, keyword string) error

	// ListClientsForKeywords returns, per requested keyword, every
	// client whose association is at or after since (zero means no
	// filter). Every requested keyword is present in the result,
	// possibly with an empty list.
	ListClientsForKeywords(ctx context.Context, keywords []string, since time.Time) (map[string][]ClientID, error)

	// AddClientLabels attaches owner-scoped labels to the clients,
	// ignoring tuples that already exist. The whole batch fails together
	// when any client is unknown.
	AddClientLabels(ctx context.Context, ids []ClientID, owner string, labels []string) error

	// RemoveClientLabels removes the matching label tuples.
	RemoveClientLabels(ctx context.Context, id ClientID, owner string, labels []string) error

	// ReadClientLabels returns labels for each requested client, sorted
	// by owner then name. Every requested id is present in the result.
	ReadClientLabels(ctx context.Context, ids []ClientID) (map[ClientID][]ClientLabel, error)

	// ListAllClientLabels returns the distinct label names across the
	// whole fleet.
	ListAllClientLabels(ctx context.Context) ([]string, error)

	// CountClientVersionStringsByLabel computes n-day-active counts per
	// agent version string.
	CountClientVersionStringsByLabel(ctx context.Context, dayBuckets []int) (*FleetStats, error)

	// CountClientPlatformsByLabel computes n-day-active counts per
	// platform.
	CountClientPlatformsByLabel(ctx context.Context, dayBuckets []int) (*FleetStats, error)

	// CountClientPlatformReleasesByLabel computes n-day-active counts
	// per platform release string.
	CountClientPlatformReleasesByLabel(ctx context.Context, dayBuckets []int) (*FleetStats, error)

	// ScanClientLastPings walks the pointer record table in client-id
	// order, one batch per transaction.
	ScanClientLastPings(ctx context.Context, opts LastPingScanOptions) LastPingScanner

	// SearchClients is the structured-search entry point. This backend
	// does not implement it; it always fails with ErrNotImplemented.
	SearchClients(ctx context.Context, query string, limit int) ([]ClientID, error)
}

// Store lifecycle errors.
var (
	ErrStoreDetached   = errors.New("store is detached")
	ErrAlreadyAttached = errors.New("store is already attached")
)
