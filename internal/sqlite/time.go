package sqlite

import (
	"database/sql"
	"time"
)

// Timestamps are stored as microseconds since the Unix epoch, UTC. The
// microsecond is also the dedup granularity of the stats stream.

func timeToMicros(t time.Time) int64 {
	return t.UnixMicro()
}

func microsToTime(micros int64) time.Time {
	return time.UnixMicro(micros).UTC()
}

// timeFromNull converts a nullable column back to a timestamp; NULL maps
// to the zero time.
func timeFromNull(v sql.NullInt64) time.Time {
	if !v.Valid {
		return time.Time{}
	}
	return microsToTime(v.Int64)
}

// now returns the current transaction timestamp.
func now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}
