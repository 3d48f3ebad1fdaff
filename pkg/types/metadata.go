package types

import (
	"encoding/json"
	"time"
)

// ClientMetadata is the read-side view of a client's pointer record:
// identity, connectivity timestamps, and the per-stream pointer
// timestamps. Zero-valued timestamps mean the field was never written;
// real writes always carry wall-clock times, so the two cannot collide.
type ClientMetadata struct {
	Certificate []byte
	LastIP      []byte

	FirstSeen   time.Time
	LastPing    time.Time
	LastClock   time.Time
	LastForeman time.Time

	LastSnapshotTimestamp time.Time
	LastStartupTimestamp  time.Time
	LastCrashTimestamp    time.Time

	ValidationInfo *ValidationInfo
}

// MetadataUpdate describes a sparse update to a client's pointer record.
// Nil fields are left untouched by the write; only fields actually
// supplied are assigned. ValidationInfo is the exception: when nil it is
// explicitly cleared, because its absence is meaningful.
type MetadataUpdate struct {
	Certificate []byte
	LastIP      []byte

	FirstSeen   *time.Time
	LastPing    *time.Time
	LastClock   *time.Time
	LastForeman *time.Time

	ValidationInfo *ValidationInfo
}

// ValidationInfo is the opaque platform-validation payload attached to a
// client's pointer record. It is overwritten wholesale on each metadata
// write, never versioned.
type ValidationInfo struct {
	Tags map[string]string `json:"tags"`
}

// SerializeToBytes encodes the validation info to its stored form.
func (v *ValidationInfo) SerializeToBytes() ([]byte, error) {
	return json.Marshal(v)
}

// ValidationInfoFromBytes decodes the stored form.
func ValidationInfoFromBytes(data []byte) (*ValidationInfo, error) {
	v := &ValidationInfo{}
	if err := json.Unmarshal(data, v); err != nil {
		return nil, err
	}
	return v, nil
}
