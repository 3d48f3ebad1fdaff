package types

import (
	"encoding/json"
	"time"
)

// CrashInfo is a crash event reported for a client. Timestamp is a
// storage column, not part of the serialized payload.
type CrashInfo struct {
	AgentVersion string `json:"agent_version,omitempty"`
	Reason       string `json:"reason"`
	Backtrace    string `json:"backtrace,omitempty"`

	Timestamp time.Time `json:"-"`
}

// SerializeToBytes encodes the crash info to its stored form.
func (c *CrashInfo) SerializeToBytes() ([]byte, error) {
	return json.Marshal(c)
}

// CrashInfoFromBytes decodes the stored form.
func CrashInfoFromBytes(data []byte) (*CrashInfo, error) {
	c := &CrashInfo{}
	if err := json.Unmarshal(data, c); err != nil {
		return nil, err
	}
	return c, nil
}
