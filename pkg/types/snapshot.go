package types

import (
	"encoding/json"
	"time"
)

// ClientSnapshot is a full software/hardware inventory snapshot reported
// by a client. Timestamp and StartupInfo are storage columns, not part of
// the serialized payload: a snapshot and its startup info share one
// transaction timestamp but live in two history streams.
type ClientSnapshot struct {
	ClientID ClientID `json:"client_id"`

	AgentVersion    string `json:"agent_version"`
	Platform        string `json:"platform"`
	PlatformRelease string `json:"platform_release"`

	Hostname      string `json:"hostname,omitempty"`
	FQDN          string `json:"fqdn,omitempty"`
	Architecture  string `json:"architecture,omitempty"`
	KernelVersion string `json:"kernel_version,omitempty"`
	MemoryBytes   uint64 `json:"memory_bytes,omitempty"`

	Timestamp   time.Time    `json:"-"`
	StartupInfo *StartupInfo `json:"-"`
}

// SerializeToBytes encodes the snapshot to its stored form, excluding the
// timestamp and startup info columns.
func (s *ClientSnapshot) SerializeToBytes() ([]byte, error) {
	return json.Marshal(s)
}

// ClientSnapshotFromBytes decodes the stored form.
func ClientSnapshotFromBytes(data []byte) (*ClientSnapshot, error) {
	s := &ClientSnapshot{}
	if err := json.Unmarshal(data, s); err != nil {
		return nil, err
	}
	return s, nil
}

// StartupInfo is a startup event reported by a client: written alongside
// every snapshot and also independently when the agent restarts without a
// new inventory run.
type StartupInfo struct {
	AgentVersion string    `json:"agent_version"`
	BootTime     time.Time `json:"boot_time,omitempty"`
	CommandLine  string    `json:"command_line,omitempty"`

	Timestamp time.Time `json:"-"`
}

// SerializeToBytes encodes the startup info to its stored form.
func (s *StartupInfo) SerializeToBytes() ([]byte, error) {
	return json.Marshal(s)
}

// StartupInfoFromBytes decodes the stored form.
func StartupInfoFromBytes(data []byte) (*StartupInfo, error) {
	s := &StartupInfo{}
	if err := json.Unmarshal(data, s); err != nil {
		return nil, err
	}
	return s, nil
}

// AgentStartup is a startup record from the next-generation agent. It has
// its own history stream with no pointer on the clients row; the latest
// record is resolved by timestamp order.
type AgentStartup struct {
	AgentVersion string   `json:"agent_version"`
	PID          int      `json:"pid,omitempty"`
	Args         []string `json:"args,omitempty"`

	Timestamp time.Time `json:"-"`
}

// SerializeToBytes encodes the agent startup to its stored form.
func (s *AgentStartup) SerializeToBytes() ([]byte, error) {
	return json.Marshal(s)
}

// AgentStartupFromBytes decodes the stored form.
func AgentStartupFromBytes(data []byte) (*AgentStartup, error) {
	s := &AgentStartup{}
	if err := json.Unmarshal(data, s); err != nil {
		return nil, err
	}
	return s, nil
}
