package types

import (
	"encoding/json"
	"time"
)

// ClientStats is a lightweight resource-usage sample. Unlike the other
// stream payloads, the timestamp is part of the payload itself and doubles
// as the stream's dedup key: a second write for the same (client,
// timestamp) overwrites the sample rather than duplicating it.
type ClientStats struct {
	Timestamp time.Time `json:"timestamp"`

	CPUPercent    float64 `json:"cpu_percent,omitempty"`
	RSSBytes      uint64  `json:"rss_bytes,omitempty"`
	VMSBytes      uint64  `json:"vms_bytes,omitempty"`
	IOReadBytes   uint64  `json:"io_read_bytes,omitempty"`
	IOWriteBytes  uint64  `json:"io_write_bytes,omitempty"`
	BootTimestamp int64   `json:"boot_timestamp,omitempty"`
}

// SerializeToBytes encodes the sample to its stored form.
func (s *ClientStats) SerializeToBytes() ([]byte, error) {
	return json.Marshal(s)
}

// ClientStatsFromBytes decodes the stored form.
func ClientStatsFromBytes(data []byte) (*ClientStats, error) {
	s := &ClientStats{}
	if err := json.Unmarshal(data, s); err != nil {
		return nil, err
	}
	return s, nil
}
