package types

// ClientFullInfo is the denormalized composite view of one client: its
// pointer-record metadata, the latest snapshot (an empty shell carrying
// just the identifier when none was ever written), the latest independent
// startup info, the latest agent startup, and every label.
type ClientFullInfo struct {
	Metadata         *ClientMetadata
	LastSnapshot     *ClientSnapshot
	LastStartupInfo  *StartupInfo
	LastAgentStartup *AgentStartup
	Labels           []ClientLabel
}
