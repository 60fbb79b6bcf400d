// internal/status/snapshot.go
package status

// Snapshot represents exactly what the writer is allowed to deliver.
// It contains no logic and no memory of the past beyond current state.
type Snapshot struct {
	Connection       uint16
	WorstResult      uint16
	ActiveState      uint16
	SoundSeq         uint16
	SoundCode        uint16
	SecondsConnected uint32 // clamped to 65535 on encode

	// Channels holds one ChannelWord per configured channel.
	Channels []uint16
}
