// internal/status/encode.go
package status

// Encode converts a Snapshot into the live part of the indicator block.
// The name slots are left zero; the writer owns them.
// Layout is protocol-locked.
// No IO. No side effects.
func Encode(s Snapshot) []uint16 {
	regs := make([]uint16, SlotsPerBlock)

	regs[SlotConnection] = s.Connection
	regs[SlotWorstResult] = s.WorstResult
	regs[SlotActiveState] = s.ActiveState
	regs[SlotSoundSeq] = s.SoundSeq
	regs[SlotSoundCode] = s.SoundCode

	// HARD INVARIANT: seconds_connected MUST NOT wrap
	if s.SecondsConnected > 0xFFFF {
		regs[SlotSecondsConnected] = 0xFFFF
	} else {
		regs[SlotSecondsConnected] = uint16(s.SecondsConnected)
	}

	n := len(s.Channels)
	if n > MaxChannels {
		n = MaxChannels
	}
	regs[SlotChannelCount] = uint16(n)
	copy(regs[SlotChannelStart:SlotChannelStart+n], s.Channels[:n])

	return regs
}

// ChannelWord packs one channel: bit 15 active, bits 8-11 state, bits 0-3 result.
func ChannelWord(active bool, state, result uint8) uint16 {
	if !active {
		return 0
	}
	return ChannelActive | uint16(state&0x0F)<<8 | uint16(result&0x0F)
}
