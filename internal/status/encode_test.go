// internal/status/encode_test.go
package status

import "testing"

func TestEncode_Layout(t *testing.T) {
	s := Snapshot{
		Connection:       ConnOkay,
		WorstResult:      3,
		ActiveState:      2,
		SoundSeq:         7,
		SoundCode:        33,
		SecondsConnected: 90,
		Channels:         []uint16{ChannelWord(true, 2, 1), 0},
	}

	regs := Encode(s)
	if len(regs) != SlotsPerBlock {
		t.Fatalf("expected %d regs, got %d", SlotsPerBlock, len(regs))
	}
	if regs[SlotConnection] != ConnOkay || regs[SlotWorstResult] != 3 || regs[SlotActiveState] != 2 {
		t.Fatalf("aggregate slots wrong: %v", regs[:3])
	}
	if regs[SlotSoundSeq] != 7 || regs[SlotSoundCode] != 33 || regs[SlotSecondsConnected] != 90 {
		t.Fatalf("sound/uptime slots wrong: %v", regs[3:6])
	}
	if regs[SlotChannelCount] != 2 {
		t.Fatalf("channel count wrong: %d", regs[SlotChannelCount])
	}
	if regs[SlotChannelStart] != 0x8201 || regs[SlotChannelStart+1] != 0 {
		t.Fatalf("channel words wrong: %#x %#x", regs[SlotChannelStart], regs[SlotChannelStart+1])
	}
	for i := SlotNameStart; i <= SlotNameEnd; i++ {
		if regs[i] != 0 {
			t.Fatalf("name slot %d must be left to the writer", i)
		}
	}
}

func TestEncode_SecondsDoNotWrap(t *testing.T) {
	regs := Encode(Snapshot{SecondsConnected: 70000})
	if regs[SlotSecondsConnected] != 0xFFFF {
		t.Fatalf("seconds wrapped: %d", regs[SlotSecondsConnected])
	}
}

func TestEncode_ExtraChannelsDropped(t *testing.T) {
	ch := make([]uint16, MaxChannels+5)
	for i := range ch {
		ch[i] = ChannelActive
	}

	regs := Encode(Snapshot{Channels: ch})
	if regs[SlotChannelCount] != MaxChannels {
		t.Fatalf("channel count not capped: %d", regs[SlotChannelCount])
	}
	if regs[SlotChannelEnd+1] != 0 {
		t.Fatalf("channels spilled into reserved slots")
	}
}
