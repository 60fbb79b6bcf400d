// internal/writer/status_writer_test.go
package writer

import (
	"errors"
	"testing"

	"github.com/tamzrod/laempli/internal/config"
	"github.com/tamzrod/laempli/internal/status"
)

// ---- fake endpoint client ----

type fakeEndpointClient struct {
	writes []writeCall
	fail   bool
}

type writeCall struct {
	unitID uint8
	addr   uint16
	regs   []uint16
}

func (f *fakeEndpointClient) WriteRegisters(unitID uint8, addr uint16, regs []uint16) error {
	if f.fail {
		return errors.New("boom")
	}
	f.writes = append(f.writes, writeCall{
		unitID: unitID,
		addr:   addr,
		regs:   append([]uint16(nil), regs...),
	})
	return nil
}

func (f *fakeEndpointClient) last() writeCall { return f.writes[len(f.writes)-1] }

func testPlan() Plan {
	return Plan{Endpoint: "plc:502", UnitID: 3, BaseSlot: 100, Name: "LAMP-01"}
}

// ---- tests ----

func TestNameWrittenOnFullAssertOnly(t *testing.T) {
	cli := &fakeEndpointClient{}
	sw := New(testPlan(), cli)

	// ---- first write: FULL ASSERT ----
	first := status.Snapshot{Connection: status.ConnWaiting, Channels: make([]uint16, 4)}
	if err := sw.WriteStatus(first); err != nil {
		t.Fatalf("initial full assert failed: %v", err)
	}

	w := cli.last()
	if len(w.regs) != status.SlotsPerBlock || w.addr != 100 || w.unitID != 3 {
		t.Fatalf("expected full block at 100 unit 3, got %d regs at %d unit %d", len(w.regs), w.addr, w.unitID)
	}

	// Verify name encoding EXACTLY
	expected := encodeNameRegs("LAMP-01")
	for i := 0; i < status.SlotNameSlots; i++ {
		slot := status.SlotNameStart + i
		if w.regs[slot] != expected[i] {
			t.Fatalf("name slot %d mismatch: got=%d want=%d", slot, w.regs[slot], expected[i])
		}
	}
	if w.regs[status.SlotNameStart] != uint16('L')<<8|uint16('A') {
		t.Fatalf("name not big-endian ASCII: %#x", w.regs[status.SlotNameStart])
	}

	// ---- second write: INCREMENTAL ONLY ----
	second := first
	second.Connection = status.ConnConnected
	if err := sw.WriteStatus(second); err != nil {
		t.Fatalf("incremental write failed: %v", err)
	}

	w = cli.last()
	if len(w.regs) != 1 || w.addr != 100+status.SlotConnection || w.regs[0] != status.ConnConnected {
		t.Fatalf("expected single connection slot write, got %+v", w)
	}
}

func TestIncrementalWritesChangedRuns(t *testing.T) {
	cli := &fakeEndpointClient{}
	sw := New(testPlan(), cli)

	s := status.Snapshot{Channels: make([]uint16, 4)}
	sw.WriteStatus(s)
	cli.writes = nil

	next := status.Snapshot{
		SoundSeq:  1,
		SoundCode: 33,
		Channels:  []uint16{0, status.ChannelWord(true, 2, 3), 0, 0},
	}
	if err := sw.WriteStatus(next); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(cli.writes) != 2 {
		t.Fatalf("expected 2 writes (sound run + channel), got %d", len(cli.writes))
	}
	if cli.writes[0].addr != 100+status.SlotSoundSeq || len(cli.writes[0].regs) != 2 {
		t.Fatalf("sound run wrong: %+v", cli.writes[0])
	}
	if cli.writes[1].addr != 100+status.SlotChannelStart+1 || cli.writes[1].regs[0] != 0x8203 {
		t.Fatalf("channel write wrong: %+v", cli.writes[1])
	}

	// unchanged snapshot writes nothing
	cli.writes = nil
	sw.WriteStatus(next)
	if len(cli.writes) != 0 {
		t.Fatalf("unchanged snapshot must not write, got %d writes", len(cli.writes))
	}
}

func TestFailureForcesFullAssert(t *testing.T) {
	cli := &fakeEndpointClient{}
	sw := New(testPlan(), cli)

	sw.WriteStatus(status.Snapshot{})

	cli.fail = true
	if err := sw.WriteStatus(status.Snapshot{Connection: status.ConnOkay}); err == nil {
		t.Fatalf("expected error")
	}

	cli.fail = false
	if err := sw.WriteStatus(status.Snapshot{Connection: status.ConnOkay}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cli.last().regs) != status.SlotsPerBlock {
		t.Fatalf("expected full re-assert after a failure")
	}
}

func TestMissingClient(t *testing.T) {
	sw := New(testPlan(), nil)
	if err := sw.WriteStatus(status.Snapshot{}); err == nil {
		t.Fatalf("expected error without client")
	}
}

func TestEncodeNameRegs_SanitizeAndTruncate(t *testing.T) {
	regs := encodeNameRegs("a\x01cdefghijklmnopqrstuvwxyz")

	if regs[0] != uint16('a')<<8|uint16('?') {
		t.Fatalf("control char not sanitized: %#x", regs[0])
	}
	if regs[7] != uint16('o')<<8|uint16('p') {
		t.Fatalf("name not truncated at 16 chars: %#x", regs[7])
	}
}

func TestBuildPlan(t *testing.T) {
	p, err := BuildPlan(config.IndicatorConfig{Endpoint: "plc:502", UnitID: 9, BaseSlot: 40}, "lamp")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.UnitID != 9 || p.BaseSlot != 40 || p.Name != "lamp" {
		t.Fatalf("unexpected plan: %+v", p)
	}

	if _, err := BuildPlan(config.IndicatorConfig{}, "lamp"); err == nil {
		t.Fatalf("expected error without endpoint")
	}
}
