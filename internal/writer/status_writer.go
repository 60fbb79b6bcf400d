// internal/writer/status_writer.go
package writer

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tamzrod/laempli/internal/status"
)

// indicatorWriter writes the indicator block of one lamp.
type indicatorWriter struct {
	plan Plan
	cli  endpointClient

	needFull bool
	last     []uint16 // live registers as last written
	nameRegs []uint16
}

func newIndicatorWriter(plan Plan, cli endpointClient) *indicatorWriter {
	return &indicatorWriter{
		plan:     plan,
		cli:      cli,
		needFull: true, // full re-assert on first successful write
		nameRegs: encodeNameRegs(plan.Name),
	}
}

// WriteStatus delivers a snapshot into the indicator block.
// On any write failure, the next successful call will re-assert the full block.
func (sw *indicatorWriter) WriteStatus(s status.Snapshot) error {
	if sw == nil {
		return errors.New("status writer: disabled")
	}
	if sw.cli == nil {
		return fmt.Errorf("status writer: missing client for endpoint %s", sw.plan.Endpoint)
	}

	regs := status.Encode(s)
	base := sw.plan.BaseSlot
	unitID := sw.plan.UnitID

	// ------------------------------------------------------------
	// Full block write (identity re-assert)
	// ------------------------------------------------------------
	if sw.needFull {
		block := sw.fullBlockRegs(regs)

		if err := sw.cli.WriteRegisters(unitID, base, block); err != nil {
			sw.needFull = true
			return fmt.Errorf("status writer: full block write failed: %w", err)
		}

		sw.needFull = false
		sw.last = regs
		return nil
	}

	// ------------------------------------------------------------
	// Incremental: one write per run of changed live slots
	// ------------------------------------------------------------
	var errs []string

	for start := 0; start < status.SlotNameStart; {
		if regs[start] == sw.last[start] {
			start++
			continue
		}
		end := start
		for end+1 < status.SlotNameStart && regs[end+1] != sw.last[end+1] {
			end++
		}

		run := regs[start : end+1]
		if err := sw.cli.WriteRegisters(unitID, base+uint16(start), run); err != nil {
			errs = append(errs, fmt.Sprintf("slots %d-%d write failed: %v", start, end, err))
		} else {
			copy(sw.last[start:end+1], run)
		}
		start = end + 1
	}

	if len(errs) > 0 {
		// Any partial failure introduces doubt; re-assert on next success.
		sw.needFull = true
		return errors.New("status writer: " + strings.Join(errs, " | "))
	}

	return nil
}

func (sw *indicatorWriter) fullBlockRegs(live []uint16) []uint16 {
	regs := make([]uint16, status.SlotsPerBlock)
	copy(regs, live[:status.SlotNameStart])

	// Name always lives at the end of the block
	copy(regs[status.SlotNameStart:], sw.nameRegs)

	return regs
}

// encodeNameRegs packs up to 16 ASCII characters into 8 uint16 registers.
// Each register stores two ASCII bytes in big-endian order.
func encodeNameRegs(name string) []uint16 {
	out := make([]uint16, status.SlotNameSlots)

	b := []byte(name)
	if len(b) > status.NameMaxChars {
		b = b[:status.NameMaxChars]
	}

	// sanitize to printable ASCII
	for i := 0; i < len(b); i++ {
		if b[i] < 0x20 || b[i] > 0x7E {
			b[i] = '?'
		}
	}

	for i := 0; i < status.NameMaxChars; i += 2 {
		var hi, lo byte
		if i < len(b) {
			hi = b[i]
		}
		if i+1 < len(b) {
			lo = b[i+1]
		}
		out[i/2] = uint16(hi)<<8 | uint16(lo)
	}

	return out
}
