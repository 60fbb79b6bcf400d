// internal/jobs/table.go
package jobs

import (
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"
)

// Table holds the status of every configured channel and the last aggregate.
// Not safe for concurrent use: the owner serializes all access.
type Table struct {
	log       *slog.Logger
	now       func() time.Time
	channels  []ChannelStatus
	aggregate Aggregate
}

// New creates a table with n inactive channels.
// now is the wall clock used for age reporting (time.Now when nil).
func New(n int, log *slog.Logger, now func() time.Time) *Table {
	if log == nil {
		log = slog.Default()
	}
	if now == nil {
		now = time.Now
	}
	t := &Table{
		log:      log,
		now:      now,
		channels: make([]ChannelStatus, n),
	}
	for i := range t.channels {
		t.channels[i].Index = i
	}
	t.aggregate = Aggregate{WorstChannel: -1, ActiveChannel: -1}
	return t
}

// Len is the number of channel slots.
func (t *Table) Len() int { return len(t.channels) }

// Channel returns a copy of slot i.
func (t *Table) Channel(i int) ChannelStatus { return t.channels[i] }

// Channels returns a copy of all slots.
func (t *Table) Channels() []ChannelStatus {
	out := make([]ChannelStatus, len(t.channels))
	copy(out, t.channels)
	return out
}

// Aggregate returns the last computed aggregate.
func (t *Table) Aggregate() Aggregate { return t.aggregate }

// set stores one channel. It does not recompute.
func (t *Table) set(cs ChannelStatus) {
	if cs.Index < 0 || cs.Index >= len(t.channels) {
		return
	}

	if !cs.Active {
		cs = ChannelStatus{Index: cs.Index}
		t.channels[cs.Index] = cs
		t.log.Info("jobs: info", "ch", cs.Index, "unused", true)
		return
	}

	cs.Job = truncate(cs.Job, JobNameMaxBytes)
	cs.Server = truncate(cs.Server, ServerMaxBytes)
	t.channels[cs.Index] = cs

	t.log.Info("jobs: info",
		"ch", cs.Index,
		"job", cs.Job,
		"server", cs.Server,
		"state", cs.State.String(),
		"result", cs.Result.String(),
		"age", fmt.Sprintf("%.1fh", t.now().Sub(cs.Time).Hours()),
	)
}

// ClearAll resets every slot to inactive and recomputes.
func (t *Table) ClearAll() Update {
	t.log.Info("jobs: clear all")
	for i := range t.channels {
		t.channels[i] = ChannelStatus{Index: i}
	}
	return t.Recompute()
}

// MarkActiveUnknown sets the state of every active slot to unknown, keeping
// job identity and result, and recomputes. Inactive slots are untouched.
func (t *Table) MarkActiveUnknown() Update {
	t.log.Info("jobs: state unknown all")
	for i := range t.channels {
		if t.channels[i].Active {
			t.channels[i].State = StateUnknown
		}
	}
	return t.Recompute()
}

// Recompute derives the worst result and most active state over all slots,
// replaces the stored aggregate and reports previous and current values.
// Inactive slots count as unknown/unknown.
func (t *Table) Recompute() Update {
	agg := Aggregate{
		Worst:         ResultUnknown,
		Active:        StateUnknown,
		WorstChannel:  -1,
		ActiveChannel: -1,
	}

	for i := range t.channels {
		cs := &t.channels[i]
		result, state := ResultUnknown, StateUnknown
		if cs.Active {
			result, state = cs.Result, cs.State
		}

		// >=: later channels win on equality
		if result.Rank() >= agg.Worst.Rank() {
			agg.Worst = result
			agg.WorstChannel = i
		}
		if state.Rank() >= agg.Active.Rank() {
			agg.Active = state
			agg.ActiveChannel = i
		}
	}

	u := Update{Previous: t.aggregate, Current: agg}
	t.aggregate = agg

	t.log.Debug("jobs: update",
		"worst", agg.Worst.String(),
		"worst_was", u.Previous.Worst.String(),
		"active", agg.Active.String(),
		"active_was", u.Previous.Active.String(),
	)

	return u
}

// Summary renders a compact one-line view of the table for monitoring,
// e.g. " 00=IS 01-?? 02=RF": '=' active, '-' unused, then state and result initials.
func (t *Table) Summary() string {
	var b strings.Builder
	for _, cs := range t.channels {
		mark := '-'
		if cs.Active {
			mark = '='
		}
		stateChar := initial(cs.State.String(), cs.State == StateUnknown)
		resultChar := initial(cs.Result.String(), cs.Result == ResultUnknown)
		// results of channels that are not idle/running are shown in lower case
		if cs.State.Rank() > StateOff.Rank() {
			resultChar = upper(resultChar)
		}
		fmt.Fprintf(&b, " %02d%c%c%c", cs.Index, mark, upper(stateChar), resultChar)
	}
	return b.String()
}

// ---- helpers ----

func initial(s string, unknown bool) byte {
	if unknown || s == "" {
		return '?'
	}
	return s[0]
}

func upper(c byte) byte {
	if c >= 'a' && c <= 'z' {
		return c - 'a' + 'A'
	}
	return c
}

// truncate cuts s to at most max bytes without splitting a UTF-8 sequence.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && cut > max-utf8.UTFMax && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
