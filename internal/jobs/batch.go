// internal/jobs/batch.go
package jobs

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrNotArray is returned when a status payload is valid json but not an array.
var ErrNotArray = errors.New("jobs: json not array")

// Entry is one element of a status batch.
// Shape is checked by ParseBatch; the index range is checked by the table.
type Entry struct {
	Pos   int // position in the batch, for logging
	Index int
	Clear bool // one-element form: deactivate the channel

	Job    string
	Server string
	State  State
	Result Result
	Time   time.Time
}

// Batch is a parsed status payload.
type Batch struct {
	Entries   []Entry
	Malformed []int // positions of elements matching neither shape
}

// ParseBatch decodes a status payload:
//
//	[[index, job, server, state, result, timestamp], [index], ...]
//
// A payload that is not a json array fails as a whole. Individual elements
// that match neither shape are recorded in Malformed and do not abort the batch.
func ParseBatch(payload []byte) (Batch, error) {
	var elems []json.RawMessage
	if err := json.Unmarshal(payload, &elems); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return Batch{}, ErrNotArray
		}
		return Batch{}, fmt.Errorf("jobs: bad json: %w", err)
	}
	if elems == nil {
		// literal null
		return Batch{}, ErrNotArray
	}

	var b Batch
	for pos, raw := range elems {
		e, ok := parseEntry(raw)
		if !ok {
			b.Malformed = append(b.Malformed, pos)
			continue
		}
		e.Pos = pos
		b.Entries = append(b.Entries, e)
	}
	return b, nil
}

func parseEntry(raw json.RawMessage) (Entry, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '[' {
		return Entry{}, false
	}

	var fields []json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return Entry{}, false
	}
	if len(fields) != 6 && len(fields) != 1 {
		return Entry{}, false
	}

	idx, ok := parseInt(fields[0])
	if !ok {
		return Entry{}, false
	}

	if len(fields) == 1 {
		return Entry{Index: int(idx), Clear: true}, true
	}

	e := Entry{
		Index:  int(idx),
		Job:    parseString(fields[1]),
		Server: parseString(fields[2]),
		State:  ParseState(parseString(fields[3])),
		Result: ParseResult(parseString(fields[4])),
	}
	if ts, ok := parseInt(fields[5]); ok && ts > 0 {
		e.Time = time.Unix(ts, 0)
	}
	return e, true
}

// parseInt accepts integral json numbers only.
func parseInt(raw json.RawMessage) (int64, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] == '"' {
		return 0, false
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return 0, false
	}
	v, err := n.Int64()
	if err != nil {
		return 0, false
	}
	return v, true
}

// parseString yields "" for anything that is not a json string.
func parseString(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}

// ApplyBatch stores every well-formed, in-range entry and returns the number
// of valid updates. Bad entries are logged and skipped. It does not recompute;
// callers recompute when the count is non-zero.
func (t *Table) ApplyBatch(b Batch) int {
	for _, pos := range b.Malformed {
		t.log.Warn("jobs: bad json entry", "pos", pos)
	}

	valid := 0
	for _, e := range b.Entries {
		if e.Index < 0 || e.Index >= len(t.channels) {
			t.log.Warn("jobs: bad json entry", "pos", e.Pos, "index", e.Index, "channels", len(t.channels))
			continue
		}

		if e.Clear {
			t.set(ChannelStatus{Index: e.Index, Active: false})
		} else {
			t.set(ChannelStatus{
				Index:  e.Index,
				Active: true,
				Job:    e.Job,
				Server: e.Server,
				State:  e.State,
				Result: e.Result,
				Time:   e.Time,
			})
		}
		valid++
	}
	return valid
}

// ApplyJSON parses and applies a status payload in one step.
// A non-nil error means the whole payload was rejected and nothing changed.
func (t *Table) ApplyJSON(payload []byte) (int, error) {
	b, err := ParseBatch(payload)
	if err != nil {
		return 0, err
	}
	return t.ApplyBatch(b), nil
}
