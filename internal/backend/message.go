// internal/backend/message.go
package backend

import (
	"bytes"
	"fmt"
	"strconv"
	"time"
)

// MsgKind classifies a decoded record.
type MsgKind uint8

const (
	MsgNone MsgKind = iota // unrecognised keyword, ignored
	MsgHello
	MsgConfig
	MsgStatus
	MsgHeartbeat
	MsgError
	MsgReconnect
	MsgCommand
)

var msgKeywords = map[string]MsgKind{
	"hello":     MsgHello,
	"config":    MsgConfig,
	"status":    MsgStatus,
	"heartbeat": MsgHeartbeat,
	"error":     MsgError,
	"reconnect": MsgReconnect,
	"command":   MsgCommand,
}

func (k MsgKind) String() string {
	names := [...]string{"none", "hello", "config", "status", "heartbeat", "error", "reconnect", "command"}
	if int(k) < len(names) {
		return names[k]
	}
	return "???"
}

// Message is one decoded record. Which fields are set depends on Kind.
type Message struct {
	Kind MsgKind

	// Time is the backend timestamp; zero when absent, zero or unparseable.
	Time time.Time

	// hello
	ClientID   string
	Channels   int // -1 when not announced
	ClientName string

	// config, status: raw json after "json="
	JSON []byte

	// heartbeat
	Counter uint64

	// error: message text; command: command name
	Text string
}

// DecodeError reports a record with a known keyword but an unusable payload.
type DecodeError struct {
	Keyword string
	Reason  string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("backend: bad %s record: %s", e.Keyword, e.Reason)
}

var jsonPrefix = []byte("json=")

// Decode classifies one complete record.
// Unknown keywords (and empty records) decode to MsgNone without error.
func Decode(record []byte) (Message, error) {
	keyword, rest := cut(record)

	kind, ok := msgKeywords[string(keyword)]
	if !ok {
		return Message{Kind: MsgNone}, nil
	}

	if kind == MsgHello {
		return decodeHello(rest), nil
	}

	// every other record starts with a timestamp
	tsField, tail := cut(rest)
	msg := Message{Kind: kind, Time: parseTimestamp(tsField)}

	switch kind {
	case MsgConfig, MsgStatus:
		if !bytes.HasPrefix(tail, jsonPrefix) {
			return Message{}, &DecodeError{Keyword: string(keyword), Reason: "missing json= payload"}
		}
		msg.JSON = bytes.Clone(tail[len(jsonPrefix):])

	case MsgHeartbeat:
		counter, _ := cut(tail)
		msg.Counter, _ = strconv.ParseUint(string(counter), 10, 64)

	case MsgError:
		msg.Text = string(tail)

	case MsgCommand:
		// the whole remainder is the name; "reset later" is not "reset"
		msg.Text = string(tail)

	case MsgReconnect:
		// timestamp only
	}

	return msg, nil
}

// "hello <clientIdHex> <channelCount> <clientName>"
func decodeHello(rest []byte) Message {
	msg := Message{Kind: MsgHello, Channels: -1}

	id, rest := cut(rest)
	count, name := cut(rest)

	msg.ClientID = string(id)
	if n, err := strconv.Atoi(string(count)); err == nil {
		msg.Channels = n
	}
	msg.ClientName = string(name)
	return msg
}

// parseTimestamp yields the zero time for anything that is not a positive unix time.
func parseTimestamp(field []byte) time.Time {
	ts, err := strconv.ParseInt(string(field), 10, 64)
	if err != nil || ts <= 0 {
		return time.Time{}
	}
	return time.Unix(ts, 0)
}

// cut splits at the first space. rest is empty when there is none.
func cut(b []byte) (head, rest []byte) {
	head, rest, _ = bytes.Cut(b, []byte(" "))
	return head, rest
}
