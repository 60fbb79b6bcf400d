// internal/jobs/types.go
package jobs

import "time"

// State is the activity of a channel's job.
type State uint8

const (
	StateUnknown State = iota
	StateOff
	StateIdle
	StateRunning
)

// Rank is the explicit activity order: Unknown < Off < Idle < Running.
// Aggregation compares ranks, never raw enum values.
func (s State) Rank() int {
	switch s {
	case StateOff:
		return 1
	case StateIdle:
		return 2
	case StateRunning:
		return 3
	default:
		return 0
	}
}

func (s State) String() string {
	switch s {
	case StateUnknown:
		return "unknown"
	case StateOff:
		return "off"
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	default:
		return "???"
	}
}

// ParseState maps a wire string to a State. Anything unrecognised is StateUnknown.
func ParseState(s string) State {
	switch s {
	case "idle":
		return StateIdle
	case "running":
		return StateRunning
	case "off":
		return StateOff
	default:
		return StateUnknown
	}
}

// Result is the outcome of a channel's last build.
type Result uint8

const (
	ResultUnknown Result = iota
	ResultSuccess
	ResultUnstable
	ResultFailure
)

// Rank is the explicit severity order: Unknown < Success < Unstable < Failure.
func (r Result) Rank() int {
	switch r {
	case ResultSuccess:
		return 1
	case ResultUnstable:
		return 2
	case ResultFailure:
		return 3
	default:
		return 0
	}
}

func (r Result) String() string {
	switch r {
	case ResultUnknown:
		return "unknown"
	case ResultSuccess:
		return "success"
	case ResultUnstable:
		return "unstable"
	case ResultFailure:
		return "failure"
	default:
		return "???"
	}
}

// ParseResult maps a wire string to a Result. Anything unrecognised is ResultUnknown.
func ParseResult(s string) Result {
	switch s {
	case "failure":
		return ResultFailure
	case "unstable":
		return ResultUnstable
	case "success":
		return ResultSuccess
	default:
		return ResultUnknown
	}
}

// Storage limits for job and server names.
const (
	JobNameMaxBytes = 50
	ServerMaxBytes  = 30
)

// ChannelStatus is one monitored channel slot.
// An inactive slot has zero job/server/state/result/time but keeps its index.
type ChannelStatus struct {
	Index  int
	Active bool
	Job    string
	Server string
	State  State
	Result Result
	Time   time.Time // last update as reported by the backend
}

// Aggregate is the table-wide summary.
type Aggregate struct {
	Worst  Result
	Active State

	// Channels that produced the extremes (highest index wins ties), -1 for an empty table.
	WorstChannel  int
	ActiveChannel int
}

// Update is the outcome of one recompute.
type Update struct {
	Previous Aggregate
	Current  Aggregate
}

// Transition reports whether the worst result changed from a known value.
// Only transitions drive notifications.
func (u Update) Transition() bool {
	return u.Previous.Worst != ResultUnknown && u.Current.Worst != u.Previous.Worst
}
