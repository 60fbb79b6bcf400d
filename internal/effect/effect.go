// internal/effect/effect.go
package effect

import (
	"fmt"
	"time"

	"github.com/tamzrod/laempli/internal/devcfg"
)

// Effect describes one side effect requested by the protocol core.
// The core never performs effects; the caller executes them in order.
type Effect struct {
	Kind   Kind
	Notify Notification // KindNotify
	Melody string       // KindMelody
	Noise  devcfg.Noise // KindSetNoise
	Time   time.Time    // KindSetClock
}

type Kind uint8

const (
	KindNotify Kind = iota
	KindMelody
	KindStopTone
	KindFx
	KindSetNoise
	KindSetClock
	KindRestart
)

// Notification is the fixed set of notification patterns.
type Notification uint8

const (
	NotifyOther Notification = iota
	NotifyError
	NotifyFail
	NotifyBomb
	NotifyOnline
	NotifyAbort
)

func (n Notification) String() string {
	switch n {
	case NotifyOther:
		return "other"
	case NotifyError:
		return "error"
	case NotifyFail:
		return "fail"
	case NotifyBomb:
		return "bomb"
	case NotifyOnline:
		return "online"
	case NotifyAbort:
		return "abort"
	default:
		return "???"
	}
}

// MelodyRandom asks the player to pick a melody at random.
const MelodyRandom = "random"

// ---- constructors ----

func Notify(n Notification) Effect { return Effect{Kind: KindNotify, Notify: n} }

func Melody(name string) Effect { return Effect{Kind: KindMelody, Melody: name} }

func StopTone() Effect { return Effect{Kind: KindStopTone} }

func Fx() Effect { return Effect{Kind: KindFx} }

func SetNoise(n devcfg.Noise) Effect { return Effect{Kind: KindSetNoise, Noise: n} }

func SetClock(t time.Time) Effect { return Effect{Kind: KindSetClock, Time: t} }

// Restart asks for a device restart once the current tone has finished.
func Restart() Effect { return Effect{Kind: KindRestart} }

func (e Effect) String() string {
	switch e.Kind {
	case KindNotify:
		return "notify(" + e.Notify.String() + ")"
	case KindMelody:
		return "melody(" + e.Melody + ")"
	case KindStopTone:
		return "stop-tone"
	case KindFx:
		return "fx"
	case KindSetNoise:
		return "set-noise(" + e.Noise.String() + ")"
	case KindSetClock:
		return fmt.Sprintf("set-clock(%d)", e.Time.Unix())
	case KindRestart:
		return "restart"
	default:
		return "???"
	}
}
