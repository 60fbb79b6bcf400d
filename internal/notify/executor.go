// internal/notify/executor.go
package notify

import (
	"context"
	"log/slog"
	"math/rand"
	"time"

	"github.com/tamzrod/laempli/internal/clock"
	"github.com/tamzrod/laempli/internal/devcfg"
	"github.com/tamzrod/laempli/internal/effect"
)

// ---- SOUND CODES ----
// Mirrored to the indicator block so an external buzzer can follow.

const (
	CodeNone   uint16 = 0
	CodeNotify uint16 = 1 // + effect.Notification
	CodeFx     uint16 = 16
	CodeMelody uint16 = 32 // + index in Melodies
)

// Sound is the last sound started. Seq increments on every sound.
type Sound struct {
	Seq  uint16
	Code uint16
}

// restartWait bounds how long a restart waits for the current tone.
const restartWait = 10 * time.Second

// Executor performs effects in order on a Player, applying the noise level.
// Owned by the event loop; not safe for concurrent use.
type Executor struct {
	log    *slog.Logger
	player Player
	clock  *clock.Synced
	noise  devcfg.Noise
	pick   func(n int) int
	sound  Sound

	beforeRestart func()
}

// NewExecutor creates an executor starting at the given noise level.
func NewExecutor(log *slog.Logger, player Player, clk *clock.Synced, noise devcfg.Noise) *Executor {
	if log == nil {
		log = slog.Default()
	}
	if noise == devcfg.NoiseUnknown {
		noise = devcfg.NoiseSome
	}
	return &Executor{
		log:    log,
		player: player,
		clock:  clk,
		noise:  noise,
		pick:   rand.Intn,
	}
}

// OnRestart sets a hook run before a batch containing a restart is played,
// so buffered output is out before the device goes down.
func (x *Executor) OnRestart(f func()) { x.beforeRestart = f }

func (x *Executor) Noise() devcfg.Noise { return x.noise }

func (x *Executor) Sound() Sound { return x.sound }

// Execute runs fx in order. It reports whether a restart was requested; in
// that case it has already waited for the current tone to finish.
func (x *Executor) Execute(ctx context.Context, fx []effect.Effect) (restart bool) {
	if x.beforeRestart != nil && hasRestart(fx) {
		x.beforeRestart()
	}

	for _, e := range fx {
		switch e.Kind {
		case effect.KindNotify:
			if !x.notifyAllowed(e.Notify) {
				x.log.Debug("sound: muted", "notify", e.Notify.String(), "noise", x.noise.String())
				continue
			}
			x.player.Notify(e.Notify)
			x.record(CodeNotify + uint16(e.Notify))

		case effect.KindMelody:
			name := e.Melody
			if name == effect.MelodyRandom {
				name = Melodies[x.pick(len(Melodies))]
			}
			if !x.noise.AtLeast(devcfg.NoiseSome) {
				x.log.Debug("sound: muted", "melody", name)
				continue
			}
			x.player.Melody(name)
			x.record(melodyCode(name))

		case effect.KindStopTone:
			x.player.Stop()

		case effect.KindFx:
			if !x.noise.AtLeast(devcfg.NoiseSome) {
				x.log.Debug("sound: muted", "fx", true)
				continue
			}
			x.player.Fx()
			x.record(CodeFx)

		case effect.KindSetNoise:
			if e.Noise == devcfg.NoiseUnknown {
				continue
			}
			if e.Noise != x.noise {
				x.log.Debug("sound: noise", "from", x.noise.String(), "to", e.Noise.String())
			}
			x.noise = e.Noise

		case effect.KindSetClock:
			if x.clock != nil {
				x.clock.Set(e.Time)
			}

		case effect.KindRestart:
			restart = true
		}
	}

	if restart {
		x.waitIdle(ctx)
	}
	return restart
}

// notifyAllowed: none is silent, some drops the chatty Other notification.
func (x *Executor) notifyAllowed(n effect.Notification) bool {
	switch {
	case x.noise.AtLeast(devcfg.NoiseMore):
		return true
	case x.noise.AtLeast(devcfg.NoiseSome):
		return n != effect.NotifyOther
	default:
		return false
	}
}

func (x *Executor) record(code uint16) {
	x.sound.Seq++
	x.sound.Code = code
}

func (x *Executor) waitIdle(ctx context.Context) {
	deadline := time.NewTimer(restartWait)
	defer deadline.Stop()
	tick := time.NewTicker(10 * time.Millisecond)
	defer tick.Stop()

	for x.player.Playing() {
		select {
		case <-ctx.Done():
			return
		case <-deadline.C:
			x.log.Warn("sound: still playing, restarting anyway")
			return
		case <-tick.C:
		}
	}
}

func hasRestart(fx []effect.Effect) bool {
	for _, e := range fx {
		if e.Kind == effect.KindRestart {
			return true
		}
	}
	return false
}

func melodyCode(name string) uint16 {
	for i, m := range Melodies {
		if m == name {
			return CodeMelody + uint16(i)
		}
	}
	return CodeNone
}
