// internal/backend/command.go
package backend

import (
	"github.com/tamzrod/laempli/internal/devcfg"
	"github.com/tamzrod/laempli/internal/effect"
)

// Melodies requested by the protocol core.
const (
	MelodyIdentify = "PacMan"
	MelodyIndy     = "IndianaShort"
	MelodySuccess  = "IndianaShort"
	MelodyFailure  = "ImperialShort"
)

// Outcome is what a backend command asks for.
type Outcome struct {
	Known     bool
	Reconnect bool
	Effects   []effect.Effect
}

// Dispatch maps a command name to its side effects.
// noise is the configured verbosity, restored after temporary overrides.
// Dispatch never touches session or channel state.
func Dispatch(name string, noise devcfg.Noise) Outcome {
	switch name {
	case "reconnect":
		return Outcome{
			Known:     true,
			Reconnect: true,
			Effects:   []effect.Effect{effect.Notify(effect.NotifyOther)},
		}

	case "reset":
		// the executor flushes output and waits for the tone before restarting
		return Outcome{
			Known: true,
			Effects: []effect.Effect{
				effect.Notify(effect.NotifyBomb),
				effect.Restart(),
			},
		}

	case "identify":
		return Outcome{Known: true, Effects: loudMelody(MelodyIdentify, noise)}

	case "indy":
		return Outcome{Known: true, Effects: loudMelody(MelodyIndy, noise)}

	case "random":
		return Outcome{
			Known:   true,
			Effects: []effect.Effect{effect.StopTone(), effect.Melody(effect.MelodyRandom)},
		}

	case "chewie", "hello":
		return Outcome{Known: true, Effects: []effect.Effect{effect.Fx()}}

	default:
		return Outcome{
			Known:   false,
			Effects: []effect.Effect{effect.StopTone(), effect.Notify(effect.NotifyError)},
		}
	}
}

// loudMelody plays a melody regardless of the configured noise level.
func loudMelody(name string, noise devcfg.Noise) []effect.Effect {
	return []effect.Effect{
		effect.StopTone(),
		effect.SetNoise(devcfg.NoiseMost),
		effect.Melody(name),
		effect.SetNoise(noise),
	}
}
