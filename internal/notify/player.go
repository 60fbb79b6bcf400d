// internal/notify/player.go
package notify

import (
	"log/slog"
	"sync"
	"time"

	"github.com/tamzrod/laempli/internal/effect"
)

// Player drives the sound hardware. Calls never block; a melody or
// notification keeps playing in the background until Stop or until it ends.
type Player interface {
	Notify(n effect.Notification)
	Melody(name string)
	Fx()
	Stop()
	Playing() bool
}

// Melodies is the melody catalogue, also used for random picks.
var Melodies = []string{"PacMan", "IndianaShort", "ImperialShort"}

var melodyLength = map[string]time.Duration{
	"PacMan":        4500 * time.Millisecond,
	"IndianaShort":  2500 * time.Millisecond,
	"ImperialShort": 3500 * time.Millisecond,
}

const (
	notifyLength = 400 * time.Millisecond
	fxLength     = 1500 * time.Millisecond
)

// LogPlayer is a Player for hosts without a buzzer: it logs what would be
// played and keeps track of how long the sound would take.
type LogPlayer struct {
	log *slog.Logger
	now func() time.Time

	mu    sync.Mutex
	until time.Time
}

func NewLogPlayer(log *slog.Logger, now func() time.Time) *LogPlayer {
	if log == nil {
		log = slog.Default()
	}
	if now == nil {
		now = time.Now
	}
	return &LogPlayer{log: log, now: now}
}

func (p *LogPlayer) Notify(n effect.Notification) {
	p.log.Info("sound: notify", "kind", n.String())
	p.play(notifyLength)
}

func (p *LogPlayer) Melody(name string) {
	d, ok := melodyLength[name]
	if !ok {
		p.log.Warn("sound: no such melody", "melody", name)
		return
	}
	p.log.Info("sound: melody", "melody", name)
	p.play(d)
}

func (p *LogPlayer) Fx() {
	p.log.Info("sound: fx")
	p.play(fxLength)
}

func (p *LogPlayer) Stop() {
	p.mu.Lock()
	p.until = time.Time{}
	p.mu.Unlock()
}

func (p *LogPlayer) Playing() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.now().Before(p.until)
}

func (p *LogPlayer) play(d time.Duration) {
	p.mu.Lock()
	p.until = p.now().Add(d)
	p.mu.Unlock()
}
