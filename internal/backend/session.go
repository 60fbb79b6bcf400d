// internal/backend/session.go
package backend

import (
	"errors"
	"log/slog"
	"time"

	"github.com/tamzrod/laempli/internal/devcfg"
	"github.com/tamzrod/laempli/internal/effect"
	"github.com/tamzrod/laempli/internal/jobs"
)

// Status is the connection health reported after every processed chunk.
type Status uint8

const (
	StatusNone Status = iota
	StatusConnected
	StatusOkay
	StatusReconnect
	StatusFail
	StatusRxOverflow
)

func (s Status) String() string {
	switch s {
	case StatusNone:
		return "NONE"
	case StatusConnected:
		return "CONNECTED"
	case StatusOkay:
		return "OKAY"
	case StatusReconnect:
		return "RECONNECT"
	case StatusFail:
		return "FAIL"
	case StatusRxOverflow:
		return "RXBUF"
	default:
		return "???"
	}
}

// Terminal reports whether the status ends the current connection attempt.
func (s Status) Terminal() bool {
	return s == StatusReconnect || s == StatusFail || s == StatusRxOverflow
}

// DefaultHeartbeatInterval is the backend's heartbeat period.
const DefaultHeartbeatInterval = 5 * time.Second

// heartbeatMisses is the number of intervals without heartbeat tolerated.
const heartbeatMisses = 3

// Config is the immutable session configuration.
type Config struct {
	Channels          int
	BufferSize        int
	HeartbeatInterval time.Duration

	// FirstMatchPerKeyword acts only on the first record of each keyword
	// per processed chunk and discards the others (wire-compatible mode).
	FirstMatchPerKeyword bool

	// Settings is the device configuration in force until the backend sends one.
	Settings devcfg.Settings
}

// Result is the outcome of one Handle call.
type Result struct {
	Status  Status
	Effects []effect.Effect
	Records int   // complete records extracted
	Err     error // ErrOverflow, or nil
}

// Stats is observability only.
type Stats struct {
	Status        Status
	BytesReceived uint64
	Buffered      int
	PeakFill      int
	Overflows     uint32
	LastHello     time.Time // zero before the handshake
	LastHeartbeat time.Time // zero before the first heartbeat
}

// Session is one protocol session: receive buffer, channel table and
// connection health. Not safe for concurrent use; one owner calls Handle
// and reads the table.
type Session struct {
	cfg Config
	log *slog.Logger
	now func() time.Time

	rx       *Reassembler
	table    *jobs.Table
	settings devcfg.Settings

	status        Status
	records       uint64 // non-empty records since connect
	noHello       bool   // records arrived without a handshake
	lastHello     time.Time
	lastHeartbeat time.Time
}

// NewSession creates a session with an empty table of cfg.Channels slots.
// now must be monotonic (time.Now); wall is the synced clock used for job ages.
func NewSession(cfg Config, log *slog.Logger, now, wall func() time.Time) *Session {
	if log == nil {
		log = slog.Default()
	}
	if now == nil {
		now = time.Now
	}
	if cfg.HeartbeatInterval <= 0 {
		cfg.HeartbeatInterval = DefaultHeartbeatInterval
	}
	if cfg.Settings.Noise == devcfg.NoiseUnknown {
		cfg.Settings.Noise = devcfg.NoiseSome
	}

	s := &Session{
		cfg:      cfg,
		log:      log,
		now:      now,
		rx:       NewReassembler(cfg.BufferSize),
		table:    jobs.New(cfg.Channels, log, wall),
		settings: cfg.Settings,
	}
	s.table.ClearAll()
	return s
}

// Table exposes the channel table for read-only use by the owner.
func (s *Session) Table() *jobs.Table { return s.table }

// Status is the last reported status.
func (s *Session) Status() Status { return s.status }

// Settings is the device configuration currently in force.
func (s *Session) Settings() devcfg.Settings { return s.settings }

// HeartbeatTimeout is the silence after which a session fails.
func (s *Session) HeartbeatTimeout() time.Duration {
	return heartbeatMisses * s.cfg.HeartbeatInterval
}

// Stats returns a copy of the session counters.
func (s *Session) Stats() Stats {
	return Stats{
		Status:        s.status,
		BytesReceived: s.rx.BytesReceived(),
		Buffered:      s.rx.Buffered(),
		PeakFill:      s.rx.PeakFill(),
		Overflows:     s.rx.Overflows(),
		LastHello:     s.lastHello,
		LastHeartbeat: s.lastHeartbeat,
	}
}

// Handle processes one chunk of received bytes: reassembles records, applies
// every decoded message and evaluates the connection status.
func (s *Session) Handle(chunk []byte) Result {
	now := s.now()

	records, err := s.rx.Append(chunk)
	if err != nil {
		s.log.Warn("backend: rx buf", "overflows", s.rx.Overflows(), "capacity", s.rx.Capacity())
		s.setStatus(StatusRxOverflow)
		return Result{Status: StatusRxOverflow, Err: err}
	}

	msgs := make([]Message, 0, len(records))
	for _, rec := range records {
		if len(rec) > 0 {
			s.records++
		}

		msg, err := Decode(rec)
		if err != nil {
			var de *DecodeError
			if errors.As(err, &de) {
				s.log.Warn("backend: bad record", "keyword", de.Keyword, "reason", de.Reason)
			}
			continue
		}
		if msg.Kind == MsgNone {
			if len(rec) > 0 {
				s.log.Debug("backend: ignoring record", "len", len(rec))
			}
			continue
		}
		msgs = append(msgs, msg)
	}
	if s.cfg.FirstMatchPerKeyword {
		msgs = s.firstPerKeyword(msgs)
	}

	res := StatusOkay
	var fx []effect.Effect

	for _, msg := range msgs {
		if !msg.Time.IsZero() {
			fx = append(fx, effect.SetClock(msg.Time))
		}

		switch msg.Kind {
		case MsgHello:
			s.log.Debug("backend: hello", "client", msg.ClientID, "channels", msg.Channels, "name", msg.ClientName)
			if msg.Channels >= 0 && msg.Channels != s.table.Len() {
				s.log.Warn("backend: channel count mismatch", "backend", msg.Channels, "local", s.table.Len())
			}
			if s.noHello {
				s.log.Warn("backend: late hello ignored")
				break
			}
			if s.lastHello.IsZero() {
				s.lastHello = now
				if res != StatusReconnect {
					res = StatusConnected
				}
				s.log.Info("backend: connected")
			}

		case MsgError:
			s.log.Error("backend: error", "msg", msg.Text)

		case MsgReconnect:
			s.log.Info("backend: reconnect")
			res = StatusReconnect

		case MsgHeartbeat:
			s.lastHeartbeat = now
			s.log.Debug("backend: heartbeat", "count", msg.Counter)

		case MsgConfig:
			s.log.Debug("backend: config")
			fx = append(fx, s.applyConfig(msg.JSON)...)

		case MsgStatus:
			s.log.Debug("backend: status", "len", len(msg.JSON))
			fx = append(fx, s.applyStatus(msg.JSON)...)

		case MsgCommand:
			out := Dispatch(msg.Text, s.settings.Noise)
			if out.Known {
				s.log.Info("backend: command", "cmd", msg.Text)
			} else {
				s.log.Warn("backend: command ???", "cmd", msg.Text)
			}
			if out.Reconnect {
				res = StatusReconnect
			}
			fx = append(fx, out.Effects...)
		}
	}

	// the handshake must come with the first reassembled records; until a
	// record is complete the session is still waiting for it. A session that
	// missed it stays failed until Disconnect.
	if s.lastHello.IsZero() {
		switch {
		case s.noHello:
			res = StatusFail
		case s.records == 0:
			res = StatusNone
		default:
			s.log.Error("backend: no hello")
			s.noHello = true
			res = StatusFail
		}
	}

	if res == StatusOkay && !s.lastHeartbeat.IsZero() {
		if now.Sub(s.lastHeartbeat) > s.HeartbeatTimeout() {
			s.log.Error("backend: lost heartbeat", "since", now.Sub(s.lastHeartbeat))
			res = StatusFail
		}
	}

	s.setStatus(res)
	return Result{Status: res, Effects: fx, Records: len(records)}
}

// firstPerKeyword keeps the first record of each keyword and returns them in
// the fixed wire-compatible processing order, whatever order they arrived in.
func (s *Session) firstPerKeyword(msgs []Message) []Message {
	first := make(map[MsgKind]Message, len(msgs))
	for _, m := range msgs {
		if _, ok := first[m.Kind]; ok {
			s.log.Debug("backend: discarding repeated record", "keyword", m.Kind.String())
			continue
		}
		first[m.Kind] = m
	}

	out := make([]Message, 0, len(first))
	for _, k := range firstMatchOrder {
		if m, ok := first[k]; ok {
			out = append(out, m)
		}
	}
	return out
}

var firstMatchOrder = [...]MsgKind{
	MsgHello, MsgError, MsgReconnect, MsgHeartbeat, MsgConfig, MsgStatus, MsgCommand,
}

// Disconnect ends the session. With keepStatus the channels keep their job
// identity but show an unknown state; otherwise the table is cleared.
// The session can be reused for a new connection afterwards.
func (s *Session) Disconnect(keepStatus bool) []effect.Effect {
	s.log.Debug("backend: disconnect", "keep_status", keepStatus)

	var u jobs.Update
	if keepStatus {
		u = s.table.MarkActiveUnknown()
	} else {
		u = s.table.ClearAll()
	}

	s.rx.Reset()
	s.records = 0
	s.noHello = false
	s.lastHello = time.Time{}
	s.lastHeartbeat = time.Time{}
	s.status = StatusNone

	return s.aggregateEffects(u)
}

func (s *Session) setStatus(st Status) {
	if s.status != st {
		s.log.Debug("backend: status", "from", s.status.String(), "to", st.String())
	}
	s.status = st
}

func (s *Session) applyConfig(raw []byte) []effect.Effect {
	fx := []effect.Effect{effect.Notify(effect.NotifyOther)}

	settings, err := devcfg.Apply(raw)
	if err != nil {
		s.log.Error("backend: config rejected", "err", err)
		return append(fx, effect.Notify(effect.NotifyError))
	}

	s.settings = settings
	s.log.Info("backend: config okay",
		"model", settings.Model.String(),
		"driver", settings.Driver.String(),
		"order", settings.Order.String(),
		"bright", settings.Bright.String(),
		"noise", settings.Noise.String(),
	)
	return append(fx, effect.SetNoise(settings.Noise))
}

func (s *Session) applyStatus(raw []byte) []effect.Effect {
	n, err := s.table.ApplyJSON(raw)
	if err != nil {
		s.log.Error("backend: bad json", "err", err)
		return []effect.Effect{effect.Notify(effect.NotifyError)}
	}
	if n == 0 {
		s.log.Error("backend: no valid status entries")
		return []effect.Effect{effect.Notify(effect.NotifyError)}
	}

	fx := []effect.Effect{effect.Notify(effect.NotifyOther)}
	return append(fx, s.aggregateEffects(s.table.Recompute())...)
}

// aggregateEffects turns a worst-result transition into sounds.
// Sounds play only from noise level "more"; models with a sound fx use it for
// failures and add the melody at "most".
func (s *Session) aggregateEffects(u jobs.Update) []effect.Effect {
	if !u.Transition() {
		return nil
	}

	noise := s.settings.Noise
	var fx []effect.Effect

	switch u.Current.Worst {
	case jobs.ResultFailure:
		s.log.Info("jobs: failure!", "was", u.Previous.Worst.String())
		if !noise.AtLeast(devcfg.NoiseMore) {
			break
		}
		fx = append(fx, effect.StopTone())
		switch s.settings.Model {
		case devcfg.ModelChewie, devcfg.ModelHello:
			fx = append(fx, effect.Fx())
			if noise.AtLeast(devcfg.NoiseMost) {
				fx = append(fx, effect.Melody(MelodyFailure))
			}
		default:
			fx = append(fx, effect.Melody(MelodyFailure))
		}

	case jobs.ResultSuccess:
		s.log.Info("jobs: success!", "was", u.Previous.Worst.String())
		if noise.AtLeast(devcfg.NoiseMore) {
			fx = append(fx, effect.StopTone(), effect.Melody(MelodySuccess))
		}

	case jobs.ResultUnstable:
		s.log.Info("jobs: unstable!", "was", u.Previous.Worst.String())
	}

	return fx
}
