// internal/lamp/loop.go
package lamp

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/tamzrod/laempli/internal/backend"
	"github.com/tamzrod/laempli/internal/effect"
	"github.com/tamzrod/laempli/internal/notify"
	"github.com/tamzrod/laempli/internal/transport"
	"github.com/tamzrod/laempli/internal/writer"
)

// ErrRestart is returned by Run when the backend asked for a restart.
var ErrRestart = errors.New("lamp: restart requested")

// Config is the immutable loop configuration.
type Config struct {
	ReadChunk        int
	RetryDelay       time.Duration
	StableConnection time.Duration
	RefreshInterval  time.Duration // indicator refresh; 0 disables
	MonitorInterval  time.Duration // 0 disables
	LivenessInterval time.Duration // idle Handle calls for heartbeat checks
}

type dialResult struct {
	stream io.ReadCloser
	err    error
}

// Loop owns the session, the effect executor and the indicator writer.
// Everything runs on the goroutine calling Run, except the blocking dial and
// the stream reader which only forward their results.
type Loop struct {
	cfg       Config
	log       *slog.Logger
	dial      transport.Dialer
	session   *backend.Session
	exec      *notify.Executor
	indicator writer.StatusWriter // nil when not configured
	now       func() time.Time

	started time.Time

	// current connection, zero while offline
	online         bool
	connLog        *slog.Logger
	stream         io.ReadCloser
	stopReader     context.CancelFunc
	chunks         chan transport.Chunk
	dialedAt       time.Time
	connectedSince time.Time

	// counters for the monitor
	connects     uint32
	dialFailures uint32
	lastWriteErr bool
}

// New wires a loop. indicator may be nil.
func New(cfg Config, log *slog.Logger, dial transport.Dialer, session *backend.Session,
	exec *notify.Executor, indicator writer.StatusWriter) *Loop {
	if log == nil {
		log = slog.Default()
	}
	if cfg.LivenessInterval <= 0 {
		cfg.LivenessInterval = time.Second
	}
	return &Loop{
		cfg:       cfg,
		log:       log,
		dial:      dial,
		session:   session,
		exec:      exec,
		indicator: indicator,
		now:       time.Now,
		connLog:   log,
	}
}

// Run connects to the backend and processes the stream until ctx is done
// (returns nil) or a restart is requested (returns ErrRestart).
// Connection failures are retried after RetryDelay.
func (l *Loop) Run(ctx context.Context) error {
	l.started = l.now()

	refresh := newTicker(l.cfg.RefreshInterval)
	defer refresh.Stop()
	monitor := newTicker(l.cfg.MonitorInterval)
	defer monitor.Stop()
	liveness := time.NewTicker(l.cfg.LivenessInterval)
	defer liveness.Stop()

	retry := time.NewTimer(0)
	defer retry.Stop()

	dialed := make(chan dialResult, 1)

	// closes the stream on cancel and on restart
	defer l.hangup(ctx, true, false)

	// Full block write on start (identity re-assert) if enabled.
	l.writeIndicator()

	for {
		select {
		case <-ctx.Done():
			return nil

		case <-retry.C:
			l.dialedAt = l.now()
			l.log.Info("lamp: connecting to backend")
			go func() {
				rc, err := l.dial(ctx)
				dialed <- dialResult{stream: rc, err: err}
			}()

		case d := <-dialed:
			if d.err != nil {
				if ctx.Err() != nil {
					continue
				}
				l.dialFailures++
				l.log.Error("lamp: connect failed", "err", d.err, "retry_in", l.cfg.RetryDelay)
				if l.execute(ctx, []effect.Effect{effect.Notify(effect.NotifyAbort)}) {
					return ErrRestart
				}
				retry.Reset(l.cfg.RetryDelay)
				continue
			}
			l.attach(ctx, d.stream)

		case c := <-l.chunks:
			if len(c.Data) > 0 {
				if l.react(ctx, l.session.Handle(c.Data), retry) {
					return ErrRestart
				}
			}
			if c.Err != nil && l.online {
				if errors.Is(c.Err, io.EOF) {
					l.connLog.Error("lamp: connection closed by backend")
				} else {
					l.connLog.Error("lamp: connection lost", "err", c.Err)
				}
				if l.execute(ctx, []effect.Effect{effect.Notify(effect.NotifyFail)}) {
					return ErrRestart
				}
				if l.hangup(ctx, false, true) {
					return ErrRestart
				}
				retry.Reset(l.cfg.RetryDelay)
			}

		case <-liveness.C:
			if !l.online {
				continue
			}
			if l.handshakeOverdue() {
				l.connLog.Error("lamp: no handshake", "since", l.now().Sub(l.dialedAt))
				if l.react(ctx, backend.Result{Status: backend.StatusFail}, retry) {
					return ErrRestart
				}
				continue
			}
			if l.react(ctx, l.session.Handle(nil), retry) {
				return ErrRestart
			}

		case <-refresh.C:
			l.writeIndicator()

		case <-monitor.C:
			l.monitor()
		}
	}
}

// attach starts reading a freshly opened stream.
func (l *Loop) attach(ctx context.Context, rc io.ReadCloser) {
	id := uuid.NewString()
	l.connLog = l.log.With("conn", id)
	l.connLog.Info("lamp: backend stream open")

	rctx, cancel := context.WithCancel(ctx)
	l.online = true
	l.stream = rc
	l.stopReader = cancel
	l.chunks = make(chan transport.Chunk)
	l.connectedSince = l.now()
	l.connects++

	go transport.Run(rctx, rc, l.cfg.ReadChunk, l.chunks)
	l.writeIndicator()
}

// react executes the effects of one Handle call and acts on the status.
// It reports whether a restart was requested.
func (l *Loop) react(ctx context.Context, res backend.Result, retry *time.Timer) bool {
	if l.execute(ctx, res.Effects) {
		return true
	}

	var fx []effect.Effect
	hangup, clean := false, false

	switch res.Status {
	case backend.StatusConnected:
		l.connectedSince = l.now()
		fx = append(fx, effect.Notify(effect.NotifyOnline))
	case backend.StatusFail, backend.StatusRxOverflow:
		fx = append(fx, effect.Notify(effect.NotifyOther))
		hangup = true
	case backend.StatusReconnect:
		fx = append(fx, effect.Notify(effect.NotifyFail))
		hangup, clean = true, true
	}

	if l.execute(ctx, fx) {
		return true
	}
	if hangup {
		l.connLog.Info("lamp: closing connection", "status", res.Status.String())
		if l.hangup(ctx, clean, true) {
			return true
		}
		retry.Reset(l.cfg.RetryDelay)
	}

	l.writeIndicator()
	return false
}

// hangup closes the current stream and ends the session. The channel table
// survives a clean end or a connection that was stable long enough.
func (l *Loop) hangup(ctx context.Context, clean, execute bool) (restart bool) {
	if !l.online {
		return false
	}

	l.stopReader()
	if err := l.stream.Close(); err != nil {
		l.connLog.Debug("lamp: close stream", "err", err)
	}

	stable := l.now().Sub(l.connectedSince)
	keep := clean || stable > l.cfg.StableConnection
	fx := l.session.Disconnect(keep)

	l.online = false
	l.stream = nil
	l.stopReader = nil
	l.chunks = nil
	l.connLog.Info("lamp: disconnected", "keep_status", keep, "lasted", stable.Round(time.Second))
	l.connLog = l.log

	if execute {
		restart = l.execute(ctx, fx)
	}
	l.writeIndicator()
	return restart
}

func (l *Loop) execute(ctx context.Context, fx []effect.Effect) bool {
	if len(fx) == 0 {
		return false
	}
	return l.exec.Execute(ctx, fx)
}

// handshakeOverdue: the backend accepted the request but never said hello.
func (l *Loop) handshakeOverdue() bool {
	return l.session.Status() == backend.StatusNone &&
		l.now().Sub(l.dialedAt) > l.session.HeartbeatTimeout()
}

// newTicker returns a stopped-forever ticker for d <= 0.
func newTicker(d time.Duration) *time.Ticker {
	if d <= 0 {
		t := time.NewTicker(time.Hour)
		t.Stop()
		return t
	}
	return time.NewTicker(d)
}
