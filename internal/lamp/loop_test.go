// internal/lamp/loop_test.go
package lamp

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/tamzrod/laempli/internal/backend"
	"github.com/tamzrod/laempli/internal/clock"
	"github.com/tamzrod/laempli/internal/devcfg"
	"github.com/tamzrod/laempli/internal/effect"
	"github.com/tamzrod/laempli/internal/notify"
	"github.com/tamzrod/laempli/internal/status"
)

// ---- fakes ----

type fakeDialer struct {
	mu    sync.Mutex
	calls int
	fail  int // the first fail calls are refused
	conns chan *io.PipeWriter
}

func newFakeDialer(fail int) *fakeDialer {
	return &fakeDialer{fail: fail, conns: make(chan *io.PipeWriter, 8)}
}

func (d *fakeDialer) dial(ctx context.Context) (io.ReadCloser, error) {
	d.mu.Lock()
	d.calls++
	n := d.calls
	d.mu.Unlock()

	if n <= d.fail {
		return nil, errors.New("connection refused")
	}
	r, w := io.Pipe()
	d.conns <- w
	return r, nil
}

type recPlayer struct {
	mu    sync.Mutex
	calls []string
}

func (p *recPlayer) add(s string) {
	p.mu.Lock()
	p.calls = append(p.calls, s)
	p.mu.Unlock()
}

func (p *recPlayer) Notify(n effect.Notification) { p.add("notify:" + n.String()) }
func (p *recPlayer) Melody(name string)           { p.add("melody:" + name) }
func (p *recPlayer) Fx()                          { p.add("fx") }
func (p *recPlayer) Stop()                        {}
func (p *recPlayer) Playing() bool                { return false }

func (p *recPlayer) count(s string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, c := range p.calls {
		if c == s {
			n++
		}
	}
	return n
}

type recIndicator struct {
	mu    sync.Mutex
	snaps []status.Snapshot
}

func (r *recIndicator) WriteStatus(s status.Snapshot) error {
	r.mu.Lock()
	r.snaps = append(r.snaps, s)
	r.mu.Unlock()
	return nil
}

func (r *recIndicator) any(match func(status.Snapshot) bool) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.snaps {
		if match(s) {
			return true
		}
	}
	return false
}

// ---- harness ----

type harness struct {
	dialer    *fakeDialer
	player    *recPlayer
	indicator *recIndicator
	cancel    context.CancelFunc
	done      chan error
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func start(t *testing.T, failDials int, heartbeat time.Duration) *harness {
	t.Helper()

	h := &harness{
		dialer:    newFakeDialer(failDials),
		player:    &recPlayer{},
		indicator: &recIndicator{},
		done:      make(chan error, 1),
	}

	log := quietLogger()
	session := backend.NewSession(backend.Config{Channels: 4, HeartbeatInterval: heartbeat}, log, nil, nil)
	exec := notify.NewExecutor(log, h.player, clock.NewSynced(nil), devcfg.NoiseMore)

	l := New(Config{
		ReadChunk:        16,
		RetryDelay:       10 * time.Millisecond,
		StableConnection: time.Hour,
		RefreshInterval:  20 * time.Millisecond,
		LivenessInterval: 5 * time.Millisecond,
	}, log, h.dialer.dial, session, exec, h.indicator)

	ctx, cancel := context.WithCancel(context.Background())
	h.cancel = cancel
	go func() { h.done <- l.Run(ctx) }()

	t.Cleanup(func() {
		cancel()
		select {
		case <-h.done:
		case <-time.After(2 * time.Second):
		}
	})
	return h
}

func (h *harness) conn(t *testing.T) *io.PipeWriter {
	t.Helper()
	select {
	case w := <-h.dialer.conns:
		return w
	case <-time.After(2 * time.Second):
		t.Fatalf("no connection")
		return nil
	}
}

func send(t *testing.T, w *io.PipeWriter, lines ...string) {
	t.Helper()
	if _, err := io.WriteString(w, strings.Join(lines, "\r\n")+"\r\n"); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

// ---- tests ----

func TestLoop_ReconnectKeepsTable(t *testing.T) {
	h := start(t, 0, backend.DefaultHeartbeatInterval)

	w := h.conn(t)
	send(t, w, "", "hello 87e984 4 lamp")
	waitFor(t, "online notification", func() bool { return h.player.count("notify:online") == 1 })

	send(t, w, `status 1700000000 json=[[1,"job","srv","running","failure",1700000000]]`)
	waitFor(t, "channel on indicator", func() bool {
		return h.indicator.any(func(s status.Snapshot) bool {
			return s.Connection == status.ConnOkay && s.Channels[1]&status.ChannelActive != 0
		})
	})

	send(t, w, "reconnect 1700000001")
	waitFor(t, "fail notification", func() bool { return h.player.count("notify:fail") == 1 })

	// a clean end keeps the jobs with an unknown state
	waitFor(t, "kept table", func() bool {
		return h.indicator.any(func(s status.Snapshot) bool {
			return s.Connection == status.ConnOffline && s.Channels[1]&status.ChannelActive != 0
		})
	})

	h.conn(t) // redialed
}

func TestLoop_ConnectionLostClearsShortSession(t *testing.T) {
	h := start(t, 0, backend.DefaultHeartbeatInterval)

	w := h.conn(t)
	send(t, w, "", "hello 87e984 4 lamp",
		`status 1700000000 json=[[0,"job","srv","idle","success",1700000000]]`)
	waitFor(t, "channel on indicator", func() bool {
		return h.indicator.any(func(s status.Snapshot) bool { return s.Channels[0]&status.ChannelActive != 0 })
	})

	w.Close()
	waitFor(t, "fail notification", func() bool { return h.player.count("notify:fail") == 1 })
	waitFor(t, "cleared table", func() bool {
		return h.indicator.any(func(s status.Snapshot) bool {
			return s.Connection == status.ConnOffline && s.Channels[0] == 0
		})
	})

	h.conn(t)
}

func TestLoop_DialFailureRetries(t *testing.T) {
	h := start(t, 2, backend.DefaultHeartbeatInterval)

	h.conn(t)
	if n := h.player.count("notify:abort"); n != 2 {
		t.Fatalf("expected 2 abort notifications, got %d", n)
	}
}

func TestLoop_HeartbeatLossEndsConnection(t *testing.T) {
	h := start(t, 0, 10*time.Millisecond)

	w := h.conn(t)
	send(t, w, "", "hello 87e984 4 lamp", "heartbeat 1700000000 1")

	// the backend goes silent; the liveness tick notices
	waitFor(t, "fail status", func() bool { return h.player.count("notify:other") >= 1 })
	h.conn(t)
}

func TestLoop_NoHandshake(t *testing.T) {
	h := start(t, 0, 10*time.Millisecond)

	h.conn(t) // accepted, but never says hello
	waitFor(t, "redial", func() bool {
		h.dialer.mu.Lock()
		defer h.dialer.mu.Unlock()
		return h.dialer.calls >= 2
	})
}

func TestLoop_ResetRestarts(t *testing.T) {
	h := start(t, 0, backend.DefaultHeartbeatInterval)

	w := h.conn(t)
	send(t, w, "", "hello 87e984 4 lamp", "command 1700000000 reset")

	select {
	case err := <-h.done:
		h.done <- err
		if !errors.Is(err, ErrRestart) {
			t.Fatalf("expected ErrRestart, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("loop did not stop")
	}
	if h.player.count("notify:bomb") != 1 {
		t.Fatalf("expected bomb notification before restart")
	}
}

func TestLoop_CancelReturnsNil(t *testing.T) {
	h := start(t, 0, backend.DefaultHeartbeatInterval)
	h.conn(t)

	h.cancel()
	select {
	case err := <-h.done:
		h.done <- err
		if err != nil {
			t.Fatalf("expected nil on cancel, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("loop did not stop")
	}
}
