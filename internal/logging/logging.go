// internal/logging/logging.go
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"
)

// Config holds logging configuration.
type Config struct {
	Level     slog.Level
	File      string // empty = stderr
	SentryDSN string
	Env       string
	Version   string
}

var (
	sentryEnabled bool
	logFile       *os.File
)

// Init builds the process logger, installs it as slog default and returns it.
// Error records are forwarded to Sentry when a DSN is configured.
func Init(cfg Config) (*slog.Logger, error) {
	if cfg.SentryDSN != "" {
		err := sentry.Init(sentry.ClientOptions{
			Dsn:         cfg.SentryDSN,
			Environment: cfg.Env,
			Release:     "laempli@" + cfg.Version,
		})
		if err != nil {
			return nil, fmt.Errorf("logging: sentry init: %w", err)
		}
		sentryEnabled = true
	}

	var out io.Writer = os.Stderr
	if cfg.File != "" {
		if err := os.MkdirAll(filepath.Dir(cfg.File), 0o755); err != nil {
			return nil, fmt.Errorf("logging: create log dir: %w", err)
		}
		f, err := os.OpenFile(cfg.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, fmt.Errorf("logging: open log file: %w", err)
		}
		out = f
		logFile = f
	}

	log := New(out, cfg.Level, sentryEnabled)
	slog.SetDefault(log)
	return log, nil
}

// New returns a text logger on w; with forward set, error records also go to Sentry.
func New(w io.Writer, level slog.Level, forward bool) *slog.Logger {
	h := slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				if t, ok := a.Value.Any().(time.Time); ok {
					a.Value = slog.StringValue(t.Local().Format("2006-01-02T15:04:05.000-07:00"))
				}
			}
			return a
		},
	})
	return slog.New(&sentryHandler{Handler: h, forward: forward})
}

// Flush sends pending Sentry events and syncs the log file. Call before exit.
func Flush(timeout time.Duration) {
	if sentryEnabled {
		sentry.Flush(timeout)
	}
	if logFile != nil {
		_ = logFile.Sync()
	}
}

// ParseLevel maps debug/info/warn/error to a slog level; anything else is info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// ---- sentry forwarding ----

type sentryHandler struct {
	slog.Handler
	forward bool
	attrs   []slog.Attr
}

func (h *sentryHandler) Handle(ctx context.Context, r slog.Record) error {
	if err := h.Handler.Handle(ctx, r); err != nil {
		return err
	}
	if h.forward && r.Level >= slog.LevelError {
		sentry.CaptureEvent(h.event(r))
	}
	return nil
}

func (h *sentryHandler) event(r slog.Record) *sentry.Event {
	ev := sentry.NewEvent()
	ev.Level = sentry.LevelError
	ev.Message = r.Message
	ev.Timestamp = r.Time

	for _, a := range h.attrs {
		ev.Extra[a.Key] = a.Value.Any()
	}
	r.Attrs(func(a slog.Attr) bool {
		ev.Extra[a.Key] = a.Value.Any()
		return true
	})
	return ev
}

func (h *sentryHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &sentryHandler{
		Handler: h.Handler.WithAttrs(attrs),
		forward: h.forward,
		attrs:   append(append([]slog.Attr(nil), h.attrs...), attrs...),
	}
}

func (h *sentryHandler) WithGroup(name string) slog.Handler {
	return &sentryHandler{
		Handler: h.Handler.WithGroup(name),
		forward: h.forward,
		attrs:   h.attrs,
	}
}
