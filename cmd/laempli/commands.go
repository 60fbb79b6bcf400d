// cmd/laempli/commands.go
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/tamzrod/laempli/internal/backend"
	"github.com/tamzrod/laempli/internal/clock"
	"github.com/tamzrod/laempli/internal/config"
	"github.com/tamzrod/laempli/internal/devcfg"
	"github.com/tamzrod/laempli/internal/lamp"
	"github.com/tamzrod/laempli/internal/logging"
	"github.com/tamzrod/laempli/internal/notify"
	"github.com/tamzrod/laempli/internal/transport"
	"github.com/tamzrod/laempli/internal/writer"
)

var errRestart = errors.New("restart")

func runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run <config.yaml>",
		Short: "Connect to the backend and drive the lamp",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLamp(args[0])
		},
	}
}

func checkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check <config.yaml>",
		Short: "Validate a config file and print it with defaults applied",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(args[0])
			if err != nil {
				return err
			}
			out, err := yaml.Marshal(cfg)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), string(out))
			return nil
		},
	}
}

func replayCmd() *cobra.Command {
	var chunk int
	c := &cobra.Command{
		Use:   "replay <config.yaml> <capture>",
		Short: "Feed a captured backend stream through a session offline",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return replay(cmd.Context(), args[0], args[1], chunk)
		},
	}
	c.Flags().IntVar(&chunk, "chunk", 0, "bytes per read (default: backend.read_chunk_bytes)")
	return c
}

// ---- helpers ----

// loadConfig reads, validates and normalizes a config file.
func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	config.Normalize(cfg)
	return cfg, nil
}

func sessionConfig(cfg *config.Config) backend.Config {
	settings := devcfg.Default()
	settings.Noise = devcfg.ParseNoise(cfg.Sound.Noise)

	return backend.Config{
		Channels:             cfg.Backend.Channels,
		BufferSize:           cfg.Backend.RxBufferBytes,
		HeartbeatInterval:    ms(cfg.Backend.HeartbeatIntervalMs),
		FirstMatchPerKeyword: cfg.Backend.FirstMatchPerKeyword,
		Settings:             settings,
	}
}

func ms(v int) time.Duration { return time.Duration(v) * time.Millisecond }

func runLamp(path string) error {
	cfg, err := loadConfig(path)
	if err != nil {
		return err
	}

	log, err := logging.Init(logging.Config{
		Level:     logging.ParseLevel(cfg.Logging.Level),
		File:      cfg.Logging.File,
		SentryDSN: cfg.Logging.SentryDSN,
		Env:       cfg.Logging.Environment,
		Version:   Version,
	})
	if err != nil {
		return err
	}
	defer logging.Flush(2 * time.Second)

	log.Info("laempli: starting",
		"version", Version,
		"client", cfg.Backend.ClientID,
		"name", cfg.Backend.ClientName,
		"channels", cfg.Backend.Channels,
		"indicator", cfg.Indicator != nil,
	)

	dial, err := transport.Build(transport.Params{
		URL:            cfg.Backend.URL,
		ClientID:       cfg.Backend.ClientID,
		ClientName:     cfg.Backend.ClientName,
		Channels:       cfg.Backend.Channels,
		Version:        Version,
		ConnectTimeout: ms(cfg.Backend.ConnectTimeoutMs),
	})
	if err != nil {
		return err
	}

	// ---- indicator (optional) ----
	var indicator writer.StatusWriter
	var refresh time.Duration
	if cfg.Indicator != nil {
		plan, err := writer.BuildPlan(*cfg.Indicator, cfg.Backend.ClientName)
		if err != nil {
			return err
		}
		cli, closeCli, err := writer.BuildEndpointClient(*cfg.Indicator)
		if err != nil {
			return err
		}
		defer closeCli()
		indicator = writer.New(plan, cli)
		refresh = ms(cfg.Indicator.RefreshMs)
	}

	wall := clock.NewSynced(nil)
	sc := sessionConfig(cfg)
	session := backend.NewSession(sc, log, time.Now, wall.Now)
	exec := notify.NewExecutor(log, notify.NewLogPlayer(log, nil), wall, sc.Settings.Noise)
	exec.OnRestart(func() { logging.Flush(2 * time.Second) })

	loop := lamp.New(lamp.Config{
		ReadChunk:        cfg.Backend.ReadChunkBytes,
		RetryDelay:       ms(cfg.Backend.RetryDelayMs),
		StableConnection: time.Duration(cfg.Backend.StableConnectionS) * time.Second,
		RefreshInterval:  refresh,
		MonitorInterval:  ms(*cfg.MonitorIntervalMs),
	}, log, dial, session, exec, indicator)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = loop.Run(ctx)
	if errors.Is(err, lamp.ErrRestart) {
		log.Warn("laempli: restarting")
		return errRestart
	}
	log.Info("laempli: stopped")
	return err
}

// replay feeds a capture through a fresh session and logs what would happen.
func replay(ctx context.Context, cfgPath, capturePath string, chunk int) error {
	cfg, err := loadConfig(cfgPath)
	if err != nil {
		return err
	}
	raw, err := os.ReadFile(capturePath)
	if err != nil {
		return fmt.Errorf("replay: %w", err)
	}
	if chunk <= 0 {
		chunk = cfg.Backend.ReadChunkBytes
	}
	if ctx == nil {
		ctx = context.Background()
	}

	log := logging.New(os.Stderr, slog.LevelDebug, false)
	wall := clock.NewSynced(nil)
	sc := sessionConfig(cfg)
	session := backend.NewSession(sc, log, time.Now, wall.Now)
	exec := notify.NewExecutor(log, notify.NewLogPlayer(log, nil), wall, sc.Settings.Noise)

	last := backend.StatusNone
	for off := 0; off < len(raw); off += chunk {
		end := min(off+chunk, len(raw))

		res := session.Handle(raw[off:end])
		if exec.Execute(ctx, res.Effects) {
			log.Info("replay: restart requested", "offset", off)
			break
		}

		if res.Status != last {
			log.Info("replay: status", "offset", off, "status", res.Status.String())
			last = res.Status
		}
		if res.Status.Terminal() {
			log.Info("replay: session ended", "offset", off, "status", res.Status.String())
			break
		}
	}

	agg := session.Table().Aggregate()
	log.Info("replay: done",
		"worst", agg.Worst.String(),
		"active", agg.Active.String(),
		"table", session.Table().Summary(),
	)
	return nil
}
