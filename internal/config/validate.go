// internal/config/validate.go
package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/tamzrod/laempli/internal/devcfg"
	"github.com/tamzrod/laempli/internal/status"
)

// Validate checks configuration correctness.
// It performs declarative validation only.
// It MUST NOT mutate configuration.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config: empty")
	}

	// ------------------------------------------------------------
	// BACKEND
	// ------------------------------------------------------------

	b := cfg.Backend

	if b.URL == "" {
		return fmt.Errorf("backend: url required")
	}
	u, err := url.Parse(b.URL)
	if err != nil {
		return fmt.Errorf("backend: url: %w", err)
	}
	switch u.Scheme {
	case "http", "https", "ws", "wss":
	default:
		return fmt.Errorf("backend: url scheme %q not supported (http, https, ws, wss)", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("backend: url %q has no host", b.URL)
	}

	if b.ClientID == "" {
		return fmt.Errorf("backend: client_id required")
	}
	if strings.ContainsAny(b.ClientID, " ;\r\n") {
		return fmt.Errorf("backend: client_id %q must not contain spaces, ';' or line breaks", b.ClientID)
	}

	// client_name is mirrored into the indicator block (ASCII only)
	for i := 0; i < len(b.ClientName); i++ {
		if b.ClientName[i] < 0x20 || b.ClientName[i] > 0x7E || b.ClientName[i] == ';' {
			return fmt.Errorf("backend: client_name must contain printable ASCII characters only (no ';')")
		}
	}

	if b.Channels < 1 || b.Channels > status.MaxChannels {
		return fmt.Errorf("backend: channels %d out of range 1..%d", b.Channels, status.MaxChannels)
	}

	for _, f := range []struct {
		name string
		v    int
	}{
		{"heartbeat_interval_ms", b.HeartbeatIntervalMs},
		{"rx_buffer_bytes", b.RxBufferBytes},
		{"read_chunk_bytes", b.ReadChunkBytes},
		{"connect_timeout_ms", b.ConnectTimeoutMs},
		{"retry_delay_ms", b.RetryDelayMs},
		{"stable_connection_s", b.StableConnectionS},
	} {
		if f.v < 0 {
			return fmt.Errorf("backend: %s must not be negative", f.name)
		}
	}

	// compared as Normalize will leave them
	buf := orDefault(b.RxBufferBytes, DefaultRxBufferBytes)
	chunk := orDefault(b.ReadChunkBytes, DefaultReadChunkBytes)
	if chunk > buf {
		return fmt.Errorf("backend: read_chunk_bytes %d larger than rx_buffer_bytes %d", chunk, buf)
	}

	// ------------------------------------------------------------
	// INDICATOR (OPT-IN)
	// ------------------------------------------------------------

	if ind := cfg.Indicator; ind != nil {
		if ind.Endpoint == "" {
			return fmt.Errorf("indicator: endpoint required")
		}
		if ind.TimeoutMs < 0 || ind.RefreshMs < 0 {
			return fmt.Errorf("indicator: timeout_ms and refresh_ms must not be negative")
		}
		end := uint32(ind.BaseSlot) + status.SlotsPerBlock
		if end > 0x10000 {
			return fmt.Errorf("indicator: base_slot %d leaves no room for the %d slot block", ind.BaseSlot, status.SlotsPerBlock)
		}
	}

	// ------------------------------------------------------------
	// SOUND / LOGGING / MONITOR
	// ------------------------------------------------------------

	if cfg.Sound.Noise != "" && devcfg.ParseNoise(cfg.Sound.Noise) == devcfg.NoiseUnknown {
		return fmt.Errorf("sound: noise %q not one of none, some, more, most", cfg.Sound.Noise)
	}

	switch strings.ToLower(cfg.Logging.Level) {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging: level %q not one of debug, info, warn, error", cfg.Logging.Level)
	}

	if cfg.MonitorIntervalMs != nil && *cfg.MonitorIntervalMs < 0 {
		return fmt.Errorf("monitor_interval_ms must not be negative")
	}

	return nil
}

func orDefault(v, def int) int {
	if v == 0 {
		return def
	}
	return v
}
