// internal/config/config.go
package config

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Backend   BackendConfig    `yaml:"backend"`
	Indicator *IndicatorConfig `yaml:"indicator"` // optional
	Sound     SoundConfig      `yaml:"sound"`
	Logging   LoggingConfig    `yaml:"logging"`

	// MonitorIntervalMs is the period of the monitor dump; 0 disables it.
	MonitorIntervalMs *int `yaml:"monitor_interval_ms"`
}

// ---- BACKEND ----

type BackendConfig struct {
	URL        string `yaml:"url"` // http(s):// streaming POST or ws(s)://
	ClientID   string `yaml:"client_id"`
	ClientName string `yaml:"client_name"`
	Channels   int    `yaml:"channels"`

	HeartbeatIntervalMs int `yaml:"heartbeat_interval_ms"`
	RxBufferBytes       int `yaml:"rx_buffer_bytes"`
	ReadChunkBytes      int `yaml:"read_chunk_bytes"`
	ConnectTimeoutMs    int `yaml:"connect_timeout_ms"`
	RetryDelayMs        int `yaml:"retry_delay_ms"`

	// StableConnectionS is how long a connection must have lasted for the
	// channel table to survive an unclean disconnect.
	StableConnectionS int `yaml:"stable_connection_s"`

	FirstMatchPerKeyword bool `yaml:"first_match_per_keyword"`
}

// ---- INDICATOR (Modbus status block) ----

type IndicatorConfig struct {
	Endpoint  string `yaml:"endpoint"`
	UnitID    uint8  `yaml:"unit_id"`
	BaseSlot  uint16 `yaml:"base_slot"`
	TimeoutMs int    `yaml:"timeout_ms"`
	RefreshMs int    `yaml:"refresh_ms"`
}

// ---- SOUND ----

type SoundConfig struct {
	Noise string `yaml:"noise"` // none | some | more | most
}

// ---- LOGGING ----

type LoggingConfig struct {
	Level       string `yaml:"level"` // debug | info | warn | error
	File        string `yaml:"file"`
	SentryDSN   string `yaml:"sentry_dsn"`
	Environment string `yaml:"environment"`
}

// Load reads a YAML config file. Unknown keys are rejected.
// The result still has to go through Validate and Normalize.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return Parse(raw)
}

// Parse decodes YAML config bytes.
func Parse(raw []byte) (*Config, error) {
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)

	var cfg Config
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	return &cfg, nil
}
