// internal/config/normalize.go
package config

// Defaults applied by Normalize.
const (
	DefaultHeartbeatIntervalMs = 5000
	DefaultRxBufferBytes       = 4096
	DefaultReadChunkBytes      = 100
	DefaultConnectTimeoutMs    = 10000
	DefaultRetryDelayMs        = 5000
	DefaultStableConnectionS   = 300
	DefaultIndicatorTimeoutMs  = 1000
	DefaultIndicatorRefreshMs  = 1000
	DefaultMonitorIntervalMs   = 5000
	DefaultNoise               = "some"
	DefaultLogLevel            = "info"
)

// Normalize applies post-validation normalization.
// It is allowed to mutate configuration.
// It MUST be called only after Validate().
func Normalize(cfg *Config) {
	if cfg == nil {
		return
	}

	b := &cfg.Backend
	setDefault(&b.HeartbeatIntervalMs, DefaultHeartbeatIntervalMs)
	setDefault(&b.RxBufferBytes, DefaultRxBufferBytes)
	setDefault(&b.ReadChunkBytes, DefaultReadChunkBytes)
	setDefault(&b.ConnectTimeoutMs, DefaultConnectTimeoutMs)
	setDefault(&b.RetryDelayMs, DefaultRetryDelayMs)
	setDefault(&b.StableConnectionS, DefaultStableConnectionS)

	if b.ClientName == "" {
		b.ClientName = b.ClientID
	}

	if ind := cfg.Indicator; ind != nil {
		setDefault(&ind.TimeoutMs, DefaultIndicatorTimeoutMs)
		setDefault(&ind.RefreshMs, DefaultIndicatorRefreshMs)
	}

	if cfg.Sound.Noise == "" {
		cfg.Sound.Noise = DefaultNoise
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = DefaultLogLevel
	}
	if cfg.MonitorIntervalMs == nil {
		v := DefaultMonitorIntervalMs
		cfg.MonitorIntervalMs = &v
	}
}

func setDefault(v *int, def int) {
	if *v == 0 {
		*v = def
	}
}
