// internal/devcfg/devcfg.go
package devcfg

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Settings is the device configuration pushed by the backend in "config" records.
// It is in-memory only and lives as long as the process.
type Settings struct {
	Model  Model
	Driver Driver
	Order  Order
	Bright Bright
	Noise  Noise
}

// Default is the boot configuration: everything unknown, noise "some".
func Default() Settings {
	return Settings{Noise: NoiseSome}
}

// ---- MODEL ----

type Model uint8

const (
	ModelUnknown Model = iota
	ModelStandard
	ModelChewie
	ModelHello
	ModelGitta
)

var modelNames = []string{"unknown", "standard", "chewie", "hello", "gitta"}

func (m Model) String() string { return nameOf(modelNames, int(m)) }

// ---- DRIVER ----

type Driver uint8

const (
	DriverUnknown Driver = iota
	DriverWS2801
	DriverSK9822
)

var driverNames = []string{"unknown", "WS2801", "SK9822"}

func (d Driver) String() string { return nameOf(driverNames, int(d)) }

// ---- COLOUR ORDER ----

type Order uint8

const (
	OrderUnknown Order = iota
	OrderRGB
	OrderRBG
	OrderGRB
	OrderGBR
	OrderBRG
	OrderBGR
)

var orderNames = []string{"unknown", "RGB", "RBG", "GRB", "GBR", "BRG", "BGR"}

func (o Order) String() string { return nameOf(orderNames, int(o)) }

// ---- BRIGHTNESS ----

type Bright uint8

const (
	BrightUnknown Bright = iota
	BrightLow
	BrightMedium
	BrightHigh
	BrightFull
)

var brightNames = []string{"unknown", "low", "medium", "high", "full"}

func (b Bright) String() string { return nameOf(brightNames, int(b)) }

// ---- NOISE ----

// Noise is the notification verbosity. Levels are ordered: compare with AtLeast.
type Noise uint8

const (
	NoiseUnknown Noise = iota
	NoiseNone
	NoiseSome
	NoiseMore
	NoiseMost
)

var noiseNames = []string{"unknown", "none", "some", "more", "most"}

func (n Noise) String() string { return nameOf(noiseNames, int(n)) }

// AtLeast reports whether n is a known level not below min.
func (n Noise) AtLeast(min Noise) bool {
	return n != NoiseUnknown && n >= min
}

// ParseNoise maps a config string to a level; unknown strings yield NoiseUnknown.
func ParseNoise(s string) Noise { return Noise(indexOf(noiseNames, s)) }

func parseModel(s string) Model   { return Model(indexOf(modelNames, s)) }
func parseDriver(s string) Driver { return Driver(indexOf(driverNames, s)) }
func parseOrder(s string) Order   { return Order(indexOf(orderNames, s)) }
func parseBright(s string) Bright { return Bright(indexOf(brightNames, s)) }

// payload is the wire shape of the config json object.
type payload struct {
	Model  string `json:"model"`
	Driver string `json:"driver"`
	Order  string `json:"order"`
	Bright string `json:"bright"`
	Noise  string `json:"noise"`
}

// Apply parses a config json object. All five fields must be present and valid;
// otherwise an error is returned and the previous settings stay in force.
func Apply(raw []byte) (Settings, error) {
	var p payload
	if err := json.Unmarshal(raw, &p); err != nil {
		return Settings{}, fmt.Errorf("devcfg: bad json: %w", err)
	}

	s := Settings{
		Model:  parseModel(p.Model),
		Driver: parseDriver(p.Driver),
		Order:  parseOrder(p.Order),
		Bright: parseBright(p.Bright),
		Noise:  ParseNoise(p.Noise),
	}

	var missing []string
	if s.Model == ModelUnknown {
		missing = append(missing, "model="+quoteOrNA(p.Model))
	}
	if s.Driver == DriverUnknown {
		missing = append(missing, "driver="+quoteOrNA(p.Driver))
	}
	if s.Order == OrderUnknown {
		missing = append(missing, "order="+quoteOrNA(p.Order))
	}
	if s.Bright == BrightUnknown {
		missing = append(missing, "bright="+quoteOrNA(p.Bright))
	}
	if s.Noise == NoiseUnknown {
		missing = append(missing, "noise="+quoteOrNA(p.Noise))
	}
	if len(missing) > 0 {
		return Settings{}, fmt.Errorf("devcfg: bad config: %w: %v", ErrInvalid, missing)
	}

	return s, nil
}

// ErrInvalid marks a syntactically valid config with unusable values.
var ErrInvalid = errors.New("invalid value")

// ---- helpers ----

func nameOf(names []string, i int) string {
	if i < 0 || i >= len(names) {
		return "???"
	}
	return names[i]
}

// indexOf returns 0 (the unknown value) when s is not a known name.
func indexOf(names []string, s string) int {
	for i := 1; i < len(names); i++ {
		if names[i] == s {
			return i
		}
	}
	return 0
}

func quoteOrNA(s string) string {
	if s == "" {
		return "(n/a)"
	}
	return fmt.Sprintf("%q", s)
}
