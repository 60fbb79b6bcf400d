// internal/devcfg/devcfg_test.go
package devcfg

import (
	"errors"
	"testing"
)

func TestApply_Valid(t *testing.T) {
	s, err := Apply([]byte(`{"model":"chewie","driver":"SK9822","order":"GRB","bright":"high","noise":"more"}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if s.Model != ModelChewie || s.Driver != DriverSK9822 || s.Order != OrderGRB ||
		s.Bright != BrightHigh || s.Noise != NoiseMore {
		t.Fatalf("unexpected settings: %+v", s)
	}
}

func TestApply_MissingFieldRejected(t *testing.T) {
	_, err := Apply([]byte(`{"model":"standard","driver":"WS2801","order":"RGB","bright":"low"}`))
	if !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
}

func TestApply_UnknownValueRejected(t *testing.T) {
	_, err := Apply([]byte(`{"model":"standard","driver":"WS2812","order":"RGB","bright":"low","noise":"some"}`))
	if !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid for unsupported driver, got %v", err)
	}
}

func TestApply_BadJSON(t *testing.T) {
	_, err := Apply([]byte(`{"model":`))
	if err == nil {
		t.Fatalf("expected error, got nil")
	}
	if errors.Is(err, ErrInvalid) {
		t.Fatalf("syntax error must not be reported as ErrInvalid")
	}
}

func TestNoise_AtLeast(t *testing.T) {
	if !NoiseMost.AtLeast(NoiseMore) {
		t.Fatalf("most should be at least more")
	}
	if NoiseSome.AtLeast(NoiseMore) {
		t.Fatalf("some should not be at least more")
	}
	if NoiseUnknown.AtLeast(NoiseUnknown) {
		t.Fatalf("unknown level never qualifies")
	}
}

func TestParseNoise(t *testing.T) {
	if ParseNoise("most") != NoiseMost {
		t.Fatalf("most not parsed")
	}
	if ParseNoise("loud") != NoiseUnknown {
		t.Fatalf("unknown noise should map to NoiseUnknown")
	}
	if ParseNoise("unknown") != NoiseUnknown {
		t.Fatalf("the unknown name itself is not a settable level")
	}
}
