package render

import (
	"math"

	"github.com/litescript/ls-galaxy/internal/galaxy"
)

// Bloom configures the glow pass applied to bright pixels.
type Bloom struct {
	Enabled   bool    `json:"enabled"`
	Strength  float64 `json:"strength"`  // [0, 2]
	Radius    float64 `json:"radius"`    // [0, 1], widens the blur kernel
	Threshold float64 `json:"threshold"` // [0, 1], luminance cut-off
}

// Settings are the live tweak values a viewer can adjust.
type Settings struct {
	ParticleSize    float64 `json:"particle_size"`     // [0.001, 1]
	GasParticleSize float64 `json:"gas_particle_size"` // [0.5, 50]
	Exposure        float64 `json:"exposure"`          // [0, 5], applied as Exposure^4
	Tint            float64 `json:"tint"`              // [0, 1], subtracted after tone mapping
	Bloom           Bloom   `json:"bloom"`

	ShowGas     bool   `json:"show_gas"`
	Twinkle     bool   `json:"twinkle"`
	PointerGlow bool   `json:"pointer_glow"`
	Disk        bool   `json:"disk"`
	Background  string `json:"background"`
}

// DefaultSettings returns the reference look. Gas starts hidden.
func DefaultSettings() Settings {
	return Settings{
		ParticleSize:    1.0,
		GasParticleSize: galaxy.DefaultConfig().GasParticleSize,
		Exposure:        1.0,
		Tint:            0.05,
		Bloom: Bloom{
			Enabled:   true,
			Strength:  1.18,
			Radius:    0.037,
			Threshold: 0.222,
		},
		Twinkle:     true,
		PointerGlow: true,
		Disk:        true,
		Background:  "#181818",
	}
}

// ForCloud seeds the cloud-dependent settings from the generator config.
func (s Settings) ForCloud(cfg galaxy.Config) Settings {
	s.GasParticleSize = cfg.GasParticleSize
	return s.Clamp()
}

// Clamp limits every tweak to its adjustable range.
func (s Settings) Clamp() Settings {
	s.ParticleSize = clamp(s.ParticleSize, 0.001, 1)
	s.GasParticleSize = clamp(s.GasParticleSize, 0.5, 50)
	s.Exposure = clamp(s.Exposure, 0, 5)
	s.Tint = clamp(s.Tint, 0, 1)
	s.Bloom.Strength = clamp(s.Bloom.Strength, 0, 2)
	s.Bloom.Radius = clamp(s.Bloom.Radius, 0, 1)
	s.Bloom.Threshold = clamp(s.Bloom.Threshold, 0, 1)
	return s
}

// ExposureGain is the multiplier applied before tone mapping.
func (s Settings) ExposureGain() float64 {
	return math.Pow(s.Exposure, 4)
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Min(math.Max(v, lo), hi)
}
