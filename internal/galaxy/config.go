// Package galaxy generates procedural barred-spiral galaxy point clouds.
package galaxy

import (
	"errors"
	"fmt"
	"math"
	"sort"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// ErrInvalidConfig is matched by every configuration validation error.
var ErrInvalidConfig = errors.New("invalid galaxy config")

// ConfigError describes a single rejected configuration field.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid galaxy config: %s %s", e.Field, e.Reason)
}

// Is reports ErrInvalidConfig as a match so callers can test with errors.Is.
func (e *ConfigError) Is(target error) bool {
	return target == ErrInvalidConfig
}

// Config holds every parameter of the generator. It is treated as an
// immutable value: the generator never modifies it.
type Config struct {
	StarCount int     `json:"star_count"`
	ArmCount  int     `json:"arm_count"`
	Thickness float64 `json:"thickness"`

	CoreSpreadX      float64 `json:"core_spread_x"`
	CoreSpreadY      float64 `json:"core_spread_y"`
	OuterCoreSpreadX float64 `json:"outer_core_spread_x"`
	OuterCoreSpreadY float64 `json:"outer_core_spread_y"`
	ArmSpreadX       float64 `json:"arm_spread_x"`
	ArmSpreadY       float64 `json:"arm_spread_y"`
	ArmMeanX         float64 `json:"arm_mean_x"`
	ArmMeanY         float64 `json:"arm_mean_y"`

	// SpiralTightness scales log(radius) in the spiral warp.
	SpiralTightness float64 `json:"spiral_tightness"`

	// BaseSize is multiplied by the per-star jitter in [0.5, 1.5).
	BaseSize float64 `json:"base_size"`

	// Gas clouds. Only the arm parameters drive placement; the core and
	// outer core spreads are kept for consumers that derive radii from them.
	GasCount            int     `json:"gas_count"`
	GasReduction        float64 `json:"gas_reduction"`
	GasThickness        float64 `json:"gas_thickness"`
	GasCoreSpreadX      float64 `json:"gas_core_spread_x"`
	GasCoreSpreadY      float64 `json:"gas_core_spread_y"`
	GasOuterCoreSpreadX float64 `json:"gas_outer_core_spread_x"`
	GasOuterCoreSpreadY float64 `json:"gas_outer_core_spread_y"`
	GasArmSpreadX       float64 `json:"gas_arm_spread_x"`
	GasArmSpreadY       float64 `json:"gas_arm_spread_y"`
	GasArmMeanX         float64 `json:"gas_arm_mean_x"`
	GasArmMeanY         float64 `json:"gas_arm_mean_y"`
	GasParticleSize     float64 `json:"gas_particle_size"`

	InsideColor     string `json:"inside_color"`
	OutsideColor    string `json:"outside_color"`
	RedGiantColor   string `json:"red_giant_color"`
	WhiteDwarfColor string `json:"white_dwarf_color"`
	GasColor        string `json:"gas_color"`

	// ColorClasses enables red giant / white dwarf classification in arms.
	ColorClasses bool `json:"color_classes"`
	// Gas enables gas cloud generation.
	Gas bool `json:"gas"`
}

// DefaultConfig returns the reference galaxy: two arms, 50k stars, gas and
// colour classes enabled.
func DefaultConfig() Config {
	return Config{
		StarCount: 50000,
		ArmCount:  2,
		Thickness: 5,

		CoreSpreadX:      40,
		CoreSpreadY:      40,
		OuterCoreSpreadX: 100,
		OuterCoreSpreadY: 100,
		ArmSpreadX:       100,
		ArmSpreadY:       50,
		ArmMeanX:         200,
		ArmMeanY:         100,

		SpiralTightness: 3.0,
		BaseSize:        1.0,

		GasCount:            500,
		GasReduction:        0.3,
		GasThickness:        8,
		GasCoreSpreadX:      40,
		GasCoreSpreadY:      40,
		GasOuterCoreSpreadX: 120,
		GasOuterCoreSpreadY: 120,
		GasArmSpreadX:       120,
		GasArmSpreadY:       60,
		GasArmMeanX:         220,
		GasArmMeanY:         110,
		GasParticleSize:     20,

		InsideColor:     "#eb3700",
		OutsideColor:    "#99edf7",
		RedGiantColor:   "#ff9955",
		WhiteDwarfColor: "#ffffff",
		GasColor:        "#8b7fa8",

		ColorClasses: true,
		Gas:          true,
	}
}

// Preset names.
const (
	PresetClassic = "classic"
	PresetArms    = "arms"
	PresetNebula  = "nebula"
	PresetFull    = "full"
)

// presets maps a scene variant to its toggles on top of DefaultConfig.
var presets = map[string]func(*Config){
	PresetClassic: func(c *Config) { c.ColorClasses = false; c.Gas = false },
	PresetArms:    func(c *Config) { c.ColorClasses = true; c.Gas = false },
	PresetNebula:  func(c *Config) { c.ColorClasses = false; c.Gas = true },
	PresetFull:    func(c *Config) { c.ColorClasses = true; c.Gas = true },
}

// Preset returns a named scene variant.
func Preset(name string) (Config, bool) {
	apply, ok := presets[name]
	if !ok {
		return Config{}, false
	}
	cfg := DefaultConfig()
	apply(&cfg)
	return cfg, true
}

// PresetNames returns the built-in preset names in sorted order.
func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CoreCount is the number of core stars (StarCount/4, truncated).
func (c Config) CoreCount() int { return c.StarCount / 4 }

// OuterCoreCount is the number of outer core stars (StarCount/4, truncated).
func (c Config) OuterCoreCount() int { return c.StarCount / 4 }

// ArmStarCount is the number of stars in each arm. The arm half of the
// budget (2 * StarCount/4) is split evenly across arms with truncation, which
// gives StarCount/4 per arm for the two-armed reference galaxy.
func (c Config) ArmStarCount() int {
	if c.ArmCount <= 0 {
		return 0
	}
	return 2 * (c.StarCount / 4) / c.ArmCount
}

// ArmsStartIndex is the index of the first arm star.
func (c Config) ArmsStartIndex() int { return c.CoreCount() + c.OuterCoreCount() }

// GeneratedStarCount is the number of stars Generate actually produces.
// For two arms it is StarCount rounded down to a multiple of four.
func (c Config) GeneratedStarCount() int {
	return c.ArmsStartIndex() + c.ArmCount*c.ArmStarCount()
}

// GasInstanceCount is floor(GasCount * GasReduction), or zero when gas is off.
func (c Config) GasInstanceCount() int {
	if !c.Gas {
		return 0
	}
	return int(math.Floor(float64(c.GasCount) * c.GasReduction))
}

// GalaxyRadius is the extent used for the background disk.
func (c Config) GalaxyRadius() float64 {
	return math.Max(c.OuterCoreSpreadX, c.ArmMeanX+c.ArmSpreadX*2)
}

// GasMaxRadius is the radius at which renderers fade gas clouds out.
func (c Config) GasMaxRadius() float64 {
	return math.Max(c.GasOuterCoreSpreadX, c.GasArmMeanX+c.GasArmSpreadX*2)
}

// CoreRadius is the radius of the bright core region. Gas inside it draws
// at full strength.
func (c Config) CoreRadius() float64 {
	return math.Max(c.CoreSpreadX, c.CoreSpreadY)
}

// Validate checks the config and returns every problem joined together.
func (c Config) Validate() error {
	var errs []error
	reject := func(field, reason string) {
		errs = append(errs, &ConfigError{Field: field, Reason: reason})
	}

	if c.StarCount <= 0 {
		reject("star_count", "must be positive")
	}
	if c.ArmCount <= 0 {
		reject("arm_count", "must be positive")
	}

	spreads := []struct {
		name  string
		value float64
	}{
		{"thickness", c.Thickness},
		{"core_spread_x", c.CoreSpreadX},
		{"core_spread_y", c.CoreSpreadY},
		{"outer_core_spread_x", c.OuterCoreSpreadX},
		{"outer_core_spread_y", c.OuterCoreSpreadY},
		{"arm_spread_x", c.ArmSpreadX},
		{"arm_spread_y", c.ArmSpreadY},
	}
	for _, s := range spreads {
		if bad := nonNegativeFinite(s.value); bad != "" {
			reject(s.name, bad)
		}
	}
	finite := []struct {
		name  string
		value float64
	}{
		{"arm_mean_x", c.ArmMeanX},
		{"arm_mean_y", c.ArmMeanY},
		{"spiral_tightness", c.SpiralTightness},
	}
	for _, f := range finite {
		if !isFinite(f.value) {
			reject(f.name, "must be finite")
		}
	}
	if !isFinite(c.BaseSize) || c.BaseSize <= 0 {
		reject("base_size", "must be positive and finite")
	}

	if c.Gas {
		if c.GasCount <= 0 {
			reject("gas_count", "must be positive when gas is enabled")
		}
		if !isFinite(c.GasReduction) || c.GasReduction <= 0 || c.GasReduction > 1 {
			reject("gas_reduction", "must be in (0, 1]")
		}
		gas := []struct {
			name  string
			value float64
		}{
			{"gas_thickness", c.GasThickness},
			{"gas_arm_spread_x", c.GasArmSpreadX},
			{"gas_arm_spread_y", c.GasArmSpreadY},
		}
		for _, s := range gas {
			if bad := nonNegativeFinite(s.value); bad != "" {
				reject(s.name, bad)
			}
		}
		if !isFinite(c.GasArmMeanX) {
			reject("gas_arm_mean_x", "must be finite")
		}
		if !isFinite(c.GasArmMeanY) {
			reject("gas_arm_mean_y", "must be finite")
		}
	}

	colors := []struct {
		name  string
		value string
	}{
		{"inside_color", c.InsideColor},
		{"outside_color", c.OutsideColor},
		{"red_giant_color", c.RedGiantColor},
		{"white_dwarf_color", c.WhiteDwarfColor},
		{"gas_color", c.GasColor},
	}
	for _, col := range colors {
		if _, err := colorful.Hex(col.value); err != nil {
			reject(col.name, fmt.Sprintf("is not a hex colour (%q)", col.value))
		}
	}

	return errors.Join(errs...)
}

func nonNegativeFinite(v float64) string {
	if !isFinite(v) {
		return "must be finite"
	}
	if v < 0 {
		return "must not be negative"
	}
	return ""
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
