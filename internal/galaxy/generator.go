package galaxy

import (
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/litescript/ls-galaxy/internal/logging"
)

// Per-star attribute ranges.
const (
	sizeJitterMin = 0.5
	sizeJitterMax = 1.5

	redGiantBrightnessMin   = 0.8
	redGiantBrightnessMax   = 1.2
	whiteDwarfBrightnessMin = 0.7
	whiteDwarfBrightnessMax = 1.0

	gasBrightnessMin = 0.8
	gasBrightnessMax = 1.0
	gasDensityMin    = 0.8
	gasDensityMax    = 1.0
)

// Generate builds the star and gas collections for cfg, consuming src in a
// fixed order:
//
//	stars, in index order (core, outer core, arm 0, arm 1, ...):
//	  position x, y, z (two uniforms each)
//	  random offset radius, polar, azimuth
//	  size jitter
//	  colour class draw, then brightness (arm stars with colour classes only)
//	  intensity, phase
//	gas, in index order:
//	  arm index, position x, y, z, random offset (3), brightness, density,
//	  intensity, phase
//
// The config is validated before any sampling; an invalid config returns an
// error wrapping ErrInvalidConfig and no cloud.
func Generate(cfg Config, src Source) (*Cloud, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	pal, err := newPalette(cfg)
	if err != nil {
		return nil, fmt.Errorf("build palette: %w", err)
	}

	g := &sampler{cfg: cfg, src: src, pal: pal}
	cloud := &Cloud{
		Config: cfg,
		Stars:  make([]Star, 0, cfg.GeneratedStarCount()),
		Gas:    make([]GasCloud, 0, cfg.GasInstanceCount()),
	}

	for i := 0; i < cfg.CoreCount(); i++ {
		p := r3.Vec{
			X: GaussianRandom(src, 0, cfg.CoreSpreadX),
			Y: GaussianRandom(src, 0, cfg.CoreSpreadY),
			Z: GaussianRandom(src, 0, cfg.Thickness),
		}
		cloud.Stars = append(cloud.Stars, g.star(p, ZoneCore, -1))
	}

	for i := 0; i < cfg.OuterCoreCount(); i++ {
		p := r3.Vec{
			X: GaussianRandom(src, 0, cfg.OuterCoreSpreadX),
			Y: GaussianRandom(src, 0, cfg.OuterCoreSpreadY),
			Z: GaussianRandom(src, 0, cfg.Thickness),
		}
		cloud.Stars = append(cloud.Stars, g.star(p, ZoneOuterCore, -1))
	}

	perArm := cfg.ArmStarCount()
	for j := 0; j < cfg.ArmCount; j++ {
		offset := ArmOffset(j, cfg.ArmCount)
		for i := 0; i < perArm; i++ {
			p := r3.Vec{
				X: GaussianRandom(src, cfg.ArmMeanX, cfg.ArmSpreadX),
				Y: GaussianRandom(src, cfg.ArmMeanY, cfg.ArmSpreadY),
				Z: GaussianRandom(src, 0, cfg.Thickness),
			}
			p = SpiralWarp(p, offset, cfg.SpiralTightness)
			cloud.Stars = append(cloud.Stars, g.star(p, ZoneArm, j))
		}
	}

	for i := 0; i < cfg.GasInstanceCount(); i++ {
		cloud.Gas = append(cloud.Gas, g.gas())
	}

	return cloud, nil
}

// sampler derives per-point attributes from one random stream.
type sampler struct {
	cfg Config
	src Source
	pal palette
}

func (g *sampler) star(p r3.Vec, zone Zone, arm int) Star {
	s := Star{
		Position: p,
		Zone:     zone,
		Arm:      arm,
	}
	s.RandomOffset = SphericalShell(g.src)
	s.Size = g.cfg.BaseSize * Uniform(g.src, sizeJitterMin, sizeJitterMax)
	s.Class, s.Color = g.starColor(p, zone)
	s.Intensity = g.src.Float64()
	s.Phase = g.src.Float64() * 2 * math.Pi
	return s
}

func (g *sampler) starColor(p r3.Vec, zone Zone) (ColorClass, RGB) {
	if zone != ZoneArm {
		return ClassNone, g.pal.gradient(r3.Norm(p))
	}
	if !g.cfg.ColorClasses {
		return ClassNormal, g.pal.gradient(r3.Norm(p))
	}

	r := g.src.Float64()
	switch {
	case r < redGiantThreshold:
		brightness := Uniform(g.src, redGiantBrightnessMin, redGiantBrightnessMax)
		return ClassRedGiant, toRGB(g.pal.redGiant).Scale(brightness)
	case r < whiteDwarfThreshold:
		brightness := Uniform(g.src, whiteDwarfBrightnessMin, whiteDwarfBrightnessMax)
		return ClassWhiteDwarf, toRGB(g.pal.whiteDwarf).Scale(brightness)
	default:
		return ClassNormal, g.pal.gradient(r3.Norm(p))
	}
}

func (g *sampler) gas() GasCloud {
	cfg := g.cfg
	arm := int(g.src.Float64() * float64(cfg.ArmCount))
	if arm >= cfg.ArmCount {
		arm = cfg.ArmCount - 1
	}

	p := r3.Vec{
		X: GaussianRandom(g.src, cfg.GasArmMeanX, cfg.GasArmSpreadX),
		Y: GaussianRandom(g.src, cfg.GasArmMeanY, cfg.GasArmSpreadY),
		Z: GaussianRandom(g.src, 0, cfg.GasThickness),
	}
	p = SpiralWarp(p, ArmOffset(arm, cfg.ArmCount), cfg.SpiralTightness)

	c := GasCloud{
		Position: p,
		Arm:      arm,
	}
	c.RandomOffset = SphericalShell(g.src)
	c.Color = toRGB(g.pal.gas).Scale(Uniform(g.src, gasBrightnessMin, gasBrightnessMax))
	c.Density = Uniform(g.src, gasDensityMin, gasDensityMax)
	c.Intensity = g.src.Float64()
	c.Phase = g.src.Float64() * 2 * math.Pi
	return c
}

// Generator wraps Generate with a configurable random source and logging.
type Generator struct {
	seed    *uint64
	logger  *logging.Logger
	nowFunc func() time.Time
}

// GeneratorOption configures a Generator.
type GeneratorOption func(*Generator)

// WithSeed fixes the seed so runs are reproducible.
func WithSeed(seed uint64) GeneratorOption {
	return func(g *Generator) {
		g.seed = &seed
	}
}

// WithLogger sets the logger used for timing and counts.
func WithLogger(l *logging.Logger) GeneratorOption {
	return func(g *Generator) {
		g.logger = l
	}
}

// NewGenerator creates a generator. Without WithSeed every run draws a new
// wall-clock seed.
func NewGenerator(opts ...GeneratorOption) *Generator {
	g := &Generator{
		logger:  logging.Discard(),
		nowFunc: time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate produces a cloud for cfg. The seed used is recorded on the cloud.
func (g *Generator) Generate(cfg Config) (*Cloud, error) {
	var (
		src  Source
		seed uint64
	)
	if g.seed != nil {
		seed = *g.seed
		src = NewSource(seed)
	} else {
		src, seed = NewRandomSource()
	}

	start := g.nowFunc()
	cloud, err := Generate(cfg, src)
	if err != nil {
		g.logger.Warn("Rejected config: %v", err)
		return nil, err
	}
	cloud.Seed = seed

	g.logger.Debug("Generated %d stars, %d gas clouds (seed=%d) in %v",
		len(cloud.Stars), len(cloud.Gas), seed, g.nowFunc().Sub(start))
	if g.logger.Enabled(logging.LevelDebug) {
		for _, z := range Summarize(cloud).Zones {
			g.logger.Debug("  %-10s %6d stars, mean (%.1f, %.1f), stddev (%.1f, %.1f)",
				z.Zone, z.Count, z.MeanX, z.MeanY, z.StdDevX, z.StdDevY)
		}
	}
	return cloud, nil
}
