package galaxy

import (
	"gonum.org/v1/gonum/spatial/r3"
)

// Zone is the structural region a star was sampled from.
type Zone uint8

const (
	ZoneCore Zone = iota
	ZoneOuterCore
	ZoneArm
)

// String returns the zone name.
func (z Zone) String() string {
	switch z {
	case ZoneCore:
		return "core"
	case ZoneOuterCore:
		return "outer_core"
	case ZoneArm:
		return "arm"
	default:
		return "unknown"
	}
}

// ParseZone converts a zone name back to a Zone.
func ParseZone(s string) (Zone, bool) {
	switch s {
	case "core":
		return ZoneCore, true
	case "outer_core":
		return ZoneOuterCore, true
	case "arm":
		return ZoneArm, true
	default:
		return 0, false
	}
}

// MarshalText encodes the zone by name.
func (z Zone) MarshalText() ([]byte, error) {
	return []byte(z.String()), nil
}

// ColorClass is the stellar colour classification of an arm star.
type ColorClass uint8

const (
	ClassNone ColorClass = iota // core and outer core stars
	ClassNormal
	ClassRedGiant
	ClassWhiteDwarf
)

// String returns the class name.
func (c ColorClass) String() string {
	switch c {
	case ClassNone:
		return "none"
	case ClassNormal:
		return "normal"
	case ClassRedGiant:
		return "red_giant"
	case ClassWhiteDwarf:
		return "white_dwarf"
	default:
		return "unknown"
	}
}

// MarshalText encodes the class by name.
func (c ColorClass) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// RGB is a linear colour triple. Components may exceed 1 after brightness
// scaling; consumers clamp or tone map.
type RGB struct {
	R, G, B float64
}

// Scale multiplies every component by s.
func (c RGB) Scale(s float64) RGB {
	return RGB{R: c.R * s, G: c.G * s, B: c.B * s}
}

// Star is one generated star.
type Star struct {
	Position     r3.Vec
	Zone         Zone
	Arm          int // arm index, -1 outside the arms
	Class        ColorClass
	Color        RGB
	Size         float64
	RandomOffset r3.Vec
	Intensity    float64 // [0, 1)
	Phase        float64 // [0, 2π)
}

// GasCloud is one generated gas instance. Gas always lives in an arm.
type GasCloud struct {
	Position     r3.Vec
	Arm          int
	Color        RGB
	Density      float64 // [0.8, 1.0)
	RandomOffset r3.Vec
	Intensity    float64
	Phase        float64
}

// Range is a half-open index range [Start, End).
type Range struct {
	Start, End int
}

// Len returns the number of indices in the range.
func (r Range) Len() int { return r.End - r.Start }

// Cloud is the immutable result of one generation run.
type Cloud struct {
	Config Config
	Seed   uint64
	Stars  []Star
	Gas    []GasCloud
}

// ZoneRange returns the contiguous index range of a zone in Stars.
func (c *Cloud) ZoneRange(z Zone) Range {
	core := c.Config.CoreCount()
	outer := c.Config.OuterCoreCount()
	switch z {
	case ZoneCore:
		return Range{Start: 0, End: core}
	case ZoneOuterCore:
		return Range{Start: core, End: core + outer}
	case ZoneArm:
		return Range{Start: core + outer, End: len(c.Stars)}
	default:
		return Range{}
	}
}

// ArmRange returns the contiguous index range of arm j in Stars.
func (c *Cloud) ArmRange(j int) Range {
	if j < 0 || j >= c.Config.ArmCount {
		return Range{}
	}
	per := c.Config.ArmStarCount()
	start := c.Config.ArmsStartIndex() + j*per
	return Range{Start: start, End: start + per}
}
