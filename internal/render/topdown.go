package render

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// ProjectedPoint is a top-down projected position with metadata.
type ProjectedPoint struct {
	X float64 // screen X, normalised to [-1, 1] inside the extent
	Y float64 // screen Y, normalised to [-1, 1] inside the extent
	R float64 // planar distance from the galactic centre
	Z float64 // height above the plane
}

// ScaleMode defines how radial distances are mapped to map space.
type ScaleMode int

const (
	// ScaleLinear maps radius proportionally: r / extent.
	ScaleLinear ScaleMode = iota

	// ScaleLog compresses the outskirts: log10(r+1) / log10(extent+1).
	// The dense core gets more room.
	ScaleLog
)

// String returns the mode name.
func (m ScaleMode) String() string {
	switch m {
	case ScaleLinear:
		return "linear"
	case ScaleLog:
		return "log"
	default:
		return "unknown"
	}
}

// ParseScaleMode converts a mode name to a ScaleMode.
func ParseScaleMode(s string) (ScaleMode, bool) {
	switch s {
	case "linear":
		return ScaleLinear, true
	case "log":
		return ScaleLog, true
	default:
		return ScaleLinear, false
	}
}

// ProjectionConfig configures the top-down galaxy projection.
type ProjectionConfig struct {
	Extent float64   // radius that maps to the map edge
	Scale  float64   // zoom factor
	Mode   ScaleMode // radial scaling
}

// DefaultProjectionConfig fits a galaxy of the given radius.
func DefaultProjectionConfig(extent float64) ProjectionConfig {
	return ProjectionConfig{
		Extent: extent,
		Scale:  1.0,
		Mode:   ScaleLinear,
	}
}

// ProjectTopDown projects a point onto the galactic plane, looking down +Z
// with X right and Y up.
func ProjectTopDown(p r3.Vec, cfg ProjectionConfig) ProjectedPoint {
	r := math.Hypot(p.X, p.Y)
	angle := math.Atan2(p.Y, p.X)
	rDisplay := scaleRadius(r, cfg) * cfg.Scale
	return ProjectedPoint{
		X: rDisplay * math.Cos(angle),
		Y: rDisplay * math.Sin(angle),
		R: r,
		Z: p.Z,
	}
}

func scaleRadius(r float64, cfg ProjectionConfig) float64 {
	if cfg.Extent <= 0 {
		return 0
	}
	switch cfg.Mode {
	case ScaleLog:
		return math.Log10(r+1) / math.Log10(cfg.Extent+1)
	default:
		return r / cfg.Extent
	}
}
