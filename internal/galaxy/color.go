package galaxy

import (
	"fmt"
	"math"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// Colour class thresholds for arm stars.
const (
	redGiantThreshold   = 1.0 / 3.0
	whiteDwarfThreshold = 2.0 / 3.0

	// lerpRadiusFactor times OuterCoreSpreadX is the distance at which the
	// inside→outside gradient reaches the outside colour.
	lerpRadiusFactor = 1.5
)

// palette holds the parsed configuration colours.
type palette struct {
	inside     colorful.Color
	outside    colorful.Color
	redGiant   colorful.Color
	whiteDwarf colorful.Color
	gas        colorful.Color
	lerpRadius float64
}

func newPalette(cfg Config) (palette, error) {
	var p palette
	parse := []struct {
		dst *colorful.Color
		hex string
	}{
		{&p.inside, cfg.InsideColor},
		{&p.outside, cfg.OutsideColor},
		{&p.redGiant, cfg.RedGiantColor},
		{&p.whiteDwarf, cfg.WhiteDwarfColor},
		{&p.gas, cfg.GasColor},
	}
	for _, c := range parse {
		col, err := colorful.Hex(c.hex)
		if err != nil {
			return palette{}, fmt.Errorf("parse colour %q: %w", c.hex, err)
		}
		*c.dst = col
	}
	p.lerpRadius = lerpRadiusFactor * cfg.OuterCoreSpreadX
	return p, nil
}

// gradient returns the radial inside→outside colour at a distance.
func (p palette) gradient(distance float64) RGB {
	t := 1.0
	if p.lerpRadius > 0 {
		t = math.Min(math.Max(distance/p.lerpRadius, 0), 1)
	}
	return toRGB(p.inside.BlendRgb(p.outside, t))
}

func toRGB(c colorful.Color) RGB {
	return RGB{R: c.R, G: c.G, B: c.B}
}

// Hex formats the colour as #rrggbb after clamping to [0, 1].
func (c RGB) Hex() string {
	return colorful.Color{R: c.R, G: c.G, B: c.B}.Clamped().Hex()
}
