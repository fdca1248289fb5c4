package render

import (
	"math"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// finish runs the post-processing chain on the HDR buffer and writes the
// encoded RGBA output: bloom, Reinhard tone mapping, tint, background,
// sRGB encoding.
func finish(f *Frame, s Settings) {
	if s.Bloom.Enabled && s.Bloom.Strength > 0 {
		applyBloom(f, s.Bloom)
	}

	bg, err := colorful.Hex(s.Background)
	if err != nil {
		bg = colorful.Color{}
	}
	bgR, bgG, bgB := bg.LinearRgb()
	exposure := s.ExposureGain()
	tint := s.Tint

	f.eachRow(func(y int) {
		for x := 0; x < f.W; x++ {
			i := 3 * (y*f.W + x)
			r := ToneMap(float64(f.Pix[i]), exposure) - tint
			g := ToneMap(float64(f.Pix[i+1]), exposure) - tint
			b := ToneMap(float64(f.Pix[i+2]), exposure) - tint

			c := colorful.LinearRgb(
				bgR+math.Max(r, 0),
				bgG+math.Max(g, 0),
				bgB+math.Max(b, 0),
			).Clamped()
			r8, g8, b8 := c.RGB255()

			o := 4 * (y*f.W + x)
			f.out[o] = r8
			f.out[o+1] = g8
			f.out[o+2] = b8
			f.out[o+3] = 0xff
		}
	})
}

// ToneMap applies Reinhard tone mapping to one channel after exposure.
// The result is in [0, 1).
func ToneMap(v, exposure float64) float64 {
	v *= exposure
	if v <= 0 {
		return 0
	}
	return v / (1 + v)
}

// Luminance is the Rec. 709 luma of a linear colour.
func Luminance(r, g, b float32) float32 {
	return 0.2126*r + 0.7152*g + 0.0722*b
}

// applyBloom extracts pixels brighter than the threshold, blurs them and
// adds them back scaled by strength.
func applyBloom(f *Frame, b Bloom) {
	threshold := float32(b.Threshold)
	f.eachRow(func(y int) {
		for x := 0; x < f.W; x++ {
			i := 3 * (y*f.W + x)
			r, g, bl := f.Pix[i], f.Pix[i+1], f.Pix[i+2]
			lum := Luminance(r, g, bl)
			if lum <= threshold || lum <= 0 {
				f.bright[i], f.bright[i+1], f.bright[i+2] = 0, 0, 0
				continue
			}
			k := (lum - threshold) / lum
			f.bright[i], f.bright[i+1], f.bright[i+2] = r*k, g*k, bl*k
		}
	})

	radius := bloomRadius(b.Radius, f.W, f.H)
	// two box passes approximate a gaussian
	for pass := 0; pass < 2; pass++ {
		boxBlurH(f, f.bright, f.blur, radius)
		boxBlurV(f, f.blur, f.bright, radius)
	}

	strength := float32(b.Strength)
	for i := range f.Pix {
		f.Pix[i] += f.bright[i] * strength
	}
}

// bloomRadius converts the normalised radius into a kernel half-width in
// pixels relative to the smaller frame dimension.
func bloomRadius(r float64, w, h int) int {
	return 1 + int(r*float64(min(w, h))*0.5)
}

func boxBlurH(f *Frame, src, dst []float32, radius int) {
	norm := 1 / float32(2*radius+1)
	f.eachRow(func(y int) {
		row := 3 * y * f.W
		for x := 0; x < f.W; x++ {
			var r, g, b float32
			for k := -radius; k <= radius; k++ {
				sx := x + k
				if sx < 0 || sx >= f.W {
					continue
				}
				i := row + 3*sx
				r += src[i]
				g += src[i+1]
				b += src[i+2]
			}
			o := row + 3*x
			dst[o], dst[o+1], dst[o+2] = r*norm, g*norm, b*norm
		}
	})
}

func boxBlurV(f *Frame, src, dst []float32, radius int) {
	norm := 1 / float32(2*radius+1)
	f.eachRow(func(y int) {
		for x := 0; x < f.W; x++ {
			var r, g, b float32
			for k := -radius; k <= radius; k++ {
				sy := y + k
				if sy < 0 || sy >= f.H {
					continue
				}
				i := 3 * (sy*f.W + x)
				r += src[i]
				g += src[i+1]
				b += src[i+2]
			}
			o := 3 * (y*f.W + x)
			dst[o], dst[o+1], dst[o+2] = r*norm, g*norm, b*norm
		}
	})
}
