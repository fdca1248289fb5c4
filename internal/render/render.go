package render

import (
	"math"
	"time"

	"github.com/crazy3lf/colorconv"
	"github.com/go-gl/mathgl/mgl32"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/litescript/ls-galaxy/internal/galaxy"
)

// Animation and shading constants.
const (
	timeScale = 0.5 // shader time runs at half wall-clock speed

	starWorldRadius = 2.0
	starGain        = 0.6
	gasGain         = 0.05
	maxSplatRadius  = 24

	jitterAmplitude = 1.5
	twinkleDepth    = 0.7
	twinkleSpeed    = 3.0

	glowRadius   = 60.0
	glowBoost    = 2.5
	glowHueShift = -40.0 // degrees at the pointer

	diskSpeed      = 0.05 // radians per second of shader time
	diskOpacity    = 0.06
	diskInnerScale = 2.5 // times CoreRadius
	diskOuterScale = 2.2 // times GalaxyRadius
)

// diskColor is the faint blue of the galactic disk, linear RGB.
var diskColor = [3]float32{0.10, 0.22, 0.55}

// Scene is everything needed to draw one frame.
type Scene struct {
	Cloud    *galaxy.Cloud
	Camera   Camera
	Settings Settings
	Elapsed  time.Duration

	// Pointer is the smoothed cursor on the galaxy plane, nil when absent.
	Pointer *r3.Vec
}

// Render draws the scene into f and encodes the RGBA output. It returns the
// number of stars and gas clouds that landed in front of the camera.
func Render(f *Frame, s Scene) int {
	f.Clear()
	if s.Cloud == nil {
		finish(f, s.Settings)
		return 0
	}

	t := s.Elapsed.Seconds() * timeScale
	aspect := float32(f.W) / float32(f.H)
	vp := s.Camera.ViewProjection(aspect)
	focal := s.Camera.focalPixels(f.H)

	if s.Settings.Disk {
		drawDisk(f, s, t, aspect)
	}

	drawn := 0
	for i := range s.Cloud.Stars {
		if drawStar(f, vp, focal, &s.Cloud.Stars[i], s, t) {
			drawn++
		}
	}
	if s.Settings.ShowGas {
		core, outer := s.Cloud.Config.CoreRadius(), s.Cloud.Config.GasMaxRadius()
		for i := range s.Cloud.Gas {
			if drawGas(f, vp, focal, &s.Cloud.Gas[i], s, t, core, outer) {
				drawn++
			}
		}
	}

	finish(f, s.Settings)
	return drawn
}

func drawStar(f *Frame, vp mgl32.Mat4, focal float32, st *galaxy.Star, s Scene, t float64) bool {
	pos := jitter(st.Position, st.RandomOffset, st.Phase, t)
	x, y, depth, ok := project(vp, pos, f.W, f.H)
	if !ok {
		return false
	}

	col := st.Color
	gain := starGain
	size := st.Size * s.Settings.ParticleSize

	if s.Settings.Twinkle {
		gain *= Twinkle(st.Intensity, st.Phase, t)
	}
	if s.Settings.PointerGlow && s.Pointer != nil {
		if g := Glow(st.Position, *s.Pointer); g > 0 {
			col = ShiftHue(col, glowHueShift*g)
			gain *= 1 + glowBoost*g
			size *= 1 + g
		}
	}

	radius := float32(size*starWorldRadius) * focal / depth
	splat(f, x, y, radius, col.Scale(gain))
	return true
}

func drawGas(f *Frame, vp mgl32.Mat4, focal float32, gc *galaxy.GasCloud, s Scene, t float64, core, outer float64) bool {
	pos := jitter(gc.Position, gc.RandomOffset, gc.Phase, t)
	x, y, depth, ok := project(vp, pos, f.W, f.H)
	if !ok {
		return false
	}
	gain := gasGain * gc.Density * GasFade(math.Hypot(gc.Position.X, gc.Position.Y), core, outer)
	if gain <= 0 {
		return true
	}
	if s.Settings.Twinkle {
		gain *= Twinkle(gc.Intensity, gc.Phase, t)
	}
	// gas sprites draw at half the configured particle size
	radius := float32(s.Settings.GasParticleSize*0.5) * focal / depth
	splat(f, x, y, radius, gc.Color.Scale(gain))
	return true
}

// GasFade is the brightness factor of a gas cloud at planar radius r. It is
// 1 inside the core radius and eases to 0 at the outer radius.
func GasFade(r, core, outer float64) float64 {
	if outer <= core {
		if r < outer {
			return 1
		}
		return 0
	}
	x := clamp((r-core)/(outer-core), 0, 1)
	return 1 - x*x*(3-2*x)
}

// jitter drifts a point along its random offset over time.
func jitter(p, offset r3.Vec, phase, t float64) r3.Vec {
	return r3.Add(p, r3.Scale(jitterAmplitude*math.Sin(t+phase), offset))
}

// Twinkle is the brightness factor of a point at shader time t, in
// [1-twinkleDepth*intensity, 1].
func Twinkle(intensity, phase, t float64) float64 {
	wave := 0.5 + 0.5*math.Sin(t*twinkleSpeed+phase)
	return 1 - twinkleDepth*intensity*wave
}

// Glow is the pointer influence on a point in [0, 1], falling off
// quadratically with planar distance.
func Glow(p, pointer r3.Vec) float64 {
	d := math.Hypot(p.X-pointer.X, p.Y-pointer.Y)
	if d >= glowRadius {
		return 0
	}
	g := 1 - d/glowRadius
	return g * g
}

// ShiftHue rotates the hue of a colour by degrees, keeping its magnitude.
func ShiftHue(c galaxy.RGB, degrees float64) galaxy.RGB {
	m := math.Max(c.R, math.Max(c.G, c.B))
	if m <= 0 {
		return c
	}
	h, sat, v := colorconv.RGBToHSV(to8(c.R/m), to8(c.G/m), to8(c.B/m))
	h = math.Mod(h+degrees+360, 360)
	r, g, b, err := colorconv.HSVToRGB(h, sat, v)
	if err != nil {
		return c
	}
	return galaxy.RGB{
		R: float64(r) / 255 * m,
		G: float64(g) / 255 * m,
		B: float64(b) / 255 * m,
	}
}

func to8(v float64) uint8 {
	return uint8(clamp(v, 0, 1)*255 + 0.5)
}

// splat adds a soft round sprite centred at (cx, cy).
func splat(f *Frame, cx, cy, radius float32, c galaxy.RGB) {
	r, g, b := float32(c.R), float32(c.G), float32(c.B)
	if radius <= 0.75 {
		// sub-pixel points keep their light proportional to area
		k := mgl32.Clamp(radius/0.75, 0.25, 1)
		f.add(int(cx), int(cy), r*k, g*k, b*k)
		return
	}
	if radius > maxSplatRadius {
		radius = maxSplatRadius
	}

	x0, x1 := int(cx-radius), int(cx+radius)
	y0, y1 := int(cy-radius), int(cy+radius)
	inv := 1 / (radius * radius)
	for y := y0; y <= y1; y++ {
		dy := float32(y) + 0.5 - cy
		for x := x0; x <= x1; x++ {
			dx := float32(x) + 0.5 - cx
			d2 := (dx*dx + dy*dy) * inv
			if d2 >= 1 {
				continue
			}
			w := (1 - d2) * (1 - d2)
			f.add(x, y, r*w, g*w, b*w)
		}
	}
}

// drawDisk shades the faint rotating disk behind the stars by casting a ray
// through every pixel onto the galaxy plane.
func drawDisk(f *Frame, s Scene, t float64, aspect float32) {
	cfg := s.Cloud.Config
	inner := cfg.CoreRadius() * diskInnerScale
	outer := cfg.GalaxyRadius() * diskOuterScale
	if outer <= inner {
		return
	}
	rot := t * diskSpeed
	arms := float64(cfg.ArmCount)
	rays := s.Camera.rays(aspect)

	f.eachRow(func(y int) {
		for x := 0; x < f.W; x++ {
			nx, ny := PixelToNDC(float64(x)+0.5, float64(y)+0.5, f.W, f.H)
			origin, dir := rays.at(nx, ny)
			hit, ok := intersectPlaneZ(origin, dir)
			if !ok {
				continue
			}
			r := math.Hypot(hit.X, hit.Y)
			if r < inner || r > outer || r < 1 {
				continue
			}
			// fade in past the inner edge and out towards the rim
			edge := math.Min((r-inner)/inner, 1) * (1 - (r-inner)/(outer-inner))
			theta := math.Atan2(hit.Y, hit.X) - rot - cfg.SpiralTightness*math.Log(r)
			swirl := 0.6 + 0.4*math.Cos(arms*theta)
			a := float32(diskOpacity * edge * swirl)
			i := 3 * (y*f.W + x)
			f.Pix[i] += diskColor[0] * a
			f.Pix[i+1] += diskColor[1] * a
			f.Pix[i+2] += diskColor[2] * a
		}
	})
}
