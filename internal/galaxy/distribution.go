package galaxy

import (
	"math"
	"time"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/spatial/r3"
)

// minSpiralRadius guards log(0) in SpiralWarp.
const minSpiralRadius = 1e-9

// Source is the single stream of uniform randoms consumed by the generator.
// Float64 must return values in [0, 1).
type Source interface {
	Float64() float64
}

// NewSource returns a seeded PCG source. Two sources with the same seed
// produce the same stream.
func NewSource(seed uint64) Source {
	return rand.New(rand.NewSource(seed))
}

// NewRandomSource returns a source seeded from the wall clock, along with the
// seed so the run can be replayed.
func NewRandomSource() (Source, uint64) {
	seed := uint64(time.Now().UnixNano())
	return NewSource(seed), seed
}

// Uniform returns a value in [lo, hi).
func Uniform(src Source, lo, hi float64) float64 {
	return lo + src.Float64()*(hi-lo)
}

// GaussianRandom samples N(mean, stddev²) using the Box–Muller transform.
// It always consumes exactly two uniforms so the draw order stays fixed.
func GaussianRandom(src Source, mean, stddev float64) float64 {
	u1 := src.Float64()
	u2 := src.Float64()
	if stddev == 0 {
		return mean
	}
	// u1 == 0 would send log to -Inf
	if u1 < math.SmallestNonzeroFloat64 {
		u1 = math.SmallestNonzeroFloat64
	}
	z := math.Sqrt(-2*math.Log(u1)) * math.Cos(2*math.Pi*u2)
	return mean + stddev*z
}

// SpiralWarp bends a planar sample around the origin along a logarithmic
// spiral. The radius in the XY plane is preserved and Z passes through.
func SpiralWarp(p r3.Vec, armOffset, tightness float64) r3.Vec {
	radius := math.Hypot(p.X, p.Y)
	if radius < minSpiralRadius {
		return r3.Vec{
			X: radius * math.Cos(armOffset),
			Y: radius * math.Sin(armOffset),
			Z: p.Z,
		}
	}
	angle := math.Atan2(p.Y, p.X) + armOffset + tightness*math.Log(radius)
	return r3.Vec{
		X: radius * math.Cos(angle),
		Y: radius * math.Sin(angle),
		Z: p.Z,
	}
}

// SphericalShell returns a random vector whose length lies in [0.75, 1.0).
// Angles follow the polar-from-Y convention used by WebGL scene graphs:
// x = r·sinφ·sinθ, y = r·cosφ, z = r·sinφ·cosθ.
func SphericalShell(src Source) r3.Vec {
	radius := 0.75 + src.Float64()*0.25
	phi := src.Float64() * math.Pi
	theta := src.Float64() * math.Pi * 2

	sinPhi := math.Sin(phi)
	return r3.Vec{
		X: radius * sinPhi * math.Sin(theta),
		Y: radius * math.Cos(phi),
		Z: radius * sinPhi * math.Cos(theta),
	}
}

// ArmOffset is the rotation of arm j out of n.
func ArmOffset(j, n int) float64 {
	return float64(j) * 2 * math.Pi / float64(n)
}
