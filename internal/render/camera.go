// Package render draws galaxy clouds into an HDR frame in software.
package render

import (
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"gonum.org/v1/gonum/spatial/r3"
)

// Orbit limits.
const (
	minPolar    = 0.05
	maxPolar    = math.Pi - 0.05
	minDistance = 50
	maxDistance = 5000

	// pointerPlaneHalfSize bounds the pick plane the pointer is cast onto.
	pointerPlaneHalfSize = 500
)

// Camera is an orbit camera around Target with +Z up. The galaxy lies in
// the XY plane.
type Camera struct {
	Target   mgl32.Vec3
	Distance float32
	Azimuth  float32 // radians around +Z, measured from +X
	Polar    float32 // radians from +Z
	FovY     float32 // degrees
	Near     float32
	Far      float32
}

// DefaultCamera looks at the origin from (0, 650, 650).
func DefaultCamera() Camera {
	return Camera{
		Distance: float32(math.Hypot(650, 650)),
		Azimuth:  math.Pi / 2,
		Polar:    math.Pi / 4,
		FovY:     60,
		Near:     0.1,
		Far:      5000000,
	}
}

// Eye returns the camera position in world space.
func (c Camera) Eye() mgl32.Vec3 {
	sp, cp := math.Sincos(float64(c.Polar))
	sa, ca := math.Sincos(float64(c.Azimuth))
	d := float64(c.Distance)
	return c.Target.Add(mgl32.Vec3{
		float32(d * sp * ca),
		float32(d * sp * sa),
		float32(d * cp),
	})
}

// View returns the world-to-camera matrix.
func (c Camera) View() mgl32.Mat4 {
	return mgl32.LookAtV(c.Eye(), c.Target, mgl32.Vec3{0, 0, 1})
}

// Projection returns the perspective matrix for a viewport aspect ratio.
func (c Camera) Projection(aspect float32) mgl32.Mat4 {
	return mgl32.Perspective(mgl32.DegToRad(c.FovY), aspect, c.Near, c.Far)
}

// ViewProjection is Projection * View.
func (c Camera) ViewProjection(aspect float32) mgl32.Mat4 {
	return c.Projection(aspect).Mul4(c.View())
}

// Orbit rotates the camera around the target. Polar is clamped short of the
// poles so the up vector stays well defined.
func (c Camera) Orbit(dAzimuth, dPolar float32) Camera {
	c.Azimuth = float32(math.Mod(float64(c.Azimuth+dAzimuth), 2*math.Pi))
	c.Polar = mgl32.Clamp(c.Polar+dPolar, minPolar, maxPolar)
	return c
}

// Zoom scales the orbit distance by factor.
func (c Camera) Zoom(factor float32) Camera {
	if factor <= 0 {
		return c
	}
	c.Distance = mgl32.Clamp(c.Distance*factor, minDistance, maxDistance)
	return c
}

// focalPixels converts a world size at unit depth into pixels.
func (c Camera) focalPixels(height int) float32 {
	return float32(height) / 2 / float32(math.Tan(float64(mgl32.DegToRad(c.FovY))/2))
}

// Project maps a world point to pixel coordinates. ok is false for points
// behind the camera or outside the depth range.
func (c Camera) Project(p r3.Vec, width, height int) (x, y, depth float32, ok bool) {
	if width <= 0 || height <= 0 {
		return 0, 0, 0, false
	}
	vp := c.ViewProjection(float32(width) / float32(height))
	return project(vp, p, width, height)
}

func project(vp mgl32.Mat4, p r3.Vec, width, height int) (x, y, depth float32, ok bool) {
	clip := vp.Mul4x1(mgl32.Vec4{float32(p.X), float32(p.Y), float32(p.Z), 1})
	w := clip.W()
	if w <= 0 {
		return 0, 0, 0, false
	}
	ndc := clip.Vec3().Mul(1 / w)
	if ndc.Z() < -1 || ndc.Z() > 1 {
		return 0, 0, 0, false
	}
	x = (ndc.X() + 1) / 2 * float32(width)
	y = (1 - ndc.Y()) / 2 * float32(height)
	return x, y, w, true
}

// Ray returns the world-space ray through a point in normalised device
// coordinates (x right, y up, both in [-1, 1]).
func (c Camera) Ray(ndcX, ndcY, aspect float32) (origin, dir mgl32.Vec3) {
	return c.rays(aspect).at(ndcX, ndcY)
}

// rayBasis caches the camera frame for casting many rays per frame.
type rayBasis struct {
	eye, forward, right, up mgl32.Vec3
}

func (c Camera) rays(aspect float32) rayBasis {
	eye := c.Eye()
	forward := c.Target.Sub(eye).Normalize()
	right := forward.Cross(mgl32.Vec3{0, 0, 1}).Normalize()
	up := right.Cross(forward)

	tanHalf := float32(math.Tan(float64(mgl32.DegToRad(c.FovY)) / 2))
	return rayBasis{
		eye:     eye,
		forward: forward,
		right:   right.Mul(tanHalf * aspect),
		up:      up.Mul(tanHalf),
	}
}

func (b rayBasis) at(ndcX, ndcY float32) (origin, dir mgl32.Vec3) {
	dir = b.forward.Add(b.right.Mul(ndcX)).Add(b.up.Mul(ndcY))
	return b.eye, dir.Normalize()
}

// PointerOnPlane casts the pointer onto the z = 0 galaxy plane. ok is false
// when the ray misses the plane or lands outside the pick area.
func (c Camera) PointerOnPlane(ndcX, ndcY, aspect float32) (r3.Vec, bool) {
	origin, dir := c.Ray(ndcX, ndcY, aspect)
	hit, ok := intersectPlaneZ(origin, dir)
	if !ok {
		return r3.Vec{}, false
	}
	if math.Abs(hit.X) > pointerPlaneHalfSize || math.Abs(hit.Y) > pointerPlaneHalfSize {
		return r3.Vec{}, false
	}
	return hit, true
}

func intersectPlaneZ(origin, dir mgl32.Vec3) (r3.Vec, bool) {
	if math.Abs(float64(dir.Z())) < 1e-6 {
		return r3.Vec{}, false
	}
	t := -origin.Z() / dir.Z()
	if t < 0 {
		return r3.Vec{}, false
	}
	p := origin.Add(dir.Mul(t))
	return r3.Vec{X: float64(p.X()), Y: float64(p.Y())}, true
}

// PixelToNDC converts pixel coordinates to normalised device coordinates.
func PixelToNDC(x, y float64, width, height int) (float32, float32) {
	return float32(x/float64(width)*2 - 1), float32(-(y/float64(height))*2 + 1)
}
