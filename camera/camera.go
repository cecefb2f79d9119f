// Package camera provides an orbital 3D camera for viewport control.
package camera

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// worldUp is the global up axis. The floor plane lies at y = 0.
var worldUp = r3.Vec{Y: 1}

// Camera orbits a target point at a distance, described by yaw around the
// y axis and pitch above the horizon. It is pure math; input handling and
// the render binding live with the caller.
type Camera struct {
	Target   r3.Vec
	Distance float64
	Yaw      float64 // radians around y
	Pitch    float64 // radians above the horizon
	FovY     float64 // vertical field of view in degrees

	// Viewport dimensions (screen size)
	ViewportW, ViewportH float64

	// Orbit constraints
	MinDistance, MaxDistance float64
	MinPitch, MaxPitch       float64
}

// New creates a camera looking at the scene center from a comfortable
// three-quarter view.
func New(viewportW, viewportH float64) *Camera {
	return &Camera{
		Target:      r3.Vec{Y: 0.8},
		Distance:    4,
		Yaw:         0.6,
		Pitch:       0.45,
		FovY:        45,
		ViewportW:   viewportW,
		ViewportH:   viewportH,
		MinDistance: 0.5,
		MaxDistance: 30,
		MinPitch:    -1.45,
		MaxPitch:    1.45,
	}
}

// Position returns the camera eye point in world coordinates.
func (c *Camera) Position() r3.Vec {
	cp := math.Cos(c.Pitch)
	return r3.Add(c.Target, r3.Vec{
		X: c.Distance * cp * math.Sin(c.Yaw),
		Y: c.Distance * math.Sin(c.Pitch),
		Z: c.Distance * cp * math.Cos(c.Yaw),
	})
}

// Basis returns the camera's right, up and forward unit vectors.
func (c *Camera) Basis() (right, up, forward r3.Vec) {
	forward = r3.Unit(r3.Sub(c.Target, c.Position()))
	right = r3.Unit(r3.Cross(forward, worldUp))
	up = r3.Cross(right, forward)
	return right, up, forward
}

// Orbit rotates the camera around the target. Pitch is clamped short of the
// poles so the up vector never degenerates.
func (c *Camera) Orbit(dYaw, dPitch float64) {
	c.Yaw += dYaw
	c.Pitch = clamp(c.Pitch+dPitch, c.MinPitch, c.MaxPitch)
}

// Dolly scales the orbit distance, clamped to the configured range.
func (c *Camera) Dolly(factor float64) {
	c.Distance = clamp(c.Distance*factor, c.MinDistance, c.MaxDistance)
}

// Pan moves the target in the view plane by screen-space deltas. The shift
// scales with distance so a drag covers the same fraction of the view at
// any zoom.
func (c *Camera) Pan(dx, dy float64) {
	if c.ViewportH == 0 {
		return
	}
	right, up, _ := c.Basis()
	worldPerPixel := 2 * c.Distance * math.Tan(c.fovYRadians()/2) / c.ViewportH
	c.Target = r3.Add(c.Target, r3.Scale(-dx*worldPerPixel, right))
	c.Target = r3.Add(c.Target, r3.Scale(dy*worldPerPixel, up))
}

// Resize updates viewport dimensions.
func (c *Camera) Resize(viewportW, viewportH float64) {
	c.ViewportW = viewportW
	c.ViewportH = viewportH
}

// ScreenRay returns the picking ray through a screen pixel as an origin and
// unit direction.
func (c *Camera) ScreenRay(sx, sy float64) (origin, dir r3.Vec) {
	right, up, forward := c.Basis()

	tanHalf := math.Tan(c.fovYRadians() / 2)
	aspect := 1.0
	if c.ViewportH > 0 {
		aspect = c.ViewportW / c.ViewportH
	}
	ndcX := 2*sx/c.ViewportW - 1
	ndcY := 1 - 2*sy/c.ViewportH

	dir = forward
	dir = r3.Add(dir, r3.Scale(ndcX*tanHalf*aspect, right))
	dir = r3.Add(dir, r3.Scale(ndcY*tanHalf, up))
	return c.Position(), r3.Unit(dir)
}

// RayPlane intersects a ray with the plane through point with the given
// normal. Returns false for rays parallel to the plane or hits behind the
// origin.
func RayPlane(origin, dir, point, normal r3.Vec) (r3.Vec, bool) {
	denom := r3.Dot(dir, normal)
	if math.Abs(denom) < 1e-12 {
		return r3.Vec{}, false
	}
	t := r3.Dot(r3.Sub(point, origin), normal) / denom
	if t < 0 {
		return r3.Vec{}, false
	}
	return r3.Add(origin, r3.Scale(t, dir)), true
}

// ClosestPointOnRay returns the point on the ray nearest to p.
func ClosestPointOnRay(origin, dir, p r3.Vec) r3.Vec {
	t := r3.Dot(r3.Sub(p, origin), dir)
	if t < 0 {
		t = 0
	}
	return r3.Add(origin, r3.Scale(t, dir))
}

func (c *Camera) fovYRadians() float64 {
	return c.FovY * math.Pi / 180
}

// clamp restricts a value to a range.
func clamp(x, min, max float64) float64 {
	if x < min {
		return min
	}
	if x > max {
		return max
	}
	return x
}
