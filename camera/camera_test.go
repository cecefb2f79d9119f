package camera

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"
)

func TestNew(t *testing.T) {
	cam := New(1280, 720)

	if cam.ViewportW != 1280 || cam.ViewportH != 720 {
		t.Errorf("expected viewport (1280, 720), got (%f, %f)", cam.ViewportW, cam.ViewportH)
	}
	if cam.Distance <= 0 {
		t.Errorf("expected positive distance, got %f", cam.Distance)
	}
}

func TestPositionOnOrbit(t *testing.T) {
	cam := New(1280, 720)
	cam.Target = r3.Vec{}
	cam.Distance = 2

	// Yaw 0, pitch 0 looks down -z, so the eye sits at +z.
	cam.Yaw = 0
	cam.Pitch = 0
	pos := cam.Position()
	if math.Abs(pos.X) > 1e-12 || math.Abs(pos.Y) > 1e-12 || math.Abs(pos.Z-2) > 1e-12 {
		t.Errorf("yaw 0: expected (0, 0, 2), got %v", pos)
	}

	// Quarter turn moves the eye to +x.
	cam.Yaw = math.Pi / 2
	pos = cam.Position()
	if math.Abs(pos.X-2) > 1e-12 || math.Abs(pos.Z) > 1e-12 {
		t.Errorf("yaw pi/2: expected (2, 0, 0), got %v", pos)
	}

	// Pitch lifts the eye.
	cam.Yaw = 0
	cam.Pitch = math.Pi / 4
	pos = cam.Position()
	want := 2 * math.Sqrt(2) / 2
	if math.Abs(pos.Y-want) > 1e-12 || math.Abs(pos.Z-want) > 1e-12 {
		t.Errorf("pitch pi/4: expected (0, %f, %f), got %v", want, want, pos)
	}

	// The eye always sits Distance away from the target.
	if d := r3.Norm(r3.Sub(pos, cam.Target)); math.Abs(d-2) > 1e-12 {
		t.Errorf("eye distance %f, want 2", d)
	}
}

func TestBasisOrthonormal(t *testing.T) {
	cam := New(1280, 720)
	cam.Yaw = 0.7
	cam.Pitch = 0.3

	right, up, forward := cam.Basis()
	for name, v := range map[string]r3.Vec{"right": right, "up": up, "forward": forward} {
		if math.Abs(r3.Norm(v)-1) > 1e-9 {
			t.Errorf("%s not unit length: %v", name, v)
		}
	}
	if d := r3.Dot(right, forward); math.Abs(d) > 1e-9 {
		t.Errorf("right.forward = %f, want 0", d)
	}
	if d := r3.Dot(up, forward); math.Abs(d) > 1e-9 {
		t.Errorf("up.forward = %f, want 0", d)
	}
	// Right stays level with the horizon.
	if math.Abs(right.Y) > 1e-9 {
		t.Errorf("right has vertical component: %v", right)
	}
}

func TestOrbitClampsPitch(t *testing.T) {
	cam := New(1280, 720)

	cam.Orbit(0, 10)
	if cam.Pitch != cam.MaxPitch {
		t.Errorf("pitch %f, want clamped to %f", cam.Pitch, cam.MaxPitch)
	}
	cam.Orbit(0, -20)
	if cam.Pitch != cam.MinPitch {
		t.Errorf("pitch %f, want clamped to %f", cam.Pitch, cam.MinPitch)
	}
}

func TestDollyClamps(t *testing.T) {
	cam := New(1280, 720)

	cam.Dolly(0.0001)
	if cam.Distance != cam.MinDistance {
		t.Errorf("distance %f, want clamped to %f", cam.Distance, cam.MinDistance)
	}
	cam.Dolly(100000)
	if cam.Distance != cam.MaxDistance {
		t.Errorf("distance %f, want clamped to %f", cam.Distance, cam.MaxDistance)
	}
}

func TestScreenRayThroughCenter(t *testing.T) {
	cam := New(1280, 720)
	cam.Yaw = 1.1
	cam.Pitch = 0.4

	_, _, forward := cam.Basis()
	origin, dir := cam.ScreenRay(640, 360)

	if d := r3.Norm(r3.Sub(origin, cam.Position())); d > 1e-12 {
		t.Errorf("ray origin off the eye by %f", d)
	}
	if d := r3.Norm(r3.Sub(dir, forward)); d > 1e-9 {
		t.Errorf("center ray %v, want forward %v", dir, forward)
	}
}

func TestScreenRayCorners(t *testing.T) {
	cam := New(1280, 720)
	right, up, _ := cam.Basis()

	// Top-left pixel: ray tilts left and up.
	_, dir := cam.ScreenRay(0, 0)
	if r3.Dot(dir, right) >= 0 {
		t.Errorf("top-left ray should tilt left: %v", dir)
	}
	if r3.Dot(dir, up) <= 0 {
		t.Errorf("top-left ray should tilt up: %v", dir)
	}

	// Bottom-right pixel: opposite tilts.
	_, dir = cam.ScreenRay(1280, 720)
	if r3.Dot(dir, right) <= 0 || r3.Dot(dir, up) >= 0 {
		t.Errorf("bottom-right ray should tilt right and down: %v", dir)
	}
}

func TestRayPlane(t *testing.T) {
	origin := r3.Vec{X: 1, Y: 2, Z: 3}
	down := r3.Vec{Y: -1}

	hit, ok := RayPlane(origin, down, r3.Vec{}, r3.Vec{Y: 1})
	if !ok {
		t.Fatal("straight-down ray missed the floor plane")
	}
	want := r3.Vec{X: 1, Y: 0, Z: 3}
	if d := r3.Norm(r3.Sub(hit, want)); d > 1e-12 {
		t.Errorf("hit %v, want %v", hit, want)
	}

	// Parallel ray misses.
	if _, ok := RayPlane(origin, r3.Vec{X: 1}, r3.Vec{}, r3.Vec{Y: 1}); ok {
		t.Error("parallel ray should miss")
	}

	// Plane behind the origin misses.
	if _, ok := RayPlane(origin, r3.Vec{Y: 1}, r3.Vec{}, r3.Vec{Y: 1}); ok {
		t.Error("plane behind the ray should miss")
	}
}

func TestPanMovesTargetInViewPlane(t *testing.T) {
	cam := New(1280, 720)
	cam.Yaw = 0.9
	cam.Pitch = 0.2
	right, up, _ := cam.Basis()
	before := cam.Target

	cam.Pan(100, 0)
	delta := r3.Sub(cam.Target, before)
	if r3.Dot(delta, right) >= 0 {
		t.Errorf("horizontal pan should move the target against right, moved %v", delta)
	}
	if math.Abs(r3.Dot(delta, up)) > 1e-9 {
		t.Errorf("horizontal pan leaked into up: %v", delta)
	}

	before = cam.Target
	cam.Pan(0, 50)
	delta = r3.Sub(cam.Target, before)
	if r3.Dot(delta, up) <= 0 {
		t.Errorf("vertical pan should move the target along up, moved %v", delta)
	}
}

func TestClosestPointOnRay(t *testing.T) {
	origin := r3.Vec{}
	dir := r3.Vec{X: 1}

	got := ClosestPointOnRay(origin, dir, r3.Vec{X: 3, Y: 4})
	if d := r3.Norm(r3.Sub(got, r3.Vec{X: 3})); d > 1e-12 {
		t.Errorf("closest point %v, want (3, 0, 0)", got)
	}

	// Points behind the origin clamp to the origin.
	got = ClosestPointOnRay(origin, dir, r3.Vec{X: -5, Y: 1})
	if got != origin {
		t.Errorf("closest point %v, want origin", got)
	}
}
