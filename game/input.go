package game

import (
	"math"

	rl "github.com/gen2brain/raylib-go/raylib"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/squish/camera"
	"github.com/pthm-cable/squish/softbody"
)

// orbitSpeed converts mouse pixels to radians of camera orbit.
const orbitSpeed = 0.005

// grabSession tracks an active mouse grab. The drag plane faces the camera
// and passes through the picked particle, so the particle follows the
// cursor at its pick depth.
type grabSession struct {
	active bool
	body   *softbody.Body
	point  r3.Vec
	normal r3.Vec
}

// handleInput processes keyboard and mouse input.
func (g *Game) handleInput() {
	g.handleResize()

	if rl.IsKeyPressed(rl.KeyF11) {
		rl.ToggleFullscreen()
	}

	if rl.IsKeyPressed(rl.KeySpace) {
		g.paused = !g.paused
	}
	if rl.IsKeyPressed(rl.KeyN) && g.paused {
		g.stepOnce = true
	}
	if rl.IsKeyPressed(rl.KeyR) {
		g.reset()
	}
	if rl.IsKeyPressed(rl.KeyS) {
		g.squashAll()
	}
	if rl.IsKeyPressed(rl.KeyTab) {
		g.switchSolver()
	}
	if rl.IsKeyPressed(rl.KeyH) && g.panel != nil {
		g.panel.Toggle()
	}

	// Render pass toggles
	if rl.IsKeyPressed(rl.KeyF1) {
		g.render.Wireframe = !g.render.Wireframe
	}
	if rl.IsKeyPressed(rl.KeyF2) {
		g.render.Surface = !g.render.Surface
	}
	if rl.IsKeyPressed(rl.KeyF3) {
		g.render.Floor = !g.render.Floor
	}

	// Ticks-per-frame control with < > keys (comma and period)
	if rl.IsKeyPressed(rl.KeyComma) && g.stepsPerUpdate > 1 {
		g.stepsPerUpdate--
	}
	if rl.IsKeyPressed(rl.KeyPeriod) && g.stepsPerUpdate < 10 {
		g.stepsPerUpdate++
	}

	g.handleCameraInput()
	g.handleGrabInput()
}

// handleResize checks for window resize and propagates new dimensions.
func (g *Game) handleResize() {
	if !rl.IsWindowResized() {
		return
	}
	w := float32(rl.GetScreenWidth())
	h := float32(rl.GetScreenHeight())
	if w == g.screenWidth && h == g.screenHeight {
		return
	}
	g.screenWidth = w
	g.screenHeight = h

	g.camera.Resize(float64(w), float64(h))
	if g.panel != nil {
		g.panel.SetPosition(w-10-g.panel.Width(), 10)
	}
}

// handleCameraInput processes orbit, dolly and pan controls. The left
// button belongs to grabbing, so the camera uses right and middle drag.
func (g *Game) handleCameraInput() {
	if wheel := rl.GetMouseWheelMove(); wheel != 0 {
		g.camera.Dolly(math.Pow(0.9, float64(wheel)))
	}

	delta := rl.GetMouseDelta()
	if rl.IsMouseButtonDown(rl.MouseButtonRight) {
		// Screen y grows downward; dragging up should raise the camera.
		g.camera.Orbit(float64(delta.X)*orbitSpeed, -float64(delta.Y)*orbitSpeed)
	}
	if rl.IsMouseButtonDown(rl.MouseButtonMiddle) {
		g.camera.Pan(float64(delta.X), float64(delta.Y))
	}

	if rl.IsKeyPressed(rl.KeyHome) {
		g.applyCameraConfig()
	}
}

// handleGrabInput drives the mouse grab: pick on press, drag while held,
// release on button up.
func (g *Game) handleGrabInput() {
	mouse := rl.GetMousePosition()
	origin, dir := g.camera.ScreenRay(float64(mouse.X), float64(mouse.Y))

	if rl.IsMouseButtonPressed(rl.MouseButtonLeft) {
		g.tryGrab(origin, dir)
	}
	if !g.grab.active {
		return
	}
	if rl.IsMouseButtonDown(rl.MouseButtonLeft) {
		if hit, ok := camera.RayPlane(origin, dir, g.grab.point, g.grab.normal); ok {
			g.grab.body.MoveGrabbed(hit)
		}
		return
	}
	g.endGrab()
}

// tryGrab picks the particle closest to the mouse ray across all bodies and
// starts a grab when it lies within the configured pick radius.
func (g *Game) tryGrab(origin, dir r3.Vec) {
	pickR2 := g.cfg.Grab.PickRadius * g.cfg.Grab.PickRadius
	var best *softbody.Body
	var bestPoint r3.Vec
	bestDist := math.MaxFloat64

	query := g.bodyFilter.Query()
	for query.Next() {
		sb, _, _ := query.Get()
		for _, p := range sb.Body.Positions() {
			onRay := camera.ClosestPointOnRay(origin, dir, p)
			if d := r3.Norm2(r3.Sub(p, onRay)); d < bestDist {
				bestDist = d
				best = sb.Body
				bestPoint = p
			}
		}
	}
	if best == nil || bestDist > pickR2 {
		return
	}

	best.StartGrab(bestPoint)
	_, _, forward := g.camera.Basis()
	g.grab = grabSession{active: true, body: best, point: bestPoint, normal: r3.Scale(-1, forward)}
	g.collector.RecordGrabStart()
}

// endGrab releases the grab if one is active. Also called on respawn so a
// held particle never outlives its body.
func (g *Game) endGrab() {
	if !g.grab.active {
		return
	}
	g.grab.body.EndGrab()
	g.grab = grabSession{}
	g.collector.RecordGrabEnd()
}
