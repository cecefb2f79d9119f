package game

import (
	"math"

	rl "github.com/gen2brain/raylib-go/raylib"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/squish/components"
	"github.com/pthm-cable/squish/telemetry"
	"github.com/pthm-cable/squish/ui"
)

// keyLight is the fixed light direction for flat surface shading.
var keyLight = r3.Unit(r3.Vec{X: 0.35, Y: 0.8, Z: 0.45})

// Draw renders the scene, the HUD and the parameter panel, then closes the
// frame's perf tick.
func (g *Game) Draw() {
	g.perfCollector.StartPhase(telemetry.PhaseRender)

	rl.BeginDrawing()
	rl.ClearBackground(rl.NewColor(24, 26, 33, 255))

	rl.BeginMode3D(g.rlCamera())
	if g.render.Floor {
		g.drawFloor()
	}
	g.drawBounds()
	query := g.bodyFilter.Query()
	for query.Next() {
		sb, style, _ := query.Get()
		if g.render.Surface {
			drawSurface(sb, style)
		}
		if g.render.Wireframe {
			drawWireframe(sb, style)
		}
	}
	g.drawGrabMarker()
	rl.EndMode3D()

	g.drawHUD()
	g.drawPanel()

	rl.EndDrawing()

	g.perfCollector.EndTick()
	g.perfCollector.RecordFrame()
}

// rlCamera converts the orbit camera into raylib's camera struct.
func (g *Game) rlCamera() rl.Camera3D {
	return rl.Camera3D{
		Position:   vec3(g.camera.Position()),
		Target:     vec3(g.camera.Target),
		Up:         rl.Vector3{Y: 1},
		Fovy:       float32(g.camera.FovY),
		Projection: rl.CameraPerspective,
	}
}

func (g *Game) drawFloor() {
	b := g.params.WorldBounds
	w := float32(b.Max.X - b.Min.X)
	d := float32(b.Max.Z - b.Min.Z)
	center := rl.Vector3{
		X: float32(b.Min.X+b.Max.X) / 2,
		Y: -0.002, // under the grid lines
		Z: float32(b.Min.Z+b.Max.Z) / 2,
	}
	rl.DrawPlane(center, rl.Vector2{X: w, Y: d}, rl.NewColor(43, 47, 56, 255))
	rl.DrawGrid(int32(math.Round(float64(max(w, d))/0.5)), 0.5)
}

func (g *Game) drawBounds() {
	b := g.params.WorldBounds
	center := rl.Vector3{
		X: float32(b.Min.X+b.Max.X) / 2,
		Y: float32(b.Min.Y+b.Max.Y) / 2,
		Z: float32(b.Min.Z+b.Max.Z) / 2,
	}
	size := rl.Vector3{
		X: float32(b.Max.X - b.Min.X),
		Y: float32(b.Max.Y - b.Min.Y),
		Z: float32(b.Max.Z - b.Min.Z),
	}
	rl.DrawCubeWiresV(center, size, rl.NewColor(70, 76, 90, 255))
}

// drawSurface draws the boundary triangles with flat key-light shading.
func drawSurface(sb *components.SoftBody, style *components.RenderStyle) {
	pos := sb.Body.Positions()
	base := style.Surface
	tris := sb.Surface
	for i := 0; i+2 < len(tris); i += 3 {
		a, b, c := pos[tris[i]], pos[tris[i+1]], pos[tris[i+2]]
		n := r3.Cross(r3.Sub(b, a), r3.Sub(c, a))
		shade := 0.55
		if l := r3.Norm(n); l > 0 {
			shade += 0.45 * math.Max(0, r3.Dot(r3.Scale(1/l, n), keyLight))
		}
		col := rl.Color{R: shade8(base.R, shade), G: shade8(base.G, shade), B: shade8(base.B, shade), A: base.A}
		rl.DrawTriangle3D(vec3(a), vec3(b), vec3(c), col)
	}
}

func drawWireframe(sb *components.SoftBody, style *components.RenderStyle) {
	pos := sb.Body.Positions()
	edges := sb.Body.Edges()
	col := rl.Color{R: style.Wire.R, G: style.Wire.G, B: style.Wire.B, A: style.Wire.A}
	for i := 0; i+1 < len(edges); i += 2 {
		rl.DrawLine3D(vec3(pos[edges[i]]), vec3(pos[edges[i+1]]), col)
	}
}

func (g *Game) drawGrabMarker() {
	if !g.grab.active {
		return
	}
	id := g.grab.body.GrabbedParticle()
	if id < 0 {
		return
	}
	p := g.grab.body.Positions()[id]
	rl.DrawSphere(vec3(p), 0.035, rl.NewColor(255, 225, 80, 255))
}

func (g *Game) drawHUD() {
	if g.hud == nil {
		return
	}
	st := ui.HUDState{
		Tick:           g.tick,
		Paused:         g.paused,
		Solver:         g.params.Solver.String(),
		Bodies:         g.numBodies,
		Particles:      g.numParticles,
		Elements:       g.numElements,
		VolErrMean:     g.lastVolErrMean,
		VolErrMax:      g.lastVolErrMax,
		Kinetic:        g.lastKinetic,
		StepsPerUpdate: g.stepsPerUpdate,
		GrabActive:     g.grab.active,
	}
	if g.streamServer != nil {
		st.StreamClients = g.streamServer.ClientCount()
	}
	g.hud.Draw(st, g.screenHeight)
}

// drawPanel renders the parameter panel and applies slider edits and button
// presses. Sliders write back only on change so float32 round-trips never
// drift the float64 parameters.
func (g *Game) drawPanel() {
	if g.panel == nil {
		return
	}
	st := ui.State{
		Gravity:       float32(g.params.Gravity),
		Friction:      float32(g.params.Friction),
		DevCompliance: float32(g.params.DevCompliance),
		VolCompliance: float32(g.params.VolCompliance),
		Substeps:      float32(g.params.Substeps),
		Paused:        g.paused,
		Solver:        g.params.Solver.String(),
	}
	prev := st
	actions := g.panel.Draw(&st)

	if st.Gravity != prev.Gravity {
		g.params.Gravity = float64(st.Gravity)
	}
	if st.Friction != prev.Friction {
		g.params.Friction = float64(st.Friction)
	}
	if st.DevCompliance != prev.DevCompliance {
		g.params.DevCompliance = float64(st.DevCompliance)
	}
	if st.VolCompliance != prev.VolCompliance {
		g.params.VolCompliance = float64(st.VolCompliance)
	}
	if n := int(st.Substeps + 0.5); n != g.params.Substeps && n >= 1 && n <= maxSubsteps {
		g.params.Substeps = n
	}

	if actions.TogglePause {
		g.paused = !g.paused
	}
	if actions.SingleStep && g.paused {
		g.stepOnce = true
	}
	if actions.Reset {
		g.reset()
	}
	if actions.Squash {
		g.squashAll()
	}
	if actions.SwitchSolver {
		g.switchSolver()
	}
}

func shade8(c uint8, s float64) uint8 {
	v := float64(c) * s
	if v > 255 {
		v = 255
	}
	return uint8(v)
}

// vec3 converts to raylib's float32 vector at the rendering boundary.
func vec3(v r3.Vec) rl.Vector3 {
	return rl.Vector3{X: float32(v.X), Y: float32(v.Y), Z: float32(v.Z)}
}
