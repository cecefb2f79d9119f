// Package components defines ECS components for the simulation scene.
package components

import (
	"github.com/pthm-cable/squish/mesh"
	"github.com/pthm-cable/squish/softbody"
)

// Color is a plain RGBA quad. Components stay free of renderer types so the
// scene layer compiles and runs headless.
type Color struct {
	R, G, B, A uint8
}

// SoftBody attaches one simulated body to a scene entity. Rest keeps the
// spawn-time mesh so the body can be rebuilt on reset or on a solver switch,
// and Surface caches the boundary triangles the renderer draws.
type SoftBody struct {
	Body    *softbody.Body
	Rest    mesh.TetMesh
	Surface []int32
}

// RenderStyle selects per-body draw colors.
type RenderStyle struct {
	Surface Color
	Wire    Color
}

// Label names an entity for the HUD and logs.
type Label struct {
	Name string
}

// Palette returns the default body color cycle. Spawn order indexes into it
// modulo its length.
func Palette() []RenderStyle {
	return []RenderStyle{
		{Surface: Color{230, 41, 55, 255}, Wire: Color{120, 20, 28, 255}},
		{Surface: Color{0, 121, 241, 255}, Wire: Color{0, 60, 120, 255}},
		{Surface: Color{0, 158, 47, 255}, Wire: Color{0, 78, 24, 255}},
		{Surface: Color{255, 161, 0, 255}, Wire: Color{128, 80, 0, 255}},
		{Surface: Color{135, 60, 190, 255}, Wire: Color{68, 30, 95, 255}},
		{Surface: Color{0, 148, 156, 255}, Wire: Color{0, 74, 78, 255}},
	}
}
