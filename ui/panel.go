// Package ui draws the parameter panel and the HUD over the 3D scene.
package ui

import (
	"fmt"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"
)

// PanelWidth is the fixed content width of the parameter panel.
const PanelWidth float32 = 250

// panelHeight covers the title, five sliders and three button rows.
const panelHeight int32 = 432

// State mirrors the live parameters shown in the panel. Draw writes slider
// changes back into the struct.
type State struct {
	Gravity       float32
	Friction      float32
	DevCompliance float32
	VolCompliance float32
	Substeps      float32
	Paused        bool
	Solver        string
}

// Actions reports the buttons pressed during Draw.
type Actions struct {
	TogglePause  bool
	SingleStep   bool
	Reset        bool
	Squash       bool
	SwitchSolver bool
}

// Panel is the interactive parameter panel.
type Panel struct {
	x, y    float32
	visible bool
}

// NewPanel creates a panel anchored at the given screen position.
func NewPanel(x, y float32) *Panel {
	return &Panel{x: x, y: y, visible: true}
}

// Toggle switches panel visibility.
func (p *Panel) Toggle() {
	p.visible = !p.visible
}

// IsVisible returns whether the panel is shown.
func (p *Panel) IsVisible() bool {
	return p.visible
}

// SetPosition moves the panel anchor, used on window resize.
func (p *Panel) SetPosition(x, y float32) {
	p.x, p.y = x, y
}

// Width returns the panel content width.
func (p *Panel) Width() float32 {
	return PanelWidth
}

// Draw renders the panel and returns the pressed buttons.
func (p *Panel) Draw(st *State) Actions {
	var actions Actions
	if !p.visible {
		return actions
	}

	x := p.x
	y := p.y

	rl.DrawRectangle(int32(x)-10, int32(y)-10, int32(PanelWidth)+20, panelHeight, rl.NewColor(20, 22, 28, 215))
	rl.DrawRectangleLines(int32(x)-10, int32(y)-10, int32(PanelWidth)+20, panelHeight, rl.NewColor(70, 76, 90, 255))

	rl.DrawText("Simulation", int32(x), int32(y), 20, rl.RayWhite)
	y += 30

	st.Gravity = slider(x, &y, "Gravity", "%.1f", st.Gravity, -20, 0)
	st.Friction = slider(x, &y, "Floor friction", "%.0f", st.Friction, 0, 2000)
	st.DevCompliance = slider(x, &y, "Shape compliance", "%.3f", st.DevCompliance, 0, 0.2)
	st.VolCompliance = slider(x, &y, "Volume compliance", "%.3f", st.VolCompliance, 0, 0.1)
	st.Substeps = slider(x, &y, "Substeps", "%.0f", st.Substeps, 1, 30)

	rl.DrawLine(int32(x), int32(y), int32(x+PanelWidth)-10, int32(y), rl.NewColor(70, 76, 90, 255))
	y += 12

	half := (PanelWidth - 10) / 2
	if gui.Button(rl.Rectangle{X: x, Y: y, Width: half, Height: 28}, toggleText(st.Paused, "Resume", "Pause")) {
		actions.TogglePause = true
	}
	if gui.Button(rl.Rectangle{X: x + half + 10, Y: y, Width: half, Height: 28}, "Step") {
		actions.SingleStep = true
	}
	y += 38

	if gui.Button(rl.Rectangle{X: x, Y: y, Width: half, Height: 28}, "Reset") {
		actions.Reset = true
	}
	if gui.Button(rl.Rectangle{X: x + half + 10, Y: y, Width: half, Height: 28}, "Squash") {
		actions.Squash = true
	}
	y += 38

	if gui.Button(rl.Rectangle{X: x, Y: y, Width: PanelWidth, Height: 28}, "Solver: "+st.Solver) {
		actions.SwitchSolver = true
	}

	return actions
}

// slider draws one labeled slider row and advances the y cursor.
func slider(x float32, y *float32, label, format string, value, lo, hi float32) float32 {
	rl.DrawText(label, int32(x), int32(*y), 14, rl.Gray)
	*y += 18
	v := gui.SliderBar(
		rl.Rectangle{X: x, Y: *y, Width: PanelWidth - 60, Height: 20},
		"", "",
		value, lo, hi,
	)
	rl.DrawText(fmt.Sprintf(format, v), int32(x+PanelWidth-52), int32(*y+2), 16, rl.RayWhite)
	*y += 30
	return v
}

func toggleText(cond bool, whenTrue, whenFalse string) string {
	if cond {
		return whenTrue
	}
	return whenFalse
}
