package ui

import (
	"fmt"

	rl "github.com/gen2brain/raylib-go/raylib"
)

// HUDState carries the values shown in the top-left readout.
type HUDState struct {
	Tick           int32
	Paused         bool
	Solver         string
	Bodies         int
	Particles      int
	Elements       int
	VolErrMean     float64
	VolErrMax      float64
	Kinetic        float64
	StepsPerUpdate int
	StreamClients  int
	GrabActive     bool
}

// HUD draws the text readout and the key help line.
type HUD struct {
	x, y int32
}

// NewHUD creates a HUD anchored top-left.
func NewHUD() *HUD {
	return &HUD{x: 10, y: 10}
}

// Draw renders the readout. screenH positions the help footer.
func (h *HUD) Draw(st HUDState, screenH float32) {
	y := h.y

	rl.DrawText(fmt.Sprintf("FPS: %d  Tick: %d", rl.GetFPS(), st.Tick), h.x, y, 20, rl.RayWhite)
	y += 25
	rl.DrawText(fmt.Sprintf("%s  Bodies: %d  Particles: %d  Tets: %d",
		st.Solver, st.Bodies, st.Particles, st.Elements), h.x, y, 20, rl.RayWhite)
	y += 25
	rl.DrawText(fmt.Sprintf("Vol err: %.4f (max %.4f)  KE: %.2f",
		st.VolErrMean, st.VolErrMax, st.Kinetic), h.x, y, 20, rl.RayWhite)
	y += 25

	if st.StepsPerUpdate > 1 {
		rl.DrawText(fmt.Sprintf("Speed: %dx  [</>]", st.StepsPerUpdate), h.x, y, 20, rl.RayWhite)
		y += 25
	}
	if st.StreamClients > 0 {
		rl.DrawText(fmt.Sprintf("Stream: %d client(s)", st.StreamClients), h.x, y, 20, rl.SkyBlue)
		y += 25
	}
	if st.Paused {
		rl.DrawText("PAUSED  [N steps once]", h.x, y, 20, rl.Yellow)
		y += 25
	}
	if st.GrabActive {
		rl.DrawText("grabbing", h.x, y, 20, rl.NewColor(255, 225, 80, 255))
	}

	help := "drag: grab   right-drag: orbit   wheel: zoom   middle: pan   space: pause   R: reset   S: squash   TAB: solver   H: panel"
	rl.DrawText(help, h.x, int32(screenH)-26, 16, rl.Gray)
}
