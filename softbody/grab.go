package softbody

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

type grabState struct {
	active bool
	id     int
	target r3.Vec
}

// StartGrab selects the particle nearest to point in the last published
// snapshot and holds it. The target starts at the particle's own snapshot
// position, so picking alone does not teleport anything; MoveGrabbed drags
// it from there.
func (b *Body) StartGrab(point r3.Vec) {
	best := -1
	bestDist := math.MaxFloat64
	for i := range b.st.snapshot {
		if d := r3.Norm2(r3.Sub(b.st.snapshot[i], point)); d < bestDist {
			bestDist = d
			best = i
		}
	}
	if best < 0 {
		return
	}
	b.grab = grabState{active: true, id: best, target: b.st.snapshot[best]}
}

// MoveGrabbed updates the grab target. No-op without an active grab.
func (b *Body) MoveGrabbed(point r3.Vec) {
	if b.grab.active {
		b.grab.target = point
	}
}

// EndGrab releases the held particle. Its velocity already reflects the
// drag motion, so it flies off naturally.
func (b *Body) EndGrab() {
	b.grab = grabState{}
}

// GrabbedParticle returns the held particle id, or -1 when no grab is
// active.
func (b *Body) GrabbedParticle() int {
	if !b.grab.active {
		return -1
	}
	return b.grab.id
}
