package softbody

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/squish/mesh"
)

// state holds the mutable particle buffers. pos and next ping-pong inside
// the parallel gather pass; every other pass writes only its own slot and
// works in place. snapshot is the host-readable copy external readers and
// grab picking consume, refreshed by EndFrame.
type state struct {
	pos     []r3.Vec
	next    []r3.Vec
	prev    []r3.Vec
	vel     []r3.Vec
	invMass []float64

	snapshot []r3.Vec
}

func newState(m mesh.TetMesh, invMass []float64) *state {
	n := m.NumVertices()
	s := &state{
		pos:      make([]r3.Vec, n),
		next:     make([]r3.Vec, n),
		prev:     make([]r3.Vec, n),
		vel:      make([]r3.Vec, n),
		invMass:  invMass,
		snapshot: make([]r3.Vec, n),
	}
	for i := 0; i < n; i++ {
		s.pos[i] = m.Vertex(int32(i))
	}
	copy(s.prev, s.pos)
	copy(s.snapshot, s.pos)
	return s
}

func (s *state) swap() {
	s.pos, s.next = s.next, s.pos
}
