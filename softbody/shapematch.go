package softbody

import (
	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"
)

// shapeMatchSolver is the order-independent formulation. Every element
// extracts a best-fit rotation of its rest shape onto the current corners,
// advances a carried goal shape by the incremental rotation, and emits goal
// corners premultiplied by inverse rest volume. A gather pass then averages
// the emitted goals per particle. Each of the three passes writes buffers
// the pass itself never reads, so the pool barriers between passes are the
// only synchronization needed and the result is identical for any worker
// count.
type shapeMatchSolver struct {
	topo *topology
	st   *state
	adj  adjacency
	pool *pool

	rot      []quat.Number // per-element rotation carried across substeps
	rotNext  []quat.Number
	goal     []r3.Vec // carried goal corners, 4 per element
	goalNext []r3.Vec
	out      []r3.Vec // emitted weighted goals, 4 per element
}

func newShapeMatchSolver(topo *topology, st *state, adj adjacency, pl *pool) *shapeMatchSolver {
	numElems := topo.numElements()
	s := &shapeMatchSolver{
		topo:     topo,
		st:       st,
		adj:      adj,
		pool:     pl,
		rot:      make([]quat.Number, numElems),
		rotNext:  make([]quat.Number, numElems),
		goal:     make([]r3.Vec, 4*numElems),
		goalNext: make([]r3.Vec, 4*numElems),
		out:      make([]r3.Vec, 4*numElems),
	}
	for e := 0; e < numElems; e++ {
		s.rot[e] = identityQuat
		for k, id := range topo.tetIds[4*e : 4*e+4] {
			s.goal[4*e+k] = st.pos[id]
		}
	}
	return s
}

func (s *shapeMatchSolver) Name() string { return "parallel" }

func (s *shapeMatchSolver) Solve(dt float64, p Params) {
	s.pool.run(s.topo.numElements(), s.extractRange)
	s.pool.run(s.topo.numElements(), s.emitRange)
	s.rot, s.rotNext = s.rotNext, s.rot
	s.goal, s.goalNext = s.goalNext, s.goal
	s.pool.run(s.topo.numParticles, s.gatherRange)
	s.st.swap()
}

// extractRange updates each element's rotation from the covariance between
// its centered rest shape and current corners, warm-started from the carried
// rotation.
func (s *shapeMatchSolver) extractRange(start, end int) {
	for e := start; e < end; e++ {
		ids := s.topo.tetIds[4*e : 4*e+4]
		rest := &s.topo.restShape[e]

		c := s.centroid(s.st.pos, ids)
		var a [3]r3.Vec
		for k, id := range ids {
			p := r3.Sub(s.st.pos[id], c)
			a[0] = r3.Add(a[0], r3.Scale(rest[k].X, p))
			a[1] = r3.Add(a[1], r3.Scale(rest[k].Y, p))
			a[2] = r3.Add(a[2], r3.Scale(rest[k].Z, p))
		}
		s.rotNext[e] = extractRotation(&a, s.rot[e])
	}
}

// emitRange rotates the carried goal shape by the incremental rotation about
// the current centroid and stores the weighted goal corners.
func (s *shapeMatchSolver) emitRange(start, end int) {
	for e := start; e < end; e++ {
		ids := s.topo.tetIds[4*e : 4*e+4]

		cur := s.centroid(s.st.pos, ids)
		prevC := s.goalCentroid(e)
		step := r3.Rotation(quat.Mul(s.rotNext[e], quat.Conj(s.rot[e])))

		w := s.topo.invRestVol[e]
		for k := 0; k < 4; k++ {
			g := r3.Add(cur, step.Rotate(r3.Sub(s.goal[4*e+k], prevC)))
			s.goalNext[4*e+k] = g
			s.out[4*e+k] = r3.Scale(w, g)
		}
	}
}

// gatherRange averages the emitted goals referencing each particle. Pinned
// particles and particles with no adjacency keep their predicted position.
func (s *shapeMatchSolver) gatherRange(start, end int) {
	for i := start; i < end; i++ {
		slots := s.adj.particleSlots(i)
		if len(slots) == 0 || s.st.invMass[i] == 0 {
			s.st.next[i] = s.st.pos[i]
			continue
		}
		var sum r3.Vec
		wsum := 0.0
		for _, slot := range slots {
			sum = r3.Add(sum, s.out[slot])
			wsum += s.topo.invRestVol[slot/4]
		}
		if wsum == 0 {
			s.st.next[i] = s.st.pos[i]
			continue
		}
		s.st.next[i] = r3.Scale(1/wsum, sum)
	}
}

func (s *shapeMatchSolver) centroid(pos []r3.Vec, ids []int32) r3.Vec {
	sum := r3.Add(r3.Add(pos[ids[0]], pos[ids[1]]), r3.Add(pos[ids[2]], pos[ids[3]]))
	return r3.Scale(0.25, sum)
}

func (s *shapeMatchSolver) goalCentroid(e int) r3.Vec {
	sum := r3.Add(r3.Add(s.goal[4*e], s.goal[4*e+1]), r3.Add(s.goal[4*e+2], s.goal[4*e+3]))
	return r3.Scale(0.25, sum)
}
