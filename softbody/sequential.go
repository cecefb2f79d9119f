package softbody

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

var sqrt3 = math.Sqrt(3)

// gaussSeidelSolver enforces the deviatoric and volume constraints element
// by element against the live position buffer. Deviatoric corrections apply
// immediately, so later elements see their neighbors already moved; volume
// corrections are accumulated per particle and averaged after the element
// loop, which softens the traversal-order bias of the volume term.
type gaussSeidelSolver struct {
	topo *topology
	st   *state

	volSum   []r3.Vec
	volCount []int32
}

func newGaussSeidelSolver(topo *topology, st *state) *gaussSeidelSolver {
	return &gaussSeidelSolver{
		topo:     topo,
		st:       st,
		volSum:   make([]r3.Vec, topo.numParticles),
		volCount: make([]int32, topo.numParticles),
	}
}

func (s *gaussSeidelSolver) Name() string { return "sequential" }

func (s *gaussSeidelSolver) Solve(dt float64, p Params) {
	for e := 0; e < s.topo.numElements(); e++ {
		s.solveElement(e, dt, p)
	}
	for i := range s.volSum {
		if s.volCount[i] == 0 {
			continue
		}
		s.st.pos[i] = r3.Add(s.st.pos[i], r3.Scale(1/float64(s.volCount[i]), s.volSum[i]))
		s.volSum[i] = r3.Vec{}
		s.volCount[i] = 0
	}
}

func (s *gaussSeidelSolver) solveElement(e int, dt float64, p Params) {
	ids := s.topo.tetIds[4*e : 4*e+4]
	q := &s.topo.invRestPose[e]

	// Deviatoric constraint: C = |F| - sqrt(3), zero when the element is
	// unstretched. The gradient of |F| with respect to corner k+1 is
	// F row-folded with inverse rest pose row k, over |F|.
	f0, f1, f2 := s.topo.deformation(s.st.pos, e)
	norm := math.Sqrt(r3.Norm2(f0) + r3.Norm2(f1) + r3.Norm2(f2))
	if norm > 0 {
		invNorm := 1 / norm
		var g [4]r3.Vec
		g[1] = r3.Scale(invNorm, mulRow(f0, f1, f2, q[0]))
		g[2] = r3.Scale(invNorm, mulRow(f0, f1, f2, q[1]))
		g[3] = r3.Scale(invNorm, mulRow(f0, f1, f2, q[2]))
		g[0] = r3.Scale(-1, r3.Add(g[1], r3.Add(g[2], g[3])))
		s.applyImmediate(e, ids, norm-sqrt3, p.DevCompliance, dt, &g)
	}

	// Volume constraint on the freshly corrected corners: C = det(F) - 1,
	// biased when the deviatoric term is compliant.
	f0, f1, f2 = s.topo.deformation(s.st.pos, e)
	det := r3.Dot(f0, r3.Cross(f1, f2))
	d0 := r3.Cross(f1, f2)
	d1 := r3.Cross(f2, f0)
	d2 := r3.Cross(f0, f1)
	var g [4]r3.Vec
	g[1] = mulRow(d0, d1, d2, q[0])
	g[2] = mulRow(d0, d1, d2, q[1])
	g[3] = mulRow(d0, d1, d2, q[2])
	g[0] = r3.Scale(-1, r3.Add(g[1], r3.Add(g[2], g[3])))
	s.applyDeferred(e, ids, det-1-p.volumeBias(), p.VolCompliance, dt, &g)
}

// deltaLambda computes the constraint multiplier step. The generalized
// inverse mass w sums squared gradient norms weighted by particle inverse
// masses; w of zero means no corner can move and the constraint is skipped.
func (s *gaussSeidelSolver) deltaLambda(e int, ids []int32, c, compliance, dt float64, g *[4]r3.Vec) (float64, bool) {
	w := 0.0
	for k, id := range ids {
		w += r3.Norm2(g[k]) * s.st.invMass[id]
	}
	if w == 0 {
		return 0, false
	}
	alpha := compliance / (dt * dt) * s.topo.invRestVol[e]
	return -c / (w + alpha), true
}

func (s *gaussSeidelSolver) applyImmediate(e int, ids []int32, c, compliance, dt float64, g *[4]r3.Vec) {
	dl, ok := s.deltaLambda(e, ids, c, compliance, dt, g)
	if !ok {
		return
	}
	for k, id := range ids {
		if w := s.st.invMass[id]; w > 0 {
			s.st.pos[id] = r3.Add(s.st.pos[id], r3.Scale(dl*w, g[k]))
		}
	}
}

func (s *gaussSeidelSolver) applyDeferred(e int, ids []int32, c, compliance, dt float64, g *[4]r3.Vec) {
	dl, ok := s.deltaLambda(e, ids, c, compliance, dt, g)
	if !ok {
		return
	}
	for k, id := range ids {
		if w := s.st.invMass[id]; w > 0 {
			s.volSum[id] = r3.Add(s.volSum[id], r3.Scale(dl*w, g[k]))
			s.volCount[id]++
		}
	}
}
