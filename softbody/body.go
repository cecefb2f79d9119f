// Package softbody simulates deformable tetrahedral bodies with extended
// position-based dynamics. Each substep predicts particle positions under
// gravity, corrects them through one of two constraint solver strategies,
// resolves world-bounds collision and recomputes velocities from the
// positional change. The sequential strategy is a Gauss-Seidel loop over
// per-element deviatoric and volume constraints; the parallel strategy is a
// Jacobi-style shape-matching formulation that runs its passes over a
// worker pool and produces the same result for any worker count.
package softbody

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/squish/mesh"
)

// Body is one simulated deformable object. It owns its particle state and
// solver scratch; bodies never interact. Methods are not safe for
// concurrent use, the expected pattern is one goroutine stepping all bodies.
type Body struct {
	topo   *topology
	st     *state
	solver ConstraintSolver
	pool   *pool

	grab grabState
}

// NewBody builds a body at rest in the mesh's current configuration. The
// mesh supplies both the rest state and the initial positions. Density and
// the solver strategy are taken from p once; later Simulate calls may vary
// the remaining parameters freely.
func NewBody(m mesh.TetMesh, p Params) (*Body, error) {
	topo, invMass, err := newTopology(m, p.Density)
	if err != nil {
		return nil, err
	}
	st := newState(m, invMass)
	solver, pl := newSolver(p.Solver, p.Workers, topo, st)
	return &Body{topo: topo, st: st, solver: solver, pool: pl}, nil
}

// Close releases the worker pool, if any. The body must not be stepped
// afterward.
func (b *Body) Close() {
	if b.pool != nil {
		b.pool.stop()
	}
}

// Simulate advances the body by one substep of length dt. Callers run it
// p.Substeps times per frame and call EndFrame once afterward.
func (b *Body) Simulate(dt float64, p Params) {
	if dt <= 0 || b.topo.numParticles == 0 {
		return
	}
	b.integrate(dt, p)
	b.solver.Solve(dt, p)
	b.collide(dt, p)
	b.finalizeVelocities(dt)
}

// EndFrame publishes the live positions into the read snapshot consumed by
// rendering, streaming and grab picking.
func (b *Body) EndFrame() {
	copy(b.st.snapshot, b.st.pos)
}

// integrate predicts positions: remember the previous position, apply
// gravity to the velocity and step. Pinned particles only refresh prev.
func (b *Body) integrate(dt float64, p Params) {
	g := r3.Vec{Y: p.Gravity}
	b.forParticles(func(start, end int) {
		for i := start; i < end; i++ {
			b.st.prev[i] = b.st.pos[i]
			if b.st.invMass[i] == 0 {
				continue
			}
			b.st.vel[i] = r3.Add(b.st.vel[i], r3.Scale(dt, g))
			b.st.pos[i] = r3.Add(b.st.pos[i], r3.Scale(dt, b.st.vel[i]))
		}
	})
}

// collide clamps particles into the world bounds and applies floor friction.
// The floor snap writes y to exactly zero so resting contact is stable. The
// grab override runs last and unconditionally, so a grabbed particle can be
// dragged outside the bounds.
func (b *Body) collide(dt float64, p Params) {
	bounds := p.WorldBounds
	friction := math.Min(1, dt*p.Friction)
	b.forParticles(func(start, end int) {
		for i := start; i < end; i++ {
			if b.st.invMass[i] == 0 {
				continue
			}
			pos := b.st.pos[i]
			pos.X = clamp(pos.X, bounds.Min.X, bounds.Max.X)
			pos.Y = clamp(pos.Y, bounds.Min.Y, bounds.Max.Y)
			pos.Z = clamp(pos.Z, bounds.Min.Z, bounds.Max.Z)
			if pos.Y <= 0 {
				pos.Y = 0
				prev := b.st.prev[i]
				pos.X += friction * (prev.X - pos.X)
				pos.Z += friction * (prev.Z - pos.Z)
			}
			b.st.pos[i] = pos
		}
	})
	if b.grab.active {
		b.st.pos[b.grab.id] = b.grab.target
	}
}

// finalizeVelocities derives velocities from the corrected positions. A
// grabbed particle picks up fling velocity here for free when released.
func (b *Body) finalizeVelocities(dt float64) {
	inv := 1 / dt
	b.forParticles(func(start, end int) {
		for i := start; i < end; i++ {
			b.st.vel[i] = r3.Scale(inv, r3.Sub(b.st.pos[i], b.st.prev[i]))
		}
	})
}

func (b *Body) forParticles(fn func(start, end int)) {
	if b.pool != nil {
		b.pool.run(b.topo.numParticles, fn)
		return
	}
	fn(0, b.topo.numParticles)
}

// NumParticles returns the particle count.
func (b *Body) NumParticles() int { return b.topo.numParticles }

// NumElements returns the tetrahedral element count.
func (b *Body) NumElements() int { return b.topo.numElements() }

// Positions returns the snapshot published by the last EndFrame. The slice
// is owned by the body; callers must not mutate it.
func (b *Body) Positions() []r3.Vec { return b.st.snapshot }

// Edges returns the unique rest edges as index pairs, for wireframes.
func (b *Body) Edges() []int32 { return b.topo.edgeIds }

// Solver names the strategy fixed at construction.
func (b *Body) Solver() string { return b.solver.Name() }

// InverseMass returns particle i's inverse mass.
func (b *Body) InverseMass(i int) float64 { return b.st.invMass[i] }

// SetInverseMass pins (w = 0) or frees a particle. Pinning also zeroes the
// velocity so a later unpin does not resume stale motion.
func (b *Body) SetInverseMass(i int, w float64) {
	b.st.invMass[i] = w
	if w == 0 {
		b.st.vel[i] = r3.Vec{}
	}
}

// Squash flattens every free particle down to the given height and zeroes
// its velocity. Constraint projection restores the rest shape over the
// following frames, which makes this a handy recovery stress test. The
// snapshot is republished so the flattened pose is visible immediately.
func (b *Body) Squash(height float64) {
	for i := range b.st.pos {
		if b.st.invMass[i] == 0 {
			continue
		}
		if b.st.pos[i].Y > height {
			b.st.pos[i].Y = height
		}
		b.st.prev[i] = b.st.pos[i]
		b.st.vel[i] = r3.Vec{}
	}
	b.EndFrame()
}

// VolumeError reports the mean and maximum |det(F)-1| over all elements,
// the per-substep measure of volume preservation.
func (b *Body) VolumeError() (mean, max float64) {
	n := b.topo.numElements()
	if n == 0 {
		return 0, 0
	}
	sum := 0.0
	for e := 0; e < n; e++ {
		f0, f1, f2 := b.topo.deformation(b.st.pos, e)
		err := math.Abs(r3.Dot(f0, r3.Cross(f1, f2)) - 1)
		sum += err
		if err > max {
			max = err
		}
	}
	return sum / float64(n), max
}

// KineticEnergy sums 1/2 m v^2 over all free particles.
func (b *Body) KineticEnergy() float64 {
	ke := 0.0
	for i, w := range b.st.invMass {
		if w == 0 {
			continue
		}
		ke += 0.5 / w * r3.Norm2(b.st.vel[i])
	}
	return ke
}

// MaxSpeed returns the largest particle speed, a cheap explosion detector.
func (b *Body) MaxSpeed() float64 {
	max := 0.0
	for i := range b.st.vel {
		if s := r3.Norm(b.st.vel[i]); s > max {
			max = s
		}
	}
	return max
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
