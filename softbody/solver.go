package softbody

// ConstraintSolver enforces the element constraints inside a substep.
// Implementations read the predicted positions in the body's state and leave
// corrected positions behind; integration, collision and velocity update
// stay outside. The strategy is fixed at construction, so both
// implementations can keep their scratch buffers for the body's lifetime.
type ConstraintSolver interface {
	Name() string
	Solve(dt float64, p Params)
}

func newSolver(strategy Strategy, workers int, topo *topology, st *state) (ConstraintSolver, *pool) {
	if strategy == StrategyParallel {
		pl := newPool(workers)
		adj := buildAdjacency(topo.numParticles, topo.tetIds)
		return newShapeMatchSolver(topo, st, adj, pl), pl
	}
	return newGaussSeidelSolver(topo, st), nil
}
