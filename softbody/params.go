package softbody

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"
)

// Strategy selects the constraint solver implementation for a body.
type Strategy uint8

const (
	// StrategySequential traverses elements in order against the live
	// position buffer (Gauss-Seidel).
	StrategySequential Strategy = iota
	// StrategyParallel runs the order-independent shape-matching
	// formulation over a worker pool (Jacobi).
	StrategyParallel
)

func (s Strategy) String() string {
	switch s {
	case StrategySequential:
		return "sequential"
	case StrategyParallel:
		return "parallel"
	}
	return fmt.Sprintf("Strategy(%d)", uint8(s))
}

// ParseStrategy maps a config string onto a Strategy.
func ParseStrategy(name string) (Strategy, error) {
	switch name {
	case "sequential":
		return StrategySequential, nil
	case "parallel":
		return StrategyParallel, nil
	}
	return StrategySequential, fmt.Errorf("softbody: unknown solver strategy %q", name)
}

// Params drives construction and every substep. Density and the solver
// fields are consumed once, at construction; the rest may change between
// frames (slider input, streamed updates) but never mid-substep.
type Params struct {
	Gravity       float64 // y acceleration, negative pulls down
	TimeStep      float64 // frame timestep in seconds
	Substeps      int     // Simulate calls per frame
	Friction      float64 // floor friction coefficient
	Density       float64 // rest mass density
	DevCompliance float64 // deviatoric (shape) compliance, 0 = rigid shape
	VolCompliance float64 // volumetric compliance, 0 = incompressible
	WorldBounds   r3.Box

	Solver  Strategy
	Workers int // parallel worker count, 0 = GOMAXPROCS
}

// Dt returns the per-substep timestep.
func (p Params) Dt() float64 {
	if p.Substeps <= 0 {
		return p.TimeStep
	}
	return p.TimeStep / float64(p.Substeps)
}

// volumeBias is the det(F) offset of the volume constraint that compensates
// the rest-state pull of the deviatoric term. Zero when the deviatoric
// constraint is fully rigid.
func (p Params) volumeBias() float64 {
	if p.DevCompliance <= 0 {
		return 0
	}
	return p.VolCompliance / p.DevCompliance
}
