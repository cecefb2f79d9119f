package game

import (
	"fmt"
	"log/slog"

	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/squish/components"
	"github.com/pthm-cable/squish/config"
	"github.com/pthm-cable/squish/mesh"
	"github.com/pthm-cable/squish/softbody"
	"github.com/pthm-cable/squish/telemetry"
)

// spawnBodies creates one entity per configured body instance. Instances of
// the same config entry stack upward with the configured spacing.
func (g *Game) spawnBodies() error {
	palette := components.Palette()
	idx := 0
	for _, bc := range g.cfg.Bodies {
		base, err := buildMesh(bc)
		if err != nil {
			return err
		}
		for i := 0; i < bc.Count; i++ {
			offset := r3.Vec{X: bc.Position[0], Y: bc.Position[1] + float64(i)*bc.Spacing, Z: bc.Position[2]}
			m := base.Translated(offset)
			body, err := softbody.NewBody(m, g.params)
			if err != nil {
				return fmt.Errorf("spawn %s: %w", bc.Name, err)
			}
			body.EndFrame()

			name := bc.Name
			if bc.Count > 1 {
				name = fmt.Sprintf("%s-%d", bc.Name, i)
			}
			sb := components.SoftBody{Body: body, Rest: m, Surface: mesh.SurfaceTriangles(m.TetIds)}
			style := palette[idx%len(palette)]
			label := components.Label{Name: name}
			g.bodyMapper.NewEntity(&sb, &style, &label)

			g.numBodies++
			g.numParticles += body.NumParticles()
			g.numElements += body.NumElements()
			idx++
		}
	}
	return nil
}

// buildMesh constructs the rest mesh for one body config entry.
func buildMesh(bc config.BodyConfig) (mesh.TetMesh, error) {
	switch bc.Shape {
	case "beam":
		return mesh.Beam(bc.NX, bc.NY, bc.NZ, bc.Cell), nil
	case "tet":
		return mesh.RegularTet(bc.Cell), nil
	case "pair":
		return mesh.FacePair(), nil
	default:
		return mesh.TetMesh{}, fmt.Errorf("unknown body shape %q", bc.Shape)
	}
}

// closeBodies releases every body's solver resources without respawning.
func (g *Game) closeBodies() {
	g.endGrab()
	var entities []ecs.Entity
	query := g.bodyFilter.Query()
	for query.Next() {
		sb, _, _ := query.Get()
		sb.Body.Close()
		entities = append(entities, query.Entity())
	}
	for _, e := range entities {
		g.world.RemoveEntity(e)
	}
	g.numBodies, g.numParticles, g.numElements = 0, 0, 0
}

// respawnAll rebuilds the scene from config with the given solver strategy.
// This is both the reset path and the solver hot-swap path, a strategy is
// fixed per body at construction.
func (g *Game) respawnAll(strategy softbody.Strategy) {
	g.closeBodies()
	g.params.Solver = strategy
	if err := g.spawnBodies(); err != nil {
		// The same config spawned at startup, so this only fires after a
		// live parameter change made a mesh degenerate.
		slog.Error("respawn failed", "error", err)
	}
	g.publishScene()
}

// reset restores every body to its spawn configuration.
func (g *Game) reset() {
	g.collector.RecordReset()
	g.respawnAll(g.params.Solver)
}

// switchSolver respawns the scene with the other constraint solver.
func (g *Game) switchSolver() {
	next := softbody.StrategyParallel
	if g.params.Solver == softbody.StrategyParallel {
		next = softbody.StrategySequential
	}
	g.collector.RecordSolverSwitch()
	g.respawnAll(next)
	slog.Info("solver switched", "solver", next.String())
}

// squashAll flattens every body to the floor to exercise shape recovery.
func (g *Game) squashAll() {
	g.collector.RecordSquash()
	query := g.bodyFilter.Query()
	for query.Next() {
		sb, _, _ := query.Get()
		sb.Body.Squash(squashHeight)
	}
}

// sceneShape summarizes the current scene for telemetry windows.
func (g *Game) sceneShape() telemetry.SceneShape {
	return telemetry.SceneShape{
		Bodies:    g.numBodies,
		Particles: g.numParticles,
		Elements:  g.numElements,
		Solver:    g.params.Solver.String(),
	}
}
