package game

import (
	"github.com/pthm-cable/squish/stream"
	"github.com/pthm-cable/squish/telemetry"
)

// step advances the simulation by one tick: substep all bodies, publish
// snapshots, sample telemetry and broadcast to stream clients.
func (g *Game) step() {
	dt := g.params.Dt()

	g.perfCollector.StartPhase(telemetry.PhaseSimulate)
	query := g.bodyFilter.Query()
	for query.Next() {
		sb, _, _ := query.Get()
		for s := 0; s < g.params.Substeps; s++ {
			sb.Body.Simulate(dt, g.params)
		}
	}
	g.collector.RecordSubsteps(g.params.Substeps)

	g.perfCollector.StartPhase(telemetry.PhaseReadback)
	g.readback()

	g.perfCollector.StartPhase(telemetry.PhaseTelemetry)
	g.flushTelemetry()

	if g.streamServer != nil {
		g.perfCollector.StartPhase(telemetry.PhaseStream)
		g.streamTick()
	}

	g.tick++
}

// readback publishes every body's position snapshot and folds the frame's
// health sample into the collector. Volume error means are weighted by
// element count so bodies of different sizes average fairly.
func (g *Game) readback() {
	var volSum, volMax, kinetic, speed float64
	elements := 0

	query := g.bodyFilter.Query()
	for query.Next() {
		sb, _, _ := query.Get()
		sb.Body.EndFrame()

		mean, max := sb.Body.VolumeError()
		n := sb.Body.NumElements()
		volSum += mean * float64(n)
		elements += n
		if max > volMax {
			volMax = max
		}
		kinetic += sb.Body.KineticEnergy()
		if s := sb.Body.MaxSpeed(); s > speed {
			speed = s
		}
	}

	volMean := 0.0
	if elements > 0 {
		volMean = volSum / float64(elements)
	}
	g.lastVolErrMean = volMean
	g.lastVolErrMax = volMax
	g.lastKinetic = kinetic
	g.collector.RecordFrameSample(volMean, volMax, kinetic, speed)
}

// publishScene hands the stream server a fresh topology snapshot. Clients
// connecting later receive it as their first message.
func (g *Game) publishScene() {
	if g.streamServer == nil {
		return
	}
	scene := stream.Scene{Solver: g.params.Solver.String()}
	query := g.bodyFilter.Query()
	for query.Next() {
		sb, _, label := query.Get()
		scene.Bodies = append(scene.Bodies, stream.BodyTopology{
			Name:      label.Name,
			Particles: sb.Body.NumParticles(),
			Edges:     sb.Body.Edges(),
			Surface:   sb.Surface,
		})
	}
	g.streamServer.SetScene(scene)
}

// streamTick broadcasts particle positions every configured interval.
func (g *Game) streamTick() {
	interval := int32(g.cfg.Stream.FrameInterval)
	if interval < 1 {
		interval = 1
	}
	if g.tick%interval != 0 || g.streamServer.ClientCount() == 0 {
		return
	}

	frame := stream.Frame{Tick: g.tick, Solver: g.params.Solver.String()}
	query := g.bodyFilter.Query()
	for query.Next() {
		sb, _, label := query.Get()
		pos := sb.Body.Positions()
		coords := make([][3]float64, len(pos))
		for i, p := range pos {
			coords[i] = [3]float64{p.X, p.Y, p.Z}
		}
		frame.Bodies = append(frame.Bodies, stream.BodyFrame{Name: label.Name, Positions: coords})
	}
	g.streamServer.Broadcast(frame)
}
