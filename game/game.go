// Package game wires the soft-body simulation into an interactive scene:
// ECS entities for the bodies, an orbit camera, mouse grabbing, telemetry
// and the optional websocket stream. The same Game runs windowed and
// headless; only input handling and drawing differ.
package game

import (
	"fmt"
	"log/slog"

	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/squish/camera"
	"github.com/pthm-cable/squish/components"
	"github.com/pthm-cable/squish/config"
	"github.com/pthm-cable/squish/softbody"
	"github.com/pthm-cable/squish/stream"
	"github.com/pthm-cable/squish/telemetry"
	"github.com/pthm-cable/squish/ui"
)

// squashHeight is the y level free particles are flattened to by the squash
// control.
const squashHeight = 0.12

// maxSubsteps caps substep counts coming from sliders or the stream.
const maxSubsteps = 60

// Options configures game construction.
type Options struct {
	Headless       bool
	LogStats       bool
	StatsWindowSec float64 // 0 = use config value
	OutputDir      string  // "" = no CSV output
	StepsPerUpdate int
	Solver         string // override cfg.Physics.Solver when non-empty

	// Config overrides the global config, for embedding the game in
	// benchmarks. Must come from config.Load so derived values are set.
	Config *config.Config

	// StatsCallback receives every flushed telemetry window.
	StatsCallback func(telemetry.WindowStats)
}

// Game holds the complete scene state.
type Game struct {
	world      *ecs.World
	bodyMapper *ecs.Map3[components.SoftBody, components.RenderStyle, components.Label]
	bodyFilter *ecs.Filter3[components.SoftBody, components.RenderStyle, components.Label]

	cfg    *config.Config
	params softbody.Params
	render config.RenderConfig

	camera *camera.Camera
	panel  *ui.Panel
	hud    *ui.HUD

	collector     *telemetry.Collector
	perfCollector *telemetry.PerfCollector
	outputManager *telemetry.OutputManager
	statsCallback func(telemetry.WindowStats)
	logStats      bool

	streamServer *stream.Server

	tick           int32
	paused         bool
	stepOnce       bool
	stepsPerUpdate int
	headless       bool

	grab grabSession

	numBodies    int
	numParticles int
	numElements  int

	// Last frame sample, shown on the HUD.
	lastVolErrMean float64
	lastVolErrMax  float64
	lastKinetic    float64

	screenWidth, screenHeight float32
}

// NewGameWithOptions creates a game, spawns the configured bodies and, when
// streaming is enabled, starts the websocket server.
func NewGameWithOptions(opts Options) (*Game, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Cfg()
	}

	params, err := paramsFromConfig(cfg)
	if err != nil {
		return nil, err
	}
	if opts.Solver != "" {
		strategy, err := softbody.ParseStrategy(opts.Solver)
		if err != nil {
			return nil, err
		}
		params.Solver = strategy
	}

	statsWindow := cfg.Telemetry.StatsWindow
	if opts.StatsWindowSec > 0 {
		statsWindow = opts.StatsWindowSec
	}

	world := ecs.NewWorld()
	g := &Game{
		world:          &world,
		cfg:            cfg,
		params:         params,
		render:         cfg.Render,
		headless:       opts.Headless,
		logStats:       opts.LogStats,
		statsCallback:  opts.StatsCallback,
		stepsPerUpdate: max(opts.StepsPerUpdate, 1),
		screenWidth:    cfg.Derived.ScreenW32,
		screenHeight:   cfg.Derived.ScreenH32,
	}
	g.bodyMapper = ecs.NewMap3[components.SoftBody, components.RenderStyle, components.Label](&world)
	g.bodyFilter = ecs.NewFilter3[components.SoftBody, components.RenderStyle, components.Label](&world)

	g.camera = camera.New(float64(cfg.Screen.Width), float64(cfg.Screen.Height))
	g.applyCameraConfig()

	g.collector = telemetry.NewCollector(statsWindow, cfg.Physics.TimeStep)
	g.perfCollector = telemetry.NewPerfCollector(cfg.Telemetry.PerfCollectorWindow)

	om, err := telemetry.NewOutputManager(opts.OutputDir)
	if err != nil {
		return nil, err
	}
	g.outputManager = om
	if om != nil {
		if err := om.WriteConfig(cfg); err != nil {
			slog.Warn("failed to write config snapshot", "error", err)
		}
	}

	if cfg.Stream.Enabled {
		g.streamServer = stream.NewServer(cfg.Stream.Addr)
		if err := g.streamServer.Start(); err != nil {
			return nil, fmt.Errorf("stream server: %w", err)
		}
	}

	if !opts.Headless {
		g.panel = ui.NewPanel(g.screenWidth-ui.PanelWidth-10, 10)
		g.hud = ui.NewHUD()
	}

	if err := g.spawnBodies(); err != nil {
		g.Unload()
		return nil, err
	}
	g.publishScene()

	slog.Info("scene ready",
		"bodies", g.numBodies,
		"particles", g.numParticles,
		"elements", g.numElements,
		"solver", g.params.Solver.String(),
	)
	return g, nil
}

// Update advances the windowed game by one frame: input, then
// stepsPerUpdate simulation ticks. Draw must follow to close the perf tick.
func (g *Game) Update() {
	g.perfCollector.StartTick()
	g.perfCollector.StartPhase(telemetry.PhaseInput)
	g.applyStreamCommands()
	g.handleInput()
	g.runSteps()
}

// UpdateHeadless advances the game without any raylib calls.
func (g *Game) UpdateHeadless() {
	g.perfCollector.StartTick()
	g.perfCollector.StartPhase(telemetry.PhaseInput)
	g.applyStreamCommands()
	g.runSteps()
	g.perfCollector.EndTick()
}

func (g *Game) runSteps() {
	steps := g.stepsPerUpdate
	if g.paused {
		steps = 0
		if g.stepOnce {
			steps = 1
			g.stepOnce = false
		}
	}
	for i := 0; i < steps; i++ {
		g.step()
	}
}

// Tick returns the current simulation tick.
func (g *Game) Tick() int32 {
	return g.tick
}

// Unload releases bodies, the stream server and open output files.
func (g *Game) Unload() {
	g.closeBodies()
	if g.streamServer != nil {
		g.streamServer.Close()
	}
	if g.outputManager != nil {
		if err := g.outputManager.Close(); err != nil {
			slog.Error("failed to close output files", "error", err)
		}
	}
}

// applyStreamCommands drains control messages from websocket clients. It
// runs on the game goroutine so command handling never races the solver.
func (g *Game) applyStreamCommands() {
	if g.streamServer == nil {
		return
	}
	for _, cmd := range g.streamServer.DrainCommands() {
		switch cmd.Action {
		case "pause":
			g.paused = !g.paused
		case "step":
			if g.paused {
				g.stepOnce = true
			}
		case "reset":
			g.reset()
		case "squash":
			g.squashAll()
		case "solver":
			g.switchSolver()
		case "", "set":
			for name, v := range cmd.Params {
				g.setParam(name, v)
			}
		default:
			slog.Warn("unknown stream command", "action", cmd.Action)
		}
	}
}

// setParam applies a live parameter change by name. Used by the stream;
// the panel sliders write the same fields directly.
func (g *Game) setParam(name string, v float64) {
	switch name {
	case "gravity":
		g.params.Gravity = v
	case "friction":
		g.params.Friction = v
	case "dev_compliance":
		g.params.DevCompliance = v
	case "vol_compliance":
		g.params.VolCompliance = v
	case "substeps":
		if n := int(v); n >= 1 && n <= maxSubsteps {
			g.params.Substeps = n
		}
	default:
		slog.Warn("unknown stream parameter", "name", name)
	}
}

// paramsFromConfig builds solver parameters from the physics config.
func paramsFromConfig(cfg *config.Config) (softbody.Params, error) {
	strategy, err := softbody.ParseStrategy(cfg.Physics.Solver)
	if err != nil {
		return softbody.Params{}, err
	}
	wb := cfg.Physics.WorldBounds
	if len(wb) != 6 {
		return softbody.Params{}, fmt.Errorf("world_bounds needs 6 values, got %d", len(wb))
	}
	return softbody.Params{
		Gravity:       cfg.Physics.Gravity,
		TimeStep:      cfg.Physics.TimeStep,
		Substeps:      cfg.Physics.Substeps,
		Friction:      cfg.Physics.Friction,
		Density:       cfg.Physics.Density,
		DevCompliance: cfg.Physics.DevCompliance,
		VolCompliance: cfg.Physics.VolCompliance,
		WorldBounds: r3.Box{
			Min: r3.Vec{X: wb[0], Y: wb[1], Z: wb[2]},
			Max: r3.Vec{X: wb[3], Y: wb[4], Z: wb[5]},
		},
		Solver:  strategy,
		Workers: cfg.Physics.Workers,
	}, nil
}

// applyCameraConfig resets the orbit camera to the configured pose.
func (g *Game) applyCameraConfig() {
	cc := g.cfg.Camera
	g.camera.Distance = cc.Distance
	g.camera.Yaw = cc.Yaw
	g.camera.Pitch = cc.Pitch
	g.camera.FovY = cc.FovY
	if len(cc.Target) == 3 {
		g.camera.Target = r3.Vec{X: cc.Target[0], Y: cc.Target[1], Z: cc.Target[2]}
	}
}
