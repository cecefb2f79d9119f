// Package config provides configuration loading and access for the simulation.
package config

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all simulation configuration parameters.
type Config struct {
	Screen    ScreenConfig    `yaml:"screen"`
	Physics   PhysicsConfig   `yaml:"physics"`
	Camera    CameraConfig    `yaml:"camera"`
	Render    RenderConfig    `yaml:"render"`
	Bodies    []BodyConfig    `yaml:"bodies"`
	Grab      GrabConfig      `yaml:"grab"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Stream    StreamConfig    `yaml:"stream"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// ScreenConfig holds display settings.
type ScreenConfig struct {
	Width     int `yaml:"width"`
	Height    int `yaml:"height"`
	TargetFPS int `yaml:"target_fps"`
}

// PhysicsConfig holds the per-frame simulation parameters. Most fields feed
// straight into the solver and may be changed live through sliders or the
// stream; density and solver are fixed per body at spawn time.
type PhysicsConfig struct {
	Gravity       float64 `yaml:"gravity"`        // y acceleration, negative pulls down
	TimeStep      float64 `yaml:"time_step"`      // frame timestep in seconds
	Substeps      int     `yaml:"substeps"`       // solver substeps per frame
	Friction      float64 `yaml:"friction"`       // floor friction coefficient
	Density       float64 `yaml:"density"`        // rest mass density
	DevCompliance float64 `yaml:"dev_compliance"` // deviatoric compliance, 0 = rigid shape
	VolCompliance float64 `yaml:"vol_compliance"` // volumetric compliance, 0 = incompressible

	// World bounds as [minX minY minZ maxX maxY maxZ]. The floor plane
	// sits at y = 0 regardless; keep minY at or below 0.
	WorldBounds []float64 `yaml:"world_bounds"`

	Solver  string `yaml:"solver"`  // "sequential" or "parallel"
	Workers int    `yaml:"workers"` // parallel worker count, 0 = GOMAXPROCS
}

// CameraConfig holds the initial orbit camera pose.
type CameraConfig struct {
	Distance float64   `yaml:"distance"`
	Yaw      float64   `yaml:"yaw"`   // radians around y
	Pitch    float64   `yaml:"pitch"` // radians above horizon
	Target   []float64 `yaml:"target"`
	FovY     float64   `yaml:"fov_y"` // vertical field of view, degrees
}

// RenderConfig holds draw-pass toggles.
type RenderConfig struct {
	Wireframe bool `yaml:"wireframe"`
	Surface   bool `yaml:"surface"`
	Floor     bool `yaml:"floor"`
}

// BodyConfig describes one spawned body or a vertical stack of them.
type BodyConfig struct {
	Name  string `yaml:"name"`
	Shape string `yaml:"shape"` // "beam", "tet" or "pair"

	// Beam dimensions, cells per axis
	NX   int     `yaml:"nx"`
	NY   int     `yaml:"ny"`
	NZ   int     `yaml:"nz"`
	Cell float64 `yaml:"cell"` // cell edge length ("tet" uses it as edge)

	Position []float64 `yaml:"position"` // world offset of the mesh origin
	Count    int       `yaml:"count"`    // instances stacked upward
	Spacing  float64   `yaml:"spacing"`  // vertical gap between instances
}

// GrabConfig holds mouse grab parameters.
type GrabConfig struct {
	PickRadius float64 `yaml:"pick_radius"` // max distance from ray hit to a particle
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	StatsWindow         float64 `yaml:"stats_window"`
	PerfCollectorWindow int     `yaml:"perf_collector_window"`
}

// StreamConfig holds the websocket streaming parameters.
type StreamConfig struct {
	Enabled       bool   `yaml:"enabled"`
	Addr          string `yaml:"addr"`
	FrameInterval int    `yaml:"frame_interval"` // broadcast every N frames
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	Dt        float64 // per-substep timestep
	DT32      float32 // frame timestep as float32
	ScreenW32 float32
	ScreenH32 float32
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if
// path is empty. Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	// Start with embedded defaults
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	// Load user config if provided
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	// Compute derived values
	cfg.computeDerived()

	return cfg, nil
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	substeps := c.Physics.Substeps
	if substeps < 1 {
		substeps = 1
	}
	c.Derived.Dt = c.Physics.TimeStep / float64(substeps)
	c.Derived.DT32 = float32(c.Physics.TimeStep)
	c.Derived.ScreenW32 = float32(c.Screen.Width)
	c.Derived.ScreenH32 = float32(c.Screen.Height)

	if len(c.Physics.WorldBounds) != 6 {
		c.Physics.WorldBounds = []float64{-2.5, 0, -2.5, 2.5, 5, 2.5}
	}
	if len(c.Camera.Target) != 3 {
		c.Camera.Target = []float64{0, 0.8, 0}
	}

	// Synthesize a default scene if none specified
	if len(c.Bodies) == 0 {
		c.Bodies = []BodyConfig{
			{
				Name:     "beam",
				Shape:    "beam",
				NX:       5,
				NY:       2,
				NZ:       2,
				Cell:     0.25,
				Position: []float64{-0.625, 1.5, -0.25},
			},
		}
	}

	// Apply defaults to bodies that don't specify all fields
	for i := range c.Bodies {
		b := &c.Bodies[i]
		if b.Shape == "" {
			b.Shape = "beam"
		}
		if b.Cell == 0 {
			b.Cell = 0.25
		}
		if b.NX == 0 {
			b.NX = 3
		}
		if b.NY == 0 {
			b.NY = 2
		}
		if b.NZ == 0 {
			b.NZ = 2
		}
		if b.Count == 0 {
			b.Count = 1
		}
		if b.Spacing == 0 {
			b.Spacing = 0.3
		}
		if len(b.Position) != 3 {
			b.Position = []float64{0, 1, 0}
		}
		if b.Name == "" {
			b.Name = fmt.Sprintf("%s-%d", b.Shape, i)
		}
	}
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
