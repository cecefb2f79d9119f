package telemetry

// Collector accumulates per-frame samples and interaction events within
// time windows and produces WindowStats.
type Collector struct {
	windowDurationSec   float64
	windowDurationTicks int32
	dt                  float64

	windowStartTick int32

	// Event counters for current window
	grabsStarted   int
	grabsReleased  int
	resets         int
	squashes       int
	solverSwitches int
	substeps       int

	// Per-frame samples
	volErrMeans []float64
	volErrMax   float64
	kinetic     []float64
	maxSpeed    float64
}

// NewCollector creates a new stats collector.
// windowDurationSec: how long each stats window lasts in simulation seconds
// dt: seconds per tick (used for tick-to-time conversion)
func NewCollector(windowDurationSec, dt float64) *Collector {
	ticksPerWindow := int32(windowDurationSec / dt)
	if ticksPerWindow < 1 {
		ticksPerWindow = 1
	}

	return &Collector{
		windowDurationSec:   windowDurationSec,
		windowDurationTicks: ticksPerWindow,
		dt:                  dt,
		windowStartTick:     0,
	}
}

// RecordGrabStart records the beginning of a mouse grab.
func (c *Collector) RecordGrabStart() {
	c.grabsStarted++
}

// RecordGrabEnd records a grab release.
func (c *Collector) RecordGrabEnd() {
	c.grabsReleased++
}

// RecordReset records a scene reset.
func (c *Collector) RecordReset() {
	c.resets++
}

// RecordSquash records a squash impulse.
func (c *Collector) RecordSquash() {
	c.squashes++
}

// RecordSolverSwitch records a solver strategy swap.
func (c *Collector) RecordSolverSwitch() {
	c.solverSwitches++
}

// RecordSubsteps records how many substeps a frame executed.
func (c *Collector) RecordSubsteps(n int) {
	c.substeps += n
}

// RecordFrameSample records one frame's aggregate body measurements.
func (c *Collector) RecordFrameSample(volErrMean, volErrMax, kineticEnergy, maxSpeed float64) {
	c.volErrMeans = append(c.volErrMeans, volErrMean)
	if volErrMax > c.volErrMax {
		c.volErrMax = volErrMax
	}
	c.kinetic = append(c.kinetic, kineticEnergy)
	if maxSpeed > c.maxSpeed {
		c.maxSpeed = maxSpeed
	}
}

// ShouldFlush returns true if enough ticks have passed to flush the window.
func (c *Collector) ShouldFlush(currentTick int32) bool {
	return currentTick-c.windowStartTick >= c.windowDurationTicks
}

// SceneShape describes the scene at flush time.
type SceneShape struct {
	Bodies    int
	Particles int
	Elements  int
	Solver    string
}

// Flush produces a WindowStats and resets counters for the next window.
func (c *Collector) Flush(currentTick int32, scene SceneShape) WindowStats {
	volMean, volStd, volP50, volP90 := ComputeSpreadStats(c.volErrMeans)
	keMean, keP10, keP50, keP90 := ComputeSampleStats(c.kinetic)

	stats := WindowStats{
		WindowStartTick: c.windowStartTick,
		WindowEndTick:   currentTick,
		SimTimeSec:      float64(currentTick) * c.dt,

		Bodies:    scene.Bodies,
		Particles: scene.Particles,
		Elements:  scene.Elements,
		Solver:    scene.Solver,

		GrabsStarted:   c.grabsStarted,
		GrabsReleased:  c.grabsReleased,
		Resets:         c.resets,
		Squashes:       c.squashes,
		SolverSwitches: c.solverSwitches,
		Substeps:       c.substeps,

		VolErrMean: volMean,
		VolErrStd:  volStd,
		VolErrP50:  volP50,
		VolErrP90:  volP90,
		VolErrMax:  c.volErrMax,

		KineticMean: keMean,
		KineticP10:  keP10,
		KineticP50:  keP50,
		KineticP90:  keP90,

		MaxSpeed: c.maxSpeed,
	}

	// Reset for next window
	c.windowStartTick = currentTick
	c.grabsStarted = 0
	c.grabsReleased = 0
	c.resets = 0
	c.squashes = 0
	c.solverSwitches = 0
	c.substeps = 0
	c.volErrMeans = c.volErrMeans[:0]
	c.volErrMax = 0
	c.kinetic = c.kinetic[:0]
	c.maxSpeed = 0

	return stats
}

// WindowDurationTicks returns the number of ticks per window.
func (c *Collector) WindowDurationTicks() int32 {
	return c.windowDurationTicks
}
