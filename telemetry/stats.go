package telemetry

import (
	"log/slog"
	"math"
	"sort"
)

// WindowStats holds aggregated simulation statistics for a time window.
type WindowStats struct {
	WindowStartTick int32   `csv:"-"`
	WindowEndTick   int32   `csv:"window_end"`
	SimTimeSec      float64 `csv:"sim_time"`

	// Scene shape at window end
	Bodies    int    `csv:"bodies"`
	Particles int    `csv:"particles"`
	Elements  int    `csv:"elements"`
	Solver    string `csv:"solver"`

	// Interaction events during window
	GrabsStarted   int `csv:"grabs_started"`
	GrabsReleased  int `csv:"grabs_released"`
	Resets         int `csv:"resets"`
	Squashes       int `csv:"squashes"`
	SolverSwitches int `csv:"solver_switches"`

	// Substeps executed during window
	Substeps int `csv:"substeps"`

	// Volume preservation, sampled once per frame across all bodies
	VolErrMean float64 `csv:"vol_err_mean"`
	VolErrStd  float64 `csv:"vol_err_std"`
	VolErrP50  float64 `csv:"vol_err_p50"`
	VolErrP90  float64 `csv:"vol_err_p90"`
	VolErrMax  float64 `csv:"vol_err_max"`

	// Kinetic energy distribution over the window's frame samples
	KineticMean float64 `csv:"ke_mean"`
	KineticP10  float64 `csv:"ke_p10"`
	KineticP50  float64 `csv:"ke_p50"`
	KineticP90  float64 `csv:"ke_p90"`

	// Largest particle speed seen during the window, the cheap explosion
	// detector
	MaxSpeed float64 `csv:"max_speed"`
}

// Percentile calculates the p-th percentile of a sorted slice.
// p should be in [0, 1]. Returns 0 if slice is empty.
func Percentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if p <= 0 {
		return sorted[0]
	}
	if p >= 1 {
		return sorted[n-1]
	}

	// Linear interpolation
	idx := p * float64(n-1)
	lo := int(idx)
	hi := lo + 1
	if hi >= n {
		return sorted[n-1]
	}

	frac := idx - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// ComputeSampleStats calculates mean and percentiles from sample values.
func ComputeSampleStats(values []float64) (mean, p10, p50, p90 float64) {
	n := len(values)
	if n == 0 {
		return 0, 0, 0, 0
	}

	var sum float64
	for _, v := range values {
		sum += v
	}
	mean = sum / float64(n)

	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	p10 = Percentile(sorted, 0.10)
	p50 = Percentile(sorted, 0.50)
	p90 = Percentile(sorted, 0.90)

	return mean, p10, p50, p90
}

// ComputeSpreadStats calculates mean, std, and percentiles from sample
// values.
func ComputeSpreadStats(values []float64) (mean, std, p50, p90 float64) {
	n := len(values)
	if n == 0 {
		return 0, 0, 0, 0
	}

	var sum float64
	for _, v := range values {
		sum += v
	}
	mean = sum / float64(n)

	var sqDiffSum float64
	for _, v := range values {
		d := v - mean
		sqDiffSum += d * d
	}
	std = math.Sqrt(sqDiffSum / float64(n))

	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	p50 = Percentile(sorted, 0.50)
	p90 = Percentile(sorted, 0.90)

	return mean, std, p50, p90
}

// LogValue implements slog.LogValuer for structured logging.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("window_start", int(s.WindowStartTick)),
		slog.Int("window_end", int(s.WindowEndTick)),
		slog.Float64("sim_time", s.SimTimeSec),
		slog.Int("bodies", s.Bodies),
		slog.Int("particles", s.Particles),
		slog.Int("elements", s.Elements),
		slog.String("solver", s.Solver),
		slog.Int("grabs_started", s.GrabsStarted),
		slog.Int("grabs_released", s.GrabsReleased),
		slog.Int("resets", s.Resets),
		slog.Int("squashes", s.Squashes),
		slog.Int("solver_switches", s.SolverSwitches),
		slog.Int("substeps", s.Substeps),
		slog.Float64("vol_err_mean", s.VolErrMean),
		slog.Float64("vol_err_std", s.VolErrStd),
		slog.Float64("vol_err_p50", s.VolErrP50),
		slog.Float64("vol_err_p90", s.VolErrP90),
		slog.Float64("vol_err_max", s.VolErrMax),
		slog.Float64("ke_mean", s.KineticMean),
		slog.Float64("ke_p10", s.KineticP10),
		slog.Float64("ke_p50", s.KineticP50),
		slog.Float64("ke_p90", s.KineticP90),
		slog.Float64("max_speed", s.MaxSpeed),
	)
}

// LogStats logs the window stats using slog.
func (s WindowStats) LogStats() {
	slog.Info("stats",
		"window_end", s.WindowEndTick,
		"sim_time", s.SimTimeSec,
		"bodies", s.Bodies,
		"particles", s.Particles,
		"elements", s.Elements,
		"solver", s.Solver,
		"grabs_started", s.GrabsStarted,
		"grabs_released", s.GrabsReleased,
		"resets", s.Resets,
		"squashes", s.Squashes,
		"solver_switches", s.SolverSwitches,
		"substeps", s.Substeps,
		"vol_err_mean", s.VolErrMean,
		"vol_err_max", s.VolErrMax,
		"ke_mean", s.KineticMean,
		"max_speed", s.MaxSpeed,
	)
}
