// Package main benchmarks the two constraint solvers against each other on
// beam lattices of increasing size. Bodies are dropped onto the floor so the
// runs exercise integration, constraint projection and collision response,
// not just the solver inner loop.
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/pthm-cable/squish/mesh"
	"github.com/pthm-cable/squish/softbody"
)

type result struct {
	Shape      string
	Solver     string
	Particles  int
	Elements   int
	Frames     int
	Elapsed    time.Duration
	MsPerFrame float64
	VolErrMean float64
}

func main() {
	// CLI flags
	sizes := flag.String("sizes", "2x2x2,4x4x4,8x4x4", "Comma-separated beam sizes (cells per axis)")
	cell := flag.Float64("cell", 0.25, "Beam cell edge length in meters")
	frames := flag.Int("frames", 240, "Timed frames per run")
	warmup := flag.Int("warmup", 20, "Untimed warmup frames per run")
	substeps := flag.Int("substeps", 10, "Substeps per frame")
	workers := flag.Int("workers", 0, "Parallel solver worker count (0 = GOMAXPROCS)")
	output := flag.String("output", "", "Optional CSV output path")
	flag.Parse()

	shapes, err := parseSizes(*sizes)
	if err != nil {
		log.Fatalf("invalid -sizes: %v", err)
	}

	var csvWriter *csv.Writer
	if *output != "" {
		f, err := os.Create(*output)
		if err != nil {
			log.Fatalf("failed to create output file: %v", err)
		}
		defer f.Close()

		csvWriter = csv.NewWriter(f)
		defer csvWriter.Flush()
		csvWriter.Write([]string{"shape", "solver", "particles", "tets", "frames", "ms_per_frame", "vol_err_mean"})
	}

	fmt.Printf("Benchmarking %d frames x %d substeps per run, warmup %d frames\n\n",
		*frames, *substeps, *warmup)
	fmt.Printf("%-10s %-12s %10s %8s %12s %12s\n",
		"shape", "solver", "particles", "tets", "ms/frame", "vol err")

	strategies := []softbody.Strategy{softbody.StrategySequential, softbody.StrategyParallel}

	for _, sh := range shapes {
		var perShape []result
		for _, strat := range strategies {
			res, err := runBench(sh, *cell, strat, *frames, *warmup, *substeps, *workers)
			if err != nil {
				log.Fatalf("bench %s/%s: %v", shapeName(sh), strat, err)
			}
			perShape = append(perShape, res)

			fmt.Printf("%-10s %-12s %10d %8d %12.3f %12.5f\n",
				res.Shape, res.Solver, res.Particles, res.Elements, res.MsPerFrame, res.VolErrMean)

			if csvWriter != nil {
				csvWriter.Write([]string{
					res.Shape,
					res.Solver,
					strconv.Itoa(res.Particles),
					strconv.Itoa(res.Elements),
					strconv.Itoa(res.Frames),
					fmt.Sprintf("%.4f", res.MsPerFrame),
					fmt.Sprintf("%.6f", res.VolErrMean),
				})
				csvWriter.Flush()
			}
		}

		if len(perShape) == 2 && perShape[1].MsPerFrame > 0 {
			fmt.Printf("%-10s speedup (sequential/parallel): %.2fx\n\n",
				perShape[0].Shape, perShape[0].MsPerFrame/perShape[1].MsPerFrame)
		}
	}
}

func runBench(sh [3]int, cell float64, strat softbody.Strategy, frames, warmup, substeps, workers int) (result, error) {
	m := mesh.Beam(sh[0], sh[1], sh[2], cell).Translated(r3.Vec{Y: 0.5})

	p := softbody.Params{
		Gravity:       -9.81,
		TimeStep:      1.0 / 60.0,
		Substeps:      substeps,
		Friction:      500,
		Density:       1000,
		DevCompliance: 0,
		VolCompliance: 0,
		WorldBounds: r3.Box{
			Min: r3.Vec{X: -10, Y: 0, Z: -10},
			Max: r3.Vec{X: 10, Y: 20, Z: 10},
		},
		Solver:  strat,
		Workers: workers,
	}

	body, err := softbody.NewBody(m, p)
	if err != nil {
		return result{}, err
	}
	defer body.Close()

	dt := p.Dt()
	for f := 0; f < warmup; f++ {
		for s := 0; s < substeps; s++ {
			body.Simulate(dt, p)
		}
	}

	start := time.Now()
	for f := 0; f < frames; f++ {
		for s := 0; s < substeps; s++ {
			body.Simulate(dt, p)
		}
	}
	elapsed := time.Since(start)

	body.EndFrame()
	volMean, _ := body.VolumeError()

	return result{
		Shape:      shapeName(sh),
		Solver:     strat.String(),
		Particles:  body.NumParticles(),
		Elements:   body.NumElements(),
		Frames:     frames,
		Elapsed:    elapsed,
		MsPerFrame: elapsed.Seconds() * 1000 / float64(frames),
		VolErrMean: volMean,
	}, nil
}

// parseSizes turns "2x2x2,4x4x4" into cell counts per axis.
func parseSizes(s string) ([][3]int, error) {
	var out [][3]int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		dims := strings.Split(part, "x")
		if len(dims) != 3 {
			return nil, fmt.Errorf("%q is not of the form NXxNYxNZ", part)
		}
		var sh [3]int
		for i, d := range dims {
			n, err := strconv.Atoi(d)
			if err != nil || n < 1 {
				return nil, fmt.Errorf("%q is not of the form NXxNYxNZ", part)
			}
			sh[i] = n
		}
		out = append(out, sh)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no sizes given")
	}
	return out, nil
}

func shapeName(sh [3]int) string {
	return fmt.Sprintf("%dx%dx%d", sh[0], sh[1], sh[2])
}
