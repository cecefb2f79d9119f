package softbody

import (
	"runtime"
	"testing"
)

func TestPoolCoversRange(t *testing.T) {
	const n = 1000
	pl := newPool(4)
	defer pl.stop()

	counts := make([]int32, n)
	pl.run(n, func(start, end int) {
		for i := start; i < end; i++ {
			counts[i]++
		}
	})
	for i, c := range counts {
		if c != 1 {
			t.Fatalf("index %d processed %d times", i, c)
		}
	}

	// Reuse with a different closure.
	marks := make([]bool, n)
	pl.run(n, func(start, end int) {
		for i := start; i < end; i++ {
			marks[i] = true
		}
	})
	for i, m := range marks {
		if !m {
			t.Fatalf("index %d missed on reuse", i)
		}
	}
}

func TestPoolSmallRangeRunsInline(t *testing.T) {
	pl := newPool(4)
	defer pl.stop()

	counts := make([]int32, parallelThreshold-1)
	pl.run(len(counts), func(start, end int) {
		for i := start; i < end; i++ {
			counts[i]++
		}
	})
	if pl.running {
		t.Error("small range should not spin up workers")
	}
	for i, c := range counts {
		if c != 1 {
			t.Fatalf("index %d processed %d times", i, c)
		}
	}
}

func TestPoolSingleWorkerStaysInline(t *testing.T) {
	pl := newPool(1)
	defer pl.stop()

	hits := 0
	pl.run(10*parallelThreshold, func(start, end int) {
		hits += end - start
	})
	if pl.running {
		t.Error("single-worker pool should run inline")
	}
	if hits != 10*parallelThreshold {
		t.Errorf("processed %d indices, want %d", hits, 10*parallelThreshold)
	}
}

func TestPoolUnevenChunks(t *testing.T) {
	// 100 indices over 3 workers: chunk size 34 leaves a short tail.
	pl := newPool(3)
	defer pl.stop()

	counts := make([]int32, 100)
	pl.run(len(counts), func(start, end int) {
		for i := start; i < end; i++ {
			counts[i]++
		}
	})
	for i, c := range counts {
		if c != 1 {
			t.Fatalf("index %d processed %d times", i, c)
		}
	}
}

func TestPoolDefaultWorkers(t *testing.T) {
	pl := newPool(0)
	if pl.numWorkers != runtime.GOMAXPROCS(0) {
		t.Errorf("numWorkers = %d, want GOMAXPROCS %d", pl.numWorkers, runtime.GOMAXPROCS(0))
	}
}

func TestPoolStopIdempotent(t *testing.T) {
	pl := newPool(2)
	pl.run(parallelThreshold*2, func(start, end int) {})
	pl.stop()
	pl.stop()
}
