package softbody

import (
	"runtime"
	"sync"
)

// parallelThreshold is the minimum range size worth dispatching to the
// pool. Below it the channel handoff costs more than the work.
const parallelThreshold = 64

// workChunk is a half-open index range processed by one worker.
type workChunk struct {
	start int
	end   int
}

// pool runs per-pass closures over index ranges using persistent workers.
// run blocks until every chunk reports back, which is the barrier between
// solver passes. A pool serves one body; run must not be called
// concurrently.
type pool struct {
	numWorkers int
	job        func(start, end int)

	workChan chan workChunk
	doneChan chan struct{}
	stopChan chan struct{}
	wg       sync.WaitGroup
	running  bool
}

func newPool(workers int) *pool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &pool{numWorkers: workers}
}

func (p *pool) start() {
	if p.running {
		return
	}
	p.workChan = make(chan workChunk, p.numWorkers)
	p.doneChan = make(chan struct{}, p.numWorkers)
	p.stopChan = make(chan struct{})
	p.running = true

	for i := 0; i < p.numWorkers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
}

func (p *pool) stop() {
	if !p.running {
		return
	}
	close(p.stopChan)
	p.wg.Wait()
	p.running = false
}

func (p *pool) worker() {
	defer p.wg.Done()
	for {
		select {
		case <-p.stopChan:
			return
		case chunk := <-p.workChan:
			p.job(chunk.start, chunk.end)
			p.doneChan <- struct{}{}
		}
	}
}

// run executes fn over [0, n). Small ranges and single-worker pools run
// inline; the result is identical either way because every index is
// processed exactly once and fn never races with itself across chunks.
func (p *pool) run(n int, fn func(start, end int)) {
	if n <= 0 {
		return
	}
	if n < parallelThreshold || p.numWorkers == 1 {
		fn(0, n)
		return
	}
	if !p.running {
		p.start()
	}

	// The chunk sends below publish this write to the workers.
	p.job = fn

	chunkSize := (n + p.numWorkers - 1) / p.numWorkers
	dispatched := 0
	for w := 0; w < p.numWorkers; w++ {
		start := w * chunkSize
		end := start + chunkSize
		if end > n {
			end = n
		}
		if start >= end {
			break
		}
		p.workChan <- workChunk{start: start, end: end}
		dispatched++
	}
	for i := 0; i < dispatched; i++ {
		<-p.doneChan
	}
}
