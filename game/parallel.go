package game

import (
	"errors"
	"runtime"
	"sync"

	"github.com/pthm-cable/natsel/arena"
	"github.com/pthm-cable/natsel/components"
	"github.com/pthm-cable/natsel/dna"
)

// parallelThreshold is the minimum number of due decisions to use the
// worker pool. A single genome run is cheap, so small batches stay on the
// calling goroutine.
const parallelThreshold = 8

// decisionSnapshot captures the read-only inputs of one genome run.
type decisionSnapshot struct {
	Handle arena.Handle
	Genome *dna.Genome
	Pos    components.Position
}

// decision is the outcome applied after the parallel phase.
type decision struct {
	Vel components.Velocity
	Err error
}

// workerScratch holds per-worker reusable state. The machine owns a tape,
// so each worker needs its own.
type workerScratch struct {
	Machine *dna.Machine
}

// workChunk represents a range of snapshots for a worker to process.
type workChunk struct {
	start, end int
}

// parallelState holds resources for parallel decision computation.
type parallelState struct {
	snapshots  []decisionSnapshot
	decisions  []decision
	scratches  []workerScratch
	numWorkers int

	// Worker pool channels
	workChan chan workChunk // sends work to workers
	doneChan chan struct{}  // workers signal completion
	stopChan chan struct{}  // signals workers to exit
	wg       sync.WaitGroup // tracks active workers
	running  bool           // true if workers are running
}

func newParallelState(numWorkers int, limits dna.Limits) *parallelState {
	if numWorkers <= 0 {
		numWorkers = runtime.GOMAXPROCS(0)
	}
	scratches := make([]workerScratch, numWorkers)
	for i := range scratches {
		scratches[i].Machine = dna.NewMachine(limits)
	}
	return &parallelState{
		numWorkers: numWorkers,
		scratches:  scratches,
		snapshots:  make([]decisionSnapshot, 0, 64),
		decisions:  make([]decision, 0, 64),
	}
}

// startWorkers launches persistent worker goroutines.
func (p *parallelState) startWorkers(g *Game) {
	if p.running {
		return
	}

	p.workChan = make(chan workChunk, p.numWorkers)
	p.doneChan = make(chan struct{}, p.numWorkers)
	p.stopChan = make(chan struct{})
	p.running = true

	for i := 0; i < p.numWorkers; i++ {
		p.wg.Add(1)
		go p.worker(g, i)
	}
}

// stopWorkers signals all workers to exit and waits for them.
func (p *parallelState) stopWorkers() {
	if !p.running {
		return
	}

	close(p.stopChan)
	p.wg.Wait()
	close(p.workChan)
	close(p.doneChan)
	p.running = false
}

// worker runs in a goroutine, processing chunks until stopped.
func (p *parallelState) worker(g *Game, workerID int) {
	defer p.wg.Done()
	scratch := &p.scratches[workerID]

	for {
		select {
		case <-p.stopChan:
			return
		case chunk, ok := <-p.workChan:
			if !ok {
				return
			}
			g.decideChunk(chunk.start, chunk.end, scratch)
			p.doneChan <- struct{}{}
		}
	}
}

// updateDecisions ticks every move timer and runs the genomes of the
// creatures whose timer fired.
func (g *Game) updateDecisions(dt float32) {
	p := g.parallel

	// Phase A: tick timers and snapshot due creatures (single-threaded)
	p.snapshots = p.snapshots[:0]
	for h, c := range g.creatures.All() {
		if c.TickMoveTimer(dt) {
			p.snapshots = append(p.snapshots, decisionSnapshot{
				Handle: h,
				Genome: c.Genome(),
				Pos:    c.Body.Pos,
			})
		}
	}

	n := len(p.snapshots)
	if n == 0 {
		return
	}
	if cap(p.decisions) < n {
		p.decisions = make([]decision, n)
	}
	p.decisions = p.decisions[:n]

	// Phase B: run genomes
	if n < parallelThreshold || p.numWorkers == 1 {
		g.decideChunk(0, n, &p.scratches[0])
	} else {
		g.decideParallel(n)
	}

	// Phase C: apply decisions (single-threaded, preserves determinism)
	g.applyDecisions()
}

// decideParallel dispatches work to the worker pool.
func (g *Game) decideParallel(n int) {
	p := g.parallel
	if !p.running {
		p.startWorkers(g)
	}

	chunkSize := (n + p.numWorkers - 1) / p.numWorkers
	dispatched := 0
	for w := 0; w < p.numWorkers; w++ {
		start := w * chunkSize
		end := min(start+chunkSize, n)
		if start >= end {
			continue
		}
		p.workChan <- workChunk{start: start, end: end}
		dispatched++
	}

	for i := 0; i < dispatched; i++ {
		<-p.doneChan
	}
}

// decideChunk runs the genomes for snapshots [i0, i1). It touches only the
// snapshot and decision slots in its range.
func (g *Game) decideChunk(i0, i1 int, scratch *workerScratch) {
	for i := i0; i < i1; i++ {
		snap := &g.parallel.snapshots[i]
		vel, err := components.Decide(snap.Genome, scratch.Machine, snap.Pos, g.rules)
		g.parallel.decisions[i] = decision{Vel: vel, Err: err}
	}
}

// applyDecisions writes the computed velocities back to the creatures.
func (g *Game) applyDecisions() {
	nonTerminating := 0
	for i, snap := range g.parallel.snapshots {
		c := g.creatures.Get(snap.Handle)
		if c == nil {
			continue
		}
		d := g.parallel.decisions[i]
		if errors.Is(d.Err, dna.ErrNonTerminating) {
			nonTerminating++
		}
		c.ApplyDecision(d.Vel, d.Err)
	}
	g.collector.RecordDecisions(len(g.parallel.snapshots), nonTerminating)
}
