package propcheck

import (
	"fmt"
	"math/rand/v2"
	"runtime"
	"sync"
	"sync/atomic"
	"time"
)

// WorkerPool drives propcheck's generator+checker pairs across many
// goroutines, each owning an independent Compiler+Linker+Machine triple
// end to end (spec §5 [EXPANSION]) — grounded directly on the teacher's
// pkg/search/worker.go WorkerPool: a channel of tasks (here, RNG seeds),
// sync/atomic counters, a ticker goroutine printing progress.
type WorkerPool struct {
	NumWorkers int
	Findings   *Table

	checked atomic.Int64
	found   atomic.Int64
}

// NewWorkerPool creates a pool with the given number of workers (0 =
// runtime.NumCPU).
func NewWorkerPool(numWorkers int) *WorkerPool {
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}
	return &WorkerPool{NumWorkers: numWorkers, Findings: NewTable()}
}

// Stats returns how many rounds have run and how many findings surfaced.
func (wp *WorkerPool) Stats() (checked, found int64) {
	return wp.checked.Load(), wp.found.Load()
}

// Run fuzzes for rounds total rounds split across wp.NumWorkers
// goroutines. Each round gets its own deterministic *rand.Rand seeded
// from baseSeed+index, so a failing round is reproducible from a single
// reported seed without any cross-goroutine RNG sharing (spec §5: "no
// Machine-internal state is ever shared across a goroutine boundary" —
// extended here to the generator driving each worker).
func (wp *WorkerPool) Run(rounds int, baseSeed int64, verbose bool) {
	ch := make(chan int64, rounds)
	for i := 0; i < rounds; i++ {
		ch <- baseSeed + int64(i)
	}
	close(ch)

	done := make(chan struct{})
	if verbose {
		go func() {
			ticker := time.NewTicker(5 * time.Second)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					c, f := wp.Stats()
					fmt.Printf("propcheck: %d rounds checked, %d findings\n", c, f)
				case <-done:
					return
				}
			}
		}()
	}

	var wg sync.WaitGroup
	for i := 0; i < wp.NumWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for seed := range ch {
				wp.runOne(seed)
			}
		}()
	}
	wg.Wait()
	close(done)
}

// runOne generates one program+query pair from seed and runs every
// checker against it, recording any finding.
func (wp *WorkerPool) runOne(seed int64) {
	rng := rand.New(rand.NewPCG(uint64(seed), uint64(seed>>32)+1))
	gen := NewGenerator(rng)

	clauses := gen.RandomClauseSet(3 + rng.IntN(4))
	if rng.IntN(2) == 0 {
		clauses = gen.Mutate(clauses)
	}
	query := gen.RandomQuery(clauses)

	wp.checked.Add(1)

	if finding, err := CheckReplayDeterminism(clauses, query); err == nil && finding != nil {
		wp.found.Add(1)
		wp.Findings.Add(finding)
	}
	if finding, err := CheckCompileByteIdentical(clauses); err == nil && finding != nil {
		wp.found.Add(1)
		wp.Findings.Add(finding)
	}
	if finding, err := CheckInstructionRoundtrip(rng); err == nil && finding != nil {
		wp.found.Add(1)
		wp.Findings.Add(finding)
	}
}
