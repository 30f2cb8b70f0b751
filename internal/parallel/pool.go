// Package parallel provides the worker pool the software device shades
// with.
package parallel

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// minBandRows is the smallest band handed to a worker. Smaller targets are
// shaded inline, where goroutine handoff would dominate.
const minBandRows = 8

// WorkerPool is a fixed set of goroutines executing batches of work.
//
// Each worker owns a queue and steals from the others when its own queue
// is empty, which keeps bands of uneven cost balanced.
//
// Thread safety: ExecuteAll and Rows may be called concurrently; Close
// must not race with them.
type WorkerPool struct {
	workers    int
	workQueues []chan func()
	done       chan struct{}
	wg         sync.WaitGroup
	running    atomic.Bool
}

// NewWorkerPool starts a pool with the given number of workers.
// If workers is 0 or negative, GOMAXPROCS is used.
func NewWorkerPool(workers int) *WorkerPool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	queueSize := max(workers*4, 8)

	p := &WorkerPool{
		workers:    workers,
		workQueues: make([]chan func(), workers),
		done:       make(chan struct{}),
	}
	for i := range workers {
		p.workQueues[i] = make(chan func(), queueSize)
	}
	p.running.Store(true)

	p.wg.Add(workers)
	for i := range workers {
		go p.worker(i)
	}
	return p
}

func (p *WorkerPool) worker(id int) {
	defer p.wg.Done()

	own := p.workQueues[id]
	for {
		select {
		case <-p.done:
			return
		case work := <-own:
			work()
			continue
		default:
		}

		if stolen := p.steal(id); stolen != nil {
			stolen()
			continue
		}

		select {
		case <-p.done:
			return
		case work := <-own:
			work()
		}
	}
}

func (p *WorkerPool) steal(id int) func() {
	for i := range p.workers {
		if i == id {
			continue
		}
		select {
		case work := <-p.workQueues[i]:
			return work
		default:
		}
	}
	return nil
}

// ExecuteAll runs every function and waits for all of them to return.
// A closed pool runs the work on the calling goroutine.
func (p *WorkerPool) ExecuteAll(work []func()) {
	if len(work) == 0 {
		return
	}
	if !p.running.Load() {
		for _, fn := range work {
			fn()
		}
		return
	}

	var completion sync.WaitGroup
	completion.Add(len(work))
	for i, fn := range work {
		wrapped := func() {
			defer completion.Done()
			fn()
		}
		select {
		case p.workQueues[i%p.workers] <- wrapped:
		case <-p.done:
			wrapped()
		}
	}
	completion.Wait()
}

// Rows splits the half-open row range [y0, y1) into contiguous bands and
// calls fn once per band, in parallel, returning when all bands are done.
// Bands never overlap, so fn may write rows of its band without locking.
func (p *WorkerPool) Rows(y0, y1 int, fn func(y0, y1 int)) {
	rows := y1 - y0
	if rows <= 0 {
		return
	}
	bands := min(p.workers*2, rows/minBandRows)
	if bands <= 1 {
		fn(y0, y1)
		return
	}

	work := make([]func(), 0, bands)
	for b := range bands {
		start := y0 + rows*b/bands
		end := y0 + rows*(b+1)/bands
		work = append(work, func() { fn(start, end) })
	}
	p.ExecuteAll(work)
}

// Close stops the workers. Close is safe to call multiple times.
func (p *WorkerPool) Close() {
	if !p.running.CompareAndSwap(true, false) {
		return
	}
	close(p.done)
	p.wg.Wait()
}

// Workers returns the number of workers in the pool.
func (p *WorkerPool) Workers() int {
	return p.workers
}

// IsRunning reports whether the pool still has live workers.
func (p *WorkerPool) IsRunning() bool {
	return p.running.Load()
}
