// Package parallel provides the worker pool photokit uses for background
// bitmap I/O and for banded CPU rendering.
package parallel

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// WorkerPool runs tasks on a fixed set of goroutines.
//
// Each worker owns a buffered queue and steals from its siblings when its
// own queue is empty, so a slow decode does not hold up the tasks queued
// behind it.
//
// WorkerPool is safe for concurrent use.
type WorkerPool struct {
	queues  []chan func()
	done    chan struct{}
	wg      sync.WaitGroup
	running atomic.Bool
	next    atomic.Uint32
}

// NewWorkerPool starts a pool with n workers. If n is 0 or negative,
// GOMAXPROCS is used.
func NewWorkerPool(n int) *WorkerPool {
	if n <= 0 {
		n = runtime.GOMAXPROCS(0)
	}
	depth := max(n*4, 8)

	p := &WorkerPool{
		queues: make([]chan func(), n),
		done:   make(chan struct{}),
	}
	for i := range p.queues {
		p.queues[i] = make(chan func(), depth)
	}
	p.running.Store(true)

	p.wg.Add(n)
	for i := range n {
		go p.loop(i)
	}
	return p
}

func (p *WorkerPool) loop(id int) {
	defer p.wg.Done()
	own := p.queues[id]
	for {
		select {
		case fn := <-own:
			run(fn)
			continue
		case <-p.done:
			p.drain(own)
			return
		default:
		}

		if fn := p.steal(id); fn != nil {
			run(fn)
			continue
		}

		select {
		case fn := <-own:
			run(fn)
		case <-p.done:
			p.drain(own)
			return
		}
	}
}

func run(fn func()) {
	if fn != nil {
		fn()
	}
}

func (p *WorkerPool) drain(q chan func()) {
	for {
		select {
		case fn := <-q:
			run(fn)
		default:
			return
		}
	}
}

func (p *WorkerPool) steal(id int) func() {
	for i, q := range p.queues {
		if i == id {
			continue
		}
		select {
		case fn := <-q:
			return fn
		default:
		}
	}
	return nil
}

// enqueue places fn on the next queue in round-robin order. It reports false
// if the pool closed before fn could be queued.
func (p *WorkerPool) enqueue(fn func()) bool {
	i := int(p.next.Add(1)-1) % len(p.queues)
	select {
	case p.queues[i] <- fn:
		return true
	case <-p.done:
		return false
	}
}

// Go runs fn asynchronously. It reports false when the pool is closed and
// fn was not scheduled.
func (p *WorkerPool) Go(fn func()) bool {
	if fn == nil || !p.running.Load() {
		return false
	}
	return p.enqueue(fn)
}

// Run executes all tasks and waits for them to finish. On a closed pool
// the tasks run on the calling goroutine.
func (p *WorkerPool) Run(tasks []func()) {
	if len(tasks) == 0 {
		return
	}
	if !p.running.Load() {
		for _, fn := range tasks {
			run(fn)
		}
		return
	}

	var wg sync.WaitGroup
	wg.Add(len(tasks))
	for _, fn := range tasks {
		task := func() {
			defer wg.Done()
			run(fn)
		}
		if !p.enqueue(task) {
			task()
		}
	}
	wg.Wait()
}

// Close stops accepting work, finishes what is queued and stops the
// workers. Close is safe to call multiple times, but not concurrently with
// Run or Go.
func (p *WorkerPool) Close() {
	if !p.running.CompareAndSwap(true, false) {
		return
	}
	close(p.done)
	p.wg.Wait()
}

// Workers returns the number of workers in the pool.
func (p *WorkerPool) Workers() int {
	return len(p.queues)
}

// IsRunning returns true if the pool is still accepting work.
func (p *WorkerPool) IsRunning() bool {
	return p.running.Load()
}

// Band is a half-open row range [Start, End).
type Band struct {
	Start, End int
}

// Bands splits rows into at most n contiguous bands of near-equal height.
func Bands(rows, n int) []Band {
	if rows <= 0 {
		return nil
	}
	n = min(max(n, 1), rows)
	out := make([]Band, 0, n)
	for i := range n {
		out = append(out, Band{Start: rows * i / n, End: rows * (i + 1) / n})
	}
	return out
}
