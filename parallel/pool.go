package parallel

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// Task is one unit of work. A non-nil error counts it as failed.
type Task func() error

// Pool runs tasks on a fixed set of workers and counts their outcomes.
type Pool struct {
	wg    sync.WaitGroup
	tasks chan Task
	close func()

	done, failed atomic.Uint64
}

// Start launches numWorkers workers, or one per CPU when numWorkers < 1.
// With a single worker, tasks run synchronously inside Do.
func Start(numWorkers int) *Pool {
	if numWorkers < 1 {
		numWorkers = runtime.GOMAXPROCS(0)
	}

	p := &Pool{close: func() {}}
	if numWorkers == 1 {
		return p
	}

	p.tasks = make(chan Task, numWorkers)
	for range numWorkers {
		p.wg.Go(func() {
			for t := range p.tasks {
				p.run(t)
			}
		})
	}
	p.close = sync.OnceFunc(func() { close(p.tasks) })

	return p
}

func (p *Pool) run(t Task) {
	if err := t(); err != nil {
		p.failed.Add(1)
		return
	}
	p.done.Add(1)
}

// Do queues t, blocking while every worker is busy. Do must not be called
// after Wait.
func (p *Pool) Do(t Task) {
	if p.tasks == nil {
		p.run(t)
		return
	}
	p.tasks <- t
}

// Wait stops accepting tasks, waits for the queued ones to finish and
// returns how many succeeded and failed.
func (p *Pool) Wait() (done, failed uint64) {
	p.close()
	p.wg.Wait()
	return p.done.Load(), p.failed.Load()
}
