// Package worker is a small bounded goroutine pool.
package worker

import (
	"context"
	"sync"
)

// Job is one unit of work. It should return promptly once ctx is done.
type Job[T any] func(ctx context.Context) (T, error)

// Result carries a job's output back with the id it was submitted under.
type Result[T any] struct {
	JobID  string
	Output T
	Err    error
}

// Pool runs submitted jobs on a fixed number of goroutines. Submit blocks
// while the queue is full.
type Pool[T any] struct {
	ctx     context.Context
	jobs    chan jobWrapper[T]
	results chan Result[T]
	wg      sync.WaitGroup
	once    sync.Once
}

type jobWrapper[T any] struct {
	id string
	fn Job[T]
}

// NewPool starts workerCount workers. ctx is handed to every job.
func NewPool[T any](ctx context.Context, workerCount, bufferSize int) *Pool[T] {
	workerCount = max(workerCount, 1)
	p := &Pool[T]{
		ctx:     ctx,
		jobs:    make(chan jobWrapper[T], bufferSize),
		results: make(chan Result[T], bufferSize),
	}
	p.wg.Add(workerCount)
	for range workerCount {
		go p.worker()
	}
	go func() {
		p.wg.Wait()
		close(p.results)
	}()
	return p
}

func (p *Pool[T]) worker() {
	defer p.wg.Done()
	for job := range p.jobs {
		var r Result[T]
		r.JobID = job.id
		if err := p.ctx.Err(); err != nil {
			r.Err = err
		} else {
			r.Output, r.Err = job.fn(p.ctx)
		}
		p.results <- r
	}
}

// Submit queues fn. It must not be called after Close.
func (p *Pool[T]) Submit(id string, fn Job[T]) {
	p.jobs <- jobWrapper[T]{id: id, fn: fn}
}

// Close stops accepting jobs. Results is closed once the queue drains.
func (p *Pool[T]) Close() {
	p.once.Do(func() { close(p.jobs) })
}

// Results yields one Result per submitted job, in completion order.
func (p *Pool[T]) Results() <-chan Result[T] {
	return p.results
}

// RunAll runs jobs on workerCount workers and returns their results in
// completion order. Submission happens on its own goroutine so a caller
// never deadlocks on a full result buffer.
func RunAll[T any](ctx context.Context, workerCount int, jobs map[string]Job[T]) []Result[T] {
	p := NewPool[T](ctx, workerCount, workerCount)
	go func() {
		defer p.Close()
		for id, fn := range jobs {
			p.Submit(id, fn)
		}
	}()
	out := make([]Result[T], 0, len(jobs))
	for r := range p.Results() {
		out = append(out, r)
	}
	return out
}
