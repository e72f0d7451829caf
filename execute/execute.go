// Package execute runs independent tasks concurrently on a fixed-size pool
// of workers.
package execute

import (
	"context"
	"sync"
)

// Task is a unit of work. It receives the context given to Run.
type Task[T any] func(ctx context.Context) T

// Run executes tasks on at most conc workers and returns their results in
// input order. Once ctx is done no new task is started, tasks already running
// finish, and Run returns ctx.Err() along with the results collected so far.
// Results of tasks that never started are the zero value.
func Run[T any](ctx context.Context, conc int, tasks []Task[T]) ([]T, error) {
	results := make([]T, len(tasks))
	if len(tasks) == 0 {
		return results, ctx.Err()
	}
	if conc < 1 {
		conc = 1
	}
	if conc > len(tasks) {
		conc = len(tasks)
	}

	ep := newExecPool[T](conc, len(tasks))
	ep.start(ctx)

Schedule:
	for i, task := range tasks {
		if ctx.Err() != nil {
			break
		}
		select {
		case <-ctx.Done():
			break Schedule
		case ep.in <- job[T]{idx: i, task: task}:
		}
	}

	for res := range ep.wait() {
		results[res.idx] = res.val
	}
	return results, ctx.Err()
}

type job[T any] struct {
	idx  int
	task Task[T]
}

type result[T any] struct {
	idx int
	val T
}

type execPool[T any] struct {
	workers []*runWorker[T]
	in      chan job[T]
	out     chan result[T]
	wg      sync.WaitGroup
}

func newExecPool[T any](conc, size int) *execPool[T] {
	ep := &execPool[T]{
		in:  make(chan job[T]),
		out: make(chan result[T], size),
	}
	ep.workers = make([]*runWorker[T], conc)
	for i := 0; i < conc; i++ {
		ep.workers[i] = &runWorker[T]{in: ep.in, out: ep.out}
	}
	return ep
}

func (ep *execPool[T]) start(ctx context.Context) {
	for _, wrk := range ep.workers {
		ep.wg.Add(1)
		go func(wrk *runWorker[T]) {
			defer ep.wg.Done()
			wrk.loop(ctx)
		}(wrk)
	}
}

// wait stops the workers once the queue drains and returns the collected
// results.
func (ep *execPool[T]) wait() <-chan result[T] {
	close(ep.in)
	ep.wg.Wait()
	close(ep.out)
	return ep.out
}

// runWorker executes tasks in a goroutine, one at a time, until its input
// channel is closed.
type runWorker[T any] struct {
	in  <-chan job[T]
	out chan<- result[T]
}

func (wrk *runWorker[T]) loop(ctx context.Context) {
	for j := range wrk.in {
		if ctx.Err() != nil {
			continue
		}
		wrk.out <- result[T]{idx: j.idx, val: j.task(ctx)}
	}
}
