// Package swarm runs independent placement tasks on a bounded worker pool.
package swarm

import (
	"context"
	"sync"
)

// Task represents a unit of work for the swarm.
type Task func(ctx context.Context) error

// Engine manages the worker pool and concurrency.
type Engine struct {
	MaxWorkers int

	mu    sync.Mutex
	stats Stats
}

// Stats holds runtime statistics for the engine.
type Stats struct {
	TasksCompleted int64
	TasksFailed    int64
}

// NewEngine creates an engine running up to workers tasks at once.
// workers < 1 means one.
func NewEngine(workers int) *Engine {
	if workers < 1 {
		workers = 1
	}
	return &Engine{MaxWorkers: workers}
}

// Run executes tasks and blocks until they finish.
// Tasks are started in slice order. The first error cancels the context
// handed to the remaining tasks, stops new ones from starting and is returned.
func (e *Engine) Run(ctx context.Context, tasks []Task) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg       sync.WaitGroup
		once     sync.Once
		firstErr error
	)
	queue := make(chan Task)

	for i := 0; i < e.MaxWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for task := range queue {
				if ctx.Err() != nil {
					continue
				}
				err := task(ctx)
				e.record(err)
				if err != nil {
					once.Do(func() {
						firstErr = err
						cancel()
					})
				}
			}
		}()
	}

dispatch:
	for _, task := range tasks {
		select {
		case <-ctx.Done():
			break dispatch
		case queue <- task:
		}
	}
	close(queue)
	wg.Wait()

	if firstErr != nil {
		return firstErr
	}
	return ctx.Err()
}

func (e *Engine) record(err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err != nil {
		e.stats.TasksFailed++
		return
	}
	e.stats.TasksCompleted++
}

// GetStats returns current engine stats.
func (e *Engine) GetStats() Stats {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stats
}
