package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ErrClosed is returned by Process after Shutdown.
var ErrClosed = errors.New("worker pool closed")

// Pool runs independent jobs on a fixed set of goroutines.
type Pool[J, R any] struct {
	jobs      chan task[J, R]
	workers   int
	shutdown  chan struct{}
	once      sync.Once
	wg        sync.WaitGroup
	processor ProcessorFunc[J, R]
	logger    *zap.Logger
}

// ProcessorFunc handles a single job.
type ProcessorFunc[J, R any] func(ctx context.Context, job J) R

// Options holds configuration for creating a new worker pool
type Options[J, R any] struct {
	Workers   int
	Processor ProcessorFunc[J, R]
	Logger    *zap.Logger
}

type task[J, R any] struct {
	ctx   context.Context
	job   J
	index int
	out   chan<- result[R]
}

type result[R any] struct {
	index int
	value R
}

// New creates a new worker pool and starts its workers.
func New[J, R any](opts Options[J, R]) *Pool[J, R] {
	if opts.Workers <= 0 {
		opts.Workers = 5
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	// Queue up to two jobs per worker without blocking the submitter.
	p := &Pool[J, R]{
		jobs:      make(chan task[J, R], opts.Workers*2),
		workers:   opts.Workers,
		shutdown:  make(chan struct{}),
		processor: opts.Processor,
		logger:    opts.Logger,
	}
	p.start()
	return p
}

func (p *Pool[J, R]) start() {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
	p.logger.Info("worker pool started", zap.Int("workers", p.workers))
}

func (p *Pool[J, R]) worker(id int) {
	defer p.wg.Done()

	for {
		select {
		case t := <-p.jobs:
			start := time.Now()
			v := p.processor(t.ctx, t.job)
			p.logger.Debug("job done", zap.Int("worker", id), zap.Int("job", t.index), zap.Duration("took", time.Since(start)))
			t.out <- result[R]{index: t.index, value: v}

		case <-p.shutdown:
			return
		}
	}
}

// Workers returns the number of workers.
func (p *Pool[J, R]) Workers() int { return p.workers }

// Process runs jobs on the pool and returns their results in job order.
func (p *Pool[J, R]) Process(ctx context.Context, jobs []J) ([]R, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	// Buffered for every job so workers never block on an abandoned call.
	out := make(chan result[R], len(jobs))
	for i, job := range jobs {
		select {
		case p.jobs <- task[J, R]{ctx: ctx, job: job, index: i, out: out}:
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-p.shutdown:
			return nil, ErrClosed
		}
	}

	results := make([]R, len(jobs))
	for n := 0; n < len(jobs); n++ {
		select {
		case r := <-out:
			results[r.index] = r.value
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-p.shutdown:
			return nil, ErrClosed
		}
	}
	return results, nil
}

// Shutdown stops the workers after their current job.
func (p *Pool[J, R]) Shutdown() {
	p.once.Do(func() {
		p.logger.Info("shutting down worker pool")
		close(p.shutdown)
		p.wg.Wait()
		p.logger.Info("worker pool shutdown complete")
	})
}
