package workers

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// Task is a unit of background work.
type Task func(ctx context.Context) error

// Pool runs submitted tasks on a fixed number of workers. Webhook message
// processing and document ingestion run here so their failures are logged
// and collected instead of vanishing in unawaited goroutines.
type Pool struct {
	tasks      chan Task
	maxWorkers int
	wg         sync.WaitGroup
	ctx        context.Context
	cancel     context.CancelFunc
	errors     []error
	errorsMu   sync.Mutex
	logger     *zap.Logger
}

func NewPool(maxWorkers int, logger *zap.Logger) *Pool {
	if maxWorkers <= 0 {
		maxWorkers = 8
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Pool{
		tasks:      make(chan Task, maxWorkers*2),
		maxWorkers: maxWorkers,
		ctx:        ctx,
		cancel:     cancel,
		logger:     logger,
	}
}

// Start launches the workers.
func (p *Pool) Start() {
	p.logger.Info("Starting worker pool", zap.Int("max_workers", p.maxWorkers))

	for i := 0; i < p.maxWorkers; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
}

// Submit queues a task; it fails once the pool is shutting down.
func (p *Pool) Submit(task Task) error {
	select {
	case <-p.ctx.Done():
		return fmt.Errorf("worker pool is shutting down")
	default:
	}

	select {
	case p.tasks <- task:
		return nil
	case <-p.ctx.Done():
		return fmt.Errorf("worker pool is shutting down")
	}
}

// Wait closes the queue and blocks until queued tasks finish.
func (p *Pool) Wait() {
	close(p.tasks)
	p.wg.Wait()
}

// Shutdown cancels in-flight tasks and waits for the workers to exit.
func (p *Pool) Shutdown() {
	p.cancel()
	p.wg.Wait()
	p.logger.Info("Worker pool shutdown complete")
}

// Errors returns the errors collected from failed tasks.
func (p *Pool) Errors() []error {
	p.errorsMu.Lock()
	defer p.errorsMu.Unlock()
	out := make([]error, len(p.errors))
	copy(out, p.errors)
	return out
}

func (p *Pool) worker(id int) {
	defer p.wg.Done()

	for {
		select {
		case task, ok := <-p.tasks:
			if !ok {
				return
			}
			if err := task(p.ctx); err != nil {
				p.errorsMu.Lock()
				p.errors = append(p.errors, err)
				p.errorsMu.Unlock()

				p.logger.Error("Background task failed",
					zap.Int("worker_id", id),
					zap.Error(err),
				)
			}
		case <-p.ctx.Done():
			return
		}
	}
}
