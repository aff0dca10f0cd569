package task

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// WorkerPool manages a pool of worker goroutines that process tasks
// from a task queue. It handles graceful shutdown and worker lifecycle.
type WorkerPool struct {
	// taskQueue provides read access to the tasks to be processed
	taskQueue TaskQueueReader

	// workerCount is the number of concurrent workers to start
	workerCount int

	// wg tracks active worker goroutines for clean shutdown
	wg sync.WaitGroup

	// ctx is used for cancellation and shutdown signaling
	ctx context.Context

	// cancel is the function to call to cancel the context
	cancel context.CancelFunc

	// logger for structured logging
	logger *slog.Logger

	// processor is called with each task pulled off the queue. The runner
	// injects one that wraps Execute with status bookkeeping; without one
	// the pool executes tasks directly.
	processor func(task Task, workerID int)

	// errorHandler is called when the default processor sees a task fail
	// If nil, errors are only logged
	errorHandler func(task Task, err error)
}

// WorkerPoolConfig holds configuration options for the worker pool
type WorkerPoolConfig struct {
	// WorkerCount determines how many concurrent worker goroutines to start
	// If zero or negative, defaults to 1
	WorkerCount int
}

// DefaultWorkerPoolConfig returns a WorkerPoolConfig with reasonable defaults
func DefaultWorkerPoolConfig() WorkerPoolConfig {
	return WorkerPoolConfig{
		WorkerCount: 2,
	}
}

// NewWorkerPool creates a new worker pool with the specified configuration
func NewWorkerPool(taskQueue TaskQueueReader, config WorkerPoolConfig, logger *slog.Logger) *WorkerPool {
	// Apply defaults for invalid config values
	workerCount := config.WorkerCount
	if workerCount <= 0 {
		workerCount = 1
		logger.Warn("invalid worker count specified, using default",
			"specified_count", config.WorkerCount,
			"default_count", 1)
	}

	// Create a cancelable context for shutdown coordination
	ctx, cancel := context.WithCancel(context.Background())

	return &WorkerPool{
		taskQueue:    taskQueue,
		workerCount:  workerCount,
		wg:           sync.WaitGroup{},
		ctx:          ctx,
		cancel:       cancel,
		logger:       logger,
		errorHandler: nil, // Default to nil, can be set later with SetErrorHandler
	}
}

// SetErrorHandler allows setting a custom error handler for task execution failures
func (p *WorkerPool) SetErrorHandler(handler func(task Task, err error)) {
	p.errorHandler = handler
}

// SetProcessor replaces the default task processing with a custom function.
// Must be called before Start.
func (p *WorkerPool) SetProcessor(processor func(task Task, workerID int)) {
	p.processor = processor
}

// Start launches the worker goroutines. Workers run until Stop is called
// or the task channel is closed.
func (p *WorkerPool) Start() {
	p.logger.Info("starting worker pool", "worker_count", p.workerCount)

	for i := 0; i < p.workerCount; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
}

// Stop signals all workers to finish and waits for them. A worker that is
// mid-task completes that task before exiting.
func (p *WorkerPool) Stop() {
	p.cancel()
	p.wg.Wait()
	p.logger.Info("worker pool stopped")
}

// worker consumes tasks from the queue until shutdown
func (p *WorkerPool) worker(id int) {
	defer p.wg.Done()

	p.logger.Debug("starting worker", "worker_id", id)

	for {
		select {
		case <-p.ctx.Done():
			// Context cancelled, stop worker
			p.logger.Debug("stopping worker", "worker_id", id)
			return

		case task, ok := <-p.taskQueue.GetChannel():
			if !ok {
				// Channel closed, stop worker
				p.logger.Debug("task channel closed, stopping worker", "worker_id", id)
				return
			}

			p.handle(task, id)
		}
	}
}

// handle dispatches one task to the configured processor. Panics are
// recovered and reported through the error handler so a misbehaving
// task does not kill its worker.
func (p *WorkerPool) handle(task Task, workerID int) {
	defer func() {
		if r := recover(); r != nil {
			err := fmt.Errorf("task execution panicked: %v", r)
			p.logger.Error("recovered from panic in task execution",
				"task_id", task.ID(),
				"task_type", task.Type(),
				"worker_id", workerID,
				"error", err)
			if p.errorHandler != nil {
				p.errorHandler(task, err)
			}
		}
	}()

	if p.processor != nil {
		p.processor(task, workerID)
		return
	}

	// Default processing: execute with the pool context so Stop cancels
	// in-flight work
	if err := task.Execute(p.ctx); err != nil {
		p.logger.Error("task execution failed",
			"task_id", task.ID(),
			"task_type", task.Type(),
			"worker_id", workerID,
			"error", err)
		if p.errorHandler != nil {
			p.errorHandler(task, err)
		}
	}
}
