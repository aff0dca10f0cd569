package task

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// TaskRunnerConfig holds configuration for the task runner
type TaskRunnerConfig struct {
	// WorkerCount determines how many concurrent workers process tasks
	WorkerCount int

	// QueueSize determines the buffer size for the in-memory task queue
	QueueSize int

	// StuckTaskAge defines how long a task can be in processing state
	// before it's considered stuck and reset
	StuckTaskAge time.Duration

	// StuckTaskCheckInterval defines how often to check for stuck tasks
	// If zero, defaults to 5 minutes
	StuckTaskCheckInterval time.Duration
}

// DefaultTaskRunnerConfig returns a TaskRunnerConfig with reasonable defaults
func DefaultTaskRunnerConfig() TaskRunnerConfig {
	return TaskRunnerConfig{
		WorkerCount:            2,
		QueueSize:              100,
		StuckTaskAge:           30 * time.Minute,
		StuckTaskCheckInterval: 5 * time.Minute,
	}
}

// TaskReconstructor rebuilds an executable task from its persisted ID and
// payload. Tasks loaded from the database carry data but no behavior; each
// task type registers a reconstructor so recovery can hand workers something
// that actually runs.
type TaskReconstructor func(taskID uuid.UUID, payload []byte) (Task, error)

// TaskRunner manages background task processing
type TaskRunner struct {
	store      TaskStore
	queue      *TaskQueue
	pool       *WorkerPool
	ctx        context.Context
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
	config     TaskRunnerConfig
	logger     *slog.Logger
	errHandler func(task Task, err error)

	mu             sync.RWMutex
	reconstructors map[string]TaskReconstructor
}

// NewTaskRunner creates a new TaskRunner
func NewTaskRunner(store TaskStore, config TaskRunnerConfig, logger *slog.Logger) *TaskRunner {
	// Apply default check interval if not specified
	if config.StuckTaskCheckInterval == 0 {
		config.StuckTaskCheckInterval = 5 * time.Minute
	}

	ctx, cancel := context.WithCancel(context.Background())

	queue := NewTaskQueue(config.QueueSize, logger)
	pool := NewWorkerPool(queue, WorkerPoolConfig{WorkerCount: config.WorkerCount}, logger)

	runner := &TaskRunner{
		store:          store,
		queue:          queue,
		pool:           pool,
		ctx:            ctx,
		cancelFunc:     cancel,
		wg:             sync.WaitGroup{},
		config:         config,
		logger:         logger,
		reconstructors: make(map[string]TaskReconstructor),
		errHandler: func(task Task, err error) {
			// Default error handler just logs the error
			logger.Error("task execution failed",
				"task_id", task.ID(),
				"task_type", task.Type(),
				"error", err)
		},
	}

	// The pool owns the worker goroutines; the runner owns what processing
	// a task means (status bookkeeping around Execute).
	pool.SetProcessor(runner.processTask)

	return runner
}

// SetErrorHandler allows setting a custom error handler function
func (r *TaskRunner) SetErrorHandler(handler func(task Task, err error)) {
	r.errHandler = handler
}

// RegisterReconstructor registers a reconstructor for the given task type.
// Recovery uses it to turn persisted rows of that type back into executable
// tasks. Registering the same type twice replaces the earlier reconstructor.
func (r *TaskRunner) RegisterReconstructor(taskType string, reconstructor TaskReconstructor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reconstructors[taskType] = reconstructor
}

// Submit adds a new task to the queue
func (r *TaskRunner) Submit(ctx context.Context, task Task) error {
	// Save task to database first
	if err := r.store.SaveTask(ctx, task); err != nil {
		return fmt.Errorf("failed to save task: %w", err)
	}

	// Then add to in-memory queue
	if err := r.queue.Enqueue(task); err != nil {
		if errors.Is(err, ErrQueueFull) {
			return fmt.Errorf("task queue is full, try again later: %w", err)
		}
		return fmt.Errorf("failed to enqueue task: %w", err)
	}

	return nil
}

// Start initializes the worker pool and begins processing tasks
func (r *TaskRunner) Start() error {
	// Recover unfinished tasks from previous runs
	if err := r.Recover(); err != nil {
		return fmt.Errorf("failed to recover tasks: %w", err)
	}

	// Start worker goroutines
	r.pool.Start()

	// Start goroutine to check for stuck tasks periodically
	r.wg.Add(1)
	go r.stuckTaskMonitor()

	return nil
}

// Stop gracefully shuts down the task runner. In-flight tasks finish;
// anything still queued stays pending in the database and is recovered on
// the next start.
func (r *TaskRunner) Stop() {
	r.cancelFunc()
	r.wg.Wait()
	r.pool.Stop()
	r.queue.Close()
}

// Recover loads any unfinished tasks from the database
func (r *TaskRunner) Recover() error {
	ctx := context.Background()

	// Get tasks that were in "pending" state
	pendingTasks, err := r.store.GetPendingTasks(ctx)
	if err != nil {
		return fmt.Errorf("failed to get pending tasks: %w", err)
	}

	// Get tasks that were in "processing" state (potentially interrupted by a crash)
	processingTasks, err := r.store.GetProcessingTasks(
		ctx,
		0,
	) // Get all processing tasks regardless of age
	if err != nil {
		return fmt.Errorf("failed to get processing tasks: %w", err)
	}

	// Log recovery statistics
	r.logger.Info("recovering unfinished tasks",
		"pending_count", len(pendingTasks),
		"processing_count", len(processingTasks))

	// Requeue pending tasks
	for _, task := range pendingTasks {
		r.requeue(r.reconstructTask(task))
	}

	// Reset processing tasks back to pending state and requeue them
	for _, task := range processingTasks {
		// Update status in database to pending
		if err := r.store.UpdateTaskStatus(ctx, task.ID(), TaskStatusPending, "Reset after recovery"); err != nil {
			r.logger.Error("failed to reset processing task status",
				"task_id", task.ID(),
				"task_type", task.Type(),
				"error", err)
			continue
		}

		r.requeue(r.reconstructTask(task))
	}

	return nil
}

// reconstructTask swaps a task loaded from the database for an executable
// one built by the registered reconstructor. Without a reconstructor (or
// with a corrupt payload) the original is kept: its Execute fails loudly,
// which marks the row failed instead of losing it silently.
func (r *TaskRunner) reconstructTask(t Task) Task {
	r.mu.RLock()
	reconstructor, ok := r.reconstructors[t.Type()]
	r.mu.RUnlock()

	if !ok {
		r.logger.Warn("no reconstructor registered for task type",
			"task_id", t.ID(),
			"task_type", t.Type())
		return t
	}

	rebuilt, err := reconstructor(t.ID(), t.Payload())
	if err != nil {
		r.logger.Error("failed to reconstruct task",
			"task_id", t.ID(),
			"task_type", t.Type(),
			"error", err)
		return t
	}

	return rebuilt
}

// requeue puts a recovered task back on the in-memory queue
func (r *TaskRunner) requeue(task Task) {
	if err := r.queue.Enqueue(task); err != nil {
		// Queue is full or closed; the task stays pending in the database
		r.logger.Error("failed to requeue task",
			"task_id", task.ID(),
			"task_type", task.Type(),
			"error", err)
	}
}

// processTask handles execution of a single task
func (r *TaskRunner) processTask(task Task, workerID int) {
	ctx := context.Background()
	logger := r.logger.With(
		"task_id", task.ID(),
		"task_type", task.Type(),
		"worker_id", workerID,
	)

	// Update task status to processing
	if err := r.store.UpdateTaskStatus(ctx, task.ID(), TaskStatusProcessing, ""); err != nil {
		logger.Error("failed to update task status to processing", "error", err)
		return
	}

	logger.Info("processing task")

	// Execute task
	err := task.Execute(ctx)

	if err != nil {
		// Task failed
		logger.Error("task execution failed", "error", err)
		if updateErr := r.store.UpdateTaskStatus(ctx, task.ID(), TaskStatusFailed, err.Error()); updateErr != nil {
			logger.Error("failed to update task status to failed", "error", updateErr)
		}

		// Call error handler
		r.errHandler(task, err)
	} else {
		// Task completed successfully
		logger.Info("task completed successfully")
		if updateErr := r.store.UpdateTaskStatus(ctx, task.ID(), TaskStatusCompleted, ""); updateErr != nil {
			logger.Error("failed to update task status to completed", "error", updateErr)
		}
	}
}

// stuckTaskMonitor periodically checks for tasks that have been in "processing"
// state for too long and resets them
func (r *TaskRunner) stuckTaskMonitor() {
	defer r.wg.Done()

	ticker := time.NewTicker(r.config.StuckTaskCheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.ctx.Done():
			// Context cancelled, stop monitor
			return

		case <-ticker.C:
			ctx := context.Background()

			// Find tasks that have been in "processing" state for too long
			stuckTasks, err := r.store.GetProcessingTasks(ctx, r.config.StuckTaskAge)
			if err != nil {
				r.logger.Error("failed to check for stuck tasks", "error", err)
				continue
			}

			if len(stuckTasks) > 0 {
				r.logger.Info("found stuck tasks", "count", len(stuckTasks))

				// Reset each stuck task
				for _, task := range stuckTasks {
					if err := r.store.UpdateTaskStatus(ctx, task.ID(), TaskStatusPending,
						"Reset after being stuck in processing state"); err != nil {
						r.logger.Error("failed to reset stuck task status",
							"task_id", task.ID(),
							"task_type", task.Type(),
							"error", err)
						continue
					}

					// Requeue an executable copy
					r.requeue(r.reconstructTask(task))
				}
			}
		}
	}
}
