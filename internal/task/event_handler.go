package task

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/tkdojang/dojang-api/internal/events"
)

// TaskFactory creates a task for the entity named in an event payload.
type TaskFactory interface {
	CreateTask(jobID uuid.UUID) (Task, error)
}

// TaskSubmitter accepts tasks for background execution.
type TaskSubmitter interface {
	Submit(ctx context.Context, task Task) error
}

// TaskFactoryEventHandler implements the events.EventHandler interface
// to handle task creation events and delegate them to the appropriate task factory.
type TaskFactoryEventHandler struct {
	taskFactory TaskFactory
	taskRunner  TaskSubmitter
	logger      *slog.Logger
}

// NewTaskFactoryEventHandler creates a new event handler that uses the given task factory
// to create tasks, and submits them to the provided task runner.
func NewTaskFactoryEventHandler(
	taskFactory TaskFactory,
	taskRunner TaskSubmitter,
	logger *slog.Logger,
) *TaskFactoryEventHandler {
	return &TaskFactoryEventHandler{
		taskFactory: taskFactory,
		taskRunner:  taskRunner,
		logger:      logger.With("component", "task_factory_event_handler"),
	}
}

// HandleEvent processes events by creating and submitting tasks.
// It extracts the payload from the event, creates the appropriate task,
// and submits it to the runner for execution.
func (h *TaskFactoryEventHandler) HandleEvent(
	ctx context.Context,
	event *events.TaskRequestEvent,
) error {
	// Only handle profile import events for now
	if event.Type != TaskTypeProfileImport {
		h.logger.Debug("ignoring event with unsupported type",
			"event_type", event.Type,
			"event_id", event.ID)
		return nil
	}

	// Extract the import job ID from the event payload
	var payload struct {
		ImportJobID uuid.UUID `json:"import_job_id"`
	}

	if err := event.UnmarshalPayload(&payload); err != nil {
		h.logger.Error("failed to unmarshal payload", "error", err, "event_id", event.ID)
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	if payload.ImportJobID == uuid.Nil {
		h.logger.Error("event payload carries no import job ID", "event_id", event.ID)
		return fmt.Errorf("event payload carries no import job ID")
	}

	// Create the task
	h.logger.Debug("creating task for import job",
		"import_job_id", payload.ImportJobID,
		"event_id", event.ID)
	task, err := h.taskFactory.CreateTask(payload.ImportJobID)
	if err != nil {
		h.logger.Error("failed to create task",
			"error", err,
			"import_job_id", payload.ImportJobID,
			"event_id", event.ID)
		return fmt.Errorf("failed to create task: %w", err)
	}

	// Submit the task to the runner
	h.logger.Debug("submitting task to runner",
		"task_id", task.ID(),
		"import_job_id", payload.ImportJobID,
		"event_id", event.ID)
	if err := h.taskRunner.Submit(ctx, task); err != nil {
		h.logger.Error("failed to submit task",
			"error", err,
			"task_id", task.ID(),
			"import_job_id", payload.ImportJobID,
			"event_id", event.ID)
		return fmt.Errorf("failed to submit task: %w", err)
	}

	h.logger.Info("task created and submitted successfully",
		"task_id", task.ID(),
		"import_job_id", payload.ImportJobID,
		"event_id", event.ID)
	return nil
}

// Ensure TaskFactoryEventHandler implements events.EventHandler
var _ events.EventHandler = (*TaskFactoryEventHandler)(nil)
