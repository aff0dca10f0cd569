package task

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
)

// ProfileImportTaskFactory creates ProfileImportTask instances
type ProfileImportTaskFactory struct {
	jobStore ImportJobStore
	importer ProfileImporter
	logger   *slog.Logger
}

// NewProfileImportTaskFactory creates a new factory for ProfileImportTasks
func NewProfileImportTaskFactory(
	jobStore ImportJobStore,
	importer ProfileImporter,
	logger *slog.Logger,
) *ProfileImportTaskFactory {
	return &ProfileImportTaskFactory{
		jobStore: jobStore,
		importer: importer,
		logger:   logger.With("component", "profile_import_task_factory"),
	}
}

// CreateTask creates a new ProfileImportTask for the specified import job
func (f *ProfileImportTaskFactory) CreateTask(jobID uuid.UUID) (Task, error) {
	task, err := NewProfileImportTask(
		jobID,
		f.jobStore,
		f.importer,
		f.logger,
	)
	if err != nil {
		return nil, err
	}
	return task, nil
}

// ReconstructTask rebuilds an executable import task from a persisted row's
// payload, keeping the row's task ID so status updates land on the same
// record. It satisfies TaskReconstructor for registration with the runner.
func (f *ProfileImportTaskFactory) ReconstructTask(taskID uuid.UUID, payload []byte) (Task, error) {
	var p profileImportPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, fmt.Errorf("failed to unmarshal task payload: %w", err)
	}

	task, err := NewProfileImportTask(
		p.ImportJobID,
		f.jobStore,
		f.importer,
		f.logger,
	)
	if err != nil {
		return nil, err
	}

	task.id = taskID
	return task, nil
}
