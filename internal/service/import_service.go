package service

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/tkdojang/dojang-api/internal/catalog"
	"github.com/tkdojang/dojang-api/internal/domain"
	"github.com/tkdojang/dojang-api/internal/events"
	"github.com/tkdojang/dojang-api/internal/store"
	"github.com/tkdojang/dojang-api/internal/task"
)

//go:embed schema/profile_archive.schema.json
var archiveSchemaRaw []byte

// ImportService accepts profile archives for background ingestion and
// exposes job status. The heavy lifting happens in ImportArchive, which the
// background task calls once a worker picks the job up.
type ImportService interface {
	// EnqueueImport validates the archive against the export schema,
	// persists a pending import job, and emits the task request event.
	// Returns ErrInvalidArchive when the document fails validation.
	EnqueueImport(ctx context.Context, userID uuid.UUID, archive json.RawMessage) (*domain.ImportJob, error)

	// GetImport retrieves one of the user's import jobs.
	// Returns ErrImportNotFound or ErrNotOwned.
	GetImport(ctx context.Context, userID, jobID uuid.UUID) (*domain.ImportJob, error)

	// ImportArchive ingests a validated archive under the given user: every
	// profile with its progress, sessions, and grading history, all in one
	// transaction with fresh identifiers. Returns the number of profiles
	// imported.
	ImportArchive(ctx context.Context, userID uuid.UUID, archive json.RawMessage) (int, error)
}

// importServiceImpl implements the ImportService interface.
type importServiceImpl struct {
	jobStore      store.ImportJobStore
	profileStore  store.ProfileStore
	progressStore store.ProgressStore
	sessionStore  store.SessionStore
	gradingStore  store.GradingStore
	catalog       *catalog.Catalog
	db            *sql.DB
	eventEmitter  events.EventEmitter
	schema        *jsonschema.Schema
	logger        *slog.Logger
}

// NewImportService creates a new ImportService with the archive schema
// compiled once up front.
// It returns an error if any of the required dependencies are nil or the
// embedded schema does not compile.
func NewImportService(
	jobStore store.ImportJobStore,
	profileStore store.ProfileStore,
	progressStore store.ProgressStore,
	sessionStore store.SessionStore,
	gradingStore store.GradingStore,
	cat *catalog.Catalog,
	db *sql.DB,
	eventEmitter events.EventEmitter,
	logger *slog.Logger,
) (ImportService, error) {
	if jobStore == nil {
		return nil, &ServiceError{Operation: "create_service", Message: "jobStore cannot be nil"}
	}
	if profileStore == nil {
		return nil, &ServiceError{Operation: "create_service", Message: "profileStore cannot be nil"}
	}
	if progressStore == nil {
		return nil, &ServiceError{Operation: "create_service", Message: "progressStore cannot be nil"}
	}
	if sessionStore == nil {
		return nil, &ServiceError{Operation: "create_service", Message: "sessionStore cannot be nil"}
	}
	if gradingStore == nil {
		return nil, &ServiceError{Operation: "create_service", Message: "gradingStore cannot be nil"}
	}
	if cat == nil {
		return nil, &ServiceError{Operation: "create_service", Message: "catalog cannot be nil"}
	}
	if db == nil {
		return nil, &ServiceError{Operation: "create_service", Message: "db cannot be nil"}
	}
	if eventEmitter == nil {
		return nil, &ServiceError{Operation: "create_service", Message: "eventEmitter cannot be nil"}
	}
	if logger == nil {
		logger = slog.Default()
	}

	schema, err := compileArchiveSchema()
	if err != nil {
		return nil, NewServiceError("create_service", "failed to compile archive schema", err)
	}

	return &importServiceImpl{
		jobStore:      jobStore,
		profileStore:  profileStore,
		progressStore: progressStore,
		sessionStore:  sessionStore,
		gradingStore:  gradingStore,
		catalog:       cat,
		db:            db,
		eventEmitter:  eventEmitter,
		schema:        schema,
		logger:        logger.With("component", "import_service"),
	}, nil
}

// compileArchiveSchema compiles the embedded export schema.
func compileArchiveSchema() (*jsonschema.Schema, error) {
	// The jsonschema library expects parsed JSON values (any), not raw bytes.
	var parsed any
	if err := json.Unmarshal(archiveSchemaRaw, &parsed); err != nil {
		return nil, fmt.Errorf("parse archive schema: %w", err)
	}

	compiler := jsonschema.NewCompiler()
	const schemaURL = "schema://profile_archive.schema.json"
	if err := compiler.AddResource(schemaURL, parsed); err != nil {
		return nil, fmt.Errorf("add archive schema resource: %w", err)
	}

	return compiler.Compile(schemaURL)
}

// EnqueueImport validates the archive, persists a pending job, and emits the
// task request event that hands the job to the background runner.
func (s *importServiceImpl) EnqueueImport(
	ctx context.Context,
	userID uuid.UUID,
	archive json.RawMessage,
) (*domain.ImportJob, error) {
	var parsed any
	if err := json.Unmarshal(archive, &parsed); err != nil {
		s.logger.Debug("rejected unparseable archive",
			"error", err,
			"user_id", userID)
		return nil, fmt.Errorf("%w: %v", ErrInvalidArchive, err)
	}
	if err := s.schema.Validate(parsed); err != nil {
		s.logger.Debug("rejected archive failing schema validation",
			"error", err,
			"user_id", userID)
		return nil, fmt.Errorf("%w: %v", ErrInvalidArchive, err)
	}

	job, err := domain.NewImportJob(userID, archive)
	if err != nil {
		return nil, NewServiceError("enqueue_import", "invalid import job data", err)
	}

	err = store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		return s.jobStore.WithTx(tx).Create(ctx, job)
	})
	if err != nil {
		s.logger.Error("failed to save import job",
			"error", err,
			"user_id", userID)
		return nil, NewServiceError("enqueue_import", "failed to save import job", err)
	}

	s.logger.Info("import job created",
		"job_id", job.ID,
		"user_id", userID,
		"archive_bytes", len(archive))

	payload := struct {
		ImportJobID uuid.UUID `json:"import_job_id"`
	}{
		ImportJobID: job.ID,
	}

	event, err := events.NewTaskRequestEvent(task.TaskTypeProfileImport, payload)
	if err != nil {
		s.logger.Error("failed to create import event",
			"error", err,
			"job_id", job.ID)
		return nil, NewServiceError("enqueue_import", "failed to create event", err)
	}

	if err := s.eventEmitter.EmitEvent(ctx, event); err != nil {
		s.logger.Error("failed to emit import event",
			"error", err,
			"job_id", job.ID,
			"event_id", event.ID)
		return nil, NewServiceError("enqueue_import", "failed to emit event", err)
	}

	s.logger.Info("import event emitted",
		"job_id", job.ID,
		"event_id", event.ID)

	return job, nil
}

// GetImport retrieves one of the user's import jobs.
func (s *importServiceImpl) GetImport(
	ctx context.Context,
	userID, jobID uuid.UUID,
) (*domain.ImportJob, error) {
	job, err := s.jobStore.GetByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, store.ErrImportJobNotFound) {
			return nil, ErrImportNotFound
		}
		s.logger.Error("failed to retrieve import job",
			"error", err,
			"job_id", jobID)
		return nil, NewServiceError("get_import", "failed to retrieve import job", err)
	}

	if job.UserID != userID {
		s.logger.Debug("import job access refused",
			"job_id", jobID,
			"user_id", userID)
		return nil, ErrNotOwned
	}

	return job, nil
}

// ImportArchive ingests every profile in the archive under the given user.
// The whole archive lands in one transaction: a single invalid row rolls
// back the lot, so a failed import leaves no partial profiles behind.
// Progress entries referencing items missing from the catalogue are skipped
// rather than failing the import; archives can outlive content revisions.
func (s *importServiceImpl) ImportArchive(
	ctx context.Context,
	userID uuid.UUID,
	archive json.RawMessage,
) (int, error) {
	var doc domain.ProfileArchive
	if err := json.Unmarshal(archive, &doc); err != nil {
		return 0, fmt.Errorf("decode archive: %w", err)
	}

	if len(doc.Profiles) == 0 {
		return 0, errors.New("archive contains no profiles")
	}

	var skipped int
	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		txProfiles := s.profileStore.WithTx(tx)
		txProgress := s.progressStore.WithTx(tx)
		txSessions := s.sessionStore.WithTx(tx)
		txGradings := s.gradingStore.WithTx(tx)

		for _, archived := range doc.Profiles {
			if _, ok := s.catalog.BeltByRank(archived.BeltRank); !ok {
				return fmt.Errorf(
					"profile %q: belt rank %d is not part of the curriculum",
					archived.Name, archived.BeltRank,
				)
			}

			profile, err := restoreProfile(userID, archived)
			if err != nil {
				return fmt.Errorf("profile %q: %w", archived.Name, err)
			}
			if err := txProfiles.Create(ctx, profile); err != nil {
				return fmt.Errorf("profile %q: %w", archived.Name, err)
			}

			kinds := []struct {
				kind    domain.ItemKind
				entries []domain.ArchiveProgress
			}{
				{domain.ItemKindTerminology, archived.TerminologyProgress},
				{domain.ItemKindPattern, archived.PatternProgress},
				{domain.ItemKindStepSparring, archived.StepSparringProgress},
			}
			for _, group := range kinds {
				for _, entry := range group.entries {
					if _, ok := s.catalog.ItemByID(group.kind, entry.ItemID); !ok {
						skipped++
						s.logger.Warn("skipping progress for unknown catalogue item",
							"item_id", entry.ItemID,
							"item_kind", group.kind,
							"profile_name", archived.Name)
						continue
					}
					record := restoreProgress(profile.ID, group.kind, entry)
					if err := txProgress.Create(ctx, record); err != nil {
						return fmt.Errorf("progress %s/%s: %w", group.kind, entry.ItemID, err)
					}
				}
			}

			for i, archivedSession := range archived.StudySessions {
				session := restoreSession(profile.ID, archivedSession)
				if err := txSessions.Create(ctx, session); err != nil {
					return fmt.Errorf("session %d: %w", i, err)
				}
			}

			for i, archivedGrading := range archived.GradingHistory {
				record, err := domain.NewGradingRecord(
					profile.ID,
					archivedGrading.FromRank,
					archivedGrading.ToRank,
					domain.GradingResult(archivedGrading.Result),
					archivedGrading.Notes,
					archivedGrading.GradedAt,
				)
				if err != nil {
					return fmt.Errorf("grading %d: %w", i, err)
				}
				if err := txGradings.Create(ctx, record); err != nil {
					return fmt.Errorf("grading %d: %w", i, err)
				}
			}
		}

		return nil
	})
	if err != nil {
		return 0, err
	}

	s.logger.Info("archive imported",
		"user_id", userID,
		"profiles_imported", len(doc.Profiles),
		"progress_skipped", skipped)

	return len(doc.Profiles), nil
}

// restoreProfile rebuilds a learner profile from its archived form with a
// fresh identity under the importing user.
func restoreProfile(userID uuid.UUID, archived domain.ArchiveProfile) (*domain.LearnerProfile, error) {
	profile, err := domain.NewLearnerProfile(userID, archived.Name, archived.BeltRank)
	if err != nil {
		return nil, err
	}

	profile.Avatar = archived.Avatar
	profile.ColorTheme = archived.ColorTheme
	profile.LearningMode = domain.LearningMode(archived.LearningMode)
	if archived.DailyStudyGoal > 0 {
		profile.DailyGoal = archived.DailyStudyGoal
	}
	profile.StreakDays = archived.StreakDays
	profile.AddStudyTime(archived.TotalStudyTime)
	if archived.LastActiveAt != nil {
		profile.LastActiveAt = archived.LastActiveAt.UTC()
	}
	if !archived.CreatedAt.IsZero() {
		profile.CreatedAt = archived.CreatedAt.UTC()
	}

	if err := profile.Validate(); err != nil {
		return nil, err
	}
	return profile, nil
}

// restoreProgress rebuilds one review progress row. The archived box and
// counters are authoritative; the masteryLevel field is derived and ignored.
func restoreProgress(
	profileID uuid.UUID,
	kind domain.ItemKind,
	entry domain.ArchiveProgress,
) *domain.ReviewProgress {
	now := time.Now().UTC()
	record := &domain.ReviewProgress{
		ID:                 uuid.New(),
		ProfileID:          profileID,
		ItemID:             entry.ItemID,
		ItemKind:           kind,
		CurrentBox:         entry.CurrentBox,
		CorrectCount:       entry.CorrectCount,
		IncorrectCount:     entry.IncorrectCount,
		ConsecutiveCorrect: entry.ConsecutiveCorrect,
		NextReviewAt:       entry.NextReviewAt.UTC(),
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if entry.LastReviewedAt != nil {
		record.LastReviewedAt = entry.LastReviewedAt.UTC()
	}
	if record.NextReviewAt.IsZero() {
		record.NextReviewAt = now
	}
	return record
}

// restoreSession rebuilds one study session row, preserving its original
// timing and outcome under a fresh identity.
func restoreSession(profileID uuid.UUID, archived domain.ArchiveSession) *domain.StudySession {
	now := time.Now().UTC()
	session := &domain.StudySession{
		ID:              uuid.New(),
		ProfileID:       profileID,
		SessionType:     domain.SessionType(archived.SessionType),
		CardCount:       archived.CardCount,
		CorrectCount:    archived.CorrectCount,
		IncorrectCount:  archived.IncorrectCount,
		DurationSeconds: archived.DurationSeconds,
		StartedAt:       archived.StartedAt.UTC(),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if archived.CompletedAt != nil {
		completedAt := archived.CompletedAt.UTC()
		session.CompletedAt = &completedAt
	}
	return session
}
