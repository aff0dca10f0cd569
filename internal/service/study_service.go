package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/tkdojang/dojang-api/internal/catalog"
	"github.com/tkdojang/dojang-api/internal/domain"
	"github.com/tkdojang/dojang-api/internal/store"
	"github.com/tkdojang/dojang-api/internal/study"
)

// StartSessionParams carries the caller-supplied fields for a new session.
type StartSessionParams struct {
	SessionType domain.SessionType
	CardCount   int
}

// CompleteSessionParams carries the outcome of a finished session. Answer
// totals may fall short of the deck size; abandoning a deck partway through
// still completes the session.
type CompleteSessionParams struct {
	CorrectCount    int
	IncorrectCount  int
	DurationSeconds int
}

// StartedSession is a persisted session together with its assembled deck.
// The deck is never stored; it exists only in this response.
type StartedSession struct {
	Session *domain.StudySession `json:"session"`
	Cards   []study.Card         `json:"cards"`
}

// StudyService builds study sessions from the catalogue and records their
// outcomes. Every method takes the calling user's ID and refuses to touch
// profiles owned by someone else.
type StudyService interface {
	// StartSession assembles a deck for the profile and persists the
	// session row. Item kinds are derived from the session type.
	// Returns ErrAtHighestBelt when a progression-mode profile has no next
	// belt, and ErrNoStudyContent when the selection is empty.
	StartSession(ctx context.Context, userID, profileID uuid.UUID, params StartSessionParams) (*StartedSession, error)

	// CompleteSession records the session outcome and, in the same
	// transaction, updates the profile's streak and study time.
	// Returns ErrSessionAlreadyCompleted when called twice.
	CompleteSession(ctx context.Context, userID, profileID, sessionID uuid.UUID, params CompleteSessionParams) (*domain.StudySession, error)

	// ListSessions retrieves the profile's session history, most recent
	// first. A limit of zero means no limit.
	ListSessions(ctx context.Context, userID, profileID uuid.UUID, limit, offset int) ([]*domain.StudySession, error)
}

// studyServiceImpl implements the StudyService interface.
type studyServiceImpl struct {
	profileStore store.ProfileStore
	sessionStore store.SessionStore
	catalog      *catalog.Catalog
	db           *sql.DB
	logger       *slog.Logger
}

// NewStudyService creates a new StudyService.
// It returns an error if any of the required dependencies are nil.
func NewStudyService(
	profileStore store.ProfileStore,
	sessionStore store.SessionStore,
	cat *catalog.Catalog,
	db *sql.DB,
	logger *slog.Logger,
) (StudyService, error) {
	if profileStore == nil {
		return nil, &ServiceError{Operation: "create_service", Message: "profileStore cannot be nil"}
	}
	if sessionStore == nil {
		return nil, &ServiceError{Operation: "create_service", Message: "sessionStore cannot be nil"}
	}
	if cat == nil {
		return nil, &ServiceError{Operation: "create_service", Message: "catalog cannot be nil"}
	}
	if db == nil {
		return nil, &ServiceError{Operation: "create_service", Message: "db cannot be nil"}
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &studyServiceImpl{
		profileStore: profileStore,
		sessionStore: sessionStore,
		catalog:      cat,
		db:           db,
		logger:       logger.With("component", "study_service"),
	}, nil
}

// kindsForSessionType maps a session type to the catalogue sections it draws
// from. Flashcards and testing drill terminology; patterns covers both
// physical practice kinds; mixed draws from the whole catalogue.
func kindsForSessionType(t domain.SessionType) []domain.ItemKind {
	switch t {
	case domain.SessionTypePatterns:
		return []domain.ItemKind{domain.ItemKindPattern, domain.ItemKindStepSparring}
	case domain.SessionTypeMixed:
		return []domain.ItemKind{
			domain.ItemKindTerminology,
			domain.ItemKindPattern,
			domain.ItemKindStepSparring,
		}
	default:
		return []domain.ItemKind{domain.ItemKindTerminology}
	}
}

// StartSession assembles a deck and persists the session row.
func (s *studyServiceImpl) StartSession(
	ctx context.Context,
	userID, profileID uuid.UUID,
	params StartSessionParams,
) (*StartedSession, error) {
	profile, err := loadOwnedProfile(ctx, s.profileStore, userID, profileID)
	if err != nil {
		if errors.Is(err, ErrProfileNotFound) || errors.Is(err, ErrNotOwned) {
			s.logger.Debug("session start refused",
				"error", err,
				"profile_id", profileID,
				"user_id", userID)
			return nil, err
		}
		return nil, NewServiceError("start_session", "failed to retrieve profile", err)
	}

	items, err := study.EligibleItems(s.catalog, profile, kindsForSessionType(params.SessionType)...)
	if err != nil {
		if errors.Is(err, study.ErrAtHighestBelt) {
			s.logger.Debug("no next belt to study toward",
				"profile_id", profileID,
				"belt_rank", profile.BeltRank)
			return nil, ErrAtHighestBelt
		}
		return nil, NewServiceError("start_session", "failed to select study items", err)
	}

	cards, err := study.BuildDeck(items, params.CardCount)
	if err != nil {
		if errors.Is(err, study.ErrNoContent) {
			s.logger.Debug("empty selection for session",
				"profile_id", profileID,
				"session_type", params.SessionType,
				"belt_rank", profile.BeltRank)
			return nil, ErrNoStudyContent
		}
		return nil, NewServiceError("start_session", "failed to build deck", err)
	}

	session, err := domain.NewStudySession(profileID, params.SessionType, len(cards))
	if err != nil {
		return nil, NewServiceError("start_session", "invalid session data", err)
	}

	err = store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		return s.sessionStore.WithTx(tx).Create(ctx, session)
	})
	if err != nil {
		s.logger.Error("failed to save session",
			"error", err,
			"profile_id", profileID)
		return nil, NewServiceError("start_session", "failed to save session", err)
	}

	s.logger.Info("session started",
		"session_id", session.ID,
		"profile_id", profileID,
		"session_type", session.SessionType,
		"card_count", session.CardCount)

	return &StartedSession{Session: session, Cards: cards}, nil
}

// CompleteSession records the outcome and updates the profile's streak and
// accumulated study time in the same transaction, so a completed session and
// its bookkeeping land together or not at all.
func (s *studyServiceImpl) CompleteSession(
	ctx context.Context,
	userID, profileID, sessionID uuid.UUID,
	params CompleteSessionParams,
) (*domain.StudySession, error) {
	var completed *domain.StudySession
	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		txProfiles := s.profileStore.WithTx(tx)
		txSessions := s.sessionStore.WithTx(tx)

		profile, err := loadOwnedProfile(ctx, txProfiles, userID, profileID)
		if err != nil {
			return err
		}

		session, err := txSessions.GetByID(ctx, sessionID)
		if err != nil {
			if errors.Is(err, store.ErrSessionNotFound) {
				return ErrSessionNotFound
			}
			return err
		}
		// A session reached through the wrong profile is indistinguishable
		// from a missing one.
		if session.ProfileID != profileID {
			return ErrSessionNotFound
		}

		now := time.Now().UTC()
		err = session.Complete(params.CorrectCount, params.IncorrectCount, params.DurationSeconds, now)
		if err != nil {
			if errors.Is(err, domain.ErrSessionCompleted) {
				return ErrSessionAlreadyCompleted
			}
			return err
		}

		if err := txSessions.Update(ctx, session); err != nil {
			return err
		}

		profile.RecordActivity(now)
		profile.AddStudyTime(int64(params.DurationSeconds))
		if err := txProfiles.Update(ctx, profile); err != nil {
			return err
		}

		completed = session
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrProfileNotFound) || errors.Is(err, ErrNotOwned) ||
			errors.Is(err, ErrSessionNotFound) || errors.Is(err, ErrSessionAlreadyCompleted) {
			s.logger.Debug("session completion refused",
				"error", err,
				"session_id", sessionID,
				"profile_id", profileID)
			return nil, err
		}
		s.logger.Error("failed to complete session",
			"error", err,
			"session_id", sessionID,
			"profile_id", profileID)
		return nil, NewServiceError("complete_session", "failed to complete session", err)
	}

	s.logger.Info("session completed",
		"session_id", sessionID,
		"profile_id", profileID,
		"correct", completed.CorrectCount,
		"incorrect", completed.IncorrectCount)

	return completed, nil
}

// ListSessions retrieves the profile's session history, most recent first.
func (s *studyServiceImpl) ListSessions(
	ctx context.Context,
	userID, profileID uuid.UUID,
	limit, offset int,
) ([]*domain.StudySession, error) {
	if _, err := loadOwnedProfile(ctx, s.profileStore, userID, profileID); err != nil {
		if errors.Is(err, ErrProfileNotFound) || errors.Is(err, ErrNotOwned) {
			return nil, err
		}
		return nil, NewServiceError("list_sessions", "failed to retrieve profile", err)
	}

	sessions, err := s.sessionStore.ListByProfile(ctx, profileID, limit, offset)
	if err != nil {
		s.logger.Error("failed to list sessions",
			"error", err,
			"profile_id", profileID)
		return nil, NewServiceError("list_sessions", "failed to list sessions", err)
	}

	return sessions, nil
}
