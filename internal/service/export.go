package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/tkdojang/dojang-api/internal/domain"
	"github.com/tkdojang/dojang-api/internal/domain/leitner"
)

// Archive provenance fields. The server writes its own identity where the
// mobile app wrote the device name.
const (
	archiveDeviceName = "dojang-api"
	archiveAppVersion = "2.0.0"
)

// ExportProfile builds the portable archive document for one profile: the
// profile row, per-kind review progress with derived mastery levels, session
// history, and grading history. The document round-trips through import.
func (s *profileServiceImpl) ExportProfile(
	ctx context.Context,
	userID, profileID uuid.UUID,
) (*domain.ProfileArchive, error) {
	profile, err := loadOwnedProfile(ctx, s.profileStore, userID, profileID)
	if err != nil {
		if errors.Is(err, ErrProfileNotFound) || errors.Is(err, ErrNotOwned) {
			s.logger.Debug("profile export refused",
				"error", err,
				"profile_id", profileID,
				"user_id", userID)
			return nil, err
		}
		return nil, NewServiceError("export_profile", "failed to retrieve profile", err)
	}

	records, err := s.progressStore.ListByProfile(ctx, profileID, "")
	if err != nil {
		s.logger.Error("failed to list progress for export",
			"error", err,
			"profile_id", profileID)
		return nil, NewServiceError("export_profile", "failed to list review progress", err)
	}

	sessions, err := s.sessionStore.ListByProfile(ctx, profileID, 0, 0)
	if err != nil {
		s.logger.Error("failed to list sessions for export",
			"error", err,
			"profile_id", profileID)
		return nil, NewServiceError("export_profile", "failed to list study sessions", err)
	}

	gradings, err := s.gradingStore.ListByProfile(ctx, profileID)
	if err != nil {
		s.logger.Error("failed to list gradings for export",
			"error", err,
			"profile_id", profileID)
		return nil, NewServiceError("export_profile", "failed to list grading history", err)
	}

	archived := archiveProfile(profile, records, sessions, gradings)

	archive := &domain.ProfileArchive{
		ExportVersion: domain.ArchiveExportVersion,
		ExportedAt:    time.Now().UTC(),
		DeviceName:    archiveDeviceName,
		AppVersion:    archiveAppVersion,
		Profiles:      []domain.ArchiveProfile{archived},
	}

	s.logger.Info("profile exported",
		"profile_id", profileID,
		"progress_records", len(records),
		"sessions", len(sessions),
		"gradings", len(gradings))

	return archive, nil
}

// archiveProfile flattens one profile and its history into the archive shape.
func archiveProfile(
	profile *domain.LearnerProfile,
	records []*domain.ReviewProgress,
	sessions []*domain.StudySession,
	gradings []*domain.GradingRecord,
) domain.ArchiveProfile {
	out := domain.ArchiveProfile{
		Name:           profile.Name,
		Avatar:         profile.Avatar,
		ColorTheme:     profile.ColorTheme,
		BeltRank:       profile.BeltRank,
		LearningMode:   string(profile.LearningMode),
		DailyStudyGoal: profile.DailyGoal,
		StreakDays:     profile.StreakDays,
		TotalStudyTime: profile.TotalStudySeconds,
		CreatedAt:      profile.CreatedAt,

		TerminologyProgress:  []domain.ArchiveProgress{},
		PatternProgress:      []domain.ArchiveProgress{},
		StepSparringProgress: []domain.ArchiveProgress{},
		StudySessions:        []domain.ArchiveSession{},
		GradingHistory:       []domain.ArchiveGrading{},
	}
	if !profile.LastActiveAt.IsZero() {
		lastActive := profile.LastActiveAt
		out.LastActiveAt = &lastActive
	}

	for _, record := range records {
		entry := domain.ArchiveProgress{
			ItemID:             record.ItemID,
			CurrentBox:         record.CurrentBox,
			CorrectCount:       record.CorrectCount,
			IncorrectCount:     record.IncorrectCount,
			ConsecutiveCorrect: record.ConsecutiveCorrect,
			MasteryLevel:       string(leitner.MasteryLevelFor(record.CurrentBox)),
			NextReviewAt:       record.NextReviewAt,
		}
		if !record.LastReviewedAt.IsZero() {
			lastReviewed := record.LastReviewedAt
			entry.LastReviewedAt = &lastReviewed
		}

		switch record.ItemKind {
		case domain.ItemKindTerminology:
			out.TotalFlashcardsSeen += record.TotalReviews()
			out.TerminologyProgress = append(out.TerminologyProgress, entry)
		case domain.ItemKindPattern:
			if record.CurrentBox >= 4 {
				out.TotalPatternsLearned++
			}
			out.PatternProgress = append(out.PatternProgress, entry)
		case domain.ItemKindStepSparring:
			out.StepSparringProgress = append(out.StepSparringProgress, entry)
		}
	}

	for _, session := range sessions {
		archived := domain.ArchiveSession{
			SessionType:     string(session.SessionType),
			CardCount:       session.CardCount,
			CorrectCount:    session.CorrectCount,
			IncorrectCount:  session.IncorrectCount,
			DurationSeconds: session.DurationSeconds,
			StartedAt:       session.StartedAt,
			CompletedAt:     session.CompletedAt,
		}
		if session.CompletedAt != nil {
			accuracy := session.Accuracy()
			archived.Accuracy = &accuracy
			if session.SessionType == domain.SessionTypeTesting {
				out.TotalTestsTaken++
			}
		}
		out.StudySessions = append(out.StudySessions, archived)
	}

	for _, grading := range gradings {
		out.GradingHistory = append(out.GradingHistory, domain.ArchiveGrading{
			FromRank: grading.FromRank,
			ToRank:   grading.ToRank,
			Result:   string(grading.Result),
			Notes:    grading.Notes,
			GradedAt: grading.GradedAt,
		})
	}

	return out
}
