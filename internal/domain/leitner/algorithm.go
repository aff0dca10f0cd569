package leitner

import (
	"time"

	"github.com/tkdojang/dojang-api/internal/domain"
)

// calculateNewBox determines which box an item lands in after a review.
//
// The box is the heart of the Leitner system: items climb one box per
// correct answer and fall back on incorrect answers, so well-known items
// drift toward long review intervals while shaky ones stay close.
//
// Parameters:
//   - currentBox: The item's box before the review, normally between 1 and 5
//   - correct: Whether the learner answered correctly
//   - params: Configuration parameters for the Leitner scheduler
//
// Returns:
//   - The new box number, always between domain.FirstReviewBox and domain.MaxReviewBox
//
// Algorithm behavior:
//   - Correct answers promote the item one box, capped at the highest box
//   - Incorrect answers under DemotionResetToFirst send the item back to box 1
//   - Incorrect answers under DemotionStepDown move the item back one box, floored at box 1
func calculateNewBox(currentBox int, correct bool, params *Params) int {
	if correct {
		newBox := currentBox + 1
		if newBox > domain.MaxReviewBox {
			newBox = domain.MaxReviewBox
		}
		return newBox
	}

	switch params.DemotionPolicy {
	case DemotionStepDown:
		newBox := currentBox - 1
		if newBox < domain.FirstReviewBox {
			newBox = domain.FirstReviewBox
		}
		return newBox
	default:
		return domain.FirstReviewBox
	}
}

// calculateNextReviewDate determines when the item should next be reviewed.
//
// Each box carries a fixed interval in days; the next review is simply
// that many days after the review that just happened. Demoted items are
// therefore seen again quickly while mastered items rest for weeks.
//
// Parameters:
//   - box: The item's box after the review, as computed by calculateNewBox
//   - now: The current time, usually the time when the review was performed
//   - params: Configuration parameters for the Leitner scheduler
//
// Returns:
//   - A time.Time value representing when the item should next be reviewed
func calculateNextReviewDate(box int, now time.Time, params *Params) time.Time {
	return now.AddDate(0, 0, params.BoxIntervals[box])
}

// calculateNextProgress creates a new ReviewProgress with updated values based on a review.
//
// This function orchestrates the full Leitner update for one answer,
// following immutability principles by creating a new progress object
// rather than modifying the existing one. It coordinates the calls to
// calculateNewBox and calculateNextReviewDate.
//
// Parameters:
//   - progress: The current ReviewProgress object
//   - correct: Whether the learner answered correctly
//   - now: The current time, usually the time when the review was performed
//   - params: Configuration parameters for the Leitner scheduler
//
// Returns:
//   - A new ReviewProgress object with updated values
//
// Algorithm behavior:
//   - Creates a complete copy of the original progress to maintain immutability
//   - Correct answers increment CorrectCount and ConsecutiveCorrect
//   - Incorrect answers increment IncorrectCount and reset ConsecutiveCorrect to zero
//   - Moves the item to its new box and schedules the next review from that box's interval
//   - Sets LastReviewedAt and UpdatedAt to now
//
// Because ConsecutiveCorrect only grows alongside CorrectCount and resets
// on misses, it can never exceed CorrectCount.
func calculateNextProgress(
	progress *domain.ReviewProgress,
	correct bool,
	now time.Time,
	params *Params,
) *domain.ReviewProgress {
	// Create a copy of the original progress
	newProgress := &domain.ReviewProgress{
		ID:                 progress.ID,
		ProfileID:          progress.ProfileID,
		ItemID:             progress.ItemID,
		ItemKind:           progress.ItemKind,
		CurrentBox:         progress.CurrentBox,
		CorrectCount:       progress.CorrectCount,
		IncorrectCount:     progress.IncorrectCount,
		ConsecutiveCorrect: progress.ConsecutiveCorrect,
		LastReviewedAt:     progress.LastReviewedAt,
		NextReviewAt:       progress.NextReviewAt,
		CreatedAt:          progress.CreatedAt,
		UpdatedAt:          progress.UpdatedAt,
	}

	// Update answer counts
	if correct {
		newProgress.CorrectCount++
		newProgress.ConsecutiveCorrect++
	} else {
		newProgress.IncorrectCount++
		newProgress.ConsecutiveCorrect = 0
	}

	// Move the item to its new box
	newProgress.CurrentBox = calculateNewBox(progress.CurrentBox, correct, params)

	// Schedule the next review from the new box's interval
	newProgress.LastReviewedAt = now
	newProgress.NextReviewAt = calculateNextReviewDate(newProgress.CurrentBox, now, params)

	// Update the updated timestamp
	newProgress.UpdatedAt = now

	return newProgress
}

// MasteryLevelFor maps a Leitner box to the learner-facing mastery level.
//
// Boxes 1 and 2 are still "learning", box 3 is "familiar", box 4 is
// "proficient" and box 5 is "mastered". Out-of-range boxes are treated
// as still learning.
func MasteryLevelFor(box int) MasteryLevel {
	switch {
	case box >= domain.MaxReviewBox:
		return MasteryMastered
	case box == 4:
		return MasteryProficient
	case box == 3:
		return MasteryFamiliar
	default:
		return MasteryLearning
	}
}
