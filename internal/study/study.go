// Package study assembles flashcard decks from the content catalogue.
//
// Assembly happens in two pure steps. EligibleItems filters the catalogue
// down to what a profile may study given its belt rank and learning mode;
// the selection never repeats an item. BuildDeck then expands a selection
// to the requested deck size, dealing items round-robin and alternating
// the card direction by position, so small selections pad a full deck by
// repetition rather than by failing.
//
// Both steps take the catalogue and profile as explicit arguments and hold
// no state of their own; the same inputs always produce the same deck.
package study

import (
	"errors"

	"github.com/tkdojang/dojang-api/internal/catalog"
)

// Direction says which face of a flashcard is shown first.
type Direction string

const (
	// PromptToAnswer shows the prompt face first, e.g. the English term.
	PromptToAnswer Direction = "prompt_to_answer"

	// AnswerToPrompt shows the answer face first, e.g. the Korean term.
	AnswerToPrompt Direction = "answer_to_prompt"
)

// MasteryLimit caps a mastery-mode selection. Mastery pools grow with every
// belt earned, so the selection keeps the lowest-ranked material and drops
// the rest once the pool exceeds this many items.
const MasteryLimit = 50

// Common errors for session assembly.
var (
	ErrNilCatalog    = errors.New("catalogue cannot be nil")
	ErrNilProfile    = errors.New("profile cannot be nil")
	ErrAtHighestBelt = errors.New("profile already holds the highest belt")
	ErrNoContent     = errors.New("no study content available for this selection")
)

// Card is one positioned flashcard in an assembled deck.
type Card struct {
	Item      catalog.StudyItem `json:"item"`
	Direction Direction         `json:"direction"`
	Position  int               `json:"position"`
}
