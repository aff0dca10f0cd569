package study

import (
	"github.com/tkdojang/dojang-api/internal/catalog"
	"github.com/tkdojang/dojang-api/internal/domain"
)

// BuildDeck expands a selection into an ordered deck of exactly
// requestedCount cards.
//
// Items are dealt round-robin in selection order, so a deck larger than the
// selection repeats items as evenly as possible instead of failing. The
// direction alternates by position: even positions show the prompt face
// first, odd positions the answer face, which guarantees both directions
// appear in any deck of more than one card.
//
// Parameters:
//   - items: the eligible selection, in selection order
//   - requestedCount: the deck size, 1 to domain.MaxSessionCards
//
// Returns domain.ErrInvalidCardCount when the requested size is out of
// range, and ErrNoContent when the selection is empty; only a truly empty
// selection fails, never a small one.
func BuildDeck(items []catalog.StudyItem, requestedCount int) ([]Card, error) {
	if requestedCount < 1 || requestedCount > domain.MaxSessionCards {
		return nil, domain.ErrInvalidCardCount
	}
	if len(items) == 0 {
		return nil, ErrNoContent
	}

	deck := make([]Card, requestedCount)
	for position := 0; position < requestedCount; position++ {
		direction := PromptToAnswer
		if position%2 == 1 {
			direction = AnswerToPrompt
		}
		deck[position] = Card{
			Item:      items[position%len(items)],
			Direction: direction,
			Position:  position,
		}
	}
	return deck, nil
}
