// Package catalog holds the immutable Taekwon-Do content catalogue: the
// belt progression table plus the terminology, patterns and step-sparring
// sequences tagged against it. The catalogue is loaded once at startup
// from embedded JSON documents, validated against embedded JSON Schemas,
// indexed in memory and never mutated afterwards.
//
// Belt ranks are unique integers whose ascending order is the progression
// order (9th Keup carries the lowest rank, 2nd Dan the highest). An item's
// beltRanks list the grades whose syllabus includes it; a learner working
// toward a grade studies that grade's items.
package catalog

import (
	"fmt"

	"github.com/tkdojang/dojang-api/internal/domain"
)

// Belt is one grade in the progression table.
type Belt struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	ShortName string `json:"shortName"`
	Rank      int    `json:"rank"`
	ColorHex  string `json:"colorHex"`
	StripeHex string `json:"stripeHex,omitempty"`
}

// TerminologyEntry is a single Korean term with its English meaning.
type TerminologyEntry struct {
	ID        string `json:"id"`
	English   string `json:"english"`
	Romanised string `json:"romanised"`
	Hangul    string `json:"hangul,omitempty"`
	Phonetic  string `json:"phonetic,omitempty"`
	Category  string `json:"category"`
	BeltRanks []int  `json:"beltRanks"`
}

// PatternMove is one movement within a pattern.
type PatternMove struct {
	MoveNumber     int    `json:"moveNumber"`
	Movement       string `json:"movement,omitempty"`
	Stance         string `json:"stance"`
	Direction      string `json:"direction,omitempty"`
	English        string `json:"english"`
	Romanised      string `json:"romanised,omitempty"`
	Target         string `json:"target,omitempty"`
	ExecutionSpeed string `json:"executionSpeed,omitempty"`
}

// Pattern is a tul: a fixed sequence of movements with its historical meaning.
// Moves may be empty for patterns whose movement breakdown has not been
// transcribed yet; moveCount is always present.
type Pattern struct {
	ID        string        `json:"id"`
	Name      string        `json:"name"`
	Hangul    string        `json:"hangul,omitempty"`
	Meaning   string        `json:"meaning"`
	MoveCount int           `json:"moveCount"`
	Diagram   string        `json:"diagram,omitempty"`
	BeltRanks []int         `json:"beltRanks"`
	Moves     []PatternMove `json:"moves,omitempty"`
}

// SparringSeries identifies which prearranged sparring exercise a
// sequence belongs to.
type SparringSeries string

const (
	SeriesThreeStep SparringSeries = "three_step"
	SeriesTwoStep   SparringSeries = "two_step"
	SeriesOneStep   SparringSeries = "one_step"
)

// SparringAction is a single named technique within an exchange.
type SparringAction struct {
	English   string `json:"english"`
	Romanised string `json:"romanised,omitempty"`
}

// SparringExchange is one attack and its prescribed response. The counter
// appears on the final exchange of a sequence.
type SparringExchange struct {
	Attack  SparringAction  `json:"attack"`
	Defense SparringAction  `json:"defense"`
	Counter *SparringAction `json:"counter,omitempty"`
}

// StepSparringSequence is one numbered prearranged sparring sequence.
type StepSparringSequence struct {
	ID        string             `json:"id"`
	Series    SparringSeries     `json:"series"`
	Number    int                `json:"number"`
	BeltRanks []int              `json:"beltRanks"`
	Steps     []SparringExchange `json:"steps"`
}

// Title returns the learner-facing name of the sequence, such as
// "Three-Step Sparring No. 2".
func (s StepSparringSequence) Title() string {
	var series string
	switch s.Series {
	case SeriesThreeStep:
		series = "Three-Step Sparring"
	case SeriesTwoStep:
		series = "Two-Step Sparring"
	case SeriesOneStep:
		series = "One-Step Sparring"
	default:
		series = "Step Sparring"
	}
	return fmt.Sprintf("%s No. %d", series, s.Number)
}

// StudyItem is the flattened, kind-agnostic view of a catalogue item used
// by session assembly. Prompt and Answer are the two faces of a flashcard;
// Ordinal is the item's stable position in the catalogue and is used as a
// deterministic tiebreak when ordering decks.
type StudyItem struct {
	ID        string
	Kind      domain.ItemKind
	BeltRanks []int
	Ordinal   int
	Prompt    string
	Answer    string
}

type itemKey struct {
	kind domain.ItemKind
	id   string
}

// Catalog is the loaded, indexed content catalogue. All query methods are
// safe for concurrent use; returned slices are copies.
type Catalog struct {
	belts      []Belt // ascending by rank
	beltByRank map[int]Belt

	terminology []TerminologyEntry
	patterns    []Pattern
	sequences   []StepSparringSequence

	items     []StudyItem
	itemByKey map[itemKey]StudyItem
}

// Belts returns the belt table in ascending rank order.
func (c *Catalog) Belts() []Belt {
	out := make([]Belt, len(c.belts))
	copy(out, c.belts)
	return out
}

// BeltByRank looks up a belt by its rank.
func (c *Catalog) BeltByRank(rank int) (Belt, bool) {
	belt, ok := c.beltByRank[rank]
	return belt, ok
}

// NextBelt returns the belt with the smallest rank strictly greater than
// the given rank. The second return value is false when no such belt
// exists, i.e. the rank is at or beyond the highest grade.
func (c *Catalog) NextBelt(rank int) (Belt, bool) {
	for _, belt := range c.belts {
		if belt.Rank > rank {
			return belt, true
		}
	}
	return Belt{}, false
}

// HighestRank returns the rank of the most senior belt.
func (c *Catalog) HighestRank() int {
	return c.belts[len(c.belts)-1].Rank
}

// Terminology returns every terminology entry in catalogue order.
func (c *Catalog) Terminology() []TerminologyEntry {
	out := make([]TerminologyEntry, len(c.terminology))
	copy(out, c.terminology)
	return out
}

// Patterns returns every pattern in catalogue order.
func (c *Catalog) Patterns() []Pattern {
	out := make([]Pattern, len(c.patterns))
	copy(out, c.patterns)
	return out
}

// Sequences returns every step-sparring sequence in catalogue order.
func (c *Catalog) Sequences() []StepSparringSequence {
	out := make([]StepSparringSequence, len(c.sequences))
	copy(out, c.sequences)
	return out
}

// TerminologyByBeltRank returns the terminology entries tagged with the
// given belt rank, in catalogue order. The result is never nil.
func (c *Catalog) TerminologyByBeltRank(rank int) []TerminologyEntry {
	out := make([]TerminologyEntry, 0)
	for _, entry := range c.terminology {
		if containsRank(entry.BeltRanks, rank) {
			out = append(out, entry)
		}
	}
	return out
}

// PatternsByBeltRank returns the patterns tagged with the given belt rank,
// in catalogue order. The result is never nil.
func (c *Catalog) PatternsByBeltRank(rank int) []Pattern {
	out := make([]Pattern, 0)
	for _, pattern := range c.patterns {
		if containsRank(pattern.BeltRanks, rank) {
			out = append(out, pattern)
		}
	}
	return out
}

// SequencesByBeltRank returns the step-sparring sequences tagged with the
// given belt rank, in catalogue order. The result is never nil.
func (c *Catalog) SequencesByBeltRank(rank int) []StepSparringSequence {
	out := make([]StepSparringSequence, 0)
	for _, seq := range c.sequences {
		if containsRank(seq.BeltRanks, rank) {
			out = append(out, seq)
		}
	}
	return out
}

// StudyItems returns the flattened study view of the catalogue, filtered
// to the given kinds. With no kinds it returns every item. Order is the
// stable catalogue order (terminology, then patterns, then step sparring,
// each in file order) and the result is never nil.
func (c *Catalog) StudyItems(kinds ...domain.ItemKind) []StudyItem {
	if len(kinds) == 0 {
		out := make([]StudyItem, len(c.items))
		copy(out, c.items)
		return out
	}

	wanted := make(map[domain.ItemKind]bool, len(kinds))
	for _, kind := range kinds {
		wanted[kind] = true
	}

	out := make([]StudyItem, 0)
	for _, item := range c.items {
		if wanted[item.Kind] {
			out = append(out, item)
		}
	}
	return out
}

// ItemByID looks up a single study item by kind and ID.
func (c *Catalog) ItemByID(kind domain.ItemKind, id string) (StudyItem, bool) {
	item, ok := c.itemByKey[itemKey{kind: kind, id: id}]
	return item, ok
}

func containsRank(ranks []int, rank int) bool {
	for _, r := range ranks {
		if r == rank {
			return true
		}
	}
	return false
}
