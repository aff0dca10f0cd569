package catalog

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tkdojang/dojang-api/internal/domain"
)

func TestLoad(t *testing.T) {
	cat, err := Load()
	require.NoError(t, err, "Load() should succeed on the embedded catalogue")
	require.NotNil(t, cat, "Load() should return a non-nil catalogue")

	belts := cat.Belts()
	require.NotEmpty(t, belts, "belt table should not be empty")

	// Belts must come back in ascending progression order
	for i := 1; i < len(belts); i++ {
		assert.Greater(t, belts[i].Rank, belts[i-1].Rank,
			"belt %q should outrank belt %q", belts[i].ID, belts[i-1].ID)
	}

	assert.Equal(t, 10, belts[0].Rank, "the most junior belt should carry rank 10")
	assert.Equal(t, cat.HighestRank(), belts[len(belts)-1].Rank,
		"HighestRank should match the last belt")
}

func TestBeltLookups(t *testing.T) {
	cat, err := Load()
	require.NoError(t, err)

	white, ok := cat.BeltByRank(10)
	require.True(t, ok, "rank 10 should resolve")
	assert.Equal(t, "White Belt", white.Name)

	_, ok = cat.BeltByRank(15)
	assert.False(t, ok, "rank 15 is between grades and should not resolve")

	next, ok := cat.NextBelt(10)
	require.True(t, ok, "a white belt always has a next grade")
	assert.Equal(t, 20, next.Rank, "the grade after rank 10 should be rank 20")

	// NextBelt works from ranks between grades too
	next, ok = cat.NextBelt(15)
	require.True(t, ok)
	assert.Equal(t, 20, next.Rank)

	_, ok = cat.NextBelt(cat.HighestRank())
	assert.False(t, ok, "the most senior belt has no next grade")
}

func TestContentByBeltRank(t *testing.T) {
	cat, err := Load()
	require.NoError(t, err)

	terms := cat.TerminologyByBeltRank(20)
	require.NotEmpty(t, terms, "first grading syllabus should carry terminology")

	ids := make(map[string]bool, len(terms))
	for _, term := range terms {
		ids[term.ID] = true
	}
	assert.True(t, ids["low-block"], "rank 20 syllabus should include the low block")
	assert.True(t, ids["attention"], "multi-tagged basics should appear at rank 20")

	patterns := cat.PatternsByBeltRank(20)
	require.Len(t, patterns, 1, "exactly one pattern belongs to the first grading")
	assert.Equal(t, "Chon-Ji", patterns[0].Name)
	assert.Len(t, patterns[0].Moves, patterns[0].MoveCount,
		"the transcribed pattern should list every move")

	sequences := cat.SequencesByBeltRank(30)
	require.Len(t, sequences, 2, "rank 30 should carry two three-step sequences")
	for _, seq := range sequences {
		assert.Equal(t, SeriesThreeStep, seq.Series)
	}

	// Unknown ranks yield empty, non-nil slices
	assert.NotNil(t, cat.TerminologyByBeltRank(999))
	assert.Empty(t, cat.TerminologyByBeltRank(999))
}

func TestStudyItems(t *testing.T) {
	cat, err := Load()
	require.NoError(t, err)

	all := cat.StudyItems()
	expected := len(cat.Terminology()) + len(cat.Patterns()) + len(cat.Sequences())
	assert.Len(t, all, expected, "the flattened view should cover every item")

	// Ordinals are stable and strictly increasing in catalogue order
	for i := 1; i < len(all); i++ {
		assert.Greater(t, all[i].Ordinal, all[i-1].Ordinal)
	}

	terms := cat.StudyItems(domain.ItemKindTerminology)
	assert.Len(t, terms, len(cat.Terminology()))
	for _, item := range terms {
		assert.Equal(t, domain.ItemKindTerminology, item.Kind)
		assert.NotEmpty(t, item.Prompt, "terminology prompt should be the English term")
		assert.NotEmpty(t, item.Answer, "terminology answer should be the romanised term")
	}

	item, ok := cat.ItemByID(domain.ItemKindPattern, "chon-ji")
	require.True(t, ok, "Chon-Ji should be addressable by ID")
	assert.Equal(t, "Chon-Ji", item.Prompt)
	assert.Equal(t, []int{20}, item.BeltRanks)

	_, ok = cat.ItemByID(domain.ItemKindTerminology, "chon-ji")
	assert.False(t, ok, "IDs are scoped per kind")
}

func TestSequenceTitles(t *testing.T) {
	cat, err := Load()
	require.NoError(t, err)

	item, ok := cat.ItemByID(domain.ItemKindStepSparring, "three-step-1")
	require.True(t, ok)
	assert.Equal(t, "Three-Step Sparring No. 1", item.Prompt)
	assert.Contains(t, item.Answer, "counter with", "the final exchange prescribes a counter")
}

func TestNewInvariants(t *testing.T) {
	validBelts := []Belt{
		{ID: "white", Name: "White Belt", ShortName: "9th Keup", Rank: 10, ColorHex: "#FFFFFF"},
		{ID: "yellow", Name: "Yellow Belt", ShortName: "8th Keup", Rank: 20, ColorHex: "#FFD520"},
	}

	testCases := []struct {
		name        string
		belts       []Belt
		terminology []TerminologyEntry
		patterns    []Pattern
		wantErr     error
	}{
		{
			name:    "empty belt table",
			belts:   nil,
			wantErr: ErrEmptyBeltTable,
		},
		{
			name: "duplicate belt rank",
			belts: []Belt{
				{ID: "a", Rank: 10},
				{ID: "b", Rank: 10},
			},
			wantErr: ErrDuplicateBeltRank,
		},
		{
			name:  "item tagged with unknown rank",
			belts: validBelts,
			terminology: []TerminologyEntry{
				{ID: "kick", English: "Kick", Romanised: "Chagi", BeltRanks: []int{77}},
			},
			wantErr: ErrUnknownBeltRank,
		},
		{
			name:  "duplicate item ID within a kind",
			belts: validBelts,
			terminology: []TerminologyEntry{
				{ID: "kick", English: "Kick", Romanised: "Chagi", BeltRanks: []int{10}},
				{ID: "kick", English: "Kick Again", Romanised: "Chagi", BeltRanks: []int{20}},
			},
			wantErr: ErrDuplicateItemID,
		},
		{
			name:  "move count mismatch",
			belts: validBelts,
			patterns: []Pattern{
				{
					ID: "chon-ji", Name: "Chon-Ji", Meaning: "Heaven and Earth",
					MoveCount: 19, BeltRanks: []int{20},
					Moves: []PatternMove{{MoveNumber: 1, Stance: "Walking Stance", English: "Low Block"}},
				},
			},
			wantErr: ErrMoveCountMismatch,
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			_, err := New(tc.belts, tc.terminology, tc.patterns, nil)
			assert.True(t, errors.Is(err, tc.wantErr),
				"expected %v, got %v", tc.wantErr, err)
		})
	}
}
