package study_test

import (
	"errors"
	"fmt"
	"reflect"
	"testing"

	"github.com/google/uuid"

	"github.com/tkdojang/dojang-api/internal/catalog"
	"github.com/tkdojang/dojang-api/internal/domain"
	"github.com/tkdojang/dojang-api/internal/study"
)

// testCatalog builds a small three-belt catalogue: three terminology items
// per belt, one pattern on the middle belt, and one term shared between the
// lowest and highest belts.
func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()

	belts := []catalog.Belt{
		{ID: "white", Name: "White Belt", ShortName: "9th Keup", Rank: 10, ColorHex: "#FFFFFF"},
		{ID: "yellow", Name: "Yellow Belt", ShortName: "8th Keup", Rank: 20, ColorHex: "#FFD520"},
		{ID: "green", Name: "Green Belt", ShortName: "6th Keup", Rank: 30, ColorHex: "#009A44"},
	}

	terminology := []catalog.TerminologyEntry{
		{ID: "attention", English: "Attention", Romanised: "Charyot", Category: "basics", BeltRanks: []int{10}},
		{ID: "bow", English: "Bow", Romanised: "Kyong Ye", Category: "basics", BeltRanks: []int{10}},
		{ID: "training-hall", English: "Training hall", Romanised: "Dojang", Category: "basics", BeltRanks: []int{10, 30}},
		{ID: "low-block", English: "Low block", Romanised: "Najunde Makgi", Category: "blocks", BeltRanks: []int{20}},
		{ID: "front-kick", English: "Front kick", Romanised: "Ap Chagi", Category: "kicks", BeltRanks: []int{20}},
		{ID: "punch", English: "Punch", Romanised: "Jirugi", Category: "strikes", BeltRanks: []int{20}},
		{ID: "inner-block", English: "Inner forearm block", Romanised: "An Palmok Makgi", Category: "blocks", BeltRanks: []int{30}},
		{ID: "side-kick", English: "Side kick", Romanised: "Yop Chagi", Category: "kicks", BeltRanks: []int{30}},
	}

	patterns := []catalog.Pattern{
		{ID: "chon-ji", Name: "Chon-Ji", Meaning: "Heaven and Earth", MoveCount: 19, BeltRanks: []int{20}},
	}

	cat, err := catalog.New(belts, terminology, patterns, nil)
	if err != nil {
		t.Fatalf("failed to build test catalogue: %v", err)
	}
	return cat
}

// testProfile builds a valid profile at the given rank and mode.
func testProfile(t *testing.T, rank int, mode domain.LearningMode) *domain.LearnerProfile {
	t.Helper()

	profile, err := domain.NewLearnerProfile(uuid.New(), "Jamie", rank)
	if err != nil {
		t.Fatalf("failed to build test profile: %v", err)
	}
	profile.LearningMode = mode
	return profile
}

func itemIDs(items []catalog.StudyItem) []string {
	ids := make([]string, len(items))
	for i, item := range items {
		ids[i] = item.ID
	}
	return ids
}

func TestEligibleItemsProgression(t *testing.T) {
	t.Parallel()

	cat := testCatalog(t)
	profile := testProfile(t, 10, domain.LearningModeProgression)

	items, err := study.EligibleItems(cat, profile)
	if err != nil {
		t.Fatalf("EligibleItems returned unexpected error: %v", err)
	}

	// A white belt works toward yellow: the rank-20 syllabus and nothing else.
	want := []string{"low-block", "front-kick", "punch", "chon-ji"}
	if got := itemIDs(items); !reflect.DeepEqual(got, want) {
		t.Errorf("expected items %v, got %v", want, got)
	}
	for _, item := range items {
		if !containsInt(item.BeltRanks, 20) {
			t.Errorf("item %q is not tagged with the next belt rank", item.ID)
		}
	}
}

func TestEligibleItemsProgressionKindFilter(t *testing.T) {
	t.Parallel()

	cat := testCatalog(t)
	profile := testProfile(t, 10, domain.LearningModeProgression)

	items, err := study.EligibleItems(cat, profile, domain.ItemKindTerminology)
	if err != nil {
		t.Fatalf("EligibleItems returned unexpected error: %v", err)
	}

	want := []string{"low-block", "front-kick", "punch"}
	if got := itemIDs(items); !reflect.DeepEqual(got, want) {
		t.Errorf("expected terminology-only selection %v, got %v", want, got)
	}
}

func TestEligibleItemsProgressionAtHighestBelt(t *testing.T) {
	t.Parallel()

	cat := testCatalog(t)
	profile := testProfile(t, 30, domain.LearningModeProgression)

	_, err := study.EligibleItems(cat, profile)
	if !errors.Is(err, study.ErrAtHighestBelt) {
		t.Errorf("expected ErrAtHighestBelt, got %v", err)
	}
}

func TestEligibleItemsMastery(t *testing.T) {
	t.Parallel()

	cat := testCatalog(t)
	profile := testProfile(t, 20, domain.LearningModeMastery)

	items, err := study.EligibleItems(cat, profile)
	if err != nil {
		t.Fatalf("EligibleItems returned unexpected error: %v", err)
	}

	// Earned material (rank 10) first, then the next grade's syllabus
	// (rank 30). The profile's own rank-20 items contribute nothing.
	want := []string{"attention", "bow", "training-hall", "inner-block", "side-kick"}
	if got := itemIDs(items); !reflect.DeepEqual(got, want) {
		t.Errorf("expected items %v, got %v", want, got)
	}

	ranks := make(map[int]bool)
	for _, item := range items {
		rank, ok := lowestQualifyingTag(item.BeltRanks, 20, 30)
		if !ok {
			t.Fatalf("item %q has no qualifying tag", item.ID)
		}
		ranks[rank] = true
	}
	if len(ranks) != 2 || !ranks[10] || !ranks[30] {
		t.Errorf("expected selection to span exactly ranks 10 and 30, got %v", ranks)
	}
}

func TestEligibleItemsMasterySharedTagCountsOnce(t *testing.T) {
	t.Parallel()

	cat := testCatalog(t)
	profile := testProfile(t, 20, domain.LearningModeMastery)

	items, err := study.EligibleItems(cat, profile)
	if err != nil {
		t.Fatalf("EligibleItems returned unexpected error: %v", err)
	}

	// training-hall is tagged 10 and 30; it must appear once, ordered by
	// its lowest qualifying tag, i.e. among the rank-10 items.
	seen := 0
	for i, item := range items {
		if item.ID == "training-hall" {
			seen++
			if i > 2 {
				t.Errorf("expected training-hall among the earned items, found at position %d", i)
			}
		}
	}
	if seen != 1 {
		t.Errorf("expected training-hall exactly once, found %d times", seen)
	}
}

func TestEligibleItemsMasteryAtHighestBelt(t *testing.T) {
	t.Parallel()

	cat := testCatalog(t)
	profile := testProfile(t, 30, domain.LearningModeMastery)

	items, err := study.EligibleItems(cat, profile)
	if err != nil {
		t.Fatalf("expected earned material at the highest belt, got error: %v", err)
	}

	// Everything tagged below rank 30 qualifies; nothing tagged 30 alone does.
	want := []string{"attention", "bow", "training-hall", "low-block", "front-kick", "punch", "chon-ji"}
	if got := itemIDs(items); !reflect.DeepEqual(got, want) {
		t.Errorf("expected items %v, got %v", want, got)
	}
}

func TestEligibleItemsMasteryLimit(t *testing.T) {
	t.Parallel()

	belts := []catalog.Belt{
		{ID: "white", Name: "White Belt", ShortName: "9th Keup", Rank: 10, ColorHex: "#FFFFFF"},
		{ID: "yellow", Name: "Yellow Belt", ShortName: "8th Keup", Rank: 20, ColorHex: "#FFD520"},
	}

	terminology := make([]catalog.TerminologyEntry, 0, study.MasteryLimit+10)
	for i := 0; i < study.MasteryLimit+10; i++ {
		terminology = append(terminology, catalog.TerminologyEntry{
			ID:        fmt.Sprintf("term-%02d", i),
			English:   fmt.Sprintf("Term %02d", i),
			Romanised: fmt.Sprintf("Yongo %02d", i),
			Category:  "basics",
			BeltRanks: []int{10},
		})
	}

	cat, err := catalog.New(belts, terminology, nil, nil)
	if err != nil {
		t.Fatalf("failed to build test catalogue: %v", err)
	}

	profile := testProfile(t, 20, domain.LearningModeMastery)

	items, err := study.EligibleItems(cat, profile)
	if err != nil {
		t.Fatalf("EligibleItems returned unexpected error: %v", err)
	}

	if len(items) != study.MasteryLimit {
		t.Fatalf("expected selection capped at %d items, got %d", study.MasteryLimit, len(items))
	}
	// The cap keeps the lowest-ordered items, so the first item survives
	// and the overflow at the tail is dropped.
	if items[0].ID != "term-00" {
		t.Errorf("expected the first catalogue item to survive the cap, got %q", items[0].ID)
	}
	for _, item := range items {
		if item.ID > fmt.Sprintf("term-%02d", study.MasteryLimit-1) {
			t.Errorf("expected only the first %d items, found %q", study.MasteryLimit, item.ID)
		}
	}
}

func TestEligibleItemsThreeBeltLadder(t *testing.T) {
	t.Parallel()

	belts := []catalog.Belt{
		{ID: "b11", Name: "Belt Eleven", ShortName: "11", Rank: 11, ColorHex: "#111111"},
		{ID: "b12", Name: "Belt Twelve", ShortName: "12", Rank: 12, ColorHex: "#222222"},
		{ID: "b13", Name: "Belt Thirteen", ShortName: "13", Rank: 13, ColorHex: "#333333"},
	}

	terminology := make([]catalog.TerminologyEntry, 0, 9)
	for _, rank := range []int{11, 12, 13} {
		for n := 1; n <= 3; n++ {
			terminology = append(terminology, catalog.TerminologyEntry{
				ID:        fmt.Sprintf("term-%d-%d", rank, n),
				English:   fmt.Sprintf("Term %d-%d", rank, n),
				Romanised: fmt.Sprintf("Yongo %d-%d", rank, n),
				Category:  "basics",
				BeltRanks: []int{rank},
			})
		}
	}

	cat, err := catalog.New(belts, terminology, nil, nil)
	if err != nil {
		t.Fatalf("failed to build test catalogue: %v", err)
	}

	progression := testProfile(t, 12, domain.LearningModeProgression)
	items, err := study.EligibleItems(cat, progression)
	if err != nil {
		t.Fatalf("progression selection failed: %v", err)
	}
	if len(items) != 3 {
		t.Fatalf("expected exactly 3 progression items, got %d", len(items))
	}
	for _, item := range items {
		if !containsInt(item.BeltRanks, 13) {
			t.Errorf("progression item %q is not tagged with rank 13", item.ID)
		}
	}

	mastery := testProfile(t, 12, domain.LearningModeMastery)
	items, err = study.EligibleItems(cat, mastery)
	if err != nil {
		t.Fatalf("mastery selection failed: %v", err)
	}
	if len(items) != 6 {
		t.Fatalf("expected exactly 6 mastery items, got %d", len(items))
	}
	ranks := make(map[int]bool)
	for _, item := range items {
		ranks[item.BeltRanks[0]] = true
	}
	if len(ranks) != 2 || !ranks[11] || !ranks[13] {
		t.Errorf("expected mastery selection to span exactly ranks 11 and 13, got %v", ranks)
	}
}

func TestEligibleItemsDeterministic(t *testing.T) {
	t.Parallel()

	cat := testCatalog(t)
	profile := testProfile(t, 20, domain.LearningModeMastery)

	first, err := study.EligibleItems(cat, profile)
	if err != nil {
		t.Fatalf("first call failed: %v", err)
	}
	second, err := study.EligibleItems(cat, profile)
	if err != nil {
		t.Fatalf("second call failed: %v", err)
	}

	if !reflect.DeepEqual(first, second) {
		t.Error("expected identical selections for identical inputs")
	}
}

func TestEligibleItemsNilArguments(t *testing.T) {
	t.Parallel()

	cat := testCatalog(t)
	profile := testProfile(t, 10, domain.LearningModeProgression)

	if _, err := study.EligibleItems(nil, profile); !errors.Is(err, study.ErrNilCatalog) {
		t.Errorf("expected ErrNilCatalog, got %v", err)
	}
	if _, err := study.EligibleItems(cat, nil); !errors.Is(err, study.ErrNilProfile) {
		t.Errorf("expected ErrNilProfile, got %v", err)
	}
}

func containsInt(values []int, want int) bool {
	for _, v := range values {
		if v == want {
			return true
		}
	}
	return false
}

// lowestQualifyingTag mirrors the selection rule for assertions: the lowest
// tag strictly below the current rank, or the next rank itself.
func lowestQualifyingTag(tags []int, currentRank, nextRank int) (int, bool) {
	best := 0
	found := false
	for _, tag := range tags {
		if tag >= currentRank && tag != nextRank {
			continue
		}
		if !found || tag < best {
			best = tag
			found = true
		}
	}
	return best, found
}
