package study

import (
	"sort"

	"github.com/tkdojang/dojang-api/internal/catalog"
	"github.com/tkdojang/dojang-api/internal/domain"
)

// EligibleItems selects the catalogue items a profile may study, restricted
// to the given item kinds (every kind when none are named).
//
// In progression mode the selection holds exactly the items tagged with the
// next belt's rank: the learner drills the syllabus of the grade being
// worked toward. A profile already holding the most senior belt has no next
// grade, so progression selection fails with ErrAtHighestBelt.
//
// In mastery mode the selection holds every item tagged with a rank strictly
// below the profile's current rank, plus the next belt's items when a next
// belt exists. The current belt's own tag does not qualify an item by
// itself; that material entered the pool while the learner was still working
// toward the grade. At the highest belt the selection is simply the earned
// material, which is why mastery never returns ErrAtHighestBelt. Mastery
// selections are truncated to MasteryLimit items after ordering.
//
// Order is deterministic: ascending effective rank, i.e. the lowest tag
// that qualified the item, with the catalogue ordinal as tiebreak. Repeated
// calls with the same inputs return equal selections, and no item appears
// twice; padding a deck by repetition is BuildDeck's job.
func EligibleItems(
	cat *catalog.Catalog,
	profile *domain.LearnerProfile,
	kinds ...domain.ItemKind,
) ([]catalog.StudyItem, error) {
	if cat == nil {
		return nil, ErrNilCatalog
	}
	if profile == nil {
		return nil, ErrNilProfile
	}

	next, hasNext := cat.NextBelt(profile.BeltRank)

	if profile.LearningMode == domain.LearningModeMastery {
		items := selectItems(cat, kinds, func(tags []int) (int, bool) {
			return masteryRank(tags, profile.BeltRank, next.Rank, hasNext)
		})
		if len(items) > MasteryLimit {
			items = items[:MasteryLimit]
		}
		return items, nil
	}

	if !hasNext {
		return nil, ErrAtHighestBelt
	}

	return selectItems(cat, kinds, func(tags []int) (int, bool) {
		if containsRank(tags, next.Rank) {
			return next.Rank, true
		}
		return 0, false
	}), nil
}

// rankedItem pairs a study item with the rank that qualified it.
type rankedItem struct {
	item          catalog.StudyItem
	effectiveRank int
}

// selectItems walks the catalogue in its stable order, keeps the items the
// qualify function admits, and returns them sorted by ascending effective
// rank with the catalogue ordinal breaking ties. The result is never nil.
func selectItems(
	cat *catalog.Catalog,
	kinds []domain.ItemKind,
	qualify func(tags []int) (int, bool),
) []catalog.StudyItem {
	ranked := make([]rankedItem, 0)
	for _, item := range cat.StudyItems(kinds...) {
		rank, ok := qualify(item.BeltRanks)
		if !ok {
			continue
		}
		ranked = append(ranked, rankedItem{item: item, effectiveRank: rank})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].effectiveRank != ranked[j].effectiveRank {
			return ranked[i].effectiveRank < ranked[j].effectiveRank
		}
		return ranked[i].item.Ordinal < ranked[j].item.Ordinal
	})

	items := make([]catalog.StudyItem, len(ranked))
	for i, r := range ranked {
		items[i] = r.item
	}
	return items
}

// masteryRank returns the lowest tag qualifying an item for mastery study:
// any rank the profile has already passed, or the rank of the next grade
// when one exists. The second return value is false when no tag qualifies.
func masteryRank(tags []int, currentRank, nextRank int, hasNext bool) (int, bool) {
	best := 0
	found := false
	for _, tag := range tags {
		if tag >= currentRank && !(hasNext && tag == nextRank) {
			continue
		}
		if !found || tag < best {
			best = tag
			found = true
		}
	}
	return best, found
}

func containsRank(tags []int, rank int) bool {
	for _, tag := range tags {
		if tag == rank {
			return true
		}
	}
	return false
}
