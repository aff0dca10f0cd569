package api

import (
	"net/http"
	"strconv"

	"github.com/tkdojang/dojang-api/internal/api/shared"
	"github.com/tkdojang/dojang-api/internal/catalog"
)

// ContentHandler serves the read-only syllabus catalogue: belts, terminology,
// patterns, and step sparring sequences. These endpoints are public; the
// catalogue carries no learner data.
type ContentHandler struct {
	catalog *catalog.Catalog
}

// NewContentHandler creates a new ContentHandler.
func NewContentHandler(cat *catalog.Catalog) *ContentHandler {
	return &ContentHandler{catalog: cat}
}

// BeltListResponse wraps the belt collection.
type BeltListResponse struct {
	Belts []catalog.Belt `json:"belts"`
}

// TerminologyListResponse wraps a terminology listing.
type TerminologyListResponse struct {
	Terminology []catalog.TerminologyEntry `json:"terminology"`
}

// PatternListResponse wraps a pattern listing.
type PatternListResponse struct {
	Patterns []catalog.Pattern `json:"patterns"`
}

// StepSparringListResponse wraps a step sparring listing.
type StepSparringListResponse struct {
	Sequences []catalog.StepSparringSequence `json:"sequences"`
}

// ListBelts handles GET /api/belts.
func (h *ContentHandler) ListBelts(w http.ResponseWriter, r *http.Request) {
	shared.RespondWithJSON(w, r, http.StatusOK, BeltListResponse{Belts: h.catalog.Belts()})
}

// ListTerminology handles GET /api/content/terminology. An optional
// belt_rank query parameter restricts the listing to one belt; a rank with
// no content yields an empty list.
func (h *ContentHandler) ListTerminology(w http.ResponseWriter, r *http.Request) {
	rank, filtered, ok := beltRankFilter(w, r)
	if !ok {
		return
	}

	entries := h.catalog.Terminology()
	if filtered {
		entries = h.catalog.TerminologyByBeltRank(rank)
	}

	shared.RespondWithJSON(w, r, http.StatusOK, TerminologyListResponse{Terminology: entries})
}

// ListPatterns handles GET /api/content/patterns with the same optional
// belt_rank filter as terminology.
func (h *ContentHandler) ListPatterns(w http.ResponseWriter, r *http.Request) {
	rank, filtered, ok := beltRankFilter(w, r)
	if !ok {
		return
	}

	patterns := h.catalog.Patterns()
	if filtered {
		patterns = h.catalog.PatternsByBeltRank(rank)
	}

	shared.RespondWithJSON(w, r, http.StatusOK, PatternListResponse{Patterns: patterns})
}

// ListStepSparring handles GET /api/content/stepsparring with the same
// optional belt_rank filter as terminology.
func (h *ContentHandler) ListStepSparring(w http.ResponseWriter, r *http.Request) {
	rank, filtered, ok := beltRankFilter(w, r)
	if !ok {
		return
	}

	sequences := h.catalog.Sequences()
	if filtered {
		sequences = h.catalog.SequencesByBeltRank(rank)
	}

	shared.RespondWithJSON(w, r, http.StatusOK, StepSparringListResponse{Sequences: sequences})
}

// beltRankFilter parses the optional belt_rank query parameter. filtered
// reports whether the parameter was present; ok is false when an error
// response was already written.
func beltRankFilter(w http.ResponseWriter, r *http.Request) (rank int, filtered, ok bool) {
	raw := r.URL.Query().Get("belt_rank")
	if raw == "" {
		return 0, false, true
	}
	rank, err := strconv.Atoi(raw)
	if err != nil || rank < 1 {
		shared.RespondWithError(w, r, http.StatusBadRequest,
			"Query parameter belt_rank must be a positive integer")
		return 0, false, false
	}
	return rank, true, true
}
