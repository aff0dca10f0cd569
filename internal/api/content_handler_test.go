package api_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tkdojang/dojang-api/internal/api"
	"github.com/tkdojang/dojang-api/internal/catalog"
)

func contentRouter(t *testing.T) http.Handler {
	t.Helper()

	belts := []catalog.Belt{
		{ID: "white", Name: "White Belt", ShortName: "9th Keup", Rank: 10, ColorHex: "#FFFFFF"},
		{ID: "yellow-stripe", Name: "Yellow Stripe", ShortName: "8th Keup", Rank: 20, ColorHex: "#FFFFFF", StripeHex: "#FFD700"},
		{ID: "yellow", Name: "Yellow Belt", ShortName: "7th Keup", Rank: 30, ColorHex: "#FFD700"},
	}
	terminology := []catalog.TerminologyEntry{
		{ID: "attention", English: "Attention", Romanised: "Charyot", Category: "commands", BeltRanks: []int{10}},
		{ID: "punch", English: "Punch", Romanised: "Jirugi", Category: "techniques", BeltRanks: []int{20}},
	}
	patterns := []catalog.Pattern{
		{ID: "chon-ji", Name: "Chon-Ji", Meaning: "Heaven and Earth", MoveCount: 19, BeltRanks: []int{20}},
	}
	sequences := []catalog.StepSparringSequence{
		{
			ID:        "three-step-1",
			Series:    catalog.SeriesThreeStep,
			Number:    1,
			BeltRanks: []int{20},
			Steps: []catalog.SparringExchange{
				{
					Attack:  catalog.SparringAction{English: "Obverse punch"},
					Defense: catalog.SparringAction{English: "Inner forearm block"},
					Counter: &catalog.SparringAction{English: "Reverse punch"},
				},
			},
		},
	}

	cat, err := catalog.New(belts, terminology, patterns, sequences)
	require.NoError(t, err, "failed to build test catalogue")

	h := api.NewContentHandler(cat)
	r := chi.NewRouter()
	r.Get("/api/belts", h.ListBelts)
	r.Get("/api/content/terminology", h.ListTerminology)
	r.Get("/api/content/patterns", h.ListPatterns)
	r.Get("/api/content/stepsparring", h.ListStepSparring)
	return r
}

func TestListBelts(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/api/belts", nil)
	rr := httptest.NewRecorder()
	contentRouter(t).ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code, "body: %s", rr.Body.String())

	var resp api.BeltListResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Len(t, resp.Belts, 3)
	assert.Equal(t, "White Belt", resp.Belts[0].Name)
	assert.Equal(t, 10, resp.Belts[0].Rank)
	assert.Equal(t, 30, resp.Belts[2].Rank, "belts come back in ascending rank order")
}

func TestListTerminology(t *testing.T) {
	t.Parallel()

	t.Run("lists everything without a filter", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest(http.MethodGet, "/api/content/terminology", nil)
		rr := httptest.NewRecorder()
		contentRouter(t).ServeHTTP(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)

		var resp api.TerminologyListResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.Len(t, resp.Terminology, 2)
	})

	t.Run("filters by belt rank", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest(http.MethodGet, "/api/content/terminology?belt_rank=20", nil)
		rr := httptest.NewRecorder()
		contentRouter(t).ServeHTTP(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)

		var resp api.TerminologyListResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		require.Len(t, resp.Terminology, 1)
		assert.Equal(t, "Jirugi", resp.Terminology[0].Romanised)
	})

	t.Run("a rank with no content is an empty list, not an error", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest(http.MethodGet, "/api/content/terminology?belt_rank=999", nil)
		rr := httptest.NewRecorder()
		contentRouter(t).ServeHTTP(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
		assert.JSONEq(t, `{"terminology": []}`, rr.Body.String())
	})

	t.Run("rejects a malformed rank", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest(http.MethodGet, "/api/content/terminology?belt_rank=yellow", nil)
		rr := httptest.NewRecorder()
		contentRouter(t).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, "Query parameter belt_rank must be a positive integer", errorMessage(t, rr))
	})

	t.Run("rejects a non-positive rank", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest(http.MethodGet, "/api/content/terminology?belt_rank=0", nil)
		rr := httptest.NewRecorder()
		contentRouter(t).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestListPatterns(t *testing.T) {
	t.Parallel()

	t.Run("filters by belt rank", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest(http.MethodGet, "/api/content/patterns?belt_rank=20", nil)
		rr := httptest.NewRecorder()
		contentRouter(t).ServeHTTP(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)

		var resp api.PatternListResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		require.Len(t, resp.Patterns, 1)
		assert.Equal(t, "Chon-Ji", resp.Patterns[0].Name)
		assert.Equal(t, 19, resp.Patterns[0].MoveCount)
	})

	t.Run("white belt has no pattern yet", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest(http.MethodGet, "/api/content/patterns?belt_rank=10", nil)
		rr := httptest.NewRecorder()
		contentRouter(t).ServeHTTP(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
		assert.JSONEq(t, `{"patterns": []}`, rr.Body.String())
	})
}

func TestListStepSparring(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/api/content/stepsparring?belt_rank=20", nil)
	rr := httptest.NewRecorder()
	contentRouter(t).ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	var resp api.StepSparringListResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Len(t, resp.Sequences, 1)
	assert.Equal(t, catalog.SeriesThreeStep, resp.Sequences[0].Series)
	require.Len(t, resp.Sequences[0].Steps, 1)
	require.NotNil(t, resp.Sequences[0].Steps[0].Counter)
	assert.Equal(t, "Reverse punch", resp.Sequences[0].Steps[0].Counter.English)
}
