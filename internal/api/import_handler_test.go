package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tkdojang/dojang-api/internal/api"
	"github.com/tkdojang/dojang-api/internal/domain"
	"github.com/tkdojang/dojang-api/internal/service"
)

func importRouter(svc service.ImportService) http.Handler {
	h := api.NewImportHandler(svc)
	r := chi.NewRouter()
	r.Post("/api/imports", h.CreateImport)
	r.Get("/api/imports/{importID}", h.GetImport)
	return r
}

func TestCreateImport(t *testing.T) {
	t.Parallel()

	t.Run("enqueues the archive and responds accepted", func(t *testing.T) {
		t.Parallel()

		userID := uuid.New()
		archiveDoc := `{"exportVersion": "2.0", "profiles": []}`

		var gotArchive json.RawMessage
		svc := &stubImportService{
			enqueueImportFunc: func(ctx context.Context, gotUser uuid.UUID, archive json.RawMessage) (*domain.ImportJob, error) {
				assert.Equal(t, userID, gotUser)
				gotArchive = archive
				job, err := domain.NewImportJob(gotUser, archive)
				require.NoError(t, err)
				return job, nil
			},
		}

		req := authedRequest(http.MethodPost, "/api/imports", strings.NewReader(archiveDoc), userID)
		rr := httptest.NewRecorder()
		importRouter(svc).ServeHTTP(rr, req)

		require.Equal(t, http.StatusAccepted, rr.Code, "body: %s", rr.Body.String())
		assert.Equal(t, archiveDoc, string(gotArchive), "archive bytes pass through untouched")

		var job domain.ImportJob
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &job))
		assert.Equal(t, domain.ImportStatusPending, job.Status)
		assert.Equal(t, userID, job.UserID)

		// The archive document itself never travels back to the client.
		assert.NotContains(t, rr.Body.String(), "exportVersion")
	})

	t.Run("empty body", func(t *testing.T) {
		t.Parallel()

		req := authedRequest(http.MethodPost, "/api/imports", strings.NewReader(""), uuid.New())
		rr := httptest.NewRecorder()
		importRouter(&stubImportService{}).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, "Request body is required", errorMessage(t, rr))
	})

	t.Run("oversized archive", func(t *testing.T) {
		t.Parallel()

		oversized := strings.Repeat("x", api.MaxArchiveBytes+1)
		req := authedRequest(http.MethodPost, "/api/imports", strings.NewReader(oversized), uuid.New())
		rr := httptest.NewRecorder()
		importRouter(&stubImportService{}).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusRequestEntityTooLarge, rr.Code)
		assert.Equal(t, "Archive exceeds the size limit", errorMessage(t, rr))
	})

	t.Run("archive that fails validation", func(t *testing.T) {
		t.Parallel()

		svc := &stubImportService{
			enqueueImportFunc: func(ctx context.Context, userID uuid.UUID, archive json.RawMessage) (*domain.ImportJob, error) {
				return nil, service.ErrInvalidArchive
			},
		}

		req := authedRequest(http.MethodPost, "/api/imports", strings.NewReader(`{"bogus": true}`), uuid.New())
		rr := httptest.NewRecorder()
		importRouter(svc).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
		assert.Equal(t, "Archive failed validation", errorMessage(t, rr))
	})
}

func TestGetImport(t *testing.T) {
	t.Parallel()

	t.Run("returns the job with its outcome", func(t *testing.T) {
		t.Parallel()

		userID := uuid.New()
		job, err := domain.NewImportJob(userID, json.RawMessage(`{"profiles": []}`))
		require.NoError(t, err)
		job.Status = domain.ImportStatusCompleted
		job.ProfilesImported = 2

		svc := &stubImportService{
			getImportFunc: func(ctx context.Context, gotUser, jobID uuid.UUID) (*domain.ImportJob, error) {
				assert.Equal(t, userID, gotUser)
				assert.Equal(t, job.ID, jobID)
				return job, nil
			},
		}

		req := authedRequest(http.MethodGet, "/api/imports/"+job.ID.String(), nil, userID)
		rr := httptest.NewRecorder()
		importRouter(svc).ServeHTTP(rr, req)

		require.Equal(t, http.StatusOK, rr.Code, "body: %s", rr.Body.String())

		var got domain.ImportJob
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
		assert.Equal(t, domain.ImportStatusCompleted, got.Status)
		assert.Equal(t, 2, got.ProfilesImported)
	})

	t.Run("unknown job", func(t *testing.T) {
		t.Parallel()

		svc := &stubImportService{
			getImportFunc: func(ctx context.Context, userID, jobID uuid.UUID) (*domain.ImportJob, error) {
				return nil, service.ErrImportNotFound
			},
		}

		req := authedRequest(http.MethodGet, "/api/imports/"+uuid.NewString(), nil, uuid.New())
		rr := httptest.NewRecorder()
		importRouter(svc).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusNotFound, rr.Code)
		assert.Equal(t, "Import not found", errorMessage(t, rr))
	})

	t.Run("malformed job ID", func(t *testing.T) {
		t.Parallel()

		req := authedRequest(http.MethodGet, "/api/imports/not-a-uuid", nil, uuid.New())
		rr := httptest.NewRecorder()
		importRouter(&stubImportService{}).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, "Invalid URL parameter", errorMessage(t, rr))
	})
}
