package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/tkdojang/dojang-api/internal/api/shared"
	"github.com/tkdojang/dojang-api/internal/service"
)

// MaxArchiveBytes caps the accepted archive size. Archives carry full study
// histories, so the limit sits well above the shared request body cap.
const MaxArchiveBytes = 5 << 20

// ImportHandler handles profile archive imports. Ingestion runs on the task
// runner; the POST endpoint only validates and enqueues.
type ImportHandler struct {
	importService service.ImportService
}

// NewImportHandler creates a new ImportHandler.
func NewImportHandler(importService service.ImportService) *ImportHandler {
	return &ImportHandler{importService: importService}
}

// CreateImport handles POST /api/imports. The request body is the archive
// document itself. Responds 202 with the pending job; clients poll GetImport
// for the outcome.
func (h *ImportHandler) CreateImport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, handled := getUserIDFromContext(w, r)
	if handled {
		return
	}

	archive, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxArchiveBytes))
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			shared.RespondWithError(w, r, http.StatusRequestEntityTooLarge,
				"Archive exceeds the size limit")
			return
		}
		shared.RespondWithError(w, r, http.StatusBadRequest, "Failed to read request body")
		return
	}
	if len(archive) == 0 {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Request body is required")
		return
	}

	job, err := h.importService.EnqueueImport(ctx, userID, archive)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to enqueue import")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusAccepted, job)
}

// GetImport handles GET /api/imports/{importID}.
func (h *ImportHandler) GetImport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, jobID, handled := getUserAndPathUUID(w, r, "importID")
	if handled {
		return
	}

	job, err := h.importService.GetImport(ctx, userID, jobID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to get import")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, job)
}
