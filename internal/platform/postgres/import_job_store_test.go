package postgres

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tkdojang/dojang-api/internal/domain"
	"github.com/tkdojang/dojang-api/internal/store"
)

func TestImportJobStoreRoundTrip(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	jobStore := NewPostgresImportJobStore(db, nil)
	archive := json.RawMessage(`{"exportVersion":"2.0","profiles":[]}`)

	job, err := domain.NewImportJob(uuid.New(), archive)
	require.NoError(t, err)

	mock.ExpectExec("INSERT INTO import_jobs").
		WithArgs(job.ID, job.UserID, "pending", []byte(archive), 0, "",
			sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, jobStore.Create(context.Background(), job))

	now := time.Now().UTC()
	rows := sqlmock.NewRows(
		[]string{"id", "user_id", "status", "archive", "profiles_imported", "error_message", "created_at", "updated_at"},
	).AddRow(job.ID.String(), job.UserID.String(), "completed", []byte(archive), 3, "", now, now)

	mock.ExpectQuery("SELECT (.+) FROM import_jobs WHERE id = \\$1").
		WithArgs(job.ID).
		WillReturnRows(rows)

	fetched, err := jobStore.GetByID(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ImportStatusCompleted, fetched.Status)
	assert.Equal(t, 3, fetched.ProfilesImported)
	assert.JSONEq(t, string(archive), string(fetched.Archive))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestImportJobStoreGetByIDNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	jobStore := NewPostgresImportJobStore(db, nil)

	mock.ExpectQuery("SELECT (.+) FROM import_jobs WHERE id = \\$1").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err = jobStore.GetByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, store.ErrImportJobNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestImportJobStoreUpdateFailure(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	jobStore := NewPostgresImportJobStore(db, nil)

	job, err := domain.NewImportJob(uuid.New(), json.RawMessage(`{"profiles":[]}`))
	require.NoError(t, err)
	job.MarkFailed("archive schema invalid")

	mock.ExpectExec("UPDATE import_jobs SET").
		WithArgs("failed", 0, "archive schema invalid", sqlmock.AnyArg(), job.ID).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, jobStore.Update(context.Background(), job))
	assert.NoError(t, mock.ExpectationsWereMet())
}
