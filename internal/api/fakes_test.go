package api_test

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/tkdojang/dojang-api/internal/api/shared"
	"github.com/tkdojang/dojang-api/internal/domain"
	"github.com/tkdojang/dojang-api/internal/service"
	"github.com/tkdojang/dojang-api/internal/service/review"
	"github.com/tkdojang/dojang-api/internal/store"
)

// Handler tests stub the service interfaces with function fields. A call to
// an unstubbed method is a wiring mistake in the test, so it panics rather
// than masquerading as a server error.

type stubProfileService struct {
	createProfileFunc   func(ctx context.Context, userID uuid.UUID, params service.CreateProfileParams) (*domain.LearnerProfile, error)
	getProfileFunc      func(ctx context.Context, userID, profileID uuid.UUID) (*domain.LearnerProfile, error)
	listProfilesFunc    func(ctx context.Context, userID uuid.UUID) ([]*domain.LearnerProfile, error)
	updateProfileFunc   func(ctx context.Context, userID, profileID uuid.UUID, params service.UpdateProfileParams) (*domain.LearnerProfile, error)
	promoteProfileFunc  func(ctx context.Context, userID, profileID uuid.UUID, passed bool, notes string) (*domain.GradingRecord, error)
	deleteProfileFunc   func(ctx context.Context, userID, profileID uuid.UUID) error
	getProfileStatsFunc func(ctx context.Context, userID, profileID uuid.UUID) (*service.ProfileStats, error)
	exportProfileFunc   func(ctx context.Context, userID, profileID uuid.UUID) (*domain.ProfileArchive, error)
}

func (s *stubProfileService) CreateProfile(ctx context.Context, userID uuid.UUID, params service.CreateProfileParams) (*domain.LearnerProfile, error) {
	if s.createProfileFunc == nil {
		panic("CreateProfile not stubbed")
	}
	return s.createProfileFunc(ctx, userID, params)
}

func (s *stubProfileService) GetProfile(ctx context.Context, userID, profileID uuid.UUID) (*domain.LearnerProfile, error) {
	if s.getProfileFunc == nil {
		panic("GetProfile not stubbed")
	}
	return s.getProfileFunc(ctx, userID, profileID)
}

func (s *stubProfileService) ListProfiles(ctx context.Context, userID uuid.UUID) ([]*domain.LearnerProfile, error) {
	if s.listProfilesFunc == nil {
		panic("ListProfiles not stubbed")
	}
	return s.listProfilesFunc(ctx, userID)
}

func (s *stubProfileService) UpdateProfile(ctx context.Context, userID, profileID uuid.UUID, params service.UpdateProfileParams) (*domain.LearnerProfile, error) {
	if s.updateProfileFunc == nil {
		panic("UpdateProfile not stubbed")
	}
	return s.updateProfileFunc(ctx, userID, profileID, params)
}

func (s *stubProfileService) PromoteProfile(ctx context.Context, userID, profileID uuid.UUID, passed bool, notes string) (*domain.GradingRecord, error) {
	if s.promoteProfileFunc == nil {
		panic("PromoteProfile not stubbed")
	}
	return s.promoteProfileFunc(ctx, userID, profileID, passed, notes)
}

func (s *stubProfileService) DeleteProfile(ctx context.Context, userID, profileID uuid.UUID) error {
	if s.deleteProfileFunc == nil {
		panic("DeleteProfile not stubbed")
	}
	return s.deleteProfileFunc(ctx, userID, profileID)
}

func (s *stubProfileService) GetProfileStats(ctx context.Context, userID, profileID uuid.UUID) (*service.ProfileStats, error) {
	if s.getProfileStatsFunc == nil {
		panic("GetProfileStats not stubbed")
	}
	return s.getProfileStatsFunc(ctx, userID, profileID)
}

func (s *stubProfileService) ExportProfile(ctx context.Context, userID, profileID uuid.UUID) (*domain.ProfileArchive, error) {
	if s.exportProfileFunc == nil {
		panic("ExportProfile not stubbed")
	}
	return s.exportProfileFunc(ctx, userID, profileID)
}

type stubStudyService struct {
	startSessionFunc    func(ctx context.Context, userID, profileID uuid.UUID, params service.StartSessionParams) (*service.StartedSession, error)
	completeSessionFunc func(ctx context.Context, userID, profileID, sessionID uuid.UUID, params service.CompleteSessionParams) (*domain.StudySession, error)
	listSessionsFunc    func(ctx context.Context, userID, profileID uuid.UUID, limit, offset int) ([]*domain.StudySession, error)
}

func (s *stubStudyService) StartSession(ctx context.Context, userID, profileID uuid.UUID, params service.StartSessionParams) (*service.StartedSession, error) {
	if s.startSessionFunc == nil {
		panic("StartSession not stubbed")
	}
	return s.startSessionFunc(ctx, userID, profileID, params)
}

func (s *stubStudyService) CompleteSession(ctx context.Context, userID, profileID, sessionID uuid.UUID, params service.CompleteSessionParams) (*domain.StudySession, error) {
	if s.completeSessionFunc == nil {
		panic("CompleteSession not stubbed")
	}
	return s.completeSessionFunc(ctx, userID, profileID, sessionID, params)
}

func (s *stubStudyService) ListSessions(ctx context.Context, userID, profileID uuid.UUID, limit, offset int) ([]*domain.StudySession, error) {
	if s.listSessionsFunc == nil {
		panic("ListSessions not stubbed")
	}
	return s.listSessionsFunc(ctx, userID, profileID, limit, offset)
}

type stubReviewService struct {
	submitReviewFunc   func(ctx context.Context, userID, profileID uuid.UUID, request review.SubmitReviewRequest) (*domain.ReviewProgress, error)
	postponeReviewFunc func(ctx context.Context, userID, profileID uuid.UUID, itemID string, kind domain.ItemKind, days int) (*domain.ReviewProgress, error)
	listProgressFunc   func(ctx context.Context, userID, profileID uuid.UUID, kind domain.ItemKind) ([]*domain.ReviewProgress, error)
}

func (s *stubReviewService) SubmitReview(ctx context.Context, userID, profileID uuid.UUID, request review.SubmitReviewRequest) (*domain.ReviewProgress, error) {
	if s.submitReviewFunc == nil {
		panic("SubmitReview not stubbed")
	}
	return s.submitReviewFunc(ctx, userID, profileID, request)
}

func (s *stubReviewService) PostponeReview(ctx context.Context, userID, profileID uuid.UUID, itemID string, kind domain.ItemKind, days int) (*domain.ReviewProgress, error) {
	if s.postponeReviewFunc == nil {
		panic("PostponeReview not stubbed")
	}
	return s.postponeReviewFunc(ctx, userID, profileID, itemID, kind, days)
}

func (s *stubReviewService) ListProgress(ctx context.Context, userID, profileID uuid.UUID, kind domain.ItemKind) ([]*domain.ReviewProgress, error) {
	if s.listProgressFunc == nil {
		panic("ListProgress not stubbed")
	}
	return s.listProgressFunc(ctx, userID, profileID, kind)
}

type stubImportService struct {
	enqueueImportFunc func(ctx context.Context, userID uuid.UUID, archive json.RawMessage) (*domain.ImportJob, error)
	getImportFunc     func(ctx context.Context, userID, jobID uuid.UUID) (*domain.ImportJob, error)
}

func (s *stubImportService) EnqueueImport(ctx context.Context, userID uuid.UUID, archive json.RawMessage) (*domain.ImportJob, error) {
	if s.enqueueImportFunc == nil {
		panic("EnqueueImport not stubbed")
	}
	return s.enqueueImportFunc(ctx, userID, archive)
}

func (s *stubImportService) GetImport(ctx context.Context, userID, jobID uuid.UUID) (*domain.ImportJob, error) {
	if s.getImportFunc == nil {
		panic("GetImport not stubbed")
	}
	return s.getImportFunc(ctx, userID, jobID)
}

func (s *stubImportService) ImportArchive(ctx context.Context, userID uuid.UUID, archive json.RawMessage) (int, error) {
	panic("ImportArchive not stubbed")
}

type stubFeedbackService struct {
	createPostFunc  func(ctx context.Context, userID uuid.UUID, title, body string, category domain.FeedbackCategory) (*domain.FeedbackPost, error)
	getPostFunc     func(ctx context.Context, postID uuid.UUID) (*domain.FeedbackPost, error)
	listPostsFunc   func(ctx context.Context, filter store.FeedbackFilter) ([]*domain.FeedbackPost, error)
	castVoteFunc    func(ctx context.Context, userID, postID uuid.UUID) error
	retractVoteFunc func(ctx context.Context, userID, postID uuid.UUID) error
}

func (s *stubFeedbackService) CreatePost(ctx context.Context, userID uuid.UUID, title, body string, category domain.FeedbackCategory) (*domain.FeedbackPost, error) {
	if s.createPostFunc == nil {
		panic("CreatePost not stubbed")
	}
	return s.createPostFunc(ctx, userID, title, body, category)
}

func (s *stubFeedbackService) GetPost(ctx context.Context, postID uuid.UUID) (*domain.FeedbackPost, error) {
	if s.getPostFunc == nil {
		panic("GetPost not stubbed")
	}
	return s.getPostFunc(ctx, postID)
}

func (s *stubFeedbackService) ListPosts(ctx context.Context, filter store.FeedbackFilter) ([]*domain.FeedbackPost, error) {
	if s.listPostsFunc == nil {
		panic("ListPosts not stubbed")
	}
	return s.listPostsFunc(ctx, filter)
}

func (s *stubFeedbackService) CastVote(ctx context.Context, userID, postID uuid.UUID) error {
	if s.castVoteFunc == nil {
		panic("CastVote not stubbed")
	}
	return s.castVoteFunc(ctx, userID, postID)
}

func (s *stubFeedbackService) RetractVote(ctx context.Context, userID, postID uuid.UUID) error {
	if s.retractVoteFunc == nil {
		panic("RetractVote not stubbed")
	}
	return s.retractVoteFunc(ctx, userID, postID)
}

// stubUserStore backs the auth handler tests with an in-memory user map.
type stubUserStore struct {
	users     map[string]*domain.User
	createErr error
}

func newStubUserStore(users ...*domain.User) *stubUserStore {
	s := &stubUserStore{users: make(map[string]*domain.User)}
	for _, u := range users {
		s.users[u.Email] = u
	}
	return s
}

func (s *stubUserStore) Create(ctx context.Context, user *domain.User) error {
	if s.createErr != nil {
		return s.createErr
	}
	if _, ok := s.users[user.Email]; ok {
		return store.ErrEmailExists
	}
	// The real store hashes before persisting.
	if user.Password != "" {
		user.HashedPassword = "hashed:" + user.Password
		user.Password = ""
	}
	s.users[user.Email] = user
	return nil
}

func (s *stubUserStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	for _, u := range s.users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, store.ErrUserNotFound
}

func (s *stubUserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	u, ok := s.users[email]
	if !ok {
		return nil, store.ErrUserNotFound
	}
	return u, nil
}

func (s *stubUserStore) Update(ctx context.Context, user *domain.User) error {
	s.users[user.Email] = user
	return nil
}

func (s *stubUserStore) Delete(ctx context.Context, id uuid.UUID) error {
	for email, u := range s.users {
		if u.ID == id {
			delete(s.users, email)
			return nil
		}
	}
	return store.ErrUserNotFound
}

func (s *stubUserStore) WithTx(tx *sql.Tx) store.UserStore { return s }

var errPasswordMismatch = errors.New("password mismatch")

// stubPasswordVerifier accepts the password stored by stubUserStore.Create.
type stubPasswordVerifier struct {
	compareErr error
}

func (v *stubPasswordVerifier) Compare(hashedPassword, password string) error {
	if v.compareErr != nil {
		return v.compareErr
	}
	if hashedPassword != "hashed:"+password {
		return errPasswordMismatch
	}
	return nil
}

// authedRequest builds a request carrying userID the way the auth middleware
// would have placed it.
func authedRequest(method, target string, body io.Reader, userID uuid.UUID) *http.Request {
	req := httptest.NewRequest(method, target, body)
	ctx := context.WithValue(req.Context(), shared.UserIDContextKey, userID)
	return req.WithContext(ctx)
}

// errorMessage decodes the error body written by the shared responders.
func errorMessage(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()

	var resp shared.ErrorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp),
		"error responses must decode as ErrorResponse")
	return resp.Error
}
