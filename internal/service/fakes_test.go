package service_test

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/tkdojang/dojang-api/internal/catalog"
	"github.com/tkdojang/dojang-api/internal/domain"
	"github.com/tkdojang/dojang-api/internal/events"
	"github.com/tkdojang/dojang-api/internal/store"
)

// callLog records cross-store call order so cascade tests can assert that
// dependent rows are removed before their parent.
type callLog struct {
	calls []string
}

func (l *callLog) record(name string) {
	if l != nil {
		l.calls = append(l.calls, name)
	}
}

// fakeProfileStore serves learner profiles from memory.
type fakeProfileStore struct {
	profiles  map[uuid.UUID]*domain.LearnerProfile
	createErr error
	getErr    error
	listErr   error
	updateErr error
	log       *callLog
}

func newFakeProfileStore(profiles ...*domain.LearnerProfile) *fakeProfileStore {
	s := &fakeProfileStore{profiles: make(map[uuid.UUID]*domain.LearnerProfile)}
	for _, p := range profiles {
		s.profiles[p.ID] = p
	}
	return s
}

func (s *fakeProfileStore) Create(ctx context.Context, profile *domain.LearnerProfile) error {
	if s.createErr != nil {
		return s.createErr
	}
	s.profiles[profile.ID] = profile
	return nil
}

func (s *fakeProfileStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.LearnerProfile, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	profile, ok := s.profiles[id]
	if !ok {
		return nil, store.ErrProfileNotFound
	}
	return profile, nil
}

func (s *fakeProfileStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.LearnerProfile, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	var out []*domain.LearnerProfile
	for _, p := range s.profiles {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *fakeProfileStore) Update(ctx context.Context, profile *domain.LearnerProfile) error {
	if s.updateErr != nil {
		return s.updateErr
	}
	if _, ok := s.profiles[profile.ID]; !ok {
		return store.ErrProfileNotFound
	}
	s.profiles[profile.ID] = profile
	return nil
}

func (s *fakeProfileStore) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := s.profiles[id]; !ok {
		return store.ErrProfileNotFound
	}
	delete(s.profiles, id)
	s.log.record("profiles.Delete")
	return nil
}

func (s *fakeProfileStore) LapseStreaks(ctx context.Context, cutoff time.Time) (int64, error) {
	var lapsed int64
	for _, p := range s.profiles {
		if p.StreakDays > 0 && p.LastActiveAt.Before(cutoff) {
			p.StreakDays = 0
			lapsed++
		}
	}
	return lapsed, nil
}

func (s *fakeProfileStore) WithTx(tx *sql.Tx) store.ProfileStore { return s }

// fakeProgressStore serves review progress from memory, keyed per item.
type fakeProgressStore struct {
	records   map[string]*domain.ReviewProgress
	createErr error
	listErr   error
	log       *callLog
}

func newFakeProgressStore(records ...*domain.ReviewProgress) *fakeProgressStore {
	s := &fakeProgressStore{records: make(map[string]*domain.ReviewProgress)}
	for _, r := range records {
		s.records[progressKey(r.ProfileID, r.ItemID, r.ItemKind)] = r
	}
	return s
}

func progressKey(profileID uuid.UUID, itemID string, kind domain.ItemKind) string {
	return fmt.Sprintf("%s/%s/%s", profileID, kind, itemID)
}

func (s *fakeProgressStore) Create(ctx context.Context, progress *domain.ReviewProgress) error {
	if s.createErr != nil {
		return s.createErr
	}
	key := progressKey(progress.ProfileID, progress.ItemID, progress.ItemKind)
	if _, ok := s.records[key]; ok {
		return store.ErrProgressExists
	}
	s.records[key] = progress
	return nil
}

func (s *fakeProgressStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.ReviewProgress, error) {
	for _, r := range s.records {
		if r.ID == id {
			return r, nil
		}
	}
	return nil, store.ErrProgressNotFound
}

func (s *fakeProgressStore) Get(
	ctx context.Context,
	profileID uuid.UUID,
	itemID string,
	kind domain.ItemKind,
) (*domain.ReviewProgress, error) {
	r, ok := s.records[progressKey(profileID, itemID, kind)]
	if !ok {
		return nil, store.ErrProgressNotFound
	}
	return r, nil
}

func (s *fakeProgressStore) GetForUpdate(
	ctx context.Context,
	profileID uuid.UUID,
	itemID string,
	kind domain.ItemKind,
) (*domain.ReviewProgress, error) {
	return s.Get(ctx, profileID, itemID, kind)
}

func (s *fakeProgressStore) ListByProfile(
	ctx context.Context,
	profileID uuid.UUID,
	kind domain.ItemKind,
) ([]*domain.ReviewProgress, error) {
	if s.listErr != nil {
		return nil, s.listErr
	}
	out := []*domain.ReviewProgress{}
	for _, r := range s.records {
		if r.ProfileID != profileID {
			continue
		}
		if kind != "" && r.ItemKind != kind {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func (s *fakeProgressStore) Update(ctx context.Context, progress *domain.ReviewProgress) error {
	key := progressKey(progress.ProfileID, progress.ItemID, progress.ItemKind)
	if _, ok := s.records[key]; !ok {
		return store.ErrProgressNotFound
	}
	s.records[key] = progress
	return nil
}

func (s *fakeProgressStore) DeleteByProfile(ctx context.Context, profileID uuid.UUID) error {
	for key, r := range s.records {
		if r.ProfileID == profileID {
			delete(s.records, key)
		}
	}
	s.log.record("progress.DeleteByProfile")
	return nil
}

func (s *fakeProgressStore) WithTx(tx *sql.Tx) store.ProgressStore { return s }

// fakeSessionStore serves study sessions from memory.
type fakeSessionStore struct {
	sessions   map[uuid.UUID]*domain.StudySession
	createErr  error
	getErr     error
	updateErr  error
	lastLimit  int
	lastOffset int
	log        *callLog
}

func newFakeSessionStore(sessions ...*domain.StudySession) *fakeSessionStore {
	s := &fakeSessionStore{sessions: make(map[uuid.UUID]*domain.StudySession)}
	for _, session := range sessions {
		s.sessions[session.ID] = session
	}
	return s
}

func (s *fakeSessionStore) Create(ctx context.Context, session *domain.StudySession) error {
	if s.createErr != nil {
		return s.createErr
	}
	s.sessions[session.ID] = session
	return nil
}

func (s *fakeSessionStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.StudySession, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	session, ok := s.sessions[id]
	if !ok {
		return nil, store.ErrSessionNotFound
	}
	return session, nil
}

func (s *fakeSessionStore) ListByProfile(
	ctx context.Context,
	profileID uuid.UUID,
	limit, offset int,
) ([]*domain.StudySession, error) {
	s.lastLimit = limit
	s.lastOffset = offset

	out := []*domain.StudySession{}
	for _, session := range s.sessions {
		if session.ProfileID == profileID {
			out = append(out, session)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.After(out[j].StartedAt) })

	if offset > 0 {
		if offset >= len(out) {
			return []*domain.StudySession{}, nil
		}
		out = out[offset:]
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *fakeSessionStore) Update(ctx context.Context, session *domain.StudySession) error {
	if s.updateErr != nil {
		return s.updateErr
	}
	if _, ok := s.sessions[session.ID]; !ok {
		return store.ErrSessionNotFound
	}
	s.sessions[session.ID] = session
	return nil
}

func (s *fakeSessionStore) DeleteByProfile(ctx context.Context, profileID uuid.UUID) error {
	for id, session := range s.sessions {
		if session.ProfileID == profileID {
			delete(s.sessions, id)
		}
	}
	s.log.record("sessions.DeleteByProfile")
	return nil
}

func (s *fakeSessionStore) WithTx(tx *sql.Tx) store.SessionStore { return s }

// fakeGradingStore keeps grading records in insertion order, which doubles
// as the oldest-first contract of the real store.
type fakeGradingStore struct {
	records   []*domain.GradingRecord
	createErr error
	log       *callLog
}

func newFakeGradingStore(records ...*domain.GradingRecord) *fakeGradingStore {
	return &fakeGradingStore{records: records}
}

func (s *fakeGradingStore) Create(ctx context.Context, record *domain.GradingRecord) error {
	if s.createErr != nil {
		return s.createErr
	}
	s.records = append(s.records, record)
	return nil
}

func (s *fakeGradingStore) ListByProfile(ctx context.Context, profileID uuid.UUID) ([]*domain.GradingRecord, error) {
	out := []*domain.GradingRecord{}
	for _, r := range s.records {
		if r.ProfileID == profileID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *fakeGradingStore) DeleteByProfile(ctx context.Context, profileID uuid.UUID) error {
	kept := s.records[:0]
	for _, r := range s.records {
		if r.ProfileID != profileID {
			kept = append(kept, r)
		}
	}
	s.records = kept
	s.log.record("gradings.DeleteByProfile")
	return nil
}

func (s *fakeGradingStore) WithTx(tx *sql.Tx) store.GradingStore { return s }

// fakeImportJobStore serves import jobs from memory.
type fakeImportJobStore struct {
	jobs      map[uuid.UUID]*domain.ImportJob
	createErr error
	getErr    error
	updateErr error
}

func newFakeImportJobStore(jobs ...*domain.ImportJob) *fakeImportJobStore {
	s := &fakeImportJobStore{jobs: make(map[uuid.UUID]*domain.ImportJob)}
	for _, job := range jobs {
		s.jobs[job.ID] = job
	}
	return s
}

func (s *fakeImportJobStore) Create(ctx context.Context, job *domain.ImportJob) error {
	if s.createErr != nil {
		return s.createErr
	}
	s.jobs[job.ID] = job
	return nil
}

func (s *fakeImportJobStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.ImportJob, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	job, ok := s.jobs[id]
	if !ok {
		return nil, store.ErrImportJobNotFound
	}
	return job, nil
}

func (s *fakeImportJobStore) Update(ctx context.Context, job *domain.ImportJob) error {
	if s.updateErr != nil {
		return s.updateErr
	}
	if _, ok := s.jobs[job.ID]; !ok {
		return store.ErrImportJobNotFound
	}
	s.jobs[job.ID] = job
	return nil
}

func (s *fakeImportJobStore) WithTx(tx *sql.Tx) store.ImportJobStore { return s }

// fakeFeedbackStore serves feedback posts and votes from memory. Casting a
// vote bumps the post's count in the same call, like the real store's
// single-statement upsert.
type fakeFeedbackStore struct {
	posts      map[uuid.UUID]*domain.FeedbackPost
	votes      map[string]bool
	createErr  error
	lastFilter store.FeedbackFilter
}

func newFakeFeedbackStore(posts ...*domain.FeedbackPost) *fakeFeedbackStore {
	s := &fakeFeedbackStore{
		posts: make(map[uuid.UUID]*domain.FeedbackPost),
		votes: make(map[string]bool),
	}
	for _, post := range posts {
		s.posts[post.ID] = post
	}
	return s
}

func voteKey(postID, userID uuid.UUID) string {
	return fmt.Sprintf("%s/%s", postID, userID)
}

func (s *fakeFeedbackStore) CreatePost(ctx context.Context, post *domain.FeedbackPost) error {
	if s.createErr != nil {
		return s.createErr
	}
	s.posts[post.ID] = post
	return nil
}

func (s *fakeFeedbackStore) GetPost(ctx context.Context, id uuid.UUID) (*domain.FeedbackPost, error) {
	post, ok := s.posts[id]
	if !ok {
		return nil, store.ErrFeedbackPostNotFound
	}
	return post, nil
}

func (s *fakeFeedbackStore) ListPosts(ctx context.Context, filter store.FeedbackFilter) ([]*domain.FeedbackPost, error) {
	s.lastFilter = filter
	out := []*domain.FeedbackPost{}
	for _, post := range s.posts {
		out = append(out, post)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].VoteCount > out[j].VoteCount })
	return out, nil
}

func (s *fakeFeedbackStore) UpdatePost(ctx context.Context, post *domain.FeedbackPost) error {
	if _, ok := s.posts[post.ID]; !ok {
		return store.ErrFeedbackPostNotFound
	}
	s.posts[post.ID] = post
	return nil
}

func (s *fakeFeedbackStore) CastVote(ctx context.Context, postID, userID uuid.UUID) error {
	post, ok := s.posts[postID]
	if !ok {
		return store.ErrFeedbackPostNotFound
	}
	key := voteKey(postID, userID)
	if s.votes[key] {
		return store.ErrVoteExists
	}
	s.votes[key] = true
	post.VoteCount++
	return nil
}

func (s *fakeFeedbackStore) RetractVote(ctx context.Context, postID, userID uuid.UUID) error {
	key := voteKey(postID, userID)
	if !s.votes[key] {
		return store.ErrVoteNotFound
	}
	delete(s.votes, key)
	if post, ok := s.posts[postID]; ok {
		post.VoteCount--
	}
	return nil
}

func (s *fakeFeedbackStore) WithTx(tx *sql.Tx) store.FeedbackStore { return s }

// fakeEventEmitter captures emitted events for assertions.
type fakeEventEmitter struct {
	events  []*events.TaskRequestEvent
	emitErr error
}

func (e *fakeEventEmitter) EmitEvent(ctx context.Context, event *events.TaskRequestEvent) error {
	if e.emitErr != nil {
		return e.emitErr
	}
	e.events = append(e.events, event)
	return nil
}

// serviceTestCatalog builds a three-belt curriculum. The rank-20 syllabus
// carries one item of every kind; rank 30 carries a pattern but no
// terminology, so a rank-20 progression profile drilling flashcards finds
// nothing to study, and rank 30 is the highest grade.
func serviceTestCatalog(t *testing.T) *catalog.Catalog {
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
		{ID: "dan-gun", Name: "Dan-Gun", Meaning: "The holy founder of Korea", MoveCount: 21, BeltRanks: []int{30}},
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
	return cat
}

func serviceTestProfile(t *testing.T, userID uuid.UUID, beltRank int) *domain.LearnerProfile {
	t.Helper()

	profile, err := domain.NewLearnerProfile(userID, "Jamie", beltRank)
	require.NoError(t, err, "failed to build test profile")
	return profile
}

// newServiceDB returns a sqlmock-backed handle for transaction expectations.
func newServiceDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
