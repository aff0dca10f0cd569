package domain

import "time"

// ArchiveExportVersion is the profile archive format this server reads and
// writes. Bump only when the document shape changes incompatibly.
const ArchiveExportVersion = "2.0"

// ProfileArchive is the portable .tkdprofile document: one or more learner
// profiles with their full study history, self-describing enough to move
// between devices. Field names follow the original mobile export format.
type ProfileArchive struct {
	ExportVersion string           `json:"exportVersion"`
	ExportedAt    time.Time        `json:"exportedAt"`
	DeviceName    string           `json:"deviceName"`
	AppVersion    string           `json:"appVersion"`
	Profiles      []ArchiveProfile `json:"profiles"`
}

// ArchiveProfile is one learner profile inside an archive. Identifiers are
// intentionally absent: import always mints fresh IDs under the importing
// account, so an archive can be ingested twice without colliding.
type ArchiveProfile struct {
	Name           string     `json:"name"`
	Avatar         string     `json:"avatar,omitempty"`
	ColorTheme     string     `json:"colorTheme,omitempty"`
	BeltRank       int        `json:"beltRank"`
	LearningMode   string     `json:"learningMode"`
	DailyStudyGoal int        `json:"dailyStudyGoal"`
	StreakDays     int        `json:"streakDays"`
	LastActiveAt   *time.Time `json:"lastActiveAt,omitempty"`
	TotalStudyTime int64      `json:"totalStudyTime"` // Seconds
	CreatedAt      time.Time  `json:"createdAt"`

	// Derived counters carried for display parity with the mobile export.
	TotalFlashcardsSeen  int `json:"totalFlashcardsSeen"`
	TotalTestsTaken      int `json:"totalTestsTaken"`
	TotalPatternsLearned int `json:"totalPatternsLearned"`

	TerminologyProgress  []ArchiveProgress `json:"terminologyProgress"`
	PatternProgress      []ArchiveProgress `json:"patternProgress"`
	StepSparringProgress []ArchiveProgress `json:"stepSparringProgress"`
	StudySessions        []ArchiveSession  `json:"studySessions"`
	GradingHistory       []ArchiveGrading  `json:"gradingHistory"`
}

// ArchiveProgress is one item's review state. Items are referenced by their
// catalogue identifier; masteryLevel is derived from the box at export time
// and ignored on import, where the box is authoritative.
type ArchiveProgress struct {
	ItemID             string     `json:"itemId"`
	CurrentBox         int        `json:"currentBox"`
	CorrectCount       int        `json:"correctCount"`
	IncorrectCount     int        `json:"incorrectCount"`
	ConsecutiveCorrect int        `json:"consecutiveCorrect"`
	MasteryLevel       string     `json:"masteryLevel"`
	LastReviewedAt     *time.Time `json:"lastReviewedAt,omitempty"`
	NextReviewAt       time.Time  `json:"nextReviewAt"`
}

// ArchiveSession is one study session outcome. Accuracy is present only for
// completed sessions.
type ArchiveSession struct {
	SessionType     string     `json:"sessionType"`
	CardCount       int        `json:"cardCount"`
	CorrectCount    int        `json:"correctCount"`
	IncorrectCount  int        `json:"incorrectCount"`
	DurationSeconds int        `json:"durationSeconds"`
	Accuracy        *float64   `json:"accuracy,omitempty"`
	StartedAt       time.Time  `json:"startedAt"`
	CompletedAt     *time.Time `json:"completedAt,omitempty"`
}

// ArchiveGrading is one belt grading attempt.
type ArchiveGrading struct {
	FromRank int       `json:"fromRank"`
	ToRank   int       `json:"toRank"`
	Result   string    `json:"result"`
	Notes    string    `json:"notes,omitempty"`
	GradedAt time.Time `json:"gradedAt"`
}
