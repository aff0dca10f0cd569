package leitner

// DemotionPolicy controls what happens to an item's box after an
// incorrect answer.
type DemotionPolicy string

const (
	// DemotionResetToFirst sends the item all the way back to box 1.
	// This is the classic Leitner behavior and the default.
	DemotionResetToFirst DemotionPolicy = "reset_to_first"

	// DemotionStepDown moves the item back a single box, never below box 1.
	DemotionStepDown DemotionPolicy = "step_down"
)

// MasteryLevel is the learner-facing name for a band of Leitner boxes.
type MasteryLevel string

const (
	MasteryLearning   MasteryLevel = "learning"
	MasteryFamiliar   MasteryLevel = "familiar"
	MasteryProficient MasteryLevel = "proficient"
	MasteryMastered   MasteryLevel = "mastered"
)

// Params defines all configurable parameters for the Leitner scheduler
type Params struct {
	// Days until the next review, keyed by box number
	BoxIntervals map[int]int

	// What an incorrect answer does to the item's box
	DemotionPolicy DemotionPolicy
}

// ParamsConfig allows overriding the default parameters when creating a new Params instance
type ParamsConfig struct {
	// Review intervals per box, in days
	BoxOneIntervalDays   int
	BoxTwoIntervalDays   int
	BoxThreeIntervalDays int
	BoxFourIntervalDays  int
	BoxFiveIntervalDays  int

	// Demotion behavior
	DemotionPolicy DemotionPolicy
}

// NewDefaultParams creates a new Params instance with default values
func NewDefaultParams() *Params {
	return &Params{
		// Default review intervals per box
		BoxIntervals: map[int]int{
			1: 1,
			2: 2,
			3: 4,
			4: 7,
			5: 14,
		},

		// Incorrect answers restart the item from box 1
		DemotionPolicy: DemotionResetToFirst,
	}
}

// NewParams creates a new Params instance with custom configuration
func NewParams(config ParamsConfig) *Params {
	params := NewDefaultParams()

	// Override box intervals if provided
	if config.BoxOneIntervalDays > 0 {
		params.BoxIntervals[1] = config.BoxOneIntervalDays
	}
	if config.BoxTwoIntervalDays > 0 {
		params.BoxIntervals[2] = config.BoxTwoIntervalDays
	}
	if config.BoxThreeIntervalDays > 0 {
		params.BoxIntervals[3] = config.BoxThreeIntervalDays
	}
	if config.BoxFourIntervalDays > 0 {
		params.BoxIntervals[4] = config.BoxFourIntervalDays
	}
	if config.BoxFiveIntervalDays > 0 {
		params.BoxIntervals[5] = config.BoxFiveIntervalDays
	}

	// Override demotion policy if provided and recognized
	if isValidDemotionPolicy(config.DemotionPolicy) {
		params.DemotionPolicy = config.DemotionPolicy
	}

	return params
}

// isValidDemotionPolicy checks if the given policy is valid
func isValidDemotionPolicy(policy DemotionPolicy) bool {
	switch policy {
	case DemotionResetToFirst, DemotionStepDown:
		return true
	default:
		return false
	}
}
