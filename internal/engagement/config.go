package engagement

import "time"

// Config holds the tuning constants of the engagement engine. All policy
// thresholds live here so deployments can adjust them without touching the
// scoring or break logic.
type Config struct {
	// ExpectedInteractionsPerMinute is the interaction rate that counts as
	// full participation.
	ExpectedInteractionsPerMinute float64

	// FocusGapCap limits how much of the gap between two interactions is
	// credited as focus time. Idle stretches beyond the cap do not count.
	FocusGapCap time.Duration

	// PomodoroInterval is the target work interval between breaks.
	// PomodoroDueFraction is how far into the interval a break becomes due.
	PomodoroInterval    time.Duration
	PomodoroDueFraction float64

	// MaxSessionLength is the recommended ceiling for one sitting.
	// MaxSessionDueFraction is how far toward the ceiling a break becomes due.
	MaxSessionLength      time.Duration
	MaxSessionDueFraction float64

	// BreakScoreFloor makes a break due whenever the overall score drops
	// below it.
	BreakScoreFloor float64

	// MicroBreakUnder and MicroScoreFloor gate the micro tier: short session,
	// engagement still high. ShortBreakUnder gates the short tier.
	MicroBreakUnder time.Duration
	MicroScoreFloor float64
	ShortBreakUnder time.Duration

	// TrendWindow is how many recent sessions feed the trend fit.
	// MinTrendSessions is the minimum history before a trend is reported.
	// TrendSlopeThreshold separates improving/declining from stable.
	TrendWindow         int
	MinTrendSessions    int
	TrendSlopeThreshold float64

	// ConsistencyWindow is how many recent sessions feed the consistency
	// variance.
	ConsistencyWindow int

	// LowAttentionWarning and LowAttentionCritical are the overall-score
	// thresholds for attention alerts.
	LowAttentionWarning  float64
	LowAttentionCritical float64

	// AccuracyAlertFloor triggers the declining-accuracy alert once at least
	// AccuracyAlertMinQuestions have been answered.
	AccuracyAlertFloor        float64
	AccuracyAlertMinQuestions int

	// ExtendedSessionAfter triggers the extended-session alert.
	ExtendedSessionAfter time.Duration

	// Component weights of the overall score. They should sum to 1.
	ParticipationWeight float64
	AccuracyWeight      float64
	TimeOnTaskWeight    float64
	ConsistencyWeight   float64

	// HistoryLimit caps the per-learner session history. Oldest entries are
	// dropped first. Zero means unbounded.
	HistoryLimit int
}

// DefaultConfig returns the engine defaults.
func DefaultConfig() Config {
	return Config{
		ExpectedInteractionsPerMinute: 2,
		FocusGapCap:                   5 * time.Minute,
		PomodoroInterval:              25 * time.Minute,
		PomodoroDueFraction:           0.9,
		MaxSessionLength:              45 * time.Minute,
		MaxSessionDueFraction:         0.8,
		BreakScoreFloor:               0.6,
		MicroBreakUnder:               30 * time.Minute,
		MicroScoreFloor:               0.6,
		ShortBreakUnder:               60 * time.Minute,
		TrendWindow:                   5,
		MinTrendSessions:              3,
		TrendSlopeThreshold:           0.05,
		ConsistencyWindow:             5,
		LowAttentionWarning:           0.6,
		LowAttentionCritical:          0.4,
		AccuracyAlertFloor:            0.5,
		AccuracyAlertMinQuestions:     3,
		ExtendedSessionAfter:          2 * time.Hour,
		ParticipationWeight:           0.30,
		AccuracyWeight:                0.30,
		TimeOnTaskWeight:              0.25,
		ConsistencyWeight:             0.15,
		HistoryLimit:                  50,
	}
}
