package engagement

import "time"

// InteractionType classifies a recorded learner interaction.
type InteractionType string

const (
	InteractionAnswer     InteractionType = "answer"
	InteractionClick      InteractionType = "click"
	InteractionVideoWatch InteractionType = "video_watch"
	InteractionQuizSubmit InteractionType = "quiz_submit"
)

// Metrics is the running state of one learner within one study session.
// FocusTime only grows by capped increments, so FocusTime <= TotalTime holds
// at every observation point, and CorrectAnswers never exceeds
// TotalQuestions.
type Metrics struct {
	SessionID        string
	UserID           string
	StartTime        time.Time
	InteractionCount int
	CorrectAnswers   int
	TotalQuestions   int
	FocusTime        time.Duration
	TotalTime        time.Duration // elapsed since StartTime, refreshed on every read
	BreaksTaken      int
	LastBreak        time.Time // zero until a break is recorded
	LastInteraction  time.Time
}

// Accuracy returns the session's answer accuracy, or the neutral default
// when no questions have been answered yet.
func (m Metrics) Accuracy() float64 {
	return sessionAccuracy(m.CorrectAnswers, m.TotalQuestions)
}

// Event describes one applied interaction, as handed to the Sink.
type Event struct {
	SessionID  string
	UserID     string
	Type       InteractionType
	Data       map[string]any
	Correct    *bool // set only for quiz submissions
	OccurredAt time.Time
}

// Sink receives a notification for every interaction after it has been
// applied to the metrics. Implementations must not block; the engine calls
// them synchronously from the recording path.
type Sink interface {
	InteractionRecorded(Event)
}
