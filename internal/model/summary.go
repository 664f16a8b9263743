package model

import (
	"time"

	"github.com/google/uuid"
)

// Reasons a session left the live set.
const (
	EndReasonEnded       = "ended"
	EndReasonIdleTimeout = "idle_timeout"
)

// SessionSummary is the archived outcome of one finished learner session,
// written when the session ends or the reaper evicts it. Summaries are the
// source for history warm starts after a restart.
type SessionSummary struct {
	ID               uuid.UUID `json:"id"`
	SessionID        string    `json:"session_id"`
	UserID           string    `json:"user_id"`
	StartedAt        time.Time `json:"started_at"`
	EndedAt          time.Time `json:"ended_at"`
	InteractionCount int       `json:"interaction_count"`
	CorrectAnswers   int       `json:"correct_answers"`
	TotalQuestions   int       `json:"total_questions"`
	FocusMS          int64     `json:"focus_ms"`
	TotalMS          int64     `json:"total_ms"`
	BreaksTaken      int       `json:"breaks_taken"`
	FinalScore       *float64  `json:"final_score,omitempty"`
	EndReason        string    `json:"end_reason"`
}
