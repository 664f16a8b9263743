package model

import (
	"time"

	"github.com/learnpath/engage-backend/internal/engagement"
)

// EngagementReport is the wire shape of a live metrics snapshot. Durations
// travel as milliseconds.
type EngagementReport struct {
	SessionID        string     `json:"session_id"`
	UserID           string     `json:"user_id"`
	StartedAt        time.Time  `json:"started_at"`
	LastInteraction  time.Time  `json:"last_interaction"`
	InteractionCount int        `json:"interaction_count"`
	CorrectAnswers   int        `json:"correct_answers"`
	TotalQuestions   int        `json:"total_questions"`
	FocusMS          int64      `json:"focus_ms"`
	TotalMS          int64      `json:"total_ms"`
	BreaksTaken      int        `json:"breaks_taken"`
	LastBreak        *time.Time `json:"last_break,omitempty"`
}

// ReportFromMetrics flattens engine metrics into the wire shape.
func ReportFromMetrics(m engagement.Metrics) EngagementReport {
	r := EngagementReport{
		SessionID:        m.SessionID,
		UserID:           m.UserID,
		StartedAt:        m.StartTime,
		LastInteraction:  m.LastInteraction,
		InteractionCount: m.InteractionCount,
		CorrectAnswers:   m.CorrectAnswers,
		TotalQuestions:   m.TotalQuestions,
		FocusMS:          m.FocusTime.Milliseconds(),
		TotalMS:          m.TotalTime.Milliseconds(),
		BreaksTaken:      m.BreaksTaken,
	}
	if !m.LastBreak.IsZero() {
		lb := m.LastBreak
		r.LastBreak = &lb
	}
	return r
}

// BreakStatus answers "should this learner pause now".
type BreakStatus struct {
	ShouldTakeBreak bool `json:"should_take_break"`
}

// BreakPlan is the wire shape of a break recommendation.
type BreakPlan struct {
	Type            string   `json:"type"`
	DurationMinutes int      `json:"duration_minutes"`
	Activities      []string `json:"activities"`
}

// BreakPlanFrom converts an engine recommendation into the wire shape.
func BreakPlanFrom(rec engagement.BreakRecommendation) BreakPlan {
	return BreakPlan{
		Type:            string(rec.Type),
		DurationMinutes: int(rec.Duration.Minutes()),
		Activities:      rec.Activities,
	}
}
