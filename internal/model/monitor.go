package model

import "time"

// Health report statuses.
const (
	HealthHealthy        = "healthy"
	HealthNeedsAttention = "needs_attention"
)

// MonitorSession is one row of the active-sessions monitor feed.
type MonitorSession struct {
	SessionID        string    `json:"session_id"`
	UserID           string    `json:"user_id"`
	StartedAt        time.Time `json:"started_at"`
	LastInteraction  time.Time `json:"last_interaction"`
	InteractionCount int       `json:"interaction_count"`
	Overall          float64   `json:"overall"`
	Trend            string    `json:"trend"`
	AlertCount       int       `json:"alert_count"`
	BreakDue         bool      `json:"break_due"`
}

// HealthReport summarizes the live engagement picture for dashboards.
type HealthReport struct {
	Status               string    `json:"status"`
	ActiveSessions       int       `json:"active_sessions"`
	AverageScore         float64   `json:"average_score"`
	UnacknowledgedAlerts int64     `json:"unacknowledged_alerts"`
	CriticalAlerts       int64     `json:"critical_alerts"`
	GeneratedAt          time.Time `json:"generated_at"`
}
