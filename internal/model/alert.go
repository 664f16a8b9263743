package model

import (
	"time"

	"github.com/google/uuid"
)

// AlertRecord is a persisted engagement alert awaiting acknowledgement by a
// monitoring consumer.
type AlertRecord struct {
	ID             uuid.UUID  `json:"id"`
	SessionID      string     `json:"session_id"`
	UserID         string     `json:"user_id"`
	Type           string     `json:"type"`
	Severity       string     `json:"severity"`
	Message        string     `json:"message"`
	Recommendation string     `json:"recommendation"`
	Acknowledged   bool       `json:"acknowledged"`
	AcknowledgedAt *time.Time `json:"acknowledged_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}
