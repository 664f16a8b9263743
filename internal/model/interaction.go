package model

import (
	"time"

	"github.com/google/uuid"
)

// TrackInteractionRequest reports one learner interaction. Type is free-form
// by contract: the engine accepts names it has never seen, so the API only
// constrains the shape.
type TrackInteractionRequest struct {
	Type string         `json:"type" binding:"required,max=64"`
	Data map[string]any `json:"data" binding:"omitempty"`
}

// InteractionEvent is one raw interaction as persisted by the telemetry
// pipeline. Correct is set only for quiz submissions.
type InteractionEvent struct {
	ID         uuid.UUID      `json:"id"`
	SessionID  string         `json:"session_id"`
	UserID     string         `json:"user_id"`
	Type       string         `json:"type"`
	Correct    *bool          `json:"correct,omitempty"`
	Data       map[string]any `json:"data,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
	CreatedAt  time.Time      `json:"created_at"`
}
