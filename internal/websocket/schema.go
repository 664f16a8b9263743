package websocket

import (
	"github.com/learnpath/engage-backend/internal/engagement"
	"github.com/learnpath/engage-backend/internal/model"
)

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionInteraction Action = "interaction"
	ActionTakeBreak   Action = "take_break"
	ActionEndSession  Action = "end_session"
	ActionPing        Action = "ping"
)

// Request is the single client → server frame shape. Fields beyond Action
// are action-specific: Type and Data belong to "interaction".
type Request struct {
	Action Action         `json:"action"`
	Type   string         `json:"type,omitempty"`
	Data   map[string]any `json:"data,omitempty"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventScore        Event = "score"
	EventBreak        Event = "break"
	EventAlert        Event = "alert"
	EventSessionEnded Event = "session_ended"
	EventPong         Event = "pong"
	EventError        Event = "error"
)

// ScoreEvent carries the refreshed engagement score, pushed after every
// interaction and on the refresh tick.
type ScoreEvent struct {
	Event Event            `json:"event"`
	Score engagement.Score `json:"score"`
}

// BreakEvent is pushed when a break becomes due, or in reply to take_break.
type BreakEvent struct {
	Event Event           `json:"event"`
	Plan  model.BreakPlan `json:"plan"`
}

// AlertEvent carries one newly raised alert.
type AlertEvent struct {
	Event Event            `json:"event"`
	Alert engagement.Alert `json:"alert"`
}

// SessionEndedEvent carries the final snapshot after end_session.
type SessionEndedEvent struct {
	Event  Event                  `json:"event"`
	Report model.EngagementReport `json:"report"`
	Score  engagement.Score       `json:"score"`
}

type PongEvent struct {
	Event Event `json:"event"`
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Error string `json:"error"`
}
