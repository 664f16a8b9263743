// Package engagement implements the learner engagement monitor: per-session
// interaction metrics, a multi-factor engagement score, accuracy trend
// classification, typed alerts, and the break policy. The engine is fully
// in-memory and never returns an error; every computation has a defined
// fallback.
package engagement

import (
	"sort"
	"sync"
	"time"
)

type sessionKey struct {
	sessionID string
	userID    string
}

// Engine owns all live session metrics and per-learner histories. A single
// mutex serializes access, so interactions for the same session are always
// applied in submission order regardless of how many goroutines call in.
type Engine struct {
	cfg  Config
	sink Sink
	now  func() time.Time

	mu       sync.Mutex
	sessions map[sessionKey]*Metrics
	history  map[string][]*Metrics
}

// Option configures an Engine.
type Option func(*Engine)

// WithSink attaches the telemetry sink notified after every recorded
// interaction.
func WithSink(s Sink) Option {
	return func(e *Engine) { e.sink = s }
}

// New creates an Engine with the given tuning configuration.
func New(cfg Config, opts ...Option) *Engine {
	e := &Engine{
		cfg:      cfg,
		now:      time.Now,
		sessions: make(map[sessionKey]*Metrics),
		history:  make(map[string][]*Metrics),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// getOrCreate returns the live record for the key, creating it on first
// access and appending it to the learner's history. Callers hold e.mu.
func (e *Engine) getOrCreate(sessionID, userID string) *Metrics {
	k := sessionKey{sessionID, userID}
	if m, ok := e.sessions[k]; ok {
		return m
	}
	now := e.now()
	m := &Metrics{
		SessionID:       sessionID,
		UserID:          userID,
		StartTime:       now,
		LastInteraction: now,
	}
	e.sessions[k] = m
	e.history[userID] = append(e.history[userID], m)
	e.trimHistory(userID)
	return m
}

func (e *Engine) trimHistory(userID string) {
	limit := e.cfg.HistoryLimit
	if limit <= 0 {
		return
	}
	if h := e.history[userID]; len(h) > limit {
		e.history[userID] = h[len(h)-limit:]
	}
}

// TrackInteraction records one interaction and returns the updated metrics.
// Unknown interaction types count toward participation but leave the quiz
// counters alone; a quiz submission without a boolean "correct" field counts
// as incorrect. The sink is notified after the update is applied.
func (e *Engine) TrackInteraction(sessionID, userID string, typ InteractionType, data map[string]any) Metrics {
	e.mu.Lock()
	m := e.getOrCreate(sessionID, userID)
	now := e.now()

	m.InteractionCount++
	var correct *bool
	if typ == InteractionQuizSubmit {
		m.TotalQuestions++
		ok := quizCorrect(data)
		if ok {
			m.CorrectAnswers++
		}
		correct = &ok
	}

	// Credit the gap since the previous interaction as focus time, capped so
	// idle stretches do not count as study.
	gap := now.Sub(m.LastInteraction)
	if gap > e.cfg.FocusGapCap {
		gap = e.cfg.FocusGapCap
	}
	if gap > 0 {
		m.FocusTime += gap
	}
	m.LastInteraction = now
	m.TotalTime = now.Sub(m.StartTime)

	snapshot := *m
	e.mu.Unlock()

	if e.sink != nil {
		e.sink.InteractionRecorded(Event{
			SessionID:  sessionID,
			UserID:     userID,
			Type:       typ,
			Data:       data,
			Correct:    correct,
			OccurredAt: now,
		})
	}
	return snapshot
}

func quizCorrect(data map[string]any) bool {
	v, ok := data["correct"].(bool)
	return ok && v
}

// RecordBreak marks a completed break and returns the updated metrics.
func (e *Engine) RecordBreak(sessionID, userID string) Metrics {
	e.mu.Lock()
	defer e.mu.Unlock()

	m := e.getOrCreate(sessionID, userID)
	now := e.now()
	m.BreaksTaken++
	m.LastBreak = now
	m.TotalTime = now.Sub(m.StartTime)
	return *m
}

// Snapshot returns a copy of the live record, if one exists. It never
// creates a session.
func (e *Engine) Snapshot(sessionID, userID string) (Metrics, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	m, ok := e.sessions[sessionKey{sessionID, userID}]
	if !ok {
		return Metrics{}, false
	}
	m.TotalTime = e.now().Sub(m.StartTime)
	return *m, true
}

// ActiveSessions returns copies of every live record, oldest session first.
func (e *Engine) ActiveSessions() []Metrics {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.now()
	out := make([]Metrics, 0, len(e.sessions))
	for _, m := range e.sessions {
		m.TotalTime = now.Sub(m.StartTime)
		out = append(out, *m)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].StartTime.Equal(out[j].StartTime) {
			return out[i].SessionID < out[j].SessionID
		}
		return out[i].StartTime.Before(out[j].StartTime)
	})
	return out
}

// Evict removes the live record and returns its final state. The record
// stays in the learner's history, so past sessions keep feeding trend and
// consistency. The engine never evicts on its own; session lifecycle belongs
// to the hosting service.
func (e *Engine) Evict(sessionID, userID string) (Metrics, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()

	k := sessionKey{sessionID, userID}
	m, ok := e.sessions[k]
	if !ok {
		return Metrics{}, false
	}
	m.TotalTime = e.now().Sub(m.StartTime)
	delete(e.sessions, k)
	return *m, true
}

// SeedHistory pre-populates a learner's history from archived sessions,
// oldest first. It only applies while the learner has no history in this
// process and reports whether the seed was taken.
func (e *Engine) SeedHistory(userID string, past []Metrics) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if len(e.history[userID]) > 0 {
		return false
	}
	for i := range past {
		m := past[i]
		m.UserID = userID
		e.history[userID] = append(e.history[userID], &m)
	}
	e.trimHistory(userID)
	return len(past) > 0
}

// HistoryLen reports how many sessions are recorded for the learner,
// including the active ones.
func (e *Engine) HistoryLen(userID string) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.history[userID])
}

// evaluation is a consistent view of one session plus the owning learner's
// history, taken under the lock so scoring runs on stable numbers.
type evaluation struct {
	metrics    Metrics
	accuracies []float64 // one per history entry, oldest first
	now        time.Time
}

func (e *Engine) evaluate(sessionID, userID string) evaluation {
	e.mu.Lock()
	defer e.mu.Unlock()

	m := e.getOrCreate(sessionID, userID)
	now := e.now()
	m.TotalTime = now.Sub(m.StartTime)

	hist := e.history[userID]
	accs := make([]float64, len(hist))
	for i, h := range hist {
		accs[i] = sessionAccuracy(h.CorrectAnswers, h.TotalQuestions)
	}
	return evaluation{metrics: *m, accuracies: accs, now: now}
}
