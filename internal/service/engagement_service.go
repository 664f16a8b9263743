package service

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/learnpath/engage-backend/internal/config"
	"github.com/learnpath/engage-backend/internal/engagement"
	"github.com/learnpath/engage-backend/internal/repository"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// TrackResult is everything one recorded interaction produced.
type TrackResult struct {
	Metrics   engagement.Metrics
	Score     engagement.Score
	NewAlerts []engagement.Alert
	BreakDue  bool
}

type alertKey struct {
	sessionID string
	userID    string
	alertType engagement.AlertType
}

// EngagementService hosts the engagement engine: it warm-starts learner
// histories from archived summaries, fans score updates out to monitor
// streams, deduplicates alerts before they hit the persistence queue, and
// archives finished sessions.
type EngagementService struct {
	engine    *engagement.Engine
	cfg       *config.Config
	rdb       *redis.Client
	summaries *repository.SummaryRepository
	log       zerolog.Logger

	warm sync.Map // userID → *sync.Once

	mu        sync.Mutex
	alertSeen map[alertKey]engagement.Severity
}

// NewEngagementService creates a new EngagementService around an engine.
func NewEngagementService(
	engine *engagement.Engine,
	cfg *config.Config,
	rdb *redis.Client,
	summaries *repository.SummaryRepository,
	log zerolog.Logger,
) *EngagementService {
	return &EngagementService{
		engine:    engine,
		cfg:       cfg,
		rdb:       rdb,
		summaries: summaries,
		log:       log.With().Str("component", "engagement_service").Logger(),
		alertSeen: make(map[alertKey]engagement.Severity),
	}
}

// TrackInteraction applies one interaction and returns the refreshed score
// picture. It never fails: queue pushes, pub/sub, and cache writes are
// best-effort side effects of the in-memory update.
func (s *EngagementService) TrackInteraction(ctx context.Context, sessionID, userID, typ string, data map[string]any) TrackResult {
	s.warmStart(ctx, userID)

	metrics := s.engine.TrackInteraction(sessionID, userID, engagement.InteractionType(typ), data)
	score := s.engine.CalculateScore(sessionID, userID)

	newAlerts := s.dedupAlerts(sessionID, userID, score.Alerts)
	if len(newAlerts) > 0 {
		s.enqueueAlerts(sessionID, userID, newAlerts)
	}
	s.publishUpdate("update", metrics, score)

	return TrackResult{
		Metrics:   metrics,
		Score:     score,
		NewAlerts: newAlerts,
		BreakDue:  hasBreakAlert(score.Alerts),
	}
}

// Score returns the full engagement score, warm-starting the learner's
// history on first touch in this process.
func (s *EngagementService) Score(ctx context.Context, sessionID, userID string) engagement.Score {
	s.warmStart(ctx, userID)
	return s.engine.CalculateScore(sessionID, userID)
}

// ShouldTakeBreak reports whether a break is currently due.
func (s *EngagementService) ShouldTakeBreak(ctx context.Context, sessionID, userID string) bool {
	s.warmStart(ctx, userID)
	return s.engine.ShouldTakeBreak(sessionID, userID)
}

// RecommendBreak picks the break tier for the session.
func (s *EngagementService) RecommendBreak(ctx context.Context, sessionID, userID string) engagement.BreakRecommendation {
	s.warmStart(ctx, userID)
	return s.engine.BreakRecommendation(sessionID, userID)
}

// RecordBreak marks a completed break and refreshes the monitor streams.
func (s *EngagementService) RecordBreak(ctx context.Context, sessionID, userID string) engagement.Metrics {
	s.warmStart(ctx, userID)

	metrics := s.engine.RecordBreak(sessionID, userID)
	s.publishUpdate("update", metrics, s.engine.CalculateScore(sessionID, userID))
	return metrics
}

// Snapshot returns current metrics without creating a session.
func (s *EngagementService) Snapshot(sessionID, userID string) (engagement.Metrics, bool) {
	return s.engine.Snapshot(sessionID, userID)
}

// EndSession archives the session to the summary queue and evicts it from
// the live set. reason is one of model.EndReason*. ok is false when no live
// session exists; ending twice is not an error, the second call just reports
// false.
func (s *EngagementService) EndSession(sessionID, userID, reason string) (engagement.Metrics, engagement.Score, bool) {
	s.mu.Lock()
	if _, ok := s.engine.Snapshot(sessionID, userID); !ok {
		s.mu.Unlock()
		return engagement.Metrics{}, engagement.Score{}, false
	}
	score := s.engine.CalculateScore(sessionID, userID)
	metrics, _ := s.engine.Evict(sessionID, userID)
	s.forgetAlerts(sessionID, userID)
	s.mu.Unlock()

	s.enqueueSummary(metrics, score.Overall, reason)
	s.publishUpdate("session_ended", metrics, score)

	s.log.Info().
		Str("session_id", sessionID).
		Str("user_id", userID).
		Str("reason", reason).
		Int("interactions", metrics.InteractionCount).
		Msg("Session ended")

	return metrics, score, true
}

// ActiveSessions exposes the live set for the monitor and the reaper.
func (s *EngagementService) ActiveSessions() []engagement.Metrics {
	return s.engine.ActiveSessions()
}

// warmStart seeds the learner's history from archived summaries, at most once
// per learner per process. Failures are logged and skipped; the engine's
// neutral fallbacks cover missing history.
func (s *EngagementService) warmStart(ctx context.Context, userID string) {
	once, _ := s.warm.LoadOrStore(userID, new(sync.Once))
	once.(*sync.Once).Do(func() {
		if s.engine.HistoryLen(userID) > 0 {
			return
		}
		summaries, err := s.summaries.ListRecentByUser(ctx, userID, s.cfg.HistoryLimit)
		if err != nil {
			s.log.Warn().Err(err).Str("user_id", userID).Msg("History warm start failed")
			return
		}
		if len(summaries) == 0 {
			return
		}

		past := make([]engagement.Metrics, 0, len(summaries))
		for _, sum := range summaries {
			past = append(past, engagement.Metrics{
				SessionID:        sum.SessionID,
				UserID:           sum.UserID,
				StartTime:        sum.StartedAt,
				InteractionCount: sum.InteractionCount,
				CorrectAnswers:   sum.CorrectAnswers,
				TotalQuestions:   sum.TotalQuestions,
				FocusTime:        time.Duration(sum.FocusMS) * time.Millisecond,
				TotalTime:        time.Duration(sum.TotalMS) * time.Millisecond,
				BreaksTaken:      sum.BreaksTaken,
				LastInteraction:  sum.EndedAt,
			})
		}
		if s.engine.SeedHistory(userID, past) {
			s.log.Info().Str("user_id", userID).Int("sessions", len(past)).Msg("Seeded history from archive")
		}
	})
}

// dedupAlerts filters the alert list down to alerts not yet recorded for this
// session at an equal or higher severity. Escalations pass through.
func (s *EngagementService) dedupAlerts(sessionID, userID string, alerts []engagement.Alert) []engagement.Alert {
	if len(alerts) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var fresh []engagement.Alert
	for _, a := range alerts {
		k := alertKey{sessionID, userID, a.Type}
		prev, seen := s.alertSeen[k]
		if seen && severityRank(a.Severity) <= severityRank(prev) {
			continue
		}
		s.alertSeen[k] = a.Severity
		fresh = append(fresh, a)
	}
	return fresh
}

// forgetAlerts clears the dedup state for a finished session. Callers hold
// s.mu.
func (s *EngagementService) forgetAlerts(sessionID, userID string) {
	for k := range s.alertSeen {
		if k.sessionID == sessionID && k.userID == userID {
			delete(s.alertSeen, k)
		}
	}
}

func severityRank(sev engagement.Severity) int {
	switch sev {
	case engagement.SeverityCritical:
		return 2
	case engagement.SeverityWarning:
		return 1
	default:
		return 0
	}
}

func hasBreakAlert(alerts []engagement.Alert) bool {
	for _, a := range alerts {
		if a.Type == engagement.AlertBreakNeeded {
			return true
		}
	}
	return false
}

// enqueueAlerts pushes fresh alerts onto the persistence queue. Detached from
// the request context: an alert recorded in memory must reach the queue even
// if the caller goes away.
func (s *EngagementService) enqueueAlerts(sessionID, userID string, alerts []engagement.Alert) {
	ctx := context.Background()

	pipe := s.rdb.Pipeline()
	for _, a := range alerts {
		payload, err := json.Marshal(map[string]any{
			"session_id":     sessionID,
			"user_id":        userID,
			"type":           string(a.Type),
			"severity":       string(a.Severity),
			"message":        a.Message,
			"recommendation": a.Recommendation,
		})
		if err != nil {
			continue
		}
		pipe.RPush(ctx, config.WorkerKey.PersistAlertsQueue, payload)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		s.log.Error().Err(err).Str("session_id", sessionID).Msg("Alert enqueue error")
	}
}

// enqueueSummary hands the final session state to the archive queue.
func (s *EngagementService) enqueueSummary(m engagement.Metrics, overall float64, reason string) {
	payload, err := json.Marshal(map[string]any{
		"session_id":        m.SessionID,
		"user_id":           m.UserID,
		"started_at":        m.StartTime,
		"ended_at":          m.StartTime.Add(m.TotalTime),
		"interaction_count": m.InteractionCount,
		"correct_answers":   m.CorrectAnswers,
		"total_questions":   m.TotalQuestions,
		"focus_ms":          m.FocusTime.Milliseconds(),
		"total_ms":          m.TotalTime.Milliseconds(),
		"breaks_taken":      m.BreaksTaken,
		"final_score":       overall,
		"end_reason":        reason,
	})
	if err != nil {
		return
	}
	if err := s.rdb.RPush(context.Background(), config.WorkerKey.ArchiveSummaryQueue, payload).Err(); err != nil {
		s.log.Error().Err(err).Str("session_id", m.SessionID).Msg("Summary enqueue error")
	}
}

// publishUpdate notifies monitor streams about a changed session. Best
// effort; streams also refresh on a ticker.
func (s *EngagementService) publishUpdate(event string, m engagement.Metrics, score engagement.Score) {
	payload, err := json.Marshal(map[string]any{
		"type":        event,
		"session_id":  m.SessionID,
		"user_id":     m.UserID,
		"overall":     score.Overall,
		"trend":       string(score.Trend),
		"alert_count": len(score.Alerts),
	})
	if err != nil {
		return
	}
	if err := s.rdb.Publish(context.Background(), config.CacheKey.LiveChannel(), payload).Err(); err != nil {
		s.log.Warn().Err(err).Msg("Live update publish error")
	}
}
