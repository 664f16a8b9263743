package worker

import (
	"context"
	"time"

	"github.com/learnpath/engage-backend/internal/config"
	"github.com/learnpath/engage-backend/internal/model"
	"github.com/learnpath/engage-backend/internal/service"
	"github.com/rs/zerolog"
)

// Reaper evicts sessions with no interactions for longer than the idle
// timeout, archiving each one the same way an explicit end does.
type Reaper struct {
	engagementService *service.EngagementService
	interval          time.Duration
	idleAfter         time.Duration
	log               zerolog.Logger
}

// NewReaper creates a new Reaper.
func NewReaper(engagementService *service.EngagementService, cfg *config.Config, log zerolog.Logger) *Reaper {
	return &Reaper{
		engagementService: engagementService,
		interval:          cfg.ReaperInterval,
		idleAfter:         cfg.ReaperIdleAfter,
		log:               log.With().Str("component", "reaper").Logger(),
	}
}

// Start begins the reap loop. Call in a goroutine.
func (r *Reaper) Start(ctx context.Context) {
	r.log.Info().Dur("idle_after", r.idleAfter).Msg("Reaper started")

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.log.Info().Msg("Reaper stopped")
			return
		case <-ticker.C:
			r.reap()
		}
	}
}

func (r *Reaper) reap() {
	now := time.Now()

	for _, m := range r.engagementService.ActiveSessions() {
		// Sessions created by a score query carry no interaction yet;
		// measure idleness from the start in that case.
		last := m.LastInteraction
		if last.IsZero() {
			last = m.StartTime
		}
		if now.Sub(last) < r.idleAfter {
			continue
		}

		if _, _, ok := r.engagementService.EndSession(m.SessionID, m.UserID, model.EndReasonIdleTimeout); ok {
			r.log.Info().
				Str("session_id", m.SessionID).
				Str("user_id", m.UserID).
				Time("last_interaction", last).
				Msg("Evicted idle session")
		}
	}
}
