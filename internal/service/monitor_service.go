package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/learnpath/engage-backend/internal/config"
	"github.com/learnpath/engage-backend/internal/engagement"
	"github.com/learnpath/engage-backend/internal/model"
	"github.com/learnpath/engage-backend/internal/repository"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// healthScoreFloor marks the live average below which the health report flips
// to needs_attention.
const healthScoreFloor = 0.6

// MonitorService assembles the live monitoring views over the engine plus the
// persisted alert log. List responses are cached in Redis for a short TTL to
// absorb dashboard polling.
type MonitorService struct {
	engine *engagement.Engine
	alerts *repository.AlertRepository
	rdb    *redis.Client
	cfg    *config.Config
	log    zerolog.Logger
}

// NewMonitorService creates a new MonitorService.
func NewMonitorService(
	engine *engagement.Engine,
	alerts *repository.AlertRepository,
	rdb *redis.Client,
	cfg *config.Config,
	log zerolog.Logger,
) *MonitorService {
	return &MonitorService{
		engine: engine,
		alerts: alerts,
		rdb:    rdb,
		cfg:    cfg,
		log:    log.With().Str("component", "monitor_service").Logger(),
	}
}

// ActiveSessions returns monitor rows for every live session, oldest first.
// Cache failures fall through to the engine, never to the caller.
func (s *MonitorService) ActiveSessions(ctx context.Context) []model.MonitorSession {
	if cached, err := s.rdb.Get(ctx, config.CacheKey.MonitorSessionsKey()).Result(); err == nil {
		var rows []model.MonitorSession
		if json.Unmarshal([]byte(cached), &rows) == nil {
			return rows
		}
	}

	rows := s.collectSessions()
	if payload, err := json.Marshal(rows); err == nil {
		s.rdb.Set(ctx, config.CacheKey.MonitorSessionsKey(), payload, s.cfg.MonitorCacheTTL)
	}
	return rows
}

// collectSessions builds the monitor rows straight from the engine.
func (s *MonitorService) collectSessions() []model.MonitorSession {
	live := s.engine.ActiveSessions()
	rows := make([]model.MonitorSession, 0, len(live))
	for _, m := range live {
		score := s.engine.CalculateScore(m.SessionID, m.UserID)
		rows = append(rows, model.MonitorSession{
			SessionID:        m.SessionID,
			UserID:           m.UserID,
			StartedAt:        m.StartTime,
			LastInteraction:  m.LastInteraction,
			InteractionCount: m.InteractionCount,
			Overall:          score.Overall,
			Trend:            string(score.Trend),
			AlertCount:       len(score.Alerts),
			BreakDue:         hasBreakAlert(score.Alerts),
		})
	}
	return rows
}

// Health reports the aggregate engagement picture: needs_attention when the
// live average drops under the floor or critical alerts wait unacknowledged.
func (s *MonitorService) Health(ctx context.Context) model.HealthReport {
	if cached, err := s.rdb.Get(ctx, config.CacheKey.MonitorHealthKey()).Result(); err == nil {
		var report model.HealthReport
		if json.Unmarshal([]byte(cached), &report) == nil {
			return report
		}
	}

	rows := s.collectSessions()
	var sum float64
	for _, r := range rows {
		sum += r.Overall
	}
	var avg float64
	if len(rows) > 0 {
		avg = sum / float64(len(rows))
	}

	total, critical, err := s.alerts.CountUnacknowledged(ctx)
	if err != nil {
		s.log.Warn().Err(err).Msg("Unacknowledged alert count failed")
	}

	status := model.HealthHealthy
	if (len(rows) > 0 && avg < healthScoreFloor) || critical > 0 {
		status = model.HealthNeedsAttention
	}

	report := model.HealthReport{
		Status:               status,
		ActiveSessions:       len(rows),
		AverageScore:         avg,
		UnacknowledgedAlerts: total,
		CriticalAlerts:       critical,
		GeneratedAt:          time.Now().UTC(),
	}

	if payload, err := json.Marshal(report); err == nil {
		s.rdb.Set(ctx, config.CacheKey.MonitorHealthKey(), payload, s.cfg.MonitorCacheTTL)
	}
	return report
}

// Alerts returns the persisted alert log, newest first.
func (s *MonitorService) Alerts(ctx context.Context, acknowledged *bool, limit, offset int) ([]model.AlertRecord, int, error) {
	return s.alerts.ListPaginated(ctx, acknowledged, limit, offset)
}

// AcknowledgeAlert marks one alert as handled.
func (s *MonitorService) AcknowledgeAlert(ctx context.Context, id uuid.UUID) error {
	return s.alerts.Acknowledge(ctx, id)
}
