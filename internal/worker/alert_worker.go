package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/learnpath/engage-backend/internal/config"
	"github.com/learnpath/engage-backend/internal/model"
	"github.com/learnpath/engage-backend/internal/repository"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// AlertWorker consumes persist_alerts_queue and appends to the alert log.
type AlertWorker struct {
	alerts *repository.AlertRepository
	rdb    *redis.Client
	log    zerolog.Logger
}

// NewAlertWorker creates a new AlertWorker.
func NewAlertWorker(alerts *repository.AlertRepository, rdb *redis.Client, log zerolog.Logger) *AlertWorker {
	return &AlertWorker{
		alerts: alerts,
		rdb:    rdb,
		log:    log.With().Str("component", "alert_worker").Logger(),
	}
}

type alertPayload struct {
	SessionID      string `json:"session_id"`
	UserID         string `json:"user_id"`
	Type           string `json:"type"`
	Severity       string `json:"severity"`
	Message        string `json:"message"`
	Recommendation string `json:"recommendation"`
}

// Start begins the infinite worker loop. Call in a goroutine.
func (w *AlertWorker) Start(ctx context.Context) {
	w.log.Info().Msg("Worker started")

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Worker stopping...")
			// Drain remaining items before exit.
			w.drain(context.Background())
			w.log.Info().Msg("Worker stopped")
			return
		default:
			w.processNext(ctx)
		}
	}
}

func (w *AlertWorker) processNext(ctx context.Context) {
	// BLPop blocks until an item is available or timeout (1 second).
	result, err := w.rdb.BLPop(ctx, time.Second, config.WorkerKey.PersistAlertsQueue).Result()
	if err != nil {
		if err != redis.Nil && ctx.Err() == nil {
			w.log.Error().Err(err).Msg("BLPop error")
		}
		return
	}

	if len(result) < 2 {
		return
	}

	var payload alertPayload
	if err := json.Unmarshal([]byte(result[1]), &payload); err != nil {
		w.log.Error().Err(err).Msg("Unmarshal error")
		return
	}

	if err := w.persistAlert(ctx, &payload); err != nil {
		w.log.Error().Err(err).
			Str("session_id", payload.SessionID).
			Str("type", payload.Type).
			Msg("Persist error, retrying in 5s")
		// Push back to queue for retry.
		w.rdb.RPush(ctx, config.WorkerKey.PersistAlertsQueue, result[1])
		time.Sleep(5 * time.Second)
	}
}

func (w *AlertWorker) persistAlert(ctx context.Context, p *alertPayload) error {
	rec := model.AlertRecord{
		SessionID:      p.SessionID,
		UserID:         p.UserID,
		Type:           p.Type,
		Severity:       p.Severity,
		Message:        p.Message,
		Recommendation: p.Recommendation,
	}
	return w.alerts.Insert(ctx, &rec)
}

// drain processes all remaining items in the queue before shutdown.
func (w *AlertWorker) drain(ctx context.Context) {
	drained := 0
	for {
		result, err := w.rdb.LPop(ctx, config.WorkerKey.PersistAlertsQueue).Result()
		if err != nil {
			break
		}

		var payload alertPayload
		if err := json.Unmarshal([]byte(result), &payload); err != nil {
			w.log.Error().Err(err).Msg("Drain unmarshal error")
			continue
		}

		if err := w.persistAlert(ctx, &payload); err != nil {
			w.log.Error().Err(err).Msg("Drain persist error")
			w.rdb.RPush(ctx, config.WorkerKey.PersistAlertsQueue, result)
			break
		}
		drained++
	}

	if drained > 0 {
		w.log.Info().Int("count", drained).Msg("Drained remaining items")
	}
}
