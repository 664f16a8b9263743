package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/learnpath/engage-backend/internal/config"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// PollTimeout must be >= 1s to satisfy Redis.
const PollTimeout = 1 * time.Second

// TelemetryWorker consumes persist_events_queue and bulk-inserts interaction
// events into PostgreSQL.
type TelemetryWorker struct {
	pool       *pgxpool.Pool
	rdb        *redis.Client
	batchSize  int
	flushEvery time.Duration
	log        zerolog.Logger
}

func NewTelemetryWorker(pool *pgxpool.Pool, rdb *redis.Client, cfg *config.Config, log zerolog.Logger) *TelemetryWorker {
	return &TelemetryWorker{
		pool:       pool,
		rdb:        rdb,
		batchSize:  cfg.WorkerBatchSize,
		flushEvery: cfg.WorkerFlushInterval,
		log:        log.With().Str("component", "telemetry_worker").Logger(),
	}
}

type interactionPayload struct {
	ID         string         `json:"id"`
	SessionID  string         `json:"session_id"`
	UserID     string         `json:"user_id"`
	Type       string         `json:"type"`
	Correct    *bool          `json:"correct"`
	Data       map[string]any `json:"data"`
	OccurredAt time.Time      `json:"occurred_at"`
}

func (w *TelemetryWorker) Start(ctx context.Context) {
	w.log.Info().Int("batch_size", w.batchSize).Msg("TelemetryWorker started")

	buffer := make([]*interactionPayload, 0, w.batchSize)
	lastFlushTime := time.Now()

	for {
		// 1. Check Flush Conditions (Time or Size)
		if len(buffer) > 0 {
			if len(buffer) >= w.batchSize || time.Since(lastFlushTime) >= w.flushEvery {
				w.flushSafe(ctx, buffer)
				buffer = buffer[:0] // Clear buffer, keep capacity
				lastFlushTime = time.Now()
			}
		}

		// 2. Check Context (Graceful Shutdown)
		select {
		case <-ctx.Done():
			w.shutdown(buffer)
			return
		default:
			// Continue
		}

		// 3. Fetch from Redis
		// BLPop blocks for 1 second. Returns immediately if data exists.
		result, err := w.rdb.BLPop(ctx, PollTimeout, config.WorkerKey.PersistEventsQueue).Result()

		if err != nil {
			if err == redis.Nil {
				continue // Timeout (queue empty), loop back to check flush timer
			}
			if ctx.Err() != nil {
				return // Context cancelled
			}
			// Real Redis error (e.g., connection lost)
			w.log.Error().Err(err).Msg("Redis connection error, sleeping 3s")
			time.Sleep(3 * time.Second)
			continue
		}

		// 4. Process Data
		if len(result) < 2 {
			continue
		}

		var payload interactionPayload
		if err := json.Unmarshal([]byte(result[1]), &payload); err != nil {
			// Malformed JSON can never succeed on retry. Log and discard.
			w.log.Error().Err(err).Str("data", result[1]).Msg("Discarding malformed JSON")
			continue
		}

		buffer = append(buffer, &payload)
	}
}

// flushSafe attempts bulk insert, then fallback insert, then requeue
func (w *TelemetryWorker) flushSafe(ctx context.Context, batch []*interactionPayload) {
	// Try Fast Path: Bulk Insert
	if err := w.bulkInsert(ctx, batch); err != nil {
		w.log.Warn().Err(err).Int("count", len(batch)).Msg("Bulk insert failed, attempting row-by-row recovery")

		// Fallback Path: Insert one by one
		w.fallbackInsert(ctx, batch)
	}
}

func (w *TelemetryWorker) bulkInsert(ctx context.Context, batch []*interactionPayload) error {
	rows := make([][]interface{}, 0, len(batch))
	for _, p := range batch {
		id, err := uuid.Parse(p.ID)
		if err != nil {
			// Return error to trigger fallback, which drops the bad row individually
			return err
		}
		rows = append(rows, []interface{}{
			id, p.SessionID, p.UserID, p.Type, p.Correct, p.Data, p.OccurredAt,
		})
	}

	_, err := w.pool.CopyFrom(
		ctx,
		pgx.Identifier{"interaction_events"},
		[]string{"id", "session_id", "user_id", "type", "correct", "data", "occurred_at"},
		pgx.CopyFromRows(rows),
	)
	return err
}

func (w *TelemetryWorker) fallbackInsert(ctx context.Context, batch []*interactionPayload) {
	requeueList := make([]*interactionPayload, 0)

	for _, p := range batch {
		id, err := uuid.Parse(p.ID)
		if err != nil {
			w.log.Error().Str("id", p.ID).Msg("Dropping event with invalid UUID")
			continue
		}

		// Events carry their own id, so a retried row that already landed
		// is a no-op instead of a duplicate.
		_, err = w.pool.Exec(ctx,
			`INSERT INTO interaction_events (id, session_id, user_id, type, correct, data, occurred_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)
			 ON CONFLICT (id) DO NOTHING`,
			id, p.SessionID, p.UserID, p.Type, p.Correct, p.Data, p.OccurredAt,
		)

		if err != nil {
			w.log.Error().Err(err).Str("session_id", p.SessionID).Msg("Insert failed, requeueing")
			requeueList = append(requeueList, p)
		}
	}

	// If we have items to requeue (DB was down), push them back to Redis
	if len(requeueList) > 0 {
		w.requeue(ctx, requeueList)
	}
}

func (w *TelemetryWorker) requeue(ctx context.Context, items []*interactionPayload) {
	// Use a pipeline to push everything back quickly
	pipe := w.rdb.Pipeline()
	for _, p := range items {
		data, _ := json.Marshal(p)
		pipe.RPush(ctx, config.WorkerKey.PersistEventsQueue, data)
	}
	_, err := pipe.Exec(ctx)
	if err != nil {
		w.log.Error().Err(err).Msg("CRITICAL: Failed to requeue items to Redis. Data loss occurred.")
	} else {
		w.log.Info().Int("count", len(items)).Msg("Requeued failed items back to Redis")
		// Sleep a bit to avoid thrashing if the DB is down hard
		time.Sleep(2 * time.Second)
	}
}

func (w *TelemetryWorker) shutdown(buffer []*interactionPayload) {
	w.log.Info().Msg("Worker stopping, flushing remaining buffer...")

	// Give it 5 seconds to flush to DB
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if len(buffer) > 0 {
		w.flushSafe(shutdownCtx, buffer)
	}
}
