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

// ArchiveWorker consumes archive_summary_queue and writes finished session
// summaries to PostgreSQL.
type ArchiveWorker struct {
	summaries *repository.SummaryRepository
	rdb       *redis.Client
	log       zerolog.Logger
}

// NewArchiveWorker creates a new ArchiveWorker.
func NewArchiveWorker(summaries *repository.SummaryRepository, rdb *redis.Client, log zerolog.Logger) *ArchiveWorker {
	return &ArchiveWorker{
		summaries: summaries,
		rdb:       rdb,
		log:       log.With().Str("component", "archive_worker").Logger(),
	}
}

type summaryPayload struct {
	SessionID        string    `json:"session_id"`
	UserID           string    `json:"user_id"`
	StartedAt        time.Time `json:"started_at"`
	EndedAt          time.Time `json:"ended_at"`
	InteractionCount int       `json:"interaction_count"`
	CorrectAnswers   int       `json:"correct_answers"`
	TotalQuestions   int       `json:"total_questions"`
	FocusMS          int64     `json:"focus_ms"`
	TotalMS          int64     `json:"total_ms"`
	BreaksTaken      int       `json:"breaks_taken"`
	FinalScore       *float64  `json:"final_score"`
	EndReason        string    `json:"end_reason"`
}

// Start begins the infinite worker loop. Call in a goroutine.
func (w *ArchiveWorker) Start(ctx context.Context) {
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

func (w *ArchiveWorker) processNext(ctx context.Context) {
	// BLPop blocks until an item is available or timeout (1 second).
	result, err := w.rdb.BLPop(ctx, time.Second, config.WorkerKey.ArchiveSummaryQueue).Result()
	if err != nil {
		if err != redis.Nil && ctx.Err() == nil {
			w.log.Error().Err(err).Msg("BLPop error")
		}
		return
	}

	if len(result) < 2 {
		return
	}

	var payload summaryPayload
	if err := json.Unmarshal([]byte(result[1]), &payload); err != nil {
		w.log.Error().Err(err).Msg("Unmarshal error")
		return
	}

	if err := w.persistSummary(ctx, &payload); err != nil {
		w.log.Error().Err(err).
			Str("session_id", payload.SessionID).
			Str("user_id", payload.UserID).
			Msg("Persist error, retrying in 5s")
		// Push back to queue for retry.
		w.rdb.RPush(ctx, config.WorkerKey.ArchiveSummaryQueue, result[1])
		time.Sleep(5 * time.Second)
	}
}

func (w *ArchiveWorker) persistSummary(ctx context.Context, p *summaryPayload) error {
	sum := model.SessionSummary{
		SessionID:        p.SessionID,
		UserID:           p.UserID,
		StartedAt:        p.StartedAt,
		EndedAt:          p.EndedAt,
		InteractionCount: p.InteractionCount,
		CorrectAnswers:   p.CorrectAnswers,
		TotalQuestions:   p.TotalQuestions,
		FocusMS:          p.FocusMS,
		TotalMS:          p.TotalMS,
		BreaksTaken:      p.BreaksTaken,
		FinalScore:       p.FinalScore,
		EndReason:        p.EndReason,
	}
	return w.summaries.Insert(ctx, &sum)
}

// drain processes all remaining items in the queue before shutdown.
func (w *ArchiveWorker) drain(ctx context.Context) {
	drained := 0
	for {
		result, err := w.rdb.LPop(ctx, config.WorkerKey.ArchiveSummaryQueue).Result()
		if err != nil {
			break
		}

		var payload summaryPayload
		if err := json.Unmarshal([]byte(result), &payload); err != nil {
			w.log.Error().Err(err).Msg("Drain unmarshal error")
			continue
		}

		if err := w.persistSummary(ctx, &payload); err != nil {
			w.log.Error().Err(err).Msg("Drain persist error")
			w.rdb.RPush(ctx, config.WorkerKey.ArchiveSummaryQueue, result)
			break
		}
		drained++
	}

	if drained > 0 {
		w.log.Info().Int("count", drained).Msg("Drained remaining items")
	}
}
