package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/learnpath/engage-backend/internal/model"
)

// SummaryRepository handles session_summaries data access.
type SummaryRepository struct {
	pool *pgxpool.Pool
}

// NewSummaryRepository creates a new SummaryRepository.
func NewSummaryRepository(pool *pgxpool.Pool) *SummaryRepository {
	return &SummaryRepository{pool: pool}
}

// Insert stores one archived session.
func (r *SummaryRepository) Insert(ctx context.Context, s *model.SessionSummary) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO session_summaries
		   (session_id, user_id, started_at, ended_at, interaction_count, correct_answers,
		    total_questions, focus_ms, total_ms, breaks_taken, final_score, end_reason)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		 RETURNING id`,
		s.SessionID, s.UserID, s.StartedAt, s.EndedAt, s.InteractionCount, s.CorrectAnswers,
		s.TotalQuestions, s.FocusMS, s.TotalMS, s.BreaksTaken, s.FinalScore, s.EndReason,
	).Scan(&s.ID)
}

// ListRecentByUser returns the learner's most recent summaries, capped at
// limit and ordered oldest first so they can seed engine history directly.
func (r *SummaryRepository) ListRecentByUser(ctx context.Context, userID string, limit int) ([]model.SessionSummary, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, session_id, user_id, started_at, ended_at, interaction_count, correct_answers,
		        total_questions, focus_ms, total_ms, breaks_taken, final_score, end_reason
		 FROM (
		   SELECT * FROM session_summaries WHERE user_id = $1 ORDER BY ended_at DESC LIMIT $2
		 ) recent
		 ORDER BY ended_at ASC`, userID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var summaries []model.SessionSummary
	for rows.Next() {
		var s model.SessionSummary
		if err := rows.Scan(&s.ID, &s.SessionID, &s.UserID, &s.StartedAt, &s.EndedAt, &s.InteractionCount,
			&s.CorrectAnswers, &s.TotalQuestions, &s.FocusMS, &s.TotalMS, &s.BreaksTaken, &s.FinalScore, &s.EndReason); err != nil {
			return nil, err
		}
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}
