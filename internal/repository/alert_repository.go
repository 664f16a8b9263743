package repository

import (
	"context"
	"errors"
	"strconv"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/learnpath/engage-backend/internal/model"
)

var ErrAlertNotFound = errors.New("alert not found")

// AlertRepository handles engagement_alerts data access.
type AlertRepository struct {
	pool *pgxpool.Pool
}

// NewAlertRepository creates a new AlertRepository.
func NewAlertRepository(pool *pgxpool.Pool) *AlertRepository {
	return &AlertRepository{pool: pool}
}

// Insert stores one alert row.
func (r *AlertRepository) Insert(ctx context.Context, a *model.AlertRecord) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO engagement_alerts (session_id, user_id, type, severity, message, recommendation)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, created_at`,
		a.SessionID, a.UserID, a.Type, a.Severity, a.Message, a.Recommendation,
	).Scan(&a.ID, &a.CreatedAt)
}

// ListPaginated retrieves alerts newest first with an optional acknowledged
// filter.
func (r *AlertRepository) ListPaginated(ctx context.Context, acknowledged *bool, limit, offset int) ([]model.AlertRecord, int, error) {
	// 1. Get total count
	countQuery := `SELECT COUNT(*) FROM engagement_alerts`
	var countArgs []interface{}
	if acknowledged != nil {
		countQuery += ` WHERE acknowledged = $1`
		countArgs = append(countArgs, *acknowledged)
	}

	var total int
	if err := r.pool.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, err
	}

	// 2. Get paginated data
	query := `SELECT id, session_id, user_id, type, severity, message, recommendation,
	                 acknowledged, acknowledged_at, created_at
	          FROM engagement_alerts`
	var args []interface{}
	argIdx := 1

	if acknowledged != nil {
		query += ` WHERE acknowledged = $1`
		args = append(args, *acknowledged)
		argIdx++
	}

	query += ` ORDER BY created_at DESC LIMIT $` + strconv.Itoa(argIdx) + ` OFFSET $` + strconv.Itoa(argIdx+1)
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var alerts []model.AlertRecord
	for rows.Next() {
		var a model.AlertRecord
		if err := rows.Scan(&a.ID, &a.SessionID, &a.UserID, &a.Type, &a.Severity, &a.Message,
			&a.Recommendation, &a.Acknowledged, &a.AcknowledgedAt, &a.CreatedAt); err != nil {
			return nil, 0, err
		}
		alerts = append(alerts, a)
	}
	return alerts, total, rows.Err()
}

// Acknowledge marks an alert as acknowledged. Acknowledging twice keeps the
// first timestamp.
func (r *AlertRepository) Acknowledge(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE engagement_alerts
		 SET acknowledged = TRUE, acknowledged_at = COALESCE(acknowledged_at, NOW())
		 WHERE id = $1`, id,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAlertNotFound
	}
	return nil
}

// CountUnacknowledged returns how many alerts await acknowledgement, plus how
// many of those are critical.
func (r *AlertRepository) CountUnacknowledged(ctx context.Context) (total, critical int64, err error) {
	err = r.pool.QueryRow(ctx,
		`SELECT COUNT(*), COUNT(*) FILTER (WHERE severity = 'critical')
		 FROM engagement_alerts WHERE acknowledged = FALSE`,
	).Scan(&total, &critical)
	return total, critical, err
}
