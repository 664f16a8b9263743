package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/learnpath/engage-backend/internal/model"
)

var ErrDuplicateClientID = errors.New("client with this client_id already exists")

// ClientRepository handles api_clients data access.
type ClientRepository struct {
	pool *pgxpool.Pool
}

// NewClientRepository creates a new ClientRepository.
func NewClientRepository(pool *pgxpool.Pool) *ClientRepository {
	return &ClientRepository{pool: pool}
}

// GetByClientID retrieves a client by its public client id.
func (r *ClientRepository) GetByClientID(ctx context.Context, clientID string) (*model.APIClient, error) {
	c := &model.APIClient{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, client_id, name, key_hash, scopes, created_at, rotated_at
		 FROM api_clients WHERE client_id = $1`, clientID,
	).Scan(&c.ID, &c.ClientID, &c.Name, &c.KeyHash, &c.Scopes, &c.CreatedAt, &c.RotatedAt)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Create inserts a new client.
func (r *ClientRepository) Create(ctx context.Context, c *model.APIClient) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO api_clients (client_id, name, key_hash, scopes)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at`,
		c.ClientID, c.Name, c.KeyHash, c.Scopes,
	).Scan(&c.ID, &c.CreatedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateClientID
		}
		return err
	}
	return nil
}

// RotateKey replaces the stored key hash and stamps rotated_at, invalidating
// tokens issued before the rotation.
func (r *ClientRepository) RotateKey(ctx context.Context, clientID, keyHash string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE api_clients SET key_hash = $1, rotated_at = NOW() WHERE client_id = $2`,
		keyHash, clientID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
