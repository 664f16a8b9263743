package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/learnpath/engage-backend/internal/config"
	"github.com/learnpath/engage-backend/internal/model"
	"github.com/learnpath/engage-backend/internal/repository"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"
)

// Common auth errors.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrKeyRotated         = errors.New("token predates the client's key rotation")
)

// How long a cached client rotation timestamp may lag Postgres. A rotation
// performed on another node takes effect here within this window.
const clientStateTTL = time.Minute

// Claims extends JWT standard claims with the client identity and its scopes.
type Claims struct {
	jwt.RegisteredClaims
	ClientID string   `json:"client_id"`
	Scopes   []string `json:"scopes"`
}

// HasScope reports whether the token carries the scope.
func (c *Claims) HasScope(scope string) bool {
	for _, s := range c.Scopes {
		if s == scope {
			return true
		}
	}
	return false
}

// AuthService handles client authentication, JWT issuance, and key rotation
// checks.
type AuthService struct {
	cfg     *config.Config
	rdb     *redis.Client
	clients *repository.ClientRepository
}

// NewAuthService creates a new AuthService.
func NewAuthService(cfg *config.Config, rdb *redis.Client, clients *repository.ClientRepository) *AuthService {
	return &AuthService{cfg: cfg, rdb: rdb, clients: clients}
}

// HashKey hashes an API key with the configured bcrypt cost.
// Default cost is 6 for high-concurrency performance. Adjustable via BCRYPT_COST env.
func (s *AuthService) HashKey(key string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(key), s.cfg.BcryptCost)
	return string(hash), err
}

// CheckKey compares a plaintext API key against a bcrypt hash.
func (s *AuthService) CheckKey(hash, key string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(key)); err != nil {
		return ErrInvalidCredentials
	}
	return nil
}

// IssueToken validates client credentials and returns a signed JWT carrying
// the client's stored scopes. Unknown clients and wrong keys both come back
// as ErrInvalidCredentials.
func (s *AuthService) IssueToken(ctx context.Context, clientID, apiKey string) (*model.TokenResponse, error) {
	client, err := s.clients.GetByClientID(ctx, clientID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("load client: %w", err)
	}

	if err := s.CheckKey(client.KeyHash, apiKey); err != nil {
		return nil, ErrInvalidCredentials
	}

	now := time.Now()
	expiresAt := now.Add(s.cfg.JWTExpiry)

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Subject:   client.ClientID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		ClientID: client.ClientID,
		Scopes:   client.Scopes,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}

	return &model.TokenResponse{Token: signed, ExpiresAt: expiresAt, Scopes: client.Scopes}, nil
}

// ValidateToken parses and validates a JWT, returning the claims.
func (s *AuthService) ValidateToken(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.cfg.JWTSecret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token claims")
	}

	return claims, nil
}

// CheckKeyFreshness rejects tokens issued before the client's last key
// rotation, so a rotation cuts off outstanding tokens without a denylist.
func (s *AuthService) CheckKeyFreshness(ctx context.Context, claims *Claims) error {
	rotatedAt, err := s.rotatedAt(ctx, claims.ClientID)
	if err != nil {
		return err
	}
	if rotatedAt.IsZero() || claims.IssuedAt == nil {
		return nil
	}
	if claims.IssuedAt.Time.Before(rotatedAt) {
		return ErrKeyRotated
	}
	return nil
}

// rotatedAt returns the client's last rotation time (zero if never rotated),
// served from a short-lived Redis cache so the hot path stays off Postgres.
func (s *AuthService) rotatedAt(ctx context.Context, clientID string) (time.Time, error) {
	key := config.CacheKey.ClientStateKey(clientID)

	cached, err := s.rdb.Get(ctx, key).Result()
	if err == nil {
		sec, convErr := strconv.ParseInt(cached, 10, 64)
		if convErr == nil {
			if sec == 0 {
				return time.Time{}, nil
			}
			return time.Unix(sec, 0), nil
		}
	} else if !errors.Is(err, redis.Nil) {
		return time.Time{}, fmt.Errorf("check client state: %w", err)
	}

	client, err := s.clients.GetByClientID(ctx, clientID)
	if err != nil {
		return time.Time{}, fmt.Errorf("load client: %w", err)
	}

	var sec int64
	var ts time.Time
	if client.RotatedAt != nil {
		ts = *client.RotatedAt
		sec = ts.Unix()
	}
	// Best-effort cache fill; a miss just means another Postgres read.
	_ = s.rdb.Set(ctx, key, strconv.FormatInt(sec, 10), clientStateTTL).Err()

	return ts, nil
}
