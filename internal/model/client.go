package model

import (
	"time"

	"github.com/google/uuid"
)

// Scope names carried in api_clients records and JWT claims.
const (
	ScopeIngest  = "ingest"
	ScopeRead    = "read"
	ScopeMonitor = "monitor"
	ScopeAdmin   = "admin"
)

// KnownScopes lists every scope the API understands, in grant order.
var KnownScopes = []string{ScopeIngest, ScopeRead, ScopeMonitor, ScopeAdmin}

// ValidScope reports whether the name is a scope the API understands.
func ValidScope(name string) bool {
	for _, s := range KnownScopes {
		if s == name {
			return true
		}
	}
	return false
}

// APIClient is a machine client allowed to call the API. The API key is
// stored only as a bcrypt hash and never leaves the create/rotate CLIs.
type APIClient struct {
	ID        uuid.UUID  `json:"id"`
	ClientID  string     `json:"client_id"`
	Name      string     `json:"name"`
	KeyHash   string     `json:"-"`
	Scopes    []string   `json:"scopes"`
	CreatedAt time.Time  `json:"created_at"`
	RotatedAt *time.Time `json:"rotated_at,omitempty"`
}

// TokenRequest is the payload for exchanging client credentials for a JWT.
type TokenRequest struct {
	ClientID string `json:"client_id" binding:"required,min=3,max=64"`
	APIKey   string `json:"api_key" binding:"required,min=16,max=128"`
}

// TokenResponse is returned after a successful credential exchange.
type TokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	Scopes    []string  `json:"scopes"`
}
