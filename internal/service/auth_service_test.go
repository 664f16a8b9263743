package service

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/learnpath/engage-backend/internal/config"
	"github.com/learnpath/engage-backend/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestAuthService() *AuthService {
	return &AuthService{cfg: &config.Config{
		JWTSecret:  "test-secret",
		JWTExpiry:  time.Hour,
		BcryptCost: bcrypt.MinCost,
	}}
}

// signTestToken builds a token the way IssueToken does, with control over
// the lifetime and signing secret.
func signTestToken(t *testing.T, secret string, issuedAt time.Time, ttl time.Duration, scopes []string) string {
	t.Helper()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Subject:   "test-client",
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(issuedAt.Add(ttl)),
		},
		ClientID: "test-client",
		Scopes:   scopes,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestHasScope(t *testing.T) {
	claims := &Claims{Scopes: []string{model.ScopeIngest, model.ScopeRead}}

	assert.True(t, claims.HasScope(model.ScopeIngest))
	assert.True(t, claims.HasScope(model.ScopeRead))
	assert.False(t, claims.HasScope(model.ScopeMonitor))
	assert.False(t, claims.HasScope(model.ScopeAdmin))
	assert.False(t, claims.HasScope(""))

	empty := &Claims{}
	assert.False(t, empty.HasScope(model.ScopeRead))
}

func TestHashAndCheckKey(t *testing.T) {
	s := newTestAuthService()

	hash, err := s.HashKey("a-long-enough-api-key")
	require.NoError(t, err)
	assert.NotEqual(t, "a-long-enough-api-key", hash)

	assert.NoError(t, s.CheckKey(hash, "a-long-enough-api-key"))
	assert.ErrorIs(t, s.CheckKey(hash, "the-wrong-api-key-00"), ErrInvalidCredentials)
	assert.ErrorIs(t, s.CheckKey("not-a-bcrypt-hash", "anything"), ErrInvalidCredentials)
}

func TestValidateTokenRoundTrip(t *testing.T) {
	s := newTestAuthService()

	token := signTestToken(t, "test-secret", time.Now(), time.Hour,
		[]string{model.ScopeIngest, model.ScopeMonitor})

	claims, err := s.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "test-client", claims.ClientID)
	assert.Equal(t, "test-client", claims.Subject)
	assert.True(t, claims.HasScope(model.ScopeIngest))
	assert.True(t, claims.HasScope(model.ScopeMonitor))
	assert.False(t, claims.HasScope(model.ScopeAdmin))
}

func TestValidateTokenRejectsWrongSecret(t *testing.T) {
	s := newTestAuthService()

	token := signTestToken(t, "another-secret", time.Now(), time.Hour, nil)
	_, err := s.ValidateToken(token)
	assert.Error(t, err)
}

func TestValidateTokenRejectsExpired(t *testing.T) {
	s := newTestAuthService()

	token := signTestToken(t, "test-secret", time.Now().Add(-2*time.Hour), time.Hour, nil)
	_, err := s.ValidateToken(token)
	assert.Error(t, err)
}

func TestValidateTokenRejectsUnsignedAlg(t *testing.T) {
	s := newTestAuthService()

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{ClientID: "test-client"}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = s.ValidateToken(unsigned)
	assert.Error(t, err)
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	s := newTestAuthService()

	_, err := s.ValidateToken("not.a.jwt")
	assert.Error(t, err)
	_, err = s.ValidateToken("")
	assert.Error(t, err)
}
