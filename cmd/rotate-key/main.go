package main

import (
	"bufio"
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/jackc/pgx/v5"
	"github.com/learnpath/engage-backend/internal/config"
	"github.com/learnpath/engage-backend/internal/database"
	"github.com/learnpath/engage-backend/internal/logger"
	"github.com/learnpath/engage-backend/internal/repository"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/term"
)

func main() {
	// ─── Load Configuration ────────────────────────────────────────────
	cfg := config.Load()

	// ─── Initialize Logger ─────────────────────────────────────────────
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)

	ctx := context.Background()

	// ─── Connect to PostgreSQL ─────────────────────────────────────────
	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	clientRepo := repository.NewClientRepository(pool)

	// ─── CLI Input ─────────────────────────────────────────────────────
	reader := bufio.NewReader(os.Stdin)

	fmt.Println("=== Rotate API Client Key ===")

	fmt.Print("Enter Client ID: ")
	clientID, _ := reader.ReadString('\n')
	clientID = strings.TrimSpace(clientID)
	if clientID == "" {
		fmt.Println("Error: Client ID is required")
		return
	}

	fmt.Print("Enter New API Key (leave empty to generate): ")
	byteKey, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println() // Newline after key input
	if err != nil {
		fmt.Println("Error reading key")
		return
	}
	apiKey := string(byteKey)
	generated := false
	if apiKey == "" {
		apiKey, err = generateKey()
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to generate key")
		}
		generated = true
	}
	if len(apiKey) < 16 {
		fmt.Println("Error: API key must be at least 16 characters")
		return
	}
	if len(apiKey) > 72 {
		fmt.Println("Error: API key must be at most 72 characters (bcrypt limit)")
		return
	}

	// ─── Logic ─────────────────────────────────────────────────────────

	keyHash, err := bcrypt.GenerateFromPassword([]byte(apiKey), cfg.BcryptCost)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to hash key")
	}

	if err := clientRepo.RotateKey(ctx, clientID, string(keyHash)); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			fmt.Printf("Error: no client with id %q\n", clientID)
			return
		}
		log.Fatal().Err(err).Msg("Failed to rotate key")
	}

	// Drop the cached rotation stamp so running servers enforce the new
	// key immediately instead of after the cache TTL.
	if rdb, err := database.NewRedisClient(ctx, cfg, log); err == nil {
		rdb.Del(ctx, config.CacheKey.ClientStateKey(clientID))
		rdb.Close()
	} else {
		log.Warn().Err(err).Msg("Redis unreachable, old tokens stay valid until the cache expires")
	}

	fmt.Printf("\nSuccess! Key rotated for client '%s'. Tokens issued before now are rejected.\n", clientID)
	if generated {
		fmt.Printf("API key (shown once, store it now): %s\n", apiKey)
	}
}

// generateKey returns a 256-bit random key in URL-safe base64.
func generateKey() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
