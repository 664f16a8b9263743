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

	"github.com/learnpath/engage-backend/internal/config"
	"github.com/learnpath/engage-backend/internal/database"
	"github.com/learnpath/engage-backend/internal/logger"
	"github.com/learnpath/engage-backend/internal/model"
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

	fmt.Println("=== Create New API Client ===")

	// Client ID
	fmt.Print("Enter Client ID: ")
	clientID, _ := reader.ReadString('\n')
	clientID = strings.TrimSpace(clientID)
	if clientID == "" {
		fmt.Println("Error: Client ID is required")
		return
	}

	// Display name
	fmt.Print("Enter Display Name: ")
	name, _ := reader.ReadString('\n')
	name = strings.TrimSpace(name)
	if name == "" {
		fmt.Println("Error: Display name is required")
		return
	}

	// Scopes
	fmt.Print("Enter Scopes (comma-separated, default ingest,read): ")
	scopesStr, _ := reader.ReadString('\n')
	scopesStr = strings.TrimSpace(scopesStr)
	if scopesStr == "" {
		scopesStr = model.ScopeIngest + "," + model.ScopeRead
	}
	scopes := strings.Split(scopesStr, ",")
	for i, s := range scopes {
		scopes[i] = strings.TrimSpace(s)
		if !model.ValidScope(scopes[i]) {
			fmt.Printf("Error: unknown scope %q (valid: %s)\n", scopes[i], strings.Join(model.KnownScopes, ", "))
			return
		}
	}

	// API key: prompted without echo; empty generates a random one
	fmt.Print("Enter API Key (leave empty to generate): ")
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

	client := &model.APIClient{
		ClientID: clientID,
		Name:     name,
		KeyHash:  string(keyHash),
		Scopes:   scopes,
	}

	if err := clientRepo.Create(ctx, client); err != nil {
		if errors.Is(err, repository.ErrDuplicateClientID) {
			fmt.Printf("Error: client id %q already exists\n", clientID)
			return
		}
		log.Fatal().Err(err).Msg("Failed to create client")
	}

	fmt.Printf("\nSuccess! Client '%s' (%s) created with ID: %s\n", client.ClientID, client.Name, client.ID)
	fmt.Printf("Scopes: %s\n", strings.Join(client.Scopes, ", "))
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
