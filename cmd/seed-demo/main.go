package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/learnpath/engage-backend/internal/config"
	"github.com/learnpath/engage-backend/internal/database"
	"github.com/learnpath/engage-backend/internal/engagement"
	"github.com/learnpath/engage-backend/internal/logger"
	"github.com/learnpath/engage-backend/internal/model"
	"github.com/learnpath/engage-backend/internal/repository"
	"golang.org/x/crypto/bcrypt"
)

// demoAPIKey is fixed so local tooling can exchange it for a token without
// copying anything around. Never seed production with this.
const (
	demoClientID = "demo"
	demoAPIKey   = "demo-secret-key-0123456789abcdef"
)

func main() {
	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	pool, err := database.NewPostgresPool(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer pool.Close()

	clientRepo := repository.NewClientRepository(pool)
	summaryRepo := repository.NewSummaryRepository(pool)
	alertRepo := repository.NewAlertRepository(pool)

	fmt.Println("=== Seeding Demo Data ===")

	// ─── Demo client ───────────────────────────────────────────────────
	keyHash, err := bcrypt.GenerateFromPassword([]byte(demoAPIKey), cfg.BcryptCost)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to hash demo key")
	}

	client := &model.APIClient{
		ClientID: demoClientID,
		Name:     "Demo Client",
		KeyHash:  string(keyHash),
		Scopes:   model.KnownScopes,
	}
	switch err := clientRepo.Create(ctx, client); {
	case err == nil:
		fmt.Printf("Created demo client (client_id=%s, api_key=%s)\n", demoClientID, demoAPIKey)
	case errors.Is(err, repository.ErrDuplicateClientID):
		fmt.Println("Demo client already exists, skipping")
	default:
		log.Fatal().Err(err).Msg("Failed to create demo client")
	}

	// ─── Session summaries (warm-start history) ────────────────────────
	// Three learners with distinct accuracy shapes so dashboards show all
	// trend values: improving, declining, stable.
	learners := []string{"learner-01", "learner-02", "learner-03"}
	now := time.Now()
	summaries := 0

	for li, userID := range learners {
		for s := 0; s < 6; s++ {
			endedAt := now.Add(-time.Duration(6-s) * 24 * time.Hour)
			total := 25*time.Minute + time.Duration(li*5+s*2)*time.Minute
			questions := 10 + s

			var correct int
			switch li {
			case 0:
				correct = questions * (50 + 8*s) / 100
			case 1:
				correct = questions * (85 - 7*s) / 100
			default:
				correct = questions * 70 / 100
			}

			score := float64(correct) / float64(questions)
			sum := model.SessionSummary{
				SessionID:        fmt.Sprintf("seed-%s-%d", userID, s+1),
				UserID:           userID,
				StartedAt:        endedAt.Add(-total),
				EndedAt:          endedAt,
				InteractionCount: questions * 2,
				CorrectAnswers:   correct,
				TotalQuestions:   questions,
				FocusMS:          (total - 3*time.Minute).Milliseconds(),
				TotalMS:          total.Milliseconds(),
				BreaksTaken:      s % 2,
				FinalScore:       &score,
				EndReason:        model.EndReasonEnded,
			}
			if err := summaryRepo.Insert(ctx, &sum); err != nil {
				fmt.Printf("Error seeding summary for %s: %v\n", userID, err)
				continue
			}
			summaries++
		}
	}
	fmt.Printf("Seeded %d session summaries\n", summaries)

	// ─── Interaction events ────────────────────────────────────────────
	eventTypes := []string{"video_play", string(engagement.InteractionQuizSubmit), "page_view", "note_taken"}
	events := 0

	for _, userID := range learners {
		sessionID := fmt.Sprintf("seed-%s-6", userID)
		base := now.Add(-24 * time.Hour)

		for i := 0; i < 20; i++ {
			typ := eventTypes[i%len(eventTypes)]
			data := map[string]any{"seq": i}
			var correct *bool
			if typ == string(engagement.InteractionQuizSubmit) {
				v := i%3 != 0
				correct = &v
				data["correct"] = v
			}

			_, err := pool.Exec(ctx,
				`INSERT INTO interaction_events (session_id, user_id, type, correct, data, occurred_at)
				 VALUES ($1, $2, $3, $4, $5, $6)`,
				sessionID, userID, typ, correct, data, base.Add(time.Duration(i)*90*time.Second),
			)
			if err != nil {
				fmt.Printf("Error seeding event for %s: %v\n", userID, err)
				continue
			}
			events++
		}
	}
	fmt.Printf("Seeded %d interaction events\n", events)

	// ─── Alerts ────────────────────────────────────────────────────────
	seedAlerts := []model.AlertRecord{
		{
			SessionID:      "seed-learner-02-6",
			UserID:         "learner-02",
			Type:           string(engagement.AlertDecliningAccuracy),
			Severity:       string(engagement.SeverityWarning),
			Message:        "Answer accuracy is below 50% this session",
			Recommendation: "Suggest revisiting the material before continuing",
		},
		{
			SessionID:      "seed-learner-03-6",
			UserID:         "learner-03",
			Type:           string(engagement.AlertBreakNeeded),
			Severity:       string(engagement.SeverityInfo),
			Message:        "A break is due",
			Recommendation: "Take a short break before the next activity",
		},
	}
	alerts := 0
	for i := range seedAlerts {
		if err := alertRepo.Insert(ctx, &seedAlerts[i]); err != nil {
			fmt.Printf("Error seeding alert: %v\n", err)
			continue
		}
		alerts++
	}
	fmt.Printf("Seeded %d alerts\n", alerts)

	fmt.Println("\nSeed completed!")
}
