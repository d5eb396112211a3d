package main

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/joho/godotenv"

	"github.com/oksasatya/triptrop-api/config"
	"github.com/oksasatya/triptrop-api/internal/domain/entity"
	pginfra "github.com/oksasatya/triptrop-api/internal/infrastructure/postgres"
	"github.com/oksasatya/triptrop-api/pkg/helpers"
)

// seed inserts a demo user with one itinerary and prints a credential for it.
func main() {
	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := helpers.NewLogger(cfg.AppName+"-seed", cfg.Env)
	ctx := context.Background()

	pool, err := pginfra.NewPool(ctx, pginfra.PoolOptions{
		DSN:         cfg.PostgresDSN(),
		AppName:     cfg.AppName + "-seed",
		MaxConns:    2,
		MinConns:    1,
		MaxConnLife: time.Hour,
	})
	if err != nil {
		logger.Fatalf("failed to connect to postgres: %v", err)
	}
	defer pool.Close()

	users := pginfra.NewUserRepository(pool)
	itineraries := pginfra.NewItineraryRepository(pool)

	name := "Demo Traveler"
	u := &entity.User{Email: "demo@triptrop.dev", FullName: &name, IsActive: true}
	inserted, err := users.Create(ctx, u)
	if err != nil {
		logger.Fatalf("failed to seed user: %v", err)
	}
	logger.WithField("inserted", inserted).Info("seed user ready")

	existing, err := itineraries.ListForUser(ctx, u.ID, 0, 1)
	if err != nil {
		logger.Fatalf("failed to list itineraries: %v", err)
	}
	if len(existing) == 0 {
		overview := "Three relaxed days of temples, gardens and food markets."
		content, _ := json.Marshal(map[string]any{
			"overview": overview,
			"days": []map[string]any{
				{"day": 1, "activities": []map[string]any{{"time": "09:00", "title": "Fushimi Inari", "location": "Fushimi"}}},
			},
		})
		start := time.Now().AddDate(0, 1, 0).Truncate(24 * time.Hour)
		end := start.AddDate(0, 0, 2)
		it := &entity.Itinerary{
			UserID:      u.ID,
			Title:       "Trip to Kyoto",
			Destination: "Kyoto",
			Description: &overview,
			StartDate:   &start,
			EndDate:     &end,
			AIContent:   content,
		}
		if err := itineraries.Create(ctx, it); err != nil {
			logger.Fatalf("failed to seed itinerary: %v", err)
		}
		logger.WithField("itinerary_id", it.ID).Info("seeded itinerary")
	}

	if cfg.JWTAccessSecret == "" {
		logger.WithField("user_id", u.ID).Warn("JWT_ACCESS_SECRET not set; skipping bearer token")
		return
	}
	token, exp, err := helpers.NewJWTManager(cfg.JWTAccessSecret, cfg.AccessTTL).GenerateAccessToken(u.ID)
	if err != nil {
		logger.Fatalf("failed to issue token: %v", err)
	}
	logger.WithFields(map[string]any{"user_id": u.ID, "email": u.Email, "expires_at": exp}).Info("seeded user")
	log.Printf("bearer token: %s", token)
}
