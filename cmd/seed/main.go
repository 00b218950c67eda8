// seed inserts a development user for local testing.
// Idempotent: does nothing if the dev user already exists.
package main

import (
	"context"
	"errors"
	"log"

	"streamline/backend/internal/config"
	"streamline/backend/internal/db"
	identityservice "streamline/backend/internal/identity/service"
	"streamline/backend/internal/logging"
	"streamline/backend/internal/security"
	userrepo "streamline/backend/internal/user/repository"
)

const (
	devUsername = "dev"
	devEmail    = "dev@example.com"
	devPassword = "Password123!"
	devFullName = "Dev User"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is not set; create a .env from .env.example or set DATABASE_URL")
	}
	if cfg.IsProduction() {
		log.Fatal("refusing to seed a production database")
	}

	conn, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer conn.Close()

	logger := logging.New(cfg.LogLevel, false)
	tokens := security.NewTokenProvider(
		[]byte(cfg.AccessTokenSecret),
		[]byte(cfg.RefreshTokenSecret),
		cfg.JWTIssuer,
		cfg.AccessTTL(),
		cfg.RefreshTTL(),
	)
	auth := identityservice.NewAuthService(
		userrepo.NewPostgresRepository(conn),
		security.NewHasher(cfg.BcryptCost),
		tokens,
		logger,
		nil,
	)

	user, err := auth.Register(context.Background(), devUsername, devEmail, devPassword, devFullName)
	if errors.Is(err, identityservice.ErrUserAlreadyExists) {
		log.Printf("Seed already applied (%s exists). Skipping.", devEmail)
		return
	}
	if err != nil {
		log.Fatalf("seed: %v", err)
	}
	log.Printf("Seeded dev user %s (id %s). Login with username %q and password %q.", user.Email, user.ID, devUsername, devPassword)
}
