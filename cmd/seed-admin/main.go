package main

import (
	"context"
	"log"
	"time"

	"github.com/examcell/centre-portal-api/internal/credentials"
	"github.com/examcell/centre-portal-api/internal/models"
	"github.com/examcell/centre-portal-api/internal/repository"
	"github.com/examcell/centre-portal-api/pkg/config"
	"github.com/examcell/centre-portal-api/pkg/database"
	"github.com/examcell/centre-portal-api/pkg/logger"
)

// Seeds (or resets) the admin row from the configured credentials. Run once
// per environment; the OTP reset flow rewrites the same row later.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close() //nolint:errcheck

	hash, err := credentials.Hash(cfg.Admin.Password)
	if err != nil {
		logr.Sugar().Fatalw("failed to hash admin password", "error", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	users := repository.NewUserRepository(db)
	admin := &models.Admin{
		Username:     cfg.Admin.Username,
		Email:        cfg.Admin.Email,
		PasswordHash: hash,
	}
	if err := users.UpsertAdmin(ctx, admin); err != nil {
		logr.Sugar().Fatalw("failed to seed admin", "error", err)
	}

	logr.Sugar().Infow("admin seeded", "username", admin.Username, "email", admin.Email)
}
