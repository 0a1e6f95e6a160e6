// Command seed creates the initial admin account.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"eterna/internal/config"
	"eterna/internal/database"
	"eterna/internal/logger"
	"eterna/internal/repository"
	"eterna/internal/service"
	"eterna/migrations"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	// .env.local is optional; values there override nothing already exported.
	_ = godotenv.Load(".env.local")

	email := flag.String("email", os.Getenv("ADMIN_EMAIL"), "admin email")
	password := flag.String("password", os.Getenv("ADMIN_PASSWORD"), "admin password (min 8 characters)")
	name := flag.String("name", envOr("ADMIN_NAME", "Eterna Admin"), "admin display name")
	flag.Parse()

	cfg := config.Load()
	log, err := logger.New(cfg.Server.Env)
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	defer log.Sync()

	if *email == "" || len(*password) < 8 {
		fmt.Fprintln(os.Stderr, "usage: seed -email admin@example.com -password <at least 8 characters> [-name \"Eterna Admin\"]")
		os.Exit(2)
	}

	dbService, err := database.New(cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer dbService.Close()

	if err := database.RunMigrations(dbService.DB(), migrations.FS, log); err != nil {
		log.Fatal("Failed to run migrations", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	authService := service.NewAuthService(repository.NewAdminRepository(dbService.DB()), cfg.JWT.Secret)
	admin, created, err := authService.SeedAdmin(ctx, *email, *password, *name)
	if err != nil {
		log.Fatal("Failed to seed admin", zap.Error(err))
	}

	if !created {
		log.Info("Admin user already exists", zap.String("email", admin.Email))
		return
	}
	log.Info("Admin user created", zap.String("email", admin.Email), zap.String("admin_id", admin.ID.String()))
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
