package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/planit-app/planit-api/internal/database"
	"github.com/planit-app/planit-api/internal/logging"
	"github.com/planit-app/planit-api/internal/services"
)

func main() {
	_ = godotenv.Load()

	databaseURL := flag.String("database-url", os.Getenv("DATABASE_URL"), "postgres connection string")
	pruneTokens := flag.Bool("prune-tokens", false, "also delete expired refresh tokens")
	timeout := flag.Duration("timeout", time.Minute, "overall deadline")
	flag.Parse()

	log := logging.New(os.Getenv("ENV"), os.Getenv("LOG_LEVEL"))

	if *databaseURL == "" {
		fmt.Println("Usage: planit-migrate [-prune-tokens] -database-url <url>")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	db, err := database.New(ctx, *databaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}
	log.Info().Msg("migrations applied")

	if *pruneTokens {
		n, err := services.NewTokenService(db).CleanupExpired(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to prune refresh tokens")
		}
		log.Info().Int64("deleted", n).Msg("expired refresh tokens pruned")
	}
}
