package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/planit-app/planit-api/internal/config"
	"github.com/planit-app/planit-api/internal/database"
	"github.com/planit-app/planit-api/internal/handlers"
	"github.com/planit-app/planit-api/internal/health"
	"github.com/planit-app/planit-api/internal/logging"
	"github.com/planit-app/planit-api/internal/notify"
	"github.com/planit-app/planit-api/internal/services"
	"github.com/planit-app/planit-api/internal/sse"
	"github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logging.New(cfg.Env, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}

	var (
		redisClient *redis.Client
		dedup       notify.Deduper = notify.NewMemoryDeduper()
	)
	if cfg.RedisURL != "" {
		redisClient, err = notify.ConnectRedis(ctx, cfg.RedisURL)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer redisClient.Close()
		dedup = notify.NewRedisDeduper(redisClient)
	}
	dispatcher := notify.NewDispatcher(logging.Component(log, "notify"), cfg.NotifyTimeout, dedup)

	hub := sse.NewHub(redisClient, logging.Component(log, "sse"))
	go hub.Run(ctx)

	monitor := health.NewMonitor(db.Ping, cfg.HealthInterval, cfg.HealthMaxInterval, logging.Component(log, "health"))
	go monitor.Run(ctx)

	jwtService := services.NewJWTService(cfg.JWTSecret, cfg.JWTAccessExpiry, cfg.JWTRefreshExpiry)
	userService := services.NewUserService(db)
	tokenService := services.NewTokenService(db)
	emailService := services.NewEmailService(cfg.SMTP, cfg.FrontendURL)
	tripService := services.NewTripService(db)
	invitationService := services.NewInvitationService(db, tripService, userService, emailService, dispatcher, hub, logging.Component(log, "invitations"))
	activityService := services.NewActivityService(db, tripService, hub)
	dashboardService := services.NewDashboardService(userService, tripService, activityService, invitationService)
	plannerService := services.NewPlannerService(cfg.OpenAI, logging.Component(log, "planner"))

	authHandler := handlers.NewAuthHandler(cfg, userService, tokenService, jwtService, invitationService)
	go authHandler.RunCleanup(ctx)

	router := handlers.NewRouter(cfg.IsProduction(), jwtService, handlers.Handlers{
		Auth:       authHandler,
		User:       handlers.NewUserHandler(userService),
		Trip:       handlers.NewTripHandler(tripService, userService, hub),
		Invitation: handlers.NewInvitationHandler(invitationService),
		Activity:   handlers.NewActivityHandler(activityService),
		Dashboard:  handlers.NewDashboardHandler(dashboardService),
		Planner:    handlers.NewPlannerHandler(plannerService),
		SSE:        handlers.NewSSEHandler(hub, tripService),
		Health:     handlers.NewHealthHandler(monitor, db.Ping),
	})

	go func() {
		ticker := time.NewTicker(1 * time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				n, err := tokenService.CleanupExpired(ctx)
				if err != nil {
					log.Warn().Err(err).Msg("refresh token cleanup failed")
					continue
				}
				log.Debug().Int64("deleted", n).Msg("refresh token cleanup")
			}
		}
	}()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Port),
		Handler:           logging.AccessLog(log, router),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Str("env", cfg.Env).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown failed")
	}
	if err := dispatcher.Close(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("pending notifications abandoned")
	}
}
