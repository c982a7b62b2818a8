package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"playlist-service/internal/auth"
	"playlist-service/internal/config"
	"playlist-service/internal/domain"
	"playlist-service/internal/publisher"
	"playlist-service/internal/repository"
	"playlist-service/internal/server"
	"playlist-service/internal/service"
	"playlist-service/internal/storage"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

func main() {
	log.SetFormatter(&log.TextFormatter{
		FullTimestamp: true,
	})
	log.SetOutput(os.Stdout)

	if err := godotenv.Load(); err != nil {
		log.Warn("Could not load .env file.")
	}

	cfg, err := config.Load()
	if err != nil {
		log.WithField("error", err).Fatal("Could not load configuration")
	}

	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		log.WithField("level", cfg.LogLevel).Warn("Unknown log level, using debug")
		level = log.DebugLevel
	}
	log.SetLevel(level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.DB.MigrationsEnabled {
		log.Info("Starting database migration...")
		if err := storage.Migrate(cfg.DB.URL); err != nil {
			log.WithField("error", err).Fatal("Could not migrate the database")
		}
	}

	db, err := storage.Open(ctx, cfg.DB)
	if err != nil {
		log.WithField("error", err).Fatal("Could not connect to the database")
	}
	defer db.Close()
	log.Info("Successfully connected to the PostgreSQL database.")

	// Create repositories
	userRepository := repository.NewUserRepository(db)
	playlistRepository := repository.NewPlaylistRepository(db)
	logRepository := repository.NewLogRepository(db)

	// Optional action stream
	var actionPublisher service.ActionPublisher
	if cfg.Kafka.Enabled() {
		p, err := publisher.NewActionPublisher(cfg.Kafka.BootstrapServers, cfg.Kafka.ActionTopic)
		if err != nil {
			log.WithField("error", err).Fatal("Could not create Kafka producer")
		}
		defer p.Close()
		actionPublisher = p
		log.WithField("topic", cfg.Kafka.ActionTopic).Info("Publishing actions to Kafka")
	}

	tokens, err := auth.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	if err != nil {
		log.WithField("error", err).Fatal("Could not create token issuer")
	}

	// Create services
	actions := service.NewActionLogger(logRepository, actionPublisher)
	authService := service.NewAuthService(userRepository, tokens, actions)
	playlistService := service.NewPlaylistService(playlistRepository, actions)
	logQueryService := service.NewLogQueryService(logRepository, domain.ParseUserSortMode(cfg.Logs.UserSort))
	detectorService := service.NewDetectorService(logRepository, cfg.Detector.Params())

	// Create server
	srv := server.NewServer(db, authService, playlistService, logQueryService, detectorService, server.CookieOptions{
		TTL:    cfg.Auth.TokenTTL,
		Secure: cfg.Auth.CookieSecure,
	})
	e := srv.NewEcho(cfg.HTTP.AllowOrigins)

	go func() {
		log.WithField("port", cfg.HTTP.Port).Info("Playlist service is starting with Echo")
		if err := e.Start(":" + cfg.HTTP.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithField("error", err).Fatal("Echo server failed to start")
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.WithField("error", err).Error("Graceful shutdown failed")
	}
}
