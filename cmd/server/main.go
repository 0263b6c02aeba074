package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/yukikurage/task-tracker-api/internal/config"
	"github.com/yukikurage/task-tracker-api/internal/database"
	"github.com/yukikurage/task-tracker-api/internal/logging"
	"github.com/yukikurage/task-tracker-api/internal/router"
	"github.com/yukikurage/task-tracker-api/internal/services"
)

func main() {
	log := logging.Default()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	appLog, err := logging.New(cfg.Env, os.Stdout)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize logger")
	}
	log = appLog

	// Set Gin mode
	gin.SetMode(cfg.GinMode)

	// Connect to database
	db, err := database.Connect(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.Database.Driver).Msg("failed to connect to database")
	}
	sqlDB, err := db.DB()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to get database handle")
	}
	defer sqlDB.Close()

	// Run migrations
	indexes, err := database.MigrateDatabase(db)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}
	log.Info().Strs("indexes", indexes).Msg("database migrated")

	store, err := router.NewSessionStore(cfg)
	if err != nil {
		log.Fatal().Err(err).Str("store", cfg.Session.Store).Msg("failed to create session store")
	}

	// Initialize AI service
	aiService := services.NewAIService(cfg.OpenAI)
	if aiService == nil {
		log.Warn().Msg("OPENAI_API_KEY not set; task suggestions are disabled")
	}

	engine, err := router.New(router.Deps{
		Config:       cfg,
		DB:           db,
		Logger:       log,
		SessionStore: store,
		AI:           aiService,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build router")
	}

	serve(log, cfg.HTTP, engine)
}

func serve(log zerolog.Logger, cfg config.HTTPConfig, handler http.Handler) {
	server := &http.Server{
		Addr:    cfg.Addr(),
		Handler: handler,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("failed to listen and serve http")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down http server")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("failed to shut down http server")
		return
	}
	log.Info().Msg("http server stopped")
}
