package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/averin/ai-chat-api/internal/api"
	"github.com/averin/ai-chat-api/internal/auth"
	"github.com/averin/ai-chat-api/internal/config"
	"github.com/averin/ai-chat-api/internal/database"
	"github.com/averin/ai-chat-api/internal/llm"
	"github.com/averin/ai-chat-api/internal/logger"
	"github.com/averin/ai-chat-api/internal/monitoring"
	"github.com/averin/ai-chat-api/internal/queue"
	"github.com/averin/ai-chat-api/internal/services"
)

func main() {
	logger.Init()

	// Load configuration; a missing signing secret or provider key is fatal.
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Set up database
	db, err := database.New(cfg.DatabasePath)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("Failed to apply database migrations")
	}

	// Set up services
	tokens := auth.NewTokenService([]byte(cfg.JWTSecret), cfg.TokenExpiry)
	userService := services.NewUserService(db)
	conversationService := services.NewConversationService(db)
	gateway := llm.NewClient(cfg.OpenAIBaseURL, cfg.OpenAIAPIKey, cfg.HuggingFaceBaseURL, cfg.HuggingFaceAPIKey)
	taskQueue := queue.NewSQLiteQueue(db)

	// Set up and run the background worker for deferred completions
	worker := queue.NewWorker(taskQueue, gateway, conversationService, cfg.WorkerPollInterval)
	go worker.Run()

	// Set up and run the background stats updater
	statUpdater := monitoring.NewStatUpdater(taskQueue)
	go statUpdater.Run()

	// Set up and run the task result janitor
	janitor := monitoring.NewJanitor(taskQueue, cfg.TaskResultTTL)
	if err := janitor.Start(); err != nil {
		log.Fatal().Err(err).Msg("Failed to start task result janitor")
	}

	// Set up router
	router := api.NewRouter(tokens, userService, conversationService, gateway, gateway, taskQueue, cfg.RateLimitPerMinute)

	// Set up server
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.ServerPort),
		Handler: router,
	}

	// Graceful shutdown
	go func() {
		log.Info().Int("port", cfg.ServerPort).Msg("Server starting")
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("ListenAndServe()")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	worker.Stop()
	statUpdater.Stop()
	janitor.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exiting")
}
