package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/learnspark/assessment-engine/internal/config"
	"github.com/learnspark/assessment-engine/internal/engine"
	"github.com/learnspark/assessment-engine/internal/handlers"
	"github.com/learnspark/assessment-engine/internal/history"
	"github.com/learnspark/assessment-engine/internal/importer"
	"github.com/learnspark/assessment-engine/internal/loader"
	"github.com/learnspark/assessment-engine/internal/progress"
	"github.com/learnspark/assessment-engine/internal/store"
	"github.com/learnspark/assessment-engine/internal/utils"
	"github.com/learnspark/assessment-engine/internal/validator"
	"github.com/learnspark/assessment-engine/pkg"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	level := slog.LevelInfo
	if cfg.Environment != "production" {
		level = slog.LevelDebug
	}
	slogLogger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	logger := utils.NewSlogLogger(slogLogger)

	// Initialize the session store
	st, err := newStore(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize store: %v", err)
	}

	// Initialize the attempt history database
	db, err := pkg.InitDatabase(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	hist, err := history.New(db, logger)
	if err != nil {
		log.Fatalf("Failed to initialize attempt history: %v", err)
	}

	// Initialize the event publisher
	publisher, err := cfg.Events.CreateEventPublisher(slogLogger)
	if err != nil {
		log.Fatalf("Failed to create event publisher: %v", err)
	}

	// Initialize engine and supporting services
	eng := engine.New(st, publisher, logger, engine.Options{
		AutoSave:  cfg.AutoSave,
		TimedMode: cfg.TimedMode,
	})
	ldr := loader.New(validator.New(), logger, loader.Options{})
	tracker := progress.NewTracker(st, logger)
	im := importer.New(logger)

	// Setup Gin router
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.LoggerMiddleware(logger))

	handlerManager := handlers.NewHandlerManager(eng, ldr, tracker, hist, im, logger)
	handlerManager.SetupRoutes(router)

	// Create HTTP server
	server := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Port),
		Handler: router,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("Starting server", "port", cfg.Port, "environment", cfg.Environment)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	// Commit a final auto-save before exiting
	eng.Close(ctx)

	if err := publisher.Close(); err != nil {
		log.Printf("Failed to close event publisher: %v", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}

	logger.Info("Server exited")
}

func newStore(cfg *config.Config) (store.Store, error) {
	switch cfg.StoreBackend {
	case "memory":
		return store.NewMemoryStore(), nil
	case "file":
		return store.NewFileStore(cfg.StoreDir)
	case "redis":
		client, err := pkg.NewRedisClient(cfg)
		if err != nil {
			return nil, err
		}
		return store.NewRedisStore(client, "assessment:", 0), nil
	default:
		return nil, fmt.Errorf("unknown store backend: %s", cfg.StoreBackend)
	}
}
