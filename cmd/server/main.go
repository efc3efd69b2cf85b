package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"dailyq-backend/internal/config"
	"dailyq-backend/internal/database"
	"dailyq-backend/internal/handlers"
	"dailyq-backend/internal/middleware"
	"dailyq-backend/internal/repository"
	"dailyq-backend/internal/router"
	"dailyq-backend/internal/services"
	"dailyq-backend/internal/storage"
	"dailyq-backend/internal/websocket"
)

func main() {
	log.Println("Starting DailyQ Backend...")

	// ──── Step 1: Load Environment Variables ────
	cfg := config.Load()
	log.Println("✓ Environment variables loaded")

	// ──── Step 2: Initialize PostgreSQL Connection Pool ────
	pool, err := database.NewPostgresPool(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("✗ PostgreSQL connection failed: %v", err)
	}
	defer pool.Close()
	log.Println("✓ PostgreSQL connected")

	// ──── Step 3: Initialize Redis Clients ────
	redisClients, err := database.NewRedisClients(cfg.RedisURL)
	if err != nil {
		log.Fatalf("✗ Redis connection failed: %v", err)
	}
	defer redisClients.Close()
	log.Println("✓ Redis connected")

	// ──── Step 4: Run Database Migrations ────
	if err := database.RunMigrations(pool, "migrations"); err != nil {
		log.Fatalf("✗ Database migration failed: %v", err)
	}
	log.Println("✓ Database migrations applied")

	// ──── Step 5: Initialize Object Storage ────
	var store storage.Store
	var uploadsDir string
	switch cfg.StorageType {
	case "gcs":
		gcsStore, err := storage.NewGCSStore(context.Background(), cfg.GCSProjectID, cfg.GCSBucket, cfg.GCSKeyFile)
		if err != nil {
			log.Fatalf("✗ GCS storage initialization failed: %v", err)
		}
		defer gcsStore.Close()
		store = gcsStore
	default:
		localStore := storage.NewLocalStore(cfg.StoragePath)
		store = localStore
		uploadsDir = localStore.BasePath()
	}
	log.Printf("✓ Object storage ready (%s)", cfg.StorageType)

	// ──── Initialize Repositories ────
	userRepo := repository.NewUserRepo(pool)
	sessionRepo := repository.NewSessionRepo(pool)
	questionRepo := repository.NewQuestionRepo(pool)
	activityRepo := repository.NewActivityRepo(pool)

	// ──── Initialize Services ────
	jwtAuth := middleware.NewJWTAuth(cfg.JWTSecret)
	notifier := services.NewNotifier(redisClients.Publish)
	systemUsers := services.NewSystemUserService(userRepo)
	unlockService := services.NewUnlockService(pool, sessionRepo, questionRepo, activityRepo, systemUsers, notifier, cfg.UnlockIntervalMinutes)
	sessionService := services.NewSessionService(pool, sessionRepo, questionRepo, activityRepo, unlockService)
	questionService := services.NewQuestionService(pool, sessionRepo, questionRepo, activityRepo, store, notifier)
	authService := services.NewAuthService(userRepo, jwtAuth)

	if err := authService.EnsureAdmin(context.Background(), cfg.AdminUsername, cfg.AdminPassword); err != nil {
		log.Fatalf("✗ Bootstrap admin creation failed: %v", err)
	}

	// ──── Initialize Handlers ────
	authHandler := handlers.NewAuthHandler(authService)
	adminHandler := handlers.NewAdminHandler(sessionService, questionService, unlockService, questionRepo, activityRepo)
	studentHandler := handlers.NewStudentHandler(sessionService, questionService, unlockService, questionRepo)
	unlockHandler := handlers.NewUnlockHandler(unlockService, cfg.CronSecret)

	// ──── Step 6: Start Unlock Scheduler ────
	unlockScheduler := services.NewUnlockScheduler(unlockService)
	unlockScheduler.Start()
	log.Printf("✓ Unlock scheduler started (interval: %d min, batch size: %d)", cfg.UnlockIntervalMinutes, services.BatchSize)

	// ──── Step 7: Start WebSocket Hub ────
	hubCtx, hubCancel := context.WithCancel(context.Background())
	defer hubCancel()
	wsHub := websocket.NewHub(redisClients.PubSub, jwtAuth)
	go wsHub.Run(hubCtx)
	log.Println("✓ WebSocket hub started")

	// ──── Step 8: Start HTTP Server ────
	r := router.New(
		jwtAuth,
		authHandler,
		adminHandler,
		studentHandler,
		unlockHandler,
		wsHub,
		cfg.FrontendURL,
		uploadsDir,
	)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down...")
		unlockScheduler.Stop()
		hubCancel()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		server.Shutdown(ctx)
	}()

	log.Printf("✓ DailyQ Backend ready on http://localhost:%s", cfg.Port)
	log.Printf("  API: http://localhost:%s/api/v1", cfg.Port)
	log.Printf("  WS:  ws://localhost:%s/api/v1/ws", cfg.Port)

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}
}
