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

	"vidrag-backend/internal/config"
	"vidrag-backend/internal/database"
	"vidrag-backend/internal/handlers"
	"vidrag-backend/internal/repository"
	"vidrag-backend/internal/router"
	"vidrag-backend/internal/services"
)

func main() {
	log.Println("🚀 Starting VidRAG Backend...")

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

	// ──── Step 3: Initialize Redis Client (optional) ────
	redisClient, err := database.NewRedisClient(cfg.RedisURL)
	if err != nil {
		log.Fatalf("✗ Redis connection failed: %v", err)
	}
	if redisClient != nil {
		defer redisClient.Close()
		log.Println("✓ Redis connected")
	} else {
		log.Println("• Redis not configured, ingestion locks run on Postgres only")
	}

	// ──── Step 4: Run Database Migrations ────
	if err := database.RunMigrations(pool, "migrations"); err != nil {
		log.Fatalf("✗ Database migration failed: %v", err)
	}
	log.Println("✓ Database migrations applied")

	// ──── Initialize Repositories ────
	statusRepo := repository.NewStatusRepo(pool)
	embeddingRepo := repository.NewEmbeddingRepo(pool)

	// ──── Step 5: Initialize Gemini Client ────
	geminiService, err := services.NewGeminiService(cfg.GeminiAPIKey, cfg.GeminiConcurrentReqs)
	if err != nil {
		log.Fatalf("✗ Gemini client initialization failed: %v", err)
	}
	defer geminiService.Close()
	log.Println("✓ Gemini client initialized")

	// ──── Initialize Services ────
	youtubeService := services.NewYouTubeService()
	ingestService := services.NewIngestService(
		youtubeService,
		geminiService,
		statusRepo,
		embeddingRepo,
		redisClient,
		cfg.ChunkWindowSize,
		cfg.ChunkStep,
		time.Duration(cfg.ChunkExpiryHours)*time.Hour,
	)
	searchService := services.NewSearchService(embeddingRepo)
	chatService := services.NewChatService(statusRepo, geminiService, searchService, geminiService, cfg.SearchTopK)
	summaryService := services.NewSummaryService(statusRepo, embeddingRepo, geminiService)

	// ──── Step 6: Start Cleanup Scheduler ────
	cleanupScheduler := services.NewCleanupScheduler(embeddingRepo, statusRepo)
	cleanupScheduler.Start()
	log.Println("✓ Cleanup scheduler started")

	// ──── Initialize Handlers ────
	videoHandler := handlers.NewVideoHandler(ingestService, statusRepo, embeddingRepo)
	chatHandler := handlers.NewChatHandler(chatService, summaryService)
	adminHandler := handlers.NewAdminHandler(cleanupScheduler)

	// ──── Step 7: Start HTTP Server ────
	r := router.New(videoHandler, chatHandler, adminHandler, cfg.FrontendURL)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down...")
		cleanupScheduler.Stop()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		server.Shutdown(ctx)
	}()

	log.Printf("✓ VidRAG Backend ready on http://localhost:%s", cfg.Port)
	log.Printf("  API: http://localhost:%s/api/v1", cfg.Port)

	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("Server error: %v", err)
	}
}
