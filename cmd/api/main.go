package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nutrisnap/backend/config"
	"github.com/nutrisnap/backend/internal/api"
	"github.com/nutrisnap/backend/internal/database"
	"github.com/nutrisnap/backend/internal/middleware"
	"github.com/nutrisnap/backend/internal/router"
	"github.com/nutrisnap/backend/internal/server"
	"github.com/nutrisnap/backend/internal/service"
	"github.com/nutrisnap/backend/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.New(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Redis backs the scan cache and rate limiting; the API degrades to
	// uncached, unlimited operation without it.
	var (
		scans       api.ScanStore
		rateLimiter *middleware.RateLimiter
	)
	if redisClient, err := database.NewRedisClient(cfg); err != nil {
		log.Printf("Warning: Redis unavailable, scan cache and rate limiting disabled: %v", err)
	} else {
		scans = service.NewScanCache(redisClient)
		rateLimiter = middleware.NewScanRateLimiter(redisClient, cfg.ScanRateLimit)
	}

	local, err := storage.NewLocal(cfg.UploadDir, cfg.BaseURL)
	if err != nil {
		log.Fatalf("Failed to initialize upload directory: %v", err)
	}

	var store storage.Store = local
	if cfg.UploadBackend == "s3" {
		s3cfg, err := config.NewS3Config(context.Background())
		if err != nil {
			log.Fatalf("Failed to initialize S3: %v", err)
		}
		store = storage.NewS3(s3cfg)
	}

	authService := service.NewAuthService(db, cfg.JWTSecret)
	profileService := service.NewProfileService(db)
	foodService := service.NewFoodService(db)
	scanner := service.NewScanner(cfg)

	authHandler := api.NewAuthHandler(authService)
	profileHandler := api.NewProfileHandler(profileService, authService)
	foodHandler := api.NewFoodHandler(foodService, scanner, scans, store, local, authService, rateLimiter)

	r := router.SetupRouter(authHandler, profileHandler, foodHandler)
	srv := server.New(r, fmt.Sprintf("%s:%s", cfg.ServerHost, cfg.ServerPort))

	errChan := make(chan error, 1)
	go func() {
		log.Printf("Starting server on %s:%s", cfg.ServerHost, cfg.ServerPort)
		errChan <- srv.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		if err != nil {
			log.Fatalf("Server error: %v", err)
		}
	case sig := <-quit:
		log.Printf("Received signal: %v", sig)
	}

	log.Println("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server shutdown error: %v", err)
	}
	log.Println("Server stopped")
}
