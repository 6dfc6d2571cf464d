package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"coupon-service/config"
	"coupon-service/internal/delivery/http/middleware"
	v1 "coupon-service/internal/delivery/http/v1"
	"coupon-service/internal/infrastructure/cache"
	"coupon-service/internal/repository/postgres"
	"coupon-service/internal/usecase"
	"coupon-service/pkg/logger"

	"github.com/NYTimes/gziphandler"
	"golang.org/x/time/rate"
)

func main() {
	cfg := config.LoadConfig()

	// Initialize Logger
	logger.Init(cfg.Env, cfg.LogLevel)
	log := logger.Get()

	// Initialize Database
	pgxPool, err := postgres.NewPgxPool(context.Background(), cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer pgxPool.Close()
	log.Info().Msg("Successfully connected to PostgreSQL via pgx")

	if err := postgres.ApplySchema(context.Background(), pgxPool); err != nil {
		log.Fatal().Err(err).Msg("Failed to apply database schema")
	}

	// Initialize Repositories
	couponRepo := postgres.NewCouponRepository(pgxPool)

	// Initialize Cache (In-Memory)
	// Default expiration 1m, cleanup every 5m
	memCache := cache.NewMemoryCache(cfg.CacheListTTL, 5*time.Minute)

	// Coupon Module
	couponUC := usecase.NewCouponUsecase(couponRepo, memCache, cfg.CacheListTTL, cfg.DefaultPageSize, cfg.MaxPageSize)
	couponHandler := v1.NewCouponHandler(couponUC)

	// Set up Router
	mux := http.NewServeMux()

	mux.HandleFunc("POST /coupons", couponHandler.CreateCoupon)
	mux.HandleFunc("GET /coupons", couponHandler.ListCoupons)
	mux.HandleFunc("DELETE /coupons/{id}", couponHandler.DeleteCoupon)

	// Health Check
	healthHandler := func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "ok", "db": "connected"}`))
	}
	mux.HandleFunc("GET /health", healthHandler)

	addr := fmt.Sprintf(":%s", cfg.Port)

	// Initialize Rate Limiter with lifecycle management
	rateLimiter := middleware.NewRateLimiter(
		context.Background(),
		rate.Limit(cfg.RateLimitPerSecond),
		cfg.RateLimitBurst,
		time.Minute,   // cleanup period
		3*time.Minute, // client TTL
	)

	// Apply CORS (with config injection), Request Logger, Recovery,
	// Rate Limit, and Gzip
	handler := middleware.Recovery(mux)
	handler = middleware.NewCORSMiddleware(cfg)(handler)
	handler = middleware.RequestLogger(handler)
	handler = rateLimiter.Middleware()(handler)
	handler = gziphandler.GzipHandler(handler)

	srv := &http.Server{
		Addr:    addr,
		Handler: handler,
	}

	// Graceful Shutdown
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	logger.ServiceStart("coupon-service", cfg.Port)

	// Wait for interrupt signal via channel
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Server shutting down...")

	// Stop rate limiter cleanup goroutine
	rateLimiter.Shutdown()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	logger.ServiceStop("coupon-service")
}
