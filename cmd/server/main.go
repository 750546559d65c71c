package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"eventboard/internal/config"
	"eventboard/internal/db"
	"eventboard/internal/logger"
	"eventboard/internal/ratelimit"
	"eventboard/internal/router"
	"eventboard/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, finding env vars from system")
	}

	cfg := config.Load()

	appLog, err := logger.NewLogger(cfg.LogDir)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer appLog.Close()
	appLog.SetLevel(logger.ParseLevel(cfg.LogLevel))

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := db.Init(cfg.Database, appLog); err != nil {
		appLog.Fatal("DATABASE", fmt.Sprintf("Failed to initialize database: %v", err))
	}

	publisher, closePublisher := newPublisher(cfg.Kafka, appLog)
	defer closePublisher()

	limiter, closeLimiter := newLimiter(cfg.RateLimit, appLog)
	defer closeLimiter()

	tokens := services.NewTokenIssuer(cfg.Session.Secret, cfg.Session.TTL)
	r := router.New(router.Dependencies{
		DB:           db.DB,
		Users:        services.NewUserService(db.DB, tokens),
		Events:       services.NewEventService(db.DB, publisher),
		Questions:    services.NewQuestionService(db.DB, publisher),
		Limiter:      limiter,
		Log:          appLog,
		AllowOrigins: cfg.Server.AllowOrigins,
	})

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		appLog.Info("SERVER", fmt.Sprintf("Eventboard listening on :%s (%s)", cfg.Server.Port, cfg.Server.Env))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLog.Fatal("SERVER", fmt.Sprintf("Server failed: %v", err))
		}
	}()

	// --- Graceful Shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLog.Info("SERVER", "Shutdown signal received, draining requests")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		appLog.Error("SERVER", fmt.Sprintf("Forced shutdown: %v", err))
	}
	appLog.Info("SERVER", "Server stopped")
}

// newPublisher returns the Kafka-backed activity queue, or a no-op when no
// brokers are configured.
func newPublisher(cfg config.KafkaConfig, appLog *logger.Logger) (services.Publisher, func()) {
	if !cfg.Enabled() {
		appLog.Info("KAFKA", "No brokers configured, activity publishing disabled")
		return services.NopPublisher{}, func() {}
	}

	queue := services.NewActivityQueue(services.NewKafkaWriter(cfg.Brokers, cfg.Topic), appLog)
	appLog.LogKafka("CONNECT", cfg.Topic, fmt.Sprintf("Publishing activity to %v", cfg.Brokers))
	return queue, func() {
		if err := queue.Close(); err != nil {
			appLog.Error("KAFKA", fmt.Sprintf("Failed to close writer: %v", err))
		}
	}
}

// newLimiter picks the Redis limiter when REDIS_URL is set and the in-process
// one otherwise. It returns nil when rate limiting is off.
func newLimiter(cfg config.RateLimitConfig, appLog *logger.Logger) (ratelimit.Limiter, func()) {
	if !cfg.Enabled {
		return nil, func() {}
	}

	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			appLog.Fatal("RATE_LIMIT", fmt.Sprintf("Invalid REDIS_URL: %v", err))
		}
		client := redis.NewClient(opts)

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := client.Ping(ctx).Err(); err != nil {
			appLog.Warn("RATE_LIMIT", fmt.Sprintf("Redis not reachable yet: %v", err))
		}

		appLog.Info("RATE_LIMIT", fmt.Sprintf("Redis token bucket, %d req/s burst %d", cfg.RPS, cfg.Burst))
		return ratelimit.NewRedisLimiter(client, cfg.RPS, cfg.Burst), func() { client.Close() }
	}

	limiter, err := ratelimit.NewLocalLimiter(cfg.RPS, cfg.Burst, cfg.CacheSize, cfg.IdleTTL)
	if err != nil {
		appLog.Fatal("RATE_LIMIT", err.Error())
	}
	appLog.Info("RATE_LIMIT", fmt.Sprintf("In-process token bucket, %d req/s burst %d", cfg.RPS, cfg.Burst))
	return limiter, func() {}
}
