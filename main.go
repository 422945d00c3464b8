package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/mardix/equiptest/handlers"
	"github.com/mardix/equiptest/internal/catalog"
	"github.com/mardix/equiptest/internal/config"
	"github.com/mardix/equiptest/internal/content"
	"github.com/mardix/equiptest/internal/database"
	"github.com/mardix/equiptest/internal/session"
	"github.com/mardix/equiptest/pkg/logger"
	"github.com/mardix/equiptest/pkg/metrics"
	"github.com/mardix/equiptest/pkg/middleware"
)

var startTime = time.Now()

func main() {
	// initialize logging (can be controlled with LOG_LEVEL env: debug|info|warn|error|fatal)
	logger.Init(os.Getenv("LOG_LEVEL"))

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}
	logger.Infof("config loaded: mongo=%v redis=%v minio=%v", cfg.MongoDB.URI != "", cfg.Redis.Host != "", cfg.MinIO.Endpoint != "")

	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	ctx := context.Background()

	// Redis is optional: it backs the association cache and (when enabled)
	// the distributed rate limiter.
	var redisClient *redis.Client
	if cfg.Redis.Host != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Host + ":" + cfg.Redis.Port,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Warnf("failed to connect to Redis (%s:%s): %v", cfg.Redis.Host, cfg.Redis.Port, err)
			redisClient = nil
		} else {
			logger.Infof("connected to Redis at %s:%s", cfg.Redis.Host, cfg.Redis.Port)
		}
	}

	if cfg.RateLimit.Enabled {
		if cfg.RateLimit.UseRedis && redisClient != nil {
			win := time.Duration(cfg.RateLimit.WindowSeconds) * time.Second
			r.Use(middleware.RedisRateLimitMiddleware(redisClient, cfg.RateLimit.RPS, cfg.RateLimit.Burst, win))
		} else {
			r.Use(middleware.RateLimitMiddleware(cfg.RateLimit.RPS, cfg.RateLimit.Burst))
		}
	}

	// Content store: MinIO when configured, in-memory otherwise.
	var store content.Store
	if cfg.MinIO.Endpoint != "" {
		ms, err := content.NewMinIOStore(&content.MinIOConfig{
			Endpoint:  cfg.MinIO.Endpoint,
			AccessKey: cfg.MinIO.AccessKey,
			SecretKey: cfg.MinIO.SecretKey,
			UseSSL:    cfg.MinIO.UseSSL,
			Bucket:    cfg.MinIO.Bucket,
		})
		if err != nil {
			logger.Fatalf("failed to initialize MinIO content store: %v", err)
		}
		store = ms
		logger.Infof("using MinIO content store (bucket %s)", cfg.MinIO.Bucket)
	} else {
		store = content.NewMemoryStore()
		logger.Warnf("MINIO_ENDPOINT not set — using in-memory content store")
	}

	// Repositories: Mongo when configured, memory fallback for local runs.
	var sessionRepo session.Repository
	var catalogRepo catalog.Repository
	var mongoClient *mongo.Client
	if cfg.MongoDB.URI != "" {
		// Retry/backoff to tolerate startup races with the database container.
		const maxAttempts = 5
		backoff := time.Second
		var errConn error
		for attempt := 1; attempt <= maxAttempts; attempt++ {
			mongoClient, errConn = database.ConnectMongo(ctx, cfg.MongoDB.URI, cfg.MongoDB.Timeout)
			if errConn == nil {
				break
			}
			logger.Warnf("attempt %d/%d: failed to connect to MongoDB: %v", attempt, maxAttempts, errConn)
			if attempt < maxAttempts {
				time.Sleep(backoff)
				backoff *= 2
			}
		}
		if errConn != nil {
			logger.Fatalf("could not connect to MongoDB after %d attempts: %v", maxAttempts, errConn)
		}
		defer func() { _ = mongoClient.Disconnect(ctx) }()
		db := mongoClient.Database(cfg.MongoDB.Database)
		sessionRepo = session.NewMongoRepo(db.Collection("test_sessions"))
		catalogRepo = catalog.NewMongoRepo(db)
	} else {
		logger.Warnf("MONGODB_URI not set — using in-memory repositories")
		sessionRepo = session.NewMemoryRepo()
		catalogRepo = catalog.NewMemoryRepo()
	}
	if redisClient != nil {
		catalogRepo = catalog.NewCachedRepo(catalogRepo, redisClient, cfg.Redis.AssocCacheTTL)
	}

	engine := session.NewEngine(sessionRepo, catalogRepo, store)
	handlers.RegisterSessionRoutes(r, engine)

	r.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "healthy")
	})

	// readiness — 200 only when the persistence dependencies this instance
	// was configured with are reachable
	r.GET("/ready", func(c *gin.Context) {
		ready := true
		deps := map[string]bool{}
		if cfg.MongoDB.URI != "" {
			err := mongoClient.Ping(c.Request.Context(), nil)
			deps["mongo"] = err == nil
			ready = ready && err == nil
		}
		if cfg.Redis.Host != "" {
			deps["redis"] = redisClient != nil && redisClient.Ping(c.Request.Context()).Err() == nil
			ready = ready && deps["redis"]
		}
		status := http.StatusOK
		state := "ready"
		if !ready {
			status = http.StatusServiceUnavailable
			state = "not_ready"
		}
		c.JSON(status, gin.H{"status": state, "deps": deps, "uptime": time.Since(startTime).String()})
	})

	// Expose Prometheus metrics
	metrics.RegisterCollectors(prometheus.DefaultRegisterer)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	logger.Infof("starting test-session service on %s", addr)
	if err := r.Run(addr); err != nil {
		logger.Fatalf("server failed: %v", err)
	}
}
