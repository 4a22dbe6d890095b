package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/fjod/go_cart/storefront-session/internal/cart"
	"github.com/fjod/go_cart/storefront-session/internal/catalog"
	h "github.com/fjod/go_cart/storefront-session/internal/http"
	"github.com/fjod/go_cart/storefront-session/internal/poller"
	"github.com/fjod/go_cart/storefront-session/internal/search"
	"github.com/fjod/go_cart/storefront-session/internal/session"
	"github.com/fjod/go_cart/storefront-session/internal/store"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
)

type Config struct {
	HTTPPort           string
	RequestTimeout     time.Duration
	ShutdownTimeout    time.Duration
	MaxRequestBodySize int64

	// memory, redis or mongo
	StoreBackend string
	RedisAddr    string
	RedisPass    string
	ListTTL      time.Duration
	MongoURI     string
	MongoDBName  string

	CatalogDBPath  string
	ResultCacheTTL time.Duration
	SearchTimeout  time.Duration
	MaxRecent      int

	FreeShippingThreshold float64
	ShippingRate          float64
	SessionIdleTTL        time.Duration

	KafkaBrokers []string
}

func loadConfig() *Config {
	return &Config{
		HTTPPort:           getEnv("HTTP_PORT", "8080"),
		RequestTimeout:     30 * time.Second,
		ShutdownTimeout:    10 * time.Second,
		MaxRequestBodySize: 1 << 20, // 1MB

		StoreBackend: getEnv("STORE_BACKEND", "memory"),
		RedisAddr:    getEnv("REDIS_ADDR", ""),
		RedisPass:    getEnv("REDIS_PASSWORD", ""),
		ListTTL:      getEnvDuration("LIST_TTL", 0),
		MongoURI:     getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDBName:  getEnv("MONGO_DB_NAME", "storefront"),

		CatalogDBPath:  getEnv("CATALOG_DB_PATH", "./storefront.db"),
		ResultCacheTTL: getEnvDuration("RESULT_CACHE_TTL", catalog.DefaultResultTTL),
		SearchTimeout:  getEnvDuration("SEARCH_TIMEOUT", search.DefaultTimeout),
		MaxRecent:      getEnvInt("MAX_RECENT_SEARCHES", search.DefaultMaxRecent),

		FreeShippingThreshold: getEnvFloat("FREE_SHIPPING_THRESHOLD", cart.DefaultFreeShippingThreshold),
		ShippingRate:          getEnvFloat("SHIPPING_RATE", cart.DefaultShippingRate),
		SessionIdleTTL:        getEnvDuration("SESSION_IDLE_TTL", session.IdleTTL),

		KafkaBrokers: splitList(getEnv("KAFKA_BROKERS", "")),
	}
}

func main() {
	cfg := loadConfig()
	ctx := context.Background()

	// Redis serves both the list backend and the search result cache when configured
	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPass,
			DB:       0,
		})
		defer redisClient.Close()
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Fatal("Redis connection failed:", err)
		}
		log.Printf("Redis ping succeeded")
	}

	backend, mongoDB := openBackend(ctx, cfg, redisClient)
	if mongoDB != nil {
		defer mongoDB.Client().Disconnect(ctx)
	}

	repo, err := catalog.NewRepository(cfg.CatalogDBPath)
	if err != nil {
		log.Fatalf("Failed to open catalog: %v", err)
	}
	defer repo.Close()

	if err := repo.RunMigrations(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Println("Migrations completed successfully")

	opts := catalog.ServiceOptions{}
	if redisClient != nil {
		opts.Cache = catalog.NewRedisResultCache(redisClient, cfg.ResultCacheTTL)
	}
	catalogService := catalog.NewService(repo, opts)

	registry := session.NewRegistry(backend, catalogService, session.Config{
		Cart: cart.Options{
			FreeShippingThreshold: cfg.FreeShippingThreshold,
			ShippingRate:          cfg.ShippingRate,
		},
		Search: search.Options{
			Timeout:     cfg.SearchTimeout,
			MaxRecent:   cfg.MaxRecent,
			Suggestions: catalog.LoadSuggestions(ctx, repo, 8),
		},
		IdleTTL: cfg.SessionIdleTTL,
	})
	defer registry.Close()

	pollCtx, stopPolling := context.WithCancel(ctx)
	defer stopPolling()
	if len(cfg.KafkaBrokers) > 0 {
		checkoutPoller := poller.NewPoller(registry, cfg.KafkaBrokers...)
		defer checkoutPoller.Close()
		go checkoutPoller.Run(pollCtx)
		log.Printf("Listening for checkouts on %s", poller.CheckoutTopic)
	}

	srv := &http.Server{
		Addr: ":" + cfg.HTTPPort,
		Handler: h.NewRouter(registry, h.RouterConfig{
			RequestTimeout:     cfg.RequestTimeout,
			MaxRequestBodySize: cfg.MaxRequestBodySize,
		}),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Storefront session service starting on :%s (%s backend)", cfg.HTTPPort, cfg.StoreBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down server...")
	stopPolling()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("server forced to shutdown: %v", err)
	}

	log.Println("server exited")
}

func openBackend(ctx context.Context, cfg *Config, redisClient *redis.Client) (store.Backend, *mongo.Database) {
	switch cfg.StoreBackend {
	case "redis":
		if redisClient == nil {
			log.Fatal("STORE_BACKEND=redis requires REDIS_ADDR")
		}
		return store.NewRedisBackend(redisClient, cfg.ListTTL), nil
	case "mongo":
		db, err := store.ConnectMongo(ctx, cfg.MongoURI, cfg.MongoDBName)
		if err != nil {
			log.Fatalf("Failed to connect to MongoDB: %v", err)
		}
		backend := store.NewMongoBackend(db)
		if err := backend.CreateIndexes(ctx); err != nil {
			log.Printf("failed to create indexes: %v", err)
		}
		log.Printf("Connected to MongoDB at %s", cfg.MongoURI)
		return backend, db
	case "memory":
		return store.NewMemoryBackend(), nil
	default:
		log.Fatalf("unknown STORE_BACKEND %q", cfg.StoreBackend)
		return nil, nil
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		log.Printf("invalid %s=%q, using %s", key, value, defaultValue)
		return defaultValue
	}
	return d
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("invalid %s=%q, using %d", key, value, defaultValue)
		return defaultValue
	}
	return n
}

func getEnvFloat(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		log.Printf("invalid %s=%q, using %.2f", key, value, defaultValue)
		return defaultValue
	}
	return f
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
