package main

import (
	"context"
	"net/http"
	"os"
	"time"

	"orderdesk/internal/application"
	"orderdesk/internal/infrastructure/api"
	"orderdesk/internal/infrastructure/auth"
	"orderdesk/internal/infrastructure/encryption"
	"orderdesk/internal/infrastructure/metrics"
	"orderdesk/internal/infrastructure/repository"
	"orderdesk/internal/infrastructure/shopify"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	if err := godotenv.Load(); err != nil {
		logger.Warn().Msg("No .env file found, using environment variables")
	}

	encryptionKey := os.Getenv("ENCRYPTION_KEY")
	if encryptionKey == "" {
		logger.Fatal().Msg("ENCRYPTION_KEY is required")
	}
	encryptionService, err := encryption.NewService(encryptionKey)
	if err != nil {
		logger.Fatal().Err(err).Msg("Invalid ENCRYPTION_KEY")
	}

	mongoURI := getEnv("MONGODB_URI", "mongodb://localhost:27017")
	mongoDatabase := getEnv("MONGODB_DATABASE", "orderdesk")
	appURL := getEnv("APP_URL", "http://localhost:8080")
	authURL := getEnv("AUTH_URL", "http://localhost:3000")
	dashboardURL := getEnv("DASHBOARD_URL", "http://localhost:3000")
	port := getEnv("PORT", "8080")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	mongoClient, err := mongo.Connect(ctx, options.Client().ApplyURI(mongoURI))
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to MongoDB")
	}
	if err := mongoClient.Ping(ctx, nil); err != nil {
		logger.Fatal().Err(err).Msg("Failed to ping MongoDB")
	}
	db := mongoClient.Database(mongoDatabase)

	if err := repository.EnsureStoreIndexes(ctx, db); err != nil {
		logger.Fatal().Err(err).Msg("Failed to ensure store indexes")
	}
	if err := repository.EnsureOrderIndexes(ctx, db); err != nil {
		logger.Fatal().Err(err).Msg("Failed to ensure order indexes")
	}
	if err := repository.EnsureWebhookEventIndexes(ctx, db); err != nil {
		logger.Fatal().Err(err).Msg("Failed to ensure webhook event indexes")
	}

	storeRepo := repository.NewMongoStoreRepository(db)
	orderRepo := repository.NewMongoOrderRepository(db)
	eventRepo := repository.NewMongoWebhookEventRepository(db)
	subsRepo := repository.NewMongoWebhookSubscriptionRepository(db)

	var redisClient *redis.Client
	if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
		opts, err := redis.ParseURL(redisURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("Invalid REDIS_URL")
		}
		redisClient = redis.NewClient(opts)
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.Warn().Err(err).Msg("Redis unreachable, rate limiting disabled")
			redisClient = nil
		}
	}

	rateLimiter := shopify.NewRateLimiter(redisClient, logger)
	shopifyClient := shopify.NewClient(rateLimiter, logger)
	authProvider := auth.NewHTTPProvider(authURL, logger)
	m := metrics.New(prometheus.DefaultRegisterer)

	registrar := application.NewWebhookRegistrar(shopifyClient, subsRepo, logger)
	dispatcher := application.NewWebhookDispatcher(storeRepo, orderRepo, eventRepo, m, logger)
	storeService := application.NewStoreService(storeRepo, encryptionService, registrar, logger)
	orderService := application.NewOrderService(storeRepo, orderRepo, shopifyClient, encryptionService, m, logger)
	oauthService := application.NewOAuthService(storeRepo, encryptionService, shopifyClient, registrar, appURL, logger)

	handler := api.NewHandler(
		storeService,
		orderService,
		oauthService,
		dispatcher,
		storeRepo,
		encryptionService,
		authProvider,
		m,
		logger,
		dashboardURL,
	)

	logger.Info().
		Str("port", port).
		Str("app_url", appURL).
		Msg("Starting orderdesk API server")

	if err := http.ListenAndServe(":"+port, handler.Router()); err != nil {
		logger.Fatal().Err(err).Msg("Server failed")
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
