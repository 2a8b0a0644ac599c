package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"shopify-auth-layer/internal/application"
	"shopify-auth-layer/internal/application/webhook_handlers"
	"shopify-auth-layer/internal/config"
	apiinfra "shopify-auth-layer/internal/infrastructure/api"
	"shopify-auth-layer/internal/infrastructure/encryption"
	"shopify-auth-layer/internal/infrastructure/metrics"
	"shopify-auth-layer/internal/infrastructure/password"
	"shopify-auth-layer/internal/infrastructure/repository"
	shopifyinfra "shopify-auth-layer/internal/infrastructure/shopify"
	"shopify-auth-layer/internal/ports"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func main() {
	// Initialize logger
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg, envLoaded, err := config.Load()
	if !envLoaded {
		logger.Warn().Msg(".env file not found")
	}
	if err != nil {
		logger.Fatal().Err(err).Msg("Invalid configuration")
	}
	if level, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		logger = logger.Level(level)
	}

	// Connect to MongoDB
	mongoClient, err := mongo.Connect(context.Background(), options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to MongoDB")
	}
	defer mongoClient.Disconnect(context.Background())
	db := mongoClient.Database(cfg.MongoDatabase)

	// Connect to Redis
	redisOpts, err := goredis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("Invalid REDIS_URL")
	}
	rdb := goredis.NewClient(redisOpts)
	defer rdb.Close()

	// Token encryption
	var encryptionService ports.EncryptionService = encryption.NoopService{}
	if cfg.EncryptionKey != "" {
		encryptionService, err = encryption.NewService(cfg.EncryptionKey)
		if err != nil {
			logger.Fatal().Err(err).Msg("Failed to initialize encryption service")
		}
	} else {
		logger.Warn().Msg("ENCRYPTION_KEY not set, tokens are stored in plain text")
	}

	// Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector := metrics.NewCollector(registry)

	clock := clockwork.NewRealClock()

	// Initialize infrastructure (implementations)
	tokenManager := shopifyinfra.NewTokenManager(encryptionService, logger)
	shopifyClient := shopifyinfra.NewClient(cfg.ShopifyAPIKey, cfg.ShopifyAPISecret, logger)

	shopUserRepo := repository.NewMongoShopUserRepository(db, tokenManager, clock)
	indexCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := shopUserRepo.EnsureIndexes(indexCtx); err != nil {
		logger.Fatal().Err(err).Msg("Failed to create shop user indexes")
	}
	cancel()
	installStateRepo := repository.NewRedisInstallStateRepository(rdb, clock)

	// Initialize application services
	shopUsers := application.NewShopUserManager(
		shopUserRepo,
		password.NewBcryptHasher(cfg.BcryptCost),
		clock,
		collector,
		logger,
	)

	installService := application.NewInstallService(
		shopUsers,
		installStateRepo,
		shopifyClient,
		tokenManager,
		cfg.SessionConfig(),
		application.InstallConfig{
			Scopes:           cfg.ShopifyScopes,
			RedirectURI:      cfg.RedirectURI(),
			DefaultReturnURL: cfg.ReturnURL,
		},
		clock,
		collector,
		logger,
	)

	webhookDispatcher := application.NewWebhookDispatcher(collector, logger)
	webhookDispatcher.RegisterHandler(webhook_handlers.NewAppUninstalledHandler(logger, shopUsers))

	// Setup router
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{cfg.AppURL},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"*"},
	}))

	handler := apiinfra.NewHandler(installService, webhookDispatcher, shopifyClient, metrics.Handler(registry), logger)
	handler.Routes(r)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info().
			Str("port", cfg.Port).
			Str("apiVersion", cfg.SessionConfig().Version()).
			Msg("Server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("Server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelShutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Graceful shutdown failed")
	}
	logger.Info().Msg("Server stopped")
}
