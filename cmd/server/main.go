package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/AnshRaj112/canteen-backend/internal/config"
	"github.com/AnshRaj112/canteen-backend/internal/database"
	"github.com/AnshRaj112/canteen-backend/internal/handlers"
	"github.com/AnshRaj112/canteen-backend/internal/logging"
	"github.com/AnshRaj112/canteen-backend/internal/middleware"
	"github.com/AnshRaj112/canteen-backend/internal/routes"
	"github.com/AnshRaj112/canteen-backend/internal/services"
)

func main() {
	// Load env
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}
	cfg := config.Load()

	logger, err := logging.New(cfg.Environment, os.Getenv("DEBUG") != "")
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()
	logging.SetGlobal(logger)
	handlers.SetLogger(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	hub := services.NewChangeHub(logger)
	tokens := services.NewTokenService(cfg.JWTSecret, cfg.TokenTTL)

	var (
		repo  services.HouseholdRepository
		store services.BucketStore
		bus   services.ChangeBus
	)

	if cfg.UsesMemoryBackend() {
		logger.Warn("STORAGE_BACKEND=memory: households are lost on restart")
		repo = services.NewMemoryHouseholds()
		store = services.NewMemoryBucketStore()
		bus = services.NewMemoryChangeBus(hub)
	} else {
		// Households live in PostgreSQL
		if err := database.ConnectPostgres(cfg.PostgresURI); err != nil {
			logger.Fatal("failed to connect to PostgreSQL", zap.Error(err))
		}
		defer database.DisconnectPostgres()

		// Bucket entities live in MongoDB
		if err := database.Connect(cfg.MongoURI, cfg.MongoDatabase); err != nil {
			logger.Fatal("failed to connect to MongoDB", zap.String("uri", database.MaskURI(cfg.MongoURI)), zap.Error(err))
		}
		defer database.Disconnect()

		mongoStore := services.NewMongoBucketStore(database.DB)
		if err := mongoStore.EnsureIndexes(ctx); err != nil {
			logger.Warn("failed to ensure bucket indexes", zap.Error(err))
		}

		// Redis carries the change bus and the bucket read cache
		if err := database.ConnectRedis(cfg.RedisURI); err != nil {
			logger.Fatal("failed to connect to Redis", zap.Error(err))
		}
		defer database.DisconnectRedis()

		redisBus := services.NewRedisChangeBus(database.RedisClient, hub, logger)
		redisBus.Start(ctx)

		repo = services.NewPostgresHouseholds(database.PostgresDB)
		store = services.NewCachedBucketStore(mongoStore, services.NewCacheService(database.RedisClient), logger)
		bus = redisBus
	}

	handlers.InitHouseholdService(services.NewHouseholdService(repo, store, bus, tokens, logger))

	if gen := newRecipeGenerator(ctx, cfg, logger); gen != nil {
		handlers.InitRecipeGenerator(gen)
	}

	if cfg.CloudinaryName != "" && cfg.CloudinaryAPIKey != "" && cfg.CloudinaryAPISecret != "" {
		if err := handlers.InitCloudinaryService(cfg); err != nil {
			logger.Warn("failed to initialize Cloudinary, uploads disabled", zap.Error(err))
		} else {
			logger.Info("Cloudinary service initialized")
		}
	} else {
		logger.Warn("Cloudinary credentials not found, uploads disabled")
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(middleware.RequestLogger(logger))
	r.Use(middleware.CORS(cfg.AllowedOrigins))

	// Production: SecurityHeaders, HostCheck, per-IP limits.
	// Otherwise the shared Redis limit when Redis is available.
	if cfg.IsProduction() {
		for _, mw := range middleware.ProductionSecurity(cfg.AllowedHost) {
			r.Use(mw)
		}
		logger.Info("production security enabled", zap.String("allowed_host", cfg.AllowedHost))
	} else if database.RedisClient != nil {
		r.Use(middleware.RedisRateLimit(database.RedisClient))
	}

	routes.SetupRoutes(r, tokens)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("canteen backend running",
			zap.String("port", cfg.Port),
			zap.String("env", cfg.Environment),
			zap.String("backend", cfg.StorageBackend))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("failed to start server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}

func newRecipeGenerator(ctx context.Context, cfg *config.Config, logger *zap.Logger) services.RecipeGenerator {
	if cfg.AIKey() == "" {
		logger.Warn("no AI provider key, recipe generation disabled", zap.String("provider", cfg.AIProvider))
		return nil
	}
	if cfg.AIProvider == config.ProviderGemini {
		gen, err := services.NewGeminiGenerator(ctx, cfg.AIKey(), cfg.GeminiModel)
		if err != nil {
			logger.Warn("failed to initialize Gemini, recipe generation disabled", zap.Error(err))
			return nil
		}
		return gen
	}
	return services.NewDeepSeekGenerator(cfg.AIKey())
}
