package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/Starfish-122/CNX-sub000/internal/config"
	"github.com/Starfish-122/CNX-sub000/internal/domain"
	"github.com/Starfish-122/CNX-sub000/internal/domain/repository"
	"github.com/Starfish-122/CNX-sub000/internal/infrastructure/kakao"
	"github.com/Starfish-122/CNX-sub000/internal/infrastructure/notion"
	"github.com/Starfish-122/CNX-sub000/internal/pkg/logger"
	"github.com/Starfish-122/CNX-sub000/internal/repository/cache"
	"github.com/Starfish-122/CNX-sub000/internal/repository/postgres"
	redisRepo "github.com/Starfish-122/CNX-sub000/internal/repository/redis"
	"github.com/Starfish-122/CNX-sub000/internal/usecase"
	"github.com/Starfish-122/CNX-sub000/internal/worker"
	"github.com/Starfish-122/CNX-sub000/internal/worker/geocode"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	if !cfg.Worker.Enabled {
		fmt.Println("Worker is disabled in configuration. Set WORKER_ENABLED=true to enable.")
		os.Exit(0)
	}

	// 2. Initialize logger
	log, err := logger.New(cfg.Log.Level, "worker")
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer log.Sync()

	log.Info("Starting Place Resolve Worker")
	log.Info("Configuration loaded",
		zap.String("consumer_group", cfg.Worker.ConsumerGroup),
		zap.Int("max_retries", cfg.Worker.MaxRetries),
		zap.Int("concurrency", cfg.Map.ResolveConcurrency),
		zap.Bool("db_enabled", cfg.Database.Enabled))

	// 3. Redis: кеш координат и отдельная БД для стримов
	redisClient, err := cache.NewRedis(&cfg.Redis, log)
	if err != nil {
		log.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			log.Error("Failed to close Redis connection", zap.Error(err))
		}
	}()

	streamsClient, err := cache.NewRedisStreams(&cfg.Redis, log)
	if err != nil {
		log.Fatal("Failed to connect to Redis Streams", zap.Error(err))
	}
	defer func() {
		if err := streamsClient.Close(); err != nil {
			log.Error("Failed to close Redis Streams connection", zap.Error(err))
		}
	}()

	// 4. PostgreSQL - опционально
	var coordRepo repository.CoordinateRepository
	if cfg.Database.Enabled {
		db, err := postgres.New(&cfg.Database, log)
		if err != nil {
			log.Fatal("Failed to connect to PostgreSQL", zap.Error(err))
		}
		defer func() {
			if err := db.Close(); err != nil {
				log.Error("Failed to close PostgreSQL connection", zap.Error(err))
			}
		}()
		coordRepo = postgres.NewCoordinateRepository(db)
	}

	// 5. Repositories and resolver chain
	streamRepo := redisRepo.NewStreamRepository(streamsClient, log)
	cacheRepo := cache.NewCacheRepository(redisClient)
	sourceRepo := notion.NewClient(&cfg.Notion, log)

	chain := usecase.NewChainResolver(kakao.NewLocalClient(&cfg.Kakao, log), usecase.ResolverOptions{
		Reference:        domain.Coordinates{Lat: cfg.Map.ReferenceLat, Lng: cfg.Map.ReferenceLng},
		RegionHint:       cfg.Map.RegionHint,
		SanityThresholdM: cfg.Map.SanityThresholdM,
	}, log)
	resolver := usecase.NewCachedResolver(chain, cacheRepo, coordRepo, cfg.Cache.CoordinatesCacheTTL, log)

	// 6. Workers
	resolveWorker := geocode.NewResolveWorker(
		streamRepo,
		sourceRepo,
		coordRepo,
		resolver,
		cfg.Worker.ConsumerGroup,
		cfg.Map.ResolveConcurrency,
		cfg.Worker.MaxRetries,
		log,
	)

	workerManager := worker.NewWorkerManager(log)
	workerManager.Register(resolveWorker)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := workerManager.Start(ctx); err != nil {
		log.Fatal("Failed to start workers", zap.Error(err))
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	<-sigChan
	log.Info("Received shutdown signal")

	cancel()

	if err := workerManager.Stop(); err != nil {
		log.Error("Error stopping workers", zap.Error(err))
	}

	log.Info("Worker shutdown complete")
}
