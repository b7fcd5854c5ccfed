package main

// @title Place Map Service API
// @version 1.0.0
// @description Карта заведений вокруг Синчона. Список мест берётся из базы Notion, координаты разрешаются через Kakao Local API.
// @description
// @description Основные возможности:
// @description - Список заведений с фильтрами и расстоянием от опорной точки
// @description - Регионы с полигонами и ограничивающими прямоугольниками
// @description - Сессии карты: маркеры с подписями, кластеры, выбор региона
// @description - Снимок карты в GeoJSON

// @contact.name API Support

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /
// @schemes http https

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	_ "github.com/Starfish-122/CNX-sub000/docs/swagger"
	"github.com/Starfish-122/CNX-sub000/internal/config"
	httpDelivery "github.com/Starfish-122/CNX-sub000/internal/delivery/http"
	"github.com/Starfish-122/CNX-sub000/internal/delivery/http/handler"
	"github.com/Starfish-122/CNX-sub000/internal/domain"
	"github.com/Starfish-122/CNX-sub000/internal/domain/repository"
	"github.com/Starfish-122/CNX-sub000/internal/infrastructure/kakao"
	"github.com/Starfish-122/CNX-sub000/internal/infrastructure/mapscene"
	"github.com/Starfish-122/CNX-sub000/internal/infrastructure/notion"
	"github.com/Starfish-122/CNX-sub000/internal/pkg/logger"
	"github.com/Starfish-122/CNX-sub000/internal/repository/cache"
	"github.com/Starfish-122/CNX-sub000/internal/repository/postgres"
	"github.com/Starfish-122/CNX-sub000/internal/usecase"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// 2. Initialize logger
	log, err := logger.New(cfg.Log.Level, "api")
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer log.Sync()

	log.Info("Starting Place Map Service")
	log.Info("Configuration loaded",
		zap.String("env", cfg.Server.Env),
		zap.String("server_addr", cfg.GetServerAddr()),
		zap.Bool("map_key_configured", cfg.Kakao.MapAppKey != ""),
		zap.Bool("db_enabled", cfg.Database.Enabled),
	)

	// 3. Connect to Redis
	redisClient, err := cache.NewRedis(&cfg.Redis, log)
	if err != nil {
		log.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			log.Error("Failed to close Redis connection", zap.Error(err))
		}
	}()

	checks := map[string]handler.HealthChecker{"redis": redisClient}

	// 4. PostgreSQL с разрешёнными координатами - опционально
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
		checks["postgres"] = db
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for name, c := range checks {
		if err := c.Health(ctx); err != nil {
			log.Fatal("Health check failed", zap.String("dependency", name), zap.Error(err))
		}
	}
	log.Info("All connections healthy")

	// 5. Repositories and external clients
	cacheRepo := cache.NewCacheRepository(redisClient)
	searchRepo := kakao.NewLocalClient(&cfg.Kakao, log)
	sourceRepo := notion.NewClient(&cfg.Notion, log)
	sdk := mapscene.NewSDK(&cfg.Kakao, log)

	reference := domain.Coordinates{Lat: cfg.Map.ReferenceLat, Lng: cfg.Map.ReferenceLng}

	// 6. Use cases
	chain := usecase.NewChainResolver(searchRepo, usecase.ResolverOptions{
		Reference:        reference,
		RegionHint:       cfg.Map.RegionHint,
		SanityThresholdM: cfg.Map.SanityThresholdM,
	}, log)
	resolver := usecase.NewCachedResolver(chain, cacheRepo, coordRepo, cfg.Cache.CoordinatesCacheTTL, log)

	queue := usecase.NewResolveQueue(resolver, cfg.Map.ResolveConcurrency)
	enricher := usecase.NewDistanceEnricher(queue, log)
	placeUC := usecase.NewPlaceUseCase(sourceRepo, cacheRepo, enricher, reference, cfg.Cache.PlacesCacheTTL, log)

	loader := usecase.NewMapLoader(sdk, usecase.MapLoaderOptions{
		APIKey:       cfg.Kakao.MapAppKey,
		ReadyTimeout: cfg.Map.ReadyTimeout,
		PollInterval: cfg.Map.PollInterval,
	}, log)
	viewport := usecase.NewViewportController(cfg.Map.BoundsPadding, cfg.Map.RelayoutDelay, log)
	mapUC := usecase.NewMapPageUseCase(loader, placeUC, resolver, viewport, usecase.MapPageOptions{
		DefaultCenter:      reference,
		DefaultLevel:       cfg.Map.DefaultLevel,
		ClusterMinLevel:    cfg.Map.ClusterMinLevel,
		ResolveConcurrency: cfg.Map.ResolveConcurrency,
	}, log)

	log.Info("Use cases initialized")

	// 7. HTTP handlers and server
	server := httpDelivery.NewServer(
		cfg,
		log,
		handler.NewHealthHandler(checks, log),
		handler.NewRegionHandler(),
		handler.NewPlaceHandler(placeUC, log),
		handler.NewMapHandler(mapUC, log),
	)

	go func() {
		if err := server.Start(); err != nil {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	log.Info("Server started successfully",
		zap.String("address", cfg.GetServerAddr()),
		zap.String("env", cfg.Server.Env),
	)

	// 8. Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server gracefully...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server shutdown error", zap.Error(err))
	}

	// отменяет фоновые разрешения координат и снимает оверлеи
	mapUC.CloseAll()

	log.Info("Server stopped successfully")
}
