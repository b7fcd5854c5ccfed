package http

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	fiberSwagger "github.com/swaggo/fiber-swagger"
	"go.uber.org/zap"

	"github.com/Starfish-122/CNX-sub000/internal/config"
	"github.com/Starfish-122/CNX-sub000/internal/delivery/http/handler"
	"github.com/Starfish-122/CNX-sub000/internal/delivery/http/middleware"
	"github.com/Starfish-122/CNX-sub000/internal/pkg/metrics"
)

// Server - HTTP сервер на основе Fiber
type Server struct {
	app    *fiber.App
	config *config.Config
	logger *zap.Logger

	healthHandler *handler.HealthHandler
	regionHandler *handler.RegionHandler
	placeHandler  *handler.PlaceHandler
	mapHandler    *handler.MapHandler
}

func NewServer(
	cfg *config.Config,
	logger *zap.Logger,
	healthHandler *handler.HealthHandler,
	regionHandler *handler.RegionHandler,
	placeHandler *handler.PlaceHandler,
	mapHandler *handler.MapHandler,
) *Server {
	app := fiber.New(fiber.Config{
		AppName:     "Place Map Service",
		ReadTimeout: 10 * time.Second,
		// открытие сессии ждёт готовности SDK до MAP_READY_TIMEOUT_MS
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
		ErrorHandler: customErrorHandler(logger),
	})

	s := &Server{
		app:           app,
		config:        cfg,
		logger:        logger,
		healthHandler: healthHandler,
		regionHandler: regionHandler,
		placeHandler:  placeHandler,
		mapHandler:    mapHandler,
	}

	s.setupMiddlewares()
	s.setupRoutes()

	return s
}

func (s *Server) setupMiddlewares() {
	s.app.Use(middleware.Recovery(s.logger))
	s.app.Use(middleware.Logger(s.logger))
	s.app.Use(metrics.Middleware())
	s.app.Use(middleware.CORS(s.config.Server.AllowOrigins))
	s.app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))
}

func (s *Server) setupRoutes() {
	s.app.Get("/swagger/*", fiberSwagger.WrapHandler)
	s.app.Get("/metrics", metrics.Handler())

	api := s.app.Group("/api/v1")

	api.Get("/health", s.healthHandler.Health)

	api.Get("/regions", s.regionHandler.List)

	api.Get("/places", s.placeHandler.List)
	api.Get("/places/:name", s.placeHandler.Get)

	api.Get("/sdk/status", s.mapHandler.SDKStatus)

	sessions := api.Group("/map/sessions")
	sessions.Post("/", s.mapHandler.OpenSession)
	sessions.Get("/:id", s.mapHandler.GetSession)
	sessions.Delete("/:id", s.mapHandler.CloseSession)
	sessions.Get("/:id/scene", s.mapHandler.Scene)
	sessions.Post("/:id/region", s.mapHandler.SelectRegion)
	sessions.Post("/:id/click/:overlay", s.mapHandler.Click)
}

// App - для тестов через app.Test
func (s *Server) App() *fiber.App {
	return s.app
}

func (s *Server) Start() error {
	addr := s.config.GetServerAddr()
	s.logger.Info("Starting HTTP server", zap.String("address", addr))
	return s.app.Listen(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server")
	return s.app.ShutdownWithContext(ctx)
}

// customErrorHandler - ошибки, не отданные через utils.SendError (404 маршрута, паника)
func customErrorHandler(logger *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		errCode := "INTERNAL_SERVER_ERROR"

		var fe *fiber.Error
		if stderrors.As(err, &fe) {
			code = fe.Code
			if code == fiber.StatusNotFound {
				errCode = "ROUTE_NOT_FOUND"
			}
		}

		if code >= fiber.StatusInternalServerError {
			logger.Error("HTTP Error",
				zap.String("path", c.Path()),
				zap.Int("status", code),
				zap.Error(err),
			)
		}

		return c.Status(code).JSON(fiber.Map{
			"error": fiber.Map{
				"code":    errCode,
				"message": err.Error(),
			},
		})
	}
}
