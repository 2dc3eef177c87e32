// Package server contains the HTTP surface of the announcement board.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"herald/internal/cache"
	"herald/internal/config"
	"herald/internal/database"
	"herald/internal/messaging"
	"herald/internal/models"
	"herald/internal/observability"
	"herald/internal/repository"
	"herald/internal/service"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	promMiddleware *fiberprometheus.FiberPrometheus
	announcements  repository.AnnouncementRepository
	users          repository.UserRepository
	boardService   *service.BoardService
	publisher      *messaging.KafkaPublisher
	userListener   *messaging.UserEventsListener
	listenerCancel context.CancelFunc
}

// NewServer creates a new server instance with all dependencies
func NewServer(cfg *config.Config) (*Server, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	cache.InitRedis(cfg.RedisURL)
	redisClient := cache.GetClient()

	return NewServerWithDeps(cfg, db, redisClient)
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// Use this in tests or when a bootstrap layer establishes DB/Redis.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	announcementRepo := repository.NewAnnouncementRepository(db, repository.FetchOptions{
		MaxConcurrent:  cfg.FetchMaxConcurrent,
		Timeout:        cfg.FetchTimeout(),
		PartialResults: cfg.FetchPartialResults,
	})
	userRepo := repository.NewUserRepository(db)

	// The cache is an accelerator only; without Redis every query is a miss.
	var announcementCache cache.AnnouncementCache
	if redisClient != nil {
		announcementCache = cache.NewRedisCache(redisClient, cfg.CacheTTL())
	} else {
		announcementCache = cache.NewNoopCache()
	}

	server := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: fiberprometheus.New("herald"),
		announcements:  announcementRepo,
		users:          userRepo,
	}

	var publisher *messaging.KafkaPublisher
	if brokers := cfg.Brokers(); len(brokers) > 0 {
		publisher = messaging.NewKafkaPublisher(brokers)
		server.publisher = publisher
		server.userListener = messaging.NewUserEventsListener(brokers, userRepo)
	}

	fetchUser := func(ctx context.Context, id uuid.UUID) (*models.User, error) {
		return userRepo.FetchUser(ctx, id)
	}

	var events service.EventPublisher
	if publisher != nil {
		events = publisher
	}
	server.boardService = service.NewBoardService(announcementRepo, announcementCache, fetchUser, events)

	return server, nil
}

// StartListeners starts the background event consumers, if configured.
func (s *Server) StartListeners() {
	if s.userListener == nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.listenerCancel = cancel
	go s.userListener.Run(ctx)
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	// Panic recovery
	app.Use(recover.New())

	// Request ID, propagated into the request context for logging
	app.Use(requestid.New())
	app.Use(func(c *fiber.Ctx) error {
		if rid, ok := c.Locals("requestid").(string); ok {
			c.SetUserContext(observability.WithRequestID(c.UserContext(), rid))
		}
		return c.Next()
	})

	// Prometheus metrics
	s.promMiddleware.RegisterAt(app, "/metrics")
	app.Use(s.promMiddleware.Middleware)

	// Structured request logging
	app.Use(requestLogger())

	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: origins,
		AllowHeaders: "Origin, Content-Type, Accept",
	}))
}

// SetupRoutes registers the board endpoints.
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	v1 := app.Group("/v1")
	v1.Post("/announcements", s.handlePublish)
	v1.Post("/announcements/fetch", s.handleFetch)
	v1.Post("/announcements/:authorID/:creationTimeMillis", s.handlePlaceComment)
}

// Shutdown releases server resources.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.listenerCancel != nil {
		s.listenerCancel()
	}
	if s.userListener != nil {
		if err := s.userListener.Close(); err != nil {
			observability.Logger.WarnContext(ctx, "user listener close failed",
				slog.String("error", err.Error()))
		}
	}
	if s.publisher != nil {
		if err := s.publisher.Close(); err != nil {
			observability.Logger.WarnContext(ctx, "event publisher close failed",
				slog.String("error", err.Error()))
		}
	}
	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			observability.Logger.WarnContext(ctx, "redis close failed",
				slog.String("error", err.Error()))
		}
	}
	if s.db != nil {
		if sqlDB, err := s.db.DB(); err == nil {
			return sqlDB.Close()
		}
	}
	return nil
}

// requestLogger returns a Fiber middleware for logging requests using slog
func requestLogger() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		status := c.Response().StatusCode()
		fields := []any{
			slog.Int("status", status),
			slog.String("method", c.Method()),
			slog.String("path", c.Path()),
			slog.String("ip", c.IP()),
			slog.Duration("latency", time.Since(start)),
		}

		if err != nil {
			fields = append(fields, slog.String("error", err.Error()))
			observability.Logger.ErrorContext(c.UserContext(), "request failed", fields...)
		} else {
			observability.Logger.InfoContext(c.UserContext(), "request processed", fields...)
		}

		return err
	}
}
