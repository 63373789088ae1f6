// Package server contains the HTTP handlers for the marina API.
package server

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"marina/auth"
	"marina/config"
	"marina/database"
	_ "marina/docs" // swagger docs
	"marina/middleware"
	"marina/models"
	"marina/repository"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// TokenVerifier validates a bearer token and returns its claims.
type TokenVerifier interface {
	VerifyToken(ctx context.Context, tokenString string) (*auth.Claims, error)
}

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	verifier       TokenVerifier
	authenticator  *auth.Authenticator
	promMiddleware *fiberprometheus.FiberPrometheus
	userRepo       repository.UserRepository
	boatRepo       repository.BoatRepository
	loadRepo       repository.LoadRepository
}

// NewServer creates a new server instance with all dependencies
func NewServer(cfg *config.Config) (*Server, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	return &Server{
		config:         cfg,
		db:             db,
		redis:          newRedisClient(cfg.RedisURL),
		verifier:       auth.NewVerifier(cfg.Auth0Domain, cfg.Auth0ClientID),
		authenticator:  auth.NewAuthenticator(cfg.Auth0Domain, cfg.Auth0ClientID, cfg.Auth0ClientSecret, cfg.Auth0CallbackURL),
		promMiddleware: middleware.InitMetrics("marina-api"),
		userRepo:       repository.NewUserRepository(db),
		boatRepo:       repository.NewBoatRepository(db),
		loadRepo:       repository.NewLoadRepository(db),
	}, nil
}

// newRedisClient connects to Redis, returning nil when it is unreachable so
// the rate limiter can fail open.
func newRedisClient(addr string) *redis.Client {
	client := redis.NewClient(&redis.Options{Addr: addr})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		log.Printf("Redis connection warning: %v (continuing without rate limiting)", err)
		return nil
	}
	return client
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	// Request ID for tracing
	app.Use(requestid.New())

	// OpenTelemetry spans per request
	app.Use(middleware.TracingMiddleware())

	// Prometheus HTTP metrics
	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	// Security headers
	app.Use(helmet.New())

	// Structured Logging middleware
	app.Use(middleware.StructuredLogger())

	app.Use(cors.New(cors.Config{
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		MaxAge:       86400, // 24 hours
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	app.Get("/health", s.HealthCheck)

	// Metrics endpoint for Prometheus
	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	// Swagger documentation
	app.Get("/swagger/*", swagger.HandlerDefault)

	// Auth0 login flow
	app.Get("/login", middleware.RateLimit(s.redis, 10, 5*time.Minute, "login"), s.Login)
	app.Get("/callback", s.Callback)

	// Users
	app.Get("/users", s.GetAllUsers)

	// Boats: every route requires a valid bearer token
	boats := app.Group("/boats", s.AuthRequired())
	boats.Post("/", middleware.RateLimit(s.redis, 30, time.Minute, "create_boat"), s.CreateBoat)
	boats.Get("/", s.GetBoats)
	methodNotAllowed := s.MethodNotAllowed(fiber.MethodPost)
	boats.Put("/", methodNotAllowed)
	boats.Patch("/", methodNotAllowed)
	boats.Delete("/", methodNotAllowed)
	// Specific /:id/:resource routes BEFORE generic /:id routes
	boats.Put("/:id/loads/:lid", s.AttachLoad)
	boats.Delete("/:id/loads/:lid", s.DetachLoad)
	boats.Get("/:id", s.GetBoat)
	boats.Put("/:id", s.UpdateBoat)
	boats.Patch("/:id", s.PatchBoat)
	boats.Delete("/:id", s.DeleteBoat)

	// Loads: no authentication on any route
	loads := app.Group("/loads")
	loads.Post("/", middleware.RateLimit(s.redis, 30, time.Minute, "create_load"), s.CreateLoad)
	loads.Get("/", s.GetLoads)
	loads.Put("/", methodNotAllowed)
	loads.Patch("/", methodNotAllowed)
	loads.Delete("/", methodNotAllowed)
	loads.Get("/:id", s.GetLoad)
	loads.Put("/:id", s.UpdateLoad)
	loads.Patch("/:id", s.PatchLoad)
	loads.Delete("/:id", s.DeleteLoad)
}

// MethodNotAllowed rejects unsupported methods on a collection URL.
func (s *Server) MethodNotAllowed(allowed string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Set(fiber.HeaderAllow, allowed)
		return models.RespondWithError(c, fiber.StatusMethodNotAllowed,
			models.NewMethodNotAllowedError())
	}
}

// AuthRequired returns the authentication middleware. Any failure, from a
// missing header to a bad signature, produces the same 401 response.
func (s *Server) AuthRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get(fiber.HeaderAuthorization)
		tokenString := ""
		if authHeader != "" {
			parts := strings.Split(authHeader, " ")
			if len(parts) == 2 && parts[0] == "Bearer" {
				tokenString = parts[1]
			}
		}

		if tokenString == "" {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("JWT is invalid"))
		}

		claims, err := s.verifier.VerifyToken(c.Context(), tokenString)
		if err != nil {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("JWT is invalid"))
		}

		// Store the stable subject identifier in context
		c.Locals("subject", claims.Subject)

		return c.Next()
	}
}

// HealthCheck handles health check requests
func (s *Server) HealthCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	sqlDB, err := s.db.DB()
	if err != nil {
		dbStatus = "unhealthy"
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "healthy"
	if s.redis != nil {
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	} else {
		redisStatus = "unavailable"
	}

	status := fiber.StatusOK
	if dbStatus == "unhealthy" {
		status = fiber.StatusServiceUnavailable
	}

	return c.Status(status).JSON(fiber.Map{
		"message": "Marina API",
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now(),
	})
}

// App builds the configured Fiber application.
func (s *Server) App() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName: "Marina API",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			log.Printf("Error: %v", err)
			return models.RespondWithError(c, fiber.StatusInternalServerError,
				models.NewInternalError(err))
		},
	})

	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	return app
}

// Start starts the server
func (s *Server) Start() error {
	app := s.App()
	log.Printf("Server starting on port %s...", s.config.Port)
	return app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			log.Printf("error closing sql DB: %v", cerr)
		}
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			log.Printf("error closing redis: %v", rerr)
		}
	}

	log.Println("Server shutdown complete")
	return nil
}
