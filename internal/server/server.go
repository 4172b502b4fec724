// Package server contains HTTP and WebSocket handlers for the application's API endpoints.
package server

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	_ "creatorhub/docs" // swagger docs
	"creatorhub/internal/config"
	"creatorhub/internal/feed"
	"creatorhub/internal/middleware"
	"creatorhub/internal/models"
	"creatorhub/internal/notifications"
	"creatorhub/internal/payments"
	"creatorhub/internal/push"
	"creatorhub/internal/repository"
	"creatorhub/internal/service"
	"creatorhub/internal/storage"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const (
	// BodyLimit covers the largest accepted upload plus form overhead.
	BodyLimit = 110 << 20

	defaultOrigins = "http://localhost:5173,http://localhost:3000,http://127.0.0.1:5173"
)

// wireableHub is implemented by every realtime relay that subscribes to the
// event bus and can be gracefully shut down.
type wireableHub interface {
	Name() string
	StartWiring(ctx context.Context) error
	Shutdown(ctx context.Context) error
}

// Deps are the already-initialized dependencies a Server is built from.
// Store, Push and Payments fall back to local disk and no-op integrations.
type Deps struct {
	DB       *gorm.DB
	Redis    *redis.Client
	Store    storage.Store
	Push     push.Sender
	Payments payments.Provider
}

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	store          storage.Store
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	shutdownCtx    context.Context
	shutdownFn     context.CancelFunc
	tokens         *middleware.TokenManager

	bus               notifications.EventBus
	chatRelay         *notifications.ChatRelay
	notificationRelay *notifications.NotificationRelay
	hubs              []wireableHub

	userService         *service.UserService
	settingsService     *service.SettingsService
	feedService         *service.FeedService
	contentService      *service.ContentService
	interactionService  *service.InteractionService
	subscriptionService *service.SubscriptionService
	chatService         *service.ChatService
	notificationService *service.NotificationService
	searchService       *service.SearchService
	gigService          *service.GigService
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// Use this in tests or when a bootstrap layer establishes DB/Redis.
func NewServerWithDeps(cfg *config.Config, deps Deps) (*Server, error) {
	if deps.DB == nil {
		return nil, errors.New("database is required")
	}
	if deps.Store == nil {
		deps.Store = storage.NewLocalStore(cfg.UploadRoot)
	}
	if deps.Push == nil {
		deps.Push = push.Noop{}
	}

	// Initialize repositories
	userRepo := repository.NewUserRepository(deps.DB)
	contentRepo := repository.NewContentRepository(deps.DB)
	interactionRepo := repository.NewInteractionRepository(deps.DB)
	subscriptionRepo := repository.NewSubscriptionRepository(deps.DB)
	chatRepo := repository.NewChatRepository(deps.DB)
	notificationRepo := repository.NewNotificationRepository(deps.DB)
	deviceRepo := repository.NewDeviceRepository(deps.DB)
	gigRepo := repository.NewGigRepository(deps.DB)
	searchRepo := repository.NewSearchRepository(deps.DB)

	// Cross-instance fan-out needs Redis; a single instance works in memory.
	var bus notifications.EventBus = notifications.NewMemoryBus()
	if deps.Redis != nil {
		bus = notifications.NewRedisBus(deps.Redis)
	}

	urls := feed.NewURLBuilder(cfg.PublicBaseURL)

	s := &Server{
		config:         cfg,
		db:             deps.DB,
		redis:          deps.Redis,
		store:          deps.Store,
		promMiddleware: middleware.InitMetrics("creatorhub-api"),
		tokens:         middleware.NewTokenManager(cfg.JWTSecret),
		bus:            bus,
	}

	s.notificationService = service.NewNotificationService(notificationRepo, deviceRepo, bus, deps.Push)
	s.chatService = service.NewChatService(chatRepo, userRepo, bus, s.notificationService, urls)
	s.feedService = service.NewFeedService(contentRepo, subscriptionRepo, interactionRepo, urls)
	s.interactionService = service.NewInteractionService(interactionRepo, contentRepo, userRepo, s.notificationService, urls)
	s.contentService = service.NewContentService(contentRepo, deps.Store, s.feedService)
	s.subscriptionService = service.NewSubscriptionService(subscriptionRepo, userRepo, s.notificationService, urls)
	s.userService = service.NewUserService(userRepo, contentRepo, gigRepo, urls)
	s.settingsService = service.NewSettingsService(userRepo, deps.Store, deps.Payments, urls)
	s.gigService = service.NewGigService(gigRepo, urls)
	s.searchService = service.NewSearchService(searchRepo, userRepo, contentRepo, gigRepo, s.feedService)

	s.chatRelay = notifications.NewChatRelay(bus, s.chatService, s.chatService)
	s.notificationRelay = notifications.NewNotificationRelay(bus)
	s.hubs = []wireableHub{s.chatRelay, s.notificationRelay}

	return s, nil
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	// Panic recovery
	app.Use(recover.New())

	// Request ID for tracing
	app.Use(requestid.New())

	app.Use(middleware.TracingMiddleware())

	// Propagate request ID and trace ID into the request context
	app.Use(middleware.ContextMiddleware())

	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	// Security headers. Uploaded media is embedded cross-origin.
	app.Use(helmet.New(helmet.Config{
		CrossOriginResourcePolicy: "cross-origin",
	}))

	app.Use(middleware.StructuredLogger())

	// CORS runs before the limiter so error responses still carry CORS headers.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = defaultOrigins
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, Upgrade, Connection, Sec-WebSocket-Key, Sec-WebSocket-Version",
		AllowCredentials: origins != "*",
		MaxAge:           86400,
	}))

	// Global rate limiting (300 requests per minute per IP)
	app.Use(limiter.New(limiter.Config{
		Max:        300,
		Expiration: 1 * time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions || !s.config.IsProduction()
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(models.ErrorResponse{
				Error: "Too many requests, please try again later.",
			})
		},
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	api := app.Group("/api")

	// Health checks
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	api.Get("/", s.ReadinessCheck)

	// Metrics endpoint for Prometheus
	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}
	api.Get("/metrics/dashboard", monitor.New(monitor.Config{
		Title: "CreatorHub Backend Metrics Dashboard",
	}))

	api.Get("/swagger/*", swagger.HandlerDefault)

	if local, ok := s.store.(*storage.LocalStore); ok {
		app.Static("/uploads", filepath.Join(local.Root(), "uploads"), fiber.Static{
			MaxAge: 3600,
		})
	}

	// Auth routes
	auth := api.Group("/auth")
	auth.Post("/signup", middleware.RateLimit(s.redis, 3, 10*time.Minute, "signup"), s.Signup)
	auth.Post("/login", middleware.RateLimit(s.redis, 10, 5*time.Minute, "login"), s.Login)

	protected := api.Group("", s.AuthRequired())

	// User routes. Specific paths before /:id.
	users := protected.Group("/users")
	users.Get("/me", s.GetMyProfile)
	users.Get("/mentions", s.GetMentionSuggestions)
	users.Get("/:id/stats", s.GetUserStats)
	users.Get("/:id", s.GetUserProfile)

	settings := protected.Group("/settings")
	settings.Put("/profile", s.UpdateMyProfile)
	settings.Post("/profile-image", middleware.RateLimit(s.redis, 10, time.Hour, "profile_image"), s.UploadProfileImage)
	settings.Post("/verification", s.InitiateVerification)
	settings.Post("/verification/confirm", s.ConfirmVerification)

	// Content routes. Specific paths before /:id.
	content := protected.Group("/content")
	content.Post("/", middleware.RateLimit(s.redis, 20, time.Hour, "create_content"), s.CreateContent)
	content.Get("/community", s.GetCommunityContent)
	content.Get("/videos", s.GetFeedVideos)
	content.Get("/drafts", s.GetDrafts)
	content.Get("/stats", s.GetCreatorStats)
	content.Post("/:id/publish", s.PublishContent)
	content.Post("/:id/thumbnail", s.UploadThumbnail)
	content.Post("/:id/like", s.LikeContent)
	content.Get("/:id/comments", s.GetComments)
	content.Post("/:id/comments", middleware.RateLimit(s.redis, 10, time.Minute, "create_comment"), s.CreateComment)
	content.Get("/:id", s.GetContent)
	content.Delete("/:id", s.DeleteContent)

	comments := protected.Group("/comments")
	comments.Get("/:id/replies", s.GetReplies)
	comments.Post("/:id/like", s.LikeComment)
	comments.Delete("/:id", s.DeleteComment)

	creators := protected.Group("/creators")
	creators.Post("/:id/subscribe", s.Subscribe)
	creators.Delete("/:id/subscribe", s.Unsubscribe)
	protected.Get("/subscriptions", s.GetSubscriptions)

	conversations := protected.Group("/conversations")
	conversations.Post("/", s.CreateConversation)
	conversations.Get("/", s.GetConversations)
	conversations.Get("/:id/messages", s.GetMessages)
	conversations.Post("/:id/messages", middleware.RateLimit(s.redis, 30, time.Minute, "send_chat"), s.SendMessage)

	notifs := protected.Group("/notifications")
	notifs.Get("/", s.GetNotifications)
	notifs.Get("/count", s.GetUnreadCount)
	notifs.Post("/read-all", s.MarkAllNotificationsRead)
	notifs.Get("/settings", s.GetNotificationSettings)
	notifs.Put("/settings", s.UpdateNotificationSettings)
	notifs.Post("/devices", s.RegisterDevice)
	notifs.Delete("/devices/:token", s.UnregisterDevice)
	notifs.Post("/:id/read", s.MarkNotificationRead)
	notifs.Delete("/:id", s.DeleteNotification)

	search := protected.Group("/search")
	search.Get("/", middleware.RateLimit(s.redis, 30, time.Minute, "search"), s.Search)
	search.Get("/recent", s.GetRecentSearches)
	search.Get("/trending", s.GetTrendingSearches)
	search.Get("/suggestions", s.GetSearchSuggestions)

	gigs := protected.Group("/gigs")
	gigs.Post("/", s.CreateGig)
	gigs.Get("/", s.GetGigs)
	gigs.Get("/mine", s.GetMyGigs)
	gigs.Get("/:id", s.GetGig)
	gigs.Put("/:id", s.UpdateGig)
	gigs.Delete("/:id", s.DeleteGig)

	// Websocket endpoints, authenticated before upgrade
	ws := protected.Group("/ws", s.UpgradeRequired())
	ws.Get("/chat", s.WebSocketChatHandler())
	ws.Get("/notifications", s.WebSocketNotificationsHandler())
}

// LivenessCheck handles liveness check requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles readiness check requests. Redis is optional, so an
// unreachable Redis is reported but does not fail readiness.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	sqlDB, err := s.db.DB()
	if err != nil {
		dbStatus = "unhealthy"
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "unavailable"
	if s.redis != nil {
		redisStatus = "healthy"
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus != "healthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"version": "1.0.0",
		"status":  overallStatus,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now(),
	})
}

// AuthRequired returns the authentication middleware
func (s *Server) AuthRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString := middleware.BearerToken(c.Get("Authorization"))
		// Browsers cannot set headers on a websocket handshake.
		if tokenString == "" && strings.HasPrefix(c.Path(), "/api/ws") {
			tokenString = c.Query("token")
		}
		if tokenString == "" {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Authorization required"))
		}

		claims, err := s.tokens.Parse(tokenString)
		if err != nil {
			return models.RespondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Invalid or expired token"))
		}

		if claims.JTI != "" && s.redis != nil {
			revoked, err := s.redis.Exists(c.UserContext(), "blacklist:"+claims.JTI).Result()
			if err == nil && revoked > 0 {
				return models.RespondWithError(c, fiber.StatusUnauthorized,
					models.NewUnauthorizedError("Token has been revoked"))
			}
		}

		c.Locals("userID", claims.UserID)
		// Sync to UserContext for logging and downstream services
		ctx := context.WithValue(c.UserContext(), middleware.UserIDKey, claims.UserID)
		c.SetUserContext(ctx)

		return c.Next()
	}
}

// Start wires the relays to the event bus and serves until the app is shut down.
func (s *Server) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.shutdownCtx = ctx
	s.shutdownFn = cancel

	app := fiber.New(fiber.Config{
		AppName:   "CreatorHub API",
		BodyLimit: BodyLimit,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			var fe *fiber.Error
			if errors.As(err, &fe) {
				return c.Status(fe.Code).JSON(models.ErrorResponse{Error: fe.Message})
			}
			middleware.Logger.ErrorContext(c.UserContext(), "unhandled error", slog.String("error", err.Error()))
			return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
		},
	})
	s.app = app

	s.SetupMiddleware(app)
	s.SetupRoutes(app)

	if err := s.StartWiring(ctx); err != nil {
		return err
	}

	middleware.Logger.Info("server starting", slog.String("port", s.config.Port))
	return app.Listen(":" + s.config.Port)
}

// StartWiring subscribes every relay to the event bus.
func (s *Server) StartWiring(ctx context.Context) error {
	for _, h := range s.hubs {
		if err := h.StartWiring(ctx); err != nil {
			return err
		}
		middleware.Logger.Info("realtime relay wired", slog.String("hub", h.Name()))
	}
	return nil
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	// Stop all wiring goroutines
	if s.shutdownFn != nil {
		s.shutdownFn()
	}

	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			middleware.Logger.Error("error shutting down HTTP server", slog.String("error", err.Error()))
		}
	}

	// Close WebSocket connections gracefully
	for _, h := range s.hubs {
		if err := h.Shutdown(ctx); err != nil {
			middleware.Logger.Error("error shutting down relay", slog.String("hub", h.Name()), slog.String("error", err.Error()))
		}
	}

	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			middleware.Logger.Error("error closing sql DB", slog.String("error", cerr.Error()))
		}
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			middleware.Logger.Error("error closing redis", slog.String("error", rerr.Error()))
		}
	}

	middleware.Logger.Info("server shutdown complete")
	return nil
}
