package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dafibh/teri/teri-backend/internal/command"
	"github.com/dafibh/teri/teri-backend/internal/config"
	"github.com/dafibh/teri/teri-backend/internal/domain"
	"github.com/dafibh/teri/teri-backend/internal/handler"
	"github.com/dafibh/teri/teri-backend/internal/middleware"
	"github.com/dafibh/teri/teri-backend/internal/repository/postgres"
	"github.com/dafibh/teri/teri-backend/internal/repository/storage"
	"github.com/dafibh/teri/teri-backend/internal/service"
	"github.com/dafibh/teri/teri-backend/internal/websocket"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	// Initialize zerolog
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if os.Getenv("ENV") != "production" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Connect to database
	pool, err := pgxpool.New(context.Background(), cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer pool.Close()

	if err := pool.Ping(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("Failed to ping database")
	}
	log.Info().Msg("Connected to database")

	// Initialize repositories
	userRepo := postgres.NewUserRepository(pool)
	workspaceRepo := postgres.NewWorkspaceRepository(pool)
	dashboardRepos := service.DashboardRepositories{
		Transactions: postgres.NewTransactionRepository(pool),
		Leads:        postgres.NewLeadRepository(pool),
		Deals:        postgres.NewDealRepository(pool),
		Meetings:     postgres.NewMeetingRepository(pool),
		Projects:     postgres.NewProjectRepository(pool),
		Tasks:        postgres.NewTaskRepository(pool),
	}

	// Chat transcripts live in S3; without a bucket the chat still works but
	// nothing survives a restart
	var transcripts domain.ChatTranscriptRepository
	s3Repo, err := storage.NewS3TranscriptRepository(context.Background(), cfg.S3)
	if err != nil {
		log.Warn().Err(err).Msg("S3 transcript storage unavailable, chat history kept in memory")
		transcripts = storage.NewMemoryTranscriptRepository()
	} else {
		transcripts = s3Repo
		log.Info().Str("bucket", cfg.S3.Bucket).Msg("S3 transcript storage initialized")
	}

	// Live dashboard events
	hub := websocket.NewHub()

	// Initialize services
	logger := log.Logger
	sessions := service.NewSessionManager(dashboardRepos, logger)
	sessions.SetEventPublisher(hub)

	authService := service.NewAuthService(userRepo, workspaceRepo, sessions)
	interpreter := command.NewInterpreter(cfg.Commands.DealYear, cfg.Commands.DealLabel)
	chatService := service.NewChatService(transcripts, interpreter, sessions, logger)
	chatService.SetEventPublisher(hub)

	// Initialize auth middleware
	authMiddleware, err := middleware.NewAuthMiddleware(cfg.Auth0Domain, cfg.Auth0Audience, authService)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create auth middleware")
	}
	streamValidator, err := websocket.NewAuth0JWTValidator(cfg.Auth0Domain, cfg.Auth0Audience, authService)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create stream token validator")
	}

	chatLimiter := middleware.NewRateLimiterWithConfig(cfg.Commands.RatePerMin, cfg.Commands.RateBurst)
	defer chatLimiter.Stop()

	// Initialize handlers
	handlers := handler.Handlers{
		Auth:      handler.NewAuthHandler(authService, hub),
		Dashboard: handler.NewDashboardHandler(),
		Finance:   handler.NewFinanceHandler(),
		Sales:     handler.NewSalesHandler(),
		Product:   handler.NewProductHandler(),
		Chat:      handler.NewChatHandler(chatService),
		WebSocket: handler.NewWebSocketHandler(hub, streamValidator, cfg.CORSOrigins),
	}

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(echomiddleware.RequestID())

	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	// Security headers middleware (helmet-like)
	e.Use(echomiddleware.SecureWithConfig(echomiddleware.SecureConfig{
		XSSProtection:         "1; mode=block",
		ContentTypeNosniff:    "nosniff",
		XFrameOptions:         "DENY",
		HSTSMaxAge:            31536000,
		ContentSecurityPolicy: "default-src 'self'",
		ReferrerPolicy:        "strict-origin-when-cross-origin",
	}))

	e.Use(zerologMiddleware())
	e.Use(echomiddleware.Recover())

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]interface{}{
			"status":      "ok",
			"sessions":    sessions.Len(),
			"subscribers": hub.TotalClientCount(),
		})
	})

	handler.RegisterRoutes(e, authMiddleware.Authenticate(), middleware.RateLimitMiddleware(chatLimiter), sessions, handlers)

	// Periodic reload of open dashboards
	workerCtx, stopWorker := context.WithCancel(context.Background())
	defer stopWorker()
	refreshWorker := service.NewRefreshWorker(sessions, logger, cfg.RefreshSchedule)
	if err := refreshWorker.Start(workerCtx); err != nil {
		log.Fatal().Err(err).Msg("Failed to start refresh worker")
	}

	go func() {
		log.Info().Str("port", cfg.Port).Msg("Starting server")
		if err := e.Start(":" + cfg.Port); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	stopWorker()
	refreshWorker.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	for _, workspaceID := range hub.Workspaces() {
		hub.DisconnectWorkspace(workspaceID)
	}
	for _, state := range sessions.Sessions() {
		sessions.End(state.WorkspaceID())
	}

	log.Info().Msg("Server exited")
}

// zerologMiddleware returns a middleware that logs requests using zerolog
func zerologMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			err := next(c)
			if err != nil {
				c.Error(err)
			}

			req := c.Request()
			res := c.Response()

			log.Info().
				Str("method", req.Method).
				Str("path", req.URL.Path).
				Int("status", res.Status).
				Dur("latency", time.Since(start)).
				Str("request_id", res.Header().Get(echo.HeaderXRequestID)).
				Msg("request")

			return nil
		}
	}
}
