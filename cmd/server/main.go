package main

import (
	"context"
	"log"
	"net/http"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/sudo-init-do/timebank/internal/alerts"
	"github.com/sudo-init-do/timebank/internal/auth"
	"github.com/sudo-init-do/timebank/internal/config"
	"github.com/sudo-init-do/timebank/internal/db"
	"github.com/sudo-init-do/timebank/internal/httpapi"
	"github.com/sudo-init-do/timebank/internal/messaging"
	mware "github.com/sudo-init-do/timebank/internal/middleware"
	"github.com/sudo-init-do/timebank/internal/timebank"
	"github.com/sudo-init-do/timebank/internal/timebank/postgres"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	// Initialize database connection and background email processing
	db.Init(cfg.DatabaseURL)
	alerts.Init()
	defer alerts.Close()
	if err := alerts.ConfigureMailerFromEnv(); err != nil {
		log.Printf("mailer not configured: %v", err)
	}

	engine := timebank.New(postgres.NewStore(db.Conn))
	h := httpapi.NewHandler(engine)

	e := echo.New()

	// Basic middleware
	e.Use(middleware.Recover())
	e.Use(middleware.Logger())

	// Health and root routes
	e.GET("/", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"status": "ok", "service": "timebank"})
	})
	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
	})
	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
	})
	e.GET("/ready", func(c echo.Context) error {
		if db.Conn == nil {
			return c.JSON(http.StatusServiceUnavailable, echo.Map{"status": "not_ready", "error": "db not initialized"})
		}
		if err := db.Conn.Ping(context.Background()); err != nil {
			return c.JSON(http.StatusServiceUnavailable, echo.Map{"status": "not_ready", "error": "db unreachable"})
		}
		return c.JSON(http.StatusOK, echo.Map{"status": "ready"})
	})

	// Public routes
	// Auth routes with per-IP rate limiting to protect signup/login from abuse
	authGroup := e.Group("/auth")
	authGroup.Use(middleware.RateLimiter(middleware.NewRateLimiterMemoryStore(20)))
	authGroup.POST("/signup", auth.Signup)
	authGroup.POST("/login", auth.Login)
	authGroup.POST("/password/request", auth.RequestPasswordReset)
	authGroup.POST("/password/reset", auth.ResetPassword)
	authGroup.POST("/bootstrap-admin", auth.BootstrapAdmin)

	e.GET("/timebank/skills", h.ListSkills)
	e.GET("/timebank/skills/:id/providers", h.ListProviders)
	e.GET("/timebank/members/:id", h.GetMember)

	// Protected routes
	api := e.Group("")
	api.Use(mware.JWTMiddleware)

	api.GET("/auth/me", auth.Me)

	api.POST("/timebank/register", h.Register)
	api.GET("/timebank/me", h.Profile)
	api.PATCH("/timebank/me", h.UpdateProfile)
	api.GET("/timebank/members/:id/balance", h.Balance)
	api.GET("/timebank/members/:id/ledger", h.Ledger)
	api.GET("/timebank/me/services", h.MyServices)

	api.POST("/timebank/skills/:id/providers", h.RegisterProvider)
	api.POST("/timebank/skills/:id/endorse", h.Endorse)

	api.POST("/timebank/services", h.RequestService)
	api.GET("/timebank/services/:id", h.GetService)
	api.POST("/timebank/services/:id/start", h.StartService)
	api.POST("/timebank/services/:id/complete", h.CompleteService)
	api.POST("/timebank/services/:id/verify", h.VerifyService)
	api.POST("/timebank/services/:id/cancel", h.CancelService)
	api.POST("/timebank/services/:id/dispute", h.RaiseDispute)
	api.POST("/timebank/services/:id/feedback", h.LeaveFeedback)
	api.GET("/timebank/services/:id/feedback", h.GetFeedback)

	api.GET("/timebank/disputes/:id", h.GetDispute)
	api.POST("/timebank/disputes/:id/resolve", h.ResolveDispute)

	api.GET("/timebank/services/:id/messages", messaging.ListMessages)
	api.POST("/timebank/services/:id/messages", messaging.SendMessage)
	api.POST("/timebank/services/:id/messages/read", messaging.MarkMessagesRead)
	api.GET("/timebank/services/:id/ws", messaging.ServiceWS)
	api.GET("/timebank/services/:id/messages/unread", messaging.UnreadCount)

	api.GET("/notifications", alerts.ListNotifications)
	api.POST("/notifications/:id/read", alerts.MarkNotificationRead)

	api.POST("/timebank/fund/donate", h.Donate)
	api.GET("/timebank/fund", h.FundBalance)

	// Admin routes
	admin := e.Group("/admin")
	admin.Use(mware.JWTMiddleware)
	admin.Use(mware.AdminGuard)

	admin.GET("/stats", h.Stats)
	admin.GET("/members", h.ListMembers)
	admin.POST("/members/:id/suspend", h.SuspendMember)
	admin.POST("/members/:id/activate", h.ActivateMember)
	admin.POST("/members/:id/arbiter", h.SetArbiter)
	admin.POST("/skills", h.AddSkill)
	admin.GET("/disputes", h.ListDisputes)
	admin.GET("/disputes/:id", h.GetDispute)
	admin.POST("/disputes/:id/assign", h.AssignArbiter)
	admin.POST("/fund/allocate", h.Allocate)

	// Start server
	if err := e.Start(":" + cfg.Port); err != nil {
		log.Fatalf("server error: %v", err)
	}
}
