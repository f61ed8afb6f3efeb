package main

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"salonbook/internal/config"
	"salonbook/internal/domain/admin"
	"salonbook/internal/domain/booking"
	"salonbook/internal/domain/catalog"
	"salonbook/internal/domain/live"
	"salonbook/internal/domain/notification"
	"salonbook/internal/domain/security"
	"salonbook/internal/domain/session"
	"salonbook/internal/middleware"
	"salonbook/internal/pkg/clock"
	jwtsvc "salonbook/internal/pkg/jwt"
	"salonbook/internal/pkg/response"
)

type app struct {
	router   *gin.Engine
	hub      *live.Hub
	notifier *notification.Async
	close    func() error
}

// newApp wires every feature onto one router. The schema must already be
// migrated.
func newApp(cfg *config.Config, db *gorm.DB, clk clock.Clock) (*app, error) {
	dispatcher, closeDispatcher, err := notification.FromConfig(cfg)
	if err != nil {
		return nil, err
	}
	notifier := notification.NewAsync(dispatcher, cfg.NotifyTimeout)

	events := security.NewLog(db, clk)
	sessions := session.NewStore(db, clk)
	services := catalog.NewRepository(db)
	bookings := booking.NewRepository(db)
	hub := live.NewHub()

	tokens := jwtsvc.New(cfg.JWTSecret, cfg.TokenExpiry)
	adminService := admin.NewService(admin.NewAdminRepository(db), tokens, events, notifier, clk, admin.LoginPolicy{
		MaxAttempts: cfg.MaxLoginAttempts,
		Cooldown:    cfg.LoginCooldown,
	})
	adminHandler := admin.NewHandler(adminService)
	adminAuth := admin.AdminJWTAuth(adminService)

	gate := booking.NewGate(sessions, bookings, services, events, notifier, hub, clk, booking.GateConfig{
		Cooldown:         cfg.BookingCooldown,
		SpamThreshold:    cfg.BookingSpamThreshold,
		TrollingBlock:    cfg.TrollingBlockDuration,
		MaxAdvanceMonths: cfg.BookingMaxAdvanceMonths,
		Location:         cfg.Location(),
	})
	bookingHandler := booking.NewHandler(gate, booking.NewService(bookings, events, hub, clk))
	catalogHandler := catalog.NewHandler(services)
	securityHandler := security.NewHandler(events)
	liveHandler := live.NewHandler(hub, func(ctx context.Context, token, clientIP, userAgent string) (int64, error) {
		id, err := adminService.Authenticate(ctx, token, security.Origin{IPAddress: clientIP, UserAgent: userAgent})
		if err != nil {
			return 0, err
		}
		return id.ID, nil
	}, cfg.AllowedOrigins)

	r := gin.New()
	if err := r.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		_ = closeDispatcher()
		return nil, fmt.Errorf("trusted proxies: %w", err)
	}
	r.Use(
		middleware.RequestID(),
		middleware.RequestLogger(),
		middleware.ErrorLogger(),
		middleware.SecurityHeaders(),
		middleware.CORS(cfg.AllowedOrigins),
	)
	r.NoRoute(func(c *gin.Context) {
		response.Error(c, http.StatusNotFound, "NOT_FOUND", "Route not found")
	})

	api := r.Group("/api", middleware.RateLimiter(middleware.RateLimit{
		Name:    "api",
		Limit:   cfg.APIRateLimit,
		Window:  cfg.APIRateLimitWindow,
		Message: "Too many requests from this IP, please try again later.",
	}, clk))
	api.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "OK", "timestamp": clk.Now().UTC()})
	})

	public := api.Group("", middleware.Session(sessions, middleware.SessionCookie{
		Name:   cfg.SessionCookieName,
		TTL:    cfg.SessionCookieTTL,
		Secure: cfg.CookieSecure,
	}))
	{
		catalogHandler.RegisterRoutes(public)
		bookingHandler.RegisterPublicRoutes(public, middleware.RateLimiter(middleware.RateLimit{
			Name:    "booking",
			Limit:   cfg.BookingRateLimit,
			Window:  cfg.BookingRateLimitWindow,
			Message: "Too many booking requests, please slow down.",
		}, clk))
	}

	protected := adminHandler.RegisterRoutes(api, adminAuth, middleware.RateLimiter(middleware.RateLimit{
		Name:           "login",
		Limit:          cfg.LoginRateLimit,
		Window:         cfg.LoginRateLimitWindow,
		Message:        "Too many login attempts. Please try again later.",
		SkipSuccessful: true,
	}, clk))
	securityHandler.RegisterAdminRoutes(protected)
	// the live feed authenticates from ?token= itself
	liveHandler.RegisterRoutes(api.Group("/admin"))
	bookingHandler.RegisterAdminRoutes(api, adminAuth)

	return &app{router: r, hub: hub, notifier: notifier, close: closeDispatcher}, nil
}

// shutdown drains background work after the HTTP server has stopped.
func (a *app) shutdown() error {
	a.hub.Close()
	a.notifier.Wait()
	return a.close()
}
