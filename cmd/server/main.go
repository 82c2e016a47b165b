package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/civicgraph/backend/internal/config"
	"github.com/civicgraph/backend/internal/domain"
	"github.com/civicgraph/backend/internal/handler"
	appMiddleware "github.com/civicgraph/backend/internal/middleware"
	"github.com/civicgraph/backend/internal/repository"
	"github.com/civicgraph/backend/internal/service"
	"github.com/civicgraph/backend/internal/ws"
	"github.com/civicgraph/backend/pkg/ai"
	"github.com/civicgraph/backend/pkg/crypto"
	"github.com/civicgraph/backend/pkg/payment"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
)

func main() {
	// Load .env file if present (for local development)
	if err := godotenv.Load(); err == nil {
		log.Println("loaded .env")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	ctx := context.Background()

	db, err := repository.NewDB(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("database error: %v", err)
	}
	defer db.Close()

	if err := repository.RunMigrations(ctx, db); err != nil {
		log.Fatalf("migration error: %v", err)
	}
	log.Println("database connected & migrated")

	enc, err := crypto.NewEncryptor(cfg.EncryptionKey)
	if err != nil {
		log.Fatalf("encryption error: %v", err)
	}

	// Static tier table, built once and injected everywhere plan limits
	// are consulted.
	tiers := domain.NewTierTable()

	userRepo := repository.NewUserRepository(db)
	actionRepo := repository.NewActionRepository(db)
	apiKeyRepo := repository.NewAPIKeyRepository(db)

	authSvc := service.NewAuthService(cfg.JWTSecret, cfg.AdminEmail, cfg.AdminPassword, userRepo)
	if err := authSvc.SeedAdmin(ctx); err != nil {
		log.Fatalf("admin seed error: %v", err)
	}

	gateway := payment.NewClient(cfg.PaymentAPIKey, cfg.PaymentWebhookSecret)
	generator := ai.NewClient(cfg.OpenAIAPIKey, cfg.OpenAIModel)

	feedHub := ws.NewFeedHub(authSvc)

	entitlementSvc := service.NewEntitlementService(tiers, userRepo, actionRepo)
	billingSvc := service.NewBillingService(userRepo, gateway)
	subSvc := service.NewSubscriptionService(userRepo, tiers, gateway, cfg.AppURL)
	actionSvc := service.NewActionService(entitlementSvc, actionRepo, feedHub)
	recommendSvc := service.NewRecommendationService(entitlementSvc, actionRepo, generator)
	apiKeySvc := service.NewAPIKeyService(entitlementSvc, apiKeyRepo, enc)

	authHandler := handler.NewAuthHandler(authSvc)
	plansHandler := handler.NewPlansHandler(tiers)
	actionHandler := handler.NewActionHandler(actionSvc)
	usageHandler := handler.NewUsageHandler(entitlementSvc)
	paymentHandler := handler.NewPaymentHandler(subSvc, billingSvc)
	recommendHandler := handler.NewRecommendHandler(recommendSvc)
	apiKeyHandler := handler.NewAPIKeyHandler(apiKeySvc)
	healthHandler := handler.NewHealthHandler(db)
	adminHandler := handler.NewAdminHandler(userRepo, actionRepo, authSvc)
	userHandler := handler.NewUserHandler(authSvc)

	r := chi.NewRouter()

	// Global middleware
	r.Use(appMiddleware.Recovery)
	r.Use(appMiddleware.Logger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-API-Key"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Global rate limiter (20 req/sec per IP, burst of 40)
	globalRL := appMiddleware.NewRateLimiter(20, 40)
	r.Use(globalRL.Middleware())

	// Public routes (no auth)
	r.Get("/health", healthHandler.Check)
	r.Get("/api/plans", plansHandler.List)
	r.Get("/api/leaderboard", actionHandler.Leaderboard)
	r.Get("/api/actions/categories", actionHandler.Categories)
	// Public webhook, authenticated solely by payload signature
	r.Post("/api/payment/webhook", paymentHandler.Webhook)

	// Auth routes
	r.Group(func(r chi.Router) {
		r.Use(appMiddleware.StrictRateLimiter())
		r.Post("/api/auth/register", authHandler.Register)
		r.Post("/api/auth/login", authHandler.Login)
	})

	// Protected API routes
	r.Group(func(r chi.Router) {
		r.Use(appMiddleware.Auth(authSvc))

		r.Get("/api/auth/me", authHandler.Me)

		// Actions & usage
		r.Post("/api/actions", actionHandler.Create)
		r.Get("/api/actions", actionHandler.List)
		r.Get("/api/usage", usageHandler.Get)
		r.Get("/api/export", actionHandler.Export)

		// AI recommendations (entitlement-gated in the service)
		r.Post("/api/recommendations", recommendHandler.Create)

		// API keys
		r.Post("/api/apikeys", apiKeyHandler.Create)
		r.Get("/api/apikeys", apiKeyHandler.List)
		r.Delete("/api/apikeys/{id}", apiKeyHandler.Delete)

		// Payment routes
		r.Post("/api/payment/checkout", paymentHandler.CreateCheckout)
		r.Post("/api/payment/portal", paymentHandler.CreatePortal)
		r.Get("/api/payment/subscription", paymentHandler.GetSubscription)

		// Admin routes
		r.Group(func(r chi.Router) {
			r.Use(appMiddleware.AdminOnly)
			r.Get("/api/admin/stats", adminHandler.GetStats)
			r.Get("/api/admin/users", adminHandler.ListUsers)
			r.Post("/api/users", userHandler.Create)
			r.Get("/api/users", userHandler.List)
			r.Delete("/api/users/{id}", userHandler.Delete)
			r.Post("/api/payment/simulate", paymentHandler.Simulate) // dev upgrade bypassing the provider
		})
	})

	// Public API (API-key auth)
	r.Group(func(r chi.Router) {
		r.Use(appMiddleware.APIKeyAuth(apiKeySvc))
		r.Post("/api/v1/actions", actionHandler.Create)
		r.Get("/api/v1/actions", actionHandler.List)
	})

	// WebSocket activity feed (auth via query param)
	r.HandleFunc("/ws/feed", feedHub.Handle)

	addr := fmt.Sprintf("0.0.0.0:%d", cfg.Port)
	server := &http.Server{
		Addr:        addr,
		Handler:     r,
		ReadTimeout: 30 * time.Second,
		// WriteTimeout must be 0 for WebSocket connections (they are long-lived)
		IdleTimeout: 120 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		log.Println("shutting down...")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		server.Shutdown(ctx)
	}()

	log.Printf("CivicGraph backend listening at http://%s", addr)
	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatalf("server error: %v", err)
	}
}
