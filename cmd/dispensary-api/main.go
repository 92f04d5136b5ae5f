// Package main is the entry point for the dispensary-api server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"

	"github.com/mhartig/dispensary-api/internal/config"
	"github.com/mhartig/dispensary-api/internal/database"
	"github.com/mhartig/dispensary-api/internal/http/handlers"
	"github.com/mhartig/dispensary-api/internal/http/mw"
	"github.com/mhartig/dispensary-api/internal/logging"
	"github.com/mhartig/dispensary-api/internal/repository"
	"github.com/mhartig/dispensary-api/internal/service"
	"github.com/mhartig/dispensary-api/internal/version"
	"github.com/mhartig/dispensary-api/internal/worker"
)

func main() {
	// Initialize logger with TTY detection, source paths, and format control
	logger := logging.SetDefault()

	v := version.Get()
	logger.Info("starting dispensary-api",
		"version", v.Version,
		"commit", v.Commit,
		"built", v.Date,
		"go_version", v.GoVersion,
	)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Initialize database
	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	// Bring the schema up to date. Additive only; concurrent instances can
	// run this simultaneously.
	dialect := database.DialectFor(cfg.DatabaseURL)
	if err := database.Reconcile(context.Background(), db, dialect, logger); err != nil {
		logger.Error("failed to reconcile schema", "error", err)
		os.Exit(1)
	}
	logger.Info("database schema ready", "dialect", dialect.Name())

	// Initialize repositories and services
	repos := repository.NewRepositories(db)

	services, err := service.NewServices(cfg, repos, logger)
	if err != nil {
		logger.Error("failed to initialize services", "error", err)
		os.Exit(1)
	}

	// Create the bootstrap admin on first start
	if err := services.User.EnsureAdmin(context.Background(), cfg.AdminEmail, cfg.AdminPassword); err != nil {
		logger.Error("failed to ensure admin account", "error", err)
		os.Exit(1)
	}

	// Start the newsletter delivery worker
	newsletterWorker := worker.New(repos, worker.Config{
		PollInterval: cfg.NewsletterPollInterval,
	}, logger)
	ctx, cancel := context.WithCancel(context.Background())
	newsletterWorker.Start(ctx)

	// Create router
	router := chi.NewRouter()

	// Global middleware
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(30 * time.Second))

	// CORS configuration
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"Link", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Request size limit (5MB) - leaves room for product image uploads
	router.Use(middleware.RequestSize(5 * 1024 * 1024))

	// Global rate limit by IP
	router.Use(httprate.LimitByIP(100, time.Minute))

	// Huma API with OpenAPI docs
	humaConfig := huma.DefaultConfig("Dispensary API", v.Version)
	humaConfig.Info.Description = "Storefront and back-office API for a cannabis dispensary: catalog, account approval, customer inbox, newsletter and private prescription intake."
	humaConfig.Servers = []*huma.Server{
		{URL: cfg.BaseURL, Description: "API Server"},
	}
	humaConfig.Components.SecuritySchemes = map[string]*huma.SecurityScheme{
		mw.SecurityScheme: {
			Type:        "http",
			Scheme:      "bearer",
			Description: "Session token from /api/v1/auth/login, sent as `Bearer <token>`.",
		},
	}

	api := humachi.New(router, humaConfig)
	api.UseMiddleware(mw.HumaAuth(api, services.Auth))

	// Config for hidden routes (K8s probes - no docs needed)
	hiddenConfig := huma.DefaultConfig("Dispensary API", v.Version)
	hiddenConfig.DocsPath = ""
	hiddenConfig.OpenAPIPath = ""
	hiddenConfig.SchemasPath = ""
	hiddenAPI := humachi.New(router, hiddenConfig)

	// Health check (public, shown in docs)
	huma.Get(api, "/api/v1/health", handlers.HealthCheck)

	// Kubernetes probes (hidden from docs - internal use only)
	huma.Get(hiddenAPI, "/healthz", handlers.Livez)
	huma.Get(hiddenAPI, "/readyz", handlers.NewReadyzHandler(db).Readyz)

	// Application routes
	productsHandler := handlers.NewProductsHandler(services.Product)
	productsHandler.Register(api)
	handlers.NewUsersHandler(services.User, services.Auth).Register(api)
	handlers.NewMessagesHandler(services.Message).Register(api)
	handlers.NewPrescriptionsHandler(services.Prescription).Register(api)

	// Raw image route (non-JSON response)
	router.Get("/api/v1/products/{id}/image", func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil {
			http.Error(w, "invalid product id", http.StatusBadRequest)
			return
		}
		productsHandler.GetImage(w, r, id)
	})

	// Create server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)
		<-sigChan

		logger.Info("shutting down server")

		// Stop the worker first
		cancel()
		newsletterWorker.Stop()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("server shutdown error", "error", err)
		}
	}()

	// Start server
	logger.Info("starting server", "port", cfg.Port, "base_url", cfg.BaseURL)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}
