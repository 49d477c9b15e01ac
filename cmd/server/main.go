// Vetro AI - Agent Workforce Server
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	"github.com/vetroai/vetro/internal/ai"
	"github.com/vetroai/vetro/internal/api"
	"github.com/vetroai/vetro/internal/config"
	"github.com/vetroai/vetro/internal/domain"
	"github.com/vetroai/vetro/internal/events"
	"github.com/vetroai/vetro/internal/middleware"
	"github.com/vetroai/vetro/internal/session"
	"github.com/vetroai/vetro/internal/simulator"
	"github.com/vetroai/vetro/internal/store"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	slog.Info("Starting server", "port", cfg.Port, "dev", cfg.IsDevelopment(), "store", cfg.StoreBackend)

	// Initialize dependencies.
	var repo store.Repository
	switch cfg.StoreBackend {
	case config.StoreSQLite:
		repo, err = store.NewSQLite(cfg.DBPath)
		if err != nil {
			slog.Error("Failed to initialize database", "error", err)
			os.Exit(1)
		}
	default:
		repo = store.NewMemory()
	}
	defer func() {
		if closeErr := repo.Close(); closeErr != nil {
			slog.Error("Failed to close repository", "error", closeErr)
		}
	}()

	if err := repo.Ping(context.Background()); err != nil {
		slog.Error("Store health check failed", "error", err)
		os.Exit(1)
	}
	slog.Info("Store ready")

	if cfg.SeedDemoUser {
		if err := seedDemoUser(context.Background(), repo); err != nil {
			slog.Error("Failed to seed demo user", "error", err)
			os.Exit(1)
		}
	}

	// Initialize services.
	sessions := session.NewManager(cfg.SessionTTL)
	bus := events.NewBus()
	responder := buildResponder(cfg)
	sim := simulator.New(repo, bus, simulator.Config{
		StartDelay:    cfg.Simulator.StartDelay,
		CompleteDelay: cfg.Simulator.CompleteDelay,
		ReplyDelay:    cfg.Simulator.ReplyDelay,
	})
	defer sim.Close()

	// Initialize handlers.
	apiHandler := api.NewHandler(repo, sessions, responder, sim, bus, cfg.IsDevelopment())
	wsHandler := events.NewWebSocketHandler(bus, cfg.IsDevelopment())

	// Setup router.
	r := chi.NewRouter()

	// Global middleware.
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Heartbeat("/health"))
	r.Use(middleware.CORS(corsOrigins(cfg)))
	r.Use(session.Middleware(sessions))

	apiHandler.RegisterRoutes(r)

	// WebSocket endpoint.
	r.Get("/ws/events", wsHandler.ServeHTTP)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0, // 0 = no timeout, the event stream holds connections open
		IdleTimeout:  120 * time.Second,
	}

	// Start session sweeper.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sessions.StartSweeper(ctx)
	slog.Info("Session sweeper started", "session_ttl", cfg.SessionTTL)

	// Start server.
	go func() {
		slog.Info("Server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal.
	<-ctx.Done()
	stop()

	slog.Info("Shutting down gracefully...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	slog.Info("Server stopped successfully")
}

// buildResponder picks the reply strategy. Without an API key the OpenAI
// strategy degrades to the rule engine so the demo always answers.
func buildResponder(cfg *config.Config) ai.Responder {
	if cfg.Responder.Strategy == config.ResponderOpenAI {
		if cfg.Responder.APIKey == "" {
			slog.Warn("RESPONDER=openai but OPENAI_API_KEY is empty, falling back to rules")
			return ai.NewRuleResponder()
		}
		slog.Info("Using OpenAI responder", "model", cfg.Responder.Model)
		return ai.NewOpenAIResponder(cfg.Responder.APIKey, cfg.Responder.APIBase, cfg.Responder.Model, cfg.Responder.Timeout)
	}
	return ai.NewRuleResponder()
}

// corsOrigins resolves the allowed CORS origins from configuration.
func corsOrigins(cfg *config.Config) []string {
	if cfg.FrontendURL != "" {
		return []string{cfg.FrontendURL}
	}
	return []string{"*"}
}

// seedDemoUser creates the walkthrough account on first boot. An existing
// demo user is left untouched so restarts keep its data.
func seedDemoUser(ctx context.Context, repo store.Repository) error {
	existing, err := repo.GetUserByUsername(ctx, "demo")
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}

	user, err := repo.CreateUser(ctx, domain.NewUser{
		Username: "demo",
		Password: "password123",
		Email:    "demo@vetroai.com",
		FullName: "Demo User",
	})
	if err != nil {
		return err
	}
	slog.Info("Demo user seeded", "user_id", user.ID)
	return nil
}
