package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"connectrpc.com/connect"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/mmynk/tripwiser/internal/auth"
	"github.com/mmynk/tripwiser/internal/chatbot"
	"github.com/mmynk/tripwiser/internal/config"
	"github.com/mmynk/tripwiser/internal/jobs"
	"github.com/mmynk/tripwiser/internal/metrics"
	"github.com/mmynk/tripwiser/internal/middleware"
	"github.com/mmynk/tripwiser/internal/service"
	"github.com/mmynk/tripwiser/internal/storage/sqlite"
	"github.com/mmynk/tripwiser/internal/weather"
	"github.com/mmynk/tripwiser/pkg/logging"
)

const (
	jobTimeout        = time.Minute
	maxRateLimiterKey = 10000
)

func main() {
	configPath := flag.String("config", "tripwiser.yaml", "path to the config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}
	logging.Setup(cfg.Logging.Level)
	if err := cfg.Validate(); err != nil {
		slog.Error("Invalid config", "error", err)
		os.Exit(1)
	}

	if err := run(cfg); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	// Initialize SQLite storage
	store, err := sqlite.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer store.Close()
	slog.Info("Storage initialized", "database", cfg.Database.Path)

	weatherClient := weather.NewClient(cfg.Weather.APIKey, cfg.Weather.BaseURL, cfg.Weather.Timeout)
	if !weatherClient.Configured() {
		slog.Warn("Weather API key not set; weather endpoints will be unavailable")
	}

	index, err := chatbot.LoadIndex(cfg.Chatbot.FAQPath)
	if err != nil {
		slog.Warn("Failed to load FAQs; starting with an empty index", "path", cfg.Chatbot.FAQPath, "error", err)
	}
	gemini := chatbot.NewGeminiClient(cfg.Chatbot.GeminiAPIKey, cfg.Chatbot.Model, cfg.Chatbot.BaseURL, cfg.Chatbot.Timeout)
	bot := chatbot.NewBot(cfg.Chatbot.FAQPath, gemini, index)
	slog.Info("Chatbot initialized", "faqs", bot.Index().Len(), "llm_configured", gemini.Configured(), "model", gemini.Model())

	jwtManager := auth.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.TokenDuration)
	askLimiter := middleware.NewRateLimiter(cfg.Chatbot.AskPerMinute, cfg.Chatbot.AskBurst, service.ChatbotAskProcedure)

	// Auth runs before logging so log lines carry the caller.
	interceptors := connect.WithInterceptors(
		middleware.MetricsInterceptor(),
		middleware.RequireAuth(jwtManager, service.ChatbotHealthProcedure),
		middleware.LoggingInterceptor(),
		askLimiter.Interceptor(),
	)

	mux := http.NewServeMux()

	// Register Connect services
	mux.Handle(service.NewUserService(store, slog.Default()).Handler(interceptors))
	mux.Handle(service.NewTripService(store).Handler(interceptors))
	mux.Handle(service.NewCollaboratorService(store, cfg.Collaboration.MaxCollaboratorsPerTrip, cfg.InviteExpiry()).Handler(interceptors))
	mux.Handle(service.NewActivityService(store).Handler(interceptors))
	mux.Handle(service.NewExpenseService(store).Handler(interceptors))
	mux.Handle(service.NewWeatherService(store, weatherClient).Handler(interceptors))
	mux.Handle(service.NewChatbotService(bot).Handler(interceptors))

	mux.Handle("/metrics", metrics.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if err := store.Ping(r.Context()); err != nil {
			http.Error(w, "database unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	scheduler := jobs.NewScheduler(jobTimeout)
	if err := scheduler.Add("invitation-sweep", cfg.Jobs.InvitationSweep,
		jobs.ExpireInvitations(store, cfg.InviteExpiry(), time.Now)); err != nil {
		return err
	}
	if err := scheduler.Add("faq-reload", cfg.Chatbot.ReloadSchedule, jobs.ReloadFAQs(bot)); err != nil {
		return err
	}
	if err := scheduler.Add("rate-limiter-cleanup", "@hourly", func(context.Context) error {
		askLimiter.Cleanup(maxRateLimiterKey)
		return nil
	}); err != nil {
		return err
	}
	scheduler.Start()
	defer scheduler.Stop()

	// Add logging and CORS middleware
	handler := loggingMiddleware(corsMiddleware(cfg.Server.AllowedOrigin, mux))

	// Wrap with h2c for HTTP/2 without TLS (required for Connect)
	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           h2c.NewHandler(handler, &http2.Server{}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Connect server starting", "address", server.Addr, "url", fmt.Sprintf("http://localhost%s", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("Shutting down", "timeout", cfg.Server.ShutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// loggingMiddleware logs all incoming requests
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		slog.Debug("Request received",
			"method", r.Method,
			"path", r.URL.Path,
			"remote_addr", r.RemoteAddr,
			"user_agent", r.UserAgent(),
		)

		next.ServeHTTP(w, r)

		slog.Debug("Request completed",
			"method", r.Method,
			"path", r.URL.Path,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

// corsMiddleware adds CORS headers for browser access from origin.
func corsMiddleware(origin string, next http.Handler) http.Handler {
	allowHeaders := strings.Join([]string{"Content-Type", "Authorization", "Connect-Protocol-Version", "Connect-Timeout-Ms"}, ", ")
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", allowHeaders)
		w.Header().Set("Access-Control-Expose-Headers", "Connect-Protocol-Version, Connect-Timeout-Ms")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
