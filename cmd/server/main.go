package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/jwtauth"
	"github.com/go-chi/render"
	"github.com/google/uuid"
	"github.com/reelsight/ar-target/internal/api"
	"github.com/reelsight/ar-target/pkg/artarget"
	"github.com/reelsight/ar-target/pkg/artarget/config"
)

func main() {
	serverConfig, err := config.Load(config.WithEnv())
	if err != nil {
		slog.Error("Failed to load server configuration", "err", err)
		os.Exit(1)
	}

	ctx := context.Background()
	svc, err := serverConfig.BuildService(ctx)
	if err != nil {
		slog.Error("Failed to build service", "err", err)
		os.Exit(1)
	}

	router, err := buildRouter(svc, serverConfig)
	if err != nil {
		slog.Error("Failed to build router", "err", err)
		os.Exit(1)
	}

	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%s", serverConfig.Port),
		Handler: router,
	}

	go func() {
		slog.Info("AR target server starting",
			"port", serverConfig.Port,
			"env", serverConfig.Environment,
			"database", serverConfig.DatabaseType,
			"compiler", serverConfig.CompilerKind)

		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Server error", "err", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "err", err)
		os.Exit(1)
	}

	slog.Info("Server exiting")
}

func buildRouter(svc artarget.Service, cfg *config.ServerConfig) (http.Handler, error) {
	secret := cfg.JWTSecret
	if secret == "" {
		// Tokens do not survive a restart without a configured secret.
		secret = uuid.New().String()
		slog.Warn("JWT_SECRET not set, using an ephemeral signing key")
	}
	tokens := jwtauth.New("HS256", []byte(secret), nil)

	password := cfg.AdminPassword
	if password == "" {
		password = "admin123"
		slog.Warn("ADMIN_PASSWORD not set, using the default credential",
			"username", cfg.AdminUsername)
	}

	authHandler, err := api.NewAuthHandler(tokens, cfg.AdminUsername, password)
	if err != nil {
		return nil, err
	}
	targetHandler := api.NewTargetHandler(svc)
	arHandler := api.NewARHandler(svc)
	assetHandler := api.NewAssetHandler(svc)

	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Timeout(5 * time.Minute))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		render.PlainText(w, r, http.StatusText(http.StatusOK))
	})

	requireAdmin := []func(http.Handler) http.Handler{
		jwtauth.Verifier(tokens),
		jwtauth.Authenticator,
	}

	r.Route("/api", func(r chi.Router) {
		r.Mount("/auth", authHandler.Routes())
		r.Mount("/targets", targetHandler.Routes(requireAdmin...))
		r.Mount("/ar", arHandler.Routes())
	})
	r.Mount("/uploads", assetHandler.Routes())

	return r, nil
}
