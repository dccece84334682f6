// Package server provides HTTP server initialization and lifecycle management
// for the Notefold API.
package server

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/notefold/notefold/internal/catalog"
	"github.com/notefold/notefold/internal/config"
	"github.com/notefold/notefold/internal/graph"
	"github.com/notefold/notefold/internal/models"
	"github.com/notefold/notefold/web/handlers"
)

// Services bundles the domain services the HTTP layer exposes.
type Services struct {
	Registry *models.Registry
	Defaults *models.DefaultsService
	Probe    *catalog.Probe
	Graph    *graph.Service
}

// Start initializes and starts the HTTP server. It returns the actual address
// being listened on (useful for testing with port 0) and the WebSocketHub for
// wiring change-event broadcasts. The server shuts down when ctx is
// cancelled.
func Start(ctx context.Context, cfg *config.Config, svcs Services) (string, *handlers.WebSocketHub, error) {
	wsHub := handlers.NewWebSocketHub(allowedOrigins(cfg))
	go wsHub.Run()

	rateLimiter := handlers.NewRateLimiter(cfg.Limits.RateLimitRPS, cfg.Limits.RateLimitBurst)

	modelHandlers := handlers.NewModelHandlers(svcs.Registry, wsHub)
	providerHandlers := handlers.NewProviderHandlers(svcs.Probe)
	defaultsHandlers := handlers.NewDefaultsHandlers(svcs.Defaults, wsHub)
	notebookHandlers := handlers.NewNotebookHandlers(svcs.Graph, wsHub)
	artifactHandlers := handlers.NewArtifactHandlers(svcs.Graph, wsHub)

	authMiddleware := func(next http.Handler) http.Handler {
		return handlers.RequireAuth(next, cfg)
	}

	root := chi.NewRouter()
	root.Route("/api", func(r chi.Router) {
		// Health endpoint needs no auth; monitors hit it before configuring
		// a token.
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"status":"healthy"}`))
		})

		r.Group(func(r chi.Router) {
			r.Use(authMiddleware)

			r.Get("/providers", providerHandlers.List)

			r.Route("/models", func(r chi.Router) {
				r.Get("/", modelHandlers.List)
				r.Post("/", modelHandlers.Create)

				// The defaults routes sit under /models and must be
				// registered before the {id} wildcards.
				r.Get("/types", modelHandlers.Types)
				r.Get("/defaults", defaultsHandlers.Get)
				r.Patch("/defaults", defaultsHandlers.Update)
				r.Delete("/defaults", defaultsHandlers.Reset)

				r.Get("/{id}", modelHandlers.Get)
				r.Patch("/{id}", modelHandlers.Rename)
				r.Delete("/{id}", modelHandlers.Delete)
			})

			r.Route("/notebooks", func(r chi.Router) {
				r.Get("/", notebookHandlers.List)
				r.Post("/", notebookHandlers.Create)
				r.Get("/{id}", notebookHandlers.Get)
				r.Put("/{id}", notebookHandlers.Update)
				r.Delete("/{id}", notebookHandlers.Delete)
				r.Get("/{id}/artifacts", notebookHandlers.Artifacts)
				r.Post("/{id}/links", notebookHandlers.Link)
				r.Delete("/{id}/links/{artifactID}", notebookHandlers.Unlink)
			})

			r.Post("/notes", artifactHandlers.CreateNote)
			r.Post("/sources", artifactHandlers.CreateSource)
			r.Route("/artifacts/{id}", func(r chi.Router) {
				r.Get("/", artifactHandlers.Get)
				r.Patch("/", artifactHandlers.Update)
				r.Delete("/", artifactHandlers.Delete)
				r.Get("/notebooks", artifactHandlers.Notebooks)
			})
		})
	})

	// WebSocket endpoint skips token auth; origin validation handles it.
	root.Handle("/ws", wsHub)

	handler := handlers.RateLimitMiddleware(root, rateLimiter)
	handler = handlers.SecurityHeaders(handler)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		wsHub.Stop()
		return "", nil, fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	actualAddr := listener.Addr().String()

	go func() {
		if err := srv.Serve(listener); err != nil && err != http.ErrServerClosed {
			log.Printf("server error: %v", err)
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("server shutdown error: %v", err)
		}
		wsHub.Stop()
	}()

	return actualAddr, wsHub, nil
}

// allowedOrigins lists the origins the WebSocket endpoint accepts. Browsers
// reach a local deployment as localhost even when the server binds a
// loopback IP.
func allowedOrigins(cfg *config.Config) []string {
	return []string{
		fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		fmt.Sprintf("localhost:%d", cfg.Server.Port),
		fmt.Sprintf("127.0.0.1:%d", cfg.Server.Port),
	}
}
