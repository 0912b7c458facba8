// Package server provides the HTTP server and routing for qlens.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/qlens/qlens/internal/backends"
	"github.com/qlens/qlens/internal/config"
	"github.com/qlens/qlens/internal/database"
	"github.com/qlens/qlens/internal/events"
	quantumhandlers "github.com/qlens/qlens/internal/modules/quantum/handlers"
	"github.com/qlens/qlens/internal/modules/runs"
	runshandlers "github.com/qlens/qlens/internal/modules/runs/handlers"
)

// Config holds server configuration
type Config struct {
	Log          zerolog.Logger
	Config       *config.Config
	ArchiveDB    *database.DB
	RunsRepo     *runs.Repository
	Registry     *backends.Registry
	Bus          *events.Bus
	EventManager *events.Manager
	DevMode      bool
}

// Server represents the HTTP server
type Server struct {
	router         *chi.Mux
	server         *http.Server
	log            zerolog.Logger
	cfg            *config.Config
	systemHandlers *SystemHandlers
	streamHandler  *EventsStreamHandler
	wsHandler      *EventsWebSocketHandler
	quantumHandler *quantumhandlers.Handler
	runsHandler    *runshandlers.Handler
}

// New creates a new HTTP server
func New(cfg Config) *Server {
	s := &Server{
		router: chi.NewRouter(),
		log:    cfg.Log.With().Str("component", "server").Logger(),
		cfg:    cfg.Config,
	}

	s.systemHandlers = NewSystemHandlers(
		cfg.Log,
		cfg.Config.DataDir,
		cfg.ArchiveDB,
		cfg.RunsRepo,
		cfg.Registry,
	)
	s.streamHandler = NewEventsStreamHandler(cfg.Bus, cfg.Log)
	s.wsHandler = NewEventsWebSocketHandler(cfg.Bus, cfg.Log)
	s.quantumHandler = quantumhandlers.NewHandler(
		cfg.Registry,
		cfg.RunsRepo,
		cfg.EventManager,
		cfg.Config.MaxQubits,
		cfg.Config.MaxShots,
		cfg.Log,
	)
	s.runsHandler = runshandlers.NewHandler(cfg.RunsRepo, cfg.Log)

	s.setupMiddleware(cfg.DevMode)
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Config.Port),
		Handler:      s.router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 0, // SSE and WebSocket connections stay open
		IdleTimeout:  120 * time.Second,
	}

	return s
}

// setupMiddleware configures middleware
func (s *Server) setupMiddleware(devMode bool) {
	// Recovery from panics
	s.router.Use(middleware.Recoverer)

	// Request ID
	s.router.Use(middleware.RequestID)

	// Real IP
	s.router.Use(middleware.RealIP)

	// Logging
	s.router.Use(s.loggingMiddleware)

	// CORS
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Compress responses
	if !devMode {
		s.router.Use(middleware.Compress(5))
	}
}

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() {
	s.router.Get("/health", s.systemHandlers.HandleHealth)

	s.router.Route("/api", func(r chi.Router) {
		// Streaming endpoints carry no timeout; everything else gets one
		r.Get("/events/stream", s.streamHandler.ServeHTTP)
		r.Get("/events/ws", s.wsHandler.ServeHTTP)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(60 * time.Second))

			s.quantumHandler.RegisterRoutes(r)
			s.runsHandler.RegisterRoutes(r)

			r.Route("/system", func(r chi.Router) {
				r.Get("/status", s.systemHandlers.HandleSystemStatus)
				r.Get("/database/stats", s.systemHandlers.HandleDatabaseStats)
			})
		})
	})
}

// Router exposes the configured router, used by tests to drive the full
// HTTP surface without a listening socket.
func (s *Server) Router() http.Handler {
	return s.router
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.log.Info().Int("port", s.cfg.Port).Msg("Starting HTTP server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration_ms", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("HTTP request")
	})
}
