package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"trade-journal-go/internal/config"
	"trade-journal-go/internal/journal"
	"trade-journal-go/internal/webhook"
)

// Server is the HTTP front of the journal service.
type Server struct {
	router *chi.Mux
	server *http.Server
	logger *zap.Logger
}

// New wires the webhook and journal handlers into a chi router.
func New(cfg *config.Config, logger *zap.Logger, db *gorm.DB) *Server {
	s := &Server{
		router: chi.NewRouter(),
		logger: logger,
	}

	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.loggingMiddleware)
	s.router.Use(middleware.Timeout(30 * time.Second))

	processor := webhook.NewProcessor(db, logger, cfg)
	webhookHandler := webhook.NewHandler(db, logger, processor)
	journalHandler := journal.NewHandler(db, logger)

	s.router.Route("/api", func(r chi.Router) {
		r.Route("/integrations/metatrader/webhook", func(r chi.Router) {
			r.Get("/", webhookHandler.Health)
			r.Post("/", webhookHandler.Receive)
		})
		r.Route("/trades", func(r chi.Router) {
			r.Get("/", journalHandler.ListTrades)
			r.Get("/stats", journalHandler.Stats)
		})
		r.Post("/connections", journalHandler.CreateConnection)
	})

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Router exposes the handler tree, mainly for tests.
func (s *Server) Router() http.Handler {
	return s.router
}

// Start begins serving and blocks until the listener fails or closes.
func (s *Server) Start() error {
	s.logger.Info("Starting HTTP server", zap.String("addr", s.server.Addr))
	return s.server.ListenAndServe()
}

// Shutdown drains in-flight requests and stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

// loggingMiddleware logs one line per request with status and timing.
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.logger.Info("HTTP request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())),
		)
	})
}
