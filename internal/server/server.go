package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/truthline/truthline/internal/agents"
	"github.com/truthline/truthline/internal/auth"
	"github.com/truthline/truthline/internal/config"
	"github.com/truthline/truthline/internal/core"
	"github.com/truthline/truthline/internal/storage"
)

// Server exposes the analysis pipeline and its supporting surfaces over HTTP
type Server struct {
	httpServer     *http.Server
	analysis       *core.AnalysisService
	classification *agents.ClassificationAgent
	extraction     *agents.ExtractionAgent
	auth           *auth.Service
	store          *storage.Store
	logger         *zap.Logger
	maxBodyBytes   int64
	uploadDir      string
}

// NewServer creates a new HTTP server
func NewServer(
	cfg *config.Config,
	analysis *core.AnalysisService,
	classification *agents.ClassificationAgent,
	extraction *agents.ExtractionAgent,
	authService *auth.Service,
	store *storage.Store,
	logger *zap.Logger,
) (*Server, error) {
	requestTimeout, err := cfg.GetDuration("server.request_timeout")
	if err != nil {
		requestTimeout = 60 * time.Second
	}

	s := &Server{
		analysis:       analysis,
		classification: classification,
		extraction:     extraction,
		auth:           authService,
		store:          store,
		logger:         logger,
		maxBodyBytes:   int64(cfg.GetInt("server.max_body_bytes")),
		uploadDir:      cfg.GetString("storage.upload_dir"),
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(requestTimeout))

	c := cors.New(cors.Options{
		AllowedOrigins:   cfg.GetStringSlice("server.allowed_origins"),
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	})
	r.Use(c.Handler)

	r.Get("/health", s.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", s.handleRegister)
			r.Post("/login", s.handleLogin)
			r.Post("/refresh", s.handleRefresh)
			r.Post("/forgot-password", s.handleForgotPassword)
			r.With(s.requireAuth).Post("/logout", s.handleLogout)
		})

		r.Group(func(r chi.Router) {
			r.Use(s.requireAuth)

			r.Post("/analysis", s.handleAnalysis)
			r.Post("/extract", s.handleExtract)
			r.Post("/generate-report", s.handleGenerateReport)

			r.Route("/files", func(r chi.Router) {
				r.Get("/", s.handleListFiles)
				r.Post("/", s.handleUploadFile)
			})

			r.Route("/scans", func(r chi.Router) {
				r.Get("/", s.handleListScans)
				r.Get("/{id}", s.handleGetScan)
				r.Patch("/{id}", s.handleUpdateScan)
				r.Delete("/{id}", s.handleDeleteScan)
			})

			r.Route("/spam", func(r chi.Router) {
				r.Post("/check", s.handleSpamCheck)
				r.Get("/history", s.handleSpamHistory)
			})
		})
	})

	s.httpServer = &http.Server{
		Addr:              cfg.GetString("server.listen_address"),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return s, nil
}

// Handler returns the root HTTP handler
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start begins serving requests; it returns once the listener stops
func (s *Server) Start() error {
	s.logger.Info("Starting HTTP server", zap.String("address", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop drains in-flight requests and shuts the listener down
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Stopping HTTP server")
	return s.httpServer.Shutdown(ctx)
}
