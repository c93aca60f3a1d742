// Package web exposes the comparison pipeline over HTTP.
package web

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/kozaktomas/face-compare/internal/config"
	"github.com/kozaktomas/face-compare/internal/extractor"
	"github.com/kozaktomas/face-compare/internal/facematch"
	"github.com/kozaktomas/face-compare/internal/fingerprint"
	"github.com/kozaktomas/face-compare/internal/imagesource"
	"github.com/kozaktomas/face-compare/internal/preprocess"
	"github.com/kozaktomas/face-compare/internal/web/middleware"
)

// Server wires the pipeline components behind the HTTP API.
type Server struct {
	config     *config.Config
	router     *chi.Mux
	httpServer *http.Server

	client       *extractor.Client
	warmer       *extractor.Warmer
	fetcher      *imagesource.Fetcher
	normalizer   *preprocess.Normalizer
	orchestrator *facematch.Orchestrator
	comparator   *facematch.Comparator
	visual       *facematch.VisualComparator
	engine       *fingerprint.Engine
}

// NewServer builds the full pipeline from config and mounts the routes.
func NewServer(cfg *config.Config, host string, port int) (*Server, error) {
	client, err := extractor.NewClient(cfg.Extractor.URL, cfg.Extractor.Model, cfg.Extractor.Timeout)
	if err != nil {
		return nil, fmt.Errorf("creating extractor client: %w", err)
	}

	r := chi.NewRouter()

	s := &Server{
		config:     cfg,
		router:     r,
		client:     client,
		warmer:     extractor.NewWarmer(client),
		fetcher:    imagesource.NewFetcher(cfg.Download.Timeout),
		normalizer: preprocess.NewNormalizer(cfg.Image.MinDimension, cfg.Image.MaxDimension),
		orchestrator: facematch.NewOrchestrator(
			client,
			cfg.Detection.Backends,
			cfg.Detection.MinConfidence,
			cfg.Detection.MinSizeFraction,
		),
		comparator: facematch.NewComparator(cfg.Compare.EmbeddingDim, cfg.Compare.Thresholds),
		visual:     facematch.NewVisualComparator(0),
		engine:     fingerprint.NewEngine(cfg.Hash.Size),
	}

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Timeout(2 * time.Minute))
	r.Use(middleware.CORS())

	s.setupRoutes()

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", host, port),
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	return s, nil
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	log.Printf("Starting server on %s", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	log.Println("Shutting down server...")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down server: %w", err)
	}
	return nil
}

// WarmUp loads the sidecar models before the server starts taking traffic.
func (s *Server) WarmUp(ctx context.Context) (*extractor.WarmupResult, error) {
	return s.warmer.Warmup(ctx)
}

// Router returns the chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}
