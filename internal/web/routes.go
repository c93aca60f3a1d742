package web

import (
	"github.com/go-chi/chi/v5"

	"github.com/kozaktomas/face-compare/internal/web/handlers"
)

func (s *Server) setupRoutes() {
	extractHandler := handlers.NewExtractHandler(s.fetcher, s.normalizer, s.orchestrator)
	compareHandler := handlers.NewCompareHandler(s.comparator)
	clipHandler := handlers.NewClipHandler(s.fetcher, s.normalizer, s.client, s.visual)
	hashHandler := handlers.NewHashHandler(s.fetcher, s.normalizer, s.engine)
	healthHandler := handlers.NewHealthHandler(s.warmer)
	modelInfoHandler := handlers.NewModelInfoHandler(s.config.Extractor.Model, s.comparator, s.orchestrator, s.engine)

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", healthHandler.Health)
		r.Post("/warm-up", healthHandler.Warmup)
		r.Get("/model-info", modelInfoHandler.Get)

		r.Post("/extract-embedding", extractHandler.Extract)
		r.Post("/compare-faces", compareHandler.Compare)

		r.Post("/clip/embed", clipHandler.Embed)
		r.Post("/clip/compare", clipHandler.Compare)

		r.Post("/hash/compute", hashHandler.Compute)
	})
}
