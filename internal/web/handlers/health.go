package handlers

import (
	"net/http"

	"github.com/kozaktomas/face-compare/internal/extractor"
	"github.com/kozaktomas/face-compare/internal/facematch"
	"github.com/kozaktomas/face-compare/internal/fingerprint"
)

// HealthHandler reports service and model status.
type HealthHandler struct {
	warmer *extractor.Warmer
}

// NewHealthHandler creates a health handler.
func NewHealthHandler(warmer *extractor.Warmer) *HealthHandler {
	return &HealthHandler{warmer: warmer}
}

// Health handles GET /api/v1/health.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	faceModel, visualModel := h.warmer.Status()
	respondJSON(w, http.StatusOK, map[string]any{
		"status": "healthy",
		"models": map[string]string{
			"face":   faceModel,
			"visual": visualModel,
		},
	})
}

// Warmup handles POST /api/v1/warm-up. The endpoint is best-effort: a
// partial warm-up still returns 200 with per-model status.
func (h *HealthHandler) Warmup(w http.ResponseWriter, r *http.Request) {
	result, err := h.warmer.Warmup(r.Context())
	if err != nil && result == nil {
		respondError(w, err)
		return
	}
	if err != nil {
		respondJSON(w, http.StatusServiceUnavailable, result)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// ModelInfoHandler describes the configured models and algorithms.
type ModelInfoHandler struct {
	model        string
	comparator   *facematch.Comparator
	orchestrator *facematch.Orchestrator
	engine       *fingerprint.Engine
}

// NewModelInfoHandler creates a model info handler.
func NewModelInfoHandler(model string, comparator *facematch.Comparator, orchestrator *facematch.Orchestrator, engine *fingerprint.Engine) *ModelInfoHandler {
	return &ModelInfoHandler{
		model:        model,
		comparator:   comparator,
		orchestrator: orchestrator,
		engine:       engine,
	}
}

// Get handles GET /api/v1/model-info.
func (h *ModelInfoHandler) Get(w http.ResponseWriter, r *http.Request) {
	metrics := []facematch.Metric{
		facematch.MetricCosine,
		facematch.MetricEuclidean,
		facematch.MetricEuclideanL2,
	}
	thresholds := make(map[string]float64, len(metrics))
	for _, m := range metrics {
		if t, ok := h.comparator.DefaultThreshold(m); ok {
			thresholds[string(m)] = t
		}
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"face_model":         h.model,
		"embedding_dim":      h.comparator.Dim(),
		"distance_metrics":   metrics,
		"thresholds":         thresholds,
		"detection_backends": h.orchestrator.Backends(),
		"hash_algorithms":    []string{"phash", "dhash", "whash", "ahash"},
		"hash_size":          h.engine.HashSize(),
	})
}
