package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/kozaktomas/face-compare/internal/errcode"
	"github.com/kozaktomas/face-compare/internal/facematch"
)

// CompareRequest represents a face embedding comparison request.
type CompareRequest struct {
	Embedding1     []float32 `json:"embedding1"`
	Embedding2     []float32 `json:"embedding2"`
	DistanceMetric string    `json:"distance_metric"`
	Threshold      *float64  `json:"threshold"`
}

// CompareResponse represents the comparison verdict.
type CompareResponse struct {
	IsSamePerson     bool    `json:"is_same_person"`
	Distance         float64 `json:"distance"`
	Similarity       float64 `json:"similarity"`
	Confidence       float64 `json:"confidence"`
	ThresholdUsed    float64 `json:"threshold_used"`
	Metric           string  `json:"metric"`
	ProcessingTimeMS int64   `json:"processing_time_ms"`
}

// CompareHandler compares two face embeddings.
type CompareHandler struct {
	comparator *facematch.Comparator
}

// NewCompareHandler creates a comparison handler.
func NewCompareHandler(comparator *facematch.Comparator) *CompareHandler {
	return &CompareHandler{comparator: comparator}
}

// Compare handles POST /api/v1/compare-faces.
func (h *CompareHandler) Compare(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req CompareRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondBadRequest(w, errcode.InvalidEmbedding, errInvalidRequestBody)
		return
	}
	if len(req.Embedding1) == 0 || len(req.Embedding2) == 0 {
		respondBadRequest(w, errcode.InvalidEmbedding, "both embeddings are required")
		return
	}

	metric := facematch.Metric(req.DistanceMetric)
	if req.DistanceMetric == "" {
		metric = facematch.MetricCosine
	}

	result, err := h.comparator.Compare(req.Embedding1, req.Embedding2, metric, req.Threshold)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, CompareResponse{
		IsSamePerson:     result.IsSamePerson,
		Distance:         result.Distance,
		Similarity:       result.Similarity,
		Confidence:       result.Confidence,
		ThresholdUsed:    result.ThresholdUsed,
		Metric:           string(result.Metric),
		ProcessingTimeMS: time.Since(start).Milliseconds(),
	})
}
