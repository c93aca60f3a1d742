package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/kozaktomas/face-compare/internal/errcode"
	"github.com/kozaktomas/face-compare/internal/facematch"
	"github.com/kozaktomas/face-compare/internal/imagesource"
	"github.com/kozaktomas/face-compare/internal/preprocess"
)

// ImageEmbedder produces a whole-image embedding.
type ImageEmbedder interface {
	EmbedImage(ctx context.Context, imageData []byte) ([]float32, int, error)
}

// ClipEmbedRequest represents a visual embedding request.
type ClipEmbedRequest struct {
	ImageURL    string `json:"image_url"`
	ImageBase64 string `json:"image_base64"`
}

// ClipEmbedResponse represents the visual embedding result.
type ClipEmbedResponse struct {
	Embedding        []float32 `json:"embedding"`
	Dim              int       `json:"dim"`
	Success          bool      `json:"success"`
	ProcessingTimeMS int64     `json:"processing_time_ms"`
}

// ClipCompareRequest represents a whole-image similarity request.
type ClipCompareRequest struct {
	Image1URL string `json:"image1_url"`
	Image2URL string `json:"image2_url"`
}

// ClipCompareResponse represents the whole-image similarity result.
type ClipCompareResponse struct {
	Similarity       float64 `json:"similarity"`
	Success          bool    `json:"success"`
	ProcessingTimeMS int64   `json:"processing_time_ms"`
}

// ClipHandler serves whole-image embedding and similarity requests.
type ClipHandler struct {
	fetcher    *imagesource.Fetcher
	normalizer *preprocess.Normalizer
	embedder   ImageEmbedder
	comparator *facematch.VisualComparator
}

// NewClipHandler creates a visual embedding handler.
func NewClipHandler(fetcher *imagesource.Fetcher, normalizer *preprocess.Normalizer, embedder ImageEmbedder, comparator *facematch.VisualComparator) *ClipHandler {
	return &ClipHandler{
		fetcher:    fetcher,
		normalizer: normalizer,
		embedder:   embedder,
		comparator: comparator,
	}
}

// Embed handles POST /api/v1/clip/embed.
func (h *ClipHandler) Embed(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req ClipEmbedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondBadRequest(w, errcode.InvalidImage, errInvalidRequestBody)
		return
	}

	embedding, dim, err := h.embedFromSource(r.Context(), req.ImageURL, req.ImageBase64)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, ClipEmbedResponse{
		Embedding:        embedding,
		Dim:              dim,
		Success:          true,
		ProcessingTimeMS: time.Since(start).Milliseconds(),
	})
}

// Compare handles POST /api/v1/clip/compare.
func (h *ClipHandler) Compare(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req ClipCompareRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondBadRequest(w, errcode.InvalidImage, errInvalidRequestBody)
		return
	}
	if req.Image1URL == "" || req.Image2URL == "" {
		respondBadRequest(w, errcode.InvalidImage, "both image1_url and image2_url are required")
		return
	}

	embedding1, _, err := h.embedFromSource(r.Context(), req.Image1URL, "")
	if err != nil {
		respondError(w, err)
		return
	}
	embedding2, _, err := h.embedFromSource(r.Context(), req.Image2URL, "")
	if err != nil {
		respondError(w, err)
		return
	}

	result, err := h.comparator.Compare(embedding1, embedding2)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, ClipCompareResponse{
		Similarity:       result.Similarity,
		Success:          true,
		ProcessingTimeMS: time.Since(start).Milliseconds(),
	})
}

func (h *ClipHandler) embedFromSource(ctx context.Context, imageURL, imageBase64 string) ([]float32, int, error) {
	raw, err := h.fetcher.Resolve(ctx, imageURL, imageBase64)
	if err != nil {
		return nil, 0, err
	}

	normalized, err := h.normalizer.Normalize(raw)
	if err != nil {
		return nil, 0, err
	}
	jpegData, err := normalized.EncodeJPEG()
	if err != nil {
		return nil, 0, err
	}

	return h.embedder.EmbedImage(ctx, jpegData)
}
