package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/kozaktomas/face-compare/internal/errcode"
	"github.com/kozaktomas/face-compare/internal/fingerprint"
	"github.com/kozaktomas/face-compare/internal/imagesource"
	"github.com/kozaktomas/face-compare/internal/preprocess"
)

// HashRequest represents a perceptual hash request.
type HashRequest struct {
	ImageURL    string `json:"image_url"`
	ImageBase64 string `json:"image_base64"`
}

// HashResponse carries all four perceptual hashes of an image.
type HashResponse struct {
	PHash            string `json:"phash"`
	DHash            string `json:"dhash"`
	WHash            string `json:"whash"`
	AHash            string `json:"ahash"`
	Success          bool   `json:"success"`
	ProcessingTimeMS int64  `json:"processing_time_ms"`
}

// HashHandler computes perceptual hashes over normalized images.
type HashHandler struct {
	fetcher    *imagesource.Fetcher
	normalizer *preprocess.Normalizer
	engine     *fingerprint.Engine
}

// NewHashHandler creates a hash handler.
func NewHashHandler(fetcher *imagesource.Fetcher, normalizer *preprocess.Normalizer, engine *fingerprint.Engine) *HashHandler {
	return &HashHandler{
		fetcher:    fetcher,
		normalizer: normalizer,
		engine:     engine,
	}
}

// Compute handles POST /api/v1/hash/compute.
func (h *HashHandler) Compute(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req HashRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondBadRequest(w, errcode.InvalidImage, errInvalidRequestBody)
		return
	}

	raw, err := h.fetcher.Resolve(r.Context(), req.ImageURL, req.ImageBase64)
	if err != nil {
		respondError(w, err)
		return
	}

	normalized, err := h.normalizer.Normalize(raw)
	if err != nil {
		respondError(w, err)
		return
	}

	hashes, err := h.engine.ComputeAll(normalized.Image)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, HashResponse{
		PHash:            hashes.PHash,
		DHash:            hashes.DHash,
		WHash:            hashes.WHash,
		AHash:            hashes.AHash,
		Success:          true,
		ProcessingTimeMS: time.Since(start).Milliseconds(),
	})
}
