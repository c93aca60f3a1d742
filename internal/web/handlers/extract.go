package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/kozaktomas/face-compare/internal/errcode"
	"github.com/kozaktomas/face-compare/internal/facematch"
	"github.com/kozaktomas/face-compare/internal/imagesource"
	"github.com/kozaktomas/face-compare/internal/preprocess"
)

// ExtractRequest represents a face embedding extraction request.
type ExtractRequest struct {
	Image            string `json:"image"`
	ImageType        string `json:"image_type"` // "url" or "base64"
	EnforceDetection *bool  `json:"enforce_detection"`
	Align            *bool  `json:"align"`
}

// FacialArea is the selected face's bounding box in normalized image coordinates.
type FacialArea struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

// ExtractResponse represents the extraction result.
type ExtractResponse struct {
	Embedding        []float32  `json:"embedding"`
	FaceCount        int        `json:"face_count"`
	FaceConfidence   float64    `json:"face_confidence"`
	FacialArea       FacialArea `json:"facial_area"`
	Backend          string     `json:"backend"`
	ProcessingTimeMS int64      `json:"processing_time_ms"`
}

// ExtractHandler runs the full extraction pipeline: fetch, normalize,
// detect, embed.
type ExtractHandler struct {
	fetcher      *imagesource.Fetcher
	normalizer   *preprocess.Normalizer
	orchestrator *facematch.Orchestrator
}

// NewExtractHandler creates an extraction handler.
func NewExtractHandler(fetcher *imagesource.Fetcher, normalizer *preprocess.Normalizer, orchestrator *facematch.Orchestrator) *ExtractHandler {
	return &ExtractHandler{
		fetcher:      fetcher,
		normalizer:   normalizer,
		orchestrator: orchestrator,
	}
}

// Extract handles POST /api/v1/extract-embedding.
func (h *ExtractHandler) Extract(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req ExtractRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondBadRequest(w, errcode.InvalidImage, errInvalidRequestBody)
		return
	}
	if req.Image == "" {
		respondBadRequest(w, errcode.InvalidImage, "missing image")
		return
	}

	// Both flags default to true.
	enforce := req.EnforceDetection == nil || *req.EnforceDetection
	align := req.Align == nil || *req.Align

	var (
		raw []byte
		err error
	)
	switch req.ImageType {
	case "url":
		raw, err = h.fetcher.Download(r.Context(), req.Image)
	case "base64", "":
		raw, err = imagesource.DecodeBase64(req.Image)
	default:
		respondBadRequest(w, errcode.InvalidImage, "image_type must be url or base64")
		return
	}
	if err != nil {
		respondError(w, err)
		return
	}

	normalized, err := h.normalizer.Normalize(raw)
	if err != nil {
		respondError(w, err)
		return
	}

	jpegData, err := normalized.EncodeJPEG()
	if err != nil {
		respondError(w, err)
		return
	}

	detection, err := h.orchestrator.Detect(r.Context(), jpegData, normalized.Width, normalized.Height, enforce, align)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, ExtractResponse{
		Embedding:      detection.Embedding,
		FaceCount:      detection.FaceCount,
		FaceConfidence: detection.Confidence,
		FacialArea: FacialArea{
			X: detection.Box.X,
			Y: detection.Box.Y,
			W: detection.Box.W,
			H: detection.Box.H,
		},
		Backend:          detection.Backend,
		ProcessingTimeMS: time.Since(start).Milliseconds(),
	})
}
