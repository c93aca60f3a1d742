package extractor

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"sync"
	"time"

	"github.com/kozaktomas/face-compare/internal/errcode"
)

// WarmupResult reports the outcome of a warm-up attempt per model.
type WarmupResult struct {
	FaceModel   string        `json:"face_model"`
	VisualModel string        `json:"visual_model"`
	Elapsed     time.Duration `json:"-"`
	ElapsedMS   int64         `json:"elapsed_ms"`
}

const (
	// StatusLoaded means a dummy inference completed and the model is resident.
	StatusLoaded = "loaded"
	// StatusUnloaded means the model has not been exercised yet or failed to load.
	StatusUnloaded = "not_loaded"
)

// Warmer tracks whether the sidecar's models have been exercised. Model
// loading on the sidecar is lazy and expensive, so the first real request
// would otherwise pay the load cost.
type Warmer struct {
	client *Client

	mu           sync.Mutex
	faceLoaded   bool
	visualLoaded bool
}

// NewWarmer creates a warm-up tracker for the given sidecar client.
func NewWarmer(client *Client) *Warmer {
	return &Warmer{client: client}
}

// Warmup runs a dummy inference through both models to force them into
// memory. A no-face answer from the face model still counts as loaded:
// the model ran, it just found nothing in the gray test image.
func (w *Warmer) Warmup(ctx context.Context) (*WarmupResult, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	start := time.Now()

	probe, err := dummyJPEG()
	if err != nil {
		return nil, errcode.Wrap(errcode.InternalError, err, "could not build warm-up image")
	}

	if !w.faceLoaded {
		_, err := w.client.ExtractFaces(ctx, probe, "opencv", false)
		if err == nil || errcode.Is(err, errcode.NoFaceDetected) {
			w.faceLoaded = true
		}
	}
	if !w.visualLoaded {
		if _, _, err := w.client.EmbedImage(ctx, probe); err == nil {
			w.visualLoaded = true
		}
	}

	elapsed := time.Since(start)
	result := &WarmupResult{
		FaceModel:   statusString(w.faceLoaded),
		VisualModel: statusString(w.visualLoaded),
		Elapsed:     elapsed,
		ElapsedMS:   elapsed.Milliseconds(),
	}

	if !w.faceLoaded && !w.visualLoaded {
		return result, errcode.New(errcode.ModelError, "warm-up failed for all models")
	}
	return result, nil
}

// Status returns the current load state without touching the sidecar.
func (w *Warmer) Status() (faceModel, visualModel string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return statusString(w.faceLoaded), statusString(w.visualLoaded)
}

func statusString(loaded bool) string {
	if loaded {
		return StatusLoaded
	}
	return StatusUnloaded
}

// dummyJPEG renders a flat gray 224x224 JPEG, the smallest input the
// sidecar models accept without resizing artifacts.
func dummyJPEG() ([]byte, error) {
	img := image.NewRGBA(image.Rect(0, 0, 224, 224))
	gray := color.RGBA{R: 128, G: 128, B: 128, A: 255}
	for y := 0; y < 224; y++ {
		for x := 0; x < 224; x++ {
			img.Set(x, y, gray)
		}
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 80}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
