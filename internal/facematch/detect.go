package facematch

import (
	"context"
	"log"

	"github.com/kozaktomas/face-compare/internal/errcode"
)

// Default detection policy values.
const (
	DefaultMinConfidence   = 0.5
	DefaultMinSizeFraction = 0.01
)

// DefaultBackends lists detector backends in priority order, most accurate
// first. Different backends have different blind spots (lighting, pose,
// speed/accuracy trade-off), so the orchestrator walks the list until one
// finds a face.
var DefaultBackends = []string{"retinaface", "mtcnn", "opencv"}

// Orchestrator drives the ordered backend fallback over a FaceExtractor and
// applies the confidence, face-size and face-count policies.
type Orchestrator struct {
	extractor       FaceExtractor
	backends        []string
	minConfidence   float64
	minSizeFraction float64
}

// NewOrchestrator creates an orchestrator. Empty backends fall back to the
// default priority list; negative policy values fall back to defaults.
func NewOrchestrator(extractor FaceExtractor, backends []string, minConfidence, minSizeFraction float64) *Orchestrator {
	if len(backends) == 0 {
		backends = DefaultBackends
	}
	if minConfidence < 0 {
		minConfidence = DefaultMinConfidence
	}
	if minSizeFraction < 0 {
		minSizeFraction = DefaultMinSizeFraction
	}
	return &Orchestrator{
		extractor:       extractor,
		backends:        backends,
		minConfidence:   minConfidence,
		minSizeFraction: minSizeFraction,
	}
}

// Backends returns the configured backend priority list.
func (o *Orchestrator) Backends() []string {
	return o.backends
}

// fallbackState makes the retry loop's termination condition explicit:
// the orchestrator is pending on some backend index until it either
// succeeds or exhausts the list.
type fallbackState int

const (
	statePending fallbackState = iota
	stateSucceeded
	stateExhausted
)

// Detect runs the backend fallback over the normalized image bytes and
// returns the selected face embedding plus detection metadata.
// Width and height are the normalized image dimensions, used for the
// face-size filter.
func (o *Orchestrator) Detect(ctx context.Context, imageData []byte, width, height int, enforceDetection, align bool) (*Detection, error) {
	var (
		faces   []Face
		winner  string
		lastErr error
	)

	state := statePending
	for i := 0; state == statePending; i++ {
		if i >= len(o.backends) {
			state = stateExhausted
			break
		}
		backend := o.backends[i]

		result, err := o.extractor.ExtractFaces(ctx, imageData, backend, align)
		switch {
		case err == nil && len(result) > 0:
			faces, winner = result, backend
			state = stateSucceeded
		case err == nil:
			// Backend answered but reported nothing usable.
			lastErr = errcode.New(errcode.NoFaceDetected, "backend %s returned no faces", backend)
		case errcode.Is(err, errcode.NoFaceDetected):
			lastErr = err
		default:
			// A single backend's internal failure must not abort the
			// orchestration while alternatives remain.
			log.Printf("face detection backend %s failed: %v", backend, err)
			lastErr = err
		}
	}

	if state == stateExhausted {
		return nil, errcode.Wrap(errcode.NoFaceDetected, lastErr,
			"no face detected by any backend (%d tried)", len(o.backends))
	}

	selected := o.filterFaces(faces, width, height)

	if len(selected) > 1 && enforceDetection {
		return nil, errcode.New(errcode.MultipleFacesDetected,
			"multiple faces detected (%d)", len(selected)).
			WithDetail("face_count", len(selected))
	}

	best := selected[0]
	for _, f := range selected[1:] {
		if f.Confidence > best.Confidence {
			best = f
		}
	}

	return &Detection{
		Embedding:  best.Embedding,
		FaceCount:  len(faces),
		Confidence: best.Confidence,
		Box:        best.Box,
		Backend:    winner,
	}, nil
}

// filterFaces applies the confidence and face-size filters. When the filters
// would remove every face the unfiltered set is used instead - a detection
// is never rejected solely because no face clears the bar.
func (o *Orchestrator) filterFaces(faces []Face, width, height int) []Face {
	imageArea := width * height

	var kept []Face
	for _, f := range faces {
		if f.Confidence < o.minConfidence {
			continue
		}
		if o.minSizeFraction > 0 && imageArea > 0 {
			if float64(f.Box.Area())/float64(imageArea) < o.minSizeFraction {
				continue
			}
		}
		kept = append(kept, f)
	}

	if len(kept) == 0 {
		return faces
	}
	return kept
}
