// Package facematch contains the face comparison core: distance metrics and
// decision scoring over embeddings, the ordered detector-backend fallback,
// and the cosine-only visual similarity used for whole-image embeddings.
package facematch

import "context"

// BoundingBox locates a detected face within the normalized image.
type BoundingBox struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

// Area returns the box area in pixels.
func (b BoundingBox) Area() int {
	return b.W * b.H
}

// Face is a single detection reported by an extractor backend.
type Face struct {
	Embedding  []float32
	Confidence float64
	Box        BoundingBox
}

// FaceExtractor is the external capability that runs one detection backend
// over an image and returns embeddings for every face it finds. A run that
// finds no face reports a NO_FACE_DETECTED typed error.
type FaceExtractor interface {
	ExtractFaces(ctx context.Context, imageData []byte, backend string, align bool) ([]Face, error)
}

// Detection is the orchestrator's result: the selected face plus metadata
// about how it was found.
type Detection struct {
	Embedding  []float32
	FaceCount  int     // total faces reported by the winning backend
	Confidence float64 // detection score of the selected face
	Box        BoundingBox
	Backend    string // backend that produced the result
}
