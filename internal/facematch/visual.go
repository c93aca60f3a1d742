package facematch

import (
	"math"

	"github.com/kozaktomas/face-compare/internal/errcode"
)

// VisualResult describes the outcome of a whole-image embedding comparison.
type VisualResult struct {
	Similarity float64 `json:"similarity"`
	Dim        int     `json:"dim"`
}

// VisualComparator compares whole-image embeddings. Unlike face embeddings
// there is no same/different verdict, only a cosine similarity score.
type VisualComparator struct {
	dim int
}

// NewVisualComparator creates a comparator for embeddings of the given
// dimension. A non-positive dim disables the dimension check, which is
// useful when the embedding model is not known up front.
func NewVisualComparator(dim int) *VisualComparator {
	return &VisualComparator{dim: dim}
}

// Compare returns the cosine similarity of two visual embeddings clamped
// to [0, 1]. Both embeddings must be non-empty and of equal length.
func (c *VisualComparator) Compare(a, b []float32) (*VisualResult, error) {
	if len(a) == 0 || len(b) == 0 {
		return nil, errcode.New(errcode.InvalidEmbedding, "empty embedding")
	}
	if len(a) != len(b) {
		return nil, errcode.New(errcode.InvalidEmbedding,
			"embedding dimension mismatch: %d vs %d", len(a), len(b))
	}
	if c.dim > 0 && len(a) != c.dim {
		return nil, errcode.New(errcode.InvalidEmbedding,
			"expected %d-dimensional embedding, got %d", c.dim, len(a))
	}

	sim := cosineSimilarity(a, b)
	sim = math.Max(0, math.Min(1, sim))

	return &VisualResult{Similarity: sim, Dim: len(a)}, nil
}
