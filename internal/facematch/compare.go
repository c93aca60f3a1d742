package facematch

import (
	"math"

	"github.com/kozaktomas/face-compare/internal/errcode"
)

// Metric identifies a distance formula for embedding comparison.
type Metric string

const (
	MetricCosine      Metric = "cosine"
	MetricEuclidean   Metric = "euclidean"
	MetricEuclideanL2 Metric = "euclidean_l2"
)

// Default decision thresholds per metric, tuned for ArcFace-style embeddings.
var defaultThresholds = map[Metric]float64{
	MetricCosine:      0.68,
	MetricEuclidean:   4.15,
	MetricEuclideanL2: 1.13,
}

// Result is the outcome of comparing two embeddings. It always reports the
// metric and the threshold actually applied so the decision can be audited.
type Result struct {
	IsSamePerson  bool    `json:"is_same_person"`
	Distance      float64 `json:"distance"`
	Similarity    float64 `json:"similarity"`
	Confidence    float64 `json:"confidence"`
	ThresholdUsed float64 `json:"threshold_used"`
	Metric        Metric  `json:"distance_metric"`
}

// Comparator computes distance, similarity and a same-person decision
// between two embeddings of a fixed dimensionality.
type Comparator struct {
	dim        int
	thresholds map[Metric]float64
}

// NewComparator creates a comparator for embeddings of the given
// dimensionality. Threshold overrides replace the built-in defaults per
// metric; nil keeps all defaults.
func NewComparator(dim int, thresholds map[string]float64) *Comparator {
	merged := make(map[Metric]float64, len(defaultThresholds))
	for metric, value := range defaultThresholds {
		merged[metric] = value
	}
	for metric, value := range thresholds {
		if value > 0 {
			merged[Metric(metric)] = value
		}
	}
	return &Comparator{dim: dim, thresholds: merged}
}

// Dim returns the expected embedding dimensionality.
func (c *Comparator) Dim() int {
	return c.dim
}

// DefaultThreshold returns the threshold used for a metric when the caller
// does not supply one.
func (c *Comparator) DefaultThreshold(metric Metric) (float64, bool) {
	t, ok := c.thresholds[metric]
	return t, ok
}

// Compare computes the distance between two embeddings under the given
// metric and derives the same-person decision. A nil threshold selects the
// metric's default; the threshold actually used is reported in the result.
func (c *Comparator) Compare(a, b []float32, metric Metric, threshold *float64) (*Result, error) {
	if err := c.checkDims(a, b); err != nil {
		return nil, err
	}

	var distance float64
	switch metric {
	case MetricCosine:
		distance = 1 - cosineSimilarity(a, b)
	case MetricEuclidean:
		distance = euclideanDistance(a, b)
	case MetricEuclideanL2:
		distance = euclideanDistance(unitNormalize(a), unitNormalize(b))
	default:
		return nil, errcode.New(errcode.InvalidEmbedding, "unknown distance metric: %s", metric)
	}

	used, ok := c.thresholds[metric]
	if threshold != nil {
		used = *threshold
	} else if !ok {
		return nil, errcode.New(errcode.InvalidEmbedding, "no threshold configured for metric: %s", metric)
	}
	if used <= 0 {
		return nil, errcode.New(errcode.InvalidEmbedding, "threshold must be positive, got %f", used)
	}

	var similarity float64
	if metric == MetricCosine {
		similarity = 1 - distance
	} else {
		// Exponential decay: approaches 1 as distance goes to 0 and decays
		// smoothly past the threshold.
		similarity = math.Exp(-distance / used)
	}

	// Proximity-to-boundary heuristic, not a statistical probability.
	confidence := min(1, math.Abs(distance-used)/used)

	return &Result{
		IsSamePerson:  distance < used,
		Distance:      distance,
		Similarity:    min(1, max(0, similarity)),
		Confidence:    confidence,
		ThresholdUsed: used,
		Metric:        metric,
	}, nil
}

func (c *Comparator) checkDims(a, b []float32) error {
	if len(a) != c.dim || len(b) != c.dim {
		return errcode.New(errcode.InvalidEmbedding,
			"embeddings must have %d dimensions, got %d and %d", c.dim, len(a), len(b))
	}
	return nil
}

// cosineSimilarity computes the cosine of the angle between two vectors.
// Zero vectors yield 0.
func cosineSimilarity(a, b []float32) float64 {
	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
}

// euclideanDistance computes the L2 norm of the element-wise difference.
func euclideanDistance(a, b []float32) float64 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return math.Sqrt(sum)
}

// unitNormalize scales a vector to unit L2 norm. Zero vectors pass through.
func unitNormalize(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	norm := math.Sqrt(sum)
	if norm == 0 {
		return v
	}
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(float64(x) / norm)
	}
	return out
}
