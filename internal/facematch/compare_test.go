package facematch

import (
	"math"
	"testing"

	"github.com/kozaktomas/face-compare/internal/errcode"
)

func TestCompareIdenticalCosine(t *testing.T) {
	c := NewComparator(4, nil)
	v := []float32{0.1, 0.2, 0.3, 0.4}

	res, err := c.Compare(v, v, MetricCosine, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.IsSamePerson {
		t.Error("identical vectors should be the same person")
	}
	if res.Distance > 1e-6 {
		t.Errorf("expected ~0 distance, got %f", res.Distance)
	}
	if res.Similarity < 0.999 {
		t.Errorf("expected ~1 similarity, got %f", res.Similarity)
	}
}

func TestCompareOrthogonalCosine(t *testing.T) {
	c := NewComparator(2, nil)

	res, err := c.Compare([]float32{1, 0}, []float32{0, 1}, MetricCosine, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.IsSamePerson {
		t.Error("orthogonal vectors should not match")
	}
	if math.Abs(res.Distance-1.0) > 1e-6 {
		t.Errorf("expected distance 1.0, got %f", res.Distance)
	}
}

func TestCompareDistanceEqualsThreshold(t *testing.T) {
	c := NewComparator(2, nil)
	threshold := 1.0

	// orthogonal unit vectors: cosine distance exactly 1.0
	res, err := c.Compare([]float32{1, 0}, []float32{0, 1}, MetricCosine, &threshold)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.IsSamePerson {
		t.Error("distance equal to threshold must not count as a match")
	}
	if res.Confidence > 1e-9 {
		t.Errorf("confidence at the threshold should be 0, got %f", res.Confidence)
	}
}

func TestCompareEuclideanL2ScaleInvariant(t *testing.T) {
	c := NewComparator(3, nil)
	a := []float32{1, 2, 3}
	b := []float32{10, 20, 30} // same direction, different magnitude

	res, err := c.Compare(a, b, MetricEuclideanL2, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Distance > 1e-5 {
		t.Errorf("normalized distance should be ~0, got %f", res.Distance)
	}
	if !res.IsSamePerson {
		t.Error("scaled copies should match under euclidean_l2")
	}
}

func TestCompareEuclidean(t *testing.T) {
	c := NewComparator(2, nil)

	res, err := c.Compare([]float32{0, 0}, []float32{3, 4}, MetricEuclidean, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(res.Distance-5.0) > 1e-6 {
		t.Errorf("expected distance 5, got %f", res.Distance)
	}
	if res.IsSamePerson {
		t.Error("distance 5 exceeds the default threshold 4.15")
	}
}

func TestCompareDimensionMismatch(t *testing.T) {
	c := NewComparator(512, nil)
	a := make([]float32, 256)
	b := make([]float32, 512)

	_, err := c.Compare(a, b, MetricCosine, nil)
	if err == nil {
		t.Fatal("expected error for dimension mismatch")
	}
	if errcode.CodeOf(err) != errcode.InvalidEmbedding {
		t.Errorf("expected INVALID_EMBEDDING, got %s", errcode.CodeOf(err))
	}
}

func TestCompareUnknownMetric(t *testing.T) {
	c := NewComparator(2, nil)

	_, err := c.Compare([]float32{1, 0}, []float32{0, 1}, Metric("manhattan"), nil)
	if err == nil {
		t.Fatal("expected error for unknown metric")
	}
	if errcode.CodeOf(err) != errcode.InvalidEmbedding {
		t.Errorf("expected INVALID_EMBEDDING, got %s", errcode.CodeOf(err))
	}
}

func TestCompareInvalidThreshold(t *testing.T) {
	c := NewComparator(2, nil)
	zero := 0.0

	if _, err := c.Compare([]float32{1, 0}, []float32{0, 1}, MetricCosine, &zero); err == nil {
		t.Fatal("expected error for non-positive threshold")
	}
}

func TestCompareThresholdOverrides(t *testing.T) {
	c := NewComparator(2, map[string]float64{string(MetricCosine): 0.2})

	if got, ok := c.DefaultThreshold(MetricCosine); !ok || got != 0.2 {
		t.Errorf("expected overridden threshold 0.2, got %f", got)
	}
	if got, ok := c.DefaultThreshold(MetricEuclidean); !ok || got != 4.15 {
		t.Errorf("expected built-in euclidean threshold 4.15, got %f", got)
	}
}

func TestCompareSimilarityClamped(t *testing.T) {
	c := NewComparator(2, nil)

	// opposite vectors: cosine distance 2.0, raw similarity would be -1
	res, err := c.Compare([]float32{1, 0}, []float32{-1, 0}, MetricCosine, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Similarity != 0 {
		t.Errorf("similarity must be clamped to 0, got %f", res.Similarity)
	}
}

func TestCosineSimilarityZeroVector(t *testing.T) {
	if got := cosineSimilarity([]float32{0, 0}, []float32{1, 1}); got != 0 {
		t.Errorf("zero vector similarity should be 0, got %f", got)
	}
}
