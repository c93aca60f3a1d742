package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.Image.MinDimension != 480 {
		t.Errorf("expected MinDimension 480, got %d", cfg.Image.MinDimension)
	}
	if cfg.Image.MaxDimension != 2048 {
		t.Errorf("expected MaxDimension 2048, got %d", cfg.Image.MaxDimension)
	}
	if cfg.Detection.MinConfidence != 0.5 {
		t.Errorf("expected MinConfidence 0.5, got %f", cfg.Detection.MinConfidence)
	}
	if cfg.Compare.EmbeddingDim != 512 {
		t.Errorf("expected EmbeddingDim 512, got %d", cfg.Compare.EmbeddingDim)
	}
	if cfg.Hash.Size != 8 {
		t.Errorf("expected hash size 8, got %d", cfg.Hash.Size)
	}
	if cfg.Download.Timeout != 30*time.Second {
		t.Errorf("expected download timeout 30s, got %s", cfg.Download.Timeout)
	}
	if cfg.Extractor.URL != "http://localhost:8000" {
		t.Errorf("unexpected extractor URL %s", cfg.Extractor.URL)
	}
	if cfg.Extractor.Model != "arcface" {
		t.Errorf("unexpected extractor model %s", cfg.Extractor.Model)
	}
}

func TestLoadEmbeddedThresholds(t *testing.T) {
	cfg := Load()

	tests := []struct {
		metric string
		value  float64
	}{
		{"cosine", 0.68},
		{"euclidean", 4.15},
		{"euclidean_l2", 1.13},
	}

	for _, tc := range tests {
		t.Run(tc.metric, func(t *testing.T) {
			got, ok := cfg.Compare.Thresholds[tc.metric]
			if !ok {
				t.Fatalf("threshold for %s missing", tc.metric)
			}
			if got != tc.value {
				t.Errorf("threshold for %s = %f; want %f", tc.metric, got, tc.value)
			}
		})
	}
}

func TestLoadBackendPriority(t *testing.T) {
	cfg := Load()

	expected := []string{"retinaface", "mtcnn", "opencv"}
	if len(cfg.Detection.Backends) != len(expected) {
		t.Fatalf("expected %d backends, got %d", len(expected), len(cfg.Detection.Backends))
	}
	for i, backend := range expected {
		if cfg.Detection.Backends[i] != backend {
			t.Errorf("backend[%d] = %s; want %s", i, cfg.Detection.Backends[i], backend)
		}
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("MIN_IMAGE_DIMENSION", "240")
	t.Setenv("FACE_DETECTION_CONFIDENCE", "0.8")
	t.Setenv("FACE_DETECTION_BACKENDS", "opencv, ssd")
	t.Setenv("THRESHOLD_COSINE", "0.5")
	t.Setenv("DOWNLOAD_TIMEOUT", "5s")

	cfg := Load()

	if cfg.Image.MinDimension != 240 {
		t.Errorf("expected MinDimension 240, got %d", cfg.Image.MinDimension)
	}
	if cfg.Detection.MinConfidence != 0.8 {
		t.Errorf("expected MinConfidence 0.8, got %f", cfg.Detection.MinConfidence)
	}
	if len(cfg.Detection.Backends) != 2 || cfg.Detection.Backends[0] != "opencv" || cfg.Detection.Backends[1] != "ssd" {
		t.Errorf("unexpected backends: %v", cfg.Detection.Backends)
	}
	if cfg.Compare.Thresholds["cosine"] != 0.5 {
		t.Errorf("expected cosine threshold 0.5, got %f", cfg.Compare.Thresholds["cosine"])
	}
	if cfg.Download.Timeout != 5*time.Second {
		t.Errorf("expected download timeout 5s, got %s", cfg.Download.Timeout)
	}
}

func TestEnvOverridesInvalidValuesIgnored(t *testing.T) {
	t.Setenv("MIN_IMAGE_DIMENSION", "-10")
	t.Setenv("FACE_DETECTION_CONFIDENCE", "not-a-number")
	t.Setenv("DOWNLOAD_TIMEOUT", "eventually")

	cfg := Load()

	if cfg.Image.MinDimension != 480 {
		t.Errorf("invalid MIN_IMAGE_DIMENSION should fall back to 480, got %d", cfg.Image.MinDimension)
	}
	if cfg.Detection.MinConfidence != 0.5 {
		t.Errorf("invalid FACE_DETECTION_CONFIDENCE should fall back to 0.5, got %f", cfg.Detection.MinConfidence)
	}
	if cfg.Download.Timeout != 30*time.Second {
		t.Errorf("invalid DOWNLOAD_TIMEOUT should fall back to 30s, got %s", cfg.Download.Timeout)
	}
}
