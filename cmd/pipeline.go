package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kozaktomas/face-compare/internal/config"
	"github.com/kozaktomas/face-compare/internal/extractor"
	"github.com/kozaktomas/face-compare/internal/facematch"
	"github.com/kozaktomas/face-compare/internal/fingerprint"
	"github.com/kozaktomas/face-compare/internal/preprocess"
)

// pipeline bundles the components the image commands share.
type pipeline struct {
	cfg          *config.Config
	client       *extractor.Client
	normalizer   *preprocess.Normalizer
	orchestrator *facematch.Orchestrator
	comparator   *facematch.Comparator
	engine       *fingerprint.Engine
}

// newPipeline builds the pipeline from environment config.
func newPipeline() (*pipeline, error) {
	cfg := config.Load()

	client, err := extractor.NewClient(cfg.Extractor.URL, cfg.Extractor.Model, cfg.Extractor.Timeout)
	if err != nil {
		return nil, fmt.Errorf("creating extractor client: %w", err)
	}

	return &pipeline{
		cfg:        cfg,
		client:     client,
		normalizer: preprocess.NewNormalizer(cfg.Image.MinDimension, cfg.Image.MaxDimension),
		orchestrator: facematch.NewOrchestrator(
			client,
			cfg.Detection.Backends,
			cfg.Detection.MinConfidence,
			cfg.Detection.MinSizeFraction,
		),
		comparator: facematch.NewComparator(cfg.Compare.EmbeddingDim, cfg.Compare.Thresholds),
		engine:     fingerprint.NewEngine(cfg.Hash.Size),
	}, nil
}

// loadNormalized reads a local image file and runs it through the preprocessor.
func (p *pipeline) loadNormalized(path string) (*preprocess.NormalizedImage, error) {
	data, err := os.ReadFile(path) //nolint:gosec // user-provided image path
	if err != nil {
		return nil, fmt.Errorf("could not read %s: %w", path, err)
	}
	normalized, err := p.normalizer.Normalize(data)
	if err != nil {
		return nil, fmt.Errorf("could not process %s: %w", path, err)
	}
	return normalized, nil
}

// imageExtensions lists the file types the directory commands pick up.
var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".bmp":  true,
	".webp": true,
}

// listImages collects image files directly under dir, sorted by name.
func listImages(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("could not read directory %s: %w", dir, err)
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if imageExtensions[strings.ToLower(filepath.Ext(entry.Name()))] {
			paths = append(paths, filepath.Join(dir, entry.Name()))
		}
	}
	return paths, nil
}
