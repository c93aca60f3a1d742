package config

import (
	_ "embed"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

type Config struct {
	Extractor ExtractorConfig
	Image     ImageConfig
	Detection DetectionConfig
	Compare   CompareConfig
	Hash      HashConfig
	Download  DownloadConfig
}

type ExtractorConfig struct {
	URL     string        // base URL of the embedding server (e.g. http://localhost:8000)
	Model   string        // face recognition model identifier
	Timeout time.Duration // per-request timeout, model warm-up included
}

type ImageConfig struct {
	MinDimension int // short side is upscaled to at least this many pixels
	MaxDimension int // long side is downscaled to at most this many pixels
}

type DetectionConfig struct {
	MinConfidence   float64  // faces below this detection score are filtered out
	MinSizeFraction float64  // faces covering less than this fraction of the image area are filtered out
	Backends        []string // detector backends in priority order, most accurate first
}

type CompareConfig struct {
	EmbeddingDim int                // expected embedding dimensionality
	Thresholds   map[string]float64 // per-metric default decision thresholds
}

type HashConfig struct {
	Size int // hash side length in bits; the fingerprint is Size*Size bits
}

type DownloadConfig struct {
	Timeout time.Duration // remote image fetch timeout
}

// defaultsFile mirrors the structure of the embedded defaults.yaml.
type defaultsFile struct {
	Thresholds map[string]float64 `yaml:"thresholds"`
	Backends   []string           `yaml:"backends"`
}

// envString reads an environment variable with a fallback default.
func envString(key, defaultVal string) string {
	if s := os.Getenv(key); s != "" {
		return s
	}
	return defaultVal
}

// envInt reads an environment variable and parses it as a positive integer.
// Returns the default value if the env var is unset, empty, or invalid.
func envInt(key string, defaultVal int) int {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	return defaultVal
}

// envFloat reads an environment variable and parses it as a non-negative float.
func envFloat(key string, defaultVal float64) float64 {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f >= 0 {
		return f
	}
	return defaultVal
}

// envDuration reads an environment variable and parses it as a duration.
func envDuration(key string, defaultVal time.Duration) time.Duration {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	if d, err := time.ParseDuration(s); err == nil && d > 0 {
		return d
	}
	return defaultVal
}

// envList reads a comma-separated environment variable.
func envList(key string, defaultVal []string) []string {
	s := os.Getenv(key)
	if s == "" {
		return defaultVal
	}
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return defaultVal
	}
	return out
}

func Load() *Config {
	var defaults defaultsFile
	if err := yaml.Unmarshal(defaultsYAML, &defaults); err != nil {
		// This is an embedded file so this error should never happen in practice.
		panic("failed to unmarshal embedded defaults.yaml: " + err.Error())
	}

	thresholds := make(map[string]float64, len(defaults.Thresholds))
	for metric, value := range defaults.Thresholds {
		envKey := "THRESHOLD_" + strings.ToUpper(metric)
		thresholds[metric] = envFloat(envKey, value)
	}

	return &Config{
		Extractor: ExtractorConfig{
			URL:     envString("EXTRACTOR_URL", "http://localhost:8000"),
			Model:   envString("EXTRACTOR_MODEL", "arcface"),
			Timeout: envDuration("EXTRACTOR_TIMEOUT", 60*time.Second),
		},
		Image: ImageConfig{
			MinDimension: envInt("MIN_IMAGE_DIMENSION", 480),
			MaxDimension: envInt("MAX_IMAGE_DIMENSION", 2048),
		},
		Detection: DetectionConfig{
			MinConfidence:   envFloat("FACE_DETECTION_CONFIDENCE", 0.5),
			MinSizeFraction: envFloat("FACE_MIN_SIZE_FRACTION", 0.01),
			Backends:        envList("FACE_DETECTION_BACKENDS", defaults.Backends),
		},
		Compare: CompareConfig{
			EmbeddingDim: envInt("EMBEDDING_DIM", 512),
			Thresholds:   thresholds,
		},
		Hash: HashConfig{
			Size: envInt("HASH_SIZE", 8),
		},
		Download: DownloadConfig{
			Timeout: envDuration("DOWNLOAD_TIMEOUT", 30*time.Second),
		},
	}
}
