// Package fingerprint computes perceptual image hashes for duplicate and
// near-duplicate detection. Four independent transforms are supported:
// pHash (DCT based), dHash (adjacent-pixel gradient), wHash (Haar wavelet)
// and aHash (mean based). All four operate on the same normalized RGB image
// and the same hash size, so outputs are directly comparable across calls.
package fingerprint

import (
	"image"
	"math"
	"sort"

	"golang.org/x/image/draw"

	"github.com/kozaktomas/face-compare/internal/errcode"
)

// DefaultHashSize yields hashSize*hashSize = 64-bit fingerprints.
const DefaultHashSize = 8

// Engine computes perceptual hashes at a fixed hash size.
type Engine struct {
	hashSize int
}

// NewEngine creates a hash engine. Non-positive sizes fall back to the default.
func NewEngine(hashSize int) *Engine {
	if hashSize <= 0 {
		hashSize = DefaultHashSize
	}
	return &Engine{hashSize: hashSize}
}

// HashSize returns the configured hash side length in bits.
func (e *Engine) HashSize() int {
	return e.hashSize
}

// HashSet contains all four fingerprints of one image as hex strings.
type HashSet struct {
	PHash string `json:"phash"` // DCT based, robust to brightness/contrast changes
	DHash string `json:"dhash"` // gradient based, cheapest, best for exact duplicates
	WHash string `json:"whash"` // wavelet based, resilient to rescaling
	AHash string `json:"ahash"` // mean based, cheapest and least discriminative
}

// ComputeAll computes all four hashes from the same image.
func (e *Engine) ComputeAll(img image.Image) (*HashSet, error) {
	if img == nil || img.Bounds().Dx() == 0 || img.Bounds().Dy() == 0 {
		return nil, errcode.New(errcode.HashError, "cannot hash empty image")
	}

	return &HashSet{
		PHash: e.phash(img),
		DHash: e.dhash(img),
		WHash: e.whash(img),
		AHash: e.ahash(img),
	}, nil
}

// PHash computes the DCT-based perceptual hash.
func (e *Engine) PHash(img image.Image) (string, error) {
	if img == nil || img.Bounds().Dx() == 0 || img.Bounds().Dy() == 0 {
		return "", errcode.New(errcode.HashError, "cannot hash empty image")
	}
	return e.phash(img), nil
}

// DHash computes the difference hash.
func (e *Engine) DHash(img image.Image) (string, error) {
	if img == nil || img.Bounds().Dx() == 0 || img.Bounds().Dy() == 0 {
		return "", errcode.New(errcode.HashError, "cannot hash empty image")
	}
	return e.dhash(img), nil
}

// WHash computes the wavelet hash.
func (e *Engine) WHash(img image.Image) (string, error) {
	if img == nil || img.Bounds().Dx() == 0 || img.Bounds().Dy() == 0 {
		return "", errcode.New(errcode.HashError, "cannot hash empty image")
	}
	return e.whash(img), nil
}

// AHash computes the average hash.
func (e *Engine) AHash(img image.Image) (string, error) {
	if img == nil || img.Bounds().Dx() == 0 || img.Bounds().Dy() == 0 {
		return "", errcode.New(errcode.HashError, "cannot hash empty image")
	}
	return e.ahash(img), nil
}

// ahash reduces the image to hashSize x hashSize grayscale and compares each
// pixel against the mean.
func (e *Engine) ahash(img image.Image) string {
	s := e.hashSize
	gray := grayscaleAt(img, s, s)

	var sum float64
	for x := range s {
		for y := range s {
			sum += gray[x][y]
		}
	}
	mean := sum / float64(s*s)

	bits := make([]bool, 0, s*s)
	for y := range s {
		for x := range s {
			bits = append(bits, gray[x][y] > mean)
		}
	}
	return bitsToHex(bits)
}

// dhash compares horizontally adjacent pixels: one bit per gradient sign.
func (e *Engine) dhash(img image.Image) string {
	s := e.hashSize
	// One extra column so each row yields s comparisons.
	gray := grayscaleAt(img, s+1, s)

	bits := make([]bool, 0, s*s)
	for y := range s {
		for x := range s {
			bits = append(bits, gray[x+1][y] > gray[x][y])
		}
	}
	return bitsToHex(bits)
}

// phash captures low-frequency image structure: resize to 4x the hash size,
// run a 2D DCT and threshold the top-left (low frequency) coefficients
// against their median.
func (e *Engine) phash(img image.Image) string {
	s := e.hashSize
	side := s * 4
	gray := grayscaleAt(img, side, side)
	dct := computeDCT(gray)

	lowFreq := make([]float64, 0, s*s)
	for u := range s {
		for v := range s {
			lowFreq = append(lowFreq, dct[u][v])
		}
	}
	median := computeMedian(lowFreq)

	bits := make([]bool, 0, s*s)
	for u := range s {
		for v := range s {
			bits = append(bits, dct[u][v] > median)
		}
	}
	return bitsToHex(bits)
}

// whash thresholds the Haar approximation coefficients at the hash level
// against their median. The image is first scaled to a power-of-two side so
// the wavelet pyramid lands exactly on hashSize x hashSize.
func (e *Engine) whash(img image.Image) string {
	s := nextPowerOfTwo(e.hashSize)
	side := s * 8
	gray := grayscaleAt(img, side, side)

	// Haar LL pyramid: each level averages 2x2 blocks.
	for len(gray) > s {
		half := len(gray) / 2
		next := make([][]float64, half)
		for x := range half {
			next[x] = make([]float64, half)
			for y := range half {
				next[x][y] = (gray[2*x][2*y] + gray[2*x+1][2*y] + gray[2*x][2*y+1] + gray[2*x+1][2*y+1]) / 4
			}
		}
		gray = next
	}

	flat := make([]float64, 0, s*s)
	for x := range s {
		flat = append(flat, gray[x]...)
	}
	median := computeMedian(flat)

	bits := make([]bool, 0, s*s)
	for y := range s {
		for x := range s {
			bits = append(bits, gray[x][y] > median)
		}
	}
	return bitsToHex(bits)
}

// grayscaleAt resizes the image and converts it to a 2D array of grayscale
// values (0-255), indexed [x][y].
func grayscaleAt(img image.Image, width, height int) [][]float64 {
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.BiLinear.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Over, nil)

	gray := make([][]float64, width)
	for x := range width {
		gray[x] = make([]float64, height)
		for y := range height {
			r, g, b, _ := dst.At(x, y).RGBA()
			// ITU-R BT.601 luma formula.
			gray[x][y] = 0.299*float64(r>>8) + 0.587*float64(g>>8) + 0.114*float64(b>>8)
		}
	}
	return gray
}

// computeDCT computes the Discrete Cosine Transform of a square grayscale image.
func computeDCT(gray [][]float64) [][]float64 {
	size := len(gray)
	dct := make([][]float64, size)
	for i := range dct {
		dct[i] = make([]float64, size)
	}

	// Precompute cosine values for efficiency.
	cosTable := make([][]float64, size)
	for i := range cosTable {
		cosTable[i] = make([]float64, size)
		for j := range size {
			cosTable[i][j] = math.Cos(math.Pi * float64(i) * (2*float64(j) + 1) / (2 * float64(size)))
		}
	}

	// DCT-II formula.
	for u := range size {
		for v := range size {
			var sum float64
			for x := range size {
				for y := range size {
					sum += gray[x][y] * cosTable[u][x] * cosTable[v][y]
				}
			}
			dct[u][v] = sum
		}
	}

	return dct
}

// computeMedian returns the median value from a slice.
func computeMedian(values []float64) float64 {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)
	n := len(sorted)
	if n%2 == 0 {
		return (sorted[n/2-1] + sorted[n/2]) / 2
	}
	return sorted[n/2]
}

func nextPowerOfTwo(n int) int {
	p := 1
	for p < n {
		p *= 2
	}
	return p
}
