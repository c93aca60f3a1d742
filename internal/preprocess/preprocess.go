// Package preprocess normalizes raw image bytes before hashing or embedding
// extraction: decode, EXIF orientation correction, RGB coercion and dimension
// clamping. Every stage produces a new value; nothing downstream ever sees
// a partially transformed image.
package preprocess

import (
	"bytes"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"math"

	"github.com/disintegration/imaging"
	"github.com/rwcarlsen/goexif/exif"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"

	"github.com/kozaktomas/face-compare/internal/errcode"
)

// Default dimension bounds. The short side is never left below the minimum;
// the long side is capped at the maximum unless that would break the minimum.
const (
	DefaultMinDimension = 480
	DefaultMaxDimension = 2048
)

// Normalizer turns raw image bytes into a NormalizedImage.
type Normalizer struct {
	minDim int
	maxDim int
}

// NewNormalizer creates a normalizer with the given dimension bounds.
// Non-positive bounds fall back to the defaults.
func NewNormalizer(minDim, maxDim int) *Normalizer {
	if minDim <= 0 {
		minDim = DefaultMinDimension
	}
	if maxDim <= 0 {
		maxDim = DefaultMaxDimension
	}
	return &Normalizer{minDim: minDim, maxDim: maxDim}
}

// NormalizedImage is a decoded, orientation-corrected, RGB-coerced and
// dimension-clamped raster. Immutable once returned.
type NormalizedImage struct {
	Image       *image.NRGBA
	Width       int
	Height      int
	Orientation int // EXIF orientation that was applied (1 when none was found)
}

// Normalize decodes and normalizes raw image bytes.
// Decode failures surface as INVALID_IMAGE; EXIF and resize problems are
// best-effort and never fail the call.
func (n *Normalizer) Normalize(data []byte) (*NormalizedImage, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, errcode.Wrap(errcode.InvalidImage, err, "invalid or corrupted image")
	}

	bounds := img.Bounds()
	if bounds.Dx() == 0 || bounds.Dy() == 0 {
		return nil, errcode.New(errcode.InvalidImage, "image has zero dimensions")
	}

	orientation := readOrientation(data)
	// imaging transforms return *image.NRGBA, which doubles as the 3-channel coercion.
	rgb := applyOrientation(img, orientation)
	clamped := n.clampBounds(rgb)

	return &NormalizedImage{
		Image:       clamped,
		Width:       clamped.Bounds().Dx(),
		Height:      clamped.Bounds().Dy(),
		Orientation: orientation,
	}, nil
}

// EncodeJPEG renders the normalized raster as JPEG bytes suitable for the
// embedding server upload.
func (ni *NormalizedImage) EncodeJPEG() ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, ni.Image, &jpeg.Options{Quality: 95}); err != nil {
		return nil, errcode.Wrap(errcode.InternalError, err, "failed to encode normalized image")
	}
	return buf.Bytes(), nil
}

// readOrientation extracts the EXIF orientation tag (1-8) from raw bytes.
// Any read failure means "no correction needed" - EXIF handling is
// best-effort and never fatal.
func readOrientation(data []byte) int {
	meta, err := exif.Decode(bytes.NewReader(data))
	if err != nil {
		return 1
	}
	tag, err := meta.Get(exif.Orientation)
	if err != nil {
		return 1
	}
	orientation, err := tag.Int(0)
	if err != nil || orientation < 1 || orientation > 8 {
		return 1
	}
	return orientation
}

// applyOrientation maps an EXIF orientation value to the transform that
// displays the image upright. Unknown values pass through unchanged.
func applyOrientation(img image.Image, orientation int) *image.NRGBA {
	switch orientation {
	case 2:
		return imaging.FlipH(img)
	case 3:
		return imaging.Rotate180(img)
	case 4:
		return imaging.FlipV(img)
	case 5:
		return imaging.Transpose(img)
	case 6:
		return imaging.Rotate270(img)
	case 7:
		return imaging.Transverse(img)
	case 8:
		return imaging.Rotate90(img)
	default:
		return imaging.Clone(img)
	}
}

// clampBounds enforces the dimension invariants. The minimum-dimension
// guarantee takes priority: downscaling is skipped entirely when it would
// push the short side below the minimum.
func (n *Normalizer) clampBounds(img *image.NRGBA) *image.NRGBA {
	w := img.Bounds().Dx()
	h := img.Bounds().Dy()
	minDim := min(w, h)
	maxDim := max(w, h)

	switch {
	case minDim < n.minDim && minDim > 0:
		// Upscale so the short side lands exactly on the minimum.
		if w <= h {
			return resizeChecked(img, n.minDim, 0)
		}
		return resizeChecked(img, 0, n.minDim)

	case maxDim > n.maxDim:
		factor := float64(n.maxDim) / float64(maxDim)
		if int(math.Round(float64(minDim)*factor)) < n.minDim {
			return img
		}
		if w >= h {
			return resizeChecked(img, n.maxDim, 0)
		}
		return resizeChecked(img, 0, n.maxDim)
	}

	return img
}

// resizeChecked resizes preserving aspect ratio and falls back to the
// original on a degenerate result. Resize failures degrade, they never fail
// the request.
func resizeChecked(img *image.NRGBA, width, height int) *image.NRGBA {
	resized := imaging.Resize(img, width, height, imaging.Lanczos)
	if resized.Bounds().Dx() == 0 || resized.Bounds().Dy() == 0 {
		return img
	}
	return resized
}
