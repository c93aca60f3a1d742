// Package imagesource fetches raw image bytes from the places a request
// can point at: a URL or an inline base64 payload.
package imagesource

import (
	"context"
	"encoding/base64"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/kozaktomas/face-compare/internal/errcode"
)

const (
	defaultDownloadTimeout = 30 * time.Second

	// maxDownloadSize caps remote fetches; anything larger is not a
	// photo we want to process.
	maxDownloadSize = 50 << 20
)

// Fetcher downloads images over HTTP.
type Fetcher struct {
	client *http.Client
}

// NewFetcher creates a fetcher with the given per-download timeout.
func NewFetcher(timeout time.Duration) *Fetcher {
	if timeout <= 0 {
		timeout = defaultDownloadTimeout
	}
	return &Fetcher{client: &http.Client{Timeout: timeout}}
}

// Download fetches image bytes from the given URL. Any network, status or
// content-type failure maps to DOWNLOAD_FAILED.
func (f *Fetcher) Download(ctx context.Context, imageURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, errcode.Wrap(errcode.DownloadFailed, err, "invalid image URL")
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, errcode.Wrap(errcode.DownloadFailed, err, "could not download image")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errcode.New(errcode.DownloadFailed,
			"image download failed with status %d", resp.StatusCode)
	}

	// A wrong content type is only a warning; the decoder is the
	// authority on whether the bytes are an image.
	contentType := resp.Header.Get("Content-Type")
	if contentType != "" && !strings.HasPrefix(contentType, "image/") &&
		contentType != "application/octet-stream" {
		log.Printf("image download from %s returned content type %q", imageURL, contentType)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDownloadSize+1))
	if err != nil {
		return nil, errcode.Wrap(errcode.DownloadFailed, err, "could not read image body")
	}
	if len(data) > maxDownloadSize {
		return nil, errcode.New(errcode.DownloadFailed, "image exceeds %d bytes", maxDownloadSize)
	}
	if len(data) == 0 {
		return nil, errcode.New(errcode.DownloadFailed, "image download returned an empty body")
	}
	return data, nil
}

// DecodeBase64 decodes an inline base64 image payload. Data-URI prefixes
// ("data:image/jpeg;base64,") and embedded whitespace are tolerated since
// clients copy payloads out of JSON and HTML indiscriminately.
func DecodeBase64(payload string) ([]byte, error) {
	if idx := strings.Index(payload, ","); idx >= 0 && strings.HasPrefix(payload, "data:") {
		payload = payload[idx+1:]
	}
	payload = strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '\n', '\r':
			return -1
		}
		return r
	}, payload)

	if payload == "" {
		return nil, errcode.New(errcode.InvalidImage, "empty base64 payload")
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, errcode.Wrap(errcode.InvalidImage, err, "invalid base64 image data")
	}
	return data, nil
}

// DetectMIMEType sniffs the image format from magic bytes.
func DetectMIMEType(data []byte) string {
	if len(data) < 8 {
		return "application/octet-stream"
	}
	// JPEG: FF D8 FF
	if data[0] == 0xFF && data[1] == 0xD8 && data[2] == 0xFF {
		return "image/jpeg"
	}
	// PNG: 89 50 4E 47 0D 0A 1A 0A
	if data[0] == 0x89 && data[1] == 0x50 && data[2] == 0x4E && data[3] == 0x47 {
		return "image/png"
	}
	// GIF: 47 49 46 38
	if data[0] == 0x47 && data[1] == 0x49 && data[2] == 0x46 && data[3] == 0x38 {
		return "image/gif"
	}
	// WebP: 52 49 46 46 ... 57 45 42 50
	if len(data) >= 12 && data[0] == 0x52 && data[1] == 0x49 && data[2] == 0x46 && data[3] == 0x46 &&
		data[8] == 0x57 && data[9] == 0x45 && data[10] == 0x42 && data[11] == 0x50 {
		return "image/webp"
	}
	// BMP: 42 4D
	if data[0] == 0x42 && data[1] == 0x4D {
		return "image/bmp"
	}
	return "application/octet-stream"
}

// Resolve picks the image bytes from a request that may carry either a URL
// or an inline payload. Exactly one source must be set.
func (f *Fetcher) Resolve(ctx context.Context, imageURL, imageBase64 string) ([]byte, error) {
	switch {
	case imageURL != "" && imageBase64 != "":
		return nil, errcode.New(errcode.InvalidImage, "provide either image_url or image_base64, not both")
	case imageURL != "":
		return f.Download(ctx, imageURL)
	case imageBase64 != "":
		return DecodeBase64(imageBase64)
	default:
		return nil, errcode.New(errcode.InvalidImage, "missing image: set image_url or image_base64")
	}
}
