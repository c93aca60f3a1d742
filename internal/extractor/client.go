// Package extractor talks to the embedding sidecar over HTTP. The sidecar
// runs the face detection and embedding models and exposes them on two
// multipart endpoints, one for faces and one for whole images.
package extractor

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kozaktomas/face-compare/internal/errcode"
	"github.com/kozaktomas/face-compare/internal/facematch"
)

const defaultTimeout = 60 * time.Second

// Client is an HTTP client for the embedding sidecar.
type Client struct {
	parsedURL *url.URL
	model     string
	client    *http.Client
}

// NewClient creates a sidecar client. The model name is informational
// only; the sidecar decides which weights it serves.
func NewClient(baseURL, model string, timeout time.Duration) (*Client, error) {
	parsed, err := url.Parse(strings.TrimSuffix(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid extractor URL: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("invalid extractor URL scheme %q: must be http or https", parsed.Scheme)
	}
	if parsed.Host == "" {
		return nil, errors.New("invalid extractor URL: missing host")
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		parsedURL: parsed,
		model:     model,
		client:    &http.Client{Timeout: timeout},
	}, nil
}

// Model returns the configured model name.
func (c *Client) Model() string {
	return c.model
}

// faceResponse mirrors the sidecar's /embed/face payload.
type faceResponse struct {
	FacesCount int    `json:"faces_count"`
	Model      string `json:"model"`
	Backend    string `json:"backend"`
	Faces      []struct {
		Embedding []float32  `json:"embedding"`
		DetScore  float64    `json:"det_score"`
		BBox      [4]float64 `json:"bbox"`
	} `json:"faces"`
}

// imageResponse mirrors the sidecar's /embed/image payload.
type imageResponse struct {
	Embedding []float32 `json:"embedding"`
	Dim       int       `json:"dim"`
	Model     string    `json:"model"`
}

// errorEnvelope mirrors the sidecar's error payload. The code field is the
// contract; message text is free-form and never inspected.
type errorEnvelope struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// ExtractFaces sends the image to the sidecar and returns all detected
// faces with their embeddings. Implements facematch.FaceExtractor.
func (c *Client) ExtractFaces(ctx context.Context, imageData []byte, backend string, align bool) ([]facematch.Face, error) {
	fields := map[string]string{
		"backend": backend,
		"align":   strconv.FormatBool(align),
	}

	body, err := c.postMultipart(ctx, "/embed/face", imageData, fields)
	if err != nil {
		return nil, err
	}

	var parsed faceResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, errcode.Wrap(errcode.ModelError, err, "could not parse face response")
	}

	faces := make([]facematch.Face, 0, len(parsed.Faces))
	for _, f := range parsed.Faces {
		faces = append(faces, facematch.Face{
			Embedding:  f.Embedding,
			Confidence: f.DetScore,
			Box: facematch.BoundingBox{
				X: int(f.BBox[0]),
				Y: int(f.BBox[1]),
				W: int(f.BBox[2] - f.BBox[0]),
				H: int(f.BBox[3] - f.BBox[1]),
			},
		})
	}
	return faces, nil
}

// EmbedImage sends the image to the sidecar's whole-image endpoint and
// returns the visual embedding.
func (c *Client) EmbedImage(ctx context.Context, imageData []byte) ([]float32, int, error) {
	body, err := c.postMultipart(ctx, "/embed/image", imageData, nil)
	if err != nil {
		return nil, 0, err
	}

	var parsed imageResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, 0, errcode.Wrap(errcode.ClipError, err, "could not parse image embedding response")
	}
	if len(parsed.Embedding) == 0 {
		return nil, 0, errcode.New(errcode.ClipError, "sidecar returned empty embedding")
	}
	dim := parsed.Dim
	if dim == 0 {
		dim = len(parsed.Embedding)
	}
	return parsed.Embedding, dim, nil
}

func (c *Client) postMultipart(ctx context.Context, path string, imageData []byte, fields map[string]string) ([]byte, error) {
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	// Unique filename per request keeps sidecar logs and temp files apart.
	part, err := writer.CreateFormFile("image", uuid.NewString()+".jpg")
	if err != nil {
		return nil, fmt.Errorf("could not create form file: %w", err)
	}
	if _, err := part.Write(imageData); err != nil {
		return nil, fmt.Errorf("could not write image data: %w", err)
	}
	for key, value := range fields {
		if err := writer.WriteField(key, value); err != nil {
			return nil, fmt.Errorf("could not write form field %s: %w", key, err)
		}
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("could not close writer: %w", err)
	}

	reqURL := c.parsedURL.JoinPath(path)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL.String(), &buf)
	if err != nil {
		return nil, fmt.Errorf("could not create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, errcode.Wrap(errcode.ModelError, err, "extractor request failed")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errcode.Wrap(errcode.ModelError, err, "could not read extractor response")
	}

	if resp.StatusCode != http.StatusOK {
		return nil, decodeError(resp.StatusCode, body)
	}
	return body, nil
}

// decodeError maps a sidecar error response to a typed error. Unknown or
// missing codes degrade to MODEL_ERROR.
func decodeError(status int, body []byte) error {
	var envelope errorEnvelope
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error.Code != "" {
		return errcode.New(errcode.Code(envelope.Error.Code), "%s", envelope.Error.Message)
	}
	return errcode.New(errcode.ModelError, "extractor error (status %d): %s", status, string(body))
}
