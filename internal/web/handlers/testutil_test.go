package handlers

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"image"
	"image/color"
	"image/jpeg"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kozaktomas/face-compare/internal/errcode"
	"github.com/kozaktomas/face-compare/internal/facematch"
	"github.com/kozaktomas/face-compare/internal/imagesource"
	"github.com/kozaktomas/face-compare/internal/preprocess"
)

// testJPEG renders a small gradient JPEG for pipeline tests.
func testJPEG(t *testing.T) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, 64, 64))
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 4), G: uint8(y * 4), B: 128, A: 255})
		}
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		t.Fatalf("could not encode test image: %v", err)
	}
	return buf.Bytes()
}

func testJPEGBase64(t *testing.T) string {
	t.Helper()
	return base64.StdEncoding.EncodeToString(testJPEG(t))
}

// imageServer serves the test JPEG on every path.
func imageServer(t *testing.T) *httptest.Server {
	t.Helper()
	data := testJPEG(t)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg")
		_, _ = w.Write(data)
	}))
	t.Cleanup(server.Close)
	return server
}

// fakeExtractor returns canned faces for any backend.
type fakeExtractor struct {
	faces []facematch.Face
	err   error
}

func (f *fakeExtractor) ExtractFaces(_ context.Context, _ []byte, _ string, _ bool) ([]facematch.Face, error) {
	return f.faces, f.err
}

// fakeEmbedder returns a canned visual embedding.
type fakeEmbedder struct {
	embedding []float32
	err       error
}

func (f *fakeEmbedder) EmbedImage(_ context.Context, _ []byte) ([]float32, int, error) {
	if f.err != nil {
		return nil, 0, f.err
	}
	return f.embedding, len(f.embedding), nil
}

func postJSON(t *testing.T, handler http.HandlerFunc, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("could not marshal request: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	handler(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), out); err != nil {
		t.Fatalf("could not decode response body %q: %v", rec.Body.String(), err)
	}
}

// errorCode extracts the code from an error envelope response.
func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var envelope errorBody
	decodeBody(t, rec, &envelope)
	return envelope.Error.Code
}

func testNormalizer() *preprocess.Normalizer {
	return preprocess.NewNormalizer(48, 2048)
}

func testFetcher() *imagesource.Fetcher {
	return imagesource.NewFetcher(0)
}

var errModelDown = errcode.New(errcode.ModelError, "model is down")
