package extractor

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kozaktomas/face-compare/internal/errcode"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := NewClient(server.URL, "arcface", 5*time.Second)
	if err != nil {
		t.Fatalf("could not create client: %v", err)
	}
	return client, server
}

func TestNewClientValidation(t *testing.T) {
	tests := []struct {
		name string
		url  string
	}{
		{"bad scheme", "ftp://example.com"},
		{"missing host", "http://"},
		{"garbage", "://nope"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewClient(tt.url, "arcface", 0); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestExtractFaces(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/embed/face" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := r.ParseMultipartForm(10 << 20); err != nil {
			t.Fatalf("could not parse form: %v", err)
		}
		if got := r.FormValue("backend"); got != "retinaface" {
			t.Errorf("expected backend retinaface, got %s", got)
		}
		if got := r.FormValue("align"); got != "true" {
			t.Errorf("expected align true, got %s", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"faces_count": 1,
			"model": "arcface",
			"backend": "retinaface",
			"faces": [{
				"embedding": [0.1, 0.2, 0.3],
				"det_score": 0.98,
				"bbox": [10, 20, 110, 170]
			}]
		}`))
	})

	faces, err := client.ExtractFaces(context.Background(), []byte("jpeg-bytes"), "retinaface", true)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(faces) != 1 {
		t.Fatalf("expected 1 face, got %d", len(faces))
	}
	f := faces[0]
	if f.Confidence != 0.98 {
		t.Errorf("expected confidence 0.98, got %f", f.Confidence)
	}
	if f.Box.X != 10 || f.Box.Y != 20 || f.Box.W != 100 || f.Box.H != 150 {
		t.Errorf("unexpected bounding box %+v", f.Box)
	}
	if len(f.Embedding) != 3 {
		t.Errorf("unexpected embedding %v", f.Embedding)
	}
}

func TestExtractFacesTypedError(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"error": {"code": "NO_FACE_DETECTED", "message": "no face found"}}`))
	})

	_, err := client.ExtractFaces(context.Background(), []byte("jpeg-bytes"), "opencv", true)
	if err == nil {
		t.Fatal("expected error")
	}
	if errcode.CodeOf(err) != errcode.NoFaceDetected {
		t.Errorf("expected NO_FACE_DETECTED, got %s", errcode.CodeOf(err))
	}
}

func TestExtractFacesUntypedError(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte("proxy meltdown"))
	})

	_, err := client.ExtractFaces(context.Background(), []byte("jpeg-bytes"), "opencv", true)
	if err == nil {
		t.Fatal("expected error")
	}
	if errcode.CodeOf(err) != errcode.ModelError {
		t.Errorf("non-envelope errors should map to MODEL_ERROR, got %s", errcode.CodeOf(err))
	}
}

func TestEmbedImage(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/embed/image" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"embedding": [0.5, 0.5], "dim": 2, "model": "clip"}`))
	})

	embedding, dim, err := client.EmbedImage(context.Background(), []byte("jpeg-bytes"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if dim != 2 || len(embedding) != 2 {
		t.Errorf("unexpected result dim=%d embedding=%v", dim, embedding)
	}
}

func TestEmbedImageEmptyEmbedding(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"embedding": [], "dim": 0, "model": "clip"}`))
	})

	_, _, err := client.EmbedImage(context.Background(), []byte("jpeg-bytes"))
	if err == nil {
		t.Fatal("expected error for empty embedding")
	}
	if errcode.CodeOf(err) != errcode.ClipError {
		t.Errorf("expected CLIP_ERROR, got %s", errcode.CodeOf(err))
	}
}

func TestWarmupNoFaceCountsAsLoaded(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/embed/face":
			w.WriteHeader(http.StatusUnprocessableEntity)
			_, _ = w.Write([]byte(`{"error": {"code": "NO_FACE_DETECTED", "message": "gray image"}}`))
		case "/embed/image":
			_, _ = w.Write([]byte(`{"embedding": [0.1], "dim": 1, "model": "clip"}`))
		}
	})

	warmer := NewWarmer(client)
	result, err := warmer.Warmup(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.FaceModel != StatusLoaded {
		t.Errorf("no-face during warm-up should still mark the face model loaded, got %s", result.FaceModel)
	}
	if result.VisualModel != StatusLoaded {
		t.Errorf("expected visual model loaded, got %s", result.VisualModel)
	}
}

func TestWarmupAllModelsFail(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error": {"code": "MODEL_ERROR", "message": "out of memory"}}`))
	})

	warmer := NewWarmer(client)
	result, err := warmer.Warmup(context.Background())
	if err == nil {
		t.Fatal("expected error when no model loads")
	}
	if result.FaceModel != StatusUnloaded || result.VisualModel != StatusUnloaded {
		t.Errorf("expected both models unloaded, got %+v", result)
	}
}

func TestWarmupSkipsLoadedModels(t *testing.T) {
	var faceCalls atomic.Int64
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/embed/face":
			faceCalls.Add(1)
			_, _ = w.Write([]byte(`{"faces_count": 0, "faces": []}`))
		case "/embed/image":
			_, _ = w.Write([]byte(`{"embedding": [0.1], "dim": 1, "model": "clip"}`))
		}
	})

	warmer := NewWarmer(client)
	for range 3 {
		if _, err := warmer.Warmup(context.Background()); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if got := faceCalls.Load(); got != 1 {
		t.Errorf("expected a single face warm-up call, got %d", got)
	}
}
