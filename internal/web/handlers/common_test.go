package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kozaktomas/face-compare/internal/errcode"
)

func TestStatusForCode(t *testing.T) {
	tests := []struct {
		code errcode.Code
		want int
	}{
		{errcode.InvalidImage, http.StatusBadRequest},
		{errcode.InvalidEmbedding, http.StatusBadRequest},
		{errcode.DownloadFailed, http.StatusBadRequest},
		{errcode.NoFaceDetected, http.StatusUnprocessableEntity},
		{errcode.MultipleFacesDetected, http.StatusUnprocessableEntity},
		{errcode.ModelError, http.StatusInternalServerError},
		{errcode.ClipError, http.StatusInternalServerError},
		{errcode.HashError, http.StatusInternalServerError},
		{errcode.InternalError, http.StatusInternalServerError},
		{errcode.Code("SOMETHING_NEW"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		if got := statusForCode(tt.code); got != tt.want {
			t.Errorf("%s: expected %d, got %d", tt.code, tt.want, got)
		}
	}
}

func TestRespondErrorEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	err := errcode.New(errcode.MultipleFacesDetected, "multiple faces detected (3)").
		WithDetail("face_count", 3)
	respondError(rec, err)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("unexpected content type %s", ct)
	}

	var envelope errorBody
	decodeBody(t, rec, &envelope)
	if envelope.Error.Code != "MULTIPLE_FACES_DETECTED" {
		t.Errorf("unexpected code %s", envelope.Error.Code)
	}
	if envelope.Error.Message != "multiple faces detected (3)" {
		t.Errorf("unexpected message %q", envelope.Error.Message)
	}
	if envelope.Error.Details["face_count"] != float64(3) {
		t.Errorf("unexpected details %+v", envelope.Error.Details)
	}
}

func TestRespondErrorPlainError(t *testing.T) {
	rec := httptest.NewRecorder()
	respondError(rec, http.ErrBodyNotAllowed)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("plain errors should map to 500, got %d", rec.Code)
	}
	var envelope errorBody
	decodeBody(t, rec, &envelope)
	if envelope.Error.Code != "INTERNAL_ERROR" {
		t.Errorf("unexpected code %s", envelope.Error.Code)
	}
}
