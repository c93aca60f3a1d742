package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/kozaktomas/face-compare/internal/errcode"
)

// errInvalidRequestBody is a shared error message for invalid JSON request bodies.
const errInvalidRequestBody = "invalid request body"

// errorBody is the wire shape of every error response.
type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// respondJSON sends a JSON response.
func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

// respondError sends a typed error envelope with the HTTP status mapped
// from the error code.
func respondError(w http.ResponseWriter, err error) {
	code := errcode.CodeOf(err)

	detail := errorDetail{
		Code:    string(code),
		Message: err.Error(),
	}
	if e := errcode.AsError(err); e != nil {
		detail.Message = e.Message
		detail.Details = e.Details
	}

	respondJSON(w, statusForCode(code), errorBody{Error: detail})
}

// respondBadRequest sends a 400 with the given code, used for malformed
// or incomplete request bodies.
func respondBadRequest(w http.ResponseWriter, code errcode.Code, message string) {
	respondJSON(w, http.StatusBadRequest, errorBody{Error: errorDetail{
		Code:    string(code),
		Message: message,
	}})
}

func statusForCode(code errcode.Code) int {
	switch code {
	case errcode.InvalidImage, errcode.InvalidEmbedding, errcode.DownloadFailed:
		return http.StatusBadRequest
	case errcode.NoFaceDetected, errcode.MultipleFacesDetected:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
