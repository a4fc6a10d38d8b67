package http

import (
	"encoding/json"
	"net/http"
	"time"
)

const apiVersion = "v1"

// JSONResponse is the envelope of every API response.
type JSONResponse struct {
	Success   bool          `json:"success"`
	Data      any           `json:"data,omitempty"`
	Error     *APIError     `json:"error,omitempty"`
	Meta      *ResponseMeta `json:"meta,omitempty"`
	RequestID string        `json:"request_id,omitempty"`
}

// APIError is the error part of the envelope. Details carries per-field
// validation messages when present.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type ResponseMeta struct {
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version,omitempty"`
}

func writeJSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	send(w, status, JSONResponse{
		Success:   status < http.StatusBadRequest,
		Data:      data,
		RequestID: getRequestID(r.Context()),
	})
}

func writeJSONError(w http.ResponseWriter, r *http.Request, status int, code, message string, details any) {
	send(w, status, JSONResponse{
		Error:     &APIError{Code: code, Message: message, Details: details},
		RequestID: getRequestID(r.Context()),
	})
}

func send(w http.ResponseWriter, status int, body JSONResponse) {
	body.Meta = &ResponseMeta{Timestamp: time.Now().UTC(), Version: apiVersion}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
