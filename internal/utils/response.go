package utils

import (
	"encoding/json"
	"net/http"
	"time"

	"gala-ticketing/internal/apperr"
)

type APIResponse struct {
	Success   bool        `json:"success"`
	Message   string      `json:"message,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	Error     string      `json:"error,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

func SuccessResponse(message string, data interface{}) APIResponse {
	return APIResponse{
		Success:   true,
		Message:   message,
		Data:      data,
		Timestamp: time.Now(),
	}
}

func ErrorResponse(message, error string) APIResponse {
	return APIResponse{
		Success:   false,
		Message:   message,
		Error:     error,
		Timestamp: time.Now(),
	}
}

// WriteJSON encodes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(v)
}

// WriteError maps err onto its HTTP status and a public error envelope.
func WriteError(w http.ResponseWriter, err error) {
	status := apperr.HTTPStatus(err)
	msg := apperr.PublicMessage(err)
	_ = WriteJSON(w, status, ErrorResponse(http.StatusText(status), msg))
}

// DecodeJSON decodes a request body, turning malformed input into a validation error.
func DecodeJSON(r *http.Request, v interface{}) error {
	if r.Body == nil {
		return apperr.Validationf("Request body is required")
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return apperr.Wrap(apperr.Validation, err, "Invalid request body")
	}
	return nil
}
