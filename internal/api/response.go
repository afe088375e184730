package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	apperrors "vnstock-advisor/internal/errors"
)

// Error codes
const (
	ErrCodeInternalServer   = "INTERNAL_SERVER_ERROR"
	ErrCodeInvalidParameter = "INVALID_PARAMETER"
	ErrCodeValidation       = "VALIDATION_ERROR"
	ErrCodeConflict         = "CONFLICT"
	ErrCodeNotFound         = "NOT_FOUND"
)

// ErrorResponse represents an error API response
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains error details
type ErrorDetail struct {
	Code      string    `json:"code"`
	Message   string    `json:"message"`
	RequestID string    `json:"request_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, r *http.Request, logger zerolog.Logger, status int, code, message string) {
	resp := ErrorResponse{
		Error: ErrorDetail{
			Code:      code,
			Message:   message,
			RequestID: middleware.GetReqID(r.Context()),
			Timestamp: time.Now(),
		},
	}

	event := logger.Warn()
	if status >= http.StatusInternalServerError {
		event = logger.Error()
	}
	event.
		Str("request_id", resp.Error.RequestID).
		Str("error_code", code).
		Str("message", message).
		Int("status", status).
		Msg("API error response")

	writeJSON(w, status, resp)
}

// statusFor maps a dispatch error to a status and error code.
func statusFor(err error) (int, string) {
	var verr *apperrors.ValidationError
	switch {
	case apperrors.As(err, &verr),
		apperrors.Is(err, apperrors.ErrInvalidSymbol),
		apperrors.Is(err, apperrors.ErrConfigInvalid),
		apperrors.Is(err, apperrors.ErrUnsupportedSource):
		return http.StatusBadRequest, ErrCodeValidation
	case apperrors.Is(err, apperrors.ErrAwaitingAnswer),
		apperrors.Is(err, apperrors.ErrNoPendingQuestion):
		return http.StatusConflict, ErrCodeConflict
	case apperrors.Is(err, apperrors.ErrNotFound):
		return http.StatusNotFound, ErrCodeNotFound
	}
	return http.StatusInternalServerError, ErrCodeInternalServer
}
