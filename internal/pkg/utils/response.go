package utils

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/pratik-mahalle/dialekt/internal/pkg/errors"
)

// SuccessResponse is the envelope of every successful API response
type SuccessResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
}

// ErrorResponse is the envelope of every failed API response
type ErrorResponse struct {
	Success bool        `json:"success"`
	Error   ErrorDetail `json:"error"`
}

// ErrorDetail carries the typed error code clients branch on
type ErrorDetail struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(data)
}

// WriteSuccess writes data inside the success envelope
func WriteSuccess(w http.ResponseWriter, status int, data interface{}) error {
	return writeJSON(w, status, SuccessResponse{
		Success: true,
		Data:    data,
	})
}

// WriteError writes an AppError inside the error envelope. A daily limit
// error also gets a Retry-After header with the seconds until the quota resets.
func WriteError(w http.ResponseWriter, err *errors.AppError) error {
	if secs, ok := retryAfter(err); ok {
		w.Header().Set("Retry-After", strconv.FormatInt(secs, 10))
	}
	return writeJSON(w, err.StatusCode, ErrorResponse{
		Success: false,
		Error: ErrorDetail{
			Code:    err.Code,
			Message: err.Message,
			Details: err.Details,
		},
	})
}

func retryAfter(err *errors.AppError) (int64, bool) {
	if err.Code != errors.ErrCodeDailyLimitReached {
		return 0, false
	}
	details, ok := err.Details.(map[string]interface{})
	if !ok {
		return 0, false
	}
	secs, ok := details["resets_in_seconds"].(int64)
	return secs, ok && secs > 0
}
