package client

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Error codes returned by the API
const (
	CodePremiumRequired      = "PREMIUM_REQUIRED"
	CodeDailyLimitReached    = "DAILY_LIMIT_REACHED"
	CodeChatError            = "CHAT_ERROR"
	CodeNoActiveSubscription = "NO_ACTIVE_SUBSCRIPTION"
)

// APIError represents an error returned by the API
type APIError struct {
	StatusCode int                    `json:"-"`
	Code       string                 `json:"code"`
	Message    string                 `json:"message"`
	Details    map[string]interface{} `json:"details,omitempty"`
	// RetryAfter is set from the Retry-After header when the server sends one
	RetryAfter time.Duration `json:"-"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("API error [%s]: %s (status: %d)", e.Code, e.Message, e.StatusCode)
	}
	return fmt.Sprintf("API error: %s (status: %d)", e.Message, e.StatusCode)
}

// IsNotFound returns true if the error is a 404 not found error
func (e *APIError) IsNotFound() bool {
	return e.StatusCode == http.StatusNotFound
}

// IsUnauthorized returns true if the error is a 401 unauthorized error
func (e *APIError) IsUnauthorized() bool {
	return e.StatusCode == http.StatusUnauthorized
}

// IsForbidden returns true if the error is a 403 forbidden error
func (e *APIError) IsForbidden() bool {
	return e.StatusCode == http.StatusForbidden
}

// IsPremiumRequired reports a premium chat request without a premium plan
func (e *APIError) IsPremiumRequired() bool {
	return e.Code == CodePremiumRequired
}

// IsDailyLimitReached reports an exhausted free quota
func (e *APIError) IsDailyLimitReached() bool {
	return e.Code == CodeDailyLimitReached
}

// IsRetryable reports whether resending the same request may succeed
func (e *APIError) IsRetryable() bool {
	return e.Code == CodeChatError || (e.StatusCode == http.StatusTooManyRequests && !e.IsDailyLimitReached()) || e.StatusCode >= 500
}

// IsServerError returns true if the error is a 5xx server error
func (e *APIError) IsServerError() bool {
	return e.StatusCode >= 500
}

// AsAPIError unwraps err into an APIError
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}
