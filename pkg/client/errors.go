package client

import (
	"fmt"
	"net/http"
)

// APIError represents an error returned by the API. The limit fields are
// only set on a 429 usage-limit response.
type APIError struct {
	StatusCode int         `json:"-"`
	Code       string      `json:"code"`
	Message    string      `json:"error"`
	Details    interface{} `json:"details,omitempty"`

	Reason          string  `json:"reason,omitempty"`
	Resource        string  `json:"resource,omitempty"`
	Current         int64   `json:"current,omitempty"`
	Limit           int64   `json:"limit,omitempty"`
	Remaining       int64   `json:"remaining,omitempty"`
	Limits          *Quotas `json:"limits,omitempty"`
	UpgradeRequired bool    `json:"upgradeRequired,omitempty"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("API error [%s]: %s: %s (status: %d)", e.Code, e.Message, e.Reason, e.StatusCode)
	}
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

// IsForbidden returns true if the error is a 403, which the API uses for
// an invalid or expired token
func (e *APIError) IsForbidden() bool {
	return e.StatusCode == http.StatusForbidden
}

// IsValidationError returns true if the error is a 400 validation error
func (e *APIError) IsValidationError() bool {
	return e.StatusCode == http.StatusBadRequest
}

// IsLimitExceeded returns true when a monthly quota blocked the request
func (e *APIError) IsLimitExceeded() bool {
	return e.StatusCode == http.StatusTooManyRequests && e.Code == "LIMIT_EXCEEDED"
}

// IsServerError returns true if the error is a 5xx server error
func (e *APIError) IsServerError() bool {
	return e.StatusCode >= 500
}
