package utils

import (
	"encoding/json"
	"net/http"

	"github.com/pratik-mahalle/parlour/internal/pkg/errors"
)

// ErrorResponse is the body of every non-2xx response except quota denials
type ErrorResponse struct {
	Error   string      `json:"error"`
	Code    string      `json:"code,omitempty"`
	Details interface{} `json:"details,omitempty"`
}

// LimitExceededResponse is the body of a 429 quota denial
type LimitExceededResponse struct {
	Error           string      `json:"error"`
	Code            string      `json:"code"`
	Reason          string      `json:"reason"`
	Resource        string      `json:"resource"`
	Current         int64       `json:"current"`
	Limit           int64       `json:"limit"`
	Remaining       int64       `json:"remaining"`
	Limits          interface{} `json:"limits"`
	UpgradeRequired bool        `json:"upgradeRequired"`
}

// MessageResponse carries a human readable acknowledgement
type MessageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// WriteJSON writes a JSON response
func WriteJSON(w http.ResponseWriter, status int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(data)
}

// WriteSuccess writes a 2xx JSON response with data as the body
func WriteSuccess(w http.ResponseWriter, status int, data interface{}) error {
	return WriteJSON(w, status, data)
}

// WriteSuccessWithMessage writes {success: true, message}
func WriteSuccessWithMessage(w http.ResponseWriter, status int, message string) error {
	return WriteJSON(w, status, MessageResponse{Success: true, Message: message})
}

// WriteError writes an error JSON response from AppError
func WriteError(w http.ResponseWriter, err *errors.AppError) error {
	return WriteJSON(w, err.StatusCode, ErrorResponse{
		Error:   err.Message,
		Code:    err.Code,
		Details: err.Details,
	})
}

// WriteErr renders any error, falling back to a 500 for non-AppErrors
func WriteErr(w http.ResponseWriter, err error) error {
	return WriteError(w, errors.As(err))
}

// WriteErrorMessage writes a simple error message
func WriteErrorMessage(w http.ResponseWriter, status int, code, message string) error {
	return WriteJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}

// WriteLimitExceeded renders a LimitExceeded error together with the quota
// figures that tell the client to upgrade
func WriteLimitExceeded(w http.ResponseWriter, err *errors.AppError, body LimitExceededResponse) error {
	body.Error = err.Message
	body.Code = err.Code
	if body.Reason == "" {
		if reason, ok := err.Details.(string); ok {
			body.Reason = reason
		}
	}
	body.UpgradeRequired = true
	return WriteJSON(w, err.StatusCode, body)
}
