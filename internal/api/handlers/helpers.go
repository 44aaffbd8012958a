package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/pratik-mahalle/parlour/internal/api/middleware"
	"github.com/pratik-mahalle/parlour/internal/pkg/errors"
	"github.com/pratik-mahalle/parlour/internal/pkg/validator"
)

const maxBodyBytes = 1 << 20

// decodeAndValidate reads a JSON body into v and validates it. On failure
// the returned error is ready to be written.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, val *validator.Validator, v interface{}) *errors.AppError {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errors.BadRequest("Invalid request body")
	}
	if validationErrs := val.Validate(v); len(validationErrs) > 0 {
		return errors.ValidationError("Validation failed", validationErrs)
	}
	return nil
}

// requireUserID returns the authenticated user, or an error when the route
// was mounted without AuthMiddleware
func requireUserID(r *http.Request) (string, *errors.AppError) {
	userID, ok := middleware.GetUserID(r)
	if !ok {
		return "", errors.Unauthorized("Access token required")
	}
	return userID, nil
}
