package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/pratik-mahalle/parlour/internal/auth"
	"github.com/pratik-mahalle/parlour/internal/pkg/errors"
	"github.com/pratik-mahalle/parlour/internal/pkg/utils"
)

// ContextKey is a custom type for context keys
type ContextKey string

const (
	// UserIDKey is the context key for user ID
	UserIDKey ContextKey = "userID"
	// SessionIDKey is the context key for the account session bound to the token
	SessionIDKey ContextKey = "sessionID"
)

// TokenVerifier checks a bearer token without touching the account store
type TokenVerifier interface {
	Verify(token string) (*auth.Claims, error)
}

func bearerToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return strings.TrimSpace(parts[1])
		}
		return ""
	}
	if cookie, err := r.Cookie("accessToken"); err == nil {
		return cookie.Value
	}
	return ""
}

// AuthMiddleware rejects requests without a token (401) or with one that does
// not verify (403)
func AuthMiddleware(verifier TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenStr := bearerToken(r)
			if tokenStr == "" {
				utils.WriteError(w, errors.Unauthorized("Access token required"))
				return
			}

			claims, err := verifier.Verify(tokenStr)
			if err != nil {
				utils.WriteError(w, errors.Forbidden("Invalid or expired token"))
				return
			}

			ctx := context.WithValue(r.Context(), UserIDKey, claims.UserID)
			ctx = context.WithValue(ctx, SessionIDKey, claims.SessionID())

			AddLogField(w, "user_id", claims.UserID)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetUserID extracts the user ID from the request context
func GetUserID(r *http.Request) (string, bool) {
	userID, ok := r.Context().Value(UserIDKey).(string)
	return userID, ok && userID != ""
}

// GetSessionID extracts the account session id from the request context
func GetSessionID(r *http.Request) (string, bool) {
	id, ok := r.Context().Value(SessionIDKey).(string)
	return id, ok && id != ""
}
