package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pratik-mahalle/parlour/internal/auth"
)

func TestAuthMiddleware(t *testing.T) {
	issuer := auth.NewIssuer("mw-secret", time.Hour)
	other := auth.NewIssuer("other-secret", time.Hour)
	expired := auth.NewIssuer("mw-secret", time.Hour, auth.WithClock(func() time.Time {
		return time.Now().Add(-2 * time.Hour)
	}))

	valid, err := issuer.Issue("user-1", "sess-1")
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	forged, _ := other.Issue("user-1", "sess-1")
	stale, _ := expired.Issue("user-1", "sess-1")

	tests := []struct {
		name       string
		header     string
		cookie     string
		wantStatus int
	}{
		{name: "missing token", wantStatus: http.StatusUnauthorized},
		{name: "wrong scheme", header: "Basic abc", wantStatus: http.StatusUnauthorized},
		{name: "garbage token", header: "Bearer not-a-jwt", wantStatus: http.StatusForbidden},
		{name: "foreign signature", header: "Bearer " + forged.Token, wantStatus: http.StatusForbidden},
		{name: "expired token", header: "Bearer " + stale.Token, wantStatus: http.StatusForbidden},
		{name: "valid header", header: "Bearer " + valid.Token, wantStatus: http.StatusOK},
		{name: "valid cookie", cookie: valid.Token, wantStatus: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotUser, gotSession string
			h := AuthMiddleware(issuer)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotUser, _ = GetUserID(r)
				gotSession, _ = GetSessionID(r)
				w.WriteHeader(http.StatusOK)
			}))

			req := httptest.NewRequest(http.MethodGet, "/auth/status", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: "accessToken", Value: tt.cookie})
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if tt.wantStatus == http.StatusOK {
				if gotUser != "user-1" || gotSession != "sess-1" {
					t.Errorf("context = (%q, %q), want (user-1, sess-1)", gotUser, gotSession)
				}
			}
		})
	}
}
