package integration

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuth_RegisterNewUser(t *testing.T) {
	h := newHarness(t, harnessOptions{})

	reg := h.register("NewUser@Example.com")

	assert.NotEmpty(t, reg.User.ID)
	assert.Equal(t, "newuser@example.com", reg.User.Email)
	assert.Equal(t, "free", reg.User.SubscriptionStatus)
	assert.NotEmpty(t, reg.Token)
	assert.NotEmpty(t, reg.SessionID)
	assert.Len(t, h.billing.Customers, 1)
}

func TestAuth_RegisterValidation(t *testing.T) {
	h := newHarness(t, harnessOptions{})

	tests := []struct {
		name string
		body map[string]string
	}{
		{name: "missing email", body: map[string]string{"name": "A"}},
		{name: "bad email", body: map[string]string{"email": "nope", "name": "A"}},
		{name: "missing name", body: map[string]string{"email": "a@example.com"}},
		{name: "blank name", body: map[string]string{"email": "a@example.com", "name": "   "}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := h.do(http.MethodPost, "/auth/register", "", tt.body, nil)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		})
	}
}

func TestAuth_RegisterDuplicateEmail(t *testing.T) {
	h := newHarness(t, harnessOptions{})
	h.register("duplicate@example.com")

	var body map[string]interface{}
	resp := h.do(http.MethodPost, "/auth/register", "", map[string]string{"email": "DUPLICATE@example.com", "name": "Again"}, &body)

	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "CONFLICT", body["code"])
}

func TestAuth_Status(t *testing.T) {
	h := newHarness(t, harnessOptions{})
	reg := h.register("status@example.com")

	var st struct {
		User struct {
			ID string `json:"id"`
		} `json:"user"`
		Usage struct {
			SubscriptionStatus string `json:"subscriptionStatus"`
			Limits             struct {
				MessagesPerMonth int64 `json:"messagesPerMonth"`
			} `json:"limits"`
			NearLimit map[string]bool `json:"nearLimit"`
			Features  map[string]bool `json:"features"`
		} `json:"usage"`
	}
	resp := h.do(http.MethodGet, "/auth/status", reg.Token, nil, &st)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	assert.Equal(t, reg.User.ID, st.User.ID)
	assert.Equal(t, "free", st.Usage.SubscriptionStatus)
	assert.EqualValues(t, 50, st.Usage.Limits.MessagesPerMonth)
	assert.False(t, st.Usage.NearLimit["messages"])
	assert.False(t, st.Usage.Features["unlimited_messages"])
}

func TestAuth_ProtectedRoutes(t *testing.T) {
	h := newHarness(t, harnessOptions{})
	reg := h.register("protected@example.com")

	tests := []struct {
		name       string
		token      string
		wantStatus int
	}{
		{name: "no token", token: "", wantStatus: http.StatusUnauthorized},
		{name: "garbage token", token: "abc.def.ghi", wantStatus: http.StatusForbidden},
		{name: "valid token", token: reg.Token, wantStatus: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := h.do(http.MethodGet, "/analytics", tt.token, nil, nil)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
		})
	}
}

func TestAuth_TokenExpires(t *testing.T) {
	h := newHarness(t, harnessOptions{})
	reg := h.register("expiry@example.com")

	h.clock.Advance(24*time.Hour + time.Minute)

	resp := h.do(http.MethodGet, "/auth/status", reg.Token, nil, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestAuth_LoginAfterExpiry(t *testing.T) {
	h := newHarness(t, harnessOptions{})
	reg := h.register("returning@example.com")

	h.clock.Advance(25 * time.Hour)

	resp := h.do(http.MethodGet, "/auth/status", reg.Token, nil, nil)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = h.do(http.MethodPost, "/auth/register", "", map[string]string{"email": "returning@example.com", "name": "Guest"}, nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	var login registration
	resp = h.do(http.MethodPost, "/auth/login", "", map[string]string{
		"email":     "Returning@Example.com",
		"sessionId": reg.SessionID,
	}, &login)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, reg.User.ID, login.User.ID)
	assert.NotEqual(t, reg.SessionID, login.SessionID)
	require.NotEmpty(t, login.Token)

	resp = h.do(http.MethodGet, "/auth/status", login.Token, nil, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestAuth_LoginValidation(t *testing.T) {
	h := newHarness(t, harnessOptions{})

	tests := []struct {
		name       string
		body       map[string]string
		wantStatus int
	}{
		{name: "unknown email", body: map[string]string{"email": "ghost@example.com"}, wantStatus: http.StatusNotFound},
		{name: "bad email", body: map[string]string{"email": "ghost"}, wantStatus: http.StatusBadRequest},
		{name: "missing email", body: map[string]string{}, wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := h.do(http.MethodPost, "/auth/login", "", tt.body, nil)
			assert.Equal(t, tt.wantStatus, resp.StatusCode)
		})
	}
}
