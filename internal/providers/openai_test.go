package providers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pratik-mahalle/parlour/internal/domain/character"
)

func TestOpenAIGenerator_Generate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var req struct {
			Model    string `json:"model"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "gpt-test", req.Model)
		require.Len(t, req.Messages, 2)
		assert.Equal(t, "system", req.Messages[0].Role)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"c1","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"Most agreeable."},"finish_reason":"stop"}]}`))
	}))
	defer srv.Close()

	g := NewOpenAIGenerator("sk-test", srv.URL+"/v1", "gpt-test", 5*time.Second)
	reply, err := g.Generate(context.Background(), "georgian-gentleman", []character.Message{
		{Role: character.RoleSystem, Content: "Be courteous."},
		{Role: character.RoleUser, Content: "Hello"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Most agreeable.", reply)
}

func TestOpenAIGenerator_NoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"c1","object":"chat.completion","choices":[]}`))
	}))
	defer srv.Close()

	g := NewOpenAIGenerator("sk-test", srv.URL+"/v1", "", time.Second)
	_, err := g.Generate(context.Background(), "mr-boz", []character.Message{{Role: character.RoleUser, Content: "Hi"}})
	assert.Error(t, err)
}

func TestToOpenAIRole(t *testing.T) {
	assert.Equal(t, "system", toOpenAIRole(character.RoleSystem))
	assert.Equal(t, "assistant", toOpenAIRole(character.RoleAssistant))
	assert.Equal(t, "user", toOpenAIRole(character.RoleUser))
	assert.Equal(t, "user", toOpenAIRole("narrator"))
}
