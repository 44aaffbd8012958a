package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/pratik-mahalle/parlour/internal/domain/character"
)

// ModalGenerator calls a hosted inference endpoint that takes the whole
// conversation and the character id and returns one reply
type ModalGenerator struct {
	baseURL   string
	healthURL string
	client    *http.Client
}

// NewModalGenerator creates a generator for the endpoint at baseURL
func NewModalGenerator(baseURL, healthURL string, timeout time.Duration) *ModalGenerator {
	if timeout <= 0 {
		timeout = 45 * time.Second
	}
	return &ModalGenerator{
		baseURL:   baseURL,
		healthURL: healthURL,
		client:    &http.Client{Timeout: timeout},
	}
}

type modalRequest struct {
	Messages  []character.Message `json:"messages"`
	Character string              `json:"character"`
}

type modalResponse struct {
	Response string `json:"response"`
	Error    string `json:"error,omitempty"`
}

// Generate implements character.Generator
func (g *ModalGenerator) Generate(ctx context.Context, characterID string, messages []character.Message) (string, error) {
	body, err := json.Marshal(modalRequest{Messages: messages, Character: characterID})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("modal request: %w", err)
	}
	defer resp.Body.Close()

	if !statusOK(resp.StatusCode) {
		text, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("modal API error: %d - %s", resp.StatusCode, bytes.TrimSpace(text))
	}

	var out modalResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("decode modal response: %w", err)
	}
	if out.Error != "" {
		return "", fmt.Errorf("modal API error: %s", out.Error)
	}
	if out.Response == "" {
		return "", fmt.Errorf("modal API returned an empty response")
	}
	return out.Response, nil
}

func statusOK(code int) bool {
	return code >= 200 && code < 300
}

// Health fetches the endpoint's own health document
func (g *ModalGenerator) Health(ctx context.Context) (map[string]interface{}, error) {
	status := map[string]interface{}{"provider": "modal"}
	if g.healthURL == "" {
		status["status"] = "unknown"
		return status, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.healthURL, nil)
	if err != nil {
		return status, err
	}
	resp, err := g.client.Do(req)
	if err != nil {
		return status, fmt.Errorf("modal health: %w", err)
	}
	defer resp.Body.Close()

	if !statusOK(resp.StatusCode) {
		return status, fmt.Errorf("modal health: status %d", resp.StatusCode)
	}

	var remote map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&remote); err != nil {
		return status, fmt.Errorf("decode modal health: %w", err)
	}
	status["status"] = "ok"
	status["modal_status"] = remote
	return status, nil
}
