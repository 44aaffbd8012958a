package providers

import (
	"context"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/pratik-mahalle/parlour/internal/domain/character"
)

// OpenAIGenerator generates replies through the chat completions API
type OpenAIGenerator struct {
	client    *openai.Client
	model     string
	timeout   time.Duration
	maxTokens int
}

// NewOpenAIGenerator creates a generator. baseURL may point at any
// compatible endpoint; empty means the public API.
func NewOpenAIGenerator(apiKey, baseURL, model string, timeout time.Duration) *OpenAIGenerator {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	if model == "" {
		model = openai.GPT4oMini
	}
	return &OpenAIGenerator{
		client:    openai.NewClientWithConfig(cfg),
		model:     model,
		timeout:   timeout,
		maxTokens: 400,
	}
}

func toOpenAIRole(r string) string {
	switch r {
	case character.RoleSystem:
		return openai.ChatMessageRoleSystem
	case character.RoleAssistant:
		return openai.ChatMessageRoleAssistant
	}
	return openai.ChatMessageRoleUser
}

// Generate implements character.Generator
func (g *OpenAIGenerator) Generate(ctx context.Context, characterID string, messages []character.Message) (string, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	msgs := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		msgs = append(msgs, openai.ChatCompletionMessage{Role: toOpenAIRole(m.Role), Content: m.Content})
	}

	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     g.model,
		Messages:  msgs,
		MaxTokens: g.maxTokens,
		User:      characterID,
	})
	if err != nil {
		return "", fmt.Errorf("openai chat completion: %w", err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("openai returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

// Health lists models to confirm the key and endpoint work
func (g *OpenAIGenerator) Health(ctx context.Context) (map[string]interface{}, error) {
	status := map[string]interface{}{"provider": "openai", "model": g.model}
	if _, err := g.client.ListModels(ctx); err != nil {
		return status, fmt.Errorf("openai health: %w", err)
	}
	status["status"] = "ok"
	return status, nil
}
