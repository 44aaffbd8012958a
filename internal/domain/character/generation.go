package character

import "context"

// Message roles
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one turn of a conversation sent to a generator
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Generator produces a character's reply
type Generator interface {
	Generate(ctx context.Context, characterID string, messages []Message) (string, error)
	Health(ctx context.Context) (map[string]interface{}, error)
}
