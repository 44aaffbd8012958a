package dto

import "github.com/pratik-mahalle/parlour/internal/domain/character"

// ChatRequest is a guest's message to a character. An empty character means
// the default one.
type ChatRequest struct {
	User      string `json:"user" validate:"required,notblank,max=4000"`
	Character string `json:"character,omitempty" validate:"omitempty,max=64"`
}

// UsageRemaining is what is left of the gated quota after this request
type UsageRemaining struct {
	Remaining int64 `json:"remaining"`
	Limit     int64 `json:"limit"`
}

// ChatResponse is a character's reply
type ChatResponse struct {
	Response      string         `json:"response"`
	Character     string         `json:"character"`
	TypingMessage string         `json:"typingMessage"`
	Avatar        string         `json:"avatar"`
	Usage         UsageRemaining `json:"usage"`
}

// CharacterDTO is the public view of a catalogue character
type CharacterDTO struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Description   string `json:"description"`
	Avatar        string `json:"avatar"`
	TypingMessage string `json:"typingMessage,omitempty"`
	Voice         string `json:"voice,omitempty"`
}

// ToCharacterDTO converts a catalogue entry
func ToCharacterDTO(c character.Character) CharacterDTO {
	return CharacterDTO{
		ID:            c.ID,
		Name:          c.Name,
		Description:   c.Description,
		Avatar:        c.Avatar,
		TypingMessage: c.TypingMessage,
		Voice:         c.Voice,
	}
}

// TTSRequest asks for text to be spoken. An empty voice means the default.
type TTSRequest struct {
	Text  string `json:"text" validate:"required,notblank,max=3000"`
	Voice string `json:"voice,omitempty" validate:"omitempty,alpha,max=32"`
}
