// Package character holds the persona catalogue the chat endpoint speaks as.
package character

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed characters.yaml
var defaultCatalogue []byte

// ErrUnknownCharacter is returned when a character id is not in the catalogue
var ErrUnknownCharacter = errors.New("invalid character")

// Work is a piece of background knowledge a character can draw on
type Work struct {
	Title      string   `yaml:"title" json:"title"`
	Year       int      `yaml:"year" json:"year"`
	Setting    string   `yaml:"setting" json:"setting"`
	Themes     []string `yaml:"themes" json:"themes"`
	Characters []string `yaml:"characters" json:"characters"`
	Summary    string   `yaml:"summary" json:"summary"`
}

// Character is one persona
type Character struct {
	ID            string `yaml:"id" json:"id"`
	Name          string `yaml:"name" json:"name"`
	Description   string `yaml:"description" json:"description"`
	Avatar        string `yaml:"avatar" json:"avatar"`
	TypingMessage string `yaml:"typing_message" json:"typingMessage"`
	Voice         string `yaml:"voice" json:"voice,omitempty"`
	Prompt        string `yaml:"prompt" json:"-"`
	Knowledge     []Work `yaml:"knowledge" json:"-"`
}

// Catalogue is the set of available characters
type Catalogue struct {
	GlobalPrompt     string      `yaml:"global_prompt"`
	DefaultCharacter string      `yaml:"default_character"`
	Characters       []Character `yaml:"characters"`

	byID map[string]Character
}

// Parse decodes and checks a YAML catalogue
func Parse(data []byte) (*Catalogue, error) {
	var c Catalogue
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse character catalogue: %w", err)
	}

	c.byID = make(map[string]Character, len(c.Characters))
	for _, ch := range c.Characters {
		if ch.ID == "" || ch.Prompt == "" {
			return nil, fmt.Errorf("character %q needs an id and a prompt", ch.Name)
		}
		if _, dup := c.byID[ch.ID]; dup {
			return nil, fmt.Errorf("duplicate character id %q", ch.ID)
		}
		c.byID[ch.ID] = ch
	}

	if _, ok := c.byID[c.DefaultCharacter]; !ok {
		return nil, fmt.Errorf("default character %q is not defined", c.DefaultCharacter)
	}

	return &c, nil
}

// Default returns the built-in catalogue
func Default() *Catalogue {
	c, err := Parse(defaultCatalogue)
	if err != nil {
		panic(err)
	}
	return c
}

// Get looks up a character. An empty id selects the default character.
func (c *Catalogue) Get(id string) (Character, error) {
	if id == "" {
		id = c.DefaultCharacter
	}
	ch, ok := c.byID[id]
	if !ok {
		return Character{}, fmt.Errorf("%w: %q", ErrUnknownCharacter, id)
	}
	return ch, nil
}

// List returns characters in catalogue order
func (c *Catalogue) List() []Character {
	out := make([]Character, len(c.Characters))
	copy(out, c.Characters)
	return out
}

// SystemPrompt assembles the system message for ch, adding any background
// knowledge that matches the guest's message.
func (c *Catalogue) SystemPrompt(ch Character, message string) string {
	var b strings.Builder
	b.WriteString(strings.TrimSpace(c.GlobalPrompt))
	b.WriteString("\n\n")
	b.WriteString(ch.Prompt)

	if relevant := ch.Relevant(message); len(relevant) > 0 {
		b.WriteString("\n\nRelevant knowledge from your own works:\n")
		for _, w := range relevant {
			fmt.Fprintf(&b, "- %s (%d), set in %s. %s\n", w.Title, w.Year, w.Setting, strings.TrimSpace(w.Summary))
		}
	}
	return b.String()
}

// Relevant returns the works whose title, themes or characters are mentioned
// in message
func (ch Character) Relevant(message string) []Work {
	msg := strings.ToLower(message)
	if msg == "" {
		return nil
	}

	var out []Work
	for _, w := range ch.Knowledge {
		if mentions(msg, w) {
			out = append(out, w)
		}
	}
	return out
}

func mentions(msg string, w Work) bool {
	if strings.Contains(msg, strings.ToLower(w.Title)) {
		return true
	}
	for _, t := range w.Themes {
		if strings.Contains(msg, strings.ToLower(t)) {
			return true
		}
	}
	for _, name := range w.Characters {
		if strings.Contains(msg, strings.ToLower(name)) {
			return true
		}
	}
	return false
}
