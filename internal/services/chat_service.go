package services

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/pratik-mahalle/parlour/internal/domain/character"
	"github.com/pratik-mahalle/parlour/internal/pkg/errors"
	"github.com/pratik-mahalle/parlour/internal/pkg/logger"
	"github.com/pratik-mahalle/parlour/internal/pkg/metrics"
)

// ChatReply is a character's answer
type ChatReply struct {
	Response  string
	Character character.Character
}

// ChatService speaks as a catalogue character through a generator
type ChatService struct {
	catalogue *character.Catalogue
	generator character.Generator
	logger    *logger.Logger
}

// NewChatService creates a chat service
func NewChatService(catalogue *character.Catalogue, generator character.Generator, log *logger.Logger) *ChatService {
	return &ChatService{
		catalogue: catalogue,
		generator: generator,
		logger:    log.WithComponent("chat"),
	}
}

// Characters lists the catalogue
func (s *ChatService) Characters() []character.Character {
	return s.catalogue.List()
}

// Reply generates characterID's answer to message
func (s *ChatService) Reply(ctx context.Context, characterID, message string) (*ChatReply, error) {
	ch, err := s.catalogue.Get(characterID)
	if err != nil {
		return nil, errors.BadRequest("Invalid character").WithInternal(err)
	}

	messages := []character.Message{
		{Role: character.RoleSystem, Content: s.catalogue.SystemPrompt(ch, message)},
		{Role: character.RoleUser, Content: message},
	}

	start := time.Now()
	response, err := s.generator.Generate(ctx, ch.ID, messages)
	metrics.ObserveUpstream("generation", err, time.Since(start))
	if err != nil {
		if !stderrors.Is(err, context.Canceled) {
			s.logger.WithError(err).With("character", ch.ID).Error("Generation failed")
		}
		return nil, errors.UpstreamFailure("Failed to generate response", err)
	}

	return &ChatReply{Response: response, Character: ch}, nil
}

// Health probes the generation backend
func (s *ChatService) Health(ctx context.Context) (map[string]interface{}, error) {
	return s.generator.Health(ctx)
}
