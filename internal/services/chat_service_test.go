package services

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pratik-mahalle/parlour/internal/domain/character"
	"github.com/pratik-mahalle/parlour/internal/pkg/errors"
	"github.com/pratik-mahalle/parlour/internal/testutil"
)

func newChatService(t *testing.T, gen *testutil.FakeGenerator) *ChatService {
	t.Helper()
	return NewChatService(character.Default(), gen, testutil.NewLogger())
}

func TestChatService_Reply(t *testing.T) {
	gen := &testutil.FakeGenerator{Reply: "Indeed, sir."}
	svc := newChatService(t, gen)

	reply, err := svc.Reply(context.Background(), "lady-regent", "How fares the season?")
	require.NoError(t, err)
	assert.Equal(t, "Indeed, sir.", reply.Response)
	assert.Equal(t, "lady-regent", reply.Character.ID)

	require.Equal(t, 1, gen.CallCount())
	msgs := gen.Calls[0]
	require.Len(t, msgs, 2)
	assert.Equal(t, character.RoleSystem, msgs[0].Role)
	assert.Equal(t, character.RoleUser, msgs[1].Role)
	assert.Equal(t, "How fares the season?", msgs[1].Content)
}

func TestChatService_DefaultCharacter(t *testing.T) {
	svc := newChatService(t, &testutil.FakeGenerator{})

	reply, err := svc.Reply(context.Background(), "", "Hello")
	require.NoError(t, err)
	assert.Equal(t, "georgian-gentleman", reply.Character.ID)
}

func TestChatService_Errors(t *testing.T) {
	t.Run("unknown character", func(t *testing.T) {
		gen := &testutil.FakeGenerator{}
		svc := newChatService(t, gen)

		_, err := svc.Reply(context.Background(), "napoleon", "Bonjour")
		assert.Equal(t, http.StatusBadRequest, errors.As(err).StatusCode)
		assert.Zero(t, gen.CallCount())
	})

	t.Run("generator failure", func(t *testing.T) {
		svc := newChatService(t, &testutil.FakeGenerator{Err: assert.AnError})

		_, err := svc.Reply(context.Background(), "mr-boz", "Tell me of Pickwick")
		appErr := errors.As(err)
		assert.Equal(t, errors.ErrCodeUpstream, appErr.Code)
		assert.Equal(t, "Failed to generate response", appErr.Message)
	})
}

func TestChatService_KnowledgeInPrompt(t *testing.T) {
	gen := &testutil.FakeGenerator{}
	svc := newChatService(t, gen)

	_, err := svc.Reply(context.Background(), "mr-boz", "What do you think of Oliver Twist?")
	require.NoError(t, err)
	assert.True(t, strings.Contains(gen.Calls[0][0].Content, "Oliver Twist"))
}

func TestSpeechService_Synthesize(t *testing.T) {
	ctx := context.Background()

	t.Run("disabled", func(t *testing.T) {
		svc := NewSpeechService(nil, "", testutil.NewLogger())
		_, err := svc.Synthesize(ctx, "Hello", "")
		assert.Equal(t, http.StatusServiceUnavailable, errors.As(err).StatusCode)
	})

	t.Run("default voice", func(t *testing.T) {
		svc := NewSpeechService(&testutil.FakeSynthesizer{}, "", testutil.NewLogger())
		audio, err := svc.Synthesize(ctx, "Hello", "")
		require.NoError(t, err)
		assert.Equal(t, "audio/mpeg", audio.ContentType)
		assert.NotEmpty(t, audio.Data)
	})

	t.Run("backend failure", func(t *testing.T) {
		svc := NewSpeechService(&testutil.FakeSynthesizer{Err: assert.AnError}, "Amy", testutil.NewLogger())
		_, err := svc.Synthesize(ctx, "Hello", "")
		assert.Equal(t, "TTS generation failed", errors.As(err).Message)
	})
}
