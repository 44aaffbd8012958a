package services

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/pratik-mahalle/parlour/internal/domain/speech"
	"github.com/pratik-mahalle/parlour/internal/pkg/errors"
	"github.com/pratik-mahalle/parlour/internal/pkg/logger"
	"github.com/pratik-mahalle/parlour/internal/pkg/metrics"
)

// SpeechService turns character replies into audio
type SpeechService struct {
	synth        speech.Synthesizer
	defaultVoice string
	logger       *logger.Logger
}

// NewSpeechService creates a speech service. synth may be nil when speech
// is disabled.
func NewSpeechService(synth speech.Synthesizer, defaultVoice string, log *logger.Logger) *SpeechService {
	if defaultVoice == "" {
		defaultVoice = "Joanna"
	}
	return &SpeechService{
		synth:        synth,
		defaultVoice: defaultVoice,
		logger:       log.WithComponent("speech"),
	}
}

// Synthesize renders text in voice, or the default voice when empty
func (s *SpeechService) Synthesize(ctx context.Context, text, voice string) (*speech.Audio, error) {
	if s.synth == nil {
		return nil, errors.ServiceUnavailable("Speech synthesis is disabled").WithInternal(speech.ErrDisabled)
	}
	if voice == "" {
		voice = s.defaultVoice
	}

	start := time.Now()
	audio, err := s.synth.Synthesize(ctx, text, voice)
	metrics.ObserveUpstream("speech", err, time.Since(start))
	if err != nil {
		if !stderrors.Is(err, context.Canceled) {
			s.logger.WithError(err).With("voice", voice).Error("Speech synthesis failed")
		}
		return nil, errors.UpstreamFailure("TTS generation failed", err)
	}
	return audio, nil
}
