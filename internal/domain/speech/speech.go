// Package speech describes text-to-speech synthesis.
package speech

import (
	"context"
	"errors"
)

// ErrDisabled is returned when speech synthesis is switched off
var ErrDisabled = errors.New("speech synthesis is disabled")

// Audio is synthesized speech
type Audio struct {
	Data        []byte
	ContentType string
}

// Synthesizer turns text into audio in the given voice
type Synthesizer interface {
	Synthesize(ctx context.Context, text, voice string) (*Audio, error)
}
