package providers

import (
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/polly"
	"github.com/aws/aws-sdk-go-v2/service/polly/types"

	"github.com/pratik-mahalle/parlour/internal/domain/speech"
)

// AWSCredentials holds optional static credentials. Empty keys fall back to
// the default AWS credential chain.
type AWSCredentials struct {
	AccessKeyID     string
	SecretAccessKey string
	Region          string
}

type pollyAPI interface {
	SynthesizeSpeech(ctx context.Context, in *polly.SynthesizeSpeechInput, optFns ...func(*polly.Options)) (*polly.SynthesizeSpeechOutput, error)
}

// PollySynthesizer renders speech with Amazon Polly's neural voices
type PollySynthesizer struct {
	api pollyAPI
}

// NewPollySynthesizer loads AWS configuration and creates a Polly client
func NewPollySynthesizer(ctx context.Context, creds AWSCredentials) (*PollySynthesizer, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(nonEmpty(creds.Region, "us-east-1")),
	}
	if creds.AccessKeyID != "" && creds.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(creds.AccessKeyID, creds.SecretAccessKey, ""),
		))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return &PollySynthesizer{api: polly.NewFromConfig(cfg)}, nil
}

// Synthesize implements speech.Synthesizer
func (p *PollySynthesizer) Synthesize(ctx context.Context, text, voice string) (*speech.Audio, error) {
	out, err := p.api.SynthesizeSpeech(ctx, &polly.SynthesizeSpeechInput{
		Text:         aws.String(text),
		OutputFormat: types.OutputFormatMp3,
		VoiceId:      types.VoiceId(voice),
		Engine:       types.EngineNeural,
	})
	if err != nil {
		return nil, fmt.Errorf("polly synthesize: %w", err)
	}
	defer out.AudioStream.Close()

	data, err := io.ReadAll(out.AudioStream)
	if err != nil {
		return nil, fmt.Errorf("read polly audio: %w", err)
	}

	contentType := aws.ToString(out.ContentType)
	if contentType == "" {
		contentType = "audio/mpeg"
	}
	return &speech.Audio{Data: data, ContentType: contentType}, nil
}

func nonEmpty(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
