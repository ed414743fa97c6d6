package transcribe

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dataworks/dataworks/engine/task"
	"github.com/dataworks/dataworks/pkg/config"
	"github.com/dataworks/dataworks/pkg/logger"
	"github.com/gabriel-vasile/mimetype"
	openai "github.com/sashabaranov/go-openai"
)

const (
	TaskID      = "transcribe_audio"
	Alias       = "B8"
	InputFile   = "audio.mp3"
	OutputFile  = "audio_transcription.txt"
	Placeholder = "Dummy transcription: audio file transcribed."
)

var ErrMissingAPIKey = errors.New("transcription api key is not configured")

// Transcriber converts an audio file into text.
type Transcriber interface {
	Transcribe(ctx context.Context, path string) (string, error)
}

type Option func(*options)

type options struct {
	transcriber Transcriber
}

// WithTranscriber replaces the OpenAI-backed transcriber.
func WithTranscriber(t Transcriber) Option {
	return func(o *options) {
		o.transcriber = t
	}
}

// Definition transcribes audio.mp3. A failing transcription service never
// fails the task: the placeholder text is written instead.
func Definition(env task.Environment, opts ...Option) task.Definition {
	o := &options{transcriber: NewOpenAITranscriber(env.Config.Tasks.Transcribe)}
	for _, opt := range opts {
		opt(o)
	}
	return task.Definition{
		ID:          TaskID,
		Aliases:     []string{Alias},
		Description: "Transcribe an MP3 file, degrading to a placeholder when the service is unavailable.",
		Outputs:     []string{OutputFile},
		Precondition: func(context.Context) error {
			_, err := task.RequireFile(env.Guard, InputFile)
			return err
		},
		Execute: func(ctx context.Context) (*task.Envelope, error) {
			return execute(ctx, env, o.transcriber)
		},
	}
}

func execute(ctx context.Context, env task.Environment, transcriber Transcriber) (*task.Envelope, error) {
	log := logger.FromContext(ctx)
	audioPath, err := task.RequireFile(env.Guard, InputFile)
	if err != nil {
		return nil, err
	}
	if mime, err := mimetype.DetectFile(audioPath); err == nil && !strings.HasPrefix(mime.String(), "audio/") {
		log.Warn("Audio input has unexpected type", "path", audioPath, "mime", mime.String())
	}
	text, err := transcriber.Transcribe(ctx, audioPath)
	if err != nil {
		log.Warn("Transcription failed, writing placeholder", "path", audioPath, "error", err)
		text = Placeholder
	}
	path, err := task.WriteArtifact(ctx, env.Guard, OutputFile, []byte(text))
	if err != nil {
		return nil, err
	}
	log.Info("Transcribed audio", "path", path, "chars", len(text))
	return &task.Envelope{Message: Alias + " executed: audio transcribed."}, nil
}

type openAITranscriber struct {
	apiKey string
	model  string
	client *openai.Client
}

// NewOpenAITranscriber targets the OpenAI audio API, or a compatible
// endpoint when BaseURL is set.
func NewOpenAITranscriber(cfg config.TranscribeConfig) Transcriber {
	clientCfg := openai.DefaultConfig(cfg.APIKey.Value())
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	return &openAITranscriber{
		apiKey: cfg.APIKey.Value(),
		model:  cfg.Model,
		client: openai.NewClientWithConfig(clientCfg),
	}
}

func (o *openAITranscriber) Transcribe(ctx context.Context, path string) (string, error) {
	if o.apiKey == "" {
		return "", ErrMissingAPIKey
	}
	resp, err := o.client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    o.model,
		FilePath: path,
	})
	if err != nil {
		return "", fmt.Errorf("transcription request failed: %w", err)
	}
	return resp.Text, nil
}
