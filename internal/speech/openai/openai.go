// Package openai implements the speech interfaces using OpenAI's APIs.
//
// It uses the Audio Transcription API (gpt-4o-transcribe / Whisper) to hear
// what the learner read, and the Chat Completions API to phrase coaching
// feedback.
package openai

import (
	"bytes"
	"cmp"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/nadzzz/habla/internal/config"
	"github.com/nadzzz/habla/internal/metrics"
	"github.com/nadzzz/habla/internal/speech"
)

// ErrMissingAPIKey is returned when no OpenAI API key is configured.
var ErrMissingAPIKey = errors.New("openai api key not configured")

// Backend uses OpenAI for transcription and feedback.
type Backend struct {
	apiKey             config.Secret
	baseURL            string
	transcriptionModel string
	feedbackModel      string
	timeout            time.Duration
}

// New creates a new OpenAI speech backend from config.
func New(cfg config.CoachConfig) *Backend {
	return &Backend{
		apiKey:             cfg.APIKey,
		baseURL:            cfg.BaseURL,
		transcriptionModel: cfg.TranscriptionModel,
		feedbackModel:      cfg.FeedbackModel,
		timeout:            time.Minute,
	}
}

// Name returns the backend identifier.
func (b *Backend) Name() string { return "openai" }

// client builds a client with the key as it is configured right now.
func (b *Backend) client() (*openai.Client, error) {
	key := b.apiKey.Value()
	if key == "" {
		return nil, ErrMissingAPIKey
	}
	cfg := openai.DefaultConfig(key)
	if b.baseURL != "" {
		cfg.BaseURL = b.baseURL
	}
	return openai.NewClientWithConfig(cfg), nil
}

// Transcribe sends audio to the OpenAI Transcription API.
func (b *Backend) Transcribe(ctx context.Context, audio []byte, contentType string, opts speech.TranscribeOpts) (*speech.TranscribeResult, error) {
	client, err := b.client()
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	start := time.Now()
	resp, err := client.CreateTranscription(ctx, openai.AudioRequest{
		Model:    b.transcriptionModel,
		FilePath: "attempt" + extFromContentType(contentType),
		Reader:   bytes.NewReader(audio),
		Language: opts.Language,
		Prompt:   opts.Prompt,
		Format:   openai.AudioResponseFormatJSON,
	})
	recordUpstream("openai_transcription", err, start)
	if err != nil {
		return nil, fmt.Errorf("transcription: %w", err)
	}

	slog.Debug("transcription complete", "text_length", len(resp.Text))
	return &speech.TranscribeResult{
		Text:     resp.Text,
		Language: normalizeLanguage(cmp.Or(resp.Language, opts.Language)),
	}, nil
}

// Advise asks the feedback model for a short coaching note.
func (b *Backend) Advise(ctx context.Context, req speech.FeedbackRequest) (string, error) {
	client, err := b.client()
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	start := time.Now()
	resp, err := client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: b.feedbackModel,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: feedbackPrompt},
			{Role: openai.ChatMessageRoleUser, Content: buildFeedbackInput(req)},
		},
		Temperature: 0.4,
	})
	recordUpstream("openai_feedback", err, start)
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty response from model %q", b.feedbackModel)
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

const feedbackPrompt = `You are Miguel, an encouraging Spanish pronunciation coach from Mexico.
You receive the sentence a learner tried to read aloud, what the speech recognizer heard,
and the words that were missed or added. Reply in at most three short sentences:
praise the effort first, then name the one or two words to practice and how to pronounce them.
Write in simple Spanish and add a brief English explanation in parentheses when useful.`

func buildFeedbackInput(req speech.FeedbackRequest) string {
	var sb strings.Builder
	sb.WriteString("Expected: " + req.Expected + "\n")
	sb.WriteString("Heard: " + req.Heard + "\n")
	fmt.Fprintf(&sb, "Accuracy: %.0f%%\n", req.Accuracy*100)
	if len(req.Missed) > 0 {
		sb.WriteString("Missed words: " + strings.Join(req.Missed, ", ") + "\n")
	}
	if len(req.Extra) > 0 {
		sb.WriteString("Unexpected words: " + strings.Join(req.Extra, ", ") + "\n")
	}
	return sb.String()
}

func recordUpstream(name string, err error, start time.Time) {
	status := 200
	if err != nil {
		status = 0
		var apiErr *openai.APIError
		if errors.As(err, &apiErr) {
			status = apiErr.HTTPStatusCode
		}
	}
	metrics.RecordUpstream(name, status, start)
}

func extFromContentType(ct string) string {
	switch {
	case strings.Contains(ct, "wav"):
		return ".wav"
	case strings.Contains(ct, "ogg"):
		return ".ogg"
	case strings.Contains(ct, "mp3"), strings.Contains(ct, "mpeg"):
		return ".mp3"
	case strings.Contains(ct, "mp4"), strings.Contains(ct, "m4a"):
		return ".m4a"
	case strings.Contains(ct, "flac"):
		return ".flac"
	default:
		// MediaRecorder in Chrome and Firefox produces webm/opus.
		return ".webm"
	}
}

// normalizeLanguage converts full language names (as returned by OpenAI) to ISO-639-1 codes.
func normalizeLanguage(lang string) string {
	switch strings.ToLower(lang) {
	case "spanish", "español":
		return "es"
	case "english":
		return "en"
	case "portuguese":
		return "pt"
	default:
		return strings.ToLower(lang)
	}
}
