// Package speech defines the interfaces for the speech-to-text and feedback
// backends used by pronunciation coaching.
package speech

import "context"

// TranscribeOpts controls transcription behavior.
type TranscribeOpts struct {
	// Language is the ISO-639-1 code (e.g., "es") to guide transcription.
	Language string

	// Prompt provides context to improve recognition, such as the text the
	// learner is reading.
	Prompt string
}

// TranscribeResult holds the output of transcription.
type TranscribeResult struct {
	Text     string
	Language string
}

// Transcriber converts recorded speech to text.
type Transcriber interface {
	// Name returns the backend identifier (e.g., "openai").
	Name() string

	// Transcribe converts audio bytes of the given MIME type to text.
	Transcribe(ctx context.Context, audio []byte, contentType string, opts TranscribeOpts) (*TranscribeResult, error)
}

// FeedbackRequest describes one reading attempt to comment on.
type FeedbackRequest struct {
	Expected string
	Heard    string
	Missed   []string
	Extra    []string
	Accuracy float64
}

// Advisor writes short natural-language coaching feedback.
type Advisor interface {
	Advise(ctx context.Context, req FeedbackRequest) (string, error)
}
