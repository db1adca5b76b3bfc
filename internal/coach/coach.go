// Package coach implements pronunciation coaching for read-aloud practice.
//
// An attempt runs through a fixed pipeline: transcribe the learner's audio,
// align the transcript against the text they were reading, then optionally
// add written feedback and a reference reading. Feedback and reference audio
// are best effort; the alignment is always returned when transcription works.
package coach

import (
	"cmp"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/nadzzz/habla/internal/speech"
	"github.com/nadzzz/habla/internal/tts"
)

var (
	// ErrInvalidAttempt is returned when an attempt has no expected text or no audio.
	ErrInvalidAttempt = errors.New("invalid attempt")

	// ErrTTSDisabled is returned by Reference when no synthesizer is configured.
	ErrTTSDisabled = errors.New("text-to-speech is disabled")
)

// Attempt is one recorded reading of a passage.
type Attempt struct {
	Expected    string
	Audio       []byte
	ContentType string

	// Language overrides the coach's default language hint, e.g. "es-AR".
	Language string

	// Feedback requests written coaching from the advisor.
	Feedback bool

	// Reference requests a synthesized reading of the expected text.
	Reference bool
}

// Assessment is the result of comparing an attempt with its expected text.
type Assessment struct {
	Transcript string       `json:"transcript"`
	Language   string       `json:"language,omitempty"`
	Accuracy   float64      `json:"accuracy"`
	Words      []WordResult `json:"words"`
	Missed     []string     `json:"missed"`
	Extra      []string     `json:"extra"`
	Feedback   string       `json:"feedback,omitempty"`

	// ReferenceAudio is base64-encoded WAV audio of the expected text.
	ReferenceAudio       string `json:"referenceAudio,omitempty"`
	ReferenceContentType string `json:"referenceContentType,omitempty"`
}

// Coach scores reading attempts.
type Coach struct {
	transcriber speech.Transcriber
	advisor     speech.Advisor  // nil disables feedback
	synthesizer tts.Synthesizer // nil if TTS is disabled
	language    string
}

// New creates a Coach. advisor and synthesizer may be nil.
func New(transcriber speech.Transcriber, advisor speech.Advisor, synthesizer tts.Synthesizer, language string) *Coach {
	return &Coach{
		transcriber: transcriber,
		advisor:     advisor,
		synthesizer: synthesizer,
		language:    cmp.Or(language, "es"),
	}
}

// CanSpeak reports whether reference audio is available.
func (c *Coach) CanSpeak() bool {
	return c.synthesizer != nil
}

// Assess transcribes an attempt and scores it word by word.
func (c *Coach) Assess(ctx context.Context, a Attempt) (*Assessment, error) {
	expected := tokenize(a.Expected)
	switch {
	case len(expected) == 0:
		return nil, fmt.Errorf("%w: expected text is empty", ErrInvalidAttempt)
	case len(expected) > maxWords:
		return nil, fmt.Errorf("%w: expected text exceeds %d words", ErrInvalidAttempt, maxWords)
	case len(a.Audio) == 0:
		return nil, fmt.Errorf("%w: audio is empty", ErrInvalidAttempt)
	}

	start := time.Now()
	lang := cmp.Or(a.Language, c.language)
	logger := slog.With("language", lang, "words", len(expected))

	logger.Debug("transcribing attempt", "content_type", a.ContentType, "bytes", len(a.Audio))
	res, err := c.transcriber.Transcribe(ctx, a.Audio, a.ContentType, speech.TranscribeOpts{
		Language: lang,
		Prompt:   a.Expected,
	})
	if err != nil {
		return nil, fmt.Errorf("transcribing attempt: %w", err)
	}

	heard := tokenize(res.Text)
	if len(heard) > maxWords*2 {
		heard = heard[:maxWords*2]
	}
	al := align(expected, heard)

	out := &Assessment{
		Transcript: res.Text,
		Language:   res.Language,
		Accuracy:   al.Accuracy,
		Words:      al.Words,
		Missed:     nonNil(al.Missed),
		Extra:      nonNil(al.Extra),
	}

	if a.Feedback && c.advisor != nil {
		fb, err := c.advisor.Advise(ctx, speech.FeedbackRequest{
			Expected: a.Expected,
			Heard:    res.Text,
			Missed:   out.Missed,
			Extra:    out.Extra,
			Accuracy: out.Accuracy,
		})
		if err != nil {
			logger.Warn("feedback failed, continuing without it", "error", err)
		} else {
			out.Feedback = fb
		}
	}

	if a.Reference && c.synthesizer != nil {
		ref, err := c.Reference(ctx, a.Expected, lang)
		if err != nil {
			logger.Warn("reference synthesis failed, continuing without audio", "error", err)
		} else {
			out.ReferenceAudio = base64.StdEncoding.EncodeToString(ref.Audio)
			out.ReferenceContentType = ref.ContentType
		}
	}

	logger.Info("attempt assessed", "accuracy", out.Accuracy, "missed", len(out.Missed),
		"extra", len(out.Extra), "duration", time.Since(start))
	return out, nil
}

// Reference synthesizes a reading of text in the given language.
func (c *Coach) Reference(ctx context.Context, text, language string) (*tts.SynthesizeResult, error) {
	if c.synthesizer == nil {
		return nil, ErrTTSDisabled
	}
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: text is empty", ErrInvalidAttempt)
	}
	return c.synthesizer.Synthesize(ctx, text, tts.SynthesizeOpts{
		Language: cmp.Or(language, c.language),
	})
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
