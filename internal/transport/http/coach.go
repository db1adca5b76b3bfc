package http

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/nadzzz/habla/internal/coach"
	speechopenai "github.com/nadzzz/habla/internal/speech/openai"
)

// pronunciationRequest is the JSON form of POST /api/pronunciation.
type pronunciationRequest struct {
	Expected    string `json:"expected"`
	Audio       []byte `json:"audio" swaggertype:"string" format:"base64"`
	ContentType string `json:"contentType,omitempty"`
	Language    string `json:"language,omitempty"`
	Feedback    bool   `json:"feedback,omitempty"`
	Reference   bool   `json:"reference,omitempty"`
}

// readAloudRequest is the body of POST /api/read-aloud.
type readAloudRequest struct {
	Text     string `json:"text"`
	Language string `json:"language,omitempty"`
}

// handlePronunciation processes a POST /api/pronunciation request.
//
// @Summary     Score a read-aloud attempt
// @Description Accepts a JSON body with base64 audio, or raw audio bytes with the passage in the
// @Description X-Habla-Expected-Text header (URL-encoded). The attempt is transcribed and compared
// @Description word by word with the passage, ignoring case, accents and punctuation.
// @Tags        coach
// @Accept      json
// @Accept      audio/webm
// @Accept      audio/wav
// @Produce     json
// @Param       request               body    pronunciationRequest  true   "Attempt (JSON). For raw audio, POST the bytes directly with the appropriate Content-Type."
// @Param       X-Habla-Expected-Text  header  string  false  "Passage being read (raw audio uploads)"
// @Param       X-Habla-Language       header  string  false  "Language tag, e.g. es-MX (raw audio uploads)"
// @Param       X-Habla-Feedback       header  bool    false  "Request written feedback (raw audio uploads)"
// @Success     200  {object}  coach.Assessment
// @Failure     400  {object}  errorResponse  "Invalid attempt"
// @Failure     413  {object}  errorResponse  "Audio too large"
// @Failure     500  {object}  errorResponse  "API key not configured or upstream failure"
// @Router      /api/pronunciation [post]
func (t *Transport) handlePronunciation(w http.ResponseWriter, r *http.Request) {
	var attempt coach.Attempt

	contentType := r.Header.Get("Content-Type")
	switch {
	case strings.HasPrefix(contentType, "application/json"):
		var req pronunciationRequest
		// Base64 inflates audio by a third.
		body := http.MaxBytesReader(w, r.Body, t.maxAudioBytes*4/3+maxBodyBytes)
		if err := json.NewDecoder(body).Decode(&req); err != nil {
			writeBodyError(w, err)
			return
		}
		attempt = coach.Attempt{
			Expected:    req.Expected,
			Audio:       req.Audio,
			ContentType: req.ContentType,
			Language:    req.Language,
			Feedback:    req.Feedback,
			Reference:   req.Reference,
		}
	default:
		// Treat body as raw audio; read the passage from headers.
		audio, err := io.ReadAll(http.MaxBytesReader(w, r.Body, t.maxAudioBytes))
		if err != nil {
			writeBodyError(w, err)
			return
		}
		expected, err := url.QueryUnescape(r.Header.Get("X-Habla-Expected-Text"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "Invalid X-Habla-Expected-Text header")
			return
		}
		feedback, _ := strconv.ParseBool(r.Header.Get("X-Habla-Feedback"))
		attempt = coach.Attempt{
			Expected:    expected,
			Audio:       audio,
			ContentType: contentType,
			Language:    r.Header.Get("X-Habla-Language"),
			Feedback:    feedback,
		}
	}

	res, err := t.svc.Coach.Assess(r.Context(), attempt)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, res)
	case errors.Is(err, coach.ErrInvalidAttempt):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, speechopenai.ErrMissingAPIKey):
		slog.Error("pronunciation check without api key")
		writeError(w, http.StatusInternalServerError, "API key not configured")
	default:
		slog.Error("error assessing pronunciation", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to assess pronunciation")
	}
}

// writeBodyError rejects an unreadable upload, with 413 when it was too big.
func writeBodyError(w http.ResponseWriter, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		writeError(w, http.StatusRequestEntityTooLarge, "Audio too large")
		return
	}
	writeError(w, http.StatusBadRequest, "Invalid request body")
}

// handleReadAloud processes a POST /api/read-aloud request.
//
// @Summary     Reference reading of a passage
// @Description Synthesizes the passage with a Spanish voice and returns WAV audio.
// @Tags        coach
// @Accept      json
// @Produce     audio/wav
// @Param       request  body      readAloudRequest  true  "Passage and optional language tag"
// @Success     200  {file}    binary
// @Failure     400  {object}  errorResponse  "Text required"
// @Failure     503  {object}  errorResponse  "Text-to-speech is disabled"
// @Failure     500  {object}  errorResponse  "Synthesis failure"
// @Router      /api/read-aloud [post]
func (t *Transport) handleReadAloud(w http.ResponseWriter, r *http.Request) {
	var req readAloudRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	res, err := t.svc.Coach.Reference(r.Context(), req.Text, req.Language)
	switch {
	case err == nil:
		w.Header().Set("Content-Type", res.ContentType)
		w.Header().Set("Content-Length", strconv.Itoa(len(res.Audio)))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(res.Audio)
	case errors.Is(err, coach.ErrTTSDisabled):
		writeError(w, http.StatusServiceUnavailable, "Text-to-speech is disabled")
	case errors.Is(err, coach.ErrInvalidAttempt):
		writeError(w, http.StatusBadRequest, "Text required")
	default:
		slog.Error("error synthesizing reference audio", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to synthesize audio")
	}
}
