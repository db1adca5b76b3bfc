package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/nadzzz/habla/internal/model"
	"github.com/nadzzz/habla/internal/news"
	"github.com/nadzzz/habla/internal/realtime"
	"github.com/nadzzz/habla/internal/session"
)

// startRequest is the body of POST /api/sessions/{id}/start. News mode takes
// the article summary from the search results, or just its ID.
type startRequest struct {
	Mode      model.Mode     `json:"mode"`
	Article   *model.Article `json:"article,omitempty"`
	ArticleID int64          `json:"articleId,omitempty"`
}

// historyRequest is the body of PUT /api/sessions/{id}/history.
type historyRequest struct {
	History []model.HistoryItem `json:"history"`
}

// transcriptResponse is the body of GET /api/sessions/{id}/transcript.
type transcriptResponse struct {
	Transcript []model.TranscriptLine `json:"transcript"`
}

// writeSessionError maps session and upstream errors to responses.
func writeSessionError(w http.ResponseWriter, logger *slog.Logger, err error) {
	switch {
	case errors.Is(err, session.ErrNotFound):
		writeError(w, http.StatusNotFound, "Session not found")
	case errors.Is(err, session.ErrAlreadyConnected):
		writeError(w, http.StatusConflict, "Session already connected")
	case errors.Is(err, session.ErrNotConnected):
		writeError(w, http.StatusConflict, "Session not connected")
	case errors.Is(err, session.ErrInvalidMode):
		writeError(w, http.StatusBadRequest, "Invalid mode")
	case errors.Is(err, session.ErrArticleRequired):
		writeError(w, http.StatusBadRequest, "Article required")
	case errors.Is(err, news.ErrNotFound):
		writeError(w, http.StatusNotFound, "Article not found")
	case errors.Is(err, news.ErrMissingAPIKey), errors.Is(err, realtime.ErrMissingAPIKey):
		logger.Error("session request without api key", "error", err)
		writeError(w, http.StatusInternalServerError, "API key not configured")
	default:
		logger.Error("session request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Session request failed")
	}
}

// handleCreateSession processes a POST /api/sessions request.
//
// @Summary     Create a practice session
// @Description Opens a session on the mode-selection screen.
// @Tags        sessions
// @Produce     json
// @Success     201  {object}  session.Session
// @Failure     500  {object}  errorResponse
// @Router      /api/sessions [post]
func (t *Transport) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	s, err := t.svc.Sessions.Create(r.Context())
	if err != nil {
		writeSessionError(w, slog.Default(), err)
		return
	}
	writeJSON(w, http.StatusCreated, s)
}

// handleGetSession processes a GET /api/sessions/{id} request.
//
// @Summary     Get a practice session
// @Tags        sessions
// @Produce     json
// @Param       id   path      string  true  "Session ID"
// @Success     200  {object}  session.Session
// @Failure     404  {object}  errorResponse  "Session not found"
// @Router      /api/sessions/{id} [get]
func (t *Transport) handleGetSession(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	s, err := t.svc.Sessions.Get(r.Context(), id)
	if err != nil {
		writeSessionError(w, slog.With("session_id", id), err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

// handleDeleteSession processes a DELETE /api/sessions/{id} request.
//
// @Summary     Delete a practice session
// @Tags        sessions
// @Param       id   path  string  true  "Session ID"
// @Success     204
// @Failure     500  {object}  errorResponse
// @Router      /api/sessions/{id} [delete]
func (t *Transport) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := t.svc.Sessions.Delete(r.Context(), id); err != nil {
		writeSessionError(w, slog.With("session_id", id), err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleStartSession processes a POST /api/sessions/{id}/start request.
//
// @Summary     Start conversation or news practice
// @Description Switches the session into the requested mode, mints a realtime token and returns
// @Description the agent personas to configure the realtime session with. News mode fetches the
// @Description article body and hands it to the coach persona.
// @Tags        sessions
// @Accept      json
// @Produce     json
// @Param       id       path      string        true  "Session ID"
// @Param       request  body      startRequest  true  "Mode and, for news, the selected article"
// @Success     200  {object}  session.StartResult
// @Failure     400  {object}  errorResponse  "Invalid mode or missing article"
// @Failure     404  {object}  errorResponse  "Session or article not found"
// @Failure     409  {object}  errorResponse  "Session already connected"
// @Failure     429  {object}  errorResponse  "Too many requests"
// @Failure     500  {object}  errorResponse  "API key not configured or upstream failure"
// @Router      /api/sessions/{id}/start [post]
func (t *Transport) handleStartSession(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	logger := slog.With("session_id", id)

	var req startRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	article := req.Article
	if article == nil && req.ArticleID != 0 {
		article = &model.Article{ID: req.ArticleID}
	}

	res, err := t.svc.Sessions.Start(r.Context(), id, req.Mode, article)
	if err != nil {
		writeSessionError(w, logger, err)
		return
	}
	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, http.StatusOK, res)
}

// handleUpdateHistory processes a PUT /api/sessions/{id}/history request.
//
// @Summary     Replace the conversation history
// @Description Stores the history items reported by the browser's realtime SDK as received.
// @Tags        sessions
// @Accept      json
// @Produce     json
// @Param       id       path      string          true  "Session ID"
// @Param       request  body      historyRequest  true  "History items"
// @Success     200  {object}  session.Session
// @Failure     400  {object}  errorResponse  "Invalid request body"
// @Failure     404  {object}  errorResponse  "Session not found"
// @Failure     409  {object}  errorResponse  "Session not connected"
// @Router      /api/sessions/{id}/history [put]
func (t *Transport) handleUpdateHistory(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var req historyRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	s, err := t.svc.Sessions.UpdateHistory(r.Context(), id, req.History)
	if err != nil {
		writeSessionError(w, slog.With("session_id", id), err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

// handleTranscript processes a GET /api/sessions/{id}/transcript request.
//
// @Summary     Conversation transcript
// @Description Derives speaker-labelled lines from the audio transcripts of message items.
// @Tags        sessions
// @Produce     json
// @Param       id   path      string  true  "Session ID"
// @Success     200  {object}  transcriptResponse
// @Failure     404  {object}  errorResponse  "Session not found"
// @Router      /api/sessions/{id}/transcript [get]
func (t *Transport) handleTranscript(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	lines, err := t.svc.Sessions.Transcript(r.Context(), id)
	if err != nil {
		writeSessionError(w, slog.With("session_id", id), err)
		return
	}
	if lines == nil {
		lines = []model.TranscriptLine{}
	}
	writeJSON(w, http.StatusOK, transcriptResponse{Transcript: lines})
}

// handleEndSession processes a POST /api/sessions/{id}/end request.
//
// @Summary     End practice
// @Description Returns the session to mode selection with an empty history.
// @Tags        sessions
// @Produce     json
// @Param       id   path      string  true  "Session ID"
// @Success     200  {object}  session.Session
// @Failure     404  {object}  errorResponse  "Session not found"
// @Router      /api/sessions/{id}/end [post]
func (t *Transport) handleEndSession(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	s, err := t.svc.Sessions.End(r.Context(), id)
	if err != nil {
		writeSessionError(w, slog.With("session_id", id), err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}
