package http

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/nadzzz/habla/internal/model"
	"github.com/nadzzz/habla/internal/realtime"
)

// handleSessionToken processes a POST /api/session-token request.
//
// @Summary     Mint a realtime session token
// @Description Issues a short-lived credential the browser uses once to open its realtime voice connection.
// @Tags        realtime
// @Produce     json
// @Success     200  {object}  model.SessionToken
// @Failure     429  {object}  errorResponse  "Too many requests"
// @Failure     500  {object}  errorResponse  "API key not configured or upstream failure"
// @Router      /api/session-token [post]
func (t *Transport) handleSessionToken(w http.ResponseWriter, r *http.Request) {
	token, err := t.svc.Tokens.CreateToken(r.Context())
	switch {
	case err == nil:
		w.Header().Set("Cache-Control", "no-store")
		writeJSON(w, http.StatusOK, token)
	case errors.Is(err, realtime.ErrMissingAPIKey):
		slog.Error("session token requested without api key")
		writeError(w, http.StatusInternalServerError, "API key not configured")
	default:
		slog.Error("error creating session token", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to create session token")
	}
}

// handleAgents processes a GET /api/agents request.
//
// @Summary     Realtime agent personas for a mode
// @Description Returns the root agent and every agent it can hand off to.
// @Tags        realtime
// @Produce     json
// @Param       mode  query     string  true  "Practice mode"  Enums(conversation, news)
// @Success     200   {object}  persona.Graph
// @Failure     400   {object}  errorResponse  "Invalid mode"
// @Router      /api/agents [get]
func (t *Transport) handleAgents(w http.ResponseWriter, r *http.Request) {
	mode := model.Mode(r.URL.Query().Get("mode"))
	graph, err := t.svc.Personas.ForMode(mode, nil)
	if err != nil {
		slog.Debug("no agents for mode", "mode", mode, "error", err)
		writeError(w, http.StatusBadRequest, "Invalid mode")
		return
	}
	writeJSON(w, http.StatusOK, graph)
}
