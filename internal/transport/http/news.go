package http

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/nadzzz/habla/internal/model"
	"github.com/nadzzz/habla/internal/news"
)

// articlesResponse is the body of a news search.
type articlesResponse struct {
	Articles []model.Article `json:"articles"`
}

// contentResponse is the body of an article retrieval.
type contentResponse struct {
	Content string `json:"content"`
}

// handleSpanishNews processes a GET /api/spanish-news request.
//
// @Summary     Search Spanish-language news
// @Description Returns recent Spanish-language articles from Mexico, Argentina and Colombia.
// @Description When the news provider answers with an error status the article list is empty.
// @Tags        news
// @Produce     json
// @Success     200  {object}  articlesResponse
// @Failure     500  {object}  errorResponse  "API key not configured or upstream failure"
// @Router      /api/spanish-news [get]
func (t *Transport) handleSpanishNews(w http.ResponseWriter, r *http.Request) {
	articles, err := t.svc.News.Search(r.Context())
	var statusErr *news.StatusError
	switch {
	case err == nil:
	case errors.Is(err, news.ErrMissingAPIKey):
		slog.Error("news search without api key")
		writeError(w, http.StatusInternalServerError, "API key not configured")
		return
	case errors.As(err, &statusErr):
		slog.Warn("news upstream error", "status", statusErr.Code)
		articles = []model.Article{}
	default:
		slog.Error("error fetching news", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to fetch news")
		return
	}
	if articles == nil {
		articles = []model.Article{}
	}
	writeJSON(w, http.StatusOK, articlesResponse{Articles: articles})
}

// handleRetrieveArticle processes a GET /api/retrieve-article request.
//
// @Summary     Retrieve an article body
// @Description Returns the full text of an article, falling back to its summary.
// @Tags        news
// @Produce     json
// @Param       id   query     string  true  "Article ID"
// @Success     200  {object}  contentResponse
// @Failure     400  {object}  errorResponse  "ID required"
// @Failure     404  {object}  errorResponse  "Article not found"
// @Failure     500  {object}  errorResponse  "API key not configured or upstream failure"
// @Router      /api/retrieve-article [get]
func (t *Transport) handleRetrieveArticle(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.URL.Query().Get("id"))
	if id == "" {
		writeError(w, http.StatusBadRequest, "ID required")
		return
	}

	logger := slog.With("article_id", id)
	content, err := t.svc.News.Retrieve(r.Context(), id)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, contentResponse{Content: content})
	case errors.Is(err, news.ErrNotFound):
		writeError(w, http.StatusNotFound, "Article not found")
	case errors.Is(err, news.ErrMissingAPIKey):
		logger.Error("article retrieval without api key")
		writeError(w, http.StatusInternalServerError, "API key not configured")
	default:
		logger.Error("error retrieving article", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to retrieve article")
	}
}
