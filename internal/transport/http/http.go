// Package http implements the HTTP API transport for habla.
//
// The browser talks to this transport for everything except the realtime
// audio stream itself: news search and retrieval, realtime session tokens,
// persona configuration, practice session state and pronunciation coaching.
// Error responses are always a JSON object with a single "error" field.
package http

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strconv"
	"time"

	"github.com/nadzzz/habla/internal/coach"
	"github.com/nadzzz/habla/internal/config"
	"github.com/nadzzz/habla/internal/metrics"
	"github.com/nadzzz/habla/internal/model"
	"github.com/nadzzz/habla/internal/persona"
	"github.com/nadzzz/habla/internal/ratelimit"
	"github.com/nadzzz/habla/internal/session"
	"github.com/nadzzz/habla/internal/tts"

	_ "github.com/nadzzz/habla/docs"
	httpSwagger "github.com/swaggo/http-swagger/v2"
)

// maxBodyBytes bounds JSON request bodies; audio uploads use maxAudioBytes.
const (
	maxBodyBytes  = 1 << 20
	maxAudioBytes = 25 << 20
)

// NewsService searches and retrieves news articles.
type NewsService interface {
	Search(ctx context.Context) ([]model.Article, error)
	Retrieve(ctx context.Context, id string) (string, error)
}

// TokenIssuer mints realtime session tokens.
type TokenIssuer interface {
	CreateToken(ctx context.Context) (*model.SessionToken, error)
}

// PersonaResolver returns the agent graph for a practice mode.
type PersonaResolver interface {
	ForMode(mode model.Mode, article *model.Article) (persona.Graph, error)
}

// SessionManager applies practice session transitions.
type SessionManager interface {
	Create(ctx context.Context) (*session.Session, error)
	Get(ctx context.Context, id string) (*session.Session, error)
	Start(ctx context.Context, id string, mode model.Mode, article *model.Article) (*session.StartResult, error)
	UpdateHistory(ctx context.Context, id string, items []model.HistoryItem) (*session.Session, error)
	Transcript(ctx context.Context, id string) ([]model.TranscriptLine, error)
	End(ctx context.Context, id string) (*session.Session, error)
	Delete(ctx context.Context, id string) error
}

// Coach scores read-aloud attempts and produces reference readings.
type Coach interface {
	Assess(ctx context.Context, a coach.Attempt) (*coach.Assessment, error)
	Reference(ctx context.Context, text, language string) (*tts.SynthesizeResult, error)
}

// Services are the backends the HTTP API serves.
type Services struct {
	News     NewsService
	Tokens   TokenIssuer
	Personas PersonaResolver
	Sessions SessionManager
	Coach    Coach

	// Limiter throttles token-minting routes per client IP. Nil disables it.
	Limiter *ratelimit.Limiter
}

// Transport implements transport.Transport over HTTP.
type Transport struct {
	port           int
	allowedOrigins []string
	svc            Services
	maxAudioBytes  int64
	server         *http.Server
}

// New creates a new HTTP transport.
func New(cfg config.HTTPConfig, svc Services) *Transport {
	return &Transport{
		port:           cfg.Port,
		allowedOrigins: cfg.AllowedOrigins,
		svc:            svc,
		maxAudioBytes:  maxAudioBytes,
	}
}

// Name returns the transport identifier.
func (t *Transport) Name() string { return "http" }

// Handler returns the API routes wrapped with CORS handling.
func (t *Transport) Handler() http.Handler {
	mux := http.NewServeMux()

	t.route(mux, "GET /api/spanish-news", t.handleSpanishNews)
	t.route(mux, "GET /api/retrieve-article", t.handleRetrieveArticle)
	t.route(mux, "POST /api/session-token", t.limited(t.handleSessionToken))
	t.route(mux, "GET /api/agents", t.handleAgents)

	t.route(mux, "POST /api/sessions", t.handleCreateSession)
	t.route(mux, "GET /api/sessions/{id}", t.handleGetSession)
	t.route(mux, "DELETE /api/sessions/{id}", t.handleDeleteSession)
	t.route(mux, "POST /api/sessions/{id}/start", t.limited(t.handleStartSession))
	t.route(mux, "PUT /api/sessions/{id}/history", t.handleUpdateHistory)
	t.route(mux, "GET /api/sessions/{id}/transcript", t.handleTranscript)
	t.route(mux, "POST /api/sessions/{id}/end", t.handleEndSession)

	t.route(mux, "POST /api/pronunciation", t.handlePronunciation)
	t.route(mux, "POST /api/read-aloud", t.handleReadAloud)

	// Swagger UI for the generated OpenAPI docs.
	mux.Handle("GET /swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	return t.cors(mux)
}

// Listen starts the HTTP server. It blocks until the context is cancelled.
func (t *Transport) Listen(ctx context.Context) error {
	t.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", t.port),
		Handler:           t.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	slog.Info("http transport listening", "port", t.port)

	go func() {
		<-ctx.Done()
		slog.Info("http transport shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = t.server.Shutdown(shutdownCtx)
	}()

	if err := t.server.ListenAndServe(); err != http.ErrServerClosed {
		return fmt.Errorf("http listen: %w", err)
	}
	return nil
}

// Close gracefully shuts down the HTTP server.
func (t *Transport) Close() error {
	if t.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return t.server.Shutdown(ctx)
	}
	return nil
}

// route registers h under pattern and counts responses by pattern and code.
func (t *Transport) route(mux *http.ServeMux, pattern string, h http.HandlerFunc) {
	mux.Handle(pattern, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, code: http.StatusOK}
		h(rec, r)
		metrics.RecordHTTP(pattern, rec.code)
	}))
}

func (t *Transport) limited(h http.HandlerFunc) http.HandlerFunc {
	if t.svc.Limiter == nil {
		return h
	}
	return t.svc.Limiter.Wrap(h).ServeHTTP
}

// cors answers preflight requests and tags responses for allowed origins.
// An origin list containing "*" allows every origin.
func (t *Transport) cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		allowed := origin != "" && (slices.Contains(t.allowedOrigins, "*") || slices.Contains(t.allowedOrigins, origin))
		if allowed {
			h := w.Header()
			h.Set("Access-Control-Allow-Origin", origin)
			h.Add("Vary", "Origin")
			h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			h.Set("Access-Control-Allow-Headers", "Content-Type, X-Habla-Expected-Text, X-Habla-Language, X-Habla-Feedback")
			h.Set("Access-Control-Max-Age", strconv.Itoa(600))
		}
		if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
			if allowed {
				w.WriteHeader(http.StatusNoContent)
			} else {
				w.WriteHeader(http.StatusForbidden)
			}
			return
		}
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	code int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.code = code
	r.ResponseWriter.WriteHeader(code)
}

// errorResponse is the body of every failed request.
type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, errorResponse{Error: msg})
}

// decodeJSON reads a bounded JSON body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	return json.NewDecoder(r.Body).Decode(v)
}
