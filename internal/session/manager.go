package session

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/nadzzz/habla/internal/model"
	"github.com/nadzzz/habla/internal/persona"
)

// TokenIssuer mints realtime session tokens.
type TokenIssuer interface {
	CreateToken(ctx context.Context) (*model.SessionToken, error)
	Model() string
}

// ArticleSource retrieves full article bodies by ID.
type ArticleSource interface {
	Retrieve(ctx context.Context, id string) (string, error)
}

// Personas resolves the realtime agents for a mode.
type Personas interface {
	ForMode(mode model.Mode, article *model.Article) (persona.Graph, error)
	Speaker(mode model.Mode) string
}

// StartResult is everything the browser needs to open its realtime session.
type StartResult struct {
	Session *Session            `json:"session"`
	Token   *model.SessionToken `json:"token"`
	Model   string              `json:"model"`
	Agents  persona.Graph       `json:"agents"`
}

// Manager applies session transitions on top of a Store.
type Manager struct {
	store    Store
	tokens   TokenIssuer
	articles ArticleSource
	personas Personas
	locks    keyedMutex
	now      func() time.Time
}

// NewManager creates a session manager.
func NewManager(store Store, tokens TokenIssuer, articles ArticleSource, personas Personas) *Manager {
	return &Manager{
		store:    store,
		tokens:   tokens,
		articles: articles,
		personas: personas,
		locks:    keyedMutex{locks: make(map[string]*refLock)},
		now:      time.Now,
	}
}

// Create opens a new session on the mode-selection screen.
func (m *Manager) Create(ctx context.Context) (*Session, error) {
	now := m.now().UTC()
	s := &Session{
		ID:        uuid.NewString(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.reset()

	if err := m.store.Save(ctx, s); err != nil {
		return nil, fmt.Errorf("saving session: %w", err)
	}
	slog.Info("session created", "session_id", s.ID)
	return s, nil
}

// Get returns the session.
func (m *Manager) Get(ctx context.Context, id string) (*Session, error) {
	return m.store.Get(ctx, id)
}

// Start moves a session into conversation or news mode and mints the
// realtime token for it. News mode needs the article summary the learner
// picked; its full content is fetched and merged into the summary. If any
// step fails the session is left untouched and unconnected.
func (m *Manager) Start(ctx context.Context, id string, mode model.Mode, article *model.Article) (*StartResult, error) {
	unlock := m.locks.Lock(id)
	defer unlock()

	logger := slog.With("session_id", id, "mode", mode)

	s, err := m.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.Connected {
		return nil, ErrAlreadyConnected
	}

	var selected *model.Article
	switch mode {
	case model.ModeConversation:
	case model.ModeNews:
		if article == nil || article.ID == 0 {
			return nil, ErrArticleRequired
		}
		content, err := m.articles.Retrieve(ctx, strconv.FormatInt(article.ID, 10))
		if err != nil {
			return nil, fmt.Errorf("retrieving article: %w", err)
		}
		merged := article.WithContent(content)
		selected = &merged
	default:
		return nil, ErrInvalidMode
	}

	agents, err := m.personas.ForMode(mode, selected)
	if err != nil {
		return nil, fmt.Errorf("resolving personas: %w", err)
	}

	token, err := m.tokens.CreateToken(ctx)
	if err != nil {
		logger.Error("error creating session token", "error", err)
		return nil, fmt.Errorf("creating session token: %w", err)
	}

	s.Mode = mode
	s.Connected = true
	s.History = []model.HistoryItem{}
	s.Article = selected
	s.UpdatedAt = m.now().UTC()

	if err := m.store.Save(ctx, s); err != nil {
		return nil, fmt.Errorf("saving session: %w", err)
	}

	logger.Info("session started", "agent", agents.Root)
	return &StartResult{
		Session: s,
		Token:   token,
		Model:   m.tokens.Model(),
		Agents:  agents,
	}, nil
}

// UpdateHistory replaces the conversation history with the items reported by
// the realtime SDK. Items are stored as received.
func (m *Manager) UpdateHistory(ctx context.Context, id string, items []model.HistoryItem) (*Session, error) {
	unlock := m.locks.Lock(id)
	defer unlock()

	s, err := m.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.Connected {
		return nil, ErrNotConnected
	}

	if items == nil {
		items = []model.HistoryItem{}
	}
	s.History = items
	s.UpdatedAt = m.now().UTC()

	if err := m.store.Save(ctx, s); err != nil {
		return nil, fmt.Errorf("saving session: %w", err)
	}
	return s, nil
}

// Transcript renders the spoken lines of the session's history.
func (m *Manager) Transcript(ctx context.Context, id string) ([]model.TranscriptLine, error) {
	s, err := m.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return BuildTranscript(s.History, m.personas.Speaker(s.Mode)), nil
}

// End closes the session's realtime connection and returns it to the
// mode-selection screen with an empty history. Ending an idle session is
// not an error.
func (m *Manager) End(ctx context.Context, id string) (*Session, error) {
	unlock := m.locks.Lock(id)
	defer unlock()

	s, err := m.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	wasConnected := s.Connected
	s.reset()
	s.UpdatedAt = m.now().UTC()

	if err := m.store.Save(ctx, s); err != nil {
		return nil, fmt.Errorf("saving session: %w", err)
	}
	slog.Info("session ended", "session_id", id, "was_connected", wasConnected)
	return s, nil
}

// Delete forgets the session.
func (m *Manager) Delete(ctx context.Context, id string) error {
	unlock := m.locks.Lock(id)
	defer unlock()
	return m.store.Delete(ctx, id)
}

// BuildTranscript derives display lines from history. Only message items
// count; each uses the transcript of its first audio content part, and items
// without a transcript are skipped.
func BuildTranscript(history []model.HistoryItem, assistantSpeaker string) []model.TranscriptLine {
	return lo.FilterMap(history, func(item model.HistoryItem, _ int) (model.TranscriptLine, bool) {
		if !item.IsMessage() {
			return model.TranscriptLine{}, false
		}
		text := audioTranscript(item)
		if text == "" {
			return model.TranscriptLine{}, false
		}
		speaker := "You"
		if item.Role != model.RoleUser {
			speaker = assistantSpeaker
		}
		return model.TranscriptLine{
			ItemID:  item.ItemID,
			Role:    item.Role,
			Speaker: speaker,
			Text:    text,
		}, true
	})
}

func audioTranscript(item model.HistoryItem) string {
	part, ok := lo.Find(item.Content, func(c model.ContentPart) bool {
		return c.Type == model.ContentInputAudio || c.Type == model.ContentOutputAudio
	})
	if !ok {
		return ""
	}
	return part.Transcript
}

// keyedMutex serializes transitions per session ID.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*refLock
}

type refLock struct {
	sync.Mutex
	refs int
}

// Lock acquires the lock for key and returns its release func.
func (k *keyedMutex) Lock(key string) func() {
	k.mu.Lock()
	l, ok := k.locks[key]
	if !ok {
		l = &refLock{}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()

	l.Lock()
	return func() {
		l.Unlock()
		k.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
