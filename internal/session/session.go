// Package session tracks practice sessions: which screen the learner is on,
// whether a realtime voice connection is open, and the conversation history
// the browser's realtime SDK reports.
//
// A session starts on the mode-selection screen. Starting conversation or
// news mode mints a realtime token; ending always drops back to mode
// selection with an empty history.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/nadzzz/habla/internal/model"
)

var (
	// ErrNotFound is returned for unknown or expired session IDs.
	ErrNotFound = errors.New("session not found")

	// ErrAlreadyConnected is returned when starting a session that is live.
	ErrAlreadyConnected = errors.New("session already connected")

	// ErrNotConnected is returned when history arrives for a session that is not live.
	ErrNotConnected = errors.New("session not connected")

	// ErrInvalidMode is returned when starting with a mode other than conversation or news.
	ErrInvalidMode = errors.New("invalid session mode")

	// ErrArticleRequired is returned when news mode is started without an article.
	ErrArticleRequired = errors.New("news mode requires an article")
)

// Session is the state of one learner's practice screen.
type Session struct {
	ID        string              `json:"id"`
	Mode      model.Mode          `json:"mode"`
	Connected bool                `json:"connected"`
	History   []model.HistoryItem `json:"history"`
	Article   *model.Article      `json:"article,omitempty"`
	CreatedAt time.Time           `json:"createdAt"`
	UpdatedAt time.Time           `json:"updatedAt"`
}

// reset returns the session to the mode-selection screen.
func (s *Session) reset() {
	s.Mode = model.ModeSelect
	s.Connected = false
	s.History = []model.HistoryItem{}
	s.Article = nil
}

// clone returns a copy that shares no mutable state with s.
func (s *Session) clone() *Session {
	c := *s
	c.History = append([]model.HistoryItem{}, s.History...)
	for i := range c.History {
		c.History[i].Content = append([]model.ContentPart(nil), c.History[i].Content...)
		c.History[i].Raw = append(json.RawMessage(nil), c.History[i].Raw...)
	}
	if s.Article != nil {
		a := *s.Article
		c.Article = &a
	}
	return &c
}

// Store persists sessions.
type Store interface {
	// Get returns the session or ErrNotFound.
	Get(ctx context.Context, id string) (*Session, error)

	// Save creates or replaces the session.
	Save(ctx context.Context, s *Session) error

	// Delete removes the session. Deleting a missing session is a no-op.
	Delete(ctx context.Context, id string) error
}
