// Package model defines the data types exchanged between the browser, this
// server and the upstream realtime and news providers.
package model

import (
	"encoding/json"
	"time"
)

// Article is a news article summary as returned by the news search endpoint.
// Content stays empty until the full body is retrieved by ID.
type Article struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Content     string `json:"content"`
	URL         string `json:"url"`
	Source      string `json:"source"`
	PublishedAt string `json:"publishedAt"`
	Country     string `json:"country"`
}

// WithContent returns a copy of the summary with the full body merged in.
func (a Article) WithContent(content string) Article {
	a.Content = content
	return a
}

// SessionToken is a short-lived credential for a single realtime connection.
// It is never persisted.
type SessionToken struct {
	Value     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt,omitzero"`
}

// Role is the speaker of a conversation history item.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleSystem    Role = "system"
)

// ItemTypeMessage is the history item type that carries spoken content.
const ItemTypeMessage = "message"

// Content part types produced by the realtime SDK.
const (
	ContentInputAudio  = "input_audio"
	ContentOutputAudio = "output_audio"
	ContentInputText   = "input_text"
	ContentOutputText  = "output_text"
)

// HistoryItem is one entry of the realtime conversation history. It is
// produced by the external realtime SDK; this server stores it verbatim and
// only reads it. The typed fields are the subset the transcript needs.
type HistoryItem struct {
	ItemID  string        `json:"itemId"`
	Type    string        `json:"type"`
	Role    Role          `json:"role,omitempty"`
	Status  string        `json:"status,omitempty"`
	Content []ContentPart `json:"content,omitempty"`

	// Raw is the item as it was decoded. When set it is marshalled instead
	// of the typed fields, so SDK fields not modelled here (name, arguments,
	// callId, previousItemId, audio) survive a round trip.
	Raw json.RawMessage `json:"-"`
}

// historyItemFields has HistoryItem's fields without its JSON methods.
type historyItemFields HistoryItem

// UnmarshalJSON decodes the typed fields and keeps a copy of data.
func (h *HistoryItem) UnmarshalJSON(data []byte) error {
	var f historyItemFields
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	*h = HistoryItem(f)
	h.Raw = append(json.RawMessage(nil), data...)
	return nil
}

// MarshalJSON emits Raw when the item was decoded, the typed fields otherwise.
func (h HistoryItem) MarshalJSON() ([]byte, error) {
	if len(h.Raw) > 0 {
		return h.Raw, nil
	}
	return json.Marshal(historyItemFields(h))
}

// ContentPart is one piece of a message item.
type ContentPart struct {
	Type       string `json:"type"`
	Text       string `json:"text,omitempty"`
	Transcript string `json:"transcript,omitempty"`
}

// IsMessage reports whether the item is a conversation message.
func (h HistoryItem) IsMessage() bool {
	return h.Type == ItemTypeMessage
}

// TranscriptLine is one rendered line of the conversation.
type TranscriptLine struct {
	ItemID  string `json:"itemId"`
	Role    Role   `json:"role"`
	Speaker string `json:"speaker"`
	Text    string `json:"text"`
}

// Mode is the practice screen a session is on. Modes are mutually exclusive.
type Mode string

const (
	ModeSelect       Mode = "select"
	ModeConversation Mode = "conversation"
	ModeNews         Mode = "news"
)

// Valid reports whether m is a known mode.
func (m Mode) Valid() bool {
	return m == ModeSelect || m == ModeConversation || m == ModeNews
}
