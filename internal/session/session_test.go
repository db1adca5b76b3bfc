package session

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nadzzz/habla/internal/model"
	"github.com/nadzzz/habla/internal/persona"
)

type fakeIssuer struct {
	calls int
	err   error
}

func (f *fakeIssuer) CreateToken(context.Context) (*model.SessionToken, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &model.SessionToken{Value: "ek_test"}, nil
}

func (f *fakeIssuer) Model() string { return "gpt-realtime-mini-2025-12-15" }

type fakeArticles struct {
	content map[string]string
	err     error
}

func (f *fakeArticles) Retrieve(_ context.Context, id string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.content[id], nil
}

func newTestManager(t *testing.T, store Store) (*Manager, *fakeIssuer, *fakeArticles) {
	t.Helper()
	personas, err := persona.New(nil)
	require.NoError(t, err)

	issuer := &fakeIssuer{}
	articles := &fakeArticles{content: map[string]string{"42": "El texto completo."}}
	return NewManager(store, issuer, articles, personas), issuer, articles
}

func sampleHistory() []model.HistoryItem {
	return []model.HistoryItem{
		{ItemID: "1", Type: "message", Role: model.RoleUser, Content: []model.ContentPart{
			{Type: model.ContentInputAudio, Transcript: "Hola, ¿cómo estás?"},
		}},
		{ItemID: "2", Type: "message", Role: model.RoleAssistant, Content: []model.ContentPart{
			{Type: model.ContentOutputText, Text: "ignored"},
			{Type: model.ContentOutputAudio, Transcript: "¡Muy bien! ¿Y tú?"},
		}},
		{ItemID: "3", Type: "function_call"},
		{ItemID: "4", Type: "message", Role: model.RoleUser, Content: []model.ContentPart{
			{Type: model.ContentInputAudio, Transcript: ""},
		}},
		{ItemID: "5", Type: "message", Role: model.RoleAssistant, Content: []model.ContentPart{
			{Type: model.ContentOutputText, Text: "text only"},
		}},
	}
}

func TestCreate_StartsOnModeSelection(t *testing.T) {
	m, _, _ := newTestManager(t, NewMemoryStore(time.Hour))

	s, err := m.Create(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, s.ID)
	assert.Equal(t, model.ModeSelect, s.Mode)
	assert.False(t, s.Connected)
	assert.NotNil(t, s.History)
	assert.Empty(t, s.History)
}

func TestStart_Conversation(t *testing.T) {
	ctx := context.Background()
	m, issuer, _ := newTestManager(t, NewMemoryStore(time.Hour))
	s, err := m.Create(ctx)
	require.NoError(t, err)

	res, err := m.Start(ctx, s.ID, model.ModeConversation, nil)
	require.NoError(t, err)

	assert.Equal(t, "ek_test", res.Token.Value)
	assert.Equal(t, "gpt-realtime-mini-2025-12-15", res.Model)
	assert.Equal(t, persona.VoiceAgent, res.Agents.Root)
	assert.True(t, res.Session.Connected)
	assert.Equal(t, model.ModeConversation, res.Session.Mode)
	assert.Equal(t, 1, issuer.calls)

	_, err = m.Start(ctx, s.ID, model.ModeConversation, nil)
	assert.ErrorIs(t, err, ErrAlreadyConnected)
	assert.Equal(t, 1, issuer.calls)
}

func TestStart_NewsMergesContent(t *testing.T) {
	ctx := context.Background()
	m, _, _ := newTestManager(t, NewMemoryStore(time.Hour))
	s, _ := m.Create(ctx)

	summary := &model.Article{ID: 42, Title: "Elecciones en Colombia", Description: "Resumen"}
	res, err := m.Start(ctx, s.ID, model.ModeNews, summary)
	require.NoError(t, err)

	require.NotNil(t, res.Session.Article)
	assert.Equal(t, "El texto completo.", res.Session.Article.Content)
	assert.Equal(t, "Elecciones en Colombia", res.Session.Article.Title)
	assert.Equal(t, "", summary.Content, "caller's summary is not mutated")
	assert.Equal(t, persona.NewsCoach, res.Agents.Root)
	assert.Contains(t, res.Agents.Agents[0].Instructions, "El texto completo.")
}

func TestStart_Validation(t *testing.T) {
	ctx := context.Background()
	m, issuer, articles := newTestManager(t, NewMemoryStore(time.Hour))
	s, _ := m.Create(ctx)

	_, err := m.Start(ctx, s.ID, model.ModeSelect, nil)
	assert.ErrorIs(t, err, ErrInvalidMode)

	_, err = m.Start(ctx, s.ID, model.ModeNews, nil)
	assert.ErrorIs(t, err, ErrArticleRequired)

	articles.err = errors.New("article not found")
	_, err = m.Start(ctx, s.ID, model.ModeNews, &model.Article{ID: 7})
	assert.Error(t, err)

	_, err = m.Start(ctx, "missing", model.ModeConversation, nil)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.Equal(t, 0, issuer.calls)
}

func TestStart_TokenFailureLeavesSessionUnconnected(t *testing.T) {
	ctx := context.Background()
	m, issuer, _ := newTestManager(t, NewMemoryStore(time.Hour))
	s, _ := m.Create(ctx)

	issuer.err = errors.New("upstream down")
	_, err := m.Start(ctx, s.ID, model.ModeConversation, nil)
	require.Error(t, err)

	got, err := m.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.False(t, got.Connected)
	assert.Equal(t, model.ModeSelect, got.Mode)
}

func TestUpdateHistoryAndTranscript(t *testing.T) {
	ctx := context.Background()
	m, _, _ := newTestManager(t, NewMemoryStore(time.Hour))
	s, _ := m.Create(ctx)

	_, err := m.UpdateHistory(ctx, s.ID, sampleHistory())
	assert.ErrorIs(t, err, ErrNotConnected)

	_, err = m.Start(ctx, s.ID, model.ModeConversation, nil)
	require.NoError(t, err)

	got, err := m.UpdateHistory(ctx, s.ID, sampleHistory())
	require.NoError(t, err)
	assert.Len(t, got.History, 5)

	lines, err := m.Transcript(ctx, s.ID)
	require.NoError(t, err)
	require.Len(t, lines, 2)
	assert.Equal(t, model.TranscriptLine{ItemID: "1", Role: model.RoleUser, Speaker: "You", Text: "Hola, ¿cómo estás?"}, lines[0])
	assert.Equal(t, model.TranscriptLine{ItemID: "2", Role: model.RoleAssistant, Speaker: "Miguel", Text: "¡Muy bien! ¿Y tú?"}, lines[1])
}

func TestEnd_AlwaysResets(t *testing.T) {
	ctx := context.Background()
	for name, store := range map[string]Store{
		"memory": NewMemoryStore(time.Hour),
		"redis":  newTestRedisStore(t),
	} {
		t.Run(name, func(t *testing.T) {
			m, _, _ := newTestManager(t, store)
			s, _ := m.Create(ctx)

			_, err := m.Start(ctx, s.ID, model.ModeNews, &model.Article{ID: 42})
			require.NoError(t, err)
			_, err = m.UpdateHistory(ctx, s.ID, sampleHistory())
			require.NoError(t, err)

			ended, err := m.End(ctx, s.ID)
			require.NoError(t, err)
			assertReset(t, ended)

			stored, err := m.Get(ctx, s.ID)
			require.NoError(t, err)
			assertReset(t, stored)

			// Late history callbacks after End are rejected.
			_, err = m.UpdateHistory(ctx, s.ID, sampleHistory())
			assert.ErrorIs(t, err, ErrNotConnected)

			// Ending an idle session still succeeds.
			again, err := m.End(ctx, s.ID)
			require.NoError(t, err)
			assertReset(t, again)

			// A reset session can start again.
			_, err = m.Start(ctx, s.ID, model.ModeConversation, nil)
			require.NoError(t, err)
		})
	}
}

func assertReset(t *testing.T, s *Session) {
	t.Helper()
	assert.Equal(t, model.ModeSelect, s.Mode)
	assert.False(t, s.Connected)
	assert.Empty(t, s.History)
	assert.Nil(t, s.Article)
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	m, _, _ := newTestManager(t, NewMemoryStore(time.Hour))
	s, _ := m.Create(ctx)

	require.NoError(t, m.Delete(ctx, s.ID))
	_, err := m.Get(ctx, s.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	require.NoError(t, m.Delete(ctx, s.ID))
}

func TestBuildTranscript_IgnoresNonMessages(t *testing.T) {
	lines := BuildTranscript(nil, "Miguel")
	assert.Empty(t, lines)

	lines = BuildTranscript([]model.HistoryItem{{ItemID: "x", Type: "function_call_output"}}, "Miguel")
	assert.Empty(t, lines)
}

func TestMemoryStore_Expiry(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(time.Minute)
	now := time.Date(2026, 10, 14, 8, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }

	require.NoError(t, store.Save(ctx, &Session{ID: "a"}))
	require.NoError(t, store.Save(ctx, &Session{ID: "b"}))

	now = now.Add(30 * time.Second)
	require.NoError(t, store.Save(ctx, &Session{ID: "b"}))

	now = now.Add(45 * time.Second)
	_, err := store.Get(ctx, "a")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = store.Get(ctx, "b")
	assert.NoError(t, err)

	now = now.Add(time.Minute)
	assert.Equal(t, 1, store.Sweep())
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(0)
	s := &Session{ID: "a", History: sampleHistory()}
	require.NoError(t, store.Save(ctx, s))

	s.History[0].Content[0].Transcript = "changed"

	got, err := store.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "Hola, ¿cómo estás?", got.History[0].Content[0].Transcript)
}

func newTestRedisStore(t *testing.T) *RedisStore {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisStore(client, time.Hour)
}

func TestRedisStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newTestRedisStore(t)

	s := &Session{
		ID:        "abc",
		Mode:      model.ModeConversation,
		Connected: true,
		History:   sampleHistory(),
		Article:   &model.Article{ID: 9, Title: "Título"},
	}
	require.NoError(t, store.Save(ctx, s))

	got, err := store.Get(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, s.Mode, got.Mode)
	want, err := json.Marshal(s.History)
	require.NoError(t, err)
	have, err := json.Marshal(got.History)
	require.NoError(t, err)
	assert.JSONEq(t, string(want), string(have))
	assert.Equal(t, BuildTranscript(s.History, "Miguel"), BuildTranscript(got.History, "Miguel"))
	assert.Equal(t, "Título", got.Article.Title)

	require.NoError(t, store.Delete(ctx, "abc"))
	_, err = store.Get(ctx, "abc")
	assert.ErrorIs(t, err, ErrNotFound)
}

const sdkHistory = `[
	{"itemId":"a","type":"function_call","status":"completed","name":"transfer_to_spanish_teacher","arguments":"{}","callId":"c1"},
	{"itemId":"b","previousItemId":"a","type":"message","role":"assistant","status":"completed",
	 "content":[{"type":"output_audio","transcript":"Hola","audio":null}]}
]`

func TestUpdateHistory_StoresItemsVerbatim(t *testing.T) {
	ctx := context.Background()
	for name, store := range map[string]Store{
		"memory": NewMemoryStore(time.Hour),
		"redis":  newTestRedisStore(t),
	} {
		t.Run(name, func(t *testing.T) {
			m, _, _ := newTestManager(t, store)
			s, _ := m.Create(ctx)
			_, err := m.Start(ctx, s.ID, model.ModeConversation, nil)
			require.NoError(t, err)

			var items []model.HistoryItem
			require.NoError(t, json.Unmarshal([]byte(sdkHistory), &items))
			require.Len(t, items, 2)
			assert.Equal(t, "function_call", items[0].Type)
			assert.Equal(t, "Hola", items[1].Content[0].Transcript)

			_, err = m.UpdateHistory(ctx, s.ID, items)
			require.NoError(t, err)

			stored, err := m.Get(ctx, s.ID)
			require.NoError(t, err)
			out, err := json.Marshal(stored.History)
			require.NoError(t, err)
			assert.JSONEq(t, sdkHistory, string(out))

			lines, err := m.Transcript(ctx, s.ID)
			require.NoError(t, err)
			require.Len(t, lines, 1)
			assert.Equal(t, "Hola", lines[0].Text)
		})
	}
}

func TestHistoryItem_MarshalsTypedFieldsWithoutRaw(t *testing.T) {
	item := model.HistoryItem{ItemID: "1", Type: model.ItemTypeMessage, Role: model.RoleUser}
	out, err := json.Marshal(item)
	require.NoError(t, err)
	assert.JSONEq(t, `{"itemId":"1","type":"message","role":"user"}`, string(out))
}
