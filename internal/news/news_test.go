package news

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nadzzz/habla/internal/cache"
	"github.com/nadzzz/habla/internal/config"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, c cache.Cache) *Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return New(config.NewsConfig{
		APIKey:          "test-key",
		BaseURL:         srv.URL,
		Language:        "es",
		SourceCountries: []string{"mx", "ar", "co"},
		Number:          15,
	}, c, time.Hour)
}

func TestSearch_MapsArticles(t *testing.T) {
	payload := map[string]any{
		"news": []map[string]any{
			{
				"id":             int64(283749001),
				"title":          "Lluvias en la Ciudad de México",
				"summary":        "Fuertes lluvias afectan la capital.",
				"text":           "Texto completo de la nota.",
				"url":            "https://example.mx/lluvias",
				"source":         "El Universal",
				"publish_date":   "2026-10-13 09:15:00",
				"source_country": "mx",
			},
			{
				"id":    int64(283749002),
				"title": "Sin resumen",
				"text":  strings.Repeat("á", 250),
				"url":   "https://example.ar/nota",
			},
		},
	}

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search-news", r.URL.Path)
		assert.Equal(t, "es", r.URL.Query().Get("language"))
		assert.Equal(t, "mx,ar,co", r.URL.Query().Get("source-countries"))
		assert.Equal(t, "15", r.URL.Query().Get("number"))
		assert.Equal(t, "test-key", r.URL.Query().Get("api-key"))

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(payload)
	}, nil)

	articles, err := client.Search(context.Background())
	require.NoError(t, err)
	require.Len(t, articles, 2)

	a := articles[0]
	assert.Equal(t, int64(283749001), a.ID)
	assert.Equal(t, "Lluvias en la Ciudad de México", a.Title)
	assert.Equal(t, "Fuertes lluvias afectan la capital.", a.Description)
	assert.Equal(t, "", a.Content)
	assert.Equal(t, "El Universal", a.Source)
	assert.Equal(t, "2026-10-13 09:15:00", a.PublishedAt)
	assert.Equal(t, "mx", a.Country)

	b := articles[1]
	assert.Equal(t, 200, len([]rune(b.Description)), "description falls back to the first 200 characters of text")
	assert.Equal(t, "Unknown", b.Source)
	assert.Equal(t, "es", b.Country)
}

func TestSearch_NoNewsYieldsEmptySlice(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"offset":0,"number":15,"available":0}`))
	}, nil)

	articles, err := client.Search(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, articles)
	assert.Empty(t, articles)
}

func TestSearch_UpstreamStatus(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		_, _ = w.Write([]byte(`{"status":"failure","message":"quota exceeded"}`))
	}, nil)

	_, err := client.Search(context.Background())
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusPaymentRequired, statusErr.Code)
	assert.Contains(t, statusErr.Body, "quota exceeded")
}

func TestSearch_InvalidJSON(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	}, nil)

	_, err := client.Search(context.Background())
	require.Error(t, err)
	var statusErr *StatusError
	assert.False(t, errors.As(err, &statusErr))
}

func TestMissingAPIKey(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer srv.Close()

	t.Setenv("HABLA_TEST_NEWS_KEY", "")
	client := New(config.NewsConfig{
		APIKey:  "${HABLA_TEST_NEWS_KEY}",
		BaseURL: srv.URL,
		Number:  15,
	}, nil, 0)

	_, err := client.Search(context.Background())
	assert.ErrorIs(t, err, ErrMissingAPIKey)

	_, err = client.Retrieve(context.Background(), "1")
	assert.ErrorIs(t, err, ErrMissingAPIKey)

	assert.Equal(t, int32(0), calls.Load(), "no upstream call without a key")
}

func TestAPIKeyResolvedPerRequest(t *testing.T) {
	var seen atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen.Store(r.URL.Query().Get("api-key"))
		_, _ = w.Write([]byte(`{"news":[]}`))
	}))
	defer srv.Close()

	client := New(config.NewsConfig{APIKey: "${HABLA_TEST_NEWS_KEY}", BaseURL: srv.URL, Number: 1}, nil, 0)

	t.Setenv("HABLA_TEST_NEWS_KEY", "first")
	_, err := client.Search(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "first", seen.Load())

	t.Setenv("HABLA_TEST_NEWS_KEY", "second")
	_, err = client.Search(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "second", seen.Load())
}

func TestRetrieve_PrefersText(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/retrieve-news", r.URL.Path)
		assert.Equal(t, "283749001", r.URL.Query().Get("ids"))
		_, _ = w.Write([]byte(`{"news":[{"id":283749001,"text":"Primer párrafo.\n\n\n\nSegundo párrafo.","summary":"Resumen"}]}`))
	}, nil)

	content, err := client.Retrieve(context.Background(), "283749001")
	require.NoError(t, err)
	assert.Equal(t, "Primer párrafo.\nSegundo párrafo.", content)
}

func TestRetrieve_FallsBackToSummary(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"news":[{"id":5,"summary":"Solo el resumen"}]}`))
	}, nil)

	content, err := client.Retrieve(context.Background(), "5")
	require.NoError(t, err)
	assert.Equal(t, "Solo el resumen", content)
}

func TestRetrieve_EmptyBodyIsNotAnError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"news":[{"id":5}]}`))
	}, nil)

	content, err := client.Retrieve(context.Background(), "5")
	require.NoError(t, err)
	assert.Equal(t, "", content)
}

func TestRetrieve_NotFound(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"news":[]}`))
	}, nil)

	_, err := client.Retrieve(context.Background(), "999")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRetrieve_UsesCache(t *testing.T) {
	var calls atomic.Int32
	c := cache.NewMemory()
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte(`{"news":[{"id":8,"text":"Contenido"}]}`))
	}, c)

	for range 3 {
		content, err := client.Retrieve(context.Background(), "8")
		require.NoError(t, err)
		assert.Equal(t, "Contenido", content)
	}
	assert.Equal(t, int32(1), calls.Load())
}

func TestRetrieve_NotFoundIsNotCached(t *testing.T) {
	c := cache.NewMemory()
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"news":[]}`))
	}, c)

	_, err := client.Retrieve(context.Background(), "404")
	require.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 0, c.Len())
}

func TestNormalizeContent(t *testing.T) {
	assert.Equal(t, "uno\ndos", normalizeContent("  uno\n\n\ndos  "))
	assert.Equal(t, "uno\n\ndos", normalizeContent("uno\n\ndos"))
	assert.False(t, looksLikeHTML("3 < 4"))
	assert.True(t, looksLikeHTML("<p>hola</p>"))
}
