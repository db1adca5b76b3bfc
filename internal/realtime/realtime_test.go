package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nadzzz/habla/internal/config"
)

func newTestIssuer(t *testing.T, handler http.HandlerFunc) *Issuer {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return New(config.RealtimeConfig{
		APIKey:  "sk-test",
		BaseURL: srv.URL + "/v1/",
		Model:   "gpt-realtime-mini-2025-12-15",
		Voice:   "verse",
	})
}

func TestCreateToken(t *testing.T) {
	issuer := newTestIssuer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/realtime/client_secrets", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		session := body["session"].(map[string]any)
		assert.Equal(t, "realtime", session["type"])
		assert.Equal(t, "gpt-realtime-mini-2025-12-15", session["model"])
		voice := session["audio"].(map[string]any)["output"].(map[string]any)["voice"]
		assert.Equal(t, "verse", voice)

		_, _ = w.Write([]byte(`{"value":"ek_abc123","expires_at":1791979200}`))
	})

	tok, err := issuer.CreateToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ek_abc123", tok.Value)
	assert.Equal(t, time.Unix(1791979200, 0).UTC(), tok.ExpiresAt)
	assert.Equal(t, "gpt-realtime-mini-2025-12-15", issuer.Model())
}

func TestCreateToken_UpstreamError(t *testing.T) {
	issuer := newTestIssuer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"Incorrect API key"}}`))
	})

	_, err := issuer.CreateToken(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 401")
}

func TestCreateToken_EmptyValue(t *testing.T) {
	issuer := newTestIssuer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	})

	_, err := issuer.CreateToken(context.Background())
	assert.Error(t, err)
}

func TestCreateToken_MissingKey(t *testing.T) {
	t.Setenv("HABLA_TEST_OPENAI_KEY", "")
	issuer := New(config.RealtimeConfig{APIKey: "${HABLA_TEST_OPENAI_KEY}", BaseURL: "http://127.0.0.1:1"})

	_, err := issuer.CreateToken(context.Background())
	assert.ErrorIs(t, err, ErrMissingAPIKey)
}
