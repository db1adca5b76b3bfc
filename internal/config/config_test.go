package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "habla.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "{}\n"))
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Transports.HTTP.Port)
	assert.Equal(t, "gpt-realtime-mini-2025-12-15", cfg.Realtime.Model)
	assert.Equal(t, "verse", cfg.Realtime.Voice)
	assert.Equal(t, []string{"mx", "ar", "co"}, cfg.News.SourceCountries)
	assert.Equal(t, 15, cfg.News.Number)
	assert.Equal(t, 15*time.Second, cfg.News.Timeout)
	assert.Equal(t, "none", cfg.Cache.Backend)
	assert.Equal(t, "memory", cfg.Sessions.Backend)
	assert.Equal(t, Secret("${WORLDNEWS_API_KEY}"), cfg.News.APIKey)
	assert.Empty(t, cfg.RateLimit.TrustedProxies)
}

func TestLoadFileAndEnv(t *testing.T) {
	t.Setenv("HABLA_NEWS_NUMBER", "5")

	path := writeConfig(t, `
news:
  source_countries: [es]
cache:
  backend: redis
  ttl: 30m
rate_limit:
  trusted_proxies: [10.0.0.0/8, 192.0.2.1]
personas:
  spanish_teacher:
    instructions: Eres Miguel.
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.News.Number)
	assert.Equal(t, []string{"es"}, cfg.News.SourceCountries)
	assert.Equal(t, "redis", cfg.Cache.Backend)
	assert.Equal(t, 30*time.Minute, cfg.Cache.TTL)
	assert.Equal(t, "Eres Miguel.", cfg.Personas["spanish_teacher"].Instructions)
	assert.Equal(t, []string{"10.0.0.0/8", "192.0.2.1"}, cfg.RateLimit.TrustedProxies)
}

func TestLoadRejectsInvalid(t *testing.T) {
	_, err := Load(writeConfig(t, "cache:\n  backend: memcached\n"))
	assert.ErrorContains(t, err, "unknown cache backend")

	_, err = Load(writeConfig(t, "sessions:\n  backend: postgres\n"))
	assert.ErrorContains(t, err, "unknown sessions backend")

	_, err = Load(writeConfig(t, "news:\n  number: 0\n"))
	assert.ErrorContains(t, err, "news.number")

	_, err = Load(writeConfig(t, "rate_limit:\n  burst: 0\n"))
	assert.ErrorContains(t, err, "rate_limit")

	_, err = Load(writeConfig(t, "tts:\n  enabled: true\n  backend: espeak\n"))
	assert.ErrorContains(t, err, "unknown tts backend")
}

func TestSecretResolvesAtCallTime(t *testing.T) {
	s := Secret("${HABLA_TEST_SECRET}")
	t.Setenv("HABLA_TEST_SECRET", "")
	assert.Empty(t, s.Value())

	t.Setenv("HABLA_TEST_SECRET", "sk-rotated")
	assert.Equal(t, "sk-rotated", s.Value())

	assert.Equal(t, "literal", Secret("literal").Value())
}
