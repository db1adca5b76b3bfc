// Package realtime mints short-lived client secrets for the OpenAI Realtime
// API. The browser uses the secret to open a single voice session directly
// with OpenAI, so the server-side API key never leaves this process.
package realtime

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/nadzzz/habla/internal/config"
	"github.com/nadzzz/habla/internal/metrics"
	"github.com/nadzzz/habla/internal/model"
)

const upstreamName = "openai_realtime"

// ErrMissingAPIKey is returned when no OpenAI API key is configured.
var ErrMissingAPIKey = errors.New("openai api key not configured")

// Issuer creates realtime session tokens.
type Issuer struct {
	apiKey  config.Secret
	baseURL string
	model   string
	voice   string
	client  *http.Client
}

// New creates a token issuer from config.
func New(cfg config.RealtimeConfig) *Issuer {
	return &Issuer{
		apiKey:  cfg.APIKey,
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		model:   cfg.Model,
		voice:   cfg.Voice,
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

// Model returns the realtime model tokens are issued for. The browser must
// open its session with the same model.
func (i *Issuer) Model() string { return i.model }

// CreateToken asks the upstream for a new client secret.
func (i *Issuer) CreateToken(ctx context.Context) (*model.SessionToken, error) {
	tok, err := i.createToken(ctx)
	metrics.RecordToken(err == nil)
	return tok, err
}

func (i *Issuer) createToken(ctx context.Context) (*model.SessionToken, error) {
	apiKey := i.apiKey.Value()
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}

	body, err := json.Marshal(clientSecretRequest{
		Session: sessionConfig{
			Type:  "realtime",
			Model: i.model,
			Audio: audioConfig{Output: outputConfig{Voice: i.voice}},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("marshalling session config: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, i.baseURL+"/realtime/client_secrets", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+apiKey)
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := i.client.Do(req)
	if err != nil {
		metrics.RecordUpstream(upstreamName, 0, start)
		return nil, fmt.Errorf("client secret request: %w", err)
	}
	defer resp.Body.Close()
	metrics.RecordUpstream(upstreamName, resp.StatusCode, start)

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, fmt.Errorf("client secret failed (status %d): %s", resp.StatusCode, respBody)
	}

	var secret clientSecretResponse
	if err := json.NewDecoder(resp.Body).Decode(&secret); err != nil {
		return nil, fmt.Errorf("decoding client secret: %w", err)
	}
	if secret.Value == "" {
		return nil, fmt.Errorf("client secret response has no value")
	}

	tok := &model.SessionToken{Value: secret.Value}
	if secret.ExpiresAt > 0 {
		tok.ExpiresAt = time.Unix(secret.ExpiresAt, 0).UTC()
	}

	slog.Debug("realtime session created", "model", i.model, "expires_at", tok.ExpiresAt)
	return tok, nil
}

// --- Wire types ---

type clientSecretRequest struct {
	Session sessionConfig `json:"session"`
}

type sessionConfig struct {
	Type  string      `json:"type"`
	Model string      `json:"model"`
	Audio audioConfig `json:"audio"`
}

type audioConfig struct {
	Output outputConfig `json:"output"`
}

type outputConfig struct {
	Voice string `json:"voice"`
}

type clientSecretResponse struct {
	Value     string `json:"value"`
	ExpiresAt int64  `json:"expires_at"`
}
