// Package news proxies the World News API: a fixed Spanish-language search and
// retrieval of a single article body by ID.
package news

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/go-shiori/go-readability"
	"github.com/samber/lo"

	"github.com/nadzzz/habla/internal/cache"
	"github.com/nadzzz/habla/internal/config"
	"github.com/nadzzz/habla/internal/metrics"
	"github.com/nadzzz/habla/internal/model"
)

const (
	upstreamName = "worldnews"

	descriptionLimit = 200
	defaultSource    = "Unknown"
	defaultCountry   = "es"
)

var (
	// ErrMissingAPIKey is returned when no news API key is configured.
	ErrMissingAPIKey = errors.New("news api key not configured")

	// ErrNotFound is returned when the upstream knows no article with the requested ID.
	ErrNotFound = errors.New("article not found")
)

// StatusError reports a non-2xx answer from the news provider.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("news upstream status %d: %s", e.Code, e.Body)
}

// Client talks to the World News API.
type Client struct {
	baseURL   string
	apiKey    config.Secret
	language  string
	countries []string
	number    int

	cache    cache.Cache
	cacheTTL time.Duration

	httpClient *http.Client
}

// New creates a news client. A nil cache disables caching.
func New(cfg config.NewsConfig, c cache.Cache, cacheTTL time.Duration) *Client {
	if c == nil {
		c = cache.Nop{}
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		language:   cfg.Language,
		countries:  cfg.SourceCountries,
		number:     cfg.Number,
		cache:      c,
		cacheTTL:   cacheTTL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// upstreamArticle is the subset of a World News API item this server reads.
type upstreamArticle struct {
	ID            int64  `json:"id"`
	Title         string `json:"title"`
	Text          string `json:"text"`
	Summary       string `json:"summary"`
	URL           string `json:"url"`
	Source        string `json:"source"`
	PublishDate   string `json:"publish_date"`
	SourceCountry string `json:"source_country"`
}

type upstreamResponse struct {
	News []upstreamArticle `json:"news"`
}

// Search returns the current batch of Spanish-language articles. The result
// is never nil; an upstream answer without news yields an empty slice.
func (c *Client) Search(ctx context.Context) ([]model.Article, error) {
	q := url.Values{}
	q.Set("language", c.language)
	q.Set("source-countries", strings.Join(c.countries, ","))
	q.Set("number", fmt.Sprint(c.number))

	var resp upstreamResponse
	if err := c.get(ctx, "/search-news", q, &resp); err != nil {
		return nil, err
	}

	if resp.News == nil {
		return []model.Article{}, nil
	}

	return lo.Map(resp.News, func(a upstreamArticle, _ int) model.Article {
		return toArticle(a)
	}), nil
}

// Retrieve returns the full text of the article with the given ID.
func (c *Client) Retrieve(ctx context.Context, id string) (string, error) {
	logger := slog.With("article_id", id)

	if content, ok, err := c.cache.Get(ctx, id); err != nil {
		logger.Warn("article cache lookup failed", "error", err)
	} else {
		metrics.RecordCache(ok)
		if ok {
			return content, nil
		}
	}

	q := url.Values{}
	q.Set("ids", id)

	var resp upstreamResponse
	if err := c.get(ctx, "/retrieve-news", q, &resp); err != nil {
		return "", err
	}

	if len(resp.News) == 0 {
		return "", ErrNotFound
	}

	article := resp.News[0]
	content := normalizeContent(lo.Ternary(article.Text != "", article.Text, article.Summary))

	if err := c.cache.Set(ctx, id, content, c.cacheTTL); err != nil {
		logger.Warn("article cache store failed", "error", err)
	}

	return content, nil
}

// get performs one authenticated GET and decodes the JSON body into out.
func (c *Client) get(ctx context.Context, path string, q url.Values, out any) error {
	apiKey := c.apiKey.Value()
	if apiKey == "" {
		return ErrMissingAPIKey
	}
	q.Set("api-key", apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return fmt.Errorf("creating news request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.RecordUpstream(upstreamName, 0, start)
		return fmt.Errorf("news request: %w", err)
	}
	defer resp.Body.Close()
	metrics.RecordUpstream(upstreamName, resp.StatusCode, start)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return &StatusError{Code: resp.StatusCode, Body: string(body)}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding news response: %w", err)
	}
	return nil
}

func toArticle(a upstreamArticle) model.Article {
	description := a.Summary
	if description == "" {
		description = truncate(a.Text, descriptionLimit)
	}
	return model.Article{
		ID:          a.ID,
		Title:       a.Title,
		Description: description,
		Content:     "",
		URL:         a.URL,
		Source:      lo.Ternary(a.Source != "", a.Source, defaultSource),
		PublishedAt: a.PublishDate,
		Country:     lo.Ternary(a.SourceCountry != "", a.SourceCountry, defaultCountry),
	}
}

// truncate cuts s to at most n runes.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

var redundantNewLines = regexp.MustCompile(`\n{3,}`)

// normalizeContent strips HTML markup some publishers leak into the text
// field and collapses runs of blank lines.
func normalizeContent(text string) string {
	if looksLikeHTML(text) {
		doc, err := readability.FromReader(strings.NewReader(text), nil)
		if err == nil && strings.TrimSpace(doc.TextContent) != "" {
			text = doc.TextContent
		}
	}
	return strings.TrimSpace(redundantNewLines.ReplaceAllString(text, "\n"))
}

func looksLikeHTML(s string) bool {
	i := strings.Index(s, "<")
	return i >= 0 && strings.Contains(s[i:], ">")
}
