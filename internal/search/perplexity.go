package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	infraerrors "github.com/jonesrussell/company-url-collector/infrastructure/errors"
	infrahttp "github.com/jonesrussell/company-url-collector/infrastructure/http"
	"github.com/jonesrussell/company-url-collector/internal/domain"
)

const (
	DefaultPerplexityURL   = "https://api.perplexity.ai/chat/completions"
	DefaultPerplexityModel = "sonar-pro"
	defaultTemperature     = 0.2
	defaultMaxTokens       = 8000
	defaultContextSize     = "high"
	maxResponseBytes       = 8 << 20
)

// PerplexityConfig configures the Perplexity chat completions client.
type PerplexityConfig struct {
	APIKey            string  `env:"PERPLEXITY_API_KEY" yaml:"api_key"`
	URL               string  `env:"PERPLEXITY_URL"     yaml:"url"`
	Model             string  `env:"PERPLEXITY_MODEL"   yaml:"model"`
	Temperature       float64 `yaml:"temperature"`
	MaxTokens         int     `yaml:"max_tokens"`
	SearchContextSize string  `yaml:"search_context_size"`
}

// SetDefaults fills unset fields.
func (c *PerplexityConfig) SetDefaults() {
	if c.URL == "" {
		c.URL = DefaultPerplexityURL
	}
	if c.Model == "" {
		c.Model = DefaultPerplexityModel
	}
	if c.Temperature == 0 {
		c.Temperature = defaultTemperature
	}
	if c.MaxTokens == 0 {
		c.MaxTokens = defaultMaxTokens
	}
	if c.SearchContextSize == "" {
		c.SearchContextSize = defaultContextSize
	}
}

// PerplexityClient calls the Perplexity API.
type PerplexityClient struct {
	cfg        PerplexityConfig
	httpClient *http.Client
}

var _ Searcher = (*PerplexityClient)(nil)

// NewPerplexityClient returns a client. A nil httpClient uses the shared
// outbound client defaults.
func NewPerplexityClient(cfg PerplexityConfig, httpClient *http.Client) *PerplexityClient {
	cfg.SetDefaults()
	if httpClient == nil {
		httpClient = infrahttp.NewClient(nil)
	}
	return &PerplexityClient{cfg: cfg, httpClient: httpClient}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type jsonSchema struct {
	Schema map[string]any `json:"schema"`
}

type responseFormat struct {
	Type       string     `json:"type"`
	JSONSchema jsonSchema `json:"json_schema"`
}

type webSearchOptions struct {
	SearchContextSize string `json:"search_context_size"`
}

type chatRequest struct {
	Model               string           `json:"model"`
	Messages            []chatMessage    `json:"messages"`
	Temperature         float64          `json:"temperature"`
	MaxTokens           int              `json:"max_tokens"`
	WebSearchOptions    webSearchOptions `json:"web_search_options"`
	ResponseFormat      responseFormat   `json:"response_format"`
	SearchRecencyFilter string           `json:"search_recency_filter,omitempty"`
}

// candidateSchema is the JSON schema of the expected answer: an array of
// url/title/description objects.
func candidateSchema() map[string]any {
	return map[string]any{
		"type": "array",
		"items": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"url":         map[string]string{"type": "string"},
				"title":       map[string]string{"type": "string"},
				"description": map[string]string{"type": "string"},
			},
			"required": []string{"url", "title", "description"},
		},
	}
}

func (c *PerplexityClient) newRequest(q Query) chatRequest {
	return chatRequest{
		Model: c.cfg.Model,
		Messages: []chatMessage{
			{Role: "system", Content: SystemPrompt()},
			{Role: "user", Content: UserPrompt(q)},
		},
		Temperature:      c.cfg.Temperature,
		MaxTokens:        c.cfg.MaxTokens,
		WebSearchOptions: webSearchOptions{SearchContextSize: c.cfg.SearchContextSize},
		ResponseFormat: responseFormat{
			Type:       "json_schema",
			JSONSchema: jsonSchema{Schema: candidateSchema()},
		},
		SearchRecencyFilter: q.Duration.RecencyFilter(),
	}
}

// Search implements Searcher.
func (c *PerplexityClient) Search(ctx context.Context, q Query) ([]byte, error) {
	if c.cfg.APIKey == "" {
		return nil, unavailable("perplexity API key is not configured")
	}

	body, err := json.Marshal(c.newRequest(q))
	if err != nil {
		return nil, fmt.Errorf("marshal perplexity request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.URL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build perplexity request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: perplexity request: %w", domain.ErrSearchUnavailable, err)
	}
	defer resp.Body.Close()

	if err = infraerrors.FromResponse(resp); err != nil {
		return nil, fmt.Errorf("%w: perplexity: %w", domain.ErrSearchUnavailable, err)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: read perplexity response: %w", domain.ErrSearchUnavailable, err)
	}
	return raw, nil
}
