package search

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	infraerrors "github.com/jonesrussell/company-url-collector/infrastructure/errors"
	"github.com/jonesrussell/company-url-collector/internal/domain"
	"github.com/jonesrussell/company-url-collector/internal/parser"
)

const (
	DefaultAnthropicModel = "claude-sonnet-4-5"
	defaultAnthropicMax   = 8000
)

const jsonOnlyInstruction = "Answer with only a JSON array of objects that each have the string " +
	"fields url, title and description. Do not add any other text."

// AnthropicConfig configures the Anthropic Messages API client.
type AnthropicConfig struct {
	APIKey    string `env:"ANTHROPIC_API_KEY"  yaml:"api_key"`
	BaseURL   string `env:"ANTHROPIC_BASE_URL" yaml:"base_url"`
	Model     string `env:"ANTHROPIC_MODEL"    yaml:"model"`
	MaxTokens int64  `yaml:"max_tokens"`
}

// SetDefaults fills unset fields.
func (c *AnthropicConfig) SetDefaults() {
	if c.Model == "" {
		c.Model = DefaultAnthropicModel
	}
	if c.MaxTokens == 0 {
		c.MaxTokens = defaultAnthropicMax
	}
}

// AnthropicClient asks an Anthropic model for company URLs and wraps the
// answer in a chat completion envelope, so callers parse it like any other
// provider payload.
type AnthropicClient struct {
	cfg    AnthropicConfig
	client anthropic.Client
}

var _ Searcher = (*AnthropicClient)(nil)

// NewAnthropicClient returns a client. SDK retries are disabled; wrap the
// client in Resilient for retries.
func NewAnthropicClient(cfg AnthropicConfig, httpClient *http.Client) *AnthropicClient {
	cfg.SetDefaults()

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if httpClient != nil {
		opts = append(opts, option.WithHTTPClient(httpClient))
	}

	return &AnthropicClient{cfg: cfg, client: anthropic.NewClient(opts...)}
}

// Search implements Searcher.
func (c *AnthropicClient) Search(ctx context.Context, q Query) ([]byte, error) {
	if c.cfg.APIKey == "" {
		return nil, unavailable("anthropic API key is not configured")
	}

	msg, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       anthropic.Model(c.cfg.Model),
		MaxTokens:   c.cfg.MaxTokens,
		Temperature: anthropic.Float(defaultTemperature),
		System: []anthropic.TextBlockParam{
			{Text: SystemPrompt()},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(UserPrompt(q) + " " + jsonOnlyInstruction)),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: anthropic: %w", domain.ErrSearchUnavailable, toHTTPError(err))
	}

	var text strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}

	raw, err := json.Marshal(parser.NewTextResponse(text.String()))
	if err != nil {
		return nil, fmt.Errorf("marshal anthropic response: %w", err)
	}
	return raw, nil
}

// toHTTPError converts SDK status errors so retry policy sees the status.
func toHTTPError(err error) error {
	var apiErr *anthropic.Error
	if !errors.As(err, &apiErr) {
		return err
	}
	return &infraerrors.HTTPError{
		StatusCode: apiErr.StatusCode,
		Status:     fmt.Sprintf("%d %s", apiErr.StatusCode, http.StatusText(apiErr.StatusCode)),
		Message:    apiErr.Error(),
	}
}
