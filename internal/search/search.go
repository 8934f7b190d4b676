// Package search queries an AI search provider for URLs about a company and
// returns the provider's raw chat completion payload.
package search

import (
	"context"
	"fmt"

	"github.com/jonesrussell/company-url-collector/internal/domain"
)

// Query is one search request.
type Query struct {
	Company    string
	CompanyURL string
	Duration   domain.Duration
}

// Searcher returns the raw completion payload for q. Transport and HTTP
// failures wrap domain.ErrSearchUnavailable.
type Searcher interface {
	Search(ctx context.Context, q Query) ([]byte, error)
}

// SearcherFunc adapts a function to Searcher.
type SearcherFunc func(ctx context.Context, q Query) ([]byte, error)

// Search implements Searcher.
func (f SearcherFunc) Search(ctx context.Context, q Query) ([]byte, error) {
	return f(ctx, q)
}

// Provider names.
const (
	ProviderPerplexity = "perplexity"
	ProviderAnthropic  = "anthropic"
)

const systemPrompt = "You are a URL focused data collection assistant that provides comprehensive " +
	"lists of URLs related to company, its products and services. " +
	"You always try to find details on the company, its products and services and then try to find " +
	"different types of content on internet like blogs, articles, news and press releases about the " +
	"company, its products and services. " +
	"Focus on finding both company-owned sites and third-party mentions that are relevant to the " +
	"company's products, services, blogs, articles, news, or industry presence."

// SystemPrompt returns the instructions sent with every query.
func SystemPrompt() string {
	return systemPrompt
}

// UserPrompt renders the per-company request.
func UserPrompt(q Query) string {
	return fmt.Sprintf(
		"Find URLs related to the company '%s' (their website is %s). "+
			"Include both official company pages and third-party sites that mention the company. "+
			"Focus on recent information from the past %s. "+
			"For each URL, provide a title and brief description that explains how it relates to the company.",
		q.Company, q.CompanyURL, q.Duration)
}

func unavailable(format string, args ...any) error {
	return fmt.Errorf("%w: %s", domain.ErrSearchUnavailable, fmt.Sprintf(format, args...))
}
