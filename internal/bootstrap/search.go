package bootstrap

import (
	infrahttp "github.com/jonesrussell/company-url-collector/infrastructure/http"
	infralogger "github.com/jonesrussell/company-url-collector/infrastructure/logger"
	"github.com/jonesrussell/company-url-collector/internal/config"
	"github.com/jonesrussell/company-url-collector/internal/search"
)

// SetupSearcher builds provider -> circuit breaker and retries -> rate
// limit. The Resilient layer is returned as well for health reporting.
func SetupSearcher(cfg config.SearchConfig, version string, log infralogger.Logger) (search.Searcher, *search.Resilient) {
	httpClient := infrahttp.NewClient(&infrahttp.ClientConfig{
		Timeout:   cfg.Resilience.Timeout,
		UserAgent: "urlcollector/" + version,
	})

	var provider search.Searcher
	switch cfg.Provider {
	case search.ProviderAnthropic:
		provider = search.NewAnthropicClient(cfg.Anthropic, httpClient)
	default:
		provider = search.NewPerplexityClient(cfg.Perplexity, httpClient)
	}

	resilient := search.NewResilient(provider, cfg.Resilience, log)
	return search.NewLimited(resilient, cfg.RateLimit.RPS, cfg.RateLimit.Burst), resilient
}
