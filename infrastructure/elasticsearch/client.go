// Package elasticsearch creates go-elasticsearch clients and verifies the
// cluster is reachable before handing them out.
package elasticsearch

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"strings"

	es "github.com/elastic/go-elasticsearch/v8"
	"github.com/jonesrussell/company-url-collector/infrastructure/logger"
	"github.com/jonesrussell/company-url-collector/infrastructure/retry"
)

// NewClient builds a client from cfg and retries a ping until the cluster
// answers or cfg.Connect gives up.
func NewClient(ctx context.Context, cfg Config, log logger.Logger) (*es.Client, error) {
	cfg.SetDefaults()
	if log == nil {
		log = logger.NewNop()
	}

	url := normalizeURL(cfg.URL)
	clientCfg := es.Config{
		Addresses:  []string{url},
		MaxRetries: cfg.MaxRetries,
		Username:   cfg.Username,
		Password:   cfg.Password,
		APIKey:     cfg.APIKey,
	}
	if cfg.InsecureSkipVerify {
		clientCfg.Transport = &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true}, //nolint:gosec // opt-in for dev clusters
		}
	}

	client, err := es.NewClient(clientCfg)
	if err != nil {
		return nil, fmt.Errorf("create elasticsearch client: %w", err)
	}

	log.Info("Verifying Elasticsearch connection", logger.String("url", url))
	if err := retry.Do(ctx, cfg.Connect, func(ctx context.Context) error {
		return Ping(ctx, client, cfg)
	}); err != nil {
		return nil, fmt.Errorf("connect to elasticsearch: %w", err)
	}
	log.Info("Elasticsearch connection established", logger.String("url", url))

	return client, nil
}

func normalizeURL(url string) string {
	if url == "" {
		return "http://localhost:9200"
	}
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		return "http://" + url
	}
	return url
}

// Ping checks that the cluster answers within cfg.PingTimeout.
func Ping(ctx context.Context, client *es.Client, cfg Config) error {
	if cfg.PingTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.PingTimeout)
		defer cancel()
	}

	res, err := client.Ping(client.Ping.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 1024))
		return fmt.Errorf("ping returned %s: %s", res.Status(), strings.TrimSpace(string(body)))
	}
	return nil
}
