package bootstrap

import (
	"context"

	es "github.com/elastic/go-elasticsearch/v8"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"

	infraes "github.com/jonesrussell/company-url-collector/infrastructure/elasticsearch"
	infraevents "github.com/jonesrussell/company-url-collector/infrastructure/events"
	infralogger "github.com/jonesrussell/company-url-collector/infrastructure/logger"
	"github.com/jonesrussell/company-url-collector/internal/config"
	"github.com/jonesrussell/company-url-collector/internal/events"
	"github.com/jonesrussell/company-url-collector/internal/index"
	"github.com/jonesrussell/company-url-collector/internal/telemetry"
)

// SetupTelemetry registers the collector metrics plus Go runtime and
// process metrics on a fresh registry.
func SetupTelemetry() *telemetry.Provider {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return telemetry.NewProvider(reg)
}

// SetupEventPublisher returns nil unless events are enabled and Redis is up.
func SetupEventPublisher(cfg *config.Config, client redis.Cmdable, log infralogger.Logger) *events.Publisher {
	if !cfg.Redis.EventsEnabled || client == nil {
		return nil
	}
	log.Info("Event publisher initialized",
		infralogger.String("redis_address", cfg.Redis.Address),
		infralogger.String("stream", infraevents.StreamName),
	)
	return events.NewPublisher(client, log)
}

// SetupIndexer connects to Elasticsearch and ensures the index exists. It
// returns nils when indexing is disabled or the cluster is unreachable.
func SetupIndexer(ctx context.Context, cfg *config.Config, log infralogger.Logger) (*index.Indexer, *es.Client) {
	if !cfg.Elasticsearch.Enabled {
		return nil, nil
	}

	client, err := infraes.NewClient(ctx, cfg.Elasticsearch.Config, log)
	if err != nil {
		log.Warn("Elasticsearch not available, indexing disabled", infralogger.Error(err))
		return nil, nil
	}

	indexer := index.NewIndexer(client, cfg.Elasticsearch.Index, log)
	if err = indexer.EnsureIndex(ctx); err != nil {
		log.Warn("Elasticsearch index setup failed, indexing disabled",
			infralogger.String("index", cfg.Elasticsearch.Index),
			infralogger.Error(err))
		return nil, nil
	}
	return indexer, client
}
