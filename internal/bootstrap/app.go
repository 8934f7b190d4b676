// Package bootstrap wires configuration into running components for the
// urlcollector commands.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"sync"

	es "github.com/elastic/go-elasticsearch/v8"
	"github.com/redis/go-redis/v9"

	infralogger "github.com/jonesrussell/company-url-collector/infrastructure/logger"
	"github.com/jonesrussell/company-url-collector/infrastructure/profiling"
	"github.com/jonesrussell/company-url-collector/internal/classifier"
	"github.com/jonesrussell/company-url-collector/internal/collector"
	"github.com/jonesrussell/company-url-collector/internal/config"
	"github.com/jonesrussell/company-url-collector/internal/search"
	"github.com/jonesrussell/company-url-collector/internal/storage"
	"github.com/jonesrussell/company-url-collector/internal/telemetry"
)

// App holds the wired components. Close releases them.
type App struct {
	Config     *config.Config
	Logger     infralogger.Logger
	Version    string
	Telemetry  *telemetry.Provider
	Classifier *classifier.Classifier
	Store      storage.Store
	Searcher   search.Searcher
	Collector  *collector.Collector

	breaker  *search.Resilient
	redis    *redis.Client
	es       *es.Client
	profiler *profiling.Profiler
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

// New builds an App from cfg. Optional dependencies (event publishing,
// indexing) that cannot be reached are logged and disabled; required ones
// fail New.
func New(ctx context.Context, cfg *config.Config, log infralogger.Logger, version string) (*App, error) {
	if log == nil {
		log = infralogger.NewNop()
	}
	bgCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	app := &App{
		Config:  cfg,
		Logger:  log,
		Version: version,
		cancel:  cancel,
	}

	if err := app.setup(ctx, bgCtx); err != nil {
		app.Close()
		return nil, err
	}
	return app, nil
}

func (a *App) setup(ctx, bgCtx context.Context) error {
	// Phase 0: profiling (optional)
	profiler, err := profiling.Start(a.Config.Profiling, "collector", a.Version, a.Logger)
	if err != nil {
		a.Logger.Warn("Profiling disabled", infralogger.Error(err))
	}
	a.profiler = profiler

	// Phase 1: metrics and tracing
	a.Telemetry = SetupTelemetry()

	// Phase 2: Redis, required for the redis backend
	if a.Config.RedisRequired() {
		client, redisErr := SetupRedis(ctx, a.Config)
		switch {
		case redisErr == nil:
			a.redis = client
		case a.Config.Storage.Backend == config.BackendRedis:
			return fmt.Errorf("connect redis: %w", redisErr)
		default:
			a.Logger.Warn("Redis not available, events disabled", infralogger.Error(redisErr))
		}
	}

	// Phase 3: storage
	a.Store, err = SetupStore(a.Config.Storage, a.redis, a.Logger)
	if err != nil {
		return err
	}

	// Phase 4: classifier, with optional rule hot reload
	a.Classifier, err = SetupClassifier(a.Config.Classifier)
	if err != nil {
		return err
	}
	if a.Config.Classifier.Watch && a.Config.Classifier.RulesFile != "" {
		watcher, watchErr := classifier.NewWatcher(a.Config.Classifier.RulesFile, a.Classifier, a.Logger)
		if watchErr != nil {
			a.Logger.Warn("Rules hot reload disabled", infralogger.Error(watchErr))
		} else {
			a.wg.Add(1)
			go func() {
				defer a.wg.Done()
				_ = watcher.Run(bgCtx)
			}()
		}
	}

	// Phase 5: search provider chain
	a.Searcher, a.breaker = SetupSearcher(a.Config.Search, a.Version, a.Logger)

	// Phase 6: optional post-collection hooks
	var hooks []collector.Hook
	if publisher := SetupEventPublisher(a.Config, a.redis, a.Logger); publisher != nil {
		hooks = append(hooks, publisher)
	}
	indexer, client := SetupIndexer(ctx, a.Config, a.Logger)
	if indexer != nil {
		a.es = client
		hooks = append(hooks, indexer)
	}

	// Phase 7: collector
	a.Collector = collector.New(a.Searcher, a.Classifier, a.Store,
		collector.WithLogger(a.Logger),
		collector.WithTelemetry(a.Telemetry),
		collector.WithHooks(hooks...))

	a.Logger.Info("Collector ready",
		infralogger.String("storage_backend", a.Config.Storage.Backend),
		infralogger.String("search_provider", a.Config.Search.Provider),
		infralogger.String("domain_mode", a.Config.Classifier.DomainMode),
		infralogger.Int("hooks", len(hooks)))
	return nil
}

// Close stops background work and closes connections. It is safe to call
// on a partially built App.
func (a *App) Close() {
	if a.cancel != nil {
		a.cancel()
	}
	a.wg.Wait()

	var errs []error
	if a.redis != nil {
		errs = append(errs, a.redis.Close())
	}
	if a.profiler != nil {
		errs = append(errs, a.profiler.Stop())
	}
	if err := errors.Join(errs...); err != nil {
		a.Logger.Warn("Shutdown cleanup failed", infralogger.Error(err))
	}
}
