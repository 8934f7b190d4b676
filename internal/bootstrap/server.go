package bootstrap

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/jonesrussell/company-url-collector/infrastructure/circuitbreaker"
	infraes "github.com/jonesrussell/company-url-collector/infrastructure/elasticsearch"
	infragin "github.com/jonesrussell/company-url-collector/infrastructure/gin"
	"github.com/jonesrussell/company-url-collector/internal/api"
	"github.com/jonesrussell/company-url-collector/internal/config"
	"github.com/jonesrussell/company-url-collector/internal/scheduler"
)

// SetupHTTPServer creates the API server with health checks for the
// dependencies the App actually uses.
func SetupHTTPServer(app *App) *infragin.Server {
	cfg := app.Config
	handler := api.NewURLHandler(app.Collector, app.Logger)

	builder := infragin.NewServerBuilder("urlcollector", cfg.Server.Port).
		WithLogger(app.Logger).
		WithHost(cfg.Server.Host).
		WithDebug(cfg.Debug).
		WithVersion(app.Version).
		WithCORSOrigins(cfg.Server.CORSOrigins).
		WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, 0).
		WithMetrics(app.Telemetry.Handler()).
		WithRoutes(func(r *gin.Engine) {
			api.RegisterRoutes(r, handler, cfg.Auth.JWTSecret)
		})

	if app.breaker != nil {
		builder.WithHealthCheck("search", searchCheck(app.breaker.State))
	}
	if app.redis != nil {
		failStatus := infragin.HealthStatusDegraded
		if cfg.Storage.Backend == config.BackendRedis {
			failStatus = infragin.HealthStatusUnhealthy
		}
		builder.WithHealthCheck("redis", infragin.PingChecker(func(ctx context.Context) error {
			return app.redis.Ping(ctx).Err()
		}, failStatus))
	}
	if app.es != nil {
		builder.WithHealthCheck("elasticsearch", infragin.PingChecker(func(ctx context.Context) error {
			return infraes.Ping(ctx, app.es, cfg.Elasticsearch.Config)
		}, infragin.HealthStatusDegraded))
	}

	return builder.Build()
}

// searchCheck reports the provider circuit. An open circuit degrades the
// service rather than failing it.
func searchCheck(state func() circuitbreaker.State) infragin.HealthChecker {
	return func(context.Context) infragin.CheckResult {
		s := state()
		if s == circuitbreaker.StateClosed {
			return infragin.CheckResult{Status: infragin.HealthStatusHealthy}
		}
		return infragin.CheckResult{
			Status:  infragin.HealthStatusDegraded,
			Message: fmt.Sprintf("circuit %s", s),
		}
	}
}

// SetupScheduler builds the cron scheduler for the configured jobs.
func SetupScheduler(app *App) (*scheduler.Scheduler, error) {
	s, err := scheduler.New(app.Config.Scheduler, app.Collector, app.Logger)
	if err != nil {
		return nil, fmt.Errorf("scheduler: %w", err)
	}
	return s, nil
}
