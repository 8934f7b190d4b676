package search

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jonesrussell/company-url-collector/infrastructure/circuitbreaker"
	infralogger "github.com/jonesrussell/company-url-collector/infrastructure/logger"
	"github.com/jonesrussell/company-url-collector/infrastructure/retry"
	"github.com/jonesrussell/company-url-collector/internal/domain"
)

const defaultCallTimeout = 120 * time.Second

// ResilienceConfig bounds each provider call and controls retries and the
// circuit breaker.
type ResilienceConfig struct {
	Timeout time.Duration         `env:"SEARCH_TIMEOUT" yaml:"timeout"`
	Retry   retry.Config          `yaml:"retry"`
	Breaker circuitbreaker.Config `yaml:"circuit_breaker"`
}

// Resilient decorates a Searcher with a per-attempt timeout, exponential
// backoff on transient failures and a circuit breaker. Client errors (4xx)
// are not retried and do not trip the breaker.
type Resilient struct {
	next    Searcher
	cfg     ResilienceConfig
	breaker *circuitbreaker.Breaker
	log     infralogger.Logger
}

var _ Searcher = (*Resilient)(nil)

// NewResilient wraps next.
func NewResilient(next Searcher, cfg ResilienceConfig, log infralogger.Logger) *Resilient {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultCallTimeout
	}
	if cfg.Retry.IsRetryable == nil {
		cfg.Retry.IsRetryable = retry.DefaultIsRetryable
	}
	if cfg.Breaker.IsFailure == nil {
		cfg.Breaker.IsFailure = retry.DefaultIsRetryable
	}
	if log == nil {
		log = infralogger.NewNop()
	}

	userHook := cfg.Breaker.OnStateChange
	cfg.Breaker.OnStateChange = func(from, to circuitbreaker.State) {
		log.Warn("search circuit breaker state changed",
			infralogger.String("from", from.String()),
			infralogger.String("to", to.String()))
		if userHook != nil {
			userHook(from, to)
		}
	}

	return &Resilient{
		next:    next,
		cfg:     cfg,
		breaker: circuitbreaker.New(cfg.Breaker),
		log:     log,
	}
}

// Search implements Searcher.
func (r *Resilient) Search(ctx context.Context, q Query) ([]byte, error) {
	var raw []byte
	attempt := 0

	err := r.breaker.Execute(ctx, func(ctx context.Context) error {
		return retry.Do(ctx, r.cfg.Retry, func(ctx context.Context) error {
			attempt++
			callCtx, cancel := context.WithTimeout(ctx, r.cfg.Timeout)
			defer cancel()

			out, err := r.next.Search(callCtx, q)
			if err != nil {
				r.log.Warn("search attempt failed",
					infralogger.String("company", q.Company),
					infralogger.Int("attempt", attempt),
					infralogger.Error(err))
				return err
			}
			raw = out
			return nil
		})
	})
	if err == nil {
		return raw, nil
	}

	if errors.Is(err, domain.ErrSearchUnavailable) || errors.Is(err, domain.ErrMalformedResponse) {
		return nil, err
	}
	return nil, fmt.Errorf("%w: %w", domain.ErrSearchUnavailable, err)
}

// State reports the breaker state.
func (r *Resilient) State() circuitbreaker.State {
	return r.breaker.State()
}
