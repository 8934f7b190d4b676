package search

import (
	"context"
	"fmt"

	"github.com/jonesrussell/company-url-collector/internal/domain"
	"golang.org/x/time/rate"
)

// Limited caps the rate of provider calls with a token bucket.
type Limited struct {
	next    Searcher
	limiter *rate.Limiter
}

var _ Searcher = (*Limited)(nil)

// NewLimited allows rps calls per second with the given burst. A
// non-positive rps disables the limit; a non-positive burst defaults to 1.
func NewLimited(next Searcher, rps float64, burst int) *Limited {
	limit := rate.Limit(rps)
	if rps <= 0 {
		limit = rate.Inf
	}
	if burst <= 0 {
		burst = 1
	}
	return &Limited{next: next, limiter: rate.NewLimiter(limit, burst)}
}

// Search waits for a token, then calls the wrapped Searcher.
func (l *Limited) Search(ctx context.Context, q Query) ([]byte, error) {
	if err := l.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: rate limit wait: %w", domain.ErrSearchUnavailable, err)
	}
	return l.next.Search(ctx, q)
}
