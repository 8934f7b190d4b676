// Package collector runs one URL collection end to end: search, parse,
// classify, merge, then post-collection hooks.
package collector

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	infralogger "github.com/jonesrussell/company-url-collector/infrastructure/logger"
	"github.com/jonesrussell/company-url-collector/internal/classifier"
	"github.com/jonesrussell/company-url-collector/internal/domain"
	"github.com/jonesrussell/company-url-collector/internal/parser"
	"github.com/jonesrussell/company-url-collector/internal/search"
	"github.com/jonesrussell/company-url-collector/internal/storage"
	"github.com/jonesrussell/company-url-collector/internal/telemetry"
)

const defaultHookTimeout = 10 * time.Second

// Hook runs after every collection, successful or not. Hook errors are
// logged and never change the result.
type Hook interface {
	Name() string
	AfterCollect(ctx context.Context, res domain.CollectionResult) error
}

// Collector sequences one collection.
type Collector struct {
	searcher    search.Searcher
	classifier  *classifier.Classifier
	store       storage.Store
	telemetry   *telemetry.Provider
	hooks       []Hook
	hookTimeout time.Duration
	log         infralogger.Logger
	now         func() time.Time
}

// Option configures a Collector.
type Option func(*Collector)

// WithLogger sets the logger.
func WithLogger(log infralogger.Logger) Option {
	return func(c *Collector) { c.log = log }
}

// WithTelemetry records metrics and spans on p.
func WithTelemetry(p *telemetry.Provider) Option {
	return func(c *Collector) { c.telemetry = p }
}

// WithHooks appends post-collection hooks. Nil hooks are skipped.
func WithHooks(hooks ...Hook) Option {
	return func(c *Collector) {
		for _, h := range hooks {
			if h != nil {
				c.hooks = append(c.hooks, h)
			}
		}
	}
}

// WithHookTimeout bounds each hook call.
func WithHookTimeout(d time.Duration) Option {
	return func(c *Collector) { c.hookTimeout = d }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Collector) { c.now = now }
}

// New returns a Collector.
func New(searcher search.Searcher, cls *classifier.Classifier, store storage.Store, opts ...Option) *Collector {
	c := &Collector{
		searcher:    searcher,
		classifier:  cls,
		store:       store,
		hookTimeout: defaultHookTimeout,
		log:         infralogger.NewNop(),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Collect runs one collection. It always returns a result; failures are
// reported in it rather than as an error.
func (c *Collector) Collect(ctx context.Context, req domain.CollectionRequest) (res domain.CollectionResult) {
	start := c.now()
	searchTime := domain.FormatTimestamp(start)
	log := c.log.With(
		infralogger.String("company", req.CompanyName),
		infralogger.String("duration", string(req.Duration)))

	ctx, span := c.startSpan(ctx, "collector.collect",
		attribute.String("company", req.CompanyName),
		attribute.String("duration", string(req.Duration)))

	defer func() {
		if r := recover(); r != nil {
			log.Error("Collection panicked", infralogger.Any("panic", r))
			res = domain.Failed(req, searchTime, fmt.Errorf("unexpected failure: %v", r))
		}
		c.guard(log, "finish", func() { c.finish(ctx, span, log, res, start) })
		c.guard(log, "hooks", func() { c.runHooks(ctx, log, res) })
	}()

	summary, err := c.collect(ctx, req)
	if err != nil {
		return domain.Failed(req, searchTime, err)
	}
	return domain.Succeeded(req, searchTime, summary)
}

func (c *Collector) collect(ctx context.Context, req domain.CollectionRequest) (*domain.Summary, error) {
	if req.CompanyName == "" || req.CompanyURL == "" {
		return nil, fmt.Errorf("%w: company_name and company_url are required", domain.ErrInvalidRequest)
	}
	if !req.Duration.Valid() {
		_, err := domain.ParseDuration(string(req.Duration))
		return nil, err
	}

	stageStart := c.now()
	raw, err := c.searcher.Search(ctx, search.Query{
		Company:    req.CompanyName,
		CompanyURL: req.CompanyURL,
		Duration:   req.Duration,
	})
	c.recordStage(telemetry.StageSearch, stageStart)
	if err != nil {
		if !errors.Is(err, domain.ErrSearchUnavailable) && !errors.Is(err, domain.ErrMalformedResponse) {
			err = fmt.Errorf("%w: %w", domain.ErrSearchUnavailable, err)
		}
		return nil, err
	}

	stageStart = c.now()
	candidates, err := parser.Parse(raw, c.now)
	c.recordStage(telemetry.StageParse, stageStart)
	if err != nil {
		return nil, err
	}

	stageStart = c.now()
	validated := c.classifier.Validate(candidates, req.CompanyURL)
	c.recordStage(telemetry.StageClassify, stageStart)
	if c.telemetry != nil {
		c.telemetry.RecordValidated(validated, len(candidates)-len(validated))
	}

	stageStart = c.now()
	merged, err := c.store.Merge(ctx, req.CompanyName, validated)
	c.recordStage(telemetry.StageMerge, stageStart)
	if err != nil {
		if !errors.Is(err, domain.ErrStorageUnavailable) {
			err = fmt.Errorf("%w: %w", domain.ErrStorageUnavailable, err)
		}
		return nil, err
	}

	return domain.Summarize(validated, merged), nil
}

func (c *Collector) finish(ctx context.Context, span trace.Span, log infralogger.Logger, res domain.CollectionResult, start time.Time) {
	defer span.End()

	if res.Success {
		log.Info("Collection completed",
			infralogger.Int("new_urls_found", res.NewURLsFound),
			infralogger.Int("total_urls_stored", res.TotalURLsStored),
			infralogger.Int("first_party", res.FirstPartyCount),
			infralogger.Int("relevant", res.RelevantCount))
		span.SetAttributes(
			attribute.Int("new_urls_found", res.NewURLsFound),
			attribute.Int("total_urls_stored", res.TotalURLsStored))
	} else {
		log.Warn("Collection failed",
			infralogger.String("error_kind", string(res.ErrorKind)),
			infralogger.String("error", res.Error))
		span.SetStatus(codes.Error, res.Error)
	}

	if c.telemetry != nil {
		c.telemetry.RecordCollection(ctx, res.ErrorKind)
		c.recordStage(telemetry.StageTotal, start)
	}
}

// guard runs fn and recovers a panic from it. Collect's result is already
// set when it runs.
func (c *Collector) guard(log infralogger.Logger, step string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			c.reportPanic(log, step, r)
		}
	}()
	fn()
}

func (c *Collector) reportPanic(log infralogger.Logger, step string, r any) {
	defer func() { _ = recover() }()
	log.Error("Collection bookkeeping panicked",
		infralogger.String("step", step),
		infralogger.Any("panic", r))
}

func (c *Collector) runHooks(ctx context.Context, log infralogger.Logger, res domain.CollectionResult) {
	hookCtx := context.WithoutCancel(ctx)
	for _, h := range c.hooks {
		func() {
			defer func() {
				if r := recover(); r != nil {
					log.Error("Collection hook panicked",
						infralogger.String("hook", h.Name()),
						infralogger.Any("panic", r))
					c.recordHookFailure(h.Name())
				}
			}()

			callCtx, cancel := context.WithTimeout(hookCtx, c.hookTimeout)
			defer cancel()
			if err := h.AfterCollect(callCtx, res); err != nil {
				log.Warn("Collection hook failed",
					infralogger.String("hook", h.Name()),
					infralogger.Error(err))
				c.recordHookFailure(h.Name())
			}
		}()
	}
}

func (c *Collector) startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	if c.telemetry == nil {
		return otel.Tracer("urlcollector").Start(ctx, name, trace.WithAttributes(attrs...))
	}
	return c.telemetry.StartSpan(ctx, name, attrs...)
}

func (c *Collector) recordStage(stage string, start time.Time) {
	if c.telemetry != nil {
		c.telemetry.RecordStage(stage, c.now().Sub(start))
	}
}

func (c *Collector) recordHookFailure(hook string) {
	if c.telemetry != nil {
		c.telemetry.RecordHookFailure(hook)
	}
}

// Stored returns company's stored collection.
func (c *Collector) Stored(ctx context.Context, company string) ([]domain.URLRecord, error) {
	return c.store.Load(ctx, company)
}

// Filtered returns company's stored records matching the flags. Nil flags
// match everything.
func (c *Collector) Filtered(ctx context.Context, company string, firstParty, relevant *bool) ([]domain.URLRecord, error) {
	records, err := c.store.Load(ctx, company)
	if err != nil {
		return nil, err
	}
	return storage.Filter(records, firstParty, relevant), nil
}

// Companies lists the stored company keys.
func (c *Collector) Companies(ctx context.Context) ([]string, error) {
	return c.store.Companies(ctx)
}
