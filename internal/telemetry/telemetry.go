// Package telemetry provides Prometheus metrics and OpenTelemetry tracing
// for URL collection.
package telemetry

import (
	"context"
	"net/http"
	"time"

	"github.com/jonesrussell/company-url-collector/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	serviceName = "urlcollector"
	namespace   = "urlcollector"
)

// Collection stages.
const (
	StageSearch   = "search"
	StageParse    = "parse"
	StageClassify = "classify"
	StageMerge    = "merge"
	StageTotal    = "total"
)

// Metrics holds the collector's Prometheus metrics.
type Metrics struct {
	Collections   *prometheus.CounterVec
	StageDuration *prometheus.HistogramVec
	URLsValidated *prometheus.CounterVec
	URLsDropped   prometheus.Counter
	HookFailures  *prometheus.CounterVec
}

// Provider wraps the tracer and metrics.
type Provider struct {
	Tracer   trace.Tracer
	Metrics  *Metrics
	gatherer prometheus.Gatherer
}

// NewProvider registers metrics on reg. A nil reg uses the default
// Prometheus registry.
func NewProvider(reg *prometheus.Registry) *Provider {
	var (
		registerer prometheus.Registerer = prometheus.DefaultRegisterer
		gatherer   prometheus.Gatherer   = prometheus.DefaultGatherer
	)
	if reg != nil {
		registerer, gatherer = reg, reg
	}

	return &Provider{
		Tracer:   otel.Tracer(serviceName),
		Metrics:  initMetrics(promauto.With(registerer)),
		gatherer: gatherer,
	}
}

// Handler serves the registered metrics.
func (p *Provider) Handler() http.Handler {
	return promhttp.HandlerFor(p.gatherer, promhttp.HandlerOpts{})
}

func initMetrics(f promauto.Factory) *Metrics {
	return &Metrics{
		Collections: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "collections_total",
			Help:      "Collections by outcome and error kind",
		}, []string{"outcome", "error_kind"}),

		StageDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Time spent per collection stage",
			Buckets:   []float64{0.001, 0.01, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}, []string{"stage"}),

		URLsValidated: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "urls_validated_total",
			Help:      "Validated URLs by party and relevance",
		}, []string{"party", "relevance"}),

		URLsDropped: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "urls_dropped_total",
			Help:      "Candidates dropped for lacking an http(s) URL",
		}),

		HookFailures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "hook_failures_total",
			Help:      "Failed post-merge hooks by hook name",
		}, []string{"hook"}),
	}
}

// RecordStage observes the duration of one stage.
func (p *Provider) RecordStage(stage string, d time.Duration) {
	p.Metrics.StageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

// RecordCollection counts a finished collection.
func (p *Provider) RecordCollection(_ context.Context, kind domain.ErrorKind) {
	outcome := "success"
	if kind != "" {
		outcome = "failure"
	}
	p.Metrics.Collections.WithLabelValues(outcome, string(kind)).Inc()
}

// RecordValidated counts validated records and dropped candidates.
func (p *Provider) RecordValidated(records []domain.URLRecord, dropped int) {
	for _, r := range records {
		party := "third"
		if r.IsFirstParty {
			party = "first"
		}
		relevance := "irrelevant"
		if r.IsRelevant {
			relevance = "relevant"
		}
		p.Metrics.URLsValidated.WithLabelValues(party, relevance).Inc()
	}
	p.Metrics.URLsDropped.Add(float64(dropped))
}

// RecordHookFailure counts a failed post-merge hook.
func (p *Provider) RecordHookFailure(hook string) {
	p.Metrics.HookFailures.WithLabelValues(hook).Inc()
}

// StartSpan starts a span the caller must end.
//
//nolint:spancheck // Caller is responsible for ending the span
func (p *Provider) StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return p.Tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}
