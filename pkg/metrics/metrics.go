// Package metrics defines the OpenTelemetry instruments of the loan pipeline
// and the meter provider that exports them to Prometheus.
package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/attribute"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// DefaultBuckets provides a common set of histogram buckets in seconds that can
// be reused across the application for latency metrics.
var DefaultBuckets = []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10} //nolint: gochecknoglobals

// MeterName is the instrumentation scope of the pipeline instruments.
const MeterName = "lending"

// NewMeterProvider creates a meter provider whose readings are exposed through
// the given Prometheus registerer.
func NewMeterProvider(registerer prometheus.Registerer) (*sdkmetric.MeterProvider, error) {
	exp, err := otelprom.New(otelprom.WithRegisterer(registerer))
	if err != nil {
		return nil, fmt.Errorf("could not create otel exporter: %w", err)
	}

	return sdkmetric.NewMeterProvider(sdkmetric.WithReader(exp)), nil
}

// Pipeline groups the instruments recorded by the document, application and
// worker services.
type Pipeline struct {
	submitted          metric.Int64Counter
	decisions          metric.Int64Counter
	documentsExtracted metric.Int64Counter
	underwriting       metric.Float64Histogram
	inFlight           metric.Int64UpDownCounter
}

// NewPipeline creates the pipeline instruments on the given provider.
func NewPipeline(provider metric.MeterProvider) (*Pipeline, error) {
	meter := provider.Meter(MeterName)

	submitted, err := meter.Int64Counter("lending.applications.submitted",
		metric.WithDescription("Number of accepted loan applications."))
	if err != nil {
		return nil, fmt.Errorf("could not create submitted counter: %w", err)
	}

	decisions, err := meter.Int64Counter("lending.applications.decisions",
		metric.WithDescription("Number of applications that reached a terminal state, by state."))
	if err != nil {
		return nil, fmt.Errorf("could not create decisions counter: %w", err)
	}

	documents, err := meter.Int64Counter("lending.documents.extracted",
		metric.WithDescription("Number of extracted documents, by type and review status."))
	if err != nil {
		return nil, fmt.Errorf("could not create documents counter: %w", err)
	}

	underwriting, err := meter.Float64Histogram("lending.underwriting.duration",
		metric.WithDescription("Duration of underwriting runs."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(DefaultBuckets...))
	if err != nil {
		return nil, fmt.Errorf("could not create underwriting histogram: %w", err)
	}

	inFlight, err := meter.Int64UpDownCounter("lending.underwriting.in_flight",
		metric.WithDescription("Number of underwriting runs currently executing."))
	if err != nil {
		return nil, fmt.Errorf("could not create in-flight counter: %w", err)
	}

	return &Pipeline{
		submitted:          submitted,
		decisions:          decisions,
		documentsExtracted: documents,
		underwriting:       underwriting,
		inFlight:           inFlight,
	}, nil
}

// Noop returns instruments that record nothing.
func Noop() *Pipeline {
	p, _ := NewPipeline(noop.NewMeterProvider())

	return p
}

// ApplicationSubmitted counts one accepted application.
func (p *Pipeline) ApplicationSubmitted(ctx context.Context) {
	p.submitted.Add(ctx, 1)
}

// ApplicationDecided counts one terminal transition.
func (p *Pipeline) ApplicationDecided(ctx context.Context, state string) {
	p.decisions.Add(ctx, 1, metric.WithAttributes(attribute.String("state", state)))
}

// DocumentExtracted counts one stored document.
func (p *Pipeline) DocumentExtracted(ctx context.Context, docType, review string) {
	p.documentsExtracted.Add(ctx, 1, metric.WithAttributes(
		attribute.String("type", docType),
		attribute.String("review", review),
	))
}

// UnderwritingStarted marks a run as in flight and returns a function that
// records its duration and outcome when called.
func (p *Pipeline) UnderwritingStarted(ctx context.Context) func(outcome string) {
	start := time.Now()
	p.inFlight.Add(ctx, 1)

	return func(outcome string) {
		p.inFlight.Add(ctx, -1)
		p.underwriting.Record(ctx, time.Since(start).Seconds(),
			metric.WithAttributes(attribute.String("outcome", outcome)))
	}
}
