// Copyright 2025 The Rivaas Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package dispatch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// meterName identifies this library's instruments to the meter provider.
const meterName = "rivaas.dev/dispatch"

// Route lookup outcome attribute values. Keeping them as a closed set keeps
// metric cardinality bounded regardless of request paths.
const (
	outcomeMatch            = "match"
	outcomeNoRoute          = "no_route"
	outcomeMethodNotAllowed = "method_not_allowed"
)

// routeOutcome maps a lookup result to its outcome attribute value.
func routeOutcome(err error) string {
	switch {
	case err == nil:
		return outcomeMatch
	case errors.Is(err, ErrMethodNotAllowed):
		return outcomeMethodNotAllowed
	default:
		return outcomeNoRoute
	}
}

// metricsRecorder holds the engine's OpenTelemetry instruments. A nil
// recorder is valid and records nothing, so call sites stay unconditional.
type metricsRecorder struct {
	lookups        metric.Int64Counter
	compiles       metric.Int64Counter
	compileSeconds metric.Float64Histogram
	routes         metric.Int64Gauge
	filters        metric.Int64Gauge
	errorHandlers  metric.Int64Gauge
}

// newMetricsRecorder creates the engine instruments on the given provider.
func newMetricsRecorder(provider metric.MeterProvider) (*metricsRecorder, error) {
	meter := provider.Meter(meterName)
	rec := &metricsRecorder{}

	var err error
	if rec.lookups, err = meter.Int64Counter(
		"dispatch.route.lookups",
		metric.WithDescription("Route lookups by outcome"),
	); err != nil {
		return nil, fmt.Errorf("creating lookup counter: %w", err)
	}

	if rec.compiles, err = meter.Int64Counter(
		"dispatch.compiles",
		metric.WithDescription("Snapshot compiles by result"),
	); err != nil {
		return nil, fmt.Errorf("creating compile counter: %w", err)
	}

	if rec.compileSeconds, err = meter.Float64Histogram(
		"dispatch.compile.duration",
		metric.WithDescription("Snapshot compile duration"),
		metric.WithUnit("s"),
	); err != nil {
		return nil, fmt.Errorf("creating compile histogram: %w", err)
	}

	if rec.routes, err = meter.Int64Gauge(
		"dispatch.snapshot.routes",
		metric.WithDescription("Route registrations in the published snapshot"),
	); err != nil {
		return nil, fmt.Errorf("creating route gauge: %w", err)
	}

	if rec.filters, err = meter.Int64Gauge(
		"dispatch.snapshot.filters",
		metric.WithDescription("Filter registrations in the published snapshot"),
	); err != nil {
		return nil, fmt.Errorf("creating filter gauge: %w", err)
	}

	if rec.errorHandlers, err = meter.Int64Gauge(
		"dispatch.snapshot.error_handlers",
		metric.WithDescription("Error handler registrations in the published snapshot"),
	); err != nil {
		return nil, fmt.Errorf("creating error handler gauge: %w", err)
	}

	return rec, nil
}

func (r *metricsRecorder) recordRouteLookup(outcome string) {
	if r == nil {
		return
	}
	r.lookups.Add(bgCtx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

func (r *metricsRecorder) recordCompile(elapsed time.Duration, err error) {
	if r == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	attrs := metric.WithAttributes(attribute.String("result", result))
	r.compiles.Add(bgCtx, 1, attrs)
	r.compileSeconds.Record(bgCtx, elapsed.Seconds(), attrs)
}

func (r *metricsRecorder) recordPublish(routes, filters, errorHandlers int) {
	if r == nil {
		return
	}
	r.routes.Record(bgCtx, int64(routes))
	r.filters.Record(bgCtx, int64(filters))
	r.errorHandlers.Record(bgCtx, int64(errorHandlers))
}

// bgCtx is reused across instrument calls; the engine is CPU-bound and has
// no per-call context to propagate.
var bgCtx = context.Background()

// NewPrometheusMeterProvider builds a Prometheus-backed meter provider on a
// private registry, plus the HTTP handler that serves it. The provider is
// ready to pass to WithMetrics; the handler is typically mounted at
// /metrics by the owning server.
//
// Example:
//
//	provider, metricsHandler, err := dispatch.NewPrometheusMeterProvider()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	eng := dispatch.MustNew[Handler](dispatch.WithMetrics(provider))
//	mux.Handle("/metrics", metricsHandler)
func NewPrometheusMeterProvider() (metric.MeterProvider, http.Handler, error) {
	registry := promclient.NewRegistry()

	exporter, err := prometheus.New(prometheus.WithRegisterer(registry))
	if err != nil {
		return nil, nil, fmt.Errorf("creating Prometheus exporter: %w", err)
	}

	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter))
	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	return provider, handler, nil
}
