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

import "go.opentelemetry.io/otel/metric"

// Option configures an Engine. Options are applied by New and validated
// immediately, so configuration errors surface at startup rather than at
// dispatch time.
type Option func(*config)

// config collects option values before the generic Engine is built.
// Keeping it non-generic lets options be shared across engines with
// different payload types.
type config struct {
	lenientCompile bool
	diagnostics    DiagnosticHandler
	meterProvider  metric.MeterProvider
}

// WithLenientCompile makes Compile skip malformed declarations instead of
// aborting the whole batch. Each skipped declaration is reported through
// the diagnostic handler, so a misspelled path in one controller does not
// take down every other route of a hot reload.
//
// Duplicate (pattern, method) routes and duplicate error handler types are
// rejected even under lenient compilation: they are authoring conflicts,
// and keeping either side silently would make dispatch depend on
// declaration order.
func WithLenientCompile() Option {
	return func(c *config) {
		c.lenientCompile = true
	}
}

// WithDiagnostics sets a diagnostic handler for the engine.
//
// Example:
//
//	handler := dispatch.DiagnosticHandlerFunc(func(e dispatch.DiagnosticEvent) {
//	    slog.Warn(e.Message, "kind", e.Kind, "fields", e.Fields)
//	})
//	eng := dispatch.MustNew[Handler](dispatch.WithDiagnostics(handler))
func WithDiagnostics(handler DiagnosticHandler) Option {
	return func(c *config) {
		c.diagnostics = handler
	}
}

// WithMetrics enables OpenTelemetry metrics for the engine using the given
// meter provider: lookup counters by outcome, compile duration, and the
// size of the published snapshot.
//
// Use NewPrometheusMeterProvider for a ready-made Prometheus-backed
// provider, or pass any provider from go.opentelemetry.io/otel/sdk/metric.
func WithMetrics(provider metric.MeterProvider) Option {
	return func(c *config) {
		c.meterProvider = provider
	}
}
