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
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"
)

// Engine owns the single "current snapshot" slot and coordinates compiles
// against it. T is the opaque handler reference type carried by routes,
// filters, and error handlers — typically a function type or a small
// struct naming a controller method.
//
// Concurrency model:
//   - Any number of goroutines may call Current and the Lookup* methods
//     concurrently. A lookup is one atomic pointer load plus a bounded,
//     lock-free tree walk; it never blocks and never observes a partially
//     built snapshot.
//   - At most one Compile runs at a time. Compiles are mutually exclusive
//     with each other but never with lookups: they build entirely new
//     structures and publish with a single atomic swap.
//   - Reload coalesces concurrent compile-and-publish requests (the
//     hot-reload path, where every inbound request may trigger a rescan)
//     into one compile whose result is shared.
//
// Example:
//
//	eng := dispatch.MustNew[http.HandlerFunc]()
//
//	var decls dispatch.Declarations[http.HandlerFunc]
//	decls.Route([]string{"GET"}, "/users/:id", getUser)
//	decls.Filter("/users/*", nil, 10, requireAuth)
//
//	snap, err := eng.Compile(&decls)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	eng.Publish(snap)
//
//	match, err := eng.LookupRoute("GET", "/users/42")
type Engine[T any] struct {
	current atomic.Pointer[Snapshot[T]]

	compileMu sync.Mutex         // serializes Compile calls
	reloads   singleflight.Group // coalesces Reload calls

	lenientCompile bool
	diagnostics    DiagnosticHandler
	metrics        *metricsRecorder
}

// New creates an Engine with optional configuration. No snapshot is
// published yet; lookups against a fresh engine report ErrNoRoute until the
// first Publish.
func New[T any](opts ...Option) (*Engine[T], error) {
	var cfg config
	for _, opt := range opts {
		opt(&cfg)
	}

	e := &Engine[T]{
		lenientCompile: cfg.lenientCompile,
		diagnostics:    cfg.diagnostics,
	}

	if cfg.meterProvider != nil {
		rec, err := newMetricsRecorder(cfg.meterProvider)
		if err != nil {
			return nil, fmt.Errorf("engine metrics initialization failed: %w", err)
		}
		e.metrics = rec
	}

	return e, nil
}

// MustNew is like New but panics on configuration errors. Intended for
// startup paths where an invalid configuration should fail immediately.
func MustNew[T any](opts ...Option) *Engine[T] {
	e, err := New[T](opts...)
	if err != nil {
		panic(fmt.Sprintf("dispatch.MustNew: %v", err))
	}
	return e
}

// Compile builds a brand-new snapshot from a declaration list. The
// currently published snapshot is never touched: compilation either fully
// succeeds and returns a complete snapshot, or fails and returns nil.
// Compile does not publish; call Publish (or use Reload) to make the
// snapshot current.
//
// Concurrent Compile calls are serialized with each other but do not block
// lookups against the current snapshot.
func (e *Engine[T]) Compile(decls *Declarations[T]) (*Snapshot[T], error) {
	e.compileMu.Lock()
	defer e.compileMu.Unlock()

	start := time.Now()
	snap, err := buildSnapshot(decls, e.lenientCompile, e.diagnostics)
	e.metrics.recordCompile(time.Since(start), err)
	if err != nil {
		return nil, err
	}

	return snap, nil
}

// Publish atomically replaces the current snapshot. A lookup already in
// flight keeps the snapshot it captured; a lookup that starts after Publish
// returns observes the new one.
func (e *Engine[T]) Publish(snap *Snapshot[T]) error {
	if snap == nil {
		return ErrNilSnapshot
	}

	e.current.Store(snap)
	e.metrics.recordPublish(snap.routeCount, snap.filterCount, snap.errorCount)
	emit(e.diagnostics, DiagnosticEvent{
		Kind:    DiagSnapshotPublished,
		Message: "snapshot published",
		Fields: map[string]any{
			"snapshot_id": snap.ID(),
			"routes":      snap.RouteCount(),
			"filters":     snap.FilterCount(),
			"errors":      snap.ErrorHandlerCount(),
		},
	})

	return nil
}

// Current returns the published snapshot, or nil before the first Publish.
// It is one atomic load; callers that perform several lookups for one
// request should capture the snapshot once and use its methods, so the
// whole request resolves against a single consistent snapshot.
func (e *Engine[T]) Current() *Snapshot[T] {
	return e.current.Load()
}

// Reload compiles a fresh declaration list and publishes the result,
// coalescing concurrent calls: when many requests trigger a rescan at once
// (debug-mode hot reload), produce runs once and every caller receives the
// same snapshot. Lookups proceed against the old snapshot for the entire
// duration of the reload.
func (e *Engine[T]) Reload(produce func() (*Declarations[T], error)) (*Snapshot[T], error) {
	v, err, _ := e.reloads.Do("reload", func() (any, error) {
		decls, err := produce()
		if err != nil {
			return nil, err
		}
		snap, err := e.Compile(decls)
		if err != nil {
			return nil, err
		}
		if err := e.Publish(snap); err != nil {
			return nil, err
		}
		return snap, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Snapshot[T]), nil
}

// LookupRoute resolves (method, path) against the current snapshot.
//
// Outcomes are discriminated results, not failures of the engine: a nil
// match with ErrNoRoute means nothing matched the path (HTTP 404), and
// ErrMethodNotAllowed means a route matched the path under a different
// method (HTTP 405). Before the first Publish every lookup is ErrNoRoute.
func (e *Engine[T]) LookupRoute(method, path string) (*RouteMatch[T], error) {
	snap := e.current.Load()
	if snap == nil {
		e.metrics.recordRouteLookup(outcomeNoRoute)
		return nil, ErrNoRoute
	}

	match, err := snap.LookupRoute(method, path)
	e.metrics.recordRouteLookup(routeOutcome(err))
	return match, err
}

// LookupFilters collects the filters for (path, method) from the current
// snapshot in execution order. Returns nil before the first Publish.
func (e *Engine[T]) LookupFilters(path, method string) []FilterMatch[T] {
	snap := e.current.Load()
	if snap == nil {
		return nil
	}
	return snap.LookupFilters(path, method)
}

// LookupErrorHandler resolves err against the current snapshot. ok is
// false when no registered type matches or no snapshot is published;
// the caller falls back to its generic handler.
func (e *Engine[T]) LookupErrorHandler(err error) (payload T, ok bool) {
	snap := e.current.Load()
	if snap == nil {
		var zero T
		return zero, false
	}
	return snap.LookupErrorHandler(err)
}
