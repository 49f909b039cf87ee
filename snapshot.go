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
	"sort"
	"time"

	"github.com/google/uuid"
)

// Snapshot is one immutable, fully built instance of all three dispatch
// structures. A snapshot is constructed from scratch by Engine.Compile and
// is read-only for its entire lifetime: lookups never mutate it, and a
// request that captured a snapshot keeps resolving against it even if a
// newer one is published mid-request.
type Snapshot[T any] struct {
	id      string
	builtAt time.Time

	routes  *routeTree[T]
	filters *filterTree[T]
	errmap  *errorMapper[T]

	routeCount  int
	filterCount int
	errorCount  int
}

// RouteInfo describes one registered (method, pattern) pair for
// introspection, e.g. a debug route map page.
type RouteInfo struct {
	Method  string
	Pattern string
}

// ID returns the snapshot's unique identity, assigned at build time.
func (s *Snapshot[T]) ID() string {
	return s.id
}

// BuiltAt returns the time the snapshot was compiled.
func (s *Snapshot[T]) BuiltAt() time.Time {
	return s.builtAt
}

// RouteCount returns the number of (pattern, method) route registrations.
func (s *Snapshot[T]) RouteCount() int {
	return s.routeCount
}

// FilterCount returns the number of registered filters.
func (s *Snapshot[T]) FilterCount() int {
	return s.filterCount
}

// ErrorHandlerCount returns the number of registered error handlers.
func (s *Snapshot[T]) ErrorHandlerCount() int {
	return s.errorCount
}

// LookupRoute resolves (method, path) to the best matching route.
// See Engine.LookupRoute for outcome semantics.
func (s *Snapshot[T]) LookupRoute(method, path string) (*RouteMatch[T], error) {
	return s.routes.lookup(method, path)
}

// LookupFilters collects every filter matching (path, method) in execution
// order: priority ascending, registration order breaking ties.
func (s *Snapshot[T]) LookupFilters(path, method string) []FilterMatch[T] {
	return s.filters.lookup(path, method)
}

// LookupErrorHandler resolves err to the handler registered for the nearest
// matching type in its wrap tree. ok is false when no registered type
// matches; callers fall back to a generic handler.
func (s *Snapshot[T]) LookupErrorHandler(err error) (payload T, ok bool) {
	return s.errmap.handler(err)
}

// Routes lists every registered (method, pattern) pair, sorted by pattern
// then method, for deterministic introspection output.
func (s *Snapshot[T]) Routes() []RouteInfo {
	var infos []RouteInfo
	s.routes.walkTerminals(func(method string, term routeTerminal[T]) {
		infos = append(infos, RouteInfo{Method: method, Pattern: term.pattern.String()})
	})
	sort.Slice(infos, func(i, j int) bool {
		if infos[i].Pattern != infos[j].Pattern {
			return infos[i].Pattern < infos[j].Pattern
		}
		return infos[i].Method < infos[j].Method
	})
	return infos
}

// buildSnapshot compiles a declaration list into a fresh snapshot. No live
// structure is ever mutated incrementally: a compile either produces a
// complete snapshot or fails without publishing anything.
//
// When lenient is false the first malformed declaration aborts the compile.
// When lenient is true malformed declarations are skipped and each skip is
// reported through diag; the rest of the batch still compiles. Duplicate
// registrations are rejected in both modes: a duplicate is an authoring
// conflict, not a syntax slip, and silently dropping one side would make
// dispatch depend on declaration order.
func buildSnapshot[T any](decls *Declarations[T], lenient bool, diag DiagnosticHandler) (*Snapshot[T], error) {
	s := &Snapshot[T]{
		id:      uuid.NewString(),
		builtAt: time.Now(),
		routes:  newRouteTree[T](),
		filters: newFilterTree[T](),
		errmap:  newErrorMapper[T](),
	}

	skip := func(kind string, detail string, err error) error {
		if !lenient {
			return err
		}
		emit(diag, DiagnosticEvent{
			Kind:    DiagDeclarationSkipped,
			Message: "declaration skipped during compile",
			Fields:  map[string]any{"declaration": kind, "detail": detail, "error": err.Error()},
		})
		return nil
	}

	for _, r := range decls.Routes {
		pattern, err := ParsePattern(r.Path)
		if err != nil {
			if err = skip("route", r.Path, err); err != nil {
				return nil, fmt.Errorf("route %q: %w", r.Path, err)
			}
			continue
		}
		if err := s.routes.add(r.Methods, pattern, r.Payload); err != nil {
			return nil, err
		}
		s.routeCount += len(r.Methods)
	}

	for _, f := range decls.Filters {
		pattern, err := ParsePattern(f.Path)
		if err != nil {
			if err = skip("filter", f.Path, err); err != nil {
				return nil, fmt.Errorf("filter %q: %w", f.Path, err)
			}
			continue
		}
		s.filters.add(pattern, f.Methods, f.Priority, f.Seq, f.Payload)
		s.filterCount++
	}

	for _, e := range decls.Errors {
		if err := s.errmap.add(e.Target, e.Seq, e.Payload); err != nil {
			return nil, err
		}
		s.errorCount++
	}
	s.errmap.finish()

	return s, nil
}
