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

// Package dispatch is a request-dispatch engine: the data structures and
// algorithms that map an incoming (HTTP method, path) pair to a handler
// reference, collect the pre-request filters that apply to a path in
// priority order, and resolve an error value to its most specific
// registered handler.
//
// The engine is a pure in-process library. It does not execute handlers,
// does not perform I/O, and knows nothing about HTTP beyond method names
// and path strings. The owning server layer feeds it a declaration list
// (typically produced by a scanner or a configuration file), compiles a
// snapshot, and issues lookups per request.
//
// # Routing
//
// Route paths compile to a sequence of literal, parameter (":name"), and
// trailing wildcard ("*") segments. Lookup walks a segment trie depth-first
// with backtracking, preferring literal over parameter over wildcard
// branches at every node, so /a/bob beats /a/:user beats /a/* for the path
// /a/bob while /a/bob/2 still falls through to the wildcard. A path that
// reaches a route under the wrong method reports ErrMethodNotAllowed rather
// than ErrNoRoute, letting the HTTP layer distinguish 404 from 405.
//
// # Filters
//
// Filters are not exclusive on specificity: a request can match an exact
// filter and a wildcard ancestor filter at once. Lookup collects every
// match and orders the result by (priority ascending, registration order
// ascending), giving a deterministic execution sequence.
//
// # Error handlers
//
// Error handlers register against a concrete error type or a capability
// interface (see ErrorTypeOf). Resolution walks the error's wrap tree
// breadth-first and picks the nearest registered match; ties at equal wrap
// depth go to the handler registered first.
//
// # Snapshots and hot reload
//
// All three structures live in an immutable Snapshot. Compiling builds a
// new snapshot from scratch; Publish swaps one atomic pointer, so a lookup
// in flight sees either the old snapshot or the new one, never a partial
// structure. Reload coalesces concurrent compile-and-publish cycles, which
// is how debug-mode "rescan on every request" stays cheap under load.
//
// # Quick start
//
//	eng := dispatch.MustNew[http.HandlerFunc]()
//
//	var decls dispatch.Declarations[http.HandlerFunc]
//	decls.Route([]string{"GET"}, "/users/:id", showUser)
//	decls.Route([]string{"GET"}, "/static/*", serveStatic)
//	decls.Filter("/users/*", nil, 10, requireAuth)
//	decls.ErrorHandler(&ValidationError{}, renderValidationError)
//
//	snap, err := eng.Compile(&decls)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	eng.Publish(snap)
//
//	match, err := eng.LookupRoute("GET", "/users/42")
//
// The declfile subpackage loads declaration lists from YAML, and the
// reload subpackage watches declaration files and drives Engine.Reload.
package dispatch
