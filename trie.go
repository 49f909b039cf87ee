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
	"strings"
)

// RouteMatch is the result of a successful route lookup.
//
// Each lookup produces a fresh RouteMatch; results are never shared between
// requests. Params and Wildcard hold the raw captured substrings of the
// request path. URL-decoding is a boundary concern of the HTTP layer.
type RouteMatch[T any] struct {
	// Payload is the handler reference registered for the matched route.
	Payload T

	// Pattern is the compiled pattern the route was registered under.
	Pattern Pattern

	// Params maps parameter names to the path segments they captured.
	// Nil when the matched pattern has no parameters.
	Params map[string]string

	// Wildcard is the remaining path suffix captured by a trailing
	// wildcard, without a leading slash ("hello/world"). Empty when the
	// matched pattern has no wildcard.
	Wildcard string
}

// Param returns the captured value for the named parameter, or "".
func (m *RouteMatch[T]) Param(name string) string {
	return m.Params[name]
}

// routeTerminal is a payload registered at a trie node for one method.
type routeTerminal[T any] struct {
	payload T
	pattern Pattern
}

// routeEdge is a literal child keyed by its segment text. Children are kept
// in a slice and found by linear scan; route sets have few children per node
// and a scan avoids map hashing on the hot path.
type routeEdge[T any] struct {
	label string
	node  *routeNode[T]
}

// routeParam is the single parameter child a node may have. The name stored
// here is the one from the first pattern that created the node; parameter
// values are captured positionally and named from the matched terminal's
// pattern, so later patterns may reuse the node under a different name.
type routeParam[T any] struct {
	name string
	node *routeNode[T]
}

// routeNode is one level of the route trie. A node may simultaneously carry
// literal children, a parameter child, a wildcard child, and terminals.
type routeNode[T any] struct {
	edges     []routeEdge[T]
	param     *routeParam[T]
	wildcard  *routeNode[T]
	terminals map[string]routeTerminal[T] // by HTTP method
}

func (n *routeNode[T]) findEdge(label string) *routeNode[T] {
	for i := range n.edges {
		if n.edges[i].label == label {
			return n.edges[i].node
		}
	}
	return nil
}

func (n *routeNode[T]) findOrCreateEdge(label string) *routeNode[T] {
	if child := n.findEdge(label); child != nil {
		return child
	}
	child := &routeNode[T]{}
	n.edges = append(n.edges, routeEdge[T]{label: label, node: child})
	return child
}

// routeTree maps (method, path) pairs to payloads.
//
// The tree is built single-threaded during compilation and is immutable
// afterwards, so lookups require no locking. A tree is a pure function of
// its declarations: inserting the same set in any order yields identical
// lookup results.
type routeTree[T any] struct {
	root routeNode[T]
}

func newRouteTree[T any]() *routeTree[T] {
	return &routeTree[T]{}
}

// add registers a payload under every method of the set. Registering a
// (pattern, method) pair twice within one tree is an error.
func (t *routeTree[T]) add(methods []string, pattern Pattern, payload T) error {
	node := &t.root
	for _, s := range pattern.segments {
		switch s.Kind {
		case SegmentLiteral:
			node = node.findOrCreateEdge(s.Text)
		case SegmentParam:
			if node.param == nil {
				node.param = &routeParam[T]{name: s.Text, node: &routeNode[T]{}}
			}
			node = node.param.node
		case SegmentWildcard:
			if node.wildcard == nil {
				node.wildcard = &routeNode[T]{}
			}
			node = node.wildcard
		}
	}

	if node.terminals == nil {
		node.terminals = make(map[string]routeTerminal[T], len(methods))
	}
	for _, method := range methods {
		if _, exists := node.terminals[method]; exists {
			return fmt.Errorf("%w: %s %s", ErrDuplicateRoute, method, pattern)
		}
		node.terminals[method] = routeTerminal[T]{payload: payload, pattern: pattern}
	}

	return nil
}

// lookup resolves a request (method, path) to the single best match.
//
// The search walks the trie depth-first, trying candidates at every node in
// priority order: literal child first, then parameter child, then wildcard.
// A branch that matches but dead-ends deeper does not end the search; the
// walk backtracks to the next sibling alternative. Given routes /a/bob,
// /a/:user and /a/*, the path /a/bob resolves to the literal route while
// /a/bob/2 backtracks out of the "bob" branch into the wildcard.
//
// Outcomes are discriminated, never thrown: a nil match with ErrNoRoute
// means no node matched the full path, while ErrMethodNotAllowed means some
// node matched the path but had no terminal for the requested method.
func (t *routeTree[T]) lookup(method, path string) (*RouteMatch[T], error) {
	segs := splitPath(path)

	var methodMiss bool
	term, values, wildcard, ok := t.root.search(segs, nil, method, &methodMiss)
	if !ok {
		if methodMiss {
			return nil, ErrMethodNotAllowed
		}
		return nil, ErrNoRoute
	}

	match := &RouteMatch[T]{
		Payload:  term.payload,
		Pattern:  term.pattern,
		Wildcard: wildcard,
	}
	if len(values) > 0 {
		names := term.pattern.paramNames()
		match.Params = make(map[string]string, len(values))
		for i, v := range values {
			match.Params[names[i]] = v
		}
	}

	return match, nil
}

// search is the backtracking core of lookup. values accumulates parameter
// captures positionally along the current branch. methodMiss is set whenever
// the walk reaches a terminal-bearing node for the full path that lacks the
// requested method, so the caller can distinguish 404 from 405 after the
// search is exhausted.
func (n *routeNode[T]) search(segs, values []string, method string, methodMiss *bool) (routeTerminal[T], []string, string, bool) {
	if len(segs) == 0 {
		if len(n.terminals) > 0 {
			if term, ok := n.terminals[method]; ok {
				return term, values, "", true
			}
			*methodMiss = true
		}
		var zero routeTerminal[T]
		return zero, nil, "", false
	}

	// Literal first.
	if child := n.findEdge(segs[0]); child != nil {
		if term, vals, wc, ok := child.search(segs[1:], values, method, methodMiss); ok {
			return term, vals, wc, true
		}
	}

	// Then parameter.
	if n.param != nil {
		if term, vals, wc, ok := n.param.node.search(segs[1:], append(values, segs[0]), method, methodMiss); ok {
			return term, vals, wc, true
		}
	}

	// Wildcard last. It consumes every remaining segment, so at least one
	// must remain: /a/* does not match /a.
	if n.wildcard != nil && len(n.wildcard.terminals) > 0 {
		if term, ok := n.wildcard.terminals[method]; ok {
			return term, values, strings.Join(segs, "/"), true
		}
		*methodMiss = true
	}

	var zero routeTerminal[T]
	return zero, nil, "", false
}

// walkTerminals visits every registered (method, terminal) pair. Used for
// snapshot introspection; iteration order is unspecified.
func (t *routeTree[T]) walkTerminals(visit func(method string, term routeTerminal[T])) {
	t.root.walkTerminals(visit)
}

func (n *routeNode[T]) walkTerminals(visit func(method string, term routeTerminal[T])) {
	for method, term := range n.terminals {
		visit(method, term)
	}
	for i := range n.edges {
		n.edges[i].node.walkTerminals(visit)
	}
	if n.param != nil {
		n.param.node.walkTerminals(visit)
	}
	if n.wildcard != nil {
		n.wildcard.walkTerminals(visit)
	}
}
