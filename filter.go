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

import "sort"

// FilterMatch is one pre-request filter selected for a request, in
// execution order.
type FilterMatch[T any] struct {
	// Payload is the registered filter handler reference.
	Payload T

	// Pattern is the pattern the filter was registered under. Callers that
	// need per-filter captures can apply Pattern.Match to the request path.
	Pattern Pattern

	// Priority is the filter's ordering key; lower values run earlier.
	Priority int
}

// filterEntry is a registered filter attached to its pattern's terminal node.
type filterEntry[T any] struct {
	payload  T
	pattern  Pattern
	methods  map[string]struct{} // nil means every method
	priority int
	seq      uint64 // registration index, breaks priority ties
}

func (e *filterEntry[T]) matchesMethod(method string) bool {
	if e.methods == nil {
		return true
	}
	_, ok := e.methods[method]
	return ok
}

type filterEdge[T any] struct {
	label string
	node  *filterNode[T]
}

// filterNode mirrors the route trie node shape, but terminals are entry
// lists rather than per-method payloads: several filters may share one
// pattern.
type filterNode[T any] struct {
	edges    []filterEdge[T]
	param    *filterNode[T]
	wildcard *filterNode[T]
	entries  []filterEntry[T]
}

func (n *filterNode[T]) findEdge(label string) *filterNode[T] {
	for i := range n.edges {
		if n.edges[i].label == label {
			return n.edges[i].node
		}
	}
	return nil
}

func (n *filterNode[T]) findOrCreateEdge(label string) *filterNode[T] {
	if child := n.findEdge(label); child != nil {
		return child
	}
	child := &filterNode[T]{}
	n.edges = append(n.edges, filterEdge[T]{label: label, node: child})
	return child
}

// filterTree stores pre-request filters and collects, per lookup, every
// filter whose pattern and method set match the request.
//
// Unlike the route trie, matching is not exclusive on specificity: a request
// can match a literal filter and a wildcard ancestor filter simultaneously,
// so lookup explores the literal, parameter, and wildcard branches of every
// node it passes through.
type filterTree[T any] struct {
	root filterNode[T]
}

func newFilterTree[T any]() *filterTree[T] {
	return &filterTree[T]{}
}

// add registers a filter. Filters are never rejected as duplicates; the
// same handler may be attached to several patterns or priorities. seq is
// the filter's registration index, carried by its declaration so that
// compiling a permuted declaration list yields identical ordering.
func (t *filterTree[T]) add(pattern Pattern, methods []string, priority int, seq uint64, payload T) {
	node := &t.root
	for _, s := range pattern.segments {
		switch s.Kind {
		case SegmentLiteral:
			node = node.findOrCreateEdge(s.Text)
		case SegmentParam:
			if node.param == nil {
				node.param = &filterNode[T]{}
			}
			node = node.param
		case SegmentWildcard:
			if node.wildcard == nil {
				node.wildcard = &filterNode[T]{}
			}
			node = node.wildcard
		}
	}

	var methodSet map[string]struct{}
	if len(methods) > 0 {
		methodSet = make(map[string]struct{}, len(methods))
		for _, m := range methods {
			methodSet[m] = struct{}{}
		}
	}

	node.entries = append(node.entries, filterEntry[T]{
		payload:  payload,
		pattern:  pattern,
		methods:  methodSet,
		priority: priority,
		seq:      seq,
	})
}

// lookup collects every filter matching the request path and method, sorted
// by (priority ascending, registration order ascending). The sequence is
// deterministic and contains no entry twice: each entry lives at exactly one
// node and every matching node is visited exactly once.
func (t *filterTree[T]) lookup(path, method string) []FilterMatch[T] {
	segs := splitPath(path)

	var collected []*filterEntry[T]
	t.root.collect(segs, method, &collected)
	if len(collected) == 0 {
		return nil
	}

	sort.Slice(collected, func(i, j int) bool {
		if collected[i].priority != collected[j].priority {
			return collected[i].priority < collected[j].priority
		}
		return collected[i].seq < collected[j].seq
	})

	matches := make([]FilterMatch[T], len(collected))
	for i, e := range collected {
		matches[i] = FilterMatch[T]{Payload: e.payload, Pattern: e.pattern, Priority: e.priority}
	}
	return matches
}

// collect explores every branch that can match the remaining segments.
func (n *filterNode[T]) collect(segs []string, method string, out *[]*filterEntry[T]) {
	if len(segs) == 0 {
		for i := range n.entries {
			if n.entries[i].matchesMethod(method) {
				*out = append(*out, &n.entries[i])
			}
		}
		return
	}

	if child := n.findEdge(segs[0]); child != nil {
		child.collect(segs[1:], method, out)
	}
	if n.param != nil {
		n.param.collect(segs[1:], method, out)
	}
	// A wildcard filter matches any non-empty remainder.
	if n.wildcard != nil {
		for i := range n.wildcard.entries {
			if n.wildcard.entries[i].matchesMethod(method) {
				*out = append(*out, &n.wildcard.entries[i])
			}
		}
	}
}
