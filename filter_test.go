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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// addFilter registers a filter with an automatic sequence number.
func addFilter(t *filterTree[string], path string, methods []string, priority int, seq uint64, payload string) {
	t.add(MustParsePattern(path), methods, priority, seq, payload)
}

func payloads(matches []FilterMatch[string]) []string {
	out := make([]string, len(matches))
	for i, m := range matches {
		out[i] = m.Payload
	}
	return out
}

func TestFilterLookupCollectsAllBranches(t *testing.T) {
	tree := newFilterTree[string]()
	addFilter(tree, "/a/*", nil, 0, 0, "wildcard")
	addFilter(tree, "/a/:x", nil, 0, 1, "param")
	addFilter(tree, "/a/b", nil, 0, 2, "literal")

	// Unlike route lookup, filters are not exclusive on specificity:
	// /a/b matches all three patterns at once.
	matches := tree.lookup("/a/b", "GET")
	require.Equal(t, []string{"wildcard", "param", "literal"}, payloads(matches))

	matches = tree.lookup("/a/b/c", "GET")
	require.Equal(t, []string{"wildcard"}, payloads(matches))
}

// TestFilterOrdering verifies that priorities registered as [5, 1, 5]
// come back sorted by (priority, registration order): the 1 first, then
// the two 5s in the order they were registered.
func TestFilterOrdering(t *testing.T) {
	tree := newFilterTree[string]()
	addFilter(tree, "/a/*", nil, 5, 0, "first-5")
	addFilter(tree, "/a/:x", nil, 1, 1, "the-1")
	addFilter(tree, "/a/b", nil, 5, 2, "second-5")

	matches := tree.lookup("/a/b", "GET")
	require.Equal(t, []string{"the-1", "first-5", "second-5"}, payloads(matches))
}

func TestFilterMethodSet(t *testing.T) {
	tree := newFilterTree[string]()
	addFilter(tree, "/a/*", []string{"POST", "PUT"}, 0, 0, "writes-only")
	addFilter(tree, "/a/*", nil, 0, 1, "all-methods")

	assert.Equal(t, []string{"all-methods"}, payloads(tree.lookup("/a/b", "GET")))
	assert.Equal(t, []string{"writes-only", "all-methods"}, payloads(tree.lookup("/a/b", "POST")))
}

func TestFilterNoMatches(t *testing.T) {
	tree := newFilterTree[string]()
	addFilter(tree, "/admin/*", nil, 0, 0, "admin")

	assert.Nil(t, tree.lookup("/public", "GET"))

	// A wildcard filter needs at least one remaining segment.
	assert.Nil(t, tree.lookup("/admin", "GET"))
}

func TestFilterSequenceComesFromDeclaration(t *testing.T) {
	// Inserting in reverse sequence order must not change the result:
	// ordering follows the declared sequence, not insertion order.
	tree := newFilterTree[string]()
	addFilter(tree, "/a/b", nil, 3, 7, "late")
	addFilter(tree, "/a/*", nil, 3, 2, "early")

	matches := tree.lookup("/a/b", "GET")
	require.Equal(t, []string{"early", "late"}, payloads(matches))
}

func TestFilterPatternExposedForCaptures(t *testing.T) {
	tree := newFilterTree[string]()
	addFilter(tree, "/users/:id/*", nil, 0, 0, "audit")

	matches := tree.lookup("/users/42/files/a.txt", "GET")
	require.Len(t, matches, 1)

	params, wildcard, ok := matches[0].Pattern.Match("/users/42/files/a.txt")
	require.True(t, ok)
	assert.Equal(t, map[string]string{"id": "42"}, params)
	assert.Equal(t, "files/a.txt", wildcard)
}
