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

func TestParsePattern(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		segments []Segment
		wildcard bool
	}{
		{
			name:     "root",
			path:     "/",
			segments: nil,
		},
		{
			name: "literals",
			path: "/api/users",
			segments: []Segment{
				{Kind: SegmentLiteral, Text: "api"},
				{Kind: SegmentLiteral, Text: "users"},
			},
		},
		{
			name: "parameter",
			path: "/users/:id",
			segments: []Segment{
				{Kind: SegmentLiteral, Text: "users"},
				{Kind: SegmentParam, Text: "id"},
			},
		},
		{
			name: "trailing wildcard",
			path: "/static/*",
			segments: []Segment{
				{Kind: SegmentLiteral, Text: "static"},
				{Kind: SegmentWildcard},
			},
			wildcard: true,
		},
		{
			name: "mixed",
			path: "/users/:id/files/*",
			segments: []Segment{
				{Kind: SegmentLiteral, Text: "users"},
				{Kind: SegmentParam, Text: "id"},
				{Kind: SegmentLiteral, Text: "files"},
				{Kind: SegmentWildcard},
			},
			wildcard: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := ParsePattern(tt.path)
			require.NoError(t, err)

			assert.Equal(t, tt.path, p.String())
			assert.Equal(t, tt.segments, p.segments)
			assert.Equal(t, tt.wildcard, p.HasWildcard())
		})
	}
}

func TestParsePatternErrors(t *testing.T) {
	tests := []struct {
		name string
		path string
	}{
		{"empty string", ""},
		{"missing leading slash", "users"},
		{"empty segment", "/a//b"},
		{"trailing empty segment", "/a/"},
		{"empty parameter name", "/users/:"},
		{"wildcard not final", "/a/*/b"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParsePattern(tt.path)
			require.ErrorIs(t, err, ErrPatternSyntax)
		})
	}
}

func TestPatternCaseSensitive(t *testing.T) {
	p := MustParsePattern("/Admin/users")

	_, _, ok := p.Match("/Admin/users")
	assert.True(t, ok)

	_, _, ok = p.Match("/admin/users")
	assert.False(t, ok, "literal segments match case-sensitively")
}

func TestPatternMatch(t *testing.T) {
	tests := []struct {
		name     string
		pattern  string
		path     string
		ok       bool
		params   map[string]string
		wildcard string
	}{
		{name: "root", pattern: "/", path: "/", ok: true},
		{name: "exact literal", pattern: "/a/b", path: "/a/b", ok: true},
		{name: "literal too short", pattern: "/a/b", path: "/a", ok: false},
		{name: "literal too long", pattern: "/a/b", path: "/a/b/c", ok: false},
		{
			name:    "parameter capture",
			pattern: "/users/:id",
			path:    "/users/42",
			ok:      true,
			params:  map[string]string{"id": "42"},
		},
		{
			name:     "wildcard remainder",
			pattern:  "/static/*",
			path:     "/static/css/app.css",
			ok:       true,
			wildcard: "css/app.css",
		},
		{name: "wildcard needs a segment", pattern: "/static/*", path: "/static", ok: false},
		{
			name:    "raw values are not decoded",
			pattern: "/users/:id",
			path:    "/users/a%20b",
			ok:      true,
			params:  map[string]string{"id": "a%20b"},
		},
		{
			name:    "doubled slash tokenizes like single",
			pattern: "/a/b",
			path:    "/a//b",
			ok:      true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := MustParsePattern(tt.pattern)
			params, wildcard, ok := p.Match(tt.path)

			require.Equal(t, tt.ok, ok)
			if !tt.ok {
				return
			}
			assert.Equal(t, tt.params, params)
			assert.Equal(t, tt.wildcard, wildcard)
		})
	}
}

func TestMustParsePatternPanics(t *testing.T) {
	assert.Panics(t, func() { MustParsePattern("//") })
}
