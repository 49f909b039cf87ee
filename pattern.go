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

// SegmentKind identifies the matching behavior of a single pattern segment.
type SegmentKind uint8

const (
	// SegmentLiteral matches exactly one path segment by case-sensitive
	// string equality.
	SegmentLiteral SegmentKind = iota

	// SegmentParam matches exactly one path segment of any content and
	// captures it under the segment's name.
	SegmentParam

	// SegmentWildcard matches one or more remaining path segments. It is
	// only legal as the final segment of a pattern.
	SegmentWildcard
)

// Segment is one element of a compiled path pattern.
//
// Text holds the literal text for SegmentLiteral and the parameter name
// (without the ':' prefix) for SegmentParam. It is empty for SegmentWildcard.
type Segment struct {
	Kind SegmentKind
	Text string
}

// Pattern is the compiled, immutable form of a route path string such as
// "/users/:id/files/*". It is built once by ParsePattern and never mutated.
//
// A Pattern contains at most one wildcard and the wildcard is always the
// last segment.
type Pattern struct {
	raw      string
	segments []Segment
	params   int  // number of SegmentParam segments
	wildcard bool // true if the last segment is SegmentWildcard
}

// ParsePattern compiles a path string into a Pattern.
//
// Syntax:
//   - Segments are separated by '/'. The pattern must begin with '/'.
//   - A segment starting with ':' is a named parameter (":id").
//   - A segment equal to "*" is a trailing wildcard; anything after it is
//     an error.
//   - Every other segment is a literal matched case-sensitively.
//
// Malformed input ("//", ":" with an empty name, "*" before the end) returns
// an error wrapping ErrPatternSyntax. ParsePattern has no side effects.
func ParsePattern(path string) (Pattern, error) {
	if path == "" || path[0] != '/' {
		return Pattern{}, fmt.Errorf("%w: %q must begin with '/'", ErrPatternSyntax, path)
	}

	p := Pattern{raw: path}

	// Root pattern has no segments.
	if path == "/" {
		return p, nil
	}

	parts := strings.Split(path[1:], "/")
	p.segments = make([]Segment, 0, len(parts))

	for i, part := range parts {
		if p.wildcard {
			return Pattern{}, fmt.Errorf("%w: %q has segments after wildcard", ErrPatternSyntax, path)
		}

		switch {
		case part == "":
			return Pattern{}, fmt.Errorf("%w: %q contains an empty segment", ErrPatternSyntax, path)

		case part == "*":
			if i != len(parts)-1 {
				return Pattern{}, fmt.Errorf("%w: %q has segments after wildcard", ErrPatternSyntax, path)
			}
			p.segments = append(p.segments, Segment{Kind: SegmentWildcard})
			p.wildcard = true

		case part[0] == ':':
			name := part[1:]
			if name == "" {
				return Pattern{}, fmt.Errorf("%w: %q has a parameter with an empty name", ErrPatternSyntax, path)
			}
			p.segments = append(p.segments, Segment{Kind: SegmentParam, Text: name})
			p.params++

		default:
			p.segments = append(p.segments, Segment{Kind: SegmentLiteral, Text: part})
		}
	}

	return p, nil
}

// MustParsePattern is like ParsePattern but panics on malformed input.
// It is intended for patterns known at compile time.
func MustParsePattern(path string) Pattern {
	p, err := ParsePattern(path)
	if err != nil {
		panic(fmt.Sprintf("dispatch.MustParsePattern: %v", err))
	}
	return p
}

// String returns the original path string the pattern was compiled from.
func (p Pattern) String() string {
	return p.raw
}

// Segments returns a copy of the pattern's segments.
func (p Pattern) Segments() []Segment {
	out := make([]Segment, len(p.segments))
	copy(out, p.segments)
	return out
}

// HasWildcard reports whether the pattern ends in a wildcard segment.
func (p Pattern) HasWildcard() bool {
	return p.wildcard
}

// paramNames returns the parameter names in segment order.
func (p Pattern) paramNames() []string {
	if p.params == 0 {
		return nil
	}
	names := make([]string, 0, p.params)
	for _, s := range p.segments {
		if s.Kind == SegmentParam {
			names = append(names, s.Text)
		}
	}
	return names
}

// Match tests a concrete request path against the pattern and extracts
// captures. Parameter and wildcard values are returned as raw substrings of
// the path; the engine never URL-decodes them.
//
// A trailing wildcard requires at least one remaining path segment, so
// "/files/*" matches "/files/a" and "/files/a/b" but not "/files".
//
// Match allocates the params map only when the pattern has parameters,
// and the returned map is owned by the caller.
func (p Pattern) Match(path string) (params map[string]string, wildcard string, ok bool) {
	segs := splitPath(path)
	var values []string

	for _, s := range p.segments {
		switch s.Kind {
		case SegmentWildcard:
			if len(segs) == 0 {
				return nil, "", false
			}
			return p.buildParams(values), strings.Join(segs, "/"), true

		case SegmentParam:
			if len(segs) == 0 {
				return nil, "", false
			}
			values = append(values, segs[0])
			segs = segs[1:]

		case SegmentLiteral:
			if len(segs) == 0 || segs[0] != s.Text {
				return nil, "", false
			}
			segs = segs[1:]
		}
	}

	if len(segs) != 0 {
		return nil, "", false
	}
	return p.buildParams(values), "", true
}

// buildParams pairs captured values with the pattern's parameter names.
func (p Pattern) buildParams(values []string) map[string]string {
	if len(values) == 0 {
		return nil
	}
	params := make(map[string]string, len(values))
	names := p.paramNames()
	for i, v := range values {
		params[names[i]] = v
	}
	return params
}

// splitPath tokenizes a request path into its non-empty segments.
// Empty segments produced by a leading, trailing, or doubled slash are
// skipped, so "/a//b/" tokenizes the same as "/a/b".
func splitPath(path string) []string {
	if path == "" || path == "/" {
		return nil
	}

	n := strings.Count(path, "/") + 1
	segs := make([]string, 0, n)

	start := 0
	for start < len(path) {
		for start < len(path) && path[start] == '/' {
			start++
		}
		end := start
		for end < len(path) && path[end] != '/' {
			end++
		}
		if end > start {
			segs = append(segs, path[start:end])
		}
		start = end
	}

	return segs
}
