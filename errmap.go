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
	"reflect"
	"sort"
)

// errorType is the reflect.Type of the error interface.
var errorType = reflect.TypeOf((*error)(nil)).Elem()

// ErrorTypeOf returns a registration target for the capability interface I.
// It is the idiomatic way to map an interface rather than a concrete error
// type:
//
//	decls.ErrorHandler(dispatch.ErrorTypeOf[interface{ Timeout() bool }](), handler)
func ErrorTypeOf[I any]() reflect.Type {
	return reflect.TypeOf((*I)(nil)).Elem()
}

// errorEntry is one registered error handler with its precomputed match
// metadata. Matching against reflect kinds is resolved here, at build time,
// so a lookup only performs type comparisons.
type errorEntry[T any] struct {
	typ     reflect.Type
	iface   bool
	payload T
	seq     uint64
}

func (e *errorEntry[T]) matches(t reflect.Type) bool {
	if e.iface {
		return t.Implements(e.typ)
	}
	return t == e.typ
}

// errorMapper resolves an error value to the handler registered for the
// nearest matching type in its wrap tree.
//
// This is the Go rendition of exception-class hierarchy resolution: the
// "ancestor chain" of an error is its wrap tree (Unwrap() error and
// Unwrap() []error), walked breadth-first, and "distance" is unwrap depth.
// At each depth, entries are consulted in registration order, so two
// unrelated interfaces both satisfied at the same depth resolve to the one
// registered first. That tie-break is a documented policy, not an accident.
type errorMapper[T any] struct {
	entries []errorEntry[T]
	byType  map[reflect.Type]struct{}
}

func newErrorMapper[T any]() *errorMapper[T] {
	return &errorMapper[T]{byType: make(map[reflect.Type]struct{})}
}

// add registers a handler for an error type. target is either an error
// value (only its dynamic type is used; register with the same form your
// code returns, typically a pointer) or a reflect.Type of an interface,
// usually built with ErrorTypeOf. Registering the same exact type twice is
// an error.
func (m *errorMapper[T]) add(target any, seq uint64, payload T) error {
	typ, iface, err := errorTargetType(target)
	if err != nil {
		return err
	}

	if _, exists := m.byType[typ]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateErrorType, typ)
	}
	m.byType[typ] = struct{}{}

	m.entries = append(m.entries, errorEntry[T]{typ: typ, iface: iface, payload: payload, seq: seq})
	return nil
}

// finish orders entries by registration index. Called once when the
// snapshot is built, so lookup order is independent of insertion order.
func (m *errorMapper[T]) finish() {
	sort.Slice(m.entries, func(i, j int) bool {
		return m.entries[i].seq < m.entries[j].seq
	})
}

// errorTargetType validates a registration target and resolves its
// reflect.Type and interface-ness.
func errorTargetType(target any) (reflect.Type, bool, error) {
	switch t := target.(type) {
	case reflect.Type:
		if t.Kind() != reflect.Interface {
			return nil, false, fmt.Errorf("%w: reflect.Type %s is not an interface", ErrErrorTargetInvalid, t)
		}
		return t, true, nil
	case error:
		typ := reflect.TypeOf(t)
		if typ == nil {
			return nil, false, fmt.Errorf("%w: nil error value", ErrErrorTargetInvalid)
		}
		return typ, false, nil
	default:
		return nil, false, fmt.Errorf("%w: got %T", ErrErrorTargetInvalid, target)
	}
}

// handler resolves err to the most specific registered handler.
//
// The wrap tree of err is walked breadth-first: depth 0 is err itself,
// depth 1 the errors it directly wraps, and so on. The first depth at which
// any entry matches wins; within a depth, the entry registered earliest
// wins. A miss returns the zero payload and false — it is a normal "no
// specific handler" signal, not an error.
func (m *errorMapper[T]) handler(err error) (T, bool) {
	var zero T
	if err == nil || len(m.entries) == 0 {
		return zero, false
	}

	level := []error{err}
	for len(level) > 0 {
		// Entries outrank errors within a depth: first registered wins
		// even when a later entry matches an earlier error of the level.
		for i := range m.entries {
			e := &m.entries[i]
			for _, cause := range level {
				if t := reflect.TypeOf(cause); t != nil && e.matches(t) {
					return e.payload, true
				}
			}
		}

		var next []error
		for _, cause := range level {
			switch u := cause.(type) {
			case interface{ Unwrap() error }:
				if inner := u.Unwrap(); inner != nil {
					next = append(next, inner)
				}
			case interface{ Unwrap() []error }:
				for _, inner := range u.Unwrap() {
					if inner != nil {
						next = append(next, inner)
					}
				}
			}
		}
		level = next
	}

	return zero, false
}
