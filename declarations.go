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

// RouteDecl declares one route: a method set, a path pattern string, and an
// opaque handler reference. Declarations are plain data handed to Compile;
// they are typically produced by an external discovery step (a scanner, a
// code generator, or a configuration file).
type RouteDecl[T any] struct {
	Methods []string
	Path    string
	Payload T
}

// FilterDecl declares one pre-request filter. Seq is the filter's
// registration index; together with Priority it fixes the filter's position
// in the execution order, so a permuted declaration list compiles to the
// same ordering. An empty Methods set matches every method.
type FilterDecl[T any] struct {
	Path     string
	Methods  []string
	Priority int
	Seq      uint64
	Payload  T
}

// ErrorDecl declares one error handler. Target is either an error value
// (its dynamic type is registered) or a reflect.Type of an interface, see
// ErrorTypeOf. Seq fixes the tie-break order between handlers matching at
// equal wrap depth.
type ErrorDecl[T any] struct {
	Target  any
	Seq     uint64
	Payload T
}

// Declarations is the full input of one compile: every route, filter, and
// error handler the snapshot should serve. The zero value is ready to use.
//
// The slices are exported so that declaration lists can be assembled,
// merged, or reordered by external tooling; the builder methods are a
// convenience that appends and assigns sequence numbers.
type Declarations[T any] struct {
	Routes  []RouteDecl[T]
	Filters []FilterDecl[T]
	Errors  []ErrorDecl[T]

	nextSeq uint64
}

// Route appends a route declaration.
func (d *Declarations[T]) Route(methods []string, path string, payload T) *Declarations[T] {
	d.Routes = append(d.Routes, RouteDecl[T]{Methods: methods, Path: path, Payload: payload})
	return d
}

// Filter appends a filter declaration with the next registration index.
func (d *Declarations[T]) Filter(path string, methods []string, priority int, payload T) *Declarations[T] {
	d.Filters = append(d.Filters, FilterDecl[T]{
		Path:     path,
		Methods:  methods,
		Priority: priority,
		Seq:      d.nextSeq,
		Payload:  payload,
	})
	d.nextSeq++
	return d
}

// ErrorHandler appends an error handler declaration with the next
// registration index.
func (d *Declarations[T]) ErrorHandler(target any, payload T) *Declarations[T] {
	d.Errors = append(d.Errors, ErrorDecl[T]{Target: target, Seq: d.nextSeq, Payload: payload})
	d.nextSeq++
	return d
}

// Len returns the total number of declarations.
func (d *Declarations[T]) Len() int {
	return len(d.Routes) + len(d.Filters) + len(d.Errors)
}
