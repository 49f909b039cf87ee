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

// Package declfile loads dispatch declaration lists from YAML files.
//
// A declaration file names handlers symbolically; a Resolver supplied by
// the application maps those names to concrete handler references and
// error types. This keeps the file format independent of how the
// application organizes its handlers.
//
// Example file:
//
//	routes:
//	  - path: /users/:id
//	    methods: [GET]
//	    handler: users.show
//	  - path: /static/*
//	    methods: [GET]
//	    handler: static.serve
//	filters:
//	  - path: /users/*
//	    priority: 10
//	    handler: auth.require
//	errorHandlers:
//	  - error: validation
//	    handler: errors.validation
package declfile

import (
	"errors"
	"fmt"
	"os"

	"github.com/goccy/go-yaml"

	"rivaas.dev/dispatch"
)

var (
	// ErrUnknownHandler indicates that a declaration names a handler the
	// resolver does not know.
	ErrUnknownHandler = errors.New("unknown handler name")

	// ErrUnknownErrorType indicates that an error handler declaration
	// names an error type the resolver does not know.
	ErrUnknownErrorType = errors.New("unknown error type name")

	// ErrMissingField indicates that a declaration omits a required field.
	ErrMissingField = errors.New("missing required field")
)

// File is the parsed form of a declaration file. Declaration order within
// each section is preserved; it fixes filter and error handler sequence
// numbers.
type File struct {
	Routes        []Route        `yaml:"routes"`
	Filters       []Filter       `yaml:"filters"`
	ErrorHandlers []ErrorHandler `yaml:"errorHandlers"`
}

// Route declares one route by handler name.
type Route struct {
	Path    string   `yaml:"path"`
	Methods []string `yaml:"methods"`
	Handler string   `yaml:"handler"`
}

// Filter declares one pre-request filter by handler name. An empty method
// list matches every method.
type Filter struct {
	Path     string   `yaml:"path"`
	Methods  []string `yaml:"methods"`
	Priority int      `yaml:"priority"`
	Handler  string   `yaml:"handler"`
}

// ErrorHandler declares one error handler by symbolic error type name.
type ErrorHandler struct {
	Error   string `yaml:"error"`
	Handler string `yaml:"handler"`
}

// Resolver maps the symbolic names of a declaration file to concrete
// handler references and error handler targets.
type Resolver[T any] interface {
	// ResolveHandler returns the handler reference for a handler name.
	ResolveHandler(name string) (T, error)

	// ResolveErrorTarget returns the registration target for a symbolic
	// error type name: an error value or an interface reflect.Type, as
	// accepted by Declarations.ErrorHandler.
	ResolveErrorTarget(name string) (any, error)
}

// ResolverFuncs adapts two functions to the Resolver interface.
type ResolverFuncs[T any] struct {
	Handler     func(name string) (T, error)
	ErrorTarget func(name string) (any, error)
}

func (r ResolverFuncs[T]) ResolveHandler(name string) (T, error) {
	return r.Handler(name)
}

func (r ResolverFuncs[T]) ResolveErrorTarget(name string) (any, error) {
	return r.ErrorTarget(name)
}

// Parse decodes a declaration file from YAML and validates that required
// fields are present. Pattern syntax is not checked here; that is the
// compiler's job.
func Parse(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decoding declaration file: %w", err)
	}
	if err := f.validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// Load reads and parses a declaration file from disk.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading declaration file: %w", err)
	}
	f, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

func (f *File) validate() error {
	for i, r := range f.Routes {
		switch {
		case r.Path == "":
			return fmt.Errorf("%w: routes[%d].path", ErrMissingField, i)
		case len(r.Methods) == 0:
			return fmt.Errorf("%w: routes[%d].methods", ErrMissingField, i)
		case r.Handler == "":
			return fmt.Errorf("%w: routes[%d].handler", ErrMissingField, i)
		}
	}
	for i, fl := range f.Filters {
		switch {
		case fl.Path == "":
			return fmt.Errorf("%w: filters[%d].path", ErrMissingField, i)
		case fl.Handler == "":
			return fmt.Errorf("%w: filters[%d].handler", ErrMissingField, i)
		}
	}
	for i, eh := range f.ErrorHandlers {
		switch {
		case eh.Error == "":
			return fmt.Errorf("%w: errorHandlers[%d].error", ErrMissingField, i)
		case eh.Handler == "":
			return fmt.Errorf("%w: errorHandlers[%d].handler", ErrMissingField, i)
		}
	}
	return nil
}

// Declarations resolves a parsed file into a declaration list ready for
// Engine.Compile. Resolution failures abort with an error naming the
// offending entry; a half-resolved list is never returned.
func Declarations[T any](f *File, resolver Resolver[T]) (*dispatch.Declarations[T], error) {
	var decls dispatch.Declarations[T]

	for _, r := range f.Routes {
		payload, err := resolver.ResolveHandler(r.Handler)
		if err != nil {
			return nil, fmt.Errorf("route %q handler %q: %w", r.Path, r.Handler, err)
		}
		decls.Route(r.Methods, r.Path, payload)
	}

	for _, fl := range f.Filters {
		payload, err := resolver.ResolveHandler(fl.Handler)
		if err != nil {
			return nil, fmt.Errorf("filter %q handler %q: %w", fl.Path, fl.Handler, err)
		}
		decls.Filter(fl.Path, fl.Methods, fl.Priority, payload)
	}

	for _, eh := range f.ErrorHandlers {
		target, err := resolver.ResolveErrorTarget(eh.Error)
		if err != nil {
			return nil, fmt.Errorf("error handler %q: %w", eh.Error, err)
		}
		payload, err := resolver.ResolveHandler(eh.Handler)
		if err != nil {
			return nil, fmt.Errorf("error handler %q handler %q: %w", eh.Error, eh.Handler, err)
		}
		decls.ErrorHandler(target, payload)
	}

	return &decls, nil
}
