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

package dispatch_test

import (
	"errors"
	"fmt"

	"rivaas.dev/dispatch"
)

func ExampleEngine() {
	eng := dispatch.MustNew[string]()

	var decls dispatch.Declarations[string]
	decls.Route([]string{"GET"}, "/users/:id", "users.show").
		Route([]string{"GET"}, "/files/*", "files.serve")

	snap, err := eng.Compile(&decls)
	if err != nil {
		panic(err)
	}
	if err := eng.Publish(snap); err != nil {
		panic(err)
	}

	match, _ := eng.LookupRoute("GET", "/users/42")
	fmt.Println(match.Payload, match.Param("id"))

	match, _ = eng.LookupRoute("GET", "/files/css/site.css")
	fmt.Println(match.Payload, match.Wildcard)

	// Output:
	// users.show 42
	// files.serve css/site.css
}

func ExampleEngine_LookupRoute() {
	eng := dispatch.MustNew[string]()

	var decls dispatch.Declarations[string]
	decls.Route([]string{"POST"}, "/orders", "orders.create")

	snap, _ := eng.Compile(&decls)
	_ = eng.Publish(snap)

	// A path with no matching route is a 404-class miss; a path whose
	// route exists under a different method is a 405-class miss.
	_, err := eng.LookupRoute("POST", "/nowhere")
	fmt.Println(errors.Is(err, dispatch.ErrNoRoute))

	_, err = eng.LookupRoute("GET", "/orders")
	fmt.Println(errors.Is(err, dispatch.ErrMethodNotAllowed))

	// Output:
	// true
	// true
}

func ExampleEngine_LookupFilters() {
	eng := dispatch.MustNew[string]()

	var decls dispatch.Declarations[string]
	decls.Route([]string{"GET"}, "/admin/reports", "reports.list").
		Filter("/admin/*", nil, 10, "auth").
		Filter("/admin/reports", []string{"GET"}, 5, "cache")

	snap, _ := eng.Compile(&decls)
	_ = eng.Publish(snap)

	for _, f := range eng.LookupFilters("/admin/reports", "GET") {
		fmt.Println(f.Priority, f.Payload)
	}

	// Output:
	// 5 cache
	// 10 auth
}

func ExampleEngine_LookupErrorHandler() {
	type validationError struct{ error }

	eng := dispatch.MustNew[string]()

	var decls dispatch.Declarations[string]
	decls.ErrorHandler(&validationError{}, "render.badRequest")

	snap, _ := eng.Compile(&decls)
	_ = eng.Publish(snap)

	err := fmt.Errorf("saving order: %w", &validationError{errors.New("missing field")})
	payload, ok := eng.LookupErrorHandler(err)
	fmt.Println(payload, ok)

	// Output:
	// render.badRequest true
}

func ExampleEngine_Reload() {
	eng := dispatch.MustNew[string]()

	produce := func() (*dispatch.Declarations[string], error) {
		var decls dispatch.Declarations[string]
		decls.Route([]string{"GET"}, "/ping", "ping")
		return &decls, nil
	}

	// Reload compiles and publishes in one step, coalescing concurrent
	// calls into a single compile.
	snap, err := eng.Reload(produce)
	if err != nil {
		panic(err)
	}
	fmt.Println(snap.RouteCount())

	// Output:
	// 1
}
