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

import "errors"

var (
	// ErrPatternSyntax indicates that a route path string is malformed:
	// an empty interior segment, a parameter with an empty name, or a
	// wildcard that is not the final segment.
	ErrPatternSyntax = errors.New("malformed path pattern")

	// ErrDuplicateRoute indicates that the same (pattern, method) pair was
	// declared twice within one compile batch.
	ErrDuplicateRoute = errors.New("duplicate route")

	// ErrDuplicateErrorType indicates that an error handler was declared
	// twice for the same exact error type.
	ErrDuplicateErrorType = errors.New("duplicate error handler type")

	// ErrErrorTargetInvalid indicates that an error handler declaration
	// targets neither an error value nor an interface type.
	ErrErrorTargetInvalid = errors.New("error handler target must be an error value or an interface type")

	// ErrNoRoute indicates that no registered route matched the request
	// path. The HTTP layer maps this to a 404 response.
	ErrNoRoute = errors.New("no route for path")

	// ErrMethodNotAllowed indicates that a registered route matched the
	// request path but not the request method. The HTTP layer maps this to
	// a 405 response.
	ErrMethodNotAllowed = errors.New("path matched with wrong method")

	// ErrNilSnapshot indicates an attempt to publish a nil snapshot.
	ErrNilSnapshot = errors.New("snapshot is nil")
)
