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

// DiagnosticEvent represents an engine diagnostic. These are informational
// events emitted outside the lookup hot path; the engine functions
// correctly whether they are collected or not.
type DiagnosticEvent struct {
	Kind    DiagnosticKind
	Message string
	Fields  map[string]any // Structured context
}

// DiagnosticKind categorizes diagnostic events.
type DiagnosticKind string

const (
	// DiagDeclarationSkipped is emitted once per malformed declaration
	// dropped by a lenient compile.
	DiagDeclarationSkipped DiagnosticKind = "declaration_skipped"

	// DiagSnapshotPublished is emitted when a snapshot becomes current.
	DiagSnapshotPublished DiagnosticKind = "snapshot_published"
)

// DiagnosticHandler receives diagnostic events from the engine.
// Implementations may log, emit metrics, or ignore them; the interface is
// optional and events are silently dropped when no handler is configured.
//
// Example with logging:
//
//	import "log/slog"
//
//	handler := dispatch.DiagnosticHandlerFunc(func(e dispatch.DiagnosticEvent) {
//	    slog.Info(e.Message, "kind", e.Kind, "fields", e.Fields)
//	})
//	eng := dispatch.MustNew[http.HandlerFunc](dispatch.WithDiagnostics(handler))
type DiagnosticHandler interface {
	OnDiagnostic(DiagnosticEvent)
}

// DiagnosticHandlerFunc is a function adapter for DiagnosticHandler.
type DiagnosticHandlerFunc func(DiagnosticEvent)

func (f DiagnosticHandlerFunc) OnDiagnostic(e DiagnosticEvent) {
	f(e)
}

// emit sends a diagnostic event if a handler is configured.
func emit(h DiagnosticHandler, e DiagnosticEvent) {
	if h != nil {
		h.OnDiagnostic(e)
	}
}
