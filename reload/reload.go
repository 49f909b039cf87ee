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

// Package reload watches declaration sources and re-triggers compilation
// when they change.
//
// It is the development-mode companion of the dispatch engine: production
// deployments compile once at startup, while a dev server wires a Watcher
// to Engine.Reload so edits to a declaration file take effect on the next
// request. The watcher lives outside the engine core on purpose — the
// engine itself performs no I/O.
//
// Example:
//
//	w, err := reload.New(func() error {
//	    _, err := eng.Reload(produceDeclarations)
//	    return err
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer w.Close()
//
//	if err := w.Watch("routes.yaml"); err != nil {
//	    log.Fatal(err)
//	}
//	w.Start(ctx)
package reload

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// defaultDebounce batches the bursts of events editors and build tools
// produce for a single save.
const defaultDebounce = 100 * time.Millisecond

// TriggerFunc is invoked after a debounced change. Returning an error does
// not stop the watcher; the error is passed to the OnError callback.
type TriggerFunc func() error

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets the delay between the last observed change and the
// trigger invocation.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithOnError sets a callback for trigger and watch errors. Without it,
// errors are dropped.
func WithOnError(fn func(error)) Option {
	return func(w *Watcher) {
		w.onError = fn
	}
}

// Watcher monitors declaration files and directories and invokes a trigger
// after changes settle.
type Watcher struct {
	fsw      *fsnotify.Watcher
	trigger  TriggerFunc
	onError  func(error)
	debounce time.Duration

	mu      sync.Mutex
	files   map[string]struct{} // exact file paths to react to
	dirs    map[string]struct{} // directories watched recursively at one level
	running bool
	stopCh  chan struct{}
	done    chan struct{}
}

// New creates a Watcher that calls trigger after watched files change.
func New(trigger TriggerFunc, opts ...Option) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		fsw:      fsw,
		trigger:  trigger,
		debounce: defaultDebounce,
		files:    make(map[string]struct{}),
		dirs:     make(map[string]struct{}),
		stopCh:   make(chan struct{}),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}

	return w, nil
}

// Watch adds a file or directory. For a file, its parent directory is
// watched and only events for that exact path trigger; editors that
// rename-and-replace on save are still observed that way. For a directory,
// any event inside it triggers.
func (w *Watcher) Watch(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	info, err := os.Stat(abs)
	if err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if info.IsDir() {
		if err := w.fsw.Add(abs); err != nil {
			return err
		}
		w.dirs[abs] = struct{}{}
		return nil
	}

	dir := filepath.Dir(abs)
	if _, watched := w.dirs[dir]; !watched {
		if err := w.fsw.Add(dir); err != nil {
			return err
		}
	}
	w.files[abs] = struct{}{}
	return nil
}

// Start launches the watch loop. It returns immediately; the loop runs
// until ctx is canceled or Close is called. Starting twice is a no-op.
func (w *Watcher) Start(ctx context.Context) {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return
	}
	w.running = true
	w.mu.Unlock()

	go w.loop(ctx)
}

// Close stops the watch loop and releases the underlying file watcher.
func (w *Watcher) Close() error {
	w.mu.Lock()
	running := w.running
	w.running = false
	w.mu.Unlock()

	if running {
		close(w.stopCh)
		<-w.done
	}
	return w.fsw.Close()
}

func (w *Watcher) loop(ctx context.Context) {
	defer close(w.done)

	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return

		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if !w.relevant(event) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				timerC = timer.C
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(w.debounce)
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.fail(err)

		case <-timerC:
			timer = nil
			timerC = nil
			if err := w.trigger(); err != nil {
				w.fail(err)
			}
		}
	}
}

// relevant reports whether an event concerns a watched path. Chmod-only
// events are ignored; they carry no content change.
func (w *Watcher) relevant(event fsnotify.Event) bool {
	if event.Op == fsnotify.Chmod {
		return false
	}

	name := filepath.Clean(event.Name)

	w.mu.Lock()
	defer w.mu.Unlock()

	if _, ok := w.files[name]; ok {
		return true
	}
	for dir := range w.dirs {
		if withinDir(name, dir) {
			return true
		}
	}
	return false
}

// withinDir reports whether name is inside dir.
func withinDir(name, dir string) bool {
	rel, err := filepath.Rel(dir, name)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !filepath.IsAbs(rel) && !hasDotDotPrefix(rel))
}

func hasDotDotPrefix(rel string) bool {
	return rel == ".." || len(rel) > 2 && rel[:3] == ".."+string(filepath.Separator)
}

func (w *Watcher) fail(err error) {
	if w.onError != nil {
		w.onError(err)
	}
}
