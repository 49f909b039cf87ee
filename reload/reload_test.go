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

package reload

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestWatcher(t *testing.T, trigger TriggerFunc, opts ...Option) *Watcher {
	t.Helper()
	w, err := New(trigger, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Close() })
	return w
}

func TestWatcherFileChangeTriggers(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "routes.yaml")
	require.NoError(t, os.WriteFile(path, []byte("routes: []\n"), 0o600))

	var fired atomic.Int32
	w := newTestWatcher(t, func() error {
		fired.Add(1)
		return nil
	}, WithDebounce(20*time.Millisecond))

	require.NoError(t, w.Watch(path))
	w.Start(context.Background())

	require.NoError(t, os.WriteFile(path, []byte("routes:\n  - path: /a\n"), 0o600))

	require.Eventually(t, func() bool {
		return fired.Load() >= 1
	}, 3*time.Second, 10*time.Millisecond)
}

func TestWatcherIgnoresSiblings(t *testing.T) {
	dir := t.TempDir()
	watched := filepath.Join(dir, "routes.yaml")
	sibling := filepath.Join(dir, "other.yaml")
	require.NoError(t, os.WriteFile(watched, []byte("a\n"), 0o600))
	require.NoError(t, os.WriteFile(sibling, []byte("b\n"), 0o600))

	var fired atomic.Int32
	w := newTestWatcher(t, func() error {
		fired.Add(1)
		return nil
	}, WithDebounce(20*time.Millisecond))

	require.NoError(t, w.Watch(watched))
	w.Start(context.Background())

	// Only the sibling changes; the watched file's trigger must stay
	// silent.
	require.NoError(t, os.WriteFile(sibling, []byte("bb\n"), 0o600))
	time.Sleep(200 * time.Millisecond)
	assert.Equal(t, int32(0), fired.Load())

	require.NoError(t, os.WriteFile(watched, []byte("aa\n"), 0o600))
	require.Eventually(t, func() bool {
		return fired.Load() >= 1
	}, 3*time.Second, 10*time.Millisecond)
}

func TestWatcherDirectory(t *testing.T) {
	dir := t.TempDir()

	var fired atomic.Int32
	w := newTestWatcher(t, func() error {
		fired.Add(1)
		return nil
	}, WithDebounce(20*time.Millisecond))

	require.NoError(t, w.Watch(dir))
	w.Start(context.Background())

	require.NoError(t, os.WriteFile(filepath.Join(dir, "new.yaml"), []byte("x\n"), 0o600))

	require.Eventually(t, func() bool {
		return fired.Load() >= 1
	}, 3*time.Second, 10*time.Millisecond)
}

func TestWatcherDebounceBatchesBursts(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "routes.yaml")
	require.NoError(t, os.WriteFile(path, []byte("0\n"), 0o600))

	var fired atomic.Int32
	w := newTestWatcher(t, func() error {
		fired.Add(1)
		return nil
	}, WithDebounce(150*time.Millisecond))

	require.NoError(t, w.Watch(path))
	w.Start(context.Background())

	// A burst of writes inside the debounce window collapses to one
	// trigger.
	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(path, []byte{byte('0' + i), '\n'}, 0o600))
		time.Sleep(10 * time.Millisecond)
	}

	require.Eventually(t, func() bool {
		return fired.Load() >= 1
	}, 3*time.Second, 10*time.Millisecond)
	time.Sleep(300 * time.Millisecond)
	assert.Equal(t, int32(1), fired.Load())
}

func TestWatcherTriggerErrorReported(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "routes.yaml")
	require.NoError(t, os.WriteFile(path, []byte("a\n"), 0o600))

	wantErr := errors.New("compile failed")
	var got atomic.Value
	w := newTestWatcher(t,
		func() error { return wantErr },
		WithDebounce(20*time.Millisecond),
		WithOnError(func(err error) { got.Store(err) }),
	)

	require.NoError(t, w.Watch(path))
	w.Start(context.Background())

	require.NoError(t, os.WriteFile(path, []byte("b\n"), 0o600))

	require.Eventually(t, func() bool {
		err, _ := got.Load().(error)
		return errors.Is(err, wantErr)
	}, 3*time.Second, 10*time.Millisecond)
}

func TestWatcherWatchMissingPath(t *testing.T) {
	w := newTestWatcher(t, func() error { return nil })
	err := w.Watch(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	require.Error(t, err)
}

func TestWatcherCloseStopsLoop(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "routes.yaml")
	require.NoError(t, os.WriteFile(path, []byte("a\n"), 0o600))

	var fired atomic.Int32
	w, err := New(func() error {
		fired.Add(1)
		return nil
	}, WithDebounce(20*time.Millisecond))
	require.NoError(t, err)

	require.NoError(t, w.Watch(path))
	w.Start(context.Background())
	require.NoError(t, w.Close())

	require.NoError(t, os.WriteFile(path, []byte("b\n"), 0o600))
	time.Sleep(200 * time.Millisecond)
	assert.Equal(t, int32(0), fired.Load())
}

func TestWatcherStartTwice(t *testing.T) {
	w := newTestWatcher(t, func() error { return nil })
	w.Start(context.Background())
	w.Start(context.Background())
}

func TestWithinDir(t *testing.T) {
	sep := string(filepath.Separator)
	assert.True(t, withinDir(filepath.Join(sep+"a", "b", "c"), filepath.Join(sep+"a", "b")))
	assert.True(t, withinDir(sep+"a", sep+"a"))
	assert.False(t, withinDir(sep+"a", filepath.Join(sep+"a", "b")))
	assert.False(t, withinDir(filepath.Join(sep+"x", "y"), filepath.Join(sep+"a", "b")))
}
