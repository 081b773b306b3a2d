package watch

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/damianmunoz/debinfo-dispatcher/pkg/live"
	"github.com/damianmunoz/debinfo-dispatcher/pkg/metrics"
	"github.com/damianmunoz/debinfo-dispatcher/pkg/translate"
)

type batches struct {
	mu  sync.Mutex
	all [][]Change
}

func (b *batches) handle(_ context.Context, c []Change) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.all = append(b.all, c)
}

func (b *batches) snapshot() [][]Change {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([][]Change(nil), b.all...)
}

func startWatcher(t *testing.T, dir string, h Handler, opts ...Option) (*Watcher, context.CancelFunc) {
	t.Helper()
	opts = append(opts, WithMetrics(metrics.NewRegistry()))
	w := New(dir, 50*time.Millisecond, h, opts...)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()
	require.Eventually(t, func() bool { running, _ := w.State(); return running }, 2*time.Second, 10*time.Millisecond)
	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(2 * time.Second):
			t.Error("watcher did not stop")
		}
	})
	return w, cancel
}

func TestWatcherDebouncesWrites(t *testing.T) {
	dir := t.TempDir()
	var got batches
	startWatcher(t, dir, got.handle)

	path := filepath.Join(dir, "app.json")
	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(path, []byte(`{"bomFormat":"CycloneDX"}`), 0o644))
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.md"), []byte("x"), 0o644))

	require.Eventually(t, func() bool { return len(got.snapshot()) > 0 }, 2*time.Second, 10*time.Millisecond)
	time.Sleep(150 * time.Millisecond)

	all := got.snapshot()
	require.Len(t, all, 1, "writes within the window are coalesced")
	assert.Equal(t, []Change{{Path: path, Op: OpWrite}}, all[0])
}

func TestWatcherRemoveAndSubdirectories(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "old.spdx")
	require.NoError(t, os.WriteFile(path, []byte(`{}`), 0o644))

	var got batches
	startWatcher(t, dir, got.handle)

	require.NoError(t, os.Remove(path))
	require.Eventually(t, func() bool { return len(got.snapshot()) == 1 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, OpRemove, got.snapshot()[0][0].Op)

	sub := filepath.Join(dir, "nested")
	require.NoError(t, os.Mkdir(sub, 0o755))
	time.Sleep(100 * time.Millisecond)
	nested := filepath.Join(sub, "x.buildinfo")
	require.NoError(t, os.WriteFile(nested, []byte("Source: x\n"), 0o644))

	require.Eventually(t, func() bool { return len(got.snapshot()) == 2 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, nested, got.snapshot()[1][0].Path)
}

func TestWatcherIgnoresOutputDir(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "output")
	require.NoError(t, os.Mkdir(out, 0o755))

	var got batches
	startWatcher(t, dir, got.handle, WithIgnoreDir(out))

	require.NoError(t, os.WriteFile(filepath.Join(out, "hello.json"), []byte(`{}`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "in.json"), []byte(`{}`), 0o644))

	require.Eventually(t, func() bool { return len(got.snapshot()) == 1 }, 2*time.Second, 10*time.Millisecond)
	time.Sleep(150 * time.Millisecond)
	all := got.snapshot()
	require.Len(t, all, 1)
	require.Len(t, all[0], 1)
	assert.Equal(t, filepath.Join(dir, "in.json"), all[0][0].Path)
}

func TestWatcherMissingRoot(t *testing.T) {
	w := New(filepath.Join(t.TempDir(), "missing"), time.Millisecond, nil, WithMetrics(metrics.NewRegistry()))
	err := w.Run(context.Background())
	require.Error(t, err)
	running, lastErr := w.State()
	assert.False(t, running)
	assert.Error(t, lastErr)
}

func TestCheckOutputDir(t *testing.T) {
	root := t.TempDir()
	assert.ErrorIs(t, CheckOutputDir(root, root), ErrOutputCoversInput)
	assert.ErrorIs(t, CheckOutputDir(root, filepath.Dir(root)), ErrOutputCoversInput)
	assert.ErrorIs(t, CheckOutputDir(filepath.Join(root, "in"), root+string(filepath.Separator)), ErrOutputCoversInput)
	assert.NoError(t, CheckOutputDir(root, filepath.Join(root, "out")))
	assert.NoError(t, CheckOutputDir(filepath.Join(root, "in"), filepath.Join(root, "out")))
	assert.NoError(t, CheckOutputDir(filepath.Join(root, "in"), filepath.Join(root, "in-out")))
}

type fakeTranslator struct {
	results map[string]*translate.Result
	errs    map[string]error
	calls   []string
	removed []string
}

func (f *fakeTranslator) TranslateFile(_ context.Context, uri string, _ translate.Kind) (*translate.Result, error) {
	f.calls = append(f.calls, uri)
	if err, ok := f.errs[uri]; ok {
		return nil, err
	}
	return f.results[uri], nil
}

func (f *fakeTranslator) RemoveOutputs(base string) ([]string, error) {
	f.removed = append(f.removed, base)
	return []string{base + translate.CatalogSuffix}, nil
}

type eventLog struct{ events []live.Event }

func (e *eventLog) Publish(ev live.Event) { e.events = append(e.events, ev) }

type invalidations struct{ names []string }

func (i *invalidations) Invalidate(name string) { i.names = append(i.names, name) }

func TestProcessorHandle(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.json")
	bad := filepath.Join(dir, "bad.json")
	gone := filepath.Join(dir, "gone.spdx.json")
	vanished := filepath.Join(dir, "vanished.json")
	for _, p := range []string{good, bad} {
		require.NoError(t, os.WriteFile(p, []byte("{}"), 0o644))
	}

	tr := &fakeTranslator{
		results: map[string]*translate.Result{good: {Base: "good"}},
		errs: map[string]error{
			bad:      errors.New("malformed"),
			vanished: &os.PathError{Op: "open", Path: vanished, Err: os.ErrNotExist},
		},
	}
	events := &eventLog{}
	cache := &invalidations{}
	p := NewProcessor(tr, events, cache, nil)

	p.Handle(context.Background(), []Change{
		{Path: bad, Op: OpWrite},
		{Path: gone, Op: OpRemove},
		{Path: good, Op: OpRemove}, // still on disk: renamed over
		{Path: vanished, Op: OpWrite},
	})

	assert.Equal(t, []string{bad, good, vanished}, tr.calls)
	assert.Equal(t, []string{"gone.spdx"}, tr.removed)
	assert.Equal(t, []string{"gone.spdx", "good"}, cache.names)
	require.Len(t, events.events, 3)
	assert.Equal(t, live.EventTranslationFailed, events.events[0].Type)
	assert.Equal(t, "bad", events.events[0].Graph)
	assert.Equal(t, live.FailureMessage, events.events[0].Error)
	assert.NotContains(t, events.events[0].Error, dir)
	assert.Equal(t, live.EventGraphRemoved, events.events[1].Type)
	assert.Equal(t, "gone.spdx", events.events[1].Graph)
	assert.Equal(t, live.EventGraphUpdated, events.events[2].Type)
	assert.Equal(t, "good", events.events[2].Graph)
}

func TestProcessorStopsOnCancel(t *testing.T) {
	tr := &fakeTranslator{}
	p := NewProcessor(tr, nil, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p.Handle(ctx, []Change{{Path: "a.json", Op: OpWrite}})
	assert.Empty(t, tr.calls)
}
