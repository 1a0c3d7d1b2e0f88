package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"testhook/internal/parse"
	"testhook/internal/scan"
)

type harness struct {
	root   string
	events chan Event
	errCh  chan error
	cancel context.CancelFunc
	w      *Watcher
}

func start(t *testing.T) *harness {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "node_modules", "dep"), 0o755))

	h := &harness{root: root, events: make(chan Event, 16), errCh: make(chan error, 1)}
	w, err := New(root, parse.DefaultFactory(0, nil), scan.DefaultOptions(), nil,
		Options{Debounce: 30 * time.Millisecond, Tick: 10 * time.Millisecond},
		func(e Event) { h.events <- e }, nil)
	require.NoError(t, err)
	h.w = w

	ctx, cancel := context.WithCancel(context.Background())
	h.cancel = cancel
	go func() { h.errCh <- w.Run(ctx) }()

	select {
	case <-w.Ready():
	case err := <-h.errCh:
		t.Fatalf("watcher exited early: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher not ready")
	}
	return h
}

func (h *harness) stop(t *testing.T) {
	t.Helper()
	h.cancel()
	select {
	case err := <-h.errCh:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop")
	}
}

func (h *harness) write(t *testing.T, rel, content string) {
	t.Helper()
	full := filepath.Join(h.root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	require.NoError(t, os.WriteFile(full, []byte(content), 0o644))
}

func (h *harness) next(t *testing.T) Event {
	t.Helper()
	select {
	case e := <-h.events:
		return e
	case <-time.After(5 * time.Second):
		t.Fatal("no event")
		return Event{}
	}
}

func slugs(e Event) []string {
	var out []string
	for _, c := range e.Result.Candidates {
		out = append(out, c.Slug)
	}
	return out
}

func TestWatcher_ScansChangedFile(t *testing.T) {
	defer goleak.VerifyNone(t)
	h := start(t)
	defer h.stop(t)

	h.write(t, "App.jsx", `const App = () => <div><button>Save</button><a href="/">Home</a></div>;`)
	e := h.next(t)
	assert.Equal(t, "App.jsx", e.Path)
	assert.False(t, e.Removed)
	assert.Equal(t, []string{"button-save-0", "link-home-1"}, slugs(e))

	// Each file is its own run: ordinals restart.
	h.write(t, "Other.jsx", `const O = () => <button>Other</button>;`)
	e = h.next(t)
	assert.Equal(t, "Other.jsx", e.Path)
	assert.Equal(t, []string{"button-other-0"}, slugs(e))

	require.NoError(t, os.Remove(filepath.Join(h.root, "Other.jsx")))
	e = h.next(t)
	assert.Equal(t, "Other.jsx", e.Path)
	assert.True(t, e.Removed)

	stats := h.w.Stats()
	assert.GreaterOrEqual(t, stats.Scans, 2)
	assert.GreaterOrEqual(t, stats.Events, 3)
}

func TestWatcher_NewDirectoryAndFilters(t *testing.T) {
	defer goleak.VerifyNone(t)
	h := start(t)
	defer h.stop(t)

	// Ignored and unsupported files never produce events.
	h.write(t, "node_modules/dep/index.jsx", `<button>dep</button>`)
	h.write(t, "notes.md", "# notes")
	h.write(t, "Button.test.jsx", `<button>test</button>`)

	h.write(t, "src/feature/Card.tsx", `export const Card = () => <input placeholder="Email" />;`)
	e := h.next(t)
	assert.Equal(t, "src/feature/Card.tsx", e.Path)
	assert.Equal(t, []string{"input-email-0"}, slugs(e))

	select {
	case extra := <-h.events:
		t.Fatalf("unexpected event for %s", extra.Path)
	case <-time.After(150 * time.Millisecond):
	}
}

func TestNew_RequiresHandler(t *testing.T) {
	_, err := New(t.TempDir(), parse.DefaultFactory(0, nil), scan.DefaultOptions(), nil, Options{}, nil, nil)
	assert.Error(t, err)
}

func TestWatcher_MissingRootReleasesReady(t *testing.T) {
	defer goleak.VerifyNone(t)

	w, err := New(filepath.Join(t.TempDir(), "gone"), parse.DefaultFactory(0, nil), scan.DefaultOptions(), nil,
		Options{}, func(Event) {}, nil)
	require.NoError(t, err)

	errCh := make(chan error, 1)
	go func() { errCh <- w.Run(context.Background()) }()

	select {
	case <-w.Ready():
	case <-time.After(5 * time.Second):
		t.Fatal("Ready never closed")
	}
	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, os.ErrNotExist)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return")
	}
}
