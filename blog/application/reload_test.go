package application

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dfryer1193/mdblog/blog/domain"
	"github.com/dfryer1193/mdblog/blog/persistence"
	"github.com/dfryer1193/mdblog/internal/testutil"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	eventuallyWait = 5 * time.Second
	eventuallyTick = 10 * time.Millisecond
)

func closeListener(t *testing.T, listener *ReloadListener) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), eventuallyWait)
	defer cancel()
	require.NoError(t, listener.Close(ctx))
}

func TestReloadListener_EndToEnd(t *testing.T) {
	root := t.TempDir()
	testutil.WritePost(t, root, "2025-01-01-a.md", testutil.PostFixture{Slug: "a", Title: "A", Date: "2025-01-01"})
	testutil.WritePost(t, root, "2025-01-02-b.md", testutil.PostFixture{Slug: "b", Title: "B", Date: "2025-01-02", Draft: true})

	cache := NewContentCache(persistence.NewFileContentLoader(root, false, nil))
	require.NoError(t, cache.Init(context.Background()))
	assert.Equal(t, []string{"a"}, slugsOf(cache.Read().Posts()))

	trigger := NewManualTrigger()
	listener := NewReloadListener(cache, trigger)
	listener.Start()
	defer closeListener(t, listener)

	// A new file is invisible until a reload is requested.
	testutil.WritePost(t, root, "2025-01-03-c.md", testutil.PostFixture{Slug: "c", Title: "C", Date: "2025-01-03"})
	assert.Equal(t, []string{"a"}, slugsOf(cache.Read().Posts()))

	trigger.Fire()
	require.Eventually(t, func() bool { return cache.Generation() == 2 }, eventuallyWait, eventuallyTick)
	assert.Equal(t, []string{"c", "a"}, slugsOf(cache.Read().Posts()))

	require.NoError(t, os.Remove(filepath.Join(root, "posts", "2025-01-01-a.md")))
	trigger.Fire()
	require.Eventually(t, func() bool { return cache.Generation() == 3 }, eventuallyWait, eventuallyTick)
	assert.Equal(t, []string{"c"}, slugsOf(cache.Read().Posts()))
}

func TestReloadListener_FailedReloadKeepsServing(t *testing.T) {
	root := t.TempDir()
	content := filepath.Join(root, "content")
	testutil.WritePost(t, content, "a.md", testutil.PostFixture{Slug: "a", Title: "A", Date: "2024-01-01"})

	files := persistence.NewFileContentLoader(content, false, nil)
	var loads atomic.Int32
	cache := NewContentCache(loaderFunc(func(ctx context.Context) (*domain.Snapshot, error) {
		defer loads.Add(1)
		return files.Load(ctx)
	}))
	require.NoError(t, cache.Init(context.Background()))

	trigger := NewManualTrigger()
	listener := NewReloadListener(cache, trigger)
	listener.Start()
	defer closeListener(t, listener)

	require.NoError(t, os.RemoveAll(content))
	testutil.WriteFile(t, content, "oops")

	trigger.Fire()
	require.Eventually(t, func() bool { return loads.Load() == 2 }, eventuallyWait, eventuallyTick)
	assert.Equal(t, uint64(1), cache.Generation())
	assert.Equal(t, []string{"a"}, slugsOf(cache.Read().Posts()))

	// Once the root is fixed the next trigger recovers.
	require.NoError(t, os.Remove(content))
	testutil.WritePost(t, content, "b.md", testutil.PostFixture{Slug: "b", Title: "B", Date: "2024-02-01"})
	trigger.Fire()
	require.Eventually(t, func() bool { return cache.Generation() == 2 }, eventuallyWait, eventuallyTick)
	assert.Equal(t, []string{"b"}, slugsOf(cache.Read().Posts()))
}

func TestReloadListener_CloseStopsTriggers(t *testing.T) {
	cache := NewContentCache(persistence.NewFileContentLoader(t.TempDir(), false, nil))
	trigger := NewManualTrigger()
	listener := NewReloadListener(cache, trigger)
	listener.Start()

	done := make(chan struct{})
	go func() {
		_ = listener.Close(context.Background())
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(eventuallyWait):
		t.Fatal("Close did not return")
	}

	trigger.Fire()
	assert.Never(t, func() bool { return cache.Generation() != 0 }, 100*time.Millisecond, eventuallyTick)
}

func TestReloadListener_CloseDoesNotWaitForStuckLoad(t *testing.T) {
	var calls atomic.Int32
	started := make(chan struct{})
	unblock := make(chan struct{})
	defer close(unblock)

	cache := NewContentCache(loaderFunc(func(ctx context.Context) (*domain.Snapshot, error) {
		if calls.Add(1) > 1 {
			// Ignores ctx, like a read on a hung filesystem.
			close(started)
			<-unblock
		}
		return domain.EmptySnapshot(), nil
	}))
	require.NoError(t, cache.Init(context.Background()))

	trigger := NewManualTrigger()
	listener := NewReloadListener(cache, trigger)
	listener.Start()
	trigger.Fire()
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- listener.Close(ctx) }()

	select {
	case err := <-done:
		require.ErrorIs(t, err, context.DeadlineExceeded)
	case <-time.After(eventuallyWait):
		t.Fatal("Close did not return")
	}
	assert.Equal(t, uint64(1), cache.Generation())
}

// lockedBuffer collects log output written from listener goroutines.
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestReloadListener_LogsFailureOnce(t *testing.T) {
	out := &lockedBuffer{}
	previous := log.Logger
	log.Logger = zerolog.New(out)
	t.Cleanup(func() { log.Logger = previous })

	loadErr := errors.New("content volume unavailable")
	var calls atomic.Int32
	cache := NewContentCache(loaderFunc(func(context.Context) (*domain.Snapshot, error) {
		if calls.Add(1) > 1 {
			return nil, loadErr
		}
		return domain.EmptySnapshot(), nil
	}))
	require.NoError(t, cache.Init(context.Background()))

	trigger := NewManualTrigger()
	listener := NewReloadListener(cache, trigger)
	listener.Start()
	trigger.Fire()
	require.Eventually(t, func() bool { return calls.Load() == 2 }, eventuallyWait, eventuallyTick)
	closeListener(t, listener)

	logged := out.String()
	assert.Equal(t, 1, strings.Count(logged, loadErr.Error()))
	assert.Equal(t, 1, strings.Count(logged, `"trigger":"manual","message":"Reload requested"`))
}

func TestManualTrigger_FireCoalesces(t *testing.T) {
	trigger := NewManualTrigger()
	trigger.Fire()
	trigger.Fire()
	trigger.Fire()

	assert.Len(t, trigger.requests, 1)
}
