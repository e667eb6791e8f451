package application

import (
	"context"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dfryer1193/mdblog/internal/testutil"
	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runWatch(t *testing.T, trigger *WatchTrigger) *atomic.Int32 {
	t.Helper()

	var fired atomic.Int32
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = trigger.Run(ctx, func() { fired.Add(1) })
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return &fired
}

func TestWatchTrigger_DebouncesBursts(t *testing.T) {
	root := t.TempDir()
	testutil.WriteFile(t, filepath.Join(root, "posts", ".keep"), "")

	trigger, err := NewWatchTrigger(root, 100*time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, "watch", trigger.Name())
	fired := runWatch(t, trigger)

	for _, name := range []string{"a.md", "b.md", "c.md"} {
		testutil.WritePost(t, root, name, testutil.PostFixture{Slug: name, Title: name, Date: "2024-01-01"})
	}

	require.Eventually(t, func() bool { return fired.Load() >= 1 }, eventuallyWait, eventuallyTick)
	assert.Never(t, func() bool { return fired.Load() > 1 }, 300*time.Millisecond, eventuallyTick)
}

func TestWatchTrigger_PicksUpNewContentDirectory(t *testing.T) {
	root := t.TempDir()

	trigger, err := NewWatchTrigger(root, 20*time.Millisecond)
	require.NoError(t, err)
	fired := runWatch(t, trigger)

	testutil.WritePage(t, root, "about", "About", "Hi.")
	require.Eventually(t, func() bool { return fired.Load() >= 1 }, eventuallyWait, eventuallyTick)
}

func TestWatchTrigger_MissingRoot(t *testing.T) {
	_, err := NewWatchTrigger(filepath.Join(t.TempDir(), "missing"), time.Millisecond)
	require.Error(t, err)
}

func TestWatchTrigger_Relevant(t *testing.T) {
	root := t.TempDir()
	trigger := &WatchTrigger{root: root}

	tests := []struct {
		name     string
		event    fsnotify.Event
		expected bool
	}{
		{
			name:     "Markdown write",
			event:    fsnotify.Event{Name: filepath.Join(root, "posts", "a.md"), Op: fsnotify.Write},
			expected: true,
		},
		{
			name:     "Markdown removal",
			event:    fsnotify.Event{Name: filepath.Join(root, "pages", "about.md"), Op: fsnotify.Remove},
			expected: true,
		},
		{
			name:     "Chmod only",
			event:    fsnotify.Event{Name: filepath.Join(root, "posts", "a.md"), Op: fsnotify.Chmod},
			expected: false,
		},
		{
			name:     "Editor swap file",
			event:    fsnotify.Event{Name: filepath.Join(root, "posts", ".a.md.swp"), Op: fsnotify.Create},
			expected: false,
		},
		{
			name:     "Posts directory removed",
			event:    fsnotify.Event{Name: filepath.Join(root, "posts"), Op: fsnotify.Remove},
			expected: true,
		},
		{
			name:     "Unrelated directory",
			event:    fsnotify.Event{Name: filepath.Join(root, "images"), Op: fsnotify.Create},
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, trigger.relevant(tt.event))
		})
	}
}
