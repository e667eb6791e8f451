package application

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog/log"
)

// WatchTrigger fires after markdown files under the content root change.
// Bursts of changes (an editor save, a git checkout) are merged into a
// single reload once no change has been seen for the debounce delay.
type WatchTrigger struct {
	root     string
	debounce time.Duration
	watcher  *fsnotify.Watcher
}

// NewWatchTrigger watches root and its posts and pages directories. Those
// directories may appear later; they are picked up when created.
func NewWatchTrigger(root string, debounce time.Duration) (*WatchTrigger, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create content watcher: %w", err)
	}

	t := &WatchTrigger{
		root:     filepath.Clean(root),
		debounce: debounce,
		watcher:  watcher,
	}

	if err := watcher.Add(t.root); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch content root %s: %w", root, err)
	}
	for _, sub := range []string{postsDirName, pagesDirName} {
		t.addIfDir(filepath.Join(t.root, sub))
	}

	return t, nil
}

const (
	postsDirName = "posts"
	pagesDirName = "pages"
)

func (t *WatchTrigger) Name() string { return "watch" }

func (t *WatchTrigger) Run(ctx context.Context, fire func()) error {
	defer t.watcher.Close()

	var timer *time.Timer
	var pending <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-t.watcher.Events:
			if !ok {
				return nil
			}
			if !t.relevant(event) {
				continue
			}
			log.Debug().Str("path", event.Name).Str("op", event.Op.String()).Msg("Content change detected")
			if timer == nil {
				timer = time.NewTimer(t.debounce)
			} else {
				timer.Reset(t.debounce)
			}
			pending = timer.C
		case err, ok := <-t.watcher.Errors:
			if !ok {
				return nil
			}
			log.Warn().Err(err).Msg("Content watcher error")
		case <-pending:
			pending = nil
			fire()
		}
	}
}

// relevant reports whether event should cause a reload. New content
// directories are added to the watch list as a side effect.
func (t *WatchTrigger) relevant(event fsnotify.Event) bool {
	if event.Op == fsnotify.Chmod {
		return false
	}

	dir, name := filepath.Split(event.Name)
	if filepath.Clean(dir) == t.root && (name == postsDirName || name == pagesDirName) {
		if event.Op.Has(fsnotify.Create) {
			t.addIfDir(event.Name)
		}
		return true
	}

	return strings.EqualFold(filepath.Ext(name), ".md")
}

func (t *WatchTrigger) addIfDir(path string) {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return
	}
	if err := t.watcher.Add(path); err != nil {
		log.Warn().Err(err).Str("path", path).Msg("Failed to watch content directory")
	}
}
