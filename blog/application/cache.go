package application

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dfryer1193/mdblog/blog/domain"
	"github.com/rs/zerolog/log"
)

// CacheState describes the lifecycle of a ContentCache.
type CacheState int32

const (
	StateUninitialized CacheState = iota
	StateLoading
	StateReady
)

func (s CacheState) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	default:
		return "unknown"
	}
}

// CacheStatus is a point-in-time description of the cache.
type CacheStatus struct {
	State       CacheState
	Generation  uint64
	PublishedAt time.Time
	Posts       int
	Pages       int
	Skipped     int
}

// cacheEntry is what the atomic slot points at. Generation and snapshot are
// published together so readers never see one without the other.
type cacheEntry struct {
	snapshot    *domain.Snapshot
	generation  uint64
	publishedAt time.Time
}

// ContentCache holds the most recent successfully loaded snapshot.
//
// Read never blocks and never touches the disk. Reload runs the loader
// without holding anything readers wait on and then publishes the new
// snapshot with a single atomic store. A failed reload leaves the current
// snapshot in place. Reloads are serialized among themselves.
type ContentCache struct {
	loader domain.ContentLoader

	current atomic.Pointer[cacheEntry]
	state   atomic.Int32

	// reloadMu is only taken by writers.
	reloadMu sync.Mutex
}

// NewContentCache returns an uninitialized cache. Until Init succeeds, Read
// returns an empty snapshot.
func NewContentCache(loader domain.ContentLoader) *ContentCache {
	c := &ContentCache{loader: loader}
	c.current.Store(&cacheEntry{snapshot: domain.EmptySnapshot()})
	return c
}

// Init performs the startup load. It must be called before serving requests.
func (c *ContentCache) Init(ctx context.Context) error {
	if _, err := c.reload(ctx, "startup"); err != nil {
		return fmt.Errorf("failed to load initial content: %w", err)
	}
	return nil
}

// Read returns the current snapshot. The result is never nil.
func (c *ContentCache) Read() *domain.Snapshot {
	return c.current.Load().snapshot
}

// Generation returns the number of snapshots published so far.
func (c *ContentCache) Generation() uint64 {
	return c.current.Load().generation
}

// Reload loads the content again and, on success, replaces the current
// snapshot. On failure the current snapshot stays visible and the error is
// returned.
func (c *ContentCache) Reload(ctx context.Context) (*domain.Snapshot, error) {
	return c.reload(ctx, "reload")
}

func (c *ContentCache) reload(ctx context.Context, reason string) (*domain.Snapshot, error) {
	c.reloadMu.Lock()
	defer c.reloadMu.Unlock()

	previous := c.State()
	c.state.Store(int32(StateLoading))

	started := time.Now()
	snap, err := c.loader.Load(ctx)
	if err != nil {
		c.state.Store(int32(previous))
		log.Error().Err(err).Str("reason", reason).Dur("duration", time.Since(started)).Msg("Failed to load content, keeping current snapshot")
		return nil, err
	}

	entry := &cacheEntry{
		snapshot:    snap,
		generation:  c.current.Load().generation + 1,
		publishedAt: time.Now(),
	}
	c.current.Store(entry)
	c.state.Store(int32(StateReady))

	log.Info().
		Str("reason", reason).
		Int("posts", snap.PostCount()).
		Int("pages", snap.PageCount()).
		Int("skipped", len(snap.Skipped())).
		Uint64("generation", entry.generation).
		Dur("duration", time.Since(started)).
		Msg("Loaded content into cache")

	return snap, nil
}

// State reports the lifecycle state. A reload in progress shows as loading
// here while readers keep getting the previous snapshot.
func (c *ContentCache) State() CacheState {
	return CacheState(c.state.Load())
}

func (c *ContentCache) Status() CacheStatus {
	entry := c.current.Load()
	return CacheStatus{
		State:       c.State(),
		Generation:  entry.generation,
		PublishedAt: entry.publishedAt,
		Posts:       entry.snapshot.PostCount(),
		Pages:       entry.snapshot.PageCount(),
		Skipped:     len(entry.snapshot.Skipped()),
	}
}
