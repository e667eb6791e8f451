package application

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
)

// Trigger is a source of reload requests.
type Trigger interface {
	Name() string
	// Run calls fire once per reload request until ctx is done.
	Run(ctx context.Context, fire func()) error
}

// ReloadListener waits on its triggers and reloads the cache each time one
// fires. It never blocks readers of the cache.
type ReloadListener struct {
	cache    *ContentCache
	triggers []Trigger

	// Listener lifecycle context - cancelled when Close() is called
	ctx    context.Context
	cancel context.CancelFunc
	wg     *sync.WaitGroup
}

func NewReloadListener(cache *ContentCache, triggers ...Trigger) *ReloadListener {
	ctx, cancel := context.WithCancel(context.Background())
	wg := sync.WaitGroup{}
	return &ReloadListener{
		cache:    cache,
		triggers: triggers,
		ctx:      ctx,
		cancel:   cancel,
		wg:       &wg,
	}
}

// Start launches one goroutine per trigger and returns immediately.
func (l *ReloadListener) Start() {
	for _, t := range l.triggers {
		trigger := t
		l.wg.Add(1)
		go func() {
			defer l.wg.Done()
			log.Info().Str("trigger", trigger.Name()).Msg("Reload trigger installed")
			err := trigger.Run(l.ctx, func() { l.reload(trigger.Name()) })
			if err != nil {
				log.Error().Err(err).Str("trigger", trigger.Name()).Msg("Reload trigger stopped")
			}
		}()
	}
}

// Close stops all triggers and waits for any reload in progress to finish,
// giving up when ctx is done. A reload stuck in the loader is abandoned.
func (l *ReloadListener) Close(ctx context.Context) error {
	l.cancel()

	done := make(chan struct{})
	go func() {
		l.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("reload listener did not stop: %w", ctx.Err())
	}
}

// reload only names the trigger; the cache logs the outcome.
func (l *ReloadListener) reload(source string) {
	log.Info().Str("trigger", source).Msg("Reload requested")
	_, _ = l.cache.Reload(l.ctx)
}

// ManualTrigger fires when Fire is called. It is used by tests and by code
// that wants to request a reload directly.
type ManualTrigger struct {
	requests chan struct{}
}

func NewManualTrigger() *ManualTrigger {
	return &ManualTrigger{requests: make(chan struct{}, 1)}
}

func (t *ManualTrigger) Name() string { return "manual" }

// Fire requests a reload. Requests made while one is already pending are
// merged into it.
func (t *ManualTrigger) Fire() {
	select {
	case t.requests <- struct{}{}:
	default:
	}
}

func (t *ManualTrigger) Run(ctx context.Context, fire func()) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.requests:
			fire()
		}
	}
}
