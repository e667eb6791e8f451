//go:build unix

package application

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// HangupTrigger fires on SIGHUP.
type HangupTrigger struct {
	signals chan os.Signal
}

// NewHangupTrigger installs the SIGHUP handler. The handler is installed
// immediately so a signal sent before Run starts is not lost and does not
// terminate the process.
func NewHangupTrigger() (Trigger, bool) {
	t := &HangupTrigger{signals: make(chan os.Signal, 1)}
	signal.Notify(t.signals, syscall.SIGHUP)
	return t, true
}

func (t *HangupTrigger) Name() string { return "sighup" }

func (t *HangupTrigger) Run(ctx context.Context, fire func()) error {
	defer signal.Stop(t.signals)

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.signals:
			fire()
		}
	}
}
