package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/dfryer1193/mdblog/internal/config"
)

var errSkippedFiles = errors.New("some content files were skipped")

// runCheck loads the content once, the same way the server does at startup,
// and reports what would be served.
func runCheck(ctx context.Context, out io.Writer, cfg *config.Config) error {
	snap, err := newContentLoader(cfg).Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load content: %w", err)
	}

	fmt.Fprintf(out, "content: %s\n", cfg.ContentPath)
	fmt.Fprintf(out, "posts:   %d\n", snap.PostCount())
	fmt.Fprintf(out, "pages:   %d\n", snap.PageCount())

	skipped := snap.Skipped()
	if len(skipped) == 0 {
		return nil
	}

	fmt.Fprintf(out, "skipped: %d\n", len(skipped))
	for _, s := range skipped {
		fmt.Fprintf(out, "  %s: %s\n", s.Path, s.Reason)
	}
	return errSkippedFiles
}
