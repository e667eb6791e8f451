package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/dfryer1193/mdblog/blog/application"
	"github.com/dfryer1193/mdblog/blog/domain"
	"github.com/dfryer1193/mdblog/blog/persistence"
	"github.com/dfryer1193/mdblog/internal/config"
	"github.com/dfryer1193/mdblog/internal/middleware"
	"github.com/dfryer1193/mdblog/internal/rest"
	"github.com/gin-gonic/gin"
	"github.com/klauspost/compress/gzhttp"
	"github.com/rs/zerolog/log"
)

func newContentLoader(cfg *config.Config) *persistence.FileContentLoader {
	renderer := application.NewMarkdownRenderer(application.MarkdownOptions{
		BaseURL:        cfg.BaseURL,
		HighlightStyle: cfg.HighlightStyle,
	})
	return persistence.NewFileContentLoader(cfg.ContentPath, cfg.EnableDrafts, renderer)
}

// startContent performs the startup load and starts the reload listener.
// The SIGHUP handler goes in before the load so a hangup sent while it runs
// is queued instead of terminating the process.
func startContent(ctx context.Context, cfg *config.Config, loader domain.ContentLoader) (*application.ContentCache, *application.ReloadListener, error) {
	var triggers []application.Trigger
	if hangup, ok := application.NewHangupTrigger(); ok {
		triggers = append(triggers, hangup)
	} else {
		log.Warn().Msg("Hot reload on SIGHUP is not supported on this platform")
	}

	cache := application.NewContentCache(loader)
	if err := cache.Init(ctx); err != nil {
		return nil, nil, err
	}

	if cfg.WatchContent {
		watch, err := application.NewWatchTrigger(cfg.ContentPath, cfg.WatchDebounce)
		if err != nil {
			log.Warn().Err(err).Msg("Content watching disabled")
		} else {
			triggers = append(triggers, watch)
		}
	}

	listener := application.NewReloadListener(cache, triggers...)
	listener.Start()
	return cache, listener, nil
}

func runServe(ctx context.Context, cfg *config.Config) error {
	if cfg.EnableDrafts {
		log.Warn().Msg("Drafts are enabled, unpublished posts will be served")
	}

	cache, listener, err := startContent(ctx, cfg, newContentLoader(cfg))
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := listener.Close(closeCtx); err != nil {
			log.Error().Err(err).Msg("Failed to gracefully close reload listener")
		}
	}()

	templates, err := rest.LoadTemplates(cfg.TemplatesPath)
	if err != nil {
		return fmt.Errorf("failed to load templates: %w", err)
	}

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(middleware.RequestID())
	r.Use(middleware.LoggingMiddleware())
	r.Use(gin.CustomRecovery(middleware.HandlePanics()))

	rest.NewApi(r, application.NewPostService(cache, cfg.PostsPerPage), templates, rest.Options{
		Site:       rest.Site{Title: cfg.SiteTitle, BaseURL: cfg.BaseURL},
		StaticPath: cfg.StaticPath,
		ImagesPath: filepath.Join(cfg.ContentPath, "images"),
	})

	srv := &http.Server{
		Addr:    cfg.Addr(),
		Handler: gzhttp.GzipHandler(r),
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Str("content", cfg.ContentPath).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-serveErr:
		return fmt.Errorf("failed to start server: %w", err)
	case <-quit:
	}

	log.Info().Msg("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}

	log.Info().Msg("Server stopped")
	return nil
}
