package app

import (
	"context"
	"fmt"

	"github.com/odlvideo/odlv/internal/debugsrv"
	"github.com/odlvideo/odlv/internal/log"
	"github.com/odlvideo/odlv/internal/ui"
)

// LoadCollection fetches one collection with its videos into the store.
func (a *App) LoadCollection(ctx context.Context, key string) error {
	if _, err := a.Endpoints.GetCollection(ctx, a.Store, key); err != nil {
		return fmt.Errorf("load collection %s: %w", key, err)
	}
	return nil
}

// RefreshCollection clears the collections cache and loads key again.
func (a *App) RefreshCollection(ctx context.Context, key string) error {
	a.Store.Dispatch(a.Endpoints.Collections.Clear())
	return a.LoadCollection(ctx, key)
}

// StartDebugServer serves metrics and the state summary on the configured
// address until ctx is cancelled. It does nothing when no address is set.
func (a *App) StartDebugServer(ctx context.Context) <-chan error {
	errCh := make(chan error, 1)
	if a.Config.MetricsAddr == "" {
		close(errCh)
		return errCh
	}
	srv := debugsrv.New(a.Store, a.Registry, log.WithComponent("debugsrv"))
	go func() {
		defer close(errCh)
		if err := srv.ListenAndServe(ctx, a.Config.MetricsAddr); err != nil {
			a.logger.Error().Err(err).Msg("debug server stopped")
			errCh <- err
		}
	}()
	return errCh
}

// Run loads the initial data, starts the page watcher and the debug server,
// then runs the browser until it exits or ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := a.Bootstrap(ctx); err != nil {
		return err
	}
	watchDone := a.WatchCurrentPage(ctx)
	debugDone := a.StartDebugServer(ctx)

	err := ui.Run(ui.Options{
		Context:    ctx,
		Store:      a.Store,
		Controller: a,
		ThemeName:  a.Prefs.Theme,
		Logger:     log.WithComponent("ui"),
	})

	cancel()
	<-watchDone
	for range debugDone {
	}
	return err
}
