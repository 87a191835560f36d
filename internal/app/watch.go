package app

import (
	"context"

	"github.com/odlvideo/odlv/internal/pagination"
)

// WatchCurrentPage starts a goroutine that fetches the current collections
// page whenever the store changes and that page is not cached. It returns a
// channel closed once the goroutine exits after ctx is cancelled.
func (a *App) WatchCurrentPage(ctx context.Context) <-chan struct{} {
	changes, cancel := a.Store.Subscribe()
	done := make(chan struct{})
	logger := a.logger.With().Str("loop", "page-watch").Logger()

	go func() {
		defer close(done)
		defer cancel()

		for {
			page := a.Store.State().CollectionsPagination.CurrentPage
			if pagination.NeedsFetch(a.Store.State().CollectionsPagination, page) {
				logger.Debug().Int("page", page).Msg("fetching page")
				if _, err := pagination.GetPage(ctx, a.Store, a.Client, page); err != nil {
					logger.Warn().Err(err).Int("page", page).Msg("page fetch not started")
				}
			}
			select {
			case <-ctx.Done():
				return
			case <-changes:
			}
		}
	}()
	return done
}
