// Package debugsrv serves Prometheus metrics and a summary of the store over
// HTTP for local debugging.
package debugsrv

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/odlvideo/odlv/internal/state"
)

const shutdownTimeout = 5 * time.Second

// Snapshotter exposes the store state.
type Snapshotter interface {
	Snapshot() state.Snapshot
}

// Server holds the router and its dependencies.
type Server struct {
	store    Snapshotter
	gatherer prometheus.Gatherer
	logger   zerolog.Logger
	router   chi.Router
}

// New builds the router. gatherer may be nil to serve the default registry.
func New(store Snapshotter, gatherer prometheus.Gatherer, logger zerolog.Logger) *Server {
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	s := &Server{store: store, gatherer: gatherer, logger: logger}
	s.router = s.buildRouter()
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	r.Get("/debug/state", s.handleState)
	return r
}

// ResourceSummary is the per-resource part of the state summary.
type ResourceSummary struct {
	Processing bool   `json:"processing"`
	Loaded     bool   `json:"loaded"`
	Size       int    `json:"size"`
	Error      string `json:"error,omitempty"`
}

// PageSummary describes one cached collections page.
type PageSummary struct {
	Page   int    `json:"page"`
	Status string `json:"status"`
	Size   int    `json:"size"`
	Error  string `json:"error,omitempty"`
}

// StateSummary is the body of GET /debug/state.
type StateSummary struct {
	Version     uint64                     `json:"version"`
	LastAction  string                     `json:"last_action,omitempty"`
	UpdatedAt   *time.Time                 `json:"updated_at,omitempty"`
	Resources   map[string]ResourceSummary `json:"resources"`
	CurrentPage int                        `json:"current_page"`
	NumPages    int                        `json:"num_pages"`
	Count       int                        `json:"count"`
	Pages       []PageSummary              `json:"pages"`
	Toasts      int                        `json:"toasts"`
}

// Summarize condenses a snapshot into its JSON summary.
func Summarize(snap state.Snapshot) StateSummary {
	st := snap.State
	out := StateSummary{
		Version:     snap.Version,
		LastAction:  string(snap.LastAction),
		CurrentPage: st.CollectionsPagination.CurrentPage,
		NumPages:    st.CollectionsPagination.NumPages,
		Count:       st.CollectionsPagination.Count,
		Toasts:      len(st.Toasts.Messages),
		Pages:       []PageSummary{},
		Resources: map[string]ResourceSummary{
			"collections":               summary(st.Collections.Processing, st.Collections.Loaded, st.Collections.Data.Len(), st.Collections.Error),
			"collectionsList":           summary(st.CollectionsList.Processing, st.CollectionsList.Loaded, len(st.CollectionsList.Data), st.CollectionsList.Error),
			"videos":                    summary(st.Videos.Processing, st.Videos.Loaded, st.Videos.Data.Len(), st.Videos.Error),
			"videoSubtitles":            summary(st.VideoSubtitles.Processing, st.VideoSubtitles.Loaded, st.VideoSubtitles.Data.Len(), st.VideoSubtitles.Error),
			"videoAnalytics":            summary(st.VideoAnalytics.Processing, st.VideoAnalytics.Loaded, st.VideoAnalytics.Data.Len(), st.VideoAnalytics.Error),
			"edxEndpoints":              summary(st.EdxEndpoints.Processing, st.EdxEndpoints.Loaded, len(st.EdxEndpoints.Data), st.EdxEndpoints.Error),
			"users":                     summary(st.Users.Processing, st.Users.Loaded, len(st.Users.Data), st.Users.Error),
			"potentialCollectionOwners": summary(st.PotentialCollectionOwners.Processing, st.PotentialCollectionOwners.Loaded, len(st.PotentialCollectionOwners.Data), st.PotentialCollectionOwners.Error),
		},
	}
	if !snap.UpdatedAt.IsZero() {
		t := snap.UpdatedAt
		out.UpdatedAt = &t
	}
	for n, p := range st.CollectionsPagination.Pages {
		ps := PageSummary{Page: n, Status: string(p.Status), Size: len(p.Collections)}
		if p.Error != nil {
			ps.Error = p.Error.Error()
		}
		out.Pages = append(out.Pages, ps)
	}
	sort.Slice(out.Pages, func(i, j int) bool { return out.Pages[i].Page < out.Pages[j].Page })
	return out
}

func summary(processing, loaded bool, size int, err error) ResourceSummary {
	s := ResourceSummary{Processing: processing, Loaded: loaded, Size: size}
	if err != nil {
		s.Error = err.Error()
	}
	return s
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(Summarize(s.store.Snapshot())); err != nil {
		s.logger.Warn().Err(err).Str("request_id", middleware.GetReqID(r.Context())).Msg("encode state summary")
	}
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("debug server listen: %w", err)
	}
	return s.Serve(ctx, ln)
}

// Serve is ListenAndServe on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	httpServer := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", ln.Addr().String()).Msg("debug server listening")
		errCh <- httpServer.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("debug server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("debug server shutdown: %w", err)
	}
	<-errCh
	return nil
}
