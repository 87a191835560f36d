package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/odlvideo/odlv/internal/action"
	"github.com/odlvideo/odlv/internal/config"
	"github.com/odlvideo/odlv/internal/log"
	"github.com/odlvideo/odlv/internal/metrics"
	"github.com/odlvideo/odlv/internal/odl"
	"github.com/odlvideo/odlv/internal/pagination"
	"github.com/odlvideo/odlv/internal/prefs"
	"github.com/odlvideo/odlv/internal/resources"
	"github.com/odlvideo/odlv/internal/state"
	"github.com/odlvideo/odlv/internal/toast"
)

// Options configure the odlv application.
type Options struct {
	ConfigPath string
	PrefsPath  string // empty uses default ~/.config/odlv/prefs.toml

	// Config replaces loading ConfigPath when set.
	Config *config.Config
	// LogOutput replaces the configured log file when set.
	LogOutput io.Writer
	// ClientOptions are appended to the options derived from the config.
	ClientOptions []odl.Option
}

// App wires the API client, the resource endpoints and the store.
type App struct {
	Config    config.Config
	Prefs     prefs.Prefs
	Client    *odl.Client
	Endpoints *resources.Endpoints
	Store     *state.Store
	Metrics   *metrics.Metrics
	Registry  *prometheus.Registry

	prefsPath string
	logger    zerolog.Logger
	closers   []io.Closer
}

// New loads configuration and preferences, configures logging and builds the
// store. Close releases the log file.
func New(ctx context.Context, opts Options) (*App, error) {
	var cfg config.Config
	if opts.Config != nil {
		cfg = *opts.Config
	} else {
		loaded, err := config.Load(opts.ConfigPath)
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
	}

	userPrefs, err := prefs.Load(opts.PrefsPath)
	if err != nil {
		return nil, fmt.Errorf("load prefs: %w", err)
	}

	a := &App{Config: cfg, Prefs: userPrefs, prefsPath: opts.PrefsPath}

	output := opts.LogOutput
	if output == nil {
		f, err := openLogFile(cfg.LogFile)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, f)
		output = f
	}
	log.Configure(log.Config{Level: cfg.LogLevel, Output: output})
	a.logger = log.WithComponent("app")

	clientOpts := []odl.Option{
		odl.WithSessionID(cfg.SessionID),
		odl.WithCSRFToken(cfg.CSRFToken),
	}
	clientOpts = append(clientOpts, opts.ClientOptions...)
	a.Client, err = odl.NewClient(cfg.BaseURL, clientOpts...)
	if err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("init odl client: %w", err)
	}

	a.Endpoints, err = resources.New(a.Client)
	if err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("derive endpoints: %w", err)
	}

	a.Registry = prometheus.NewRegistry()
	a.Metrics = metrics.New(a.Registry)

	storeOpts := []state.Option{state.WithMetrics(a.Metrics)}
	if cfg.Dev {
		storeOpts = append(storeOpts, state.WithLogger(log.WithComponent("store")))
	}
	a.Store, err = state.New(cfg.Settings(), a.Endpoints, storeOpts...)
	if err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("build store: %w", err)
	}

	if userPrefs.LastPage > 1 {
		a.Store.Dispatch(pagination.SetCurrentPage(userPrefs.LastPage))
	}

	a.logger.Info().
		Str("base_url", cfg.BaseURL).
		Bool("dev", cfg.Dev).
		Int("page", a.Store.State().CollectionsPagination.CurrentPage).
		Msg("odlv initialised")
	return a, nil
}

// Close releases resources opened by New.
func (a *App) Close() error {
	var errs []error
	for _, c := range a.closers {
		errs = append(errs, c.Close())
	}
	a.closers = nil
	return errors.Join(errs...)
}

// Bootstrap loads the current collections page, the potential owners and
// the edX endpoints concurrently. Fetch failures land in the store; the
// returned error only reports requests that could not be started.
func (a *App) Bootstrap(ctx context.Context) error {
	page := a.Store.State().CollectionsPagination.CurrentPage

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		task, err := pagination.GetPage(ctx, a.Store, a.Client, page)
		if err != nil {
			return err
		}
		_, err = task.Wait(ctx)
		return err
	})
	g.Go(func() error {
		_, err := a.Endpoints.GetPotentialCollectionOwners(ctx, a.Store)
		return err
	})
	g.Go(func() error {
		_, err := a.Endpoints.GetEdxEndpoints(ctx, a.Store)
		return err
	})
	if err := g.Wait(); err != nil {
		return fmt.Errorf("bootstrap: %w", err)
	}

	st := a.Store.State()
	a.logger.Info().
		Int("page", page).
		Int("count", st.CollectionsPagination.Count).
		Int("owners", len(st.PotentialCollectionOwners.Data)).
		Int("edx_endpoints", len(st.EdxEndpoints.Data)).
		Msg("bootstrap complete")
	return nil
}

// SelectPage makes n the current page and fetches it when it is not cached.
// The returned task is nil when no fetch was needed.
func (a *App) SelectPage(ctx context.Context, n int) (*action.Task, error) {
	if n < 1 {
		return nil, fmt.Errorf("select page %d: %w", n, pagination.ErrInvalidPage)
	}
	a.Store.Dispatch(pagination.SetCurrentPage(n))
	if !pagination.NeedsFetch(a.Store.State().CollectionsPagination, n) {
		return nil, nil
	}
	return pagination.GetPage(ctx, a.Store, a.Client, n)
}

// DeleteSubtitle deletes a subtitle and confirms success with a toast.
func (a *App) DeleteSubtitle(ctx context.Context, id int) (bool, error) {
	ok, err := a.Endpoints.DeleteSubtitle(ctx, a.Store, id)
	if err != nil {
		return false, err
	}
	if !ok {
		a.logger.Warn().Int("subtitle_id", id).Err(a.Store.State().VideoSubtitles.Error).Msg("subtitle delete failed")
		return false, nil
	}
	a.Store.Dispatch(toast.Add(toast.Message{Content: "Subtitle deleted", Icon: "check"}))
	return true, nil
}

// SavePrefs persists the theme and the current page.
func (a *App) SavePrefs(theme string) error {
	p := a.Prefs
	if theme != "" {
		p.Theme = theme
	}
	p.LastPage = a.Store.State().CollectionsPagination.CurrentPage
	if err := prefs.Save(a.prefsPath, p); err != nil {
		return err
	}
	a.Prefs = p
	return nil
}

// Logger returns the app's component logger.
func (a *App) Logger() zerolog.Logger {
	return a.logger
}

func openLogFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	return f, nil
}
