package ui

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/odlvideo/odlv/internal/pagination"
	"github.com/odlvideo/odlv/internal/state"
	"github.com/odlvideo/odlv/internal/toast"
)

const toastTTL = 4 * time.Second

// Controller performs the operations the browser triggers.
type Controller interface {
	LoadCollection(ctx context.Context, key string) error
	// RefreshCollection drops cached collections and loads key again.
	RefreshCollection(ctx context.Context, key string) error
	SavePrefs(theme string) error
}

// Options configures the UI.
type Options struct {
	Context    context.Context
	Store      *state.Store
	Controller Controller
	ThemeName  string
	Logger     zerolog.Logger
}

type view int

const (
	viewList view = iota
	viewCollection
)

// Model is the root Bubble Tea model of the collections browser.
type Model struct {
	ctx    context.Context
	store  *state.Store
	ctrl   Controller
	logger zerolog.Logger

	keys    keyMap
	help    help.Model
	table   table.Model
	spinner spinner.Model
	theme   Theme
	styles  Styles

	view     view
	openKey  string
	showHelp bool
	width    int
	height   int
	ready    bool

	snapshot  state.Snapshot
	changes   <-chan struct{}
	cancel    func()
	scheduled map[string]bool
	lastErr   error

	// openLoaded is set once the load issued for openKey has finished, so a
	// stale Collections.Error from another key is not shown.
	openLoaded bool
}

// New subscribes to the store and builds the model. Call Close when done.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	theme := GetTheme(opts.ThemeName)

	m := Model{
		ctx:       ctx,
		store:     opts.Store,
		ctrl:      opts.Controller,
		logger:    opts.Logger,
		keys:      defaultKeyMap(),
		help:      help.New(),
		spinner:   spinner.New(spinner.WithSpinner(spinner.Dot)),
		table:     table.New(table.WithColumns(columns(80)), table.WithFocused(true), table.WithHeight(10)),
		scheduled: make(map[string]bool),
		cancel:    func() {},
	}
	m.applyTheme(theme)
	if m.store != nil {
		m.changes, m.cancel = m.store.Subscribe()
		m.snapshot = m.store.Snapshot()
		m.refreshTable()
	}
	return m
}

// Close releases the store subscription.
func (m Model) Close() {
	m.cancel()
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.waitForChange())
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true
		m.help.Width = msg.Width
		m.table.SetColumns(columns(msg.Width))
		m.table.SetWidth(msg.Width)
		m.table.SetHeight(max(msg.Height-8, 3))
		return m, nil

	case changeMsg:
		m.snapshot = m.store.Snapshot()
		m.refreshTable()
		cmds := m.scheduleToastDismissals()
		cmds = append(cmds, m.waitForChange())
		return m, tea.Batch(cmds...)

	case dismissMsg:
		delete(m.scheduled, msg.key)
		m.store.Dispatch(toast.Remove(msg.key))
		return m, nil

	case loadedMsg:
		if m.view == viewCollection && msg.key == m.openKey {
			m.openLoaded = true
		}
		return m, nil

	case errMsg:
		m.lastErr = msg.err
		m.logger.Warn().Err(msg.err).Msg("ui operation failed")
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showHelp {
		m.showHelp = false
		m.help.ShowAll = false
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		if m.ctrl != nil {
			if err := m.ctrl.SavePrefs(m.theme.Name); err != nil {
				m.logger.Warn().Err(err).Msg("save prefs")
			}
		}
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		m.help.ShowAll = true
		return m, nil
	case key.Matches(msg, m.keys.CycleTheme):
		m.applyTheme(GetTheme(NextTheme(m.theme.Name)))
		return m, nil
	case key.Matches(msg, m.keys.DismissToast):
		if msgs := m.snapshot.State.Toasts.Messages; len(msgs) > 0 {
			m.store.Dispatch(toast.Remove(msgs[len(msgs)-1].Key))
		}
		return m, nil
	}

	if m.view == viewCollection {
		switch {
		case key.Matches(msg, m.keys.Escape):
			m.view = viewList
			m.openKey = ""
			m.openLoaded = false
		case key.Matches(msg, m.keys.Refresh):
			m.openLoaded = false
			m.lastErr = nil
			return m, m.loadCollection(m.openKey, true)
		}
		return m, nil
	}

	pages := m.snapshot.State.CollectionsPagination
	switch {
	case key.Matches(msg, m.keys.NextPage):
		if pages.NumPages == 0 || pages.CurrentPage < pages.NumPages {
			m.store.Dispatch(pagination.SetCurrentPage(pages.CurrentPage + 1))
		}
		return m, nil
	case key.Matches(msg, m.keys.PrevPage):
		if pages.CurrentPage > 1 {
			m.store.Dispatch(pagination.SetCurrentPage(pages.CurrentPage - 1))
		}
		return m, nil
	case key.Matches(msg, m.keys.Open):
		row := m.table.SelectedRow()
		if len(row) <= colKey {
			return m, nil
		}
		m.view = viewCollection
		m.openKey = row[colKey]
		m.openLoaded = false
		m.lastErr = nil
		return m, m.loadCollection(m.openKey, false)
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m *Model) applyTheme(t Theme) {
	m.theme = t
	m.styles = t.Styles()
	m.spinner.Style = m.styles.AccentText
	ts := table.DefaultStyles()
	ts.Header = m.styles.TableHeader
	ts.Selected = m.styles.Selected
	m.table.SetStyles(ts)
}

func (m Model) scheduleToastDismissals() []tea.Cmd {
	var cmds []tea.Cmd
	for _, msg := range m.snapshot.State.Toasts.Messages {
		if m.scheduled[msg.Key] {
			continue
		}
		m.scheduled[msg.Key] = true
		k := msg.Key
		cmds = append(cmds, tea.Tick(toastTTL, func(time.Time) tea.Msg {
			return dismissMsg{key: k}
		}))
	}
	return cmds
}

// Messages

type changeMsg struct{}

type dismissMsg struct{ key string }

type loadedMsg struct{ key string }

type errMsg struct{ err error }

// Commands

func (m Model) waitForChange() tea.Cmd {
	if m.changes == nil {
		return nil
	}
	changes, ctx := m.changes, m.ctx
	return func() tea.Msg {
		select {
		case <-changes:
			return changeMsg{}
		case <-ctx.Done():
			return nil
		}
	}
}

func (m Model) loadCollection(key string, refresh bool) tea.Cmd {
	if m.ctrl == nil {
		return nil
	}
	ctrl, ctx := m.ctrl, m.ctx
	return func() tea.Msg {
		load := ctrl.LoadCollection
		if refresh {
			load = ctrl.RefreshCollection
		}
		if err := load(ctx, key); err != nil {
			return errMsg{err: err}
		}
		return loadedMsg{key: key}
	}
}

// Run starts the Bubble Tea program and blocks until it exits.
func Run(opts Options) error {
	m := New(opts)
	defer m.Close()

	ctx := m.ctx
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
