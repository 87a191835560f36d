package ui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/lipgloss"

	"github.com/odlvideo/odlv/internal/odl"
	"github.com/odlvideo/odlv/internal/pagination"
)

// Column positions in the collections table.
const (
	colTitle = iota
	colVideos
	colCreated
	colKey
)

func columns(width int) []table.Column {
	fixed := 8 + 12 + 14
	title := max(width-fixed-8, 20)
	return []table.Column{
		{Title: "Title", Width: title},
		{Title: "Videos", Width: 8},
		{Title: "Created", Width: 12},
		{Title: "Key", Width: 14},
	}
}

func (m *Model) refreshTable() {
	page, ok := m.snapshot.State.CollectionsPagination.Current()
	if !ok {
		m.table.SetRows(nil)
		return
	}
	rows := make([]table.Row, 0, len(page.Collections))
	for _, c := range page.Collections {
		rows = append(rows, collectionRow(c))
	}
	m.table.SetRows(rows)
	// An empty table parks the cursor at -1; SetRows only clamps it from above.
	if len(rows) > 0 && m.table.Cursor() < 0 {
		m.table.SetCursor(0)
	}
}

func collectionRow(c odl.Collection) table.Row {
	created := ""
	if t := c.ParsedCreatedAt(); !t.IsZero() {
		created = t.Format("2006-01-02")
	}
	return table.Row{c.Title, strconv.Itoa(c.VideoCount), created, c.Key}
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	if m.showHelp {
		return m.styles.Panel.Render(m.help.View(m.keys))
	}

	sections := []string{m.renderHeader()}
	switch m.view {
	case viewCollection:
		sections = append(sections, m.renderCollection())
	default:
		sections = append(sections, m.renderList())
	}
	if toasts := m.renderToasts(); toasts != "" {
		sections = append(sections, toasts)
	}
	sections = append(sections, m.styles.Footer.Render(m.help.View(m.keys)))
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) renderHeader() string {
	st := m.snapshot.State
	pages := st.CollectionsPagination

	parts := []string{m.styles.AccentText.Render("odlv")}
	if email := m.settingsEmail(); email != "" {
		parts = append(parts, m.styles.MutedText.Render(email))
	}
	total := "?"
	if pages.NumPages > 0 {
		total = strconv.Itoa(pages.NumPages)
	}
	parts = append(parts, m.styles.Text.Render(fmt.Sprintf("Page %d/%s", pages.CurrentPage, total)))
	if pages.Count > 0 {
		parts = append(parts, m.styles.MutedText.Render(fmt.Sprintf("%d collections", pages.Count)))
	}
	if page, ok := pages.Current(); ok {
		parts = append(parts, m.styles.StatusStyle(string(page.Status)).Render(string(page.Status)))
	}
	return m.styles.Header.Render(strings.Join(parts, "  "))
}

func (m Model) settingsEmail() string {
	if m.store == nil {
		return ""
	}
	return m.store.Settings().UserEmail
}

func (m Model) renderList() string {
	pages := m.snapshot.State.CollectionsPagination
	page, ok := pages.Current()
	switch {
	case !ok || (page.Status == pagination.StatusLoading && len(page.Collections) == 0):
		return m.spinner.View() + " " + m.styles.MutedText.Render(fmt.Sprintf("Loading page %d", pages.CurrentPage))
	case page.Status == pagination.StatusError:
		return m.styles.DangerText.Render(fmt.Sprintf("Page %d failed: %v", pages.CurrentPage, page.Error))
	case len(page.Collections) == 0:
		return m.styles.MutedText.Render("No collections")
	}
	return m.table.View()
}

func (m Model) renderCollection() string {
	st := m.snapshot.State.Collections
	c, ok := st.Data.Get(m.openKey)
	if !ok {
		switch {
		case m.lastErr != nil:
			return m.styles.DangerText.Render(m.lastErr.Error())
		case m.openLoaded && st.Error != nil && !st.Processing:
			return m.styles.DangerText.Render(fmt.Sprintf("Collection %s failed: %v", m.openKey, st.Error))
		}
		return m.spinner.View() + " " + m.styles.MutedText.Render("Loading collection "+m.openKey)
	}

	var b strings.Builder
	b.WriteString(m.styles.AccentText.Render(c.Title))
	b.WriteString("\n")
	if c.Description != "" {
		b.WriteString(m.styles.Text.Render(c.Description))
		b.WriteString("\n")
	}
	b.WriteString(m.styles.FaintText.Render(fmt.Sprintf("%s · %d videos", c.Key, len(c.Videos))))
	b.WriteString("\n\n")
	if len(c.Videos) == 0 {
		b.WriteString(m.styles.MutedText.Render("No videos"))
	}
	for i, v := range c.Videos {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(m.styles.StatusStyle(v.Status).Render(v.Status))
		b.WriteString(" ")
		b.WriteString(m.styles.Text.Render(v.Title))
		b.WriteString(" ")
		b.WriteString(m.styles.FaintText.Render(v.Key))
	}
	if st.Processing {
		b.WriteString("\n" + m.spinner.View())
	}
	return m.styles.Panel.Render(b.String())
}

func (m Model) renderToasts() string {
	msgs := m.snapshot.State.Toasts.Messages
	if len(msgs) == 0 {
		return ""
	}
	lines := make([]string, 0, len(msgs))
	for _, msg := range msgs {
		icon := "•"
		if msg.Icon == "check" {
			icon = "✓"
		}
		lines = append(lines, icon+" "+msg.Content)
	}
	return m.styles.Toast.Render(strings.Join(lines, "\n"))
}
