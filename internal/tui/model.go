package tui

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/Veraticus/commerce-admin/internal/admin"
	"github.com/Veraticus/commerce-admin/internal/model"
	"github.com/Veraticus/commerce-admin/internal/service"
	"github.com/Veraticus/commerce-admin/internal/tree"
	"github.com/Veraticus/commerce-admin/internal/tui/themes"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

// State is the browser's input mode.
type State int

// Browser states.
const (
	StateLoading State = iota
	StateBrowse
	StateConfirm
)

type actionKind int

const (
	actionToggleStatus actionKind = iota
	actionDelete
)

type pendingAction struct {
	prompt string
	kind   actionKind
	id     int
}

// Messages.
type loadedMsg struct{ err error }

type actionDoneMsg struct{ err error }

// notice is the last message shown in the status line.
type notice struct {
	level string
	text  string
}

// noticeBoard collects controller notifications for the status line.
type noticeBoard struct {
	last notice
	mu   sync.Mutex
}

func (b *noticeBoard) set(level, title, message string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	text := message
	if title != "" {
		text = title + ": " + message
	}
	b.last = notice{level: level, text: text}
}

func (b *noticeBoard) Success(title, message string) { b.set("success", title, message) }
func (b *noticeBoard) Error(title, message string)   { b.set("error", title, message) }
func (b *noticeBoard) Warning(title, message string) { b.set("warning", title, message) }
func (b *noticeBoard) Info(title, message string)    { b.set("info", title, message) }

func (b *noticeBoard) take() notice {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := b.last
	b.last = notice{}
	return n
}

// accepting answers yes to every confirmation. The browser shows its own
// confirmation state before it dispatches an action.
type accepting struct{}

func (accepting) Confirm(context.Context, string, string) (bool, error) { return true, nil }

// Config configures the browser.
type Config struct {
	Theme  themes.Theme
	Filter model.StatusFilter
	Width  int
	Height int
}

// Model is the bubbletea model of the category tree browser.
type Model struct {
	ctx      context.Context
	view     *admin.CategoryView
	board    *noticeBoard
	pending  *pendingAction
	selected *int
	help     help.Model
	theme    themes.Theme
	keys     KeyMap
	notice   notice
	filter   model.StatusFilter
	cursor   int
	width    int
	height   int
	state    State
	quitting bool
}

// New creates a browser over svc.
func New(ctx context.Context, svc service.CategoryService, cfg Config) Model {
	board := &noticeBoard{}
	filter := cfg.Filter
	if filter == "" {
		filter = model.StatusActive
	}
	return Model{
		ctx:    ctx,
		view:   admin.NewCategoryView(svc, board, accepting{}),
		board:  board,
		help:   help.New(),
		theme:  cfg.Theme,
		keys:   DefaultKeyMap(),
		filter: filter,
		width:  cfg.Width,
		height: cfg.Height,
		state:  StateLoading,
	}
}

// Init loads the forest.
func (m Model) Init() tea.Cmd {
	return m.setFilter(m.filter)
}

func (m Model) setFilter(filter model.StatusFilter) tea.Cmd {
	view, ctx := m.view, m.ctx
	return func() tea.Msg {
		return loadedMsg{err: view.SetFilter(ctx, filter)}
	}
}

func (m Model) reload() tea.Cmd {
	view, ctx := m.view, m.ctx
	return func() tea.Msg {
		return loadedMsg{err: view.Load(ctx)}
	}
}

func (m Model) run(p pendingAction) tea.Cmd {
	view, ctx := m.view, m.ctx
	return func() tea.Msg {
		var err error
		switch p.kind {
		case actionToggleStatus:
			_, err = view.ToggleStatus(ctx, p.id)
		case actionDelete:
			_, err = view.Delete(ctx, p.id)
		}
		return actionDoneMsg{err: err}
	}
}

// State returns the current input mode.
func (m Model) State() State {
	return m.state
}

// Cursor returns the index of the selected row.
func (m Model) Cursor() int {
	return m.cursor
}

// Rows returns the visible rows.
func (m Model) Rows() []tree.Entry {
	return m.view.Visible()
}

// Selected returns the category under the cursor, if any.
func (m Model) Selected() *model.Category {
	rows := m.Rows()
	if m.cursor < 0 || m.cursor >= len(rows) {
		return nil
	}
	return rows[m.cursor].Category
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case loadedMsg:
		m.state = StateBrowse
		m.filter = m.view.Filter()
		m.notice = m.board.take()
		m.restoreCursor()
		return m, nil

	case actionDoneMsg:
		m.state = StateBrowse
		m.pending = nil
		m.filter = m.view.Filter()
		m.notice = m.board.take()
		m.restoreCursor()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		m.quitting = true
		return m, tea.Quit
	}

	switch m.state {
	case StateConfirm:
		return m.handleConfirmKey(msg)
	case StateLoading:
		if key.Matches(msg, m.keys.Quit) {
			m.quitting = true
			return m, tea.Quit
		}
		return m, nil
	}

	rows := m.Rows()
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return m, tea.Quit

	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(rows)-1 {
			m.cursor++
		}
	case key.Matches(msg, m.keys.Home):
		m.cursor = 0
	case key.Matches(msg, m.keys.End):
		m.cursor = max(len(rows)-1, 0)

	case key.Matches(msg, m.keys.Toggle):
		if c := m.Selected(); c != nil && c.HasChildren() {
			m.view.Toggle(c.ID)
		}
	case key.Matches(msg, m.keys.ExpandAll):
		m.view.ExpandAll()
	case key.Matches(msg, m.keys.CollapseAll):
		m.remember()
		m.view.CollapseAll()
		m.restoreCursor()

	case key.Matches(msg, m.keys.Filter):
		m.remember()
		m.state = StateLoading
		m.filter = nextFilter(m.filter)
		return m, m.setFilter(m.filter)
	case key.Matches(msg, m.keys.Refresh):
		m.remember()
		m.state = StateLoading
		return m, m.reload()

	case key.Matches(msg, m.keys.ToggleStatus):
		if c := m.Selected(); c != nil {
			verb := "Deactivate"
			if !c.IsActive {
				verb = "Activate"
			}
			m.pending = &pendingAction{
				kind:   actionToggleStatus,
				id:     c.ID,
				prompt: fmt.Sprintf("%s the category %q?", verb, c.Name),
			}
			m.state = StateConfirm
		}
	case key.Matches(msg, m.keys.Delete):
		if c := m.Selected(); c != nil {
			m.pending = &pendingAction{
				kind:   actionDelete,
				id:     c.ID,
				prompt: fmt.Sprintf("Delete the category %q? This action cannot be undone.", c.Name),
			}
			m.state = StateConfirm
		}

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	}
	return m, nil
}

func (m Model) handleConfirmKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Confirm):
		p := *m.pending
		m.remember()
		m.state = StateLoading
		return m, m.run(p)
	case key.Matches(msg, m.keys.Cancel):
		m.pending = nil
		m.state = StateBrowse
		m.notice = notice{level: "info", text: "Cancelled"}
	}
	return m, nil
}

// remember stores the selected id so the cursor can follow it across reloads.
func (m *Model) remember() {
	if c := m.Selected(); c != nil {
		id := c.ID
		m.selected = &id
	}
}

func (m *Model) restoreCursor() {
	rows := m.Rows()
	if m.selected != nil {
		for i, r := range rows {
			if r.Category.ID == *m.selected {
				m.cursor = i
				m.selected = nil
				return
			}
		}
		m.selected = nil
	}
	if m.cursor >= len(rows) {
		m.cursor = max(len(rows)-1, 0)
	}
}

func nextFilter(f model.StatusFilter) model.StatusFilter {
	switch f {
	case model.StatusActive:
		return model.StatusInactive
	case model.StatusInactive:
		return model.StatusAll
	default:
		return model.StatusActive
	}
}

// View renders the UI.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder
	b.WriteString(m.theme.Title.Render("Categories"))
	b.WriteString("\n")
	b.WriteString(m.theme.Subtitle.Render(fmt.Sprintf("Filter: %s", m.filter)))
	b.WriteString("\n\n")

	rows := m.Rows()
	switch {
	case m.state == StateLoading && len(rows) == 0:
		b.WriteString(m.theme.Subtitle.Render("Loading categories..."))
		b.WriteString("\n")
	case len(rows) == 0:
		b.WriteString(m.theme.Subtitle.Render("No categories"))
		b.WriteString("\n")
	default:
		for _, r := range m.window(rows) {
			b.WriteString(m.renderRow(r.entry, r.index == m.cursor))
			b.WriteString("\n")
		}
	}

	if m.state == StateConfirm && m.pending != nil {
		b.WriteString("\n")
		b.WriteString(m.theme.RoundedBox.Render(
			m.theme.StatusWarning.Render(m.pending.prompt) + "\n" +
				m.theme.Subtitle.Render("y to confirm, n to cancel")))
		b.WriteString("\n")
	}

	if line := m.renderNotice(); line != "" {
		b.WriteString("\n")
		b.WriteString(line)
		b.WriteString("\n")
	}

	b.WriteString(m.theme.Help.Render(m.help.View(m.keys)))
	return b.String()
}

type indexedEntry struct {
	entry tree.Entry
	index int
}

// window keeps the cursor on screen when the terminal is shorter than the tree.
func (m Model) window(rows []tree.Entry) []indexedEntry {
	limit := len(rows)
	if m.height > 0 {
		// title, filter, blank lines, notice and help
		if avail := m.height - 8; avail > 0 && avail < limit {
			limit = avail
		}
	}

	start := 0
	if m.cursor >= limit {
		start = m.cursor - limit + 1
	}

	out := make([]indexedEntry, 0, limit)
	for i := start; i < len(rows) && len(out) < limit; i++ {
		out = append(out, indexedEntry{entry: rows[i], index: i})
	}
	return out
}

func (m Model) renderRow(e tree.Entry, selected bool) string {
	c := e.Category

	marker := "•"
	if c.HasChildren() {
		marker = "▸"
		if m.view.IsExpanded(c.ID) {
			marker = "▾"
		}
	}

	label := c.Name
	if c.ProductCount != nil {
		label += m.theme.Badge.Render(fmt.Sprintf(" (%d)", *c.ProductCount))
	}
	if !c.IsActive {
		label += m.theme.Inactive.Render(" inactive")
	}

	line := strings.Repeat("  ", e.Level) + m.theme.Marker.Render(marker) + label
	if selected {
		return m.theme.Selected.Render(line)
	}
	if !c.IsActive {
		return m.theme.Inactive.Render(line)
	}
	return m.theme.Normal.Render(line)
}

func (m Model) renderNotice() string {
	switch m.notice.level {
	case "success":
		return m.theme.StatusSuccess.Render(m.notice.text)
	case "error":
		return m.theme.StatusError.Render(m.notice.text)
	case "warning":
		return m.theme.StatusWarning.Render(m.notice.text)
	case "info":
		return m.theme.StatusInfo.Render(m.notice.text)
	}
	return ""
}
