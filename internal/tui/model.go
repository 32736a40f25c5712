// Package tui is the terminal front-end of the trending feed.
//
// In replace mode the user pages with prev/next and the list jumps back to
// the top after every page change. In accumulate mode moving the cursor
// near the end of the list loads the next page through a proximity trigger.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/Sternrassler/gh-trending-feed/pkg/pager"
	"github.com/Sternrassler/gh-trending-feed/pkg/trigger"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
)

const (
	// itemLines is the height of one rendered repository.
	itemLines = 3

	// chromeLines is the height of header, footer and help.
	chromeLines = 6
)

// Controller is the controller surface the UI needs.
// *pager.Controller implements it.
type Controller interface {
	trigger.Loader
	Start(ctx context.Context) bool
	State() pager.LoadState
	Subscribe() (<-chan pager.LoadState, func())
	Mode() pager.Mode
}

// stateMsg carries a snapshot published by the controller.
type stateMsg struct {
	state pager.LoadState
}

// loadSettledMsg is sent when a load started by the UI has settled.
type loadSettledMsg struct {
	issued bool
}

var errSmoothUnsupported = errors.New("terminal cannot animate scrolling")

// terminalScroller records scroll-to-top requests from the manual trigger.
// The model applies them on its own goroutine when the load settles.
type terminalScroller struct {
	mu      sync.Mutex
	pending bool
}

func (s *terminalScroller) ScrollToTop(smooth bool) error {
	if smooth {
		return errSmoothUnsupported
	}
	s.mu.Lock()
	s.pending = true
	s.mu.Unlock()
	return nil
}

func (s *terminalScroller) take() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	pending := s.pending
	s.pending = false
	return pending
}

// Options configures the model.
type Options struct {
	// Threshold is the proximity distance in rows (accumulate mode).
	Threshold int

	Logger zerolog.Logger
}

// Model is the bubbletea model.
type Model struct {
	ctx      context.Context
	ctrl     Controller
	mode     pager.Mode
	manual   *trigger.Manual
	observer *trigger.ListObserver
	scroller *terminalScroller
	updates  <-chan pager.LoadState

	state  pager.LoadState
	cursor int
	offset int
	width  int
	height int

	spinner spinner.Model
	keys    keyMap
}

// NewModel creates the model. updates may be nil, in which case the view
// only refreshes when a load started from the UI settles.
func NewModel(ctx context.Context, ctrl Controller, updates <-chan pager.LoadState, opts Options) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = spinnerStyle

	scroller := &terminalScroller{}

	return Model{
		ctx:      ctx,
		ctrl:     ctrl,
		mode:     ctrl.Mode(),
		manual:   trigger.NewManual(ctrl, scroller, opts.Logger),
		observer: trigger.NewListObserver(opts.Threshold),
		scroller: scroller,
		updates:  updates,
		state:    ctrl.State(),
		width:    80,
		height:   24,
		spinner:  s,
		keys:     defaultKeyMap(),
	}
}

// Observer returns the proximity observer the cursor reports to.
func (m Model) Observer() *trigger.ListObserver {
	return m.observer
}

// Cursor returns the selected row.
func (m Model) Cursor() int {
	return m.cursor
}

// Init starts the session.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.startCmd(), waitForState(m.updates))
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ensureCursorVisible()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case stateMsg:
		m.applyState(msg.state)
		return m, waitForState(m.updates)

	case loadSettledMsg:
		m.applyState(m.ctrl.State())
		if m.scroller.take() {
			m.cursor = 0
			m.offset = 0
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
		m.ensureCursorVisible()

	case key.Matches(msg, m.keys.Down):
		if m.cursor < len(m.state.Items)-1 {
			m.cursor++
		}
		m.ensureCursorVisible()
		m.reportProximity()

	case key.Matches(msg, m.keys.Home):
		m.cursor = 0
		m.offset = 0

	case key.Matches(msg, m.keys.End):
		if n := len(m.state.Items); n > 0 {
			m.cursor = n - 1
		}
		m.ensureCursorVisible()
		m.reportProximity()

	case key.Matches(msg, m.keys.Next):
		if m.mode == pager.ModeReplace {
			return m, m.manualCmd(m.manual.Next)
		}

	case key.Matches(msg, m.keys.Prev):
		if m.mode == pager.ModeReplace {
			return m, m.manualCmd(m.manual.Prev)
		}

	case key.Matches(msg, m.keys.Restart):
		m.cursor = 0
		m.offset = 0
		return m, m.startCmd()
	}

	return m, nil
}

// View renders the model.
func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Github Trending Repos"))
	if m.state.Query != "" {
		b.WriteString(" ")
		b.WriteString(subtleStyle.Render(m.state.Query))
	}
	b.WriteString("\n\n")

	if m.state.Err != "" {
		b.WriteString(errorStyle.Render("Error: " + truncate(m.state.Err, m.width-6)))
		b.WriteString("\n")
	}

	if len(m.state.Items) == 0 && m.state.Loaded && !m.state.Loading && m.state.Err == "" {
		b.WriteString(subtleStyle.Render("No repositories found."))
		b.WriteString("\n")
	}

	end := m.offset + m.visibleItems()
	if end > len(m.state.Items) {
		end = len(m.state.Items)
	}
	for i := m.offset; i < end; i++ {
		b.WriteString(m.renderItem(i))
	}

	b.WriteString("\n")
	b.WriteString(m.renderFooter())
	b.WriteString("\n")
	b.WriteString(m.renderHelp())

	return b.String()
}

func (m Model) renderItem(i int) string {
	repo := m.state.Items[i]

	name := truncate(repo.FullName, m.width-14)
	if i == m.cursor {
		name = selectedStyle.Render(name)
	} else {
		name = nameStyle.Render(name)
	}
	stars := starStyle.Render("★ " + FormatCount(repo.StargazersCount))

	desc := descStyle.Render(truncate(repo.DescriptionOr("No description"), m.width-4))

	meta := fmt.Sprintf("Published: %s · %s", FormatDate(repo.CreatedAt), repo.Owner.Login)
	if repo.Language != "" {
		meta += " · " + repo.Language
	}

	return fmt.Sprintf("%s %s\n  %s\n  %s\n", name, stars, desc, subtleStyle.Render(truncate(meta, m.width-4)))
}

func (m Model) renderFooter() string {
	var parts []string

	if m.mode == pager.ModeReplace {
		prev, next := disabledStyle, disabledStyle
		if m.state.CanPrev() {
			prev = buttonStyle
		}
		if m.state.CanNext() {
			next = buttonStyle
		}
		parts = append(parts,
			prev.Render("← Prev"),
			fmt.Sprintf("Page %d", m.state.Page),
			next.Render("Next →"),
		)
	} else {
		parts = append(parts, fmt.Sprintf("%d repositories", len(m.state.Items)))
	}

	switch {
	case m.state.Loading:
		parts = append(parts, m.spinner.View()+" Loading repositories...")
	case m.state.Exhausted && len(m.state.Items) > 0:
		parts = append(parts, subtleStyle.Render("No more results"))
	}

	return strings.Join(parts, "  ")
}

func (m Model) renderHelp() string {
	bindings := []key.Binding{m.keys.Up, m.keys.Down}
	if m.mode == pager.ModeReplace {
		bindings = append(bindings, m.keys.Prev, m.keys.Next)
	}
	bindings = append(bindings, m.keys.Restart, m.keys.Quit)

	help := make([]string, 0, len(bindings))
	for _, kb := range bindings {
		h := kb.Help()
		help = append(help, h.Key+" "+h.Desc)
	}
	return subtleStyle.Render(strings.Join(help, " • "))
}

func (m *Model) applyState(s pager.LoadState) {
	if s.Session != m.state.Session {
		m.cursor = 0
		m.offset = 0
	}
	m.state = s
	if n := len(s.Items); m.cursor >= n {
		m.cursor = max(n-1, 0)
	}
	m.ensureCursorVisible()
}

func (m Model) visibleItems() int {
	return max((m.height-chromeLines)/itemLines, 1)
}

func (m *Model) ensureCursorVisible() {
	visible := m.visibleItems()
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+visible {
		m.offset = m.cursor - visible + 1
	}
	if m.offset < 0 {
		m.offset = 0
	}
}

// reportProximity feeds the cursor to the observer in accumulate mode.
func (m Model) reportProximity() {
	if m.mode == pager.ModeAccumulate && len(m.state.Items) > 0 {
		m.observer.Report(m.cursor, len(m.state.Items))
	}
}

func (m Model) startCmd() tea.Cmd {
	ctx, ctrl := m.ctx, m.ctrl
	return func() tea.Msg {
		return loadSettledMsg{issued: ctrl.Start(ctx)}
	}
}

func (m Model) manualCmd(fn func(context.Context) bool) tea.Cmd {
	ctx := m.ctx
	return func() tea.Msg {
		return loadSettledMsg{issued: fn(ctx)}
	}
}

func waitForState(updates <-chan pager.LoadState) tea.Cmd {
	if updates == nil {
		return nil
	}
	return func() tea.Msg {
		s, ok := <-updates
		if !ok {
			return nil
		}
		return stateMsg{state: s}
	}
}
