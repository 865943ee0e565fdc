// Package tui is the terminal host for the paginator: it lists the cards of
// a built index page and pages through them with the keyboard.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/conneroisu/bookshelf/internal/content"
	"github.com/conneroisu/bookshelf/internal/dom"
	"github.com/conneroisu/bookshelf/internal/logging"
	"github.com/conneroisu/bookshelf/internal/paginator"
	"github.com/conneroisu/bookshelf/internal/views"
)

const helpText = "←/→ page • 1-9 jump • [/] back/forward • / search • esc clear • q quit"

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	cardStyle     = lipgloss.NewStyle().PaddingLeft(2)
	nameStyle     = lipgloss.NewStyle().Bold(true)
	subtitleStyle = lipgloss.NewStyle().Faint(true)
	activeStyle   = lipgloss.NewStyle().Bold(true).Reverse(true).Padding(0, 1)
	pageStyle     = lipgloss.NewStyle().Padding(0, 1)
	disabledStyle = lipgloss.NewStyle().Faint(true).Padding(0, 1)
	helpStyle     = lipgloss.NewStyle().Faint(true)
	emptyStyle    = lipgloss.NewStyle().Italic(true).PaddingLeft(2)
)

// Options configures the browser.
type Options struct {
	Title    string
	PageSize int
	Debounce time.Duration
	// Fragment is the starting address, such as "#page-2".
	Fragment string
	Logger   logging.Logger
}

// Model is the bubbletea model for browsing cards.
type Model struct {
	title     string
	pager     *paginator.Paginator[dom.Card]
	history   *paginator.History
	search    textinput.Model
	width     int
	descLimit int
}

// NewModel creates a model over cards. scheduler delays searches; pass a
// *Scheduler attached to the running program.
func NewModel(cards []dom.Card, opts Options, scheduler paginator.Scheduler) Model {
	history := paginator.NewHistory(opts.Fragment)

	pagerOpts := []paginator.Option{
		paginator.WithPageSize(opts.PageSize),
		paginator.WithNavigator(history),
		paginator.WithScheduler(scheduler),
		paginator.WithLogger(opts.Logger),
	}
	if opts.Debounce > 0 {
		pagerOpts = append(pagerOpts, paginator.WithDebounce(opts.Debounce))
	}

	search := textinput.New()
	search.Placeholder = "Search books"
	search.Prompt = "/ "

	title := opts.Title
	if title == "" {
		title = "Bookshelf"
	}

	return Model{
		title:     title,
		pager:     paginator.New(cards, dom.CardFields, nil, pagerOpts...),
		history:   history,
		search:    search,
		descLimit: content.DefaultTruncateLength,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case scheduledMsg:
		msg.fn()
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.search.Width = max(msg.Width-4, 10)
		return m, nil

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			m.pager.Close()
			return m, tea.Quit
		}
		if m.search.Focused() {
			return m.updateSearch(msg)
		}
		return m.updateBrowse(msg)
	}
	return m, nil
}

func (m Model) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.search.SetValue("")
		m.search.Blur()
		m.pager.ClearSearch()
		return m, nil
	case tea.KeyEnter:
		m.search.Blur()
		m.pager.ApplyQuery(m.search.Value())
		return m, nil
	}

	before := m.search.Value()
	var cmd tea.Cmd
	m.search, cmd = m.search.Update(msg)
	if m.search.Value() != before {
		m.pager.SetQuery(m.search.Value())
	}
	return m, cmd
}

func (m Model) updateBrowse(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	controls := m.pager.Snapshot().Controls

	switch msg.String() {
	case "q":
		m.pager.Close()
		return m, tea.Quit
	case "/":
		return m, m.search.Focus()
	case "esc":
		m.search.SetValue("")
		m.pager.ClearSearch()
	case "left", "h":
		m.activate(controls, controls.Previous)
	case "right", "l":
		m.activate(controls, controls.Next)
	case "[":
		m.history.Back()
	case "]":
		m.history.Forward()
	default:
		if len(msg.Runes) == 1 && msg.Runes[0] >= '1' && msg.Runes[0] <= '9' {
			n := int(msg.Runes[0] - '0')
			if n <= len(controls.Pages) {
				m.activate(controls, controls.Pages[n-1])
			}
		}
	}
	return m, nil
}

// activate follows a control the way a click on its link would.
func (m Model) activate(controls paginator.Controls, c paginator.Control) {
	if controls.Empty() || c.Disabled {
		return
	}
	m.history.Navigate(c.Href())
}

// View implements tea.Model.
func (m Model) View() string {
	state := m.pager.Snapshot()

	var b strings.Builder
	b.WriteString(titleStyle.Render(m.title))
	fmt.Fprintf(&b, "  %d of %d books • page %d of %d\n\n", state.Matched, m.pager.Len(), state.Current, state.Total)

	if m.search.Focused() || m.search.Value() != "" {
		b.WriteString(m.search.View())
		b.WriteString("\n\n")
	}

	if state.Matched == 0 {
		b.WriteString(emptyStyle.Render(views.EmptyStateText))
		b.WriteString("\n")
	}
	for _, card := range state.Visible {
		b.WriteString(m.renderCard(card))
		b.WriteString("\n")
	}

	if line := renderControls(state.Controls); line != "" {
		b.WriteString("\n")
		b.WriteString(line)
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(helpStyle.Render(helpText))
	b.WriteString("\n")
	return b.String()
}

func (m Model) renderCard(card dom.Card) string {
	lines := []string{nameStyle.Render(card.Title)}
	if card.Subtitle != "" {
		lines = append(lines, subtitleStyle.Render(card.Subtitle))
	}
	if card.Description != "" {
		lines = append(lines, content.Truncate(card.Description, m.descLimit))
	}
	style := cardStyle
	if m.width > 0 {
		style = style.Width(m.width)
	}
	return style.Render(strings.Join(lines, "\n"))
}

func renderControls(c paginator.Controls) string {
	parts := make([]string, 0, len(c.Pages)+2)
	for _, ctl := range c.All() {
		switch {
		case ctl.Active:
			parts = append(parts, activeStyle.Render(ctl.Label))
		case ctl.Disabled:
			parts = append(parts, disabledStyle.Render(ctl.Label))
		default:
			parts = append(parts, pageStyle.Render(ctl.Label))
		}
	}
	return strings.Join(parts, "")
}

// Run browses cards until the user quits or ctx is done.
func Run(ctx context.Context, cards []dom.Card, opts Options, programOpts ...tea.ProgramOption) error {
	scheduler := NewScheduler()
	model := NewModel(cards, opts, scheduler)
	defer model.pager.Close()

	programOpts = append([]tea.ProgramOption{tea.WithContext(ctx), tea.WithAltScreen()}, programOpts...)
	program := tea.NewProgram(model, programOpts...)
	scheduler.Attach(program.Send)

	_, err := program.Run()
	if err != nil && ctx.Err() != nil {
		return nil
	}
	return err
}
