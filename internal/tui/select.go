// Package tui provides the interactive record picker for the CLI.
package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/otapi/antikvarium/internal/metadata"
)

const (
	defaultListWidth  = 72
	defaultListHeight = 20
)

var runProgram = func(m tea.Model) (tea.Model, error) {
	return tea.NewProgram(m).Run()
}

// SelectionAction represents the user's action in the selection UI.
type SelectionAction int

const (
	// ActionNone indicates no action was taken.
	ActionNone SelectionAction = iota
	// ActionSelected indicates the user selected a record.
	ActionSelected
	// ActionSkipped indicates the user skipped the selection.
	ActionSkipped
	// ActionStopped indicates the user stopped entirely.
	ActionStopped
)

// SelectionResult holds the result of a TUI selection.
type SelectionResult struct {
	Action    SelectionAction
	Selection *metadata.Record
}

type recordItem struct {
	rec *metadata.Record
}

func (i recordItem) Title() string {
	return i.rec.Title
}

func (i recordItem) FilterValue() string {
	return i.rec.Title
}

func (i recordItem) Description() string {
	return strings.Join(i.rec.Authors, ", ")
}

type itemStyles struct {
	normal        lipgloss.Style
	selected      lipgloss.Style
	titleStyle    lipgloss.Style
	authorStyle   lipgloss.Style
	metadataStyle lipgloss.Style
}

func newItemStyles() itemStyles {
	asciiBorder := lipgloss.Border{
		Top:         "-",
		Bottom:      "-",
		Left:        "|",
		Right:       "|",
		TopLeft:     "+",
		TopRight:    "+",
		BottomLeft:  "+",
		BottomRight: "+",
	}

	container := lipgloss.NewStyle().
		Border(asciiBorder).
		BorderForeground(lipgloss.Color("62")).
		Padding(0, 1).
		Foreground(lipgloss.Color("252"))

	selected := container.Copy().
		BorderForeground(lipgloss.Color("214")).
		Foreground(lipgloss.Color("230")).
		Background(lipgloss.Color("237"))

	return itemStyles{
		normal:   container,
		selected: selected,
		titleStyle: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("254")),
		authorStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("178")),
		metadataStyle: lipgloss.NewStyle().
			Foreground(lipgloss.Color("247")).
			Faint(true),
	}
}

type recordDelegate struct {
	styles itemStyles
}

func newDelegate() recordDelegate {
	return recordDelegate{styles: newItemStyles()}
}

func (d recordDelegate) Height() int                         { return 4 }
func (d recordDelegate) Spacing() int                        { return 1 }
func (d recordDelegate) Update(tea.Msg, *list.Model) tea.Cmd { return nil }

func (d recordDelegate) Render(w io.Writer, m list.Model, idx int, item list.Item) {
	ri, ok := item.(recordItem)
	if !ok {
		return
	}

	titleLine := d.styles.titleStyle.Render(ri.rec.Title)
	authorLine := d.styles.authorStyle.Render(strings.Join(ri.rec.Authors, ", "))
	metadataLine := d.styles.metadataStyle.Render(formatMetadata(ri.rec, m.Width()-4))

	content := lipgloss.JoinVertical(lipgloss.Left, titleLine, authorLine, metadataLine)

	container := d.styles.normal
	if idx == m.Index() {
		container = d.styles.selected
	}
	_, _ = fmt.Fprint(w, container.Render(content))
}

type model struct {
	list        list.Model
	searchTitle string
	result      SelectionResult
}

func newModel(title string, items []recordItem) *model {
	listItems := make([]list.Item, len(items))
	for i, item := range items {
		listItems[i] = item
	}

	delegate := newDelegate()
	l := list.New(listItems, delegate, defaultListWidth, defaultListHeight)
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	l.SetShowHelp(false)
	l.SetShowTitle(false)
	l.SetShowPagination(false)
	l.DisableQuitKeybindings()
	l.Styles.NoItems = lipgloss.NewStyle()

	return &model{
		list:        l,
		searchTitle: title,
		result: SelectionResult{
			Action: ActionNone,
		},
	}
}

func (m *model) Init() tea.Cmd { return nil }

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "enter":
			if selected, ok := m.list.SelectedItem().(recordItem); ok {
				m.result = SelectionResult{
					Action:    ActionSelected,
					Selection: selected.rec,
				}
				return m, tea.Quit
			}
		case "s", "esc":
			m.result = SelectionResult{Action: ActionSkipped}
			return m, tea.Quit
		case "ctrl+c", "q":
			m.result = SelectionResult{Action: ActionStopped}
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		width := clamp(defaultListWidth, msg.Width-4, 40)
		height := clamp(defaultListHeight, msg.Height-6, 5)
		m.list.SetSize(width, height)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m *model) View() string {
	header := headerStyle.Render(fmt.Sprintf("Multiple results found for: %s", m.searchTitle))
	listView := m.list.View()
	help := helpStyle.Render("Up/Down navigate | Enter select | s skip | q quit")
	return lipgloss.JoinVertical(lipgloss.Left, header, listView, help)
}

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("214")).
			MarginBottom(1)

	helpStyle = lipgloss.NewStyle().
			MarginTop(1).
			Foreground(lipgloss.Color("244"))
)

// Select presents an interactive picker over fetched metadata records,
// ordered as given (callers pass them relevance-sorted).
func Select(title string, records []*metadata.Record) (SelectionResult, error) {
	if len(records) == 0 {
		return SelectionResult{Action: ActionSkipped}, nil
	}

	items := make([]recordItem, len(records))
	for i, rec := range records {
		items[i] = recordItem{rec: rec}
	}
	m := newModel(title, items)
	finalModel, err := runProgram(m)
	if err != nil {
		return SelectionResult{}, err
	}

	if typed, ok := finalModel.(*model); ok {
		return typed.result, nil
	}

	return SelectionResult{}, fmt.Errorf("unexpected program result")
}

// formatMetadata builds the publisher/year/ISBN summary line.
func formatMetadata(rec *metadata.Record, availableWidth int) string {
	var parts []string

	if rec.Publisher != "" {
		parts = append(parts, rec.Publisher)
	}
	if rec.PubDate != nil {
		parts = append(parts, fmt.Sprintf("%d", rec.PubDate.Year()))
	}
	if rec.ISBN != "" {
		parts = append(parts, "ISBN "+rec.ISBN)
	}
	if rec.Series != "" {
		parts = append(parts, rec.Series)
	}

	if len(parts) == 0 {
		return "No metadata available"
	}

	line := strings.Join(parts, " | ")
	if availableWidth > 0 && len(line) > availableWidth {
		line = truncate(line, availableWidth)
	}
	return line
}

func truncate(value string, width int) string {
	value = strings.Join(strings.Fields(value), " ")
	if width <= 0 || len(value) <= width {
		return value
	}
	if width <= 3 {
		return value[:width]
	}
	return value[:width-3] + "..."
}

func clamp(defaultValue, available, minimum int) int {
	width := defaultValue
	if available > 0 && available < defaultValue {
		width = available
	}
	if width < minimum {
		width = minimum
	}
	return width
}
