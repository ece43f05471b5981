package cli

import (
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/valter-silva-au/todo-nexus/internal/core"
	"github.com/valter-silva-au/todo-nexus/pkg/models"
)

// uiMode selects which input, if any, receives keystrokes.
type uiMode int

const (
	modeList uiMode = iota
	modeAdd
	modeSearch
	modeEdit
)

// inputCharLimit caps the length of new task, search and edit input.
const inputCharLimit = 256

type taskListModel struct {
	store  core.TaskStore
	mode   uiMode
	cursor int
	input  textinput.Model

	width  int
	height int

	status string
}

// Style definitions.
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("230")).
			Background(lipgloss.Color("62")).
			Padding(0, 1)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("62"))

	cursorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("212")).Bold(true)
	completedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Strikethrough(true)
	starStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	timestampStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("243"))
	statusStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("46"))

	priorityHigh   = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	priorityMedium = lipgloss.NewStyle().Foreground(lipgloss.Color("226"))
	priorityLow    = lipgloss.NewStyle().Foreground(lipgloss.Color("69"))

	helpStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

func newTaskListModel(store core.TaskStore) taskListModel {
	ti := textinput.New()
	ti.CharLimit = inputCharLimit
	ti.Width = 50

	return taskListModel{
		store: store,
		mode:  modeList,
		input: ti,
	}
}

func (m taskListModel) Init() tea.Cmd {
	return nil
}

func (m taskListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		switch m.mode {
		case modeAdd:
			return m.updateAdd(msg)
		case modeSearch:
			return m.updateSearch(msg)
		case modeEdit:
			return m.updateEdit(msg)
		}
		return m.updateList(msg)
	}

	return m, nil
}

func (m taskListModel) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.status = ""

	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "j", "down":
		m.cursor++
	case "k", "up":
		m.cursor--
	case "n":
		m.mode = modeAdd
		return m, m.openInput("New task: ", m.store.NewTaskDraft().Text, "What needs doing?")
	case "p":
		m.store.SetNewTaskPriority(cycle(models.Priorities, m.store.NewTaskDraft().Priority))
	case "/":
		m.mode = modeSearch
		return m, m.openInput("Search: ", m.store.Settings().Search, "")
	case "f":
		m.store.SetFilter(cycle(models.FilterModes, m.store.Settings().Filter))
		m.cursor = 0
	case "o":
		m.store.SetSort(cycle(models.SortModes, m.store.Settings().Sort))
	case " ", "x":
		if task, ok := m.selected(); ok {
			m.store.ToggleComplete(task.ID)
		}
	case "s":
		if task, ok := m.selected(); ok {
			m.store.ToggleStar(task.ID)
		}
	case "d":
		if task, ok := m.selected(); ok && m.store.Remove(task.ID) {
			m.status = fmt.Sprintf("Deleted %s", task.ID)
		}
	case "e":
		if task, ok := m.selected(); ok && m.store.BeginEdit(task.ID, task.Text) {
			m.mode = modeEdit
			return m, m.openInput("Edit: ", task.Text, "")
		}
	case "A":
		if n := m.store.ArchiveCompleted(); n > 0 {
			m.status = fmt.Sprintf("Archived %d completed task(s)", n)
		}
	case "esc":
		m.store.SetSearch("")
	}

	m.clampCursor()
	return m, nil
}

func (m taskListModel) updateAdd(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		if task, ok := m.store.SubmitNewTask(); ok {
			m.status = fmt.Sprintf("Added %s", task.ID)
			m.closeInput()
		}
		return m, nil
	case "tab":
		m.store.SetNewTaskPriority(cycle(models.Priorities, m.store.NewTaskDraft().Priority))
		return m, nil
	case "esc":
		m.closeInput()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	m.store.SetNewTaskText(m.input.Value())
	return m, cmd
}

func (m taskListModel) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.closeInput()
		return m, nil
	case "esc":
		m.store.SetSearch("")
		m.closeInput()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	m.store.SetSearch(m.input.Value())
	m.clampCursor()
	return m, cmd
}

func (m taskListModel) updateEdit(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		if session, ok := m.store.EditSession(); ok && m.store.CommitEdit(session.TaskID) {
			m.status = fmt.Sprintf("Updated %s", session.TaskID)
		}
		m.closeInput()
		return m, nil
	case "esc":
		m.store.CancelEdit()
		m.closeInput()
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	m.store.SetEditDraft(m.input.Value())
	return m, cmd
}

func (m *taskListModel) openInput(prompt, value, placeholder string) tea.Cmd {
	m.input.Prompt = prompt
	m.input.Placeholder = placeholder
	m.input.SetValue(value)
	m.input.CursorEnd()
	return m.input.Focus()
}

func (m *taskListModel) closeInput() {
	m.mode = modeList
	m.input.Blur()
	m.input.Reset()
	m.clampCursor()
}

func (m *taskListModel) clampCursor() {
	n := len(m.store.View())
	if m.cursor >= n {
		m.cursor = n - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

// selected returns the task under the cursor in the current projection.
func (m taskListModel) selected() (models.Task, bool) {
	view := m.store.View()
	if m.cursor < 0 || m.cursor >= len(view) {
		return models.Task{}, false
	}
	return view[m.cursor], true
}

// cycle returns the value after cur, wrapping around. Unknown values restart
// at the first element.
func cycle[T comparable](values []T, cur T) T {
	i := slices.Index(values, cur)
	return values[(i+1)%len(values)]
}

func (m taskListModel) View() string {
	var b strings.Builder

	counts := m.store.Counts()
	settings := m.store.Settings()

	b.WriteString(titleStyle.Render(" Todo Nexus "))
	b.WriteString("\n\n")
	b.WriteString(headerStyle.Render(fmt.Sprintf("%d total  %d active  %d completed  %d starred",
		counts.Total, counts.Active, counts.Completed, counts.Starred)))
	b.WriteString("\n")

	line := fmt.Sprintf("Filter: %s  Sort: %s  New task priority: %s",
		settings.Filter, settings.Sort, m.store.NewTaskDraft().Priority)
	if settings.Search != "" {
		line += fmt.Sprintf("  Search: %q", settings.Search)
	}
	b.WriteString(helpStyle.Render(line))
	b.WriteString("\n\n")

	view := m.store.View()
	if len(view) == 0 {
		if counts.Total == 0 {
			b.WriteString("  No tasks yet. Press n to add one.\n")
		} else {
			b.WriteString("  No tasks match the current filter.\n")
		}
	}
	for i, task := range view {
		b.WriteString(m.renderRow(i, task))
		b.WriteString("\n")
	}

	if m.mode != modeList {
		b.WriteString("\n")
		b.WriteString(m.input.View())
		b.WriteString("\n")
	}

	if m.status != "" {
		b.WriteString("\n")
		b.WriteString(statusStyle.Render(m.status))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(helpStyle.Render(m.helpLine()))
	return b.String()
}

func (m taskListModel) renderRow(i int, task models.Task) string {
	pointer := "  "
	if i == m.cursor && m.mode != modeAdd {
		pointer = cursorStyle.Render("> ")
	}

	star := " "
	if task.IsStarred {
		star = starStyle.Render("*")
	}

	text := task.Text
	if task.Completed {
		text = completedStyle.Render(text)
	}

	return fmt.Sprintf("%s%s %s %s %s  %s",
		pointer,
		checkbox(task),
		star,
		styleForPriority(task.Priority).Render(fmt.Sprintf("%-6s", task.Priority)),
		text,
		timestampStyle.Render(timestamps(task)),
	)
}

func (m taskListModel) helpLine() string {
	switch m.mode {
	case modeAdd:
		return "enter: add | tab: priority | esc: cancel"
	case modeSearch:
		return "enter: keep search | esc: clear search"
	case modeEdit:
		return "enter: save | esc: cancel"
	}
	return "n: new | e: edit | space: done | s: star | d: delete | A: archive done | f: filter | o: sort | /: search | p: priority | q: quit"
}

func styleForPriority(p models.Priority) lipgloss.Style {
	switch p {
	case models.PriorityHigh:
		return priorityHigh
	case models.PriorityMedium:
		return priorityMedium
	case models.PriorityLow:
		return priorityLow
	default:
		return lipgloss.NewStyle()
	}
}

var uiCmd = &cobra.Command{
	Use:   "ui",
	Short: "Open the interactive task list",
	Long: `Open the interactive terminal task list. Tasks live only as long as the
session: quitting discards them.

Keys: n new task, e edit, space/x complete, s star, d delete, A archive
completed, f filter, o sort, / search, p new task priority, j/k move, q quit.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := newSessionStore()
		if err != nil {
			return err
		}
		p := tea.NewProgram(newTaskListModel(store), tea.WithAltScreen())
		_, err = p.Run()
		return err
	},
}

func init() {
	rootCmd.AddCommand(uiCmd)
}
