// Package tui renders the task list in the terminal with live
// countdowns. The view is a pure function of the last fetched document
// and the current tick time; user actions go through the API client and
// the screen re-renders from whatever document the server returns.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/taskline-app/taskline/internal/client"
	"github.com/taskline-app/taskline/internal/model"
	"github.com/taskline-app/taskline/internal/view"
)

// Run starts the terminal UI.
func Run(ctx context.Context, cfg Config) error {
	c := client.New(cfg.ServerURL, cfg.CachePath)
	program := tea.NewProgram(newTaskModel(c), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := program.Run()
	return err
}

type taskModel struct {
	client *client.Client

	tasks     []model.Task
	sorted    []model.Task
	now       time.Time
	cursor    int
	offline   bool
	statusMsg string
	fetchErr  error

	adding bool
	input  strings.Builder
}

type tickMsg time.Time

type documentMsg struct {
	tasks     []model.Task
	fromCache bool
}

type opErrMsg struct{ err error }

func newTaskModel(c *client.Client) *taskModel {
	return &taskModel{client: c, now: time.Now()}
}

func (m *taskModel) Init() tea.Cmd {
	return tea.Batch(m.fetchCmd(), tickCmd())
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m *taskModel) fetchCmd() tea.Cmd {
	return func() tea.Msg {
		tasks, fromCache, err := m.client.Fetch(context.Background())
		if err != nil {
			return opErrMsg{err: err}
		}
		return documentMsg{tasks: tasks, fromCache: fromCache}
	}
}

func (m *taskModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.adding {
			return m.updateAdding(msg)
		}
		return m.updateBrowsing(msg)

	case tickMsg:
		// One clock read per tick; every countdown row derives from
		// it so rows never drift apart.
		m.now = time.Time(msg)
		return m, tickCmd()

	case documentMsg:
		m.setDocument(msg.tasks)
		m.offline = msg.fromCache
		m.fetchErr = nil
		if msg.fromCache {
			m.statusMsg = "offline: showing cached tasks"
		} else {
			m.statusMsg = ""
		}
		return m, nil

	case opErrMsg:
		m.fetchErr = msg.err
		m.statusMsg = "request failed: " + msg.err.Error()
		return m, nil
	}

	return m, nil
}

func (m *taskModel) updateBrowsing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.sorted)-1 {
			m.cursor++
		}
	case "r", "f5":
		return m, m.fetchCmd()
	case "a":
		m.adding = true
		m.input.Reset()
	case " ", "enter":
		if task, ok := m.selected(); ok {
			return m, m.mutateCmd(func(ctx context.Context) ([]model.Task, error) {
				return m.client.SetCompleted(ctx, task.ID, !task.Completed)
			})
		}
	case "d":
		if task, ok := m.selected(); ok {
			return m, m.mutateCmd(func(ctx context.Context) ([]model.Task, error) {
				return m.client.DeleteTask(ctx, task.ID)
			})
		}
	}
	return m, nil
}

func (m *taskModel) updateAdding(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.adding = false
	case "enter":
		text := strings.TrimSpace(m.input.String())
		m.adding = false
		if text == "" {
			return m, nil
		}
		return m, m.mutateCmd(func(ctx context.Context) ([]model.Task, error) {
			return m.client.CreateTask(ctx, text, nil)
		})
	case "backspace":
		s := m.input.String()
		if s != "" {
			m.input.Reset()
			m.input.WriteString(s[:len(s)-1])
		}
	default:
		if msg.Type == tea.KeyRunes || msg.Type == tea.KeySpace {
			m.input.WriteString(msg.String())
		}
	}
	return m, nil
}

// mutateCmd runs an API mutation and feeds the returned document back
// into the model, keeping the server authoritative.
func (m *taskModel) mutateCmd(op func(ctx context.Context) ([]model.Task, error)) tea.Cmd {
	return func() tea.Msg {
		tasks, err := op(context.Background())
		if err != nil {
			return opErrMsg{err: err}
		}
		return documentMsg{tasks: tasks}
	}
}

func (m *taskModel) setDocument(tasks []model.Task) {
	m.tasks = tasks
	m.sorted = view.SortForDisplay(tasks)
	if m.cursor >= len(m.sorted) {
		m.cursor = len(m.sorted) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m *taskModel) selected() (model.Task, bool) {
	if m.cursor < 0 || m.cursor >= len(m.sorted) {
		return model.Task{}, false
	}
	return m.sorted[m.cursor], true
}

func (m *taskModel) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("taskline") + "\n\n")

	if m.adding {
		b.WriteString("New task: " + m.input.String() + "▌\n")
		b.WriteString(helpStyle.Render("enter to save, esc to cancel") + "\n")
		return b.String()
	}

	switch {
	case m.fetchErr != nil && m.tasks == nil:
		b.WriteString("Could not load tasks:\n  " + m.fetchErr.Error() + "\n\n")
	case len(m.sorted) == 0:
		b.WriteString("No tasks yet. Press a to add one.\n\n")
	default:
		for i, task := range m.sorted {
			b.WriteString(m.renderTask(task, i == m.cursor))
		}
		b.WriteString("\n")
	}

	if m.statusMsg != "" {
		b.WriteString(statusStyle.Render(m.statusMsg) + "\n")
	}
	b.WriteString(helpStyle.Render("↑/↓ move · space toggle · a add · d delete · r refresh · q quit"))
	return b.String()
}

func (m *taskModel) renderTask(task model.Task, selected bool) string {
	marker := "[ ]"
	if task.Completed {
		marker = "[x]"
	}

	line := fmt.Sprintf("%s %s", marker, task.Text)
	if cd := view.TaskCountdown(task, m.now); cd.Tier != view.TierNone {
		line += "  " + tierStyle(cd.Tier).Render(cd.Label)
	}
	if task.Completed {
		line = doneStyle.Render(line)
	}
	if selected {
		line = cursorStyle.Render("> ") + line
	} else {
		line = "  " + line
	}

	var b strings.Builder
	b.WriteString(line + "\n")
	for _, sub := range task.Subtasks {
		subMarker := "[ ]"
		if sub.Completed {
			subMarker = "[x]"
		}
		subLine := fmt.Sprintf("      %s %s", subMarker, sub.Text)
		if sub.Completed {
			subLine = doneStyle.Render(subLine)
		}
		b.WriteString(subLine + "\n")
	}
	return b.String()
}
