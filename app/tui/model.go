// Package tui is an interactive terminal view of the task tree.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"zodo/app/models"
	"zodo/app/services"
)

type mode int

const (
	modeBrowse mode = iota
	modeAdd
	modeRename
	modeConfirmRemove
)

// Model is the bubbletea model. Every edit goes through the service, so the
// store sees the same writes as from the CLI.
type Model struct {
	ctx context.Context
	svc *services.TaskService

	rows   []Row
	cursor int
	mode   mode
	input  textinput.Model
	status string
	err    error
	width  int
}

// New builds a model over svc and loads the first frame.
func New(ctx context.Context, svc *services.TaskService) Model {
	ti := textinput.New()
	ti.Placeholder = "task name"
	ti.CharLimit = 256
	ti.Width = 40

	m := Model{ctx: ctx, svc: svc, input: ti}
	m.refresh("")
	return m
}

// Run starts the program and blocks until the user quits.
func Run(ctx context.Context, svc *services.TaskService) error {
	_, err := tea.NewProgram(New(ctx, svc), tea.WithContext(ctx)).Run()
	return err
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil
	case tea.KeyMsg:
		switch m.mode {
		case modeAdd, modeRename:
			return m.updateInput(msg)
		case modeConfirmRemove:
			return m.updateConfirm(msg)
		default:
			return m.updateBrowse(msg)
		}
	}
	return m, nil
}

func (m Model) updateBrowse(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.err = nil
	m.status = ""
	switch msg.String() {
	case "q", "esc", "ctrl+c":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.rows)-1 {
			m.cursor++
		}
	case " ":
		if cur, ok := m.current(); ok {
			_, err := m.svc.ToggleShow(m.ctx, cur.ID)
			m.after(cur.ID, err, "")
		}
	case "d":
		if cur, ok := m.current(); ok {
			_, err := m.svc.ToggleDone(m.ctx, cur.ID)
			m.after(cur.ID, err, "")
		}
	case "a":
		if _, ok := m.current(); ok {
			m.mode = modeAdd
			m.input.SetValue("")
			m.input.Focus()
			return m, textinput.Blink
		}
	case "e":
		if cur, ok := m.current(); ok {
			m.mode = modeRename
			m.input.SetValue(cur.Name)
			m.input.CursorEnd()
			m.input.Focus()
			return m, textinput.Blink
		}
	case "x":
		if _, ok := m.current(); ok {
			m.mode = modeConfirmRemove
		}
	}
	return m, nil
}

func (m Model) updateInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.mode = modeBrowse
		m.input.Blur()
		return m, nil
	case tea.KeyEnter:
		cur, _ := m.current()
		text := strings.TrimSpace(m.input.Value())
		m.input.Blur()
		if m.mode == modeAdd {
			v, err := m.svc.Add(m.ctx, cur.ID, text)
			m.mode = modeBrowse
			if err == nil {
				// Expand so the new task is visible.
				_, err = m.svc.SetShow(m.ctx, cur.ID, true)
			}
			m.after(v.ID, err, fmt.Sprintf("added %q", v.Name))
			return m, nil
		}
		m.mode = modeBrowse
		if text == "" {
			return m, nil
		}
		_, err := m.svc.Rename(m.ctx, cur.ID, text)
		m.after(cur.ID, err, "renamed")
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	m.mode = modeBrowse
	if msg.String() != "y" && msg.String() != "Y" {
		m.status = "kept"
		return m, nil
	}
	cur, _ := m.current()
	removed, err := m.svc.Remove(m.ctx, cur.ID)
	if err == nil && !removed {
		m.status = "kept"
		return m, nil
	}
	m.after("", err, fmt.Sprintf("removed %q", cur.Name))
	return m, nil
}

func (m Model) current() (models.TaskView, bool) {
	if m.cursor < 0 || m.cursor >= len(m.rows) {
		return models.TaskView{}, false
	}
	return m.rows[m.cursor].View, true
}

// after records the outcome of an edit and reloads the rows, keeping the
// cursor on focus when it is still visible.
func (m *Model) after(focus string, err error, status string) {
	if err != nil {
		m.err = err
		m.refresh("")
		return
	}
	m.status = status
	m.refresh(focus)
}

func (m *Model) refresh(focus string) {
	if focus == "" {
		if cur, ok := m.current(); ok {
			focus = cur.ID
		}
	}
	root, err := m.svc.View(m.ctx, "0")
	if err != nil {
		m.err = err
		return
	}
	m.rows = VisibleRows(root, false)
	for i, r := range m.rows {
		if r.View.ID == focus {
			m.cursor = i
			return
		}
	}
	if m.cursor >= len(m.rows) {
		m.cursor = len(m.rows) - 1
	}
}

func (m Model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(" zodo "))
	b.WriteString("\n\n")

	for i, r := range m.rows {
		if i == m.cursor {
			b.WriteString(cursorStyle.Render("> "))
		} else {
			b.WriteString("  ")
		}
		b.WriteString(RenderRow(r))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	cur, _ := m.current()
	switch m.mode {
	case modeAdd:
		b.WriteString(fmt.Sprintf("new task under %q: %s\n", cur.Name, m.input.View()))
	case modeRename:
		b.WriteString(fmt.Sprintf("rename %q: %s\n", cur.Name, m.input.View()))
	case modeConfirmRemove:
		b.WriteString(fmt.Sprintf("remove %q? (y/n)\n", cur.Name))
	default:
		if m.err != nil {
			b.WriteString(errorStyle.Render("error: " + m.err.Error()))
			b.WriteString("\n")
		} else if m.status != "" {
			b.WriteString(m.status + "\n")
		}
		b.WriteString(helpStyle.Render("↑/↓: move | space: expand/collapse | d: done | a: add | e: rename | x: remove | q: quit"))
	}
	return b.String()
}
