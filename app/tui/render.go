package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"zodo/app/models"
)

// Style definitions.
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("230")).
			Background(lipgloss.Color("62")).
			Padding(0, 1)

	cursorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("62")).Bold(true)
	doneStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("46"))
	pendingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	percentStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	pathStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	helpStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// Row is one visible line of the tree.
type Row struct {
	View  models.TaskView
	Depth int
}

// VisibleRows lists v depth first. Children of collapsed tasks are skipped
// unless all is set.
func VisibleRows(v models.TaskView, all bool) []Row {
	var rows []Row
	var walk func(v models.TaskView, depth int)
	walk = func(v models.TaskView, depth int) {
		rows = append(rows, Row{View: v, Depth: depth})
		if !v.Show && !all {
			return
		}
		for _, c := range v.Children {
			walk(c, depth+1)
		}
	}
	walk(v, 0)
	return rows
}

// Percent rounds progress to a whole percentage.
func Percent(progress float64) int {
	return int(progress*100 + 0.5)
}

// RenderRow formats one row without cursor decoration.
func RenderRow(r Row) string {
	v := r.View
	var b strings.Builder
	b.WriteString(strings.Repeat("  ", r.Depth))

	switch {
	case len(v.Children) == 0:
		b.WriteString("  ")
	case v.Show:
		b.WriteString("▾ ")
	default:
		b.WriteString("▸ ")
	}

	if v.Done {
		b.WriteString(doneStyle.Render("[x] " + v.Name))
	} else {
		b.WriteString(pendingStyle.Render("[ ] " + v.Name))
	}
	if len(v.Children) > 0 {
		b.WriteString(" ")
		b.WriteString(percentStyle.Render(fmt.Sprintf("%d%%", Percent(v.Progress))))
		if !v.Show {
			b.WriteString(percentStyle.Render(fmt.Sprintf(" (+%d hidden)", len(v.Children))))
		}
	}
	b.WriteString(" ")
	b.WriteString(pathStyle.Render(v.Path))
	return b.String()
}

// RenderTree renders every visible row of v, one per line.
func RenderTree(v models.TaskView, all bool) string {
	var b strings.Builder
	for _, r := range VisibleRows(v, all) {
		b.WriteString(RenderRow(r))
		b.WriteString("\n")
	}
	return b.String()
}
