package tui

import (
	"context"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"zodo/app/services"
	"zodo/app/store"
)

func newTestModel(t *testing.T, names ...string) (Model, *services.TaskService) {
	t.Helper()
	ctx := context.Background()
	svc := services.NewTaskService(store.NewMemoryStore(), services.Options{RootName: "root"})
	if err := svc.Open(ctx); err != nil {
		t.Fatal(err)
	}
	for _, n := range names {
		if _, err := svc.Add(ctx, "0", n); err != nil {
			t.Fatal(err)
		}
	}
	return New(ctx, svc), svc
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEscape}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "space":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(m Model, keys ...string) Model {
	for _, k := range keys {
		updated, _ := m.Update(key(k))
		m = updated.(Model)
	}
	return m
}

func typeText(m Model, text string) Model {
	for _, r := range text {
		updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
		m = updated.(Model)
	}
	return m
}

func TestModel_InitialRows(t *testing.T) {
	m, _ := newTestModel(t, "a", "b")
	if len(m.rows) != 3 {
		t.Fatalf("rows = %d, want 3", len(m.rows))
	}
	if m.rows[0].View.Name != "root" || m.rows[2].Depth != 1 {
		t.Errorf("rows = %+v", m.rows)
	}
	if !strings.Contains(m.View(), "[ ] a") {
		t.Errorf("view missing task a:\n%s", m.View())
	}
}

func TestModel_Quit(t *testing.T) {
	m, _ := newTestModel(t)
	_, cmd := m.Update(key("q"))
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected tea.QuitMsg")
	}
}

func TestModel_ToggleDoneCascades(t *testing.T) {
	m, svc := newTestModel(t, "a")
	m = press(m, "down", "d")
	root, _ := svc.View(context.Background(), "0")
	if !root.Children[0].Done || !root.Done {
		t.Errorf("root = %+v", root)
	}
	if m.cursor != 1 {
		t.Errorf("cursor moved to %d", m.cursor)
	}
}

func TestModel_CollapseHidesChildren(t *testing.T) {
	m, _ := newTestModel(t, "a", "b")
	m = press(m, "space")
	if len(m.rows) != 1 {
		t.Fatalf("rows after collapse = %d, want 1", len(m.rows))
	}
	if !strings.Contains(m.View(), "+2 hidden") {
		t.Errorf("collapsed marker missing:\n%s", m.View())
	}
	m = press(m, "space")
	if len(m.rows) != 3 {
		t.Errorf("rows after expand = %d, want 3", len(m.rows))
	}
}

func TestModel_AddChild(t *testing.T) {
	m, svc := newTestModel(t, "a")
	m = press(m, "down", "a")
	if m.mode != modeAdd {
		t.Fatal("not in add mode")
	}
	m = typeText(m, "child")
	m = press(m, "enter")

	v, err := svc.View(context.Background(), "1.1")
	if err != nil || v.Name != "child" {
		t.Fatalf("child = %+v, %v", v, err)
	}
	cur, _ := m.current()
	if cur.ID != v.ID {
		t.Errorf("cursor on %q, want the new task", cur.Name)
	}
}

func TestModel_AddEmptyUsesDefaultName(t *testing.T) {
	m, svc := newTestModel(t)
	m = press(m, "a", "enter")
	v, err := svc.View(context.Background(), "1")
	if err != nil || v.Name != "task" {
		t.Errorf("added = %+v, %v", v, err)
	}
}

func TestModel_RenameAndCancel(t *testing.T) {
	m, svc := newTestModel(t, "a")
	m = press(m, "down", "e")
	if m.input.Value() != "a" {
		t.Errorf("rename input = %q, want current name", m.input.Value())
	}
	m = typeText(m, "bc")
	m = press(m, "enter")
	v, _ := svc.View(context.Background(), "1")
	if v.Name != "abc" {
		t.Errorf("name = %q, want abc", v.Name)
	}

	m = press(m, "e")
	m = typeText(m, "zzz")
	m = press(m, "esc")
	v, _ = svc.View(context.Background(), "1")
	if v.Name != "abc" || m.mode != modeBrowse {
		t.Errorf("cancelled rename changed name to %q", v.Name)
	}
}

func TestModel_RemoveConfirm(t *testing.T) {
	m, svc := newTestModel(t, "a", "b")
	m = press(m, "down", "x", "n")
	root, _ := svc.View(context.Background(), "0")
	if len(root.Children) != 2 {
		t.Fatal("declined remove removed the task")
	}

	m = press(m, "x")
	if !strings.Contains(m.View(), `remove "a"? (y/n)`) {
		t.Errorf("confirm prompt missing:\n%s", m.View())
	}
	m = press(m, "y")
	root, _ = svc.View(context.Background(), "0")
	if len(root.Children) != 1 || root.Children[0].Name != "b" {
		t.Errorf("children = %+v", root.Children)
	}
	if len(m.rows) != 2 {
		t.Errorf("rows = %d, want 2", len(m.rows))
	}
}

func TestRenderTree(t *testing.T) {
	_, svc := newTestModel(t, "a")
	ctx := context.Background()
	svc.Add(ctx, "1", "a1")
	svc.Add(ctx, "1", "a2")
	svc.SetDone(ctx, "1.1", true)
	svc.SetShow(ctx, "1", false)

	root, _ := svc.View(ctx, "0")
	out := RenderTree(root, false)
	if strings.Contains(out, "a1") {
		t.Errorf("collapsed children rendered:\n%s", out)
	}
	if !strings.Contains(out, "50%") {
		t.Errorf("percent missing:\n%s", out)
	}
	all := RenderTree(root, true)
	if !strings.Contains(all, "[x] a1") {
		t.Errorf("--all output missing done child:\n%s", all)
	}
}
