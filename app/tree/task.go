// Package tree holds the task tree: parent/child relations, cascading
// completion and the record round-trip used for persistence.
package tree

import (
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// DefaultName is used when Add is given an empty name.
const DefaultName = "task"

// Task is a node of a Tree. The parent link is navigational only; children
// are owned through the child list.
type Task struct {
	id       string
	name     string
	done     bool
	show     bool
	parent   *Task
	children []*Task
	tree     *Tree
}

func newTask(tr *Tree, name string) *Task {
	return &Task{
		id:   uuid.New().String(),
		name: name,
		show: true,
		tree: tr,
	}
}

func (t *Task) ID() string    { return t.id }
func (t *Task) Name() string  { return t.name }
func (t *Task) Done() bool    { return t.done }
func (t *Task) Show() bool    { return t.show }
func (t *Task) Parent() *Task { return t.parent }

// Children returns a copy of the child list.
func (t *Task) Children() []*Task {
	out := make([]*Task, len(t.children))
	copy(out, t.children)
	return out
}

// Len returns the number of immediate children.
func (t *Task) Len() int { return len(t.children) }

// Progress is the fraction of immediate children that are done or fully
// complete. A task without children has progress 0.
func (t *Task) Progress() float64 {
	total := len(t.children)
	if total == 0 {
		return 0
	}
	done := 0
	for _, c := range t.children {
		if c.done || c.Progress() == 1 {
			done++
		}
	}
	return float64(done) / float64(total)
}

// Percent is Progress rounded to a whole percentage.
func (t *Task) Percent() int {
	return int(t.Progress()*100 + 0.5)
}

// Contains reports whether candidate is t or lives in t's subtree.
func (t *Task) Contains(candidate *Task) bool {
	if candidate == nil {
		return false
	}
	if candidate == t {
		return true
	}
	for _, c := range t.children {
		if c.Contains(candidate) {
			return true
		}
	}
	return false
}

// Root walks parent links up to the top of t's subtree.
func (t *Task) Root() *Task {
	r := t
	for r.parent != nil {
		r = r.parent
	}
	return r
}

// Depth is the number of ancestors of t.
func (t *Task) Depth() int {
	d := 0
	for p := t.parent; p != nil; p = p.parent {
		d++
	}
	return d
}

// Path returns the 1-based dotted child index path from the top of t's
// subtree; the top itself is "0".
func (t *Task) Path() string {
	var parts []string
	for c := t; c.parent != nil; c = c.parent {
		parts = append(parts, strconv.Itoa(c.parent.indexOf(c)+1))
	}
	if len(parts) == 0 {
		return "0"
	}
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	return strings.Join(parts, ".")
}

// At resolves a path relative to t. "0" and "" resolve to t.
func (t *Task) At(path string) (*Task, bool) {
	if path == "" || path == "0" {
		return t, true
	}
	cur := t
	for _, part := range strings.Split(path, ".") {
		i, err := strconv.Atoi(part)
		if err != nil || i < 1 || i > len(cur.children) {
			return nil, false
		}
		cur = cur.children[i-1]
	}
	return cur, true
}

// Walk visits t and its descendants depth-first, parents before children.
// Returning false from fn skips the node's children.
func (t *Task) Walk(fn func(*Task) bool) {
	if !fn(t) {
		return
	}
	for _, c := range t.children {
		c.Walk(fn)
	}
}

func (t *Task) indexOf(child *Task) int {
	for i, c := range t.children {
		if c == child {
			return i
		}
	}
	return -1
}

func (t *Task) removeChild(child *Task) {
	i := t.indexOf(child)
	if i == -1 {
		return
	}
	t.children = append(t.children[:i], t.children[i+1:]...)
}

func (t *Task) appendChild(child *Task) {
	t.children = append(t.children, child)
}
