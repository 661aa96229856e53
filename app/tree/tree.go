package tree

// RootName names the root of a fresh tree.
const RootName = "root"

// Persister receives the tree root after every settled mutation.
type Persister interface {
	Persist(root *Task) error
}

// PersistFunc adapts a function to Persister.
type PersistFunc func(root *Task) error

func (f PersistFunc) Persist(root *Task) error { return f(root) }

// Tree owns a single root task and enforces the structural invariants.
// It is not safe for concurrent use.
type Tree struct {
	root      *Task
	persist   bool
	persister Persister
}

// New creates a tree holding only a root task.
func New(rootName string) *Tree {
	if rootName == "" {
		rootName = RootName
	}
	tr := &Tree{persist: true}
	tr.root = newTask(tr, rootName)
	return tr
}

func (tr *Tree) Root() *Task { return tr.root }

// SetPersister installs the collaborator notified after mutations.
func (tr *Tree) SetPersister(p Persister) { tr.persister = p }

// SetPersistence turns write-through notification on or off.
func (tr *Tree) SetPersistence(on bool) { tr.persist = on }

func (tr *Tree) Persistent() bool { return tr.persist }

// Find looks up an attached task by id.
func (tr *Tree) Find(id string) (*Task, bool) {
	var found *Task
	tr.root.Walk(func(t *Task) bool {
		if found != nil {
			return false
		}
		if t.id == id {
			found = t
			return false
		}
		return true
	})
	return found, found != nil
}

// Add creates a task named name under parent, or under the root when parent
// is nil.
func (tr *Tree) Add(name string, parent *Task) (*Task, error) {
	if parent == nil {
		parent = tr.root
	}
	if err := tr.owns("parent", parent); err != nil {
		return nil, err
	}
	if name == "" {
		name = DefaultName
	}
	child := newTask(tr, name)
	tr.attach(child, parent)
	return child, tr.settle(parent)
}

// SetParent moves t under parent. A nil parent detaches t.
func (tr *Tree) SetParent(t, parent *Task) error {
	if err := tr.owns("task", t); err != nil {
		return err
	}
	if parent != nil {
		if err := tr.owns("parent", parent); err != nil {
			return err
		}
		if t.Contains(parent) {
			return cycleError(t, parent)
		}
	}
	old := t.parent
	if old != nil {
		old.removeChild(t)
		t.parent = nil
	}
	if parent != nil {
		tr.attach(t, parent)
	}
	return tr.settle(old, parent)
}

// SetDone sets t's completion flag. For a task with children the flag is
// derived, so the requested value gives way to progress == 1.
func (tr *Tree) SetDone(t *Task, done bool) error {
	if err := tr.owns("task", t); err != nil {
		return err
	}
	t.done = done
	return tr.settle(t)
}

// SetShow expands or collapses t. Childless tasks stay expanded.
func (tr *Tree) SetShow(t *Task, show bool) error {
	if err := tr.owns("task", t); err != nil {
		return err
	}
	if len(t.children) == 0 {
		show = true
	}
	t.show = show
	return tr.settle(t)
}

// Rename assigns a new name to t.
func (tr *Tree) Rename(t *Task, name string) error {
	if err := tr.owns("task", t); err != nil {
		return err
	}
	t.name = name
	return tr.settle(t)
}

// Remove detaches t from its parent; t keeps its own subtree. Removing the
// root detaches every child of the root.
func (tr *Tree) Remove(t *Task) error {
	if err := tr.owns("task", t); err != nil {
		return err
	}
	if t.parent != nil {
		return tr.SetParent(t, nil)
	}
	if t != tr.root {
		return nil
	}
	for _, c := range t.children {
		c.parent = nil
	}
	t.children = nil
	return tr.settle(t)
}

func (tr *Tree) owns(field string, t *Task) error {
	if t == nil || t.tree != tr {
		return mismatchf("%s must be a task of this tree", field)
	}
	return nil
}

func (tr *Tree) attach(child, parent *Task) {
	parent.appendChild(child)
	child.parent = parent
}

// settle recomputes derived state from every touched task up to its top and
// then notifies the persister.
func (tr *Tree) settle(touched ...*Task) error {
	for _, t := range touched {
		for c := t; c != nil; c = c.parent {
			c.normalize()
		}
	}
	return tr.notify()
}

func (t *Task) normalize() {
	if len(t.children) == 0 {
		t.show = true
		return
	}
	t.done = t.Progress() == 1
}

func (tr *Tree) notify() error {
	if !tr.persist || tr.persister == nil {
		return nil
	}
	return tr.persister.Persist(tr.root)
}
