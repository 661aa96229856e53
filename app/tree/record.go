package tree

import "zodo/app/models"

// Export converts t and its subtree to a record.
func Export(t *Task) models.Record {
	rec := models.Record{
		Name:     t.name,
		Children: make([]models.Record, 0, len(t.children)),
		Done:     t.done,
		Show:     t.show,
	}
	for _, c := range t.children {
		rec.Children = append(rec.Children, Export(c))
	}
	return rec
}

// View builds the presentation read model for t's subtree.
func View(t *Task) models.TaskView {
	v := models.TaskView{
		ID:       t.id,
		Path:     t.Path(),
		Name:     t.name,
		Done:     t.done,
		Show:     t.show,
		Progress: t.Progress(),
		Children: make([]models.TaskView, 0, len(t.children)),
	}
	for _, c := range t.children {
		v.Children = append(v.Children, View(c))
	}
	return v
}

// Import rebuilds rec as a new subtree under parent (the root when nil).
// Notification is held back until the whole subtree is in place.
func (tr *Tree) Import(rec models.Record, parent *Task) (*Task, error) {
	if parent == nil {
		parent = tr.root
	}
	if err := tr.owns("parent", parent); err != nil {
		return nil, err
	}
	prev := tr.persist
	tr.persist = false
	t, err := tr.build(rec, parent)
	tr.persist = prev
	if err != nil {
		return nil, err
	}
	return t, tr.settle(parent)
}

// FromRecord creates a tree whose root is rebuilt from rec.
func FromRecord(rec models.Record) (*Tree, error) {
	tr := &Tree{}
	tr.root = newTask(tr, rec.Name)
	if err := tr.fill(tr.root, rec); err != nil {
		return nil, err
	}
	tr.persist = true
	return tr, nil
}

func (tr *Tree) build(rec models.Record, parent *Task) (*Task, error) {
	t := newTask(tr, rec.Name)
	tr.attach(t, parent)
	return t, tr.fill(t, rec)
}

// fill attaches rec's children to t, then replays done and show so both
// setters see the final child set.
func (tr *Tree) fill(t *Task, rec models.Record) error {
	for _, c := range rec.Children {
		if _, err := tr.build(c, t); err != nil {
			return err
		}
	}
	if err := tr.SetDone(t, rec.Done); err != nil {
		return err
	}
	return tr.SetShow(t, rec.Show)
}
