package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"zodo/app/models"
	"zodo/app/store"
	"zodo/app/tree"
)

// ErrNotFound is returned when a ref matches no task.
var ErrNotFound = errors.New("task not found")

// Options tune a TaskService. Zero values get defaults.
type Options struct {
	Prompter Prompter
	Logger   *log.Logger
	Timeout  time.Duration
	RootName string
}

// TaskService owns the task tree for one session and writes every settled
// change through to the store. Calls are serialized, so one service can back
// concurrent HTTP or MCP requests.
type TaskService struct {
	mu       sync.Mutex
	store    store.Store
	prompt   Prompter
	log      *log.Logger
	timeout  time.Duration
	rootName string

	tree *tree.Tree
	// ctx is the context of the call currently holding mu.
	ctx context.Context
}

// NewTaskService creates a new instance of TaskService. Call Open before use.
func NewTaskService(st store.Store, opts Options) *TaskService {
	if opts.Prompter == nil {
		opts.Prompter = StaticPrompter{Yes: true}
	}
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Second
	}
	return &TaskService{
		store:    st,
		prompt:   opts.Prompter,
		log:      opts.Logger,
		timeout:  opts.Timeout,
		rootName: opts.RootName,
	}
}

// Open loads the saved tree, or starts an empty one when the slot is empty.
// Nothing is written back while loading.
func (s *TaskService) Open(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	loadCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	rec, err := s.store.Load(loadCtx)
	if err != nil {
		s.log.Error("loading tree failed", "err", err)
		return fmt.Errorf("loading tree: %w", err)
	}

	var tr *tree.Tree
	if rec == nil {
		tr = tree.New(s.rootName)
		s.log.Debug("starting empty tree", "root", tr.Root().Name())
	} else {
		tr, err = tree.FromRecord(*rec)
		if err != nil {
			return fmt.Errorf("rebuilding tree: %w", err)
		}
		s.log.Debug("tree loaded", "tasks", rec.Count())
	}
	s.install(tr, true)
	return nil
}

// Close releases the store.
func (s *TaskService) Close(ctx context.Context) error {
	return s.store.Close(ctx)
}

func (s *TaskService) install(tr *tree.Tree, persist bool) {
	tr.SetPersister(tree.PersistFunc(s.persist))
	tr.SetPersistence(persist)
	s.tree = tr
}

func (s *TaskService) persist(root *tree.Task) error {
	ctx := s.ctx
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if err := s.store.Save(ctx, tree.Export(root)); err != nil {
		s.log.Error("saving tree failed", "err", err)
		return fmt.Errorf("saving tree: %w", err)
	}
	s.log.Debug("tree saved")
	return nil
}

// with runs fn while holding the session lock.
func (s *TaskService) with(ctx context.Context, fn func(tr *tree.Tree) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tree == nil {
		return errors.New("task service not opened")
	}
	s.ctx = ctx
	defer func() { s.ctx = nil }()
	return fn(s.tree)
}

// resolve finds the task for ref: "0" or "" is the root, dotted 1-based
// paths walk children, anything else is matched against task ids.
func (s *TaskService) resolve(ref string) (*tree.Task, error) {
	ref = strings.TrimSpace(ref)
	if t, ok := s.tree.Root().At(ref); ok {
		return t, nil
	}
	if t, ok := s.tree.Find(ref); ok {
		return t, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrNotFound, ref)
}

// Persistent reports whether changes are currently written through.
func (s *TaskService) Persistent() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tree != nil && s.tree.Persistent()
}

// SetPersistence turns write-through on or off for this session.
func (s *TaskService) SetPersistence(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tree != nil {
		s.tree.SetPersistence(on)
	}
}

// View returns the read model of the task at ref.
func (s *TaskService) View(ctx context.Context, ref string) (models.TaskView, error) {
	var v models.TaskView
	err := s.with(ctx, func(tr *tree.Tree) error {
		t, err := s.resolve(ref)
		if err != nil {
			return err
		}
		v = tree.View(t)
		return nil
	})
	return v, err
}

// Add creates a child of the task at parentRef. name is coerced to a string.
func (s *TaskService) Add(ctx context.Context, parentRef string, name any) (models.TaskView, error) {
	var v models.TaskView
	err := s.with(ctx, func(tr *tree.Tree) error {
		parent, err := s.resolve(parentRef)
		if err != nil {
			return err
		}
		t, err := tr.Add(tree.NameOf(name), parent)
		if err != nil {
			return err
		}
		s.log.Debug("task added", "path", t.Path(), "name", t.Name())
		v = tree.View(t)
		return nil
	})
	return v, err
}

// AddPrompted asks for the new task's name. A cancelled prompt adds nothing
// and returns nil.
func (s *TaskService) AddPrompted(ctx context.Context, parentRef string) (*models.TaskView, error) {
	name, ok := s.prompt.AskText("new task name:", "")
	if !ok {
		return nil, nil
	}
	v, err := s.Add(ctx, parentRef, name)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

// Rename gives the task at ref a new name.
func (s *TaskService) Rename(ctx context.Context, ref string, name any) (models.TaskView, error) {
	var v models.TaskView
	err := s.with(ctx, func(tr *tree.Tree) error {
		t, err := s.resolve(ref)
		if err != nil {
			return err
		}
		old := t.Name()
		if err := tr.Rename(t, tree.NameOf(name)); err != nil {
			return err
		}
		s.log.Debug("task renamed", "path", t.Path(), "from", old, "to", t.Name())
		v = tree.View(t)
		return nil
	})
	return v, err
}

// RenamePrompted asks for a new name. An empty or cancelled answer keeps the
// current one.
func (s *TaskService) RenamePrompted(ctx context.Context, ref string) (models.TaskView, error) {
	current, err := s.View(ctx, ref)
	if err != nil {
		return models.TaskView{}, err
	}
	name, ok := s.prompt.AskText("task name:", current.Name)
	if !ok || name == "" {
		return current, nil
	}
	return s.Rename(ctx, ref, name)
}

// SetDone sets the completion flag. value must be a bool.
func (s *TaskService) SetDone(ctx context.Context, ref string, value any) (models.TaskView, error) {
	done, err := tree.AsBool("done", value)
	if err != nil {
		return models.TaskView{}, err
	}
	return s.update(ctx, ref, "done", func(tr *tree.Tree, t *tree.Task) error {
		return tr.SetDone(t, done)
	})
}

// ToggleDone flips the completion flag.
func (s *TaskService) ToggleDone(ctx context.Context, ref string) (models.TaskView, error) {
	return s.update(ctx, ref, "done", func(tr *tree.Tree, t *tree.Task) error {
		return tr.SetDone(t, !t.Done())
	})
}

// SetShow expands or collapses the task. value must be a bool.
func (s *TaskService) SetShow(ctx context.Context, ref string, value any) (models.TaskView, error) {
	show, err := tree.AsBool("show", value)
	if err != nil {
		return models.TaskView{}, err
	}
	return s.update(ctx, ref, "show", func(tr *tree.Tree, t *tree.Task) error {
		return tr.SetShow(t, show)
	})
}

// ToggleShow flips between expanded and collapsed.
func (s *TaskService) ToggleShow(ctx context.Context, ref string) (models.TaskView, error) {
	return s.update(ctx, ref, "show", func(tr *tree.Tree, t *tree.Task) error {
		return tr.SetShow(t, !t.Show())
	})
}

func (s *TaskService) update(ctx context.Context, ref, field string, fn func(*tree.Tree, *tree.Task) error) (models.TaskView, error) {
	var v models.TaskView
	err := s.with(ctx, func(tr *tree.Tree) error {
		t, err := s.resolve(ref)
		if err != nil {
			return err
		}
		if err := fn(tr, t); err != nil {
			return err
		}
		s.log.Debug("task updated", "path", t.Path(), "field", field, "done", t.Done(), "show", t.Show())
		v = tree.View(t)
		return nil
	})
	return v, err
}

// Update applies name, done and show from fields in one step. Every value is
// checked before the task changes, so a rejected update leaves it untouched,
// and an accepted one is saved once.
func (s *TaskService) Update(ctx context.Context, ref string, fields map[string]any) (models.TaskView, error) {
	var (
		done, show       bool
		hasDone, hasShow bool
		err              error
	)
	if raw, ok := fields["done"]; ok {
		if done, err = tree.AsBool("done", raw); err != nil {
			return models.TaskView{}, err
		}
		hasDone = true
	}
	if raw, ok := fields["show"]; ok {
		if show, err = tree.AsBool("show", raw); err != nil {
			return models.TaskView{}, err
		}
		hasShow = true
	}
	name, hasName := fields["name"]

	var v models.TaskView
	err = s.with(ctx, func(tr *tree.Tree) error {
		t, err := s.resolve(ref)
		if err != nil {
			return err
		}
		persist := tr.Persistent()
		tr.SetPersistence(false)
		err = func() error {
			if hasName {
				if err := tr.Rename(t, tree.NameOf(name)); err != nil {
					return err
				}
			}
			if hasDone {
				if err := tr.SetDone(t, done); err != nil {
					return err
				}
			}
			if hasShow {
				return tr.SetShow(t, show)
			}
			return nil
		}()
		tr.SetPersistence(persist)
		if err != nil {
			return err
		}
		s.log.Debug("task updated", "path", t.Path(), "name", t.Name(), "done", t.Done(), "show", t.Show())
		v = tree.View(t)
		if !persist {
			return nil
		}
		return s.persist(tr.Root())
	})
	return v, err
}

// Move reparents the task at ref under the task at parentRef.
func (s *TaskService) Move(ctx context.Context, ref, parentRef string) (models.TaskView, error) {
	var v models.TaskView
	err := s.with(ctx, func(tr *tree.Tree) error {
		t, err := s.resolve(ref)
		if err != nil {
			return err
		}
		parent, err := s.resolve(parentRef)
		if err != nil {
			return err
		}
		from := t.Path()
		if err := tr.SetParent(t, parent); err != nil {
			return err
		}
		s.log.Debug("task moved", "from", from, "to", t.Path())
		v = tree.View(t)
		return nil
	})
	return v, err
}

// Remove detaches the task at ref after the prompter confirms. It reports
// whether anything was removed.
func (s *TaskService) Remove(ctx context.Context, ref string) (bool, error) {
	current, err := s.View(ctx, ref)
	if err != nil {
		return false, err
	}
	if !s.prompt.Confirm(fmt.Sprintf("remove %q?", current.Name)) {
		return false, nil
	}
	err = s.with(ctx, func(tr *tree.Tree) error {
		t, err := s.resolve(current.ID)
		if err != nil {
			return err
		}
		if err := tr.Remove(t); err != nil {
			return err
		}
		s.log.Debug("task removed", "path", current.Path, "name", current.Name)
		return nil
	})
	return err == nil, err
}

// Export returns the record of the subtree at ref.
func (s *TaskService) Export(ctx context.Context, ref string) (models.Record, error) {
	var rec models.Record
	err := s.with(ctx, func(tr *tree.Tree) error {
		t, err := s.resolve(ref)
		if err != nil {
			return err
		}
		rec = tree.Export(t)
		return nil
	})
	return rec, err
}

// Import rebuilds rec under the task at parentRef.
func (s *TaskService) Import(ctx context.Context, parentRef string, rec models.Record) (models.TaskView, error) {
	var v models.TaskView
	err := s.with(ctx, func(tr *tree.Tree) error {
		parent, err := s.resolve(parentRef)
		if err != nil {
			return err
		}
		t, err := tr.Import(rec, parent)
		if err != nil {
			return err
		}
		s.log.Info("subtree imported", "path", t.Path(), "tasks", rec.Count())
		v = tree.View(t)
		return nil
	})
	return v, err
}

// Replace swaps the whole tree for rec and saves it.
func (s *TaskService) Replace(ctx context.Context, rec models.Record) error {
	next, err := tree.FromRecord(rec)
	if err != nil {
		return err
	}
	return s.with(ctx, func(current *tree.Tree) error {
		persist := current.Persistent()
		s.install(next, persist)
		s.log.Info("tree replaced", "tasks", rec.Count())
		if !persist {
			return nil
		}
		return s.persist(next.Root())
	})
}
