package tree

import (
	"errors"
	"fmt"
)

var (
	ErrTypeMismatch = errors.New("type mismatch")
	ErrCycle        = errors.New("cycle detected")
)

// Error carries one of the tree error kinds plus detail.
type Error struct {
	Kind error
	Msg  string
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Msg == "" {
		return e.Kind.Error()
	}
	return fmt.Sprintf("%s: %s", e.Kind.Error(), e.Msg)
}

func (e *Error) Unwrap() error { return e.Kind }

func mismatchf(format string, args ...any) error {
	return &Error{Kind: ErrTypeMismatch, Msg: fmt.Sprintf(format, args...)}
}

func cycleError(task, parent *Task) error {
	return &Error{Kind: ErrCycle, Msg: fmt.Sprintf("%q cannot be moved under %q: child cannot contain parent", task.name, parent.name)}
}

// AsBool accepts only a real boolean for a boolean field.
func AsBool(field string, v any) (bool, error) {
	b, ok := v.(bool)
	if !ok {
		return false, mismatchf("%s must be a boolean, got %T", field, v)
	}
	return b, nil
}

// NameOf coerces any value to a task name.
func NameOf(v any) string {
	switch n := v.(type) {
	case nil:
		return ""
	case string:
		return n
	case fmt.Stringer:
		return n.String()
	default:
		return fmt.Sprint(n)
	}
}
