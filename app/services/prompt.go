package services

// Prompter asks the user for input on behalf of an operation. Both calls
// block until the user answers.
type Prompter interface {
	// AskText returns the entered text and false when the user cancelled.
	AskText(question, initial string) (string, bool)
	Confirm(question string) bool
}

// StaticPrompter answers every prompt the same way. It serves
// non-interactive callers such as the HTTP API.
type StaticPrompter struct {
	Text   string
	Cancel bool
	Yes    bool
}

func (p StaticPrompter) AskText(_, _ string) (string, bool) {
	if p.Cancel {
		return "", false
	}
	return p.Text, true
}

func (p StaticPrompter) Confirm(string) bool { return p.Yes }
