package models

// Record is the persisted form of a task and its subtree.
type Record struct {
	Name     string   `json:"name" yaml:"name" toml:"name"`
	Children []Record `json:"children" yaml:"children" toml:"children"`
	Done     bool     `json:"done" yaml:"done" toml:"done"`
	Show     bool     `json:"show" yaml:"show" toml:"show"`
}

// TaskView is the read model handed to presentation layers.
type TaskView struct {
	ID       string     `json:"id"`
	Path     string     `json:"path"`
	Name     string     `json:"name"`
	Done     bool       `json:"done"`
	Show     bool       `json:"show"`
	Progress float64    `json:"progress"`
	Children []TaskView `json:"children"`
}

// Count returns the number of records in the subtree, r included.
func (r Record) Count() int {
	n := 1
	for _, c := range r.Children {
		n += c.Count()
	}
	return n
}
