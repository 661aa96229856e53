package controllers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/gorilla/mux"

	"zodo/app/codec"
	"zodo/app/services"
	"zodo/app/tree"
)

// TaskController handles HTTP requests for tasks.
type TaskController struct {
	Service *services.TaskService
	Log     *log.Logger
}

// NewTaskController creates a new TaskController.
func NewTaskController(service *services.TaskService, logger *log.Logger) *TaskController {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &TaskController{Service: service, Log: logger}
}

// GetTree handles GET /tree.
func (c *TaskController) GetTree(w http.ResponseWriter, r *http.Request) {
	root, err := c.Service.View(r.Context(), "0")
	if err != nil {
		c.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, root)
}

// GetTask handles GET /tasks/{ref}.
func (c *TaskController) GetTask(w http.ResponseWriter, r *http.Request) {
	task, err := c.Service.View(r.Context(), mux.Vars(r)["ref"])
	if err != nil {
		c.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

// CreateChild handles POST /tasks/{ref}/children.
func (c *TaskController) CreateChild(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name any `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}

	task, err := c.Service.Add(r.Context(), mux.Vars(r)["ref"], body.Name)
	if err != nil {
		c.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, task)
}

// UpdateTask handles PUT /tasks/{ref}. Only the fields present in the body
// are applied; an invalid field rejects the whole update.
func (c *TaskController) UpdateTask(w http.ResponseWriter, r *http.Request) {
	var updates map[string]any
	if err := json.NewDecoder(r.Body).Decode(&updates); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}

	task, err := c.Service.Update(r.Context(), mux.Vars(r)["ref"], updates)
	if err != nil {
		c.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

// MoveTask handles PUT /tasks/{ref}/parent.
func (c *TaskController) MoveTask(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Parent string `json:"parent"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}

	task, err := c.Service.Move(r.Context(), mux.Vars(r)["ref"], body.Parent)
	if err != nil {
		c.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, task)
}

// DeleteTask handles DELETE /tasks/{ref}.
func (c *TaskController) DeleteTask(w http.ResponseWriter, r *http.Request) {
	if _, err := c.Service.Remove(r.Context(), mux.Vars(r)["ref"]); err != nil {
		c.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Export handles GET /export?format=&ref=.
func (c *TaskController) Export(w http.ResponseWriter, r *http.Request) {
	format, err := codec.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	rec, err := c.Service.Export(r.Context(), r.URL.Query().Get("ref"))
	if err != nil {
		c.fail(w, r, err)
		return
	}
	data, err := codec.Encode(rec, format)
	if err != nil {
		c.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", format.ContentType())
	w.Write(data)
}

// Import handles POST /import?parent=&format=&replace=. The body is a record
// in the given format. With replace=true it becomes the whole tree.
func (c *TaskController) Import(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	format, err := codec.ParseFormat(q.Get("format"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	replace := false
	if s := q.Get("replace"); s != "" {
		if replace, err = strconv.ParseBool(s); err != nil {
			http.Error(w, "replace must be a boolean", http.StatusBadRequest)
			return
		}
	}
	data, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return
	}
	rec, err := codec.Decode(data, format)
	if err != nil {
		c.fail(w, r, err)
		return
	}

	if replace {
		if err := c.Service.Replace(r.Context(), rec); err != nil {
			c.fail(w, r, err)
			return
		}
		root, err := c.Service.View(r.Context(), "0")
		if err != nil {
			c.fail(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, root)
		return
	}

	task, err := c.Service.Import(r.Context(), q.Get("parent"), rec)
	if err != nil {
		c.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, task)
}

// fail maps service errors onto status codes.
func (c *TaskController) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, services.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, tree.ErrTypeMismatch):
		status = http.StatusBadRequest
	case errors.Is(err, tree.ErrCycle):
		status = http.StatusConflict
	}
	if status == http.StatusInternalServerError {
		c.Log.Error("request failed", "method", r.Method, "path", r.URL.Path, "err", err)
	} else {
		c.Log.Debug("request rejected", "method", r.Method, "path", r.URL.Path, "status", status, "err", err)
	}
	http.Error(w, err.Error(), status)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
