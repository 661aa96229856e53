// Package mcp exposes the task tree as MCP (Model Context Protocol) tools.
package mcp

import (
	"context"
	"errors"
	"fmt"

	gomcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"zodo/app/codec"
	"zodo/app/models"
	"zodo/app/services"
	"zodo/app/tree"
)

// Server wraps a TaskService and exposes it as MCP tools.
type Server struct {
	server *gomcp.Server
	svc    *services.TaskService
}

// NewServer creates a new MCP server backed by svc.
func NewServer(svc *services.TaskService, version string) *Server {
	if version == "" {
		version = "dev"
	}

	s := &Server{svc: svc}
	s.server = gomcp.NewServer(
		&gomcp.Implementation{Name: "zodo", Version: version},
		nil,
	)
	s.registerTools()
	return s
}

// Run serves on stdio until the client disconnects or ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &gomcp.StdioTransport{})
}

// MCPServer returns the underlying mcp.Server for testing purposes.
func (s *Server) MCPServer() *gomcp.Server {
	return s.server
}

// --- Tool input/output types ---

// taskRow is one task in a flattened tree listing.
type taskRow struct {
	ID       string `json:"id"`
	Path     string `json:"path"`
	Depth    int    `json:"depth"`
	Name     string `json:"name"`
	Done     bool   `json:"done"`
	Show     bool   `json:"show"`
	Percent  int    `json:"percent"`
	Children int    `json:"children"`
}

type getTreeInput struct {
	Ref string `json:"ref,omitempty" jsonschema:"task to list from: 0 for the root, a dotted path like 2.1, or a task id. Defaults to the root."`
}

type treeOutput struct {
	Tasks []taskRow `json:"tasks"`
	Count int       `json:"count"`
}

type addTaskInput struct {
	Parent string `json:"parent,omitempty" jsonschema:"parent task ref. Defaults to the root."`
	Name   string `json:"name,omitempty" jsonschema:"name of the new task. Defaults to task."`
}

type renameTaskInput struct {
	Ref  string `json:"ref" jsonschema:"task ref"`
	Name string `json:"name" jsonschema:"new name"`
}

type setFlagInput struct {
	Ref   string `json:"ref" jsonschema:"task ref"`
	Value any    `json:"value" jsonschema:"boolean flag value"`
}

type moveTaskInput struct {
	Ref    string `json:"ref" jsonschema:"task to move"`
	Parent string `json:"parent" jsonschema:"ref of the new parent"`
}

type removeTaskInput struct {
	Ref string `json:"ref" jsonschema:"task to remove. Removing the root clears the tree."`
}

type removeTaskOutput struct {
	Message string `json:"message"`
}

type exportTreeInput struct {
	Ref    string `json:"ref,omitempty" jsonschema:"subtree to export. Defaults to the root."`
	Format string `json:"format,omitempty" jsonschema:"json, yaml or toml. Defaults to json."`
}

type exportTreeOutput struct {
	Format   string `json:"format"`
	Document string `json:"document"`
}

// --- Tool registration ---

func (s *Server) registerTools() {
	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "get_tree",
		Description: "List the task tree depth first with done flags, expansion state and completion percent.",
	}, s.handleGetTree)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "add_task",
		Description: "Add a task as the last child of a parent task.",
	}, s.handleAddTask)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "rename_task",
		Description: "Rename a task.",
	}, s.handleRenameTask)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "set_done",
		Description: "Mark a task done or not done. Parents are completed automatically once all their children are done.",
	}, s.handleSetDone)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "set_show",
		Description: "Expand or collapse a task. Tasks without children always stay expanded.",
	}, s.handleSetShow)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "move_task",
		Description: "Move a task under a new parent. Moving a task under itself or one of its descendants is rejected.",
	}, s.handleMoveTask)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "remove_task",
		Description: "Detach a task and its subtree from the tree.",
	}, s.handleRemoveTask)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "export_tree",
		Description: "Export a subtree as a nested {name, children, done, show} document.",
	}, s.handleExportTree)
}

// --- Tool handlers ---

func (s *Server) handleGetTree(ctx context.Context, _ *gomcp.CallToolRequest, input getTreeInput) (*gomcp.CallToolResult, treeOutput, error) {
	v, err := s.svc.View(ctx, input.Ref)
	if err != nil {
		return errorResult(describe("reading tree", err)), treeOutput{}, nil
	}
	rows := flattenView(v, 0, nil)
	return nil, treeOutput{Tasks: rows, Count: len(rows)}, nil
}

func (s *Server) handleAddTask(ctx context.Context, _ *gomcp.CallToolRequest, input addTaskInput) (*gomcp.CallToolResult, taskRow, error) {
	v, err := s.svc.Add(ctx, input.Parent, input.Name)
	if err != nil {
		return errorResult(describe("adding task", err)), taskRow{}, nil
	}
	return nil, rowOf(v, depthOf(v.Path)), nil
}

func (s *Server) handleRenameTask(ctx context.Context, _ *gomcp.CallToolRequest, input renameTaskInput) (*gomcp.CallToolResult, taskRow, error) {
	if input.Ref == "" {
		return errorResult("ref is required"), taskRow{}, nil
	}
	v, err := s.svc.Rename(ctx, input.Ref, input.Name)
	if err != nil {
		return errorResult(describe("renaming task "+input.Ref, err)), taskRow{}, nil
	}
	return nil, rowOf(v, depthOf(v.Path)), nil
}

func (s *Server) handleSetDone(ctx context.Context, _ *gomcp.CallToolRequest, input setFlagInput) (*gomcp.CallToolResult, taskRow, error) {
	if input.Ref == "" {
		return errorResult("ref is required"), taskRow{}, nil
	}
	v, err := s.svc.SetDone(ctx, input.Ref, input.Value)
	if err != nil {
		return errorResult(describe("updating task "+input.Ref, err)), taskRow{}, nil
	}
	return nil, rowOf(v, depthOf(v.Path)), nil
}

func (s *Server) handleSetShow(ctx context.Context, _ *gomcp.CallToolRequest, input setFlagInput) (*gomcp.CallToolResult, taskRow, error) {
	if input.Ref == "" {
		return errorResult("ref is required"), taskRow{}, nil
	}
	v, err := s.svc.SetShow(ctx, input.Ref, input.Value)
	if err != nil {
		return errorResult(describe("updating task "+input.Ref, err)), taskRow{}, nil
	}
	return nil, rowOf(v, depthOf(v.Path)), nil
}

func (s *Server) handleMoveTask(ctx context.Context, _ *gomcp.CallToolRequest, input moveTaskInput) (*gomcp.CallToolResult, taskRow, error) {
	if input.Ref == "" || input.Parent == "" {
		return errorResult("ref and parent are required"), taskRow{}, nil
	}
	v, err := s.svc.Move(ctx, input.Ref, input.Parent)
	if err != nil {
		return errorResult(describe("moving task "+input.Ref, err)), taskRow{}, nil
	}
	return nil, rowOf(v, depthOf(v.Path)), nil
}

func (s *Server) handleRemoveTask(ctx context.Context, _ *gomcp.CallToolRequest, input removeTaskInput) (*gomcp.CallToolResult, removeTaskOutput, error) {
	if input.Ref == "" {
		return errorResult("ref is required"), removeTaskOutput{}, nil
	}
	removed, err := s.svc.Remove(ctx, input.Ref)
	if err != nil {
		return errorResult(describe("removing task "+input.Ref, err)), removeTaskOutput{}, nil
	}
	if !removed {
		return nil, removeTaskOutput{Message: fmt.Sprintf("task %s kept", input.Ref)}, nil
	}
	return nil, removeTaskOutput{Message: fmt.Sprintf("task %s removed", input.Ref)}, nil
}

func (s *Server) handleExportTree(ctx context.Context, _ *gomcp.CallToolRequest, input exportTreeInput) (*gomcp.CallToolResult, exportTreeOutput, error) {
	format, err := codec.ParseFormat(input.Format)
	if err != nil {
		return errorResult(err.Error()), exportTreeOutput{}, nil
	}
	rec, err := s.svc.Export(ctx, input.Ref)
	if err != nil {
		return errorResult(describe("exporting tree", err)), exportTreeOutput{}, nil
	}
	data, err := codec.Encode(rec, format)
	if err != nil {
		return errorResult(describe("encoding tree", err)), exportTreeOutput{}, nil
	}
	return nil, exportTreeOutput{Format: string(format), Document: string(data)}, nil
}

// --- Helpers ---

func rowOf(v models.TaskView, depth int) taskRow {
	return taskRow{
		ID:       v.ID,
		Path:     v.Path,
		Depth:    depth,
		Name:     v.Name,
		Done:     v.Done,
		Show:     v.Show,
		Percent:  int(v.Progress*100 + 0.5),
		Children: len(v.Children),
	}
}

// flattenView lists v and its descendants depth first.
func flattenView(v models.TaskView, depth int, out []taskRow) []taskRow {
	out = append(out, rowOf(v, depth))
	for _, c := range v.Children {
		out = flattenView(c, depth+1, out)
	}
	return out
}

func depthOf(path string) int {
	if path == "0" || path == "" {
		return 0
	}
	depth := 1
	for _, r := range path {
		if r == '.' {
			depth++
		}
	}
	return depth
}

// describe labels rejected input so clients can tell it apart from failures.
func describe(action string, err error) string {
	switch {
	case errors.Is(err, tree.ErrTypeMismatch):
		return fmt.Sprintf("%s: invalid value: %s", action, err)
	case errors.Is(err, tree.ErrCycle):
		return fmt.Sprintf("%s: would create a cycle: %s", action, err)
	default:
		return fmt.Sprintf("%s: %s", action, err)
	}
}

func errorResult(msg string) *gomcp.CallToolResult {
	return &gomcp.CallToolResult{
		Content: []gomcp.Content{&gomcp.TextContent{Text: msg}},
		IsError: true,
	}
}
