// Package mcp provides an MCP (Model Context Protocol) server that exposes
// a session task list as MCP tools for AI assistants.
package mcp

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	gomcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/valter-silva-au/todo-nexus/internal/core"
	"github.com/valter-silva-au/todo-nexus/internal/observability"
	"github.com/valter-silva-au/todo-nexus/pkg/models"
)

// Server wraps a task store and exposes it as MCP tools.
type Server struct {
	server      *gomcp.Server
	store       core.TaskStore
	collator    *core.Collator
	metricsCalc observability.MetricsCalculator

	// editMu keeps the begin/draft/commit sequence of edit_task from
	// interleaving with another edit.
	editMu sync.Mutex
}

// NewServer creates a new MCP server over the given store. collator and
// metricsCalc may be nil.
func NewServer(store core.TaskStore, collator *core.Collator, metricsCalc observability.MetricsCalculator, version string) *Server {
	if version == "" {
		version = "dev"
	}

	s := &Server{
		store:       store,
		collator:    collator,
		metricsCalc: metricsCalc,
	}

	s.server = gomcp.NewServer(
		&gomcp.Implementation{Name: "nexus", Version: version},
		nil,
	)

	s.registerTools()

	return s
}

// Run starts the MCP server on stdio, blocking until the client disconnects
// or the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &gomcp.StdioTransport{})
}

// MCPServer returns the underlying mcp.Server for testing purposes.
func (s *Server) MCPServer() *gomcp.Server {
	return s.server
}

// --- Tool input/output types ---

type taskOutput struct {
	ID          string `json:"id"`
	Text        string `json:"text"`
	Completed   bool   `json:"completed"`
	Priority    string `json:"priority"`
	Starred     bool   `json:"starred"`
	Category    string `json:"category"`
	CreatedAt   string `json:"created_at"`
	CompletedAt string `json:"completed_at,omitempty"`
}

type addTaskInput struct {
	Text     string `json:"text" jsonschema:"the task text; surrounding whitespace is trimmed"`
	Priority string `json:"priority,omitempty" jsonschema:"task priority (high, medium, low). Defaults to the new task priority of the session."`
}

type taskIDInput struct {
	TaskID string `json:"task_id" jsonschema:"the task identifier (e.g. TASK-00001)"`
}

type removeTaskOutput struct {
	Message string `json:"message"`
}

type archiveCompletedInput struct{}

type archiveCompletedOutput struct {
	Archived int `json:"archived"`
}

type editTaskInput struct {
	TaskID string `json:"task_id" jsonschema:"the task identifier (e.g. TASK-00001)"`
	Text   string `json:"text" jsonschema:"the replacement task text"`
}

type editTaskOutput struct {
	Task    taskOutput `json:"task"`
	Changed bool       `json:"changed"`
}

type listTasksInput struct {
	Filter string `json:"filter,omitempty" jsonschema:"show all, active, completed or starred tasks. Defaults to the session filter."`
	Search string `json:"search,omitempty" jsonschema:"case-insensitive substring the task text must contain"`
	Sort   string `json:"sort,omitempty" jsonschema:"order by newest, oldest, priority or alphabetical. Defaults to the session sort."`
}

type listTasksOutput struct {
	Tasks  []taskOutput  `json:"tasks"`
	Count  int           `json:"count"`
	Counts models.Counts `json:"counts"`
}

type getCountsInput struct{}

type getMetricsInput struct {
	Since string `json:"since,omitempty" jsonschema:"time window for metrics (e.g. 7d, 30d, 24h). Defaults to 7d."`
}

type metricsOutput struct {
	TasksAdded      int            `json:"tasks_added"`
	TasksCompleted  int            `json:"tasks_completed"`
	TasksReopened   int            `json:"tasks_reopened"`
	TasksRemoved    int            `json:"tasks_removed"`
	TasksArchived   int            `json:"tasks_archived"`
	TasksEdited     int            `json:"tasks_edited"`
	TasksStarred    int            `json:"tasks_starred"`
	RejectedAdds    int            `json:"rejected_adds"`
	AddedByPriority map[string]int `json:"added_by_priority"`
	EventCount      int            `json:"event_count"`
	OldestEvent     string         `json:"oldest_event,omitempty"`
	NewestEvent     string         `json:"newest_event,omitempty"`
}

// --- Tool registration ---

func (s *Server) registerTools() {
	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "add_task",
		Description: "Add a task to the top of the list. Blank text or an unknown priority is rejected.",
	}, s.handleAddTask)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "toggle_complete",
		Description: "Mark an active task completed, or reopen a completed task.",
	}, s.handleToggleComplete)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "toggle_star",
		Description: "Star or unstar a task.",
	}, s.handleToggleStar)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "remove_task",
		Description: "Delete a task by ID.",
	}, s.handleRemoveTask)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "archive_completed",
		Description: "Remove every completed task. Returns how many were removed.",
	}, s.handleArchiveCompleted)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "edit_task",
		Description: "Replace a task's text. Blank text is rejected; identical text leaves the task unchanged.",
	}, s.handleEditTask)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "list_tasks",
		Description: "List tasks with optional filter, search and sort. Counts always cover the whole list.",
	}, s.handleListTasks)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "get_counts",
		Description: "Get total, active, completed and starred task counts.",
	}, s.handleGetCounts)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "get_metrics",
		Description: "Get aggregated metrics from the event log, including tasks added, completed and archived.",
	}, s.handleGetMetrics)
}

// --- Tool handlers ---

func (s *Server) handleAddTask(_ context.Context, _ *gomcp.CallToolRequest, input addTaskInput) (*gomcp.CallToolResult, taskOutput, error) {
	if strings.TrimSpace(input.Text) == "" {
		return errorResult("text must not be blank"), taskOutput{}, nil
	}

	priority := s.store.NewTaskDraft().Priority
	if input.Priority != "" {
		p, err := models.ParsePriority(input.Priority)
		if err != nil {
			return errorResult(err.Error()), taskOutput{}, nil
		}
		priority = p
	}

	task, ok := s.store.Add(input.Text, priority)
	if !ok {
		return errorResult("adding task failed"), taskOutput{}, nil
	}
	return nil, taskToOutput(task), nil
}

func (s *Server) handleToggleComplete(_ context.Context, _ *gomcp.CallToolRequest, input taskIDInput) (*gomcp.CallToolResult, taskOutput, error) {
	return s.applyToTask(input.TaskID, s.store.ToggleComplete)
}

func (s *Server) handleToggleStar(_ context.Context, _ *gomcp.CallToolRequest, input taskIDInput) (*gomcp.CallToolResult, taskOutput, error) {
	return s.applyToTask(input.TaskID, s.store.ToggleStar)
}

// applyToTask runs a toggle against id and returns the updated task.
func (s *Server) applyToTask(id string, apply func(string) bool) (*gomcp.CallToolResult, taskOutput, error) {
	if id == "" {
		return errorResult("task_id is required"), taskOutput{}, nil
	}
	if !apply(id) {
		return errorResult(fmt.Sprintf("task %s not found", id)), taskOutput{}, nil
	}
	task, ok := s.store.Get(id)
	if !ok {
		return errorResult(fmt.Sprintf("task %s not found", id)), taskOutput{}, nil
	}
	return nil, taskToOutput(task), nil
}

func (s *Server) handleRemoveTask(_ context.Context, _ *gomcp.CallToolRequest, input taskIDInput) (*gomcp.CallToolResult, removeTaskOutput, error) {
	if input.TaskID == "" {
		return errorResult("task_id is required"), removeTaskOutput{}, nil
	}
	if !s.store.Remove(input.TaskID) {
		return errorResult(fmt.Sprintf("task %s not found", input.TaskID)), removeTaskOutput{}, nil
	}
	return nil, removeTaskOutput{Message: fmt.Sprintf("task %s removed", input.TaskID)}, nil
}

func (s *Server) handleArchiveCompleted(_ context.Context, _ *gomcp.CallToolRequest, _ archiveCompletedInput) (*gomcp.CallToolResult, archiveCompletedOutput, error) {
	return nil, archiveCompletedOutput{Archived: s.store.ArchiveCompleted()}, nil
}

func (s *Server) handleEditTask(_ context.Context, _ *gomcp.CallToolRequest, input editTaskInput) (*gomcp.CallToolResult, editTaskOutput, error) {
	if input.TaskID == "" {
		return errorResult("task_id is required"), editTaskOutput{}, nil
	}
	if strings.TrimSpace(input.Text) == "" {
		return errorResult("text must not be blank"), editTaskOutput{}, nil
	}

	s.editMu.Lock()
	defer s.editMu.Unlock()

	task, ok := s.store.Get(input.TaskID)
	if !ok || !s.store.BeginEdit(input.TaskID, task.Text) {
		return errorResult(fmt.Sprintf("task %s not found", input.TaskID)), editTaskOutput{}, nil
	}
	s.store.SetEditDraft(input.Text)
	changed := s.store.CommitEdit(input.TaskID)

	updated, ok := s.store.Get(input.TaskID)
	if !ok {
		return errorResult(fmt.Sprintf("task %s not found", input.TaskID)), editTaskOutput{}, nil
	}
	return nil, editTaskOutput{Task: taskToOutput(updated), Changed: changed}, nil
}

func (s *Server) handleListTasks(_ context.Context, _ *gomcp.CallToolRequest, input listTasksInput) (*gomcp.CallToolResult, listTasksOutput, error) {
	settings := s.store.Settings()

	if input.Filter != "" {
		f, err := models.ParseFilterMode(input.Filter)
		if err != nil {
			return errorResult(err.Error()), emptyListOutput(), nil
		}
		settings.Filter = f
	}
	if input.Sort != "" {
		sm, err := models.ParseSortMode(input.Sort)
		if err != nil {
			return errorResult(err.Error()), emptyListOutput(), nil
		}
		settings.Sort = sm
	}
	if input.Search != "" {
		settings.Search = input.Search
	}

	// Project over a snapshot so overrides never touch the session settings.
	tasks := s.store.Tasks()
	view := core.Project(tasks, settings, s.collator)

	out := listTasksOutput{
		Tasks:  make([]taskOutput, len(view)),
		Count:  len(view),
		Counts: core.Aggregate(tasks),
	}
	for i, t := range view {
		out.Tasks[i] = taskToOutput(t)
	}

	return nil, out, nil
}

func (s *Server) handleGetCounts(_ context.Context, _ *gomcp.CallToolRequest, _ getCountsInput) (*gomcp.CallToolResult, models.Counts, error) {
	return nil, s.store.Counts(), nil
}

func (s *Server) handleGetMetrics(_ context.Context, _ *gomcp.CallToolRequest, input getMetricsInput) (*gomcp.CallToolResult, metricsOutput, error) {
	if s.metricsCalc == nil {
		return errorResult("metrics calculator not available (event log may be disabled)"), emptyMetricsOutput(), nil
	}

	sinceStr := input.Since
	if sinceStr == "" {
		sinceStr = "7d"
	}

	sinceTime, err := parseSince(sinceStr)
	if err != nil {
		return errorResult(fmt.Sprintf("parsing since duration: %s", err)), emptyMetricsOutput(), nil
	}

	metrics, err := s.metricsCalc.Calculate(sinceTime)
	if err != nil {
		return errorResult(fmt.Sprintf("calculating metrics: %s", err)), emptyMetricsOutput(), nil
	}

	out := metricsOutput{
		TasksAdded:      metrics.TasksAdded,
		TasksCompleted:  metrics.TasksCompleted,
		TasksReopened:   metrics.TasksReopened,
		TasksRemoved:    metrics.TasksRemoved,
		TasksArchived:   metrics.TasksArchived,
		TasksEdited:     metrics.TasksEdited,
		TasksStarred:    metrics.TasksStarred,
		RejectedAdds:    metrics.RejectedAdds,
		AddedByPriority: metrics.AddedByPriority,
		EventCount:      metrics.EventCount,
	}
	if out.AddedByPriority == nil {
		out.AddedByPriority = make(map[string]int)
	}
	if metrics.OldestEvent != nil {
		out.OldestEvent = metrics.OldestEvent.Format(time.RFC3339)
	}
	if metrics.NewestEvent != nil {
		out.NewestEvent = metrics.NewestEvent.Format(time.RFC3339)
	}

	return nil, out, nil
}

// --- Helpers ---

func taskToOutput(t models.Task) taskOutput {
	out := taskOutput{
		ID:        t.ID,
		Text:      t.Text,
		Completed: t.Completed,
		Priority:  string(t.Priority),
		Starred:   t.IsStarred,
		Category:  t.Category,
		CreatedAt: t.CreatedAt.Format(time.RFC3339),
	}
	if t.CompletedAt != nil {
		out.CompletedAt = t.CompletedAt.Format(time.RFC3339)
	}
	return out
}

func emptyListOutput() listTasksOutput {
	return listTasksOutput{Tasks: []taskOutput{}}
}

func emptyMetricsOutput() metricsOutput {
	return metricsOutput{AddedByPriority: make(map[string]int)}
}

func errorResult(msg string) *gomcp.CallToolResult {
	return &gomcp.CallToolResult{
		Content: []gomcp.Content{&gomcp.TextContent{Text: msg}},
		IsError: true,
	}
}

// parseSince parses a human-friendly duration string like "7d", "30d", or "24h"
// into the corresponding time in the past.
func parseSince(s string) (time.Time, error) {
	now := time.Now().UTC()

	if len(s) < 2 {
		return time.Time{}, fmt.Errorf("invalid duration %q", s)
	}

	suffix := s[len(s)-1]
	numStr := s[:len(s)-1]
	var num int
	if _, err := fmt.Sscanf(numStr, "%d", &num); err != nil {
		return time.Time{}, fmt.Errorf("invalid duration %q: %w", s, err)
	}

	switch suffix {
	case 'd':
		return now.AddDate(0, 0, -num), nil
	case 'h':
		return now.Add(-time.Duration(num) * time.Hour), nil
	default:
		return time.Time{}, fmt.Errorf("unsupported duration suffix %q (use d or h)", string(suffix))
	}
}
