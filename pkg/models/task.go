package models

import (
	"fmt"
	"strings"
	"time"
)

// Priority represents the urgency level of a task.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Priorities lists every priority from most to least urgent.
var Priorities = []Priority{PriorityHigh, PriorityMedium, PriorityLow}

// Rank returns the sort weight of the priority: high=3, medium=2, low=1.
// Unknown priorities rank 0.
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	default:
		return 0
	}
}

// Valid reports whether p is one of the known priorities.
func (p Priority) Valid() bool {
	return p.Rank() > 0
}

// ParsePriority converts user input into a Priority.
func ParsePriority(s string) (Priority, error) {
	p := Priority(strings.ToLower(strings.TrimSpace(s)))
	if !p.Valid() {
		return "", fmt.Errorf("invalid priority %q: must be one of high, medium, low", s)
	}
	return p, nil
}

// DefaultCategory is the category assigned to every new task.
const DefaultCategory = "general"

// Task is a single to-do item. CompletedAt is non-nil exactly when Completed is true.
type Task struct {
	ID          string     `json:"id" yaml:"id"`
	Text        string     `json:"text" yaml:"text"`
	Completed   bool       `json:"completed" yaml:"completed"`
	Priority    Priority   `json:"priority" yaml:"priority"`
	CreatedAt   time.Time  `json:"created_at" yaml:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty" yaml:"completed_at,omitempty"`
	IsStarred   bool       `json:"is_starred" yaml:"is_starred"`
	Category    string     `json:"category" yaml:"category"`
}

// Clone returns a copy of the task that shares no pointers with the original.
func (t Task) Clone() Task {
	if t.CompletedAt != nil {
		at := *t.CompletedAt
		t.CompletedAt = &at
	}
	return t
}

// EditSession tracks the single task currently being text-edited and its
// unsaved draft.
type EditSession struct {
	TaskID string `json:"task_id" yaml:"task_id"`
	Draft  string `json:"draft" yaml:"draft"`
}

// NewTaskDraft is the pending input for the next task to be added.
type NewTaskDraft struct {
	Text     string   `json:"text" yaml:"text"`
	Priority Priority `json:"priority" yaml:"priority"`
}

// Counts holds aggregate counts over the whole task collection.
type Counts struct {
	Total     int `json:"total" yaml:"total"`
	Active    int `json:"active" yaml:"active"`
	Completed int `json:"completed" yaml:"completed"`
	Starred   int `json:"starred" yaml:"starred"`
}
