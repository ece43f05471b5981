package observability

import (
	"fmt"
	"time"
)

// Metrics holds calculated metrics derived from the event log.
type Metrics struct {
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
	OldestEvent     *time.Time     `json:"oldest_event,omitempty"`
	NewestEvent     *time.Time     `json:"newest_event,omitempty"`
}

// MetricsCalculator derives metrics from the event log.
type MetricsCalculator interface {
	Calculate(since time.Time) (*Metrics, error)
}

// metricsCalculator implements MetricsCalculator by reading from an EventLog.
type metricsCalculator struct {
	eventLog EventLog
}

// NewMetricsCalculator creates a new MetricsCalculator that reads from the given EventLog.
func NewMetricsCalculator(eventLog EventLog) MetricsCalculator {
	return &metricsCalculator{eventLog: eventLog}
}

// Calculate reads all events since the given time and aggregates them into metrics.
func (mc *metricsCalculator) Calculate(since time.Time) (*Metrics, error) {
	events, err := mc.eventLog.Read(EventFilter{Since: &since})
	if err != nil {
		return nil, fmt.Errorf("reading events for metrics: %w", err)
	}

	m := &Metrics{
		AddedByPriority: make(map[string]int),
	}

	m.EventCount = len(events)

	for _, event := range events {
		t := event.Time
		if m.OldestEvent == nil || t.Before(*m.OldestEvent) {
			oldest := t
			m.OldestEvent = &oldest
		}
		if m.NewestEvent == nil || t.After(*m.NewestEvent) {
			newest := t
			m.NewestEvent = &newest
		}

		switch event.Type {
		case "task.added":
			m.TasksAdded++
			if p, ok := event.Data["priority"].(string); ok {
				m.AddedByPriority[p]++
			}
		case "task.add_rejected":
			m.RejectedAdds++
		case "task.completed":
			m.TasksCompleted++
		case "task.reopened":
			m.TasksReopened++
		case "task.removed":
			m.TasksRemoved++
		case "task.archived":
			m.TasksArchived += intFromData(event.Data["count"])
		case "task.edited":
			m.TasksEdited++
		case "task.starred":
			m.TasksStarred++
		}
	}

	return m, nil
}

// intFromData reads a count that may have been decoded from JSON as float64.
func intFromData(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case float64:
		return int(n)
	default:
		return 0
	}
}
