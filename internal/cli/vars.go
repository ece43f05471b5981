package cli

import (
	"fmt"

	"github.com/valter-silva-au/todo-nexus/internal/core"
	"github.com/valter-silva-au/todo-nexus/internal/observability"
)

// Service instances, set during app initialization in app.go.
var (
	// NewStore creates the empty task store backing one session.
	NewStore func() core.TaskStore
	// Collator orders text for the alphabetical sort outside the store.
	Collator *core.Collator

	EventLog    observability.EventLog
	MetricsCalc observability.MetricsCalculator
)

func newSessionStore() (core.TaskStore, error) {
	if NewStore == nil {
		return nil, fmt.Errorf("task store not initialized")
	}
	return NewStore(), nil
}
