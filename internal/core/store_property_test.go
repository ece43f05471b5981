package core

import (
	"testing"

	"github.com/valter-silva-au/todo-nexus/pkg/models"
	"pgregory.net/rapid"
)

func priorityGenerator() *rapid.Generator[models.Priority] {
	return rapid.SampledFrom(models.Priorities)
}

func taskTextGenerator() *rapid.Generator[string] {
	return rapid.StringMatching(`[ ]{0,2}[A-Za-z][A-Za-z ]{0,15}`)
}

// pickID draws an ID from the store, or a stale ID that was never issued.
func pickID(rt *rapid.T, s TaskStore) string {
	tasks := s.Tasks()
	if len(tasks) == 0 || rapid.IntRange(0, 9).Draw(rt, "stale") == 0 {
		return "TASK-99999"
	}
	return tasks[rapid.IntRange(0, len(tasks)-1).Draw(rt, "idx")].ID
}

func checkStoreInvariants(rt *rapid.T, s TaskStore) {
	seen := make(map[string]bool)
	for _, task := range s.Tasks() {
		if (task.CompletedAt != nil) != task.Completed {
			rt.Fatalf("task %s: completed=%v but CompletedAt=%v", task.ID, task.Completed, task.CompletedAt)
		}
		if seen[task.ID] {
			rt.Fatalf("duplicate ID %s", task.ID)
		}
		seen[task.ID] = true
		if task.Text == "" || task.Text != trimmed(task.Text) {
			rt.Fatalf("task %s has untrimmed or empty text %q", task.ID, task.Text)
		}
	}
}

func trimmed(s string) string {
	start, end := 0, len(s)
	for start < end && s[start] == ' ' {
		start++
	}
	for end > start && s[end-1] == ' ' {
		end--
	}
	return s[start:end]
}

// Property: for every operation sequence, IDs are unique, text is non-blank
// and CompletedAt is present exactly when the task is completed.
func TestProperty_StoreInvariantsHoldAfterEveryMutation(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		s := NewTaskStore(StoreOptions{Clock: newStepClock()})

		rt.Repeat(map[string]func(*rapid.T){
			"add": func(rt *rapid.T) {
				s.Add(taskTextGenerator().Draw(rt, "text"), priorityGenerator().Draw(rt, "priority"))
			},
			"addBlank": func(rt *rapid.T) {
				before := len(s.Tasks())
				s.Add(rapid.StringMatching(`[ \t]{0,4}`).Draw(rt, "blank"), models.PriorityMedium)
				if after := len(s.Tasks()); after != before {
					rt.Fatalf("blank add changed length %d -> %d", before, after)
				}
			},
			"toggleComplete": func(rt *rapid.T) { s.ToggleComplete(pickID(rt, s)) },
			"toggleStar":     func(rt *rapid.T) { s.ToggleStar(pickID(rt, s)) },
			"remove":         func(rt *rapid.T) { s.Remove(pickID(rt, s)) },
			"archive":        func(rt *rapid.T) { s.ArchiveCompleted() },
			"edit": func(rt *rapid.T) {
				id := pickID(rt, s)
				s.BeginEdit(id, "")
				s.SetEditDraft(rapid.StringMatching(`[ ]{0,2}[A-Za-z ]{0,10}`).Draw(rt, "draft"))
				if rapid.Bool().Draw(rt, "commit") {
					s.CommitEdit(id)
				} else {
					s.CancelEdit()
				}
			},
			"": func(rt *rapid.T) { checkStoreInvariants(rt, s) },
		})
	})
}

// Property: ToggleComplete is its own inverse.
func TestProperty_ToggleCompleteInvolution(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		s := NewTaskStore(StoreOptions{Clock: newStepClock()})
		task, _ := s.Add(taskTextGenerator().Draw(rt, "text"), priorityGenerator().Draw(rt, "priority"))
		if rapid.Bool().Draw(rt, "startCompleted") {
			s.ToggleComplete(task.ID)
		}

		before, _ := s.Get(task.ID)
		s.ToggleComplete(task.ID)
		s.ToggleComplete(task.ID)
		after, _ := s.Get(task.ID)

		if before.Completed != after.Completed {
			rt.Fatalf("completed %v -> %v", before.Completed, after.Completed)
		}
		if before.Completed && !before.CompletedAt.IsZero() && after.CompletedAt == nil {
			rt.Fatal("CompletedAt lost after double toggle")
		}
		if !before.Completed && after.CompletedAt != nil {
			rt.Fatalf("CompletedAt should be absent, got %v", after.CompletedAt)
		}
	})
}

// Property: archiving removes every completed task and keeps active tasks in
// their original relative order.
func TestProperty_ArchivePreservesActiveOrder(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		s := NewTaskStore(StoreOptions{Clock: newStepClock()})
		n := rapid.IntRange(0, 12).Draw(rt, "n")
		for i := 0; i < n; i++ {
			task, _ := s.Add(taskTextGenerator().Draw(rt, "text"), priorityGenerator().Draw(rt, "priority"))
			if rapid.Bool().Draw(rt, "complete") {
				s.ToggleComplete(task.ID)
			}
		}

		var wantActive []string
		for _, task := range s.Tasks() {
			if !task.Completed {
				wantActive = append(wantActive, task.ID)
			}
		}

		s.ArchiveCompleted()

		after := s.Tasks()
		if len(after) != len(wantActive) {
			rt.Fatalf("after archive %d tasks, want %d", len(after), len(wantActive))
		}
		for i, task := range after {
			if task.Completed {
				rt.Fatalf("completed task %s survived archive", task.ID)
			}
			if task.ID != wantActive[i] {
				rt.Fatalf("position %d: got %s, want %s", i, task.ID, wantActive[i])
			}
		}
	})
}
