package core

import (
	"errors"
	"testing"
	"time"

	"github.com/valter-silva-au/todo-nexus/pkg/models"
)

// --- Helpers ---

// stepClock returns a time one minute later on every call.
type stepClock struct {
	now time.Time
}

func newStepClock() *stepClock {
	return &stepClock{now: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *stepClock) Now() time.Time {
	c.now = c.now.Add(time.Minute)
	return c.now
}

type recordingEventLogger struct {
	events []string
	err    error
}

func (r *recordingEventLogger) LogEvent(eventType string, _ map[string]any) error {
	r.events = append(r.events, eventType)
	return r.err
}

type failingIDGen struct{}

func (failingIDGen) GenerateTaskID() (string, error) {
	return "", errors.New("entropy exhausted")
}

func newTestStore(t *testing.T) TaskStore {
	t.Helper()
	return NewTaskStore(StoreOptions{Clock: newStepClock()})
}

func mustAdd(t *testing.T, s TaskStore, text string, p models.Priority) models.Task {
	t.Helper()
	task, ok := s.Add(text, p)
	if !ok {
		t.Fatalf("Add(%q, %s) was rejected", text, p)
	}
	return task
}

func texts(tasks []models.Task) []string {
	out := make([]string, len(tasks))
	for i, t := range tasks {
		out[i] = t.Text
	}
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// --- Add ---

func TestAdd_PrependsTrimmedTask(t *testing.T) {
	s := newTestStore(t)

	first := mustAdd(t, s, "  Buy milk  ", models.PriorityMedium)
	second := mustAdd(t, s, "Call mom", models.PriorityHigh)

	if first.Text != "Buy milk" {
		t.Errorf("Text = %q, want trimmed %q", first.Text, "Buy milk")
	}
	if first.Completed || first.CompletedAt != nil || first.IsStarred {
		t.Errorf("new task should be active, unstarred, without CompletedAt: %+v", first)
	}
	if first.Category != models.DefaultCategory {
		t.Errorf("Category = %q, want %q", first.Category, models.DefaultCategory)
	}
	if first.ID == second.ID {
		t.Fatalf("IDs must be unique, both are %q", first.ID)
	}
	if first.CreatedAt.IsZero() {
		t.Error("CreatedAt must be set")
	}

	got := texts(s.Tasks())
	want := []string{"Call mom", "Buy milk"}
	if !equalStrings(got, want) {
		t.Errorf("raw order = %v, want %v", got, want)
	}
}

func TestAdd_RejectsBlankText(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"empty", ""},
		{"spaces", "   "},
		{"tabs and newlines", "\t\n "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestStore(t)
			mustAdd(t, s, "existing", models.PriorityLow)

			if _, ok := s.Add(tt.text, models.PriorityHigh); ok {
				t.Error("expected Add to be rejected")
			}
			if n := len(s.Tasks()); n != 1 {
				t.Errorf("collection length = %d, want 1", n)
			}
		})
	}
}

func TestAdd_RejectsUnknownPriority(t *testing.T) {
	s := newTestStore(t)
	if _, ok := s.Add("task", models.Priority("urgent")); ok {
		t.Error("expected Add with unknown priority to be rejected")
	}
	if n := len(s.Tasks()); n != 0 {
		t.Errorf("collection length = %d, want 0", n)
	}
}

func TestAdd_IDGeneratorFailureIsNoOp(t *testing.T) {
	events := &recordingEventLogger{}
	s := NewTaskStore(StoreOptions{IDGen: failingIDGen{}, Events: events})

	if _, ok := s.Add("task", models.PriorityLow); ok {
		t.Fatal("expected Add to fail when the ID generator fails")
	}
	if n := len(s.Tasks()); n != 0 {
		t.Errorf("collection length = %d, want 0", n)
	}
	if len(events.events) != 1 || events.events[0] != "task.add_rejected" {
		t.Errorf("events = %v, want [task.add_rejected]", events.events)
	}
}

func TestAdd_UsesConfiguredCategory(t *testing.T) {
	s := NewTaskStore(StoreOptions{Category: "errands"})
	task := mustAdd(t, s, "post letter", models.PriorityLow)
	if task.Category != "errands" {
		t.Errorf("Category = %q, want errands", task.Category)
	}
}

// --- ToggleComplete / ToggleStar ---

func TestToggleComplete_SetsAndClearsCompletedAt(t *testing.T) {
	s := newTestStore(t)
	task := mustAdd(t, s, "write report", models.PriorityHigh)

	if !s.ToggleComplete(task.ID) {
		t.Fatal("ToggleComplete returned false for existing task")
	}
	done, _ := s.Get(task.ID)
	if !done.Completed || done.CompletedAt == nil {
		t.Fatalf("expected completed with CompletedAt, got %+v", done)
	}
	if !done.CompletedAt.After(done.CreatedAt) {
		t.Errorf("CompletedAt %v should be after CreatedAt %v", done.CompletedAt, done.CreatedAt)
	}

	s.ToggleComplete(task.ID)
	reopened, _ := s.Get(task.ID)
	if reopened.Completed || reopened.CompletedAt != nil {
		t.Errorf("expected reopened without CompletedAt, got %+v", reopened)
	}
}

func TestToggleStar_FlipsOnlyStar(t *testing.T) {
	s := newTestStore(t)
	task := mustAdd(t, s, "read book", models.PriorityLow)

	s.ToggleStar(task.ID)
	starred, _ := s.Get(task.ID)
	if !starred.IsStarred {
		t.Fatal("expected task to be starred")
	}
	if starred.Completed {
		t.Error("starring must not complete the task")
	}

	s.ToggleStar(task.ID)
	unstarred, _ := s.Get(task.ID)
	if unstarred.IsStarred {
		t.Error("expected task to be unstarred")
	}
}

func TestMutations_UnknownIDIsNoOp(t *testing.T) {
	s := newTestStore(t)
	task := mustAdd(t, s, "only task", models.PriorityMedium)
	before := s.Tasks()

	if s.ToggleComplete("missing") {
		t.Error("ToggleComplete(missing) should report false")
	}
	if s.ToggleStar("missing") {
		t.Error("ToggleStar(missing) should report false")
	}
	if s.Remove("missing") {
		t.Error("Remove(missing) should report false")
	}
	if s.BeginEdit("missing", "x") {
		t.Error("BeginEdit(missing) should report false")
	}
	if _, open := s.EditSession(); open {
		t.Error("BeginEdit(missing) must not open a session")
	}

	after := s.Tasks()
	if len(after) != 1 || after[0].ID != task.ID || after[0].Completed != before[0].Completed ||
		after[0].IsStarred != before[0].IsStarred || after[0].Text != before[0].Text {
		t.Errorf("collection changed: before %+v, after %+v", before, after)
	}
}

// --- Remove / ArchiveCompleted ---

func TestRemove_DeletesTask(t *testing.T) {
	s := newTestStore(t)
	a := mustAdd(t, s, "a", models.PriorityLow)
	mustAdd(t, s, "b", models.PriorityLow)

	if !s.Remove(a.ID) {
		t.Fatal("Remove returned false")
	}
	if _, ok := s.Get(a.ID); ok {
		t.Error("removed task still present")
	}
	if got := texts(s.Tasks()); !equalStrings(got, []string{"b"}) {
		t.Errorf("tasks = %v, want [b]", got)
	}
}

func TestArchiveCompleted_KeepsActiveInOrder(t *testing.T) {
	s := newTestStore(t)
	a := mustAdd(t, s, "a", models.PriorityLow)
	mustAdd(t, s, "b", models.PriorityLow)
	c := mustAdd(t, s, "c", models.PriorityLow)
	mustAdd(t, s, "d", models.PriorityLow)

	s.ToggleComplete(a.ID)
	s.ToggleComplete(c.ID)

	if n := s.ArchiveCompleted(); n != 2 {
		t.Errorf("ArchiveCompleted = %d, want 2", n)
	}
	if got := texts(s.Tasks()); !equalStrings(got, []string{"d", "b"}) {
		t.Errorf("tasks = %v, want [d b]", got)
	}
	if s.Counts().Completed != 0 {
		t.Error("completed tasks remain after archive")
	}
}

func TestArchiveCompleted_NoneCompleted(t *testing.T) {
	events := &recordingEventLogger{}
	s := NewTaskStore(StoreOptions{Events: events})
	mustAdd(t, s, "a", models.PriorityLow)

	if n := s.ArchiveCompleted(); n != 0 {
		t.Errorf("ArchiveCompleted = %d, want 0", n)
	}
	for _, e := range events.events {
		if e == "task.archived" {
			t.Error("no archive event expected when nothing was archived")
		}
	}
}

// --- Edit session ---

func TestEdit_CommitReplacesTrimmedText(t *testing.T) {
	s := newTestStore(t)
	task := mustAdd(t, s, "draft text", models.PriorityMedium)

	if !s.BeginEdit(task.ID, task.Text) {
		t.Fatal("BeginEdit returned false")
	}
	session, open := s.EditSession()
	if !open || session.TaskID != task.ID || session.Draft != "draft text" {
		t.Fatalf("unexpected session %+v (open=%v)", session, open)
	}

	s.SetEditDraft("  final text ")
	if !s.CommitEdit(task.ID) {
		t.Fatal("CommitEdit returned false")
	}

	got, _ := s.Get(task.ID)
	if got.Text != "final text" {
		t.Errorf("Text = %q, want %q", got.Text, "final text")
	}
	if _, open := s.EditSession(); open {
		t.Error("edit session should be closed after commit")
	}
}

func TestEdit_BlankDraftClosesSessionWithoutChange(t *testing.T) {
	s := newTestStore(t)
	task := mustAdd(t, s, "keep me", models.PriorityMedium)

	s.BeginEdit(task.ID, task.Text)
	s.SetEditDraft("   ")
	if s.CommitEdit(task.ID) {
		t.Error("CommitEdit with blank draft should report false")
	}

	got, _ := s.Get(task.ID)
	if got.Text != "keep me" {
		t.Errorf("Text = %q, want unchanged", got.Text)
	}
	if _, open := s.EditSession(); open {
		t.Error("edit session should be closed even when nothing changed")
	}
}

func TestEdit_CancelLeavesTaskUntouched(t *testing.T) {
	s := newTestStore(t)
	task := mustAdd(t, s, "original", models.PriorityMedium)

	s.BeginEdit(task.ID, task.Text)
	s.SetEditDraft("changed")
	s.CancelEdit()

	got, _ := s.Get(task.ID)
	if got.Text != "original" {
		t.Errorf("Text = %q, want original", got.Text)
	}
	if _, open := s.EditSession(); open {
		t.Error("edit session should be closed after cancel")
	}
}

func TestEdit_NewSessionDiscardsPreviousDraft(t *testing.T) {
	s := newTestStore(t)
	a := mustAdd(t, s, "a", models.PriorityMedium)
	b := mustAdd(t, s, "b", models.PriorityMedium)

	s.BeginEdit(a.ID, a.Text)
	s.SetEditDraft("unsaved for a")
	s.BeginEdit(b.ID, b.Text)

	session, _ := s.EditSession()
	if session.TaskID != b.ID || session.Draft != "b" {
		t.Errorf("session = %+v, want target %s with draft b", session, b.ID)
	}

	s.CommitEdit(b.ID)
	gotA, _ := s.Get(a.ID)
	if gotA.Text != "a" {
		t.Errorf("task a changed to %q; its draft should have been discarded", gotA.Text)
	}
}

func TestEdit_SetDraftWithoutSessionIsIgnored(t *testing.T) {
	s := newTestStore(t)
	s.SetEditDraft("orphan")
	if _, open := s.EditSession(); open {
		t.Error("SetEditDraft must not open a session")
	}
}

func TestEdit_CommitAfterRemoveIsNoOp(t *testing.T) {
	s := newTestStore(t)
	task := mustAdd(t, s, "doomed", models.PriorityLow)

	s.BeginEdit(task.ID, task.Text)
	s.SetEditDraft("renamed")
	s.Remove(task.ID)

	if s.CommitEdit(task.ID) {
		t.Error("CommitEdit on a removed task should report false")
	}
	if n := len(s.Tasks()); n != 0 {
		t.Errorf("collection length = %d, want 0", n)
	}
	if _, open := s.EditSession(); open {
		t.Error("edit session should be closed")
	}
}

// --- Settings and drafts ---

func TestSettings_IgnoreUnknownModes(t *testing.T) {
	s := newTestStore(t)

	if !s.SetFilter(models.FilterStarred) {
		t.Error("SetFilter(starred) should succeed")
	}
	if s.SetFilter(models.FilterMode("bogus")) {
		t.Error("SetFilter(bogus) should be rejected")
	}
	if !s.SetSort(models.SortPriority) {
		t.Error("SetSort(priority) should succeed")
	}
	if s.SetSort(models.SortMode("random")) {
		t.Error("SetSort(random) should be rejected")
	}
	s.SetSearch("mil")

	want := models.ViewSettings{Filter: models.FilterStarred, Search: "mil", Sort: models.SortPriority}
	if got := s.Settings(); got != want {
		t.Errorf("Settings = %+v, want %+v", got, want)
	}
}

func TestNewStore_AppliesInitialSettings(t *testing.T) {
	s := NewTaskStore(StoreOptions{
		Settings:      models.ViewSettings{Filter: models.FilterActive, Sort: models.SortAlphabetical},
		DraftPriority: models.PriorityHigh,
	})

	if got := s.Settings(); got.Filter != models.FilterActive || got.Sort != models.SortAlphabetical {
		t.Errorf("Settings = %+v", got)
	}
	if got := s.NewTaskDraft().Priority; got != models.PriorityHigh {
		t.Errorf("draft priority = %s, want high", got)
	}
}

func TestSubmitNewTask_ClearsTextKeepsPriority(t *testing.T) {
	s := newTestStore(t)

	s.SetNewTaskText("  water plants ")
	s.SetNewTaskPriority(models.PriorityLow)

	task, ok := s.SubmitNewTask()
	if !ok {
		t.Fatal("SubmitNewTask was rejected")
	}
	if task.Text != "water plants" || task.Priority != models.PriorityLow {
		t.Errorf("unexpected task %+v", task)
	}

	draft := s.NewTaskDraft()
	if draft.Text != "" {
		t.Errorf("draft text = %q, want cleared", draft.Text)
	}
	if draft.Priority != models.PriorityLow {
		t.Errorf("draft priority = %s, want low", draft.Priority)
	}
}

func TestSubmitNewTask_BlankKeepsDraft(t *testing.T) {
	s := newTestStore(t)
	s.SetNewTaskText("   ")

	if _, ok := s.SubmitNewTask(); ok {
		t.Error("blank draft should not be submitted")
	}
	if got := s.NewTaskDraft().Text; got != "   " {
		t.Errorf("draft text = %q, want untouched", got)
	}
	if s.SetNewTaskPriority(models.Priority("P0")) {
		t.Error("unknown draft priority should be rejected")
	}
}

// --- Snapshots ---

func TestTasks_ReturnsIndependentCopy(t *testing.T) {
	s := newTestStore(t)
	task := mustAdd(t, s, "immutable", models.PriorityMedium)
	s.ToggleComplete(task.ID)

	snap := s.Tasks()
	snap[0].Text = "mutated"
	*snap[0].CompletedAt = time.Time{}

	got, _ := s.Get(task.ID)
	if got.Text != "immutable" {
		t.Errorf("store text changed through snapshot: %q", got.Text)
	}
	if got.CompletedAt.IsZero() {
		t.Error("store CompletedAt changed through snapshot")
	}
}

// --- Scenario ---

func TestScenario_PrioritySortThenArchive(t *testing.T) {
	s := newTestStore(t)
	a := mustAdd(t, s, "Buy milk", models.PriorityMedium)
	b := mustAdd(t, s, "Call mom", models.PriorityHigh)

	s.SetSort(models.SortPriority)
	view := s.View()
	if len(view) != 2 || view[0].ID != b.ID || view[1].ID != a.ID {
		t.Fatalf("priority view = %v, want [Call mom, Buy milk]", texts(view))
	}

	s.ToggleComplete(a.ID)
	s.ArchiveCompleted()

	remaining := s.Tasks()
	if len(remaining) != 1 || remaining[0].ID != b.ID {
		t.Errorf("remaining = %v, want only Call mom", texts(remaining))
	}
}

func TestEvents_EmittedPerMutation(t *testing.T) {
	events := &recordingEventLogger{err: errors.New("disk full")}
	s := NewTaskStore(StoreOptions{Events: events, Clock: newStepClock()})

	task := mustAdd(t, s, "log me", models.PriorityHigh)
	s.ToggleStar(task.ID)
	s.ToggleComplete(task.ID)
	s.ToggleComplete(task.ID)
	s.BeginEdit(task.ID, task.Text)
	s.SetEditDraft("logged")
	s.CommitEdit(task.ID)
	s.ToggleComplete(task.ID)
	s.ArchiveCompleted()

	want := []string{
		"task.added", "task.starred", "task.completed", "task.reopened",
		"task.edited", "task.completed", "task.archived",
	}
	if !equalStrings(events.events, want) {
		t.Errorf("events = %v, want %v", events.events, want)
	}
}

// reentrantEventLogger reads the store from inside LogEvent, which only
// works when events are written after the store lock is released.
type reentrantEventLogger struct {
	store  TaskStore
	totals []int
}

func (r *reentrantEventLogger) LogEvent(string, map[string]any) error {
	r.totals = append(r.totals, r.store.Counts().Total)
	return nil
}

func TestEvents_WrittenOutsideStoreLock(t *testing.T) {
	logger := &reentrantEventLogger{}
	s := NewTaskStore(StoreOptions{Events: logger, Clock: newStepClock()})
	logger.store = s

	done := make(chan struct{})
	go func() {
		defer close(done)
		task, _ := s.Add("call the plumber", models.PriorityMedium)
		s.ToggleComplete(task.ID)
		s.ArchiveCompleted()
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("store deadlocked while writing events")
	}

	want := []int{1, 1, 0}
	if len(logger.totals) != len(want) {
		t.Fatalf("logged %d events, want %d", len(logger.totals), len(want))
	}
	for i := range want {
		if logger.totals[i] != want[i] {
			t.Errorf("event %d saw total %d, want %d", i, logger.totals[i], want[i])
		}
	}
}
