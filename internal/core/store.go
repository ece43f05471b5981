package core

import (
	"strings"
	"sync"

	"github.com/valter-silva-au/todo-nexus/pkg/models"
)

// TaskStore owns the in-memory task collection together with the transient
// UI state around it: the edit session, the view settings and the pending
// new-task draft. Invalid input never fails; it degrades to a no-op reported
// through the boolean (or count) result.
type TaskStore interface {
	Add(text string, priority models.Priority) (models.Task, bool)
	ToggleComplete(id string) bool
	ToggleStar(id string) bool
	Remove(id string) bool
	ArchiveCompleted() int

	BeginEdit(id, currentText string) bool
	SetEditDraft(text string)
	CommitEdit(id string) bool
	CancelEdit()
	EditSession() (models.EditSession, bool)

	SetFilter(filter models.FilterMode) bool
	SetSearch(term string)
	SetSort(sort models.SortMode) bool
	Settings() models.ViewSettings

	SetNewTaskText(text string)
	SetNewTaskPriority(priority models.Priority) bool
	NewTaskDraft() models.NewTaskDraft
	SubmitNewTask() (models.Task, bool)

	Tasks() []models.Task
	Get(id string) (models.Task, bool)
	View() []models.Task
	Counts() models.Counts
}

// StoreOptions configures a new TaskStore. Zero values fall back to defaults.
type StoreOptions struct {
	IDGen    TaskIDGenerator
	Clock    Clock
	Events   EventLogger
	Collator *Collator
	Settings models.ViewSettings
	// DraftPriority is the initial priority of the new-task draft.
	DraftPriority models.Priority
	Category      string
}

// taskStore implements TaskStore. The mutex gives every operation exclusive
// access so callers on several goroutines still observe strict program order.
type taskStore struct {
	mu sync.Mutex

	idGen    TaskIDGenerator
	clock    Clock
	events   EventLogger
	collator *Collator
	category string

	// tasks is newest-first: Add prepends.
	tasks    []models.Task
	editing  *models.EditSession
	settings models.ViewSettings
	draft    models.NewTaskDraft

	// pending holds events recorded under the lock, written once it is released.
	pending []storeEvent
}

type storeEvent struct {
	eventType string
	data      map[string]any
}

// NewTaskStore creates an empty TaskStore.
func NewTaskStore(opts StoreOptions) TaskStore {
	s := &taskStore{
		idGen:    opts.IDGen,
		clock:    opts.Clock,
		events:   opts.Events,
		collator: opts.Collator,
		category: opts.Category,
		tasks:    []models.Task{},
		settings: models.DefaultViewSettings(),
		draft:    models.NewTaskDraft{Priority: models.PriorityMedium},
	}
	if s.idGen == nil {
		s.idGen = NewCounterTaskIDGenerator("TASK", 5)
	}
	if s.clock == nil {
		s.clock = SystemClock()
	}
	if s.category == "" {
		s.category = models.DefaultCategory
	}
	if opts.Settings.Filter.Valid() {
		s.settings.Filter = opts.Settings.Filter
	}
	if opts.Settings.Sort.Valid() {
		s.settings.Sort = opts.Settings.Sort
	}
	s.settings.Search = opts.Settings.Search
	if opts.DraftPriority.Valid() {
		s.draft.Priority = opts.DraftPriority
	}
	return s
}

// Add prepends a new task built from the trimmed text.
func (s *taskStore) Add(text string, priority models.Priority) (models.Task, bool) {
	s.mu.Lock()
	defer s.unlockAndFlush()
	return s.add(text, priority)
}

func (s *taskStore) add(text string, priority models.Priority) (models.Task, bool) {
	text = strings.TrimSpace(text)
	if text == "" || !priority.Valid() {
		s.logEvent("task.add_rejected", map[string]any{"priority": string(priority), "blank_text": text == ""})
		return models.Task{}, false
	}

	id, err := s.idGen.GenerateTaskID()
	if err != nil {
		s.logEvent("task.add_rejected", map[string]any{"error": err.Error()})
		return models.Task{}, false
	}

	task := models.Task{
		ID:        id,
		Text:      text,
		Priority:  priority,
		CreatedAt: s.clock.Now(),
		Category:  s.category,
	}
	s.tasks = append([]models.Task{task}, s.tasks...)

	s.logEvent("task.added", map[string]any{"task_id": id, "priority": string(priority)})
	return task.Clone(), true
}

// ToggleComplete flips the completion flag, stamping CompletedAt on
// completion and clearing it on reopen.
func (s *taskStore) ToggleComplete(id string) bool {
	s.mu.Lock()
	defer s.unlockAndFlush()

	i := s.indexOf(id)
	if i < 0 {
		return false
	}
	t := &s.tasks[i]
	t.Completed = !t.Completed
	if t.Completed {
		now := s.clock.Now()
		t.CompletedAt = &now
		s.logEvent("task.completed", map[string]any{"task_id": id, "priority": string(t.Priority)})
	} else {
		t.CompletedAt = nil
		s.logEvent("task.reopened", map[string]any{"task_id": id})
	}
	return true
}

func (s *taskStore) ToggleStar(id string) bool {
	s.mu.Lock()
	defer s.unlockAndFlush()

	i := s.indexOf(id)
	if i < 0 {
		return false
	}
	s.tasks[i].IsStarred = !s.tasks[i].IsStarred
	if s.tasks[i].IsStarred {
		s.logEvent("task.starred", map[string]any{"task_id": id})
	} else {
		s.logEvent("task.unstarred", map[string]any{"task_id": id})
	}
	return true
}

// Remove deletes the task. An open edit session on it stays open; committing
// it later is a no-op on the collection.
func (s *taskStore) Remove(id string) bool {
	s.mu.Lock()
	defer s.unlockAndFlush()

	i := s.indexOf(id)
	if i < 0 {
		return false
	}
	s.tasks = append(s.tasks[:i], s.tasks[i+1:]...)
	s.logEvent("task.removed", map[string]any{"task_id": id})
	return true
}

// ArchiveCompleted removes every completed task and returns how many were
// removed. Remaining tasks keep their relative order.
func (s *taskStore) ArchiveCompleted() int {
	s.mu.Lock()
	defer s.unlockAndFlush()

	kept := make([]models.Task, 0, len(s.tasks))
	archived := make([]string, 0)
	for _, t := range s.tasks {
		if t.Completed {
			archived = append(archived, t.ID)
			continue
		}
		kept = append(kept, t)
	}
	if len(archived) == 0 {
		return 0
	}
	s.tasks = kept
	s.logEvent("task.archived", map[string]any{"task_ids": archived, "count": len(archived)})
	return len(archived)
}

// BeginEdit opens an edit session on id, discarding any previous draft.
func (s *taskStore) BeginEdit(id, currentText string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.indexOf(id) < 0 {
		return false
	}
	s.editing = &models.EditSession{TaskID: id, Draft: currentText}
	return true
}

func (s *taskStore) SetEditDraft(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.editing != nil {
		s.editing.Draft = text
	}
}

// CommitEdit writes the trimmed draft into task id when it is non-blank and
// always closes the edit session. It reports whether the text changed.
func (s *taskStore) CommitEdit(id string) bool {
	s.mu.Lock()
	defer s.unlockAndFlush()

	draft := ""
	if s.editing != nil {
		draft = strings.TrimSpace(s.editing.Draft)
	}
	s.editing = nil

	if draft == "" {
		return false
	}
	i := s.indexOf(id)
	if i < 0 {
		return false
	}
	if s.tasks[i].Text == draft {
		return false
	}
	s.tasks[i].Text = draft
	s.logEvent("task.edited", map[string]any{"task_id": id})
	return true
}

func (s *taskStore) CancelEdit() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.editing = nil
}

func (s *taskStore) EditSession() (models.EditSession, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.editing == nil {
		return models.EditSession{}, false
	}
	return *s.editing, true
}

// SetFilter changes the active filter; unknown modes are ignored.
func (s *taskStore) SetFilter(filter models.FilterMode) bool {
	if !filter.Valid() {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings.Filter = filter
	return true
}

func (s *taskStore) SetSearch(term string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings.Search = term
}

// SetSort changes the active sort; unknown modes are ignored.
func (s *taskStore) SetSort(sort models.SortMode) bool {
	if !sort.Valid() {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings.Sort = sort
	return true
}

func (s *taskStore) Settings() models.ViewSettings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings
}

func (s *taskStore) SetNewTaskText(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.draft.Text = text
}

func (s *taskStore) SetNewTaskPriority(priority models.Priority) bool {
	if !priority.Valid() {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.draft.Priority = priority
	return true
}

func (s *taskStore) NewTaskDraft() models.NewTaskDraft {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draft
}

// SubmitNewTask adds a task from the pending draft. On success the draft
// text is cleared; the draft priority is kept for the next task.
func (s *taskStore) SubmitNewTask() (models.Task, bool) {
	s.mu.Lock()
	defer s.unlockAndFlush()

	task, ok := s.add(s.draft.Text, s.draft.Priority)
	if ok {
		s.draft.Text = ""
	}
	return task, ok
}

// Tasks returns a copy of the raw collection, newest first.
func (s *taskStore) Tasks() []models.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

func (s *taskStore) Get(id string) (models.Task, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexOf(id)
	if i < 0 {
		return models.Task{}, false
	}
	return s.tasks[i].Clone(), true
}

// View projects the collection under the current view settings.
func (s *taskStore) View() []models.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Project(s.tasks, s.settings, s.collator)
}

func (s *taskStore) Counts() models.Counts {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Aggregate(s.tasks)
}

func (s *taskStore) snapshot() []models.Task {
	out := make([]models.Task, len(s.tasks))
	for i, t := range s.tasks {
		out[i] = t.Clone()
	}
	return out
}

func (s *taskStore) indexOf(id string) int {
	for i := range s.tasks {
		if s.tasks[i].ID == id {
			return i
		}
	}
	return -1
}

// logEvent queues an event; the caller must hold s.mu.
func (s *taskStore) logEvent(eventType string, data map[string]any) {
	if s.events == nil {
		return
	}
	s.pending = append(s.pending, storeEvent{eventType: eventType, data: data})
}

// unlockAndFlush releases s.mu and then writes the queued events. Writing is
// best-effort: a failing event log never affects the store.
func (s *taskStore) unlockAndFlush() {
	pending := s.pending
	s.pending = nil
	s.mu.Unlock()

	for _, e := range pending {
		_ = s.events.LogEvent(e.eventType, e.data)
	}
}
