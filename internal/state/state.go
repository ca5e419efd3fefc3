// Package state holds the client's working copy of the user's data. All
// reads and mutations go through Store, which keeps the collections in
// canonical order, enforces referential rules (category and parent
// references, one level of task nesting, cascades), and signals a change
// channel the persistence loop drains.
package state

import (
	"fmt"
	"sync"
	"time"

	"github.com/kwestin/listsync/internal/model"
	"github.com/kwestin/listsync/internal/schema"
)

// Store is the in-memory source of truth for the UI. Safe for concurrent
// use.
type Store struct {
	mu     sync.RWMutex
	lists  []model.List
	tasks  []model.Task
	prefs  model.Preferences
	device model.DevicePrefs

	// changed has capacity 1 and is written with a non-blocking send, so
	// any number of mutations between reads collapse into one wakeup.
	changed chan struct{}
}

// NewStore returns an empty store with default preferences.
func NewStore() *Store {
	return &Store{
		prefs:   model.DefaultPreferences(),
		changed: make(chan struct{}, 1),
	}
}

// Changed returns the channel signaled after every local mutation. The
// receiver should treat one receive as "something changed since last look".
func (s *Store) Changed() <-chan struct{} {
	return s.changed
}

func (s *Store) notify() {
	select {
	case s.changed <- struct{}{}:
	default:
	}
}

// Replace swaps in a whole new synced state. It does not signal the change
// channel: it is the adoption path for hydration and remote refetches,
// whose callers persist the new state themselves.
func (s *Store) Replace(lists []model.List, tasks []model.Task, prefs model.Preferences) {
	lists = model.CloneLists(lists)
	tasks = model.CloneTasks(tasks)
	schema.SortLists(lists)
	schema.SortTasks(tasks)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.lists = lists
	s.tasks = tasks
	s.prefs = prefs
}

// Lists returns a deep copy of all lists in canonical order.
func (s *Store) Lists() []model.List {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return model.CloneLists(s.lists)
}

// Tasks returns a deep copy of all tasks in canonical order.
func (s *Store) Tasks() []model.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return model.CloneTasks(s.tasks)
}

// Preferences returns the synced preferences.
func (s *Store) Preferences() model.Preferences {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.prefs
}

// DevicePrefs returns the device-local preferences.
func (s *Store) DevicePrefs() model.DevicePrefs {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.device
}

// Export returns a consistent copy of everything that syncs, taken under
// one lock so the three pieces always belong to the same moment.
func (s *Store) Export() ([]model.List, []model.Task, model.Preferences) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return model.CloneLists(s.lists), model.CloneTasks(s.tasks), s.prefs
}

// Counts returns how many lists, categories, and tasks the store holds.
func (s *Store) Counts() (lists, categories, tasks int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, l := range s.lists {
		categories += len(l.Categories)
	}
	return len(s.lists), categories, len(s.tasks)
}

// AddList creates a list at the end of the ordering and returns it.
func (s *Store) AddList(name string) (model.List, error) {
	if name == "" {
		return model.List{}, fmt.Errorf("list name must not be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	next := 0
	for _, l := range s.lists {
		if l.SortOrder >= next {
			next = l.SortOrder + 1
		}
	}
	list := model.NewList(name, next)
	s.lists = append(s.lists, list)
	s.notify()
	return list.Clone(), nil
}

// RenameList changes a list's name.
func (s *Store) RenameList(id, name string) error {
	if name == "" {
		return fmt.Errorf("list name must not be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.listIndex(id)
	if i < 0 {
		return fmt.Errorf("list not found: %s", id)
	}
	s.lists[i].Name = name
	s.notify()
	return nil
}

// SetListShowOnOpen marks whether a list opens by default.
func (s *Store) SetListShowOnOpen(id string, show bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.listIndex(id)
	if i < 0 {
		return fmt.Errorf("list not found: %s", id)
	}
	s.lists[i].ShowOnOpen = show
	s.notify()
	return nil
}

// MoveList moves a list to the given position (clamped to the valid range)
// and renumbers sort orders densely. Lists that keep their position keep
// their sort order.
func (s *Store) MoveList(id string, position int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.listIndex(id)
	if i < 0 {
		return fmt.Errorf("list not found: %s", id)
	}

	moved := s.lists[i]
	rest := append(s.lists[:i:i], s.lists[i+1:]...)
	if position < 0 {
		position = 0
	}
	if position > len(rest) {
		position = len(rest)
	}
	s.lists = append(rest[:position:position], append([]model.List{moved}, rest[position:]...)...)
	for j := range s.lists {
		s.lists[j].SortOrder = j
	}
	s.notify()
	return nil
}

// DeleteList removes a list, its categories, and every task in it.
func (s *Store) DeleteList(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.listIndex(id)
	if i < 0 {
		return fmt.Errorf("list not found: %s", id)
	}
	s.lists = append(s.lists[:i], s.lists[i+1:]...)

	kept := s.tasks[:0]
	for _, t := range s.tasks {
		if t.ListID != id {
			kept = append(kept, t)
		}
	}
	s.tasks = kept
	s.notify()
	return nil
}

// AddCategory creates a category at the end of the list's category ordering.
func (s *Store) AddCategory(listID, name string) (model.Category, error) {
	if name == "" {
		return model.Category{}, fmt.Errorf("category name must not be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.listIndex(listID)
	if i < 0 {
		return model.Category{}, fmt.Errorf("list not found: %s", listID)
	}

	next := 0
	for _, c := range s.lists[i].Categories {
		if c.SortOrder >= next {
			next = c.SortOrder + 1
		}
	}
	cat := model.NewCategory(listID, name, next)
	s.lists[i].Categories = append(s.lists[i].Categories, cat)
	s.notify()
	return cat, nil
}

// SetCategoryColor sets or clears a category's display color.
func (s *Store) SetCategoryColor(id string, color *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	li, ci := s.categoryIndex(id)
	if li < 0 {
		return fmt.Errorf("category not found: %s", id)
	}
	if color == nil {
		s.lists[li].Categories[ci].Color = nil
	} else {
		c := *color
		s.lists[li].Categories[ci].Color = &c
	}
	s.notify()
	return nil
}

// RemoveCategory deletes a category. Tasks that referenced it keep their
// list but lose the category.
func (s *Store) RemoveCategory(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	li, ci := s.categoryIndex(id)
	if li < 0 {
		return fmt.Errorf("category not found: %s", id)
	}
	cats := s.lists[li].Categories
	s.lists[li].Categories = append(cats[:ci], cats[ci+1:]...)

	for i := range s.tasks {
		if s.tasks[i].CategoryID != nil && *s.tasks[i].CategoryID == id {
			s.tasks[i].CategoryID = nil
		}
	}
	s.notify()
	return nil
}

// AddTask creates a task at the end of its list's ordering. An optional
// category must belong to the same list. An optional parent must be a
// top-level task in the same list; subtasks cannot themselves have
// subtasks.
func (s *Store) AddTask(listID, title string, categoryID, parentTaskID *string) (model.Task, error) {
	if title == "" {
		return model.Task{}, fmt.Errorf("task title must not be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	li := s.listIndex(listID)
	if li < 0 {
		return model.Task{}, fmt.Errorf("list not found: %s", listID)
	}
	if categoryID != nil {
		if err := s.checkCategory(listID, *categoryID); err != nil {
			return model.Task{}, err
		}
	}
	if parentTaskID != nil {
		pi := s.taskIndex(*parentTaskID)
		if pi < 0 {
			return model.Task{}, fmt.Errorf("parent task not found: %s", *parentTaskID)
		}
		parent := s.tasks[pi]
		if parent.ListID != listID {
			return model.Task{}, fmt.Errorf("parent task %s belongs to a different list", parent.ID)
		}
		if parent.ParentTaskID != nil {
			return model.Task{}, fmt.Errorf("task %s is already a subtask; tasks nest one level deep", parent.ID)
		}
	}

	next := 0
	for _, t := range s.tasks {
		if t.ListID == listID && t.SortOrder >= next {
			next = t.SortOrder + 1
		}
	}
	task := model.NewTask(listID, title, next)
	if categoryID != nil {
		task.CategoryID = model.StringPtr(*categoryID)
	}
	if parentTaskID != nil {
		task.ParentTaskID = model.StringPtr(*parentTaskID)
	}
	s.tasks = append(s.tasks, task)
	schema.SortTasks(s.tasks)
	s.notify()
	return task.Clone(), nil
}

// RenameTask changes a task's title.
func (s *Store) RenameTask(id, title string) error {
	if title == "" {
		return fmt.Errorf("task title must not be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.taskIndex(id)
	if i < 0 {
		return fmt.Errorf("task not found: %s", id)
	}
	s.tasks[i].Title = title
	s.notify()
	return nil
}

// SetTaskCompleted marks a task done or not done, stamping or clearing the
// completion time.
func (s *Store) SetTaskCompleted(id string, completed bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.taskIndex(id)
	if i < 0 {
		return fmt.Errorf("task not found: %s", id)
	}
	s.tasks[i].Completed = completed
	if completed {
		s.tasks[i].CompletedAt = model.TimePtr(time.Now().UTC())
	} else {
		s.tasks[i].CompletedAt = nil
	}
	s.notify()
	return nil
}

// SetTaskCategory moves a task into a category of its own list, or out of
// any category when categoryID is nil.
func (s *Store) SetTaskCategory(id string, categoryID *string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.taskIndex(id)
	if i < 0 {
		return fmt.Errorf("task not found: %s", id)
	}
	if categoryID == nil {
		s.tasks[i].CategoryID = nil
	} else {
		if err := s.checkCategory(s.tasks[i].ListID, *categoryID); err != nil {
			return err
		}
		s.tasks[i].CategoryID = model.StringPtr(*categoryID)
	}
	s.notify()
	return nil
}

// MoveTask moves a task to the given position within its list (clamped)
// and renumbers that list's sort orders densely. Tasks in other lists are
// untouched.
func (s *Store) MoveTask(id string, position int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.taskIndex(id)
	if i < 0 {
		return fmt.Errorf("task not found: %s", id)
	}
	listID := s.tasks[i].ListID

	// Tasks are globally sorted by (list, sort order, id), so the list's
	// tasks form a contiguous run in order.
	var siblings []int
	for j, t := range s.tasks {
		if t.ListID == listID {
			siblings = append(siblings, j)
		}
	}
	var order []int
	for _, j := range siblings {
		if j != i {
			order = append(order, j)
		}
	}
	if position < 0 {
		position = 0
	}
	if position > len(order) {
		position = len(order)
	}
	order = append(order[:position:position], append([]int{i}, order[position:]...)...)
	for rank, j := range order {
		s.tasks[j].SortOrder = rank
	}
	schema.SortTasks(s.tasks)
	s.notify()
	return nil
}

// DeleteTask removes a task and all of its subtasks.
func (s *Store) DeleteTask(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.taskIndex(id)
	if i < 0 {
		return fmt.Errorf("task not found: %s", id)
	}

	kept := s.tasks[:0]
	for _, t := range s.tasks {
		if t.ID == id {
			continue
		}
		if t.ParentTaskID != nil && *t.ParentTaskID == id {
			continue
		}
		kept = append(kept, t)
	}
	s.tasks = kept
	s.notify()
	return nil
}

// SetShowCompleted updates the synced show-completed preference.
func (s *Store) SetShowCompleted(show bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prefs.ShowCompleted = show
	s.notify()
}

// SetDevicePrefs updates the device-local preferences. They persist to the
// cache but never reach the remote store, so the pushes this triggers are
// empty.
func (s *Store) SetDevicePrefs(prefs model.DevicePrefs) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.device = prefs
	s.notify()
}

// listIndex returns the index of the list with the given id, or -1.
// Callers hold s.mu.
func (s *Store) listIndex(id string) int {
	for i, l := range s.lists {
		if l.ID == id {
			return i
		}
	}
	return -1
}

// categoryIndex returns the (list, category) indexes for a category id, or
// (-1, -1). Callers hold s.mu.
func (s *Store) categoryIndex(id string) (int, int) {
	for li, l := range s.lists {
		for ci, c := range l.Categories {
			if c.ID == id {
				return li, ci
			}
		}
	}
	return -1, -1
}

// taskIndex returns the index of the task with the given id, or -1.
// Callers hold s.mu.
func (s *Store) taskIndex(id string) int {
	for i, t := range s.tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}

// checkCategory verifies that the category exists and belongs to listID.
// Callers hold s.mu.
func (s *Store) checkCategory(listID, categoryID string) error {
	li, _ := s.categoryIndex(categoryID)
	if li < 0 {
		return fmt.Errorf("category not found: %s", categoryID)
	}
	if s.lists[li].ID != listID {
		return fmt.Errorf("category %s belongs to a different list", categoryID)
	}
	return nil
}
