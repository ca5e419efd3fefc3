package server

import (
	"fmt"
	"sort"
	"sync"

	"github.com/kwestin/listsync/internal/schema"
)

// memStore backs the reference server: per-user row maps behind one lock.
// Every batch is validated before anything is applied, so a rejected batch
// leaves the store untouched.
type memStore struct {
	mu    sync.RWMutex
	users map[string]*userData
}

type userData struct {
	lists      map[string]schema.ListRow
	categories map[string]schema.CategoryRow
	tasks      map[string]schema.TaskRow
	preference *schema.PreferenceRow
}

func newMemStore() *memStore {
	return &memStore{users: make(map[string]*userData)}
}

// user returns the data for a user, creating it on first touch. Callers
// hold m.mu.
func (m *memStore) user(id string) *userData {
	u, ok := m.users[id]
	if !ok {
		u = &userData{
			lists:      make(map[string]schema.ListRow),
			categories: make(map[string]schema.CategoryRow),
			tasks:      make(map[string]schema.TaskRow),
		}
		m.users[id] = u
	}
	return u
}

func (m *memStore) lists(userID string) []schema.ListRow {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rows := []schema.ListRow{}
	if u, ok := m.users[userID]; ok {
		for _, row := range u.lists {
			rows = append(rows, row)
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].ID < rows[j].ID })
	return rows
}

func (m *memStore) categories(userID string) []schema.CategoryRow {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rows := []schema.CategoryRow{}
	if u, ok := m.users[userID]; ok {
		for _, row := range u.categories {
			rows = append(rows, row)
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].ID < rows[j].ID })
	return rows
}

func (m *memStore) tasks(userID string) []schema.TaskRow {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rows := []schema.TaskRow{}
	if u, ok := m.users[userID]; ok {
		for _, row := range u.tasks {
			rows = append(rows, row)
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].ID < rows[j].ID })
	return rows
}

func (m *memStore) preference(userID string) *schema.PreferenceRow {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if u, ok := m.users[userID]; ok && u.preference != nil {
		row := *u.preference
		return &row
	}
	return nil
}

// upsertLists applies a batch of list rows, returning the affected user
// ids for notification.
func (m *memStore) upsertLists(rows []schema.ListRow) ([]string, error) {
	for _, row := range rows {
		if err := row.Validate(); err != nil {
			return nil, err
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	users := map[string]bool{}
	for _, row := range rows {
		m.user(row.UserID).lists[row.ID] = row
		users[row.UserID] = true
	}
	return keys(users), nil
}

// upsertCategories applies a batch of category rows. Rows referencing a
// list the store has never seen are rejected; clients push lists first.
func (m *memStore) upsertCategories(rows []schema.CategoryRow) ([]string, error) {
	for _, row := range rows {
		if err := row.Validate(); err != nil {
			return nil, err
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, row := range rows {
		u := m.user(row.UserID)
		if _, ok := u.lists[row.ListID]; !ok {
			return nil, fmt.Errorf("category %s references unknown list %s", row.ID, row.ListID)
		}
	}

	users := map[string]bool{}
	for _, row := range rows {
		m.user(row.UserID).categories[row.ID] = row
		users[row.UserID] = true
	}
	return keys(users), nil
}

// upsertTasks applies a batch of task rows. Like categories, tasks must
// name a list that already exists. Parent and category references are not
// checked: parents can arrive in the same batch as their children.
func (m *memStore) upsertTasks(rows []schema.TaskRow) ([]string, error) {
	for _, row := range rows {
		if err := row.Validate(); err != nil {
			return nil, err
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for _, row := range rows {
		u := m.user(row.UserID)
		if _, ok := u.lists[row.ListID]; !ok {
			return nil, fmt.Errorf("task %s references unknown list %s", row.ID, row.ListID)
		}
	}

	users := map[string]bool{}
	for _, row := range rows {
		m.user(row.UserID).tasks[row.ID] = row
		users[row.UserID] = true
	}
	return keys(users), nil
}

func (m *memStore) setPreference(row schema.PreferenceRow) error {
	if err := row.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	saved := row
	m.user(row.UserID).preference = &saved
	return nil
}

// deleteLists removes lists and cascades to their categories and tasks.
// Absent ids are skipped. Returns whether anything was removed.
func (m *memStore) deleteLists(userID string, ids []string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[userID]
	if !ok {
		return false
	}

	changed := false
	for _, id := range ids {
		if _, ok := u.lists[id]; !ok {
			continue
		}
		delete(u.lists, id)
		changed = true
		for cid, c := range u.categories {
			if c.ListID == id {
				delete(u.categories, cid)
			}
		}
		for tid, task := range u.tasks {
			if task.ListID == id {
				delete(u.tasks, tid)
			}
		}
	}
	return changed
}

// deleteCategories removes categories. Tasks that referenced one keep
// their row but lose the reference.
func (m *memStore) deleteCategories(userID string, ids []string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[userID]
	if !ok {
		return false
	}

	changed := false
	for _, id := range ids {
		if _, ok := u.categories[id]; !ok {
			continue
		}
		delete(u.categories, id)
		changed = true
		for tid, task := range u.tasks {
			if task.CategoryID != nil && *task.CategoryID == id {
				task.CategoryID = nil
				u.tasks[tid] = task
			}
		}
	}
	return changed
}

// deleteTasks removes tasks and cascades to their subtasks.
func (m *memStore) deleteTasks(userID string, ids []string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[userID]
	if !ok {
		return false
	}

	changed := false
	for _, id := range ids {
		if _, ok := u.tasks[id]; !ok {
			continue
		}
		delete(u.tasks, id)
		changed = true
		for tid, task := range u.tasks {
			if task.ParentTaskID != nil && *task.ParentTaskID == id {
				delete(u.tasks, tid)
			}
		}
	}
	return changed
}

func keys(set map[string]bool) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
