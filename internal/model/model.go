// Package model defines the in-memory representation of the user's data:
// task lists with their embedded categories, the tasks that reference them,
// and the preference records. The sync boundary flattens these into rows
// (see internal/schema); everything above the boundary works with these
// types directly.
package model

import (
	"time"

	"github.com/google/uuid"
)

// List is a top-level task list. Categories are embedded inside their owning
// List in memory and flattened into independent rows at the sync boundary.
type List struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	SortOrder  int        `json:"sort_order"`
	ShowOnOpen bool       `json:"show_on_open"`
	CreatedAt  time.Time  `json:"created_at"`
	Categories []Category `json:"categories,omitempty"`
}

// Category groups tasks within a single list. A Category always belongs to
// exactly one List; tasks reference it optionally.
type Category struct {
	ID        string  `json:"id"`
	ListID    string  `json:"list_id"`
	Name      string  `json:"name"`
	SortOrder int     `json:"sort_order"`
	Color     *string `json:"color,omitempty"`
}

// Task is a single to-do item. CategoryID absent means uncategorized.
// ParentTaskID absent means top-level; present means the task is a subtask,
// nested exactly one level by convention.
type Task struct {
	ID           string     `json:"id"`
	ListID       string     `json:"list_id"`
	CategoryID   *string    `json:"category_id,omitempty"`
	ParentTaskID *string    `json:"parent_task_id,omitempty"`
	Title        string     `json:"title"`
	Completed    bool       `json:"completed"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
	SortOrder    int        `json:"sort_order"`
	CreatedAt    time.Time  `json:"created_at"`
}

// Preferences is the per-user record that propagates across devices.
type Preferences struct {
	ShowCompleted bool `json:"show_completed"`
}

// DevicePrefs are UI preferences scoped to this device. They are persisted
// in the local cache but never pushed to the remote store.
type DevicePrefs struct {
	ActiveListID string `json:"active_list_id,omitempty"`
	Theme        string `json:"theme,omitempty"`
}

// DefaultPreferences returns the preference values used before any record
// exists locally or remotely.
func DefaultPreferences() Preferences {
	return Preferences{ShowCompleted: true}
}

// NewList creates a list with a fresh identity.
func NewList(name string, sortOrder int) List {
	return List{
		ID:        uuid.NewString(),
		Name:      name,
		SortOrder: sortOrder,
		CreatedAt: time.Now().UTC(),
	}
}

// NewCategory creates a category with a fresh identity under the given list.
func NewCategory(listID, name string, sortOrder int) Category {
	return Category{
		ID:        uuid.NewString(),
		ListID:    listID,
		Name:      name,
		SortOrder: sortOrder,
	}
}

// NewTask creates a top-level, uncategorized task with a fresh identity.
func NewTask(listID, title string, sortOrder int) Task {
	return Task{
		ID:        uuid.NewString(),
		ListID:    listID,
		Title:     title,
		SortOrder: sortOrder,
		CreatedAt: time.Now().UTC(),
	}
}

// StringPtr returns a pointer to s.
func StringPtr(s string) *string { return &s }

// TimePtr returns a pointer to t.
func TimePtr(t time.Time) *time.Time { return &t }

// Clone returns a deep copy of the list, including its categories.
func (l List) Clone() List {
	out := l
	if l.Categories != nil {
		out.Categories = make([]Category, len(l.Categories))
		for i, c := range l.Categories {
			out.Categories[i] = c.Clone()
		}
	}
	return out
}

// Clone returns a deep copy of the category.
func (c Category) Clone() Category {
	out := c
	out.Color = cloneString(c.Color)
	return out
}

// Clone returns a deep copy of the task.
func (t Task) Clone() Task {
	out := t
	out.CategoryID = cloneString(t.CategoryID)
	out.ParentTaskID = cloneString(t.ParentTaskID)
	out.CompletedAt = cloneTime(t.CompletedAt)
	return out
}

// CloneLists returns a deep copy of a list slice.
func CloneLists(lists []List) []List {
	if lists == nil {
		return nil
	}
	out := make([]List, len(lists))
	for i, l := range lists {
		out[i] = l.Clone()
	}
	return out
}

// CloneTasks returns a deep copy of a task slice.
func CloneTasks(tasks []Task) []Task {
	if tasks == nil {
		return nil
	}
	out := make([]Task, len(tasks))
	for i, t := range tasks {
		out[i] = t.Clone()
	}
	return out
}

// Equal reports whether two lists have identical content, including their
// embedded categories in order.
func (l List) Equal(o List) bool {
	if l.ID != o.ID || l.Name != o.Name || l.SortOrder != o.SortOrder ||
		l.ShowOnOpen != o.ShowOnOpen || !l.CreatedAt.Equal(o.CreatedAt) {
		return false
	}
	if len(l.Categories) != len(o.Categories) {
		return false
	}
	for i := range l.Categories {
		if !l.Categories[i].Equal(o.Categories[i]) {
			return false
		}
	}
	return true
}

// Equal reports whether two categories have identical content.
func (c Category) Equal(o Category) bool {
	return c.ID == o.ID && c.ListID == o.ListID && c.Name == o.Name &&
		c.SortOrder == o.SortOrder && stringPtrEqual(c.Color, o.Color)
}

// Equal reports whether two tasks have identical content.
func (t Task) Equal(o Task) bool {
	return t.ID == o.ID && t.ListID == o.ListID &&
		stringPtrEqual(t.CategoryID, o.CategoryID) &&
		stringPtrEqual(t.ParentTaskID, o.ParentTaskID) &&
		t.Title == o.Title && t.Completed == o.Completed &&
		timePtrEqual(t.CompletedAt, o.CompletedAt) &&
		t.SortOrder == o.SortOrder && t.CreatedAt.Equal(o.CreatedAt)
}

// ListsEqual reports whether two list slices are element-wise equal.
func ListsEqual(a, b []List) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}

// TasksEqual reports whether two task slices are element-wise equal.
func TasksEqual(a, b []Task) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}

func cloneString(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func cloneTime(p *time.Time) *time.Time {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func stringPtrEqual(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func timePtrEqual(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}
