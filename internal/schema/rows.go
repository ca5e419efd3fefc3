package schema

import (
	"fmt"
	"time"
)

// ListRow is the wire form of a list.
type ListRow struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	Name       string    `json:"name"`
	SortOrder  int       `json:"sort_order"`
	ShowOnOpen bool      `json:"show_on_open"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// CategoryRow is the wire form of a category, carrying the owning list id
// that is implicit in the in-memory embedding.
type CategoryRow struct {
	ID        string  `json:"id"`
	ListID    string  `json:"list_id"`
	UserID    string  `json:"user_id"`
	Name      string  `json:"name"`
	SortOrder int     `json:"sort_order"`
	Color     *string `json:"color,omitempty"`
}

// TaskRow is the wire form of a task. CategoryID and ParentTaskID are
// null-when-absent references.
type TaskRow struct {
	ID           string     `json:"id"`
	ListID       string     `json:"list_id"`
	CategoryID   *string    `json:"category_id,omitempty"`
	ParentTaskID *string    `json:"parent_task_id,omitempty"`
	UserID       string     `json:"user_id"`
	Title        string     `json:"title"`
	Completed    bool       `json:"completed"`
	SortOrder    int        `json:"sort_order"`
	CreatedAt    time.Time  `json:"created_at"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// PreferenceRow is the single per-user preference record.
type PreferenceRow struct {
	UserID        string `json:"user_id"`
	ShowCompleted bool   `json:"show_completed"`
}

// Validate checks the fields the remote store requires.
func (r ListRow) Validate() error {
	if r.ID == "" {
		return fmt.Errorf("list row missing required field: id")
	}
	if r.UserID == "" {
		return fmt.Errorf("list row %s missing required field: user_id", r.ID)
	}
	return nil
}

// Validate checks the fields the remote store requires.
func (r CategoryRow) Validate() error {
	if r.ID == "" {
		return fmt.Errorf("category row missing required field: id")
	}
	if r.UserID == "" {
		return fmt.Errorf("category row %s missing required field: user_id", r.ID)
	}
	if r.ListID == "" {
		return fmt.Errorf("category row %s missing required field: list_id", r.ID)
	}
	return nil
}

// Validate checks the fields the remote store requires.
func (r TaskRow) Validate() error {
	if r.ID == "" {
		return fmt.Errorf("task row missing required field: id")
	}
	if r.UserID == "" {
		return fmt.Errorf("task row %s missing required field: user_id", r.ID)
	}
	if r.ListID == "" {
		return fmt.Errorf("task row %s missing required field: list_id", r.ID)
	}
	return nil
}

// Validate checks the fields the remote store requires.
func (r PreferenceRow) Validate() error {
	if r.UserID == "" {
		return fmt.Errorf("preference row missing required field: user_id")
	}
	return nil
}

// Equal compares all fields except updated_at, which is restamped on every
// flatten and carries no change signal.
func (r ListRow) Equal(o ListRow) bool {
	return r.ID == o.ID && r.UserID == o.UserID && r.Name == o.Name &&
		r.SortOrder == o.SortOrder && r.ShowOnOpen == o.ShowOnOpen &&
		r.CreatedAt.Equal(o.CreatedAt)
}

// Equal compares all fields.
func (r CategoryRow) Equal(o CategoryRow) bool {
	return r.ID == o.ID && r.ListID == o.ListID && r.UserID == o.UserID &&
		r.Name == o.Name && r.SortOrder == o.SortOrder &&
		stringPtrEqual(r.Color, o.Color)
}

// Equal compares all fields except updated_at.
func (r TaskRow) Equal(o TaskRow) bool {
	return r.ID == o.ID && r.ListID == o.ListID &&
		stringPtrEqual(r.CategoryID, o.CategoryID) &&
		stringPtrEqual(r.ParentTaskID, o.ParentTaskID) &&
		r.UserID == o.UserID && r.Title == o.Title &&
		r.Completed == o.Completed && r.SortOrder == o.SortOrder &&
		r.CreatedAt.Equal(o.CreatedAt) &&
		timePtrEqual(r.CompletedAt, o.CompletedAt)
}

// Equal compares all fields.
func (r PreferenceRow) Equal(o PreferenceRow) bool {
	return r.UserID == o.UserID && r.ShowCompleted == o.ShowCompleted
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
