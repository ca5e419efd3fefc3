package sync

import (
	"fmt"
	"sort"

	"github.com/kwestin/listsync/internal/schema"
)

// Snapshot is the last known state of the remote store, keyed by identity,
// used as the diff baseline. A Snapshot is immutable: build a new one with
// NewSnapshot or SnapshotOf instead of modifying an existing one.
//
// The preference record is tracked separately from the row maps because a
// user may have no record at all; a nil preference means the remote value is
// unknown and any local value counts as a change.
type Snapshot struct {
	lists      map[string]schema.ListRow
	categories map[string]schema.CategoryRow
	tasks      map[string]schema.TaskRow
	preference *schema.PreferenceRow
}

// NewSnapshot returns an empty Snapshot: no rows, preference unknown.
func NewSnapshot() Snapshot {
	return Snapshot{
		lists:      map[string]schema.ListRow{},
		categories: map[string]schema.CategoryRow{},
		tasks:      map[string]schema.TaskRow{},
	}
}

// SnapshotOf builds a Snapshot from a rowset, copying every row.
func SnapshotOf(rs schema.Rowset) Snapshot {
	s := NewSnapshot()
	for _, r := range rs.Lists {
		s.lists[r.ID] = r
	}
	for _, r := range rs.Categories {
		s.categories[r.ID] = r
	}
	for _, r := range rs.Tasks {
		s.tasks[r.ID] = r
	}
	if rs.Preference != nil {
		p := *rs.Preference
		s.preference = &p
	}
	return s
}

// Empty reports whether the snapshot holds no entity rows.
func (s Snapshot) Empty() bool {
	return len(s.lists) == 0 && len(s.categories) == 0 && len(s.tasks) == 0
}

// Rowset returns the snapshot's rows in id order.
func (s Snapshot) Rowset() schema.Rowset {
	var rs schema.Rowset
	for _, r := range s.lists {
		rs.Lists = append(rs.Lists, r)
	}
	sort.Slice(rs.Lists, func(i, j int) bool { return rs.Lists[i].ID < rs.Lists[j].ID })
	for _, r := range s.categories {
		rs.Categories = append(rs.Categories, r)
	}
	sort.Slice(rs.Categories, func(i, j int) bool { return rs.Categories[i].ID < rs.Categories[j].ID })
	for _, r := range s.tasks {
		rs.Tasks = append(rs.Tasks, r)
	}
	sort.Slice(rs.Tasks, func(i, j int) bool { return rs.Tasks[i].ID < rs.Tasks[j].ID })
	if s.preference != nil {
		p := *s.preference
		rs.Preference = &p
	}
	return rs
}

// String summarizes the snapshot for logs.
func (s Snapshot) String() string {
	return fmt.Sprintf("%d lists, %d categories, %d tasks", len(s.lists), len(s.categories), len(s.tasks))
}
