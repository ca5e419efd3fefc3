package sync

import (
	"fmt"
	"sort"
	"strings"

	"github.com/kwestin/listsync/internal/schema"
)

// Diff is the minimal set of remote writes that moves the store from a
// Snapshot to a target state. Preference is nil when unchanged, so "no
// preference change" and "preference changed to its current value" stay
// distinguishable downstream.
type Diff struct {
	ListUpserts     []schema.ListRow
	CategoryUpserts []schema.CategoryRow
	TaskUpserts     []schema.TaskRow

	ListDeletes     []string
	CategoryDeletes []string
	TaskDeletes     []string

	Preference *schema.PreferenceRow
}

// Empty reports whether the diff carries no work at all.
func (d Diff) Empty() bool {
	return len(d.ListUpserts) == 0 && len(d.CategoryUpserts) == 0 && len(d.TaskUpserts) == 0 &&
		len(d.ListDeletes) == 0 && len(d.CategoryDeletes) == 0 && len(d.TaskDeletes) == 0 &&
		d.Preference == nil
}

// String summarizes the diff for logs.
func (d Diff) String() string {
	var parts []string
	add := func(n int, what string) {
		if n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", n, what))
		}
	}
	add(len(d.ListUpserts), "list upserts")
	add(len(d.CategoryUpserts), "category upserts")
	add(len(d.TaskUpserts), "task upserts")
	add(len(d.ListDeletes), "list deletes")
	add(len(d.CategoryDeletes), "category deletes")
	add(len(d.TaskDeletes), "task deletes")
	if d.Preference != nil {
		parts = append(parts, "preference")
	}
	if len(parts) == 0 {
		return "empty"
	}
	return strings.Join(parts, ", ")
}

// ComputeDiff compares the current rows against the snapshot baseline and
// returns the writes needed to make the remote store match. Pure: identical
// inputs yield identical diffs (all output slices are sorted by id).
//
// A row is upserted when its id is absent from the snapshot or its fields
// differ (updated_at excluded). An id present in the snapshot but absent
// from current is deleted, except where the deletion is already implied by
// a cascade: category and task rows whose owning list is itself being
// deleted, and task rows whose parent task is itself being deleted, are
// suppressed because the remote store removes them on its own.
func ComputeDiff(prev Snapshot, current schema.Rowset) Diff {
	var d Diff

	curLists := make(map[string]schema.ListRow, len(current.Lists))
	for _, r := range current.Lists {
		curLists[r.ID] = r
		if p, ok := prev.lists[r.ID]; !ok || !p.Equal(r) {
			d.ListUpserts = append(d.ListUpserts, r)
		}
	}
	for id := range prev.lists {
		if _, ok := curLists[id]; !ok {
			d.ListDeletes = append(d.ListDeletes, id)
		}
	}

	curCategories := make(map[string]schema.CategoryRow, len(current.Categories))
	for _, r := range current.Categories {
		curCategories[r.ID] = r
		if p, ok := prev.categories[r.ID]; !ok || !p.Equal(r) {
			d.CategoryUpserts = append(d.CategoryUpserts, r)
		}
	}
	var categoryCandidates []string
	for id := range prev.categories {
		if _, ok := curCategories[id]; !ok {
			categoryCandidates = append(categoryCandidates, id)
		}
	}

	curTasks := make(map[string]schema.TaskRow, len(current.Tasks))
	for _, r := range current.Tasks {
		curTasks[r.ID] = r
		if p, ok := prev.tasks[r.ID]; !ok || !p.Equal(r) {
			d.TaskUpserts = append(d.TaskUpserts, r)
		}
	}
	taskCandidates := make(map[string]bool)
	for id := range prev.tasks {
		if _, ok := curTasks[id]; !ok {
			taskCandidates[id] = true
		}
	}

	// Cascade suppression: the remote store already removes a deleted list's
	// categories and tasks, and a deleted task's children. Re-emitting those
	// deletions would be redundant traffic at best.
	deadLists := make(map[string]bool, len(d.ListDeletes))
	for _, id := range d.ListDeletes {
		deadLists[id] = true
	}
	for _, id := range categoryCandidates {
		if deadLists[prev.categories[id].ListID] {
			continue
		}
		d.CategoryDeletes = append(d.CategoryDeletes, id)
	}
	for id := range taskCandidates {
		t := prev.tasks[id]
		if deadLists[t.ListID] {
			continue
		}
		if t.ParentTaskID != nil && taskCandidates[*t.ParentTaskID] {
			continue
		}
		d.TaskDeletes = append(d.TaskDeletes, id)
	}

	if current.Preference != nil {
		if prev.preference == nil || prev.preference.ShowCompleted != current.Preference.ShowCompleted {
			p := *current.Preference
			d.Preference = &p
		}
	}

	sort.Slice(d.ListUpserts, func(i, j int) bool { return d.ListUpserts[i].ID < d.ListUpserts[j].ID })
	sort.Slice(d.CategoryUpserts, func(i, j int) bool { return d.CategoryUpserts[i].ID < d.CategoryUpserts[j].ID })
	sort.Slice(d.TaskUpserts, func(i, j int) bool { return d.TaskUpserts[i].ID < d.TaskUpserts[j].ID })
	sort.Strings(d.ListDeletes)
	sort.Strings(d.CategoryDeletes)
	sort.Strings(d.TaskDeletes)

	return d
}
