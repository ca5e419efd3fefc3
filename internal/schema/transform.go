package schema

import (
	"sort"
	"time"

	"github.com/kwestin/listsync/internal/model"
)

// Flatten converts the in-memory model to row form. Each list's embedded
// categories become independent rows carrying the owning list's id. Every
// row is stamped with userID and updated_at = now; creation and completion
// times are normalized to UTC so rows round-trip through JSON exactly.
func Flatten(lists []model.List, tasks []model.Task, prefs model.Preferences, userID string, now time.Time) Rowset {
	now = now.UTC()

	var rs Rowset
	for _, l := range lists {
		rs.Lists = append(rs.Lists, ListRow{
			ID:         l.ID,
			UserID:     userID,
			Name:       l.Name,
			SortOrder:  l.SortOrder,
			ShowOnOpen: l.ShowOnOpen,
			CreatedAt:  l.CreatedAt.UTC(),
			UpdatedAt:  now,
		})
		for _, c := range l.Categories {
			row := CategoryRow{
				ID:        c.ID,
				ListID:    l.ID,
				UserID:    userID,
				Name:      c.Name,
				SortOrder: c.SortOrder,
			}
			if c.Color != nil {
				color := *c.Color
				row.Color = &color
			}
			rs.Categories = append(rs.Categories, row)
		}
	}

	for _, t := range tasks {
		row := TaskRow{
			ID:        t.ID,
			ListID:    t.ListID,
			UserID:    userID,
			Title:     t.Title,
			Completed: t.Completed,
			SortOrder: t.SortOrder,
			CreatedAt: t.CreatedAt.UTC(),
			UpdatedAt: now,
		}
		if t.CategoryID != nil {
			id := *t.CategoryID
			row.CategoryID = &id
		}
		if t.ParentTaskID != nil {
			id := *t.ParentTaskID
			row.ParentTaskID = &id
		}
		if t.CompletedAt != nil {
			done := t.CompletedAt.UTC()
			row.CompletedAt = &done
		}
		rs.Tasks = append(rs.Tasks, row)
	}

	rs.Preference = &PreferenceRow{UserID: userID, ShowCompleted: prefs.ShowCompleted}
	return rs
}

// Assemble is the inverse of Flatten: category rows are grouped under their
// owning list and re-embedded, and everything is put into canonical order.
// Category rows whose list id matches no list row are dropped; the remote
// store's cascades keep that from happening, and the model cannot represent
// an orphan.
func Assemble(rs Rowset) ([]model.List, []model.Task, model.Preferences) {
	catsByList := make(map[string][]model.Category)
	for _, cr := range rs.Categories {
		c := model.Category{
			ID:        cr.ID,
			ListID:    cr.ListID,
			Name:      cr.Name,
			SortOrder: cr.SortOrder,
		}
		if cr.Color != nil {
			color := *cr.Color
			c.Color = &color
		}
		catsByList[cr.ListID] = append(catsByList[cr.ListID], c)
	}

	lists := make([]model.List, 0, len(rs.Lists))
	for _, lr := range rs.Lists {
		cats := catsByList[lr.ID]
		sort.Slice(cats, func(i, j int) bool {
			if cats[i].SortOrder != cats[j].SortOrder {
				return cats[i].SortOrder < cats[j].SortOrder
			}
			return cats[i].ID < cats[j].ID
		})
		lists = append(lists, model.List{
			ID:         lr.ID,
			Name:       lr.Name,
			SortOrder:  lr.SortOrder,
			ShowOnOpen: lr.ShowOnOpen,
			CreatedAt:  lr.CreatedAt.UTC(),
			Categories: cats,
		})
	}
	SortLists(lists)

	tasks := make([]model.Task, 0, len(rs.Tasks))
	for _, tr := range rs.Tasks {
		t := model.Task{
			ID:        tr.ID,
			ListID:    tr.ListID,
			Title:     tr.Title,
			Completed: tr.Completed,
			SortOrder: tr.SortOrder,
			CreatedAt: tr.CreatedAt.UTC(),
		}
		if tr.CategoryID != nil {
			id := *tr.CategoryID
			t.CategoryID = &id
		}
		if tr.ParentTaskID != nil {
			id := *tr.ParentTaskID
			t.ParentTaskID = &id
		}
		if tr.CompletedAt != nil {
			done := tr.CompletedAt.UTC()
			t.CompletedAt = &done
		}
		tasks = append(tasks, t)
	}
	SortTasks(tasks)

	prefs := model.DefaultPreferences()
	if rs.Preference != nil {
		prefs.ShowCompleted = rs.Preference.ShowCompleted
	}

	return lists, tasks, prefs
}

// SortLists puts lists into canonical order: (sort_order, created_at, id).
func SortLists(lists []model.List) {
	sort.Slice(lists, func(i, j int) bool {
		if lists[i].SortOrder != lists[j].SortOrder {
			return lists[i].SortOrder < lists[j].SortOrder
		}
		if !lists[i].CreatedAt.Equal(lists[j].CreatedAt) {
			return lists[i].CreatedAt.Before(lists[j].CreatedAt)
		}
		return lists[i].ID < lists[j].ID
	})
}

// SortTasks puts tasks into canonical order: (list_id, sort_order, id).
func SortTasks(tasks []model.Task) {
	sort.Slice(tasks, func(i, j int) bool {
		if tasks[i].ListID != tasks[j].ListID {
			return tasks[i].ListID < tasks[j].ListID
		}
		if tasks[i].SortOrder != tasks[j].SortOrder {
			return tasks[i].SortOrder < tasks[j].SortOrder
		}
		return tasks[i].ID < tasks[j].ID
	})
}
