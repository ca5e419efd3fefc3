package schema

import (
	"testing"
	"time"

	"github.com/kwestin/listsync/internal/model"
)

var (
	testNow     = time.Date(2026, 2, 11, 9, 0, 0, 0, time.UTC)
	testCreated = time.Date(2026, 2, 10, 8, 0, 0, 0, time.UTC)
)

func testModel(t *testing.T) ([]model.List, []model.Task, model.Preferences) {
	t.Helper()

	groceries := model.List{
		ID:         "l1",
		Name:       "Groceries",
		SortOrder:  0,
		ShowOnOpen: true,
		CreatedAt:  testCreated,
		Categories: []model.Category{
			{ID: "c1", ListID: "l1", Name: "Produce", SortOrder: 0},
			{ID: "c2", ListID: "l1", Name: "Dairy", SortOrder: 1, Color: model.StringPtr("#00aaff")},
		},
	}
	home := model.List{
		ID:        "l2",
		Name:      "Home",
		SortOrder: 1,
		CreatedAt: testCreated.Add(time.Minute),
	}

	tasks := []model.Task{
		{ID: "t1", ListID: "l1", CategoryID: model.StringPtr("c1"), Title: "Apples", SortOrder: 0, CreatedAt: testCreated},
		{ID: "t2", ListID: "l1", Title: "Milk", SortOrder: 1, CreatedAt: testCreated,
			Completed: true, CompletedAt: model.TimePtr(testCreated.Add(2 * time.Hour))},
		{ID: "t3", ListID: "l2", Title: "Fix door", SortOrder: 0, CreatedAt: testCreated,
			ParentTaskID: nil},
	}

	return []model.List{groceries, home}, tasks, model.Preferences{ShowCompleted: false}
}

func TestFlattenEmbedsCategoriesAsRows(t *testing.T) {
	lists, tasks, prefs := testModel(t)

	rs := Flatten(lists, tasks, prefs, "u1", testNow)

	if len(rs.Lists) != 2 || len(rs.Categories) != 2 || len(rs.Tasks) != 3 {
		t.Fatalf("unexpected row counts: %s", rs)
	}
	for _, cr := range rs.Categories {
		if cr.ListID != "l1" {
			t.Errorf("category %s: list_id = %s, want l1", cr.ID, cr.ListID)
		}
		if cr.UserID != "u1" {
			t.Errorf("category %s: user_id = %s, want u1", cr.ID, cr.UserID)
		}
	}
	for _, lr := range rs.Lists {
		if !lr.UpdatedAt.Equal(testNow) {
			t.Errorf("list %s: updated_at = %v, want %v", lr.ID, lr.UpdatedAt, testNow)
		}
	}
	if rs.Preference == nil || rs.Preference.UserID != "u1" || rs.Preference.ShowCompleted {
		t.Errorf("unexpected preference row: %+v", rs.Preference)
	}
}

func TestFlattenAssembleRoundTrip(t *testing.T) {
	lists, tasks, prefs := testModel(t)

	rs := Flatten(lists, tasks, prefs, "u1", testNow)
	gotLists, gotTasks, gotPrefs := Assemble(rs)

	if !model.ListsEqual(gotLists, lists) {
		t.Errorf("lists did not round-trip:\n got %+v\nwant %+v", gotLists, lists)
	}
	if !model.TasksEqual(gotTasks, tasks) {
		t.Errorf("tasks did not round-trip:\n got %+v\nwant %+v", gotTasks, tasks)
	}
	if gotPrefs != prefs {
		t.Errorf("preferences did not round-trip: got %+v, want %+v", gotPrefs, prefs)
	}
}

func TestFlattenCopiesPointerFields(t *testing.T) {
	lists, tasks, prefs := testModel(t)

	rs := Flatten(lists, tasks, prefs, "u1", testNow)

	// Mutating the flattened rows must not reach back into the model.
	*rs.Categories[1].Color = "#ffffff"
	*rs.Tasks[0].CategoryID = "other"

	if *lists[0].Categories[1].Color != "#00aaff" {
		t.Error("flatten aliased a category color pointer")
	}
	if *tasks[0].CategoryID != "c1" {
		t.Error("flatten aliased a task category pointer")
	}
}

func TestAssembleCanonicalOrder(t *testing.T) {
	rs := Rowset{
		Lists: []ListRow{
			{ID: "l2", UserID: "u1", Name: "Second", SortOrder: 1, CreatedAt: testCreated},
			{ID: "l1", UserID: "u1", Name: "First", SortOrder: 0, CreatedAt: testCreated},
		},
		Categories: []CategoryRow{
			{ID: "c2", ListID: "l1", UserID: "u1", Name: "B", SortOrder: 1},
			{ID: "c1", ListID: "l1", UserID: "u1", Name: "A", SortOrder: 0},
		},
		Tasks: []TaskRow{
			{ID: "t2", ListID: "l1", UserID: "u1", Title: "Second task", SortOrder: 1, CreatedAt: testCreated},
			{ID: "t1", ListID: "l1", UserID: "u1", Title: "First task", SortOrder: 0, CreatedAt: testCreated},
		},
	}

	lists, tasks, _ := Assemble(rs)

	if lists[0].ID != "l1" || lists[1].ID != "l2" {
		t.Errorf("lists not in sort_order: %s, %s", lists[0].ID, lists[1].ID)
	}
	if lists[0].Categories[0].ID != "c1" || lists[0].Categories[1].ID != "c2" {
		t.Errorf("categories not in sort_order: %+v", lists[0].Categories)
	}
	if tasks[0].ID != "t1" || tasks[1].ID != "t2" {
		t.Errorf("tasks not in sort_order: %s, %s", tasks[0].ID, tasks[1].ID)
	}
}

func TestAssembleDropsOrphanCategories(t *testing.T) {
	rs := Rowset{
		Lists: []ListRow{
			{ID: "l1", UserID: "u1", Name: "Kept", CreatedAt: testCreated},
		},
		Categories: []CategoryRow{
			{ID: "c1", ListID: "l1", UserID: "u1", Name: "Attached"},
			{ID: "c9", ListID: "gone", UserID: "u1", Name: "Orphan"},
		},
	}

	lists, _, _ := Assemble(rs)

	if len(lists) != 1 || len(lists[0].Categories) != 1 {
		t.Fatalf("unexpected assembly: %+v", lists)
	}
	if lists[0].Categories[0].ID != "c1" {
		t.Errorf("kept wrong category: %s", lists[0].Categories[0].ID)
	}
}

func TestAssembleDefaultPreference(t *testing.T) {
	_, _, prefs := Assemble(Rowset{})
	if prefs != model.DefaultPreferences() {
		t.Errorf("expected default preferences, got %+v", prefs)
	}
}
