package state

import (
	"testing"

	"github.com/kwestin/listsync/internal/model"
)

func drainChanged(t *testing.T, s *Store) {
	t.Helper()
	select {
	case <-s.Changed():
	default:
	}
}

func TestAddListAssignsSortOrders(t *testing.T) {
	s := NewStore()
	for _, name := range []string{"Home", "Work", "Errands"} {
		if _, err := s.AddList(name); err != nil {
			t.Fatalf("AddList(%q) failed: %v", name, err)
		}
	}

	lists := s.Lists()
	if len(lists) != 3 {
		t.Fatalf("Expected 3 lists, got %d", len(lists))
	}
	for i, l := range lists {
		if l.SortOrder != i {
			t.Errorf("List %q has sort order %d, want %d", l.Name, l.SortOrder, i)
		}
	}
}

func TestAddListRejectsEmptyName(t *testing.T) {
	s := NewStore()
	if _, err := s.AddList(""); err == nil {
		t.Error("Expected error for empty list name")
	}
}

func TestMoveListRenumbers(t *testing.T) {
	s := NewStore()
	var ids []string
	for _, name := range []string{"A", "B", "C"} {
		l, err := s.AddList(name)
		if err != nil {
			t.Fatalf("AddList failed: %v", err)
		}
		ids = append(ids, l.ID)
	}

	if err := s.MoveList(ids[2], 0); err != nil {
		t.Fatalf("MoveList failed: %v", err)
	}

	lists := s.Lists()
	wantNames := []string{"C", "A", "B"}
	for i, l := range lists {
		if l.Name != wantNames[i] {
			t.Errorf("Position %d: got %q, want %q", i, l.Name, wantNames[i])
		}
		if l.SortOrder != i {
			t.Errorf("List %q has sort order %d, want %d", l.Name, l.SortOrder, i)
		}
	}
}

func TestMoveListClampsPosition(t *testing.T) {
	s := NewStore()
	a, _ := s.AddList("A")
	if _, err := s.AddList("B"); err != nil {
		t.Fatalf("AddList failed: %v", err)
	}

	if err := s.MoveList(a.ID, 99); err != nil {
		t.Fatalf("MoveList failed: %v", err)
	}
	lists := s.Lists()
	if lists[len(lists)-1].ID != a.ID {
		t.Errorf("Expected A at the end after move to position 99")
	}
}

func TestDeleteListCascades(t *testing.T) {
	s := NewStore()
	keep, _ := s.AddList("Keep")
	doomed, _ := s.AddList("Doomed")
	if _, err := s.AddCategory(doomed.ID, "Cat"); err != nil {
		t.Fatalf("AddCategory failed: %v", err)
	}
	if _, err := s.AddTask(doomed.ID, "Task in doomed", nil, nil); err != nil {
		t.Fatalf("AddTask failed: %v", err)
	}
	survivor, err := s.AddTask(keep.ID, "Task in keep", nil, nil)
	if err != nil {
		t.Fatalf("AddTask failed: %v", err)
	}

	if err := s.DeleteList(doomed.ID); err != nil {
		t.Fatalf("DeleteList failed: %v", err)
	}

	nLists, nCats, nTasks := s.Counts()
	if nLists != 1 || nCats != 0 || nTasks != 1 {
		t.Errorf("Counts after cascade: %d lists, %d categories, %d tasks; want 1, 0, 1", nLists, nCats, nTasks)
	}
	tasks := s.Tasks()
	if tasks[0].ID != survivor.ID {
		t.Errorf("Wrong task survived: %+v", tasks[0])
	}
}

func TestRemoveCategoryClearsTaskRefs(t *testing.T) {
	s := NewStore()
	list, _ := s.AddList("Groceries")
	cat, err := s.AddCategory(list.ID, "Produce")
	if err != nil {
		t.Fatalf("AddCategory failed: %v", err)
	}
	task, err := s.AddTask(list.ID, "Apples", model.StringPtr(cat.ID), nil)
	if err != nil {
		t.Fatalf("AddTask failed: %v", err)
	}

	if err := s.RemoveCategory(cat.ID); err != nil {
		t.Fatalf("RemoveCategory failed: %v", err)
	}

	tasks := s.Tasks()
	if len(tasks) != 1 || tasks[0].ID != task.ID {
		t.Fatalf("Task should survive category removal, got %+v", tasks)
	}
	if tasks[0].CategoryID != nil {
		t.Errorf("Expected task category cleared, got %q", *tasks[0].CategoryID)
	}
}

func TestAddTaskValidatesReferences(t *testing.T) {
	s := NewStore()
	a, _ := s.AddList("A")
	b, _ := s.AddList("B")
	catB, err := s.AddCategory(b.ID, "Only in B")
	if err != nil {
		t.Fatalf("AddCategory failed: %v", err)
	}

	if _, err := s.AddTask(a.ID, "Bad category", model.StringPtr(catB.ID), nil); err == nil {
		t.Error("Expected error for category from another list")
	}
	if _, err := s.AddTask("missing", "Bad list", nil, nil); err == nil {
		t.Error("Expected error for unknown list")
	}

	parentB, err := s.AddTask(b.ID, "Parent in B", nil, nil)
	if err != nil {
		t.Fatalf("AddTask failed: %v", err)
	}
	if _, err := s.AddTask(a.ID, "Cross-list child", nil, model.StringPtr(parentB.ID)); err == nil {
		t.Error("Expected error for parent from another list")
	}

	child, err := s.AddTask(b.ID, "Child", nil, model.StringPtr(parentB.ID))
	if err != nil {
		t.Fatalf("AddTask with parent failed: %v", err)
	}
	if _, err := s.AddTask(b.ID, "Grandchild", nil, model.StringPtr(child.ID)); err == nil {
		t.Error("Expected error for second level of nesting")
	}
}

func TestDeleteTaskCascadesSubtasks(t *testing.T) {
	s := NewStore()
	list, _ := s.AddList("Project")
	parent, err := s.AddTask(list.ID, "Parent", nil, nil)
	if err != nil {
		t.Fatalf("AddTask failed: %v", err)
	}
	if _, err := s.AddTask(list.ID, "Child 1", nil, model.StringPtr(parent.ID)); err != nil {
		t.Fatalf("AddTask failed: %v", err)
	}
	if _, err := s.AddTask(list.ID, "Child 2", nil, model.StringPtr(parent.ID)); err != nil {
		t.Fatalf("AddTask failed: %v", err)
	}
	other, err := s.AddTask(list.ID, "Unrelated", nil, nil)
	if err != nil {
		t.Fatalf("AddTask failed: %v", err)
	}

	if err := s.DeleteTask(parent.ID); err != nil {
		t.Fatalf("DeleteTask failed: %v", err)
	}

	tasks := s.Tasks()
	if len(tasks) != 1 || tasks[0].ID != other.ID {
		t.Errorf("Expected only the unrelated task to survive, got %+v", tasks)
	}
}

func TestMoveTaskOnlyAffectsItsList(t *testing.T) {
	s := NewStore()
	a, _ := s.AddList("A")
	b, _ := s.AddList("B")

	var inA []model.Task
	for _, title := range []string{"a0", "a1", "a2"} {
		task, err := s.AddTask(a.ID, title, nil, nil)
		if err != nil {
			t.Fatalf("AddTask failed: %v", err)
		}
		inA = append(inA, task)
	}
	inB, err := s.AddTask(b.ID, "b0", nil, nil)
	if err != nil {
		t.Fatalf("AddTask failed: %v", err)
	}

	if err := s.MoveTask(inA[2].ID, 0); err != nil {
		t.Fatalf("MoveTask failed: %v", err)
	}

	var gotA []string
	for _, task := range s.Tasks() {
		if task.ListID == a.ID {
			gotA = append(gotA, task.Title)
		} else if task.ID == inB.ID && task.SortOrder != 0 {
			t.Errorf("Task in list B was renumbered to %d", task.SortOrder)
		}
	}
	want := []string{"a2", "a0", "a1"}
	for i, title := range want {
		if gotA[i] != title {
			t.Errorf("Position %d in list A: got %q, want %q", i, gotA[i], title)
		}
	}
}

func TestSetTaskCompletedStampsTime(t *testing.T) {
	s := NewStore()
	list, _ := s.AddList("Inbox")
	task, err := s.AddTask(list.ID, "Done soon", nil, nil)
	if err != nil {
		t.Fatalf("AddTask failed: %v", err)
	}

	if err := s.SetTaskCompleted(task.ID, true); err != nil {
		t.Fatalf("SetTaskCompleted failed: %v", err)
	}
	got := s.Tasks()[0]
	if !got.Completed || got.CompletedAt == nil {
		t.Errorf("Expected completed task with timestamp, got %+v", got)
	}

	if err := s.SetTaskCompleted(task.ID, false); err != nil {
		t.Fatalf("SetTaskCompleted failed: %v", err)
	}
	got = s.Tasks()[0]
	if got.Completed || got.CompletedAt != nil {
		t.Errorf("Expected cleared completion, got %+v", got)
	}
}

func TestChangedCoalescesAndReplaceIsSilent(t *testing.T) {
	s := NewStore()

	list, _ := s.AddList("One")
	if _, err := s.AddList("Two"); err != nil {
		t.Fatalf("AddList failed: %v", err)
	}
	if err := s.RenameList(list.ID, "One renamed"); err != nil {
		t.Fatalf("RenameList failed: %v", err)
	}

	select {
	case <-s.Changed():
	default:
		t.Fatal("Expected a pending change signal after mutations")
	}
	select {
	case <-s.Changed():
		t.Fatal("Expected mutations to coalesce into a single signal")
	default:
	}

	s.Replace([]model.List{model.NewList("Adopted", 0)}, nil, model.DefaultPreferences())
	select {
	case <-s.Changed():
		t.Fatal("Replace must not signal the change channel")
	default:
	}
	if got := s.Lists(); len(got) != 1 || got[0].Name != "Adopted" {
		t.Errorf("Replace did not swap state: %+v", got)
	}
}

func TestExportReturnsCopies(t *testing.T) {
	s := NewStore()
	list, _ := s.AddList("Original")
	if _, err := s.AddCategory(list.ID, "Cat"); err != nil {
		t.Fatalf("AddCategory failed: %v", err)
	}
	drainChanged(t, s)

	lists, _, _ := s.Export()
	lists[0].Name = "Mutated"
	lists[0].Categories[0].Name = "Mutated cat"

	fresh := s.Lists()
	if fresh[0].Name != "Original" || fresh[0].Categories[0].Name != "Cat" {
		t.Error("Export leaked internal state")
	}
}
