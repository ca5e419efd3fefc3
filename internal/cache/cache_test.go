package cache

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/kwestin/listsync/internal/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cache.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Failed to open cache: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestEmptyCacheDefaults(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	lists, err := s.Lists(ctx)
	if err != nil {
		t.Fatalf("Lists failed: %v", err)
	}
	if lists != nil {
		t.Errorf("Expected nil lists from empty cache, got %v", lists)
	}

	tasks, err := s.Tasks(ctx)
	if err != nil {
		t.Fatalf("Tasks failed: %v", err)
	}
	if tasks != nil {
		t.Errorf("Expected nil tasks from empty cache, got %v", tasks)
	}

	prefs, err := s.Preferences(ctx)
	if err != nil {
		t.Fatalf("Preferences failed: %v", err)
	}
	if prefs != model.DefaultPreferences() {
		t.Errorf("Expected default preferences, got %+v", prefs)
	}

	unsynced, err := s.Unsynced(ctx)
	if err != nil {
		t.Fatalf("Unsynced failed: %v", err)
	}
	if unsynced {
		t.Error("Expected unsynced=false on an empty cache")
	}
}

func TestRoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	list := model.NewList("Groceries", 0)
	list.Categories = []model.Category{model.NewCategory(list.ID, "Produce", 0)}
	task := model.NewTask(list.ID, "Buy milk", 0)
	task.CategoryID = model.StringPtr(list.Categories[0].ID)

	if err := s.SetLists(ctx, []model.List{list}); err != nil {
		t.Fatalf("SetLists failed: %v", err)
	}
	if err := s.SetTasks(ctx, []model.Task{task}); err != nil {
		t.Fatalf("SetTasks failed: %v", err)
	}
	if err := s.SetPreferences(ctx, model.Preferences{ShowCompleted: false}); err != nil {
		t.Fatalf("SetPreferences failed: %v", err)
	}

	lists, err := s.Lists(ctx)
	if err != nil {
		t.Fatalf("Lists failed: %v", err)
	}
	if !model.ListsEqual(lists, []model.List{list}) {
		t.Errorf("Lists round trip mismatch: got %+v", lists)
	}

	tasks, err := s.Tasks(ctx)
	if err != nil {
		t.Fatalf("Tasks failed: %v", err)
	}
	if !model.TasksEqual(tasks, []model.Task{task}) {
		t.Errorf("Tasks round trip mismatch: got %+v", tasks)
	}

	prefs, err := s.Preferences(ctx)
	if err != nil {
		t.Fatalf("Preferences failed: %v", err)
	}
	if prefs.ShowCompleted {
		t.Error("Expected ShowCompleted=false after write")
	}
}

func TestUnsyncedFlag(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.SetUnsynced(ctx, true); err != nil {
		t.Fatalf("SetUnsynced failed: %v", err)
	}
	unsynced, err := s.Unsynced(ctx)
	if err != nil {
		t.Fatalf("Unsynced failed: %v", err)
	}
	if !unsynced {
		t.Error("Expected unsynced=true after set")
	}

	if err := s.SetUnsynced(ctx, false); err != nil {
		t.Fatalf("SetUnsynced failed: %v", err)
	}
	unsynced, err = s.Unsynced(ctx)
	if err != nil {
		t.Fatalf("Unsynced failed: %v", err)
	}
	if unsynced {
		t.Error("Expected unsynced=false after clear")
	}
}

func TestPersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.db")
	ctx := context.Background()

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Failed to open cache: %v", err)
	}
	list := model.NewList("Errands", 0)
	if err := s.SaveState(ctx, []model.List{list}, nil, model.DefaultPreferences()); err != nil {
		t.Fatalf("SaveState failed: %v", err)
	}
	if err := s.SetUnsynced(ctx, true); err != nil {
		t.Fatalf("SetUnsynced failed: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	s2, err := Open(path)
	if err != nil {
		t.Fatalf("Failed to reopen cache: %v", err)
	}
	defer s2.Close()

	lists, err := s2.Lists(ctx)
	if err != nil {
		t.Fatalf("Lists failed: %v", err)
	}
	if len(lists) != 1 || lists[0].Name != "Errands" {
		t.Errorf("Expected persisted list after reopen, got %+v", lists)
	}
	unsynced, err := s2.Unsynced(ctx)
	if err != nil {
		t.Fatalf("Unsynced failed: %v", err)
	}
	if !unsynced {
		t.Error("Expected unsynced flag to survive reopen")
	}
}

func TestSaveStateReplacesAll(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	old := model.NewList("Old", 0)
	if err := s.SaveState(ctx, []model.List{old}, nil, model.DefaultPreferences()); err != nil {
		t.Fatalf("SaveState failed: %v", err)
	}

	fresh := model.NewList("Fresh", 0)
	task := model.NewTask(fresh.ID, "Ship it", 0)
	if err := s.SaveState(ctx, []model.List{fresh}, []model.Task{task}, model.Preferences{ShowCompleted: false}); err != nil {
		t.Fatalf("SaveState failed: %v", err)
	}

	lists, err := s.Lists(ctx)
	if err != nil {
		t.Fatalf("Lists failed: %v", err)
	}
	if len(lists) != 1 || lists[0].ID != fresh.ID {
		t.Errorf("Expected SaveState to replace lists, got %+v", lists)
	}
	tasks, err := s.Tasks(ctx)
	if err != nil {
		t.Fatalf("Tasks failed: %v", err)
	}
	if len(tasks) != 1 || tasks[0].ID != task.ID {
		t.Errorf("Expected SaveState to replace tasks, got %+v", tasks)
	}
	prefs, err := s.Preferences(ctx)
	if err != nil {
		t.Fatalf("Preferences failed: %v", err)
	}
	if prefs.ShowCompleted {
		t.Error("Expected SaveState to replace preferences")
	}
}

func TestDevicePrefs(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	prefs, err := s.DevicePrefs(ctx)
	if err != nil {
		t.Fatalf("DevicePrefs failed: %v", err)
	}
	if prefs != (model.DevicePrefs{}) {
		t.Errorf("Expected zero device prefs from empty cache, got %+v", prefs)
	}

	want := model.DevicePrefs{ActiveListID: "list-1", Theme: "dark"}
	if err := s.SetDevicePrefs(ctx, want); err != nil {
		t.Fatalf("SetDevicePrefs failed: %v", err)
	}
	prefs, err = s.DevicePrefs(ctx)
	if err != nil {
		t.Fatalf("DevicePrefs failed: %v", err)
	}
	if prefs != want {
		t.Errorf("Device prefs round trip mismatch: got %+v, want %+v", prefs, want)
	}
}

func TestClear(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	if err := s.SetLists(ctx, []model.List{model.NewList("Doomed", 0)}); err != nil {
		t.Fatalf("SetLists failed: %v", err)
	}
	if err := s.SetUnsynced(ctx, true); err != nil {
		t.Fatalf("SetUnsynced failed: %v", err)
	}
	if err := s.Clear(ctx); err != nil {
		t.Fatalf("Clear failed: %v", err)
	}

	lists, err := s.Lists(ctx)
	if err != nil {
		t.Fatalf("Lists failed: %v", err)
	}
	if lists != nil {
		t.Errorf("Expected no lists after clear, got %+v", lists)
	}
	unsynced, err := s.Unsynced(ctx)
	if err != nil {
		t.Fatalf("Unsynced failed: %v", err)
	}
	if unsynced {
		t.Error("Expected unsynced flag cleared")
	}
}
