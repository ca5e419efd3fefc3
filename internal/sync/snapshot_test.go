package sync

import (
	"testing"

	"github.com/kwestin/listsync/internal/schema"
)

func TestSnapshotRowsetRoundTrip(t *testing.T) {
	rs := schema.Rowset{
		Lists:      []schema.ListRow{listRow("l1", "A", 0), listRow("l2", "B", 1)},
		Categories: []schema.CategoryRow{catRow("c1", "l1", "Cat", 0)},
		Tasks:      []schema.TaskRow{taskRow("t1", "l1", "Task", 0)},
		Preference: pref(true),
	}

	s := SnapshotOf(rs)
	got := s.Rowset()

	assertSameRows(t, got, rs)
	if got.Preference == nil || !got.Preference.ShowCompleted || got.Preference.UserID != "u1" {
		t.Errorf("preference did not round-trip: %+v", got.Preference)
	}
	if got.Lists[0].ID != "l1" || got.Lists[1].ID != "l2" {
		t.Errorf("rowset not in id order: %v, %v", got.Lists[0].ID, got.Lists[1].ID)
	}
}

func TestSnapshotEmpty(t *testing.T) {
	if !NewSnapshot().Empty() {
		t.Error("new snapshot must be empty")
	}

	withPref := SnapshotOf(schema.Rowset{Preference: pref(false)})
	if !withPref.Empty() {
		t.Error("a lone preference record must not make a snapshot non-empty")
	}

	withRows := SnapshotOf(schema.Rowset{Lists: []schema.ListRow{listRow("l1", "A", 0)}})
	if withRows.Empty() {
		t.Error("snapshot with rows must not be empty")
	}
}

func TestSnapshotCopiesPreference(t *testing.T) {
	p := pref(true)
	s := SnapshotOf(schema.Rowset{Preference: p})

	p.ShowCompleted = false

	if got := s.Rowset().Preference; got == nil || !got.ShowCompleted {
		t.Errorf("snapshot aliased the source preference row: %+v", got)
	}
}
