package daemon

import (
	"context"
	"testing"
	"time"

	"github.com/kwestin/listsync/internal/model"
	"github.com/kwestin/listsync/internal/schema"
)

func TestEchoSuppressionIgnoresOwnWrites(t *testing.T) {
	store := newFakeStore()
	f := newFixture(t, store, nil)
	f.start()

	added, err := f.state.AddList("Mine")
	if err != nil {
		t.Fatalf("AddList failed: %v", err)
	}
	waitFor(t, 3*time.Second, func() bool { return store.hasList(added.ID) },
		"Own change was never pushed")

	before := store.fetchListCalls()
	f.feed.send(schema.CollectionLists, schema.ChangeUpsert)
	time.Sleep(300 * time.Millisecond)

	if got := store.fetchListCalls(); got != before {
		t.Errorf("Refetch ran %d times despite the echo window", got-before)
	}
	if got := f.engine.Replaces(); got != 0 {
		t.Errorf("Replaces = %d, want 0", got)
	}
}

func TestRealtimeEventAdoptsRemoteChange(t *testing.T) {
	store := newFakeStore()
	f := newFixture(t, store, nil)

	shared := model.NewList("Shared", 0)
	f.seedBoth([]model.List{shared}, nil)
	f.start()

	external := model.NewList("From the phone", 1)
	store.load(flattenLists(external))
	f.feed.send(schema.CollectionLists, schema.ChangeUpsert)

	waitFor(t, 3*time.Second, func() bool { return f.engine.Replaces() == 1 },
		"Remote change was never adopted")

	lists := f.state.Lists()
	if len(lists) != 2 {
		t.Fatalf("State has %d lists, want 2", len(lists))
	}
	cached, err := f.cache.Lists(context.Background())
	if err != nil || len(cached) != 2 {
		t.Errorf("Cache was not rewritten on adopt: %v, %d lists", err, len(cached))
	}
}

func TestRefetchWithoutChangesLeavesStateAlone(t *testing.T) {
	store := newFakeStore()
	f := newFixture(t, store, nil)

	shared := model.NewList("Unchanged", 0)
	f.seedBoth([]model.List{shared}, nil)
	f.start()

	before := store.fetchListCalls()
	f.feed.send(schema.CollectionTasks, schema.ChangeDelete)

	waitFor(t, 3*time.Second, func() bool { return store.fetchListCalls() > before },
		"Refetch never ran")
	time.Sleep(100 * time.Millisecond)

	if got := f.engine.Replaces(); got != 0 {
		t.Errorf("Replaces = %d, want 0 for identical remote data", got)
	}
	if lists := f.state.Lists(); len(lists) != 1 || lists[0].ID != shared.ID {
		t.Errorf("State changed on an equal refetch: %+v", lists)
	}
}

func TestRapidEventsCoalesceIntoOneRefetch(t *testing.T) {
	store := newFakeStore()
	f := newFixture(t, store, nil)

	shared := model.NewList("Busy board", 0)
	f.seedBoth([]model.List{shared}, nil)
	f.start()

	before := store.fetchListCalls()
	f.feed.send(schema.CollectionLists, schema.ChangeUpsert)
	f.feed.send(schema.CollectionTasks, schema.ChangeUpsert)
	f.feed.send(schema.CollectionTasks, schema.ChangeDelete)

	waitFor(t, 3*time.Second, func() bool { return store.fetchListCalls() > before },
		"Refetch never ran")
	time.Sleep(200 * time.Millisecond)

	if got := store.fetchListCalls() - before; got != 1 {
		t.Errorf("Refetches = %d, want 1 for a burst of events", got)
	}
}

func TestResyncFlushesPendingChangesFirst(t *testing.T) {
	store := newFakeStore()
	config := testConfig()
	config.Debounce = 5 * time.Second
	f := newFixture(t, store, config)
	f.start()

	added, err := f.state.AddList("Pending")
	if err != nil {
		t.Fatalf("AddList failed: %v", err)
	}
	waitFor(t, 3*time.Second, f.unsynced, "Change was never persisted")

	// The debounce timer is far out, but a resync pushes immediately so
	// the refetch cannot clobber the pending edit.
	f.feed.send("", schema.ChangeResync)

	waitFor(t, 3*time.Second, func() bool { return store.hasList(added.ID) },
		"Resync did not flush the pending change")
	waitFor(t, 3*time.Second, func() bool { return !f.unsynced() },
		"Unsynced flag was not cleared by the resync flush")
}
