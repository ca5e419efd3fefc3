package daemon

import (
	"context"
	"testing"
	"time"

	"github.com/kwestin/listsync/internal/cache"
	"github.com/kwestin/listsync/internal/model"
)

func TestCacheWatcherAdoptsExternalWrite(t *testing.T) {
	store := newFakeStore()
	config := testConfig()
	config.WatchCache = true
	f := newFixture(t, store, config)
	f.start()

	// A second handle on the same database stands in for another process
	// writing the cache behind the engine's back.
	other, err := cache.Open(f.cache.Path())
	if err != nil {
		t.Fatalf("Failed to open second cache handle: %v", err)
	}
	defer other.Close()

	ext := model.NewList("Written elsewhere", 0)
	if err := other.SaveState(context.Background(), []model.List{ext}, nil, model.DefaultPreferences()); err != nil {
		t.Fatalf("Failed to write cache externally: %v", err)
	}

	waitFor(t, 5*time.Second, func() bool {
		lists := f.state.Lists()
		return len(lists) == 1 && lists[0].ID == ext.ID
	}, "External cache write was never picked up")

	// The reload counts as a local change, so it is pushed out too.
	waitFor(t, 5*time.Second, func() bool { return store.hasList(ext.ID) },
		"Reloaded change was never pushed")
}

func TestWatcherIgnoresOwnWrites(t *testing.T) {
	store := newFakeStore()
	config := testConfig()
	config.WatchCache = true
	f := newFixture(t, store, config)
	f.start()

	added, err := f.state.AddList("Written by this engine")
	if err != nil {
		t.Fatalf("AddList failed: %v", err)
	}
	waitFor(t, 3*time.Second, func() bool { return store.hasList(added.ID) },
		"Change was never pushed")

	// Give the watcher a moment; a reload of our own write would be
	// invisible anyway, but it must not race the state either.
	time.Sleep(200 * time.Millisecond)
	if lists := f.state.Lists(); len(lists) != 1 || lists[0].ID != added.ID {
		t.Errorf("State was disturbed by the engine's own cache write: %+v", lists)
	}
}
