package daemon

import (
	"context"
	"fmt"
	"time"

	"github.com/kwestin/listsync/internal/schema"
	appsync "github.com/kwestin/listsync/internal/sync"
)

// Phase is where the engine currently is in its startup sequence.
type Phase int32

const (
	PhaseIdle Phase = iota
	PhaseLoadingLocal
	PhaseLocalLoaded
	PhaseReconcilingRemote
	PhaseMigrating
	PhaseAdopting
	PhaseSettled
	PhaseDone
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseLoadingLocal:
		return "loading local"
	case PhaseLocalLoaded:
		return "local loaded"
	case PhaseReconcilingRemote:
		return "reconciling remote"
	case PhaseMigrating:
		return "migrating"
	case PhaseAdopting:
		return "adopting"
	case PhaseSettled:
		return "settled"
	case PhaseDone:
		return "done"
	default:
		return "unknown"
	}
}

// Phase returns the engine's current hydration phase.
func (e *Engine) Phase() Phase {
	return Phase(e.phase.Load())
}

func (e *Engine) setPhase(p Phase) {
	e.phase.Store(int32(p))
}

// hydrateLocal loads the cached state into memory. This is the only
// startup step allowed to fail: a cache that cannot be read means data
// loss is on the table, so the caller must surface it.
func (e *Engine) hydrateLocal(ctx context.Context) error {
	e.setPhase(PhaseLoadingLocal)

	lists, err := e.cache.Lists(ctx)
	if err != nil {
		return fmt.Errorf("failed to load cached lists: %w", err)
	}
	tasks, err := e.cache.Tasks(ctx)
	if err != nil {
		return fmt.Errorf("failed to load cached tasks: %w", err)
	}
	prefs, err := e.cache.Preferences(ctx)
	if err != nil {
		return fmt.Errorf("failed to load cached preferences: %w", err)
	}
	device, err := e.cache.DevicePrefs(ctx)
	if err != nil {
		return fmt.Errorf("failed to load device preferences: %w", err)
	}

	e.state.Replace(lists, tasks, prefs)
	e.state.SetDevicePrefs(device)
	// SetDevicePrefs queues a change signal; nothing actually changed, so
	// swallow it before the persistence loop starts.
	select {
	case <-e.state.Changed():
	default:
	}

	e.setPhase(PhaseLocalLoaded)
	e.logger.Printf("Loaded local state: %d lists, %d tasks", len(lists), len(tasks))
	return nil
}

// reconcileRemote runs the remote half of hydration: flush offline
// changes, fetch the remote state, and settle on a baseline snapshot. It
// never fails; every error path degrades to local-only operation.
func (e *Engine) reconcileRemote(ctx context.Context) {
	defer close(e.ready)

	if !e.online() {
		e.setPhase(PhaseDone)
		e.logger.Println("No account configured; staying local")
		return
	}
	e.setPhase(PhaseReconcilingRemote)

	unsynced, err := e.cache.Unsynced(ctx)
	if err != nil {
		e.logger.Printf("Error: failed to read unsynced flag: %v", err)
	}
	if unsynced {
		// Changes made while the previous process was gone. Push them
		// before looking at the remote so they are not clobbered by
		// adoption. push clears the flag only when it succeeds.
		e.logger.Println("Flushing changes made while offline")
		if err := e.push(ctx); err != nil {
			e.logger.Printf("Warning: offline flush failed, keeping unsynced flag: %v", err)
		}
	}

	rows, err := appsync.FetchAll(ctx, e.store, e.sess.userID)
	if err != nil {
		e.logger.Printf("Warning: could not reach remote store, staying on local data: %v", err)
		e.seedSnapshotFromLocal()
		e.setPhase(PhaseDone)
		return
	}

	localLists, localTasks, _ := e.state.Export()
	localEmpty := len(localLists) == 0 && len(localTasks) == 0

	if rows.Empty() && !localEmpty {
		// First contact with an empty remote: upload everything.
		e.setPhase(PhaseMigrating)
		e.logger.Println("Remote store is empty; migrating local data")
		if err := e.push(ctx); err != nil {
			e.logger.Printf("Warning: migration failed, will retry: %v", err)
			if err := e.cache.SetUnsynced(ctx, true); err != nil {
				e.logger.Printf("Error: failed to set unsynced flag: %v", err)
			}
		}
	} else {
		// Remote has data (or both sides are empty): the remote copy is
		// authoritative. adopt replaces local state only when they
		// materially differ, and seeds the snapshot either way.
		if e.adopt(ctx, rows) {
			e.setPhase(PhaseAdopting)
			e.logger.Printf("Adopted remote state: %s", rows.String())
		} else {
			e.setPhase(PhaseSettled)
		}
	}

	e.setPhase(PhaseDone)
	e.logger.Println("Hydration complete")
}

// seedSnapshotFromLocal initializes the baseline from local data, used
// when the remote store cannot be read. Future diffs then carry only
// changes made from here on; anything older is covered by the unsynced
// flag and the next run's flush.
func (e *Engine) seedSnapshotFromLocal() {
	e.mu.Lock()
	defer e.mu.Unlock()
	lists, tasks, prefs := e.state.Export()
	rows := schema.Flatten(lists, tasks, prefs, e.sess.userID, time.Now())
	e.sess.snapshot = appsync.SnapshotOf(rows)
}

// RunOnce performs a single hydrate-reconcile-push cycle and returns. For
// one-shot commands; an engine is either started or run once, not both.
func (e *Engine) RunOnce(ctx context.Context) error {
	if err := e.hydrateLocal(ctx); err != nil {
		return err
	}
	e.reconcileRemote(ctx)
	if !e.online() {
		return nil
	}
	return e.push(ctx)
}

// LoadLocal hydrates state from the cache and seeds the push baseline
// from it, without contacting the remote store. One-shot data commands
// use it so a following Commit pushes exactly their own mutation,
// deletions included.
func (e *Engine) LoadLocal(ctx context.Context) error {
	if err := e.hydrateLocal(ctx); err != nil {
		return err
	}
	e.seedSnapshotFromLocal()
	e.setPhase(PhaseDone)
	return nil
}
