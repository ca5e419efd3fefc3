package daemon

import (
	"context"
	"time"

	"github.com/kwestin/listsync/internal/model"
	"github.com/kwestin/listsync/internal/schema"
	appsync "github.com/kwestin/listsync/internal/sync"
)

// feedLoop consumes the realtime notification feed. Events arriving during
// hydration queue in the feed's channel and are handled once it settles.
func (e *Engine) feedLoop() {
	defer e.wg.Done()

	feed := e.feed(e.ctx, e.sess.userID)
	defer feed.Close()

	select {
	case <-e.ready:
	case <-e.ctx.Done():
		return
	}

	for {
		select {
		case <-e.ctx.Done():
			return
		case event, ok := <-feed.Events():
			if !ok {
				return
			}
			e.handleEvent(event)
		}
	}
}

// handleEvent applies echo suppression and schedules the debounced
// refetch. Resync events (emitted after every reconnect) bypass
// suppression: the device may have missed arbitrary changes while
// disconnected, and its own pending changes are flushed first so the
// refetch cannot clobber them.
func (e *Engine) handleEvent(event schema.ChangeEvent) {
	if event.Kind == schema.ChangeResync {
		if err := e.push(e.ctx); err != nil {
			e.logger.Printf("Warning: flush on reconnect failed: %v", err)
		}
		e.refetchTimer.Schedule(e.config.RefetchDebounce)
		return
	}

	if e.sess.sincePush() < e.config.EchoWindow {
		// Almost certainly this device's own write echoing back.
		return
	}

	e.refetchTimer.Schedule(e.config.RefetchDebounce)
}

// refetch is the refetch timer's callback: fetch everything and adopt it
// if it materially differs from the current state.
func (e *Engine) refetch() {
	if e.ctx.Err() != nil {
		return
	}

	rows, err := appsync.FetchAll(e.ctx, e.store, e.sess.userID)
	if err != nil {
		e.logger.Printf("Warning: refetch failed: %v", err)
		return
	}

	if e.adopt(e.ctx, rows) {
		e.logger.Printf("Adopted remote state: %s", rows.String())
	}
}

// adopt compares fetched remote rows against the current state and, when
// they differ, replaces state and cache with the remote copy. The baseline
// snapshot advances to the fetched rows either way, since they are by
// definition the last known remote state. Returns whether state was
// replaced.
func (e *Engine) adopt(ctx context.Context, rows schema.Rowset) bool {
	lists, tasks, prefs := schema.Assemble(rows)

	e.mu.Lock()
	defer e.mu.Unlock()

	curLists, curTasks, curPrefs := e.state.Export()
	if model.ListsEqual(curLists, lists) && model.TasksEqual(curTasks, tasks) && curPrefs == prefs {
		e.sess.snapshot = appsync.SnapshotOf(rows)
		return false
	}

	e.state.Replace(lists, tasks, prefs)
	if err := e.cache.SaveState(ctx, lists, tasks, prefs); err != nil {
		e.logger.Printf("Error: failed to write cache: %v", err)
	}
	if err := e.cache.SetUnsynced(ctx, false); err != nil {
		e.logger.Printf("Error: failed to clear unsynced flag: %v", err)
	}
	e.lastCacheWrite.Store(time.Now().UnixNano())
	e.sess.snapshot = appsync.SnapshotOf(rows)
	e.replaces.Add(1)
	return true
}
