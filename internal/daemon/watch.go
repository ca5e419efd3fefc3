package daemon

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/kwestin/listsync/internal/model"
)

// watchCache watches the cache database's directory so writes from other
// processes (one-shot CLI commands against the same account) are noticed
// and folded in.
func (e *Engine) watchCache() error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	dir := filepath.Dir(e.cache.Path())
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return fmt.Errorf("failed to watch %s: %w", dir, err)
	}

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		defer watcher.Close()
		e.watchLoop(watcher)
	}()
	return nil
}

func (e *Engine) watchLoop(watcher *fsnotify.Watcher) {
	base := filepath.Base(e.cache.Path())

	for {
		select {
		case <-e.ctx.Done():
			return

		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			// The WAL and SHM sidecars share the database's basename.
			if !strings.HasPrefix(filepath.Base(event.Name), base) {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if e.wroteRecently() {
				continue
			}
			e.reloadTimer.Schedule(e.config.RefetchDebounce)

		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			e.logger.Printf("Warning: cache watcher error: %v", err)
		}
	}
}

// wroteRecently reports whether this process wrote the cache within the
// echo window, in which case a file event is our own write coming back.
func (e *Engine) wroteRecently() bool {
	ns := e.lastCacheWrite.Load()
	if ns == 0 {
		return false
	}
	return time.Since(time.Unix(0, ns)) < e.config.EchoWindow
}

// reloadLocal re-reads the cache after another process wrote it, folds the
// changes into memory, and schedules a push so they reach the remote store
// too.
func (e *Engine) reloadLocal() {
	if e.ctx.Err() != nil {
		return
	}

	lists, err := e.cache.Lists(e.ctx)
	if err != nil {
		e.logger.Printf("Warning: failed to reload cache: %v", err)
		return
	}
	tasks, err := e.cache.Tasks(e.ctx)
	if err != nil {
		e.logger.Printf("Warning: failed to reload cache: %v", err)
		return
	}
	prefs, err := e.cache.Preferences(e.ctx)
	if err != nil {
		e.logger.Printf("Warning: failed to reload cache: %v", err)
		return
	}

	curLists, curTasks, curPrefs := e.state.Export()
	if model.ListsEqual(curLists, lists) && model.TasksEqual(curTasks, tasks) && curPrefs == prefs {
		return
	}

	e.state.Replace(lists, tasks, prefs)
	e.logger.Println("Reloaded cache written by another process")
	e.resetRetry()
	e.pushTimer.Schedule(e.config.Debounce)
}
