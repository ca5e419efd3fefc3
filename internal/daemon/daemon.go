package daemon

import (
	"context"
	"fmt"
	"log"
	"os"
	gosync "sync"
	"sync/atomic"
	"time"

	"github.com/kwestin/listsync/internal/cache"
	"github.com/kwestin/listsync/internal/schema"
	"github.com/kwestin/listsync/internal/state"
	appsync "github.com/kwestin/listsync/internal/sync"
)

// Feed delivers change notifications from the remote store. It is satisfied
// by remote.Subscription; tests substitute channel-backed fakes.
type Feed interface {
	// Events returns the notification channel. It closes when the feed
	// shuts down.
	Events() <-chan schema.ChangeEvent

	// Close tears the feed down.
	Close()
}

// FeedOpener opens the notification feed for a user. The feed must shut
// down when ctx is canceled.
type FeedOpener func(ctx context.Context, userID string) Feed

// Config holds engine tuning knobs.
type Config struct {
	// Debounce is the quiet period between a local change and its push.
	Debounce time.Duration

	// EchoWindow is how long after a successful push incoming change
	// notifications are assumed to be echoes of that push and ignored.
	EchoWindow time.Duration

	// RefetchDebounce is the quiet period between a change notification
	// and the full refetch it triggers.
	RefetchDebounce time.Duration

	// RetryMax caps the backoff between retries of a failing push.
	RetryMax time.Duration

	// WatchCache enables reloading when another process writes the cache
	// database.
	WatchCache bool

	// Logger for engine activity (default: stderr logger).
	Logger *log.Logger
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Debounce:        500 * time.Millisecond,
		EchoWindow:      3 * time.Second,
		RefetchDebounce: time.Second,
		RetryMax:        5 * time.Minute,
	}
}

// Engine is the synchronization engine. Create one per process with
// NewEngine, then either Start it for long-running use or call RunOnce for
// a single hydrate-and-push cycle.
type Engine struct {
	config *Config
	logger *log.Logger

	state *state.Store
	cache *cache.Store
	store appsync.RemoteStore
	feed  FeedOpener

	// mu serializes every snapshot read-advance sequence: the push path
	// and the adoption path must not interleave.
	mu   gosync.Mutex
	sess *session

	pushTimer    *Debouncer
	refetchTimer *Debouncer
	reloadTimer  *Debouncer

	retryMu    gosync.Mutex
	retryDelay time.Duration

	// lastCacheWrite lets the cache watcher tell this process's writes
	// apart from another process's.
	lastCacheWrite atomic.Int64

	// replaces counts remote adoptions, observable for tests and status.
	replaces atomic.Int64

	phase atomic.Int32
	ready chan struct{}

	ctx    context.Context
	cancel context.CancelFunc
	wg     gosync.WaitGroup
}

// NewEngine wires an engine together. store and feed may be nil and userID
// empty when no account is configured; the engine then stays local-only.
func NewEngine(st *state.Store, ca *cache.Store, store appsync.RemoteStore, feed FeedOpener, userID string, config *Config) *Engine {
	if config == nil {
		config = DefaultConfig()
	}
	if config.Logger == nil {
		config.Logger = log.New(os.Stderr, "[sync] ", log.LstdFlags)
	}

	ctx, cancel := context.WithCancel(context.Background())

	e := &Engine{
		config: config,
		logger: config.Logger,
		state:  st,
		cache:  ca,
		store:  store,
		feed:   feed,
		sess:   newSession(userID),
		ready:  make(chan struct{}),
		ctx:    ctx,
		cancel: cancel,
	}
	e.pushTimer = NewDebouncer(e.flush)
	e.refetchTimer = NewDebouncer(e.refetch)
	e.reloadTimer = NewDebouncer(e.reloadLocal)
	return e
}

// online reports whether a remote store and user are configured.
func (e *Engine) online() bool {
	return e.store != nil && e.sess.userID != ""
}

// Ready returns a channel closed once hydration's remote phase finishes
// (or is skipped). Local data is visible before that, as soon as Start
// returns.
func (e *Engine) Ready() <-chan struct{} {
	return e.ready
}

// Replaces returns how many times remote state has replaced local state.
func (e *Engine) Replaces() int64 {
	return e.replaces.Load()
}

// Start hydrates local data and launches the background loops. It returns
// an error only if the local cache cannot be read; remote problems never
// fail Start.
func (e *Engine) Start() error {
	if err := e.hydrateLocal(e.ctx); err != nil {
		return err
	}

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		e.reconcileRemote(e.ctx)
	}()

	e.wg.Add(1)
	go e.changeLoop()

	if e.feed != nil && e.online() {
		e.wg.Add(1)
		go e.feedLoop()
	}

	if e.config.WatchCache {
		if err := e.watchCache(); err != nil {
			e.logger.Printf("Warning: cache watching disabled: %v", err)
		}
	}

	return nil
}

// Stop cancels the loops and pending timers and waits for them to exit.
// An in-flight push is abandoned; the unsynced flag keeps its work safe
// for the next run.
func (e *Engine) Stop() {
	e.cancel()
	e.pushTimer.Stop()
	e.refetchTimer.Stop()
	e.reloadTimer.Stop()
	e.wg.Wait()
}

// changeLoop is the debounced persistence loop. It waits for hydration to
// settle, then handles every state change: synchronous cache write, mark
// unsynced, restart the push timer.
func (e *Engine) changeLoop() {
	defer e.wg.Done()

	select {
	case <-e.ready:
	case <-e.ctx.Done():
		return
	}

	for {
		select {
		case <-e.ctx.Done():
			return
		case <-e.state.Changed():
			e.persistLocal()
			e.resetRetry()
			e.pushTimer.Schedule(e.config.Debounce)
		}
	}
}

// persistLocal writes the current state to the cache and marks it
// unsynced. Cache failures are logged loudly rather than crashing the
// loop; the state is still in memory and the push still runs.
func (e *Engine) persistLocal() {
	lists, tasks, prefs := e.state.Export()
	if err := e.cache.SaveState(e.ctx, lists, tasks, prefs); err != nil {
		e.logger.Printf("Error: failed to write cache: %v", err)
	}
	if err := e.cache.SetDevicePrefs(e.ctx, e.state.DevicePrefs()); err != nil {
		e.logger.Printf("Error: failed to write device preferences: %v", err)
	}
	if err := e.cache.SetUnsynced(e.ctx, true); err != nil {
		e.logger.Printf("Error: failed to set unsynced flag: %v", err)
	}
	e.lastCacheWrite.Store(time.Now().UnixNano())
}

// flush is the push timer's callback. On failure it reschedules itself
// with growing backoff.
func (e *Engine) flush() {
	if e.ctx.Err() != nil {
		return
	}
	if err := e.push(e.ctx); err != nil {
		delay := e.nextRetryDelay()
		e.logger.Printf("Warning: push failed, retrying in %v: %v", delay, err)
		if e.ctx.Err() == nil {
			e.pushTimer.Schedule(delay)
		}
	}
}

// Flush pushes pending changes immediately, without waiting for the
// debounce. Used on foreground/resume signals and by one-shot commands.
func (e *Engine) Flush(ctx context.Context) error {
	return e.push(ctx)
}

// Commit persists the current state and attempts an immediate push.
// One-shot commands call it after a mutation instead of running the
// debounce loop. The cache write happens either way; the returned error
// reports only the push, which callers may treat as "will sync later".
func (e *Engine) Commit(ctx context.Context) error {
	e.persistLocal()
	return e.push(ctx)
}

// push diffs the current state against the baseline snapshot and applies
// the diff to the remote store. On success the snapshot advances and the
// unsynced flag clears; on failure both stay put so a later cycle retries
// the same work.
func (e *Engine) push(ctx context.Context) error {
	if !e.online() {
		// No account: the flag stays set so a later sign-in can flush.
		return nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	lists, tasks, prefs := e.state.Export()
	rows := schema.Flatten(lists, tasks, prefs, e.sess.userID, time.Now())
	diff := appsync.ComputeDiff(e.sess.snapshot, rows)

	if diff.Empty() {
		if err := e.cache.SetUnsynced(ctx, false); err != nil {
			e.logger.Printf("Error: failed to clear unsynced flag: %v", err)
		}
		return nil
	}

	e.logger.Printf("Pushing %s", diff.String())
	if err := appsync.PushDiff(ctx, e.store, diff); err != nil {
		return fmt.Errorf("failed to push changes: %w", err)
	}

	e.sess.snapshot = appsync.SnapshotOf(rows)
	e.sess.markPushed(time.Now())
	e.resetRetry()
	if err := e.cache.SetUnsynced(ctx, false); err != nil {
		e.logger.Printf("Error: failed to clear unsynced flag: %v", err)
	}
	return nil
}

func (e *Engine) resetRetry() {
	e.retryMu.Lock()
	e.retryDelay = 0
	e.retryMu.Unlock()
}

// nextRetryDelay doubles the backoff on each consecutive failure, starting
// at twice the debounce and capped at RetryMax.
func (e *Engine) nextRetryDelay() time.Duration {
	e.retryMu.Lock()
	defer e.retryMu.Unlock()
	if e.retryDelay == 0 {
		e.retryDelay = 2 * e.config.Debounce
	} else {
		e.retryDelay *= 2
	}
	if e.retryDelay > e.config.RetryMax {
		e.retryDelay = e.config.RetryMax
	}
	return e.retryDelay
}
