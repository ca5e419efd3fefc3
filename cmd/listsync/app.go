package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/kwestin/listsync/internal/cache"
	"github.com/kwestin/listsync/internal/config"
	"github.com/kwestin/listsync/internal/daemon"
	"github.com/kwestin/listsync/internal/model"
	"github.com/kwestin/listsync/internal/remote"
	"github.com/kwestin/listsync/internal/state"
	appsync "github.com/kwestin/listsync/internal/sync"
)

func fatal(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}

func warnf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Warning: "+format+"\n", args...)
}

func loadConfig() *config.Config {
	cfg, err := config.Load(configPath)
	if err != nil {
		fatal("%v", err)
	}
	return cfg
}

// engineLogger returns the sink for engine logs: the configured log file
// with rotation, or stderr.
func engineLogger(cfg *config.Config) *log.Logger {
	if cfg.LogFile == "" {
		return log.New(os.Stderr, "[sync] ", log.LstdFlags)
	}
	return log.New(&lumberjack.Logger{
		Filename:   cfg.LogFile,
		MaxSize:    10, // megabytes
		MaxBackups: 3,
		MaxAge:     28, // days
	}, "[sync] ", log.LstdFlags)
}

// buildEngine wires state, cache, remote client, and engine from the
// configuration. withFeed controls the realtime subscription; one-shot
// commands leave it off.
func buildEngine(cfg *config.Config, withFeed bool) (*daemon.Engine, *state.Store, *cache.Store) {
	st := state.NewStore()
	ca, err := cache.Open(cfg.CachePath())
	if err != nil {
		fatal("%v", err)
	}

	logger := engineLogger(cfg)

	var store appsync.RemoteStore
	var opener daemon.FeedOpener
	userID := ""
	if cfg.SignedIn() {
		client := remote.NewClient(cfg.Remote.URL, cfg.Remote.Token, cfg.Remote.UserID, logger)
		store = client
		userID = cfg.Remote.UserID
		if withFeed {
			opener = func(ctx context.Context, user string) daemon.Feed {
				return client.Subscribe(ctx, user)
			}
		}
	}

	engineConfig := daemon.Config{
		Debounce:        time.Duration(cfg.Sync.DebounceMS) * time.Millisecond,
		EchoWindow:      time.Duration(cfg.Sync.EchoWindowMS) * time.Millisecond,
		RefetchDebounce: time.Duration(cfg.Sync.RefetchDebounceMS) * time.Millisecond,
		RetryMax:        time.Duration(cfg.Sync.RetryMaxSec) * time.Second,
		WatchCache:      cfg.Sync.WatchCache,
		Logger:          logger,
	}
	eng := daemon.NewEngine(st, ca, store, opener, userID, &engineConfig)
	return eng, st, ca
}

// oneShot loads local state, applies fn, and commits. The cache write
// always happens; a push failure downgrades to a warning because the
// unsynced flag keeps the change queued for the next sync.
func oneShot(fn func(st *state.Store) error) {
	cfg := loadConfig()
	eng, st, _ := buildEngine(cfg, false)
	defer eng.Stop()

	ctx := context.Background()
	if err := eng.LoadLocal(ctx); err != nil {
		fatal("%v", err)
	}
	if err := fn(st); err != nil {
		fatal("%v", err)
	}

	pushCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	if err := eng.Commit(pushCtx); err != nil {
		warnf("saved locally, sync failed: %v", err)
	}
}

// readOnly loads local state and hands it to fn without committing.
func readOnly(fn func(st *state.Store)) {
	cfg := loadConfig()
	eng, st, _ := buildEngine(cfg, false)
	defer eng.Stop()

	if err := eng.LoadLocal(context.Background()); err != nil {
		fatal("%v", err)
	}
	fn(st)
}

// resolveList finds a list by id, unique id prefix, or name
// (case-insensitive).
func resolveList(st *state.Store, arg string) (model.List, error) {
	lists := st.Lists()
	var prefixed []model.List
	for _, l := range lists {
		if l.ID == arg {
			return l, nil
		}
		if strings.HasPrefix(l.ID, arg) {
			prefixed = append(prefixed, l)
		}
	}
	if len(prefixed) == 1 {
		return prefixed[0], nil
	}
	if len(prefixed) > 1 {
		return model.List{}, fmt.Errorf("list id %q is ambiguous", arg)
	}

	var named []model.List
	for _, l := range lists {
		if strings.EqualFold(l.Name, arg) {
			named = append(named, l)
		}
	}
	if len(named) == 1 {
		return named[0], nil
	}
	if len(named) > 1 {
		return model.List{}, fmt.Errorf("list name %q is ambiguous, use the id", arg)
	}
	return model.List{}, fmt.Errorf("no list matches %q", arg)
}

// resolveTask finds a task by id, unique id prefix, or title
// (case-insensitive).
func resolveTask(st *state.Store, arg string) (model.Task, error) {
	tasks := st.Tasks()
	var prefixed []model.Task
	for _, t := range tasks {
		if t.ID == arg {
			return t, nil
		}
		if strings.HasPrefix(t.ID, arg) {
			prefixed = append(prefixed, t)
		}
	}
	if len(prefixed) == 1 {
		return prefixed[0], nil
	}
	if len(prefixed) > 1 {
		return model.Task{}, fmt.Errorf("task id %q is ambiguous", arg)
	}

	var titled []model.Task
	for _, t := range tasks {
		if strings.EqualFold(t.Title, arg) {
			titled = append(titled, t)
		}
	}
	if len(titled) == 1 {
		return titled[0], nil
	}
	if len(titled) > 1 {
		return model.Task{}, fmt.Errorf("task title %q is ambiguous, use the id", arg)
	}
	return model.Task{}, fmt.Errorf("no task matches %q", arg)
}

// resolveCategory finds a category by id, unique id prefix, or name. A
// non-empty listID restricts the search to that list.
func resolveCategory(st *state.Store, listID, arg string) (model.Category, error) {
	var all []model.Category
	for _, l := range st.Lists() {
		if listID != "" && l.ID != listID {
			continue
		}
		all = append(all, l.Categories...)
	}

	var prefixed []model.Category
	for _, c := range all {
		if c.ID == arg {
			return c, nil
		}
		if strings.HasPrefix(c.ID, arg) {
			prefixed = append(prefixed, c)
		}
	}
	if len(prefixed) == 1 {
		return prefixed[0], nil
	}
	if len(prefixed) > 1 {
		return model.Category{}, fmt.Errorf("category id %q is ambiguous", arg)
	}

	var named []model.Category
	for _, c := range all {
		if strings.EqualFold(c.Name, arg) {
			named = append(named, c)
		}
	}
	if len(named) == 1 {
		return named[0], nil
	}
	if len(named) > 1 {
		return model.Category{}, fmt.Errorf("category name %q is ambiguous, use the id", arg)
	}
	return model.Category{}, fmt.Errorf("no category matches %q", arg)
}

func parseOnOff(arg string) (bool, error) {
	switch strings.ToLower(arg) {
	case "on", "true", "yes":
		return true, nil
	case "off", "false", "no":
		return false, nil
	}
	return false, fmt.Errorf("expected on or off, got %q", arg)
}
