package sync

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// PushDiff applies a diff to the remote store in foreign-key dependency
// order: deletes run children before parents, upserts run parents before
// children. Task and category deletes have no dependency on each other and
// run concurrently, as do the task and preference upserts.
//
// On failure the remaining phases are skipped and nothing is rolled back;
// the remote store is the durable record of what succeeded. PushDiff is
// stateless; on success the caller advances its Snapshot.
func PushDiff(ctx context.Context, store RemoteStore, diff Diff) error {
	g, gctx := errgroup.WithContext(ctx)
	if len(diff.TaskDeletes) > 0 {
		g.Go(func() error { return store.DeleteTasks(gctx, diff.TaskDeletes) })
	}
	if len(diff.CategoryDeletes) > 0 {
		g.Go(func() error { return store.DeleteCategories(gctx, diff.CategoryDeletes) })
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("failed to delete tasks and categories: %w", err)
	}

	if len(diff.ListDeletes) > 0 {
		if err := store.DeleteLists(ctx, diff.ListDeletes); err != nil {
			return fmt.Errorf("failed to delete lists: %w", err)
		}
	}

	if len(diff.ListUpserts) > 0 {
		if err := store.UpsertLists(ctx, diff.ListUpserts); err != nil {
			return fmt.Errorf("failed to upsert lists: %w", err)
		}
	}
	if len(diff.CategoryUpserts) > 0 {
		if err := store.UpsertCategories(ctx, diff.CategoryUpserts); err != nil {
			return fmt.Errorf("failed to upsert categories: %w", err)
		}
	}

	g, gctx = errgroup.WithContext(ctx)
	if len(diff.TaskUpserts) > 0 {
		g.Go(func() error { return store.UpsertTasks(gctx, diff.TaskUpserts) })
	}
	if diff.Preference != nil {
		pref := *diff.Preference
		g.Go(func() error { return store.UpsertPreference(gctx, pref) })
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("failed to upsert tasks and preference: %w", err)
	}

	return nil
}
