package sync

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/kwestin/listsync/internal/schema"
)

// FetchAll reads the user's complete remote state: the three entity
// collections and the preference record, fetched concurrently. A missing
// preference record leaves Preference nil; any other failure fails the
// whole fetch.
func FetchAll(ctx context.Context, store RemoteStore, userID string) (schema.Rowset, error) {
	var rs schema.Rowset

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rows, err := store.FetchLists(gctx, userID)
		if err != nil {
			return fmt.Errorf("failed to fetch lists: %w", err)
		}
		rs.Lists = rows
		return nil
	})
	g.Go(func() error {
		rows, err := store.FetchCategories(gctx, userID)
		if err != nil {
			return fmt.Errorf("failed to fetch categories: %w", err)
		}
		rs.Categories = rows
		return nil
	})
	g.Go(func() error {
		rows, err := store.FetchTasks(gctx, userID)
		if err != nil {
			return fmt.Errorf("failed to fetch tasks: %w", err)
		}
		rs.Tasks = rows
		return nil
	})
	g.Go(func() error {
		pref, err := store.FetchPreference(gctx, userID)
		if err != nil {
			return fmt.Errorf("failed to fetch preference: %w", err)
		}
		rs.Preference = pref
		return nil
	})

	if err := g.Wait(); err != nil {
		return schema.Rowset{}, err
	}
	return rs, nil
}
