package sync

import (
	"context"

	"github.com/kwestin/listsync/internal/schema"
)

// RemoteStore is the bulk row interface the engine needs from the remote
// store. internal/remote provides the HTTP implementation; tests substitute
// in-memory fakes.
//
// Every call is all-or-nothing for the rows it carries: either the whole
// batch is applied or the call returns an error and none of it is. Upserts
// overwrite whole records (last write wins); deletes of already-absent ids
// succeed silently. Upsert and delete calls must tolerate empty input and
// do nothing.
//
// Errors are not classified here. Transient transport failures and remote
// rejections (constraint or authorization) are handled identically by the
// engine: the push is abandoned and retried on a later cycle.
type RemoteStore interface {
	// FetchLists returns every list row belonging to the user.
	FetchLists(ctx context.Context, userID string) ([]schema.ListRow, error)

	// FetchCategories returns every category row belonging to the user.
	FetchCategories(ctx context.Context, userID string) ([]schema.CategoryRow, error)

	// FetchTasks returns every task row belonging to the user.
	FetchTasks(ctx context.Context, userID string) ([]schema.TaskRow, error)

	// FetchPreference returns the user's preference record, or nil if the
	// user has never written one. A missing record is not an error.
	FetchPreference(ctx context.Context, userID string) (*schema.PreferenceRow, error)

	// UpsertLists writes the given list rows, overwriting by id.
	UpsertLists(ctx context.Context, rows []schema.ListRow) error

	// UpsertCategories writes the given category rows, overwriting by id.
	UpsertCategories(ctx context.Context, rows []schema.CategoryRow) error

	// UpsertTasks writes the given task rows, overwriting by id.
	UpsertTasks(ctx context.Context, rows []schema.TaskRow) error

	// UpsertPreference writes the user's preference record.
	UpsertPreference(ctx context.Context, row schema.PreferenceRow) error

	// DeleteLists removes the identified list rows. The store cascades the
	// removal to the lists' categories and tasks.
	DeleteLists(ctx context.Context, ids []string) error

	// DeleteCategories removes the identified category rows. The store nulls
	// the category reference of tasks that pointed at them.
	DeleteCategories(ctx context.Context, ids []string) error

	// DeleteTasks removes the identified task rows. The store cascades the
	// removal to their child tasks.
	DeleteTasks(ctx context.Context, ids []string) error
}
