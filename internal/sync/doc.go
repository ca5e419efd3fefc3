// Package sync implements the core of the synchronization engine: the
// snapshot baseline, the diff computation, and the ordered push pipeline
// that moves the remote store from the baseline to the current state.
//
// # Overview
//
// The engine never mirrors individual mutations to the remote store.
// Instead it holds an immutable Snapshot of the last known remote state,
// flattens the current in-memory state into rows, and computes the minimal
// Diff between the two. The Diff is applied by PushDiff in foreign-key
// dependency order; on success the caller advances the Snapshot to the rows
// it just pushed.
//
// # Components
//
//   - Snapshot: identity-keyed copy of last-known-remote rows, the diff
//     baseline. Built once from a Rowset and never mutated.
//   - ComputeDiff: pure function producing per-collection upserts and
//     deletions, with cascade suppression so deletions already implied by a
//     parent's deletion are not re-emitted.
//   - PushDiff: applies a Diff through a RemoteStore, children-before-parents
//     for deletes and parents-before-children for upserts.
//   - FetchAll: one full remote read (three collections plus the preference
//     record) into a Rowset.
//
// # Failure Model
//
// ComputeDiff never fails on well-formed input. PushDiff and FetchAll
// return the first error from the underlying store and perform no rollback;
// because the Snapshot only advances after a fully successful push, a failed
// or half-applied push is retried wholesale by the next diff cycle, and both
// upserts and deletes are safe to reapply.
//
// # Usage
//
//	rs := schema.Flatten(lists, tasks, prefs, userID, time.Now())
//	diff := sync.ComputeDiff(prev, rs)
//	if !diff.Empty() {
//		if err := sync.PushDiff(ctx, store, diff); err != nil {
//			// leave prev in place; retry later
//		} else {
//			prev = sync.SnapshotOf(rs)
//		}
//	}
package sync
