// Package daemon runs the synchronization engine: the long-lived component
// that keeps the in-memory state, the local cache, and the remote store
// eventually consistent.
//
// # Overview
//
// Engine ties the pieces together. Start performs two-phase hydration:
// local cache data becomes visible immediately, then a background
// reconciliation flushes offline changes, fetches the remote state, and
// decides between first-time migration, adopting the remote copy, or
// settling. After hydration three loops run:
//
//   - the persistence loop, which writes every state change to the cache
//     synchronously and pushes a coalesced diff after a quiet period
//   - the realtime loop, which consumes change notifications, suppresses
//     echoes of this device's own pushes, and refetches on real changes
//   - optionally a cache watcher, which picks up writes made to the cache
//     by other processes (for example one-shot CLI commands) and folds
//     them in
//
// The engine owns the diff baseline snapshot and the persisted unsynced
// flag for its lifetime. Snapshot advances happen under one mutex so the
// push path and the adoption path never interleave.
//
// # Failure Model
//
// Cache failures are surfaced loudly: at startup they abort Start, at
// runtime they are logged as errors. Remote read failures fall back to
// local data with a warning. Remote write failures leave the unsynced
// flag set and are retried with growing backoff; the flag also survives
// process death, so the next run's hydration flushes what this one could
// not.
package daemon
