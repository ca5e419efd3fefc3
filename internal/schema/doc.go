// Package schema defines the row-shaped wire form of the user's data and the
// pure transformer between it and the in-memory model.
//
// # Overview
//
// In memory, Categories live embedded inside their owning List and Tasks
// reference Lists by id. The remote store is relational: every entity is an
// independent row with explicit foreign keys. This package owns that boundary.
// Flatten turns the model into rows; Assemble turns rows back into the model.
// Both directions are pure and total on well-formed input.
//
// # Row Shapes
//
// Rows round-trip exactly through JSON:
//
//	{
//	  "id": "6b2f...",
//	  "user_id": "u-42",
//	  "name": "Groceries",
//	  "sort_order": 0,
//	  "show_on_open": true,
//	  "created_at": "2026-02-11T08:30:00Z",
//	  "updated_at": "2026-02-11T09:12:41Z"
//	}
//
// Category rows carry the owning list id; task rows carry optional category
// and parent-task references. The preference row is one record per user.
//
// # Equality
//
// ListRow and TaskRow equality excludes updated_at: the field is restamped on
// every flatten and carries no signal about whether a row actually changed.
// CategoryRow and PreferenceRow carry no timestamp and compare all fields.
//
// # Ordering
//
// Assemble produces canonical ordering: lists by (sort_order, created_at,
// id), categories by (sort_order, id) within their list, tasks by (list_id,
// sort_order, id). Consumers that compare whole states rely on this.
package schema
