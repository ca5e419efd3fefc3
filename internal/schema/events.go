package schema

// Collection names used in API paths and change-feed notifications.
const (
	CollectionLists       = "lists"
	CollectionCategories  = "categories"
	CollectionTasks       = "tasks"
	CollectionPreferences = "preferences"
)

// ChangeKind classifies a change-feed notification.
type ChangeKind string

const (
	// ChangeUpsert and ChangeDelete are sent by the remote store after a
	// mutating call touches a collection.
	ChangeUpsert ChangeKind = "upsert"
	ChangeDelete ChangeKind = "delete"

	// ChangeResync is synthesized by the feed client after a (re)connect so
	// consumers refetch anything missed while disconnected. It never appears
	// on the wire from the server.
	ChangeResync ChangeKind = "resync"
)

// ChangeEvent is one change-feed notification. The feed carries no row data;
// consumers refetch to learn what changed.
type ChangeEvent struct {
	Collection string     `json:"collection"`
	Kind       ChangeKind `json:"kind"`
}
