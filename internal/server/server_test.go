package server

import (
	"context"
	"io"
	"log"
	"os"
	"testing"
	"time"

	"github.com/kwestin/listsync/internal/remote"
	"github.com/kwestin/listsync/internal/schema"
	appsync "github.com/kwestin/listsync/internal/sync"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	config := &Config{
		Port:   0, // Use random available port
		Token:  "secret",
		Logger: log.New(os.Stderr, "[test] ", log.LstdFlags),
	}
	server := NewServer(config)
	if err := server.Start(); err != nil {
		t.Fatalf("Failed to start server: %v", err)
	}
	t.Cleanup(func() { server.Stop() })

	time.Sleep(100 * time.Millisecond)
	return server
}

func newTestClient(t *testing.T, server *Server, userID string) *remote.Client {
	t.Helper()
	return remote.NewClient(server.URL(), "secret", userID, log.New(io.Discard, "", 0))
}

func seedRows(t *testing.T, ctx context.Context, c *remote.Client, userID string) schema.Rowset {
	t.Helper()
	now := time.Now().UTC()
	rs := schema.Rowset{
		Lists: []schema.ListRow{
			{ID: "l1", UserID: userID, Name: "Groceries", SortOrder: 0, CreatedAt: now, UpdatedAt: now},
		},
		Categories: []schema.CategoryRow{
			{ID: "c1", ListID: "l1", UserID: userID, Name: "Produce", SortOrder: 0},
		},
		Tasks: []schema.TaskRow{
			{ID: "t1", ListID: "l1", UserID: userID, Title: "Buy milk", SortOrder: 0, CreatedAt: now, UpdatedAt: now},
			{ID: "t2", ListID: "l1", UserID: userID, Title: "Prep dinner", ParentTaskID: strPtr("t1"), SortOrder: 1, CreatedAt: now, UpdatedAt: now},
		},
		Preference: &schema.PreferenceRow{UserID: userID, ShowCompleted: true},
	}
	if err := c.UpsertLists(ctx, rs.Lists); err != nil {
		t.Fatalf("UpsertLists failed: %v", err)
	}
	if err := c.UpsertCategories(ctx, rs.Categories); err != nil {
		t.Fatalf("UpsertCategories failed: %v", err)
	}
	if err := c.UpsertTasks(ctx, rs.Tasks); err != nil {
		t.Fatalf("UpsertTasks failed: %v", err)
	}
	if err := c.UpsertPreference(ctx, *rs.Preference); err != nil {
		t.Fatalf("UpsertPreference failed: %v", err)
	}
	return rs
}

func strPtr(s string) *string { return &s }

func TestServerStartStop(t *testing.T) {
	server := newTestServer(t)
	if server.Addr() == "" {
		t.Fatal("Server address is empty")
	}
}

func TestPushAndFetchRoundTrip(t *testing.T) {
	server := newTestServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	c := newTestClient(t, server, "u1")
	want := seedRows(t, ctx, c, "u1")

	got, err := appsync.FetchAll(ctx, c, "u1")
	if err != nil {
		t.Fatalf("FetchAll failed: %v", err)
	}
	if len(got.Lists) != 1 || len(got.Categories) != 1 || len(got.Tasks) != 2 {
		t.Fatalf("Unexpected shape after round trip: %s", got.String())
	}
	if !got.Lists[0].Equal(want.Lists[0]) {
		t.Errorf("List mismatch: got %+v", got.Lists[0])
	}
	if !got.Categories[0].Equal(want.Categories[0]) {
		t.Errorf("Category mismatch: got %+v", got.Categories[0])
	}
	if got.Preference == nil || !got.Preference.ShowCompleted {
		t.Errorf("Preference mismatch: got %+v", got.Preference)
	}
}

func TestUpsertRejectsInvalidRows(t *testing.T) {
	server := newTestServer(t)
	ctx := context.Background()
	c := newTestClient(t, server, "u1")

	err := c.UpsertLists(ctx, []schema.ListRow{{ID: "l1"}})
	if err == nil {
		t.Fatal("Expected rejection for row without user_id")
	}
	if remote.IsAuthError(err) {
		t.Errorf("Validation failure should not be an auth error: %v", err)
	}

	rows, err := c.FetchLists(ctx, "u1")
	if err != nil {
		t.Fatalf("FetchLists failed: %v", err)
	}
	if len(rows) != 0 {
		t.Errorf("Rejected row was stored: %+v", rows)
	}
}

func TestRejectedBatchLeavesStoreUntouched(t *testing.T) {
	server := newTestServer(t)
	ctx := context.Background()
	c := newTestClient(t, server, "u1")
	seedRows(t, ctx, c, "u1")

	now := time.Now().UTC()
	batch := []schema.TaskRow{
		{ID: "t9", ListID: "l1", UserID: "u1", Title: "Fine", CreatedAt: now, UpdatedAt: now},
		{ID: "t10", ListID: "ghost", UserID: "u1", Title: "Bad list ref", CreatedAt: now, UpdatedAt: now},
	}
	if err := c.UpsertTasks(ctx, batch); err == nil {
		t.Fatal("Expected rejection for task referencing unknown list")
	}

	rows, err := c.FetchTasks(ctx, "u1")
	if err != nil {
		t.Fatalf("FetchTasks failed: %v", err)
	}
	for _, row := range rows {
		if row.ID == "t9" || row.ID == "t10" {
			t.Errorf("Partial batch was applied: found %s", row.ID)
		}
	}
}

func TestDeleteListCascades(t *testing.T) {
	server := newTestServer(t)
	ctx := context.Background()
	c := newTestClient(t, server, "u1")
	seedRows(t, ctx, c, "u1")

	if err := c.DeleteLists(ctx, []string{"l1"}); err != nil {
		t.Fatalf("DeleteLists failed: %v", err)
	}

	got, err := appsync.FetchAll(ctx, c, "u1")
	if err != nil {
		t.Fatalf("FetchAll failed: %v", err)
	}
	if !got.Empty() {
		t.Errorf("Expected cascade to empty the store, got %s", got.String())
	}
}

func TestDeleteParentCascadesToSubtasks(t *testing.T) {
	server := newTestServer(t)
	ctx := context.Background()
	c := newTestClient(t, server, "u1")
	seedRows(t, ctx, c, "u1")

	if err := c.DeleteTasks(ctx, []string{"t1"}); err != nil {
		t.Fatalf("DeleteTasks failed: %v", err)
	}

	rows, err := c.FetchTasks(ctx, "u1")
	if err != nil {
		t.Fatalf("FetchTasks failed: %v", err)
	}
	if len(rows) != 0 {
		t.Errorf("Expected subtask t2 removed with its parent, got %+v", rows)
	}
}

func TestDeleteAbsentIDsSucceeds(t *testing.T) {
	server := newTestServer(t)
	ctx := context.Background()
	c := newTestClient(t, server, "u1")

	if err := c.DeleteTasks(ctx, []string{"never-existed"}); err != nil {
		t.Errorf("Delete of absent ids should be a no-op, got %v", err)
	}
}

func TestMissingPreferenceIs404(t *testing.T) {
	server := newTestServer(t)
	ctx := context.Background()
	c := newTestClient(t, server, "u1")

	row, err := c.FetchPreference(ctx, "u1")
	if err != nil {
		t.Fatalf("FetchPreference failed: %v", err)
	}
	if row != nil {
		t.Errorf("Expected nil preference for fresh user, got %+v", row)
	}
}

func TestBadTokenIsAuthError(t *testing.T) {
	server := newTestServer(t)
	ctx := context.Background()

	c := remote.NewClient(server.URL(), "wrong", "u1", log.New(io.Discard, "", 0))
	_, err := c.FetchLists(ctx, "u1")
	if !remote.IsAuthError(err) {
		t.Errorf("Expected auth error with bad token, got %v", err)
	}
}

func TestRealtimeNotifiesOnlySubscribedUser(t *testing.T) {
	server := newTestServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	c := newTestClient(t, server, "u1")
	sub := c.Subscribe(ctx, "u1")
	defer sub.Close()

	// The first event after connect is always the synthetic resync.
	select {
	case event := <-sub.Events():
		if event.Kind != schema.ChangeResync {
			t.Fatalf("First event kind = %q, want resync", event.Kind)
		}
	case <-ctx.Done():
		t.Fatal("Timed out waiting for resync event")
	}

	seedRows(t, ctx, c, "u1")

	saw := map[string]bool{}
	deadline := time.After(5 * time.Second)
	for len(saw) < 4 {
		select {
		case event := <-sub.Events():
			if event.Kind != schema.ChangeUpsert {
				t.Fatalf("Unexpected event kind %q", event.Kind)
			}
			saw[event.Collection] = true
		case <-deadline:
			t.Fatalf("Timed out; saw notifications for %v", saw)
		}
	}

	// A write by another user must not reach this subscription.
	now := time.Now().UTC()
	other := newTestClient(t, server, "u2")
	if err := other.UpsertLists(ctx, []schema.ListRow{
		{ID: "ol1", UserID: "u2", Name: "Other", CreatedAt: now, UpdatedAt: now},
	}); err != nil {
		t.Fatalf("UpsertLists for u2 failed: %v", err)
	}

	select {
	case event := <-sub.Events():
		t.Fatalf("Leaked another user's notification: %+v", event)
	case <-time.After(300 * time.Millisecond):
	}
}
