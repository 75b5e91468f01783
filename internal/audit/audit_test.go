package audit

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// setupTestStore opens a store in a temp dir.
func setupTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to open audit store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestOpenCreatesDataDir(t *testing.T) {
	dataDir := filepath.Join(t.TempDir(), "nested", "data")

	store, err := Open(dataDir)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer store.Close()

	if _, err := os.Stat(filepath.Join(dataDir, "audit.db")); err != nil {
		t.Errorf("expected audit.db to exist: %v", err)
	}
}

func TestAppendAndRecent(t *testing.T) {
	store := setupTestStore(t)

	records := []*Record{
		{Tool: "get_device_status", DeviceID: "fw1", Success: true, DurationMS: 12},
		{Tool: "create_firewall_policy", DeviceID: "fw1", Args: `{"vdom":"root"}`, Success: false, Error: "auth (401): API request failed: 401", DurationMS: 30},
		{Tool: "list_devices", Success: true},
	}
	for _, rec := range records {
		if err := store.Append(rec); err != nil {
			t.Fatalf("Append() error = %v", err)
		}
		if rec.ID == "" {
			t.Error("Append() must assign an id")
		}
		if rec.CreatedAt.IsZero() {
			t.Error("Append() must assign a timestamp")
		}
	}

	got, err := store.Recent(10)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("Recent() returned %d records, want 3", len(got))
	}

	byTool := make(map[string]Record)
	for _, rec := range got {
		byTool[rec.Tool] = rec
	}
	failed := byTool["create_firewall_policy"]
	if failed.Success || failed.Error == "" || failed.Args != `{"vdom":"root"}` {
		t.Errorf("failed record = %+v", failed)
	}
}

func TestRecentLimit(t *testing.T) {
	store := setupTestStore(t)

	for i := 0; i < 5; i++ {
		if err := store.Append(&Record{Tool: "health_sweep", DeviceID: "fw1", Success: true}); err != nil {
			t.Fatalf("Append() error = %v", err)
		}
	}

	got, err := store.Recent(2)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(got) != 2 {
		t.Errorf("Recent(2) returned %d records", len(got))
	}
}

func TestRecentFailures(t *testing.T) {
	store := setupTestStore(t)

	now := time.Now().UTC()
	records := []*Record{
		{Tool: "a", Success: false, CreatedAt: now.Add(-10 * time.Minute)},
		{Tool: "b", Success: false, CreatedAt: now.Add(-2 * time.Hour)},
		{Tool: "c", Success: true, CreatedAt: now.Add(-5 * time.Minute)},
	}
	for _, rec := range records {
		if err := store.Append(rec); err != nil {
			t.Fatalf("Append() error = %v", err)
		}
	}

	count, err := store.RecentFailures(time.Hour)
	if err != nil {
		t.Fatalf("RecentFailures() error = %v", err)
	}
	if count != 1 {
		t.Errorf("RecentFailures(1h) = %d, want 1", count)
	}
}

func TestConcurrentAppends(t *testing.T) {
	store := setupTestStore(t)

	done := make(chan error, 20)
	for i := 0; i < 20; i++ {
		go func() {
			done <- store.Append(&Record{Tool: "get_arp_table", DeviceID: "fw1", Success: true})
		}()
	}
	for i := 0; i < 20; i++ {
		if err := <-done; err != nil {
			t.Fatalf("concurrent Append() error = %v", err)
		}
	}

	got, err := store.Recent(100)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(got) != 20 {
		t.Errorf("expected 20 records, got %d", len(got))
	}
}
