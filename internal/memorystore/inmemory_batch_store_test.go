package memorystore

import (
	"fmt"
	"testing"
	"time"

	"github.com/urlstatus/checkflow/backend/internal/batches"
	"github.com/urlstatus/checkflow/backend/internal/checker"
)

func newBatch(id string) *batches.Batch {
	now := time.Now().UTC()
	return &batches.Batch{
		BatchID:   id,
		BatchName: "batch " + id,
		Status:    batches.StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestCreateAndGetBatch(t *testing.T) {
	store := NewInMemoryBatchStore()
	if err := store.CreateBatch(newBatch("b1")); err != nil {
		t.Fatalf("CreateBatch: %v", err)
	}
	if err := store.CreateBatch(newBatch("b1")); err == nil {
		t.Error("expected duplicate ID error")
	}
	got, err := store.GetBatch("b1")
	if err != nil {
		t.Fatalf("GetBatch: %v", err)
	}
	if got.BatchName != "batch b1" {
		t.Errorf("name = %q", got.BatchName)
	}
	if _, err := store.GetBatch("missing"); err == nil {
		t.Error("expected not-found error")
	}
}

func TestItemsPreserveInsertionOrder(t *testing.T) {
	store := NewInMemoryBatchStore()
	if err := store.CreateBatch(newBatch("b1")); err != nil {
		t.Fatalf("CreateBatch: %v", err)
	}

	var added []*batches.BatchItem
	for i := 0; i < 5; i++ {
		added = append(added, &batches.BatchItem{
			URL:    fmt.Sprintf("http://site-%d.example", i),
			Status: batches.StatusPending,
		})
	}
	if err := store.AddBatchItems("b1", added); err != nil {
		t.Fatalf("AddBatchItems: %v", err)
	}

	items, err := store.GetBatchItems("b1")
	if err != nil {
		t.Fatalf("GetBatchItems: %v", err)
	}
	if len(items) != 5 {
		t.Fatalf("got %d items", len(items))
	}
	for i, item := range items {
		want := fmt.Sprintf("http://site-%d.example", i)
		if item.URL != want {
			t.Errorf("item %d = %q, want %q", i, item.URL, want)
		}
	}
}

func TestUpdateBatchItem(t *testing.T) {
	store := NewInMemoryBatchStore()
	if err := store.CreateBatch(newBatch("b1")); err != nil {
		t.Fatalf("CreateBatch: %v", err)
	}
	if err := store.AddBatchItems("b1", []*batches.BatchItem{{URL: "http://a.example", Status: batches.StatusPending}}); err != nil {
		t.Fatalf("AddBatchItems: %v", err)
	}

	updated := &batches.BatchItem{
		URL:    "http://a.example",
		Status: batches.StatusCompleted,
		Result: &checker.CheckResult{URL: "http://a.example", Outcome: checker.OutcomeActiveDirect},
	}
	if err := store.UpdateBatchItem("b1", "http://a.example", updated); err != nil {
		t.Fatalf("UpdateBatchItem: %v", err)
	}
	items, _ := store.GetBatchItems("b1")
	if items[0].Status != batches.StatusCompleted || items[0].Result == nil {
		t.Errorf("item not updated: %+v", items[0])
	}

	if err := store.UpdateBatchItem("b1", "http://missing.example", updated); err == nil {
		t.Error("expected not-found error for unknown URL")
	}
}

func TestListBatchesStatusFilter(t *testing.T) {
	store := NewInMemoryBatchStore()
	running := newBatch("b1")
	running.Status = batches.StatusRunning
	store.CreateBatch(running)
	store.CreateBatch(newBatch("b2"))

	all, err := store.ListBatches(nil)
	if err != nil {
		t.Fatalf("ListBatches: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("all = %d", len(all))
	}
	onlyRunning, _ := store.ListBatches(map[string]string{"status": "running"})
	if len(onlyRunning) != 1 || onlyRunning[0].BatchID != "b1" {
		t.Errorf("filtered = %+v", onlyRunning)
	}
}

func TestDeleteBatchRemovesItems(t *testing.T) {
	store := NewInMemoryBatchStore()
	store.CreateBatch(newBatch("b1"))
	store.AddBatchItems("b1", []*batches.BatchItem{{URL: "http://a.example"}})

	if err := store.DeleteBatch("b1"); err != nil {
		t.Fatalf("DeleteBatch: %v", err)
	}
	if _, err := store.GetBatchItems("b1"); err == nil {
		t.Error("expected error getting items of deleted batch")
	}
	if err := store.DeleteBatch("b1"); err == nil {
		t.Error("expected error deleting twice")
	}
}

func TestLogEventAppendsHistory(t *testing.T) {
	store := NewInMemoryBatchStore()
	store.CreateBatch(newBatch("b1"))

	if err := store.LogEvent("b1", batches.BatchEvent{Action: "Batch Created"}); err != nil {
		t.Fatalf("LogEvent: %v", err)
	}
	got, _ := store.GetBatch("b1")
	if len(got.History) != 1 || got.History[0].Action != "Batch Created" {
		t.Errorf("history = %+v", got.History)
	}
	if got.History[0].Timestamp.IsZero() {
		t.Error("expected timestamp to be filled in")
	}
}
