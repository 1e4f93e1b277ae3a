package application

import (
	"testing"
	"time"
)

func TestEnsureCreatesInProgress(t *testing.T) {
	t.Parallel()

	ledger := NewLedger()
	record := ledger.Ensure("job-1")

	if record.ID == "" {
		t.Fatalf("expected generated record id")
	}
	if record.PostingID != "job-1" {
		t.Fatalf("expected posting id job-1, got %q", record.PostingID)
	}
	if record.Status != StatusInProgress {
		t.Fatalf("expected status %s, got %s", StatusInProgress, record.Status)
	}
	if record.CreatedAt.IsZero() || record.UpdatedAt.IsZero() {
		t.Fatalf("expected timestamps to be set")
	}

	again := ledger.Ensure("job-1")
	if again.ID != record.ID {
		t.Fatalf("expected Ensure to be idempotent, got new id %q", again.ID)
	}
}

func TestGetReturnsNilForUntouchedPosting(t *testing.T) {
	t.Parallel()

	ledger := NewLedger()
	if record := ledger.Get("job-1"); record != nil {
		t.Fatalf("expected nil for untouched posting, got %+v", record)
	}
}

func TestMutateRefreshesUpdatedAt(t *testing.T) {
	t.Parallel()

	ledger := NewLedger()
	created := ledger.Ensure("job-1")

	time.Sleep(5 * time.Millisecond)
	mutated := ledger.Mutate("job-1", func(r *Record) {
		r.Status = StatusQueued
		r.TaskID = "task-1"
		r.Notes = "queued for execution"
	})

	if mutated.Status != StatusQueued {
		t.Fatalf("expected status %s, got %s", StatusQueued, mutated.Status)
	}
	if mutated.TaskID != "task-1" {
		t.Fatalf("expected task id task-1, got %q", mutated.TaskID)
	}
	if !mutated.UpdatedAt.After(created.UpdatedAt) {
		t.Fatalf("expected UpdatedAt to advance, created=%v mutated=%v", created.UpdatedAt, mutated.UpdatedAt)
	}
	if mutated.CreatedAt != created.CreatedAt {
		t.Fatalf("expected CreatedAt to stay fixed")
	}

	stored := ledger.Get("job-1")
	if stored.Status != StatusQueued || stored.Notes != "queued for execution" {
		t.Fatalf("expected mutation to persist, got %+v", stored)
	}
}

func TestMutateCreatesMissingRecord(t *testing.T) {
	t.Parallel()

	ledger := NewLedger()
	record := ledger.Mutate("job-1", func(r *Record) {
		r.Status = StatusBlocked
	})

	if record.Status != StatusBlocked {
		t.Fatalf("expected status %s, got %s", StatusBlocked, record.Status)
	}
}

func TestSnapshotsAreIsolated(t *testing.T) {
	t.Parallel()

	ledger := NewLedger()
	record := ledger.Ensure("job-1")
	record.Status = StatusFailed

	if stored := ledger.Get("job-1"); stored.Status != StatusInProgress {
		t.Fatalf("mutating a snapshot must not affect the ledger, got %s", stored.Status)
	}
}

func TestByTaskID(t *testing.T) {
	t.Parallel()

	ledger := NewLedger()
	ledger.Ensure("job-1")
	ledger.Mutate("job-2", func(r *Record) {
		r.Status = StatusQueued
		r.TaskID = "task-2"
	})

	record := ledger.ByTaskID("task-2")
	if record == nil || record.PostingID != "job-2" {
		t.Fatalf("expected record for job-2, got %+v", record)
	}

	if record := ledger.ByTaskID("missing"); record != nil {
		t.Fatalf("expected nil for unknown task id, got %+v", record)
	}
	if record := ledger.ByTaskID(""); record != nil {
		t.Fatalf("expected nil for empty task id, got %+v", record)
	}
}

func TestListPreservesCreationOrder(t *testing.T) {
	t.Parallel()

	ledger := NewLedger()
	ledger.Ensure("job-3")
	ledger.Ensure("job-1")
	ledger.Ensure("job-2")

	records := ledger.List()
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}
	for i, want := range []string{"job-3", "job-1", "job-2"} {
		if records[i].PostingID != want {
			t.Fatalf("expected %s at position %d, got %s", want, i, records[i].PostingID)
		}
	}
}
