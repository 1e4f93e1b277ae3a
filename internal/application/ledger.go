package application

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Ledger owns all application records. Records are created lazily on the
// first lifecycle-affecting operation and are only mutated through Mutate,
// which refreshes UpdatedAt on every change.
type Ledger struct {
	mu      sync.RWMutex
	records map[string]*Record
	order   []string
}

func NewLedger() *Ledger {
	return &Ledger{
		records: make(map[string]*Record),
	}
}

// Ensure returns the record for the posting, creating it in IN_PROGRESS if it
// does not exist yet.
func (l *Ledger) Ensure(postingID string) *Record {
	l.mu.Lock()
	defer l.mu.Unlock()

	record := l.ensureLocked(postingID)
	snapshot := *record
	return &snapshot
}

// Mutate ensures the record exists, applies fn to it and refreshes UpdatedAt.
// It returns a snapshot of the mutated record.
func (l *Ledger) Mutate(postingID string, fn func(*Record)) *Record {
	l.mu.Lock()
	defer l.mu.Unlock()

	record := l.ensureLocked(postingID)
	fn(record)
	record.UpdatedAt = time.Now().UTC()

	snapshot := *record
	return &snapshot
}

// Get returns the record for the posting, or nil when no lifecycle-affecting
// operation has touched it yet.
func (l *Ledger) Get(postingID string) *Record {
	l.mu.RLock()
	defer l.mu.RUnlock()

	record, ok := l.records[postingID]
	if !ok {
		return nil
	}
	snapshot := *record
	return &snapshot
}

// ByTaskID finds the record linked to the given task id. Used to route
// asynchronous executor results back to the owning application.
func (l *Ledger) ByTaskID(taskID string) *Record {
	if taskID == "" {
		return nil
	}

	l.mu.RLock()
	defer l.mu.RUnlock()

	for _, record := range l.records {
		if record.TaskID == taskID {
			snapshot := *record
			return &snapshot
		}
	}
	return nil
}

// List returns all records in creation order.
func (l *Ledger) List() []*Record {
	l.mu.RLock()
	defer l.mu.RUnlock()

	records := make([]*Record, 0, len(l.order))
	for _, postingID := range l.order {
		snapshot := *l.records[postingID]
		records = append(records, &snapshot)
	}
	return records
}

func (l *Ledger) ensureLocked(postingID string) *Record {
	if record, ok := l.records[postingID]; ok {
		return record
	}

	now := time.Now().UTC()
	record := &Record{
		ID:        uuid.NewString(),
		PostingID: postingID,
		Status:    StatusInProgress,
		CreatedAt: now,
		UpdatedAt: now,
	}
	l.records[postingID] = record
	l.order = append(l.order, postingID)
	return record
}
