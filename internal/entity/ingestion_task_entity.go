package entity

import "time"

const (
	TaskStatePending  = "PENDING"
	TaskStateFinished = "FINISHED"
	TaskStateFailed   = "FAILED"

	DocumentStatusPending = "PENDING"
	DocumentStatusSuccess = "SUCCESS"
	DocumentStatusFailed  = "FAILED"
)

// TaskDocument tracks one document inside an ingestion task.
type TaskDocument struct {
	DocumentName string
	Status       string
	Error        string
}

// IngestionTask is the in-memory progress record for one upload batch.
type IngestionTask struct {
	Id             string
	CollectionName string
	State          string
	Documents      []TaskDocument
	CreatedAt      time.Time
}

// Resolve recomputes the task state from its documents: FAILED when every
// document failed, FINISHED once none are pending, PENDING otherwise.
func (t *IngestionTask) Resolve() {
	pending, failed := 0, 0
	for _, d := range t.Documents {
		switch d.Status {
		case DocumentStatusPending:
			pending++
		case DocumentStatusFailed:
			failed++
		}
	}

	switch {
	case pending > 0:
		t.State = TaskStatePending
	case failed == len(t.Documents) && len(t.Documents) > 0:
		t.State = TaskStateFailed
	default:
		t.State = TaskStateFinished
	}
}
