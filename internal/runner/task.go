// Package runner hands execution tasks to an external polling executor with
// at-least-once delivery and a fixed retry budget.
package runner

import "time"

// Kind is the type of delegated work.
type Kind string

const (
	KindApply    Kind = "APPLY"
	KindOutreach Kind = "OUTREACH"
)

// Task is a unit of delegated work. The payload is opaque to the queue.
type Task struct {
	ID      string         `json:"task_id"`
	Kind    Kind           `json:"type"`
	Payload map[string]any `json:"payload"`
}

// PendingTask is a Task enriched with queue bookkeeping. LeaseDeadline is
// internal and not part of the executor protocol.
type PendingTask struct {
	Task
	Retries       int       `json:"retries"`
	CreatedAt     time.Time `json:"createdAt"`
	LeaseDeadline time.Time `json:"-"`
}

// ResultStatus is the executor-reported outcome for a task.
type ResultStatus string

const (
	ResultSuccess       ResultStatus = "SUCCESS"
	ResultFailed        ResultStatus = "FAILED"
	ResultNeedsApproval ResultStatus = "NEEDS_APPROVAL"
)

// Result is the reported outcome for a task id.
type Result struct {
	TaskID        string         `json:"task_id"`
	Status        ResultStatus   `json:"status"`
	Data          map[string]any `json:"data,omitempty"`
	ScreenshotURL string         `json:"screenshot_url,omitempty"`
}
