// Package application tracks the lifecycle of one application per posting.
package application

import "time"

// Status is the application state machine. SUBMITTED, BLOCKED, FAILED and
// NEEDS_APPROVAL are terminal under the current operations.
type Status string

const (
	StatusInProgress    Status = "IN_PROGRESS"
	StatusQueued        Status = "QUEUED"
	StatusNeedsApproval Status = "NEEDS_APPROVAL"
	StatusSubmitted     Status = "SUBMITTED"
	StatusBlocked       Status = "BLOCKED"
	StatusFailed        Status = "FAILED"
)

// Record is the single application lifecycle entry for a posting.
type Record struct {
	ID            string    `json:"id"`
	PostingID     string    `json:"jobId"`
	Status        Status    `json:"status"`
	TaskID        string    `json:"runnerTaskId,omitempty"`
	ScreenshotURL string    `json:"screenshotUrl,omitempty"`
	Notes         string    `json:"notes,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}
