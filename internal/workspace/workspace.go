// Package workspace orchestrates the application lifecycle: scoring,
// policy-gated decisioning, task dispatch and result routing. It is the only
// writer of application records.
package workspace

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jobber-ai/jobber-core/internal/application"
	"github.com/jobber-ai/jobber-core/internal/autopilot"
	"github.com/jobber-ai/jobber-core/internal/catalog"
	"github.com/jobber-ai/jobber-core/internal/drafts"
	"github.com/jobber-ai/jobber-core/internal/events"
	"github.com/jobber-ai/jobber-core/internal/profile"
	"github.com/jobber-ai/jobber-core/internal/runner"
	"github.com/jobber-ai/jobber-core/internal/scoring"
)

const (
	noteApproved         = "Approved by user for manual-gated flow."
	noteRejected         = "Rejected by user."
	noteRunnerSuccess    = "Runner completed task successfully."
	noteRunnerCheckpoint = "Runner detected captcha or manual checkpoint."
	noteRetryExhausted   = "Runner failed after retry budget."
	noteLeaseExpired     = "Runner lease expired after retry budget."
)

// Deps aggregates the collaborators a Workspace is constructed with. All
// state is owned by the workspace instance; there is no ambient singleton.
type Deps struct {
	Profile    *profile.Candidate
	Thresholds autopilot.Thresholds
	Catalog    *catalog.Catalog
	Ledger     *application.Ledger
	Runner     *runner.Coordinator
	Events     *events.Broker
	Evaluator  scoring.Evaluator
	Drafter    *drafts.Drafter
	Logger     *zap.Logger
}

// Workspace is the engine's explicit context object.
type Workspace struct {
	profile    *profile.Candidate
	thresholds autopilot.Thresholds
	catalog    *catalog.Catalog
	ledger     *application.Ledger
	runner     *runner.Coordinator
	events     *events.Broker
	evaluator  scoring.Evaluator
	drafter    *drafts.Drafter
	logger     *zap.Logger

	mu     sync.Mutex
	scores map[string]*scoring.Score
	drafts map[string]*drafts.Artifacts
	locks  map[string]*sync.Mutex
}

func New(deps Deps) *Workspace {
	log := deps.Logger
	if log == nil {
		log = zap.NewNop()
	}

	candidate := deps.Profile
	if candidate == nil {
		candidate = profile.Default()
	}

	return &Workspace{
		profile:    candidate,
		thresholds: deps.Thresholds.Normalize(),
		catalog:    deps.Catalog,
		ledger:     deps.Ledger,
		runner:     deps.Runner,
		events:     deps.Events,
		evaluator:  deps.Evaluator,
		drafter:    deps.Drafter,
		logger:     log,
		scores:     make(map[string]*scoring.Score),
		drafts:     make(map[string]*drafts.Artifacts),
		locks:      make(map[string]*sync.Mutex),
	}
}

// lockPosting serializes mutating operations per posting id so that
// read-modify-write sequences on one application record are atomic
// end to end.
func (w *Workspace) lockPosting(postingID string) func() {
	w.mu.Lock()
	lock, ok := w.locks[postingID]
	if !ok {
		lock = &sync.Mutex{}
		w.locks[postingID] = lock
	}
	w.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}

// Discover inserts the given postings into the catalog. It does not touch
// the application ledger.
func (w *Workspace) Discover(postings []*catalog.Posting) []*catalog.Posting {
	stored := w.catalog.Add(postings)
	w.logger.Info("postings discovered", zap.Int("count", len(stored)))
	return stored
}

// Score evaluates the posting and stores the latest fitness score. It is
// idempotent, publishes job_scored on every call and never changes
// application state.
func (w *Workspace) Score(ctx context.Context, postingID string) (*scoring.Score, error) {
	unlock := w.lockPosting(postingID)
	defer unlock()
	return w.score(ctx, postingID)
}

func (w *Workspace) score(ctx context.Context, postingID string) (*scoring.Score, error) {
	posting, err := w.catalog.Get(postingID)
	if err != nil {
		return nil, err
	}

	score, err := w.evaluator.Evaluate(ctx, posting, w.profile)
	if err != nil {
		w.logger.Warn("evaluator failed, falling back to local heuristic",
			zap.String("posting_id", postingID),
			zap.Error(err),
		)
		score = scoring.Fallback(posting, w.profile)
	}

	w.mu.Lock()
	w.scores[postingID] = score
	w.mu.Unlock()

	w.events.Publish(events.TypeJobScored, map[string]any{
		"jobId":      postingID,
		"totalScore": score.Total,
		"riskFlags":  score.RiskFlags,
	})

	w.logger.Info("posting scored",
		zap.String("posting_id", postingID),
		zap.Int("total_score", score.Total),
		zap.Strings("risk_flags", score.RiskFlags),
	)

	return score, nil
}

// Draft composes and stores application artifacts for the posting. It has no
// state-machine effect.
func (w *Workspace) Draft(ctx context.Context, postingID string) (*drafts.Artifacts, error) {
	unlock := w.lockPosting(postingID)
	defer unlock()

	posting, err := w.catalog.Get(postingID)
	if err != nil {
		return nil, err
	}

	artifacts := w.drafter.Compose(ctx, posting, w.profile)

	w.mu.Lock()
	w.drafts[postingID] = artifacts
	w.mu.Unlock()

	return artifacts, nil
}

// QueueApply runs the autopilot policy for the posting and records the
// outcome: an enqueued task, a pending approval or a block.
func (w *Workspace) QueueApply(ctx context.Context, postingID string) (application.Status, []string, error) {
	unlock := w.lockPosting(postingID)
	defer unlock()

	posting, err := w.catalog.Get(postingID)
	if err != nil {
		return "", nil, err
	}

	w.mu.Lock()
	score := w.scores[postingID]
	w.mu.Unlock()

	if score == nil {
		if score, err = w.score(ctx, postingID); err != nil {
			return "", nil, err
		}
	}

	decision := autopilot.Evaluate(posting, score, w.profile, w.thresholds)
	notes := strings.Join(decision.Reasons, " ")

	w.logger.Info("autopilot decision",
		zap.String("posting_id", postingID),
		zap.String("action", string(decision.Action)),
		zap.Strings("reasons", decision.Reasons),
	)

	switch decision.Action {
	case autopilot.ActionAutoApply:
		task := w.runner.Enqueue(w.buildApplyTask(posting, false))
		w.ledger.Mutate(postingID, func(r *application.Record) {
			r.Status = application.StatusQueued
			r.TaskID = task.ID
			r.Notes = notes
		})
		return application.StatusQueued, decision.Reasons, nil

	case autopilot.ActionRequireApproval:
		w.ledger.Mutate(postingID, func(r *application.Record) {
			r.Status = application.StatusNeedsApproval
			r.Notes = notes
		})
		w.events.Publish(events.TypeApprovalRequired, map[string]any{
			"jobId":   postingID,
			"score":   score.Total,
			"reasons": decision.Reasons,
		})
		return application.StatusNeedsApproval, decision.Reasons, nil

	default:
		w.ledger.Mutate(postingID, func(r *application.Record) {
			r.Status = application.StatusBlocked
			r.Notes = notes
		})
		return application.StatusBlocked, decision.Reasons, nil
	}
}

// Approve bypasses the autopilot policy and queues an apply task tagged as
// manually approved.
func (w *Workspace) Approve(postingID string) (*application.Record, error) {
	unlock := w.lockPosting(postingID)
	defer unlock()

	posting, err := w.catalog.Get(postingID)
	if err != nil {
		return nil, err
	}

	task := w.runner.Enqueue(w.buildApplyTask(posting, true))
	record := w.ledger.Mutate(postingID, func(r *application.Record) {
		r.Status = application.StatusQueued
		r.TaskID = task.ID
		r.Notes = noteApproved
	})

	w.logger.Info("application approved",
		zap.String("posting_id", postingID),
		zap.String("task_id", task.ID),
	)

	return record, nil
}

// Reject blocks the application with a fixed rejection note.
func (w *Workspace) Reject(postingID string) (*application.Record, error) {
	unlock := w.lockPosting(postingID)
	defer unlock()

	if _, err := w.catalog.Get(postingID); err != nil {
		return nil, err
	}

	return w.ledger.Mutate(postingID, func(r *application.Record) {
		r.Status = application.StatusBlocked
		r.Notes = noteRejected
	}), nil
}

// RequireApproval forces the application into NEEDS_APPROVAL and announces
// it. Used when the executor hits a checkpoint needing a human.
func (w *Workspace) RequireApproval(postingID, reason string) (*application.Record, error) {
	unlock := w.lockPosting(postingID)
	defer unlock()
	return w.requireApproval(postingID, reason)
}

func (w *Workspace) requireApproval(postingID, reason string) (*application.Record, error) {
	if _, err := w.catalog.Get(postingID); err != nil {
		return nil, err
	}

	record := w.ledger.Mutate(postingID, func(r *application.Record) {
		r.Status = application.StatusNeedsApproval
		r.Notes = reason
	})

	w.events.Publish(events.TypeApprovalRequired, map[string]any{
		"jobId":   postingID,
		"reasons": []string{reason},
	})

	return record, nil
}

// MarkApplied finalizes the application as SUBMITTED with the reported
// evidence and announces it.
func (w *Workspace) MarkApplied(postingID, screenshotURL, notes string) (*application.Record, error) {
	unlock := w.lockPosting(postingID)
	defer unlock()
	return w.markApplied(postingID, screenshotURL, notes)
}

func (w *Workspace) markApplied(postingID, screenshotURL, notes string) (*application.Record, error) {
	if _, err := w.catalog.Get(postingID); err != nil {
		return nil, err
	}

	record := w.ledger.Mutate(postingID, func(r *application.Record) {
		r.Status = application.StatusSubmitted
		r.ScreenshotURL = screenshotURL
		if notes != "" {
			r.Notes = notes
		}
	})

	w.events.Publish(events.TypeApplicationSubmitted, map[string]any{
		"jobId":         postingID,
		"screenshotUrl": record.ScreenshotURL,
	})

	w.logger.Info("application submitted", zap.String("posting_id", postingID))

	return record, nil
}

// Fail moves the application to the terminal FAILED state.
func (w *Workspace) Fail(postingID, reason string) (*application.Record, error) {
	unlock := w.lockPosting(postingID)
	defer unlock()
	return w.fail(postingID, reason)
}

func (w *Workspace) fail(postingID, reason string) (*application.Record, error) {
	if _, err := w.catalog.Get(postingID); err != nil {
		return nil, err
	}

	record := w.ledger.Mutate(postingID, func(r *application.Record) {
		r.Status = application.StatusFailed
		r.Notes = reason
	})

	w.logger.Warn("application failed",
		zap.String("posting_id", postingID),
		zap.String("reason", reason),
	)

	return record, nil
}

// ClaimTasks hands up to limit pending tasks to the external executor.
func (w *Workspace) ClaimTasks(limit int) []*runner.PendingTask {
	return w.runner.Claim(limit)
}

// HandleRunnerResult records an executor report and routes the outcome to
// the owning application: SUCCESS submits it, NEEDS_APPROVAL parks it for a
// human, and a FAILED report that exhausted the retry budget fails it.
func (w *Workspace) HandleRunnerResult(result *runner.Result) (requeued bool) {
	requeued = w.runner.ReceiveResult(result)

	record := w.ledger.ByTaskID(result.TaskID)
	if record == nil {
		return requeued
	}

	unlock := w.lockPosting(record.PostingID)
	defer unlock()

	var err error
	switch result.Status {
	case runner.ResultSuccess:
		_, err = w.markApplied(record.PostingID, result.ScreenshotURL, noteRunnerSuccess)
	case runner.ResultNeedsApproval:
		_, err = w.requireApproval(record.PostingID, noteRunnerCheckpoint)
	case runner.ResultFailed:
		if !requeued {
			_, err = w.fail(record.PostingID, noteRetryExhausted)
		}
	}

	if err != nil {
		w.logger.Warn("routing runner result failed",
			zap.String("task_id", result.TaskID),
			zap.Error(err),
		)
	}

	return requeued
}

// SweepLeases returns expired claims to the pending queue and fails the
// applications whose tasks ran out of retry budget while leased.
func (w *Workspace) SweepLeases(now time.Time) (requeued, failed int) {
	requeuedIDs, failedIDs := w.runner.SweepExpired(now)

	for _, taskID := range failedIDs {
		record := w.ledger.ByTaskID(taskID)
		if record == nil {
			continue
		}

		unlock := w.lockPosting(record.PostingID)
		if _, err := w.fail(record.PostingID, noteLeaseExpired); err != nil {
			w.logger.Warn("failing application for expired lease",
				zap.String("task_id", taskID),
				zap.Error(err),
			)
		}
		unlock()
	}

	return len(requeuedIDs), len(failedIDs)
}

// Postings lists all discovered postings.
func (w *Workspace) Postings() []*catalog.Posting {
	return w.catalog.List()
}

// Scores lists the latest score of every scored posting.
func (w *Workspace) Scores() []*scoring.Score {
	w.mu.Lock()
	defer w.mu.Unlock()

	scores := make([]*scoring.Score, 0, len(w.scores))
	for _, score := range w.scores {
		scores = append(scores, score)
	}
	return scores
}

// Applications lists all application records.
func (w *Workspace) Applications() []*application.Record {
	return w.ledger.List()
}

// PendingTaskCount reports the current dispatch queue depth.
func (w *Workspace) PendingTaskCount() int {
	return w.runner.PendingCount()
}

func (w *Workspace) buildApplyTask(posting *catalog.Posting, manualApproval bool) runner.Task {
	w.mu.Lock()
	draft := w.drafts[posting.ID]
	w.mu.Unlock()

	payload := map[string]any{
		"jobId":   posting.ID,
		"url":     posting.URL,
		"company": posting.Company,
		"title":   posting.Title,
		"draft":   draft,
	}
	if manualApproval {
		payload["manualApproval"] = true
	}

	return runner.Task{
		ID:      uuid.NewString(),
		Kind:    runner.KindApply,
		Payload: payload,
	}
}
