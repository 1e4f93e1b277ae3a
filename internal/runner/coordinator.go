package runner

import (
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	// MaxRetries is the per-task retry budget. A task reported FAILED is
	// requeued only while its retry counter is below this cap.
	MaxRetries = 2

	// DefaultClaimLimit bounds a claim request with no explicit limit.
	DefaultClaimLimit = 3
)

// Coordinator is the pull-based task queue. A task lives in exactly one of
// three places: the pending FIFO, the in-flight set or the completed results
// map.
type Coordinator struct {
	mu        sync.Mutex
	pending   []*PendingTask
	inFlight  map[string]*PendingTask
	completed map[string]*Result

	leaseTTL time.Duration
	limiter  *rate.Limiter
	logger   *zap.Logger
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithLeaseTTL attaches a lease deadline to every claimed task so that
// SweepExpired can return abandoned claims to the pending queue. Zero
// disables lease expiry.
func WithLeaseTTL(d time.Duration) Option {
	return func(c *Coordinator) { c.leaseTTL = d }
}

// WithClaimRate throttles claims with a token bucket, shielding the queue
// from tight-polling executors. Zero disables throttling.
func WithClaimRate(perSecond float64, burst int) Option {
	return func(c *Coordinator) {
		if perSecond <= 0 {
			return
		}
		if burst <= 0 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(c *Coordinator) {
		if logger != nil {
			c.logger = logger
		}
	}
}

func NewCoordinator(opts ...Option) *Coordinator {
	c := &Coordinator{
		inFlight:  make(map[string]*PendingTask),
		completed: make(map[string]*Result),
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Enqueue appends the task to the tail of the pending queue with a fresh
// retry counter and returns the enriched pending task.
func (c *Coordinator) Enqueue(task Task) *PendingTask {
	c.mu.Lock()
	defer c.mu.Unlock()

	pending := &PendingTask{
		Task:      task,
		Retries:   0,
		CreatedAt: time.Now().UTC(),
	}
	c.pending = append(c.pending, pending)

	c.logger.Debug("task enqueued",
		zap.String("task_id", task.ID),
		zap.String("kind", string(task.Kind)),
		zap.Int("pending", len(c.pending)),
	)

	snapshot := *pending
	return &snapshot
}

// Claim atomically moves up to limit tasks from the head of the pending
// queue into the in-flight set and returns them in FIFO order. A claimed
// task is never handed out again until its result is reported or its lease
// expires.
func (c *Coordinator) Claim(limit int) []*PendingTask {
	if limit <= 0 {
		limit = DefaultClaimLimit
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.limiter != nil && !c.limiter.Allow() {
		return nil
	}

	if limit > len(c.pending) {
		limit = len(c.pending)
	}

	claimed := make([]*PendingTask, 0, limit)
	for _, task := range c.pending[:limit] {
		if c.leaseTTL > 0 {
			task.LeaseDeadline = time.Now().UTC().Add(c.leaseTTL)
		}
		c.inFlight[task.ID] = task

		snapshot := *task
		claimed = append(claimed, &snapshot)
	}
	c.pending = c.pending[limit:]

	return claimed
}

// ReceiveResult records an executor report. Reports for unknown or already
// finalized task ids are stored without side effects, making duplicate
// delivery idempotent. A FAILED report requeues the task at the tail while
// the retry budget allows; the returned flag tells the caller whether it did.
func (c *Coordinator) ReceiveResult(result *Result) (requeued bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	task, ok := c.inFlight[result.TaskID]
	if !ok {
		c.completed[result.TaskID] = result
		return false
	}

	delete(c.inFlight, result.TaskID)

	if result.Status == ResultFailed && task.Retries < MaxRetries {
		task.Retries++
		task.LeaseDeadline = time.Time{}
		c.pending = append(c.pending, task)

		c.logger.Info("task requeued after failure",
			zap.String("task_id", task.ID),
			zap.Int("retries", task.Retries),
		)
		return true
	}

	c.completed[result.TaskID] = result
	return false
}

// PeekResult returns a previously stored completed result, or nil.
func (c *Coordinator) PeekResult(taskID string) *Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.completed[taskID]
}

// SweepExpired returns in-flight tasks whose lease deadline passed to the
// pending queue, under the same retry budget as reported failures. Tasks out
// of budget are finalized with a synthetic FAILED result. It returns the ids
// of requeued and failed tasks.
func (c *Coordinator) SweepExpired(now time.Time) (requeued, failed []string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for id, task := range c.inFlight {
		if task.LeaseDeadline.IsZero() || task.LeaseDeadline.After(now) {
			continue
		}

		delete(c.inFlight, id)

		if task.Retries < MaxRetries {
			task.Retries++
			task.LeaseDeadline = time.Time{}
			c.pending = append(c.pending, task)
			requeued = append(requeued, id)

			c.logger.Info("expired lease returned to queue",
				zap.String("task_id", id),
				zap.Int("retries", task.Retries),
			)
			continue
		}

		c.completed[id] = &Result{
			TaskID: id,
			Status: ResultFailed,
			Data:   map[string]any{"reason": "lease expired"},
		}
		failed = append(failed, id)

		c.logger.Warn("expired lease exhausted retry budget", zap.String("task_id", id))
	}

	return requeued, failed
}

// PendingCount reports the current depth of the pending queue.
func (c *Coordinator) PendingCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

// InFlightCount reports how many claimed tasks await a result.
func (c *Coordinator) InFlightCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.inFlight)
}
