package triage

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Batch lifecycle states
const (
	BatchRunning   = "running"
	BatchCompleted = "completed"
)

// BatchError records one issue that could not be triaged
type BatchError struct {
	IssueNumber int    `json:"issue_number"`
	Message     string `json:"message"`
}

// BatchStatus is a point-in-time snapshot of a running batch
type BatchStatus struct {
	Status       string       `json:"status"`
	Total        int          `json:"total"`
	Processed    int          `json:"processed"`
	CurrentIssue int          `json:"current_issue,omitempty"`
	Errors       []BatchError `json:"errors"`
	StartedAt    time.Time    `json:"started_at"`
}

// BatchRunner triages a set of issues sequentially. Sequential
// processing bounds spend-per-minute against the model and search
// providers. Status may be polled concurrently while Run is active.
type BatchRunner struct {
	engine *Engine

	mu     sync.Mutex
	status BatchStatus
}

// NewBatchRunner creates a runner over the given engine
func NewBatchRunner(engine *Engine) *BatchRunner {
	return &BatchRunner{engine: engine}
}

// Run triages each issue number in order. A single issue's failure is
// recorded and the loop continues; the batch still finishes as
// completed even when some issues failed.
func (r *BatchRunner) Run(ctx context.Context, org, repo string, numbers []int) {
	r.mu.Lock()
	r.status = BatchStatus{
		Status:    BatchRunning,
		Total:     len(numbers),
		StartedAt: time.Now(),
	}
	r.mu.Unlock()

	for _, number := range numbers {
		r.mu.Lock()
		r.status.CurrentIssue = number
		r.mu.Unlock()

		if err := r.triageOne(ctx, org, repo, number); err != nil {
			r.mu.Lock()
			r.status.Errors = append(r.status.Errors, BatchError{
				IssueNumber: number,
				Message:     err.Error(),
			})
			r.mu.Unlock()
			continue
		}

		r.mu.Lock()
		r.status.Processed++
		r.mu.Unlock()
	}

	r.mu.Lock()
	r.status.Status = BatchCompleted
	r.status.CurrentIssue = 0
	r.mu.Unlock()
}

// triageOne isolates one issue; a panic inside the pipeline must not
// kill the rest of the batch.
func (r *BatchRunner) triageOne(ctx context.Context, org, repo string, number int) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic during triage: %v", p)
		}
	}()

	_, err = r.engine.Triage(ctx, org, repo, number)
	return err
}

// Status returns a copy safe to read while the batch runs
func (r *BatchRunner) Status() BatchStatus {
	r.mu.Lock()
	defer r.mu.Unlock()

	snapshot := r.status
	snapshot.Errors = make([]BatchError, len(r.status.Errors))
	copy(snapshot.Errors, r.status.Errors)
	return snapshot
}
