package status

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/kiranshivaraju/vintra/pkg/models"
)

// Store is the key-value abstraction behind the tracker.
// Implementations must be safe for concurrent use.
type Store interface {
	Get(ctx context.Context, jobID string) (Status, bool, error)
	Set(ctx context.Context, jobID string, s Status) error
	Delete(ctx context.Context, jobID string) error
}

// Tracker keeps the latest snapshot per job. No history is retained and writes
// are last-write-wins; each job id is written by a single orchestrator run.
type Tracker struct {
	store Store
}

// NewTracker creates a Tracker backed by store.
func NewTracker(store Store) *Tracker {
	return &Tracker{store: store}
}

// Set overwrites the snapshot for jobID.
func (t *Tracker) Set(ctx context.Context, jobID string, s Status) error {
	if err := t.store.Set(ctx, jobID, s); err != nil {
		return fmt.Errorf("set status: %w", err)
	}
	return nil
}

// Get returns the snapshot for jobID, or NotFound when none exists.
func (t *Tracker) Get(ctx context.Context, jobID string) (Status, error) {
	s, ok, err := t.store.Get(ctx, jobID)
	if err != nil {
		return Status{}, fmt.Errorf("get status: %w", err)
	}
	if !ok {
		return NotFound(), nil
	}
	return s, nil
}

// Forget drops the snapshot for jobID.
func (t *Tracker) Forget(ctx context.Context, jobID string) error {
	return t.store.Delete(ctx, jobID)
}

// Start registers a new job in the initializing state.
func (t *Tracker) Start(ctx context.Context, jobID string) *Job {
	j := &Job{
		ID:      jobID,
		tracker: t,
		current: Status{Status: models.StatusInitializing, Progress: 0},
	}
	j.publish(ctx)
	return j
}

// Job drives a single job through the state machine. It is owned by one
// orchestrator run and is not safe for concurrent use.
type Job struct {
	ID      string
	tracker *Tracker
	current Status
}

// Current returns the job's latest snapshot.
func (j *Job) Current() Status {
	return j.current
}

// Advance moves the job to state. Only the immediate successor is accepted.
func (j *Job) Advance(ctx context.Context, state string) error {
	if err := checkTransition(j.current.Status, state); err != nil {
		return err
	}
	p, ok := Progress(state)
	if !ok {
		return fmt.Errorf("%w: unknown state %q", ErrInvalidTransition, state)
	}
	j.current = Status{Status: state, Progress: p}
	j.publish(ctx)
	return nil
}

// Fail moves the job to failed, resetting progress and recording cause.
func (j *Job) Fail(ctx context.Context, cause error) error {
	if err := checkTransition(j.current.Status, models.StatusFailed); err != nil {
		return err
	}
	msg := "unknown error"
	if cause != nil && cause.Error() != "" {
		msg = cause.Error()
	}
	j.current = Status{Status: models.StatusFailed, Progress: 0, Error: msg}
	j.publish(ctx)
	return nil
}

// publish writes the snapshot. Store failures do not abort the pipeline.
func (j *Job) publish(ctx context.Context) {
	if err := j.tracker.Set(ctx, j.ID, j.current); err != nil {
		slog.Warn("status update dropped",
			"consultation_id", j.ID,
			"status", j.current.Status,
			"error", err,
		)
	}
}
