package gojob

import (
	"context"
	"fmt"
	"time"

	glog "github.com/goliatone/go-logger/glog"
	"github.com/goliatone/go-r25live/core"
	"github.com/goliatone/go-r25live/snapshot"
)

const (
	DefaultRetryDelay   = 30 * time.Second
	DefaultPollInterval = 2 * time.Second
)

type SnapshotRefresher interface {
	RefreshOnce(ctx context.Context) (snapshot.Snapshot, error)
}

type WorkerOption func(*RefreshWorker)

func WithRetryPolicy(policy RetryPolicy) WorkerOption {
	return func(w *RefreshWorker) {
		w.policy = policy
	}
}

func WithRetryDelay(delay time.Duration) WorkerOption {
	return func(w *RefreshWorker) {
		if delay >= 0 {
			w.retryDelay = delay
		}
	}
}

func WithPollInterval(interval time.Duration) WorkerOption {
	return func(w *RefreshWorker) {
		if interval > 0 {
			w.pollInterval = interval
		}
	}
}

// RefreshWorker runs queued events refresh jobs against a snapshot refresher.
type RefreshWorker struct {
	dequeuer     core.JobDequeuer
	refresher    SnapshotRefresher
	logger       core.Logger
	policy       RetryPolicy
	retryDelay   time.Duration
	pollInterval time.Duration
}

func NewRefreshWorker(
	dequeuer core.JobDequeuer,
	refresher SnapshotRefresher,
	logger core.Logger,
	opts ...WorkerOption,
) (*RefreshWorker, error) {
	if dequeuer == nil {
		return nil, fmt.Errorf("gojob: dequeuer is required")
	}
	if refresher == nil {
		return nil, fmt.Errorf("gojob: snapshot refresher is required")
	}
	worker := &RefreshWorker{
		dequeuer:     dequeuer,
		refresher:    refresher,
		logger:       glog.Ensure(logger),
		policy:       DefaultRetryPolicy(),
		retryDelay:   DefaultRetryDelay,
		pollInterval: DefaultPollInterval,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(worker)
		}
	}
	return worker, nil
}

// ProcessNext handles one delivery. It reports false when the queue had
// nothing ready.
func (w *RefreshWorker) ProcessNext(ctx context.Context) (bool, error) {
	delivery, err := w.dequeuer.Dequeue(ctx)
	if err != nil {
		return false, err
	}
	if delivery == nil {
		return false, nil
	}

	msg := delivery.Message()
	if msg == nil || msg.JobID != JobIDEventsRefresh {
		jobID := ""
		if msg != nil {
			jobID = msg.JobID
		}
		w.logger.Warn("unsupported job", "job_id", jobID)
		return true, delivery.Nack(ctx, core.JobNackOptions{
			Disposition: core.JobDispositionDeadLetter,
			Reason:      "unsupported job " + jobID,
		})
	}

	snap, err := w.refresher.RefreshOnce(ctx)
	if err == nil {
		w.logger.Info("events refresh job completed", "events", len(snap.Events))
		return true, delivery.Ack(ctx)
	}

	attempt := delivery.Attempts()
	opts := w.policy.NackFor(attempt, w.retryDelay, err.Error())
	w.logger.Error("events refresh job failed",
		"attempt", attempt,
		"disposition", string(opts.Disposition),
		"error", err,
	)
	return true, delivery.Nack(ctx, opts)
}

// Run drains the queue until ctx is done, sleeping for the poll interval
// whenever nothing is ready. Dequeue errors are logged and retried.
func (w *RefreshWorker) Run(ctx context.Context) error {
	for {
		processed, err := w.ProcessNext(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			w.logger.Warn("events refresh worker error", "error", err)
		}
		if processed && err == nil {
			continue
		}
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(w.pollInterval):
		}
	}
}
