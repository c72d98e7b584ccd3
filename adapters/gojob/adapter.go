// Package gojob runs the events snapshot refresh through a go-job queue.
package gojob

import (
	"context"
	"fmt"
	"maps"
	"strings"
	"time"

	job "github.com/goliatone/go-job"
	"github.com/goliatone/go-job/queue"
	"github.com/goliatone/go-r25live/core"
)

const JobIDEventsRefresh = "r25live.events.refresh"

// NewEventsRefreshMessage builds the refresh job for the minute of at. Jobs
// scheduled within the same UTC minute share an idempotency key.
func NewEventsRefreshMessage(at time.Time) *core.JobExecutionMessage {
	return &core.JobExecutionMessage{
		JobID:          JobIDEventsRefresh,
		ScriptPath:     JobIDEventsRefresh,
		Parameters:     map[string]any{"scheduled_at": at.UTC().Format(time.RFC3339)},
		IdempotencyKey: JobIDEventsRefresh + ":" + at.UTC().Format("200601021504"),
		DedupPolicy:    string(job.DedupPolicyDrop),
	}
}

// RetryPolicy decides how a failed refresh is nacked.
type RetryPolicy struct {
	MaxAttempts     int
	MaxDelay        time.Duration
	DeadLetterOnMax bool
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 5, MaxDelay: 5 * time.Minute, DeadLetterOnMax: true}
}

// NackFor returns the nack for a delivery that failed on its attempt-th try.
// Once attempts reach MaxAttempts the message is dead-lettered, or dropped
// when DeadLetterOnMax is off.
func (p RetryPolicy) NackFor(attempt int, delay time.Duration, reason string) core.JobNackOptions {
	opts := core.JobNackOptions{
		Disposition: core.JobDispositionRetry,
		Delay:       max(delay, 0),
		Reason:      strings.TrimSpace(reason),
	}
	if p.MaxDelay > 0 && opts.Delay > p.MaxDelay {
		opts.Delay = p.MaxDelay
	}
	if p.MaxAttempts > 0 && attempt >= p.MaxAttempts {
		opts.Delay = 0
		opts.Disposition = core.JobDispositionFailed
		if p.DeadLetterOnMax {
			opts.Disposition = core.JobDispositionDeadLetter
		}
	}
	return opts
}

func toQueueMessage(msg *core.JobExecutionMessage) *job.ExecutionMessage {
	return &job.ExecutionMessage{
		JobID:          strings.TrimSpace(msg.JobID),
		ScriptPath:     strings.TrimSpace(msg.ScriptPath),
		Parameters:     cloneParams(msg.Parameters),
		IdempotencyKey: strings.TrimSpace(msg.IdempotencyKey),
		DedupPolicy:    job.DeduplicationPolicy(strings.TrimSpace(msg.DedupPolicy)),
	}
}

func fromQueueMessage(msg *job.ExecutionMessage) *core.JobExecutionMessage {
	if msg == nil {
		return nil
	}
	return &core.JobExecutionMessage{
		JobID:          msg.JobID,
		ScriptPath:     msg.ScriptPath,
		Parameters:     cloneParams(msg.Parameters),
		IdempotencyKey: msg.IdempotencyKey,
		DedupPolicy:    string(msg.DedupPolicy),
	}
}

// toQueueNack maps a disposition onto go-job's. An empty disposition retries.
func toQueueNack(opts core.JobNackOptions) queue.NackOptions {
	out := queue.NackOptions{Delay: opts.Delay, Reason: opts.Reason}
	switch opts.Disposition {
	case core.JobDispositionDeadLetter:
		out.Disposition = queue.NackDispositionDeadLetter
	case core.JobDispositionFailed:
		out.Disposition = queue.NackDispositionFailed
	default:
		out.Disposition = queue.NackDispositionRetry
	}
	if out.Disposition != queue.NackDispositionRetry {
		out.Delay = 0
	}
	return out
}

type EnqueuerAdapter struct {
	enqueuer queue.Enqueuer
}

func NewEnqueuerAdapter(enqueuer queue.Enqueuer) *EnqueuerAdapter {
	return &EnqueuerAdapter{enqueuer: enqueuer}
}

func (a *EnqueuerAdapter) Enqueue(ctx context.Context, msg *core.JobExecutionMessage) (core.JobReceipt, error) {
	if a == nil || a.enqueuer == nil {
		return core.JobReceipt{}, fmt.Errorf("gojob: enqueuer is not configured")
	}
	if msg == nil {
		return core.JobReceipt{}, fmt.Errorf("gojob: execution message is required")
	}
	receipt, err := a.enqueuer.Enqueue(ctx, toQueueMessage(msg))
	if err != nil {
		return core.JobReceipt{}, err
	}
	return core.JobReceipt{DispatchID: receipt.DispatchID, EnqueuedAt: receipt.EnqueuedAt}, nil
}

type attemptsReader interface {
	Attempts() int
}

// DeliveryAdapter wraps a go-job delivery. Deliveries that do not report an
// attempt count are treated as first attempts.
type DeliveryAdapter struct {
	delivery queue.Delivery
}

func (d *DeliveryAdapter) Message() *core.JobExecutionMessage {
	return fromQueueMessage(d.delivery.Message())
}

func (d *DeliveryAdapter) Attempts() int {
	if reader, ok := d.delivery.(attemptsReader); ok {
		if attempts := reader.Attempts(); attempts > 0 {
			return attempts
		}
	}
	return 1
}

func (d *DeliveryAdapter) Ack(ctx context.Context) error {
	return d.delivery.Ack(ctx)
}

func (d *DeliveryAdapter) Nack(ctx context.Context, opts core.JobNackOptions) error {
	return d.delivery.Nack(ctx, toQueueNack(opts))
}

type DequeuerAdapter struct {
	dequeuer queue.Dequeuer
}

func NewDequeuerAdapter(dequeuer queue.Dequeuer) *DequeuerAdapter {
	return &DequeuerAdapter{dequeuer: dequeuer}
}

// Dequeue returns nil without error when nothing is ready.
func (a *DequeuerAdapter) Dequeue(ctx context.Context) (core.JobDelivery, error) {
	if a == nil || a.dequeuer == nil {
		return nil, fmt.Errorf("gojob: dequeuer is not configured")
	}
	delivery, err := a.dequeuer.Dequeue(ctx)
	if err != nil || delivery == nil {
		return nil, err
	}
	return &DeliveryAdapter{delivery: delivery}, nil
}

func cloneParams(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	maps.Copy(out, in)
	return out
}

var (
	_ core.JobEnqueuer = (*EnqueuerAdapter)(nil)
	_ core.JobDelivery = (*DeliveryAdapter)(nil)
	_ core.JobDequeuer = (*DequeuerAdapter)(nil)
)
