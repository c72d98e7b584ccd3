package gojob

import (
	"context"
	"testing"
	"time"

	"github.com/goliatone/go-r25live/core"

	job "github.com/goliatone/go-job"
	"github.com/goliatone/go-job/queue"
)

func TestMessageMappingRoundTrip(t *testing.T) {
	original := &core.JobExecutionMessage{
		JobID:          JobIDEventsRefresh,
		ScriptPath:     "r25live.events.refresh",
		Parameters:     map[string]any{"scheduled_at": "2024-03-05T19:30:00Z"},
		IdempotencyKey: "idem-1",
		DedupPolicy:    "drop",
	}

	converted := toQueueMessage(original)
	if converted == nil {
		t.Fatalf("expected converted message")
	}
	if err := queue.ValidateRequiredMessage(converted); err != nil {
		t.Fatalf("expected valid go-job message: %v", err)
	}
	roundTrip := fromQueueMessage(converted)
	if roundTrip.JobID != original.JobID {
		t.Fatalf("expected job id %q, got %q", original.JobID, roundTrip.JobID)
	}
	if roundTrip.ScriptPath != original.ScriptPath {
		t.Fatalf("expected script path %q, got %q", original.ScriptPath, roundTrip.ScriptPath)
	}
	if roundTrip.IdempotencyKey != original.IdempotencyKey {
		t.Fatalf("expected idempotency key %q, got %q", original.IdempotencyKey, roundTrip.IdempotencyKey)
	}
	if roundTrip.DedupPolicy != original.DedupPolicy {
		t.Fatalf("expected dedup policy %q, got %q", original.DedupPolicy, roundTrip.DedupPolicy)
	}
	if roundTrip.Parameters["scheduled_at"] != "2024-03-05T19:30:00Z" {
		t.Fatalf("expected parameters to survive mapping")
	}
}

func TestNewEventsRefreshMessage(t *testing.T) {
	at := time.Date(2024, 3, 5, 14, 30, 45, 0, time.FixedZone("EST", -5*60*60))
	msg := NewEventsRefreshMessage(at)
	if msg.JobID != JobIDEventsRefresh || msg.DedupPolicy != string(job.DedupPolicyDrop) {
		t.Fatalf("unexpected message %+v", msg)
	}
	if msg.IdempotencyKey != "r25live.events.refresh:202403051930" {
		t.Fatalf("unexpected idempotency key %q", msg.IdempotencyKey)
	}
	if msg.Parameters["scheduled_at"] != "2024-03-05T19:30:45Z" {
		t.Fatalf("unexpected parameters %v", msg.Parameters)
	}
}

func TestEnqueueAndDequeueAdapters(t *testing.T) {
	ctx := context.Background()
	enqueuer := &stubQueueEnqueuer{}
	enqueueAdapter := NewEnqueuerAdapter(enqueuer)

	receipt, err := enqueueAdapter.Enqueue(ctx, NewEventsRefreshMessage(time.Now()))
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if receipt.DispatchID != "dispatch-1" {
		t.Fatalf("expected dispatch id from go-job receipt, got %q", receipt.DispatchID)
	}
	if enqueuer.last == nil || enqueuer.last.JobID != JobIDEventsRefresh {
		t.Fatalf("expected mapped go-job message")
	}
	if _, err := enqueueAdapter.Enqueue(ctx, nil); err == nil {
		t.Fatalf("expected nil message to be rejected")
	}

	raw := &stubQueueDelivery{msg: enqueuer.last, attempts: 1}
	dequeuer := &stubQueueDequeuer{delivery: raw}
	delivery, err := NewDequeuerAdapter(dequeuer).Dequeue(ctx)
	if err != nil {
		t.Fatalf("dequeue: %v", err)
	}
	got := delivery.Message()
	if got == nil || got.JobID != JobIDEventsRefresh {
		t.Fatalf("expected mapped core message")
	}
	if err := delivery.Ack(ctx); err != nil {
		t.Fatalf("ack: %v", err)
	}
	if !raw.acked {
		t.Fatalf("expected ack on underlying delivery")
	}
}

func TestDeliveryAdapter_AttemptsDefaultsToFirstTry(t *testing.T) {
	plain := &DeliveryAdapter{delivery: plainQueueDelivery{}}
	if plain.Attempts() != 1 {
		t.Fatalf("expected deliveries without a counter to report 1, got %d", plain.Attempts())
	}
	counted := &DeliveryAdapter{delivery: &stubQueueDelivery{attempts: 4}}
	if counted.Attempts() != 4 {
		t.Fatalf("expected attempts from delivery, got %d", counted.Attempts())
	}
}

func TestRetryPolicy_NackFor(t *testing.T) {
	policy := RetryPolicy{MaxAttempts: 3, MaxDelay: 10 * time.Second, DeadLetterOnMax: true}

	first := policy.NackFor(1, 30*time.Second, " transient ")
	if first.Disposition != core.JobDispositionRetry {
		t.Fatalf("expected retry before max attempts, got %+v", first)
	}
	if first.Delay != 10*time.Second || first.Reason != "transient" {
		t.Fatalf("expected bounded delay and trimmed reason, got %+v", first)
	}

	last := policy.NackFor(3, time.Second, "still failing")
	if last.Disposition != core.JobDispositionDeadLetter || last.Delay != 0 {
		t.Fatalf("expected dead letter on max attempts, got %+v", last)
	}

	policy.DeadLetterOnMax = false
	if got := policy.NackFor(5, time.Second, "gone"); got.Disposition != core.JobDispositionFailed {
		t.Fatalf("expected failed disposition without dead letter, got %+v", got)
	}
}

func TestToQueueNack_MapsDispositions(t *testing.T) {
	cases := []struct {
		in   core.JobNackOptions
		want queue.NackDisposition
	}{
		{core.JobNackOptions{Delay: time.Second}, queue.NackDispositionRetry},
		{core.JobNackOptions{Disposition: core.JobDispositionRetry, Delay: time.Second}, queue.NackDispositionRetry},
		{core.JobNackOptions{Disposition: core.JobDispositionDeadLetter, Delay: time.Second}, queue.NackDispositionDeadLetter},
		{core.JobNackOptions{Disposition: core.JobDispositionFailed, Delay: time.Second}, queue.NackDispositionFailed},
	}
	for _, tc := range cases {
		got := toQueueNack(tc.in)
		if got.Disposition != tc.want {
			t.Fatalf("expected %q, got %q", tc.want, got.Disposition)
		}
		if err := queue.ValidateNackOptions(got); err != nil {
			t.Fatalf("expected valid nack options for %q: %v", tc.want, err)
		}
		if tc.want != queue.NackDispositionRetry && got.Delay != 0 {
			t.Fatalf("expected no delay for terminal disposition, got %s", got.Delay)
		}
	}
}

type stubQueueEnqueuer struct {
	last *job.ExecutionMessage
}

func (s *stubQueueEnqueuer) Enqueue(_ context.Context, msg *job.ExecutionMessage) (queue.EnqueueReceipt, error) {
	s.last = msg
	return queue.EnqueueReceipt{DispatchID: "dispatch-1", EnqueuedAt: time.Now()}, nil
}

// stubQueueDequeuer hands out the same delivery on every call and counts
// attempts the way a real queue does.
type stubQueueDequeuer struct {
	delivery *stubQueueDelivery
}

func (s *stubQueueDequeuer) Dequeue(context.Context) (queue.Delivery, error) {
	if s.delivery == nil || s.delivery.acked || s.delivery.terminal() {
		return nil, nil
	}
	if s.delivery.nacked {
		s.delivery.attempts++
	}
	return s.delivery, nil
}

type stubQueueDelivery struct {
	msg      *job.ExecutionMessage
	attempts int
	acked    bool
	nacked   bool
	nacks    int
	nackOpts queue.NackOptions
}

func (s *stubQueueDelivery) Message() *job.ExecutionMessage {
	return s.msg
}

func (s *stubQueueDelivery) Attempts() int {
	return s.attempts
}

func (s *stubQueueDelivery) Ack(context.Context) error {
	s.acked = true
	return nil
}

func (s *stubQueueDelivery) Nack(_ context.Context, opts queue.NackOptions) error {
	if err := queue.ValidateNackOptions(opts); err != nil {
		return err
	}
	s.nacked = true
	s.nacks++
	s.nackOpts = opts
	return nil
}

func (s *stubQueueDelivery) terminal() bool {
	return s.nacked && s.nackOpts.Disposition != queue.NackDispositionRetry
}

type plainQueueDelivery struct{}

func (plainQueueDelivery) Message() *job.ExecutionMessage { return nil }
func (plainQueueDelivery) Ack(context.Context) error { return nil }
func (plainQueueDelivery) Nack(context.Context, queue.NackOptions) error { return nil }
