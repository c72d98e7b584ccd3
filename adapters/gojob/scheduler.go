package gojob

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	glog "github.com/goliatone/go-logger/glog"
	"github.com/goliatone/go-r25live/core"
	"github.com/robfig/cron/v3"
)

// RefreshScheduler enqueues an events refresh job on every tick of a cron
// schedule. The worker that drains the queue may run in another process.
type RefreshScheduler struct {
	enqueuer core.JobEnqueuer
	schedule string
	location *time.Location
	logger   core.Logger
	now      func() time.Time

	mu   sync.Mutex
	cron *cron.Cron
}

func NewRefreshScheduler(enqueuer core.JobEnqueuer, schedule string, location *time.Location, logger core.Logger) (*RefreshScheduler, error) {
	if enqueuer == nil {
		return nil, fmt.Errorf("gojob: enqueuer is required")
	}
	schedule = strings.TrimSpace(schedule)
	if schedule == "" {
		schedule = core.DefaultRefreshSchedule
	}
	if _, err := cron.ParseStandard(schedule); err != nil {
		return nil, fmt.Errorf("gojob: invalid schedule %q: %w", schedule, err)
	}
	if location == nil {
		location = time.UTC
	}
	return &RefreshScheduler{
		enqueuer: enqueuer,
		schedule: schedule,
		location: location,
		logger:   glog.Ensure(logger),
		now:      time.Now,
	}, nil
}

// EnqueueNow schedules a refresh for the current minute.
func (s *RefreshScheduler) EnqueueNow(ctx context.Context) (core.JobReceipt, error) {
	receipt, err := s.enqueuer.Enqueue(ctx, NewEventsRefreshMessage(s.now().In(s.location)))
	if err != nil {
		return core.JobReceipt{}, fmt.Errorf("gojob: enqueue events refresh: %w", err)
	}
	s.logger.Debug("events refresh job enqueued", "dispatch_id", receipt.DispatchID)
	return receipt, nil
}

// Start enqueues one job immediately and then one per tick until ctx is done
// or Stop is called.
func (s *RefreshScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cron != nil {
		return fmt.Errorf("gojob: scheduler already started")
	}
	scheduler := cron.New(cron.WithLocation(s.location))
	if _, err := scheduler.AddFunc(s.schedule, func() { s.tick(ctx) }); err != nil {
		return fmt.Errorf("gojob: schedule refresh: %w", err)
	}
	if _, err := s.EnqueueNow(ctx); err != nil {
		return err
	}
	s.cron = scheduler
	scheduler.Start()
	return nil
}

func (s *RefreshScheduler) Stop() {
	s.mu.Lock()
	scheduler := s.cron
	s.cron = nil
	s.mu.Unlock()
	if scheduler != nil {
		<-scheduler.Stop().Done()
	}
}

func (s *RefreshScheduler) tick(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	if _, err := s.EnqueueNow(ctx); err != nil {
		s.logger.Warn("events refresh enqueue failed", "error", err)
	}
}
