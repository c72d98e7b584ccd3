// Package snapshot keeps a cached copy of the upcoming events window and
// refreshes it on a cron schedule.
package snapshot

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	glog "github.com/goliatone/go-logger/glog"
	"github.com/goliatone/go-r25live/core"
	repositorycache "github.com/goliatone/go-repository-cache/cache"
	"github.com/robfig/cron/v3"
)

const CacheKey = "r25live::events::v1::upcoming"

type UpcomingFetcher interface {
	FetchUpcomingEvents(ctx context.Context, now time.Time) core.EventsResult
}

type Snapshot struct {
	Events    []core.EventRecord `json:"events"`
	FetchedAt time.Time          `json:"fetched_at"`
	Attempts  int                `json:"attempts"`
}

type Option func(*Refresher)

func WithSchedule(schedule string) Option {
	return func(r *Refresher) {
		if trimmed := strings.TrimSpace(schedule); trimmed != "" {
			r.schedule = trimmed
		}
	}
}

func WithLocation(loc *time.Location) Option {
	return func(r *Refresher) {
		if loc != nil {
			r.location = loc
		}
	}
}

func WithLogger(logger core.Logger) Option {
	return func(r *Refresher) {
		if logger != nil {
			r.logger = logger
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(r *Refresher) {
		if now != nil {
			r.now = now
		}
	}
}

// Refresher never caches a failed fetch, so Latest keeps serving the last good
// snapshot until the cache entry expires.
type Refresher struct {
	fetcher  UpcomingFetcher
	cache    repositorycache.CacheService
	schedule string
	location *time.Location
	logger   core.Logger
	now      func() time.Time

	mu        sync.Mutex
	scheduler *cron.Cron
	stopped   chan struct{}
}

func NewRefresher(fetcher UpcomingFetcher, cacheService repositorycache.CacheService, opts ...Option) (*Refresher, error) {
	if fetcher == nil {
		return nil, fmt.Errorf("snapshot: events fetcher is required")
	}
	if cacheService == nil {
		return nil, fmt.Errorf("snapshot: cache service is required")
	}
	refresher := &Refresher{
		fetcher:  fetcher,
		cache:    cacheService,
		schedule: core.DefaultRefreshSchedule,
		location: time.UTC,
		logger:   glog.Nop(),
		now:      time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(refresher)
		}
	}
	if _, err := cron.ParseStandard(refresher.schedule); err != nil {
		return nil, fmt.Errorf("snapshot: invalid schedule %q: %w", refresher.schedule, err)
	}
	return refresher, nil
}

func (r *Refresher) Schedule() string {
	return r.schedule
}

// Latest returns the cached snapshot, fetching it on a miss.
func (r *Refresher) Latest(ctx context.Context) (Snapshot, error) {
	return repositorycache.GetOrFetch(ctx, r.cache, CacheKey, r.fetch)
}

// RefreshOnce fetches a new snapshot and replaces the cached one. A failed
// fetch leaves the cache untouched.
func (r *Refresher) RefreshOnce(ctx context.Context) (Snapshot, error) {
	fresh, err := r.fetch(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	if err := r.cache.Delete(ctx, CacheKey); err != nil {
		return Snapshot{}, fmt.Errorf("snapshot: invalidate cache: %w", err)
	}
	return repositorycache.GetOrFetch(ctx, r.cache, CacheKey, func(context.Context) (Snapshot, error) {
		return fresh, nil
	})
}

// Start refreshes once and then on every tick of the schedule until ctx is
// done or Stop is called.
func (r *Refresher) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.scheduler != nil {
		return fmt.Errorf("snapshot: refresher already started")
	}

	scheduler := cron.New(cron.WithLocation(r.location))
	if _, err := scheduler.AddFunc(r.schedule, func() { r.tick(ctx) }); err != nil {
		return fmt.Errorf("snapshot: schedule refresh: %w", err)
	}
	stopped := make(chan struct{})
	r.scheduler = scheduler
	r.stopped = stopped
	r.tick(ctx)
	scheduler.Start()

	go func() {
		select {
		case <-ctx.Done():
			r.Stop()
		case <-stopped:
		}
	}()
	return nil
}

// Stop waits for a running refresh to finish.
func (r *Refresher) Stop() {
	r.mu.Lock()
	scheduler, stopped := r.scheduler, r.stopped
	r.scheduler, r.stopped = nil, nil
	r.mu.Unlock()
	if scheduler == nil {
		return
	}
	close(stopped)
	<-scheduler.Stop().Done()
}

func (r *Refresher) tick(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	snap, err := r.RefreshOnce(ctx)
	if err != nil {
		r.logger.Warn("events snapshot refresh failed", "error", err)
		return
	}
	r.logger.Debug("events snapshot refreshed", "events", len(snap.Events))
}

func (r *Refresher) fetch(ctx context.Context) (Snapshot, error) {
	now := r.now().In(r.location)
	result := r.fetcher.FetchUpcomingEvents(ctx, now)
	if result.Failed() {
		return Snapshot{}, statusError(result.Status)
	}
	events := make([]core.EventRecord, len(result.Events))
	copy(events, result.Events)
	return Snapshot{Events: events, FetchedAt: now, Attempts: result.Attempts}, nil
}

func statusError(status core.RequestStatus) error {
	return core.TransportError(fmt.Sprintf("snapshot: fetch failed: %s", status.Message), status.Code)
}
