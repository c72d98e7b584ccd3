package main

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/goliatone/go-r25live/adapters/gocommand"
	"github.com/goliatone/go-r25live/adapters/gojob"
	r25command "github.com/goliatone/go-r25live/command"
	"github.com/goliatone/go-r25live/core"
	r25query "github.com/goliatone/go-r25live/query"
	"github.com/goliatone/go-r25live/snapshot"
	redisstore "github.com/goliatone/go-r25live/store/redis"
	repositorycache "github.com/goliatone/go-repository-cache/cache"
	"github.com/spf13/pflag"
)

func runSetCredentials(ctx context.Context, _ *app, args []string, stdout io.Writer) error {
	var input core.SaveSettingsInput
	flagSet := pflag.NewFlagSet("set-credentials", pflag.ContinueOnError)
	flagSet.StringVar(&input.Username, "username", "", "25Live username")
	flagSet.StringVar(&input.Password, "password", "", "25Live password (empty keeps the stored one)")
	flagSet.StringVar(&input.OrganizationCode, "org", "", "25Live organization code")
	if err := flagSet.Parse(args); err != nil {
		return err
	}

	if err := gocommand.Dispatch(ctx, r25command.SaveSettingsMessage{Input: input}); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "credentials saved for %s (%s)\n", input.Username, input.OrganizationCode)
	return nil
}

func runLogin(ctx context.Context, _ *app, _ []string, stdout io.Writer) error {
	if err := gocommand.Dispatch(ctx, r25command.LoginMessage{}); err != nil {
		return err
	}
	fmt.Fprintln(stdout, "logged in")
	return nil
}

func runClearSession(ctx context.Context, _ *app, _ []string, stdout io.Writer) error {
	if err := gocommand.Dispatch(ctx, r25command.ClearSessionMessage{}); err != nil {
		return err
	}
	fmt.Fprintln(stdout, "session cleared")
	return nil
}

func runEvents(ctx context.Context, a *app, args []string, stdout io.Writer) error {
	var from string
	var days int
	flagSet := pflag.NewFlagSet("events", pflag.ContinueOnError)
	flagSet.StringVar(&from, "from", "", "first day as YYYYMMDD (default: today)")
	flagSet.IntVar(&days, "days", 0, "window length in days (default: events.window_days)")
	if err := flagSet.Parse(args); err != nil {
		return err
	}

	start := time.Now().In(a.cfg.Location())
	if from != "" {
		parsed, err := time.ParseInLocation(core.EventsQueryDateLayout, from, a.cfg.Location())
		if err != nil {
			return fmt.Errorf("invalid --from %q: expected YYYYMMDD", from)
		}
		start = parsed
	}
	window := core.EventsWindowFromConfig(a.cfg.Events)
	if days > 0 {
		window.Days = days
	}

	events, err := gocommand.Query[r25query.ListEventsMessage, []core.EventRecord](ctx, r25query.ListEventsMessage{
		Params: core.UpcomingEventsParameters(start, window),
	})
	if err != nil {
		return err
	}
	return writeEvents(stdout, events)
}

func writeEvents(w io.Writer, events []core.EventRecord) error {
	if len(events) == 0 {
		_, err := fmt.Fprintln(w, "no events")
		return err
	}
	table := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(table, "ID\tDATE\tTIME\tNAME\tLOCATION")
	for _, event := range events {
		fmt.Fprintf(table, "%s\t%s\t%s-%s\t%s\t%s\n",
			event.ID, event.StartDate, event.StartTime, event.EndTime, event.Name, event.Location)
	}
	return table.Flush()
}

func runRender(ctx context.Context, a *app, _ []string, stdout io.Writer) error {
	html, err := a.client.RenderUpcoming(ctx, time.Now())
	if err != nil {
		return err
	}
	_, err = io.WriteString(stdout, html)
	return err
}

func runServeRefresh(ctx context.Context, a *app, args []string, _ io.Writer) error {
	var queued bool
	flagSet := pflag.NewFlagSet("serve-refresh", pflag.ContinueOnError)
	flagSet.BoolVar(&queued, "queue", false, "enqueue refresh jobs in redis and run them through a worker (needs --redis)")
	if err := flagSet.Parse(args); err != nil {
		return err
	}
	if queued && a.redis == nil {
		return fmt.Errorf("serve-refresh --queue requires --redis")
	}

	cacheConfig := repositorycache.DefaultConfig()
	if ttl := a.cfg.RefreshTTL(); ttl > 0 {
		cacheConfig.TTL = ttl
	}
	cacheService, err := repositorycache.NewCacheService(cacheConfig)
	if err != nil {
		return fmt.Errorf("cache service: %w", err)
	}
	refresher, err := snapshot.NewRefresher(a.service, cacheService,
		snapshot.WithSchedule(a.cfg.Refresh.Schedule),
		snapshot.WithLocation(a.cfg.Location()),
		snapshot.WithLogger(a.logger),
	)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if queued {
		return serveQueuedRefresh(ctx, a, refresher)
	}

	if err := refresher.Start(ctx); err != nil {
		return err
	}
	a.logger.Info("events refresher started", "schedule", refresher.Schedule())
	<-ctx.Done()
	refresher.Stop()
	a.logger.Info("events refresher stopped")
	return nil
}

// serveQueuedRefresh enqueues refresh jobs on the configured schedule and
// drains them with a worker until ctx is done.
func serveQueuedRefresh(ctx context.Context, a *app, refresher *snapshot.Refresher) error {
	jobs := redisstore.NewJobQueue(a.redis)
	scheduler, err := gojob.NewRefreshScheduler(
		gojob.NewEnqueuerAdapter(jobs),
		a.cfg.Refresh.Schedule,
		a.cfg.Location(),
		a.logger,
	)
	if err != nil {
		return err
	}
	worker, err := gojob.NewRefreshWorker(gojob.NewDequeuerAdapter(jobs), refresher, a.logger)
	if err != nil {
		return err
	}

	if err := scheduler.Start(ctx); err != nil {
		return err
	}
	defer scheduler.Stop()
	a.logger.Info("queued events refresher started", "queue", redisstore.DefaultQueueName)
	err = worker.Run(ctx)
	a.logger.Info("queued events refresher stopped")
	return err
}
