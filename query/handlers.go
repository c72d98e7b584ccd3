package query

import (
	"context"
	"time"

	"github.com/goliatone/go-r25live/core"
)

type EventsReader interface {
	ListEvents(ctx context.Context, params map[string]string) []core.EventRecord
}

type UpcomingEventsReader interface {
	ListUpcomingEvents(ctx context.Context, now time.Time) []core.EventRecord
}

// ListEventsQuery returns an empty, non-nil slice when the request fails. The
// service logs the reason.
type ListEventsQuery struct {
	reader EventsReader
}

func NewListEventsQuery(reader EventsReader) *ListEventsQuery {
	return &ListEventsQuery{reader: reader}
}

func (q *ListEventsQuery) Query(ctx context.Context, msg ListEventsMessage) ([]core.EventRecord, error) {
	if q == nil || q.reader == nil {
		return nil, queryDependencyError("query: events reader is required")
	}
	return nonNil(q.reader.ListEvents(ctx, msg.Params)), nil
}

type ListUpcomingEventsQuery struct {
	reader UpcomingEventsReader
}

func NewListUpcomingEventsQuery(reader UpcomingEventsReader) *ListUpcomingEventsQuery {
	return &ListUpcomingEventsQuery{reader: reader}
}

func (q *ListUpcomingEventsQuery) Query(
	ctx context.Context,
	msg ListUpcomingEventsMessage,
) ([]core.EventRecord, error) {
	if q == nil || q.reader == nil {
		return nil, queryDependencyError("query: upcoming events reader is required")
	}
	return nonNil(q.reader.ListUpcomingEvents(ctx, msg.Now)), nil
}

func nonNil(events []core.EventRecord) []core.EventRecord {
	if events == nil {
		return []core.EventRecord{}
	}
	return events
}
