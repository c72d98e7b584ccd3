package query

import (
	gocmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-r25live/core"
)

var (
	_ gocmd.Querier[ListEventsMessage, []core.EventRecord]         = (*ListEventsQuery)(nil)
	_ gocmd.Querier[ListUpcomingEventsMessage, []core.EventRecord] = (*ListUpcomingEventsQuery)(nil)

	_ EventsReader         = (*core.Service)(nil)
	_ UpcomingEventsReader = (*core.Service)(nil)
)
