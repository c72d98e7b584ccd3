package query

import (
	"strings"
	"time"
)

const (
	TypeListEvents         = "r25live.query.events.list"
	TypeListUpcomingEvents = "r25live.query.events.upcoming"
)

// ListEventsMessage passes Params through as reservations.xml query
// parameters.
type ListEventsMessage struct {
	Params map[string]string
}

func (ListEventsMessage) Type() string { return TypeListEvents }

func (m ListEventsMessage) Validate() error {
	for key := range m.Params {
		if strings.TrimSpace(key) == "" {
			return queryValidationError("params", "parameter names must not be empty")
		}
	}
	return nil
}

// ListUpcomingEventsMessage lists the configured window starting on the day
// of Now. A zero Now means the current time.
type ListUpcomingEventsMessage struct {
	Now time.Time
}

func (ListUpcomingEventsMessage) Type() string { return TypeListUpcomingEvents }

func (ListUpcomingEventsMessage) Validate() error { return nil }
