package core

import (
	"strings"
	"time"
)

const EventsQueryDateLayout = "20060102"

type EventsWindow struct {
	Days         int
	EventState   string
	NodeType     string
	Scope        string
	EventTypeIDs string
}

func DefaultEventsWindow() EventsWindow {
	return EventsWindowFromConfig(DefaultEventsConfig())
}

func EventsWindowFromConfig(cfg EventsConfig) EventsWindow {
	return EventsWindow{
		Days:         cfg.WindowDays,
		EventState:   cfg.EventState,
		NodeType:     cfg.NodeType,
		Scope:        cfg.Scope,
		EventTypeIDs: cfg.EventTypeIDs,
	}
}

// UpcomingEventsParameters builds the reservations query for the window
// starting on the day of now. Empty filters are left out of the query.
func UpcomingEventsParameters(now time.Time, window EventsWindow) map[string]string {
	if window.Days <= 0 {
		window.Days = DefaultEventsConfig().WindowDays
	}
	params := map[string]string{
		"start_dt": now.Format(EventsQueryDateLayout),
		"end_dt":   now.AddDate(0, 0, window.Days).Format(EventsQueryDateLayout),
	}
	for key, value := range map[string]string{
		"event_state":   window.EventState,
		"node_type":     window.NodeType,
		"scope":         window.Scope,
		"event_type_id": window.EventTypeIDs,
	} {
		if value = strings.TrimSpace(value); value != "" {
			params[key] = value
		}
	}
	return params
}
