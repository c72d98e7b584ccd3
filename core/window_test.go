package core

import (
	"testing"
	"time"
)

func TestUpcomingEventsParameters_Defaults(t *testing.T) {
	now := time.Date(2024, time.March, 30, 18, 0, 0, 0, time.UTC)
	params := UpcomingEventsParameters(now, DefaultEventsWindow())

	want := map[string]string{
		"start_dt":      "20240330",
		"end_dt":        "20240402",
		"event_state":   "2",
		"node_type":     "E",
		"scope":         "extended",
		"event_type_id": "22+29+33+41+44+43",
	}
	if len(params) != len(want) {
		t.Fatalf("unexpected params %v", params)
	}
	for key, value := range want {
		if params[key] != value {
			t.Fatalf("expected %s=%q, got %q", key, value, params[key])
		}
	}
}

func TestUpcomingEventsParameters_OmitsEmptyFilters(t *testing.T) {
	now := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	params := UpcomingEventsParameters(now, EventsWindow{Days: 7})
	if params["end_dt"] != "20240108" {
		t.Fatalf("unexpected end_dt %q", params["end_dt"])
	}
	if _, ok := params["event_type_id"]; ok {
		t.Fatalf("expected empty filter to be omitted")
	}
}
