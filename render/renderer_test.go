package render

import (
	"fmt"
	"strings"
	"testing"

	"github.com/goliatone/go-r25live/core"
)

func sampleEvents() []core.EventRecord {
	return []core.EventRecord{
		{
			ID:          "101",
			Name:        "Spring Concert",
			StartDate:   "Tuesday 5 March 2024",
			StartTime:   "2:30 pm",
			Location:    "Main Hall",
			Description: "Annual & free.",
		},
		{
			ID:        "102",
			Name:      "Board Meeting",
			StartDate: "Wednesday 6 March 2024",
			StartTime: "9:00 am",
		},
	}
}

func TestEventsRenderer_RendersEvents(t *testing.T) {
	out, err := NewEventsRenderer().RenderString(sampleEvents())
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.HasPrefix(out, "<h2>Upcoming Events</h2>") {
		t.Fatalf("expected heading first, got %q", out)
	}
	for _, want := range []string{
		`<p class="event-title">Spring Concert</p>`,
		`<p class="event-date">Tuesday 5 March 2024 2:30 pm</p>`,
		`<p class="event-description">Annual &amp; free.</p>`,
		`<p class="event-location">Main Hall</p>`,
		`<p class="event-date">Wednesday 6 March 2024 9:00 am</p>`,
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
	if got := strings.Count(out, `<div class="event">`); got != 2 {
		t.Fatalf("expected two event blocks, got %d", got)
	}
	if got := strings.Count(out, `event-description`); got != 1 {
		t.Fatalf("expected description only for the first event, got %d", got)
	}
	if got := strings.Count(out, `event-location`); got != 1 {
		t.Fatalf("expected location only for the first event, got %d", got)
	}
}

func TestEventsRenderer_EscapesMarkup(t *testing.T) {
	out, err := NewEventsRenderer().RenderString([]core.EventRecord{{
		Name:      `<script>alert("x")</script>`,
		StartDate: "Tuesday 5 March 2024",
	}})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if strings.Contains(out, "<script>") {
		t.Fatalf("expected escaped markup, got %s", out)
	}
}

func TestEventsRenderer_CapsAtLimit(t *testing.T) {
	events := make([]core.EventRecord, 0, 40)
	for i := range 40 {
		events = append(events, core.EventRecord{ID: fmt.Sprint(i), Name: fmt.Sprintf("Event %d", i)})
	}
	out, err := NewEventsRenderer().RenderString(events)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if got := strings.Count(out, `<div class="event">`); got != DefaultLimit {
		t.Fatalf("expected %d events, got %d", DefaultLimit, got)
	}
	if strings.Contains(out, "Event 30<") {
		t.Fatalf("expected records past the cap to be dropped")
	}

	out, err = NewEventsRenderer(WithLimit(2), WithHeading("This Week")).RenderString(events)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.HasPrefix(out, "<h2>This Week</h2>") || strings.Count(out, `<div class="event">`) != 2 {
		t.Fatalf("unexpected custom render %s", out)
	}
}

func TestEventsRenderer_EmptyListRendersHeadingOnly(t *testing.T) {
	out, err := NewEventsRenderer(WithLimit(0)).RenderString(nil)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if strings.TrimSpace(out) != "<h2>Upcoming Events</h2>" {
		t.Fatalf("unexpected empty render %q", out)
	}
}
