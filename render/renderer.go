// Package render turns event records into the upcoming events markup block.
package render

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"strings"

	"github.com/goliatone/go-r25live/core"
)

const (
	DefaultHeading = "Upcoming Events"
	DefaultLimit   = 30
)

const eventsTemplate = `<h2>{{.Heading}}</h2>
{{- range .Events}}
<div class="event">
  <p class="event-title">{{.Name}}</p>
  <p class="event-date">{{.StartDate}} {{.StartTime}}</p>
{{- if .Description}}
  <p class="event-description">{{.Description}}</p>
{{- end}}
{{- if .Location}}
  <p class="event-location">{{.Location}}</p>
{{- end}}
</div>
{{- end}}
`

type Option func(*EventsRenderer)

func WithHeading(heading string) Option {
	return func(r *EventsRenderer) {
		if trimmed := strings.TrimSpace(heading); trimmed != "" {
			r.heading = trimmed
		}
	}
}

// WithLimit caps the number of rendered events. Values below one keep the
// default.
func WithLimit(limit int) Option {
	return func(r *EventsRenderer) {
		if limit > 0 {
			r.limit = limit
		}
	}
}

type EventsRenderer struct {
	heading  string
	limit    int
	template *template.Template
}

func NewEventsRenderer(opts ...Option) *EventsRenderer {
	renderer := &EventsRenderer{
		heading:  DefaultHeading,
		limit:    DefaultLimit,
		template: template.Must(template.New("events").Parse(eventsTemplate)),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(renderer)
		}
	}
	return renderer
}

func (r *EventsRenderer) Limit() int {
	return r.limit
}

func (r *EventsRenderer) Render(w io.Writer, events []core.EventRecord) error {
	if len(events) > r.limit {
		events = events[:r.limit]
	}
	data := struct {
		Heading string
		Events  []core.EventRecord
	}{
		Heading: r.heading,
		Events:  events,
	}
	if err := r.template.Execute(w, data); err != nil {
		return fmt.Errorf("render: execute events template: %w", err)
	}
	return nil
}

func (r *EventsRenderer) RenderString(events []core.EventRecord) (string, error) {
	var buf bytes.Buffer
	if err := r.Render(&buf, events); err != nil {
		return "", err
	}
	return buf.String(), nil
}
