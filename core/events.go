package core

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/beevik/etree"
	glog "github.com/goliatone/go-logger/glog"
)

const (
	EventDateLayout = "Monday 2 January 2006"
	EventTimeLayout = "3:04 pm"
)

var eventDateTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
}

// EventsRepository lists reservations through a Connection, re-authenticating
// once when the stored session has expired.
type EventsRepository struct {
	conn     *Connection
	logger   Logger
	location *time.Location
}

func NewEventsRepository(conn *Connection, logger Logger, location *time.Location) *EventsRepository {
	if logger == nil {
		logger = glog.Nop()
	}
	if location == nil {
		location = time.UTC
	}
	return &EventsRepository{conn: conn, logger: logger, location: location}
}

// ListEvents never fails outward. Failures are logged and yield an empty list.
func (r *EventsRepository) ListEvents(ctx context.Context, params map[string]string) []EventRecord {
	return r.FetchEvents(ctx, params).Events
}

func (r *EventsRepository) FetchEvents(ctx context.Context, params map[string]string) EventsResult {
	if ctx == nil {
		ctx = context.Background()
	}
	result := EventsResult{Events: []EventRecord{}}
	if r == nil || r.conn == nil {
		result.Status = StatusFromError(InternalError(nil, "events repository has no connection"))
		return result
	}

	result.Attempts = 1
	body := r.conn.Request(ctx, ReservationsDocument, params, "")
	status := r.conn.Status()
	if status.Error && status.Code == http.StatusUnauthorized {
		r.conn.ResetStatus()
		r.conn.Login(ctx)
		result.Relogins = 1
		status = r.conn.Status()
		if !status.Error {
			if !r.conn.IsLoggedIn(ctx) {
				status = StatusFromError(AuthenticationError("no session after login"))
			} else {
				result.Attempts = 2
				body = r.conn.Request(ctx, ReservationsDocument, params, "")
				status = r.conn.Status()
			}
		}
	}
	if status.Error {
		return r.failed(ctx, result, status)
	}

	events, err := ParseReservations(body, r.location)
	if err != nil {
		return r.failed(ctx, result, StatusFromError(err))
	}
	result.Events = events
	result.Status = status
	return result
}

func (r *EventsRepository) failed(ctx context.Context, result EventsResult, status RequestStatus) EventsResult {
	logWithLevel(ctx, r.logger, "error", "failed to get events", map[string]any{
		"code":     status.Code,
		"message":  status.Message,
		"attempts": result.Attempts,
	})
	result.Events = []EventRecord{}
	result.Status = status
	return result
}

// ParseReservations maps every reservation element into an EventRecord. A
// missing or malformed start or end datetime fails the whole batch; a missing
// id or name leaves that field empty.
func ParseReservations(payload string, location *time.Location) ([]EventRecord, error) {
	if location == nil {
		location = time.UTC
	}
	doc, err := parseXMLDocument(payload)
	if err != nil {
		return nil, ParseError(err, "failed to parse reservations")
	}
	reservations := findDescendants(&doc.Element, "reservation")
	events := make([]EventRecord, 0, len(reservations))
	for index, reservation := range reservations {
		event, err := parseReservation(reservation, location)
		if err != nil {
			return nil, ParseError(err, "invalid reservation at position "+strconv.Itoa(index))
		}
		events = append(events, event)
	}
	return events, nil
}

func parseReservation(reservation *etree.Element, location *time.Location) (EventRecord, error) {
	id, _ := descendantText(reservation, "event_id")
	name, _ := descendantText(reservation, "event_name")
	start, err := reservationTime(reservation, "event_start_dt", location)
	if err != nil {
		return EventRecord{}, err
	}
	end, err := reservationTime(reservation, "event_end_dt", location)
	if err != nil {
		return EventRecord{}, err
	}

	event := EventRecord{
		ID:        id,
		Name:      name,
		StartDate: start.Format(EventDateLayout),
		StartTime: start.Format(EventTimeLayout),
		EndDate:   end.Format(EventDateLayout),
		EndTime:   end.Format(EventTimeLayout),
	}
	if place, ok := descendantText(reservation, "formal_name"); ok {
		event.Location = place
	}

	var description strings.Builder
	for _, text := range findDescendants(reservation, "event_text") {
		typeID, _ := descendantText(text, "text_type_id")
		if value, err := strconv.Atoi(typeID); err != nil || value != 1 {
			continue
		}
		if body := findDescendant(text, "text"); body != nil {
			description.WriteString(textContent(body))
		}
	}
	event.Description = description.String()
	return event, nil
}

func reservationTime(reservation *etree.Element, local string, location *time.Location) (time.Time, error) {
	raw, ok := descendantText(reservation, local)
	if !ok || raw == "" {
		return time.Time{}, ParseError(nil, "reservation is missing "+local)
	}
	value, err := ParseEventDateTime(raw, location)
	if err != nil {
		return time.Time{}, ParseError(err, "reservation has invalid "+local)
	}
	return value, nil
}

// ParseEventDateTime accepts RFC3339 values and offset-less values, which
// are read in location.
func ParseEventDateTime(raw string, location *time.Location) (time.Time, error) {
	if location == nil {
		location = time.UTC
	}
	raw = strings.TrimSpace(raw)
	var lastErr error
	for _, layout := range eventDateTimeLayouts {
		value, err := time.ParseInLocation(layout, raw, location)
		if err == nil {
			return value, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}
