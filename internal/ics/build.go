package ics

import (
	"errors"
	"fmt"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/google/uuid"
	"github.com/teambition/rrule-go"

	appLog "schedcal/internal/log"
	"schedcal/internal/model"
)

const (
	// DefaultProductID is written as PRODID when no config overrides it.
	DefaultProductID = "-//University Schedule Converter//EN"

	localStampLayout = "20060102T150405" // DTSTART/DTEND, floating local time
	storedClock      = "15:04"           // extractor's HH:MM representation
)

// ErrInvalidEventTime marks an event whose stored start or end time is not
// valid "HH:MM" text at generation time. One such event fails the whole
// batch: a partial calendar file is never produced.
var ErrInvalidEventTime = errors.New("event time is not valid HH:MM")

// Builder assembles iCalendar documents from extracted schedule events.
// The zero value is not usable; construct with NewBuilder.
type Builder struct {
	productID string

	// now and newUID exist so tests can pin DTSTAMP and UID values.
	now    func() time.Time
	newUID func() string
}

func NewBuilder(productID string) *Builder {
	if productID == "" {
		productID = DefaultProductID
	}
	return &Builder{
		productID: productID,
		now:       time.Now,
		newUID:    uuid.NewString,
	}
}

// Build emits a complete VCALENDAR document for the given events. Every
// event recurs weekly until 23:59:59 UTC on termEnd — the single externally
// supplied date; each event's own parsed term end is deliberately ignored.
//
// Emission is all-or-nothing: if any event's time fields fail to parse,
// no output is returned.
func (b *Builder) Build(events []model.ScheduleEvent, termEnd time.Time) (string, error) {
	if termEnd.IsZero() {
		return "", errors.New("term end date is required")
	}

	until := time.Date(termEnd.Year(), termEnd.Month(), termEnd.Day(), 23, 59, 59, 0, time.UTC)
	weeklyUntil := fmt.Sprintf("FREQ=WEEKLY;UNTIL=%s", until.Format("20060102T150405Z"))
	// Sanity-check the rule text before stamping it on every event.
	if _, err := rrule.StrToRRule(weeklyUntil); err != nil {
		return "", fmt.Errorf("build recurrence rule: %w", err)
	}

	cal := ical.NewCalendar()
	cal.SetProductId(b.productID)

	for _, ev := range events {
		start, end, err := eventInstants(ev)
		if err != nil {
			appLog.Error("calendar generation aborted", err, "title", ev.Title)
			return "", err
		}

		ve := cal.AddEvent(b.newUID())
		ve.SetDtStampTime(b.now().UTC())
		ve.SetProperty(ical.ComponentPropertyDtStart, start.Format(localStampLayout))
		ve.SetProperty(ical.ComponentPropertyDtEnd, end.Format(localStampLayout))
		ve.SetSummary(fmt.Sprintf("%s (%s)", ev.Title, ev.Category))
		ve.SetLocation(ev.Location)
		ve.AddRrule(weeklyUntil)
	}

	appLog.Info("calendar generated",
		"event_count", len(events),
		"until", until.Format("20060102T150405Z"),
	)
	return cal.Serialize(), nil
}

// eventInstants combines the event's first-occurrence date with its stored
// wall-clock times into concrete start/end instants.
func eventInstants(ev model.ScheduleEvent) (start, end time.Time, err error) {
	st, err := time.Parse(storedClock, ev.StartTime)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: %q (start of %q)", ErrInvalidEventTime, ev.StartTime, ev.Title)
	}
	et, err := time.Parse(storedClock, ev.EndTime)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: %q (end of %q)", ErrInvalidEventTime, ev.EndTime, ev.Title)
	}

	d := ev.Date
	start = time.Date(d.Year(), d.Month(), d.Day(), st.Hour(), st.Minute(), 0, 0, time.UTC)
	end = time.Date(d.Year(), d.Month(), d.Day(), et.Hour(), et.Minute(), 0, 0, time.UTC)
	return start, end, nil
}
