package gcal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	appLog "schedcal/internal/log"
	"schedcal/internal/model"
)

// ErrNotAuthorized is returned when no usable OAuth token exists yet.
// The caller should run the auth flow (AuthURL + Exchange) first.
var ErrNotAuthorized = errors.New("google calendar: not authorized")

// Exporter inserts extracted schedule events into the user's primary
// Google Calendar as weekly-recurring events.
type Exporter struct {
	oauthCfg  *oauth2.Config
	service   *calendar.Service
	tokenPath string

	// timezone is attached to inserted events; the Google API requires a
	// zone for recurring events even though the ICS path stays zone-free.
	timezone string
}

// NewExporter reads the OAuth client credentials and, if a persisted token
// exists at tokenPath, builds an authorized Calendar service. Without a
// token the Exporter is still returned so the auth flow can run.
func NewExporter(ctx context.Context, credentialsPath, tokenPath, timezone string) (*Exporter, error) {
	data, err := os.ReadFile(credentialsPath)
	if err != nil {
		return nil, fmt.Errorf("read credentials: %w", err)
	}

	oauthCfg, err := google.ConfigFromJSON(data, calendar.CalendarEventsScope)
	if err != nil {
		return nil, fmt.Errorf("parse credentials: %w", err)
	}

	e := &Exporter{
		oauthCfg:  oauthCfg,
		tokenPath: tokenPath,
		timezone:  timezone,
	}

	tok, err := tokenFromFile(tokenPath)
	if err != nil {
		// No token yet; the caller drives the auth flow.
		return e, nil
	}

	svc, err := calendar.NewService(ctx, option.WithHTTPClient(oauthCfg.Client(ctx, tok)))
	if err != nil {
		return nil, fmt.Errorf("create calendar service: %w", err)
	}
	e.service = svc
	return e, nil
}

// Authorized reports whether a Calendar service is ready.
func (e *Exporter) Authorized() bool {
	return e.service != nil
}

// AuthURL returns the URL the user must visit to grant access.
func (e *Exporter) AuthURL() string {
	return e.oauthCfg.AuthCodeURL("state-token", oauth2.AccessTypeOffline)
}

// Exchange trades the auth code for a token, persists it and builds the
// Calendar service.
func (e *Exporter) Exchange(ctx context.Context, code string) error {
	tok, err := e.oauthCfg.Exchange(ctx, code)
	if err != nil {
		return fmt.Errorf("exchange auth code: %w", err)
	}
	if err := saveToken(e.tokenPath, tok); err != nil {
		appLog.Error("unable to cache oauth token", err, "path", e.tokenPath)
	}

	svc, err := calendar.NewService(ctx, option.WithHTTPClient(e.oauthCfg.Client(ctx, tok)))
	if err != nil {
		return fmt.Errorf("create calendar service: %w", err)
	}
	e.service = svc
	return nil
}

// Insert inserts one recurring Google Calendar event per schedule event,
// all terminating at 23:59:59 UTC on termEnd. Returns the number inserted.
//
// Unlike calendar-file emission this is not all-or-nothing: events already
// inserted stay if a later insert fails, because the API offers no batch
// rollback. The error reports how far the export got.
func (e *Exporter) Insert(ctx context.Context, events []model.ScheduleEvent, termEnd time.Time) (int, error) {
	if e.service == nil {
		return 0, ErrNotAuthorized
	}

	for i, ev := range events {
		gev, err := toGoogleEvent(ev, termEnd, e.timezone)
		if err != nil {
			return i, err
		}
		if _, err := e.service.Events.Insert("primary", gev).Context(ctx).Do(); err != nil {
			return i, fmt.Errorf("insert %q: %w", ev.Title, err)
		}
		appLog.Info("google event inserted", "title", ev.Title, "day", ev.Day)
	}
	return len(events), nil
}

// toGoogleEvent maps one ScheduleEvent to the Calendar API shape, mirroring
// the fields of the emitted VEVENT.
func toGoogleEvent(ev model.ScheduleEvent, termEnd time.Time, timezone string) (*calendar.Event, error) {
	st, err := time.Parse("15:04", ev.StartTime)
	if err != nil {
		return nil, fmt.Errorf("start time of %q: %w", ev.Title, err)
	}
	et, err := time.Parse("15:04", ev.EndTime)
	if err != nil {
		return nil, fmt.Errorf("end time of %q: %w", ev.Title, err)
	}

	d := ev.Date
	start := fmt.Sprintf("%04d-%02d-%02dT%02d:%02d:00", d.Year(), d.Month(), d.Day(), st.Hour(), st.Minute())
	end := fmt.Sprintf("%04d-%02d-%02dT%02d:%02d:00", d.Year(), d.Month(), d.Day(), et.Hour(), et.Minute())
	until := time.Date(termEnd.Year(), termEnd.Month(), termEnd.Day(), 23, 59, 59, 0, time.UTC)

	return &calendar.Event{
		Summary:     fmt.Sprintf("%s (%s)", ev.Title, ev.Category),
		Location:    ev.Location,
		Description: ev.Category,
		Start: &calendar.EventDateTime{
			DateTime: start,
			TimeZone: timezone,
		},
		End: &calendar.EventDateTime{
			DateTime: end,
			TimeZone: timezone,
		},
		Recurrence: []string{
			fmt.Sprintf("RRULE:FREQ=WEEKLY;UNTIL=%s", until.Format("20060102T150405Z")),
		},
	}, nil
}

func tokenFromFile(path string) (*oauth2.Token, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	tok := &oauth2.Token{}
	if err := json.NewDecoder(f).Decode(tok); err != nil {
		return nil, err
	}
	return tok, nil
}

func saveToken(path string, token *oauth2.Token) error {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	defer f.Close()
	return json.NewEncoder(f).Encode(token)
}
