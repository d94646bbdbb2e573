package schedule

import (
	"fmt"
	"strings"
	"time"
)

const (
	durationLayout = "1/2/2006" // M/D/YYYY as written by the portal
	clockLayout12  = "3:04 PM"  // 12-hour wall clock with AM/PM marker
	clockLayout24  = "15:04"    // stored representation
)

var weekdays = map[string]time.Weekday{
	"Monday":    time.Monday,
	"Tuesday":   time.Tuesday,
	"Wednesday": time.Wednesday,
	"Thursday":  time.Thursday,
	"Friday":    time.Friday,
	"Saturday":  time.Saturday,
	"Sunday":    time.Sunday,
}

// parseDurationRange parses a "Duration: M/D/YYYY - M/D/YYYY" fragment into
// term start and end dates. Empty input is not an error; the item simply has
// no duration and will be dropped downstream.
func parseDurationRange(text string) (start, end time.Time, err error) {
	if text == "" {
		return time.Time{}, time.Time{}, nil
	}

	trimmed := strings.TrimSpace(strings.TrimPrefix(text, durationPrefix))
	parts := strings.Split(trimmed, "-")
	if len(parts) != 2 {
		return time.Time{}, time.Time{}, fmt.Errorf("duration %q: want two dates separated by '-'", trimmed)
	}

	start, err = time.Parse(durationLayout, strings.TrimSpace(parts[0]))
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("duration start: %w", err)
	}
	end, err = time.Parse(durationLayout, strings.TrimSpace(parts[1]))
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("duration end: %w", err)
	}
	return start, end, nil
}

// parseClockRange parses a "H:MM AM/PM - H:MM AM/PM" meeting time into a
// pair of 24-hour "HH:MM" strings. On error both returned strings are empty;
// the caller keeps the event but without times. Empty input is not an error.
func parseClockRange(text string) (startTime, endTime string, err error) {
	if text == "" {
		return "", "", nil
	}

	parts := strings.Split(text, "-")
	if len(parts) != 2 {
		return "", "", fmt.Errorf("meeting time %q: want two times separated by '-'", text)
	}

	startTime, err = convertClock(parts[0])
	if err != nil {
		return "", "", err
	}
	endTime, err = convertClock(parts[1])
	if err != nil {
		return "", "", err
	}
	return startTime, endTime, nil
}

// convertClock converts one 12-hour clock reading ("1:10 PM") to 24-hour
// "HH:MM" text ("13:10"). The AM/PM marker may be attached without a space.
func convertClock(s string) (string, error) {
	s = strings.ToUpper(strings.TrimSpace(s))

	t, err := time.Parse(clockLayout12, s)
	if err != nil {
		t, err = time.Parse("3:04PM", s)
	}
	if err != nil {
		return "", fmt.Errorf("clock time %q: %w", s, err)
	}
	return t.Format(clockLayout24), nil
}

// weekdayByName resolves a weekday name exactly as it appears in the source.
func weekdayByName(name string) (time.Weekday, bool) {
	wd, ok := weekdays[name]
	return wd, ok
}

// firstOnOrAfter advances day by day from start until the weekday matches,
// returning the earliest matching date. At most six steps are taken.
func firstOnOrAfter(start time.Time, day time.Weekday) time.Time {
	d := start
	for i := 0; i < 7; i++ {
		if d.Weekday() == day {
			return d
		}
		d = d.AddDate(0, 0, 1)
	}
	return d
}
