package schedule

import (
	"bytes"
	"fmt"
	"strings"

	"golang.org/x/net/html"

	appLog "schedcal/internal/log"
	"schedcal/internal/model"
)

// rawItem holds the untyped text fragments collected for one schedule item
// before field parsing.
type rawItem struct {
	subtype     string
	duration    string
	meetingTime string
	meetingDay  string
	location    string
}

// Extract scans a saved schedule page for course-section items and returns
// the structured events in document order of their anchors, using the
// portal's default schema.
func Extract(htmlText []byte) (model.ExtractResult, error) {
	return ExtractWithSchema(htmlText, DefaultSchema())
}

// ExtractWithSchema runs one extraction pass with an explicit Schema.
//
// Error policy: malformed duration or time text in a single item is logged,
// recorded as a warning and leaves the affected fields empty; an item with
// no resolvable term start or meeting weekday produces no event. Only an
// unparseable document yields an error.
func ExtractWithSchema(htmlText []byte, s Schema) (model.ExtractResult, error) {
	doc, err := html.Parse(bytes.NewReader(htmlText))
	if err != nil {
		return model.ExtractResult{}, fmt.Errorf("parse html: %w", err)
	}

	var res model.ExtractResult

	for _, anchor := range findAnchors(doc, s) {
		title := textContent(anchor)
		item := scanItem(anchor, s)

		ev, warns := buildEvent(title, item)
		res.Warnings = append(res.Warnings, warns...)

		// Track the latest per-item term end even when the item itself is
		// dropped; it only serves as a default for the user-entered date.
		if ev != nil && ev.TermEnd.After(res.DetectedTermEnd) {
			res.DetectedTermEnd = ev.TermEnd
		}

		if ev == nil || ev.Date.IsZero() {
			continue
		}
		res.Events = append(res.Events, *ev)
	}

	appLog.Info("schedule extraction completed",
		"event_count", len(res.Events),
		"warning_count", len(res.Warnings),
	)
	return res, nil
}

// findAnchors returns all schema anchors in document order.
func findAnchors(doc *html.Node, s Schema) []*html.Node {
	var anchors []*html.Node
	for n := doc; n != nil; n = successor(n) {
		if n.Type == html.ElementNode && s.Anchor(n) {
			anchors = append(anchors, n)
		}
	}
	return anchors
}

// scanItem walks forward from the anchor in document order, collecting the
// first subtype fragment, the first duration fragment and the first meeting
// container, until the schema's terminator ends the item's block.
func scanItem(anchor *html.Node, s Schema) rawItem {
	var item rawItem
	meetingFound := false

	for n := successor(anchor); n != nil; n = successor(n) {
		if n.Type != html.ElementNode {
			continue
		}
		if s.Terminator(n) {
			break
		}

		text := textContent(n)
		switch {
		case item.subtype == "" && s.SubtypeText(text):
			item.subtype = text
		case item.duration == "" && s.DurationText(text):
			item.duration = text
		}

		if !meetingFound && s.MeetingContainer(n) {
			ps := paragraphs(n)
			if len(ps) >= s.MeetingFieldCount {
				item.meetingTime = textContent(ps[0])
				item.meetingDay = textContent(ps[1])
				item.location = textContent(ps[2])
				meetingFound = true
			}
		}
	}
	return item
}

// buildEvent parses the collected fragments into a ScheduleEvent. A nil
// event means the item was dropped (no term start or unrecognized weekday);
// the item may still carry a parsed term end in the returned event's place
// via a non-nil event with a zero Date.
func buildEvent(title string, item rawItem) (*model.ScheduleEvent, []string) {
	var warns []string

	termStart, termEnd, err := parseDurationRange(item.duration)
	if err != nil {
		appLog.Error("duration parse failed", err, "title", title, "duration", item.duration)
		warns = append(warns, fmt.Sprintf("%s: %v", title, err))
	}

	startTime, endTime, err := parseClockRange(item.meetingTime)
	if err != nil {
		// Non-fatal: the event survives with empty times. Emission will
		// reject it later if the user generates a calendar from it.
		appLog.Error("meeting time parse failed", err, "title", title, "time", item.meetingTime)
		warns = append(warns, fmt.Sprintf("%s: %v", title, err))
		startTime, endTime = "", ""
	}

	ev := &model.ScheduleEvent{
		Title:     title,
		Category:  classify(item.subtype),
		Day:       item.meetingDay,
		StartTime: startTime,
		EndTime:   endTime,
		Location:  item.location,
		TermStart: termStart,
		TermEnd:   termEnd,
	}

	weekday, ok := weekdayByName(item.meetingDay)
	if !ok || termStart.IsZero() {
		warns = append(warns, fmt.Sprintf("%s: missing term start or meeting day, item skipped", title))
		if termEnd.IsZero() {
			return nil, warns
		}
		// Keep the term end visible to the caller; zero Date marks the drop.
		return ev, warns
	}

	ev.Date = firstOnOrAfter(termStart, weekday)
	return ev, warns
}

// classify maps subtype text to a category. Matching is case-sensitive
// substring containment; Laboratory wins over Lecture.
func classify(subtype string) string {
	switch {
	case strings.Contains(subtype, "Laboratory"):
		return model.CategoryLab
	case strings.Contains(subtype, "Lecture"):
		return model.CategoryLecture
	default:
		return ""
	}
}

// successor returns the next node in document order (depth-first).
func successor(n *html.Node) *html.Node {
	if n.FirstChild != nil {
		return n.FirstChild
	}
	for ; n != nil; n = n.Parent {
		if n.NextSibling != nil {
			return n.NextSibling
		}
	}
	return nil
}

// paragraphs returns the <p> descendants of n in document order.
func paragraphs(n *html.Node) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(c *html.Node) {
		for ; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode && c.Data == "p" {
				out = append(out, c)
			}
			walk(c.FirstChild)
		}
	}
	walk(n.FirstChild)
	return out
}

// textContent collapses the text of n's subtree: each text fragment is
// trimmed and the non-empty fragments concatenated, matching how the portal
// page renders labels split across inline elements.
func textContent(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(c *html.Node) {
		for ; c != nil; c = c.NextSibling {
			if c.Type == html.TextNode {
				b.WriteString(strings.TrimSpace(c.Data))
			}
			walk(c.FirstChild)
		}
	}
	walk(n.FirstChild)
	return b.String()
}
