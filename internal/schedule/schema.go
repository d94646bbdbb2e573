package schedule

import (
	"strings"

	"golang.org/x/net/html"
)

// Portal markup markers. These are the only structural assumptions made
// about the saved schedule page; anything that deviates degrades to missing
// fields or dropped items rather than a hard failure.
const (
	anchorIDPrefix     = "btnItemTitle_section_"
	subtypePrefix      = "Subtype:"
	durationPrefix     = "Duration:"
	meetingClassMarker = "WithWidth-ScheduleItem--meeting"
)

// Schema declares the expected document shape as a set of node predicates
// plus a traversal-termination predicate. The extractor evaluates a Schema
// against the parsed tree, so the matching contract lives in one place and
// can be tested against fixture documents.
type Schema struct {
	// Anchor matches the element that opens a schedule item; its text is
	// the course title.
	Anchor func(*html.Node) bool

	// SubtypeText / DurationText match collapsed element text fragments.
	// First match wins for each slot.
	SubtypeText  func(string) bool
	DurationText func(string) bool

	// MeetingContainer matches the element holding the meeting details as
	// positional paragraph children: time, day, location.
	MeetingContainer func(*html.Node) bool

	// MeetingFieldCount is the minimum number of paragraph children the
	// meeting container must have.
	MeetingFieldCount int

	// Terminator matches the structural divider that ends one item's block.
	Terminator func(*html.Node) bool
}

// DefaultSchema encodes the portal's markup: <button id="btnItemTitle_section_*">
// anchors, "Subtype:" / "Duration:" text fragments, a meeting <div> whose
// class list contains the marker substring, and an <hr> terminator.
func DefaultSchema() Schema {
	return Schema{
		Anchor: func(n *html.Node) bool {
			return n.Type == html.ElementNode && n.Data == "button" &&
				strings.HasPrefix(attr(n, "id"), anchorIDPrefix)
		},
		SubtypeText:  func(s string) bool { return strings.HasPrefix(s, subtypePrefix) },
		DurationText: func(s string) bool { return strings.HasPrefix(s, durationPrefix) },
		MeetingContainer: func(n *html.Node) bool {
			if n.Type != html.ElementNode || n.Data != "div" {
				return false
			}
			for _, cls := range strings.Fields(attr(n, "class")) {
				if strings.Contains(cls, meetingClassMarker) {
					return true
				}
			}
			return false
		},
		MeetingFieldCount: 3,
		Terminator: func(n *html.Node) bool {
			return n.Type == html.ElementNode && n.Data == "hr"
		},
	}
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}
