package model

import "time"

// Category classifies a schedule item by its subtype text.
// The empty string means the subtype was missing or unrecognized.
const (
	CategoryLab     = "Lab"
	CategoryLecture = "Lecture"
)

// ScheduleEvent is one course-section meeting pattern extracted from the
// portal's schedule page. Instances are built once by the extractor and are
// never mutated afterwards; the emitter only reads them.
type ScheduleEvent struct {
	// Title is the course/section display name from the anchor button.
	Title string `json:"title"`

	// Category is CategoryLab, CategoryLecture or "".
	Category string `json:"category"`

	// Day is the weekday name exactly as it appears in the source text,
	// e.g. "Monday".
	Day string `json:"day"`

	// StartTime / EndTime are 24-hour "HH:MM" strings. Either both are set
	// or both are empty; a half-parsed time range is never kept.
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`

	// Location is the free-text room/building string.
	Location string `json:"location"`

	// Date is the first calendar date on/after the term start whose weekday
	// matches Day. Only the date part is meaningful.
	Date time.Time `json:"date"`

	// TermStart / TermEnd are the per-item duration dates as parsed from
	// the source. TermEnd is carried for completeness but the emitter
	// ignores it: recurrence always terminates at the single user-supplied
	// term end.
	TermStart time.Time `json:"term_start"`
	TermEnd   time.Time `json:"term_end"`
}

// ExtractResult is the immutable outcome of one extraction pass over one
// document. Callers hold it as a value; loading a new document produces a
// fresh result rather than mutating the old one.
type ExtractResult struct {
	Events []ScheduleEvent `json:"events"`

	// Warnings are human-readable notes about items that were dropped or
	// partially parsed. They never abort extraction.
	Warnings []string `json:"warnings,omitempty"`

	// DetectedTermEnd is the latest per-item term end seen in the document,
	// zero if none parsed. It is offered to the user as a default for the
	// externally supplied term end and is never consulted by the emitter.
	DetectedTermEnd time.Time `json:"detected_term_end,omitempty"`
}
