package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fixtureLab = `<html><body>
<div class="SchedulePage">
  <button id="btnItemTitle_section_101" type="button">CS101 Intro</button>
  <p>Subtype: Laboratory Section</p>
  <p>Duration: 1/26/2025 - 6/6/2025</p>
  <div class="css-1abc WithWidth-ScheduleItem--meeting-root">
    <p>1:10 PM - 4:00 PM</p>
    <p>Monday</p>
    <p>Building A Room 2</p>
  </div>
  <hr/>
</div>
</body></html>`

const fixtureTwoItems = `<html><body>
<button id="btnItemTitle_section_101">CS101 Intro</button>
<p>Subtype: Laboratory Section</p>
<p>Duration: 1/26/2025 - 6/6/2025</p>
<div class="x-WithWidth-ScheduleItem--meeting">
  <p>1:10 PM - 4:00 PM</p>
  <p>Monday</p>
  <p>Building A Room 2</p>
</div>
<hr/>
<button id="btnItemTitle_section_102">MATH201 Calculus</button>
<p>Subtype: Lecture, Section 2</p>
<p>Duration: 1/26/2025 - 6/13/2025</p>
<div class="x-WithWidth-ScheduleItem--meeting">
  <p>9:00 AM - 10:30 AM</p>
  <p>Tuesday</p>
  <p>Hall 3</p>
</div>
<hr/>
</body></html>`

func TestExtractSingleLabItem(t *testing.T) {
	res, err := Extract([]byte(fixtureLab))
	require.NoError(t, err)
	require.Len(t, res.Events, 1)

	ev := res.Events[0]
	assert.Equal(t, "CS101 Intro", ev.Title)
	assert.Equal(t, "Lab", ev.Category)
	assert.Equal(t, "Monday", ev.Day)
	assert.Equal(t, "13:10", ev.StartTime)
	assert.Equal(t, "16:00", ev.EndTime)
	assert.Equal(t, "Building A Room 2", ev.Location)

	// 2025-01-26 is a Sunday; the first Monday on/after is the 27th.
	assert.Equal(t, "2025-01-27", ev.Date.Format("2006-01-02"))
	assert.Equal(t, time.Monday, ev.Date.Weekday())

	assert.Equal(t, "2025-01-26", ev.TermStart.Format("2006-01-02"))
	assert.Equal(t, "2025-06-06", ev.TermEnd.Format("2006-01-02"))
}

func TestExtractMultipleItemsInDocumentOrder(t *testing.T) {
	res, err := Extract([]byte(fixtureTwoItems))
	require.NoError(t, err)
	require.Len(t, res.Events, 2)

	assert.Equal(t, "CS101 Intro", res.Events[0].Title)
	assert.Equal(t, "MATH201 Calculus", res.Events[1].Title)
	assert.Equal(t, "Lecture", res.Events[1].Category)
	assert.Equal(t, "09:00", res.Events[1].StartTime)
	assert.Equal(t, "10:30", res.Events[1].EndTime)
	assert.Equal(t, "2025-01-28", res.Events[1].Date.Format("2006-01-02"))

	// Latest per-item term end wins as the detected default.
	assert.Equal(t, "2025-06-13", res.DetectedTermEnd.Format("2006-01-02"))
}

func TestExtractIsIdempotent(t *testing.T) {
	first, err := Extract([]byte(fixtureTwoItems))
	require.NoError(t, err)
	second, err := Extract([]byte(fixtureTwoItems))
	require.NoError(t, err)

	assert.Equal(t, first.Events, second.Events)
	assert.Equal(t, first.Warnings, second.Warnings)
}

func TestExtractMalformedDurationDropsItem(t *testing.T) {
	page := `<html><body>
<button id="btnItemTitle_section_1">PHY110</button>
<p>Subtype: Lecture</p>
<p>Duration: starts soon</p>
<div class="x-WithWidth-ScheduleItem--meeting">
  <p>9:00 AM - 10:00 AM</p>
  <p>Wednesday</p>
  <p>Lab 1</p>
</div>
<hr/>
</body></html>`

	res, err := Extract([]byte(page))
	require.NoError(t, err)
	assert.Empty(t, res.Events)
	assert.NotEmpty(t, res.Warnings)
}

func TestExtractMissingDurationDropsItem(t *testing.T) {
	page := `<html><body>
<button id="btnItemTitle_section_1">PHY110</button>
<p>Subtype: Lecture</p>
<div class="x-WithWidth-ScheduleItem--meeting">
  <p>9:00 AM - 10:00 AM</p>
  <p>Wednesday</p>
  <p>Lab 1</p>
</div>
<hr/>
</body></html>`

	res, err := Extract([]byte(page))
	require.NoError(t, err)
	assert.Empty(t, res.Events)
}

func TestExtractUnrecognizedDayDropsItem(t *testing.T) {
	page := `<html><body>
<button id="btnItemTitle_section_1">PHY110</button>
<p>Subtype: Lecture</p>
<p>Duration: 1/26/2025 - 6/6/2025</p>
<div class="x-WithWidth-ScheduleItem--meeting">
  <p>9:00 AM - 10:00 AM</p>
  <p>Someday</p>
  <p>Lab 1</p>
</div>
<hr/>
</body></html>`

	res, err := Extract([]byte(page))
	require.NoError(t, err)
	assert.Empty(t, res.Events)
	// The parsed term end is still surfaced as a usable default.
	assert.Equal(t, "2025-06-06", res.DetectedTermEnd.Format("2006-01-02"))
}

func TestExtractBadMeetingTimeKeepsEventWithEmptyTimes(t *testing.T) {
	page := `<html><body>
<button id="btnItemTitle_section_1">CHEM210</button>
<p>Subtype: Laboratory</p>
<p>Duration: 1/26/2025 - 6/6/2025</p>
<div class="x-WithWidth-ScheduleItem--meeting">
  <p>TBA</p>
  <p>Thursday</p>
  <p>Wing C</p>
</div>
<hr/>
</body></html>`

	res, err := Extract([]byte(page))
	require.NoError(t, err)
	require.Len(t, res.Events, 1)

	ev := res.Events[0]
	assert.Empty(t, ev.StartTime)
	assert.Empty(t, ev.EndTime)
	assert.Equal(t, "Thursday", ev.Day)
	assert.Equal(t, time.Thursday, ev.Date.Weekday())
	assert.NotEmpty(t, res.Warnings)
}

func TestExtractStopsAtTerminator(t *testing.T) {
	// The meeting block after the <hr> belongs to no anchor and must not
	// leak into the first item.
	page := `<html><body>
<button id="btnItemTitle_section_1">CS101</button>
<p>Subtype: Lecture</p>
<p>Duration: 1/26/2025 - 6/6/2025</p>
<hr/>
<div class="x-WithWidth-ScheduleItem--meeting">
  <p>9:00 AM - 10:00 AM</p>
  <p>Friday</p>
  <p>Room 9</p>
</div>
</body></html>`

	res, err := Extract([]byte(page))
	require.NoError(t, err)
	assert.Empty(t, res.Events)
}

func TestExtractNoAnchors(t *testing.T) {
	res, err := Extract([]byte(`<html><body><p>nothing here</p></body></html>`))
	require.NoError(t, err)
	assert.Empty(t, res.Events)
}

func TestDefaultSchemaMeetingContainer(t *testing.T) {
	s := DefaultSchema()

	res, err := Extract([]byte(fixtureLab))
	require.NoError(t, err)
	require.Len(t, res.Events, 1)

	// A container with fewer paragraph children than the schema requires
	// must not contribute meeting fields.
	page := `<html><body>
<button id="btnItemTitle_section_1">CS101</button>
<p>Subtype: Lecture</p>
<p>Duration: 1/26/2025 - 6/6/2025</p>
<div class="x-WithWidth-ScheduleItem--meeting">
  <p>9:00 AM - 10:00 AM</p>
  <p>Friday</p>
</div>
<hr/>
</body></html>`

	short, err := ExtractWithSchema([]byte(page), s)
	require.NoError(t, err)
	assert.Empty(t, short.Events)
}
