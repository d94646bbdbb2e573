package convert

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fixturePage = `<html><body>
<button id="btnItemTitle_section_101">CS101 Intro</button>
<p>Subtype: Laboratory Section</p>
<p>Duration: 1/26/2025 - 6/6/2025</p>
<div class="x-WithWidth-ScheduleItem--meeting">
  <p>1:10 PM - 4:00 PM</p>
  <p>Monday</p>
  <p>Building A Room 2</p>
</div>
<hr/>
</body></html>`

func TestRunEndToEnd(t *testing.T) {
	termEnd := time.Date(2025, 6, 6, 0, 0, 0, 0, time.UTC)
	res, err := Run([]byte(fixturePage), termEnd, Options{})
	require.NoError(t, err)

	require.Len(t, res.Events, 1)
	assert.Equal(t, termEnd, res.TermEnd)
	assert.Contains(t, res.ICS, "BEGIN:VEVENT")
	assert.Contains(t, res.ICS, "SUMMARY:CS101 Intro (Lab)")
	assert.Contains(t, res.ICS, "UNTIL=20250606T235959Z")
}

func TestRunFallsBackToDetectedTermEnd(t *testing.T) {
	res, err := Run([]byte(fixturePage), time.Time{}, Options{AllowDetectedTermEnd: true})
	require.NoError(t, err)
	assert.Equal(t, "2025-06-06", res.TermEnd.Format("2006-01-02"))
}

func TestRunWithoutAnyTermEnd(t *testing.T) {
	_, err := Run([]byte(fixturePage), time.Time{}, Options{})
	assert.ErrorIs(t, err, ErrNoTermEnd)
}

func TestRunNoTermEndDetectable(t *testing.T) {
	_, err := Run([]byte("<html><body></body></html>"), time.Time{}, Options{AllowDetectedTermEnd: true})
	assert.ErrorIs(t, err, ErrNoTermEnd)
}

func TestWriteFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "schedule.ics")

	require.NoError(t, WriteFile(path, "BEGIN:VCALENDAR\r\nEND:VCALENDAR\r\n"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "BEGIN:VCALENDAR\r\nEND:VCALENDAR\r\n", string(data))

	// No temp files left behind.
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestWriteFileEmptyPath(t *testing.T) {
	assert.Error(t, WriteFile("", "x"))
}
