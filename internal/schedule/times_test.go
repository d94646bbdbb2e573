package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvertClock(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"1:10 PM", "13:10"},
		{"9:00 AM", "09:00"},
		{"12:00 PM", "12:00"},
		{"12:30 AM", "00:30"},
		{"11:59 PM", "23:59"},
		{" 4:00 PM ", "16:00"},
		{"4:00pm", "16:00"},
	}
	for _, c := range cases {
		got, err := convertClock(c.in)
		require.NoError(t, err, "input %q", c.in)
		assert.Equal(t, c.want, got, "input %q", c.in)
	}
}

func TestConvertClockRejectsGarbage(t *testing.T) {
	for _, in := range []string{"", "noon", "25:00 PM", "9:00"} {
		_, err := convertClock(in)
		assert.Error(t, err, "input %q", in)
	}
}

func TestParseClockRange(t *testing.T) {
	start, end, err := parseClockRange("1:10 PM - 4:00 PM")
	require.NoError(t, err)
	assert.Equal(t, "13:10", start)
	assert.Equal(t, "16:00", end)
}

func TestParseClockRangeEmptyIsNotAnError(t *testing.T) {
	start, end, err := parseClockRange("")
	require.NoError(t, err)
	assert.Empty(t, start)
	assert.Empty(t, end)
}

func TestParseClockRangeBothOrNeither(t *testing.T) {
	start, end, err := parseClockRange("1:10 PM - sometime")
	assert.Error(t, err)
	assert.Empty(t, start)
	assert.Empty(t, end)
}

func TestParseDurationRange(t *testing.T) {
	start, end, err := parseDurationRange("Duration: 1/26/2025 - 6/6/2025")
	require.NoError(t, err)
	assert.Equal(t, "2025-01-26", start.Format("2006-01-02"))
	assert.Equal(t, "2025-06-06", end.Format("2006-01-02"))
}

func TestParseDurationRangeMalformed(t *testing.T) {
	for _, in := range []string{
		"Duration: 1/26/2025",
		"Duration: 1/26/2025 - soon",
		"Duration: Jan 26 - Jun 6",
	} {
		_, _, err := parseDurationRange(in)
		assert.Error(t, err, "input %q", in)
	}
}

func TestFirstOnOrAfterCoversEveryWeekday(t *testing.T) {
	// A full week of term starts crossed with every target weekday: the
	// result must land on the target weekday, never before the start and
	// never more than six days after it.
	base := time.Date(2025, 1, 26, 0, 0, 0, 0, time.UTC) // a Sunday
	for offset := 0; offset < 7; offset++ {
		start := base.AddDate(0, 0, offset)
		for wd := time.Sunday; wd <= time.Saturday; wd++ {
			got := firstOnOrAfter(start, wd)
			assert.Equal(t, wd, got.Weekday())
			diff := int(got.Sub(start).Hours() / 24)
			assert.GreaterOrEqual(t, diff, 0)
			assert.LessOrEqual(t, diff, 6)
		}
	}
}

func TestFirstOnOrAfterSameDay(t *testing.T) {
	monday := time.Date(2025, 1, 27, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, monday, firstOnOrAfter(monday, time.Monday))
}

func TestWeekdayByName(t *testing.T) {
	wd, ok := weekdayByName("Monday")
	require.True(t, ok)
	assert.Equal(t, time.Monday, wd)

	_, ok = weekdayByName("monday") // names are matched as written
	assert.False(t, ok)
}
