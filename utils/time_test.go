package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClockMinutes(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{in: "00:00", want: 0},
		{in: "09:30", want: 570},
		{in: "23:59", want: 1439},
		{in: "9:30", wantErr: true},
		{in: "24:00", wantErr: true},
		{in: "09:60", wantErr: true},
		{in: "", wantErr: true},
		{in: "morning", wantErr: true},
	}

	for _, tt := range tests {
		got, err := ClockMinutes(tt.in)
		if tt.wantErr {
			assert.Error(t, err, "input %q", tt.in)
			continue
		}
		require.NoError(t, err, "input %q", tt.in)
		assert.Equal(t, tt.want, got, "input %q", tt.in)
	}
}

func TestMinutesClockRoundTrip(t *testing.T) {
	for _, clock := range []string{"00:00", "07:05", "12:00", "18:45", "23:59"} {
		m, err := ClockMinutes(clock)
		require.NoError(t, err)
		assert.Equal(t, clock, MinutesClock(m))
	}
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2026-03-15")
	require.NoError(t, err)
	assert.Equal(t, 2026, d.Year())
	assert.Equal(t, time.March, d.Month())
	assert.Equal(t, 15, d.Day())

	_, err = ParseDate("15-03-2026")
	assert.Error(t, err)
	_, err = ParseDate("2026-3-5")
	assert.Error(t, err)
	_, err = ParseDate("")
	assert.Error(t, err)
}

func TestCombineDateTime(t *testing.T) {
	got, err := CombineDateTime("2026-03-15", "09:30")
	require.NoError(t, err)
	assert.Equal(t, 9, got.Hour())
	assert.Equal(t, 30, got.Minute())
	assert.Equal(t, "2026-03-15", FormatDate(got))
	assert.Equal(t, "09:30", FormatClock(got))

	_, err = CombineDateTime("2026-03-15", "bad")
	assert.Error(t, err)
	_, err = CombineDateTime("bad", "09:30")
	assert.Error(t, err)
}

func TestDateWeekday(t *testing.T) {
	// 2026-03-15 is a Sunday.
	wd, err := DateWeekday("2026-03-15")
	require.NoError(t, err)
	assert.Equal(t, time.Sunday, wd)

	wd, err = DateWeekday("2026-03-16")
	require.NoError(t, err)
	assert.Equal(t, time.Monday, wd)
}
