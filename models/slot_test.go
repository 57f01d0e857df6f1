package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpandWindowsSkipsBreak(t *testing.T) {
	hours := &EffectiveHours{
		StartTime:           "09:00",
		EndTime:             "13:00",
		BreakStart:          strPtr("11:00"),
		BreakEnd:            strPtr("11:15"),
		SlotDurationMinutes: 30,
	}

	windows, err := ExpandWindows(hours)
	require.NoError(t, err)

	want := []Window{
		{Start: "09:00", End: "09:30"},
		{Start: "09:30", End: "10:00"},
		{Start: "10:00", End: "10:30"},
		{Start: "10:30", End: "11:00"},
		{Start: "11:15", End: "11:45"},
		{Start: "11:45", End: "12:15"},
		{Start: "12:15", End: "12:45"},
	}
	assert.Equal(t, want, windows)
}

func TestExpandWindowsNoBreak(t *testing.T) {
	hours := &EffectiveHours{
		StartTime:           "09:00",
		EndTime:             "11:00",
		SlotDurationMinutes: 30,
	}

	windows, err := ExpandWindows(hours)
	require.NoError(t, err)
	assert.Len(t, windows, 4)
	assert.Equal(t, Window{Start: "09:00", End: "09:30"}, windows[0])
	assert.Equal(t, Window{Start: "10:30", End: "11:00"}, windows[3])
}

func TestExpandWindowsPartialTailDropped(t *testing.T) {
	// 09:00-10:20 with 30-minute slots: the 10:00-10:30 candidate does not
	// fit, so only two windows come out.
	hours := &EffectiveHours{
		StartTime:           "09:00",
		EndTime:             "10:20",
		SlotDurationMinutes: 30,
	}

	windows, err := ExpandWindows(hours)
	require.NoError(t, err)
	assert.Len(t, windows, 2)
}

func TestExpandWindowsWindowShorterThanSlot(t *testing.T) {
	hours := &EffectiveHours{
		StartTime:           "09:00",
		EndTime:             "09:20",
		SlotDurationMinutes: 30,
	}

	windows, err := ExpandWindows(hours)
	require.NoError(t, err)
	assert.Empty(t, windows)
}

func TestExpandWindowsBreakSwallowsRemainder(t *testing.T) {
	// The break ends so late that no full slot fits after it.
	hours := &EffectiveHours{
		StartTime:           "09:00",
		EndTime:             "10:00",
		BreakStart:          strPtr("09:15"),
		BreakEnd:            strPtr("09:45"),
		SlotDurationMinutes: 30,
	}

	windows, err := ExpandWindows(hours)
	require.NoError(t, err)
	assert.Empty(t, windows)
}

func TestExpandWindowsZeroDurationFallsBack(t *testing.T) {
	hours := &EffectiveHours{
		StartTime: "09:00",
		EndTime:   "10:00",
	}

	windows, err := ExpandWindows(hours)
	require.NoError(t, err)
	assert.Len(t, windows, 2)
}

func TestExpandWindowsBadClock(t *testing.T) {
	hours := &EffectiveHours{
		StartTime:           "nine",
		EndTime:             "10:00",
		SlotDurationMinutes: 30,
	}
	_, err := ExpandWindows(hours)
	assert.Error(t, err)
}

func TestTimeSlotRemainingCapacity(t *testing.T) {
	slot := TimeSlot{MaxBookings: 3, CurrentBookings: 1}
	assert.Equal(t, 2, slot.RemainingCapacity())

	slot.CurrentBookings = 3
	assert.Equal(t, 0, slot.RemainingCapacity())

	slot.CurrentBookings = 5
	assert.Equal(t, 0, slot.RemainingCapacity())
}

func TestTimeSlotIsBookable(t *testing.T) {
	now := time.Date(2026, 3, 16, 10, 0, 0, 0, time.Local)

	slot := TimeSlot{
		SlotDate:        "2026-03-16",
		StartTime:       "11:00",
		Status:          SlotAvailable,
		MaxBookings:     1,
		CurrentBookings: 0,
	}
	assert.True(t, slot.IsBookable(now))

	full := slot
	full.CurrentBookings = 1
	assert.False(t, full.IsBookable(now))

	blocked := slot
	blocked.Status = SlotBlocked
	assert.False(t, blocked.IsBookable(now))

	past := slot
	past.StartTime = "09:00"
	assert.False(t, past.IsBookable(now))
}
