package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	allowed := []struct{ from, to AppointmentStatus }{
		{StatusPending, StatusConfirmed},
		{StatusPending, StatusCancelled},
		{StatusPending, StatusNoShow},
		{StatusPending, StatusRescheduled},
		{StatusConfirmed, StatusCheckedIn},
		{StatusConfirmed, StatusCancelled},
		{StatusConfirmed, StatusNoShow},
		{StatusConfirmed, StatusRescheduled},
		{StatusCheckedIn, StatusInProgress},
		{StatusInProgress, StatusCompleted},
	}
	for _, tt := range allowed {
		assert.True(t, CanTransition(tt.from, tt.to), "%s -> %s should be allowed", tt.from, tt.to)
	}

	denied := []struct{ from, to AppointmentStatus }{
		{StatusPending, StatusCheckedIn},
		{StatusPending, StatusInProgress},
		{StatusPending, StatusCompleted},
		{StatusConfirmed, StatusInProgress},
		{StatusConfirmed, StatusCompleted},
		{StatusCheckedIn, StatusCancelled},
		{StatusCheckedIn, StatusNoShow},
		{StatusCheckedIn, StatusCompleted},
		{StatusInProgress, StatusCancelled},
		{StatusInProgress, StatusNoShow},
		{StatusCompleted, StatusCancelled},
		{StatusCompleted, StatusConfirmed},
		{StatusCancelled, StatusConfirmed},
		{StatusNoShow, StatusConfirmed},
		{StatusRescheduled, StatusConfirmed},
	}
	for _, tt := range denied {
		assert.False(t, CanTransition(tt.from, tt.to), "%s -> %s should be denied", tt.from, tt.to)
	}
}

func TestIsUpcoming(t *testing.T) {
	now := time.Date(2026, 3, 16, 10, 0, 0, 0, time.Local)

	future := Appointment{AppointmentDate: "2026-03-16", StartTime: "11:00", Status: StatusConfirmed}
	assert.True(t, future.IsUpcoming(now))

	past := Appointment{AppointmentDate: "2026-03-16", StartTime: "09:00", Status: StatusConfirmed}
	assert.False(t, past.IsUpcoming(now))

	cancelled := Appointment{AppointmentDate: "2026-03-17", StartTime: "11:00", Status: StatusCancelled}
	assert.False(t, cancelled.IsUpcoming(now))

	rescheduled := Appointment{AppointmentDate: "2026-03-17", StartTime: "11:00", Status: StatusRescheduled}
	assert.False(t, rescheduled.IsUpcoming(now))
}

func TestCanCancel(t *testing.T) {
	now := time.Date(2026, 3, 16, 10, 0, 0, 0, time.Local)

	tests := []struct {
		status AppointmentStatus
		want   bool
	}{
		{StatusPending, true},
		{StatusConfirmed, true},
		{StatusCheckedIn, false},
		{StatusInProgress, false},
		{StatusCompleted, false},
		{StatusCancelled, false},
		{StatusNoShow, false},
		{StatusRescheduled, false},
	}
	for _, tt := range tests {
		a := Appointment{AppointmentDate: "2026-03-17", StartTime: "11:00", Status: tt.status}
		assert.Equal(t, tt.want, a.CanCancel(now), "status %s", tt.status)
	}

	// Even a confirmed appointment cannot be cancelled once its start passed.
	started := Appointment{AppointmentDate: "2026-03-16", StartTime: "09:00", Status: StatusConfirmed}
	assert.False(t, started.CanCancel(now))
}

func TestCanReschedule(t *testing.T) {
	now := time.Date(2026, 3, 16, 10, 0, 0, 0, time.Local)

	tests := []struct {
		status AppointmentStatus
		want   bool
	}{
		{StatusPending, true},
		{StatusConfirmed, true},
		{StatusCheckedIn, false},
		{StatusInProgress, false},
		{StatusCompleted, false},
		{StatusCancelled, false},
		{StatusNoShow, false},
		{StatusRescheduled, false},
	}
	for _, tt := range tests {
		a := Appointment{AppointmentDate: "2026-03-17", StartTime: "11:00", Status: tt.status}
		assert.Equal(t, tt.want, a.CanReschedule(now), "status %s", tt.status)
	}
}
