package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func floatPtr(f float64) *float64 { return &f }

func weekdayTemplate() *DoctorSchedule {
	return &DoctorSchedule{
		DoctorID:            1,
		DayOfWeek:           Monday,
		StartTime:           "09:00",
		EndTime:             "17:00",
		BreakStart:          strPtr("13:00"),
		BreakEnd:            strPtr("14:00"),
		SlotDurationMinutes: 30,
		MaxPatientsPerSlot:  2,
		ConsultationFee:     floatPtr(500),
		IsActive:            true,
	}
}

func TestDoctorScheduleValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*DoctorSchedule)
		wantErr string
	}{
		{name: "valid", mutate: func(s *DoctorSchedule) {}},
		{
			name:    "day out of range",
			mutate:  func(s *DoctorSchedule) { s.DayOfWeek = 7 },
			wantErr: "day_of_week",
		},
		{
			name:    "bad start time",
			mutate:  func(s *DoctorSchedule) { s.StartTime = "9am" },
			wantErr: "invalid time",
		},
		{
			name:    "start after end",
			mutate:  func(s *DoctorSchedule) { s.StartTime = "18:00" },
			wantErr: "start time must be before end time",
		},
		{
			name:    "break start without end",
			mutate:  func(s *DoctorSchedule) { s.BreakEnd = nil },
			wantErr: "break start and break end must be set together",
		},
		{
			name: "break outside working hours",
			mutate: func(s *DoctorSchedule) {
				s.BreakStart = strPtr("08:00")
				s.BreakEnd = strPtr("08:30")
			},
			wantErr: "break time must be within working hours",
		},
		{
			name: "inverted break",
			mutate: func(s *DoctorSchedule) {
				s.BreakStart = strPtr("14:00")
				s.BreakEnd = strPtr("13:00")
			},
			wantErr: "break start must be before break end",
		},
		{
			name:    "slot duration too short",
			mutate:  func(s *DoctorSchedule) { s.SlotDurationMinutes = 3 },
			wantErr: "slot duration",
		},
		{
			name:    "slot duration too long",
			mutate:  func(s *DoctorSchedule) { s.SlotDurationMinutes = 180 },
			wantErr: "slot duration",
		},
		{
			name:    "capacity over cap",
			mutate:  func(s *DoctorSchedule) { s.MaxPatientsPerSlot = 11 },
			wantErr: "max patients per slot",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := weekdayTemplate()
			tt.mutate(s)
			err := s.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestScheduleExceptionValidate(t *testing.T) {
	leave := ScheduleException{DoctorID: 1, ExceptionDate: "2026-04-01", ExceptionType: ExceptionLeave}
	assert.NoError(t, leave.Validate())

	modified := ScheduleException{
		DoctorID:      1,
		ExceptionDate: "2026-04-01",
		ExceptionType: ExceptionModified,
		StartTime:     strPtr("10:00"),
		EndTime:       strPtr("14:00"),
	}
	assert.NoError(t, modified.Validate())

	missingTimes := ScheduleException{DoctorID: 1, ExceptionDate: "2026-04-01", ExceptionType: ExceptionExtra}
	err := missingTimes.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "start and end time required")

	inverted := modified
	inverted.StartTime = strPtr("15:00")
	err = inverted.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "start time must be before end time")

	badDate := ScheduleException{DoctorID: 1, ExceptionDate: "01/04/2026", ExceptionType: ExceptionLeave}
	assert.Error(t, badDate.Validate())

	unknown := ScheduleException{DoctorID: 1, ExceptionDate: "2026-04-01", ExceptionType: "holiday"}
	err = unknown.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown exception type")
}

func TestResolveEffectiveHoursTemplateOnly(t *testing.T) {
	tmpl := weekdayTemplate()

	hours, reason := ResolveEffectiveHours(tmpl, nil, time.Monday)
	require.NotNil(t, hours)
	assert.Empty(t, reason)
	assert.Equal(t, "09:00", hours.StartTime)
	assert.Equal(t, "17:00", hours.EndTime)
	require.NotNil(t, hours.BreakStart)
	assert.Equal(t, "13:00", *hours.BreakStart)
	assert.Equal(t, 30, hours.SlotDurationMinutes)
	assert.Equal(t, 2, hours.MaxPatientsPerSlot)
	require.NotNil(t, hours.ConsultationFee)
	assert.Equal(t, 500.0, *hours.ConsultationFee)
}

func TestResolveEffectiveHoursNoTemplate(t *testing.T) {
	hours, reason := ResolveEffectiveHours(nil, nil, time.Sunday)
	assert.Nil(t, hours)
	assert.Equal(t, "Doctor does not work on Sunday", reason)
}

func TestResolveEffectiveHoursLeave(t *testing.T) {
	tmpl := weekdayTemplate()

	exc := &ScheduleException{ExceptionType: ExceptionLeave, Reason: "Conference"}
	hours, reason := ResolveEffectiveHours(tmpl, exc, time.Monday)
	assert.Nil(t, hours)
	assert.Equal(t, "Doctor is on leave: Conference", reason)

	// Leave without a reason still produces a displayable message.
	exc.Reason = ""
	hours, reason = ResolveEffectiveHours(tmpl, exc, time.Monday)
	assert.Nil(t, hours)
	assert.Equal(t, "Doctor is on leave: Not specified", reason)
}

func TestResolveEffectiveHoursModified(t *testing.T) {
	tmpl := weekdayTemplate()
	exc := &ScheduleException{
		ExceptionType: ExceptionModified,
		StartTime:     strPtr("10:00"),
		EndTime:       strPtr("13:00"),
	}

	hours, reason := ResolveEffectiveHours(tmpl, exc, time.Monday)
	require.NotNil(t, hours)
	assert.Empty(t, reason)
	assert.Equal(t, "10:00", hours.StartTime)
	assert.Equal(t, "13:00", hours.EndTime)
	// Modified hours drop the template break but inherit the rest.
	assert.Nil(t, hours.BreakStart)
	assert.Equal(t, 30, hours.SlotDurationMinutes)
	assert.Equal(t, 2, hours.MaxPatientsPerSlot)
	require.NotNil(t, hours.ConsultationFee)
}

func TestResolveEffectiveHoursExtraDayWithoutTemplate(t *testing.T) {
	// An extra working day on a weekday with no template falls back to the
	// engine defaults for duration and capacity.
	exc := &ScheduleException{
		ExceptionType: ExceptionExtra,
		StartTime:     strPtr("09:00"),
		EndTime:       strPtr("12:00"),
	}

	hours, reason := ResolveEffectiveHours(nil, exc, time.Sunday)
	require.NotNil(t, hours)
	assert.Empty(t, reason)
	assert.Equal(t, "09:00", hours.StartTime)
	assert.Equal(t, "12:00", hours.EndTime)
	assert.Equal(t, DefaultSlotDurationMinutes, hours.SlotDurationMinutes)
	assert.Equal(t, DefaultMaxPatientsPerSlot, hours.MaxPatientsPerSlot)
	assert.Nil(t, hours.ConsultationFee)
}
