package models

import (
	"time"

	"gorm.io/gorm"

	"github.com/meinhoongagan/clinic-scheduler/utils"
)

type DayOfWeek int

const (
	Sunday DayOfWeek = iota
	Monday
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
)

const (
	DefaultSlotDurationMinutes = 30
	DefaultMaxPatientsPerSlot  = 1

	MinSlotDurationMinutes = 5
	MaxSlotDurationMinutes = 120
	MaxPatientsPerSlotCap  = 10
)

// DoctorSchedule is a doctor's recurring weekly template: one row per
// (doctor, weekday).
type DoctorSchedule struct {
	gorm.Model
	DoctorID  uint      `json:"doctor_id" gorm:"uniqueIndex:idx_doctor_day"`
	Doctor    User      `json:"doctor,omitempty" gorm:"foreignKey:DoctorID"`
	DayOfWeek DayOfWeek `json:"day_of_week" gorm:"uniqueIndex:idx_doctor_day"`

	StartTime string `json:"start_time"` // "HH:MM" 24h
	EndTime   string `json:"end_time"`

	BreakStart *string `json:"break_start,omitempty"`
	BreakEnd   *string `json:"break_end,omitempty"`

	SlotDurationMinutes int      `json:"slot_duration_minutes" gorm:"default:30"`
	MaxPatientsPerSlot  int      `json:"max_patients_per_slot" gorm:"default:1"`
	ConsultationFee     *float64 `json:"consultation_fee,omitempty"`

	IsActive bool `json:"is_active" gorm:"default:true"`
}

// Validate checks the template invariants before any write.
func (s *DoctorSchedule) Validate() error {
	if s.DayOfWeek < Sunday || s.DayOfWeek > Saturday {
		return utils.Validation("day_of_week must be between 0 and 6")
	}
	start, err := utils.ClockMinutes(s.StartTime)
	if err != nil {
		return utils.Validation("%s", err.Error())
	}
	end, err := utils.ClockMinutes(s.EndTime)
	if err != nil {
		return utils.Validation("%s", err.Error())
	}
	if start >= end {
		return utils.Validation("start time must be before end time")
	}
	if (s.BreakStart == nil) != (s.BreakEnd == nil) {
		return utils.Validation("break start and break end must be set together")
	}
	if s.BreakStart != nil {
		bs, err := utils.ClockMinutes(*s.BreakStart)
		if err != nil {
			return utils.Validation("%s", err.Error())
		}
		be, err := utils.ClockMinutes(*s.BreakEnd)
		if err != nil {
			return utils.Validation("%s", err.Error())
		}
		if bs >= be {
			return utils.Validation("break start must be before break end")
		}
		if bs < start || be > end {
			return utils.Validation("break time must be within working hours")
		}
	}
	if s.SlotDurationMinutes < MinSlotDurationMinutes || s.SlotDurationMinutes > MaxSlotDurationMinutes {
		return utils.Validation("slot duration must be between %d and %d minutes",
			MinSlotDurationMinutes, MaxSlotDurationMinutes)
	}
	if s.MaxPatientsPerSlot < 1 || s.MaxPatientsPerSlot > MaxPatientsPerSlotCap {
		return utils.Validation("max patients per slot must be between 1 and %d", MaxPatientsPerSlotCap)
	}
	return nil
}

func (s *DoctorSchedule) BeforeCreate(tx *gorm.DB) error {
	if s.SlotDurationMinutes == 0 {
		s.SlotDurationMinutes = DefaultSlotDurationMinutes
	}
	if s.MaxPatientsPerSlot == 0 {
		s.MaxPatientsPerSlot = DefaultMaxPatientsPerSlot
	}
	return nil
}

type ExceptionType string

const (
	ExceptionLeave    ExceptionType = "leave"
	ExceptionModified ExceptionType = "modified"
	ExceptionExtra    ExceptionType = "extra"
)

// ScheduleException overrides the weekly template for one date: a leave day,
// modified hours, or an extra working day. One row per (doctor, date).
type ScheduleException struct {
	gorm.Model
	DoctorID uint `json:"doctor_id" gorm:"uniqueIndex:idx_doctor_exc_date"`
	Doctor   User `json:"doctor,omitempty" gorm:"foreignKey:DoctorID"`

	ExceptionDate string        `json:"exception_date" gorm:"uniqueIndex:idx_doctor_exc_date"` // "YYYY-MM-DD"
	ExceptionType ExceptionType `json:"exception_type"`

	StartTime *string `json:"start_time,omitempty"` // required for modified/extra
	EndTime   *string `json:"end_time,omitempty"`

	Reason string `json:"reason"`
}

func (e *ScheduleException) Validate() error {
	if _, err := utils.ParseDate(e.ExceptionDate); err != nil {
		return utils.Validation("%s", err.Error())
	}
	switch e.ExceptionType {
	case ExceptionLeave:
		return nil
	case ExceptionModified, ExceptionExtra:
		if e.StartTime == nil || e.EndTime == nil {
			return utils.Validation("start and end time required for %s hours", e.ExceptionType)
		}
		start, err := utils.ClockMinutes(*e.StartTime)
		if err != nil {
			return utils.Validation("%s", err.Error())
		}
		end, err := utils.ClockMinutes(*e.EndTime)
		if err != nil {
			return utils.Validation("%s", err.Error())
		}
		if start >= end {
			return utils.Validation("start time must be before end time")
		}
		return nil
	default:
		return utils.Validation("unknown exception type: %s", e.ExceptionType)
	}
}

// EffectiveHours is the resolved availability for a doctor on one date.
type EffectiveHours struct {
	StartTime           string   `json:"start_time"`
	EndTime             string   `json:"end_time"`
	BreakStart          *string  `json:"break_start,omitempty"`
	BreakEnd            *string  `json:"break_end,omitempty"`
	SlotDurationMinutes int      `json:"slot_duration_minutes"`
	MaxPatientsPerSlot  int      `json:"max_patients_per_slot"`
	ConsultationFee     *float64 `json:"consultation_fee,omitempty"`
}

// ResolveEffectiveHours merges the weekday template with the date exception.
// Either tmpl or exc may be nil. When the doctor is not working, it returns
// nil hours and a displayable reason.
//
// Precedence: a leave exception wins outright; modified/extra hours replace
// the working window (break dropped) while slot duration, capacity and fee
// are inherited from the template; otherwise the template applies verbatim.
func ResolveEffectiveHours(tmpl *DoctorSchedule, exc *ScheduleException, weekday time.Weekday) (*EffectiveHours, string) {
	if exc != nil {
		switch exc.ExceptionType {
		case ExceptionLeave:
			reason := exc.Reason
			if reason == "" {
				reason = "Not specified"
			}
			return nil, "Doctor is on leave: " + reason
		case ExceptionModified, ExceptionExtra:
			hours := &EffectiveHours{
				StartTime:           *exc.StartTime,
				EndTime:             *exc.EndTime,
				SlotDurationMinutes: DefaultSlotDurationMinutes,
				MaxPatientsPerSlot:  DefaultMaxPatientsPerSlot,
			}
			if tmpl != nil {
				hours.SlotDurationMinutes = tmpl.SlotDurationMinutes
				hours.MaxPatientsPerSlot = tmpl.MaxPatientsPerSlot
				hours.ConsultationFee = tmpl.ConsultationFee
			}
			return hours, ""
		}
	}

	if tmpl == nil {
		return nil, "Doctor does not work on " + weekday.String()
	}

	return &EffectiveHours{
		StartTime:           tmpl.StartTime,
		EndTime:             tmpl.EndTime,
		BreakStart:          tmpl.BreakStart,
		BreakEnd:            tmpl.BreakEnd,
		SlotDurationMinutes: tmpl.SlotDurationMinutes,
		MaxPatientsPerSlot:  tmpl.MaxPatientsPerSlot,
		ConsultationFee:     tmpl.ConsultationFee,
	}, ""
}
