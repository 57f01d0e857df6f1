package models

import (
	"time"

	"gorm.io/gorm"

	"github.com/meinhoongagan/clinic-scheduler/utils"
)

type SlotStatus string

const (
	SlotAvailable SlotStatus = "available"
	SlotBooked    SlotStatus = "booked"
	SlotBlocked   SlotStatus = "blocked"
)

// TimeSlot is one bookable window with capacity. Unique per
// (doctor, date, start). Created by generation, mutated only by the ledger.
type TimeSlot struct {
	gorm.Model
	DoctorID uint `json:"doctor_id" gorm:"uniqueIndex:idx_slot_doctor_date_start"`
	Doctor   User `json:"doctor,omitempty" gorm:"foreignKey:DoctorID"`

	SlotDate  string `json:"slot_date" gorm:"uniqueIndex:idx_slot_doctor_date_start"` // "YYYY-MM-DD"
	StartTime string `json:"start_time" gorm:"uniqueIndex:idx_slot_doctor_date_start"`
	EndTime   string `json:"end_time"`

	Status SlotStatus `json:"status" gorm:"default:available"`

	MaxBookings     int `json:"max_bookings" gorm:"default:1"`
	CurrentBookings int `json:"current_bookings" gorm:"default:0"`
}

// RemainingCapacity reports how many more bookings the slot can take.
func (s *TimeSlot) RemainingCapacity() int {
	if s.CurrentBookings >= s.MaxBookings {
		return 0
	}
	return s.MaxBookings - s.CurrentBookings
}

// StartsAt returns the slot's wall-clock start.
func (s *TimeSlot) StartsAt() (time.Time, error) {
	return utils.CombineDateTime(s.SlotDate, s.StartTime)
}

// IsBookable reports whether the slot can accept a booking at `now`.
func (s *TimeSlot) IsBookable(now time.Time) bool {
	if s.Status != SlotAvailable {
		return false
	}
	if s.CurrentBookings >= s.MaxBookings {
		return false
	}
	start, err := s.StartsAt()
	if err != nil {
		return false
	}
	return start.After(now)
}

// Window is a half-open [Start, End) slot candidate.
type Window struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// ExpandWindows steps through the effective hours by slot duration, emitting
// non-overlapping windows. A candidate overlapping the break is skipped by
// moving the cursor to break end, so no partial window ever spans the break.
func ExpandWindows(h *EffectiveHours) ([]Window, error) {
	start, err := utils.ClockMinutes(h.StartTime)
	if err != nil {
		return nil, err
	}
	end, err := utils.ClockMinutes(h.EndTime)
	if err != nil {
		return nil, err
	}

	breakStart, breakEnd := -1, -1
	if h.BreakStart != nil && h.BreakEnd != nil {
		if breakStart, err = utils.ClockMinutes(*h.BreakStart); err != nil {
			return nil, err
		}
		if breakEnd, err = utils.ClockMinutes(*h.BreakEnd); err != nil {
			return nil, err
		}
	}

	duration := h.SlotDurationMinutes
	if duration <= 0 {
		duration = DefaultSlotDurationMinutes
	}

	var windows []Window
	cursor := start
	for cursor+duration <= end {
		candidateEnd := cursor + duration

		if breakStart >= 0 && cursor < breakEnd && candidateEnd > breakStart {
			cursor = breakEnd
			continue
		}

		windows = append(windows, Window{
			Start: utils.MinutesClock(cursor),
			End:   utils.MinutesClock(candidateEnd),
		})
		cursor = candidateEnd
	}

	return windows, nil
}
