package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/meinhoongagan/clinic-scheduler/utils"
)

type AppointmentStatus string

const (
	StatusPending     AppointmentStatus = "pending"
	StatusConfirmed   AppointmentStatus = "confirmed"
	StatusCheckedIn   AppointmentStatus = "checked_in"
	StatusInProgress  AppointmentStatus = "in_progress"
	StatusCompleted   AppointmentStatus = "completed"
	StatusCancelled   AppointmentStatus = "cancelled"
	StatusNoShow      AppointmentStatus = "no_show"
	StatusRescheduled AppointmentStatus = "rescheduled"
)

type BookingType string

const (
	BookingOnline   BookingType = "online"
	BookingWalkIn   BookingType = "walk_in"
	BookingPhone    BookingType = "phone"
	BookingFollowUp BookingType = "follow_up"
)

// transitions lists, for each source status, the statuses reachable from it.
// cancelled is handled separately because its guard also depends on the
// appointment still being upcoming.
var transitions = map[AppointmentStatus][]AppointmentStatus{
	StatusPending:    {StatusConfirmed, StatusCancelled, StatusNoShow, StatusRescheduled},
	StatusConfirmed:  {StatusCheckedIn, StatusCancelled, StatusNoShow, StatusRescheduled},
	StatusCheckedIn:  {StatusInProgress},
	StatusInProgress: {StatusCompleted},
}

// CanTransition reports whether from → to is a legal lifecycle step.
func CanTransition(from, to AppointmentStatus) bool {
	for _, allowed := range transitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// Appointment is the core booking row. Created once, mutated only through
// guarded transitions, never hard-deleted.
type Appointment struct {
	gorm.Model
	Reference string `json:"reference" gorm:"uniqueIndex"`

	PatientID uint `json:"patient_id"`
	Patient   User `json:"patient,omitempty" gorm:"foreignKey:PatientID"`
	DoctorID  uint `json:"doctor_id"`
	Doctor    User `json:"doctor,omitempty" gorm:"foreignKey:DoctorID"`

	TimeSlotID *uint     `json:"time_slot_id,omitempty"`
	TimeSlot   *TimeSlot `json:"time_slot,omitempty" gorm:"foreignKey:TimeSlotID"`

	AppointmentDate string `json:"appointment_date" gorm:"index"` // "YYYY-MM-DD"
	StartTime       string `json:"start_time"`                    // "HH:MM"
	EndTime         string `json:"end_time"`

	Status      AppointmentStatus `json:"status" gorm:"default:pending;index"`
	BookingType BookingType       `json:"booking_type" gorm:"default:online"`

	Reason       string `json:"reason"`
	Symptoms     string `json:"symptoms"`
	PatientNotes string `json:"patient_notes"`
	DoctorNotes  string `json:"doctor_notes"`

	CancellationReason string `json:"cancellation_reason"`
	CancelledBy        string `json:"cancelled_by"` // "patient" or "doctor"

	RescheduledFromID *uint `json:"rescheduled_from_id,omitempty"`

	ConfirmedAt *time.Time `json:"confirmed_at,omitempty"`
	CheckedInAt *time.Time `json:"checked_in_at,omitempty"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	CancelledAt *time.Time `json:"cancelled_at,omitempty"`

	ConsultationFee *float64 `json:"consultation_fee,omitempty"`
	PrescriptionRef *string  `json:"prescription_ref,omitempty"`

	Reminder24hSent bool `json:"reminder_24h_sent"`
	Reminder1hSent  bool `json:"reminder_1h_sent"`
}

func (a *Appointment) BeforeCreate(tx *gorm.DB) error {
	if a.Status == "" {
		a.Status = StatusPending
	}
	if a.BookingType == "" {
		a.BookingType = BookingOnline
	}
	if a.Reference == "" {
		a.Reference = uuid.NewString()
	}
	return nil
}

// StartsAt returns the appointment's wall-clock start.
func (a *Appointment) StartsAt() (time.Time, error) {
	return utils.CombineDateTime(a.AppointmentDate, a.StartTime)
}

// IsUpcoming reports whether the appointment is still ahead of `now` and not
// in a terminal state.
func (a *Appointment) IsUpcoming(now time.Time) bool {
	switch a.Status {
	case StatusCancelled, StatusCompleted, StatusNoShow, StatusRescheduled:
		return false
	}
	start, err := a.StartsAt()
	if err != nil {
		return false
	}
	return start.After(now)
}

// CanCancel reports whether cancellation is allowed at `now`.
func (a *Appointment) CanCancel(now time.Time) bool {
	switch a.Status {
	case StatusCancelled, StatusCompleted, StatusNoShow, StatusInProgress, StatusCheckedIn, StatusRescheduled:
		return false
	}
	return a.IsUpcoming(now)
}

// CanReschedule reports whether rescheduling is allowed at `now`.
func (a *Appointment) CanReschedule(now time.Time) bool {
	switch a.Status {
	case StatusPending, StatusConfirmed:
		return a.IsUpcoming(now)
	}
	return false
}
