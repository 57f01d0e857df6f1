package models

import (
	"time"

	"gorm.io/gorm"
)

type ReminderType string

const (
	Reminder24h ReminderType = "24h"
	Reminder1h  ReminderType = "1h"
)

type ReminderStatus string

const (
	ReminderPending ReminderStatus = "pending"
	ReminderSent    ReminderStatus = "sent"
	ReminderFailed  ReminderStatus = "failed"
)

// AppointmentReminder is one scheduled reminder for an appointment. Delivery
// is the dispatcher's concern; the engine only tracks the ledger.
type AppointmentReminder struct {
	gorm.Model
	AppointmentID uint        `json:"appointment_id" gorm:"index"`
	Appointment   Appointment `json:"appointment,omitempty" gorm:"foreignKey:AppointmentID"`

	ReminderType  ReminderType   `json:"reminder_type"`
	ScheduledTime time.Time      `json:"scheduled_time" gorm:"index"`
	Status        ReminderStatus `json:"status" gorm:"default:pending;index"`

	SentAt       *time.Time `json:"sent_at,omitempty"`
	ErrorMessage string     `json:"error_message"`
}
