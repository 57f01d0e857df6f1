package models

import (
	"time"

	"gorm.io/gorm"
)

type QueueStatus string

const (
	QueueWaiting        QueueStatus = "waiting"
	QueueCalled         QueueStatus = "called"
	QueueInConsultation QueueStatus = "in_consultation"
	QueueCompleted      QueueStatus = "completed"
	QueueSkipped        QueueStatus = "skipped"
)

// QueueEntry tracks a checked-in appointment's place in the doctor's day
// queue. One entry per appointment; a requeue assigns a fresh tail number
// instead of reusing the old one.
type QueueEntry struct {
	gorm.Model
	AppointmentID uint        `json:"appointment_id" gorm:"uniqueIndex"`
	Appointment   Appointment `json:"appointment,omitempty" gorm:"foreignKey:AppointmentID"`

	// DoctorID duplicates the appointment's doctor so per-(doctor,date)
	// queries and the queue number counter stay single-table.
	DoctorID uint `json:"doctor_id" gorm:"index:idx_queue_doctor_date"`

	QueueDate   string `json:"queue_date" gorm:"index:idx_queue_doctor_date"` // "YYYY-MM-DD"
	QueueNumber int    `json:"queue_number"`

	Status QueueStatus `json:"status" gorm:"default:waiting"`

	CheckedInAt           time.Time  `json:"checked_in_at"`
	CalledAt              *time.Time `json:"called_at,omitempty"`
	ConsultationStartedAt *time.Time `json:"consultation_started_at,omitempty"`
	CompletedAt           *time.Time `json:"completed_at,omitempty"`

	EstimatedWaitMinutes int `json:"estimated_wait_minutes"`
}

// WaitMinutes is the actual time spent waiting: check-in to call, or check-in
// to now while still uncalled.
func (q *QueueEntry) WaitMinutes(now time.Time) int {
	end := now
	if q.CalledAt != nil {
		end = *q.CalledAt
	}
	if end.Before(q.CheckedInAt) {
		return 0
	}
	return int(end.Sub(q.CheckedInAt).Minutes())
}

// ConsultMinutes is the consultation length for a completed entry, or 0.
func (q *QueueEntry) ConsultMinutes() float64 {
	if q.ConsultationStartedAt == nil || q.CompletedAt == nil {
		return 0
	}
	return q.CompletedAt.Sub(*q.ConsultationStartedAt).Minutes()
}

// AverageConsultMinutes computes the rolling consultation average over
// completed entries, falling back to `fallback` until any consult finishes.
func AverageConsultMinutes(completed []QueueEntry, fallback float64) float64 {
	var total float64
	var n int
	for i := range completed {
		if m := completed[i].ConsultMinutes(); m > 0 {
			total += m
			n++
		}
	}
	if n == 0 {
		return fallback
	}
	return total / float64(n)
}

// QueuePosition is 1 + the number of waiting peers with a lower queue number,
// or 0 when the entry itself is not waiting. Peers must belong to the same
// doctor and date.
func QueuePosition(entry *QueueEntry, peers []QueueEntry) int {
	if entry.Status != QueueWaiting {
		return 0
	}
	position := 1
	for i := range peers {
		p := &peers[i]
		if p.ID == entry.ID || p.Status != QueueWaiting {
			continue
		}
		if p.QueueNumber < entry.QueueNumber {
			position++
		}
	}
	return position
}
