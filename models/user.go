package models

import (
	"time"
)

// User mirrors the identity directory. Authentication lives upstream; the
// engine only reads already-resolved doctor/patient ids and contact details
// for notifications.
type User struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Name      string    `json:"name"`
	Email     string    `json:"email" gorm:"unique"`
	Phone     string    `json:"phone,omitempty"`
	Role      string    `json:"role"` // "doctor" or "patient"
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Schedules           []DoctorSchedule `json:"schedules,omitempty" gorm:"foreignKey:DoctorID"`
	DoctorAppointments  []Appointment    `json:"doctor_appointments,omitempty" gorm:"foreignKey:DoctorID"`
	PatientAppointments []Appointment    `json:"patient_appointments,omitempty" gorm:"foreignKey:PatientID"`
}
