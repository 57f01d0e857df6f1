package services

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/meinhoongagan/clinic-scheduler/models"
)

// ReminderService keeps the reminder ledger: rows are created when an
// appointment is booked, invalidated on cancel/reschedule, and dispatched by
// the minutely sweep once due.
type ReminderService struct {
	db     *gorm.DB
	sender NotificationSender
}

func NewReminderService(db *gorm.DB, sender NotificationSender) *ReminderService {
	return &ReminderService{db: db, sender: sender}
}

// ScheduleFor creates the 24h and 1h reminders for an appointment, skipping
// any that would already be in the past. Runs inside the booking transaction.
func (s *ReminderService) ScheduleFor(tx *gorm.DB, appt *models.Appointment) error {
	startsAt, err := appt.StartsAt()
	if err != nil {
		return err
	}
	now := time.Now()

	for _, r := range []struct {
		kind   models.ReminderType
		offset time.Duration
	}{
		{models.Reminder24h, 24 * time.Hour},
		{models.Reminder1h, time.Hour},
	} {
		at := startsAt.Add(-r.offset)
		if !at.After(now) {
			continue
		}
		reminder := models.AppointmentReminder{
			AppointmentID: appt.ID,
			ReminderType:  r.kind,
			ScheduledTime: at,
			Status:        models.ReminderPending,
		}
		if err := tx.Create(&reminder).Error; err != nil {
			return err
		}
	}
	return nil
}

// CancelPending invalidates every pending reminder of an appointment, e.g.
// after a cancel or reschedule. Safe to re-run.
func (s *ReminderService) CancelPending(tx *gorm.DB, appointmentID uint, note string) error {
	return tx.Model(&models.AppointmentReminder{}).
		Where("appointment_id = ? AND status = ?", appointmentID, models.ReminderPending).
		Updates(map[string]interface{}{
			"status":        models.ReminderFailed,
			"error_message": note,
		}).Error
}

// DispatchDue sends every due pending reminder, marking each sent or failed.
// A bad row is logged and skipped, never aborting the sweep.
func (s *ReminderService) DispatchDue() (int, error) {
	var due []models.AppointmentReminder
	err := s.db.Preload("Appointment").Preload("Appointment.Patient").Preload("Appointment.Doctor").
		Where("status = ? AND scheduled_time <= ?", models.ReminderPending, time.Now()).
		Order("scheduled_time").
		Find(&due).Error
	if err != nil {
		return 0, err
	}

	sent := 0
	for i := range due {
		reminder := &due[i]
		appt := &reminder.Appointment

		// Cancelled/finished appointments keep no live reminders.
		if appt.Status != models.StatusPending && appt.Status != models.StatusConfirmed {
			if err := s.markFailed(reminder, "appointment no longer active"); err != nil {
				log.Error().Err(err).Uint("reminder_id", reminder.ID).Msg("failed to invalidate reminder")
			}
			continue
		}

		if err := s.dispatch(reminder, appt); err != nil {
			log.Error().Err(err).Uint("reminder_id", reminder.ID).Msg("reminder dispatch failed")
			if err := s.markFailed(reminder, err.Error()); err != nil {
				log.Error().Err(err).Uint("reminder_id", reminder.ID).Msg("failed to mark reminder failed")
			}
			continue
		}

		if err := s.markSent(reminder); err != nil {
			log.Error().Err(err).Uint("reminder_id", reminder.ID).Msg("failed to mark reminder sent")
			continue
		}
		sent++
	}

	if len(due) > 0 {
		log.Info().Int("due", len(due)).Int("sent", sent).Msg("reminder sweep finished")
	}
	return sent, nil
}

func (s *ReminderService) dispatch(reminder *models.AppointmentReminder, appt *models.Appointment) error {
	if s.sender == nil {
		return fmt.Errorf("no reminder sender configured")
	}

	var when string
	switch reminder.ReminderType {
	case models.Reminder24h:
		when = "tomorrow"
	default:
		when = "in one hour"
	}

	subject := fmt.Sprintf("Reminder: appointment with Dr. %s %s", appt.Doctor.Name, when)
	body := fmt.Sprintf(`
		<p>Dear %s,</p>
		<p>This is a reminder for your upcoming appointment.</p>
		<ul>
			<li><strong>Doctor:</strong> %s</li>
			<li><strong>Date:</strong> %s</li>
			<li><strong>Time:</strong> %s</li>
		</ul>
		<p>Please arrive on time. If you need to reschedule or cancel, do so as soon as possible.</p>
	`, appt.Patient.Name, appt.Doctor.Name, appt.AppointmentDate, appt.StartTime)

	return s.sender.Send(appt.Patient, subject, body)
}

func (s *ReminderService) markSent(reminder *models.AppointmentReminder) error {
	now := time.Now()
	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(reminder).Updates(map[string]interface{}{
			"status":  models.ReminderSent,
			"sent_at": now,
		}).Error; err != nil {
			return err
		}

		flag := "reminder_24h_sent"
		if reminder.ReminderType == models.Reminder1h {
			flag = "reminder_1h_sent"
		}
		return tx.Model(&models.Appointment{}).
			Where("id = ?", reminder.AppointmentID).
			Update(flag, true).Error
	})
}

func (s *ReminderService) markFailed(reminder *models.AppointmentReminder, msg string) error {
	return s.db.Model(reminder).Updates(map[string]interface{}{
		"status":        models.ReminderFailed,
		"error_message": msg,
	}).Error
}
