package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/meinhoongagan/clinic-scheduler/config"
	"github.com/meinhoongagan/clinic-scheduler/models"
	"github.com/meinhoongagan/clinic-scheduler/utils"
)

// AppointmentService drives the appointment lifecycle. Every mutation is a
// short transaction that locks the row, checks the transition guard, then
// writes, so a sweep and a user action can never both apply to the same row.
type AppointmentService struct {
	db        *gorm.DB
	schedules *ScheduleService
	slots     *SlotService
	reminders *ReminderService
	notifier  NotificationSender
	cfg       *config.Config
}

func NewAppointmentService(
	db *gorm.DB,
	schedules *ScheduleService,
	slots *SlotService,
	reminders *ReminderService,
	notifier NotificationSender,
	cfg *config.Config,
) *AppointmentService {
	return &AppointmentService{
		db:        db,
		schedules: schedules,
		slots:     slots,
		reminders: reminders,
		notifier:  notifier,
		cfg:       cfg,
	}
}

// CreateAppointmentInput carries everything needed to book.
type CreateAppointmentInput struct {
	PatientID    uint               `json:"patient_id"`
	DoctorID     uint               `json:"doctor_id"`
	Date         string             `json:"date"`
	StartTime    string             `json:"start_time"`
	TimeSlotID   *uint              `json:"time_slot_id,omitempty"`
	Reason       string             `json:"reason"`
	Symptoms     string             `json:"symptoms"`
	PatientNotes string             `json:"patient_notes"`
	BookingType  models.BookingType `json:"booking_type"`
}

// Create books a new appointment. Availability validation, duplicate checks,
// the slot reservation and the appointment insert all commit together or not
// at all.
func (s *AppointmentService) Create(input CreateAppointmentInput) (*models.Appointment, error) {
	var appt *models.Appointment
	err := s.db.Transaction(func(tx *gorm.DB) error {
		created, err := s.createInTx(tx, input, nil)
		if err != nil {
			return err
		}
		appt = created
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Uint("appointment_id", appt.ID).
		Uint("patient_id", appt.PatientID).
		Uint("doctor_id", appt.DoctorID).
		Str("date", appt.AppointmentDate).
		Str("start", appt.StartTime).
		Msg("appointment created")
	return appt, nil
}

// createInTx performs the booking inside an existing transaction so that
// Reschedule can pair it with marking the predecessor.
func (s *AppointmentService) createInTx(tx *gorm.DB, input CreateAppointmentInput, rescheduledFrom *uint) (*models.Appointment, error) {
	if input.PatientID == input.DoctorID {
		return nil, utils.Validation("patient and doctor cannot be the same person")
	}

	startsAt, err := utils.CombineDateTime(input.Date, input.StartTime)
	if err != nil {
		return nil, utils.Validation("%s", err.Error())
	}
	if !startsAt.After(time.Now()) {
		return nil, utils.NotAvailable("cannot book an appointment in the past")
	}

	hours, err := s.schedules.EffectiveHours(input.DoctorID, input.Date)
	if err != nil {
		return nil, err
	}

	endTime, err := bookingWindow(hours, input.StartTime)
	if err != nil {
		return nil, err
	}

	// Serialize bookings for this doctor-date partition. The duplicate and
	// clash checks below are existence checks, so without this two
	// concurrent transactions could both see an empty result and insert.
	if err := lockPartition(tx, input.DoctorID, input.Date); err != nil {
		return nil, err
	}

	// The patient may not hold a second active appointment with this doctor
	// on this date.
	var duplicate models.Appointment
	err = tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("patient_id = ? AND doctor_id = ? AND appointment_date = ? AND status IN ?",
			input.PatientID, input.DoctorID, input.Date, activeStatuses()).
		First(&duplicate).Error
	if err == nil {
		return nil, utils.Conflict("you already have an appointment with this doctor on this date")
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	// Slotless bookings claim the bare start time; slot bookings let the
	// ledger's capacity decide instead.
	if input.TimeSlotID == nil {
		var clash models.Appointment
		err = tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("doctor_id = ? AND appointment_date = ? AND start_time = ? AND status IN ?",
				input.DoctorID, input.Date, input.StartTime, activeStatuses()).
			First(&clash).Error
		if err == nil {
			return nil, utils.Conflict("this time slot is already booked")
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	} else {
		var slot models.TimeSlot
		if err := tx.First(&slot, *input.TimeSlotID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, utils.NotFound("time slot not found")
			}
			return nil, err
		}
		if slot.DoctorID != input.DoctorID || slot.SlotDate != input.Date || slot.StartTime != input.StartTime {
			return nil, utils.Validation("time slot does not match the requested doctor, date and time")
		}
		if err := s.slots.Book(tx, *input.TimeSlotID); err != nil {
			return nil, err
		}
	}

	appt := models.Appointment{
		PatientID:         input.PatientID,
		DoctorID:          input.DoctorID,
		TimeSlotID:        input.TimeSlotID,
		AppointmentDate:   input.Date,
		StartTime:         input.StartTime,
		EndTime:           endTime,
		Status:            models.StatusPending,
		BookingType:       input.BookingType,
		Reason:            input.Reason,
		Symptoms:          input.Symptoms,
		PatientNotes:      input.PatientNotes,
		RescheduledFromID: rescheduledFrom,
	}
	if err := tx.Create(&appt).Error; err != nil {
		return nil, err
	}

	if err := s.reminders.ScheduleFor(tx, &appt); err != nil {
		return nil, err
	}

	return &appt, nil
}

func activeStatuses() []models.AppointmentStatus {
	return []models.AppointmentStatus{
		models.StatusPending, models.StatusConfirmed, models.StatusCheckedIn, models.StatusInProgress,
	}
}

// bookingWindow validates the requested start against the effective hours and
// returns the appointment's end time. Keeping the whole window inside the
// working hours also means the end can never wrap past midnight into a
// non-clock string.
func bookingWindow(hours *models.EffectiveHours, startTime string) (string, error) {
	startMin, err := utils.ClockMinutes(startTime)
	if err != nil {
		return "", utils.Validation("%s", err.Error())
	}
	hoursStart, err := utils.ClockMinutes(hours.StartTime)
	if err != nil {
		return "", err
	}
	hoursEnd, err := utils.ClockMinutes(hours.EndTime)
	if err != nil {
		return "", err
	}

	duration := hours.SlotDurationMinutes
	if duration <= 0 {
		duration = models.DefaultSlotDurationMinutes
	}
	endMin := startMin + duration
	if startMin < hoursStart || endMin > hoursEnd {
		return "", utils.NotAvailable("requested time is outside the doctor's working hours")
	}
	return utils.MinutesClock(endMin), nil
}

// Get loads an appointment with its relations.
func (s *AppointmentService) Get(id uint) (*models.Appointment, error) {
	var appt models.Appointment
	err := s.db.Preload("Patient").Preload("Doctor").Preload("TimeSlot").First(&appt, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.NotFound("appointment not found")
	}
	if err != nil {
		return nil, err
	}
	return &appt, nil
}

// lockAppointment loads the row FOR UPDATE inside tx.
func lockAppointment(tx *gorm.DB, id uint) (*models.Appointment, error) {
	var appt models.Appointment
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&appt, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.NotFound("appointment not found")
	}
	if err != nil {
		return nil, err
	}
	return &appt, nil
}

// Confirm moves pending → confirmed. Confirming an already confirmed
// appointment is a no-op so retries stay safe.
func (s *AppointmentService) Confirm(id uint) error {
	var patient models.User
	confirmed := false
	err := s.db.Transaction(func(tx *gorm.DB) error {
		appt, err := lockAppointment(tx, id)
		if err != nil {
			return err
		}
		if appt.Status == models.StatusConfirmed {
			return nil
		}
		if !models.CanTransition(appt.Status, models.StatusConfirmed) {
			return utils.InvalidTransition("only pending appointments can be confirmed (current status: %s)", appt.Status)
		}
		now := time.Now()
		if err := tx.Model(appt).Updates(map[string]interface{}{
			"status":       models.StatusConfirmed,
			"confirmed_at": now,
		}).Error; err != nil {
			return err
		}
		confirmed = true
		return tx.First(&patient, appt.PatientID).Error
	})
	if err != nil {
		return err
	}

	if confirmed {
		notify(s.notifier, patient, "Appointment confirmed", "Your appointment has been confirmed.")
		log.Info().Uint("appointment_id", id).Msg("appointment confirmed")
	}
	return nil
}

// checkInDateGuard allows check-in only on the appointment's own date. The
// checked_in and in_progress transitions themselves live on QueueService:
// check-in always creates the queue entry in the same transaction, so the
// appointment and the queue can never disagree.
func checkInDateGuard(appt *models.Appointment) error {
	today := utils.Today()
	if appt.AppointmentDate == today {
		return nil
	}
	if appt.AppointmentDate < today {
		return utils.NotAvailable("cannot check in for a past appointment")
	}
	return utils.NotAvailable("cannot check in before the appointment date")
}

// CompleteInput records the consultation outcome.
type CompleteInput struct {
	DoctorNotes     string   `json:"doctor_notes"`
	Fee             *float64 `json:"fee,omitempty"`
	PrescriptionRef *string  `json:"prescription_ref,omitempty"`
}

// Complete moves in_progress → completed and records the outcome.
func (s *AppointmentService) Complete(id uint, input CompleteInput) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		appt, err := lockAppointment(tx, id)
		if err != nil {
			return err
		}
		if appt.Status == models.StatusCompleted {
			return nil
		}
		if !models.CanTransition(appt.Status, models.StatusCompleted) {
			return utils.InvalidTransition("consultation must be in progress to complete (current status: %s)", appt.Status)
		}
		return tx.Model(appt).Updates(completionUpdates(input)).Error
	})
}

func completionUpdates(input CompleteInput) map[string]interface{} {
	updates := map[string]interface{}{
		"status":       models.StatusCompleted,
		"completed_at": time.Now(),
	}
	if input.DoctorNotes != "" {
		updates["doctor_notes"] = input.DoctorNotes
	}
	if input.Fee != nil {
		updates["consultation_fee"] = *input.Fee
	}
	if input.PrescriptionRef != nil {
		updates["prescription_ref"] = *input.PrescriptionRef
	}
	return updates
}

// Cancel releases the slot, invalidates pending reminders and marks the row
// cancelled. Retrying a successful cancel is a no-op, never a double release.
func (s *AppointmentService) Cancel(id uint, reason, cancelledBy string) error {
	if cancelledBy != "doctor" {
		cancelledBy = "patient"
	}
	var doctor models.User
	cancelled := false
	err := s.db.Transaction(func(tx *gorm.DB) error {
		appt, err := lockAppointment(tx, id)
		if err != nil {
			return err
		}
		if appt.Status == models.StatusCancelled {
			return nil
		}
		now := time.Now()
		if !models.CanTransition(appt.Status, models.StatusCancelled) {
			return utils.InvalidTransition("this appointment cannot be cancelled (current status: %s)", appt.Status)
		}
		if !appt.IsUpcoming(now) {
			return utils.NotAvailable("only upcoming appointments can be cancelled")
		}

		if err := tx.Model(appt).Updates(map[string]interface{}{
			"status":              models.StatusCancelled,
			"cancellation_reason": reason,
			"cancelled_by":        cancelledBy,
			"cancelled_at":        now,
		}).Error; err != nil {
			return err
		}

		if appt.TimeSlotID != nil {
			if err := s.slots.Release(tx, *appt.TimeSlotID); err != nil {
				return err
			}
		}
		if err := s.reminders.CancelPending(tx, appt.ID, "appointment cancelled"); err != nil {
			return err
		}
		cancelled = true
		return tx.First(&doctor, appt.DoctorID).Error
	})
	if err != nil {
		return err
	}

	if cancelled {
		notify(s.notifier, doctor, "Appointment cancelled",
			fmt.Sprintf("An appointment was cancelled by the %s.", cancelledBy))
		log.Info().Uint("appointment_id", id).Str("cancelled_by", cancelledBy).Msg("appointment cancelled")
	}
	return nil
}

// RescheduleInput names the replacement booking.
type RescheduleInput struct {
	Date       string `json:"date"`
	StartTime  string `json:"start_time"`
	TimeSlotID *uint  `json:"time_slot_id,omitempty"`
	Reason     string `json:"reason"`
}

// Reschedule books a replacement appointment through the same availability
// validation as Create, links the predecessor, marks it rescheduled and
// releases its slot, all in one transaction.
func (s *AppointmentService) Reschedule(id uint, input RescheduleInput) (*models.Appointment, error) {
	var replacement *models.Appointment
	err := s.db.Transaction(func(tx *gorm.DB) error {
		appt, err := lockAppointment(tx, id)
		if err != nil {
			return err
		}
		if !appt.CanReschedule(time.Now()) {
			return utils.InvalidTransition("this appointment cannot be rescheduled (current status: %s)", appt.Status)
		}

		created, err := s.createInTx(tx, CreateAppointmentInput{
			PatientID:    appt.PatientID,
			DoctorID:     appt.DoctorID,
			Date:         input.Date,
			StartTime:    input.StartTime,
			TimeSlotID:   input.TimeSlotID,
			Reason:       appt.Reason,
			Symptoms:     appt.Symptoms,
			PatientNotes: appt.PatientNotes,
			BookingType:  appt.BookingType,
		}, &appt.ID)
		if err != nil {
			return err
		}

		cancelNote := input.Reason
		if cancelNote == "" {
			cancelNote = "rescheduled"
		}
		if err := tx.Model(appt).Updates(map[string]interface{}{
			"status":              models.StatusRescheduled,
			"cancellation_reason": cancelNote,
		}).Error; err != nil {
			return err
		}

		if appt.TimeSlotID != nil {
			if err := s.slots.Release(tx, *appt.TimeSlotID); err != nil {
				return err
			}
		}
		if err := s.reminders.CancelPending(tx, appt.ID, "appointment rescheduled"); err != nil {
			return err
		}

		replacement = created
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Uint("appointment_id", id).
		Uint("replacement_id", replacement.ID).
		Str("date", replacement.AppointmentDate).
		Msg("appointment rescheduled")
	return replacement, nil
}

// MarkNoShow moves pending/confirmed → no_show.
func (s *AppointmentService) MarkNoShow(id uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		appt, err := lockAppointment(tx, id)
		if err != nil {
			return err
		}
		if appt.Status == models.StatusNoShow {
			return nil
		}
		if !models.CanTransition(appt.Status, models.StatusNoShow) {
			return utils.InvalidTransition("only pending or confirmed appointments can be marked no-show (current status: %s)", appt.Status)
		}
		return tx.Model(appt).Update("status", models.StatusNoShow).Error
	})
}

// ListForPatient returns a patient's appointments, optionally only upcoming.
func (s *AppointmentService) ListForPatient(patientID uint, status models.AppointmentStatus, upcomingOnly bool, limit int) ([]models.Appointment, error) {
	q := s.db.Preload("Doctor").Preload("TimeSlot").Where("patient_id = ?", patientID)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	if upcomingOnly {
		today := utils.Today()
		nowClock := utils.FormatClock(time.Now())
		q = q.Where("appointment_date > ? OR (appointment_date = ? AND start_time > ?)", today, today, nowClock).
			Where("status NOT IN ?", []models.AppointmentStatus{
				models.StatusCancelled, models.StatusCompleted, models.StatusNoShow, models.StatusRescheduled,
			})
	}
	q = q.Order("appointment_date DESC, start_time")
	if limit > 0 {
		q = q.Limit(limit)
	}

	var appointments []models.Appointment
	err := q.Find(&appointments).Error
	return appointments, err
}

// ListForDoctor returns a doctor's appointments, optionally filtered.
func (s *AppointmentService) ListForDoctor(doctorID uint, date string, status models.AppointmentStatus) ([]models.Appointment, error) {
	q := s.db.Preload("Patient").Preload("TimeSlot").Where("doctor_id = ?", doctorID)
	if date != "" {
		q = q.Where("appointment_date = ?", date)
	}
	if status != "" {
		q = q.Where("status = ?", status)
	}

	var appointments []models.Appointment
	err := q.Order("appointment_date, start_time").Find(&appointments).Error
	return appointments, err
}

// TodaySummary counts today's appointments for a doctor by status.
func (s *AppointmentService) TodaySummary(doctorID uint) (map[string]int, error) {
	var rows []struct {
		Status string
		Count  int
	}
	err := s.db.Model(&models.Appointment{}).
		Select("status, count(*) as count").
		Where("doctor_id = ? AND appointment_date = ?", doctorID, utils.Today()).
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	summary := map[string]int{
		"total": 0, "pending": 0, "confirmed": 0, "checked_in": 0,
		"in_progress": 0, "completed": 0, "cancelled": 0, "no_show": 0, "rescheduled": 0,
	}
	for _, r := range rows {
		summary[r.Status] = r.Count
		summary["total"] += r.Count
	}
	return summary, nil
}

// AutoConfirmDue confirms pending appointments whose start is within the
// configured lead window. Idempotent: the transition guard skips rows a
// concurrent action already moved.
func (s *AppointmentService) AutoConfirmDue() (int, error) {
	cutoff := time.Now().Add(time.Duration(s.cfg.AutoConfirmLeadHours) * time.Hour)

	var pending []models.Appointment
	err := s.db.Where("status = ? AND appointment_date <= ?", models.StatusPending, utils.FormatDate(cutoff)).
		Find(&pending).Error
	if err != nil {
		return 0, err
	}

	confirmed := 0
	now := time.Now()
	for i := range pending {
		startsAt, err := pending[i].StartsAt()
		if err != nil || startsAt.After(cutoff) || startsAt.Before(now) {
			continue
		}
		if err := s.Confirm(pending[i].ID); err != nil {
			log.Warn().Err(err).Uint("appointment_id", pending[i].ID).Msg("auto-confirm skipped")
			continue
		}
		confirmed++
	}

	if confirmed > 0 {
		log.Info().Int("confirmed", confirmed).Msg("auto-confirm sweep finished")
	}
	return confirmed, nil
}

// SweepNoShows marks pending/confirmed appointments past the grace period as
// no-shows. A bad row is logged and skipped.
func (s *AppointmentService) SweepNoShows() (int, error) {
	now := time.Now()
	grace := time.Duration(s.cfg.NoShowGraceMinutes) * time.Minute

	var stale []models.Appointment
	err := s.db.Where("status IN ? AND appointment_date <= ?",
		[]models.AppointmentStatus{models.StatusPending, models.StatusConfirmed}, utils.Today()).
		Find(&stale).Error
	if err != nil {
		return 0, err
	}

	marked := 0
	for i := range stale {
		startsAt, err := stale[i].StartsAt()
		if err != nil || now.Before(startsAt.Add(grace)) {
			continue
		}
		if err := s.MarkNoShow(stale[i].ID); err != nil {
			log.Warn().Err(err).Uint("appointment_id", stale[i].ID).Msg("no-show sweep skipped")
			continue
		}
		marked++
	}

	if marked > 0 {
		log.Info().Int("marked", marked).Msg("no-show sweep finished")
	}
	return marked, nil
}
