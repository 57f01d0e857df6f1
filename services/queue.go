package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/meinhoongagan/clinic-scheduler/config"
	"github.com/meinhoongagan/clinic-scheduler/models"
	"github.com/meinhoongagan/clinic-scheduler/redis"
	"github.com/meinhoongagan/clinic-scheduler/utils"
)

// QueueService maintains the per-doctor-per-day check-in queue and its
// wait-time estimates. Queue numbers are handed out under a per-partition
// advisory lock so they stay unique and strictly increasing.
type QueueService struct {
	db       *gorm.DB
	notifier NotificationSender
	cfg      *config.Config
}

func NewQueueService(db *gorm.DB, notifier NotificationSender, cfg *config.Config) *QueueService {
	return &QueueService{db: db, notifier: notifier, cfg: cfg}
}

// lockPartition serializes queue-number assignment for one doctor+date. The
// lock is transaction-scoped and released on commit/rollback.
func lockPartition(tx *gorm.DB, doctorID uint, date string) error {
	d, err := utils.ParseDate(date)
	if err != nil {
		return utils.Validation("%s", err.Error())
	}
	dayOrdinal := int32(d.Unix() / 86400)
	return tx.Exec("SELECT pg_advisory_xact_lock(?::int, ?::int)", int32(doctorID), dayOrdinal).Error
}

func (s *QueueService) nextQueueNumber(tx *gorm.DB, doctorID uint, date string) (int, error) {
	var maxNumber int
	err := tx.Model(&models.QueueEntry{}).
		Where("doctor_id = ? AND queue_date = ?", doctorID, date).
		Select("COALESCE(MAX(queue_number), 0)").
		Scan(&maxNumber).Error
	if err != nil {
		return 0, err
	}
	return maxNumber + 1, nil
}

func (s *QueueService) averageConsultMinutes(tx *gorm.DB, doctorID uint, date string) (float64, error) {
	var completed []models.QueueEntry
	err := tx.Where("doctor_id = ? AND queue_date = ? AND status = ?", doctorID, date, models.QueueCompleted).
		Find(&completed).Error
	if err != nil {
		return 0, err
	}
	return models.AverageConsultMinutes(completed, float64(s.cfg.DefaultConsultMinutes)), nil
}

// CheckIn transitions a confirmed same-day appointment to checked_in and
// appends it to the queue. Retrying a successful check-in returns the
// existing entry.
func (s *QueueService) CheckIn(appointmentID uint) (*models.QueueEntry, error) {
	today := utils.Today()
	var entry *models.QueueEntry

	err := s.db.Transaction(func(tx *gorm.DB) error {
		appt, err := lockAppointment(tx, appointmentID)
		if err != nil {
			return err
		}

		var existing models.QueueEntry
		err = tx.Where("appointment_id = ?", appointmentID).First(&existing).Error
		if err == nil {
			if appt.Status == models.StatusCheckedIn || appt.Status == models.StatusInProgress {
				entry = &existing
				return nil
			}
			return utils.Conflict("patient is already checked in")
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		if !models.CanTransition(appt.Status, models.StatusCheckedIn) {
			return utils.InvalidTransition("only confirmed appointments can be checked in (current status: %s)", appt.Status)
		}
		if err := checkInDateGuard(appt); err != nil {
			return err
		}

		if err := lockPartition(tx, appt.DoctorID, today); err != nil {
			return err
		}

		number, err := s.nextQueueNumber(tx, appt.DoctorID, today)
		if err != nil {
			return err
		}

		var ahead int64
		err = tx.Model(&models.QueueEntry{}).
			Where("doctor_id = ? AND queue_date = ? AND status = ?",
				appt.DoctorID, today, models.QueueWaiting).
			Count(&ahead).Error
		if err != nil {
			return err
		}
		avg, err := s.averageConsultMinutes(tx, appt.DoctorID, today)
		if err != nil {
			return err
		}

		now := time.Now()
		if err := tx.Model(appt).Updates(map[string]interface{}{
			"status":        models.StatusCheckedIn,
			"checked_in_at": now,
		}).Error; err != nil {
			return err
		}

		created := models.QueueEntry{
			AppointmentID:        appt.ID,
			DoctorID:             appt.DoctorID,
			QueueDate:            today,
			QueueNumber:          number,
			Status:               models.QueueWaiting,
			CheckedInAt:          now,
			EstimatedWaitMinutes: int(float64(ahead) * avg),
		}
		if err := tx.Create(&created).Error; err != nil {
			return err
		}
		entry = &created
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.refreshBoard(entry.DoctorID, entry.QueueDate)
	log.Info().
		Uint("appointment_id", appointmentID).
		Int("queue_number", entry.QueueNumber).
		Msg("patient checked in")
	return entry, nil
}

// CallNext marks the lowest-numbered waiting patient as called.
func (s *QueueService) CallNext(doctorID uint, date string) (*models.QueueEntry, error) {
	if date == "" {
		date = utils.Today()
	}

	var entry models.QueueEntry
	var patient models.User
	err := s.db.Transaction(func(tx *gorm.DB) error {
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("doctor_id = ? AND queue_date = ? AND status = ?", doctorID, date, models.QueueWaiting).
			Order("queue_number").
			First(&entry).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFound("no patients waiting in queue")
		}
		if err != nil {
			return err
		}

		now := time.Now()
		if err := tx.Model(&entry).Updates(map[string]interface{}{
			"status":    models.QueueCalled,
			"called_at": now,
		}).Error; err != nil {
			return err
		}

		var appt models.Appointment
		if err := tx.First(&appt, entry.AppointmentID).Error; err != nil {
			return err
		}
		return tx.First(&patient, appt.PatientID).Error
	})
	if err != nil {
		return nil, err
	}

	notify(s.notifier, patient, "You have been called",
		fmt.Sprintf("It is your turn now (queue number %d). Please proceed to the doctor.", entry.QueueNumber))
	s.refreshBoard(doctorID, date)
	log.Info().Uint("doctor_id", doctorID).Int("queue_number", entry.QueueNumber).Msg("called next patient")
	return &entry, nil
}

// StartConsultation moves a waiting or called entry to in_consultation and
// drives the appointment to in_progress.
func (s *QueueService) StartConsultation(entryID uint) (*models.QueueEntry, error) {
	var entry models.QueueEntry
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := lockQueueEntry(tx, entryID, &entry); err != nil {
			return err
		}
		if entry.Status != models.QueueWaiting && entry.Status != models.QueueCalled {
			return utils.InvalidTransition("cannot start consultation for a %s queue entry", entry.Status)
		}

		now := time.Now()
		updates := map[string]interface{}{
			"status":                  models.QueueInConsultation,
			"consultation_started_at": now,
		}
		if entry.CalledAt == nil {
			updates["called_at"] = now
		}
		if err := tx.Model(&entry).Updates(updates).Error; err != nil {
			return err
		}

		appt, err := lockAppointment(tx, entry.AppointmentID)
		if err != nil {
			return err
		}
		if !models.CanTransition(appt.Status, models.StatusInProgress) {
			return utils.InvalidTransition("patient must be checked in to start the consultation (current status: %s)", appt.Status)
		}
		return tx.Model(appt).Updates(map[string]interface{}{
			"status":     models.StatusInProgress,
			"started_at": now,
		}).Error
	})
	if err != nil {
		return nil, err
	}

	s.refreshBoard(entry.DoctorID, entry.QueueDate)
	log.Info().Uint("entry_id", entryID).Msg("consultation started")
	return &entry, nil
}

// CompleteConsultation finishes an in_consultation entry, completes the
// appointment with the outcome, and reassigns every remaining waiting
// entry's estimate from the fresh rolling average.
func (s *QueueService) CompleteConsultation(entryID uint, outcome CompleteInput) (*models.QueueEntry, error) {
	var entry models.QueueEntry
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := lockQueueEntry(tx, entryID, &entry); err != nil {
			return err
		}
		if entry.Status != models.QueueInConsultation {
			return utils.InvalidTransition("cannot complete consultation for a %s queue entry", entry.Status)
		}

		now := time.Now()
		if err := tx.Model(&entry).Updates(map[string]interface{}{
			"status":       models.QueueCompleted,
			"completed_at": now,
		}).Error; err != nil {
			return err
		}

		appt, err := lockAppointment(tx, entry.AppointmentID)
		if err != nil {
			return err
		}
		if !models.CanTransition(appt.Status, models.StatusCompleted) {
			return utils.InvalidTransition("consultation must be in progress to complete (current status: %s)", appt.Status)
		}
		if err := tx.Model(appt).Updates(completionUpdates(outcome)).Error; err != nil {
			return err
		}

		return s.recomputeWaitTimes(tx, entry.DoctorID, entry.QueueDate)
	})
	if err != nil {
		return nil, err
	}

	s.refreshBoard(entry.DoctorID, entry.QueueDate)
	log.Info().Uint("entry_id", entryID).Msg("consultation completed")
	return &entry, nil
}

// Skip marks a waiting or called entry as skipped. The appointment itself is
// untouched; a skipped patient can be requeued later.
func (s *QueueService) Skip(entryID uint, reason string) (*models.QueueEntry, error) {
	var entry models.QueueEntry
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := lockQueueEntry(tx, entryID, &entry); err != nil {
			return err
		}
		if entry.Status != models.QueueWaiting && entry.Status != models.QueueCalled {
			return utils.InvalidTransition("cannot skip a %s queue entry", entry.Status)
		}
		return tx.Model(&entry).Update("status", models.QueueSkipped).Error
	})
	if err != nil {
		return nil, err
	}

	s.refreshBoard(entry.DoctorID, entry.QueueDate)
	log.Info().Uint("entry_id", entryID).Str("reason", reason).Msg("patient skipped")
	return &entry, nil
}

// Requeue puts a skipped entry back at the tail with a fresh queue number.
func (s *QueueService) Requeue(entryID uint) (*models.QueueEntry, error) {
	var entry models.QueueEntry
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := lockQueueEntry(tx, entryID, &entry); err != nil {
			return err
		}
		if entry.Status != models.QueueSkipped {
			return utils.InvalidTransition("only skipped patients can be requeued (current status: %s)", entry.Status)
		}

		if err := lockPartition(tx, entry.DoctorID, entry.QueueDate); err != nil {
			return err
		}
		number, err := s.nextQueueNumber(tx, entry.DoctorID, entry.QueueDate)
		if err != nil {
			return err
		}

		var ahead int64
		err = tx.Model(&models.QueueEntry{}).
			Where("doctor_id = ? AND queue_date = ? AND status = ?",
				entry.DoctorID, entry.QueueDate, models.QueueWaiting).
			Count(&ahead).Error
		if err != nil {
			return err
		}
		avg, err := s.averageConsultMinutes(tx, entry.DoctorID, entry.QueueDate)
		if err != nil {
			return err
		}

		return tx.Model(&entry).Updates(map[string]interface{}{
			"queue_number":           number,
			"status":                 models.QueueWaiting,
			"called_at":              nil,
			"estimated_wait_minutes": int(float64(ahead) * avg),
		}).Error
	})
	if err != nil {
		return nil, err
	}

	s.refreshBoard(entry.DoctorID, entry.QueueDate)
	log.Info().Uint("entry_id", entryID).Int("queue_number", entry.QueueNumber).Msg("patient requeued")
	return &entry, nil
}

func lockQueueEntry(tx *gorm.DB, entryID uint, entry *models.QueueEntry) error {
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(entry, entryID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return utils.NotFound("queue entry not found")
	}
	return err
}

// recomputeWaitTimes reassigns estimated wait = position × rolling average
// for every waiting entry of the partition.
func (s *QueueService) recomputeWaitTimes(tx *gorm.DB, doctorID uint, date string) error {
	avg, err := s.averageConsultMinutes(tx, doctorID, date)
	if err != nil {
		return err
	}

	var waiting []models.QueueEntry
	err = tx.Where("doctor_id = ? AND queue_date = ? AND status = ?", doctorID, date, models.QueueWaiting).
		Order("queue_number").
		Find(&waiting).Error
	if err != nil {
		return err
	}

	for i := range waiting {
		estimate := int(float64(i+1) * avg)
		if err := tx.Model(&waiting[i]).Update("estimated_wait_minutes", estimate).Error; err != nil {
			return err
		}
	}
	return nil
}

// Position returns the entry's live position among waiting peers; 0 when the
// entry is not waiting.
func (s *QueueService) Position(entryID uint) (int, error) {
	var entry models.QueueEntry
	err := s.db.First(&entry, entryID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, utils.NotFound("queue entry not found")
	}
	if err != nil {
		return 0, err
	}
	if entry.Status != models.QueueWaiting {
		return 0, nil
	}

	var peers []models.QueueEntry
	err = s.db.Where("doctor_id = ? AND queue_date = ?", entry.DoctorID, entry.QueueDate).
		Find(&peers).Error
	if err != nil {
		return 0, err
	}
	return models.QueuePosition(&entry, peers), nil
}

// DoctorQueue lists a doctor's queue for a date, optionally by status.
func (s *QueueService) DoctorQueue(doctorID uint, date string, status models.QueueStatus) ([]models.QueueEntry, error) {
	if date == "" {
		date = utils.Today()
	}
	q := s.db.Preload("Appointment").Preload("Appointment.Patient").
		Where("doctor_id = ? AND queue_date = ?", doctorID, date).
		Order("queue_number")
	if status != "" {
		q = q.Where("status = ?", status)
	}

	var entries []models.QueueEntry
	err := q.Find(&entries).Error
	return entries, err
}

// QueueStats summarizes a doctor's day queue.
type QueueStats struct {
	Date                  string  `json:"date"`
	Total                 int     `json:"total"`
	Waiting               int     `json:"waiting"`
	Called                int     `json:"called"`
	InConsultation        int     `json:"in_consultation"`
	Completed             int     `json:"completed"`
	Skipped               int     `json:"skipped"`
	AverageWaitMinutes    float64 `json:"average_wait_minutes"`
	AverageConsultMinutes float64 `json:"average_consult_minutes"`
}

// Stats computes counts and averages for a doctor's day queue.
func (s *QueueService) Stats(doctorID uint, date string) (*QueueStats, error) {
	if date == "" {
		date = utils.Today()
	}

	var entries []models.QueueEntry
	err := s.db.Where("doctor_id = ? AND queue_date = ?", doctorID, date).Find(&entries).Error
	if err != nil {
		return nil, err
	}

	stats := &QueueStats{Date: date}
	var totalWait float64
	var waitCount int
	var completed []models.QueueEntry

	for i := range entries {
		e := &entries[i]
		stats.Total++
		switch e.Status {
		case models.QueueWaiting:
			stats.Waiting++
		case models.QueueCalled:
			stats.Called++
		case models.QueueInConsultation:
			stats.InConsultation++
		case models.QueueCompleted:
			stats.Completed++
			completed = append(completed, *e)
			if e.CalledAt != nil {
				totalWait += e.CalledAt.Sub(e.CheckedInAt).Minutes()
				waitCount++
			}
		case models.QueueSkipped:
			stats.Skipped++
		}
	}

	if waitCount > 0 {
		stats.AverageWaitMinutes = totalWait / float64(waitCount)
	}
	stats.AverageConsultMinutes = models.AverageConsultMinutes(completed, float64(s.cfg.DefaultConsultMinutes))
	return stats, nil
}

// PatientStatus is a patient's live view of their place in today's queue.
type PatientStatus struct {
	EntryID              uint               `json:"entry_id"`
	QueueNumber          int                `json:"queue_number"`
	Position             int                `json:"position"`
	Status               models.QueueStatus `json:"status"`
	DoctorName           string             `json:"doctor_name"`
	CheckedInAt          time.Time          `json:"checked_in_at"`
	CalledAt             *time.Time         `json:"called_at,omitempty"`
	EstimatedWaitMinutes int                `json:"estimated_wait_minutes"`
	ActualWaitMinutes    int                `json:"actual_wait_minutes"`
}

// StatusForPatient returns the patient's live entry for a date, or NotFound.
func (s *QueueService) StatusForPatient(patientID uint, date string) (*PatientStatus, error) {
	if date == "" {
		date = utils.Today()
	}

	var entry models.QueueEntry
	err := s.db.Preload("Appointment").Preload("Appointment.Doctor").
		Joins("JOIN appointments ON appointments.id = queue_entries.appointment_id").
		Where("appointments.patient_id = ? AND queue_entries.queue_date = ? AND queue_entries.status IN ?",
			patientID, date,
			[]models.QueueStatus{models.QueueWaiting, models.QueueCalled, models.QueueInConsultation}).
		First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.NotFound("patient is not in today's queue")
	}
	if err != nil {
		return nil, err
	}

	position, err := s.Position(entry.ID)
	if err != nil {
		return nil, err
	}

	return &PatientStatus{
		EntryID:              entry.ID,
		QueueNumber:          entry.QueueNumber,
		Position:             position,
		Status:               entry.Status,
		DoctorName:           entry.Appointment.Doctor.Name,
		CheckedInAt:          entry.CheckedInAt,
		CalledAt:             entry.CalledAt,
		EstimatedWaitMinutes: entry.EstimatedWaitMinutes,
		ActualWaitMinutes:    entry.WaitMinutes(time.Now()),
	}, nil
}

const boardTTL = 30 * time.Second

func boardKey(doctorID uint, date string) string {
	return fmt.Sprintf("queue:board:%d:%s", doctorID, date)
}

// refreshBoard caches the queue board after a mutation. Best effort: a cache
// failure is logged and the DB stays the source of truth.
func (s *QueueService) refreshBoard(doctorID uint, date string) {
	if redis.Client == nil {
		return
	}
	entries, err := s.DoctorQueue(doctorID, date, "")
	if err != nil {
		log.Warn().Err(err).Msg("failed to load queue for board cache")
		return
	}
	payload, err := json.Marshal(entries)
	if err != nil {
		log.Warn().Err(err).Msg("failed to marshal queue board")
		return
	}
	if err := redis.Client.Set(redis.Ctx, boardKey(doctorID, date), payload, boardTTL).Err(); err != nil {
		log.Warn().Err(err).Msg("failed to cache queue board")
	}
}

// Board returns the cached queue board when fresh, falling back to the DB.
func (s *QueueService) Board(doctorID uint, date string) ([]models.QueueEntry, error) {
	if date == "" {
		date = utils.Today()
	}
	if redis.Client != nil {
		raw, err := redis.Client.Get(redis.Ctx, boardKey(doctorID, date)).Bytes()
		if err == nil {
			var entries []models.QueueEntry
			if err := json.Unmarshal(raw, &entries); err == nil {
				return entries, nil
			}
		}
	}
	return s.DoctorQueue(doctorID, date, "")
}
