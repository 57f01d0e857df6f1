package services

import (
	"errors"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/meinhoongagan/clinic-scheduler/models"
	"github.com/meinhoongagan/clinic-scheduler/utils"
)

// SlotService expands effective hours into bookable slots and keeps the
// per-slot capacity ledger. Counter mutations are conditional UPDATEs at the
// store, never read-modify-write in application code.
type SlotService struct {
	db        *gorm.DB
	schedules *ScheduleService
}

func NewSlotService(db *gorm.DB, schedules *ScheduleService) *SlotService {
	return &SlotService{db: db, schedules: schedules}
}

// GenerateForDate (re)generates slots for one doctor-date. Idempotent:
// existing starts are reused untouched; unbooked available slots are purged
// first so template edits take effect; slots with bookings are never touched.
func (s *SlotService) GenerateForDate(doctorID uint, date string) (int, error) {
	if date == "" {
		date = utils.Today()
	}
	hours, err := s.schedules.EffectiveHours(doctorID, date)
	if err != nil {
		if utils.KindOf(err) == utils.KindNotAvailable {
			log.Debug().Uint("doctor_id", doctorID).Str("date", date).Str("reason", err.Error()).
				Msg("no slots generated")
			return 0, nil
		}
		return 0, err
	}

	windows, err := models.ExpandWindows(hours)
	if err != nil {
		return 0, err
	}

	created := 0
	err = s.db.Transaction(func(tx *gorm.DB) error {
		// Purge regenerable slots. Hard delete so the (doctor, date, start)
		// unique index does not collide with soft-deleted rows.
		if err := tx.Unscoped().
			Where("doctor_id = ? AND slot_date = ? AND status = ? AND current_bookings = 0",
				doctorID, date, models.SlotAvailable).
			Delete(&models.TimeSlot{}).Error; err != nil {
			return err
		}

		for _, w := range windows {
			var existing models.TimeSlot
			err := tx.Where("doctor_id = ? AND slot_date = ? AND start_time = ?", doctorID, date, w.Start).
				First(&existing).Error
			if err == nil {
				continue // booked or blocked slot survives regeneration as-is
			}
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}

			slot := models.TimeSlot{
				DoctorID:    doctorID,
				SlotDate:    date,
				StartTime:   w.Start,
				EndTime:     w.End,
				Status:      models.SlotAvailable,
				MaxBookings: hours.MaxPatientsPerSlot,
			}
			if err := tx.Create(&slot).Error; err != nil {
				return err
			}
			created++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	log.Info().Uint("doctor_id", doctorID).Str("date", date).Int("created", created).Msg("slots generated")
	return created, nil
}

// GenerateRange generates slots for `days` days starting at `from`, skipping
// past dates. Returns the total number of slots created.
func (s *SlotService) GenerateRange(doctorID uint, from string, days int) (int, error) {
	if from == "" {
		from = utils.Today()
	}
	start, err := utils.ParseDate(from)
	if err != nil {
		return 0, utils.Validation("%s", err.Error())
	}
	today := utils.Today()

	total := 0
	for i := 0; i < days; i++ {
		date := utils.FormatDate(start.AddDate(0, 0, i))
		if date < today {
			continue
		}
		n, err := s.GenerateForDate(doctorID, date)
		if err != nil {
			log.Error().Err(err).Uint("doctor_id", doctorID).Str("date", date).Msg("slot generation failed")
			continue
		}
		total += n
	}
	return total, nil
}

// AvailableSlots lists a doctor's slots for a date, hiding already-started
// slots when the date is today. includeBooked widens the listing to every
// status.
func (s *SlotService) AvailableSlots(doctorID uint, date string, includeBooked bool) ([]models.TimeSlot, error) {
	if date == "" {
		date = utils.Today()
	}
	q := s.db.Where("doctor_id = ? AND slot_date = ?", doctorID, date).Order("start_time")
	if !includeBooked {
		q = q.Where("status = ?", models.SlotAvailable)
		if date == utils.Today() {
			q = q.Where("start_time > ?", utils.FormatClock(time.Now()))
		}
	}

	var slots []models.TimeSlot
	err := q.Find(&slots).Error
	return slots, err
}

// NextAvailable finds the doctor's earliest future available slot from a date.
func (s *SlotService) NextAvailable(doctorID uint, from string) (*models.TimeSlot, error) {
	if from == "" {
		from = utils.Today()
	}

	q := s.db.Where("doctor_id = ? AND slot_date >= ? AND status = ?", doctorID, from, models.SlotAvailable).
		Order("slot_date, start_time")
	if from <= utils.Today() {
		q = q.Where("slot_date > ? OR start_time > ?", utils.Today(), utils.FormatClock(time.Now()))
	}

	var slot models.TimeSlot
	err := q.First(&slot).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.NotFound("no available slot found")
	}
	if err != nil {
		return nil, err
	}
	return &slot, nil
}

// Book reserves one place on a slot inside the caller's transaction. The row
// is locked, preconditions checked, then the counter incremented with a
// guarded UPDATE so two concurrent bookings cannot both take the last place.
func (s *SlotService) Book(tx *gorm.DB, slotID uint) error {
	var slot models.TimeSlot
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&slot, slotID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return utils.NotFound("time slot not found")
	}
	if err != nil {
		return err
	}

	if slot.Status == models.SlotBlocked {
		return utils.NotAvailable("this time slot is blocked")
	}
	start, err := slot.StartsAt()
	if err != nil {
		return err
	}
	if !start.After(time.Now()) {
		return utils.NotAvailable("this time slot is in the past")
	}

	res := tx.Model(&models.TimeSlot{}).
		Where("id = ? AND status = ? AND current_bookings < max_bookings", slotID, models.SlotAvailable).
		Update("current_bookings", gorm.Expr("current_bookings + 1"))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return utils.Conflict("this time slot is already booked")
	}

	// Flip to booked once capacity is reached, in the same guarded style.
	return tx.Model(&models.TimeSlot{}).
		Where("id = ? AND status = ? AND current_bookings >= max_bookings", slotID, models.SlotAvailable).
		Update("status", models.SlotBooked).Error
}

// Release returns one place to a slot. A slot with no bookings is a no-op,
// so retrying a cancel never double-releases.
func (s *SlotService) Release(tx *gorm.DB, slotID uint) error {
	res := tx.Model(&models.TimeSlot{}).
		Where("id = ? AND current_bookings > 0", slotID).
		Update("current_bookings", gorm.Expr("current_bookings - 1"))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return nil
	}

	return tx.Model(&models.TimeSlot{}).
		Where("id = ? AND status = ? AND current_bookings < max_bookings", slotID, models.SlotBooked).
		Update("status", models.SlotAvailable).Error
}

// Block administratively closes a slot. Fails if anyone already booked it.
func (s *SlotService) Block(slotID uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var slot models.TimeSlot
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&slot, slotID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return utils.NotFound("time slot not found")
		}
		if err != nil {
			return err
		}
		if slot.CurrentBookings > 0 {
			return utils.Conflict("cannot block a slot with existing bookings")
		}
		return tx.Model(&slot).Update("status", models.SlotBlocked).Error
	})
}

// Unblock reopens a blocked slot.
func (s *SlotService) Unblock(slotID uint) error {
	res := s.db.Model(&models.TimeSlot{}).
		Where("id = ? AND status = ?", slotID, models.SlotBlocked).
		Update("status", models.SlotAvailable)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return utils.InvalidTransition("slot is not blocked")
	}
	return nil
}

// CleanupOld hard-deletes slots older than the retention window.
func (s *SlotService) CleanupOld(olderThanDays int) (int64, error) {
	cutoff := utils.FormatDate(time.Now().AddDate(0, 0, -olderThanDays))
	res := s.db.Unscoped().Where("slot_date < ?", cutoff).Delete(&models.TimeSlot{})
	if res.Error != nil {
		return 0, res.Error
	}
	if res.RowsAffected > 0 {
		log.Info().Int64("deleted", res.RowsAffected).Str("cutoff", cutoff).Msg("cleaned up old slots")
	}
	return res.RowsAffected, nil
}
