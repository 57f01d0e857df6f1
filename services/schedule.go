package services

import (
	"errors"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/meinhoongagan/clinic-scheduler/models"
	"github.com/meinhoongagan/clinic-scheduler/utils"
)

// ScheduleService owns weekly templates and date exceptions, and resolves a
// doctor's effective availability for any date.
type ScheduleService struct {
	db *gorm.DB
}

func NewScheduleService(db *gorm.DB) *ScheduleService {
	return &ScheduleService{db: db}
}

// TemplateForDay returns the active weekly template for a weekday, or nil.
func (s *ScheduleService) TemplateForDay(doctorID uint, day time.Weekday) (*models.DoctorSchedule, error) {
	var tmpl models.DoctorSchedule
	err := s.db.Where("doctor_id = ? AND day_of_week = ? AND is_active = ?", doctorID, int(day), true).
		First(&tmpl).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &tmpl, nil
}

// WeeklySchedule returns the doctor's active templates ordered by weekday.
func (s *ScheduleService) WeeklySchedule(doctorID uint) ([]models.DoctorSchedule, error) {
	var schedules []models.DoctorSchedule
	err := s.db.Where("doctor_id = ? AND is_active = ?", doctorID, true).
		Order("day_of_week").
		Find(&schedules).Error
	return schedules, err
}

// ExceptionForDate returns the exception covering a date, or nil.
func (s *ScheduleService) ExceptionForDate(doctorID uint, date string) (*models.ScheduleException, error) {
	var exc models.ScheduleException
	err := s.db.Where("doctor_id = ? AND exception_date = ?", doctorID, date).First(&exc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &exc, nil
}

// EffectiveHours resolves what hours the doctor works on a date. Returns a
// typed NotAvailable error carrying the displayable reason when they do not.
func (s *ScheduleService) EffectiveHours(doctorID uint, date string) (*models.EffectiveHours, error) {
	weekday, err := utils.DateWeekday(date)
	if err != nil {
		return nil, utils.Validation("%s", err.Error())
	}

	exc, err := s.ExceptionForDate(doctorID, date)
	if err != nil {
		return nil, err
	}
	tmpl, err := s.TemplateForDay(doctorID, weekday)
	if err != nil {
		return nil, err
	}

	hours, reason := models.ResolveEffectiveHours(tmpl, exc, weekday)
	if hours == nil {
		return nil, utils.NotAvailable("%s", reason)
	}
	return hours, nil
}

// UpsertSchedules validates and writes the weekly template rows, one per
// weekday, replacing any existing row for the same (doctor, weekday).
func (s *ScheduleService) UpsertSchedules(doctorID uint, inputs []models.DoctorSchedule) ([]models.DoctorSchedule, error) {
	for i := range inputs {
		inputs[i].DoctorID = doctorID
		if inputs[i].SlotDurationMinutes == 0 {
			inputs[i].SlotDurationMinutes = models.DefaultSlotDurationMinutes
		}
		if inputs[i].MaxPatientsPerSlot == 0 {
			inputs[i].MaxPatientsPerSlot = models.DefaultMaxPatientsPerSlot
		}
		if err := inputs[i].Validate(); err != nil {
			return nil, err
		}
	}

	var saved []models.DoctorSchedule
	err := s.db.Transaction(func(tx *gorm.DB) error {
		for i := range inputs {
			in := inputs[i]

			var existing models.DoctorSchedule
			err := tx.Where("doctor_id = ? AND day_of_week = ?", doctorID, in.DayOfWeek).
				First(&existing).Error
			switch {
			case errors.Is(err, gorm.ErrRecordNotFound):
				if err := tx.Create(&in).Error; err != nil {
					return err
				}
				saved = append(saved, in)
			case err != nil:
				return err
			default:
				in.ID = existing.ID
				in.CreatedAt = existing.CreatedAt
				if err := tx.Save(&in).Error; err != nil {
					return err
				}
				saved = append(saved, in)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info().Uint("doctor_id", doctorID).Int("days", len(saved)).Msg("weekly schedule saved")
	return saved, nil
}

// UpsertException validates and writes a date exception, replacing any
// existing one for the same (doctor, date).
func (s *ScheduleService) UpsertException(exc models.ScheduleException) (*models.ScheduleException, error) {
	if err := exc.Validate(); err != nil {
		return nil, err
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var existing models.ScheduleException
		err := tx.Where("doctor_id = ? AND exception_date = ?", exc.DoctorID, exc.ExceptionDate).
			First(&existing).Error
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			return tx.Create(&exc).Error
		case err != nil:
			return err
		default:
			exc.ID = existing.ID
			exc.CreatedAt = existing.CreatedAt
			return tx.Save(&exc).Error
		}
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Uint("doctor_id", exc.DoctorID).
		Str("date", exc.ExceptionDate).
		Str("type", string(exc.ExceptionType)).
		Msg("schedule exception saved")
	return &exc, nil
}

// UpcomingExceptions lists exceptions from today for the next `days` days.
func (s *ScheduleService) UpcomingExceptions(doctorID uint, days int) ([]models.ScheduleException, error) {
	today := utils.Today()
	end := utils.FormatDate(time.Now().AddDate(0, 0, days))

	var exceptions []models.ScheduleException
	err := s.db.Where("doctor_id = ? AND exception_date >= ? AND exception_date <= ?", doctorID, today, end).
		Order("exception_date").
		Find(&exceptions).Error
	return exceptions, err
}

// DayAvailability is one row of the booking lookahead.
type DayAvailability struct {
	Date        string `json:"date"`
	DayName     string `json:"day_name"`
	IsAvailable bool   `json:"is_available"`
	Reason      string `json:"reason,omitempty"`
}

// AvailableDays reports availability per date over a lookahead window.
func (s *ScheduleService) AvailableDays(doctorID uint, from string, days int) ([]DayAvailability, error) {
	if from == "" {
		from = utils.Today()
	}
	start, err := utils.ParseDate(from)
	if err != nil {
		return nil, utils.Validation("%s", err.Error())
	}

	result := make([]DayAvailability, 0, days)
	for i := 0; i < days; i++ {
		d := start.AddDate(0, 0, i)
		date := utils.FormatDate(d)

		day := DayAvailability{Date: date, DayName: d.Weekday().String()}
		if _, err := s.EffectiveHours(doctorID, date); err != nil {
			if utils.KindOf(err) != utils.KindNotAvailable {
				return nil, err
			}
			day.Reason = err.Error()
		} else {
			day.IsAvailable = true
		}
		result = append(result, day)
	}
	return result, nil
}
