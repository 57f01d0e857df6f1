package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/meinhoongagan/clinic-scheduler/models"
	"github.com/meinhoongagan/clinic-scheduler/utils"
)

// newTestDB opens an in-memory sqlite database pinned to one connection so
// every query sees the same memory store.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.DoctorSchedule{},
		&models.ScheduleException{},
		&models.TimeSlot{},
		&models.Appointment{},
		&models.QueueEntry{},
		&models.AppointmentReminder{},
	))
	return db
}

// seedWeekdayTemplate writes a template matching the returned future date so
// generation has hours to expand.
func seedWeekdayTemplate(t *testing.T, db *gorm.DB, doctorID uint) string {
	t.Helper()

	target := time.Now().AddDate(0, 0, 7)
	tmpl := models.DoctorSchedule{
		DoctorID:            doctorID,
		DayOfWeek:           models.DayOfWeek(target.Weekday()),
		StartTime:           "09:00",
		EndTime:             "12:00",
		SlotDurationMinutes: 30,
		MaxPatientsPerSlot:  2,
		IsActive:            true,
	}
	require.NoError(t, db.Create(&tmpl).Error)
	return utils.FormatDate(target)
}

func slotStarts(t *testing.T, db *gorm.DB, doctorID uint, date string) []string {
	t.Helper()
	var starts []string
	require.NoError(t, db.Model(&models.TimeSlot{}).
		Where("doctor_id = ? AND slot_date = ?", doctorID, date).
		Order("start_time").
		Pluck("start_time", &starts).Error)
	return starts
}

func TestGenerateForDateIdempotent(t *testing.T) {
	db := newTestDB(t)
	svc := NewSlotService(db, NewScheduleService(db))
	date := seedWeekdayTemplate(t, db, 1)

	created, err := svc.GenerateForDate(1, date)
	require.NoError(t, err)
	assert.Equal(t, 6, created)

	want := []string{"09:00", "09:30", "10:00", "10:30", "11:00", "11:30"}
	assert.Equal(t, want, slotStarts(t, db, 1, date))

	// A second run produces the same slot set, not duplicates.
	created, err = svc.GenerateForDate(1, date)
	require.NoError(t, err)
	assert.Equal(t, 6, created)
	assert.Equal(t, want, slotStarts(t, db, 1, date))
}

func TestGenerateForDateKeepsBookedSlots(t *testing.T) {
	db := newTestDB(t)
	svc := NewSlotService(db, NewScheduleService(db))
	date := seedWeekdayTemplate(t, db, 1)

	_, err := svc.GenerateForDate(1, date)
	require.NoError(t, err)

	var booked models.TimeSlot
	require.NoError(t, db.Where("doctor_id = ? AND slot_date = ? AND start_time = ?", 1, date, "10:00").
		First(&booked).Error)
	require.NoError(t, svc.Book(db, booked.ID))

	// Regeneration purges and recreates empty slots but never touches a
	// slot holding a booking.
	_, err = svc.GenerateForDate(1, date)
	require.NoError(t, err)

	var after models.TimeSlot
	require.NoError(t, db.Where("doctor_id = ? AND slot_date = ? AND start_time = ?", 1, date, "10:00").
		First(&after).Error)
	assert.Equal(t, booked.ID, after.ID)
	assert.Equal(t, 1, after.CurrentBookings)
	assert.Len(t, slotStarts(t, db, 1, date), 6)
}

func TestBookToCapacity(t *testing.T) {
	db := newTestDB(t)
	svc := NewSlotService(db, NewScheduleService(db))
	date := seedWeekdayTemplate(t, db, 1)

	_, err := svc.GenerateForDate(1, date)
	require.NoError(t, err)

	var slot models.TimeSlot
	require.NoError(t, db.Where("doctor_id = ? AND slot_date = ? AND start_time = ?", 1, date, "09:00").
		First(&slot).Error)

	// First booking leaves capacity open.
	require.NoError(t, svc.Book(db, slot.ID))
	require.NoError(t, db.First(&slot, slot.ID).Error)
	assert.Equal(t, 1, slot.CurrentBookings)
	assert.Equal(t, models.SlotAvailable, slot.Status)

	// Second booking fills the slot and flips it to booked.
	require.NoError(t, svc.Book(db, slot.ID))
	require.NoError(t, db.First(&slot, slot.ID).Error)
	assert.Equal(t, 2, slot.CurrentBookings)
	assert.Equal(t, models.SlotBooked, slot.Status)

	// A third attempt conflicts and the counter stays put.
	err = svc.Book(db, slot.ID)
	require.Error(t, err)
	assert.Equal(t, utils.KindConflict, utils.KindOf(err))
	require.NoError(t, db.First(&slot, slot.ID).Error)
	assert.Equal(t, 2, slot.CurrentBookings)
}

func TestBookGuards(t *testing.T) {
	db := newTestDB(t)
	svc := NewSlotService(db, NewScheduleService(db))

	past := models.TimeSlot{
		DoctorID:    1,
		SlotDate:    utils.FormatDate(time.Now().AddDate(0, 0, -1)),
		StartTime:   "09:00",
		EndTime:     "09:30",
		Status:      models.SlotAvailable,
		MaxBookings: 1,
	}
	require.NoError(t, db.Create(&past).Error)
	err := svc.Book(db, past.ID)
	require.Error(t, err)
	assert.Equal(t, utils.KindNotAvailable, utils.KindOf(err))

	blocked := models.TimeSlot{
		DoctorID:    1,
		SlotDate:    utils.FormatDate(time.Now().AddDate(0, 0, 1)),
		StartTime:   "09:00",
		EndTime:     "09:30",
		Status:      models.SlotBlocked,
		MaxBookings: 1,
	}
	require.NoError(t, db.Create(&blocked).Error)
	err = svc.Book(db, blocked.ID)
	require.Error(t, err)
	assert.Equal(t, utils.KindNotAvailable, utils.KindOf(err))

	err = svc.Book(db, 9999)
	require.Error(t, err)
	assert.Equal(t, utils.KindNotFound, utils.KindOf(err))
}

func TestReleaseIsNoOpAtZero(t *testing.T) {
	db := newTestDB(t)
	svc := NewSlotService(db, NewScheduleService(db))
	date := seedWeekdayTemplate(t, db, 1)

	_, err := svc.GenerateForDate(1, date)
	require.NoError(t, err)

	var slot models.TimeSlot
	require.NoError(t, db.Where("doctor_id = ? AND slot_date = ? AND start_time = ?", 1, date, "09:00").
		First(&slot).Error)

	// Fill the slot, then release one place: booked flips back to available.
	require.NoError(t, svc.Book(db, slot.ID))
	require.NoError(t, svc.Book(db, slot.ID))
	require.NoError(t, svc.Release(db, slot.ID))
	require.NoError(t, db.First(&slot, slot.ID).Error)
	assert.Equal(t, 1, slot.CurrentBookings)
	assert.Equal(t, models.SlotAvailable, slot.Status)

	require.NoError(t, svc.Release(db, slot.ID))
	require.NoError(t, db.First(&slot, slot.ID).Error)
	assert.Equal(t, 0, slot.CurrentBookings)

	// Releasing an empty slot is a no-op, so a retried cancel never drives
	// the counter negative.
	require.NoError(t, svc.Release(db, slot.ID))
	require.NoError(t, db.First(&slot, slot.ID).Error)
	assert.Equal(t, 0, slot.CurrentBookings)
}

func TestBlockRequiresEmptySlot(t *testing.T) {
	db := newTestDB(t)
	svc := NewSlotService(db, NewScheduleService(db))
	date := seedWeekdayTemplate(t, db, 1)

	_, err := svc.GenerateForDate(1, date)
	require.NoError(t, err)

	var slot models.TimeSlot
	require.NoError(t, db.Where("doctor_id = ? AND slot_date = ? AND start_time = ?", 1, date, "09:00").
		First(&slot).Error)

	require.NoError(t, svc.Book(db, slot.ID))
	err = svc.Block(slot.ID)
	require.Error(t, err)
	assert.Equal(t, utils.KindConflict, utils.KindOf(err))

	require.NoError(t, svc.Release(db, slot.ID))
	require.NoError(t, svc.Block(slot.ID))

	err = svc.Book(db, slot.ID)
	require.Error(t, err)
	assert.Equal(t, utils.KindNotAvailable, utils.KindOf(err))

	require.NoError(t, svc.Unblock(slot.ID))
	require.NoError(t, svc.Book(db, slot.ID))
}
