package db

import (
	"github.com/rs/zerolog/log"

	"github.com/meinhoongagan/clinic-scheduler/models"
)

// Migrate runs AutoMigrate for every engine table. Called explicitly, never
// on Init.
func Migrate() {
	err := DB.AutoMigrate(
		&models.User{},
		&models.DoctorSchedule{},
		&models.ScheduleException{},
		&models.TimeSlot{},
		&models.Appointment{},
		&models.QueueEntry{},
		&models.AppointmentReminder{},
	)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}

	log.Info().Msg("migrations applied")
}
