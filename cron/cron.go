package cron

import (
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/meinhoongagan/clinic-scheduler/config"
	"github.com/meinhoongagan/clinic-scheduler/models"
	"github.com/meinhoongagan/clinic-scheduler/services"
)

// Jobs bundles the services the background schedules drive.
type Jobs struct {
	db           *gorm.DB
	cfg          *config.Config
	slots        *services.SlotService
	appointments *services.AppointmentService
	reminders    *services.ReminderService
}

func NewJobs(
	db *gorm.DB,
	cfg *config.Config,
	slots *services.SlotService,
	appointments *services.AppointmentService,
	reminders *services.ReminderService,
) *Jobs {
	return &Jobs{
		db:           db,
		cfg:          cfg,
		slots:        slots,
		appointments: appointments,
		reminders:    reminders,
	}
}

// Start registers all background schedules and starts the runner.
func (j *Jobs) Start() *cron.Cron {
	c := cron.New()

	// Reminders are time-sensitive, so every minute.
	mustAdd(c, "* * * * *", j.dispatchReminders)
	// Auto-confirm and no-show sweeps tolerate coarser ticks.
	mustAdd(c, "*/10 * * * *", j.autoConfirm)
	mustAdd(c, "*/10 * * * *", j.sweepNoShows)
	// Keep the slot horizon topped up and purge stale slots overnight.
	mustAdd(c, "0 1 * * *", j.extendSlotHorizon)
	mustAdd(c, "30 1 * * *", j.cleanupSlots)

	c.Start()
	log.Info().Msg("cron scheduler started")
	return c
}

func mustAdd(c *cron.Cron, spec string, fn func()) {
	if _, err := c.AddFunc(spec, fn); err != nil {
		log.Fatal().Err(err).Str("spec", spec).Msg("failed to register cron job")
	}
}

func (j *Jobs) dispatchReminders() {
	sent, err := j.reminders.DispatchDue()
	if err != nil {
		log.Error().Err(err).Msg("reminder dispatch failed")
		return
	}
	if sent > 0 {
		log.Info().Int("sent", sent).Msg("dispatched appointment reminders")
	}
}

func (j *Jobs) autoConfirm() {
	confirmed, err := j.appointments.AutoConfirmDue()
	if err != nil {
		log.Error().Err(err).Msg("auto-confirm sweep failed")
		return
	}
	if confirmed > 0 {
		log.Info().Int("confirmed", confirmed).Msg("auto-confirmed pending appointments")
	}
}

func (j *Jobs) sweepNoShows() {
	marked, err := j.appointments.SweepNoShows()
	if err != nil {
		log.Error().Err(err).Msg("no-show sweep failed")
		return
	}
	if marked > 0 {
		log.Info().Int("marked", marked).Msg("marked overdue appointments as no-show")
	}
}

// extendSlotHorizon regenerates slots out to the configured horizon for every
// doctor with an active template.
func (j *Jobs) extendSlotHorizon() {
	var doctorIDs []uint
	err := j.db.Model(&models.DoctorSchedule{}).
		Where("is_active = ?", true).
		Distinct().
		Pluck("doctor_id", &doctorIDs).Error
	if err != nil {
		log.Error().Err(err).Msg("failed to list doctors for slot generation")
		return
	}

	total := 0
	for _, doctorID := range doctorIDs {
		created, err := j.slots.GenerateRange(doctorID, "", j.cfg.SlotHorizonDays)
		if err != nil {
			log.Error().Err(err).Uint("doctor_id", doctorID).Msg("slot generation failed")
			continue
		}
		total += created
	}
	log.Info().Int("doctors", len(doctorIDs)).Int("created", total).Msg("extended slot horizon")
}

func (j *Jobs) cleanupSlots() {
	deleted, err := j.slots.CleanupOld(j.cfg.SlotCleanupAfterDays)
	if err != nil {
		log.Error().Err(err).Msg("slot cleanup failed")
		return
	}
	if deleted > 0 {
		log.Info().Int64("deleted", deleted).Msg("purged stale empty slots")
	}
}
