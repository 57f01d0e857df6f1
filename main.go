package main

import (
	"os"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/meinhoongagan/clinic-scheduler/config"
	"github.com/meinhoongagan/clinic-scheduler/controllers"
	"github.com/meinhoongagan/clinic-scheduler/cron"
	"github.com/meinhoongagan/clinic-scheduler/db"
	"github.com/meinhoongagan/clinic-scheduler/redis"
	"github.com/meinhoongagan/clinic-scheduler/routes"
	"github.com/meinhoongagan/clinic-scheduler/services"
)

func main() {
	cfg := config.Load()

	if cfg.Environment == "development" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	db.Init(cfg.DatabaseURL)
	db.Migrate()
	redis.Init(cfg.RedisAddr)

	var notifier services.NotificationSender = services.NewEmailNotifier(cfg)
	if cfg.SMTPHost == "" {
		log.Warn().Msg("SMTP not configured, notifications will only be logged")
		notifier = services.LogNotifier{}
	}
	scheduleSvc := services.NewScheduleService(db.DB)
	slotSvc := services.NewSlotService(db.DB, scheduleSvc)
	reminderSvc := services.NewReminderService(db.DB, notifier)
	appointmentSvc := services.NewAppointmentService(db.DB, scheduleSvc, slotSvc, reminderSvc, notifier, cfg)
	queueSvc := services.NewQueueService(db.DB, notifier, cfg)

	app := fiber.New()
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
	}))

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	routes.SetupScheduleRoutes(app, controllers.NewScheduleController(scheduleSvc, slotSvc))
	routes.SetupSlotRoutes(app, controllers.NewSlotController(slotSvc))
	routes.SetupAppointmentRoutes(app, controllers.NewAppointmentController(appointmentSvc))
	routes.SetupQueueRoutes(app, controllers.NewQueueController(queueSvc))

	jobs := cron.NewJobs(db.DB, cfg, slotSvc, appointmentSvc, reminderSvc)
	jobs.Start()

	log.Info().Str("port", cfg.Port).Msg("starting server")
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}
