package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/meinhoongagan/clinic-scheduler/controllers"
)

// SetupScheduleRoutes configures all working-hours and availability routes
func SetupScheduleRoutes(app *fiber.App, ctl *controllers.ScheduleController) {
	doctors := app.Group("/doctors/:doctorId")
	doctors.Get("/schedule", ctl.GetWeeklySchedule)
	doctors.Put("/schedule", ctl.UpsertWeeklySchedule)
	doctors.Get("/availability", ctl.GetAvailability)
	doctors.Get("/hours", ctl.GetEffectiveHours)
	doctors.Get("/exceptions", ctl.GetExceptions)
	doctors.Post("/exceptions", ctl.CreateException)
}
