package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/meinhoongagan/clinic-scheduler/controllers"
)

// SetupAppointmentRoutes configures all appointment related routes
func SetupAppointmentRoutes(app *fiber.App, ctl *controllers.AppointmentController) {
	appointments := app.Group("/appointments")
	appointments.Post("/", ctl.CreateAppointment)
	appointments.Get("/:id", ctl.GetAppointment)
	appointments.Post("/:id/confirm", ctl.ConfirmAppointment)
	appointments.Post("/:id/cancel", ctl.CancelAppointment)
	appointments.Post("/:id/reschedule", ctl.RescheduleAppointment)
	appointments.Post("/:id/complete", ctl.CompleteAppointment)
	appointments.Post("/:id/no-show", ctl.MarkNoShow)

	app.Get("/patients/:patientId/appointments", ctl.GetPatientAppointments)
	app.Get("/doctors/:doctorId/appointments", ctl.GetDoctorAppointments)
	app.Get("/doctors/:doctorId/appointments/summary", ctl.GetDoctorDaySummary)
}
