package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/meinhoongagan/clinic-scheduler/controllers"
)

// SetupQueueRoutes configures all check-in and live queue routes
func SetupQueueRoutes(app *fiber.App, ctl *controllers.QueueController) {
	app.Post("/appointments/:appointmentId/check-in", ctl.CheckIn)

	queue := app.Group("/queue")
	queue.Post("/:id/start", ctl.StartConsultation)
	queue.Post("/:id/complete", ctl.CompleteConsultation)
	queue.Post("/:id/skip", ctl.SkipPatient)
	queue.Post("/:id/requeue", ctl.RequeuePatient)

	doctors := app.Group("/doctors/:doctorId/queue")
	doctors.Get("/", ctl.GetDoctorQueue)
	doctors.Post("/call-next", ctl.CallNext)
	doctors.Get("/stats", ctl.GetQueueStats)

	app.Get("/patients/:patientId/queue-status", ctl.GetPatientQueueStatus)
}
