package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/meinhoongagan/clinic-scheduler/controllers"
)

// SetupSlotRoutes configures all slot generation and browsing routes
func SetupSlotRoutes(app *fiber.App, ctl *controllers.SlotController) {
	doctors := app.Group("/doctors/:doctorId")
	doctors.Post("/slots/generate", ctl.GenerateSlots)
	doctors.Get("/slots", ctl.GetAvailableSlots)
	doctors.Get("/slots/next", ctl.GetNextAvailable)

	slots := app.Group("/slots")
	slots.Post("/:id/block", ctl.BlockSlot)
	slots.Post("/:id/unblock", ctl.UnblockSlot)
}
