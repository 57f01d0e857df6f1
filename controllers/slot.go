package controllers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/meinhoongagan/clinic-scheduler/services"
)

// SlotController exposes slot generation and slot browsing.
type SlotController struct {
	slots *services.SlotService
}

func NewSlotController(slots *services.SlotService) *SlotController {
	return &SlotController{slots: slots}
}

// GenerateSlots godoc
// @Summary Generate bookable slots for a doctor
// @Description Expand the doctor's effective hours into slots for a date, or a range of days when days is given. Safe to re-run.
// @Tags slots
// @Produce json
// @Param doctorId path int true "Doctor ID"
// @Param date query string false "Date (YYYY-MM-DD, defaults to today)"
// @Param days query int false "Generate this many days starting at date"
// @Success 200 {object} map[string]int
// @Failure 400 {object} utils.ErrorResponse
// @Failure 500 {object} utils.ErrorResponse
// @Router /doctors/{doctorId}/slots/generate [post]
func (ctl *SlotController) GenerateSlots(c *fiber.Ctx) error {
	doctorID, err := paramID(c, "doctorId")
	if err != nil {
		return serviceError(c, err, "Invalid doctor ID")
	}
	date := c.Query("date")
	days := c.QueryInt("days", 0)

	var created int
	if days > 1 {
		created, err = ctl.slots.GenerateRange(doctorID, date, days)
	} else {
		created, err = ctl.slots.GenerateForDate(doctorID, date)
	}
	if err != nil {
		return serviceError(c, err, "Failed to generate slots")
	}
	return c.JSON(fiber.Map{"created": created})
}

// GetAvailableSlots godoc
// @Summary List a doctor's slots for a date
// @Description List open slots; pass include_booked=true to see the full day
// @Tags slots
// @Produce json
// @Param doctorId path int true "Doctor ID"
// @Param date query string false "Date (YYYY-MM-DD, defaults to today)"
// @Param include_booked query bool false "Include booked and blocked slots"
// @Success 200 {array} models.TimeSlot
// @Failure 500 {object} utils.ErrorResponse
// @Router /doctors/{doctorId}/slots [get]
func (ctl *SlotController) GetAvailableSlots(c *fiber.Ctx) error {
	doctorID, err := paramID(c, "doctorId")
	if err != nil {
		return serviceError(c, err, "Invalid doctor ID")
	}
	slots, err := ctl.slots.AvailableSlots(doctorID, c.Query("date"), c.QueryBool("include_booked", false))
	if err != nil {
		return serviceError(c, err, "Failed to fetch slots")
	}
	return c.JSON(slots)
}

// GetNextAvailable godoc
// @Summary Find a doctor's next open slot
// @Tags slots
// @Produce json
// @Param doctorId path int true "Doctor ID"
// @Param from query string false "Search from this date (defaults to today)"
// @Success 200 {object} models.TimeSlot
// @Failure 404 {object} utils.ErrorResponse
// @Failure 500 {object} utils.ErrorResponse
// @Router /doctors/{doctorId}/slots/next [get]
func (ctl *SlotController) GetNextAvailable(c *fiber.Ctx) error {
	doctorID, err := paramID(c, "doctorId")
	if err != nil {
		return serviceError(c, err, "Invalid doctor ID")
	}
	slot, err := ctl.slots.NextAvailable(doctorID, c.Query("from"))
	if err != nil {
		return serviceError(c, err, "Failed to find next slot")
	}
	return c.JSON(slot)
}

// BlockSlot godoc
// @Summary Block a slot from booking
// @Tags slots
// @Produce json
// @Param id path int true "Slot ID"
// @Success 200 {object} map[string]string
// @Failure 404 {object} utils.ErrorResponse
// @Failure 409 {object} utils.ErrorResponse
// @Router /slots/{id}/block [post]
func (ctl *SlotController) BlockSlot(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return serviceError(c, err, "Invalid slot ID")
	}
	if err := ctl.slots.Block(id); err != nil {
		return serviceError(c, err, "Failed to block slot")
	}
	return c.JSON(fiber.Map{"message": "Slot blocked"})
}

// UnblockSlot godoc
// @Summary Reopen a blocked slot
// @Tags slots
// @Produce json
// @Param id path int true "Slot ID"
// @Success 200 {object} map[string]string
// @Failure 404 {object} utils.ErrorResponse
// @Failure 409 {object} utils.ErrorResponse
// @Router /slots/{id}/unblock [post]
func (ctl *SlotController) UnblockSlot(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return serviceError(c, err, "Invalid slot ID")
	}
	if err := ctl.slots.Unblock(id); err != nil {
		return serviceError(c, err, "Failed to unblock slot")
	}
	return c.JSON(fiber.Map{"message": "Slot unblocked"})
}
