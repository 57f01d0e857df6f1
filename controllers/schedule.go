package controllers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/meinhoongagan/clinic-scheduler/models"
	"github.com/meinhoongagan/clinic-scheduler/services"
)

// ScheduleController exposes doctor working-hours templates and exceptions.
type ScheduleController struct {
	schedules *services.ScheduleService
	slots     *services.SlotService
}

func NewScheduleController(schedules *services.ScheduleService, slots *services.SlotService) *ScheduleController {
	return &ScheduleController{schedules: schedules, slots: slots}
}

// GetWeeklySchedule godoc
// @Summary Get a doctor's weekly schedule
// @Description Get the doctor's working-hours template for every weekday
// @Tags schedules
// @Produce json
// @Param doctorId path int true "Doctor ID"
// @Success 200 {array} models.DoctorSchedule
// @Failure 500 {object} utils.ErrorResponse
// @Router /doctors/{doctorId}/schedule [get]
func (ctl *ScheduleController) GetWeeklySchedule(c *fiber.Ctx) error {
	doctorID, err := paramID(c, "doctorId")
	if err != nil {
		return serviceError(c, err, "Invalid doctor ID")
	}
	schedules, err := ctl.schedules.WeeklySchedule(doctorID)
	if err != nil {
		return serviceError(c, err, "Failed to fetch schedule")
	}
	return c.JSON(schedules)
}

// UpsertWeeklySchedule godoc
// @Summary Set a doctor's weekly schedule
// @Description Create or replace working-hours templates for one or more weekdays
// @Tags schedules
// @Accept json
// @Produce json
// @Param doctorId path int true "Doctor ID"
// @Param schedules body []models.DoctorSchedule true "Schedules"
// @Success 200 {array} models.DoctorSchedule
// @Failure 400 {object} utils.ErrorResponse
// @Failure 500 {object} utils.ErrorResponse
// @Router /doctors/{doctorId}/schedule [put]
func (ctl *ScheduleController) UpsertWeeklySchedule(c *fiber.Ctx) error {
	doctorID, err := paramID(c, "doctorId")
	if err != nil {
		return serviceError(c, err, "Invalid doctor ID")
	}
	var inputs []models.DoctorSchedule
	if err := c.BodyParser(&inputs); err != nil {
		return badBody(c, err)
	}
	saved, err := ctl.schedules.UpsertSchedules(doctorID, inputs)
	if err != nil {
		return serviceError(c, err, "Failed to save schedule")
	}
	return c.JSON(saved)
}

// GetAvailability godoc
// @Summary Get a doctor's day-by-day availability
// @Description List which of the next N days the doctor is available on
// @Tags schedules
// @Produce json
// @Param doctorId path int true "Doctor ID"
// @Param from query string false "Start date (YYYY-MM-DD, defaults to today)"
// @Param days query int false "Number of days (default 7)"
// @Success 200 {array} services.DayAvailability
// @Failure 500 {object} utils.ErrorResponse
// @Router /doctors/{doctorId}/availability [get]
func (ctl *ScheduleController) GetAvailability(c *fiber.Ctx) error {
	doctorID, err := paramID(c, "doctorId")
	if err != nil {
		return serviceError(c, err, "Invalid doctor ID")
	}
	from := c.Query("from")
	days := c.QueryInt("days", 7)
	availability, err := ctl.schedules.AvailableDays(doctorID, from, days)
	if err != nil {
		return serviceError(c, err, "Failed to compute availability")
	}
	return c.JSON(availability)
}

// GetEffectiveHours godoc
// @Summary Get a doctor's effective hours for a date
// @Description Resolve the weekly template against any exception for the date
// @Tags schedules
// @Produce json
// @Param doctorId path int true "Doctor ID"
// @Param date query string true "Date (YYYY-MM-DD)"
// @Success 200 {object} models.EffectiveHours
// @Failure 422 {object} utils.ErrorResponse
// @Failure 500 {object} utils.ErrorResponse
// @Router /doctors/{doctorId}/hours [get]
func (ctl *ScheduleController) GetEffectiveHours(c *fiber.Ctx) error {
	doctorID, err := paramID(c, "doctorId")
	if err != nil {
		return serviceError(c, err, "Invalid doctor ID")
	}
	hours, err := ctl.schedules.EffectiveHours(doctorID, c.Query("date"))
	if err != nil {
		return serviceError(c, err, "Failed to resolve hours")
	}
	return c.JSON(hours)
}

// CreateException godoc
// @Summary Record a schedule exception
// @Description Create or replace a leave, modified-hours or extra-hours entry for a date
// @Tags schedules
// @Accept json
// @Produce json
// @Param doctorId path int true "Doctor ID"
// @Param exception body models.ScheduleException true "Exception"
// @Success 201 {object} models.ScheduleException
// @Failure 400 {object} utils.ErrorResponse
// @Failure 500 {object} utils.ErrorResponse
// @Router /doctors/{doctorId}/exceptions [post]
func (ctl *ScheduleController) CreateException(c *fiber.Ctx) error {
	doctorID, err := paramID(c, "doctorId")
	if err != nil {
		return serviceError(c, err, "Invalid doctor ID")
	}
	var exc models.ScheduleException
	if err := c.BodyParser(&exc); err != nil {
		return badBody(c, err)
	}
	exc.DoctorID = doctorID
	saved, err := ctl.schedules.UpsertException(exc)
	if err != nil {
		return serviceError(c, err, "Failed to save exception")
	}
	return c.Status(fiber.StatusCreated).JSON(saved)
}

// GetExceptions godoc
// @Summary List a doctor's upcoming exceptions
// @Tags schedules
// @Produce json
// @Param doctorId path int true "Doctor ID"
// @Param days query int false "Horizon in days (default 30)"
// @Success 200 {array} models.ScheduleException
// @Failure 500 {object} utils.ErrorResponse
// @Router /doctors/{doctorId}/exceptions [get]
func (ctl *ScheduleController) GetExceptions(c *fiber.Ctx) error {
	doctorID, err := paramID(c, "doctorId")
	if err != nil {
		return serviceError(c, err, "Invalid doctor ID")
	}
	days := c.QueryInt("days", 30)
	exceptions, err := ctl.schedules.UpcomingExceptions(doctorID, days)
	if err != nil {
		return serviceError(c, err, "Failed to fetch exceptions")
	}
	return c.JSON(exceptions)
}
