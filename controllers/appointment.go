package controllers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/meinhoongagan/clinic-scheduler/models"
	"github.com/meinhoongagan/clinic-scheduler/services"
)

// AppointmentController exposes booking and the appointment lifecycle.
type AppointmentController struct {
	appointments *services.AppointmentService
}

func NewAppointmentController(appointments *services.AppointmentService) *AppointmentController {
	return &AppointmentController{appointments: appointments}
}

// CreateAppointment godoc
// @Summary Book an appointment
// @Description Book an appointment for a patient with a doctor, optionally against a generated slot
// @Tags appointments
// @Accept json
// @Produce json
// @Param appointment body services.CreateAppointmentInput true "Booking request"
// @Success 201 {object} models.Appointment
// @Failure 400 {object} utils.ErrorResponse
// @Failure 409 {object} utils.ErrorResponse
// @Failure 422 {object} utils.ErrorResponse
// @Router /appointments [post]
func (ctl *AppointmentController) CreateAppointment(c *fiber.Ctx) error {
	var input services.CreateAppointmentInput
	if err := c.BodyParser(&input); err != nil {
		return badBody(c, err)
	}
	appt, err := ctl.appointments.Create(input)
	if err != nil {
		return serviceError(c, err, "Failed to create appointment")
	}
	return c.Status(fiber.StatusCreated).JSON(appt)
}

// GetAppointment godoc
// @Summary Get an appointment by ID
// @Tags appointments
// @Produce json
// @Param id path int true "Appointment ID"
// @Success 200 {object} models.Appointment
// @Failure 404 {object} utils.ErrorResponse
// @Router /appointments/{id} [get]
func (ctl *AppointmentController) GetAppointment(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return serviceError(c, err, "Invalid appointment ID")
	}
	appt, err := ctl.appointments.Get(id)
	if err != nil {
		return serviceError(c, err, "Appointment not found")
	}
	return c.JSON(appt)
}

// ConfirmAppointment godoc
// @Summary Confirm a pending appointment
// @Tags appointments
// @Produce json
// @Param id path int true "Appointment ID"
// @Success 200 {object} map[string]string
// @Failure 404 {object} utils.ErrorResponse
// @Failure 409 {object} utils.ErrorResponse
// @Router /appointments/{id}/confirm [post]
func (ctl *AppointmentController) ConfirmAppointment(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return serviceError(c, err, "Invalid appointment ID")
	}
	if err := ctl.appointments.Confirm(id); err != nil {
		return serviceError(c, err, "Failed to confirm appointment")
	}
	return c.JSON(fiber.Map{"message": "Appointment confirmed"})
}

type cancelRequest struct {
	Reason      string `json:"reason"`
	CancelledBy string `json:"cancelled_by"`
}

// CancelAppointment godoc
// @Summary Cancel an appointment
// @Description Cancel an upcoming appointment and release its slot
// @Tags appointments
// @Accept json
// @Produce json
// @Param id path int true "Appointment ID"
// @Param body body cancelRequest false "Cancellation details"
// @Success 200 {object} map[string]string
// @Failure 404 {object} utils.ErrorResponse
// @Failure 409 {object} utils.ErrorResponse
// @Failure 422 {object} utils.ErrorResponse
// @Router /appointments/{id}/cancel [post]
func (ctl *AppointmentController) CancelAppointment(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return serviceError(c, err, "Invalid appointment ID")
	}
	var req cancelRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return badBody(c, err)
		}
	}
	if err := ctl.appointments.Cancel(id, req.Reason, req.CancelledBy); err != nil {
		return serviceError(c, err, "Failed to cancel appointment")
	}
	return c.JSON(fiber.Map{"message": "Appointment cancelled"})
}

// RescheduleAppointment godoc
// @Summary Reschedule an appointment
// @Description Book a replacement appointment and mark the original rescheduled
// @Tags appointments
// @Accept json
// @Produce json
// @Param id path int true "Appointment ID"
// @Param body body services.RescheduleInput true "New date and time"
// @Success 200 {object} models.Appointment
// @Failure 404 {object} utils.ErrorResponse
// @Failure 409 {object} utils.ErrorResponse
// @Failure 422 {object} utils.ErrorResponse
// @Router /appointments/{id}/reschedule [post]
func (ctl *AppointmentController) RescheduleAppointment(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return serviceError(c, err, "Invalid appointment ID")
	}
	var input services.RescheduleInput
	if err := c.BodyParser(&input); err != nil {
		return badBody(c, err)
	}
	replacement, err := ctl.appointments.Reschedule(id, input)
	if err != nil {
		return serviceError(c, err, "Failed to reschedule appointment")
	}
	return c.JSON(replacement)
}

// CompleteAppointment godoc
// @Summary Complete an in-progress appointment
// @Tags appointments
// @Accept json
// @Produce json
// @Param id path int true "Appointment ID"
// @Param body body services.CompleteInput false "Consultation outcome"
// @Success 200 {object} map[string]string
// @Failure 404 {object} utils.ErrorResponse
// @Failure 409 {object} utils.ErrorResponse
// @Router /appointments/{id}/complete [post]
func (ctl *AppointmentController) CompleteAppointment(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return serviceError(c, err, "Invalid appointment ID")
	}
	var input services.CompleteInput
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&input); err != nil {
			return badBody(c, err)
		}
	}
	if err := ctl.appointments.Complete(id, input); err != nil {
		return serviceError(c, err, "Failed to complete appointment")
	}
	return c.JSON(fiber.Map{"message": "Appointment completed"})
}

// MarkNoShow godoc
// @Summary Mark an appointment as no-show
// @Tags appointments
// @Produce json
// @Param id path int true "Appointment ID"
// @Success 200 {object} map[string]string
// @Failure 404 {object} utils.ErrorResponse
// @Failure 409 {object} utils.ErrorResponse
// @Router /appointments/{id}/no-show [post]
func (ctl *AppointmentController) MarkNoShow(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return serviceError(c, err, "Invalid appointment ID")
	}
	if err := ctl.appointments.MarkNoShow(id); err != nil {
		return serviceError(c, err, "Failed to mark no-show")
	}
	return c.JSON(fiber.Map{"message": "Appointment marked as no-show"})
}

// GetPatientAppointments godoc
// @Summary List a patient's appointments
// @Tags appointments
// @Produce json
// @Param patientId path int true "Patient ID"
// @Param status query string false "Filter by status"
// @Param upcoming query bool false "Only upcoming appointments"
// @Param limit query int false "Max rows"
// @Success 200 {array} models.Appointment
// @Failure 500 {object} utils.ErrorResponse
// @Router /patients/{patientId}/appointments [get]
func (ctl *AppointmentController) GetPatientAppointments(c *fiber.Ctx) error {
	patientID, err := paramID(c, "patientId")
	if err != nil {
		return serviceError(c, err, "Invalid patient ID")
	}
	appointments, err := ctl.appointments.ListForPatient(
		patientID,
		models.AppointmentStatus(c.Query("status")),
		c.QueryBool("upcoming", false),
		c.QueryInt("limit", 0),
	)
	if err != nil {
		return serviceError(c, err, "Failed to fetch appointments")
	}
	return c.JSON(appointments)
}

// GetDoctorAppointments godoc
// @Summary List a doctor's appointments for a date
// @Tags appointments
// @Produce json
// @Param doctorId path int true "Doctor ID"
// @Param date query string false "Date (YYYY-MM-DD, defaults to today)"
// @Param status query string false "Filter by status"
// @Success 200 {array} models.Appointment
// @Failure 500 {object} utils.ErrorResponse
// @Router /doctors/{doctorId}/appointments [get]
func (ctl *AppointmentController) GetDoctorAppointments(c *fiber.Ctx) error {
	doctorID, err := paramID(c, "doctorId")
	if err != nil {
		return serviceError(c, err, "Invalid doctor ID")
	}
	appointments, err := ctl.appointments.ListForDoctor(doctorID, c.Query("date"), models.AppointmentStatus(c.Query("status")))
	if err != nil {
		return serviceError(c, err, "Failed to fetch appointments")
	}
	return c.JSON(appointments)
}

// GetDoctorDaySummary godoc
// @Summary Status counts for a doctor's day
// @Tags appointments
// @Produce json
// @Param doctorId path int true "Doctor ID"
// @Success 200 {object} map[string]int
// @Failure 500 {object} utils.ErrorResponse
// @Router /doctors/{doctorId}/appointments/summary [get]
func (ctl *AppointmentController) GetDoctorDaySummary(c *fiber.Ctx) error {
	doctorID, err := paramID(c, "doctorId")
	if err != nil {
		return serviceError(c, err, "Invalid doctor ID")
	}
	summary, err := ctl.appointments.TodaySummary(doctorID)
	if err != nil {
		return serviceError(c, err, "Failed to build summary")
	}
	return c.JSON(summary)
}
