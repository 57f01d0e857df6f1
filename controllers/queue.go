package controllers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/meinhoongagan/clinic-scheduler/models"
	"github.com/meinhoongagan/clinic-scheduler/services"
)

// QueueController exposes check-in and the live consultation queue.
type QueueController struct {
	queue *services.QueueService
}

func NewQueueController(queue *services.QueueService) *QueueController {
	return &QueueController{queue: queue}
}

// CheckIn godoc
// @Summary Check a patient in
// @Description Check a confirmed same-day appointment into the doctor's queue
// @Tags queue
// @Produce json
// @Param appointmentId path int true "Appointment ID"
// @Success 201 {object} models.QueueEntry
// @Failure 404 {object} utils.ErrorResponse
// @Failure 409 {object} utils.ErrorResponse
// @Failure 422 {object} utils.ErrorResponse
// @Router /appointments/{appointmentId}/check-in [post]
func (ctl *QueueController) CheckIn(c *fiber.Ctx) error {
	appointmentID, err := paramID(c, "appointmentId")
	if err != nil {
		return serviceError(c, err, "Invalid appointment ID")
	}
	entry, err := ctl.queue.CheckIn(appointmentID)
	if err != nil {
		return serviceError(c, err, "Failed to check in")
	}
	return c.Status(fiber.StatusCreated).JSON(entry)
}

// CallNext godoc
// @Summary Call the next waiting patient
// @Tags queue
// @Produce json
// @Param doctorId path int true "Doctor ID"
// @Success 200 {object} models.QueueEntry
// @Failure 404 {object} utils.ErrorResponse
// @Router /doctors/{doctorId}/queue/call-next [post]
func (ctl *QueueController) CallNext(c *fiber.Ctx) error {
	doctorID, err := paramID(c, "doctorId")
	if err != nil {
		return serviceError(c, err, "Invalid doctor ID")
	}
	entry, err := ctl.queue.CallNext(doctorID, c.Query("date"))
	if err != nil {
		return serviceError(c, err, "Failed to call next patient")
	}
	return c.JSON(entry)
}

// StartConsultation godoc
// @Summary Start a consultation for a queue entry
// @Tags queue
// @Produce json
// @Param id path int true "Queue entry ID"
// @Success 200 {object} models.QueueEntry
// @Failure 404 {object} utils.ErrorResponse
// @Failure 409 {object} utils.ErrorResponse
// @Router /queue/{id}/start [post]
func (ctl *QueueController) StartConsultation(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return serviceError(c, err, "Invalid queue entry ID")
	}
	entry, err := ctl.queue.StartConsultation(id)
	if err != nil {
		return serviceError(c, err, "Failed to start consultation")
	}
	return c.JSON(entry)
}

// CompleteConsultation godoc
// @Summary Complete a consultation
// @Description Complete the consultation, record its outcome and refresh wait estimates
// @Tags queue
// @Accept json
// @Produce json
// @Param id path int true "Queue entry ID"
// @Param body body services.CompleteInput false "Consultation outcome"
// @Success 200 {object} models.QueueEntry
// @Failure 404 {object} utils.ErrorResponse
// @Failure 409 {object} utils.ErrorResponse
// @Router /queue/{id}/complete [post]
func (ctl *QueueController) CompleteConsultation(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return serviceError(c, err, "Invalid queue entry ID")
	}
	var outcome services.CompleteInput
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&outcome); err != nil {
			return badBody(c, err)
		}
	}
	entry, err := ctl.queue.CompleteConsultation(id, outcome)
	if err != nil {
		return serviceError(c, err, "Failed to complete consultation")
	}
	return c.JSON(entry)
}

// SkipPatient godoc
// @Summary Skip a patient who is not present
// @Tags queue
// @Produce json
// @Param id path int true "Queue entry ID"
// @Param reason query string false "Why the patient was skipped"
// @Success 200 {object} models.QueueEntry
// @Failure 404 {object} utils.ErrorResponse
// @Failure 409 {object} utils.ErrorResponse
// @Router /queue/{id}/skip [post]
func (ctl *QueueController) SkipPatient(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return serviceError(c, err, "Invalid queue entry ID")
	}
	entry, err := ctl.queue.Skip(id, c.Query("reason"))
	if err != nil {
		return serviceError(c, err, "Failed to skip patient")
	}
	return c.JSON(entry)
}

// RequeuePatient godoc
// @Summary Put a skipped patient back in the queue
// @Tags queue
// @Produce json
// @Param id path int true "Queue entry ID"
// @Success 200 {object} models.QueueEntry
// @Failure 404 {object} utils.ErrorResponse
// @Failure 409 {object} utils.ErrorResponse
// @Router /queue/{id}/requeue [post]
func (ctl *QueueController) RequeuePatient(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return serviceError(c, err, "Invalid queue entry ID")
	}
	entry, err := ctl.queue.Requeue(id)
	if err != nil {
		return serviceError(c, err, "Failed to requeue patient")
	}
	return c.JSON(entry)
}

// GetDoctorQueue godoc
// @Summary A doctor's queue board for a date
// @Tags queue
// @Produce json
// @Param doctorId path int true "Doctor ID"
// @Param date query string false "Date (YYYY-MM-DD, defaults to today)"
// @Param status query string false "Filter by queue status"
// @Success 200 {array} models.QueueEntry
// @Failure 500 {object} utils.ErrorResponse
// @Router /doctors/{doctorId}/queue [get]
func (ctl *QueueController) GetDoctorQueue(c *fiber.Ctx) error {
	doctorID, err := paramID(c, "doctorId")
	if err != nil {
		return serviceError(c, err, "Invalid doctor ID")
	}
	status := models.QueueStatus(c.Query("status"))
	if status == "" && c.Query("date") == "" {
		entries, err := ctl.queue.Board(doctorID, "")
		if err != nil {
			return serviceError(c, err, "Failed to fetch queue")
		}
		return c.JSON(entries)
	}
	entries, err := ctl.queue.DoctorQueue(doctorID, c.Query("date"), status)
	if err != nil {
		return serviceError(c, err, "Failed to fetch queue")
	}
	return c.JSON(entries)
}

// GetQueueStats godoc
// @Summary Wait-time statistics for a doctor's day
// @Tags queue
// @Produce json
// @Param doctorId path int true "Doctor ID"
// @Param date query string false "Date (YYYY-MM-DD, defaults to today)"
// @Success 200 {object} services.QueueStats
// @Failure 500 {object} utils.ErrorResponse
// @Router /doctors/{doctorId}/queue/stats [get]
func (ctl *QueueController) GetQueueStats(c *fiber.Ctx) error {
	doctorID, err := paramID(c, "doctorId")
	if err != nil {
		return serviceError(c, err, "Invalid doctor ID")
	}
	stats, err := ctl.queue.Stats(doctorID, c.Query("date"))
	if err != nil {
		return serviceError(c, err, "Failed to compute stats")
	}
	return c.JSON(stats)
}

// GetPatientQueueStatus godoc
// @Summary A patient's live place in today's queue
// @Tags queue
// @Produce json
// @Param patientId path int true "Patient ID"
// @Success 200 {object} services.PatientStatus
// @Failure 404 {object} utils.ErrorResponse
// @Router /patients/{patientId}/queue-status [get]
func (ctl *QueueController) GetPatientQueueStatus(c *fiber.Ctx) error {
	patientID, err := paramID(c, "patientId")
	if err != nil {
		return serviceError(c, err, "Invalid patient ID")
	}
	status, err := ctl.queue.StatusForPatient(patientID, c.Query("date"))
	if err != nil {
		return serviceError(c, err, "Failed to fetch queue status")
	}
	return c.JSON(status)
}
