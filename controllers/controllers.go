package controllers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/meinhoongagan/clinic-scheduler/utils"
)

// paramID parses a :id-style route parameter as an unsigned integer.
func paramID(c *fiber.Ctx, name string) (uint, error) {
	raw := c.Params(name)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, utils.Validation("invalid %s: %q", name, raw)
	}
	return uint(id), nil
}

// serviceError renders a service-layer error with the status its kind maps to.
func serviceError(c *fiber.Ctx, err error, fallback string) error {
	status := utils.HTTPStatus(err)
	msg := fallback
	if kind := utils.KindOf(err); kind != utils.KindInternal {
		msg = err.Error()
	}
	resp := utils.ErrorResponse{Message: msg, Kind: string(utils.KindOf(err))}
	if status == fiber.StatusInternalServerError {
		resp.Error = err.Error()
	}
	return c.Status(status).JSON(resp)
}

func badBody(c *fiber.Ctx, err error) error {
	return c.Status(fiber.StatusBadRequest).JSON(utils.ErrorResponse{
		Message: "Failed to parse request body",
		Error:   err.Error(),
	})
}
