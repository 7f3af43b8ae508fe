package utils

import (
	"github.com/gofiber/fiber/v2"

	"github.com/noah-isme/courseforge-portal/internal/observability"
)

// APIResponse is the JSON envelope of every portal API response. Failures carry
// the request's correlation id so a user report can be matched to backend logs.
type APIResponse struct {
	Success       bool        `json:"success"`
	Data          interface{} `json:"data,omitempty"`
	Message       string      `json:"message"`
	Meta          interface{} `json:"meta,omitempty"`
	Details       interface{} `json:"details,omitempty"`
	CorrelationID string      `json:"correlation_id,omitempty"`
}

// SendSuccess sends a 200 success envelope.
func SendSuccess(c *fiber.Ctx, message string, data interface{}) error {
	return SendSuccessWithStatus(c, fiber.StatusOK, message, data)
}

// SendSuccessWithStatus sends a success envelope with status, e.g. 201 after a create.
func SendSuccessWithStatus(c *fiber.Ctx, status int, message string, data interface{}) error {
	return write(c, status, APIResponse{Success: true, Data: data, Message: message})
}

// OK sends a 200 success envelope with list metadata.
func OK(c *fiber.Ctx, data interface{}, message string, meta interface{}) error {
	return write(c, fiber.StatusOK, APIResponse{Success: true, Data: data, Message: message, Meta: meta})
}

// SendError sends a failure envelope without details.
func SendError(c *fiber.Ctx, status int, message string) error {
	return Fail(c, status, message, nil)
}

// Fail sends a failure envelope. Details usually hold field validation errors.
func Fail(c *fiber.Ctx, status int, message string, details interface{}) error {
	return write(c, status, APIResponse{
		Message:       message,
		Details:       details,
		CorrelationID: observability.CorrelationIDFromContext(c.UserContext()),
	})
}

func write(c *fiber.Ctx, status int, body APIResponse) error {
	if body.Message == "" {
		body.Message = "success"
		if !body.Success {
			body.Message = "error"
		}
	}
	if status == 0 {
		status = fiber.StatusOK
		if !body.Success {
			status = fiber.StatusInternalServerError
		}
	}
	return c.Status(status).JSON(body)
}
