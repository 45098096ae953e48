package response

import (
	"log"

	"github.com/gofiber/fiber/v2"
)

// Error responses carry the shape {"error": <message>}; successful responses
// return the affected row(s) directly or a small status object such as
// {"result": "accepted"}.

// ErrorBody is the wire shape of every error response.
type ErrorBody struct {
	Error string `json:"error"`
}

// Success returns the data as-is with 200 OK
func Success(c *fiber.Ctx, data interface{}) error {
	return c.Status(fiber.StatusOK).JSON(data)
}

// Created returns the data as-is with 201 Created
func Created(c *fiber.Ctx, data interface{}) error {
	return c.Status(fiber.StatusCreated).JSON(data)
}

// Result returns a small status object, e.g. {"result": "accepted"}
func Result(c *fiber.Ctx, result string) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"result": result})
}

// Error returns an error response with the given status
func Error(c *fiber.Ctx, statusCode int, message string) error {
	return c.Status(statusCode).JSON(ErrorBody{Error: message})
}

// BadRequest returns a 400 Bad Request response
func BadRequest(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusBadRequest, message)
}

// Unauthorized returns a 401 Unauthorized response
func Unauthorized(c *fiber.Ctx, message string) error {
	if message == "" {
		message = "Unauthorized access"
	}
	return Error(c, fiber.StatusUnauthorized, message)
}

// Forbidden returns a 403 Forbidden response
func Forbidden(c *fiber.Ctx, message string) error {
	if message == "" {
		message = "Access forbidden"
	}
	return Error(c, fiber.StatusForbidden, message)
}

// NotFound returns a 404 Not Found response
func NotFound(c *fiber.Ctx, message string) error {
	if message == "" {
		message = "Resource not found"
	}
	return Error(c, fiber.StatusNotFound, message)
}

// Conflict returns a 409 Conflict response
func Conflict(c *fiber.Ctx, message string) error {
	return Error(c, fiber.StatusConflict, message)
}

// TooManyRequests returns a 429 Too Many Requests response
func TooManyRequests(c *fiber.Ctx, message string) error {
	if message == "" {
		message = "Too many requests"
	}
	return Error(c, fiber.StatusTooManyRequests, message)
}

// BadGateway returns a 502 response for upstream collaborator failures
// (email transport, AI provider)
func BadGateway(c *fiber.Ctx, message string) error {
	if message == "" {
		message = "Upstream service unavailable"
	}
	return Error(c, fiber.StatusBadGateway, message)
}

// Internal logs the underlying error server-side and returns a generic 500.
// Raw datastore errors never reach the client.
func Internal(c *fiber.Ctx, err error) error {
	log.Printf("internal error on %s %s: %v", c.Method(), c.Path(), err)
	return Error(c, fiber.StatusInternalServerError, "Internal server error")
}
