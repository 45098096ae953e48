package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/classdeck/classdeck/database"
	"github.com/classdeck/classdeck/utils/response"
)

// HandleCheckHealth reports process and database health.
func HandleCheckHealth(store database.Storage) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := store.HealthCheck(); err != nil {
			return response.Error(c, fiber.StatusServiceUnavailable, "database unreachable")
		}
		return c.JSON(fiber.Map{"status": "ok"})
	}
}
