package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/sahilchouksey/intern-track/database"
	"github.com/sahilchouksey/intern-track/utils/response"
)

// HandleCheckHealth reports whether the database answers
func HandleCheckHealth(c *fiber.Ctx, store database.Storage) error {
	if err := store.HealthCheck(); err != nil {
		return response.ServiceUnavailable(c, "Database unavailable")
	}
	return c.JSON(fiber.Map{"status": "ok"})
}
