package handlers

import (
	"github.com/feocourse/feocourse-api/database"
	"github.com/feocourse/feocourse-api/utils/response"
	"github.com/gofiber/fiber/v2"
)

// HandleCheckHealth reports service and database health
func HandleCheckHealth(c *fiber.Ctx, store database.Storage) error {
	dbStatus := "ok"
	if err := store.HealthCheck(); err != nil {
		dbStatus = "unavailable"
	}
	return response.Success(c, fiber.Map{
		"status":   "ok",
		"database": dbStatus,
	})
}
