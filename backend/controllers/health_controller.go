package controllers

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type HealthController struct {
	DB      *gorm.DB
	Engines []string
}

func NewHealthController(db *gorm.DB, engines []string) *HealthController {
	return &HealthController{DB: db, Engines: engines}
}

// Health reports database reachability and the configured speech engines.
func (hc *HealthController) Health(c *fiber.Ctx) error {
	status := "ok"
	code := fiber.StatusOK

	sqlDB, err := hc.DB.DB()
	if err == nil {
		err = sqlDB.PingContext(c.UserContext())
	}
	if err != nil {
		status = "degraded"
		code = fiber.StatusServiceUnavailable
	}

	return c.Status(code).JSON(fiber.Map{
		"status":  status,
		"engines": hc.Engines,
	})
}
