package utils

import (
	"github.com/gofiber/fiber/v2"
)

// ErrorResponse структура для ошибок
type ErrorResponse struct {
	Success bool        `json:"success"`
	Error   string      `json:"error"`
	Message string      `json:"message,omitempty"`
	Details interface{} `json:"details,omitempty"`
	Stage   string      `json:"stage,omitempty"`
}

// OK acknowledges a write that has nothing else to report.
func OK(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"ok": true})
}

// Created отправляет ответ 201 Created
func Created(c *fiber.Ctx, data interface{}) error {
	return c.Status(fiber.StatusCreated).JSON(data)
}
